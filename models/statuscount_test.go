package models_test

import (
	"tasklist/models"
	"testing"
)

func TestCountByStatus(t *testing.T) {
	tests := []struct {
		name  string
		tasks []models.Task
		want  models.StatusCounts
	}{
		{
			name:  "No tasks should yield all zero counts",
			tasks: nil,
			want:  models.StatusCounts{"Ready": 0, "Doing": 0, "Done": 0},
		},
		{
			name: "Mixed statuses should be counted per status",
			tasks: []models.Task{
				{Status: models.StatusReady},
				{Status: models.StatusDone},
				{Status: models.StatusDone},
				{Status: models.StatusDoing},
			},
			want: models.StatusCounts{"Ready": 1, "Doing": 1, "Done": 2},
		},
		{
			name: "Unrecognized statuses should be excluded",
			tasks: []models.Task{
				{Status: "Archived"},
				{Status: "done"},
				{Status: models.StatusReady},
			},
			want: models.StatusCounts{"Ready": 1, "Doing": 0, "Done": 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := models.CountByStatus(tt.tasks)
			if len(got) != len(models.Statuses) {
				t.Fatalf("CountByStatus() returned %d keys, want %d", len(got), len(models.Statuses))
			}
			for status, n := range tt.want {
				if got[status] != n {
					t.Errorf("CountByStatus()[%s] = %d, want %d", status, got[status], n)
				}
			}
		})
	}
}

func TestStatusValid(t *testing.T) {
	tests := []struct {
		status models.Status
		want   bool
	}{
		{models.StatusReady, true},
		{models.StatusDoing, true},
		{models.StatusDone, true},
		{"ready", false},
		{"", false},
		{"In Progress", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.Valid(); got != tt.want {
				t.Errorf("Status(%q).Valid() = %v, want %v", tt.status, got, tt.want)
			}
		})
	}
}
