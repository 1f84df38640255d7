package models

import "time"

// Status is the stage a task is in. Any status may move to any other.
type Status string

const (
	StatusReady Status = "Ready"
	StatusDoing Status = "Doing"
	StatusDone  Status = "Done"
)

// Statuses lists the recognized statuses in display order.
var Statuses = []Status{StatusReady, StatusDoing, StatusDone}

func (s Status) Valid() bool {
	switch s {
	case StatusReady, StatusDoing, StatusDone:
		return true
	}
	return false
}

type Task struct {
	ID           int64     `db:"id"`
	Name         string    `db:"name"`
	Description  string    `db:"description"`
	Status       Status    `db:"status"`
	CreationDate time.Time `db:"creation_date"`
	OwnerID      int64     `db:"owner_id"`
}
