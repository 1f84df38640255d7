package handlers

import (
	"time"

	"tasklist/models"
)

// OwnerQuery selects the owner whose tasks are read. ownerId is preferred;
// id is accepted for older clients.
type OwnerQuery struct {
	OwnerID int64 `form:"ownerId" binding:"omitempty,gt=0"`
	ID      int64 `form:"id" binding:"omitempty,gt=0"`
}

func (q OwnerQuery) owner() int64 {
	if q.OwnerID != 0 {
		return q.OwnerID
	}
	return q.ID
}

// TaskIDQuery selects a single task by id.
type TaskIDQuery struct {
	ID int64 `form:"id" binding:"required,gt=0" example:"1"`
}

// AddTaskRequest creates a task. userEmail is accepted as an alias of ownerEmail.
type AddTaskRequest struct {
	Name        string        `json:"name" binding:"required" example:"Write documentation"`
	Description string        `json:"description" example:"Write full Swagger docs for the API"`
	Status      models.Status `json:"status" binding:"required,oneof=Ready Doing Done" example:"Ready"`
	OwnerEmail  string        `json:"ownerEmail" binding:"required_without=UserEmail" example:"user@example.com"`
	UserEmail   string        `json:"userEmail,omitempty" swaggerignore:"true"`
}

func (r AddTaskRequest) ownerEmail() string {
	if r.OwnerEmail != "" {
		return r.OwnerEmail
	}
	return r.UserEmail
}

// UpdateTaskRequest moves a task to another status.
type UpdateTaskRequest struct {
	ID     int64         `json:"id" binding:"required,gt=0" example:"1"`
	Status models.Status `json:"status" binding:"required,oneof=Ready Doing Done" example:"Done"`
}

// TaskView is the task shape returned by every endpoint.
type TaskView struct {
	ID           int64         `json:"id" example:"1"`
	Name         string        `json:"name" example:"Write documentation"`
	Description  string        `json:"description" example:"Write full Swagger docs for the API"`
	Status       models.Status `json:"status" example:"Ready"`
	CreationDate time.Time     `json:"creation_date"`
	Owner        int64         `json:"owner" example:"1"`
}

// TaskListResponse wraps an owner's tasks.
type TaskListResponse struct {
	Tasks []TaskView `json:"tasks"`
}

// StatusCountsResponse always carries all three statuses.
type StatusCountsResponse struct {
	Ready int `json:"Ready" example:"0"`
	Doing int `json:"Doing" example:"0"`
	Done  int `json:"Done" example:"1"`
}

// RegisterUserRequest creates a user.
type RegisterUserRequest struct {
	Name     string `json:"name" binding:"required" example:"Ana"`
	Email    string `json:"email" binding:"required" example:"ana@x.com"`
	Password string `json:"password" binding:"required" example:"secure password"`
}

// LoginRequest carries the credentials to check.
type LoginRequest struct {
	Email    string `json:"email" binding:"required" example:"ana@x.com"`
	Password string `json:"password" binding:"required" example:"secure password"`
}

// UserView is a user without credentials.
type UserView struct {
	ID    int64  `json:"id" example:"1"`
	Name  string `json:"name" example:"Ana"`
	Email string `json:"email" example:"ana@x.com"`
}

// LoginResponse is returned when the credentials match.
type LoginResponse struct {
	User UserView `json:"user"`
}

func presentTask(t models.Task) TaskView {
	return TaskView{
		ID:           t.ID,
		Name:         t.Name,
		Description:  t.Description,
		Status:       t.Status,
		CreationDate: t.CreationDate,
		Owner:        t.OwnerID,
	}
}

func presentTasks(tasks []models.Task) TaskListResponse {
	out := make([]TaskView, len(tasks))
	for i := range tasks {
		out[i] = presentTask(tasks[i])
	}
	return TaskListResponse{Tasks: out}
}

func presentCounts(counts models.StatusCounts) StatusCountsResponse {
	return StatusCountsResponse{
		Ready: counts[models.StatusReady],
		Doing: counts[models.StatusDoing],
		Done:  counts[models.StatusDone],
	}
}

func presentUser(u models.User) UserView {
	return UserView{ID: u.ID, Name: u.Name, Email: u.Email}
}
