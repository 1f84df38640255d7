// Package store persists users and tasks. All access goes through a
// unit of work obtained from Store.WithTx.
package store

import (
	"context"
	"errors"

	"tasklist/models"
)

var (
	// ErrNotFound is returned when a referenced user or task does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a unique field is already taken.
	ErrConflict = errors.New("already exists")
)

// Store hands out transactional units of work.
type Store interface {
	// WithTx runs fn inside a transaction. The transaction is committed
	// when fn returns nil and rolled back otherwise; it is released on
	// every return path.
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	Ping(ctx context.Context) error
}

// Tx holds the repository operations available inside a unit of work.
type Tx interface {
	CreateUser(ctx context.Context, u models.User) (models.User, error)
	UserByEmail(ctx context.Context, email string) (models.User, error)

	CreateTask(ctx context.Context, t models.Task) (models.Task, error)
	TaskByID(ctx context.Context, id int64) (models.Task, error)
	TaskByName(ctx context.Context, name string) (models.Task, error)
	TasksByOwner(ctx context.Context, ownerID int64) ([]models.Task, error)
	UpdateTaskStatus(ctx context.Context, id int64, status models.Status) (models.Task, error)
	DeleteTask(ctx context.Context, id int64) error
}
