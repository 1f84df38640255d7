package store

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"tasklist/models"
)

// Memory is an in-process Store. Units of work are serialized and a
// failed unit of work leaves no trace. It is meant for local runs and tests.
type Memory struct {
	mu sync.Mutex
	st memState

	now func() time.Time
}

type memState struct {
	users      map[int64]models.User
	tasks      map[int64]models.Task
	nextUserID int64
	nextTaskID int64
}

func NewMemory() *Memory {
	return &Memory{
		st: memState{
			users: make(map[int64]models.User),
			tasks: make(map[int64]models.Task),
		},
		now: time.Now,
	}
}

func (m *Memory) WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := memState{
		users:      maps.Clone(m.st.users),
		tasks:      maps.Clone(m.st.tasks),
		nextUserID: m.st.nextUserID,
		nextTaskID: m.st.nextTaskID,
	}
	if err := fn(ctx, &memTx{m: m}); err != nil {
		m.st = snapshot
		return err
	}
	return nil
}

func (m *Memory) Ping(context.Context) error { return nil }

type memTx struct {
	m *Memory
}

func (t *memTx) CreateUser(_ context.Context, u models.User) (models.User, error) {
	for _, existing := range t.m.st.users {
		if existing.Email == u.Email {
			return models.User{}, fmt.Errorf("insert user: %w: users_email_key", ErrConflict)
		}
	}
	t.m.st.nextUserID++
	u.ID = t.m.st.nextUserID
	u.CreatedAt = t.m.now()
	t.m.st.users[u.ID] = u
	return u, nil
}

func (t *memTx) UserByEmail(_ context.Context, email string) (models.User, error) {
	for _, u := range t.m.st.users {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, fmt.Errorf("select user by email: %w", ErrNotFound)
}

func (t *memTx) CreateTask(_ context.Context, task models.Task) (models.Task, error) {
	if !task.Status.Valid() {
		return models.Task{}, fmt.Errorf("insert task: invalid status %q", task.Status)
	}
	for _, existing := range t.m.st.tasks {
		if existing.Name == task.Name {
			return models.Task{}, fmt.Errorf("insert task: %w: tasks_name_key", ErrConflict)
		}
	}
	if _, ok := t.m.st.users[task.OwnerID]; !ok {
		return models.Task{}, fmt.Errorf("insert task: %w: tasks_owner_id_fkey", ErrNotFound)
	}
	t.m.st.nextTaskID++
	task.ID = t.m.st.nextTaskID
	task.CreationDate = t.m.now()
	t.m.st.tasks[task.ID] = task
	return task, nil
}

func (t *memTx) TaskByID(_ context.Context, id int64) (models.Task, error) {
	task, ok := t.m.st.tasks[id]
	if !ok {
		return models.Task{}, fmt.Errorf("select task by id: %w", ErrNotFound)
	}
	return task, nil
}

func (t *memTx) TaskByName(_ context.Context, name string) (models.Task, error) {
	for _, task := range t.m.st.tasks {
		if task.Name == name {
			return task, nil
		}
	}
	return models.Task{}, fmt.Errorf("select task by name: %w", ErrNotFound)
}

func (t *memTx) TasksByOwner(_ context.Context, ownerID int64) ([]models.Task, error) {
	tasks := []models.Task{}
	for _, id := range slices.Sorted(maps.Keys(t.m.st.tasks)) {
		if task := t.m.st.tasks[id]; task.OwnerID == ownerID {
			tasks = append(tasks, task)
		}
	}
	return tasks, nil
}

func (t *memTx) UpdateTaskStatus(_ context.Context, id int64, status models.Status) (models.Task, error) {
	if !status.Valid() {
		return models.Task{}, fmt.Errorf("update task status: invalid status %q", status)
	}
	task, ok := t.m.st.tasks[id]
	if !ok {
		return models.Task{}, fmt.Errorf("update task status: %w", ErrNotFound)
	}
	task.Status = status
	t.m.st.tasks[id] = task
	return task, nil
}

func (t *memTx) DeleteTask(_ context.Context, id int64) error {
	if _, ok := t.m.st.tasks[id]; !ok {
		return fmt.Errorf("delete task %d: %w", id, ErrNotFound)
	}
	delete(t.m.st.tasks, id)
	return nil
}
