package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tasklist/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

// Postgres is a Store backed by a pgx connection pool.
type Postgres struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

// NewPostgres returns a Store using pool. Each unit of work is bounded by
// timeout when it is positive.
func NewPostgres(pool *pgxpool.Pool, timeout time.Duration) *Postgres {
	return &Postgres{pool: pool, timeout: timeout}
}

func (p *Postgres) WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	// no-op once committed
	defer tx.Rollback(ctx)

	if err := fn(ctx, &pgTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", translate(err))
	}
	return nil
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

type pgTx struct {
	tx pgx.Tx
}

const taskColumns = "id, name, description, status, creation_date, owner_id"

func (t *pgTx) CreateUser(ctx context.Context, u models.User) (models.User, error) {
	stmt := `INSERT INTO users (name, email, password_hash) VALUES ($1, $2, $3)
		RETURNING id, name, email, password_hash, created_at;`
	rows, err := t.tx.Query(ctx, stmt, u.Name, u.Email, u.PasswordHash)
	if err != nil {
		return models.User{}, fmt.Errorf("insert user: %w", translate(err))
	}
	created, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[models.User])
	if err != nil {
		return models.User{}, fmt.Errorf("insert user: %w", translate(err))
	}
	return created, nil
}

func (t *pgTx) UserByEmail(ctx context.Context, email string) (models.User, error) {
	stmt := "SELECT id, name, email, password_hash, created_at FROM users WHERE email = $1;"
	rows, err := t.tx.Query(ctx, stmt, email)
	if err != nil {
		return models.User{}, fmt.Errorf("select user by email: %w", translate(err))
	}
	u, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[models.User])
	if err != nil {
		return models.User{}, fmt.Errorf("select user by email: %w", translate(err))
	}
	return u, nil
}

func (t *pgTx) CreateTask(ctx context.Context, task models.Task) (models.Task, error) {
	stmt := `INSERT INTO tasks (name, description, status, owner_id) VALUES ($1, $2, $3, $4)
		RETURNING ` + taskColumns + ";"
	return t.oneTask(ctx, "insert task", stmt, task.Name, task.Description, task.Status, task.OwnerID)
}

func (t *pgTx) TaskByID(ctx context.Context, id int64) (models.Task, error) {
	stmt := "SELECT " + taskColumns + " FROM tasks WHERE id = $1;"
	return t.oneTask(ctx, "select task by id", stmt, id)
}

func (t *pgTx) TaskByName(ctx context.Context, name string) (models.Task, error) {
	stmt := "SELECT " + taskColumns + " FROM tasks WHERE name = $1;"
	return t.oneTask(ctx, "select task by name", stmt, name)
}

func (t *pgTx) TasksByOwner(ctx context.Context, ownerID int64) ([]models.Task, error) {
	stmt := "SELECT " + taskColumns + " FROM tasks WHERE owner_id = $1 ORDER BY id;"
	rows, err := t.tx.Query(ctx, stmt, ownerID)
	if err != nil {
		return nil, fmt.Errorf("select tasks by owner: %w", translate(err))
	}
	tasks, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.Task])
	if err != nil {
		return nil, fmt.Errorf("scan tasks: %w", translate(err))
	}
	return tasks, nil
}

func (t *pgTx) UpdateTaskStatus(ctx context.Context, id int64, status models.Status) (models.Task, error) {
	stmt := "UPDATE tasks SET status = $1 WHERE id = $2 RETURNING " + taskColumns + ";"
	return t.oneTask(ctx, "update task status", stmt, status, id)
}

func (t *pgTx) DeleteTask(ctx context.Context, id int64) error {
	tag, err := t.tx.Exec(ctx, "DELETE FROM tasks WHERE id = $1;", id)
	if err != nil {
		return fmt.Errorf("delete task: %w", translate(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete task %d: %w", id, ErrNotFound)
	}
	return nil
}

func (t *pgTx) oneTask(ctx context.Context, op, stmt string, args ...any) (models.Task, error) {
	rows, err := t.tx.Query(ctx, stmt, args...)
	if err != nil {
		return models.Task{}, fmt.Errorf("%s: %w", op, translate(err))
	}
	task, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[models.Task])
	if err != nil {
		return models.Task{}, fmt.Errorf("%s: %w", op, translate(err))
	}
	return task, nil
}

// translate maps driver errors onto the package sentinels.
func translate(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return fmt.Errorf("%w: %s", ErrConflict, pgErr.ConstraintName)
		case codeForeignKeyViolation:
			return fmt.Errorf("%w: %s", ErrNotFound, pgErr.ConstraintName)
		}
	}
	return err
}
