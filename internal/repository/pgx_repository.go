package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Tomlord1122/todo-grpc/internal/domain"
)

// PgxTodoRepository implements TodoRepository on a pgx connection pool.
// Every call holds exactly one pooled connection for its duration.
type PgxTodoRepository struct {
	pool           *pgxpool.Pool
	acquireTimeout time.Duration
}

// NewPgxTodoRepository wraps pool. A positive acquireTimeout bounds how long a
// call waits for a free connection.
func NewPgxTodoRepository(pool *pgxpool.Pool, acquireTimeout time.Duration) *PgxTodoRepository {
	return &PgxTodoRepository{pool: pool, acquireTimeout: acquireTimeout}
}

func (r *PgxTodoRepository) acquire(ctx context.Context) (*pgxpool.Conn, error) {
	if r.acquireTimeout <= 0 {
		return r.pool.Acquire(ctx)
	}
	acquireCtx, cancel := context.WithTimeout(ctx, r.acquireTimeout)
	defer cancel()
	return r.pool.Acquire(acquireCtx)
}

func (r *PgxTodoRepository) List(ctx context.Context) ([]domain.Todo, error) {
	conn, err := r.acquire(ctx)
	if err != nil {
		return nil, storeError("list", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, listQuery)
	if err != nil {
		return nil, storeError("list", err)
	}
	todos, err := pgx.CollectRows(rows, pgx.RowToStructByPos[domain.Todo])
	if err != nil {
		return nil, storeError("list", err)
	}
	return todos, nil
}

func (r *PgxTodoRepository) Create(ctx context.Context, title, description string) (*domain.Todo, error) {
	conn, err := r.acquire(ctx)
	if err != nil {
		return nil, storeError("create", err)
	}
	defer conn.Release()

	var t domain.Todo
	err = conn.QueryRow(ctx, createQuery, title, description).
		Scan(&t.ID, &t.Title, &t.Description, &t.Completed)
	if err != nil {
		return nil, storeError("create", err)
	}
	return &t, nil
}

func (r *PgxTodoRepository) Update(ctx context.Context, id int64, title, description string, completed bool) (*domain.Todo, error) {
	conn, err := r.acquire(ctx)
	if err != nil {
		return nil, storeError("update", err)
	}
	defer conn.Release()

	var t domain.Todo
	err = conn.QueryRow(ctx, updateQuery, title, description, completed, id).
		Scan(&t.ID, &t.Title, &t.Description, &t.Completed)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storeError("update", err)
	}
	return &t, nil
}

func (r *PgxTodoRepository) Delete(ctx context.Context, id int64) (bool, error) {
	conn, err := r.acquire(ctx)
	if err != nil {
		return false, storeError("delete", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, deleteQuery, id)
	if err != nil {
		return false, storeError("delete", err)
	}
	return tag.RowsAffected() > 0, nil
}
