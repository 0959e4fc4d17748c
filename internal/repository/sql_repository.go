package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Tomlord1122/todo-grpc/internal/domain"
)

// SQLTodoRepository implements TodoRepository on a database/sql pool. The
// caller picks the driver; cmd/server opens it with lib/pq.
type SQLTodoRepository struct {
	db             *sql.DB
	acquireTimeout time.Duration
}

func NewSQLTodoRepository(db *sql.DB, acquireTimeout time.Duration) *SQLTodoRepository {
	return &SQLTodoRepository{db: db, acquireTimeout: acquireTimeout}
}

func (r *SQLTodoRepository) conn(ctx context.Context) (*sql.Conn, error) {
	if r.acquireTimeout <= 0 {
		return r.db.Conn(ctx)
	}
	acquireCtx, cancel := context.WithTimeout(ctx, r.acquireTimeout)
	defer cancel()
	return r.db.Conn(acquireCtx)
}

func (r *SQLTodoRepository) List(ctx context.Context) ([]domain.Todo, error) {
	conn, err := r.conn(ctx)
	if err != nil {
		return nil, storeError("list", err)
	}
	defer conn.Close()

	rows, err := conn.QueryContext(ctx, listQuery)
	if err != nil {
		return nil, storeError("list", err)
	}
	defer rows.Close()

	todos := []domain.Todo{}
	for rows.Next() {
		var t domain.Todo
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.Completed); err != nil {
			return nil, storeError("list", err)
		}
		todos = append(todos, t)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("list", err)
	}
	return todos, nil
}

func (r *SQLTodoRepository) Create(ctx context.Context, title, description string) (*domain.Todo, error) {
	conn, err := r.conn(ctx)
	if err != nil {
		return nil, storeError("create", err)
	}
	defer conn.Close()

	var t domain.Todo
	err = conn.QueryRowContext(ctx, createQuery, title, description).
		Scan(&t.ID, &t.Title, &t.Description, &t.Completed)
	if err != nil {
		return nil, storeError("create", err)
	}
	return &t, nil
}

func (r *SQLTodoRepository) Update(ctx context.Context, id int64, title, description string, completed bool) (*domain.Todo, error) {
	conn, err := r.conn(ctx)
	if err != nil {
		return nil, storeError("update", err)
	}
	defer conn.Close()

	var t domain.Todo
	err = conn.QueryRowContext(ctx, updateQuery, title, description, completed, id).
		Scan(&t.ID, &t.Title, &t.Description, &t.Completed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storeError("update", err)
	}
	return &t, nil
}

func (r *SQLTodoRepository) Delete(ctx context.Context, id int64) (bool, error) {
	conn, err := r.conn(ctx)
	if err != nil {
		return false, storeError("delete", err)
	}
	defer conn.Close()

	result, err := conn.ExecContext(ctx, deleteQuery, id)
	if err != nil {
		return false, storeError("delete", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, storeError("delete", err)
	}
	return n > 0, nil
}
