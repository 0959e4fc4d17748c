package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Tomlord1122/todo-grpc/internal/domain"
)

// ErrNotFound is returned by Update when no row carries the given id.
var ErrNotFound = errors.New("todo not found")

// StoreError wraps any failure reaching the backing store.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("todo store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func storeError(op string, err error) error {
	return &StoreError{Op: op, Err: err}
}

// TodoRepository defines the interface for todo data operations.
// Identifiers are always assigned by the store.
type TodoRepository interface {
	// List returns every stored todo in ascending id order.
	List(ctx context.Context) ([]domain.Todo, error)

	// Create inserts a new todo with Completed set to false.
	Create(ctx context.Context, title, description string) (*domain.Todo, error)

	// Update overwrites title, description and completed of the todo with
	// the given id, returning ErrNotFound if it does not exist.
	Update(ctx context.Context, id int64, title, description string, completed bool) (*domain.Todo, error)

	// Delete removes the todo with the given id and reports whether a row
	// was removed. A missing id is not an error.
	Delete(ctx context.Context, id int64) (bool, error)
}

// Schema creates the todos table. Shared by the pgx and database/sql backends;
// the gorm backend migrates from domain.Todo instead.
const Schema = `CREATE TABLE IF NOT EXISTS todos (
	id          BIGSERIAL PRIMARY KEY,
	title       TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	completed   BOOLEAN NOT NULL DEFAULT false
)`

const (
	listQuery   = `SELECT id, title, description, completed FROM todos ORDER BY id`
	createQuery = `INSERT INTO todos (title, description, completed) VALUES ($1, $2, false) RETURNING id, title, description, completed`
	updateQuery = `UPDATE todos SET title = $1, description = $2, completed = $3 WHERE id = $4 RETURNING id, title, description, completed`
	deleteQuery = `DELETE FROM todos WHERE id = $1`
)

var (
	_ TodoRepository = (*PgxTodoRepository)(nil)
	_ TodoRepository = (*GormTodoRepository)(nil)
	_ TodoRepository = (*SQLTodoRepository)(nil)
)
