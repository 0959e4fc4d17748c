// Package repositorytest provides an in-memory TodoRepository for tests.
package repositorytest

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/Tomlord1122/todo-grpc/internal/domain"
	"github.com/Tomlord1122/todo-grpc/internal/repository"
)

// Memory is a TodoRepository backed by a map. Setting Err makes every call
// fail with it. Calls counts invocations, failed ones included.
type Memory struct {
	Err   error
	Calls atomic.Int32

	mu     sync.Mutex
	nextID int64
	rows   map[int64]domain.Todo
}

var _ repository.TodoRepository = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{rows: make(map[int64]domain.Todo)}
}

func (m *Memory) List(context.Context) ([]domain.Todo, error) {
	m.Calls.Add(1)
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	todos := make([]domain.Todo, 0, len(m.rows))
	for _, t := range m.rows {
		todos = append(todos, t)
	}
	sort.Slice(todos, func(i, j int) bool { return todos[i].ID < todos[j].ID })
	return todos, nil
}

func (m *Memory) Create(_ context.Context, title, description string) (*domain.Todo, error) {
	m.Calls.Add(1)
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	t := domain.Todo{ID: m.nextID, Title: title, Description: description}
	m.rows[t.ID] = t
	return &t, nil
}

func (m *Memory) Update(_ context.Context, id int64, title, description string, completed bool) (*domain.Todo, error) {
	m.Calls.Add(1)
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.rows[id]; !ok {
		return nil, repository.ErrNotFound
	}
	t := domain.Todo{ID: id, Title: title, Description: description, Completed: completed}
	m.rows[id] = t
	return &t, nil
}

func (m *Memory) Delete(_ context.Context, id int64) (bool, error) {
	m.Calls.Add(1)
	if m.Err != nil {
		return false, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.rows[id]
	delete(m.rows, id)
	return ok, nil
}
