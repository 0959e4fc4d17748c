package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	todov1 "github.com/Tomlord1122/todo-grpc/api/todo/v1"
	"github.com/Tomlord1122/todo-grpc/internal/repository"
)

// TodoService implements todov1.TodoServiceServer on top of a
// TodoRepository. It keeps no state of its own; each RPC is one store call.
type TodoService struct {
	todov1.UnimplementedTodoServiceServer

	repo repository.TodoRepository
	log  *zap.Logger
}

var _ todov1.TodoServiceServer = (*TodoService)(nil)

// NewTodoService creates a new TodoService. The repository, and the pool
// behind it, is shared by every concurrent call.
func NewTodoService(repo repository.TodoRepository, log *zap.Logger) *TodoService {
	return &TodoService{repo: repo, log: log}
}

// GetTodos returns every stored todo.
func (s *TodoService) GetTodos(ctx context.Context, _ *todov1.GetTodosRequest) (*todov1.GetTodosResponse, error) {
	todos, err := s.repo.List(ctx)
	if err != nil {
		return nil, s.internal(ctx, "list todos", err)
	}

	resp := &todov1.GetTodosResponse{Todos: make([]*todov1.Todo, 0, len(todos))}
	for _, t := range todos {
		resp.Todos = append(resp.Todos, toWire(t))
	}
	return resp, nil
}

// CreateTodo stores a new, not yet completed todo. Title and description are
// accepted as given, including empty strings.
func (s *TodoService) CreateTodo(ctx context.Context, req *todov1.CreateTodoRequest) (*todov1.Todo, error) {
	todo, err := s.repo.Create(ctx, req.GetTitle(), req.GetDescription())
	if err != nil {
		return nil, s.internal(ctx, "create todo", err)
	}
	return toWire(*todo), nil
}

// UpdateTodo replaces title, description and completed of an existing todo.
func (s *TodoService) UpdateTodo(ctx context.Context, req *todov1.UpdateTodoRequest) (*todov1.Todo, error) {
	id, err := parseIdentifier(req.GetId())
	if err != nil {
		return nil, err
	}

	todo, err := s.repo.Update(ctx, id, req.GetTitle(), req.GetDescription(), req.GetCompleted())
	if errors.Is(err, repository.ErrNotFound) {
		return nil, status.Errorf(codes.NotFound, "todo %d not found", id)
	}
	if err != nil {
		return nil, s.internal(ctx, "update todo", err, zap.Int64("id", id))
	}
	return toWire(*todo), nil
}

// DeleteTodo removes a todo. Deleting an unknown id succeeds with
// Success=false.
func (s *TodoService) DeleteTodo(ctx context.Context, req *todov1.DeleteTodoRequest) (*todov1.DeleteTodoResponse, error) {
	id, err := parseIdentifier(req.GetId())
	if err != nil {
		return nil, err
	}

	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return nil, s.internal(ctx, "delete todo", err, zap.Int64("id", id))
	}
	return &todov1.DeleteTodoResponse{Success: deleted}, nil
}

// internal logs the store failure and returns an opaque Internal status.
// A call the client already abandoned is reported with the context's code.
func (s *TodoService) internal(ctx context.Context, op string, err error, fields ...zap.Field) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return status.FromContextError(ctxErr).Err()
	}
	s.log.Error("store operation failed", append(fields, zap.String("op", op), zap.Error(err))...)
	return status.Errorf(codes.Internal, "failed to %s", op)
}
