package service

import (
	"context"

	todov1 "github.com/Tomlord1122/todo-grpc/api/todo/v1"
)

// StubTodoService is a rollout stand-in that needs no store: GetTodos serves a
// fixed list and the remaining methods fall through to
// UnimplementedTodoServiceServer.
type StubTodoService struct {
	todov1.UnimplementedTodoServiceServer
}

var _ todov1.TodoServiceServer = StubTodoService{}

func (StubTodoService) GetTodos(context.Context, *todov1.GetTodosRequest) (*todov1.GetTodosResponse, error) {
	return &todov1.GetTodosResponse{
		Todos: []*todov1.Todo{
			{Id: "1", Title: "Learn Go", Description: "Take the tour.", Completed: false},
			{Id: "2", Title: "Learn gRPC", Description: "Build a cool backend.", Completed: false},
		},
	}, nil
}
