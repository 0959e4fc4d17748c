package service

import (
	"strconv"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	todov1 "github.com/Tomlord1122/todo-grpc/api/todo/v1"
	"github.com/Tomlord1122/todo-grpc/internal/domain"
)

// toWire renders a stored todo as its wire message.
func toWire(t domain.Todo) *todov1.Todo {
	return &todov1.Todo{
		Id:          strconv.FormatInt(t.ID, 10),
		Title:       t.Title,
		Description: t.Description,
		Completed:   t.Completed,
	}
}

// parseIdentifier converts a wire id into the store's int64 key. It is the
// only place a wire id is interpreted; failures are InvalidArgument.
func parseIdentifier(id string) (int64, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0, status.Errorf(codes.InvalidArgument, "invalid todo id %q", id)
	}
	return n, nil
}
