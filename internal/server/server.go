package server

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	todov1 "github.com/Tomlord1122/todo-grpc/api/todo/v1"
)

// HealthChecker reports store health; database.Service satisfies it.
type HealthChecker interface {
	Health(ctx context.Context) map[string]string
}

// NewGRPCServer builds the gRPC server hosting todoService together with the
// standard health service. The health status starts as NOT_SERVING; callers
// flip it once the store is reachable.
func NewGRPCServer(todoService todov1.TodoServiceServer, log *zap.Logger) (*grpc.Server, *health.Server) {
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			unaryRecovery(log),
			unaryLogging(log),
		),
	)

	todov1.RegisterTodoServiceServer(srv, todoService)

	healthServer := health.NewServer()
	healthServer.SetServingStatus(todov1.TodoService_ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	healthpb.RegisterHealthServer(srv, healthServer)

	return srv, healthServer
}

// SetServing marks the todo service and the server as a whole SERVING or
// NOT_SERVING.
func SetServing(h *health.Server, serving bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		st = healthpb.HealthCheckResponse_SERVING
	}
	h.SetServingStatus(todov1.TodoService_ServiceName, st)
	h.SetServingStatus("", st)
}

// NewHTTPServer builds the JSON gateway in front of todoService. db may be nil
// when no store is configured.
func NewHTTPServer(addr string, todoService todov1.TodoServiceServer, db HealthChecker, log *zap.Logger) *http.Server {
	appServer := &Server{
		todoService: todoService,
		db:          db,
		log:         log,
	}

	return &http.Server{
		Addr:         addr,
		Handler:      appServer.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// Server holds the dependencies of the HTTP gateway handlers.
type Server struct {
	todoService todov1.TodoServiceServer
	db          HealthChecker
	log         *zap.Logger
}
