package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"

	todov1 "github.com/Tomlord1122/todo-grpc/api/todo/v1"
	"github.com/Tomlord1122/todo-grpc/internal/config"
	"github.com/Tomlord1122/todo-grpc/internal/database"
	"github.com/Tomlord1122/todo-grpc/internal/logger"
	"github.com/Tomlord1122/todo-grpc/internal/server"
	"github.com/Tomlord1122/todo-grpc/internal/service"
)

const shutdownTimeout = 5 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}

	os.Exit(serve(cfg, log))
}

// serve runs the server and returns the process exit code once the logger
// has been flushed.
func serve(cfg *config.Config, log *zap.Logger) int {
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Error("server exited with error", zap.Error(err))
		return 1
	}
	log.Info("graceful shutdown complete")
	return 0
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Initialize the store pool (skipped for the stub rollout mode)
	var (
		dbService   database.Service
		todoService todov1.TodoServiceServer
	)
	if cfg.ServiceMode == config.ModeStub {
		log.Warn("running stub service: only GetTodos is implemented")
		todoService = service.StubTodoService{}
	} else {
		var err error
		dbService, err = database.New(ctx, cfg.Database, log)
		if err != nil {
			return err
		}
		defer func() {
			log.Info("closing database connection pool")
			if err := dbService.Close(); err != nil {
				log.Error("error closing database connection pool", zap.Error(err))
			}
		}()

		if cfg.Database.AutoMigrate {
			if err := dbService.Migrate(ctx); err != nil {
				return fmt.Errorf("create todos table: %w", err)
			}
			log.Info("todos table ready")
		}

		// 2. Initialize the service on top of the shared repository
		todoService = service.NewTodoService(dbService.Repository(), log)
	}

	// 3. Initialize the gRPC host and, optionally, the HTTP gateway
	grpcServer, healthServer := server.NewGRPCServer(todoService, log)
	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.GRPCAddr, err)
	}

	var httpServer *http.Server
	if cfg.HTTPAddr != "" {
		var checker server.HealthChecker
		if dbService != nil {
			checker = dbService
		}
		httpServer = server.NewHTTPServer(cfg.HTTPAddr, todoService, checker, log)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("TodoService listening", zap.String("addr", lis.Addr().String()))
		server.SetServing(healthServer, true)
		return grpcServer.Serve(lis)
	})

	if httpServer != nil {
		g.Go(func() error {
			log.Info("HTTP gateway listening", zap.String("addr", httpServer.Addr))
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}

	// 4. Shut down on signal, or when either server stops on its own
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down gracefully, press Ctrl+C again to force")
		stop()
		gracefulShutdown(grpcServer, healthServer, httpServer, log)
		return nil
	})

	return g.Wait()
}

func gracefulShutdown(grpcServer *grpc.Server, healthServer *health.Server, httpServer *http.Server, log *zap.Logger) {
	server.SetServing(healthServer, false)

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if httpServer != nil {
		if err := httpServer.Shutdown(ctx); err != nil {
			log.Error("HTTP gateway forced to shutdown", zap.Error(err))
		}
	}

	done := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		log.Info("gRPC server stopped gracefully")
	case <-ctx.Done():
		log.Warn("gRPC server forced to shutdown")
		grpcServer.Stop()
	}
}
