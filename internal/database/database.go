package database

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Tomlord1122/todo-grpc/internal/config"
	"github.com/Tomlord1122/todo-grpc/internal/domain"
	"github.com/Tomlord1122/todo-grpc/internal/repository"
)

// Service owns the connection pool behind the record store.
type Service interface {
	// Repository returns the TodoRepository bound to this pool.
	Repository() repository.TodoRepository
	// Ping checks that the store answers.
	Ping(ctx context.Context) error
	// Migrate creates the todos table when it does not exist yet.
	Migrate(ctx context.Context) error
	// Health reports pool statistics for the health endpoint.
	Health(ctx context.Context) map[string]string
	Close() error
}

const pingTimeout = 2 * time.Second

// New opens the pool for cfg.Driver and waits, with exponential backoff, until
// the store answers a ping.
func New(ctx context.Context, cfg config.Database, log *zap.Logger) (Service, error) {
	var (
		svc Service
		err error
	)
	switch cfg.Driver {
	case config.DriverPgx:
		svc, err = newPgx(ctx, cfg)
	case config.DriverGorm:
		svc, err = newGorm(cfg, log)
	case config.DriverSQL:
		svc, err = newSQL(cfg)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	b := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 5)
	if err := pingWithRetry(ctx, svc.Ping, b, log); err != nil {
		_ = svc.Close()
		return nil, fmt.Errorf("could not reach database: %w", err)
	}
	log.Info("connected to database", zap.String("driver", cfg.Driver), zap.Int("max_conns", cfg.MaxConns))
	return svc, nil
}

func pingWithRetry(ctx context.Context, ping func(context.Context) error, b backoff.BackOff, log *zap.Logger) error {
	op := func() error {
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		return ping(pingCtx)
	}
	notify := func(err error, next time.Duration) {
		log.Warn("database ping failed, retrying", zap.Error(err), zap.Duration("retry_in", next))
	}
	return backoff.RetryNotify(op, backoff.WithContext(b, ctx), notify)
}

// pgx

type pgxService struct {
	pool *pgxpool.Pool
	repo *repository.PgxTodoRepository
}

func newPgx(ctx context.Context, cfg config.Database) (*pgxService, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MaxConnLifetime = time.Hour

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}
	return &pgxService{
		pool: pool,
		repo: repository.NewPgxTodoRepository(pool, cfg.AcquireTimeout),
	}, nil
}

func (s *pgxService) Repository() repository.TodoRepository { return s.repo }

func (s *pgxService) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

func (s *pgxService) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, repository.Schema)
	return err
}

func (s *pgxService) Health(ctx context.Context) map[string]string {
	stats := make(map[string]string)
	if err := s.Ping(ctx); err != nil {
		return down(stats, err)
	}

	stat := s.pool.Stat()
	stats["status"] = "up"
	stats["message"] = "It's healthy"
	stats["max_connections"] = strconv.Itoa(int(stat.MaxConns()))
	stats["open_connections"] = strconv.Itoa(int(stat.TotalConns()))
	stats["in_use"] = strconv.Itoa(int(stat.AcquiredConns()))
	stats["idle"] = strconv.Itoa(int(stat.IdleConns()))
	stats["wait_count"] = strconv.FormatInt(stat.EmptyAcquireCount(), 10)
	stats["wait_duration"] = stat.AcquireDuration().String()
	stats["canceled_acquires"] = strconv.FormatInt(stat.CanceledAcquireCount(), 10)

	if stat.AcquiredConns() >= stat.MaxConns() {
		stats["message"] = "The pool is exhausted; callers are queueing for connections."
	}
	return stats
}

func (s *pgxService) Close() error {
	s.pool.Close()
	return nil
}

// gorm

type gormService struct {
	db   *gorm.DB
	sql  *sql.DB
	repo *repository.GormTodoRepository
}

func newGorm(cfg config.Database, log *zap.Logger) (*gormService, error) {
	newLogger := gormlogger.New(
		zap.NewStdLog(log.Named("gorm")),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(postgres.Open(cfg.URL), &gorm.Config{
		Logger:               newLogger,
		DisableAutomaticPing: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open gorm: %w", err)
	}

	sqlDB, err := sqlDBOf(db)
	if err != nil {
		return nil, err
	}
	configurePool(sqlDB, cfg)

	return &gormService{
		db:   db,
		sql:  sqlDB,
		repo: repository.NewGormTodoRepository(db, cfg.AcquireTimeout),
	}, nil
}

// sqlDBOf returns the pool behind db, closing db's connection pool when it
// is not a *sql.DB.
func sqlDBOf(db *gorm.DB) (*sql.DB, error) {
	sqlDB, err := db.DB()
	if err != nil {
		if closer, ok := db.ConnPool.(io.Closer); ok {
			_ = closer.Close()
		}
		return nil, fmt.Errorf("get underlying sql.DB: %w", err)
	}
	return sqlDB, nil
}

func (s *gormService) Repository() repository.TodoRepository { return s.repo }

func (s *gormService) Ping(ctx context.Context) error { return s.sql.PingContext(ctx) }

func (s *gormService) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&domain.Todo{})
}

func (s *gormService) Health(ctx context.Context) map[string]string {
	return sqlHealth(ctx, s.sql)
}

func (s *gormService) Close() error { return s.sql.Close() }

// database/sql + lib/pq

type sqlService struct {
	db   *sql.DB
	repo *repository.SQLTodoRepository
}

func newSQL(cfg config.Database) (*sqlService, error) {
	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	configurePool(db, cfg)
	return newSQLService(db, cfg.AcquireTimeout), nil
}

func newSQLService(db *sql.DB, acquireTimeout time.Duration) *sqlService {
	return &sqlService{db: db, repo: repository.NewSQLTodoRepository(db, acquireTimeout)}
}

func (s *sqlService) Repository() repository.TodoRepository { return s.repo }

func (s *sqlService) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *sqlService) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, repository.Schema)
	return err
}

func (s *sqlService) Health(ctx context.Context) map[string]string {
	return sqlHealth(ctx, s.db)
}

func (s *sqlService) Close() error { return s.db.Close() }

func configurePool(db *sql.DB, cfg config.Database) {
	db.SetMaxOpenConns(cfg.MaxConns)
	db.SetMaxIdleConns(cfg.MaxConns)
	db.SetConnMaxLifetime(time.Hour)
}

// sqlHealth reports database/sql pool statistics.
func sqlHealth(ctx context.Context, db *sql.DB) map[string]string {
	stats := make(map[string]string)
	if err := db.PingContext(ctx); err != nil {
		return down(stats, err)
	}

	dbStats := db.Stats()
	stats["status"] = "up"
	stats["message"] = "It's healthy"
	stats["max_connections"] = strconv.Itoa(dbStats.MaxOpenConnections)
	stats["open_connections"] = strconv.Itoa(dbStats.OpenConnections)
	stats["in_use"] = strconv.Itoa(dbStats.InUse)
	stats["idle"] = strconv.Itoa(dbStats.Idle)
	stats["wait_count"] = strconv.FormatInt(dbStats.WaitCount, 10)
	stats["wait_duration"] = dbStats.WaitDuration.String()
	stats["max_idle_closed"] = strconv.FormatInt(dbStats.MaxIdleClosed, 10)
	stats["max_lifetime_closed"] = strconv.FormatInt(dbStats.MaxLifetimeClosed, 10)

	if dbStats.MaxOpenConnections > 0 && dbStats.InUse >= dbStats.MaxOpenConnections {
		stats["message"] = "The pool is exhausted; callers are queueing for connections."
	}
	if dbStats.MaxLifetimeClosed > int64(dbStats.OpenConnections)/2 && dbStats.OpenConnections > 0 {
		stats["message"] = "Many connections are being closed due to max lifetime, consider increasing ConnMaxLifetime."
	}
	return stats
}

func down(stats map[string]string, err error) map[string]string {
	stats["status"] = "down"
	stats["error"] = fmt.Sprintf("db down: %v", err)
	return stats
}
