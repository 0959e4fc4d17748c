package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Tomlord1122/todo-grpc/internal/domain"
)

// GormTodoRepository implements TodoRepository using GORM
type GormTodoRepository struct {
	db      *gorm.DB
	timeout time.Duration
}

// NewGormTodoRepository creates a new GORM todo repository. GORM gives no hook
// between connection checkout and statement, so a positive timeout bounds the
// whole statement, connection wait included.
func NewGormTodoRepository(db *gorm.DB, timeout time.Duration) *GormTodoRepository {
	return &GormTodoRepository{db: db, timeout: timeout}
}

func (r *GormTodoRepository) session(ctx context.Context) (*gorm.DB, context.CancelFunc) {
	if r.timeout <= 0 {
		return r.db.WithContext(ctx), func() {}
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	return r.db.WithContext(ctx), cancel
}

// List retrieves all todos ordered by id
func (r *GormTodoRepository) List(ctx context.Context) ([]domain.Todo, error) {
	db, cancel := r.session(ctx)
	defer cancel()

	todos := []domain.Todo{}
	if err := db.Order("id").Find(&todos).Error; err != nil {
		return nil, storeError("list", err)
	}
	return todos, nil
}

// Create adds a new todo; GORM populates ID from the insert
func (r *GormTodoRepository) Create(ctx context.Context, title, description string) (*domain.Todo, error) {
	db, cancel := r.session(ctx)
	defer cancel()

	todo := &domain.Todo{Title: title, Description: description}
	if err := db.Create(todo).Error; err != nil {
		return nil, storeError("create", err)
	}
	return todo, nil
}

// Update overwrites every mutable column. A map is used so that zero values
// (empty description, completed=false) are written too. The id goes into an
// explicit condition because GORM drops a zero primary key from Model.
func (r *GormTodoRepository) Update(ctx context.Context, id int64, title, description string, completed bool) (*domain.Todo, error) {
	db, cancel := r.session(ctx)
	defer cancel()

	todo := &domain.Todo{ID: id}
	result := db.Model(todo).
		Where("id = ?", id).
		Clauses(clause.Returning{}).
		Updates(map[string]any{
			"title":       title,
			"description": description,
			"completed":   completed,
		})
	if result.Error != nil {
		return nil, storeError("update", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return todo, nil
}

// Delete removes a todo by its ID. domain.Todo has no DeletedAt column, so
// this is a hard delete.
func (r *GormTodoRepository) Delete(ctx context.Context, id int64) (bool, error) {
	db, cancel := r.session(ctx)
	defer cancel()

	result := db.Where("id = ?", id).Delete(&domain.Todo{})
	if result.Error != nil {
		return false, storeError("delete", result.Error)
	}
	return result.RowsAffected > 0, nil
}
