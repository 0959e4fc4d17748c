package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tomlord1122/todo-grpc/internal/domain"
)

var todoColumns = []string{"id", "title", "description", "completed"}

func newMockRepository(t *testing.T) (*SQLTodoRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewSQLTodoRepository(db, time.Second), mock
}

func TestSQLRepositoryList(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(regexp.QuoteMeta(listQuery)).
		WillReturnRows(sqlmock.NewRows(todoColumns).
			AddRow(1, "Learn Go", "Read the tour.", false).
			AddRow(2, "Learn gRPC", "", true))

	todos, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.Todo{
		{ID: 1, Title: "Learn Go", Description: "Read the tour.", Completed: false},
		{ID: 2, Title: "Learn gRPC", Description: "", Completed: true},
	}, todos)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLRepositoryListEmpty(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(regexp.QuoteMeta(listQuery)).
		WillReturnRows(sqlmock.NewRows(todoColumns))

	todos, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, todos)
	assert.Empty(t, todos)
}

func TestSQLRepositoryCreate(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(regexp.QuoteMeta(createQuery)).
		WithArgs("  padded title ", "").
		WillReturnRows(sqlmock.NewRows(todoColumns).AddRow(7, "  padded title ", "", false))

	todo, err := repo.Create(context.Background(), "  padded title ", "")
	require.NoError(t, err)
	assert.Equal(t, int64(7), todo.ID)
	assert.Equal(t, "  padded title ", todo.Title, "titles are stored verbatim")
	assert.False(t, todo.Completed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLRepositoryUpdate(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(regexp.QuoteMeta(updateQuery)).
		WithArgs("new title", "new description", true, int64(3)).
		WillReturnRows(sqlmock.NewRows(todoColumns).AddRow(3, "new title", "new description", true))

	todo, err := repo.Update(context.Background(), 3, "new title", "new description", true)
	require.NoError(t, err)
	assert.Equal(t, &domain.Todo{ID: 3, Title: "new title", Description: "new description", Completed: true}, todo)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLRepositoryUpdateNotFound(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(regexp.QuoteMeta(updateQuery)).
		WithArgs("t", "d", false, int64(999999)).
		WillReturnRows(sqlmock.NewRows(todoColumns))

	_, err := repo.Update(context.Background(), 999999, "t", "d", false)
	assert.ErrorIs(t, err, ErrNotFound)

	var storeErr *StoreError
	assert.False(t, errors.As(err, &storeErr), "not found is not a store failure")
}

func TestSQLRepositoryDelete(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectExec(regexp.QuoteMeta(deleteQuery)).
		WithArgs(int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(deleteQuery)).
		WithArgs(int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	deleted, err := repo.Delete(context.Background(), 4)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.Delete(context.Background(), 4)
	require.NoError(t, err)
	assert.False(t, deleted, "deleting a missing id reports false without an error")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLRepositoryStoreFailure(t *testing.T) {
	cause := errors.New("connection reset by peer")

	tests := []struct {
		name   string
		expect func(mock sqlmock.Sqlmock)
		call   func(repo *SQLTodoRepository) error
	}{
		{
			name:   "list",
			expect: func(mock sqlmock.Sqlmock) { mock.ExpectQuery(regexp.QuoteMeta(listQuery)).WillReturnError(cause) },
			call: func(repo *SQLTodoRepository) error {
				_, err := repo.List(context.Background())
				return err
			},
		},
		{
			name:   "create",
			expect: func(mock sqlmock.Sqlmock) { mock.ExpectQuery(regexp.QuoteMeta(createQuery)).WillReturnError(cause) },
			call: func(repo *SQLTodoRepository) error {
				_, err := repo.Create(context.Background(), "t", "d")
				return err
			},
		},
		{
			name:   "update",
			expect: func(mock sqlmock.Sqlmock) { mock.ExpectQuery(regexp.QuoteMeta(updateQuery)).WillReturnError(cause) },
			call: func(repo *SQLTodoRepository) error {
				_, err := repo.Update(context.Background(), 1, "t", "d", true)
				return err
			},
		},
		{
			name:   "delete",
			expect: func(mock sqlmock.Sqlmock) { mock.ExpectExec(regexp.QuoteMeta(deleteQuery)).WillReturnError(cause) },
			call: func(repo *SQLTodoRepository) error {
				_, err := repo.Delete(context.Background(), 1)
				return err
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newMockRepository(t)
			tt.expect(mock)

			err := tt.call(repo)
			require.Error(t, err)

			var storeErr *StoreError
			require.True(t, errors.As(err, &storeErr))
			assert.Equal(t, tt.name, storeErr.Op)
			assert.ErrorIs(t, err, cause)
		})
	}
}

func TestSQLRepositoryAcquireTimeout(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	db.SetMaxOpenConns(1)

	held, err := db.Conn(context.Background())
	require.NoError(t, err)
	defer held.Close()

	repo := NewSQLTodoRepository(db, 20*time.Millisecond)
	_, err = repo.List(context.Background())

	var storeErr *StoreError
	require.True(t, errors.As(err, &storeErr))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
