package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/grpc/codes"

	todov1 "github.com/Tomlord1122/todo-grpc/api/todo/v1"
	"github.com/Tomlord1122/todo-grpc/internal/repository"
	"github.com/Tomlord1122/todo-grpc/internal/repository/repositorytest"
	"github.com/Tomlord1122/todo-grpc/internal/service"
)

type fakeHealth map[string]string

func (f fakeHealth) Health(context.Context) map[string]string { return f }

func newTestHandler(t *testing.T, repo repository.TodoRepository, db HealthChecker) http.Handler {
	t.Helper()
	s := &Server{
		todoService: service.NewTodoService(repo, zap.NewNop()),
		db:          db,
		log:         zap.NewNop(),
	}
	return s.RegisterRoutes()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestGatewayCRUD(t *testing.T) {
	h := newTestHandler(t, repositorytest.NewMemory(), nil)

	rec := do(t, h, http.MethodPost, "/todos", `{"title":"Learn chi","description":"routes"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created todov1.Todo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "Learn chi", created.Title)

	rec = do(t, h, http.MethodPut, "/todos/"+created.Id, `{"title":"Learn chi","description":"","completed":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":"1","title":"Learn chi","description":"","completed":true}`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/todos", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"todos":[{"id":"1","title":"Learn chi","description":"","completed":true}]}`, rec.Body.String())

	rec = do(t, h, http.MethodDelete, "/todos/"+created.Id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())

	rec = do(t, h, http.MethodDelete, "/todos/"+created.Id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":false}`, rec.Body.String())
}

func TestGatewayErrors(t *testing.T) {
	failing := repositorytest.NewMemory()
	failing.Err = errors.New("connection refused")

	tests := []struct {
		name   string
		repo   repository.TodoRepository
		method string
		path   string
		body   string
		want   int
	}{
		{"update unknown id", repositorytest.NewMemory(), http.MethodPut, "/todos/999999", `{"title":"t"}`, http.StatusNotFound},
		{"update bad id", repositorytest.NewMemory(), http.MethodPut, "/todos/not-a-number", `{"title":"t"}`, http.StatusBadRequest},
		{"delete bad id", repositorytest.NewMemory(), http.MethodDelete, "/todos/not-a-number", "", http.StatusBadRequest},
		{"malformed body", repositorytest.NewMemory(), http.MethodPost, "/todos", `{"title":`, http.StatusBadRequest},
		{"unknown field", repositorytest.NewMemory(), http.MethodPost, "/todos", `{"name":"x"}`, http.StatusBadRequest},
		{"empty body", repositorytest.NewMemory(), http.MethodPost, "/todos", ``, http.StatusBadRequest},
		{"store failure", failing, http.MethodGet, "/todos", "", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, newTestHandler(t, tt.repo, nil), tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, rec.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
			assert.NotContains(t, body["error"], "connection refused")
		})
	}
}

func TestGatewayHealth(t *testing.T) {
	rec := do(t, newTestHandler(t, repositorytest.NewMemory(), fakeHealth{"status": "up"}), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, newTestHandler(t, repositorytest.NewMemory(), fakeHealth{"status": "down"}), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = do(t, newTestHandler(t, repositorytest.NewMemory(), nil), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

// stuckHealth blocks until its context ends, the way a ping does on an
// exhausted pool.
type stuckHealth struct{ deadline chan time.Time }

func (h stuckHealth) Health(ctx context.Context) map[string]string {
	d, _ := ctx.Deadline()
	h.deadline <- d
	<-ctx.Done()
	return map[string]string{"status": "down", "error": ctx.Err().Error()}
}

func TestGatewayHealthIsBounded(t *testing.T) {
	checker := stuckHealth{deadline: make(chan time.Time, 1)}
	start := time.Now()

	rec := do(t, newTestHandler(t, repositorytest.NewMemory(), checker), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	deadline := <-checker.deadline
	assert.WithinDuration(t, start.Add(healthTimeout), deadline, 500*time.Millisecond)
}

func TestRespondWithJSONLogsMarshalFailure(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	s := &Server{log: zap.New(core)}

	rec := httptest.NewRecorder()
	s.respondWithJSON(rec, http.StatusOK, map[string]any{"unencodable": make(chan int)})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Internal server error preparing response"}`, rec.Body.String())
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "error marshalling response", logs.All()[0].Message)
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, httpStatus(codes.InvalidArgument))
	assert.Equal(t, http.StatusNotFound, httpStatus(codes.NotFound))
	assert.Equal(t, http.StatusNotImplemented, httpStatus(codes.Unimplemented))
	assert.Equal(t, http.StatusInternalServerError, httpStatus(codes.Internal))
	assert.Equal(t, http.StatusInternalServerError, httpStatus(codes.Unavailable))
}
