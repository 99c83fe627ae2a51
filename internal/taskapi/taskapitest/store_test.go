package taskapitest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adriangreen/taskboard/internal/storage"
	"github.com/adriangreen/taskboard/internal/tasks"
)

func TestStoreWritesThrough(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()

	s, err := OpenStore(ctx, kv)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Len())

	milk, err := s.Create("Buy milk", false)
	require.NoError(t, err)
	car, err := s.Create("Wash car", false)
	require.NoError(t, err)
	rent, err := s.Create("Pay rent", false)
	require.NoError(t, err)

	car.Completed = true
	_, err = s.Put(car)
	require.NoError(t, err)
	require.NoError(t, s.Delete(milk.ID))

	reopened, err := OpenStore(ctx, kv)
	require.NoError(t, err)
	assert.Equal(t, []tasks.Task{car, rent}, reopened.Tasks())

	// New tasks keep sorting after the loaded ones.
	walk, err := reopened.Create("Walk dog", false)
	require.NoError(t, err)
	again, err := OpenStore(ctx, kv)
	require.NoError(t, err)
	assert.Equal(t, []tasks.Task{car, rent, walk}, again.Tasks())
}

func TestStoreErrors(t *testing.T) {
	s := NewStore(tasks.Task{ID: "1", Title: "Buy milk"})

	_, err := s.Get("2")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Put(tasks.Task{Title: "x"})
	assert.ErrorIs(t, err, ErrEmptyID)
	assert.ErrorIs(t, s.Delete("2"), ErrNotFound)
	assert.ErrorIs(t, s.Delete(""), ErrEmptyID)
}

func TestHandlerInjectedFailure(t *testing.T) {
	store := NewStore(tasks.Task{ID: "1", Title: "Buy milk"})
	store.Fail(http.MethodDelete, "1", http.StatusServiceUnavailable)
	h := NewHandler(store, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/tasks/1", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, 1, store.Len())

	store.ClearFailures()
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/tasks/1", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, store.Len())
}

func TestHandlerValidatesBodies(t *testing.T) {
	h := NewHandler(NewStore(tasks.Task{ID: "1", Title: "Buy milk"}), nil)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"blank title", http.MethodPost, "/tasks", `{"title":"  "}`, http.StatusBadRequest},
		{"bad json", http.MethodPost, "/tasks", `{`, http.StatusBadRequest},
		{"id mismatch", http.MethodPut, "/tasks/1", `{"id":"2","title":"x"}`, http.StatusBadRequest},
		{"unknown task", http.MethodPut, "/tasks/9", `{"title":"x"}`, http.StatusNotFound},
		{"created", http.MethodPost, "/tasks", `{"title":"Wash car"}`, http.StatusCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body)))
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
