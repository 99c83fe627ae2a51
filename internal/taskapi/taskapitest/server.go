package taskapitest

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"

	"github.com/adriangreen/taskboard/internal/tasks"
)

// NewHandler routes the task REST contract onto store.
// logger may be nil.
func NewHandler(store *Store, logger *log.Logger) http.Handler {
	h := &handler{store: store, logger: logger}

	r := chi.NewRouter()
	r.Use(h.observe)
	r.Route("/tasks", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/{id}", h.get)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.delete)
	})
	return r
}

// Server is an httptest server backed by a Store.
type Server struct {
	*httptest.Server
	Store *Store
}

// NewServer starts a test server seeded with tasks. Callers must Close it.
func NewServer(seed ...tasks.Task) *Server {
	store := NewStore(seed...)
	return &Server{
		Server: httptest.NewServer(NewHandler(store, nil)),
		Store:  store,
	}
}

type handler struct {
	store  *Store
	logger *log.Logger
}

// observe records the request, applies latency and injected failures.
func (h *handler) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := taskIDFromPath(r.URL.Path)
		h.store.record(Request{
			Method:    r.Method,
			Path:      r.URL.Path,
			TaskID:    id,
			RequestID: r.Header.Get("X-Request-ID"),
			Auth:      r.Header.Get("Authorization"),
		})

		if d := h.store.delay(); d > 0 {
			select {
			case <-time.After(d):
			case <-r.Context().Done():
				return
			}
		}

		if status, ok := h.store.failure(r.Method, id); ok {
			h.logf("injected failure", "method", r.Method, "path", r.URL.Path, "status", status)
			writeErrorJSON(w, status, "injected failure")
			return
		}

		h.logf("request", "method", r.Method, "path", r.URL.Path)
		next.ServeHTTP(w, r)
	})
}

func (h *handler) list(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Tasks())
}

func (h *handler) get(w http.ResponseWriter, r *http.Request) {
	t, err := h.store.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeErrorJSON(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *handler) create(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Title     string `json:"title"`
		Completed bool   `json:"completed"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "Invalid task data")
		return
	}
	if strings.TrimSpace(body.Title) == "" {
		writeErrorJSON(w, http.StatusBadRequest, "Task title is required")
		return
	}
	t, err := h.store.Create(body.Title, body.Completed)
	if err != nil {
		writeErrorJSON(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (h *handler) update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var body tasks.Task
	if err := decodeBody(r, &body); err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "Invalid task data")
		return
	}
	if body.ID != "" && body.ID != id {
		writeErrorJSON(w, http.StatusBadRequest, "Task id does not match path")
		return
	}
	body.ID = id

	t, err := h.store.Put(body)
	switch {
	case errors.Is(err, ErrNotFound):
		writeErrorJSON(w, http.StatusNotFound, err.Error())
		return
	case err != nil:
		writeErrorJSON(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *handler) delete(w http.ResponseWriter, r *http.Request) {
	err := h.store.Delete(chi.URLParam(r, "id"))
	if errors.Is(err, ErrNotFound) {
		writeErrorJSON(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		writeErrorJSON(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}

func (h *handler) logf(msg string, keyvals ...interface{}) {
	if h.logger != nil {
		h.logger.Info(msg, keyvals...)
	}
}

func taskIDFromPath(path string) string {
	rest := strings.TrimPrefix(strings.TrimSuffix(path, "/"), "/tasks")
	return strings.TrimPrefix(rest, "/")
}

func decodeBody(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrorJSON(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
