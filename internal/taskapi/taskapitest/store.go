// Package taskapitest provides an in-memory task service speaking the same
// REST contract as the real backend. It backs client and UI tests and the
// mock-server command.
package taskapitest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/adriangreen/taskboard/internal/storage"
	"github.com/adriangreen/taskboard/internal/tasks"
)

const taskKeyPrefix = "task/"

// Common errors
var (
	ErrNotFound  = errors.New("task not found")
	ErrEmptyID   = errors.New("task id cannot be empty")
	ErrDuplicate = errors.New("task id already exists")
)

// Request records one call received by the handler.
type Request struct {
	Method    string
	Path      string
	TaskID    string
	RequestID string
	Auth      string
}

// Store is an ordered, mutex-protected task collection with failure injection.
// When opened over a storage.KV every change is written through to it.
type Store struct {
	mu       sync.RWMutex
	tasks    []tasks.Task
	failures map[string]int
	latency  time.Duration
	requests []Request

	kv   storage.KV
	keys map[string]string // task ID -> KV key
	seq  uint64
}

// NewStore creates a memory-only store holding seed. Seed tasks without an
// ID get one.
func NewStore(seed ...tasks.Task) *Store {
	s := &Store{failures: make(map[string]int)}
	for _, t := range seed {
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		s.tasks = append(s.tasks, t)
	}
	return s
}

// OpenStore loads the tasks kept in kv, in creation order.
func OpenStore(ctx context.Context, kv storage.KV) (*Store, error) {
	s := &Store{
		failures: make(map[string]int),
		kv:       kv,
		keys:     make(map[string]string),
	}

	keys, err := kv.Keys(ctx, taskKeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("list stored tasks: %w", err)
	}
	for _, key := range keys {
		raw, err := kv.Get(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", key, err)
		}
		var t tasks.Task
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, fmt.Errorf("decode %s: %w", key, err)
		}
		s.tasks = append(s.tasks, t)
		s.keys[t.ID] = key

		var seq uint64
		if _, err := fmt.Sscanf(strings.TrimPrefix(key, taskKeyPrefix), "%016x", &seq); err == nil && seq > s.seq {
			s.seq = seq
		}
	}
	return s, nil
}

// persist writes t through to the KV, allocating a key for new tasks.
// Callers hold s.mu.
func (s *Store) persist(t tasks.Task) error {
	if s.kv == nil {
		return nil
	}
	key, ok := s.keys[t.ID]
	if !ok {
		s.seq++
		key = fmt.Sprintf("%s%016x", taskKeyPrefix, s.seq)
	}
	raw, err := json.Marshal(t)
	if err != nil {
		return err
	}
	if err := s.kv.Put(context.Background(), key, raw); err != nil {
		return fmt.Errorf("store task %s: %w", t.ID, err)
	}
	s.keys[t.ID] = key
	return nil
}

func (s *Store) unpersist(id string) error {
	if s.kv == nil {
		return nil
	}
	key, ok := s.keys[id]
	if !ok {
		return nil
	}
	if err := s.kv.Delete(context.Background(), key); err != nil {
		return fmt.Errorf("remove task %s: %w", id, err)
	}
	delete(s.keys, id)
	return nil
}

// Tasks returns a copy of the stored tasks in insertion order.
func (s *Store) Tasks() []tasks.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]tasks.Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

// Get returns a task by ID.
func (s *Store) Get(id string) (tasks.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := tasks.Index(s.tasks, id)
	if i < 0 {
		return tasks.Task{}, ErrNotFound
	}
	return s.tasks[i], nil
}

// Create appends a task, assigning a fresh ID.
func (s *Store) Create(title string, completed bool) (tasks.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := tasks.Task{ID: uuid.NewString(), Title: title, Completed: completed}
	if err := s.persist(t); err != nil {
		return tasks.Task{}, err
	}
	s.tasks = append(s.tasks, t)
	return t, nil
}

// Len returns the number of stored tasks.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}

// Put replaces the stored task with the same ID.
func (s *Store) Put(t tasks.Task) (tasks.Task, error) {
	if t.ID == "" {
		return tasks.Task{}, ErrEmptyID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := tasks.Index(s.tasks, t.ID)
	if i < 0 {
		return tasks.Task{}, ErrNotFound
	}
	if err := s.persist(t); err != nil {
		return tasks.Task{}, err
	}
	s.tasks[i] = t
	return t, nil
}

// Delete removes a task by ID.
func (s *Store) Delete(id string) error {
	if id == "" {
		return ErrEmptyID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := tasks.Index(s.tasks, id)
	if i < 0 {
		return ErrNotFound
	}
	if err := s.unpersist(id); err != nil {
		return err
	}
	s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
	return nil
}

// Fail makes every request matching method and task ID answer with status.
// An empty id matches the collection endpoint.
func (s *Store) Fail(method, id string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[failureKey(method, id)] = status
}

// ClearFailures removes every injected failure.
func (s *Store) ClearFailures() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = make(map[string]int)
}

func (s *Store) failure(method, id string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	status, ok := s.failures[failureKey(method, id)]
	return status, ok
}

// SetLatency delays every response by d.
func (s *Store) SetLatency(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latency = d
}

func (s *Store) delay() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latency
}

func (s *Store) record(r Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, r)
}

// Requests returns every recorded request.
func (s *Store) Requests() []Request {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// Count returns how many requests used method.
func (s *Store) Count(method string) int {
	n := 0
	for _, r := range s.Requests() {
		if r.Method == method {
			n++
		}
	}
	return n
}

func failureKey(method, id string) string {
	return strings.ToUpper(method) + " " + id
}
