// Package taskapi implements tasks.Service over the task service's
// JSON-over-HTTP contract.
package taskapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/adriangreen/taskboard/internal/tasks"
)

const (
	// DefaultBaseURL is the address used when no service URL is configured.
	DefaultBaseURL = "http://localhost:3000"

	// RequestIDHeader carries the per-request correlation ID.
	RequestIDHeader = "X-Request-ID"

	maxBodyBytes  = 4 << 20
	maxErrorBytes = 512
)

// Options configures a Client.
type Options struct {
	// BaseURL is the service root; "/tasks" is appended to it.
	BaseURL string

	// Token, when set, is sent as an OAuth2 bearer token.
	Token string

	// Timeout bounds each request. Zero means no timeout beyond the caller's context.
	Timeout time.Duration

	// ValidateResponses checks response bodies against the task schema.
	ValidateResponses bool

	// HTTPClient overrides the transport (tests, proxies).
	HTTPClient *http.Client

	// Logger receives per-request debug lines. Nil disables request logging.
	Logger *log.Logger
}

// Client implements tasks.Service against a REST task service.
type Client struct {
	base    *url.URL
	http    *http.Client
	timeout time.Duration
	schemas *schemas
	logger  *log.Logger
}

var _ tasks.Service = (*Client)(nil)

// New creates a client for the service at opts.BaseURL.
func New(ctx context.Context, opts Options) (*Client, error) {
	raw := strings.TrimSpace(opts.BaseURL)
	if raw == "" {
		raw = DefaultBaseURL
	}
	base, err := url.Parse(strings.TrimRight(raw, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid service URL %q: %w", raw, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid service URL %q: scheme must be http or https", raw)
	}
	if base.Host == "" {
		return nil, fmt.Errorf("invalid service URL %q: missing host", raw)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if opts.Token != "" {
		// oauth2.NewClient picks the base transport up from the context.
		ctx = context.WithValue(ctx, oauth2.HTTPClient, httpClient)
		httpClient = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: opts.Token,
			TokenType:   "Bearer",
		}))
	}

	c := &Client{
		base:    base,
		http:    httpClient,
		timeout: opts.Timeout,
		logger:  opts.Logger,
	}

	if opts.ValidateResponses {
		s, err := compileSchemas()
		if err != nil {
			return nil, err
		}
		c.schemas = s
	}

	return c, nil
}

// BaseURL returns the normalized service root.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// List returns every task in service order.
func (c *Client) List(ctx context.Context) ([]tasks.Task, error) {
	var out []tasks.Task
	if err := c.do(ctx, "list tasks", http.MethodGet, "", nil, &out, c.listSchema()); err != nil {
		return nil, err
	}
	if out == nil {
		out = []tasks.Task{}
	}
	return out, nil
}

// Create posts a new incomplete task and returns the stored copy.
func (c *Client) Create(ctx context.Context, title string) (tasks.Task, error) {
	payload := struct {
		Title     string `json:"title"`
		Completed bool   `json:"completed"`
	}{Title: title, Completed: false}

	var out tasks.Task
	if err := c.do(ctx, "create task", http.MethodPost, "", payload, &out, c.taskSchema()); err != nil {
		return tasks.Task{}, err
	}
	if out.ID == "" {
		return tasks.Task{}, &SchemaError{Op: "create task", Err: errors.New("response has no task id")}
	}
	return out, nil
}

// Update replaces the task identified by task.ID with the full body.
func (c *Client) Update(ctx context.Context, task tasks.Task) (tasks.Task, error) {
	if task.ID == "" {
		return tasks.Task{}, fmt.Errorf("taskapi: update task: missing id")
	}

	var out tasks.Task
	if err := c.do(ctx, "update task", http.MethodPut, task.ID, task, &out, c.taskSchema()); err != nil {
		return tasks.Task{}, err
	}
	// Some services answer PUT with an empty body.
	if out.ID == "" {
		out = task
	}
	return out, nil
}

// Delete removes the task with the given ID. Response bodies are ignored.
func (c *Client) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("taskapi: delete task: missing id")
	}
	return c.do(ctx, "delete task", http.MethodDelete, id, nil, nil, nil)
}

func (c *Client) taskSchema() schemaValidator {
	if c.schemas == nil {
		return nil
	}
	return c.schemas.task
}

func (c *Client) listSchema() schemaValidator {
	if c.schemas == nil {
		return nil
	}
	return c.schemas.list
}

// schemaValidator is satisfied by *jsonschema.Schema.
type schemaValidator interface {
	Validate(v interface{}) error
}

func (c *Client) endpoint(id string) string {
	target := strings.TrimRight(c.base.String(), "/") + "/tasks"
	if id != "" {
		target += "/" + url.PathEscape(id)
	}
	return target
}

// do performs one round trip. A nil out skips decoding.
func (c *Client) do(ctx context.Context, op, method, id string, body, out any, schema schemaValidator) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	requestID := uuid.NewString()
	target := c.endpoint(id)

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("taskapi: %s: encode body: %w", op, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("taskapi: %s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.debug("request failed", "op", op, "method", method, "url", target, "request_id", requestID, "err", err)
		return &TransportError{Op: op, RequestID: requestID, Err: err}
	}
	defer resp.Body.Close()

	c.debug("request", "op", op, "method", method, "url", target, "status", resp.StatusCode,
		"request_id", requestID, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBytes))
		return &StatusError{
			Op:         op,
			Method:     method,
			URL:        target,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(snippet)),
			RequestID:  requestID,
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return &TransportError{Op: op, RequestID: requestID, Err: fmt.Errorf("read body: %w", err)}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	if schema != nil {
		var doc interface{}
		if err := json.Unmarshal(data, &doc); err != nil {
			return &SchemaError{Op: op, RequestID: requestID, Err: fmt.Errorf("decode body: %w", err)}
		}
		if err := schema.Validate(doc); err != nil {
			return &SchemaError{Op: op, RequestID: requestID, Err: err}
		}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return &SchemaError{Op: op, RequestID: requestID, Err: fmt.Errorf("decode body: %w", err)}
	}
	return nil
}

func (c *Client) debug(msg string, keyvals ...interface{}) {
	if c.logger == nil {
		return
	}
	c.logger.Debug(msg, keyvals...)
}
