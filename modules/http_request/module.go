// Package http_request provides the "http_request" task kind. The task
// fails when the server answers with a non-2xx status.
package http_request

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/vk/pipegraph/internal/ctxlog"
	"github.com/vk/pipegraph/internal/pipeline"
	"github.com/vk/pipegraph/internal/registry"
)

// Kind is the name used in pipeline definitions.
const Kind = "http_request"

// ErrUnexpectedStatus is returned for a non-2xx response.
var ErrUnexpectedStatus = errors.New("unexpected HTTP status")

// Module implements the registry.Module interface for this package.
type Module struct {
	// Client performs the requests. Defaults to a client with a 30s timeout.
	Client *http.Client
}

// Input defines the arguments of an http_request task.
type Input struct {
	URL     string            `hcl:"url" yaml:"url" validate:"required,url"`
	Method  string            `hcl:"method,optional" yaml:"method" validate:"omitempty,oneof=GET HEAD POST PUT PATCH DELETE OPTIONS"`
	Body    string            `hcl:"body,optional" yaml:"body"`
	Headers map[string]string `hcl:"headers,optional" yaml:"headers"`
}

// Register registers the http_request kind.
func (m *Module) Register(r *registry.Registry) {
	r.Register(Kind, m.newTask)
}

func (m *Module) newTask(ctx context.Context, spec registry.Spec) (pipeline.Task, error) {
	var in Input
	if err := spec.Decode(ctx, &in); err != nil {
		return nil, err
	}
	if in.Method == "" {
		in.Method = http.MethodGet
	}
	client := m.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return pipeline.NewTask(spec.Name, func(ctx context.Context) error {
		return do(ctx, client, spec.Name, in)
	}), nil
}

func do(ctx context.Context, client *http.Client, name string, in Input) error {
	logger := ctxlog.FromContext(ctx)
	logger.Info("Making HTTP request", "task", name, "method", in.Method, "url", in.URL)

	var body io.Reader
	if in.Body != "" {
		body = strings.NewReader(in.Body)
	}
	req, err := http.NewRequestWithContext(ctx, in.Method, in.URL, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range in.Headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()
	// Drain so the connection can be reused.
	n, _ := io.Copy(io.Discard, resp.Body)

	logger.Info("Received HTTP response", "task", name, "status", resp.Status, "bytes", n)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %s %s returned %s", ErrUnexpectedStatus, in.Method, in.URL, resp.Status)
	}
	return nil
}
