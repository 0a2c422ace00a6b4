package testutil

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/vk/pipegraph/internal/pipeline"
	"github.com/vk/pipegraph/internal/registry"
)

// RecorderKind is the task kind registered by RecorderModule.
const RecorderKind = "record"

// ErrRecordedFailure is returned by record tasks declared with fail = true.
var ErrRecordedFailure = errors.New("recorded failure")

// RecorderModule is a shared module for execution tests. Each "record" task
// sleeps for its duration and records when it ran.
type RecorderModule struct {
	mu      sync.Mutex
	records map[string]*ExecutionRecord
	order   []string
}

// NewRecorderModule creates an empty recorder.
func NewRecorderModule() *RecorderModule {
	return &RecorderModule{records: make(map[string]*ExecutionRecord)}
}

type recordInput struct {
	Sleep string `hcl:"sleep,optional" yaml:"sleep"`
	Fail  bool   `hcl:"fail,optional" yaml:"fail"`
}

// Register registers the "record" kind.
func (m *RecorderModule) Register(r *registry.Registry) {
	r.Register(RecorderKind, func(ctx context.Context, spec registry.Spec) (pipeline.Task, error) {
		var in recordInput
		if err := spec.Decode(ctx, &in); err != nil {
			return nil, err
		}
		var d time.Duration
		if in.Sleep != "" {
			var err error
			if d, err = time.ParseDuration(in.Sleep); err != nil {
				return nil, err
			}
		}
		return pipeline.NewTask(spec.Name, func(ctx context.Context) error {
			start := time.Now()
			select {
			case <-time.After(d):
			case <-ctx.Done():
				return ctx.Err()
			}
			m.mu.Lock()
			m.records[spec.Name] = &ExecutionRecord{Start: start, End: time.Now()}
			m.order = append(m.order, spec.Name)
			m.mu.Unlock()
			if in.Fail {
				return fmt.Errorf("%s: %w", spec.Name, ErrRecordedFailure)
			}
			return nil
		}), nil
	})
}

// Record returns the execution record of the named task, or nil if it never ran.
func (m *RecorderModule) Record(name string) *ExecutionRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.records[name]
}

// Order returns task names in completion order.
func (m *RecorderModule) Order() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.order...)
}
