package pipeline

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/vk/pipegraph/internal/ctxlog"
	"github.com/vk/pipegraph/internal/dag"
)

// Pipeline is a compiled, immutable set of tasks. It may be executed any
// number of times, including concurrently; each run is independent.
type Pipeline struct {
	dag      *dag.DAG[Task]
	executor Executor
}

// Len returns the number of tasks.
func (p *Pipeline) Len() int { return p.dag.Len() }

// Tasks returns the tasks in the order a sequential run executes them.
func (p *Pipeline) Tasks() []Task { return p.dag.TopologicalOrder() }

// Graph exposes the underlying DAG.
func (p *Pipeline) Graph() *dag.DAG[Task] { return p.dag }

// Concurrent reports whether runs use an Executor.
func (p *Pipeline) Concurrent() bool { return p.executor != nil }

// Execute runs the pipeline and returns the first failure, if any.
func (p *Pipeline) Execute(ctx context.Context) error {
	_, err := p.Run(ctx)
	return err
}

// Run executes every task once, honouring dependencies, and blocks until all
// tasks have finished or the run has aborted. The Result is always non-nil.
//
// A task failure is returned as *TaskError. If ctx is cancelled before a
// failure occurs, ctx.Err() is returned once running tasks have drained.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	runID := uuid.NewString()
	ctx, logger := ctxlog.With(ctx, "run_id", runID)
	m := loadInstruments(logger)

	ctx, span := tracer().Start(ctx, "pipeline.Run",
		trace.WithAttributes(
			attribute.String("pipeline.run_id", runID),
			attribute.Int("pipeline.task_count", p.dag.Len()),
			attribute.Bool("pipeline.concurrent", p.executor != nil),
		),
	)
	defer span.End()

	r := newRun(runID, p.dag.Len())
	logger.Info("Starting pipeline run.", "tasks", p.dag.Len(), "concurrent", p.executor != nil)

	start := time.Now()
	var err error
	if p.executor == nil {
		err = p.runSequential(ctx, r)
	} else {
		err = p.runConcurrent(ctx, r)
	}
	elapsed := time.Since(start)

	res := r.finish(p.dag.TopologicalOrder())
	if n := len(res.Skipped); n > 0 {
		m.taskSkipped.Add(ctx, int64(n))
		for _, t := range res.Skipped {
			logger.Warn("Skipping task due to aborted run.", "task", nameOf(t))
		}
	}

	outcome := "success"
	if err != nil {
		outcome = "failure"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Error("Pipeline run failed.", "error", err, "completed", len(res.Completed), "skipped", len(res.Skipped))
	} else {
		span.SetStatus(codes.Ok, "")
		logger.Info("Pipeline run finished.", "completed", len(res.Completed), "duration", elapsed)
	}
	m.runLatency.Record(ctx, elapsed.Seconds())
	m.runsFinished.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))

	return res, err
}

func (p *Pipeline) runSequential(ctx context.Context, r *run) error {
	for _, t := range p.dag.TopologicalOrder() {
		if err := ctx.Err(); err != nil {
			return err
		}
		r.start(t)
		o := invoke(ctx, t)
		r.record(o)
		if o.err != nil {
			return o.err
		}
	}
	return nil
}

func (p *Pipeline) runConcurrent(ctx context.Context, r *run) error {
	logger := ctxlog.FromContext(ctx)
	tasks := p.dag.Nodes()

	remaining := make(map[Task]int, len(tasks))
	for _, t := range tasks {
		remaining[t] = len(p.dag.TailsOf(t))
	}
	ready := slices.Clone(p.dag.NoIncomingEdges())
	logger.Debug("Found all root tasks.", "count", len(ready))

	// Buffered for every task so workers never block on reporting.
	done := make(chan outcome, len(tasks))
	inFlight := 0
	var firstErr error

	for {
		for firstErr == nil && len(ready) > 0 {
			if err := ctx.Err(); err != nil {
				firstErr = err
				break
			}
			t := ready[0]
			ready = ready[1:]
			r.start(t)
			inFlight++
			p.executor.Go(func() { done <- invoke(ctx, t) })
		}
		if inFlight == 0 {
			break
		}

		o := <-done
		inFlight--
		r.record(o)
		if o.err != nil {
			if firstErr == nil {
				firstErr = o.err
				logger.Debug("Stopping admission of new tasks.", "in_flight", inFlight)
			}
			continue
		}
		for _, next := range p.dag.HeadsOf(o.task) {
			remaining[next]--
			if remaining[next] == 0 {
				logger.Debug("Unlocking dependent task.", "task", nameOf(o.task), "dependent", nameOf(next))
				ready = append(ready, next)
			}
		}
	}
	return firstErr
}

type outcome struct {
	task    Task
	err     error
	elapsed time.Duration
}

// invoke runs a single task with its span, metrics and logs. It may be called
// from any goroutine and touches no run state.
func invoke(ctx context.Context, t Task) outcome {
	name := nameOf(t)
	ctx, logger := ctxlog.With(ctx, "task", name)
	m := loadInstruments(logger)

	ctx, span := tracer().Start(ctx, name,
		trace.WithAttributes(attribute.String("pipeline.task", name)),
	)
	defer span.End()

	logger.Info("▶️ Starting task")
	m.activeTasks.Add(ctx, 1)
	start := time.Now()
	err := safeRun(ctx, t)
	elapsed := time.Since(start)
	m.activeTasks.Add(ctx, -1)

	attrs := metric.WithAttributes(attribute.String("task", name))
	m.taskLatency.Record(ctx, elapsed.Seconds(), attrs)
	if err != nil {
		m.taskFailure.Add(ctx, 1, attrs)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Error("Task execution failed.", "error", err)
		return outcome{task: t, elapsed: elapsed, err: &TaskError{Task: t, Name: name, Err: err}}
	}
	m.taskSuccess.Add(ctx, 1, attrs)
	span.SetStatus(codes.Ok, "")
	logger.Info("✅ Finished task", "duration", elapsed)
	return outcome{task: t, elapsed: elapsed}
}

func safeRun(ctx context.Context, t Task) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %v", ErrTaskPanic, rec)
		}
	}()
	return t.Run(ctx)
}

// IsTaskFailure reports whether err was caused by a task, as opposed to
// cancellation of the run.
func IsTaskFailure(err error) bool {
	var te *TaskError
	return errors.As(err, &te)
}
