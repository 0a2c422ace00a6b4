package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/pipegraph/internal/config"
	"github.com/vk/pipegraph/internal/ctxlog"
	"github.com/vk/pipegraph/internal/pipeline"
	"github.com/vk/pipegraph/internal/telemetry"
	"github.com/vk/pipegraph/internal/workerpool"
)

// Run loads the configured pipeline and executes it once. Telemetry and the
// health check server live for the duration of the call.
func (a *App) Run(ctx context.Context) (err error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	providers, err := telemetry.Init(ctx, a.config.Telemetry)
	if err != nil {
		return err
	}
	defer func() {
		if shutErr := providers.Shutdown(context.WithoutCancel(ctx)); shutErr != nil {
			err = errors.Join(err, fmt.Errorf("telemetry shutdown: %w", shutErr))
		}
	}()

	if err := a.startHealthCheckServer(a.config.HealthcheckPort, providers.MetricsHandler()); err != nil {
		return err
	}
	defer a.closeHealthCheckServer(ctx)

	_, err = a.Execute(ctx)
	a.logger.Debug("App.Run method finished.")
	return err
}

// Execute loads, builds and runs the pipeline. The Result is nil when the
// pipeline could not be built.
func (a *App) Execute(ctx context.Context) (*pipeline.Result, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)

	p, err := a.LoadPipeline(ctx)
	if err != nil {
		return nil, err
	}
	if p.Len() == 0 {
		a.logger.Warn("No tasks found in pipeline, execution not required.")
		return &pipeline.Result{}, nil
	}

	a.logger.Info("🚀 Starting execution...", "tasks", p.Len(), "workers", a.config.WorkerCount)
	res, err := p.Run(ctx)
	if err != nil {
		return res, fmt.Errorf("execution failed: %w", err)
	}
	a.logger.Info("🏁 Execution finished.", "run_id", res.RunID, "completed", len(res.Completed))
	return res, nil
}

// LoadPipeline reads the pipeline definition and compiles it.
func (a *App) LoadPipeline(ctx context.Context) (*pipeline.Pipeline, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)

	model, err := a.loader.Load(ctx, a.config.PipelinePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load pipeline: %w", err)
	}
	a.logger.Debug("Pipeline definition loaded.", "tasks", len(model.Tasks), "variables", len(model.Variables))

	if err := a.registry.ValidateModel(ctx, model); err != nil {
		return nil, err
	}

	var exec pipeline.Executor
	if a.config.WorkerCount > 0 {
		pool, err := workerpool.New(a.config.WorkerCount)
		if err != nil {
			return nil, err
		}
		exec = pool
	}
	return BuildPipeline(ctx, model, a.registry, exec)
}

// taskBuilder is the part of the registry BuildPipeline needs.
type taskBuilder interface {
	Build(ctx context.Context, t *config.Task) (pipeline.Task, error)
}

// BuildPipeline creates one task per declaration and wires depends_on and
// dependent into the pipeline graph. A nil exec yields a sequential pipeline.
func BuildPipeline(ctx context.Context, model *config.Model, reg taskBuilder, exec pipeline.Executor) (*pipeline.Pipeline, error) {
	logger := ctxlog.FromContext(ctx)

	byName := make(map[string]pipeline.Task, len(model.Tasks))
	for _, t := range model.Tasks {
		task, err := reg.Build(ctx, t)
		if err != nil {
			return nil, err
		}
		byName[t.Name] = task
	}

	b := pipeline.New().Executor(exec)
	for _, t := range model.Tasks {
		r := b.Task(byName[t.Name])
		for _, dep := range t.DependsOn {
			r.AddDependencies(byName[dep])
		}
		if t.Dependent != "" {
			r.Dependent(byName[t.Dependent])
		}
		if err := r.Add(); err != nil {
			return nil, fmt.Errorf("task %q at %s: %w", t.Name, t.Source, err)
		}
	}

	p, err := b.Create()
	if err != nil {
		return nil, err
	}
	logger.Debug("Pipeline graph built.", "tasks", p.Len(), "concurrent", p.Concurrent())
	return p, nil
}
