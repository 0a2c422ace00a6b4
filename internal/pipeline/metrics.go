package pipeline

import (
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/vk/pipegraph/internal/pipeline"

// tracer is resolved per run so that a provider installed after package
// initialisation is honoured.
func tracer() trace.Tracer {
	return otel.Tracer(instrumentationName)
}

type instruments struct {
	taskLatency  metric.Float64Histogram
	taskSuccess  metric.Int64Counter
	taskFailure  metric.Int64Counter
	taskSkipped  metric.Int64Counter
	activeTasks  metric.Int64UpDownCounter
	runLatency   metric.Float64Histogram
	runsFinished metric.Int64Counter
}

var (
	metricsOnce sync.Once
	metrics     instruments
)

// loadInstruments lazily creates the pipeline instruments. Creation failures
// are logged and leave a no-op instrument in place.
func loadInstruments(logger *slog.Logger) *instruments {
	metricsOnce.Do(func() {
		meter := otel.Meter(instrumentationName)
		var failed []string
		var err error

		if metrics.taskLatency, err = meter.Float64Histogram("pipeline_task_duration_seconds",
			metric.WithDescription("Time spent executing each pipeline task"),
			metric.WithUnit("s"),
		); err != nil {
			failed = append(failed, "task_latency: "+err.Error())
		}
		if metrics.taskSuccess, err = meter.Int64Counter("pipeline_task_success_total",
			metric.WithDescription("Number of successful task executions"),
		); err != nil {
			failed = append(failed, "task_success: "+err.Error())
		}
		if metrics.taskFailure, err = meter.Int64Counter("pipeline_task_failure_total",
			metric.WithDescription("Number of failed task executions"),
		); err != nil {
			failed = append(failed, "task_failure: "+err.Error())
		}
		if metrics.taskSkipped, err = meter.Int64Counter("pipeline_task_skipped_total",
			metric.WithDescription("Number of tasks not started because the run aborted"),
		); err != nil {
			failed = append(failed, "task_skipped: "+err.Error())
		}
		if metrics.activeTasks, err = meter.Int64UpDownCounter("pipeline_active_tasks",
			metric.WithDescription("Number of currently executing tasks"),
		); err != nil {
			failed = append(failed, "active_tasks: "+err.Error())
		}
		if metrics.runLatency, err = meter.Float64Histogram("pipeline_run_duration_seconds",
			metric.WithDescription("Total pipeline run time"),
			metric.WithUnit("s"),
		); err != nil {
			failed = append(failed, "run_latency: "+err.Error())
		}
		if metrics.runsFinished, err = meter.Int64Counter("pipeline_runs_total",
			metric.WithDescription("Number of finished pipeline runs by outcome"),
		); err != nil {
			failed = append(failed, "runs_finished: "+err.Error())
		}

		if len(failed) > 0 {
			logger.Error("Failed to initialize some pipeline metrics.",
				slog.Int("failed_count", len(failed)),
				slog.Any("errors", failed),
			)
		}
	})
	return &metrics
}
