package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/vk/pipegraph/internal/app"
	"github.com/vk/pipegraph/internal/telemetry"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// varFlags collects repeated --var name=value flags.
type varFlags map[string]string

func (v varFlags) String() string {
	pairs := make([]string, 0, len(v))
	for k, val := range v {
		pairs = append(pairs, k+"="+val)
	}
	return strings.Join(pairs, ",")
}

func (v varFlags) Set(s string) error {
	name, value, ok := strings.Cut(s, "=")
	if !ok || name == "" {
		return fmt.Errorf("expected name=value, got %q", s)
	}
	v[name] = value
	return nil
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("pipegraph", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
pipegraph - run a dependency graph of tasks, in order or on a worker pool.

Usage:
  pipegraph [options] PIPELINE_PATH

Arguments:
  PIPELINE_PATH
    Path to a pipeline file (.hcl, .hcl.json, .yaml, .yml) or a directory
    containing them. A directory must hold files of a single format.

Options:
`)
		flagSet.PrintDefaults()
	}

	vars := varFlags{}
	pipelineFlag := flagSet.String("pipeline", "", "Path to the pipeline file or directory.")
	pFlag := flagSet.String("p", "", "Path to the pipeline file or directory (shorthand).")
	healthPortFlag := flagSet.Int("healthcheck-port", 0, "Port for the HTTP health check and metrics server. 0 is disabled.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	workersFlag := flagSet.Int("workers", 4, "Number of concurrent workers. 0 runs tasks sequentially.")
	flagSet.Var(vars, "var", "Set a pipeline variable as name=value. May be repeated.")
	defaults := telemetry.DefaultConfig()
	traceFlag := flagSet.String("trace-exporter", defaults.TraceExporter, "Trace exporter. Options: 'none', 'stdout', 'otlp'.")
	metricFlag := flagSet.String("metric-exporter", defaults.MetricExporter, "Metric exporter. Options: 'none', 'stdout', 'prometheus'.")
	otlpFlag := flagSet.String("otlp-endpoint", defaults.OTLPEndpoint, "OTLP gRPC collector address.")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	path := ""
	switch {
	case *pipelineFlag != "":
		path = *pipelineFlag
	case *pFlag != "":
		path = *pFlag
	case flagSet.NArg() > 0:
		path = flagSet.Arg(0)
	}
	slog.Debug("Pipeline path determined.", "path", path)

	if path == "" {
		slog.Debug("No pipeline path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	defaults.TraceExporter = strings.ToLower(*traceFlag)
	defaults.MetricExporter = strings.ToLower(*metricFlag)
	defaults.OTLPEndpoint = *otlpFlag

	config, err := app.NewConfig(app.Config{
		PipelinePath:    path,
		HealthcheckPort: *healthPortFlag,
		LogFormat:       strings.ToLower(*logFormatFlag),
		LogLevel:        strings.ToLower(*logLevelFlag),
		WorkerCount:     *workersFlag,
		Variables:       vars,
		Telemetry:       defaults,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "path", config.PipelinePath, "workers", config.WorkerCount)
	return config, false, nil
}
