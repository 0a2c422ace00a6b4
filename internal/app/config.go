package app

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/vk/pipegraph/internal/telemetry"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	// PipelinePath is a pipeline file or a directory of them.
	PipelinePath string `validate:"required"`

	LogFormat       string `validate:"oneof=text json"`
	LogLevel        string `validate:"oneof=debug info warn error"`
	HealthcheckPort int    `validate:"gte=0,lte=65535"`
	// WorkerCount is the size of the worker pool. 0 runs tasks sequentially
	// on the calling goroutine.
	WorkerCount int `validate:"gte=0"`

	// Variables override declared pipeline variables.
	Variables map[string]string

	Telemetry telemetry.Config
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// NewConfig fills defaults and validates cfg.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.Telemetry.ServiceName == "" {
		def := telemetry.DefaultConfig()
		def.Output = cfg.Telemetry.Output
		if cfg.Telemetry.TraceExporter != "" {
			def.TraceExporter = cfg.Telemetry.TraceExporter
		}
		if cfg.Telemetry.MetricExporter != "" {
			def.MetricExporter = cfg.Telemetry.MetricExporter
		}
		if cfg.Telemetry.OTLPEndpoint != "" {
			def.OTLPEndpoint = cfg.Telemetry.OTLPEndpoint
		}
		cfg.Telemetry = def
	}

	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}
