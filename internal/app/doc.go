// Package app contains the core application logic. It ties a config.Loader,
// the task kind registry and the pipeline engine together, and owns the
// process lifecycle concerns that surround a run: logging, telemetry
// providers and the health check server. It is decoupled from any specific
// entrypoint like a CLI.
package app
