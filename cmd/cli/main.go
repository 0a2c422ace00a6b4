package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/vk/pipegraph/internal/app"
	"github.com/vk/pipegraph/internal/cli"
	"github.com/vk/pipegraph/internal/config"
	"github.com/vk/pipegraph/internal/fsutil"
	"github.com/vk/pipegraph/internal/hcl"
	"github.com/vk/pipegraph/internal/yamlconfig"
)

// main is the entrypoint for the pipegraph application.
func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Stdout, os.Args[1:])
	stop()
	if err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run encapsulates the main application logic for easier testing and error handling.
func run(ctx context.Context, outW io.Writer, args []string) (err error) {
	appConfig, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	// A panicking task kind must not take the process down without a message.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("application panicked: %v", r)
		}
	}()

	loader, err := loaderFor(appConfig.PipelinePath, appConfig.Variables)
	if err != nil {
		return err
	}
	return app.NewApp(outW, appConfig, loader).Run(ctx)
}

// loaderFor picks the YAML loader for .yaml/.yml files, or for a directory
// that holds only YAML pipeline files, and the HCL loader otherwise.
func loaderFor(path string, vars map[string]string) (config.Loader, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("pipeline path: %w", err)
	}
	if !info.IsDir() {
		if isYAML(path) {
			return yamlconfig.NewLoader(vars), nil
		}
		return hcl.NewLoader(vars), nil
	}

	yamlFiles, err := fsutil.FindFilesByExtension(path, yamlconfig.Extensions...)
	if err != nil {
		return nil, err
	}
	hclFiles, err := fsutil.FindFilesByExtension(path, hcl.Extensions...)
	if err != nil {
		return nil, err
	}
	if len(yamlFiles) > 0 && len(hclFiles) == 0 {
		return yamlconfig.NewLoader(vars), nil
	}
	if len(yamlFiles) > 0 {
		slog.Warn("Directory mixes HCL and YAML pipeline files; only HCL files are loaded.", "path", path)
	}
	return hcl.NewLoader(vars), nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
