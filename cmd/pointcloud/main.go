// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Command pointcloud serves the point cloud visualizer and carries its
// management commands.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ManuGH/pointcloud/internal/config"
	"github.com/ManuGH/pointcloud/internal/daemon"
	"github.com/ManuGH/pointcloud/internal/log"
	"github.com/ManuGH/pointcloud/internal/metrics"
	"github.com/ManuGH/pointcloud/internal/version"
)

// defaultConfigFile is picked up from the working directory when neither
// --config nor POINTCLOUD_CONFIG is given.
const defaultConfigFile = "pointcloud.yaml"

type cli struct {
	configPath string
	stdin      io.Reader
	stdout     io.Writer
	stderr     io.Writer
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("pointcloud", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to config file (YAML)")
	showVersion := fs.Bool("version", false, "print version and exit")
	fs.Usage = func() { printUsage(stderr) }

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if *showVersion {
		fmt.Fprintln(stdout, version.String())
		return 0
	}

	c := &cli{
		configPath: resolveConfigPath(*configPath),
		stdin:      stdin,
		stdout:     stdout,
		stderr:     stderr,
	}

	rest := fs.Args()
	if len(rest) == 0 {
		return c.serve()
	}
	switch rest[0] {
	case "serve":
		return c.serve()
	case "config":
		return c.runConfig(rest[1:])
	case "check":
		return c.runCheck(rest[1:])
	case "collectstatic":
		return c.runCollectStatic(rest[1:])
	case "help":
		printUsage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n\n", rest[0])
		printUsage(stderr)
		return 2
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  pointcloud [--config file.yaml] [serve]")
	fmt.Fprintln(w, "  pointcloud [--config file.yaml] config validate|dump|init")
	fmt.Fprintln(w, "  pointcloud [--config file.yaml] check [--deploy]")
	fmt.Fprintln(w, "  pointcloud [--config file.yaml] collectstatic [--clear] [--dry-run] [--noinput]")
	fmt.Fprintln(w, "  pointcloud --version")
}

func resolveConfigPath(explicit string) string {
	if p := strings.TrimSpace(explicit); p != "" {
		return p
	}
	if p := strings.TrimSpace(os.Getenv("POINTCLOUD_CONFIG")); p != "" {
		return p
	}
	if _, err := os.Stat(defaultConfigFile); err == nil {
		return defaultConfigFile
	}
	return ""
}

// load reads and validates settings, then freezes them.
func (c *cli) load() (*config.Loader, *config.Snapshot, error) {
	loader := config.NewLoader(c.configPath, version.Version)
	cfg, err := loader.Load()
	if err != nil {
		return nil, nil, err
	}
	snap, err := config.NewSnapshot(cfg)
	if err != nil {
		return nil, nil, err
	}
	return loader, snap, nil
}

func (c *cli) serve() int {
	log.Configure(log.Config{
		Level:   "info",
		Service: "pointcloud",
		Version: version.Version,
	})
	logger := log.WithComponent("daemon")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loader, snap, err := c.load()
	if err != nil {
		logger.Error().
			Err(err).
			Str(log.FieldEvent, "config.load_failed").
			Str(log.FieldConfigPath, c.configPath).
			Msg("failed to load configuration")
		return 1
	}

	app := snap.App()
	log.Reconfigure(log.Config{
		Level:   app.LogLevel,
		Service: app.LogService,
		Version: app.Version,
	})
	logger = log.WithComponent("daemon")

	source := "env+defaults"
	if c.configPath != "" {
		source = "file"
	}
	logger.Info().
		Str(log.FieldEvent, "config.loaded").
		Str("source", source).
		Str(log.FieldConfigPath, c.configPath).
		Msg("loaded configuration")

	metrics.SetBuildInfo(version.Version, version.Commit)
	logger.Info().
		Str(log.FieldEvent, "startup").
		Str("version", version.Version).
		Str("commit", version.Commit).
		Str("build_date", version.Date).
		Str("addr", snap.ListenAddr()).
		Bool("debug", snap.Debug()).
		Strs("middleware", snap.Middleware()).
		Msg("starting pointcloud")

	if snap.Debug() {
		logger.Warn().
			Str(log.FieldEvent, "startup.debug").
			Msg("debug mode is on; do not expose this server publicly")
	}

	holder := config.NewHolder(snap, loader)
	a, err := daemon.Build(ctx, holder)
	if err != nil {
		logger.Error().Err(err).Str(log.FieldEvent, "startup.failed").Msg("failed to build server")
		return 1
	}
	if err := a.Run(ctx); err != nil {
		logger.Error().Err(err).Str(log.FieldEvent, "daemon.failed").Msg("daemon app failed")
		return 1
	}

	logger.Info().Str(log.FieldEvent, "shutdown").Msg("server exiting")
	return 0
}
