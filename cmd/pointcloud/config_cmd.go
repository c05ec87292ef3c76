// SPDX-License-Identifier: MIT

package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ManuGH/pointcloud/internal/config"
	"github.com/ManuGH/pointcloud/internal/version"
)

func (c *cli) runConfig(args []string) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		c.printConfigUsage(c.stdout)
		return 0
	}

	switch args[0] {
	case "validate":
		return c.runConfigValidate(args[1:])
	case "dump":
		return c.runConfigDump(args[1:])
	case "init":
		return c.runConfigInit(args[1:])
	default:
		fmt.Fprintf(c.stderr, "Unknown subcommand: %s\n\n", args[0])
		c.printConfigUsage(c.stderr)
		return 2
	}
}

func (c *cli) printConfigUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  pointcloud config validate")
	fmt.Fprintln(w, "  pointcloud config dump --effective [--format=yaml|json]")
	fmt.Fprintln(w, "  pointcloud config init [--force] [path]")
}

func (c *cli) runConfigValidate(args []string) int {
	fs := flag.NewFlagSet("pointcloud config validate", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if _, _, err := c.load(); err != nil {
		fmt.Fprintf(c.stderr, "Configuration error in %s:\n  %v\n", c.describeSource(), err)
		return 1
	}
	fmt.Fprintf(c.stdout, "✓ %s is valid\n", c.describeSource())
	return 0
}

func (c *cli) runConfigDump(args []string) int {
	fs := flag.NewFlagSet("pointcloud config dump", flag.ContinueOnError)
	fs.SetOutput(c.stderr)

	var format string
	var effective bool
	fs.StringVar(&format, "format", "yaml", "output format: yaml or json")
	fs.BoolVar(&effective, "effective", false, "dump effective configuration (defaults + file + env)")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if !effective {
		fmt.Fprintln(c.stderr, "Error: --effective is required")
		return 2
	}

	loader := config.NewLoader(c.configPath, version.Version)
	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(c.stderr, "Configuration error in %s:\n  %v\n", c.describeSource(), err)
		return 1
	}
	masked, err := c.fileView(cfg)
	if err != nil {
		fmt.Fprintf(c.stderr, "Error: %v\n", err)
		return 1
	}

	switch strings.ToLower(strings.TrimSpace(format)) {
	case "yaml", "yml":
		enc := yaml.NewEncoder(c.stdout)
		enc.SetIndent(2)
		if err := enc.Encode(masked); err != nil {
			fmt.Fprintf(c.stderr, "Error: failed to encode YAML: %v\n", err)
			return 1
		}
		_ = enc.Close()
	case "json":
		enc := json.NewEncoder(c.stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(masked); err != nil {
			fmt.Fprintf(c.stderr, "Error: failed to encode JSON: %v\n", err)
			return 1
		}
	default:
		fmt.Fprintf(c.stderr, "Error: unsupported --format %q (use yaml or json)\n", format)
		return 2
	}
	return 0
}

// runConfigInit writes a fresh settings file with a generated secret key.
// The target is the positional argument, then --config, then ./pointcloud.yaml.
func (c *cli) runConfigInit(args []string) int {
	fs := flag.NewFlagSet("pointcloud config init", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	force := fs.Bool("force", false, "overwrite an existing file")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	target := strings.TrimSpace(fs.Arg(0))
	if target == "" {
		target = c.configPath
	}
	if target == "" {
		target = defaultConfigFile
	}
	target, err := filepath.Abs(target)
	if err != nil {
		fmt.Fprintf(c.stderr, "Error: %v\n", err)
		return 1
	}

	if _, err := os.Stat(target); err == nil && !*force {
		fmt.Fprintf(c.stderr, "Error: %s already exists (use --force to overwrite)\n", target)
		return 1
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(c.stderr, "Error: %v\n", err)
		return 1
	}

	cfg, err := config.Defaults(filepath.Dir(target))
	if err != nil {
		fmt.Fprintf(c.stderr, "Error: %v\n", err)
		return 1
	}
	secret, err := config.GenerateSecretKey()
	if err != nil {
		fmt.Fprintf(c.stderr, "Error: generate secret key: %v\n", err)
		return 1
	}
	cfg.SecretKey = secret
	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(c.stderr, "Error: %v\n", err)
		return 1
	}

	if err := config.NewManager(target).Save(cfg); err != nil {
		fmt.Fprintf(c.stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Fprintf(c.stdout, "✓ wrote %s\n", target)
	return 0
}

// fileView returns cfg in the settings file schema with secrets masked,
// so a dump can be edited and loaded again.
func (c *cli) fileView(cfg config.AppConfig) (any, error) {
	dir := cfg.BaseDir
	if c.configPath != "" {
		abs, err := filepath.Abs(c.configPath)
		if err != nil {
			return nil, err
		}
		dir = filepath.Dir(abs)
	}
	data, err := config.MarshalFile(config.ToFileConfig(cfg, dir))
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	return config.MaskSecrets(doc), nil
}

func (c *cli) describeSource() string {
	if c.configPath == "" {
		return "environment/defaults"
	}
	return c.configPath
}
