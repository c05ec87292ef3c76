// SPDX-License-Identifier: MIT

package main

import (
	"flag"
	"fmt"

	"github.com/ManuGH/pointcloud/internal/app"
	"github.com/ManuGH/pointcloud/internal/components"
	"github.com/ManuGH/pointcloud/internal/config"
)

// runCheck loads the settings and builds the entry point once without
// serving, so wiring errors surface before deployment. With --deploy any
// finding fails the command.
func (c *cli) runCheck(args []string) int {
	fs := flag.NewFlagSet("pointcloud check", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	deploy := fs.Bool("deploy", false, "also run deployment readiness checks")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	_, snap, err := c.load()
	if err != nil {
		fmt.Fprintf(c.stderr, "Configuration error in %s:\n  %v\n", c.describeSource(), err)
		return 1
	}
	if _, err := app.NewServer(snap, app.Env{Components: components.Builtin()}); err != nil {
		fmt.Fprintf(c.stderr, "Error: %s: %v\n", snap.EntryPoint(), err)
		return 1
	}

	if !*deploy {
		fmt.Fprintln(c.stdout, "System check identified no issues.")
		return 0
	}

	findings := config.DeployChecks(snap)
	if len(findings) == 0 {
		fmt.Fprintln(c.stdout, "System check identified no issues.")
		return 0
	}
	fmt.Fprintln(c.stdout, "System check identified some issues:")
	for _, f := range findings {
		fmt.Fprintf(c.stdout, "  %s\n", f)
	}
	fmt.Fprintf(c.stdout, "\nSystem check identified %d issue(s).\n", len(findings))
	return 1
}
