// SPDX-License-Identifier: MIT

package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ManuGH/pointcloud/internal/app"
	"github.com/ManuGH/pointcloud/internal/components"
	"github.com/ManuGH/pointcloud/internal/log"
	"github.com/ManuGH/pointcloud/internal/staticfiles"
)

func (c *cli) runCollectStatic(args []string) int {
	fs := flag.NewFlagSet("pointcloud collectstatic", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	clearFirst := fs.Bool("clear", false, "remove existing files in the publish directory first")
	dryRun := fs.Bool("dry-run", false, "report what would happen without writing")
	noInput := fs.Bool("noinput", false, "do not prompt for confirmation")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	_, snap, err := c.load()
	if err != nil {
		fmt.Fprintf(c.stderr, "Configuration error in %s:\n  %v\n", c.describeSource(), err)
		return 1
	}
	log.Reconfigure(log.Config{
		Level:   snap.App().LogLevel,
		Output:  c.stderr,
		Service: snap.App().LogService,
		Version: snap.Version(),
	})

	finder, err := app.StaticFinder(snap, components.Builtin())
	if err != nil {
		fmt.Fprintf(c.stderr, "Error: %v\n", err)
		return 1
	}
	if finder == nil {
		fmt.Fprintf(c.stderr, "Error: component %q is not installed\n", components.StaticFiles().Name)
		return 1
	}

	root := snap.Static().Root
	if *clearFirst && !*dryRun && !*noInput && !c.confirm(root) {
		fmt.Fprintln(c.stderr, "Collecting static files cancelled.")
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	res, err := staticfiles.Collect(ctx, finder, staticfiles.CollectOptions{
		Root:   root,
		Clear:  *clearFirst,
		DryRun: *dryRun,
	})
	if err != nil {
		fmt.Fprintf(c.stderr, "Error: %v\n", err)
		return 1
	}

	prefix := ""
	if *dryRun {
		prefix = "Pretend: "
	}
	fmt.Fprintf(c.stdout, "%s%d static file(s) copied to %s, %d unmodified, %d skipped, %d deleted.\n",
		prefix, len(res.Copied), root, len(res.Unmodified), len(res.Skipped), len(res.Deleted))
	return 0
}

func (c *cli) confirm(root string) bool {
	fmt.Fprintf(c.stdout, "This will DELETE ALL FILES in %s.\nType 'yes' to continue, or 'no' to cancel: ", root)
	line, err := bufio.NewReader(c.stdin).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	return strings.TrimSpace(line) == "yes"
}
