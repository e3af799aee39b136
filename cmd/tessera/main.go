// Package main is the entry point for the tessera terminal demo.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dshills/tessera/internal/app"
	"github.com/dshills/tessera/internal/renderer/backend"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

type cliOptions struct {
	app.Options
	dump    bool
	clicks  int
	version bool
}

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()

	if opts.version {
		fmt.Printf("tessera %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		return 0
	}

	if opts.dump {
		if err := app.Dump(os.Stdout, opts.clicks); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	application, err := app.New(opts.Options)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer application.Shutdown()

	term, err := backend.NewTerminal()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to create terminal: %v\n", err)
		return 1
	}
	application.SetSurface(term)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := application.Run(ctx); err != nil {
		if errors.Is(err, app.ErrQuit) || errors.Is(err, context.Canceled) {
			return 0
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	return 0
}

func parseFlags() cliOptions {
	var opts cliOptions

	flag.StringVar(&opts.ConfigPath, "config", "", "Path to configuration file")
	flag.StringVar(&opts.ConfigPath, "c", "", "Path to configuration file (shorthand)")
	flag.StringVar(&opts.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flag.StringVar(&opts.LogFile, "log-file", "", "Write logs to this file")
	flag.BoolVar(&opts.dump, "dump", false, "Render the demo off-screen and print the node tree as YAML")
	flag.IntVar(&opts.clicks, "clicks", 0, "Counter clicks to simulate before -dump")
	flag.BoolVar(&opts.version, "version", false, "Show version information")
	flag.BoolVar(&opts.version, "v", false, "Show version information (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "tessera - incremental fiber renderer demo\n\n")
		fmt.Fprintf(os.Stderr, "Usage: tessera [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  tessera                        Run the demo in the terminal\n")
		fmt.Fprintf(os.Stderr, "  tessera -c tessera.toml        Run with a config file (reloaded on change)\n")
		fmt.Fprintf(os.Stderr, "  tessera -dump -clicks 2        Print the tree after two clicks\n")
	}

	flag.Parse()
	return opts
}
