package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nir0k/trailsync/internal/app"
	"github.com/spf13/pflag"
)

func main() {
	var opts app.Options

	pflag.StringVarP(&opts.ManifestPath, "manifest", "m", "", "Path to the dataset manifest (YAML)")
	pflag.StringVar(&opts.Listen, "listen", "127.0.0.1:8080", "Address the HTTP API listens on")
	pflag.StringVarP(&opts.LogLevel, "log-level", "l", "info", "Logging level for both file and console outputs")
	pflag.StringVar(&opts.LogFile, "log-file", "", "Optional log file path (defaults to a file next to the binary)")
	pflag.BoolVarP(&opts.Quiet, "quiet", "q", false, "Log to the file only")

	pflag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "trailsync failed: %v\n", err)
		os.Exit(1)
	}
}
