package main

import (
	"context"
	"fmt"
	"os"

	"github.com/nir0k/trailsync/internal/project"
	"github.com/spf13/pflag"
)

func main() {
	var opts project.Options

	pflag.StringVarP(&opts.ManifestPath, "manifest", "m", "", "Path to the dataset manifest (YAML)")
	pflag.Float64Var(&opts.Lat, "lat", 0, "Latitude to project onto the trace")
	pflag.Float64Var(&opts.Lon, "lon", 0, "Longitude to project onto the trace")
	pflag.IntVarP(&opts.TraceID, "trace", "t", 0, "Trace id to project onto")
	pflag.StringVarP(&opts.EventsPath, "events", "e", "", "JSON array of events to replay instead of a single point")
	pflag.StringVarP(&opts.LogLevel, "log-level", "l", "info", "Logging level for the log file")
	pflag.StringVar(&opts.LogFile, "log-file", "", "Optional log file path (defaults to a file next to the binary)")

	pflag.Parse()
	opts.HasPoint = pflag.CommandLine.Changed("lat") || pflag.CommandLine.Changed("lon")

	if err := project.Run(context.Background(), opts, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "trailsync-project failed: %v\n", err)
		os.Exit(1)
	}
}
