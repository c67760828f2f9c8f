// Package app wires the dataset, the cursor store and the HTTP server.
package app

import (
	"context"
	"io"
	"os"

	"github.com/nir0k/trailsync/internal/cursor"
	"github.com/nir0k/trailsync/internal/dataset"
	"github.com/nir0k/trailsync/internal/logging"
	"github.com/nir0k/trailsync/internal/server"
)

// Run loads the manifest and serves the API until ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	if err := opts.Validate(); err != nil {
		return err
	}

	var console io.Writer = os.Stderr
	if opts.Quiet {
		console = nil
	}
	log, err := logging.New(logging.Config{
		FilePath: opts.LogFile,
		Level:    opts.LogLevel,
		Console:  console,
	})
	if err != nil {
		return err
	}

	log.Infof("Starting trailsync with manifest=%s listen=%s", opts.ManifestPath, opts.Listen)

	store, err := NewStore(ctx, opts.ManifestPath, log)
	if err != nil {
		log.Errorf("Dataset load failed: %v", err)
		return err
	}

	return server.New(store, log).ListenAndServe(ctx, opts.Listen)
}

// NewStore loads the dataset described by the manifest and returns a store
// positioned at the initial state.
func NewStore(ctx context.Context, manifestPath string, log logging.Logger) (*cursor.Store, error) {
	ds, vp, err := dataset.Load(ctx, manifestPath, log)
	if err != nil {
		return nil, err
	}
	return cursor.NewStore(ds, cursor.Initial(vp), log), nil
}
