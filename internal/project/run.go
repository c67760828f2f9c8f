// Package project runs the cursor controller without a server: it projects a
// single coordinate or replays an event script and prints the final view.
package project

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/nir0k/trailsync/internal/app"
	"github.com/nir0k/trailsync/internal/cursor"
	"github.com/nir0k/trailsync/internal/logging"
)

// Run executes the projection described by opts and writes the resulting
// view as indented JSON to out.
func Run(ctx context.Context, opts Options, out io.Writer) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	log, err := logging.New(logging.Config{FilePath: opts.LogFile, Level: opts.LogLevel})
	if err != nil {
		return err
	}
	return run(ctx, opts, log, out)
}

func run(ctx context.Context, opts Options, log logging.Logger, out io.Writer) error {
	store, err := app.NewStore(ctx, opts.ManifestPath, log)
	if err != nil {
		return err
	}

	events, err := eventsFor(opts)
	if err != nil {
		return err
	}
	log.Infof("Replaying %d events", len(events))

	for i, ev := range events {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if _, err := store.Dispatch(ev); err != nil {
			return fmt.Errorf("event %d (%s): %w", i, ev.Type(), err)
		}
	}

	view, err := cursor.BuildView(store.Dataset(), store.Snapshot())
	if err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(view)
}

func eventsFor(opts Options) ([]cursor.Event, error) {
	if opts.EventsPath == "" {
		var events []cursor.Event
		if opts.TraceID != 0 {
			events = append(events, cursor.TraceSelected{TraceID: opts.TraceID})
		}
		return append(events, cursor.MapClicked{Lat: opts.Lat, Lon: opts.Lon}), nil
	}

	data, err := os.ReadFile(opts.EventsPath)
	if err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}
	events, err := cursor.DecodeEvents(data)
	if err != nil {
		return nil, fmt.Errorf("events %s: %w", opts.EventsPath, err)
	}
	return events, nil
}
