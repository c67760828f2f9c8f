package project

import (
	"fmt"
	"strings"

	"github.com/nir0k/trailsync/internal/logging"
)

// Options represents user-provided parameters for a one-shot projection.
type Options struct {
	ManifestPath string
	// Point mode: project Lat/Lon on trace TraceID.
	Lat      float64
	Lon      float64
	HasPoint bool
	TraceID  int
	// Replay mode: apply the JSON event array stored at EventsPath.
	EventsPath string
	LogLevel   string
	LogFile    string
}

// Validate performs basic validation and assigns defaults where needed.
func (o *Options) Validate() error {
	o.ManifestPath = strings.TrimSpace(o.ManifestPath)
	o.EventsPath = strings.TrimSpace(o.EventsPath)
	o.LogLevel = strings.TrimSpace(o.LogLevel)
	o.LogFile = strings.TrimSpace(o.LogFile)

	if o.ManifestPath == "" {
		return fmt.Errorf("manifest path is required")
	}
	switch {
	case o.HasPoint && o.EventsPath != "":
		return fmt.Errorf("use either --lat/--lon or --events, not both")
	case !o.HasPoint && o.EventsPath == "":
		return fmt.Errorf("either --lat/--lon or --events is required")
	}
	if o.HasPoint {
		if o.Lat < -90 || o.Lat > 90 {
			return fmt.Errorf("latitude %v out of range", o.Lat)
		}
		if o.Lon < -180 || o.Lon > 180 {
			return fmt.Errorf("longitude %v out of range", o.Lon)
		}
	}
	if o.TraceID < 0 {
		return fmt.Errorf("trace id must not be negative")
	}
	if o.LogLevel == "" {
		o.LogLevel = "info"
	}
	if o.LogFile == "" {
		defaultPath, err := logging.DefaultPath()
		if err != nil {
			return err
		}
		o.LogFile = defaultPath
	}
	return nil
}
