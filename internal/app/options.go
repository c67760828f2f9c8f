package app

import (
	"fmt"
	"strings"

	"github.com/nir0k/trailsync/internal/logging"
)

const defaultListen = "127.0.0.1:8080"

// Options represents user-provided CLI parameters.
type Options struct {
	ManifestPath string
	Listen       string
	LogLevel     string
	LogFile      string
	Quiet        bool
}

// Validate performs basic validation and assigns defaults where needed.
func (o *Options) Validate() error {
	o.ManifestPath = strings.TrimSpace(o.ManifestPath)
	o.Listen = strings.TrimSpace(o.Listen)
	o.LogLevel = strings.TrimSpace(o.LogLevel)
	o.LogFile = strings.TrimSpace(o.LogFile)

	if o.ManifestPath == "" {
		return fmt.Errorf("manifest path is required")
	}
	if o.Listen == "" {
		o.Listen = defaultListen
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
