package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/nir0k/trailsync/internal/geo"
)

// Default viewport used when the manifest omits one.
var DefaultViewport = Viewport{
	Center: geo.Coordinate{Lat: 42.46, Lon: 8.906},
	Zoom:   10,
}

// Viewport is the initial map framing.
type Viewport struct {
	Center geo.Coordinate `json:"center"`
	Zoom   int            `json:"zoom"`
}

// Manifest lists the sources of a dataset.
type Manifest struct {
	Traces   []TraceSource   `yaml:"traces" validate:"required,min=1,dive"`
	Images   *ImageSource    `yaml:"images" validate:"omitempty"`
	Refuges  *RefugeSource   `yaml:"refuges" validate:"omitempty"`
	Viewport *ViewportConfig `yaml:"viewport" validate:"omitempty"`

	// dir is the directory relative paths resolve against.
	dir string
}

// TraceSource is either a GPX file (one trace per track) or a JSON trace table.
type TraceSource struct {
	Name string `yaml:"name"`
	GPX  string `yaml:"gpx" validate:"required_without=JSON,excluded_with=JSON"`
	JSON string `yaml:"json" validate:"required_without=GPX,excluded_with=GPX"`
}

// ImageSource configures the photo carousel.
type ImageSource struct {
	Input      string        `yaml:"input" validate:"excluded_with=JSON"`
	Recursive  bool          `yaml:"recursive"`
	JSON       string        `yaml:"json" validate:"excluded_with=Input"`
	Geotag     bool          `yaml:"geotag"`
	TimeOffset time.Duration `yaml:"timeOffset"`
	AutoOffset *bool         `yaml:"autoOffset"`
}

// RefugeSource is either GPX waypoints or a JSON refuge table.
type RefugeSource struct {
	GPX  string `yaml:"gpx" validate:"required_without=JSON,excluded_with=JSON"`
	JSON string `yaml:"json" validate:"required_without=GPX,excluded_with=GPX"`
}

// ViewportConfig is the manifest form of Viewport.
type ViewportConfig struct {
	Lat  float64 `yaml:"lat" validate:"gte=-90,lte=90"`
	Lon  float64 `yaml:"lon" validate:"gte=-180,lte=180"`
	Zoom int     `yaml:"zoom" validate:"gte=0,lte=22"`
}

// ReadManifest loads and validates a YAML manifest.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	m, err := ParseManifest(data)
	if err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	abs, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("resolve manifest dir: %w", err)
	}
	m.dir = abs
	return m, nil
}

// ParseManifest decodes and validates manifest bytes. Relative paths resolve
// against the working directory.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if err := validator.New().Struct(m); err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}
	return &m, nil
}

// InitialViewport returns the configured viewport or DefaultViewport.
func (m *Manifest) InitialViewport() Viewport {
	if m.Viewport == nil {
		return DefaultViewport
	}
	return Viewport{
		Center: geo.Coordinate{Lat: m.Viewport.Lat, Lon: m.Viewport.Lon},
		Zoom:   m.Viewport.Zoom,
	}
}

// Resolve turns a manifest path into an absolute one. Inputs may be
// ';'-separated lists, each element is resolved.
func (m *Manifest) Resolve(p string) string {
	p = strings.TrimSpace(p)
	if p == "" || m.dir == "" {
		return p
	}
	if strings.Contains(p, ";") {
		parts := strings.Split(p, ";")
		for i, part := range parts {
			parts[i] = m.Resolve(part)
		}
		return strings.Join(parts, ";")
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(m.dir, p)
}

func (s *ImageSource) autoOffset() bool {
	return s.AutoOffset == nil || *s.AutoOffset
}
