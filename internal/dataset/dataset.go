// Package dataset holds the read-only trail tables: traces, images and refuges.
package dataset

import (
	"errors"
	"fmt"
	"time"

	"github.com/nir0k/trailsync/internal/geo"
)

// ErrOutOfRange signals an id or index outside table bounds.
var ErrOutOfRange = errors.New("index out of range")

// TracePoint is one sample of a trace.
type TracePoint struct {
	Lat                float64 `json:"lat"`
	Lon                float64 `json:"lon"`
	Elevation          float64 `json:"ele"`
	CumulativeDistance float64 `json:"cum_distance"`
}

// Coordinate implements geo.Locator.
func (p TracePoint) Coordinate() geo.Coordinate {
	return geo.Coordinate{Lat: p.Lat, Lon: p.Lon}
}

// Trace is an ordered GPS path for one trail variant.
type Trace struct {
	ID     int          `json:"id"`
	Name   string       `json:"name"`
	Points []TracePoint `json:"points"`
}

// Length returns the cumulative distance of the last point.
func (t Trace) Length() float64 {
	if len(t.Points) == 0 {
		return 0
	}
	return t.Points[len(t.Points)-1].CumulativeDistance
}

// Coordinate source labels for images.
const (
	SourceEXIF  = "exif"
	SourceXMP   = "xmp"
	SourceTable = "table"
	SourceTrack = "track"
)

// ImageRecord describes one photograph. Lat and Lon are meaningless unless
// IsGeolocated is set.
type ImageRecord struct {
	ID           int        `json:"id"`
	Path         string     `json:"path"`
	IsGeolocated bool       `json:"isGeolocated"`
	Lat          float64    `json:"lat"`
	Lon          float64    `json:"lon"`
	Altitude     *float64   `json:"altitude,omitempty"`
	CaptureTime  *time.Time `json:"captureTime,omitempty"`
	CameraMake   string     `json:"cameraMake,omitempty"`
	CameraModel  string     `json:"cameraModel,omitempty"`
	Width        uint32     `json:"width,omitempty"`
	Height       uint32     `json:"height,omitempty"`
	Source       string     `json:"source,omitempty"`
	// Extra keeps table columns that have no dedicated field.
	Extra map[string]any `json:"extra,omitempty"`
}

// Coordinate implements geo.Locator.
func (im ImageRecord) Coordinate() geo.Coordinate {
	return geo.Coordinate{Lat: im.Lat, Lon: im.Lon}
}

// Geolocated implements geo.Candidate.
func (im ImageRecord) Geolocated() bool {
	return im.IsGeolocated
}

// WaypointRecord is a named refuge or shelter.
type WaypointRecord struct {
	ID   int     `json:"id"`
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// Coordinate implements geo.Locator.
func (w WaypointRecord) Coordinate() geo.Coordinate {
	return geo.Coordinate{Lat: w.Lat, Lon: w.Lon}
}

// Dataset is the immutable set of tables shared by every view.
type Dataset struct {
	traces  []Trace
	images  []ImageRecord
	refuges []WaypointRecord
}

// New assembles a dataset and checks the trace invariants: ids equal
// positions and every trace has at least one point. Image and refuge ids are
// renumbered to their positions.
func New(traces []Trace, images []ImageRecord, refuges []WaypointRecord) (*Dataset, error) {
	if len(traces) == 0 {
		return nil, fmt.Errorf("dataset contains no traces")
	}
	for i, tr := range traces {
		if tr.ID != i {
			return nil, fmt.Errorf("trace %q has id %d, expected %d", tr.Name, tr.ID, i)
		}
		if len(tr.Points) == 0 {
			return nil, fmt.Errorf("trace %d (%s) has no points", tr.ID, tr.Name)
		}
	}

	ds := &Dataset{
		traces:  append([]Trace(nil), traces...),
		images:  append([]ImageRecord(nil), images...),
		refuges: append([]WaypointRecord(nil), refuges...),
	}
	for i := range ds.images {
		ds.images[i].ID = i
	}
	for i := range ds.refuges {
		ds.refuges[i].ID = i
	}
	return ds, nil
}

// Trace returns the trace with the given id.
func (d *Dataset) Trace(id int) (Trace, error) {
	if id < 0 || id >= len(d.traces) {
		return Trace{}, fmt.Errorf("trace %d: %w", id, ErrOutOfRange)
	}
	return d.traces[id], nil
}

// Image returns the image record with the given id.
func (d *Dataset) Image(id int) (ImageRecord, error) {
	if id < 0 || id >= len(d.images) {
		return ImageRecord{}, fmt.Errorf("image %d: %w", id, ErrOutOfRange)
	}
	return d.images[id], nil
}

// Refuge returns the waypoint with the given id.
func (d *Dataset) Refuge(id int) (WaypointRecord, error) {
	if id < 0 || id >= len(d.refuges) {
		return WaypointRecord{}, fmt.Errorf("refuge %d: %w", id, ErrOutOfRange)
	}
	return d.refuges[id], nil
}

// Traces returns every trace ordered by id. Callers must not modify it.
func (d *Dataset) Traces() []Trace { return d.traces }

// Images returns every image record. Callers must not modify it.
func (d *Dataset) Images() []ImageRecord { return d.images }

// Refuges returns every waypoint. Callers must not modify it.
func (d *Dataset) Refuges() []WaypointRecord { return d.refuges }

// NearestImage returns the id of the image closest to c, preferring
// geolocated records. It returns -1 when there are no images.
func (d *Dataset) NearestImage(c geo.Coordinate) int {
	return geo.NearestCandidateIndex(c, d.images)
}
