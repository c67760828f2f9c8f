package gpx

import (
	"fmt"
	"strings"
	"time"

	gogpx "github.com/tkrajina/gpxgo/gpx"

	"github.com/nir0k/trailsync/internal/geo"
)

// Point is a single track sample.
type Point struct {
	Coordinate geo.Coordinate
	Elevation  *float64
	Time       time.Time
}

// Track is one <trk> with its segments concatenated in document order.
type Track struct {
	Name   string
	Points []Point
}

// Waypoint is a named <wpt>.
type Waypoint struct {
	Name       string
	Coordinate geo.Coordinate
	Elevation  *float64
}

// Document is the subset of a GPX file used for trail datasets.
type Document struct {
	Tracks    []Track
	Waypoints []Waypoint
}

// LoadFile parses a GPX file into tracks and waypoints.
func LoadFile(path string) (*Document, error) {
	parsed, err := gogpx.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("parse gpx %s: %w", path, err)
	}
	return fromGPX(parsed), nil
}

// Parse decodes GPX bytes into tracks and waypoints.
func Parse(data []byte) (*Document, error) {
	parsed, err := gogpx.ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("parse gpx: %w", err)
	}
	return fromGPX(parsed), nil
}

func fromGPX(doc *gogpx.GPX) *Document {
	out := &Document{}

	for i, track := range doc.Tracks {
		name := strings.TrimSpace(track.Name)
		if name == "" {
			name = fmt.Sprintf("track %d", i+1)
		}
		t := Track{Name: name}
		for _, segment := range track.Segments {
			for _, pt := range segment.Points {
				t.Points = append(t.Points, Point{
					Coordinate: geo.Coordinate{Lat: pt.GetLatitude(), Lon: pt.GetLongitude()},
					Elevation:  elevation(pt.GetElevation()),
					Time:       pt.Timestamp.UTC(),
				})
			}
		}
		out.Tracks = append(out.Tracks, t)
	}

	for _, wpt := range doc.Waypoints {
		out.Waypoints = append(out.Waypoints, Waypoint{
			Name:       strings.TrimSpace(wpt.Name),
			Coordinate: geo.Coordinate{Lat: wpt.GetLatitude(), Lon: wpt.GetLongitude()},
			Elevation:  elevation(wpt.GetElevation()),
		})
	}

	return out
}

func elevation(ele gogpx.NullableFloat64) *float64 {
	if !ele.NotNull() {
		return nil
	}
	val := ele.Value()
	return &val
}

// CumulativeKM returns the running haversine distance in kilometers at each
// point, starting at zero.
func CumulativeKM(points []Point) []float64 {
	out := make([]float64, len(points))
	for i := 1; i < len(points); i++ {
		prev, cur := points[i-1].Coordinate, points[i].Coordinate
		meters := gogpx.Distance2D(prev.Lat, prev.Lon, cur.Lat, cur.Lon, true)
		out[i] = out[i-1] + meters/1000
	}
	return out
}
