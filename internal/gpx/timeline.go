package gpx

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/nir0k/trailsync/internal/geo"
)

// ErrTimestampOutOfBounds signals that the requested time is outside track coverage.
var ErrTimestampOutOfBounds = errors.New("timestamp outside GPX track bounds")

// ErrNoTimestamps is returned when no track point carries a time.
var ErrNoTimestamps = errors.New("gpx tracks carry no timestamps")

// Fix is a position resolved for a moment in time.
type Fix struct {
	Coordinate geo.Coordinate
	Elevation  *float64
}

// Timeline keeps timestamped track points sorted by time for photo geotagging.
type Timeline struct {
	points []Point
}

// NewTimeline indexes every timestamped point of the given tracks.
func NewTimeline(tracks ...Track) (*Timeline, error) {
	var collected []Point
	for _, tr := range tracks {
		for _, pt := range tr.Points {
			if pt.Time.IsZero() {
				continue
			}
			collected = append(collected, pt)
		}
	}
	if len(collected) == 0 {
		return nil, ErrNoTimestamps
	}

	sort.SliceStable(collected, func(i, j int) bool {
		return collected[i].Time.Before(collected[j].Time)
	})
	return &Timeline{points: collected}, nil
}

// FixAt returns an interpolated position for the provided timestamp.
func (tl *Timeline) FixAt(ts time.Time) (Fix, error) {
	target := ts.UTC()
	first, last := tl.points[0], tl.points[len(tl.points)-1]

	if target.Before(first.Time) || target.After(last.Time) {
		return Fix{}, fmt.Errorf("%w: %s", ErrTimestampOutOfBounds, target.Format(time.RFC3339))
	}

	idx := sort.Search(len(tl.points), func(i int) bool {
		return !tl.points[i].Time.Before(target)
	})
	if idx == 0 || tl.points[idx].Time.Equal(target) {
		return fixOf(tl.points[idx]), nil
	}

	prev := tl.points[idx-1]
	next := tl.points[idx]

	total := next.Time.Sub(prev.Time).Seconds()
	if total <= 0 {
		return fixOf(prev), nil
	}

	progress := target.Sub(prev.Time).Seconds() / total
	fix := Fix{
		Coordinate: geo.Coordinate{
			Lat: prev.Coordinate.Lat + progress*(next.Coordinate.Lat-prev.Coordinate.Lat),
			Lon: prev.Coordinate.Lon + progress*(next.Coordinate.Lon-prev.Coordinate.Lon),
		},
	}

	switch {
	case prev.Elevation != nil && next.Elevation != nil:
		v := *prev.Elevation + progress*(*next.Elevation-*prev.Elevation)
		fix.Elevation = &v
	case prev.Elevation != nil:
		v := *prev.Elevation
		fix.Elevation = &v
	case next.Elevation != nil:
		v := *next.Elevation
		fix.Elevation = &v
	}
	return fix, nil
}

// NearestTime returns the timestamp of the track point closest in time to ts,
// clamped to the track bounds.
func (tl *Timeline) NearestTime(ts time.Time) time.Time {
	target := ts.UTC()
	first, last := tl.points[0], tl.points[len(tl.points)-1]

	if !target.After(first.Time) {
		return first.Time
	}
	if !target.Before(last.Time) {
		return last.Time
	}

	idx := sort.Search(len(tl.points), func(i int) bool {
		return !tl.points[i].Time.Before(target)
	})
	prev := tl.points[idx-1]
	next := tl.points[idx]
	if target.Sub(prev.Time) <= next.Time.Sub(target) {
		return prev.Time
	}
	return next.Time
}

// Bounds returns the first and last timestamps.
func (tl *Timeline) Bounds() (time.Time, time.Time) {
	return tl.points[0].Time, tl.points[len(tl.points)-1].Time
}

// PointCount returns the number of indexed points.
func (tl *Timeline) PointCount() int {
	return len(tl.points)
}

func fixOf(pt Point) Fix {
	return Fix{Coordinate: pt.Coordinate, Elevation: pt.Elevation}
}
