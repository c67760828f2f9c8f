// Package geotag places photos without GPS on a timestamped track by capture time.
package geotag

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/nir0k/trailsync/internal/gpx"
)

const maxAutoOffset = 12 * time.Hour

// Photo is a capture moment to resolve.
type Photo struct {
	Path        string
	CaptureTime time.Time
}

// Result reports the outcome of a geotagging pass.
type Result struct {
	Fixes      map[string]gpx.Fix
	OutOfTrack int
}

// Resolve computes a position for every photo whose capture time, shifted by
// offset, falls inside the timeline. Photos without capture time are skipped.
func Resolve(tl *gpx.Timeline, photos []Photo, offset time.Duration) (Result, error) {
	res := Result{Fixes: make(map[string]gpx.Fix)}

	for _, p := range photos {
		if p.CaptureTime.IsZero() {
			continue
		}
		capture := p.CaptureTime.Add(offset).UTC()
		fix, err := tl.FixAt(capture)
		if errors.Is(err, gpx.ErrTimestampOutOfBounds) {
			res.OutOfTrack++
			continue
		}
		if err != nil {
			return res, fmt.Errorf("resolve %s: %w", p.Path, err)
		}
		res.Fixes[p.Path] = fix
	}
	return res, nil
}

// DetectOffset estimates the camera clock offset as the median gap between
// each capture time and the nearest track point, ignoring gaps over 12h.
func DetectOffset(tl *gpx.Timeline, photos []Photo) (time.Duration, int, error) {
	var diffs []time.Duration

	for _, p := range photos {
		if p.CaptureTime.IsZero() {
			continue
		}
		diff := tl.NearestTime(p.CaptureTime).Sub(p.CaptureTime.UTC())
		if absDuration(diff) > maxAutoOffset {
			continue
		}
		diffs = append(diffs, diff)
	}

	if len(diffs) == 0 {
		return 0, 0, fmt.Errorf("unable to detect offset: no usable samples within %s window", maxAutoOffset)
	}

	sort.Slice(diffs, func(i, j int) bool {
		return diffs[i] < diffs[j]
	})

	mid := len(diffs) / 2
	if len(diffs)%2 == 0 {
		return (diffs[mid-1] + diffs[mid]) / 2, len(diffs), nil
	}
	return diffs[mid], len(diffs), nil
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
