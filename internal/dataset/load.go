package dataset

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/nir0k/trailsync/internal/geotag"
	"github.com/nir0k/trailsync/internal/gpx"
	"github.com/nir0k/trailsync/internal/logging"
	"github.com/nir0k/trailsync/internal/media"
	"github.com/nir0k/trailsync/internal/xmp"
)

// Load reads the manifest at path and builds the dataset it describes. Any
// source error aborts the load.
func Load(ctx context.Context, path string, log logging.Logger) (*Dataset, Viewport, error) {
	m, err := ReadManifest(path)
	if err != nil {
		return nil, Viewport{}, err
	}
	ds, err := LoadManifest(ctx, m, log)
	if err != nil {
		return nil, Viewport{}, err
	}
	return ds, m.InitialViewport(), nil
}

// LoadManifest builds a dataset from an already parsed manifest.
func LoadManifest(ctx context.Context, m *Manifest, log logging.Logger) (*Dataset, error) {
	if log == nil {
		log = logging.Nop()
	}

	traces, tracks, err := loadTraces(m)
	if err != nil {
		return nil, err
	}
	for _, tr := range traces {
		log.Infof("Trace %d %q loaded with %d points (%.2f km)", tr.ID, tr.Name, len(tr.Points), tr.Length())
	}

	var images []ImageRecord
	if m.Images != nil {
		images, err = loadImages(ctx, m, tracks, log)
		if err != nil {
			return nil, err
		}
	}

	var refuges []WaypointRecord
	if m.Refuges != nil {
		refuges, err = loadRefuges(m)
		if err != nil {
			return nil, err
		}
	}

	ds, err := New(traces, images, refuges)
	if err != nil {
		return nil, err
	}
	log.Infof("Dataset ready: %d traces, %d images, %d refuges", len(ds.traces), len(ds.images), len(ds.refuges))
	return ds, nil
}

// loadTraces returns the traces in manifest order along with the raw GPX
// tracks, which keep their timestamps for geotagging.
func loadTraces(m *Manifest) ([]Trace, []gpx.Track, error) {
	var (
		traces []Trace
		tracks []gpx.Track
	)

	for _, src := range m.Traces {
		if src.JSON != "" {
			table, err := ReadTraceTable(m.Resolve(src.JSON))
			if err != nil {
				return nil, nil, err
			}
			// index_trace is kept as written; New rejects gaps.
			traces = append(traces, table...)
			continue
		}

		doc, err := gpx.LoadFile(m.Resolve(src.GPX))
		if err != nil {
			return nil, nil, err
		}
		if len(doc.Tracks) == 0 {
			return nil, nil, fmt.Errorf("gpx %s contains no tracks", src.GPX)
		}
		for _, track := range doc.Tracks {
			name := track.Name
			switch {
			case src.Name != "" && len(doc.Tracks) == 1:
				name = src.Name
			case src.Name != "":
				name = src.Name + " / " + track.Name
			}
			traces = append(traces, traceFromGPX(len(traces), name, track))
			tracks = append(tracks, track)
		}
	}
	return traces, tracks, nil
}

func traceFromGPX(id int, name string, track gpx.Track) Trace {
	cum := gpx.CumulativeKM(track.Points)
	points := make([]TracePoint, len(track.Points))
	for i, pt := range track.Points {
		points[i] = TracePoint{
			Lat:                pt.Coordinate.Lat,
			Lon:                pt.Coordinate.Lon,
			CumulativeDistance: cum[i],
		}
		if pt.Elevation != nil {
			points[i].Elevation = *pt.Elevation
		}
	}
	return Trace{ID: id, Name: name, Points: points}
}

func loadImages(ctx context.Context, m *Manifest, tracks []gpx.Track, log logging.Logger) ([]ImageRecord, error) {
	src := m.Images
	if src.JSON != "" {
		return ReadImageTable(m.Resolve(src.JSON))
	}
	if src.Input == "" {
		return nil, nil
	}

	files, err := media.CollectPhotos(m.Resolve(src.Input), src.Recursive)
	if err != nil {
		return nil, err
	}

	images := make([]ImageRecord, 0, len(files))
	for _, path := range files {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		images = append(images, readImage(path, log))
	}

	if src.Geotag {
		geotagImages(images, tracks, src, log)
	}

	sort.SliceStable(images, func(i, j int) bool {
		a, b := images[i].CaptureTime, images[j].CaptureTime
		switch {
		case a == nil && b == nil:
			return images[i].Path < images[j].Path
		case a == nil:
			return false
		case b == nil:
			return true
		case !a.Equal(*b):
			return a.Before(*b)
		}
		return images[i].Path < images[j].Path
	})
	return images, nil
}

// readImage never fails: unreadable photos stay in the carousel without
// coordinates.
func readImage(path string, log logging.Logger) ImageRecord {
	rec := ImageRecord{Path: path}

	meta, err := media.ReadMetadata(path)
	if err != nil {
		log.Warningf("Failed to read metadata for %s: %v", path, err)
	} else {
		rec.CameraMake = meta.CameraMake
		rec.CameraModel = meta.CameraModel
		rec.Width = meta.Width
		rec.Height = meta.Height
		if !meta.CaptureTime.IsZero() {
			ts := meta.CaptureTime
			rec.CaptureTime = &ts
		}
		if meta.Location != nil {
			rec.IsGeolocated = true
			rec.Lat = meta.Location.Coordinate.Lat
			rec.Lon = meta.Location.Coordinate.Lon
			rec.Altitude = meta.Location.Altitude
			rec.Source = SourceEXIF
			return rec
		}
	}

	pos, ok, err := xmp.ReadGPS(xmp.SidecarPath(path))
	if err != nil {
		log.Warningf("Failed to read sidecar for %s: %v", path, err)
		return rec
	}
	if ok {
		rec.IsGeolocated = true
		rec.Lat = pos.Coordinate.Lat
		rec.Lon = pos.Coordinate.Lon
		rec.Altitude = pos.Altitude
		rec.Source = SourceXMP
	}
	return rec
}

// geotagImages places photos that still lack coordinates on the timestamped
// GPX tracks.
func geotagImages(images []ImageRecord, tracks []gpx.Track, src *ImageSource, log logging.Logger) {
	tl, err := gpx.NewTimeline(tracks...)
	if errors.Is(err, gpx.ErrNoTimestamps) {
		log.Warningf("Geotagging skipped: traces carry no timestamps")
		return
	}
	if err != nil {
		log.Warningf("Geotagging skipped: %v", err)
		return
	}

	var pending []geotag.Photo
	for _, im := range images {
		if im.IsGeolocated || im.CaptureTime == nil {
			continue
		}
		pending = append(pending, geotag.Photo{Path: im.Path, CaptureTime: *im.CaptureTime})
	}
	if len(pending) == 0 {
		return
	}

	offset := src.TimeOffset
	if offset == 0 && src.autoOffset() {
		detected, samples, err := geotag.DetectOffset(tl, pending)
		if err != nil {
			log.Warningf("Auto offset detection failed, using 0s: %v", err)
		} else {
			offset = detected
			log.Infof("Auto-detected time offset: %s using %d samples", offset, samples)
		}
	}

	res, err := geotag.Resolve(tl, pending, offset)
	if err != nil {
		log.Errorf("Geotagging failed: %v", err)
		return
	}

	for i := range images {
		fix, ok := res.Fixes[images[i].Path]
		if !ok {
			continue
		}
		images[i].IsGeolocated = true
		images[i].Lat = fix.Coordinate.Lat
		images[i].Lon = fix.Coordinate.Lon
		images[i].Altitude = fix.Elevation
		images[i].Source = SourceTrack
	}
	start, end := tl.Bounds()
	log.Infof("Geotagged %d photos from %d track points (%s .. %s), %d outside coverage",
		len(res.Fixes), tl.PointCount(), start.Format(time.RFC3339), end.Format(time.RFC3339), res.OutOfTrack)
}

func loadRefuges(m *Manifest) ([]WaypointRecord, error) {
	if m.Refuges.JSON != "" {
		return ReadRefugeTable(m.Resolve(m.Refuges.JSON))
	}

	doc, err := gpx.LoadFile(m.Resolve(m.Refuges.GPX))
	if err != nil {
		return nil, err
	}
	refuges := make([]WaypointRecord, 0, len(doc.Waypoints))
	for i, wpt := range doc.Waypoints {
		name := wpt.Name
		if name == "" {
			name = fmt.Sprintf("refuge %d", i+1)
		}
		refuges = append(refuges, WaypointRecord{
			ID:   i,
			Name: name,
			Lat:  wpt.Coordinate.Lat,
			Lon:  wpt.Coordinate.Lon,
		})
	}
	return refuges, nil
}
