package cursor

import (
	"fmt"

	"github.com/nir0k/trailsync/internal/dataset"
	"github.com/nir0k/trailsync/internal/geo"
)

// Apply returns the state that follows s after ev. It does not mutate s;
// on error the returned state is s unchanged.
func Apply(ds *dataset.Dataset, s State, ev Event) (State, error) {
	switch e := ev.(type) {
	case TraceSelected:
		tr, err := ds.Trace(e.TraceID)
		if err != nil {
			return s, err
		}
		next := s
		next.ActiveTraceID = e.TraceID
		next.ProjectedIndex = geo.NearestIndex(s.ViewportCenter, tr.Points)
		return next, nil

	case MapClicked:
		return focus(ds, s, geo.Coordinate{Lat: e.Lat, Lon: e.Lon})

	case PlotClicked:
		tr, err := ds.Trace(s.ActiveTraceID)
		if err != nil {
			return s, err
		}
		if e.PointIndex < 0 || e.PointIndex >= len(tr.Points) {
			return s, errOutOfRangePoint(e.PointIndex, tr.ID)
		}
		pt := tr.Points[e.PointIndex].Coordinate()
		next := s
		next.ProjectedIndex = e.PointIndex
		next.ActiveImageID = ds.NearestImage(pt)
		next.ViewportCenter = pt
		return next, nil

	case ImageSelected:
		im, err := ds.Image(e.ImageID)
		if err != nil {
			return s, err
		}
		next := s
		next.ActiveImageID = e.ImageID
		if !im.IsGeolocated {
			// projection and viewport stay where they were
			return next, nil
		}
		tr, err := ds.Trace(s.ActiveTraceID)
		if err != nil {
			return s, err
		}
		next.ProjectedIndex = geo.NearestIndex(im.Coordinate(), tr.Points)
		next.ViewportCenter = im.Coordinate()
		return next, nil

	case RefugeClicked:
		r, err := ds.Refuge(e.RefugeID)
		if err != nil {
			return s, err
		}
		return focus(ds, s, r.Coordinate())

	case LayerToggled:
		next := s
		switch e.Layer {
		case LayerImages:
			next.Layers.Images = e.Visible
		case LayerCurrentImage:
			next.Layers.CurrentImage = e.Visible
		case LayerRefuges:
			next.Layers.Refuges = e.Visible
		default:
			return s, fmt.Errorf("%w: layer %q", ErrInvalidEvent, e.Layer)
		}
		return next, nil

	case ViewportZoomed:
		next := s
		next.Zoom = e.Zoom
		return next, nil
	}
	return s, fmt.Errorf("%w: %T", ErrUnknownEvent, ev)
}

// focus moves every view to c: viewport, projected point and nearest photo.
func focus(ds *dataset.Dataset, s State, c geo.Coordinate) (State, error) {
	tr, err := ds.Trace(s.ActiveTraceID)
	if err != nil {
		return s, err
	}
	next := s
	next.ViewportCenter = c
	next.ProjectedIndex = geo.NearestIndex(c, tr.Points)
	next.ActiveImageID = ds.NearestImage(c)
	return next, nil
}

func errOutOfRangePoint(idx, traceID int) error {
	return fmt.Errorf("point %d of trace %d: %w", idx, traceID, dataset.ErrOutOfRange)
}
