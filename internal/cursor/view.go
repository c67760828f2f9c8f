package cursor

import (
	"github.com/nir0k/trailsync/internal/dataset"
	"github.com/nir0k/trailsync/internal/geo"
)

// View is what the rendering layer draws for a state.
type View struct {
	State     State                `json:"state"`
	TraceName string               `json:"traceName"`
	Marker    dataset.TracePoint   `json:"marker"`
	Image     *dataset.ImageRecord `json:"image"`
	// OffsetKM is the geodesic distance from the viewport center to the marker.
	OffsetKM float64 `json:"offsetKm"`
}

// BuildView resolves the marker point and active image of s.
func BuildView(ds *dataset.Dataset, s State) (View, error) {
	tr, err := ds.Trace(s.ActiveTraceID)
	if err != nil {
		return View{}, err
	}
	if s.ProjectedIndex < 0 || s.ProjectedIndex >= len(tr.Points) {
		return View{}, errOutOfRangePoint(s.ProjectedIndex, tr.ID)
	}

	v := View{
		State:     s,
		TraceName: tr.Name,
		Marker:    tr.Points[s.ProjectedIndex],
	}
	if s.ActiveImageID != NoImage {
		im, err := ds.Image(s.ActiveImageID)
		if err != nil {
			return View{}, err
		}
		v.Image = &im
	}
	v.OffsetKM = geo.GeodesicDistance(s.ViewportCenter, v.Marker.Coordinate())
	return v, nil
}
