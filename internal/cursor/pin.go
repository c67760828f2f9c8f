package cursor

import (
	"errors"
	"fmt"

	"github.com/nir0k/trailsync/internal/xmp"
)

// ErrNoActiveImage is returned by PinActiveImage when no photo is selected.
var ErrNoActiveImage = errors.New("no active image")

// PinResult describes a written sidecar.
type PinResult struct {
	ImageID  int          `json:"imageId"`
	Path     string       `json:"path"`
	Sidecar  string       `json:"sidecar"`
	Position xmp.Position `json:"position"`
}

// PinActiveImage writes the projected trace point into the XMP sidecar of the
// active photo. A sidecar that already holds GPS yields
// xmp.ErrGPSAlreadyPresent unless overwrite is set. The loaded dataset is not
// changed; the new coordinates apply on the next load.
func (s *Store) PinActiveImage(overwrite bool) (PinResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state
	if st.ActiveImageID == NoImage {
		return PinResult{}, ErrNoActiveImage
	}
	im, err := s.ds.Image(st.ActiveImageID)
	if err != nil {
		return PinResult{}, err
	}
	tr, err := s.ds.Trace(st.ActiveTraceID)
	if err != nil {
		return PinResult{}, err
	}
	if st.ProjectedIndex < 0 || st.ProjectedIndex >= len(tr.Points) {
		return PinResult{}, errOutOfRangePoint(st.ProjectedIndex, tr.ID)
	}

	pt := tr.Points[st.ProjectedIndex]
	pos := xmp.At(pt, pt.Elevation)

	ts := s.now()
	if im.CaptureTime != nil {
		ts = *im.CaptureTime
	}

	sidecar := xmp.SidecarPath(im.Path)
	if err := xmp.WriteGPS(sidecar, pos, ts, overwrite); err != nil {
		if errors.Is(err, xmp.ErrGPSAlreadyPresent) {
			s.log.Warningf("GPS already present in %s, not overwriting", sidecar)
		}
		return PinResult{}, fmt.Errorf("pin %s: %w", im.Path, err)
	}
	s.log.Infof("Pinned %s to trace %d point %d (%.6f, %.6f)", im.Path, tr.ID, st.ProjectedIndex, pos.Coordinate.Lat, pos.Coordinate.Lon)

	return PinResult{
		ImageID:  im.ID,
		Path:     im.Path,
		Sidecar:  sidecar,
		Position: pos,
	}, nil
}
