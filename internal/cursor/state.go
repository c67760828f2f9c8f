// Package cursor keeps the shared position cursor that every trail view
// follows: the active trace, the projected point on it, the active photo and
// the map viewport.
package cursor

import (
	"github.com/nir0k/trailsync/internal/dataset"
	"github.com/nir0k/trailsync/internal/geo"
)

// NoImage marks an unset ActiveImageID.
const NoImage = -1

// Layer names a visibility toggle.
type Layer string

const (
	LayerImages       Layer = "images"
	LayerCurrentImage Layer = "current_image"
	LayerRefuges      Layer = "refuges"
)

// Layers holds the visibility flags consumed by the rendering layer.
type Layers struct {
	Images       bool `json:"images"`
	CurrentImage bool `json:"currentImage"`
	Refuges      bool `json:"refuges"`
}

// State is the single mutable cursor.
type State struct {
	ActiveTraceID  int            `json:"activeTraceId"`
	ProjectedIndex int            `json:"projectedIndex"`
	ActiveImageID  int            `json:"activeImageId"`
	ViewportCenter geo.Coordinate `json:"viewportCenter"`
	Zoom           int            `json:"zoom"`
	Layers         Layers         `json:"layers"`
}

// Initial returns the start-up state: first trace, first point, no active
// image and the given viewport. No projection is done at start.
func Initial(vp dataset.Viewport) State {
	return State{
		ActiveTraceID:  0,
		ProjectedIndex: 0,
		ActiveImageID:  NoImage,
		ViewportCenter: vp.Center,
		Zoom:           vp.Zoom,
		Layers: Layers{
			Images:       false,
			CurrentImage: true,
			Refuges:      true,
		},
	}
}
