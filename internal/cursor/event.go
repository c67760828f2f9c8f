package cursor

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrUnknownEvent is returned for event types the controller does not handle.
	ErrUnknownEvent = errors.New("unknown event")
	// ErrInvalidEvent is returned when an event payload is missing fields or
	// carries values out of their domain.
	ErrInvalidEvent = errors.New("invalid event")
)

// Event is a view interaction routed to the controller.
type Event interface {
	// Type is the wire name of the event.
	Type() string
}

// TraceSelected switches the active trace and keeps the viewport.
type TraceSelected struct {
	TraceID int `json:"traceId"`
}

// MapClicked re-synchronizes every view on a free map coordinate.
type MapClicked struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lon float64 `json:"lon" validate:"gte=-180,lte=180"`
}

// PlotClicked selects a point of the active trace on the elevation profile.
type PlotClicked struct {
	PointIndex int `json:"pointIndex"`
}

// ImageSelected activates a carousel photo.
type ImageSelected struct {
	ImageID int `json:"imageId"`
}

// RefugeClicked re-synchronizes every view on a refuge.
type RefugeClicked struct {
	RefugeID int `json:"refugeId"`
}

// LayerToggled shows or hides a map layer.
type LayerToggled struct {
	Layer   Layer `json:"layer" validate:"oneof=images current_image refuges"`
	Visible bool  `json:"visible"`
}

// ViewportZoomed records the map zoom level.
type ViewportZoomed struct {
	Zoom int `json:"zoom" validate:"gte=0,lte=22"`
}

func (TraceSelected) Type() string  { return "trace_selected" }
func (MapClicked) Type() string     { return "map_clicked" }
func (PlotClicked) Type() string    { return "plot_clicked" }
func (ImageSelected) Type() string  { return "image_selected" }
func (RefugeClicked) Type() string  { return "refuge_clicked" }
func (LayerToggled) Type() string   { return "layer_toggled" }
func (ViewportZoomed) Type() string { return "viewport_zoomed" }

var validate = validator.New()

// wireEvent is the JSON envelope: {"type": "...", <fields>}. Pointers tell
// missing fields apart from zero values.
type wireEvent struct {
	Type       string   `json:"type"`
	TraceID    *int     `json:"traceId"`
	Lat        *float64 `json:"lat"`
	Lon        *float64 `json:"lon"`
	PointIndex *int     `json:"pointIndex"`
	ImageID    *int     `json:"imageId"`
	RefugeID   *int     `json:"refugeId"`
	Layer      *Layer   `json:"layer"`
	Visible    *bool    `json:"visible"`
	Zoom       *int     `json:"zoom"`
}

// DecodeEvent parses one JSON event.
func DecodeEvent(data []byte) (Event, error) {
	var w wireEvent
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	return w.event()
}

// DecodeEvents parses a JSON array of events.
func DecodeEvents(data []byte) ([]Event, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	events := make([]Event, 0, len(raw))
	for i, msg := range raw {
		ev, err := DecodeEvent(msg)
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
		events = append(events, ev)
	}
	return events, nil
}

// EncodeEvent renders an event in the envelope accepted by DecodeEvent.
func EncodeEvent(ev Event) ([]byte, error) {
	body, err := json.Marshal(ev)
	if err != nil {
		return nil, err
	}
	fields := map[string]any{}
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	fields["type"] = ev.Type()
	return json.Marshal(fields)
}

func (w wireEvent) event() (Event, error) {
	var ev Event
	switch w.Type {
	case "trace_selected":
		if w.TraceID == nil {
			return nil, missing(w.Type, "traceId")
		}
		ev = TraceSelected{TraceID: *w.TraceID}
	case "map_clicked":
		if w.Lat == nil || w.Lon == nil {
			return nil, missing(w.Type, "lat/lon")
		}
		ev = MapClicked{Lat: *w.Lat, Lon: *w.Lon}
	case "plot_clicked":
		if w.PointIndex == nil {
			return nil, missing(w.Type, "pointIndex")
		}
		ev = PlotClicked{PointIndex: *w.PointIndex}
	case "image_selected":
		if w.ImageID == nil {
			return nil, missing(w.Type, "imageId")
		}
		ev = ImageSelected{ImageID: *w.ImageID}
	case "refuge_clicked":
		if w.RefugeID == nil {
			return nil, missing(w.Type, "refugeId")
		}
		ev = RefugeClicked{RefugeID: *w.RefugeID}
	case "layer_toggled":
		if w.Layer == nil || w.Visible == nil {
			return nil, missing(w.Type, "layer/visible")
		}
		ev = LayerToggled{Layer: *w.Layer, Visible: *w.Visible}
	case "viewport_zoomed":
		if w.Zoom == nil {
			return nil, missing(w.Type, "zoom")
		}
		ev = ViewportZoomed{Zoom: *w.Zoom}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, w.Type)
	}

	if err := validate.Struct(ev); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidEvent, w.Type, err)
	}
	return ev, nil
}

func missing(typ, field string) error {
	return fmt.Errorf("%w: %s requires %s", ErrInvalidEvent, typ, field)
}
