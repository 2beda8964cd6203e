package explorer

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/trailmap/trail-explorer/internal/models"
)

type EventType string

const (
	EventResize   EventType = "resize"
	EventViewport EventType = "viewport"
	EventGeocoder EventType = "geocoder"
	EventSearch   EventType = "search"
	EventSelect   EventType = "select"
	EventClear    EventType = "clear"

	// eventLoaded is queued internally once the catalog fetch settles.
	eventLoaded EventType = "loaded"
)

var (
	ErrUnknownEvent  = errors.New("unknown event type")
	ErrMissingUpdate = errors.New("event has no viewport")
)

// Event is one input from the map widget or the address search box.
type Event struct {
	Type     EventType               `json:"type"`
	Viewport *models.PartialViewport `json:"viewport,omitempty"`
	Query    string                  `json:"query,omitempty"`
}

// DecodeEvent parses one JSON line from the widget stream.
func DecodeEvent(line []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(line, &ev); err != nil {
		return Event{}, fmt.Errorf("decoding event: %w", err)
	}

	switch ev.Type {
	case EventResize, EventViewport, EventGeocoder:
		if ev.Viewport == nil {
			return Event{}, fmt.Errorf("%s: %w", ev.Type, ErrMissingUpdate)
		}
	case EventSearch, EventSelect, EventClear:
	default:
		return Event{}, fmt.Errorf("%q: %w", ev.Type, ErrUnknownEvent)
	}
	return ev, nil
}
