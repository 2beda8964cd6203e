package models

// Viewport is the map's current center and zoom plus the transition fields
// the rendering layer passes through.
type Viewport struct {
	Longitude          float64 `json:"longitude"`
	Latitude           float64 `json:"latitude"`
	Zoom               float64 `json:"zoom"`
	Bearing            float64 `json:"bearing,omitempty"`
	Pitch              float64 `json:"pitch,omitempty"`
	Width              int     `json:"width,omitempty"`
	Height             int     `json:"height,omitempty"`
	TransitionDuration int     `json:"transitionDuration,omitempty"` // milliseconds
}

// PartialViewport is an update from one of the viewport sources. Nil fields
// are absent and leave the current value alone.
type PartialViewport struct {
	Longitude          *float64 `json:"longitude,omitempty"`
	Latitude           *float64 `json:"latitude,omitempty"`
	Zoom               *float64 `json:"zoom,omitempty"`
	Bearing            *float64 `json:"bearing,omitempty"`
	Pitch              *float64 `json:"pitch,omitempty"`
	Width              *int     `json:"width,omitempty"`
	Height             *int     `json:"height,omitempty"`
	TransitionDuration *int     `json:"transitionDuration,omitempty"`
}

// Merge overlays p onto v field by field and returns the result. v is not modified.
func (v Viewport) Merge(p PartialViewport) Viewport {
	if p.Longitude != nil {
		v.Longitude = *p.Longitude
	}
	if p.Latitude != nil {
		v.Latitude = *p.Latitude
	}
	if p.Zoom != nil {
		v.Zoom = *p.Zoom
	}
	if p.Bearing != nil {
		v.Bearing = *p.Bearing
	}
	if p.Pitch != nil {
		v.Pitch = *p.Pitch
	}
	if p.Width != nil {
		v.Width = *p.Width
	}
	if p.Height != nil {
		v.Height = *p.Height
	}
	if p.TransitionDuration != nil {
		v.TransitionDuration = *p.TransitionDuration
	}
	return v
}

// Overlay returns p with every field set in o taking precedence.
func (p PartialViewport) Overlay(o PartialViewport) PartialViewport {
	if o.Longitude != nil {
		p.Longitude = o.Longitude
	}
	if o.Latitude != nil {
		p.Latitude = o.Latitude
	}
	if o.Zoom != nil {
		p.Zoom = o.Zoom
	}
	if o.Bearing != nil {
		p.Bearing = o.Bearing
	}
	if o.Pitch != nil {
		p.Pitch = o.Pitch
	}
	if o.Width != nil {
		p.Width = o.Width
	}
	if o.Height != nil {
		p.Height = o.Height
	}
	if o.TransitionDuration != nil {
		p.TransitionDuration = o.TransitionDuration
	}
	return p
}

// Coordinates is a plain lon/lat pair, used where a full trail is not needed.
type Coordinates struct {
	Longitude float64
	Latitude  float64
}

// Ptr returns a pointer to v. Handy for building PartialViewport literals.
func Ptr[T any](v T) *T {
	return &v
}
