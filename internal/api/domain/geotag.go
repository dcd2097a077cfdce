package domain

import "time"

// GeoTag is attached at most once to a sound at creation time. Coordinate
// ranges are not validated anywhere in this flow.
type GeoTag struct {
	ID        string
	UserID    string
	Lat       float64
	Lon       float64
	Zoom      int
	CreatedAt time.Time
}
