package editor

import (
	"context"

	"github.com/codr1/leaguemap/internal/areas"
	"github.com/codr1/leaguemap/internal/assignment"
	"github.com/codr1/leaguemap/internal/geo"
)

// PolygonKind tells the renderer which layer a polygon belongs to.
type PolygonKind string

const (
	PolygonLeague   PolygonKind = "league"
	PolygonModified PolygonKind = "modified"
	PolygonCustom   PolygonKind = "custom"
)

// UnassignedColor styles markers that resolve to no league.
const UnassignedColor = "#6b7280"

// DrawRequest asks the renderer to draw or replace the polygon with ID.
// League polygons use the league id; custom areas use the area id.
type DrawRequest struct {
	ID         string
	Kind       PolygonKind
	Name       string
	Vertices   geo.Path
	Color      string
	LabelColor string
	Label      geo.Coordinate
	Editable   bool
}

// MarkerStyle asks the renderer to color a club marker.
type MarkerStyle struct {
	ClubID   int64
	LeagueID string
	Color    string
}

type Level string

const (
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Notification is a message the renderer shows to the administrator.
type Notification struct {
	Level   Level
	Message string
}

// MapAdapter receives render intents from a Session. Implementations must not
// call back into the Session synchronously; user input arrives through
// Session.Handle.
type MapAdapter interface {
	DrawPolygon(req DrawRequest)
	RemovePolygon(id string)
	StyleMarker(style MarkerStyle)
	Notify(n Notification)
}

// Repository is the persistence collaborator for the areas collection.
// ReplaceAreas overwrites the whole collection.
type Repository interface {
	ListAreas(ctx context.Context) ([]areas.PersistedArea, error)
	ReplaceAreas(ctx context.Context, records []areas.PersistedArea) error
}

// ClubSource lists the clubs shown on the map.
type ClubSource interface {
	ListClubs(ctx context.Context) ([]assignment.Club, error)
}

type nopAdapter struct{}

func (nopAdapter) DrawPolygon(DrawRequest) {}
func (nopAdapter) RemovePolygon(string)    {}
func (nopAdapter) StyleMarker(MarkerStyle) {}
func (nopAdapter) Notify(Notification)     {}

// EventKind identifies input coming from the map.
type EventKind int

const (
	// EventVertexMoved commits a new vertex list for an existing polygon.
	EventVertexMoved EventKind = iota + 1
	// EventPolygonCommitted completes the polygon being drawn.
	EventPolygonCommitted
	EventPolygonClicked
	EventMarkerClicked
)

func (k EventKind) String() string {
	switch k {
	case EventVertexMoved:
		return "vertex_moved"
	case EventPolygonCommitted:
		return "polygon_committed"
	case EventPolygonClicked:
		return "polygon_clicked"
	case EventMarkerClicked:
		return "marker_clicked"
	}
	return "unknown"
}

// Event is user input reported by the map adapter. PolygonID is set for
// polygon events, ClubID for marker clicks and Vertices for vertex and commit
// events.
type Event struct {
	Kind      EventKind
	PolygonID string
	ClubID    int64
	Vertices  geo.Path
}
