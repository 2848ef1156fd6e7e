// Package tools exposes the planner's capabilities as a closed set of typed
// operations dispatched by an Executor.
package tools

import (
	"citybites/internal/export"
	"citybites/internal/models"
)

// Operation is one of PlacesSearch, RouteOptimize or MapsExport.
// The set is closed: only this package can add variants.
type Operation interface {
	// Name is the stable identifier used in logs and results
	Name() string
	isOperation()
}

// Operation names
const (
	NamePlacesSearch  = "places.search"
	NameRouteOptimize = "route.optimize"
	NameMapsExport    = "maps.export"
)

// PlacesSearch finds places in a city for a free-text theme
type PlacesSearch struct {
	City  string
	Query string
}

// RouteOptimize orders points into a short open route starting at the first point
type RouteOptimize struct {
	Points []models.Point
}

// MapsExport renders places and an optional route as a map file. With
// Optimize set and no Route, the places are sequenced first in the order given.
type MapsExport struct {
	Places   []models.Place
	Format   export.Format
	Route    *models.RouteResult
	Optimize bool
}

func (PlacesSearch) Name() string  { return NamePlacesSearch }
func (RouteOptimize) Name() string { return NameRouteOptimize }
func (MapsExport) Name() string    { return NameMapsExport }

func (PlacesSearch) isOperation()  {}
func (RouteOptimize) isOperation() {}
func (MapsExport) isOperation()    {}

// Result holds the outcome of an Operation. Exactly one payload field is set,
// matching the operation named by Operation.
type Result struct {
	Operation string                     `json:"operation"`
	Places    *models.PlacesSearchResult `json:"places,omitempty"`
	Route     *models.RouteResult        `json:"route,omitempty"`
	Export    *models.ExportFile         `json:"export,omitempty"`
}
