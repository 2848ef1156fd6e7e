package models

import "math"

// Coordinates represents a geographic point
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Point is a uniquely identified place to visit within one optimization call.
// Range and id checks belong to routing.Validate.
type Point struct {
	ID  string  `json:"id"`
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// RouteResult is the visiting order produced for a list of points
type RouteResult struct {
	Order      []string `json:"order"`
	DistanceKm float64  `json:"distanceKm"`
	Polyline   string   `json:"polyline,omitempty"`
}

// Place is a point of interest returned by place discovery
type Place struct {
	ID    string  `json:"id" validate:"required"`
	Name  string  `json:"name" validate:"required"`
	Lat   float64 `json:"lat" validate:"latitude"`
	Lon   float64 `json:"lon" validate:"longitude"`
	Notes string  `json:"notes,omitempty"`
}

// GetCoords returns the coordinates of the place
func (p Place) GetCoords() Coordinates {
	return Coordinates{Lat: p.Lat, Lon: p.Lon}
}

// ToPoint drops the descriptive fields of a place
func (p Place) ToPoint() Point {
	return Point{ID: p.ID, Lat: p.Lat, Lon: p.Lon}
}

// PlacesSearchResult contains the places found for a city and theme
type PlacesSearchResult struct {
	Source  string  `json:"source"`
	Warning string  `json:"warning,omitempty"`
	Results []Place `json:"results"`
}

// Place sources
const (
	SourceOverpass = "overpass"
	SourceFallback = "fallback"
)

// BoundingBox is a south/west/north/east rectangle in degrees
type BoundingBox struct {
	South float64 `json:"south"`
	West  float64 `json:"west"`
	North float64 `json:"north"`
	East  float64 `json:"east"`
}

// Center returns the midpoint of the box
func (b BoundingBox) Center() Coordinates {
	return Coordinates{Lat: (b.South + b.North) / 2, Lon: (b.West + b.East) / 2}
}

// ExportFile is a generated document ready to be downloaded
type ExportFile struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
	MimeType string `json:"mimeType"`
}

// RoundCoordinate rounds a coordinate to 5 decimal places (~1.1m)
func RoundCoordinate(v float64) float64 {
	return math.Round(v*100000) / 100000
}
