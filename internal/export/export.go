// Package export renders places and an optional route as GeoJSON or KML.
package export

import (
	"fmt"
	"log"
	"strings"

	"citybites/internal/models"
	"citybites/internal/routing"
)

// Format is a map export format
type Format string

// Supported formats
const (
	FormatGeoJSON Format = "geojson"
	FormatKML     Format = "kml"
)

// ParseFormat accepts a format name case-insensitively
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatGeoJSON:
		return FormatGeoJSON, nil
	case FormatKML:
		return FormatKML, nil
	}
	return "", &ErrInvalidExport{Reason: fmt.Sprintf("unsupported format %q", s)}
}

// ErrInvalidExport is returned when the export input is inconsistent
type ErrInvalidExport struct {
	Reason string
}

func (e *ErrInvalidExport) Error() string {
	return fmt.Sprintf("invalid export: %s", e.Reason)
}

// Export renders places in the given format. When route is non-nil its order
// must reference exactly the supplied place ids, places are emitted in that
// order, and a non-empty polyline adds a route line.
func Export(places []models.Place, route *models.RouteResult, format Format) (*models.ExportFile, error) {
	ordered, err := orderPlaces(places, route)
	if err != nil {
		return nil, err
	}

	var line []models.Coordinates
	if route != nil && route.Polyline != "" {
		line, err = routing.DecodePolyline(route.Polyline)
		if err != nil {
			return nil, &ErrInvalidExport{Reason: fmt.Sprintf("route polyline: %v", err)}
		}
	}

	var file *models.ExportFile
	switch format {
	case FormatGeoJSON:
		file, err = GeoJSON(ordered, route, line)
	case FormatKML:
		file, err = KML(ordered, route, line)
	default:
		return nil, &ErrInvalidExport{Reason: fmt.Sprintf("unsupported format %q", format)}
	}
	if err != nil {
		return nil, err
	}

	log.Printf("[EXPORT] Rendered %s: places=%d routeVertices=%d bytes=%d", format, len(ordered), len(line), len(file.Content))
	return file, nil
}

func orderPlaces(places []models.Place, route *models.RouteResult) ([]models.Place, error) {
	if len(places) == 0 {
		return nil, &ErrInvalidExport{Reason: "no places to export"}
	}

	byID := make(map[string]int, len(places))
	for i, p := range places {
		if _, dup := byID[p.ID]; dup {
			return nil, &ErrInvalidExport{Reason: fmt.Sprintf("duplicate place id %q", p.ID)}
		}
		byID[p.ID] = i
	}

	if route == nil {
		return places, nil
	}

	if len(route.Order) != len(places) {
		return nil, &ErrInvalidExport{Reason: fmt.Sprintf("route has %d stops but %d places were supplied", len(route.Order), len(places))}
	}

	ordered := make([]models.Place, 0, len(places))
	seen := make(map[string]bool, len(places))
	for _, id := range route.Order {
		idx, ok := byID[id]
		if !ok {
			return nil, &ErrInvalidExport{Reason: fmt.Sprintf("route references unknown place %q", id)}
		}
		if seen[id] {
			return nil, &ErrInvalidExport{Reason: fmt.Sprintf("route visits place %q twice", id)}
		}
		seen[id] = true
		ordered = append(ordered, places[idx])
	}
	return ordered, nil
}
