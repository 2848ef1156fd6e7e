package places

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"citybites/internal/fetch"
	"citybites/internal/models"
)

// DefaultOverpassEndpoints are public Overpass API mirrors tried in order
var DefaultOverpassEndpoints = []string{
	"https://overpass-api.de/api/interpreter",
	"https://overpass.kumi.systems/api/interpreter",
	"https://overpass.openstreetmap.ru/cgi/interpreter",
}

// Element is an OSM node, way or relation returned by Overpass
type Element struct {
	ID     int64               `json:"id"`
	Type   string              `json:"type"`
	Lat    *float64            `json:"lat,omitempty"`
	Lon    *float64            `json:"lon,omitempty"`
	Center *models.Coordinates `json:"center,omitempty"`
	Tags   map[string]string   `json:"tags,omitempty"`
}

// Coords returns the element position: its own coordinates for nodes and the
// computed center for ways and relations
func (e Element) Coords() (models.Coordinates, bool) {
	if e.Type == "node" {
		if e.Lat == nil || e.Lon == nil {
			return models.Coordinates{}, false
		}
		return models.Coordinates{Lat: *e.Lat, Lon: *e.Lon}, true
	}
	if e.Center == nil {
		return models.Coordinates{}, false
	}
	return *e.Center, true
}

type overpassResponse struct {
	Elements []Element `json:"elements"`
}

// ErrOverpassFailed is returned when every endpoint failed
type ErrOverpassFailed struct {
	Reasons []string
}

func (e *ErrOverpassFailed) Error() string {
	return fmt.Sprintf("overpass query failed: %s", strings.Join(e.Reasons, " | "))
}

// OverpassClient runs Overpass QL queries against a list of mirrors
type OverpassClient struct {
	endpoints []string
	userAgent string
	client    *fetch.Client
}

// NewOverpassClient creates a client. Empty endpoints selects the public mirrors.
func NewOverpassClient(endpoints []string, userAgent string, cfg fetch.Config) *OverpassClient {
	if len(endpoints) == 0 {
		endpoints = DefaultOverpassEndpoints
	}
	if userAgent == "" {
		userAgent = "CityBites/1.0"
	}
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = 30 * time.Second
	}
	return &OverpassClient{
		endpoints: endpoints,
		userAgent: userAgent,
		client:    fetch.NewClient("OVERPASS", &http.Client{}, cfg),
	}
}

// Query posts query to each endpoint in turn and returns the elements of the
// first successful response
func (c *OverpassClient) Query(ctx context.Context, query string) ([]Element, error) {
	form := url.Values{"data": {query}}.Encode()
	var reasons []string

	for _, endpoint := range c.endpoints {
		start := time.Now()
		body, err := c.client.Do(ctx, func(ctx context.Context) (*http.Request, error) {
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form))
			if err != nil {
				return nil, err
			}
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			req.Header.Set("User-Agent", c.userAgent)
			return req, nil
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Printf("[OVERPASS] Endpoint failed: endpoint=%s err=%v", endpoint, err)
			reasons = append(reasons, fmt.Sprintf("%s: %v", endpoint, err))
			continue
		}

		var resp overpassResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			log.Printf("[OVERPASS] Invalid response: endpoint=%s err=%v", endpoint, err)
			reasons = append(reasons, fmt.Sprintf("%s: %v", endpoint, err))
			continue
		}

		log.Printf("[OVERPASS] Response: endpoint=%s elements=%d duration=%v", endpoint, len(resp.Elements), time.Since(start))
		return resp.Elements, nil
	}

	return nil, &ErrOverpassFailed{Reasons: reasons}
}

func escapeOverpass(s string) string {
	s = strings.ReplaceAll(s, `"`, `\"`)
	return strings.ReplaceAll(s, "<", "")
}

// MaxQuerySpanDeg is the widest box, in degrees, sent to Overpass
const MaxQuerySpanDeg = 5.0

// ClampBoundingBox shrinks a box taller or wider than MaxQuerySpanDeg to a
// MaxQuerySpanDeg square around its center. Smaller boxes are returned as is.
func ClampBoundingBox(bbox models.BoundingBox) models.BoundingBox {
	height := math.Abs(bbox.North - bbox.South)
	width := math.Abs(bbox.East - bbox.West)
	if height <= MaxQuerySpanDeg && width <= MaxQuerySpanDeg {
		return bbox
	}

	c := bbox.Center()
	half := MaxQuerySpanDeg / 2
	return models.BoundingBox{
		South: c.Lat - half,
		West:  c.Lon - half,
		North: c.Lat + half,
		East:  c.Lon + half,
	}
}

// BuildQuery returns an Overpass QL query selecting nodes, ways and relations
// matching any of filters inside bbox, clamped by ClampBoundingBox
func BuildQuery(bbox models.BoundingBox, filters []TagFilter) string {
	bbox = ClampBoundingBox(bbox)
	box := fmt.Sprintf("(%g,%g,%g,%g)", bbox.South, bbox.West, bbox.North, bbox.East)

	var b strings.Builder
	b.WriteString("[out:json][timeout:25];\n(\n")
	for _, f := range filters {
		selector := fmt.Sprintf(`["%s"="%s"]`, escapeOverpass(f.Key), escapeOverpass(f.Value))
		for _, kind := range []string{"node", "way", "relation"} {
			fmt.Fprintf(&b, "  %s%s%s;\n", kind, selector, box)
		}
	}
	b.WriteString(");\nout center 100;\n")
	return b.String()
}
