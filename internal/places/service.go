// Package places discovers points of interest for a city and theme using
// Nominatim for the city extent and Overpass for the places themselves.
package places

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"citybites/internal/cache"
	"citybites/internal/geocoding"
	"citybites/internal/models"
	"citybites/internal/textutil"
)

const (
	// MaxResults caps the number of places returned by a search
	MaxResults = 30
	// SearchTimeout bounds one shared upstream lookup
	SearchTimeout = 60 * time.Second
)

// ErrMissingCity is returned when Search is called without a city
var ErrMissingCity = errors.New("city is required")

// defaultCenter is used when the city cannot be geocoded (Paris)
var defaultCenter = models.Coordinates{Lat: 48.8566, Lon: 2.3522}

// Querier runs an Overpass query
type Querier interface {
	Query(ctx context.Context, query string) ([]Element, error)
}

// Service searches places and falls back to synthetic ones when upstream
// services are unavailable
type Service struct {
	geocoder geocoding.Geocoder
	overpass Querier
	cache    cache.Cache
	cacheTTL time.Duration
	group    singleflight.Group

	searchTimeout time.Duration
}

// NewService creates a place search service. c may be nil to disable caching.
func NewService(geocoder geocoding.Geocoder, overpass Querier, c cache.Cache, cacheTTL time.Duration) *Service {
	if cacheTTL <= 0 {
		cacheTTL = 24 * time.Hour
	}
	return &Service{
		geocoder: geocoder,
		overpass: overpass,
		cache:    c,
		cacheTTL: cacheTTL,

		searchTimeout: SearchTimeout,
	}
}

// Search returns up to MaxResults places in city matching the free-text
// theme query. Upstream failures never surface as errors: the result falls
// back to synthetic places with a warning. Only a missing city or the
// caller's own context ending return an error.
//
// Identical concurrent searches share one upstream lookup. The lookup runs
// detached from any single caller, bounded by SearchTimeout, so one caller
// giving up does not fail the others.
func (s *Service) Search(ctx context.Context, city, query string) (*models.PlacesSearchResult, error) {
	city = strings.TrimSpace(city)
	query = strings.TrimSpace(query)
	if city == "" {
		return nil, ErrMissingCity
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := textutil.Normalize(city) + "::" + queryKey(query)
	ch := s.group.DoChan(key, func() (interface{}, error) {
		sharedCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.searchTimeout)
		defer cancel()
		return s.search(sharedCtx, city, query)
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		log.Printf("[PLACES] Caller gave up waiting: key=%s err=%v", key, ctx.Err())
		return nil, ctx.Err()
	}
	if res.Err != nil {
		return nil, res.Err
	}
	if res.Shared {
		log.Printf("[PLACES] Shared in-flight search: key=%s", key)
	}

	found := res.Val.(*models.PlacesSearchResult)
	out := *found
	out.Results = append([]models.Place(nil), found.Results...)
	return &out, nil
}

func (s *Service) search(ctx context.Context, city, query string) (*models.PlacesSearchResult, error) {
	start := time.Now()

	geo, err := s.geocoder.Geocode(ctx, city)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Printf("[PLACES] City lookup failed: city=%q err=%v", city, err)
		return fallbackResult(defaultCenter, fmt.Sprintf("Could not locate %q; showing sample places", city)), nil
	}

	center := geo.Coords
	if geo.BoundingBox == nil {
		log.Printf("[PLACES] No bounding box for city=%q", city)
		return fallbackResult(center, fmt.Sprintf("No bounding box for %q; showing sample places", city)), nil
	}
	bbox := *geo.BoundingBox

	key := fmt.Sprintf("overpass::%s::%s::%.3f::%.3f",
		textutil.Normalize(city), queryKey(query), bbox.South, bbox.East)

	if s.cache != nil {
		var cached []models.Place
		hit, err := cache.GetJSON(ctx, s.cache, key, &cached)
		if err != nil {
			log.Printf("[CACHE] Read failed: key=%s err=%v", key, err)
		} else if hit {
			log.Printf("[CACHE] Hit: key=%s places=%d", key, len(cached))
			return &models.PlacesSearchResult{Source: models.SourceOverpass, Results: cached}, nil
		}
	}

	elements, err := s.overpass.Query(ctx, BuildQuery(bbox, PickFilters(query)))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Printf("[PLACES] Overpass unavailable: city=%q err=%v", city, err)
		return fallbackResult(center, "Overpass is unavailable; showing sample places"), nil
	}

	found := mapElements(elements)
	if len(found) == 0 {
		return fallbackResult(center, fmt.Sprintf("No places found in %q for this theme; showing sample places", city)), nil
	}

	if s.cache != nil {
		if err := cache.SetJSON(ctx, s.cache, key, found, s.cacheTTL); err != nil {
			log.Printf("[CACHE] Write failed: key=%s err=%v", key, err)
		}
	}

	log.Printf("[TIMING] Places search: city=%q query=%q places=%d duration=%v", city, query, len(found), time.Since(start))
	return &models.PlacesSearchResult{Source: models.SourceOverpass, Results: found}, nil
}

func queryKey(query string) string {
	if q := textutil.Normalize(query); q != "" {
		return q
	}
	return "_default"
}

func mapElements(elements []Element) []models.Place {
	out := make([]models.Place, 0, len(elements))
	for _, el := range elements {
		coords, ok := el.Coords()
		if !ok {
			continue
		}
		out = append(out, models.Place{
			ID:    fmt.Sprintf("%s/%d", el.Type, el.ID),
			Name:  placeName(el.Tags),
			Lat:   coords.Lat,
			Lon:   coords.Lon,
			Notes: placeNotes(el.Tags),
		})
		if len(out) == MaxResults {
			break
		}
	}
	return out
}

func placeName(tags map[string]string) string {
	if name := tags["name"]; name != "" {
		return name
	}
	if name := tags["name:en"]; name != "" {
		return name
	}
	if name := tags["name:fr"]; name != "" {
		return name
	}
	return "Unnamed place"
}

func placeNotes(tags map[string]string) string {
	var notes []string
	if v := tags["cuisine"]; v != "" {
		notes = append(notes, "Cuisine: "+v)
	}
	if v := tags["opening_hours"]; v != "" {
		notes = append(notes, "Opening hours: "+v)
	}
	if v := tags["website"]; v != "" {
		notes = append(notes, "Website: "+v)
	}
	return strings.Join(notes, " • ")
}

var fallbackTemplates = []struct {
	name  string
	notes string
	dLat  float64
	dLon  float64
}{
	{name: "Coffee Crawl", notes: "Sample stop: specialty coffee", dLat: 0.004, dLon: 0.002},
	{name: "Market Hall", notes: "Sample stop: local produce and street food", dLat: -0.003, dLon: 0.003},
	{name: "Night Bar", notes: "Sample stop: cocktails after dark", dLat: 0.002, dLon: -0.003},
}

func fallbackResult(center models.Coordinates, warning string) *models.PlacesSearchResult {
	results := make([]models.Place, len(fallbackTemplates))
	for i, t := range fallbackTemplates {
		results[i] = models.Place{
			ID:    fmt.Sprintf("fallback-%d", i+1),
			Name:  t.name,
			Lat:   models.RoundCoordinate(center.Lat + t.dLat),
			Lon:   models.RoundCoordinate(center.Lon + t.dLon),
			Notes: t.notes,
		}
	}
	return &models.PlacesSearchResult{
		Source:  models.SourceFallback,
		Warning: warning,
		Results: results,
	}
}
