package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"citybites/internal/cache"
	"citybites/internal/fetch"
	"citybites/internal/models"
	"citybites/internal/textutil"
)

// GeocodingResult contains the result of a geocoding operation
type GeocodingResult struct {
	Coords      models.Coordinates  `json:"coords"`
	DisplayName string              `json:"display_name"`
	BoundingBox *models.BoundingBox `json:"bounding_box,omitempty"`
}

// Geocoder provides address-to-coordinates conversion
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*GeocodingResult, error)
	Search(ctx context.Context, query string, limit int) ([]GeocodingResult, error)
}

// ErrGeocodingFailed is returned when an address cannot be geocoded
type ErrGeocodingFailed struct {
	Address string
	Reason  string
}

func (e *ErrGeocodingFailed) Error() string {
	return fmt.Sprintf("geocoding failed for address: %s - %s", e.Address, e.Reason)
}

// Config configures the Nominatim geocoder
type Config struct {
	BaseURL   string
	UserAgent string
	// Nominatim's usage policy allows one request per second
	RequestsPerSecond float64
	Cache             cache.Cache
	CacheTTL          time.Duration
	Fetch             fetch.Config
}

type nominatimGeocoder struct {
	baseURL   string
	userAgent string
	client    *fetch.Client
	limiter   *rate.Limiter
	cache     cache.Cache
	cacheTTL  time.Duration
}

type nominatimResponse struct {
	Lat         string   `json:"lat"`
	Lon         string   `json:"lon"`
	DisplayName string   `json:"display_name"`
	BoundingBox []string `json:"boundingbox,omitempty"`
}

// NewNominatimGeocoder creates a new Nominatim geocoder with rate limiting,
// retries and an optional cache
func NewNominatimGeocoder(cfg Config) Geocoder {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://nominatim.openstreetmap.org"
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "CityBites/1.0"
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 1
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 24 * time.Hour
	}

	return &nominatimGeocoder{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		client:    fetch.NewClient("GEOCODING", &http.Client{Timeout: 10 * time.Second}, cfg.Fetch),
		limiter:   rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		cache:     cfg.Cache,
		cacheTTL:  cfg.CacheTTL,
	}
}

func (g *nominatimGeocoder) Geocode(ctx context.Context, address string) (*GeocodingResult, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, &ErrGeocodingFailed{Address: address, Reason: "empty address"}
	}

	cacheKey := "geocode::" + textutil.Normalize(address)
	if g.cache != nil {
		var cached GeocodingResult
		ok, err := cache.GetJSON(ctx, g.cache, cacheKey, &cached)
		if err != nil {
			log.Printf("[CACHE] Geocode lookup failed: key=%s err=%v", cacheKey, err)
		} else if ok {
			return &cached, nil
		}
	}

	results, err := g.query(ctx, address, 1)
	if err != nil {
		return nil, err
	}

	if len(results) == 0 {
		log.Printf("[ERROR] No geocoding results found: address=%s", address)
		return nil, &ErrGeocodingFailed{Address: address, Reason: "no results found"}
	}

	result, err := parseResult(results[0])
	if err != nil {
		log.Printf("[ERROR] Invalid geocoding response: address=%s err=%v", address, err)
		return nil, &ErrGeocodingFailed{Address: address, Reason: err.Error()}
	}

	log.Printf("[GEOCODING] Response: address=%s lat=%.6f lon=%.6f display_name=%s", address, result.Coords.Lat, result.Coords.Lon, result.DisplayName)

	if g.cache != nil {
		if err := cache.SetJSON(ctx, g.cache, cacheKey, result, g.cacheTTL); err != nil {
			log.Printf("[CACHE] Geocode store failed: key=%s err=%v", cacheKey, err)
		}
	}

	return result, nil
}

func (g *nominatimGeocoder) Search(ctx context.Context, query string, limit int) ([]GeocodingResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, &ErrGeocodingFailed{Address: query, Reason: "empty query"}
	}
	if limit <= 0 {
		limit = 5
	}

	results, err := g.query(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	log.Printf("[GEOCODING] Search response: query=%s results_count=%d", query, len(results))

	geocodingResults := make([]GeocodingResult, 0, len(results))
	for _, raw := range results {
		result, err := parseResult(raw)
		if err != nil {
			log.Printf("[ERROR] Skipping geocoding search result: query=%s err=%v", query, err)
			continue
		}
		geocodingResults = append(geocodingResults, *result)
	}

	return geocodingResults, nil
}

func (g *nominatimGeocoder) query(ctx context.Context, q string, limit int) ([]nominatimResponse, error) {
	queryURL := fmt.Sprintf("%s/search?q=%s&format=json&limit=%d", g.baseURL, url.QueryEscape(q), limit)
	log.Printf("[GEOCODING] Request: query=%s url=%s", q, queryURL)

	body, err := g.client.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, queryURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", g.userAgent)
		req.Header.Set("Accept-Language", "fr,en")
		return req, nil
	})
	if err != nil {
		log.Printf("[ERROR] Geocoding API request failed: query=%s err=%v", q, err)
		return nil, &ErrGeocodingFailed{Address: q, Reason: err.Error()}
	}

	var results []nominatimResponse
	if err := json.Unmarshal(body, &results); err != nil {
		log.Printf("[ERROR] Failed to decode geocoding response: query=%s err=%v", q, err)
		return nil, &ErrGeocodingFailed{Address: q, Reason: err.Error()}
	}

	return results, nil
}

func parseResult(r nominatimResponse) (*GeocodingResult, error) {
	lat, err := strconv.ParseFloat(r.Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid latitude %q", r.Lat)
	}
	lon, err := strconv.ParseFloat(r.Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid longitude %q", r.Lon)
	}

	result := &GeocodingResult{
		Coords:      models.Coordinates{Lat: lat, Lon: lon},
		DisplayName: r.DisplayName,
	}

	// Nominatim orders the box as south, north, west, east
	if len(r.BoundingBox) == 4 {
		var v [4]float64
		ok := true
		for i, s := range r.BoundingBox {
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				ok = false
				break
			}
			v[i] = f
		}
		if ok {
			result.BoundingBox = &models.BoundingBox{South: v[0], North: v[1], West: v[2], East: v[3]}
		}
	}

	return result, nil
}
