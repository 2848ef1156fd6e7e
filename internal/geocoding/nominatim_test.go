package geocoding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"citybites/internal/cache"
	"citybites/internal/fetch"
)

func newTestGeocoder(baseURL string, c cache.Cache) *nominatimGeocoder {
	return &nominatimGeocoder{
		baseURL:   baseURL,
		userAgent: "CityBitesTest/1.0",
		client: fetch.NewClient("GEOCODING", &http.Client{Timeout: 10 * time.Second}, fetch.Config{
			Attempts:       3,
			BaseDelay:      time.Millisecond,
			AttemptTimeout: time.Second,
		}),
		limiter:  rate.NewLimiter(rate.Inf, 1),
		cache:    c,
		cacheTTL: time.Hour,
	}
}

func writeResults(w http.ResponseWriter, results []nominatimResponse) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(results)
}

func TestNominatimGeocodeSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/search")
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		assert.Equal(t, "Paris", r.URL.Query().Get("q"))

		writeResults(w, []nominatimResponse{{
			Lat:         "48.8566",
			Lon:         "2.3522",
			DisplayName: "Paris, Île-de-France, France",
			BoundingBox: []string{"48.8155755", "48.9021560", "2.2241220", "2.4697602"},
		}})
	}))
	defer server.Close()

	geocoder := newTestGeocoder(server.URL, nil)

	result, err := geocoder.Geocode(context.Background(), "  Paris ")

	require.NoError(t, err)
	assert.Equal(t, 48.8566, result.Coords.Lat)
	assert.Equal(t, 2.3522, result.Coords.Lon)
	assert.Equal(t, "Paris, Île-de-France, France", result.DisplayName)
	require.NotNil(t, result.BoundingBox)
	assert.Equal(t, 48.8155755, result.BoundingBox.South)
	assert.Equal(t, 48.9021560, result.BoundingBox.North)
	assert.Equal(t, 2.2241220, result.BoundingBox.West)
	assert.Equal(t, 2.4697602, result.BoundingBox.East)
}

func TestNominatimGeocodeNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeResults(w, []nominatimResponse{})
	}))
	defer server.Close()

	result, err := newTestGeocoder(server.URL, nil).Geocode(context.Background(), "Nonexistent Location")

	require.Error(t, err)
	assert.Nil(t, result)

	var geocodingErr *ErrGeocodingFailed
	require.ErrorAs(t, err, &geocodingErr)
	assert.Contains(t, geocodingErr.Reason, "no results found")
}

func TestNominatimGeocodeEmptyAddress(t *testing.T) {
	geocoder := newTestGeocoder("http://127.0.0.1:1", nil)

	_, err := geocoder.Geocode(context.Background(), "   ")

	var geocodingErr *ErrGeocodingFailed
	require.ErrorAs(t, err, &geocodingErr)
	assert.Equal(t, "empty address", geocodingErr.Reason)
}

func TestNominatimGeocodeHTTPErrorRetried(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Internal Server Error"))
	}))
	defer server.Close()

	result, err := newTestGeocoder(server.URL, nil).Geocode(context.Background(), "Test Address")

	require.Error(t, err)
	assert.Nil(t, result)
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))

	var geocodingErr *ErrGeocodingFailed
	require.ErrorAs(t, err, &geocodingErr)
	assert.Contains(t, geocodingErr.Reason, "HTTP 500")
}

func TestNominatimGeocodeRecoversAfterTransientFailure(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) < 2 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		writeResults(w, []nominatimResponse{{Lat: "40.7128", Lon: "-74.0060", DisplayName: "New York"}})
	}))
	defer server.Close()

	result, err := newTestGeocoder(server.URL, nil).Geocode(context.Background(), "New York")

	require.NoError(t, err)
	assert.Equal(t, 40.7128, result.Coords.Lat)
	assert.Equal(t, int32(2), atomic.LoadInt32(&attempts))
}

func TestNominatimGeocodeInvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte("invalid json"))
	}))
	defer server.Close()

	result, err := newTestGeocoder(server.URL, nil).Geocode(context.Background(), "Test Address")

	require.Error(t, err)
	assert.Nil(t, result)
}

func TestNominatimGeocodeInvalidLatLon(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeResults(w, []nominatimResponse{{Lat: "invalid", Lon: "-74.0060", DisplayName: "Test"}})
	}))
	defer server.Close()

	result, err := newTestGeocoder(server.URL, nil).Geocode(context.Background(), "Test Address")

	require.Error(t, err)
	assert.Nil(t, result)

	var geocodingErr *ErrGeocodingFailed
	require.ErrorAs(t, err, &geocodingErr)
	assert.Contains(t, geocodingErr.Reason, "invalid latitude")
}

func TestNominatimGeocodeUsesCache(t *testing.T) {
	var requests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		writeResults(w, []nominatimResponse{{Lat: "45.764", Lon: "4.8357", DisplayName: "Lyon"}})
	}))
	defer server.Close()

	geocoder := newTestGeocoder(server.URL, cache.NewMemory())
	ctx := context.Background()

	first, err := geocoder.Geocode(ctx, "Lyon")
	require.NoError(t, err)
	second, err := geocoder.Geocode(ctx, "  LYON ")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&requests))
}

func TestNominatimGeocodeRateLimiting(t *testing.T) {
	var requests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		writeResults(w, []nominatimResponse{{Lat: "40.7128", Lon: "-74.0060", DisplayName: "Test"}})
	}))
	defer server.Close()

	geocoder := newTestGeocoder(server.URL, nil)
	geocoder.limiter = rate.NewLimiter(rate.Every(50*time.Millisecond), 1)

	ctx := context.Background()
	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := geocoder.Geocode(ctx, "Test")
		require.NoError(t, err)
	}
	elapsed := time.Since(start)

	// The first request uses the initial token, the other two wait 50ms each
	assert.True(t, elapsed >= 90*time.Millisecond, "Rate limiting not working: %v", elapsed)
	assert.Equal(t, int32(3), atomic.LoadInt32(&requests))
}

func TestNominatimGeocodeContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(200 * time.Millisecond):
		case <-r.Context().Done():
			return
		}
		writeResults(w, []nominatimResponse{{Lat: "40.7128", Lon: "-74.0060", DisplayName: "Test"}})
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	result, err := newTestGeocoder(server.URL, nil).Geocode(ctx, "Test")

	require.Error(t, err)
	assert.Nil(t, result)
}

func TestNominatimGeocodeUserAgent(t *testing.T) {
	userAgentReceived := ""
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgentReceived = r.Header.Get("User-Agent")
		writeResults(w, []nominatimResponse{{Lat: "40.7128", Lon: "-74.0060", DisplayName: "Test"}})
	}))
	defer server.Close()

	_, err := newTestGeocoder(server.URL, nil).Geocode(context.Background(), "Test")

	require.NoError(t, err)
	assert.Equal(t, "CityBitesTest/1.0", userAgentReceived)
}

func TestNominatimSearchSkipsInvalidResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "3", r.URL.Query().Get("limit"))
		writeResults(w, []nominatimResponse{
			{Lat: "48.8566", Lon: "2.3522", DisplayName: "Paris, France"},
			{Lat: "bad", Lon: "2.0", DisplayName: "Broken"},
			{Lat: "33.6609", Lon: "-95.5555", DisplayName: "Paris, Texas"},
		})
	}))
	defer server.Close()

	results, err := newTestGeocoder(server.URL, nil).Search(context.Background(), "Paris", 3)

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Paris, France", results[0].DisplayName)
	assert.Equal(t, "Paris, Texas", results[1].DisplayName)
}

func TestNewNominatimGeocoderDefaults(t *testing.T) {
	g := NewNominatimGeocoder(Config{BaseURL: "https://example.test/"}).(*nominatimGeocoder)

	assert.Equal(t, "https://example.test", g.baseURL)
	assert.Equal(t, "CityBites/1.0", g.userAgent)
	assert.Equal(t, 24*time.Hour, g.cacheTTL)
	assert.Equal(t, rate.Limit(1), g.limiter.Limit())
}
