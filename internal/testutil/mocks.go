package testutil

import (
	"context"
	"sync"

	"citybites/internal/models"
)

// IdentityDistanceKm is the fixed distance reported by MockOptimizer
const IdentityDistanceKm = 3.4

// MockOptimizer keeps points in input order and reports a fixed distance.
// It validates nothing, so callers can check that validation happens upstream.
type MockOptimizer struct {
	mu    sync.Mutex
	Err   error
	Calls [][]models.Point
}

func NewMockOptimizer() *MockOptimizer {
	return &MockOptimizer{}
}

// Optimize returns the identity order
func (m *MockOptimizer) Optimize(points []models.Point) (*models.RouteResult, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, append([]models.Point(nil), points...))
	m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}

	order := make([]string, len(points))
	for i, p := range points {
		order[i] = p.ID
	}
	return &models.RouteResult{Order: order, DistanceKm: IdentityDistanceKm}, nil
}

// CallCount returns the number of Optimize calls
func (m *MockOptimizer) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// SearchCall tracks a call to the place searcher
type SearchCall struct {
	City  string
	Query string
}

// MockPlaceSearcher returns a canned result
type MockPlaceSearcher struct {
	mu     sync.Mutex
	Result *models.PlacesSearchResult
	Err    error
	Calls  []SearchCall
}

// Search records the call and returns the canned result
func (m *MockPlaceSearcher) Search(ctx context.Context, city, query string) (*models.PlacesSearchResult, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, SearchCall{City: city, Query: query})
	m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}
	return m.Result, nil
}

// RunRecord is one recorded optimization
type RunRecord struct {
	Fingerprint string
	PointCount  int
	DistanceKm  float64
}

// MockRunRecorder keeps recorded runs in memory
type MockRunRecorder struct {
	mu      sync.Mutex
	Err     error
	Records []RunRecord
}

// Record stores the run
func (m *MockRunRecorder) Record(ctx context.Context, fingerprint string, pointCount int, distanceKm float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Records = append(m.Records, RunRecord{Fingerprint: fingerprint, PointCount: pointCount, DistanceKm: distanceKm})
	return nil
}

// ParisPoints returns the Louvre, Eiffel Tower and Notre-Dame
func ParisPoints() []models.Point {
	return []models.Point{
		{ID: "louvre", Lat: 48.8606, Lon: 2.3376},
		{ID: "eiffel", Lat: 48.8584, Lon: 2.2945},
		{ID: "notre-dame", Lat: 48.8530, Lon: 2.3499},
	}
}
