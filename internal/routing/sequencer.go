package routing

import (
	"fmt"
	"log"
	"math"
	"time"

	"citybites/internal/models"
)

const (
	// DefaultMaxPasses caps the number of full 2-opt passes per call
	DefaultMaxPasses = 2000
	// ImprovementEpsilonKm is the minimum gain for a 2-opt move to be kept
	ImprovementEpsilonKm = 1e-4
	// MinPoints is the smallest input that forms a route
	MinPoints = 2
)

// Optimizer orders points into a short open route
type Optimizer interface {
	Optimize(points []models.Point) (*models.RouteResult, error)
}

// Sequencer orders points with nearest-neighbor construction followed by
// 2-opt refinement. The first input point is always the start of the route.
// A Sequencer holds no mutable state and may be shared between goroutines.
type Sequencer struct {
	MaxPasses int
	EpsilonKm float64
}

// NewSequencer creates a sequencer capped at maxPasses 2-opt passes.
// A non-positive maxPasses selects DefaultMaxPasses.
func NewSequencer(maxPasses int) *Sequencer {
	if maxPasses <= 0 {
		maxPasses = DefaultMaxPasses
	}
	return &Sequencer{
		MaxPasses: maxPasses,
		EpsilonKm: ImprovementEpsilonKm,
	}
}

// Optimize returns the visiting order, the open-path distance in kilometers
// and the encoded polyline of the ordered points
func (s *Sequencer) Optimize(points []models.Point) (*models.RouteResult, error) {
	start := time.Now()

	if err := Validate(points); err != nil {
		log.Printf("[ROUTING] Rejected input: points=%d err=%v", len(points), err)
		return nil, err
	}

	maxPasses := s.MaxPasses
	if maxPasses <= 0 {
		maxPasses = DefaultMaxPasses
	}
	epsilon := s.EpsilonKm
	if epsilon <= 0 {
		epsilon = ImprovementEpsilonKm
	}

	dist := distanceMatrix(points)

	initial := NearestNeighbor(dist)
	initialKm := tourLength(dist, initial)

	tour, passes := TwoOpt(dist, initial, maxPasses, epsilon)
	distanceKm := tourLength(dist, tour)

	ordered := make([]models.Point, len(tour))
	order := make([]string, len(tour))
	for i, idx := range tour {
		ordered[i] = points[idx]
		order[i] = points[idx].ID
	}

	log.Printf("[ROUTING] Optimized route: points=%d nearest_neighbor_km=%.3f two_opt_km=%.3f passes=%d",
		len(points), initialKm, distanceKm, passes)
	log.Printf("[TIMING] Route optimization: %v", time.Since(start))

	return &models.RouteResult{
		Order:      order,
		DistanceKm: distanceKm,
		Polyline:   EncodePolyline(ordered),
	}, nil
}

// Validate checks that points can be sequenced: at least two of them, unique
// non-empty ids, and finite in-range coordinates
func Validate(points []models.Point) error {
	if len(points) < MinPoints {
		return &InvalidInputError{
			Index:  -1,
			Reason: fmt.Sprintf("at least %d points are required, got %d", MinPoints, len(points)),
		}
	}

	seen := make(map[string]int, len(points))
	for i, p := range points {
		if p.ID == "" {
			return &InvalidInputError{Index: i, Reason: "missing id"}
		}
		if first, ok := seen[p.ID]; ok {
			return &InvalidInputError{Index: i, Reason: fmt.Sprintf("duplicate id %q (first seen at %d)", p.ID, first)}
		}
		seen[p.ID] = i

		if math.IsNaN(p.Lat) || math.IsInf(p.Lat, 0) || p.Lat < -90 || p.Lat > 90 {
			return &InvalidInputError{Index: i, Reason: fmt.Sprintf("latitude %v out of range", p.Lat)}
		}
		if math.IsNaN(p.Lon) || math.IsInf(p.Lon, 0) || p.Lon < -180 || p.Lon > 180 {
			return &InvalidInputError{Index: i, Reason: fmt.Sprintf("longitude %v out of range", p.Lon)}
		}
	}

	return nil
}
