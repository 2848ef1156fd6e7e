package tools

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"citybites/internal/cache"
	"citybites/internal/export"
	"citybites/internal/models"
	"citybites/internal/routing"
)

// routeNamespace scopes route fingerprints
var routeNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("citybites:route"))

// PlaceSearcher finds places for a city and theme
type PlaceSearcher interface {
	Search(ctx context.Context, city, query string) (*models.PlacesSearchResult, error)
}

// RunRecorder persists a summary of each optimization
type RunRecorder interface {
	Record(ctx context.Context, fingerprint string, pointCount int, distanceKm float64) error
}

// Config wires an Executor. Cache and Runs are optional.
type Config struct {
	Places    PlaceSearcher
	Optimizer routing.Optimizer
	Cache     cache.Cache
	RouteTTL  time.Duration
	Runs      RunRecorder
}

// Executor runs operations against the configured services
type Executor struct {
	places    PlaceSearcher
	optimizer routing.Optimizer
	cache     cache.Cache
	routeTTL  time.Duration
	runs      RunRecorder
}

// NewExecutor creates an executor. A nil Optimizer selects a default Sequencer.
func NewExecutor(cfg Config) *Executor {
	if cfg.Optimizer == nil {
		cfg.Optimizer = routing.NewSequencer(routing.DefaultMaxPasses)
	}
	if cfg.RouteTTL <= 0 {
		cfg.RouteTTL = time.Hour
	}
	return &Executor{
		places:    cfg.Places,
		optimizer: cfg.Optimizer,
		cache:     cfg.Cache,
		routeTTL:  cfg.RouteTTL,
		runs:      cfg.Runs,
	}
}

// Execute dispatches op to the matching typed method
func (e *Executor) Execute(ctx context.Context, op Operation) (*Result, error) {
	switch op := op.(type) {
	case PlacesSearch:
		res, err := e.SearchPlaces(ctx, op)
		if err != nil {
			return nil, err
		}
		return &Result{Operation: op.Name(), Places: res}, nil
	case RouteOptimize:
		res, err := e.OptimizeRoute(ctx, op)
		if err != nil {
			return nil, err
		}
		return &Result{Operation: op.Name(), Route: res}, nil
	case MapsExport:
		res, err := e.ExportMap(ctx, op)
		if err != nil {
			return nil, err
		}
		return &Result{Operation: op.Name(), Export: res}, nil
	default:
		return nil, fmt.Errorf("unknown operation %T", op)
	}
}

// SearchPlaces runs a PlacesSearch
func (e *Executor) SearchPlaces(ctx context.Context, op PlacesSearch) (*models.PlacesSearchResult, error) {
	if e.places == nil {
		return nil, fmt.Errorf("%s: place search is not configured", op.Name())
	}
	return e.places.Search(ctx, op.City, op.Query)
}

// OptimizeRoute runs a RouteOptimize. Results are cached by the fingerprint
// of the point list, so identical requests skip the optimizer.
func (e *Executor) OptimizeRoute(ctx context.Context, op RouteOptimize) (*models.RouteResult, error) {
	if err := routing.Validate(op.Points); err != nil {
		return nil, err
	}

	fp := Fingerprint(op.Points)
	key := "route::" + fp

	if e.cache != nil {
		var cached models.RouteResult
		hit, err := cache.GetJSON(ctx, e.cache, key, &cached)
		if err != nil {
			log.Printf("[CACHE] Read failed: key=%s err=%v", key, err)
		} else if hit {
			log.Printf("[CACHE] Hit: key=%s", key)
			return &cached, nil
		}
	}

	res, err := e.optimizer.Optimize(op.Points)
	if err != nil {
		return nil, err
	}

	if e.cache != nil {
		if err := cache.SetJSON(ctx, e.cache, key, res, e.routeTTL); err != nil {
			log.Printf("[CACHE] Write failed: key=%s err=%v", key, err)
		}
	}
	if e.runs != nil {
		if err := e.runs.Record(ctx, fp, len(op.Points), res.DistanceKm); err != nil {
			log.Printf("[ERROR] Failed to record route run: fingerprint=%s err=%v", fp, err)
		}
	}

	return res, nil
}

// ExportMap runs a MapsExport
func (e *Executor) ExportMap(ctx context.Context, op MapsExport) (*models.ExportFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	route := op.Route
	if route == nil && op.Optimize && len(op.Places) >= routing.MinPoints {
		points := make([]models.Point, len(op.Places))
		for i, p := range op.Places {
			points[i] = p.ToPoint()
		}
		res, err := e.OptimizeRoute(ctx, RouteOptimize{Points: points})
		if err != nil {
			return nil, err
		}
		log.Printf("[EXPORT] Sequenced %d places before export: distance_km=%.3f", len(points), res.DistanceKm)
		route = res
	}

	return export.Export(op.Places, route, op.Format)
}

// Fingerprint identifies a point list. Order matters since the first point
// anchors the route.
func Fingerprint(points []models.Point) string {
	var b strings.Builder
	for _, p := range points {
		b.WriteString(strconv.Quote(p.ID))
		b.WriteByte(':')
		b.WriteString(strconv.FormatFloat(p.Lat, 'g', -1, 64))
		b.WriteByte(',')
		b.WriteString(strconv.FormatFloat(p.Lon, 'g', -1, 64))
		b.WriteByte(';')
	}
	return uuid.NewSHA1(routeNamespace, []byte(b.String())).String()
}
