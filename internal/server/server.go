package server

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"citybites/internal/cache"
	"citybites/internal/config"
	"citybites/internal/fetch"
	"citybites/internal/geocoding"
	"citybites/internal/handlers"
	"citybites/internal/places"
	"citybites/internal/routing"
	"citybites/internal/sqlite"
	"citybites/internal/tools"
)

// Server wraps the HTTP server and all dependencies
type Server struct {
	httpServer *http.Server
	handler    *handlers.Handler
	store      *sqlite.Store
	purger     *CachePurger
	listener   net.Listener
	addr       string
}

// New creates and initializes a new server (does not start it)
func New(cfg config.Config) (*Server, error) {
	log.Printf("Opening database at %s...", cfg.DBPath)
	store, err := sqlite.New(context.Background(), cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize data store: %w", err)
	}

	fetchCfg := fetch.DefaultConfig()
	fetchCfg.Attempts = cfg.HTTPAttempts
	fetchCfg.BaseDelay = cfg.HTTPBaseDelay

	geocoder := geocoding.NewNominatimGeocoder(geocoding.Config{
		BaseURL:   cfg.NominatimURL,
		UserAgent: cfg.UserAgent,
		Cache:     store.Cache(),
		CacheTTL:  cfg.GeocodeCacheTTL,
		Fetch:     fetchCfg,
	})
	overpass := places.NewOverpassClient(cfg.OverpassEndpoints, cfg.UserAgent, fetchCfg)
	placeService := places.NewService(geocoder, overpass, store.Cache(), cfg.OverpassCacheTTL)

	// Route results live in memory only
	routeCache := cache.NewMemory()

	executor := tools.NewExecutor(tools.Config{
		Places:    placeService,
		Optimizer: routing.NewSequencer(cfg.RouteMaxPasses),
		Cache:     routeCache,
		RouteTTL:  cfg.RouteCacheTTL,
		Runs:      store.RouteRuns(),
	})

	handler := &handlers.Handler{
		Tools:     executor,
		Geocoder:  geocoder,
		Store:     store,
		Runs:      store.RouteRuns(),
		MaxPoints: cfg.RouteMaxPoints,
	}

	purger, err := NewCachePurger(cfg.CachePurgeSchedule, store.Cache(), routeCache)
	if err != nil {
		store.Close()
		return nil, err
	}

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      NewRouter(handler, cfg.RequestTimeout),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 15*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		handler:    handler,
		store:      store,
		purger:     purger,
		addr:       cfg.Addr,
	}, nil
}

// Start starts the server and returns the actual address (useful for random port)
func (s *Server) Start() (string, error) {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return "", fmt.Errorf("failed to listen: %w", err)
	}

	s.listener = listener
	actualAddr := listener.Addr().String()
	log.Printf("Starting server on %s", actualAddr)

	s.purger.Start()

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Printf("Server error: %v", err)
		}
	}()

	return actualAddr, nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.purger.Stop()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return err
	}
	return s.store.Close()
}
