// Package config loads application configuration from environment variables,
// optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration values for the server
type Config struct {
	// Addr is the listen address. Defaults to "127.0.0.1:8080".
	Addr string
	// DBPath is the SQLite database file. Defaults to ~/.citybites/citybites.db.
	DBPath string

	NominatimURL      string
	OverpassEndpoints []string
	UserAgent         string

	GeocodeCacheTTL  time.Duration
	OverpassCacheTTL time.Duration
	RouteCacheTTL    time.Duration

	// RouteMaxPasses caps 2-opt passes per optimization
	RouteMaxPasses int
	// RouteMaxPoints caps the number of points accepted by the HTTP API
	RouteMaxPoints int

	RequestTimeout time.Duration
	HTTPAttempts   int
	HTTPBaseDelay  time.Duration

	// CachePurgeSchedule is a cron spec for expired cache cleanup
	CachePurgeSchedule string
}

// Load reads a .env file from the working directory when present, then
// builds a Config from the environment. Invalid values are reported together.
func Load() (Config, error) {
	return LoadFile(".env")
}

// LoadFile is Load with an explicit .env path. A missing file is not an error.
func LoadFile(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return Config{}, fmt.Errorf("failed to load %s: %w", envFile, err)
			}
		} else {
			log.Printf("[CONFIG] Loaded environment from %s", envFile)
		}
	}

	p := &parser{}
	cfg := Config{
		Addr:               getEnv("SERVER_ADDR", "127.0.0.1:8080"),
		DBPath:             os.Getenv("DB_PATH"),
		NominatimURL:       getEnv("NOMINATIM_URL", "https://nominatim.openstreetmap.org"),
		OverpassEndpoints:  splitCSV(os.Getenv("OVERPASS_ENDPOINTS")),
		UserAgent:          getEnv("OVERPASS_USER_AGENT", "CityBites/1.0 (route planner)"),
		GeocodeCacheTTL:    p.duration("GEOCODE_CACHE_TTL", 24*time.Hour),
		OverpassCacheTTL:   p.duration("OVERPASS_CACHE_TTL", 24*time.Hour),
		RouteCacheTTL:      p.duration("ROUTE_CACHE_TTL", time.Hour),
		RouteMaxPasses:     p.integer("ROUTE_MAX_PASSES", 2000),
		RouteMaxPoints:     p.integer("ROUTE_MAX_POINTS", 300),
		RequestTimeout:     p.duration("REQUEST_TIMEOUT", 30*time.Second),
		HTTPAttempts:       p.integer("HTTP_ATTEMPTS", 3),
		HTTPBaseDelay:      p.duration("HTTP_BASE_DELAY", 300*time.Millisecond),
		CachePurgeSchedule: getEnv("CACHE_PURGE_SCHEDULE", "@every 1h"),
	}

	if len(p.invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variables: %s", strings.Join(p.invalid, ", "))
	}

	if cfg.DBPath == "" {
		path, err := DefaultDBPath()
		if err != nil {
			return Config{}, err
		}
		cfg.DBPath = path
	}

	return cfg, nil
}

type parser struct {
	invalid []string
}

func (p *parser) duration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		p.invalid = append(p.invalid, key)
		return fallback
	}
	return d
}

func (p *parser) integer(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		p.invalid = append(p.invalid, key)
		return fallback
	}
	return n
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
