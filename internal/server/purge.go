package server

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"citybites/internal/cache"
)

// CachePurger periodically removes expired cache entries
type CachePurger struct {
	cronScheduler *cron.Cron
	caches        []cache.Cache
	jobID         cron.EntryID
}

// NewCachePurger schedules a purge of caches on schedule, a standard
// five-field cron spec or a descriptor such as "@every 1h"
func NewCachePurger(schedule string, caches ...cache.Cache) (*CachePurger, error) {
	p := &CachePurger{
		cronScheduler: cron.New(),
		caches:        caches,
	}

	var err error
	p.jobID, err = p.cronScheduler.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		p.Run(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("error scheduling cache purge %q: %w", schedule, err)
	}

	return p, nil
}

// Start begins running the scheduled purge in the background
func (p *CachePurger) Start() {
	p.cronScheduler.Start()
	log.Println("[CACHE] Purge scheduler started")
}

// Stop halts the scheduler and waits for a running purge to finish
func (p *CachePurger) Stop() {
	<-p.cronScheduler.Stop().Done()
	log.Println("[CACHE] Purge scheduler stopped")
}

// Run purges every cache once and returns the number of removed entries
func (p *CachePurger) Run(ctx context.Context) int {
	total := 0
	for _, c := range p.caches {
		n, err := c.Purge(ctx)
		if err != nil {
			log.Printf("[ERROR] Cache purge failed: %v", err)
			continue
		}
		total += n
	}
	log.Printf("[CACHE] Purged %d expired entries", total)
	return total
}
