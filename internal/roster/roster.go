// Package roster caches the pilot's assigned flights.
package roster

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/zulandar/flightbag/internal/flight"
	"github.com/zulandar/flightbag/internal/gateway"
)

// cronParser uses standard 5-field cron expressions (minute, hour, dom, month, dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Fetcher retrieves the roster. gateway.Gateway satisfies it; it always
// returns a usable list, falling back to the sample roster on failure.
type Fetcher interface {
	FetchRoster(ctx context.Context) ([]flight.Flight, gateway.Result)
}

// Cache holds the last fetched roster.
type Cache struct {
	fetcher   Fetcher
	onRefresh func([]flight.Flight, gateway.Result)

	mu          sync.RWMutex
	flights     []flight.Flight
	refreshedAt time.Time
	last        gateway.Result
}

// Opts holds parameters for creating a Cache.
type Opts struct {
	Fetcher Fetcher
	// OnRefresh, if set, is called after every refresh with the new roster.
	OnRefresh func([]flight.Flight, gateway.Result)
}

// New creates a Cache. It starts empty; Current serves the sample roster
// until the first Refresh.
func New(opts Opts) (*Cache, error) {
	if opts.Fetcher == nil {
		return nil, fmt.Errorf("roster: fetcher is required")
	}
	return &Cache{fetcher: opts.Fetcher, onRefresh: opts.OnRefresh}, nil
}

// Refresh fetches the roster and replaces the cache with the result, which
// may be the sample fallback.
func (c *Cache) Refresh(ctx context.Context) ([]flight.Flight, gateway.Result) {
	flights, res := c.fetcher.FetchRoster(ctx)
	if flights == nil {
		flights = []flight.Flight{}
	}

	c.mu.Lock()
	c.flights = flights
	c.refreshedAt = time.Now()
	c.last = res
	out := c.copyLocked()
	c.mu.Unlock()

	if c.onRefresh != nil {
		c.onRefresh(out, res)
	}
	return out, res
}

// Current returns the cached roster, or the sample roster if Refresh has
// never run.
func (c *Cache) Current() []flight.Flight {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.refreshedAt.IsZero() {
		return flight.SampleRoster()
	}
	return c.copyLocked()
}

// Find looks up a flight in the current roster.
func (c *Cache) Find(id string) (flight.Flight, bool) {
	return flight.Find(c.Current(), id)
}

// RefreshedAt is the time of the last refresh, zero if never refreshed.
func (c *Cache) RefreshedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.refreshedAt
}

// LastResult is the gateway outcome of the last refresh.
func (c *Cache) LastResult() gateway.Result {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.last
}

func (c *Cache) copyLocked() []flight.Flight {
	return append([]flight.Flight{}, c.flights...)
}

// ValidateCron checks a 5-field cron expression.
func ValidateCron(expr string) error {
	if _, err := cronParser.Parse(expr); err != nil {
		return fmt.Errorf("roster: invalid cron expression %q: %w", expr, err)
	}
	return nil
}

// Schedule refreshes the roster whenever expr fires, until ctx is done. It
// blocks; run it in its own goroutine.
func (c *Cache) Schedule(ctx context.Context, expr string) error {
	sched, err := cronParser.Parse(expr)
	if err != nil {
		return fmt.Errorf("roster: invalid cron expression %q: %w", expr, err)
	}

	timer := time.NewTimer(time.Until(sched.Next(time.Now())))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
			flights, res := c.Refresh(ctx)
			if res.OK {
				log.Printf("roster: scheduled refresh loaded %d flights", len(flights))
			}
			timer.Reset(time.Until(sched.Next(time.Now())))
		}
	}
}
