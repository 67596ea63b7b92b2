package telegraph

import (
	"context"
	"log"
	"time"
)

// Backoff is how an adapter retries rate-limited calls.
type Backoff struct {
	Retries int           // retries after the first attempt
	Base    time.Duration // first wait when the platform gives no hint
	Max     time.Duration // cap on any single wait; zero means no cap
}

// DefaultBackoff is used by the Slack and Discord adapters.
var DefaultBackoff = Backoff{Retries: 3, Base: 2 * time.Second, Max: 2 * time.Minute}

// RateLimit reports whether err is a rate limit and the wait the platform
// asked for, zero if it gave none.
type RateLimit func(err error) (time.Duration, bool)

// Do calls fn until it succeeds, fails with an error limited does not
// recognise, or the retries run out. Waits double from Base unless the
// platform hints otherwise. ctx cancellation ends the wait early.
func (b Backoff) Do(ctx context.Context, platform string, limited RateLimit, fn func() error) error {
	for attempt := 0; ; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		hint, ok := limited(err)
		if !ok || attempt >= b.Retries {
			return err
		}

		wait := hint
		if wait <= 0 {
			wait = b.Base << attempt
		}
		if b.Max > 0 && wait > b.Max {
			wait = b.Max
		}
		log.Printf("%s: rate limited (attempt %d/%d), retrying in %v", platform, attempt+1, b.Retries, wait)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
