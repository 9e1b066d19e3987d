package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/zapmercado/order-bridge/internal/biz/repo"
)

// Cleaner periodically purges expired rows from the store. Expiry is
// enforced lazily at read time, so this only reclaims space.
type Cleaner struct {
	store    repo.Cleaner
	interval time.Duration
	log      zerolog.Logger
	stop     chan struct{}
	done     chan struct{}
}

// NewCleaner creates a cleanup loop over a purgeable store.
func NewCleaner(store repo.Cleaner, interval time.Duration, log zerolog.Logger) *Cleaner {
	return &Cleaner{
		store:    store,
		interval: interval,
		log:      log,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start runs the loop until Stop is called.
func (c *Cleaner) Start() {
	go func() {
		defer close(c.done)
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()
		for {
			select {
			case <-c.stop:
				return
			case <-ticker.C:
				c.purge()
			}
		}
	}()
}

// Stop halts the loop and waits for it to exit.
func (c *Cleaner) Stop() {
	close(c.stop)
	<-c.done
}

func (c *Cleaner) purge() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	purged, err := c.store.PurgeExpired(ctx)
	if err != nil {
		c.log.Error().Err(err).Msg("store purge failed")
		return
	}
	if purged > 0 {
		c.log.Debug().Int64("rows", purged).Msg("expired rows purged")
	}
}
