package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Failover serves from the primary cache until it fails, then falls back to
// the secondary and probes the primary again after a recovery window.
type Failover struct {
	primary  Cache
	fallback Cache
	logger   *zerolog.Logger

	isDown    atomic.Bool
	mu        sync.Mutex
	lastCheck time.Time
}

const recoveryWindow = time.Minute

func NewFailover(primary, fallback Cache, logger *zerolog.Logger) *Failover {
	return &Failover{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (f *Failover) markDown(err error) {
	f.logger.Error().Err(err).Msg("Primary cache failed, falling back to memory")
	f.isDown.Store(true)
	f.mu.Lock()
	f.lastCheck = time.Now()
	f.mu.Unlock()
}

func (f *Failover) shouldProbe() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if time.Since(f.lastCheck) < recoveryWindow {
		return false
	}
	f.lastCheck = time.Now()
	return true
}

func (f *Failover) Get(ctx context.Context, key string, out any) (bool, error) {
	if !f.isDown.Load() {
		ok, err := f.primary.Get(ctx, key, out)
		if err == nil {
			return ok, nil
		}
		f.markDown(err)
	} else if f.shouldProbe() {
		ok, err := f.primary.Get(ctx, key, out)
		if err == nil {
			f.isDown.Store(false)
			return ok, nil
		}
	}

	return f.fallback.Get(ctx, key, out)
}

func (f *Failover) Set(ctx context.Context, key string, val any) error {
	if !f.isDown.Load() {
		err := f.primary.Set(ctx, key, val)
		if err == nil {
			return nil
		}
		f.markDown(err)
	}

	return f.fallback.Set(ctx, key, val)
}

func (f *Failover) Invalidate(ctx context.Context, key string) error {
	// Invalidation must reach both backends; a stale entry surviving in the
	// fallback would outlive the staleness window after a failover flip.
	var primaryErr error
	if !f.isDown.Load() {
		if primaryErr = f.primary.Invalidate(ctx, key); primaryErr != nil {
			f.markDown(primaryErr)
		}
	}
	return f.fallback.Invalidate(ctx, key)
}

func (f *Failover) InvalidatePrefix(ctx context.Context, prefix string) error {
	var primaryErr error
	if !f.isDown.Load() {
		if primaryErr = f.primary.InvalidatePrefix(ctx, prefix); primaryErr != nil {
			f.markDown(primaryErr)
		}
	}
	return f.fallback.InvalidatePrefix(ctx, prefix)
}
