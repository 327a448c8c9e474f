package services

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Background runs best-effort work detached from the request that caused it.
// Each task gets its own timeout, errors and panics are logged and dropped.
type Background struct {
	wg      sync.WaitGroup
	timeout time.Duration
	logger  zerolog.Logger
}

// NewBackground creates a runner whose tasks are bounded by timeout
func NewBackground(timeout time.Duration, logger zerolog.Logger) *Background {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Background{timeout: timeout, logger: logger}
}

// Go starts fn in its own goroutine and returns immediately
func (b *Background) Go(name string, fn func(ctx context.Context) error) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				b.logger.Error().Str("task", name).Interface("panic", r).Msg("Background task panicked")
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
		defer cancel()

		if err := fn(ctx); err != nil {
			b.logger.Error().Err(err).Str("task", name).Msg("Background task failed")
		}
	}()
}

// Wait blocks until every started task has finished or ctx is done
func (b *Background) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
