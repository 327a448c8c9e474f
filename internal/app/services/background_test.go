package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackgroundWaitsForTasks(t *testing.T) {
	bg := NewBackground(time.Second, zerolog.Nop())
	var done int32

	for i := 0; i < 5; i++ {
		bg.Go("counter", func(ctx context.Context) error {
			time.Sleep(10 * time.Millisecond)
			atomic.AddInt32(&done, 1)
			return nil
		})
	}
	bg.Go("failing", func(ctx context.Context) error { return errors.New("boom") })
	bg.Go("panicking", func(ctx context.Context) error { panic("unexpected") })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, bg.Wait(ctx))
	assert.Equal(t, int32(5), atomic.LoadInt32(&done))
}

func TestBackgroundTaskHasDeadline(t *testing.T) {
	bg := NewBackground(20*time.Millisecond, zerolog.Nop())
	errCh := make(chan error, 1)

	bg.Go("slow", func(ctx context.Context) error {
		<-ctx.Done()
		errCh <- ctx.Err()
		return ctx.Err()
	})

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	case <-time.After(time.Second):
		t.Fatal("task context was never cancelled")
	}
}

func TestBackgroundWaitHonoursContext(t *testing.T) {
	bg := NewBackground(time.Minute, zerolog.Nop())
	release := make(chan struct{})
	defer close(release)

	bg.Go("blocked", func(ctx context.Context) error {
		<-release
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, bg.Wait(ctx), context.DeadlineExceeded)
}
