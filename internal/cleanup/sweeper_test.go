package cleanup

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/therealutkarshpriyadarshi/downloader/internal/logging"
)

type countingPurger struct {
	calls atomic.Int32
	err   error
}

func (p *countingPurger) PurgeExpired(ctx context.Context) (int64, error) {
	p.calls.Add(1)
	return 2, p.err
}

func TestSessionSweeper_RunsImmediatelyAndStops(t *testing.T) {
	purger := &countingPurger{}
	sweeper := NewSessionSweeper(purger, time.Hour, logging.NewNopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	sweeper.Start(ctx)

	assert.Eventually(t, func() bool { return purger.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	done := make(chan struct{})
	go func() {
		sweeper.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after cancellation")
	}
}

func TestSessionSweeper_Ticks(t *testing.T) {
	purger := &countingPurger{err: errors.New("db down")}
	sweeper := NewSessionSweeper(purger, 10*time.Millisecond, logging.NewNopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sweeper.Start(ctx)

	assert.Eventually(t, func() bool { return purger.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
}
