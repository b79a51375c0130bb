package cleanup

import (
	"context"
	"time"

	"github.com/therealutkarshpriyadarshi/downloader/internal/logging"
	"github.com/therealutkarshpriyadarshi/downloader/internal/metrics"
)

// Purger removes expired sessions and reports how many were deleted
type Purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// SessionSweeper periodically deletes expired sessions. Expiry is still
// checked on every request; the sweep only keeps the table small.
type SessionSweeper struct {
	purger   Purger
	interval time.Duration
	logger   *logging.Logger
	done     chan struct{}
}

// NewSessionSweeper creates a new sweeper
func NewSessionSweeper(purger Purger, interval time.Duration, logger *logging.Logger) *SessionSweeper {
	return &SessionSweeper{
		purger:   purger,
		interval: interval,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Start begins the sweep loop in a background goroutine
func (s *SessionSweeper) Start(ctx context.Context) {
	s.logger.WithField("interval", s.interval.String()).Info("Session sweeper started")

	go func() {
		defer close(s.done)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		// Run once immediately on start
		s.sweep(ctx)

		for {
			select {
			case <-ticker.C:
				s.sweep(ctx)
			case <-ctx.Done():
				s.logger.Info("Session sweeper stopping")
				return
			}
		}
	}()
}

// Wait blocks until the sweeper has fully stopped
func (s *SessionSweeper) Wait() {
	<-s.done
}

func (s *SessionSweeper) sweep(ctx context.Context) {
	n, err := s.purger.PurgeExpired(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.WithError(err).Error("Failed to purge expired sessions")
		}
		return
	}

	metrics.RecordSessionsSwept(n)
	if n > 0 {
		s.logger.WithField("purged", n).Info("Expired sessions purged")
	}
}
