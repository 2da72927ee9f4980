package session

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

const defaultCleanupInterval = time.Hour

// RunCleanupLoop invokes CleanupExpired on a ticker at interval (default 1h)
// until ctx is cancelled. Validate remains authoritative regardless of
// whether this loop is running (spec.md §4.8).
func (s *Store) RunCleanupLoop(ctx context.Context, interval time.Duration, log *logrus.Logger) {
	if interval <= 0 {
		interval = defaultCleanupInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.CleanupExpired(ctx)
			if err != nil {
				if log != nil {
					log.WithError(err).Warn("session cleanup sweep failed")
				}
				continue
			}
			if log != nil && n > 0 {
				log.WithField("removed", n).Debug("swept expired sessions")
			}
		}
	}
}
