package order

import (
	"context"
	"time"
)

// SweepExpired deletes abandoned checkouts: orders still created or in error
// after the unpaid TTL, and orders still placed after the placed TTL.
// Nothing was taken out of inventory for them, so deletion is all there is
// to do.
func (m *Manager) SweepExpired(ctx context.Context) (int64, error) {
	now := m.now()
	deleted, err := m.store.DeleteExpired(ctx, now.Add(-m.unpaidTTL), now.Add(-m.placedTTL))
	if err != nil {
		return 0, internalError("sweep expired orders", err)
	}
	if deleted > 0 {
		m.logger.InfoContext(ctx, "expired orders deleted", "count", deleted)
	}
	return deleted, nil
}

// RunSweeper calls SweepExpired every interval until ctx is done.
func (m *Manager) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := m.SweepExpired(ctx); err != nil {
				m.logger.ErrorContext(ctx, "scheduled expiry sweep failed", "error", err)
			}
		}
	}
}
