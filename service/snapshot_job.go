package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// StartSnapshotJob persists the resting state on a fixed interval and, on
// the same cadence, prunes emptied price levels and flushes the journal.
func (e *Engine) StartSnapshotJob(ctx context.Context, interval time.Duration) {
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if err := e.Snapshot(); err != nil {
					e.log.Error("snapshot", zap.Error(err))
					continue
				}
				e.Maintain()
				if err := e.Sync(); err != nil {
					e.log.Error("journal sync", zap.Error(err))
				}
			}
		}
	}()
}
