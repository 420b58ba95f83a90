package store

import (
	"context"
	"log/slog"
	"time"
)

const janitorInterval = time.Hour

// StartJanitor runs a background goroutine that periodically deletes
// archived sessions past the retention window. Live sessions are unaffected;
// expiry of live sessions is the registry's job.
func StartJanitor(ctx context.Context, repo Repository, retention time.Duration) {
	ticker := time.NewTicker(janitorInterval)
	go func() {
		defer ticker.Stop()
		slog.Info("archive janitor started", "interval", janitorInterval, "retention", retention)

		for {
			select {
			case <-ticker.C:
				sweep(ctx, repo, retention)
			case <-ctx.Done():
				slog.Info("archive janitor shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}

func sweep(ctx context.Context, repo Repository, retention time.Duration) {
	deleted, err := repo.DeleteOlderThan(ctx, retention)
	if err != nil {
		slog.Error("archive janitor sweep failed", "error", err)
		return
	}
	if deleted > 0 {
		slog.Info("archive janitor removed old sessions", "count", deleted)
	}
}
