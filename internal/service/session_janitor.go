package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/dom/jumbah-travel/internal/repository"
)

// SessionObserver receives session counts after each sweep.
type SessionObserver interface {
	SetChatSessions(n int)
	AddEvicted(n int)
}

// StartSessionJanitor runs a background goroutine that evicts chat sessions
// idle for longer than ttl. A zero ttl disables eviction but the session
// gauge is still refreshed.
func StartSessionJanitor(ctx context.Context, store repository.ChatSessionStore, ttl, interval time.Duration, obs SessionObserver) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		slog.Info("Session janitor started", "interval", interval, "ttl", ttl)

		for {
			select {
			case <-ticker.C:
				if _, err := SweepIdleSessions(ctx, store, ttl, obs); err != nil && ctx.Err() == nil {
					slog.Error("Session janitor sweep failed", "error", err)
				}
			case <-ctx.Done():
				slog.Info("Session janitor shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}

// SweepIdleSessions performs one eviction pass and returns how many sessions
// were removed.
func SweepIdleSessions(ctx context.Context, store repository.ChatSessionStore, ttl time.Duration, obs SessionObserver) (int, error) {
	evicted := 0
	if ttl > 0 {
		n, err := store.DeleteIdleSince(ctx, time.Now().Add(-ttl))
		if err != nil {
			return 0, err
		}
		evicted = n
		if n > 0 {
			slog.Info("Session janitor evicted idle sessions", "count", n)
		}
	}

	if obs != nil {
		obs.AddEvicted(evicted)
		sessions, err := store.List(ctx)
		if err != nil {
			return evicted, err
		}
		obs.SetChatSessions(len(sessions))
	}
	return evicted, nil
}
