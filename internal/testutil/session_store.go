package testutil

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dom/jumbah-travel/internal/domain"
	"github.com/dom/jumbah-travel/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunChatSessionStoreTests checks the behaviour every ChatSessionStore
// implementation shares. newStore must return an empty store.
func RunChatSessionStoreTests(t *testing.T, newStore func(t *testing.T) repository.ChatSessionStore) {
	t.Run("create and get", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		a, err := store.Create(ctx)
		require.NoError(t, err)
		b, err := store.Create(ctx)
		require.NoError(t, err)
		assert.NotEqual(t, a.ID, b.ID)

		got, err := store.Get(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, a.ID, got.ID)
		assert.Empty(t, got.Transcript)
		assert.Empty(t, got.Context)
		assert.WithinDuration(t, a.CreatedAt, got.CreatedAt, time.Millisecond)
	})

	t.Run("missing session", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		missing := repository.NewSessionID()

		_, err := store.Get(ctx, missing)
		assert.ErrorIs(t, err, repository.ErrSessionNotFound)

		err = store.AppendTurns(ctx, missing, domain.Turn{Role: domain.RoleUser, Content: "hi"})
		assert.ErrorIs(t, err, repository.ErrSessionNotFound)

		_, err = store.MergeContext(ctx, missing, map[string]any{"a": "b"})
		assert.ErrorIs(t, err, repository.ErrSessionNotFound)

		assert.ErrorIs(t, store.Delete(ctx, missing), repository.ErrSessionNotFound)
	})

	t.Run("append keeps order", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		session, err := store.Create(ctx)
		require.NoError(t, err)

		now := time.Now().UTC().Truncate(time.Millisecond)
		for i := 0; i < 3; i++ {
			err := store.AppendTurns(ctx, session.ID,
				domain.Turn{Role: domain.RoleUser, Content: fmt.Sprintf("q%d", i), Timestamp: now},
				domain.Turn{Role: domain.RoleAssistant, Content: fmt.Sprintf("a%d", i), Timestamp: now},
			)
			require.NoError(t, err)
		}

		got, err := store.Get(ctx, session.ID)
		require.NoError(t, err)
		require.Len(t, got.Transcript, 6)
		for i := 0; i < 3; i++ {
			assert.Equal(t, domain.RoleUser, got.Transcript[2*i].Role)
			assert.Equal(t, fmt.Sprintf("q%d", i), got.Transcript[2*i].Content)
			assert.Equal(t, domain.RoleAssistant, got.Transcript[2*i+1].Role)
			assert.Equal(t, fmt.Sprintf("a%d", i), got.Transcript[2*i+1].Content)
			assert.True(t, now.Equal(got.Transcript[2*i].Timestamp))
		}
		assert.False(t, got.LastActivity.Before(got.CreatedAt))
	})

	t.Run("merge context is shallow", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		session, err := store.Create(ctx)
		require.NoError(t, err)

		_, err = store.MergeContext(ctx, session.ID, map[string]any{
			"budget":   "low",
			"location": map[string]any{"city": "Kota Kinabalu", "area": "Gaya"},
		})
		require.NoError(t, err)

		merged, err := store.MergeContext(ctx, session.ID, map[string]any{
			"location": map[string]any{"city": "Sandakan"},
			"days":     float64(3),
		})
		require.NoError(t, err)

		want := map[string]any{
			"budget":   "low",
			"location": map[string]any{"city": "Sandakan"},
			"days":     float64(3),
		}
		assert.Equal(t, want, merged)

		got, err := store.Get(ctx, session.ID)
		require.NoError(t, err)
		assert.Equal(t, want, got.Context)
	})

	t.Run("delete twice", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		session, err := store.Create(ctx)
		require.NoError(t, err)

		require.NoError(t, store.Delete(ctx, session.ID))
		assert.ErrorIs(t, store.Delete(ctx, session.ID), repository.ErrSessionNotFound)

		_, err = store.Get(ctx, session.ID)
		assert.ErrorIs(t, err, repository.ErrSessionNotFound)
	})

	t.Run("list counts messages", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		first, err := store.Create(ctx)
		require.NoError(t, err)
		time.Sleep(5 * time.Millisecond)
		second, err := store.Create(ctx)
		require.NoError(t, err)

		require.NoError(t, store.AppendTurns(ctx, second.ID,
			domain.Turn{Role: domain.RoleUser, Content: "hi"},
			domain.Turn{Role: domain.RoleAssistant, Content: "hello"},
		))

		list, err := store.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []domain.SessionSummary{
			{ID: first.ID, MessageCount: 0},
			{ID: second.ID, MessageCount: 2},
		}, list)
	})

	t.Run("delete idle", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		stale, err := store.Create(ctx)
		require.NoError(t, err)
		time.Sleep(20 * time.Millisecond)
		cutoff := time.Now()
		time.Sleep(20 * time.Millisecond)
		fresh, err := store.Create(ctx)
		require.NoError(t, err)

		deleted, err := store.DeleteIdleSince(ctx, cutoff)
		require.NoError(t, err)
		assert.Equal(t, 1, deleted)

		_, err = store.Get(ctx, stale.ID)
		assert.ErrorIs(t, err, repository.ErrSessionNotFound)
		_, err = store.Get(ctx, fresh.ID)
		assert.NoError(t, err)
	})

	t.Run("activity defers idle deletion", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		session, err := store.Create(ctx)
		require.NoError(t, err)
		time.Sleep(20 * time.Millisecond)
		cutoff := time.Now()
		time.Sleep(20 * time.Millisecond)
		require.NoError(t, store.AppendTurns(ctx, session.ID, domain.Turn{Role: domain.RoleUser, Content: "still here"}))

		deleted, err := store.DeleteIdleSince(ctx, cutoff)
		require.NoError(t, err)
		assert.Zero(t, deleted)

		_, err = store.Get(ctx, session.ID)
		assert.NoError(t, err)
	})

	t.Run("concurrent appends", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		session, err := store.Create(ctx)
		require.NoError(t, err)

		const writers = 10
		var wg sync.WaitGroup
		errs := make(chan error, writers)
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				errs <- store.AppendTurns(ctx, session.ID,
					domain.Turn{Role: domain.RoleUser, Content: fmt.Sprintf("q%d", i)},
					domain.Turn{Role: domain.RoleAssistant, Content: fmt.Sprintf("a%d", i)},
				)
			}(i)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		got, err := store.Get(ctx, session.ID)
		require.NoError(t, err)
		require.Len(t, got.Transcript, 2*writers)
		for i := 0; i < len(got.Transcript); i += 2 {
			q, a := got.Transcript[i].Content, got.Transcript[i+1].Content
			assert.Equal(t, "a"+q[1:], a, "turn pair split at %d", i)
		}
	})
}
