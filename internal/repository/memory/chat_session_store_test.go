package memory

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

func TestChatSessionStore_CreateAndGet(t *testing.T) {
	store := NewChatSessionStore()
	ctx := context.Background()

	a, err := store.Create(ctx)
	require.NoError(t, err)
	b, err := store.Create(ctx)
	require.NoError(t, err)

	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Empty(t, a.Transcript)
	assert.Empty(t, a.Context)

	got, err := store.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)

	_, err = store.Get(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrSessionNotFound)
}

func TestChatSessionStore_AppendTurns(t *testing.T) {
	store := NewChatSessionStore()
	ctx := context.Background()

	session, err := store.Create(ctx)
	require.NoError(t, err)

	now := time.Now()
	err = store.AppendTurns(ctx, session.ID,
		domain.Turn{Role: domain.RoleUser, Content: "Hi", Timestamp: now},
		domain.Turn{Role: domain.RoleAssistant, Content: "Hello!", Timestamp: now},
	)
	require.NoError(t, err)
	require.NoError(t, store.AppendTurns(ctx, session.ID, domain.Turn{Role: domain.RoleUser, Content: "Food?"}))

	got, err := store.Get(ctx, session.ID)
	require.NoError(t, err)
	require.Len(t, got.Transcript, 3)
	assert.Equal(t, "Hi", got.Transcript[0].Content)
	assert.Equal(t, domain.RoleAssistant, got.Transcript[1].Role)
	assert.Equal(t, "Food?", got.Transcript[2].Content)

	err = store.AppendTurns(ctx, "missing", domain.Turn{Role: domain.RoleUser, Content: "x"})
	assert.ErrorIs(t, err, repository.ErrSessionNotFound)
}

func TestChatSessionStore_GetReturnsCopy(t *testing.T) {
	store := NewChatSessionStore()
	ctx := context.Background()

	session, _ := store.Create(ctx)
	require.NoError(t, store.AppendTurns(ctx, session.ID, domain.Turn{Role: domain.RoleUser, Content: "original"}))

	got, _ := store.Get(ctx, session.ID)
	got.Transcript[0].Content = "mutated"
	got.Context["leak"] = true

	again, _ := store.Get(ctx, session.ID)
	assert.Equal(t, "original", again.Transcript[0].Content)
	assert.NotContains(t, again.Context, "leak")
}

func TestChatSessionStore_MergeContext(t *testing.T) {
	store := NewChatSessionStore()
	ctx := context.Background()

	session, _ := store.Create(ctx)

	merged, err := store.MergeContext(ctx, session.ID, map[string]any{
		"budget":      "low",
		"preferences": map[string]any{"diet": "halal"},
	})
	require.NoError(t, err)
	assert.Equal(t, "low", merged["budget"])

	merged, err = store.MergeContext(ctx, session.ID, map[string]any{
		"budget":      "high",
		"preferences": map[string]any{"pace": "slow"},
	})
	require.NoError(t, err)
	assert.Equal(t, "high", merged["budget"])
	// shallow: nested maps are replaced, not merged
	assert.Equal(t, map[string]any{"pace": "slow"}, merged["preferences"])

	_, err = store.MergeContext(ctx, "missing", map[string]any{"a": 1})
	assert.ErrorIs(t, err, repository.ErrSessionNotFound)
}

func TestChatSessionStore_Delete(t *testing.T) {
	store := NewChatSessionStore()
	ctx := context.Background()

	session, _ := store.Create(ctx)

	require.NoError(t, store.Delete(ctx, session.ID))
	assert.ErrorIs(t, store.Delete(ctx, session.ID), repository.ErrSessionNotFound)

	_, err := store.Get(ctx, session.ID)
	assert.ErrorIs(t, err, repository.ErrSessionNotFound)
}

func TestChatSessionStore_List(t *testing.T) {
	store := NewChatSessionStore()
	ctx := context.Background()

	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	store.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	first, _ := store.Create(ctx)
	second, _ := store.Create(ctx)
	require.NoError(t, store.AppendTurns(ctx, second.ID,
		domain.Turn{Role: domain.RoleUser, Content: "a"},
		domain.Turn{Role: domain.RoleAssistant, Content: "b"},
	))

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, domain.SessionSummary{ID: first.ID, MessageCount: 0}, list[0])
	assert.Equal(t, domain.SessionSummary{ID: second.ID, MessageCount: 2}, list[1])
}

func TestChatSessionStore_DeleteIdleSince(t *testing.T) {
	store := NewChatSessionStore()
	ctx := context.Background()

	current := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return current }

	stale, _ := store.Create(ctx)

	current = current.Add(2 * time.Hour)
	fresh, _ := store.Create(ctx)

	deleted, err := store.DeleteIdleSince(ctx, current.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	_, err = store.Get(ctx, stale.ID)
	assert.ErrorIs(t, err, repository.ErrSessionNotFound)
	_, err = store.Get(ctx, fresh.ID)
	assert.NoError(t, err)
}

func TestChatSessionStore_ConcurrentAppends(t *testing.T) {
	store := NewChatSessionStore()
	ctx := context.Background()

	session, _ := store.Create(ctx)

	const writers = 20
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = store.AppendTurns(ctx, session.ID,
				domain.Turn{Role: domain.RoleUser, Content: fmt.Sprintf("q%d", i)},
				domain.Turn{Role: domain.RoleAssistant, Content: fmt.Sprintf("a%d", i)},
			)
		}(i)
	}
	wg.Wait()

	got, err := store.Get(ctx, session.ID)
	require.NoError(t, err)
	require.Len(t, got.Transcript, 2*writers)

	// each pair stays adjacent
	for i := 0; i < len(got.Transcript); i += 2 {
		q := got.Transcript[i].Content
		a := got.Transcript[i+1].Content
		assert.Equal(t, "a"+q[1:], a)
	}
}
