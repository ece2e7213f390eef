package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dom/jumbah-travel/internal/domain"
	"github.com/dom/jumbah-travel/internal/repository/memory"
	"github.com/dom/jumbah-travel/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSessionObserver struct {
	mu       sync.Mutex
	sessions int
	evicted  int
	sweeps   int
}

func (o *recordingSessionObserver) SetChatSessions(n int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sessions = n
	o.sweeps++
}

func (o *recordingSessionObserver) AddEvicted(n int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.evicted += n
}

func (o *recordingSessionObserver) snapshot() (sessions, evicted, sweeps int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.sessions, o.evicted, o.sweeps
}

func TestSweepIdleSessions(t *testing.T) {
	store := memory.NewChatSessionStore()
	ctx := context.Background()
	obs := &recordingSessionObserver{}

	stale, err := store.Create(ctx)
	require.NoError(t, err)
	time.Sleep(60 * time.Millisecond)
	fresh, err := store.Create(ctx)
	require.NoError(t, err)

	evicted, err := service.SweepIdleSessions(ctx, store, 30*time.Millisecond, obs)
	require.NoError(t, err)
	assert.Equal(t, 1, evicted)

	_, err = store.Get(ctx, stale.ID)
	assert.Error(t, err)
	_, err = store.Get(ctx, fresh.ID)
	assert.NoError(t, err)

	sessions, total, _ := obs.snapshot()
	assert.Equal(t, 1, sessions)
	assert.Equal(t, 1, total)
}

func TestSweepIdleSessions_ActivityKeepsSessionAlive(t *testing.T) {
	store := memory.NewChatSessionStore()
	ctx := context.Background()

	session, err := store.Create(ctx)
	require.NoError(t, err)
	time.Sleep(60 * time.Millisecond)
	require.NoError(t, store.AppendTurns(ctx, session.ID, domain.Turn{Role: domain.RoleUser, Content: "still here"}))

	evicted, err := service.SweepIdleSessions(ctx, store, 30*time.Millisecond, nil)
	require.NoError(t, err)
	assert.Zero(t, evicted)
}

func TestSweepIdleSessions_ZeroTTLKeepsEverything(t *testing.T) {
	store := memory.NewChatSessionStore()
	ctx := context.Background()
	obs := &recordingSessionObserver{}

	_, err := store.Create(ctx)
	require.NoError(t, err)

	evicted, err := service.SweepIdleSessions(ctx, store, 0, obs)
	require.NoError(t, err)
	assert.Zero(t, evicted)

	sessions, _, _ := obs.snapshot()
	assert.Equal(t, 1, sessions)
}

func TestStartSessionJanitor(t *testing.T) {
	store := memory.NewChatSessionStore()
	obs := &recordingSessionObserver{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, err := store.Create(ctx)
	require.NoError(t, err)

	service.StartSessionJanitor(ctx, store, 20*time.Millisecond, 10*time.Millisecond, obs)

	assert.Eventually(t, func() bool {
		sessions, evicted, _ := obs.snapshot()
		return sessions == 0 && evicted == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	_, _, sweeps := obs.snapshot()
	time.Sleep(50 * time.Millisecond)
	_, _, after := obs.snapshot()
	assert.LessOrEqual(t, after-sweeps, 1, "janitor stops after cancel")
}
