package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/dom/jumbah-travel/internal/service"
	"github.com/dom/jumbah-travel/internal/testutil"
	"github.com/stretchr/testify/assert"
)

type fakePinger struct{ err error }

func (p fakePinger) PingContext(context.Context) error { return p.err }

func TestHealthService_Check(t *testing.T) {
	tests := []struct {
		name         string
		available    bool
		pingErr      error
		wantStatus   string
		wantAI       string
		wantDatabase string
	}{
		{name: "all up", available: true, wantStatus: "healthy", wantAI: "available", wantDatabase: "ok"},
		{name: "no credential", available: false, wantStatus: "healthy", wantAI: "unavailable", wantDatabase: "ok"},
		{name: "database down", available: true, pingErr: errors.New("connection refused"), wantStatus: "degraded", wantAI: "available", wantDatabase: "unreachable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &testutil.FakeGenerator{Unavailable: !tt.available}
			health := service.NewHealthService(fakePinger{tt.pingErr}, gen)

			status := health.Check(context.Background())
			assert.Equal(t, tt.wantStatus, status.Status)
			assert.Equal(t, tt.wantAI, status.GeminiAI)
			assert.Equal(t, tt.wantDatabase, status.Database)
			assert.Equal(t, service.ServiceName, status.Service)
			assert.Equal(t, "fake", status.Provider)
			assert.False(t, status.Timestamp.IsZero())
		})
	}
}
