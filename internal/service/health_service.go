package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/dom/jumbah-travel/internal/genai"
)

const ServiceName = "JumBah AI Chatbot"

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthStatus struct {
	Status    string    `json:"status"`
	Service   string    `json:"service"`
	GeminiAI  string    `json:"gemini_ai"`
	Provider  string    `json:"provider"`
	Database  string    `json:"database"`
	Timestamp time.Time `json:"timestamp"`
}

type HealthService struct {
	db        Pinger
	generator genai.Generator
	now       func() time.Time
}

func NewHealthService(db Pinger, generator genai.Generator) *HealthService {
	return &HealthService{db: db, generator: generator, now: time.Now}
}

// Check never fails. A missing generation credential is reported, not fatal;
// an unreachable database marks the service degraded.
func (s *HealthService) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "healthy",
		Service:   ServiceName,
		GeminiAI:  "unavailable",
		Provider:  s.generator.Provider(),
		Database:  "ok",
		Timestamp: s.now(),
	}
	if s.generator.Available() {
		status.GeminiAI = "available"
	}

	if s.db != nil {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := s.db.PingContext(pingCtx); err != nil {
			slog.Warn("health: database ping failed", "error", err)
			status.Database = "unreachable"
			status.Status = "degraded"
		}
	}
	return status
}
