package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dom/jumbah-travel/internal/genai"
	"github.com/dom/jumbah-travel/internal/prompt"
)

var ErrInvalidPlanRequest = errors.New("invalid planning request")

// PlannerService answers the single-shot planning requests. Nothing is
// stored; the model's text is returned as is.
type PlannerService struct {
	generator genai.Generator
	timeout   time.Duration
}

func NewPlannerService(generator genai.Generator, timeout time.Duration) *PlannerService {
	return &PlannerService{generator: generator, timeout: timeout}
}

func (s *PlannerService) Itinerary(ctx context.Context, p prompt.ItineraryParams) (string, error) {
	if strings.TrimSpace(p.Duration) == "" {
		return "", fmt.Errorf("%w: duration is required", ErrInvalidPlanRequest)
	}
	if p.GroupSize < 0 {
		return "", fmt.Errorf("%w: group_size must be positive", ErrInvalidPlanRequest)
	}
	return s.run(ctx, p)
}

func (s *PlannerService) Flights(ctx context.Context, p prompt.FlightParams) (string, error) {
	if strings.TrimSpace(p.Origin) == "" {
		return "", fmt.Errorf("%w: origin is required", ErrInvalidPlanRequest)
	}
	if strings.TrimSpace(p.DepartureDate) == "" {
		return "", fmt.Errorf("%w: departure_date is required", ErrInvalidPlanRequest)
	}
	if p.Passengers < 0 {
		return "", fmt.Errorf("%w: passengers must be positive", ErrInvalidPlanRequest)
	}
	return s.run(ctx, p)
}

func (s *PlannerService) Recommendations(ctx context.Context, p prompt.RecommendationParams) (string, error) {
	if strings.TrimSpace(p.Query) == "" {
		return "", fmt.Errorf("%w: query is required", ErrInvalidPlanRequest)
	}
	return s.run(ctx, p)
}

func (s *PlannerService) run(ctx context.Context, req prompt.Request) (string, error) {
	if !s.generator.Available() {
		return "", genai.ErrUnavailable
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return s.generator.Generate(ctx, prompt.Specialized(req))
}
