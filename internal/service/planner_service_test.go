package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/dom/jumbah-travel/internal/genai"
	"github.com/dom/jumbah-travel/internal/prompt"
	"github.com/dom/jumbah-travel/internal/service"
	"github.com/dom/jumbah-travel/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlannerService(t *testing.T) {
	type call func(ctx context.Context, p *service.PlannerService) (string, error)

	tests := []struct {
		name       string
		generator  *testutil.FakeGenerator
		call       call
		wantPrompt string
		wantErr    error
	}{
		{
			name:      "itinerary",
			generator: testutil.NewEchoGenerator(),
			call: func(ctx context.Context, p *service.PlannerService) (string, error) {
				return p.Itinerary(ctx, prompt.ItineraryParams{Duration: "3 days", Budget: "1500", GroupSize: 2})
			},
			wantPrompt: prompt.Itinerary(prompt.ItineraryParams{Duration: "3 days", Budget: "1500", GroupSize: 2}),
		},
		{
			name:      "itinerary without duration",
			generator: testutil.NewEchoGenerator(),
			call: func(ctx context.Context, p *service.PlannerService) (string, error) {
				return p.Itinerary(ctx, prompt.ItineraryParams{Budget: "1500"})
			},
			wantErr: service.ErrInvalidPlanRequest,
		},
		{
			name:      "itinerary with negative group",
			generator: testutil.NewEchoGenerator(),
			call: func(ctx context.Context, p *service.PlannerService) (string, error) {
				return p.Itinerary(ctx, prompt.ItineraryParams{Duration: "2 days", GroupSize: -3})
			},
			wantErr: service.ErrInvalidPlanRequest,
		},
		{
			name:      "flights",
			generator: testutil.NewEchoGenerator(),
			call: func(ctx context.Context, p *service.PlannerService) (string, error) {
				return p.Flights(ctx, prompt.FlightParams{Origin: "Singapore", DepartureDate: "2024-08-01"})
			},
			wantPrompt: prompt.Flights(prompt.FlightParams{Origin: "Singapore", DepartureDate: "2024-08-01"}),
		},
		{
			name:      "flights without origin",
			generator: testutil.NewEchoGenerator(),
			call: func(ctx context.Context, p *service.PlannerService) (string, error) {
				return p.Flights(ctx, prompt.FlightParams{DepartureDate: "2024-08-01"})
			},
			wantErr: service.ErrInvalidPlanRequest,
		},
		{
			name:      "flights with negative passengers",
			generator: testutil.NewEchoGenerator(),
			call: func(ctx context.Context, p *service.PlannerService) (string, error) {
				return p.Flights(ctx, prompt.FlightParams{Origin: "Perth", DepartureDate: "soon", Passengers: -1})
			},
			wantErr: service.ErrInvalidPlanRequest,
		},
		{
			name:      "recommendations",
			generator: testutil.NewEchoGenerator(),
			call: func(ctx context.Context, p *service.PlannerService) (string, error) {
				return p.Recommendations(ctx, prompt.RecommendationParams{Query: "Best food in KK?"})
			},
			wantPrompt: prompt.Recommendations(prompt.RecommendationParams{Query: "Best food in KK?"}),
		},
		{
			name:      "recommendations without query",
			generator: testutil.NewEchoGenerator(),
			call: func(ctx context.Context, p *service.PlannerService) (string, error) {
				return p.Recommendations(ctx, prompt.RecommendationParams{Budget: "low"})
			},
			wantErr: service.ErrInvalidPlanRequest,
		},
		{
			name:      "validation before availability",
			generator: testutil.NewUnavailableGenerator(),
			call: func(ctx context.Context, p *service.PlannerService) (string, error) {
				return p.Recommendations(ctx, prompt.RecommendationParams{})
			},
			wantErr: service.ErrInvalidPlanRequest,
		},
		{
			name:      "unavailable",
			generator: testutil.NewUnavailableGenerator(),
			call: func(ctx context.Context, p *service.PlannerService) (string, error) {
				return p.Recommendations(ctx, prompt.RecommendationParams{Query: "Sipadan permits?"})
			},
			wantErr: genai.ErrUnavailable,
		},
		{
			name:      "generation failure",
			generator: testutil.NewFailingGenerator(),
			call: func(ctx context.Context, p *service.PlannerService) (string, error) {
				return p.Flights(ctx, prompt.FlightParams{Origin: "Perth", DepartureDate: "soon"})
			},
			wantErr: genai.ErrGenerationFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			planner := service.NewPlannerService(tt.generator, time.Second)

			text, err := tt.call(context.Background(), planner)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.NotEmpty(t, text)
			assert.Equal(t, tt.wantPrompt, tt.generator.LastPrompt())
		})
	}
}
