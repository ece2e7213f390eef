package api

import (
	"context"
	"net/http"

	"github.com/dom/jumbah-travel/internal/api/handlers"
	"github.com/dom/jumbah-travel/internal/api/middleware"
	"github.com/dom/jumbah-travel/internal/config"
	"github.com/dom/jumbah-travel/internal/metrics"
	"github.com/dom/jumbah-travel/internal/service"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"
)

// NewRouter builds the HTTP surface. ctx bounds the lifetime of chat sockets,
// which outlive the request that opened them.
func NewRouter(ctx context.Context, services *service.Services, m *metrics.Metrics, cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(m.Middleware)

	authHandler := handlers.NewAuthHandler(services.Auth)
	quizHandler := handlers.NewQuizHandler(services.Quiz, services.Score)
	chatHandler := handlers.NewChatHandler(services.Chat)
	plannerHandler := handlers.NewPlannerHandler(services.Planner)
	systemHandler := handlers.NewSystemHandler(services.Health, services.Attractions)

	// Generation routes and socket frames share one per-IP budget
	limiter := middleware.NewIPRateLimiter(rate.Limit(cfg.ChatRateLimit), cfg.ChatRateBurst)
	limited := middleware.RateLimit(limiter)
	wsHandler := handlers.NewWebSocketHandler(ctx, services.Chat, cfg.CORSOrigins, limiter)

	r.Get("/", systemHandler.Root)
	r.Get("/health", systemHandler.Health)
	r.Get("/attractions", systemHandler.Attractions)
	r.Method(http.MethodGet, "/metrics", m.Handler())

	// Accounts and quiz
	r.Post("/register", authHandler.Register)
	r.Post("/login", authHandler.Login)
	r.Get("/quiz", quizHandler.Questions)
	r.Get("/leaderboard", quizHandler.Leaderboard)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(services.Auth))
		r.Get("/profile", authHandler.Profile)
		r.Post("/scores", quizHandler.SubmitScore)
	})

	// Chat
	r.Route("/chatbot", func(r chi.Router) {
		r.Get("/info", chatHandler.Info)
		r.Get("/sessions", chatHandler.ListSessions)
		r.Post("/session/new", chatHandler.NewSession)
		r.Get("/session/{id}", chatHandler.GetSession)
		r.Delete("/session/{id}", chatHandler.DeleteSession)

		r.Group(func(r chi.Router) {
			r.Use(limited)
			r.Post("/chat", chatHandler.Chat)
			r.Get("/ws", wsHandler.Handle)
		})
	})

	// Planning
	r.Group(func(r chi.Router) {
		r.Use(limited)
		r.Post("/generate-itinerary", plannerHandler.Itinerary)
		r.Post("/flight-recommendations", plannerHandler.Flights)
		r.Post("/travel-recommendations", plannerHandler.Recommendations)
	})

	return r
}
