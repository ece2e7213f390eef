package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dom/jumbah-travel/internal/api/middleware"
	"github.com/dom/jumbah-travel/internal/domain"
	"github.com/dom/jumbah-travel/internal/service"
)

type QuizHandler struct {
	quizService  *service.QuizService
	scoreService *service.ScoreService
}

func NewQuizHandler(quizService *service.QuizService, scoreService *service.ScoreService) *QuizHandler {
	return &QuizHandler{quizService: quizService, scoreService: scoreService}
}

type QuizResponse struct {
	Questions []domain.Question `json:"questions"`
}

type SubmitScoreRequest struct {
	Score *int `json:"score"`
}

type SubmitScoreResponse struct {
	Message string `json:"message"`
	Score   int    `json:"score"`
}

func (h *QuizHandler) Questions(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, QuizResponse{Questions: h.quizService.Questions()})
}

func (h *QuizHandler) SubmitScore(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req SubmitScoreRequest
	if err := decode(w, r, &req); err != nil {
		Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Score == nil {
		Error(w, http.StatusBadRequest, "Score is required")
		return
	}

	score, err := h.scoreService.Submit(r.Context(), identity.UserID, *req.Score)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrScoreOutOfRange):
			Error(w, http.StatusBadRequest, "Score must be between 0 and 100")
		case errors.Is(err, service.ErrUserNotFound):
			Error(w, http.StatusUnauthorized, "User not found")
		default:
			slog.Error("handlers.SubmitScore: failed", "error", err, "user_id", identity.UserID)
			Error(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	JSON(w, http.StatusCreated, SubmitScoreResponse{
		Message: "Score submitted successfully",
		Score:   score.Value,
	})
}

func (h *QuizHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := h.scoreService.Leaderboard(r.Context(), service.LeaderboardSize)
	if err != nil {
		slog.Error("handlers.Leaderboard: failed", "error", err)
		Error(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	JSON(w, http.StatusOK, entries)
}
