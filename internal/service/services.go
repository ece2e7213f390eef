package service

import (
	"github.com/dom/jumbah-travel/internal/config"
	"github.com/dom/jumbah-travel/internal/genai"
	"github.com/dom/jumbah-travel/internal/repository"
)

type Services struct {
	Auth        *AuthService
	Score       *ScoreService
	Quiz        *QuizService
	Chat        *ChatService
	Planner     *PlannerService
	Attractions *AttractionService
	Health      *HealthService
}

func NewServices(repos *repository.Repositories, generator genai.Generator, db Pinger, cfg *config.Config) (*Services, error) {
	quiz, err := NewQuizService()
	if err != nil {
		return nil, err
	}

	return &Services{
		Auth:        NewAuthService(repos.User, cfg),
		Score:       NewScoreService(repos.Score, repos.User),
		Quiz:        quiz,
		Chat:        NewChatService(repos.ChatSession, generator, cfg.GenerationTimeout),
		Planner:     NewPlannerService(generator, cfg.GenerationTimeout),
		Attractions: NewAttractionService(cfg.AttractionsPath),
		Health:      NewHealthService(db, generator),
	}, nil
}
