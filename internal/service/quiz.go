package service

import (
	_ "embed"
	"fmt"
	"slices"

	"github.com/dom/jumbah-travel/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed quiz.yaml
var quizYAML []byte

type QuizService struct {
	questions []domain.Question
}

func NewQuizService() (*QuizService, error) {
	questions, err := ParseQuestions(quizYAML)
	if err != nil {
		return nil, err
	}
	return &QuizService{questions: questions}, nil
}

// ParseQuestions decodes a YAML question bank. Every question needs text,
// at least two answers, and a correct answer that is one of them.
func ParseQuestions(data []byte) ([]domain.Question, error) {
	var questions []domain.Question
	if err := yaml.Unmarshal(data, &questions); err != nil {
		return nil, fmt.Errorf("decode quiz: %w", err)
	}
	for i, q := range questions {
		switch {
		case q.Question == "":
			return nil, fmt.Errorf("quiz question %d has no text", i+1)
		case len(q.Answers) < 2:
			return nil, fmt.Errorf("quiz question %d needs at least two answers", i+1)
		case !slices.Contains(q.Answers, q.CorrectAnswer):
			return nil, fmt.Errorf("quiz question %d: correct answer %q is not among the answers", i+1, q.CorrectAnswer)
		}
	}
	return questions, nil
}

// Questions returns a copy of the question bank.
func (s *QuizService) Questions() []domain.Question {
	out := make([]domain.Question, len(s.questions))
	for i, q := range s.questions {
		q.Answers = slices.Clone(q.Answers)
		out[i] = q
	}
	return out
}
