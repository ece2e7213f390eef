package domain

type Question struct {
	Question      string   `json:"question" yaml:"question"`
	Answers       []string `json:"answers" yaml:"answers"`
	CorrectAnswer string   `json:"correctAnswer" yaml:"correct_answer"`
}
