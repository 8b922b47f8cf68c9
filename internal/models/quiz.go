package models

import "encoding/json"

type GenerateQuizRequest struct {
	Content      string `json:"content"`
	NumQuestions int    `json:"numQuestions,omitempty"`
	Difficulty   string `json:"difficulty,omitempty"`
	Model        string `json:"model,omitempty"`
}

type QuizQuestion struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
	Explanation   string   `json:"explanation"`
}

// QuizResponse carries the questions exactly as the model produced them.
type QuizResponse struct {
	Questions json.RawMessage `json:"questions"`
}
