package model

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Question represents a single knowledge-test question. Questions are
// read-only from the session engine's viewpoint; they are loaded by the
// seed tool and referenced by many sessions.
type Question struct {
	ID            uuid.UUID       `json:"id"`
	Prompt        string          `json:"prompt"`
	Options       json.RawMessage `json:"options"`
	CorrectOption string          `json:"correct_option"`
	Explanation   string          `json:"explanation"`
}

// QuestionOption is one labeled choice within a question's Options JSON.
// Labels are A–D; D is optional.
type QuestionOption struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

// QuestionForTaker is a question stripped of the correct answer and
// explanation, delivered to a user with an in-progress session.
type QuestionForTaker struct {
	ID      uuid.UUID       `json:"id"`
	Prompt  string          `json:"prompt"`
	Options json.RawMessage `json:"options"`
	Ord     int             `json:"ord"`
}

// ForTaker returns the redacted view of q at position ord.
func (q *Question) ForTaker(ord int) QuestionForTaker {
	return QuestionForTaker{
		ID:      q.ID,
		Prompt:  q.Prompt,
		Options: q.Options,
		Ord:     ord,
	}
}
