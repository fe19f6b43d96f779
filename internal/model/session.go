package model

import (
	"time"

	"github.com/google/uuid"
)

// SessionStatus enumerates practice session states.
type SessionStatus string

const (
	SessionStatusInProgress SessionStatus = "IN_PROGRESS"
	SessionStatusCompleted  SessionStatus = "COMPLETED"
	SessionStatusAbandoned  SessionStatus = "ABANDONED"
)

// IsTerminal reports whether no further status transition is allowed.
func (s SessionStatus) IsTerminal() bool {
	return s == SessionStatusCompleted || s == SessionStatusAbandoned
}

// SessionMode records how the question set was assembled.
type SessionMode string

const (
	// SessionModeFullExam samples the whole question store at random.
	SessionModeFullExam SessionMode = "FULL_EXAM"
	// SessionModeCustom builds the session from a caller-supplied id set
	// (weak-areas review).
	SessionModeCustom SessionMode = "CUSTOM"
)

// Session is one attempt at a set of questions by one user.
//
// TotalQuestions is fixed at assembly time and always equals the number of
// assignments and answers. Score is a percentage of TotalQuestions, not of
// answered questions, so an incomplete session under-reports by design.
type Session struct {
	ID              uuid.UUID     `json:"id"`
	UserID          uuid.UUID     `json:"user_id"`
	Mode            SessionMode   `json:"mode"`
	Status          SessionStatus `json:"status"`
	TotalQuestions  int           `json:"total_questions"`
	Score           int           `json:"score"`
	StartedAt       time.Time     `json:"started_at"`
	CompletedAt     *time.Time    `json:"completed_at,omitempty"`
	DurationSeconds *int          `json:"duration_seconds,omitempty"`
}

// SessionAssignment is the fixed, ordered link between a session and one of
// its selected questions. Created once at assembly time, immutable after.
type SessionAssignment struct {
	SessionID  uuid.UUID `json:"session_id"`
	QuestionID uuid.UUID `json:"question_id"`
	Ord        int       `json:"ord"`
}

// Answer is the mutable record of a user's selected option for one
// assignment. Created blank alongside the assignment; SelectedOption,
// IsCorrect and AnsweredAt stay null until the user answers.
type Answer struct {
	SessionID      uuid.UUID  `json:"session_id"`
	QuestionID     uuid.UUID  `json:"question_id"`
	SelectedOption *string    `json:"selected_option"`
	IsCorrect      *bool      `json:"is_correct"`
	AnsweredAt     *time.Time `json:"answered_at"`
}

// Answered reports whether a selection has been recorded.
func (a *Answer) Answered() bool {
	return a.SelectedOption != nil
}

// SessionWithAnswers is a session with its answer rows attached, used by
// the list endpoint for activity/progress views.
type SessionWithAnswers struct {
	Session
	Answers []Answer `json:"answers"`
}

// SessionDetail is the full session payload for taking or reviewing a
// session: the redacted questions in assignment order plus answer state.
type SessionDetail struct {
	Session
	Questions []QuestionForTaker `json:"questions"`
	Answers   []Answer           `json:"answers"`
}

// CreateSessionRequest is the payload for starting a new session.
// Supplying question_ids builds a custom review session from exactly that
// set; otherwise the store is sampled at random. max_questions caps the
// sampled set size.
type CreateSessionRequest struct {
	QuestionIDs  []string    `json:"question_ids" binding:"omitempty,dive,uuid"`
	MaxQuestions *int        `json:"max_questions" binding:"omitempty,min=1,max=200"`
	Mode         SessionMode `json:"mode" binding:"omitempty,oneof=FULL_EXAM CUSTOM"`
}

// UpdateSessionRequest is the payload for finishing or abandoning a session.
type UpdateSessionRequest struct {
	Status          SessionStatus `json:"status" binding:"required,oneof=COMPLETED ABANDONED"`
	CompletedAt     *time.Time    `json:"completed_at" binding:"omitempty"`
	DurationSeconds *int          `json:"duration_seconds" binding:"omitempty,min=0"`
}

// RecordAnswerRequest is the payload for submitting one answer.
type RecordAnswerRequest struct {
	QuestionID     string `json:"question_id" binding:"required,uuid"`
	SelectedOption string `json:"selected_option" binding:"required,min=1,max=2"`
}

// RecordAnswerResult is returned to the client for immediate feedback.
type RecordAnswerResult struct {
	Answer        Answer `json:"answer"`
	Correct       bool   `json:"correct"`
	CorrectOption string `json:"correct_option"`
	Explanation   string `json:"explanation"`
	Score         int    `json:"score"`
}
