package event

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/roadready/roadready-backend/internal/model"
)

// Type identifies a domain event kind.
type Type string

const (
	TypeUserCreated      Type = "user.created"
	TypeSessionCompleted Type = "session.completed"
)

// Event is one domain event as it travels through the queue. The write
// path publishes events explicitly; side effects (signup email, progress
// email) belong to subscribers, never to the persistence layer.
type Event struct {
	ID         uuid.UUID       `json:"id"`
	Type       Type            `json:"type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

// UserCreatedPayload is the payload for TypeUserCreated.
type UserCreatedPayload struct {
	UserID     uuid.UUID `json:"user_id"`
	ExternalID string    `json:"external_id"`
}

// SessionCompletedPayload is the payload for TypeSessionCompleted.
type SessionCompletedPayload struct {
	SessionID      uuid.UUID `json:"session_id"`
	UserID         uuid.UUID `json:"user_id"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"total_questions"`
}

// NewUserCreated builds a user.created event.
func NewUserCreated(u *model.User) Event {
	raw, _ := json.Marshal(UserCreatedPayload{UserID: u.ID, ExternalID: u.ExternalID})
	return newEvent(TypeUserCreated, raw)
}

// NewSessionCompleted builds a session.completed event.
func NewSessionCompleted(s *model.Session) Event {
	raw, _ := json.Marshal(SessionCompletedPayload{
		SessionID:      s.ID,
		UserID:         s.UserID,
		Score:          s.Score,
		TotalQuestions: s.TotalQuestions,
	})
	return newEvent(TypeSessionCompleted, raw)
}

func newEvent(t Type, payload json.RawMessage) Event {
	return Event{
		ID:         uuid.New(),
		Type:       t,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
}

// Publisher delivers events to whatever transport feeds the subscribers.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}
