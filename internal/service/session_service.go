package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/roadready/roadready-backend/internal/config"
	"github.com/roadready/roadready-backend/internal/event"
	"github.com/roadready/roadready-backend/internal/model"
	"github.com/roadready/roadready-backend/internal/repository"
	"github.com/rs/zerolog"
)

// SessionStore is the persistence surface the session service needs.
type SessionStore interface {
	CreateWithAssignments(ctx context.Context, s *model.Session, questionIDs []uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Session, error)
	GetDetail(ctx context.Context, id uuid.UUID) (*model.SessionDetail, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.SessionWithAnswers, error)
	FindActiveByUser(ctx context.Context, userID uuid.UUID) (*model.Session, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.SessionStatus, completedAt *time.Time, durationSeconds *int) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) error
	RecordAnswer(ctx context.Context, sessionID, questionID uuid.UUID, selectedOption string, isCorrect bool) (*model.Answer, int, error)
}

// SessionService is the practice-session engine: it assembles randomized
// question sets, records graded answers, drives the status state machine
// and answers resume queries. Every operation that names a session id runs
// through the ownership guard first.
type SessionService struct {
	sessions  SessionStore
	questions QuestionStore
	cache     *SessionCache
	publisher event.Publisher
	cfg       *config.Config
	log       zerolog.Logger
	// newRand yields the rng used for sampling; swapped for a seeded
	// source in tests.
	newRand func() *rand.Rand
}

// NewSessionService creates a new SessionService.
func NewSessionService(
	sessions SessionStore,
	questions QuestionStore,
	cache *SessionCache,
	publisher event.Publisher,
	cfg *config.Config,
	log zerolog.Logger,
) *SessionService {
	return &SessionService{
		sessions:  sessions,
		questions: questions,
		cache:     cache,
		publisher: publisher,
		cfg:       cfg,
		log:       log.With().Str("component", "session_service").Logger(),
		newRand: func() *rand.Rand {
			return rand.New(rand.NewSource(time.Now().UnixNano()))
		},
	}
}

// ─── Assembler ───────────────────────────────────────────────────────────

// Create assembles and persists a new session for userID.
//
// With explicit question ids the session is built from exactly that set,
// de-duplicated in caller order and validated against the store (CUSTOM
// mode). Otherwise the whole store is drawn, shuffled and truncated to
// max_questions — defaulting to the full-exam cap, or the quick-session
// cap when the caller asked for a CUSTOM session without naming questions.
//
// The session row, its assignments and its blank answers are written as
// one transaction; after return the three counts are equal by construction.
func (s *SessionService) Create(ctx context.Context, userID uuid.UUID, req model.CreateSessionRequest) (*model.Session, error) {
	var (
		selected []uuid.UUID
		mode     model.SessionMode
		err      error
	)

	if len(req.QuestionIDs) > 0 {
		mode = model.SessionModeCustom
		selected, err = s.resolveExplicitSet(ctx, req.QuestionIDs)
		if err != nil {
			return nil, err
		}
	} else {
		mode = model.SessionModeFullExam
		if req.Mode == model.SessionModeCustom {
			mode = model.SessionModeCustom
		}
		selected, err = s.sampleFromStore(ctx, req.MaxQuestions, mode)
		if err != nil {
			return nil, err
		}
	}

	session := &model.Session{UserID: userID, Mode: mode}
	if err := s.sessions.CreateWithAssignments(ctx, session, selected); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.cache.SetActive(ctx, userID, session.ID)

	s.log.Info().
		Str("session_id", session.ID.String()).
		Str("user_id", userID.String()).
		Str("mode", string(mode)).
		Int("total_questions", session.TotalQuestions).
		Msg("session created")

	return session, nil
}

// resolveExplicitSet de-duplicates the caller-supplied ids preserving their
// order and verifies each against the question store.
func (s *SessionService) resolveExplicitSet(ctx context.Context, rawIDs []string) ([]uuid.UUID, error) {
	seen := make(map[uuid.UUID]struct{}, len(rawIDs))
	selected := make([]uuid.UUID, 0, len(rawIDs))
	for _, raw := range rawIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, ErrNotFound
		}
		if _, dup := seen[id]; dup {
			continue
		}
		if _, err := s.questions.GetByID(ctx, id); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrNotFound
			}
			return nil, fmt.Errorf("validate question %s: %w", id, err)
		}
		seen[id] = struct{}{}
		selected = append(selected, id)
	}
	return selected, nil
}

// sampleFromStore draws every question, applies a Fisher–Yates shuffle and
// truncates to the effective cap. An empty store yields an empty selection
// and therefore a degenerate totalQuestions=0 session.
func (s *SessionService) sampleFromStore(ctx context.Context, maxQuestions *int, mode model.SessionMode) ([]uuid.UUID, error) {
	questions, err := s.questions.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}

	limit := s.cfg.FullExamQuestions
	if mode == model.SessionModeCustom {
		limit = s.cfg.CustomSessionQuestions
	}
	if maxQuestions != nil {
		limit = *maxQuestions
	}

	Shuffle(questions, s.newRand())
	if len(questions) > limit {
		questions = questions[:limit]
	}

	ids := make([]uuid.UUID, len(questions))
	for i := range questions {
		ids[i] = questions[i].ID
	}
	return ids, nil
}

// ─── Authorization guard ─────────────────────────────────────────────────

// requireOwner loads a session and fails closed with ErrNotFound when it
// does not exist or belongs to another user. Every mutating and reading
// operation below goes through here.
func (s *SessionService) requireOwner(ctx context.Context, sessionID, userID uuid.UUID) (*model.Session, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	if session.UserID != userID {
		return nil, ErrNotFound
	}
	return session, nil
}

// ─── Answer recorder ─────────────────────────────────────────────────────

// RecordAnswer grades and persists one answer against an active session
// owned by userID. Correctness is an exact label match against the stored
// correct option; the selection is normalized (trim, upper-case) at this
// boundary. Re-submitting overwrites the previous selection and the score
// is recomputed from current state, so repeated submissions never double
// count.
func (s *SessionService) RecordAnswer(ctx context.Context, sessionID, userID, questionID uuid.UUID, selectedOption string) (*model.RecordAnswerResult, error) {
	selected := strings.ToUpper(strings.TrimSpace(selectedOption))
	switch selected {
	case "A", "B", "C", "D":
	default:
		return nil, ErrInvalidOption
	}

	session, err := s.requireOwner(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	if session.Status != model.SessionStatusInProgress {
		return nil, ErrSessionNotActive
	}

	question, err := s.questions.GetByID(ctx, questionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get question: %w", err)
	}

	correct := selected == question.CorrectOption

	answer, score, err := s.sessions.RecordAnswer(ctx, sessionID, questionID, selected, correct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// No answer slot: the question is not part of this session's
			// assignment set.
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("record answer: %w", err)
	}

	return &model.RecordAnswerResult{
		Answer:        *answer,
		Correct:       correct,
		CorrectOption: question.CorrectOption,
		Explanation:   question.Explanation,
		Score:         score,
	}, nil
}

// ─── Lifecycle controller ────────────────────────────────────────────────

// UpdateStatus transitions an in-progress session into COMPLETED or
// ABANDONED. Terminal states are final. Completion stamps completed_at
// (defaulting to now) and persists duration_seconds when supplied; it does
// not recompute the score — by this point all submissions are recorded and
// the score reflects whatever the recorder last computed.
func (s *SessionService) UpdateStatus(ctx context.Context, sessionID, userID uuid.UUID, req model.UpdateSessionRequest) (*model.Session, error) {
	session, err := s.requireOwner(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	if session.Status.IsTerminal() {
		return nil, ErrInvalidTransition
	}

	completedAt := req.CompletedAt
	if req.Status == model.SessionStatusCompleted && completedAt == nil {
		now := time.Now()
		completedAt = &now
	}

	updated, err := s.sessions.UpdateStatus(ctx, sessionID, req.Status, completedAt, req.DurationSeconds)
	if err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	if !updated {
		// Lost a race against another terminal transition.
		return nil, ErrInvalidTransition
	}

	s.cache.ClearActive(ctx, userID)

	session, err = s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("reload session: %w", err)
	}

	if session.Status == model.SessionStatusCompleted {
		if pubErr := s.publisher.Publish(ctx, event.NewSessionCompleted(session)); pubErr != nil {
			s.log.Warn().Err(pubErr).Str("session_id", sessionID.String()).Msg("publish session.completed failed")
		}
	}

	return session, nil
}

// ResolveActive returns the user's most recently started in-progress
// session, or nil when there is none. The Redis fast path is verified
// against the database and self-heals on a miss, the same way the start
// time cache does in the exam-state flow this is modeled on.
func (s *SessionService) ResolveActive(ctx context.Context, userID uuid.UUID) (*model.Session, error) {
	if cached := s.cache.GetActive(ctx, userID); cached != uuid.Nil {
		session, err := s.sessions.GetByID(ctx, cached)
		if err == nil && session.UserID == userID && session.Status == model.SessionStatusInProgress {
			return session, nil
		}
		// Stale entry; drop it and fall back to the database.
		s.cache.ClearActive(ctx, userID)
	}

	session, err := s.sessions.FindActiveByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find active session: %w", err)
	}

	s.cache.SetActive(ctx, userID, session.ID)
	return session, nil
}

// List returns all of a user's sessions, newest first, with nested answers.
func (s *SessionService) List(ctx context.Context, userID uuid.UUID) ([]model.SessionWithAnswers, error) {
	sessions, err := s.sessions.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

// GetDetail returns one owned session with its ordered questions and
// answer state.
func (s *SessionService) GetDetail(ctx context.Context, sessionID, userID uuid.UUID) (*model.SessionDetail, error) {
	if _, err := s.requireOwner(ctx, sessionID, userID); err != nil {
		return nil, err
	}

	detail, err := s.sessions.GetDetail(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrAssignmentIntegrity) {
			return nil, ErrDataIntegrity
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get session detail: %w", err)
	}
	return detail, nil
}

// Delete removes an owned session and cascades to its assignments and
// answers. Questions are untouched.
func (s *SessionService) Delete(ctx context.Context, sessionID, userID uuid.UUID) error {
	if _, err := s.requireOwner(ctx, sessionID, userID); err != nil {
		return err
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if s.cache.GetActive(ctx, userID) == sessionID {
		s.cache.ClearActive(ctx, userID)
	}
	return nil
}
