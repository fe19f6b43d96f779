package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/roadready/roadready-backend/internal/model"
)

// SessionRepository handles practice session data access: the session row,
// its ordered question assignments and its answer rows.
type SessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

// CreateWithAssignments inserts a session together with one assignment and
// one blank answer per question id, in sampled order, inside a single
// transaction. A failure anywhere rolls the whole unit back so a session
// can never exist with fewer assignments than total_questions claims.
func (r *SessionRepository) CreateWithAssignments(ctx context.Context, s *model.Session, questionIDs []uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO sessions (user_id, mode, status, total_questions, score)
		 VALUES ($1, $2, $3, $4, 0)
		 RETURNING id, started_at`,
		s.UserID, s.Mode, model.SessionStatusInProgress, len(questionIDs),
	).Scan(&s.ID, &s.StartedAt)
	if err != nil {
		return err
	}
	s.Status = model.SessionStatusInProgress
	s.TotalQuestions = len(questionIDs)
	s.Score = 0

	batch := &pgx.Batch{}
	for ord, qid := range questionIDs {
		batch.Queue(
			`INSERT INTO session_assignments (session_id, question_id, ord)
			 VALUES ($1, $2, $3)`,
			s.ID, qid, ord,
		)
		batch.Queue(
			`INSERT INTO answers (session_id, question_id)
			 VALUES ($1, $2)`,
			s.ID, qid,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// GetByID retrieves a session row.
func (r *SessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Session, error) {
	s := &model.Session{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, mode, status, total_questions, score, started_at, completed_at, duration_seconds
		 FROM sessions
		 WHERE id = $1`, id,
	).Scan(&s.ID, &s.UserID, &s.Mode, &s.Status, &s.TotalQuestions, &s.Score, &s.StartedAt, &s.CompletedAt, &s.DurationSeconds)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// GetDetail retrieves a session with its questions in assignment order and
// its answer rows. Questions are redacted for delivery to the taker.
func (r *SessionRepository) GetDetail(ctx context.Context, id uuid.UUID) (*model.SessionDetail, error) {
	s, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	detail := &model.SessionDetail{Session: *s}

	rows, err := r.pool.Query(ctx,
		`SELECT q.id, q.prompt, q.options, a.ord
		 FROM session_assignments a
		 JOIN questions q ON q.id = a.question_id
		 WHERE a.session_id = $1
		 ORDER BY a.ord`, id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var q model.QuestionForTaker
		if err := rows.Scan(&q.ID, &q.Prompt, &q.Options, &q.Ord); err != nil {
			return nil, err
		}
		detail.Questions = append(detail.Questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// An assignment pointing at a deleted question breaks the join above;
	// surface the mismatch instead of returning a silently shorter paper.
	if len(detail.Questions) != s.TotalQuestions {
		return nil, ErrAssignmentIntegrity
	}

	detail.Answers, err = r.listAnswers(ctx, id)
	return detail, err
}

// ErrAssignmentIntegrity indicates an assignment references a question that
// is no longer present in the store.
var ErrAssignmentIntegrity = errors.New("session assignment references a missing question")

// listAnswers returns a session's answer rows in assignment order.
func (r *SessionRepository) listAnswers(ctx context.Context, sessionID uuid.UUID) ([]model.Answer, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT ans.session_id, ans.question_id, ans.selected_option, ans.is_correct, ans.answered_at
		 FROM answers ans
		 JOIN session_assignments sa ON sa.session_id = ans.session_id AND sa.question_id = ans.question_id
		 WHERE ans.session_id = $1
		 ORDER BY sa.ord`, sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	answers := []model.Answer{}
	for rows.Next() {
		var a model.Answer
		if err := rows.Scan(&a.SessionID, &a.QuestionID, &a.SelectedOption, &a.IsCorrect, &a.AnsweredAt); err != nil {
			return nil, err
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}

// ListByUser retrieves all sessions for a user, newest first, each with its
// answer rows attached.
func (r *SessionRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.SessionWithAnswers, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, mode, status, total_questions, score, started_at, completed_at, duration_seconds
		 FROM sessions
		 WHERE user_id = $1
		 ORDER BY started_at DESC, id DESC`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []model.SessionWithAnswers
	index := make(map[uuid.UUID]int)
	for rows.Next() {
		var s model.Session
		if err := rows.Scan(&s.ID, &s.UserID, &s.Mode, &s.Status, &s.TotalQuestions, &s.Score, &s.StartedAt, &s.CompletedAt, &s.DurationSeconds); err != nil {
			return nil, err
		}
		index[s.ID] = len(sessions)
		sessions = append(sessions, model.SessionWithAnswers{Session: s, Answers: []model.Answer{}})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return sessions, nil
	}

	answerRows, err := r.pool.Query(ctx,
		`SELECT ans.session_id, ans.question_id, ans.selected_option, ans.is_correct, ans.answered_at
		 FROM answers ans
		 JOIN sessions s ON s.id = ans.session_id
		 JOIN session_assignments sa ON sa.session_id = ans.session_id AND sa.question_id = ans.question_id
		 WHERE s.user_id = $1
		 ORDER BY ans.session_id, sa.ord`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer answerRows.Close()
	for answerRows.Next() {
		var a model.Answer
		if err := answerRows.Scan(&a.SessionID, &a.QuestionID, &a.SelectedOption, &a.IsCorrect, &a.AnsweredAt); err != nil {
			return nil, err
		}
		if i, ok := index[a.SessionID]; ok {
			sessions[i].Answers = append(sessions[i].Answers, a)
		}
	}
	return sessions, answerRows.Err()
}

// FindActiveByUser returns the most recently started in-progress session
// for a user, or pgx.ErrNoRows. Ties on started_at break by id descending
// so resume detection stays deterministic.
func (r *SessionRepository) FindActiveByUser(ctx context.Context, userID uuid.UUID) (*model.Session, error) {
	s := &model.Session{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, mode, status, total_questions, score, started_at, completed_at, duration_seconds
		 FROM sessions
		 WHERE user_id = $1 AND status = $2
		 ORDER BY started_at DESC, id DESC
		 LIMIT 1`, userID, model.SessionStatusInProgress,
	).Scan(&s.ID, &s.UserID, &s.Mode, &s.Status, &s.TotalQuestions, &s.Score, &s.StartedAt, &s.CompletedAt, &s.DurationSeconds)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// UpdateStatus moves an in-progress session into a terminal state. The
// WHERE clause doubles as the state-machine guard: updating a session that
// is already terminal affects zero rows and reports updated=false.
func (r *SessionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.SessionStatus, completedAt *time.Time, durationSeconds *int) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE sessions
		 SET status = $1,
		     completed_at = COALESCE($2, completed_at),
		     duration_seconds = COALESCE($3, duration_seconds)
		 WHERE id = $4 AND status = $5`,
		status, completedAt, durationSeconds, id, model.SessionStatusInProgress,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Delete removes a session and cascades to its assignments and answers in
// one transaction. Question rows are untouched.
func (r *SessionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM answers WHERE session_id = $1`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM session_assignments WHERE session_id = $1`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// RecordAnswer overwrites the answer row for (sessionID, questionID) and
// recomputes the session score from a fresh count of correct answers, both
// inside one transaction. Counting fresh instead of applying deltas keeps
// repeated submissions from double-scoring. Returns pgx.ErrNoRows when no
// answer slot exists for the pair, i.e. the question is outside the
// session's assignment set.
func (r *SessionRepository) RecordAnswer(ctx context.Context, sessionID, questionID uuid.UUID, selectedOption string, isCorrect bool) (*model.Answer, int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, 0, err
	}
	defer tx.Rollback(ctx)

	a := &model.Answer{}
	err = tx.QueryRow(ctx,
		`UPDATE answers
		 SET selected_option = $1, is_correct = $2, answered_at = NOW()
		 WHERE session_id = $3 AND question_id = $4
		 RETURNING session_id, question_id, selected_option, is_correct, answered_at`,
		selectedOption, isCorrect, sessionID, questionID,
	).Scan(&a.SessionID, &a.QuestionID, &a.SelectedOption, &a.IsCorrect, &a.AnsweredAt)
	if err != nil {
		return nil, 0, err
	}

	var score int
	err = tx.QueryRow(ctx,
		`UPDATE sessions
		 SET score = CASE
		     WHEN total_questions > 0 THEN ROUND(
		         100.0 * (SELECT COUNT(*) FROM answers
		                  WHERE session_id = $1 AND is_correct) / total_questions)
		     ELSE 0
		 END
		 WHERE id = $1
		 RETURNING score`, sessionID,
	).Scan(&score)
	if err != nil {
		return nil, 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, 0, err
	}
	return a, score, nil
}
