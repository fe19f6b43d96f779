package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/roadready/roadready-backend/internal/model"
)

// QuestionRepository handles question data access. The session engine only
// reads from it; writes come from the seed tool.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// ListAll retrieves every question in the store.
func (r *QuestionRepository) ListAll(ctx context.Context) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, prompt, options, correct_option, explanation
		 FROM questions`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.Prompt, &q.Options, &q.CorrectOption, &q.Explanation); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// GetByID retrieves a single question.
func (r *QuestionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Question, error) {
	q := &model.Question{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, prompt, options, correct_option, explanation
		 FROM questions
		 WHERE id = $1`, id,
	).Scan(&q.ID, &q.Prompt, &q.Options, &q.CorrectOption, &q.Explanation)
	if err != nil {
		return nil, err
	}
	return q, nil
}

// List retrieves a page of questions for the admin read surface.
func (r *QuestionRepository) List(ctx context.Context, page, perPage int) ([]model.Question, int64, error) {
	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM questions`).Scan(&total); err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * perPage
	rows, err := r.pool.Query(ctx,
		`SELECT id, prompt, options, correct_option, explanation
		 FROM questions
		 ORDER BY id
		 LIMIT $1 OFFSET $2`, perPage, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.Prompt, &q.Options, &q.CorrectOption, &q.Explanation); err != nil {
			return nil, 0, err
		}
		questions = append(questions, q)
	}
	return questions, total, rows.Err()
}

// Create inserts a new question. Used by the seed tool only.
func (r *QuestionRepository) Create(ctx context.Context, q *model.Question) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO questions (prompt, options, correct_option, explanation)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		q.Prompt, q.Options, q.CorrectOption, q.Explanation,
	).Scan(&q.ID)
}
