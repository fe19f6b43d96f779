package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/roadready/roadready-backend/internal/config"
	"github.com/roadready/roadready-backend/internal/event"
	"github.com/roadready/roadready-backend/internal/model"
	"github.com/roadready/roadready-backend/internal/repository"
	"github.com/rs/zerolog"
)

// ─── Fakes ───────────────────────────────────────────────────────────────

type fakeQuestionStore struct {
	questions []model.Question
}

func (f *fakeQuestionStore) ListAll(_ context.Context) ([]model.Question, error) {
	out := make([]model.Question, len(f.questions))
	copy(out, f.questions)
	return out, nil
}

func (f *fakeQuestionStore) GetByID(_ context.Context, id uuid.UUID) (*model.Question, error) {
	for i := range f.questions {
		if f.questions[i].ID == id {
			q := f.questions[i]
			return &q, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeQuestionStore) List(_ context.Context, page, perPage int) ([]model.Question, int64, error) {
	start := (page - 1) * perPage
	if start >= len(f.questions) {
		return nil, int64(len(f.questions)), nil
	}
	end := start + perPage
	if end > len(f.questions) {
		end = len(f.questions)
	}
	return f.questions[start:end], int64(len(f.questions)), nil
}

// fakeSessionStore mirrors the repository's observable semantics: the
// atomic create, the conditional status update, the fresh-count score
// recompute and pgx.ErrNoRows for missing rows.
type fakeSessionStore struct {
	questions   *fakeQuestionStore
	sessions    map[uuid.UUID]*model.Session
	assignments map[uuid.UUID][]model.SessionAssignment
	answers     map[uuid.UUID][]*model.Answer
	clock       time.Time
}

func newFakeSessionStore(questions *fakeQuestionStore) *fakeSessionStore {
	return &fakeSessionStore{
		questions:   questions,
		sessions:    make(map[uuid.UUID]*model.Session),
		assignments: make(map[uuid.UUID][]model.SessionAssignment),
		answers:     make(map[uuid.UUID][]*model.Answer),
		clock:       time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC),
	}
}

func (f *fakeSessionStore) nextTime() time.Time {
	f.clock = f.clock.Add(time.Minute)
	return f.clock
}

func (f *fakeSessionStore) CreateWithAssignments(_ context.Context, s *model.Session, questionIDs []uuid.UUID) error {
	s.ID = uuid.New()
	s.Status = model.SessionStatusInProgress
	s.TotalQuestions = len(questionIDs)
	s.Score = 0
	s.StartedAt = f.nextTime()

	stored := *s
	f.sessions[s.ID] = &stored
	for ord, qid := range questionIDs {
		f.assignments[s.ID] = append(f.assignments[s.ID], model.SessionAssignment{
			SessionID: s.ID, QuestionID: qid, Ord: ord,
		})
		f.answers[s.ID] = append(f.answers[s.ID], &model.Answer{
			SessionID: s.ID, QuestionID: qid,
		})
	}
	return nil
}

func (f *fakeSessionStore) GetByID(_ context.Context, id uuid.UUID) (*model.Session, error) {
	s, ok := f.sessions[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	out := *s
	return &out, nil
}

func (f *fakeSessionStore) GetDetail(ctx context.Context, id uuid.UUID) (*model.SessionDetail, error) {
	s, err := f.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	detail := &model.SessionDetail{Session: *s}
	for _, a := range f.assignments[id] {
		q, err := f.questions.GetByID(ctx, a.QuestionID)
		if err != nil {
			return nil, repository.ErrAssignmentIntegrity
		}
		detail.Questions = append(detail.Questions, q.ForTaker(a.Ord))
	}
	for _, a := range f.answers[id] {
		detail.Answers = append(detail.Answers, *a)
	}
	return detail, nil
}

func (f *fakeSessionStore) ListByUser(_ context.Context, userID uuid.UUID) ([]model.SessionWithAnswers, error) {
	var out []model.SessionWithAnswers
	for id, s := range f.sessions {
		if s.UserID != userID {
			continue
		}
		entry := model.SessionWithAnswers{Session: *s, Answers: []model.Answer{}}
		for _, a := range f.answers[id] {
			entry.Answers = append(entry.Answers, *a)
		}
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].StartedAt.After(out[j].StartedAt)
		}
		return out[i].ID.String() > out[j].ID.String()
	})
	return out, nil
}

func (f *fakeSessionStore) FindActiveByUser(_ context.Context, userID uuid.UUID) (*model.Session, error) {
	var best *model.Session
	for _, s := range f.sessions {
		if s.UserID != userID || s.Status != model.SessionStatusInProgress {
			continue
		}
		if best == nil ||
			s.StartedAt.After(best.StartedAt) ||
			(s.StartedAt.Equal(best.StartedAt) && s.ID.String() > best.ID.String()) {
			best = s
		}
	}
	if best == nil {
		return nil, pgx.ErrNoRows
	}
	out := *best
	return &out, nil
}

func (f *fakeSessionStore) UpdateStatus(_ context.Context, id uuid.UUID, status model.SessionStatus, completedAt *time.Time, durationSeconds *int) (bool, error) {
	s, ok := f.sessions[id]
	if !ok || s.Status != model.SessionStatusInProgress {
		return false, nil
	}
	s.Status = status
	if completedAt != nil {
		s.CompletedAt = completedAt
	}
	if durationSeconds != nil {
		s.DurationSeconds = durationSeconds
	}
	return true, nil
}

func (f *fakeSessionStore) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.sessions, id)
	delete(f.assignments, id)
	delete(f.answers, id)
	return nil
}

func (f *fakeSessionStore) RecordAnswer(_ context.Context, sessionID, questionID uuid.UUID, selectedOption string, isCorrect bool) (*model.Answer, int, error) {
	var target *model.Answer
	for _, a := range f.answers[sessionID] {
		if a.QuestionID == questionID {
			target = a
			break
		}
	}
	if target == nil {
		return nil, 0, pgx.ErrNoRows
	}

	now := f.nextTime()
	sel := selectedOption
	correct := isCorrect
	target.SelectedOption = &sel
	target.IsCorrect = &correct
	target.AnsweredAt = &now

	s := f.sessions[sessionID]
	if s.TotalQuestions > 0 {
		count := 0
		for _, a := range f.answers[sessionID] {
			if a.IsCorrect != nil && *a.IsCorrect {
				count++
			}
		}
		s.Score = int(math.Round(100 * float64(count) / float64(s.TotalQuestions)))
	}

	out := *target
	return &out, s.Score, nil
}

type fakePublisher struct {
	events []event.Event
}

func (f *fakePublisher) Publish(_ context.Context, e event.Event) error {
	f.events = append(f.events, e)
	return nil
}

// ─── Helpers ─────────────────────────────────────────────────────────────

// questionFixtures builds n questions whose correct option is always "A".
func questionFixtures(n int) []model.Question {
	questions := make([]model.Question, n)
	for i := range questions {
		questions[i] = model.Question{
			ID:            uuid.New(),
			Prompt:        fmt.Sprintf("Question %d", i+1),
			Options:       []byte(`[{"label":"A","text":"first"},{"label":"B","text":"second"},{"label":"C","text":"third"}]`),
			CorrectOption: "A",
			Explanation:   "Because the handbook says so.",
		}
	}
	return questions
}

func newTestService(qs *fakeQuestionStore, ss *fakeSessionStore, pub *fakePublisher) *SessionService {
	cfg := &config.Config{FullExamQuestions: 46, CustomSessionQuestions: 5}
	svc := NewSessionService(ss, qs, NewSessionCache(nil), pub, cfg, zerolog.Nop())
	svc.newRand = func() *rand.Rand { return rand.New(rand.NewSource(1)) }
	return svc
}

func mustCreate(t *testing.T, svc *SessionService, userID uuid.UUID, req model.CreateSessionRequest) *model.Session {
	t.Helper()
	s, err := svc.Create(context.Background(), userID, req)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return s
}

// ─── Assembler ───────────────────────────────────────────────────────────

func TestCreateSessionSamplesAndTruncates(t *testing.T) {
	qs := &fakeQuestionStore{questions: questionFixtures(10)}
	ss := newFakeSessionStore(qs)
	svc := newTestService(qs, ss, &fakePublisher{})
	userID := uuid.New()

	max := 3
	s := mustCreate(t, svc, userID, model.CreateSessionRequest{MaxQuestions: &max})

	if s.TotalQuestions != 3 {
		t.Fatalf("total_questions = %d, want 3", s.TotalQuestions)
	}
	if s.Mode != model.SessionModeFullExam {
		t.Fatalf("mode = %s, want FULL_EXAM", s.Mode)
	}
	if s.Status != model.SessionStatusInProgress {
		t.Fatalf("status = %s, want IN_PROGRESS", s.Status)
	}

	assignments := ss.assignments[s.ID]
	answers := ss.answers[s.ID]
	if len(assignments) != 3 || len(answers) != 3 {
		t.Fatalf("got %d assignments, %d answers, want 3 each", len(assignments), len(answers))
	}
	for i, a := range assignments {
		if a.Ord != i {
			t.Fatalf("assignment %d has ord %d", i, a.Ord)
		}
		if answers[i].QuestionID != a.QuestionID {
			t.Fatalf("answer %d not paired with assignment question", i)
		}
		if answers[i].Answered() || answers[i].IsCorrect != nil || answers[i].AnsweredAt != nil {
			t.Fatalf("answer %d not blank at creation", i)
		}
	}
}

func TestCreateSessionDefaultsToFullExamCap(t *testing.T) {
	qs := &fakeQuestionStore{questions: questionFixtures(60)}
	ss := newFakeSessionStore(qs)
	svc := newTestService(qs, ss, &fakePublisher{})

	s := mustCreate(t, svc, uuid.New(), model.CreateSessionRequest{})
	if s.TotalQuestions != 46 {
		t.Fatalf("total_questions = %d, want the 46 full-exam cap", s.TotalQuestions)
	}
}

func TestCreateSessionQuickCustomCap(t *testing.T) {
	qs := &fakeQuestionStore{questions: questionFixtures(10)}
	ss := newFakeSessionStore(qs)
	svc := newTestService(qs, ss, &fakePublisher{})

	s := mustCreate(t, svc, uuid.New(), model.CreateSessionRequest{Mode: model.SessionModeCustom})
	if s.TotalQuestions != 5 {
		t.Fatalf("total_questions = %d, want the 5 quick-session cap", s.TotalQuestions)
	}
	if s.Mode != model.SessionModeCustom {
		t.Fatalf("mode = %s, want CUSTOM", s.Mode)
	}
}

func TestCreateSessionExplicitSet(t *testing.T) {
	questions := questionFixtures(10)
	qs := &fakeQuestionStore{questions: questions}
	ss := newFakeSessionStore(qs)
	svc := newTestService(qs, ss, &fakePublisher{})

	// Duplicates collapse; caller order is preserved.
	ids := []string{
		questions[4].ID.String(),
		questions[2].ID.String(),
		questions[4].ID.String(),
		questions[7].ID.String(),
	}
	s := mustCreate(t, svc, uuid.New(), model.CreateSessionRequest{QuestionIDs: ids})

	if s.Mode != model.SessionModeCustom {
		t.Fatalf("mode = %s, want CUSTOM", s.Mode)
	}
	if s.TotalQuestions != 3 {
		t.Fatalf("total_questions = %d, want 3 after dedup", s.TotalQuestions)
	}
	want := []uuid.UUID{questions[4].ID, questions[2].ID, questions[7].ID}
	for i, a := range ss.assignments[s.ID] {
		if a.QuestionID != want[i] {
			t.Fatalf("assignment %d = %s, want %s", i, a.QuestionID, want[i])
		}
	}
}

func TestCreateSessionRejectsUnknownQuestion(t *testing.T) {
	qs := &fakeQuestionStore{questions: questionFixtures(3)}
	ss := newFakeSessionStore(qs)
	svc := newTestService(qs, ss, &fakePublisher{})

	_, err := svc.Create(context.Background(), uuid.New(), model.CreateSessionRequest{
		QuestionIDs: []string{uuid.New().String()},
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if len(ss.sessions) != 0 {
		t.Fatal("session persisted despite validation failure")
	}
}

func TestCreateSessionEmptyStore(t *testing.T) {
	qs := &fakeQuestionStore{}
	ss := newFakeSessionStore(qs)
	svc := newTestService(qs, ss, &fakePublisher{})

	s := mustCreate(t, svc, uuid.New(), model.CreateSessionRequest{})
	if s.TotalQuestions != 0 {
		t.Fatalf("total_questions = %d, want 0 for empty store", s.TotalQuestions)
	}
	if s.Score != 0 {
		t.Fatalf("score = %d, want 0", s.Score)
	}
}

// ─── Answer recorder ─────────────────────────────────────────────────────

func TestRecordAnswerScoresAgainstOriginalTotal(t *testing.T) {
	qs := &fakeQuestionStore{questions: questionFixtures(5)}
	ss := newFakeSessionStore(qs)
	svc := newTestService(qs, ss, &fakePublisher{})
	userID := uuid.New()
	ctx := context.Background()

	s := mustCreate(t, svc, userID, model.CreateSessionRequest{})
	assigned := ss.assignments[s.ID]

	// Three submissions, two correct. Score is a percentage of all five
	// questions, not of the three answered: round(100*2/5) = 40.
	submissions := []struct {
		q       uuid.UUID
		option  string
		correct bool
	}{
		{assigned[0].QuestionID, "A", true},
		{assigned[1].QuestionID, "A", true},
		{assigned[2].QuestionID, "B", false},
	}
	var last *model.RecordAnswerResult
	for _, sub := range submissions {
		res, err := svc.RecordAnswer(ctx, s.ID, userID, sub.q, sub.option)
		if err != nil {
			t.Fatalf("RecordAnswer(%s): %v", sub.option, err)
		}
		if res.Correct != sub.correct {
			t.Fatalf("option %s graded %v, want %v", sub.option, res.Correct, sub.correct)
		}
		last = res
	}

	if last.Score != 40 {
		t.Fatalf("score = %d, want 40 (percentage of original total)", last.Score)
	}
	if last.CorrectOption != "A" || last.Explanation == "" {
		t.Fatal("feedback fields not populated")
	}
}

func TestRecordAnswerReSubmissionIsIdempotent(t *testing.T) {
	qs := &fakeQuestionStore{questions: questionFixtures(5)}
	ss := newFakeSessionStore(qs)
	svc := newTestService(qs, ss, &fakePublisher{})
	userID := uuid.New()
	ctx := context.Background()

	s := mustCreate(t, svc, userID, model.CreateSessionRequest{})
	qid := ss.assignments[s.ID][0].QuestionID

	res, err := svc.RecordAnswer(ctx, s.ID, userID, qid, "A")
	if err != nil {
		t.Fatalf("first submission: %v", err)
	}
	if !res.Correct || res.Score != 20 {
		t.Fatalf("first submission: correct=%v score=%d, want true/20", res.Correct, res.Score)
	}

	// Overwriting with a wrong option must drop the score back; nothing
	// double counts.
	res, err = svc.RecordAnswer(ctx, s.ID, userID, qid, "B")
	if err != nil {
		t.Fatalf("second submission: %v", err)
	}
	if res.Correct || res.Score != 0 {
		t.Fatalf("second submission: correct=%v score=%d, want false/0", res.Correct, res.Score)
	}

	answered := 0
	for _, a := range ss.answers[s.ID] {
		if a.Answered() {
			answered++
			if *a.SelectedOption != "B" {
				t.Fatalf("stored selection = %s, want B", *a.SelectedOption)
			}
		}
	}
	if answered != 1 {
		t.Fatalf("answered rows = %d, want exactly 1", answered)
	}
}

func TestRecordAnswerNormalizesSelection(t *testing.T) {
	qs := &fakeQuestionStore{questions: questionFixtures(2)}
	ss := newFakeSessionStore(qs)
	svc := newTestService(qs, ss, &fakePublisher{})
	userID := uuid.New()

	s := mustCreate(t, svc, userID, model.CreateSessionRequest{})
	qid := ss.assignments[s.ID][0].QuestionID

	res, err := svc.RecordAnswer(context.Background(), s.ID, userID, qid, " a ")
	if err != nil {
		t.Fatalf("RecordAnswer: %v", err)
	}
	if !res.Correct {
		t.Fatal("' a ' should normalize to A and grade correct")
	}
	if *res.Answer.SelectedOption != "A" {
		t.Fatalf("stored selection = %q, want normalized A", *res.Answer.SelectedOption)
	}
}

func TestRecordAnswerRejectsUnknownLabel(t *testing.T) {
	qs := &fakeQuestionStore{questions: questionFixtures(2)}
	ss := newFakeSessionStore(qs)
	svc := newTestService(qs, ss, &fakePublisher{})
	userID := uuid.New()

	s := mustCreate(t, svc, userID, model.CreateSessionRequest{})
	qid := ss.assignments[s.ID][0].QuestionID

	_, err := svc.RecordAnswer(context.Background(), s.ID, userID, qid, "E")
	if !errors.Is(err, ErrInvalidOption) {
		t.Fatalf("err = %v, want ErrInvalidOption", err)
	}
}

func TestRecordAnswerOutsideAssignmentSet(t *testing.T) {
	questions := questionFixtures(6)
	qs := &fakeQuestionStore{questions: questions}
	ss := newFakeSessionStore(qs)
	svc := newTestService(qs, ss, &fakePublisher{})
	userID := uuid.New()

	// Session over questions 0..2 only.
	s := mustCreate(t, svc, userID, model.CreateSessionRequest{
		QuestionIDs: []string{questions[0].ID.String(), questions[1].ID.String(), questions[2].ID.String()},
	})

	// Question 5 exists in the store but has no answer slot here.
	_, err := svc.RecordAnswer(context.Background(), s.ID, userID, questions[5].ID, "A")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestRecordAnswerOnFinishedSession(t *testing.T) {
	qs := &fakeQuestionStore{questions: questionFixtures(3)}
	ss := newFakeSessionStore(qs)
	svc := newTestService(qs, ss, &fakePublisher{})
	userID := uuid.New()
	ctx := context.Background()

	s := mustCreate(t, svc, userID, model.CreateSessionRequest{})
	qid := ss.assignments[s.ID][0].QuestionID

	if _, err := svc.UpdateStatus(ctx, s.ID, userID, model.UpdateSessionRequest{Status: model.SessionStatusCompleted}); err != nil {
		t.Fatalf("complete: %v", err)
	}

	_, err := svc.RecordAnswer(ctx, s.ID, userID, qid, "A")
	if !errors.Is(err, ErrSessionNotActive) {
		t.Fatalf("err = %v, want ErrSessionNotActive", err)
	}
}

// ─── Lifecycle ───────────────────────────────────────────────────────────

func TestUpdateStatusCompletesAndPublishes(t *testing.T) {
	qs := &fakeQuestionStore{questions: questionFixtures(3)}
	ss := newFakeSessionStore(qs)
	pub := &fakePublisher{}
	svc := newTestService(qs, ss, pub)
	userID := uuid.New()
	ctx := context.Background()

	s := mustCreate(t, svc, userID, model.CreateSessionRequest{})
	duration := 312

	updated, err := svc.UpdateStatus(ctx, s.ID, userID, model.UpdateSessionRequest{
		Status:          model.SessionStatusCompleted,
		DurationSeconds: &duration,
	})
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if updated.Status != model.SessionStatusCompleted {
		t.Fatalf("status = %s, want COMPLETED", updated.Status)
	}
	if updated.CompletedAt == nil {
		t.Fatal("completed_at not defaulted")
	}
	if updated.DurationSeconds == nil || *updated.DurationSeconds != 312 {
		t.Fatal("duration_seconds not persisted")
	}

	if len(pub.events) != 1 || pub.events[0].Type != event.TypeSessionCompleted {
		t.Fatalf("events = %+v, want one session.completed", pub.events)
	}

	// Terminal states are final.
	_, err = svc.UpdateStatus(ctx, s.ID, userID, model.UpdateSessionRequest{Status: model.SessionStatusAbandoned})
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("err = %v, want ErrInvalidTransition", err)
	}
}

func TestUpdateStatusAbandonPublishesNothing(t *testing.T) {
	qs := &fakeQuestionStore{questions: questionFixtures(3)}
	ss := newFakeSessionStore(qs)
	pub := &fakePublisher{}
	svc := newTestService(qs, ss, pub)
	userID := uuid.New()

	s := mustCreate(t, svc, userID, model.CreateSessionRequest{})
	updated, err := svc.UpdateStatus(context.Background(), s.ID, userID, model.UpdateSessionRequest{
		Status: model.SessionStatusAbandoned,
	})
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if updated.Status != model.SessionStatusAbandoned {
		t.Fatalf("status = %s, want ABANDONED", updated.Status)
	}
	if len(pub.events) != 0 {
		t.Fatalf("abandoning published %d events, want 0", len(pub.events))
	}
}

func TestResolveActivePicksNewestInProgress(t *testing.T) {
	qs := &fakeQuestionStore{questions: questionFixtures(3)}
	ss := newFakeSessionStore(qs)
	svc := newTestService(qs, ss, &fakePublisher{})
	userID := uuid.New()
	ctx := context.Background()

	older := mustCreate(t, svc, userID, model.CreateSessionRequest{})
	if _, err := svc.UpdateStatus(ctx, older.ID, userID, model.UpdateSessionRequest{Status: model.SessionStatusCompleted}); err != nil {
		t.Fatalf("complete older: %v", err)
	}
	newer := mustCreate(t, svc, userID, model.CreateSessionRequest{})

	got, err := svc.ResolveActive(ctx, userID)
	if err != nil {
		t.Fatalf("ResolveActive: %v", err)
	}
	if got == nil || got.ID != newer.ID {
		t.Fatalf("resolved %v, want the newer in-progress session %s", got, newer.ID)
	}
}

func TestResolveActiveTieBreaksByID(t *testing.T) {
	qs := &fakeQuestionStore{questions: questionFixtures(1)}
	ss := newFakeSessionStore(qs)
	svc := newTestService(qs, ss, &fakePublisher{})
	userID := uuid.New()

	// Two in-progress sessions sharing a started_at timestamp.
	startedAt := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	a := &model.Session{ID: uuid.New(), UserID: userID, Status: model.SessionStatusInProgress, StartedAt: startedAt}
	b := &model.Session{ID: uuid.New(), UserID: userID, Status: model.SessionStatusInProgress, StartedAt: startedAt}
	ss.sessions[a.ID] = a
	ss.sessions[b.ID] = b

	wantID := a.ID
	if b.ID.String() > a.ID.String() {
		wantID = b.ID
	}

	got, err := svc.ResolveActive(context.Background(), userID)
	if err != nil {
		t.Fatalf("ResolveActive: %v", err)
	}
	if got.ID != wantID {
		t.Fatalf("resolved %s, want deterministic id tie-break winner %s", got.ID, wantID)
	}
}

func TestResolveActiveNoSession(t *testing.T) {
	qs := &fakeQuestionStore{questions: questionFixtures(1)}
	ss := newFakeSessionStore(qs)
	svc := newTestService(qs, ss, &fakePublisher{})

	got, err := svc.ResolveActive(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("ResolveActive: %v", err)
	}
	if got != nil {
		t.Fatalf("resolved %v, want nil", got)
	}
}

func TestDeleteCascadesAndSparesQuestions(t *testing.T) {
	qs := &fakeQuestionStore{questions: questionFixtures(4)}
	ss := newFakeSessionStore(qs)
	svc := newTestService(qs, ss, &fakePublisher{})
	userID := uuid.New()
	ctx := context.Background()

	s := mustCreate(t, svc, userID, model.CreateSessionRequest{})
	qid := ss.assignments[s.ID][0].QuestionID
	if _, err := svc.RecordAnswer(ctx, s.ID, userID, qid, "A"); err != nil {
		t.Fatalf("RecordAnswer: %v", err)
	}

	if err := svc.Delete(ctx, s.ID, userID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, ok := ss.sessions[s.ID]; ok {
		t.Fatal("session row survived deletion")
	}
	if len(ss.assignments[s.ID]) != 0 || len(ss.answers[s.ID]) != 0 {
		t.Fatal("assignments/answers survived cascade")
	}
	if len(qs.questions) != 4 {
		t.Fatalf("question store shrank to %d rows", len(qs.questions))
	}
}

// ─── Ownership guard ─────────────────────────────────────────────────────

func TestOwnershipIsolation(t *testing.T) {
	qs := &fakeQuestionStore{questions: questionFixtures(3)}
	ss := newFakeSessionStore(qs)
	svc := newTestService(qs, ss, &fakePublisher{})
	owner := uuid.New()
	stranger := uuid.New()
	ctx := context.Background()

	s := mustCreate(t, svc, owner, model.CreateSessionRequest{})
	qid := ss.assignments[s.ID][0].QuestionID

	// Every operation reports NotFound — never Forbidden — so a prober
	// cannot distinguish "not yours" from "does not exist".
	checks := map[string]error{}

	_, err := svc.GetDetail(ctx, s.ID, stranger)
	checks["GetDetail"] = err
	_, err = svc.RecordAnswer(ctx, s.ID, stranger, qid, "A")
	checks["RecordAnswer"] = err
	_, err = svc.UpdateStatus(ctx, s.ID, stranger, model.UpdateSessionRequest{Status: model.SessionStatusCompleted})
	checks["UpdateStatus"] = err
	checks["Delete"] = svc.Delete(ctx, s.ID, stranger)

	for op, err := range checks {
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("%s by non-owner: err = %v, want ErrNotFound", op, err)
		}
	}

	if _, ok := ss.sessions[s.ID]; !ok {
		t.Fatal("stranger managed to delete the session")
	}
	if ss.sessions[s.ID].Status != model.SessionStatusInProgress {
		t.Fatal("stranger mutated session status")
	}

	list, err := svc.List(ctx, stranger)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("stranger sees %d sessions, want 0", len(list))
	}
}

func TestGetDetailSurfacesIntegrityViolation(t *testing.T) {
	questions := questionFixtures(3)
	qs := &fakeQuestionStore{questions: questions}
	ss := newFakeSessionStore(qs)
	svc := newTestService(qs, ss, &fakePublisher{})
	userID := uuid.New()

	s := mustCreate(t, svc, userID, model.CreateSessionRequest{})

	// Simulate a question vanishing from the store after assembly.
	qs.questions = questions[:1]

	_, err := svc.GetDetail(context.Background(), s.ID, userID)
	if !errors.Is(err, ErrDataIntegrity) {
		t.Fatalf("err = %v, want ErrDataIntegrity", err)
	}
}

// ─── Listing ─────────────────────────────────────────────────────────────

func TestListReturnsNewestFirstWithAnswers(t *testing.T) {
	qs := &fakeQuestionStore{questions: questionFixtures(2)}
	ss := newFakeSessionStore(qs)
	svc := newTestService(qs, ss, &fakePublisher{})
	userID := uuid.New()
	ctx := context.Background()

	first := mustCreate(t, svc, userID, model.CreateSessionRequest{})
	second := mustCreate(t, svc, userID, model.CreateSessionRequest{})

	list, err := svc.List(ctx, userID)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("len = %d, want 2", len(list))
	}
	if list[0].ID != second.ID || list[1].ID != first.ID {
		t.Fatal("sessions not ordered newest first")
	}
	for _, entry := range list {
		if len(entry.Answers) != entry.TotalQuestions {
			t.Fatalf("session %s has %d answers, want %d", entry.ID, len(entry.Answers), entry.TotalQuestions)
		}
	}
}
