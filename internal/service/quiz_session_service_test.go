package service

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/DeifMohamed2/mrRaafat/internal/model"
	"github.com/DeifMohamed2/mrRaafat/internal/util"
)

type fakeQuizStore struct {
	quiz      *model.Quiz
	questions []model.QuizQuestion
}

func (f *fakeQuizStore) FindWithQuestions(id uint) (*model.Quiz, []model.QuizQuestion, error) {
	if f.quiz == nil || f.quiz.ID != id {
		return nil, nil, nil
	}
	return f.quiz, f.questions, nil
}

type fakeAttemptStore struct {
	attempt *model.QuizAttempt
	answers map[int]model.QuizAttemptAnswer
}

func newFakeAttemptStore() *fakeAttemptStore {
	return &fakeAttemptStore{answers: make(map[int]model.QuizAttemptAnswer)}
}

func (f *fakeAttemptStore) FindByUserAndQuiz(userID, quizID uint) (*model.QuizAttempt, error) {
	if f.attempt == nil || f.attempt.UserID != userID || f.attempt.QuizID != quizID {
		return nil, nil
	}
	cp := *f.attempt
	return &cp, nil
}

func (f *fakeAttemptStore) Create(attempt *model.QuizAttempt) error {
	attempt.ID = 1
	cp := *attempt
	f.attempt = &cp
	return nil
}

func (f *fakeAttemptStore) SaveSelection(attemptID uint, indices []int) error {
	if f.attempt == nil || f.attempt.ID != attemptID {
		return nil
	}
	if f.attempt.SelectedIndices == "" || f.attempt.SelectedIndices == "[]" {
		f.attempt.SetSelection(indices)
	}
	return nil
}

func (f *fakeAttemptStore) Restart(attemptID uint, start, end time.Time) error {
	if f.attempt == nil || f.attempt.ID != attemptID {
		return nil
	}
	f.attempt.Status = model.AttemptInProgress
	f.attempt.StartTime = start
	f.attempt.EndTime = &end
	f.attempt.Score = 0
	f.attempt.SelectedIndices = ""
	f.answers = make(map[int]model.QuizAttemptAnswer)
	return nil
}

func (f *fakeAttemptStore) UpsertAnswer(a *model.QuizAttemptAnswer) error {
	f.answers[a.Position] = *a
	return nil
}

func (f *fakeAttemptStore) InsertAnswerIfAbsent(a *model.QuizAttemptAnswer) error {
	if _, ok := f.answers[a.Position]; !ok {
		f.answers[a.Position] = *a
	}
	return nil
}

func (f *fakeAttemptStore) Answers(attemptID uint) ([]model.QuizAttemptAnswer, error) {
	positions := make([]int, 0, len(f.answers))
	for p := range f.answers {
		positions = append(positions, p)
	}
	sort.Ints(positions)
	out := make([]model.QuizAttemptAnswer, 0, len(positions))
	for _, p := range positions {
		out = append(out, f.answers[p])
	}
	return out, nil
}

func (f *fakeAttemptStore) Complete(attemptID uint, score int, solvedAt time.Time) (bool, error) {
	if f.attempt == nil || f.attempt.ID != attemptID || f.attempt.Status != model.AttemptInProgress {
		return false, nil
	}
	f.attempt.Status = model.AttemptCompleted
	f.attempt.Score = score
	f.attempt.SolvedAt = &solvedAt
	f.attempt.EndTime = nil
	return true, nil
}

type fakeStudentStore struct {
	user         *model.User
	totalsCalls  int
	lastScore    int
	lastQuestion int
}

func (f *fakeStudentStore) FindByID(id uint) (*model.User, error) {
	return f.user, nil
}

func (f *fakeStudentStore) ApplyQuizTotals(userID uint, score, questions int) error {
	f.totalsCalls++
	f.lastScore = score
	f.lastQuestion = questions
	return nil
}

type allowAll struct{}

func (allowAll) CanAttempt(user *model.User, quiz *model.Quiz) (AccessLevel, error) {
	return AccessFree, nil
}

type denyAll struct{}

func (denyAll) CanAttempt(user *model.User, quiz *model.Quiz) (AccessLevel, error) {
	return AccessDenied, nil
}

type fakeStats struct{ incremented int }

func (f *fakeStats) IncrTakenCount(ctx context.Context, quizID uint) { f.incremented++ }

func testPool() []model.QuizQuestion {
	return []model.QuizQuestion{
		{QuizID: 1, Position: 0, Title: "q0", Answer1: "a", Answer2: "b", CorrectAnswer: 1},
		{QuizID: 1, Position: 1, Title: "q1", Answer1: "a", Answer2: "b", CorrectAnswer: 2},
		{QuizID: 1, Position: 2, Title: "q2", Answer1: "a", Answer2: "b", CorrectAnswer: 1},
		{QuizID: 1, Position: 3, Title: "q3", Answer1: "a", Answer2: "b", CorrectAnswer: 2},
	}
}

func testQuiz(toShow int) *model.Quiz {
	q := &model.Quiz{
		Name:                 "Algebra",
		Grade:                "grade1",
		DurationMinutes:      10,
		QuestionsToShow:      toShow,
		IsActive:             true,
		IsVisible:            true,
		ShowAnswersAfterQuiz: true,
	}
	q.ID = 1
	return q
}

func newSessionFixture(toShow int) (*QuizSessionService, *fakeAttemptStore, *fakeStudentStore, *fakeStats) {
	quizzes := &fakeQuizStore{quiz: testQuiz(toShow), questions: testPool()}
	attempts := newFakeAttemptStore()
	user := &model.User{Role: model.Student, Grade: "grade1"}
	user.ID = 7
	users := &fakeStudentStore{user: user}
	stats := &fakeStats{}

	svc := NewQuizSessionService(quizzes, attempts, users, allowAll{}, stats)
	return svc, attempts, users, stats
}

func TestStartCreatesAttemptWithSelection(t *testing.T) {
	svc, attempts, _, _ := newSessionFixture(2)

	res, err := svc.StartOrResumeAttempt(7, 1)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if res.Status != StartStarted {
		t.Fatalf("expected %q, got %q", StartStarted, res.Status)
	}
	if res.TotalQuestions != 2 {
		t.Fatalf("expected 2 questions, got %d", res.TotalQuestions)
	}
	if res.EndTime == nil {
		t.Fatal("expected an end time")
	}

	sel := attempts.attempt.Selection()
	if len(sel) != 2 {
		t.Fatalf("expected 2 selected indices, got %v", sel)
	}
	seen := map[int]bool{}
	for _, v := range sel {
		if v < 0 || v >= 4 || seen[v] {
			t.Fatalf("bad selection %v", sel)
		}
		seen[v] = true
	}

	// Starting again within the window resumes the same attempt.
	res2, err := svc.StartOrResumeAttempt(7, 1)
	if err != nil {
		t.Fatalf("resume failed: %v", err)
	}
	if res2.Status != StartResumed {
		t.Fatalf("expected %q, got %q", StartResumed, res2.Status)
	}
	if !res2.EndTime.Equal(*res.EndTime) {
		t.Fatal("resume must keep the original window")
	}
}

func TestStartDeniedWithoutEntitlement(t *testing.T) {
	svc, _, _, _ := newSessionFixture(2)
	svc.Access = denyAll{}

	_, err := svc.StartOrResumeAttempt(7, 1)
	if !errors.Is(err, util.ErrQuizAccessDenied) {
		t.Fatalf("expected access denied, got %v", err)
	}
}

func TestGetQuestionClampsAndCountsDown(t *testing.T) {
	svc, _, _, _ := newSessionFixture(4)
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.Now = func() time.Time { return start }

	if _, err := svc.StartOrResumeAttempt(7, 1); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	// Out-of-range numbers clamp instead of erroring.
	view, err := svc.GetQuestion(7, 1, 0)
	if err != nil {
		t.Fatalf("get question failed: %v", err)
	}
	if view.DisplayNumber != 1 {
		t.Fatalf("expected clamp to 1, got %d", view.DisplayNumber)
	}

	view, err = svc.GetQuestion(7, 1, 99)
	if err != nil {
		t.Fatalf("get question failed: %v", err)
	}
	if view.DisplayNumber != 4 {
		t.Fatalf("expected clamp to 4, got %d", view.DisplayNumber)
	}
	if view.TotalQuestions != 4 {
		t.Fatalf("expected 4 total, got %d", view.TotalQuestions)
	}
	if view.RemainingSeconds != 600 {
		t.Fatalf("expected 600 remaining seconds, got %d", view.RemainingSeconds)
	}
}

func TestLazyExpiryFinalizesOnTouch(t *testing.T) {
	svc, attempts, users, stats := newSessionFixture(4)
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	now := start
	svc.Now = func() time.Time { return now }

	if _, err := svc.StartOrResumeAttempt(7, 1); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	// One answer gets saved before the window shuts.
	sel := attempts.attempt.Selection()
	correct := map[int]string{}
	correct[0] = answerLabelFor(testPool()[sel[0]])
	if err := svc.SaveAnswer(7, 1, 0, correct[0]); err != nil {
		t.Fatalf("save answer failed: %v", err)
	}

	// Clock passes the end of the window; the next touch finalizes.
	now = start.Add(11 * time.Minute)
	_, err := svc.GetQuestion(7, 1, 1)
	if !errors.Is(err, util.ErrQuizTimeExpired) {
		t.Fatalf("expected expiry, got %v", err)
	}

	if !attempts.attempt.Completed() {
		t.Fatal("attempt must be completed after expiry")
	}
	if attempts.attempt.Score != 1 {
		t.Fatalf("expected score 1 from the saved answer, got %d", attempts.attempt.Score)
	}
	if users.totalsCalls != 1 {
		t.Fatalf("lifetime totals must apply exactly once, got %d", users.totalsCalls)
	}
	if stats.incremented != 1 {
		t.Fatalf("taken count must increment once, got %d", stats.incremented)
	}

	// Starting again after expiry reports the terminal state.
	_, err = svc.StartOrResumeAttempt(7, 1)
	if !errors.Is(err, util.ErrQuizCompleted) {
		t.Fatalf("expected completed, got %v", err)
	}
}

func TestFinalizeServerAnswersWin(t *testing.T) {
	svc, attempts, users, _ := newSessionFixture(4)
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.Now = func() time.Time { return start }

	if _, err := svc.StartOrResumeAttempt(7, 1); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	sel := attempts.attempt.Selection()
	// Server side: correct answer at position 0.
	if err := svc.SaveAnswer(7, 1, 0, answerLabelFor(testPool()[sel[0]])); err != nil {
		t.Fatalf("save answer failed: %v", err)
	}

	// Client payload: wrong answer at position 0 (must lose to the server
	// copy) and a correct answer at position 1 (fills the gap).
	client := []ClientAnswer{
		{Position: 0, Selected: wrongLabelFor(testPool()[sel[0]])},
		{Position: 1, Selected: answerLabelFor(testPool()[sel[1]])},
	}

	res, err := svc.FinalizeAttempt(7, 1, client)
	if err != nil {
		t.Fatalf("finalize failed: %v", err)
	}
	if res.Score != 2 {
		t.Fatalf("expected score 2, got %d", res.Score)
	}
	if res.TotalQuestions != 4 {
		t.Fatalf("expected 4 total, got %d", res.TotalQuestions)
	}
	if users.lastScore != 2 || users.lastQuestion != 4 {
		t.Fatalf("totals got %d/%d", users.lastScore, users.lastQuestion)
	}

	// Stored answer at position 0 is still the server's.
	if attempts.answers[0].Selected != answerLabelFor(testPool()[sel[0]]) {
		t.Fatal("server answer was overwritten by client payload")
	}
}

func TestFinalizeIsIdempotent(t *testing.T) {
	svc, _, users, stats := newSessionFixture(4)

	if _, err := svc.StartOrResumeAttempt(7, 1); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	if _, err := svc.FinalizeAttempt(7, 1, nil); err != nil {
		t.Fatalf("first finalize failed: %v", err)
	}

	_, err := svc.FinalizeAttempt(7, 1, nil)
	if !errors.Is(err, util.ErrQuizCompleted) {
		t.Fatalf("expected completed on second finalize, got %v", err)
	}
	if users.totalsCalls != 1 {
		t.Fatalf("totals applied %d times", users.totalsCalls)
	}
	if stats.incremented != 1 {
		t.Fatalf("taken count incremented %d times", stats.incremented)
	}
}

func TestLegacyClientAnswersUseArrayIndex(t *testing.T) {
	svc, attempts, _, _ := newSessionFixture(4)

	if _, err := svc.StartOrResumeAttempt(7, 1); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	sel := attempts.attempt.Selection()

	client := []ClientAnswer{
		{Position: -1, Selected: answerLabelFor(testPool()[sel[0]]), legacy: true},
		{Position: -1, Selected: answerLabelFor(testPool()[sel[1]]), legacy: true},
	}

	res, err := svc.FinalizeAttempt(7, 1, client)
	if err != nil {
		t.Fatalf("finalize failed: %v", err)
	}
	if res.Score != 2 {
		t.Fatalf("expected score 2 from legacy answers, got %d", res.Score)
	}
}

func TestReviewBreakdown(t *testing.T) {
	svc, attempts, _, _ := newSessionFixture(3)

	if _, err := svc.StartOrResumeAttempt(7, 1); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	sel := attempts.attempt.Selection()

	// Position 0 correct, position 1 wrong, position 2 unanswered.
	if err := svc.SaveAnswer(7, 1, 0, answerLabelFor(testPool()[sel[0]])); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := svc.SaveAnswer(7, 1, 1, wrongLabelFor(testPool()[sel[1]])); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	if _, err := svc.FinalizeAttempt(7, 1, nil); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	review, err := svc.GetReview(7, 1)
	if err != nil {
		t.Fatalf("review failed: %v", err)
	}
	if review.Correct != 1 || review.Incorrect != 1 || review.Unanswered != 1 {
		t.Fatalf("breakdown %d/%d/%d", review.Correct, review.Incorrect, review.Unanswered)
	}
	if review.Score != 1 {
		t.Fatalf("expected score 1, got %d", review.Score)
	}
	if len(review.Breakdown) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(review.Breakdown))
	}
	if review.Breakdown[0].Outcome != OutcomeCorrect {
		t.Fatalf("row 0 outcome %q", review.Breakdown[0].Outcome)
	}
	q0 := testPool()[sel[0]]
	if want := q0.Option(q0.CorrectAnswer); review.Breakdown[0].CorrectText != want {
		t.Fatalf("row 0 correct text %q, want %q", review.Breakdown[0].CorrectText, want)
	}
	if review.Breakdown[2].Outcome != OutcomeUnanswered {
		t.Fatalf("row 2 outcome %q", review.Breakdown[2].Outcome)
	}
}

func TestReviewHiddenWhenQuizForbidsIt(t *testing.T) {
	svc, _, _, _ := newSessionFixture(2)
	quizzes := svc.Quizzes.(*fakeQuizStore)
	quizzes.quiz.ShowAnswersAfterQuiz = false

	if _, err := svc.StartOrResumeAttempt(7, 1); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if _, err := svc.FinalizeAttempt(7, 1, nil); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	_, err := svc.GetReview(7, 1)
	if !errors.Is(err, util.ErrAnswersHidden) {
		t.Fatalf("expected hidden, got %v", err)
	}
}

func TestReviewRequiresCompletion(t *testing.T) {
	svc, _, _, _ := newSessionFixture(2)

	if _, err := svc.StartOrResumeAttempt(7, 1); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	_, err := svc.GetReview(7, 1)
	if !errors.Is(err, util.ErrAttemptNotFinished) {
		t.Fatalf("expected unfinished-attempt error, got %v", err)
	}
}

func TestGetQuestionEmptyPoolFailsClosed(t *testing.T) {
	svc, _, _, _ := newSessionFixture(0)
	svc.Quizzes = &fakeQuizStore{quiz: testQuiz(0), questions: nil}

	if _, err := svc.StartOrResumeAttempt(7, 1); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	_, err := svc.GetQuestion(7, 1, 1)
	if !errors.Is(err, util.ErrQuestionNotFound) {
		t.Fatalf("expected question not found for empty pool, got %v", err)
	}
}

func TestStartUnknownStudentNotFound(t *testing.T) {
	svc, _, users, _ := newSessionFixture(2)
	users.user = nil

	_, err := svc.StartOrResumeAttempt(7, 1)
	if !errors.Is(err, util.ErrUserNotFound) {
		t.Fatalf("expected user not found, got %v", err)
	}
}

func answerLabelFor(q model.QuizQuestion) string {
	switch q.CorrectAnswer {
	case 1:
		return "answer1"
	case 2:
		return "answer2"
	case 3:
		return "answer3"
	default:
		return "answer4"
	}
}

func wrongLabelFor(q model.QuizQuestion) string {
	if q.CorrectAnswer == 1 {
		return "answer2"
	}
	return "answer1"
}
