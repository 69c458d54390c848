package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/DeifMohamed2/mrRaafat/internal/model"
	"github.com/DeifMohamed2/mrRaafat/internal/util"
	"github.com/DeifMohamed2/mrRaafat/pkg/logger"
	"github.com/DeifMohamed2/mrRaafat/pkg/monitoring"

	"go.uber.org/zap"
)

// QuizStore is the read side of the quiz definition store. Definitions are
// immutable for the lifetime of an attempt.
type QuizStore interface {
	FindWithQuestions(id uint) (*model.Quiz, []model.QuizQuestion, error)
}

// AttemptStore persists attempt aggregates. SaveSelection is first-writer-
// wins, UpsertAnswer is keyed by (attempt, position), and Complete is a
// conditional transition reporting whether this caller won it.
type AttemptStore interface {
	FindByUserAndQuiz(userID, quizID uint) (*model.QuizAttempt, error)
	Create(attempt *model.QuizAttempt) error
	SaveSelection(attemptID uint, indices []int) error
	Restart(attemptID uint, start, end time.Time) error
	UpsertAnswer(answer *model.QuizAttemptAnswer) error
	InsertAnswerIfAbsent(answer *model.QuizAttemptAnswer) error
	Answers(attemptID uint) ([]model.QuizAttemptAnswer, error)
	Complete(attemptID uint, score int, solvedAt time.Time) (bool, error)
}

type StudentStore interface {
	FindByID(id uint) (*model.User, error)
	ApplyQuizTotals(userID uint, score, questions int) error
}

type EntitlementChecker interface {
	CanAttempt(user *model.User, quiz *model.Quiz) (AccessLevel, error)
}

type StatsRecorder interface {
	IncrTakenCount(ctx context.Context, quizID uint)
}

// QuizSessionService drives a single student's attempt at a single quiz:
// start/resume, question fetch, incremental answer saves, finalization and
// post-hoc review. Timeouts are detected lazily at the top of every
// operation; there is no background timer.
type QuizSessionService struct {
	Quizzes  QuizStore
	Attempts AttemptStore
	Users    StudentStore
	Access   EntitlementChecker
	Stats    StatsRecorder

	// Now is the clock used for all window math; overridable in tests.
	Now func() time.Time
}

func NewQuizSessionService(quizzes QuizStore, attempts AttemptStore, users StudentStore, access EntitlementChecker, stats StatsRecorder) *QuizSessionService {
	return &QuizSessionService{
		Quizzes:  quizzes,
		Attempts: attempts,
		Users:    users,
		Access:   access,
		Stats:    stats,
		Now:      time.Now,
	}
}

const (
	StartStarted = "started"
	StartResumed = "resumed"
	StartExpired = "expired"
)

type StartResult struct {
	Status         string     `json:"status"`
	EndTime        *time.Time `json:"endTime,omitempty"`
	TotalQuestions int        `json:"totalQuestions"`
}

type QuestionView struct {
	DisplayNumber    int    `json:"qNumber"`
	TotalQuestions   int    `json:"totalQuestions"`
	RemainingSeconds int    `json:"remainingSeconds"`
	Title            string `json:"title"`
	Image            string `json:"image,omitempty"`
	Answer1          string `json:"answer1"`
	Answer2          string `json:"answer2"`
	Answer3          string `json:"answer3"`
	Answer4          string `json:"answer4"`
}

type FinalizeResult struct {
	Score          int `json:"score"`
	TotalQuestions int `json:"totalQuestions"`
	PoolSize       int `json:"questionsPool"`
}

const (
	OutcomeCorrect    = "correct"
	OutcomeIncorrect  = "incorrect"
	OutcomeUnanswered = "unanswered"
)

type QuestionReview struct {
	DisplayNumber int    `json:"qNumber"`
	Title         string `json:"title"`
	Image         string `json:"image,omitempty"`
	Answer1       string `json:"answer1"`
	Answer2       string `json:"answer2"`
	Answer3       string `json:"answer3"`
	Answer4       string `json:"answer4"`
	CorrectOption int    `json:"correctOption"`
	CorrectText   string `json:"correctText"`
	Selected      string `json:"selected,omitempty"`
	Outcome       string `json:"outcome"`
}

type ReviewResult struct {
	Score          int              `json:"score"`
	TotalQuestions int              `json:"totalQuestions"`
	PoolSize       int              `json:"questionsPool"`
	Correct        int              `json:"correctAnswers"`
	Incorrect      int              `json:"incorrectAnswers"`
	Unanswered     int              `json:"unansweredQuestions"`
	Breakdown      []QuestionReview `json:"breakdown"`
}

// ClientAnswer is one entry of the finalize payload. The legacy client sends
// a bare option label whose array index is the display position; the newer
// client sends a structured object. Both normalize to (position, label) at
// this boundary so nothing deeper branches on shape.
type ClientAnswer struct {
	Position int    `json:"position"`
	Selected string `json:"selectedAnswer"`

	legacy bool
}

func (a *ClientAnswer) UnmarshalJSON(data []byte) error {
	var label string
	if err := json.Unmarshal(data, &label); err == nil {
		a.Position = -1
		a.Selected = label
		a.legacy = true
		return nil
	}

	type plain ClientAnswer
	var obj plain
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	a.Position = obj.Position
	a.Selected = obj.Selected
	a.legacy = false
	return nil
}

func normalizeClientAnswers(in []ClientAnswer) map[int]string {
	out := make(map[int]string, len(in))
	for i, a := range in {
		if a.Selected == "" {
			continue
		}
		pos := a.Position
		if a.legacy || pos < 0 {
			pos = i
		}
		out[pos] = a.Selected
	}
	return out
}

// StartOrResumeAttempt creates the attempt window on first start; repeated
// starts while the window is open are idempotent. Completed attempts are
// terminal and reject re-entry.
func (s *QuizSessionService) StartOrResumeAttempt(userID, quizID uint) (*StartResult, error) {
	quiz, questions, _, err := s.loadAndAuthorize(userID, quizID)
	if err != nil {
		return nil, err
	}

	now := s.Now()
	poolSize := len(questions)
	toShow := effectiveQuestionsToShow(quiz, poolSize)
	duration := time.Duration(quiz.DurationMinutes) * time.Minute

	attempt, err := s.Attempts.FindByUserAndQuiz(userID, quizID)
	if err != nil {
		return nil, err
	}

	switch {
	case attempt == nil:
		end := now.Add(duration)
		attempt = &model.QuizAttempt{
			UserID:    userID,
			QuizID:    quizID,
			Status:    model.AttemptInProgress,
			StartTime: now,
			EndTime:   &end,
		}
		attempt.SetSelection(SelectQuestionIndices(poolSize, toShow))
		if err := s.Attempts.Create(attempt); err != nil {
			return nil, err
		}
		logger.Log.Info("quiz attempt started",
			zap.Uint("userId", userID), zap.Uint("quizId", quizID), zap.Time("endTime", end))
		return &StartResult{Status: StartStarted, EndTime: &end, TotalQuestions: toShow}, nil

	case attempt.Completed():
		return nil, util.ErrQuizCompleted

	case attempt.EndTime == nil:
		// Stale open row without a window (legacy data): start fresh.
		end := now.Add(duration)
		if err := s.Attempts.Restart(attempt.ID, now, end); err != nil {
			return nil, err
		}
		if err := s.Attempts.SaveSelection(attempt.ID, SelectQuestionIndices(poolSize, toShow)); err != nil {
			return nil, err
		}
		return &StartResult{Status: StartStarted, EndTime: &end, TotalQuestions: toShow}, nil

	case HasExpired(now, attempt.EndTime):
		if _, err := s.finalizeExpired(attempt, quiz, questions); err != nil {
			return nil, err
		}
		return &StartResult{Status: StartExpired}, nil

	default:
		return &StartResult{Status: StartResumed, EndTime: attempt.EndTime, TotalQuestions: len(s.selection(attempt, toShow))}, nil
	}
}

// GetQuestion resolves the Nth question of the attempt, 1-based and clamped
// to the selection bounds. It also carries the lazy expiry check: touching an
// elapsed attempt completes it and reports the expiry.
func (s *QuizSessionService) GetQuestion(userID, quizID uint, displayNumber int) (*QuestionView, error) {
	quiz, questions, _, err := s.loadAndAuthorize(userID, quizID)
	if err != nil {
		return nil, err
	}

	attempt, err := s.openAttempt(userID, quizID, quiz, questions)
	if err != nil {
		return nil, err
	}

	toShow := effectiveQuestionsToShow(quiz, len(questions))
	selection, err := s.ensureSelection(attempt, len(questions), toShow)
	if err != nil {
		return nil, err
	}

	if len(selection) == 0 {
		return nil, util.ErrQuestionNotFound
	}

	if displayNumber < 1 {
		displayNumber = 1
	}
	if displayNumber > len(selection) {
		displayNumber = len(selection)
	}

	poolIdx := selection[displayNumber-1]
	if poolIdx < 0 || poolIdx >= len(questions) {
		return nil, util.ErrQuestionNotFound
	}
	q := questions[poolIdx]

	remaining := 0
	if attempt.EndTime != nil {
		remaining = int(attempt.EndTime.Sub(s.Now()).Seconds())
		if remaining < 0 {
			remaining = 0
		}
	}

	return &QuestionView{
		DisplayNumber:    displayNumber,
		TotalQuestions:   len(selection),
		RemainingSeconds: remaining,
		Title:            EscapeSpecialCharacters(q.Title),
		Image:            q.Image,
		Answer1:          EscapeSpecialCharacters(q.Answer1),
		Answer2:          EscapeSpecialCharacters(q.Answer2),
		Answer3:          EscapeSpecialCharacters(q.Answer3),
		Answer4:          EscapeSpecialCharacters(q.Answer4),
	}, nil
}

// SaveAnswer upserts the answer for one display position. The last answer
// for a position wins.
func (s *QuizSessionService) SaveAnswer(userID, quizID uint, position int, optionLabel string) error {
	quiz, questions, _, err := s.loadAndAuthorize(userID, quizID)
	if err != nil {
		return err
	}

	attempt, err := s.openAttempt(userID, quizID, quiz, questions)
	if err != nil {
		return err
	}

	toShow := effectiveQuestionsToShow(quiz, len(questions))
	selection, err := s.ensureSelection(attempt, len(questions), toShow)
	if err != nil {
		return err
	}

	if position < 0 || position >= len(selection) {
		return util.ErrInvalidPosition
	}
	if optionLabel == "" {
		return util.ErrInvalidOption
	}

	return s.Attempts.UpsertAnswer(&model.QuizAttemptAnswer{
		AttemptID:  attempt.ID,
		Position:   position,
		Selected:   optionLabel,
		AnsweredAt: s.Now(),
	})
}

// FinalizeAttempt closes the attempt and computes the authoritative score.
// Client answers only fill positions with no server-side record; persisted
// answers always win. Once an attempt window has expired the client payload
// is ignored entirely and only stored answers count.
func (s *QuizSessionService) FinalizeAttempt(userID, quizID uint, clientAnswers []ClientAnswer) (*FinalizeResult, error) {
	quiz, questions, err := s.loadQuiz(quizID)
	if err != nil {
		return nil, err
	}

	attempt, err := s.Attempts.FindByUserAndQuiz(userID, quizID)
	if err != nil {
		return nil, err
	}
	if attempt == nil {
		return nil, util.ErrAttemptNotFound
	}
	if attempt.Completed() {
		return nil, util.ErrQuizCompleted
	}

	now := s.Now()
	expired := HasExpired(now, attempt.EndTime)
	toShow := effectiveQuestionsToShow(quiz, len(questions))
	selection, err := s.ensureSelection(attempt, len(questions), toShow)
	if err != nil {
		return nil, err
	}

	if !expired {
		byPosition := normalizeClientAnswers(clientAnswers)
		for i := range selection {
			label, ok := byPosition[i]
			if !ok {
				continue
			}
			err := s.Attempts.InsertAnswerIfAbsent(&model.QuizAttemptAnswer{
				AttemptID:  attempt.ID,
				Position:   i,
				Selected:   label,
				AnsweredAt: now,
			})
			if err != nil {
				return nil, err
			}
		}
	}

	score, won, err := s.complete(attempt, questions, selection)
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, util.ErrQuizCompleted
	}

	trigger := "submit"
	if expired {
		trigger = "expiry"
	}
	monitoring.QuizFinalizations.WithLabelValues(trigger).Inc()
	logger.Log.Info("quiz attempt finalized",
		zap.Uint("userId", userID), zap.Uint("quizId", quizID),
		zap.Int("score", score), zap.Int("totalQuestions", len(selection)),
		zap.String("trigger", trigger))

	return &FinalizeResult{
		Score:          score,
		TotalQuestions: len(selection),
		PoolSize:       len(questions),
	}, nil
}

// GetReview rebuilds the per-question breakdown of a completed attempt from
// persisted state. Pure read: safe to call any number of times.
func (s *QuizSessionService) GetReview(userID, quizID uint) (*ReviewResult, error) {
	quiz, questions, err := s.loadQuiz(quizID)
	if err != nil {
		return nil, err
	}

	attempt, err := s.Attempts.FindByUserAndQuiz(userID, quizID)
	if err != nil {
		return nil, err
	}
	if attempt == nil {
		return nil, util.ErrAttemptNotFound
	}
	if !attempt.Completed() {
		return nil, util.ErrAttemptNotFinished
	}
	if !quiz.ShowAnswersAfterQuiz {
		return nil, util.ErrAnswersHidden
	}

	toShow := effectiveQuestionsToShow(quiz, len(questions))
	selection := attempt.Selection()
	if len(selection) == 0 {
		// Legacy attempts stored no selection; review the sequential prefix.
		selection = SequentialIndices(toShow)
	}

	stored, err := s.Attempts.Answers(attempt.ID)
	if err != nil {
		return nil, err
	}
	answers := answersByPosition(stored)

	result := &ReviewResult{
		Score:          attempt.Score,
		TotalQuestions: len(selection),
		PoolSize:       len(questions),
		Breakdown:      make([]QuestionReview, 0, len(selection)),
	}

	for i, poolIdx := range selection {
		if poolIdx < 0 || poolIdx >= len(questions) {
			continue
		}
		q := questions[poolIdx]
		review := QuestionReview{
			DisplayNumber: i + 1,
			Title:         EscapeSpecialCharacters(q.Title),
			Image:         q.Image,
			Answer1:       EscapeSpecialCharacters(q.Answer1),
			Answer2:       EscapeSpecialCharacters(q.Answer2),
			Answer3:       EscapeSpecialCharacters(q.Answer3),
			Answer4:       EscapeSpecialCharacters(q.Answer4),
			CorrectOption: q.CorrectAnswer,
			CorrectText:   EscapeSpecialCharacters(q.Option(q.CorrectAnswer)),
		}

		label, answered := answers[i]
		n, parseable := ParseAnswerLabel(label)
		switch {
		case !answered || !parseable:
			review.Outcome = OutcomeUnanswered
			result.Unanswered++
		case n == q.CorrectAnswer:
			review.Selected = label
			review.Outcome = OutcomeCorrect
			result.Correct++
		default:
			review.Selected = label
			review.Outcome = OutcomeIncorrect
			result.Incorrect++
		}

		result.Breakdown = append(result.Breakdown, review)
	}

	return result, nil
}

func (s *QuizSessionService) loadQuiz(quizID uint) (*model.Quiz, []model.QuizQuestion, error) {
	quiz, questions, err := s.Quizzes.FindWithQuestions(quizID)
	if err != nil {
		return nil, nil, err
	}
	if quiz == nil {
		return nil, nil, util.ErrQuizNotFound
	}
	return quiz, questions, nil
}

// loadAndAuthorize runs the preconditions shared by every in-progress
// operation: quiz exists, is active and visible, and the student is entitled
// to attempt it.
func (s *QuizSessionService) loadAndAuthorize(userID, quizID uint) (*model.Quiz, []model.QuizQuestion, *model.User, error) {
	quiz, questions, err := s.loadQuiz(quizID)
	if err != nil {
		return nil, nil, nil, err
	}
	if !quiz.IsActive || !quiz.IsVisible {
		return nil, nil, nil, util.ErrQuizNotAvailable
	}

	user, err := s.Users.FindByID(userID)
	if err != nil {
		return nil, nil, nil, err
	}
	if user == nil {
		return nil, nil, nil, util.ErrUserNotFound
	}

	level, err := s.Access.CanAttempt(user, quiz)
	if err != nil {
		return nil, nil, nil, err
	}
	if level == AccessDenied {
		return nil, nil, nil, util.ErrQuizAccessDenied
	}

	return quiz, questions, user, nil
}

// openAttempt fetches the attempt and applies the lazy expiry transition.
// Returns the attempt only when it is open for answering.
func (s *QuizSessionService) openAttempt(userID, quizID uint, quiz *model.Quiz, questions []model.QuizQuestion) (*model.QuizAttempt, error) {
	attempt, err := s.Attempts.FindByUserAndQuiz(userID, quizID)
	if err != nil {
		return nil, err
	}
	if attempt == nil {
		return nil, util.ErrAttemptNotFound
	}
	if attempt.Completed() {
		return nil, util.ErrQuizCompleted
	}
	if HasExpired(s.Now(), attempt.EndTime) {
		if _, err := s.finalizeExpired(attempt, quiz, questions); err != nil {
			return nil, err
		}
		return nil, util.ErrQuizTimeExpired
	}
	return attempt, nil
}

// ensureSelection returns the attempt's persisted selection, generating and
// persisting one if the attempt predates it. SaveSelection is first-writer-
// wins, so the row is re-read afterwards; if everything still comes back
// empty the sequential prefix is used as a last resort.
func (s *QuizSessionService) ensureSelection(attempt *model.QuizAttempt, poolSize, toShow int) ([]int, error) {
	selection := attempt.Selection()
	if len(selection) > 0 {
		return selection, nil
	}

	if err := s.Attempts.SaveSelection(attempt.ID, SelectQuestionIndices(poolSize, toShow)); err != nil {
		return nil, err
	}
	fresh, err := s.Attempts.FindByUserAndQuiz(attempt.UserID, attempt.QuizID)
	if err != nil {
		return nil, err
	}
	if fresh != nil {
		*attempt = *fresh
	}

	selection = attempt.Selection()
	if len(selection) == 0 {
		selection = SequentialIndices(toShow)
		attempt.SetSelection(selection)
	}
	return selection, nil
}

func (s *QuizSessionService) selection(attempt *model.QuizAttempt, toShow int) []int {
	if sel := attempt.Selection(); len(sel) > 0 {
		return sel
	}
	return SequentialIndices(toShow)
}

// finalizeExpired closes an elapsed attempt scoring only what was answered
// before the window shut.
func (s *QuizSessionService) finalizeExpired(attempt *model.QuizAttempt, quiz *model.Quiz, questions []model.QuizQuestion) (int, error) {
	toShow := effectiveQuestionsToShow(quiz, len(questions))
	selection := s.selection(attempt, toShow)

	score, won, err := s.complete(attempt, questions, selection)
	if err != nil {
		return 0, err
	}
	if won {
		monitoring.QuizFinalizations.WithLabelValues("expiry").Inc()
		logger.Log.Info("quiz attempt expired",
			zap.Uint("userId", attempt.UserID), zap.Uint("quizId", attempt.QuizID), zap.Int("score", score))
	}
	return score, nil
}

// complete runs the terminal transition once: score from persisted answers,
// conditional status flip, then lifetime totals only for the winning caller.
func (s *QuizSessionService) complete(attempt *model.QuizAttempt, questions []model.QuizQuestion, selection []int) (int, bool, error) {
	stored, err := s.Attempts.Answers(attempt.ID)
	if err != nil {
		return 0, false, err
	}

	score := ScoreAttempt(questions, selection, answersByPosition(stored))

	won, err := s.Attempts.Complete(attempt.ID, score, s.Now())
	if err != nil {
		return 0, false, err
	}
	if !won {
		return score, false, nil
	}

	if err := s.Users.ApplyQuizTotals(attempt.UserID, score, len(selection)); err != nil {
		return 0, false, err
	}
	if s.Stats != nil {
		s.Stats.IncrTakenCount(context.Background(), attempt.QuizID)
	}

	attempt.Status = model.AttemptCompleted
	attempt.Score = score
	attempt.EndTime = nil
	return score, true, nil
}

func answersByPosition(answers []model.QuizAttemptAnswer) map[int]string {
	out := make(map[int]string, len(answers))
	for _, a := range answers {
		out[a.Position] = a.Selected
	}
	return out
}
