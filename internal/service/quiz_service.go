package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/DeifMohamed2/mrRaafat/internal/model"
	"github.com/DeifMohamed2/mrRaafat/internal/repository"
	"github.com/DeifMohamed2/mrRaafat/internal/util"
	"github.com/DeifMohamed2/mrRaafat/pkg/logger"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// QuizService covers the teacher side of quizzes (authoring, results,
// exports) plus the student exam catalog.
type QuizService struct {
	QuizRepo    *repository.QuizRepository
	AttemptRepo *repository.QuizAttemptRepository
	CodeRepo    *repository.AccessCodeRepository
	Stats       *repository.QuizStatsCache
}

func NewQuizService(quizRepo *repository.QuizRepository, attemptRepo *repository.QuizAttemptRepository, codeRepo *repository.AccessCodeRepository, stats *repository.QuizStatsCache) *QuizService {
	return &QuizService{QuizRepo: quizRepo, AttemptRepo: attemptRepo, CodeRepo: codeRepo, Stats: stats}
}

type QuizQuestionReq struct {
	Title         string `json:"title" binding:"required"`
	Image         string `json:"image"`
	Answer1       string `json:"answer1" binding:"required"`
	Answer2       string `json:"answer2" binding:"required"`
	Answer3       string `json:"answer3"`
	Answer4       string `json:"answer4"`
	CorrectAnswer int    `json:"correctAnswer" binding:"required,min=1,max=4"`
}

type QuizReq struct {
	Name                 *string            `json:"name"`
	Grade                *string            `json:"grade"`
	DurationMinutes      *int               `json:"durationMinutes"`
	QuestionsToShow      *int               `json:"questionsToShow"`
	Prepaid              *bool              `json:"prepaid"`
	Price                *int               `json:"price"`
	IsActive             *bool              `json:"isActive"`
	IsVisible            *bool              `json:"isVisible"`
	ShowAnswersAfterQuiz *bool              `json:"showAnswersAfterQuiz"`
	ChapterID            *uint              `json:"chapterId"`
	Questions            *[]QuizQuestionReq `json:"questions"`
}

func questionsFromReq(quizID uint, reqs []QuizQuestionReq) []model.QuizQuestion {
	out := make([]model.QuizQuestion, len(reqs))
	for i, q := range reqs {
		out[i] = model.QuizQuestion{
			QuizID:        quizID,
			Position:      i,
			Title:         q.Title,
			Image:         q.Image,
			Answer1:       q.Answer1,
			Answer2:       q.Answer2,
			Answer3:       q.Answer3,
			Answer4:       q.Answer4,
			CorrectAnswer: q.CorrectAnswer,
		}
	}
	return out
}

func (s *QuizService) CreateQuiz(req QuizReq) (*model.Quiz, error) {
	if req.Name == nil || *req.Name == "" {
		return nil, errors.New("name is required")
	}
	if req.Grade == nil || *req.Grade == "" {
		return nil, errors.New("grade is required")
	}
	if req.DurationMinutes == nil || *req.DurationMinutes <= 0 {
		return nil, errors.New("durationMinutes must be positive")
	}
	if req.Questions == nil || len(*req.Questions) == 0 {
		return nil, errors.New("at least one question is required")
	}
	if req.QuestionsToShow != nil && (*req.QuestionsToShow < 0 || *req.QuestionsToShow > len(*req.Questions)) {
		return nil, errors.New("questionsToShow exceeds the question pool")
	}

	quiz := &model.Quiz{
		Name:            *req.Name,
		Grade:           *req.Grade,
		DurationMinutes: *req.DurationMinutes,
		IsActive:        true,
	}
	if req.QuestionsToShow != nil {
		quiz.QuestionsToShow = *req.QuestionsToShow
	}
	if req.Prepaid != nil {
		quiz.Prepaid = *req.Prepaid
	}
	if req.Price != nil {
		quiz.Price = *req.Price
	}
	if req.IsActive != nil {
		quiz.IsActive = *req.IsActive
	}
	if req.IsVisible != nil {
		quiz.IsVisible = *req.IsVisible
	}
	if req.ShowAnswersAfterQuiz != nil {
		quiz.ShowAnswersAfterQuiz = *req.ShowAnswersAfterQuiz
	}
	quiz.ChapterID = req.ChapterID

	if err := s.QuizRepo.Create(quiz, questionsFromReq(0, *req.Questions)); err != nil {
		return nil, err
	}
	logger.Log.Info("quiz created", zap.Uint("quizId", quiz.ID), zap.String("name", quiz.Name))
	return quiz, nil
}

func (s *QuizService) UpdateQuiz(quizID uint, req QuizReq) (*model.Quiz, error) {
	if req.Questions != nil && len(*req.Questions) == 0 {
		return nil, errors.New("at least one question is required")
	}

	quiz, existing, err := s.QuizRepo.FindWithQuestions(quizID)
	if err != nil {
		return nil, err
	}
	if quiz == nil {
		return nil, util.ErrQuizNotFound
	}

	if req.Name != nil {
		quiz.Name = *req.Name
	}
	if req.Grade != nil {
		quiz.Grade = *req.Grade
	}
	if req.DurationMinutes != nil {
		quiz.DurationMinutes = *req.DurationMinutes
	}
	if req.QuestionsToShow != nil {
		quiz.QuestionsToShow = *req.QuestionsToShow
	}
	if req.Prepaid != nil {
		quiz.Prepaid = *req.Prepaid
	}
	if req.Price != nil {
		quiz.Price = *req.Price
	}
	if req.IsActive != nil {
		quiz.IsActive = *req.IsActive
	}
	if req.IsVisible != nil {
		quiz.IsVisible = *req.IsVisible
	}
	if req.ShowAnswersAfterQuiz != nil {
		quiz.ShowAnswersAfterQuiz = *req.ShowAnswersAfterQuiz
	}
	if req.ChapterID != nil {
		quiz.ChapterID = req.ChapterID
	}

	// The pool the engine will draw from after this update.
	poolSize := len(existing)
	if req.Questions != nil {
		poolSize = len(*req.Questions)
	}
	if quiz.QuestionsToShow < 0 || quiz.QuestionsToShow > poolSize {
		return nil, errors.New("questionsToShow exceeds the question pool")
	}

	if err := s.QuizRepo.Update(quiz); err != nil {
		return nil, err
	}

	// Replacing the pool invalidates in-flight selections, so it is only
	// allowed together with the rest of the update.
	if req.Questions != nil {
		if err := s.QuizRepo.ReplaceQuestions(quizID, questionsFromReq(quizID, *req.Questions)); err != nil {
			return nil, err
		}
	}
	return quiz, nil
}

func (s *QuizService) GetQuiz(quizID uint) (*model.Quiz, []model.QuizQuestion, error) {
	quiz, questions, err := s.QuizRepo.FindWithQuestions(quizID)
	if err != nil {
		return nil, nil, err
	}
	if quiz == nil {
		return nil, nil, util.ErrQuizNotFound
	}
	return quiz, questions, nil
}

func (s *QuizService) ListQuizzes(page, limit int) ([]model.Quiz, int64, error) {
	return s.QuizRepo.List(page, limit)
}

func (s *QuizService) SetVisibility(quizID uint, visible bool) error {
	return s.QuizRepo.SetVisibility(quizID, visible)
}

func (s *QuizService) DeleteQuiz(quizID uint) error {
	return s.QuizRepo.Delete(quizID)
}

// ListResults returns the per-student attempt board for one quiz, sorted by
// score.
func (s *QuizService) ListResults(quizID uint, page, limit int) ([]repository.AttemptListRow, int64, error) {
	quiz, err := s.QuizRepo.FindByID(quizID)
	if err != nil {
		return nil, 0, err
	}
	if quiz == nil {
		return nil, 0, util.ErrQuizNotFound
	}
	return s.AttemptRepo.ListByQuiz(quizID, page, limit)
}

// ResetStudentAttempt wipes a student's attempt so they can retake the quiz.
func (s *QuizService) ResetStudentAttempt(userID, quizID uint) error {
	attempt, err := s.AttemptRepo.FindByUserAndQuiz(userID, quizID)
	if err != nil {
		return err
	}
	if attempt == nil {
		return util.ErrAttemptNotFound
	}
	if err := s.AttemptRepo.Delete(attempt.ID); err != nil {
		return err
	}
	logger.Log.Info("attempt reset", zap.Uint("userId", userID), zap.Uint("quizId", quizID))
	return nil
}

// ExportResults streams the score board for one quiz as an xlsx workbook.
func (s *QuizService) ExportResults(quizID uint, w io.Writer) error {
	quiz, err := s.QuizRepo.FindByID(quizID)
	if err != nil {
		return err
	}
	if quiz == nil {
		return util.ErrQuizNotFound
	}

	rows, _, err := s.AttemptRepo.ListByQuiz(quizID, 1, 10000)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Results"
	idx, err := f.NewSheet(sheet)
	if err != nil {
		return err
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	headers := []string{"Student", "Grade", "Status", "Score", "Solved At"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	for i, row := range rows {
		solvedAt := ""
		if row.SolvedAt != nil {
			solvedAt = row.SolvedAt.Format(time.RFC3339)
		}
		values := []interface{}{row.StudentName, row.Grade, row.Status, row.Score, solvedAt}
		for j, v := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, i+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// ExamListItem is one row of the student exam catalog.
type ExamListItem struct {
	ID              uint   `json:"id"`
	Name            string `json:"name"`
	DurationMinutes int    `json:"durationMinutes"`
	QuestionsToShow int    `json:"questionsToShow"`
	Prepaid         bool   `json:"prepaid"`
	Price           int    `json:"price"`
	TakenCount      int64  `json:"takenCount"`
	Purchased       bool   `json:"purchased"`
	AttemptStatus   string `json:"attemptStatus"`
	Score           *int   `json:"score,omitempty"`
}

// ListExamsForStudent lists visible quizzes for the student's grade with
// their own attempt state attached. Taken counts come from the cache when
// warm and fall back to a count query otherwise.
func (s *QuizService) ListExamsForStudent(ctx context.Context, user *model.User) ([]ExamListItem, error) {
	quizzes, err := s.QuizRepo.ListActiveByGrade(user.Grade)
	if err != nil {
		return nil, err
	}

	items := make([]ExamListItem, 0, len(quizzes))
	for _, quiz := range quizzes {
		item := ExamListItem{
			ID:              quiz.ID,
			Name:            quiz.Name,
			DurationMinutes: quiz.DurationMinutes,
			QuestionsToShow: quiz.QuestionsToShow,
			Prepaid:         quiz.Prepaid,
			Price:           quiz.Price,
		}

		taken, ok := s.Stats.TakenCount(ctx, quiz.ID)
		if !ok {
			taken, err = s.AttemptRepo.CountCompletedByQuiz(quiz.ID)
			if err != nil {
				return nil, err
			}
			s.Stats.SetTakenCount(ctx, quiz.ID, taken)
		}
		item.TakenCount = taken

		if quiz.Free() || user.GeneralQuizAccess {
			item.Purchased = true
		} else {
			purchased, err := s.CodeRepo.HasQuizPurchase(user.ID, quiz.ID)
			if err != nil {
				return nil, err
			}
			item.Purchased = purchased
		}

		attempt, err := s.AttemptRepo.FindByUserAndQuiz(user.ID, quiz.ID)
		if err != nil {
			return nil, err
		}
		if attempt != nil {
			item.AttemptStatus = attempt.Status
			if attempt.Completed() {
				score := attempt.Score
				item.Score = &score
			}
		}

		items = append(items, item)
	}
	return items, nil
}
