package repository

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/DeifMohamed2/mrRaafat/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type QuizAttemptRepository struct {
	DB *gorm.DB
}

func NewQuizAttemptRepository(db *gorm.DB) *QuizAttemptRepository {
	return &QuizAttemptRepository{DB: db}
}

func (r *QuizAttemptRepository) Create(attempt *model.QuizAttempt) error {
	return r.DB.Create(attempt).Error
}

func (r *QuizAttemptRepository) FindByUserAndQuiz(userID, quizID uint) (*model.QuizAttempt, error) {
	var a model.QuizAttempt
	err := r.DB.Where("user_id = ? AND quiz_id = ?", userID, quizID).First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// SaveSelection persists the selected pool indices, but only if no selection
// was stored yet: the first writer wins, so two racing starts cannot hand the
// same student two different question sets.
func (r *QuizAttemptRepository) SaveSelection(attemptID uint, indices []int) error {
	raw, err := json.Marshal(indices)
	if err != nil {
		return err
	}
	return r.DB.Model(&model.QuizAttempt{}).
		Where("id = ? AND (selected_indices IS NULL OR selected_indices = '' OR selected_indices = '[]')", attemptID).
		Update("selected_indices", string(raw)).Error
}

// Restart re-opens a stale attempt row for a fresh window, clearing the
// previous selection, answers and score.
func (r *QuizAttemptRepository) Restart(attemptID uint, start, end time.Time) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&model.QuizAttempt{}).Where("id = ?", attemptID).Updates(map[string]interface{}{
			"status":           model.AttemptInProgress,
			"start_time":       start,
			"end_time":         end,
			"score":            0,
			"solved_at":        nil,
			"selected_indices": "",
		}).Error
		if err != nil {
			return err
		}
		return tx.Unscoped().Where("attempt_id = ?", attemptID).Delete(&model.QuizAttemptAnswer{}).Error
	})
}

// UpsertAnswer writes the answer for one display position. The unique
// (attempt_id, position) key makes concurrent saves at different positions
// commute; a second save at the same position replaces the first.
func (r *QuizAttemptRepository) UpsertAnswer(answer *model.QuizAttemptAnswer) error {
	return r.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "attempt_id"}, {Name: "position"}},
		DoUpdates: clause.AssignmentColumns([]string{"selected", "answered_at"}),
	}).Create(answer).Error
}

// InsertAnswerIfAbsent records an answer only when no server-side answer
// exists for that position yet. Used at finalize so persisted answers always
// beat late client submissions.
func (r *QuizAttemptRepository) InsertAnswerIfAbsent(answer *model.QuizAttemptAnswer) error {
	return r.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "attempt_id"}, {Name: "position"}},
		DoNothing: true,
	}).Create(answer).Error
}

func (r *QuizAttemptRepository) Answers(attemptID uint) ([]model.QuizAttemptAnswer, error) {
	var answers []model.QuizAttemptAnswer
	err := r.DB.Where("attempt_id = ?", attemptID).Order("position ASC").Find(&answers).Error
	return answers, err
}

// Complete performs the terminal transition as a conditional update. The
// affected-rows result tells the caller whether this call won the transition;
// a false return means the attempt was already completed and lifetime totals
// must not be incremented again.
func (r *QuizAttemptRepository) Complete(attemptID uint, score int, solvedAt time.Time) (bool, error) {
	res := r.DB.Model(&model.QuizAttempt{}).
		Where("id = ? AND status = ?", attemptID, model.AttemptInProgress).
		Updates(map[string]interface{}{
			"status":    model.AttemptCompleted,
			"score":     score,
			"solved_at": solvedAt,
			"end_time":  nil,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

type AttemptListRow struct {
	AttemptID   uint       `json:"attemptId"`
	UserID      uint       `json:"userId"`
	StudentName string     `json:"studentName"`
	Grade       string     `json:"grade"`
	Status      string     `json:"status"`
	Score       int        `json:"score"`
	SolvedAt    *time.Time `json:"solvedAt,omitempty"`
}

func (r *QuizAttemptRepository) ListByQuiz(quizID uint, page, limit int) ([]AttemptListRow, int64, error) {
	var total int64
	if err := r.DB.Model(&model.QuizAttempt{}).Where("quiz_id = ?", quizID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []AttemptListRow
	err := r.DB.Table("quiz_attempts").
		Select("quiz_attempts.id AS attempt_id, users.id AS user_id, users.name AS student_name, users.grade, quiz_attempts.status, quiz_attempts.score, quiz_attempts.solved_at").
		Joins("JOIN users ON users.id = quiz_attempts.user_id").
		Where("quiz_attempts.quiz_id = ? AND quiz_attempts.deleted_at IS NULL", quizID).
		Order("quiz_attempts.score DESC").
		Offset((page - 1) * limit).Limit(limit).
		Scan(&rows).Error
	return rows, total, err
}

func (r *QuizAttemptRepository) CountCompletedByQuiz(quizID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.QuizAttempt{}).
		Where("quiz_id = ? AND status = ?", quizID, model.AttemptCompleted).
		Count(&count).Error
	return count, err
}

// Delete removes an attempt and its answers so the student can retake the
// quiz from scratch.
func (r *QuizAttemptRepository) Delete(attemptID uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("attempt_id = ?", attemptID).Delete(&model.QuizAttemptAnswer{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&model.QuizAttempt{}, attemptID).Error
	})
}
