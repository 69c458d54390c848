package repository

import (
	"errors"

	"github.com/DeifMohamed2/mrRaafat/internal/model"

	"gorm.io/gorm"
)

type QuizRepository struct {
	DB *gorm.DB
}

func NewQuizRepository(db *gorm.DB) *QuizRepository {
	return &QuizRepository{DB: db}
}

func (r *QuizRepository) Create(quiz *model.Quiz, questions []model.QuizQuestion) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(quiz).Error; err != nil {
			return err
		}
		for i := range questions {
			questions[i].QuizID = quiz.ID
			questions[i].Position = i
		}
		if len(questions) > 0 {
			if err := tx.Create(&questions).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *QuizRepository) FindByID(id uint) (*model.Quiz, error) {
	var q model.Quiz
	err := r.DB.First(&q, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// FindWithQuestions loads a quiz and its full pool ordered by pool position.
func (r *QuizRepository) FindWithQuestions(id uint) (*model.Quiz, []model.QuizQuestion, error) {
	quiz, err := r.FindByID(id)
	if err != nil || quiz == nil {
		return nil, nil, err
	}
	var questions []model.QuizQuestion
	if err := r.DB.Where("quiz_id = ?", id).Order("position ASC").Find(&questions).Error; err != nil {
		return nil, nil, err
	}
	return quiz, questions, nil
}

func (r *QuizRepository) ListActiveByGrade(grade string) ([]model.Quiz, error) {
	var quizzes []model.Quiz
	err := r.DB.Where("grade = ? AND is_active = ? AND is_visible = ?", grade, true, true).
		Order("created_at DESC").Find(&quizzes).Error
	return quizzes, err
}

func (r *QuizRepository) List(page, limit int) ([]model.Quiz, int64, error) {
	var quizzes []model.Quiz
	var total int64
	if err := r.DB.Model(&model.Quiz{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := r.DB.Order("created_at DESC").
		Offset((page - 1) * limit).Limit(limit).Find(&quizzes).Error
	return quizzes, total, err
}

func (r *QuizRepository) Update(quiz *model.Quiz) error {
	return r.DB.Save(quiz).Error
}

func (r *QuizRepository) SetVisibility(id uint, visible bool) error {
	return r.DB.Model(&model.Quiz{}).Where("id = ?", id).
		Update("is_visible", visible).Error
}

// ReplaceQuestions swaps the whole pool, re-numbering positions 0..n-1.
// Attempts already holding a selection keep referencing the old positions,
// so callers only do this before a quiz goes visible.
func (r *QuizRepository) ReplaceQuestions(quizID uint, questions []model.QuizQuestion) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("quiz_id = ?", quizID).Delete(&model.QuizQuestion{}).Error; err != nil {
			return err
		}
		for i := range questions {
			questions[i].ID = 0
			questions[i].QuizID = quizID
			questions[i].Position = i
		}
		if len(questions) > 0 {
			if err := tx.Create(&questions).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *QuizRepository) CountQuestions(quizID uint) (int, error) {
	var count int64
	err := r.DB.Model(&model.QuizQuestion{}).Where("quiz_id = ?", quizID).Count(&count).Error
	return int(count), err
}

func (r *QuizRepository) Delete(id uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("quiz_id = ?", id).Delete(&model.QuizQuestion{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Quiz{}, id).Error
	})
}
