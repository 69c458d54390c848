package repository

import (
	"errors"

	"github.com/DeifMohamed2/mrRaafat/internal/model"

	"gorm.io/gorm"
)

type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{DB: db}
}

func (r *UserRepository) Create(user *model.User) error {
	return r.DB.Create(user).Error
}

func (r *UserRepository) FindByID(id uint) (*model.User, error) {
	var u model.User
	err := r.DB.First(&u, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) FindByEmail(email string) (*model.User, error) {
	var u model.User
	err := r.DB.Where("email = ?", email).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) Update(user *model.User) error {
	return r.DB.Save(user).Error
}

// ApplyQuizTotals bumps the student's lifetime counters in a single UPDATE,
// the relational equivalent of the document store's $inc.
func (r *UserRepository) ApplyQuizTotals(userID uint, score, questions int) error {
	return r.DB.Model(&model.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"total_score":     gorm.Expr("total_score + ?", score),
		"total_questions": gorm.Expr("total_questions + ?", questions),
		"exams_entered":   gorm.Expr("exams_entered + ?", 1),
	}).Error
}

func (r *UserRepository) GrantGeneralQuizAccess(userID uint) error {
	return r.DB.Model(&model.User{}).Where("id = ?", userID).
		Update("general_quiz_access", true).Error
}

func (r *UserRepository) GrantGeneralChapterAccess(userID uint) error {
	return r.DB.Model(&model.User{}).Where("id = ?", userID).
		Update("general_chapter_access", true).Error
}
