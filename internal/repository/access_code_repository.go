package repository

import (
	"errors"
	"time"

	"github.com/DeifMohamed2/mrRaafat/internal/model"

	"gorm.io/gorm"
)

type AccessCodeRepository struct {
	DB *gorm.DB
}

func NewAccessCodeRepository(db *gorm.DB) *AccessCodeRepository {
	return &AccessCodeRepository{DB: db}
}

func (r *AccessCodeRepository) CreateBatch(codes []model.AccessCode) error {
	if len(codes) == 0 {
		return nil
	}
	return r.DB.Create(&codes).Error
}

func (r *AccessCodeRepository) FindByCode(code string) (*model.AccessCode, error) {
	var c model.AccessCode
	err := r.DB.Where("code = ?", code).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// MarkUsed burns the code conditionally; only one redeemer can win.
func (r *AccessCodeRepository) MarkUsed(codeID, userID uint) (bool, error) {
	now := time.Now()
	res := r.DB.Model(&model.AccessCode{}).
		Where("id = ? AND used = ?", codeID, false).
		Updates(map[string]interface{}{
			"used":    true,
			"used_by": userID,
			"used_at": now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *AccessCodeRepository) List(page, limit int, onlyUnused bool) ([]model.AccessCode, int64, error) {
	q := r.DB.Model(&model.AccessCode{})
	if onlyUnused {
		q = q.Where("used = ?", false)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var codes []model.AccessCode
	err := q.Order("created_at DESC").Offset((page - 1) * limit).Limit(limit).Find(&codes).Error
	return codes, total, err
}

func (r *AccessCodeRepository) HasQuizPurchase(userID, quizID uint) (bool, error) {
	var count int64
	err := r.DB.Model(&model.QuizPurchase{}).
		Where("user_id = ? AND quiz_id = ?", userID, quizID).Count(&count).Error
	return count > 0, err
}

func (r *AccessCodeRepository) CreateQuizPurchase(p *model.QuizPurchase) error {
	return r.DB.Create(p).Error
}

func (r *AccessCodeRepository) HasChapterPurchase(userID, chapterID uint) (bool, error) {
	var count int64
	err := r.DB.Model(&model.ChapterPurchase{}).
		Where("user_id = ? AND chapter_id = ?", userID, chapterID).Count(&count).Error
	return count > 0, err
}

func (r *AccessCodeRepository) CreateChapterPurchase(p *model.ChapterPurchase) error {
	return r.DB.Create(p).Error
}
