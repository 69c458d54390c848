package repository

import (
	"errors"

	"github.com/DeifMohamed2/mrRaafat/internal/model"

	"gorm.io/gorm"
)

type ChapterRepository struct {
	DB *gorm.DB
}

func NewChapterRepository(db *gorm.DB) *ChapterRepository {
	return &ChapterRepository{DB: db}
}

func (r *ChapterRepository) Create(chapter *model.Chapter) error {
	return r.DB.Create(chapter).Error
}

func (r *ChapterRepository) FindByID(id uint) (*model.Chapter, error) {
	var c model.Chapter
	err := r.DB.Preload("Videos", func(db *gorm.DB) *gorm.DB {
		return db.Order("videos.order ASC")
	}).Preload("PDFs").First(&c, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *ChapterRepository) ListActiveByGrade(grade string) ([]model.Chapter, error) {
	var chapters []model.Chapter
	err := r.DB.Preload("Videos").Preload("PDFs").
		Where("grade = ? AND is_active = ?", grade, true).
		Order("created_at ASC").Find(&chapters).Error
	return chapters, err
}

func (r *ChapterRepository) List(page, limit int) ([]model.Chapter, int64, error) {
	var total int64
	if err := r.DB.Model(&model.Chapter{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var chapters []model.Chapter
	err := r.DB.Order("created_at ASC").Offset((page - 1) * limit).Limit(limit).Find(&chapters).Error
	return chapters, total, err
}

func (r *ChapterRepository) Update(chapter *model.Chapter) error {
	return r.DB.Save(chapter).Error
}

func (r *ChapterRepository) Delete(id uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("chapter_id = ?", id).Delete(&model.Video{}).Error; err != nil {
			return err
		}
		if err := tx.Where("chapter_id = ?", id).Delete(&model.PDF{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Chapter{}, id).Error
	})
}

func (r *ChapterRepository) CreateVideo(video *model.Video) error {
	return r.DB.Create(video).Error
}

func (r *ChapterRepository) DeleteVideo(id uint) error {
	return r.DB.Delete(&model.Video{}, id).Error
}

func (r *ChapterRepository) CreatePDF(pdf *model.PDF) error {
	return r.DB.Create(pdf).Error
}

func (r *ChapterRepository) FindPDF(id uint) (*model.PDF, error) {
	var p model.PDF
	err := r.DB.First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ChapterRepository) DeletePDF(id uint) error {
	return r.DB.Delete(&model.PDF{}, id).Error
}
