package service

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/DeifMohamed2/mrRaafat/internal/model"
	"github.com/DeifMohamed2/mrRaafat/internal/repository"
	"github.com/DeifMohamed2/mrRaafat/internal/util"
	"github.com/DeifMohamed2/mrRaafat/pkg/logger"

	"go.uber.org/zap"
)

// ContentService manages chapters and their attached videos and PDFs.
type ContentService struct {
	ChapterRepo *repository.ChapterRepository
	Access      *AccessService
	Storage     StorageProvider
}

func NewContentService(chapterRepo *repository.ChapterRepository, access *AccessService, storage StorageProvider) *ContentService {
	return &ContentService{ChapterRepo: chapterRepo, Access: access, Storage: storage}
}

type ChapterReq struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Grade       *string `json:"grade"`
	Price       *int    `json:"price"`
	IsActive    *bool   `json:"isActive"`
}

func (s *ContentService) CreateChapter(req ChapterReq) (*model.Chapter, error) {
	if req.Title == nil || *req.Title == "" {
		return nil, fmt.Errorf("title is required")
	}
	if req.Grade == nil || *req.Grade == "" {
		return nil, fmt.Errorf("grade is required")
	}

	chapter := &model.Chapter{
		Title:    *req.Title,
		Grade:    *req.Grade,
		IsActive: true,
	}
	if req.Description != nil {
		chapter.Description = *req.Description
	}
	if req.Price != nil {
		chapter.Price = *req.Price
	}
	if req.IsActive != nil {
		chapter.IsActive = *req.IsActive
	}

	if err := s.ChapterRepo.Create(chapter); err != nil {
		return nil, err
	}
	logger.Log.Info("chapter created", zap.Uint("chapterId", chapter.ID), zap.String("title", chapter.Title))
	return chapter, nil
}

func (s *ContentService) UpdateChapter(chapterID uint, req ChapterReq) (*model.Chapter, error) {
	chapter, err := s.ChapterRepo.FindByID(chapterID)
	if err != nil {
		return nil, err
	}
	if chapter == nil {
		return nil, util.ErrChapterNotFound
	}

	if req.Title != nil {
		chapter.Title = *req.Title
	}
	if req.Description != nil {
		chapter.Description = *req.Description
	}
	if req.Grade != nil {
		chapter.Grade = *req.Grade
	}
	if req.Price != nil {
		chapter.Price = *req.Price
	}
	if req.IsActive != nil {
		chapter.IsActive = *req.IsActive
	}

	if err := s.ChapterRepo.Update(chapter); err != nil {
		return nil, err
	}
	return chapter, nil
}

func (s *ContentService) DeleteChapter(chapterID uint) error {
	return s.ChapterRepo.Delete(chapterID)
}

func (s *ContentService) ListChapters(page, limit int) ([]model.Chapter, int64, error) {
	return s.ChapterRepo.List(page, limit)
}

// ChapterListItem is one row of the student chapter catalog.
type ChapterListItem struct {
	ID          uint   `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Price       int    `json:"price"`
	VideoCount  int    `json:"videoCount"`
	PDFCount    int    `json:"pdfCount"`
	Purchased   bool   `json:"purchased"`
}

// ListChaptersForStudent lists active chapters for the student's grade with
// entitlement state attached. Bodies are withheld until GetChapterForStudent.
func (s *ContentService) ListChaptersForStudent(user *model.User) ([]ChapterListItem, error) {
	chapters, err := s.ChapterRepo.ListActiveByGrade(user.Grade)
	if err != nil {
		return nil, err
	}

	items := make([]ChapterListItem, 0, len(chapters))
	for i := range chapters {
		ch := &chapters[i]
		level, err := s.Access.CanViewChapter(user, ch)
		if err != nil && err != util.ErrGradeMismatch {
			return nil, err
		}
		items = append(items, ChapterListItem{
			ID:          ch.ID,
			Title:       ch.Title,
			Description: ch.Description,
			Price:       ch.Price,
			VideoCount:  len(ch.Videos),
			PDFCount:    len(ch.PDFs),
			Purchased:   level != AccessDenied,
		})
	}
	return items, nil
}

// GetChapterForStudent returns the full chapter body once entitlement holds.
func (s *ContentService) GetChapterForStudent(user *model.User, chapterID uint) (*model.Chapter, error) {
	chapter, err := s.ChapterRepo.FindByID(chapterID)
	if err != nil {
		return nil, err
	}
	if chapter == nil || !chapter.IsActive {
		return nil, util.ErrChapterNotFound
	}

	level, err := s.Access.CanViewChapter(user, chapter)
	if err != nil {
		return nil, err
	}
	if level == AccessDenied {
		return nil, util.ErrQuizAccessDenied
	}
	return chapter, nil
}

type VideoReq struct {
	Title   string `json:"title" binding:"required"`
	URL     string `json:"url" binding:"required"`
	Prepaid bool   `json:"prepaid"`
	Order   int    `json:"order"`
}

func (s *ContentService) AddVideo(chapterID uint, req VideoReq) (*model.Video, error) {
	chapter, err := s.ChapterRepo.FindByID(chapterID)
	if err != nil {
		return nil, err
	}
	if chapter == nil {
		return nil, util.ErrChapterNotFound
	}

	video := &model.Video{
		ChapterID: chapterID,
		Title:     req.Title,
		URL:       req.URL,
		Prepaid:   req.Prepaid,
		Order:     req.Order,
	}
	if err := s.ChapterRepo.CreateVideo(video); err != nil {
		return nil, err
	}
	return video, nil
}

func (s *ContentService) DeleteVideo(videoID uint) error {
	return s.ChapterRepo.DeleteVideo(videoID)
}

// UploadPDF stores the document and records it under the chapter.
func (s *ContentService) UploadPDF(ctx context.Context, chapterID uint, title, filename string, reader io.Reader, size int64) (*model.PDF, error) {
	chapter, err := s.ChapterRepo.FindByID(chapterID)
	if err != nil {
		return nil, err
	}
	if chapter == nil {
		return nil, util.ErrChapterNotFound
	}

	key := fmt.Sprintf("chapters/%d/%d%s", chapterID, time.Now().UnixNano(), filepath.Ext(filename))
	if _, err := s.Storage.Upload(ctx, key, reader, size, "application/pdf"); err != nil {
		return nil, err
	}

	pdf := &model.PDF{
		ChapterID: chapterID,
		Title:     title,
		FileKey:   key,
	}
	if err := s.ChapterRepo.CreatePDF(pdf); err != nil {
		// Orphaned object is cleaned up so storage and DB stay in step.
		_ = s.Storage.Delete(ctx, key)
		return nil, err
	}
	return pdf, nil
}

// OpenPDF checks entitlement and hands back the document stream.
func (s *ContentService) OpenPDF(ctx context.Context, user *model.User, pdfID uint) (io.ReadCloser, *model.PDF, error) {
	pdf, err := s.ChapterRepo.FindPDF(pdfID)
	if err != nil {
		return nil, nil, err
	}
	if pdf == nil {
		return nil, nil, util.ErrChapterNotFound
	}

	if _, err := s.GetChapterForStudent(user, pdf.ChapterID); err != nil {
		return nil, nil, err
	}

	rc, err := s.Storage.Download(ctx, pdf.FileKey)
	if err != nil {
		return nil, nil, err
	}
	return rc, pdf, nil
}

func (s *ContentService) DeletePDF(ctx context.Context, pdfID uint) error {
	pdf, err := s.ChapterRepo.FindPDF(pdfID)
	if err != nil {
		return err
	}
	if pdf == nil {
		return util.ErrChapterNotFound
	}
	_ = s.Storage.Delete(ctx, pdf.FileKey)
	return s.ChapterRepo.DeletePDF(pdfID)
}
