package controller

import (
	"errors"
	"io"

	"github.com/DeifMohamed2/mrRaafat/internal/service"
	"github.com/DeifMohamed2/mrRaafat/internal/util"

	"github.com/gin-gonic/gin"
)

type ContentController struct {
	ContentService *service.ContentService
	AuthService    *service.AuthService
}

func NewContentController(contentService *service.ContentService, authService *service.AuthService) *ContentController {
	return &ContentController{ContentService: contentService, AuthService: authService}
}

// CreateChapter godoc
// @Summary Create a chapter
// @Tags teacher
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   body body service.ChapterReq true "chapter"
// @Success 201 {object} util.Response{data=model.Chapter}
// @Router /api/teacher/chapters [post]
func (c *ContentController) CreateChapter(ctx *gin.Context) {
	var req service.ChapterReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	chapter, err := c.ContentService.CreateChapter(req)
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	util.Created(ctx, chapter)
}

// UpdateChapter godoc
// @Summary Update a chapter
// @Tags teacher
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "chapter id"
// @Param   body body service.ChapterReq true "fields to change"
// @Success 200 {object} util.Response{data=model.Chapter}
// @Router /api/teacher/chapters/{id} [put]
func (c *ContentController) UpdateChapter(ctx *gin.Context) {
	chapterID, err := pathID(ctx, "id")
	if err != nil {
		util.BadRequest(ctx, "invalid chapter id")
		return
	}

	var req service.ChapterReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	chapter, err := c.ContentService.UpdateChapter(chapterID, req)
	if err != nil {
		if errors.Is(err, util.ErrChapterNotFound) {
			util.NotFound(ctx)
		} else {
			util.BadRequest(ctx, err.Error())
		}
		return
	}
	util.Success(ctx, chapter)
}

// DeleteChapter godoc
// @Summary Delete a chapter
// @Tags teacher
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "chapter id"
// @Success 200 {object} util.Response
// @Router /api/teacher/chapters/{id} [delete]
func (c *ContentController) DeleteChapter(ctx *gin.Context) {
	chapterID, err := pathID(ctx, "id")
	if err != nil {
		util.BadRequest(ctx, "invalid chapter id")
		return
	}
	if err := c.ContentService.DeleteChapter(chapterID); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// ListChapters godoc
// @Summary List all chapters, paginated
// @Tags teacher
// @Produce  json
// @Security BearerAuth
// @Param   page query int false "page"
// @Param   limit query int false "page size"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/teacher/chapters [get]
func (c *ContentController) ListChapters(ctx *gin.Context) {
	page, limit := pagination(ctx)
	chapters, total, err := c.ContentService.ListChapters(page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: chapters, Total: total, Page: page, Limit: limit})
}

// AddVideo godoc
// @Summary Attach a video to a chapter
// @Tags teacher
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "chapter id"
// @Param   body body service.VideoReq true "video"
// @Success 201 {object} util.Response{data=model.Video}
// @Router /api/teacher/chapters/{id}/videos [post]
func (c *ContentController) AddVideo(ctx *gin.Context) {
	chapterID, err := pathID(ctx, "id")
	if err != nil {
		util.BadRequest(ctx, "invalid chapter id")
		return
	}

	var req service.VideoReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	video, err := c.ContentService.AddVideo(chapterID, req)
	if err != nil {
		if errors.Is(err, util.ErrChapterNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Created(ctx, video)
}

// UploadPDF godoc
// @Summary Upload a PDF document into a chapter
// @Tags teacher
// @Accept  multipart/form-data
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "chapter id"
// @Param   title formData string true "document title"
// @Param   file formData file true "pdf file"
// @Success 201 {object} util.Response{data=model.PDF}
// @Router /api/teacher/chapters/{id}/pdfs [post]
func (c *ContentController) UploadPDF(ctx *gin.Context) {
	chapterID, err := pathID(ctx, "id")
	if err != nil {
		util.BadRequest(ctx, "invalid chapter id")
		return
	}

	title := ctx.PostForm("title")
	if title == "" {
		util.BadRequest(ctx, "title is required")
		return
	}

	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "file is required")
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	defer src.Close()

	pdf, err := c.ContentService.UploadPDF(ctx.Request.Context(), chapterID, title, fileHeader.Filename, src, fileHeader.Size)
	if err != nil {
		if errors.Is(err, util.ErrChapterNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Created(ctx, pdf)
}

// DeletePDF godoc
// @Summary Remove a PDF document
// @Tags teacher
// @Produce  json
// @Security BearerAuth
// @Param   pdfId path int true "pdf id"
// @Success 200 {object} util.Response
// @Router /api/teacher/pdfs/{pdfId} [delete]
func (c *ContentController) DeletePDF(ctx *gin.Context) {
	pdfID, err := pathID(ctx, "pdfId")
	if err != nil {
		util.BadRequest(ctx, "invalid pdf id")
		return
	}
	if err := c.ContentService.DeletePDF(ctx.Request.Context(), pdfID); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// StudentChapters godoc
// @Summary List chapters for the student's grade
// @Tags student
// @Produce  json
// @Security BearerAuth
// @Success 200 {array} service.ChapterListItem
// @Router /api/student/chapters [get]
func (c *ContentController) StudentChapters(ctx *gin.Context) {
	user := c.AuthService.GetCurrentUser(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	items, err := c.ContentService.ListChaptersForStudent(user)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, items)
}

// StudentChapter godoc
// @Summary Open one chapter with its videos and documents
// @Tags student
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "chapter id"
// @Success 200 {object} util.Response{data=model.Chapter}
// @Failure 403 {object} util.Response
// @Router /api/student/chapters/{id} [get]
func (c *ContentController) StudentChapter(ctx *gin.Context) {
	user := c.AuthService.GetCurrentUser(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	chapterID, err := pathID(ctx, "id")
	if err != nil {
		util.BadRequest(ctx, "invalid chapter id")
		return
	}

	chapter, err := c.ContentService.GetChapterForStudent(user, chapterID)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrChapterNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrQuizAccessDenied), errors.Is(err, util.ErrGradeMismatch):
			util.Forbidden(ctx)
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, chapter)
}

// DownloadPDF godoc
// @Summary Stream a chapter PDF to an entitled student
// @Tags student
// @Produce  application/pdf
// @Security BearerAuth
// @Param   pdfId path int true "pdf id"
// @Success 200 {file} binary
// @Failure 403 {object} util.Response
// @Router /api/student/pdfs/{pdfId} [get]
func (c *ContentController) DownloadPDF(ctx *gin.Context) {
	user := c.AuthService.GetCurrentUser(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	pdfID, err := pathID(ctx, "pdfId")
	if err != nil {
		util.BadRequest(ctx, "invalid pdf id")
		return
	}

	rc, pdf, err := c.ContentService.OpenPDF(ctx.Request.Context(), user, pdfID)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrChapterNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrQuizAccessDenied), errors.Is(err, util.ErrGradeMismatch):
			util.Forbidden(ctx)
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	defer rc.Close()

	ctx.Header("Content-Type", "application/pdf")
	ctx.Header("Content-Disposition", "inline; filename="+pdf.Title+".pdf")
	_, _ = io.Copy(ctx.Writer, rc)
}
