package controller

import (
	"errors"

	"github.com/DeifMohamed2/mrRaafat/internal/model"
	"github.com/DeifMohamed2/mrRaafat/internal/repository"
	"github.com/DeifMohamed2/mrRaafat/internal/service"
	"github.com/DeifMohamed2/mrRaafat/internal/util"

	"github.com/gin-gonic/gin"
)

// AccessController covers code generation (teacher) and redemption (student).
type AccessController struct {
	AccessService *service.AccessService
	CodeRepo      *repository.AccessCodeRepository
	ChapterRepo   *repository.ChapterRepository
}

func NewAccessController(accessService *service.AccessService, codeRepo *repository.AccessCodeRepository, chapterRepo *repository.ChapterRepository) *AccessController {
	return &AccessController{AccessService: accessService, CodeRepo: codeRepo, ChapterRepo: chapterRepo}
}

type GenerateCodesRequest struct {
	CodeType  string `json:"codeType" binding:"required,oneof=quiz chapter general_quiz general_chapter"`
	Grade     string `json:"grade"`
	AllGrades bool   `json:"allGrades"`
	Count     int    `json:"count" binding:"required,min=1,max=500"`
}

// GenerateCodes godoc
// @Summary Mint a batch of single-use access codes
// @Tags teacher
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   body body GenerateCodesRequest true "batch parameters"
// @Success 201 {object} util.Response
// @Router /api/teacher/codes [post]
func (c *AccessController) GenerateCodes(ctx *gin.Context) {
	var req GenerateCodesRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if !req.AllGrades && req.Grade == "" {
		util.BadRequest(ctx, "grade is required unless allGrades is set")
		return
	}

	codes, err := c.AccessService.GenerateCodes(model.CodeType(req.CodeType), req.Grade, req.AllGrades, req.Count)
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	out := make([]string, len(codes))
	for i, code := range codes {
		out[i] = code.Code
	}
	util.Created(ctx, gin.H{"codes": out})
}

// ListCodes godoc
// @Summary List minted codes
// @Tags teacher
// @Produce  json
// @Security BearerAuth
// @Param   page query int false "page"
// @Param   limit query int false "page size"
// @Param   unused query bool false "only unused codes"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/teacher/codes [get]
func (c *AccessController) ListCodes(ctx *gin.Context) {
	page, limit := pagination(ctx)
	onlyUnused := ctx.Query("unused") == "true"

	codes, total, err := c.CodeRepo.List(page, limit, onlyUnused)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: codes, Total: total, Page: page, Limit: limit})
}

type RedeemRequest struct {
	Code string `json:"code" binding:"required"`
}

// RedeemQuizCode godoc
// @Summary Redeem a code to unlock a quiz
// @Tags student
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "quiz id"
// @Param   body body RedeemRequest true "code"
// @Success 200 {object} util.Response
// @Failure 409 {object} util.Response
// @Router /api/student/exams/{id}/redeem [post]
func (c *AccessController) RedeemQuizCode(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	quizID, err := pathID(ctx, "id")
	if err != nil {
		util.BadRequest(ctx, "invalid quiz id")
		return
	}

	var req RedeemRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if err := c.AccessService.RedeemQuizCode(user.UserID, quizID, req.Code); err != nil {
		redeemError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// RedeemChapterCode godoc
// @Summary Redeem a code to unlock a chapter
// @Tags student
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "chapter id"
// @Param   body body RedeemRequest true "code"
// @Success 200 {object} util.Response
// @Failure 409 {object} util.Response
// @Router /api/student/chapters/{id}/redeem [post]
func (c *AccessController) RedeemChapterCode(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	chapterID, err := pathID(ctx, "id")
	if err != nil {
		util.BadRequest(ctx, "invalid chapter id")
		return
	}

	var req RedeemRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if err := c.AccessService.RedeemChapterCode(user.UserID, chapterID, req.Code, c.ChapterRepo); err != nil {
		redeemError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

func redeemError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrCodeNotFound), errors.Is(err, util.ErrQuizNotFound),
		errors.Is(err, util.ErrChapterNotFound), errors.Is(err, util.ErrUserNotFound):
		util.NotFound(ctx)
	case errors.Is(err, util.ErrCodeAlreadyUsed), errors.Is(err, util.ErrAlreadyPurchased):
		util.Conflict(ctx, err.Error())
	case errors.Is(err, util.ErrCodeTypeMismatch), errors.Is(err, util.ErrGradeMismatch):
		util.BadRequest(ctx, err.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}
