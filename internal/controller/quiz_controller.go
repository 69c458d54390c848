package controller

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/DeifMohamed2/mrRaafat/internal/service"
	"github.com/DeifMohamed2/mrRaafat/internal/util"

	"github.com/gin-gonic/gin"
)

// QuizController exposes the teacher side: authoring, visibility, results
// and exports.
type QuizController struct {
	QuizService *service.QuizService
}

func NewQuizController(quizService *service.QuizService) *QuizController {
	return &QuizController{QuizService: quizService}
}

// CreateQuiz godoc
// @Summary Create a quiz with its question pool
// @Tags teacher
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   body body service.QuizReq true "quiz definition"
// @Success 201 {object} util.Response{data=model.Quiz}
// @Failure 400 {object} util.Response
// @Router /api/teacher/quizzes [post]
func (c *QuizController) CreateQuiz(ctx *gin.Context) {
	var req service.QuizReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	quiz, err := c.QuizService.CreateQuiz(req)
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	util.Created(ctx, quiz)
}

// UpdateQuiz godoc
// @Summary Update a quiz; sending questions replaces the whole pool
// @Tags teacher
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "quiz id"
// @Param   body body service.QuizReq true "fields to change"
// @Success 200 {object} util.Response{data=model.Quiz}
// @Router /api/teacher/quizzes/{id} [put]
func (c *QuizController) UpdateQuiz(ctx *gin.Context) {
	quizID, err := pathID(ctx, "id")
	if err != nil {
		util.BadRequest(ctx, "invalid quiz id")
		return
	}

	var req service.QuizReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	quiz, err := c.QuizService.UpdateQuiz(quizID, req)
	if err != nil {
		if errors.Is(err, util.ErrQuizNotFound) {
			util.NotFound(ctx)
		} else {
			util.BadRequest(ctx, err.Error())
		}
		return
	}
	util.Success(ctx, quiz)
}

// GetQuiz godoc
// @Summary Fetch a quiz with its full question pool, answers included
// @Tags teacher
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "quiz id"
// @Success 200 {object} util.Response
// @Router /api/teacher/quizzes/{id} [get]
func (c *QuizController) GetQuiz(ctx *gin.Context) {
	quizID, err := pathID(ctx, "id")
	if err != nil {
		util.BadRequest(ctx, "invalid quiz id")
		return
	}

	quiz, questions, err := c.QuizService.GetQuiz(quizID)
	if err != nil {
		if errors.Is(err, util.ErrQuizNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	// Teacher view includes correct answers, so they are attached
	// explicitly instead of relying on the model's JSON shape.
	type teacherQuestion struct {
		Position      int    `json:"position"`
		Title         string `json:"title"`
		Image         string `json:"image,omitempty"`
		Answer1       string `json:"answer1"`
		Answer2       string `json:"answer2"`
		Answer3       string `json:"answer3"`
		Answer4       string `json:"answer4"`
		CorrectAnswer int    `json:"correctAnswer"`
	}
	qs := make([]teacherQuestion, len(questions))
	for i, q := range questions {
		qs[i] = teacherQuestion{
			Position:      q.Position,
			Title:         q.Title,
			Image:         q.Image,
			Answer1:       q.Answer1,
			Answer2:       q.Answer2,
			Answer3:       q.Answer3,
			Answer4:       q.Answer4,
			CorrectAnswer: q.CorrectAnswer,
		}
	}
	util.Success(ctx, gin.H{"quiz": quiz, "questions": qs})
}

// ListQuizzes godoc
// @Summary List all quizzes, paginated
// @Tags teacher
// @Produce  json
// @Security BearerAuth
// @Param   page query int false "page"
// @Param   limit query int false "page size"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/teacher/quizzes [get]
func (c *QuizController) ListQuizzes(ctx *gin.Context) {
	page, limit := pagination(ctx)
	quizzes, total, err := c.QuizService.ListQuizzes(page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: quizzes, Total: total, Page: page, Limit: limit})
}

type VisibilityRequest struct {
	Visible *bool `json:"visible" binding:"required"`
}

// SetVisibility godoc
// @Summary Show or hide a quiz from students
// @Tags teacher
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "quiz id"
// @Param   body body VisibilityRequest true "visibility"
// @Success 200 {object} util.Response
// @Router /api/teacher/quizzes/{id}/visibility [put]
func (c *QuizController) SetVisibility(ctx *gin.Context) {
	quizID, err := pathID(ctx, "id")
	if err != nil {
		util.BadRequest(ctx, "invalid quiz id")
		return
	}

	var req VisibilityRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if err := c.QuizService.SetVisibility(quizID, *req.Visible); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// DeleteQuiz godoc
// @Summary Delete a quiz and its questions
// @Tags teacher
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "quiz id"
// @Success 200 {object} util.Response
// @Router /api/teacher/quizzes/{id} [delete]
func (c *QuizController) DeleteQuiz(ctx *gin.Context) {
	quizID, err := pathID(ctx, "id")
	if err != nil {
		util.BadRequest(ctx, "invalid quiz id")
		return
	}
	if err := c.QuizService.DeleteQuiz(quizID); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// ListResults godoc
// @Summary Score board for one quiz, sorted by score
// @Tags teacher
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "quiz id"
// @Param   page query int false "page"
// @Param   limit query int false "page size"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/teacher/quizzes/{id}/results [get]
func (c *QuizController) ListResults(ctx *gin.Context) {
	quizID, err := pathID(ctx, "id")
	if err != nil {
		util.BadRequest(ctx, "invalid quiz id")
		return
	}
	page, limit := pagination(ctx)

	rows, total, err := c.QuizService.ListResults(quizID, page, limit)
	if err != nil {
		if errors.Is(err, util.ErrQuizNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, util.PageResponse{List: rows, Total: total, Page: page, Limit: limit})
}

// ExportResults godoc
// @Summary Download the score board as an xlsx workbook
// @Tags teacher
// @Produce  application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param   id path int true "quiz id"
// @Success 200 {file} binary
// @Router /api/teacher/quizzes/{id}/results/export [get]
func (c *QuizController) ExportResults(ctx *gin.Context) {
	quizID, err := pathID(ctx, "id")
	if err != nil {
		util.BadRequest(ctx, "invalid quiz id")
		return
	}

	ctx.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	ctx.Header("Content-Disposition", fmt.Sprintf("attachment; filename=quiz_%d_results.xlsx", quizID))
	if err := c.QuizService.ExportResults(quizID, ctx.Writer); err != nil {
		if errors.Is(err, util.ErrQuizNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
}

// ResetAttempt godoc
// @Summary Wipe one student's attempt so they can retake the quiz
// @Tags teacher
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "quiz id"
// @Param   userId path int true "student id"
// @Success 200 {object} util.Response
// @Router /api/teacher/quizzes/{id}/attempts/{userId} [delete]
func (c *QuizController) ResetAttempt(ctx *gin.Context) {
	quizID, err := pathID(ctx, "id")
	if err != nil {
		util.BadRequest(ctx, "invalid quiz id")
		return
	}
	userID, err := pathID(ctx, "userId")
	if err != nil {
		util.BadRequest(ctx, "invalid user id")
		return
	}

	if err := c.QuizService.ResetStudentAttempt(userID, quizID); err != nil {
		if errors.Is(err, util.ErrAttemptNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, nil)
}

func pagination(ctx *gin.Context) (int, int) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}
