package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/DeifMohamed2/mrRaafat/internal/service"
	"github.com/DeifMohamed2/mrRaafat/internal/util"

	"github.com/gin-gonic/gin"
)

// QuizSessionController exposes the student attempt lifecycle: start, fetch
// question, save answer, finish, review, plus the exam catalog.
type QuizSessionController struct {
	Sessions    *service.QuizSessionService
	QuizService *service.QuizService
	AuthService *service.AuthService
}

func NewQuizSessionController(sessions *service.QuizSessionService, quizService *service.QuizService, authService *service.AuthService) *QuizSessionController {
	return &QuizSessionController{Sessions: sessions, QuizService: quizService, AuthService: authService}
}

const examsPage = "/student/exams"

// sessionError maps lifecycle errors onto status codes and, where the web
// client expects it, the page to bounce back to.
func sessionError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrQuizNotFound), errors.Is(err, util.ErrAttemptNotFound),
		errors.Is(err, util.ErrQuestionNotFound), errors.Is(err, util.ErrUserNotFound):
		util.NotFound(ctx)
	case errors.Is(err, util.ErrAttemptNotFinished):
		util.Conflict(ctx, err.Error())
	case errors.Is(err, util.ErrQuizNotAvailable):
		util.Redirected(ctx, http.StatusForbidden, err.Error(), examsPage+"?error=notAvailable")
	case errors.Is(err, util.ErrQuizAccessDenied), errors.Is(err, util.ErrGradeMismatch):
		util.Redirected(ctx, http.StatusForbidden, err.Error(), examsPage+"?error=notAllowed")
	case errors.Is(err, util.ErrQuizCompleted):
		util.Redirected(ctx, http.StatusConflict, err.Error(), examsPage+"?alreadySolved=true")
	case errors.Is(err, util.ErrQuizTimeExpired):
		util.Redirected(ctx, http.StatusGone, err.Error(), examsPage+"?timeExpired=true")
	case errors.Is(err, util.ErrAnswersHidden):
		util.Forbidden(ctx)
	case errors.Is(err, util.ErrInvalidPosition), errors.Is(err, util.ErrInvalidOption):
		util.BadRequest(ctx, err.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}

// ListExams godoc
// @Summary List visible exams for the student's grade
// @Tags student
// @Produce  json
// @Security BearerAuth
// @Success 200 {array} service.ExamListItem
// @Router /api/student/exams [get]
func (c *QuizSessionController) ListExams(ctx *gin.Context) {
	user := c.AuthService.GetCurrentUser(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	items, err := c.QuizService.ListExamsForStudent(ctx.Request.Context(), user)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, items)
}

// StartQuiz godoc
// @Summary Start or resume a quiz attempt
// @Description Creates the attempt window on first call. Repeated calls while the window is open resume it; calling after the window elapsed finalizes the attempt with whatever was answered.
// @Tags student
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "quiz id"
// @Success 200 {object} util.Response{data=service.StartResult}
// @Failure 403 {object} util.Response
// @Failure 409 {object} util.Response
// @Router /api/student/exams/{id}/start [post]
func (c *QuizSessionController) StartQuiz(ctx *gin.Context) {
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

	result, err := c.Sessions.StartOrResumeAttempt(user.UserID, quizID)
	if err != nil {
		sessionError(ctx, err)
		return
	}
	if result.Status == service.StartExpired {
		util.Redirected(ctx, http.StatusGone, "quiz time has expired", examsPage+"?timeExpired=true")
		return
	}
	util.Success(ctx, result)
}

// GetQuestion godoc
// @Summary Fetch one question of the running attempt
// @Description The question number is 1-based and clamped to the attempt's bounds. Correct answers are never included.
// @Tags student
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "quiz id"
// @Param   qNumber query int false "question number (1-based)"
// @Success 200 {object} util.Response{data=service.QuestionView}
// @Failure 410 {object} util.Response
// @Router /api/student/exams/{id}/question [get]
func (c *QuizSessionController) GetQuestion(ctx *gin.Context) {
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
	qNumber, _ := strconv.Atoi(ctx.DefaultQuery("qNumber", "1"))

	view, err := c.Sessions.GetQuestion(user.UserID, quizID, qNumber)
	if err != nil {
		sessionError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

type SaveAnswerRequest struct {
	Position int    `json:"position"`
	Selected string `json:"selectedAnswer" binding:"required"`
}

// SaveAnswer godoc
// @Summary Record the answer for one question position
// @Description Re-answering a position overwrites the previous choice. Rejected once the attempt window has elapsed.
// @Tags student
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "quiz id"
// @Param   body body SaveAnswerRequest true "answer"
// @Success 200 {object} util.Response
// @Failure 410 {object} util.Response
// @Router /api/student/exams/{id}/answer [post]
func (c *QuizSessionController) SaveAnswer(ctx *gin.Context) {
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

	var req SaveAnswerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if err := c.Sessions.SaveAnswer(user.UserID, quizID, req.Position, req.Selected); err != nil {
		sessionError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

type FinishQuizRequest struct {
	Answers []service.ClientAnswer `json:"answers"`
}

// FinishQuiz godoc
// @Summary Submit the attempt and get the final score
// @Description Answers already saved on the server take precedence over the submitted payload. Finishing twice returns a conflict.
// @Tags student
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "quiz id"
// @Param   body body FinishQuizRequest true "client-side answers"
// @Success 200 {object} util.Response{data=service.FinalizeResult}
// @Failure 409 {object} util.Response
// @Router /api/student/exams/{id}/finish [post]
func (c *QuizSessionController) FinishQuiz(ctx *gin.Context) {
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

	var req FinishQuizRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.Sessions.FinalizeAttempt(user.UserID, quizID, req.Answers)
	if err != nil {
		sessionError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// ReviewQuiz godoc
// @Summary Review a completed attempt question by question
// @Description Only available after completion and only when the quiz allows showing answers.
// @Tags student
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "quiz id"
// @Success 200 {object} util.Response{data=service.ReviewResult}
// @Failure 403 {object} util.Response
// @Router /api/student/exams/{id}/review [get]
func (c *QuizSessionController) ReviewQuiz(ctx *gin.Context) {
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

	result, err := c.Sessions.GetReview(user.UserID, quizID)
	if err != nil {
		sessionError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

func pathID(ctx *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 32)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return uint(id), nil
}
