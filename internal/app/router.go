package app

import (
	"github.com/DeifMohamed2/mrRaafat/docs"
	"github.com/DeifMohamed2/mrRaafat/internal/config"
	"github.com/DeifMohamed2/mrRaafat/internal/middleware"
	"github.com/DeifMohamed2/mrRaafat/internal/model"
	"github.com/DeifMohamed2/mrRaafat/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
	}

	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg))
	{
		authGroup.GET("/me", c.auth.Me)

		student := authGroup.Group("/student")
		student.Use(middleware.RoleMiddleware(model.Student))
		{
			student.GET("/exams", c.session.ListExams)
			student.POST("/exams/:id/start", c.session.StartQuiz)
			student.GET("/exams/:id/question", c.session.GetQuestion)
			student.POST("/exams/:id/answer", c.session.SaveAnswer)
			student.POST("/exams/:id/finish", c.session.FinishQuiz)
			student.GET("/exams/:id/review", c.session.ReviewQuiz)
			student.POST("/exams/:id/redeem", c.access.RedeemQuizCode)

			student.GET("/chapters", c.content.StudentChapters)
			student.GET("/chapters/:id", c.content.StudentChapter)
			student.POST("/chapters/:id/redeem", c.access.RedeemChapterCode)
			student.GET("/pdfs/:pdfId", c.content.DownloadPDF)
		}

		teacher := authGroup.Group("/teacher")
		teacher.Use(middleware.RoleMiddleware(model.Teacher))
		{
			teacher.POST("/quizzes", c.quiz.CreateQuiz)
			teacher.GET("/quizzes", c.quiz.ListQuizzes)
			teacher.GET("/quizzes/:id", c.quiz.GetQuiz)
			teacher.PUT("/quizzes/:id", c.quiz.UpdateQuiz)
			teacher.DELETE("/quizzes/:id", c.quiz.DeleteQuiz)
			teacher.PUT("/quizzes/:id/visibility", c.quiz.SetVisibility)
			teacher.GET("/quizzes/:id/results", c.quiz.ListResults)
			teacher.GET("/quizzes/:id/results/export", c.quiz.ExportResults)
			teacher.DELETE("/quizzes/:id/attempts/:userId", c.quiz.ResetAttempt)

			teacher.POST("/chapters", c.content.CreateChapter)
			teacher.GET("/chapters", c.content.ListChapters)
			teacher.PUT("/chapters/:id", c.content.UpdateChapter)
			teacher.DELETE("/chapters/:id", c.content.DeleteChapter)
			teacher.POST("/chapters/:id/videos", c.content.AddVideo)
			teacher.POST("/chapters/:id/pdfs", c.content.UploadPDF)
			teacher.DELETE("/pdfs/:pdfId", c.content.DeletePDF)

			teacher.POST("/codes", c.access.GenerateCodes)
			teacher.GET("/codes", c.access.ListCodes)
		}
	}
}
