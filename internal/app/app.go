package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DeifMohamed2/mrRaafat/internal/config"
	"github.com/DeifMohamed2/mrRaafat/internal/controller"
	"github.com/DeifMohamed2/mrRaafat/internal/repository"
	"github.com/DeifMohamed2/mrRaafat/internal/service"
	"github.com/DeifMohamed2/mrRaafat/pkg/database"
	"github.com/DeifMohamed2/mrRaafat/pkg/logger"
	"github.com/DeifMohamed2/mrRaafat/pkg/monitoring"
	"github.com/DeifMohamed2/mrRaafat/pkg/security"
	"github.com/DeifMohamed2/mrRaafat/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config *config.Config
	Router *gin.Engine
	DB     *gorm.DB
	Redis  *redis.Client
}

type repositories struct {
	user    *repository.UserRepository
	quiz    *repository.QuizRepository
	attempt *repository.QuizAttemptRepository
	code    *repository.AccessCodeRepository
	chapter *repository.ChapterRepository
	stats   *repository.QuizStatsCache
}

type services struct {
	auth    *service.AuthService
	access  *service.AccessService
	quiz    *service.QuizService
	session *service.QuizSessionService
	content *service.ContentService
	storage service.StorageProvider
}

type controllers struct {
	auth    *controller.AuthController
	session *controller.QuizSessionController
	quiz    *controller.QuizController
	content *controller.ContentController
	access  *controller.AccessController
	health  *controller.HealthController
}

func (a *App) initRepositories(db *gorm.DB, rdb *redis.Client) *repositories {
	return &repositories{
		user:    repository.NewUserRepository(db),
		quiz:    repository.NewQuizRepository(db),
		attempt: repository.NewQuizAttemptRepository(db),
		code:    repository.NewAccessCodeRepository(db),
		chapter: repository.NewChapterRepository(db),
		stats:   repository.NewQuizStatsCache(rdb),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config) *services {
	s := &services{}

	storage, err := service.NewStorageProvider(&cfg.Storage)
	if err != nil {
		logger.Log.Fatal("Failed to initialize storage", zap.Error(err))
	}
	s.storage = storage

	s.auth = service.NewAuthService(repos.user, cfg)
	s.access = service.NewAccessService(repos.code, repos.user, repos.quiz)
	s.quiz = service.NewQuizService(repos.quiz, repos.attempt, repos.code, repos.stats)
	s.session = service.NewQuizSessionService(repos.quiz, repos.attempt, repos.user, s.access, repos.stats)
	s.content = service.NewContentService(repos.chapter, s.access, storage)

	return s
}

func (a *App) initControllers(s *services, repos *repositories, db *gorm.DB) *controllers {
	return &controllers{
		auth:    controller.NewAuthController(s.auth),
		session: controller.NewQuizSessionController(s.session, s.quiz, s.auth),
		quiz:    controller.NewQuizController(s.quiz),
		content: controller.NewContentController(s.content, s.auth),
		access:  controller.NewAccessController(s.access, repos.code, repos.chapter),
		health:  controller.NewHealthController(db),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute))

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		// The platform degrades to uncached counts without redis.
		logger.Log.Warn("Redis unavailable, stats cache disabled", zap.Error(err))
		rdb = nil
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db, rdb)
	services := app.initServices(repos, cfg)
	controllers := app.initControllers(services, repos, db)

	monitoring.Init()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer("tutoring-platform", cfg.Tracing.CollectorEndpoint); err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers, cfg)

	if cfg.Storage.Type == "" || cfg.Storage.Type == "local" {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
