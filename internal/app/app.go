package app

import (
	"campus_exam_backend/internal/config"
	"campus_exam_backend/internal/controller"
	"campus_exam_backend/internal/repository"
	"campus_exam_backend/internal/service"
	"campus_exam_backend/pkg/database"
	"campus_exam_backend/pkg/logger"
	"campus_exam_backend/pkg/monitoring"
	"campus_exam_backend/pkg/security"
	"campus_exam_backend/pkg/tracing"
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config   *config.Config
	Router   *gin.Engine
	DB       *gorm.DB
	Redis    *redis.Client
	services *services
}

type repositories struct {
	user     *repository.UserRepository
	course   *repository.CourseRepository
	exam     *repository.ExamRepository
	session  *repository.SessionRepository
	question *repository.QuestionRepository
	attempt  *repository.AttemptRepository
	answer   *repository.AnswerRepository
}

type services struct {
	auth        *service.AuthService
	storage     *service.StorageService
	policy      *service.AccessPolicy
	selector    *service.QuestionSelector
	eligibility *service.EligibilityService
	attempt     *service.AttemptService
	result      *service.ResultService
	grading     *service.GradingService
	examAdmin   *service.ExamAdminService
}

type controllers struct {
	auth      *controller.AuthController
	attempt   *controller.AttemptController
	result    *controller.ResultController
	grading   *controller.GradingController
	examAdmin *controller.ExamAdminController
	health    *controller.HealthController
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:     repository.NewUserRepository(db),
		course:   repository.NewCourseRepository(db),
		exam:     repository.NewExamRepository(db),
		session:  repository.NewSessionRepository(db),
		question: repository.NewQuestionRepository(db),
		attempt:  repository.NewAttemptRepository(db),
		answer:   repository.NewAnswerRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, db *gorm.DB, rdb *redis.Client) *services {
	s := &services{}

	s.storage = service.NewStorageService(cfg)
	s.auth = service.NewAuthService(repos.user, cfg)
	s.policy = service.NewAccessPolicy(repos.user, repos.course)
	s.selector = service.NewQuestionSelector(repos.question, rdb,
		time.Duration(cfg.Exam.QuestionCacheSeconds)*time.Second, nil)
	s.eligibility = service.NewEligibilityService(repos.user, repos.exam, repos.session, repos.attempt)
	s.attempt = service.NewAttemptService(db, s.eligibility, s.selector,
		repos.attempt, repos.answer, repos.question, repos.session, repos.exam)
	s.result = service.NewResultService(s.policy, repos.attempt, repos.answer,
		repos.question, repos.session, repos.exam, repos.user)
	s.grading = service.NewGradingService(db, s.policy, repos.attempt, repos.answer,
		repos.question, repos.exam)
	s.examAdmin = service.NewExamAdminService(repos.course, repos.exam, repos.session,
		repos.question, repos.user, s.selector)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB) *controllers {
	return &controllers{
		auth:      controller.NewAuthController(s.auth),
		attempt:   controller.NewAttemptController(s.attempt, s.storage),
		result:    controller.NewResultController(s.result),
		grading:   controller.NewGradingController(s.grading),
		examAdmin: controller.NewExamAdminController(s.examAdmin),
		health:    controller.NewHealthController(db),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 1000
	}
	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	router.Use(security.RateLimiter(maxRequests, window))

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// startBackgroundTasks runs the attempt reaper: open attempts whose session
// window has elapsed are force-submitted on a fixed interval.
func (a *App) startBackgroundTasks(s *services) {
	interval := time.Duration(a.Config.Exam.ReaperIntervalSeconds) * time.Second
	if interval <= 0 {
		logger.Log.Info("attempt reaper disabled")
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		for range ticker.C {
			if err := s.attempt.ReapExpired(time.Now()); err != nil {
				logger.Log.Error("attempt reaper error", zap.Error(err))
			}
		}
	}()
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	if cfg.ForceMigrate {
		if err := database.Migrate(db); err != nil {
			logger.Log.Fatal("Failed to run migrations", zap.Error(err))
		}
		logger.Log.Info("Database migrations applied")
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, db, rdb)
	app.services = services
	controllers := app.initControllers(services, db)

	monitoring.Init()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer("campus-exam-backend", cfg.Tracing.CollectorEndpoint); err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers, repos, cfg)

	if cfg.Storage.Type == "local" {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	app.startBackgroundTasks(services)

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

	logger.Log.Sync()
	log.Println("Server exiting")
}
