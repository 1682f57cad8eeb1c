package app

import (
	"context"
	"learnhub_backend/internal/config"
	"learnhub_backend/internal/controller"
	"learnhub_backend/internal/repository"
	"learnhub_backend/internal/service"
	"learnhub_backend/pkg/configwatcher"
	"learnhub_backend/pkg/database"
	"learnhub_backend/pkg/logger"
	"learnhub_backend/pkg/monitoring"
	"learnhub_backend/pkg/security"
	"learnhub_backend/pkg/tracing"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	services        *services
	tracer          *sdktrace.TracerProvider
	configCallbacks []func(*config.Config)
	cancel          context.CancelFunc
}

type repositories struct {
	user        *repository.UserRepository
	course      *repository.CourseRepository
	quiz        *repository.QuizRepository
	certificate *repository.CertificateRepository
	blog        *repository.BlogRepository
	dashboard   *repository.DashboardRepository
	content     *repository.ContentStore
}

type services struct {
	auth        *service.AuthService
	user        *service.UserService
	dashboard   *service.DashboardService
	storage     *service.StorageService
	course      *service.CourseService
	blog        *service.BlogService
	quiz        *service.QuizService
	evaluator   *service.QuizEvaluator
	certificate *service.CertificateService
	sessions    *service.SessionManager
	assessment  *service.AssessmentService
}

type controllers struct {
	auth        *controller.AuthController
	user        *controller.UserController
	dashboard   *controller.DashboardController
	course      *controller.CourseController
	quiz        *controller.QuizController
	assessment  *controller.AssessmentController
	certificate *controller.CertificateController
	blog        *controller.BlogController
	health      *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) applyConfig(cfg *config.Config) {
	for _, cb := range a.configCallbacks {
		cb(cfg)
	}
}

func (a *App) initRepositories(db *gorm.DB, rdb *redis.Client, cfg *config.Config) *repositories {
	r := &repositories{
		user:        repository.NewUserRepository(db),
		course:      repository.NewCourseRepository(db),
		quiz:        repository.NewQuizRepository(db, rdb, cfg.Cache.QuizTTL()),
		certificate: repository.NewCertificateRepository(db),
		blog:        repository.NewBlogRepository(db),
		dashboard:   repository.NewDashboardRepository(db),
	}
	r.content = &repository.ContentStore{
		Users:        r.user,
		Courses:      r.course,
		Quizzes:      r.quiz,
		Certificates: r.certificate,
	}
	return r
}

func (a *App) initServices(repos *repositories, cfg *config.Config) *services {
	s := &services{}

	s.storage = service.NewStorageService(cfg)
	s.auth = service.NewAuthService(repos.user, cfg)
	s.user = service.NewUserService(repos.user)
	s.course = service.NewCourseService(repos.course, s.storage, cfg)
	s.blog = service.NewBlogService(repos.blog)
	s.quiz = service.NewQuizService(repos.quiz, repos.content)

	s.evaluator = service.NewQuizEvaluator(cfg.Assessment.PassThreshold)
	s.certificate = service.NewCertificateService(repos.content, repos.content, service.NewHTMLCertificateRenderer(s.storage))
	s.sessions = service.NewSessionManager(repos.content, s.evaluator, s.certificate)
	s.assessment = service.NewAssessmentService(service.ContextIdentityProvider{}, s.sessions)
	s.dashboard = service.NewDashboardService(repos.dashboard, s.sessions, s.evaluator)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB) *controllers {
	return &controllers{
		auth:        controller.NewAuthController(s.auth),
		user:        controller.NewUserController(s.user),
		dashboard:   controller.NewDashboardController(s.dashboard),
		course:      controller.NewCourseController(s.course),
		quiz:        controller.NewQuizController(s.quiz),
		assessment:  controller.NewAssessmentController(s.assessment),
		certificate: controller.NewCertificateController(s.certificate),
		blog:        controller.NewBlogController(s.blog),
		health:      controller.NewHealthController(db),
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

// startBackgroundTasks 定期清理空闲测验会话
func (a *App) startBackgroundTasks(ctx context.Context, s *services) {
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := s.sessions.Sweep(a.Config.Assessment.SessionIdleTimeout()); n > 0 {
					logger.Log.Debug("idle assessment sessions evicted", zap.Int("count", n))
				}
			}
		}
	}()
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	// release 模式默认不自动建表
	if cfg.ForceMigrate || cfg.Server.Mode != gin.ReleaseMode {
		if err := database.Migrate(db); err != nil {
			logger.Log.Fatal("Failed to migrate database", zap.Error(err))
		}
	}

	app := &App{
		Config: cfg,
		DB:     db,
	}
	if cfg.MigrateOnly {
		return app
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
	}
	app.Redis = rdb

	repos := app.initRepositories(db, rdb, cfg)
	services := app.initServices(repos, cfg)
	app.services = services
	if err := services.auth.EnsureAdmin(context.Background(), cfg.Admin); err != nil {
		logger.Log.Fatal("Failed to seed admin account", zap.Error(err))
	}
	controllers := app.initControllers(services, db)

	monitoring.Init()

	gin.SetMode(cfg.Server.Mode)
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("learnhub-backend", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracer = tp
	}

	app.registerRoutes(router, controllers, cfg)

	if cfg.Storage.Type == "local" {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	ctx, cancel := context.WithCancel(context.Background())
	app.cancel = cancel

	app.RegisterConfigCallback(logger.SetLevel)
	app.RegisterConfigCallback(func(newCfg *config.Config) {
		services.evaluator.SetPassThreshold(newCfg.Assessment.PassThreshold)
		logger.Log.Info("assessment pass threshold applied", zap.Float64("passThreshold", services.evaluator.PassThreshold()))
	})
	configFile := filepath.Join("configs", "config.yaml")
	if err := configwatcher.WatchConfig(ctx, configFile, app.applyConfig); err != nil {
		logger.Log.Warn("config hot reload disabled", zap.Error(err))
	}

	app.startBackgroundTasks(ctx, services)

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	if a.cancel != nil {
		a.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}

	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		a.Redis.Close()
	}

	logger.Log.Info("Server exiting")
}
