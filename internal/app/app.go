package app

import (
	"context"
	"english_edu_dashboard/internal/apiclient"
	"english_edu_dashboard/internal/auth"
	"english_edu_dashboard/internal/config"
	"english_edu_dashboard/internal/controller"
	"english_edu_dashboard/internal/repository"
	"english_edu_dashboard/internal/service"
	"english_edu_dashboard/internal/view"
	"english_edu_dashboard/pkg/configwatcher"
	"english_edu_dashboard/pkg/database"
	"english_edu_dashboard/pkg/logger"
	"english_edu_dashboard/pkg/monitoring"
	"english_edu_dashboard/pkg/security"
	"english_edu_dashboard/pkg/tracing"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const sweepInterval = 5 * time.Minute

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	services        *services
	limiter         *security.RateLimiter
	tracer          *sdktrace.TracerProvider
	configCallbacks []func(*config.Config)

	mu     sync.Mutex
	cancel context.CancelFunc
}

type repositories struct {
	attempt *repository.AttemptRepository
}

type services struct {
	client     *apiclient.Client
	workspaces *service.WorkspaceService
	archive    *service.ArchiveService
	exam       *service.ExamService
	hub        *service.ExamHub
}

type controllers struct {
	session  *controller.SessionController
	exam     *controller.ExamController
	practice *controller.PracticeController
	game     *controller.GameController
	coaching *controller.CoachingController
	health   *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.mu.Lock()
	a.configCallbacks = append(a.configCallbacks, callback)
	a.mu.Unlock()
}

// reload hands a freshly loaded config to every registered callback.
func (a *App) reload(cfg *config.Config) {
	a.mu.Lock()
	callbacks := append(([]func(*config.Config))(nil), a.configCallbacks...)
	a.mu.Unlock()

	for _, cb := range callbacks {
		cb(cfg)
	}
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	if db == nil {
		return &repositories{}
	}
	return &repositories{
		attempt: repository.NewAttemptRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) (*services, error) {
	tokens, err := auth.NewTokenStore(&cfg.TokenStore, rdb)
	if err != nil {
		return nil, err
	}

	// 每个工作区会以自己的会话令牌复制该客户端，限流器共享
	client := apiclient.New(cfg.Backend, nil)
	workspaces := service.NewWorkspaceService(cfg.Exam, tokens, client)
	archive := service.NewArchiveService(service.NewStorageProvider(&cfg.Storage), repos.attempt)

	return &services{
		client:     client,
		workspaces: workspaces,
		archive:    archive,
		exam:       service.NewExamService(archive, workspaces),
		hub:        service.NewExamHub(),
	}, nil
}

func (a *App) initControllers(s *services) *controllers {
	return &controllers{
		session:  controller.NewSessionController(s.workspaces, a.Config.Server.Mode == "release"),
		exam:     controller.NewExamController(s.exam, s.hub),
		practice: controller.NewPracticeController(),
		game:     controller.NewGameController(),
		coaching: controller.NewCoachingController(),
		health:   controller.NewHealthController(a.DB, a.Redis, s.workspaces, s.hub),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(a.limiter.Middleware())

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// registerConfigCallbacks applies hot-reloadable settings. Storage, database
// and token store changes need a restart.
func (a *App) registerConfigCallbacks(s *services) {
	a.RegisterConfigCallback(func(cfg *config.Config) {
		s.workspaces.ApplyExamConfig(cfg.Exam)
	})
	a.RegisterConfigCallback(func(cfg *config.Config) {
		a.limiter.SetLimit(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute)
		s.client.SetRateLimit(cfg.Backend.RateLimitRPS, cfg.Backend.Burst)
	})
	a.RegisterConfigCallback(func(cfg *config.Config) {
		logger.Log.Info("Config applied",
			zap.Bool("autoSubmitOnExpiry", cfg.Exam.AutoSubmitOnExpiry),
			zap.Int("rateLimit", cfg.RateLimit.MaxRequests))
	})
}

func (a *App) startBackgroundTasks(ctx context.Context, s *services) {
	go s.workspaces.RunSweeper(ctx, sweepInterval)

	if a.Config.ConfigPath != "" {
		go func() {
			if err := configwatcher.WatchConfig(ctx, a.Config.ConfigPath, a.reload); err != nil {
				logger.Log.Error("config watcher stopped", zap.Error(err))
			}
		}()
	}
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	logger.Log.Info("Logger initialized successfully")
	gin.SetMode(cfg.Server.Mode)

	app := &App{
		Config:  cfg,
		limiter: security.NewRateLimiter(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute),
	}

	// 数据库仅用于归档模考记录，可选
	if cfg.Database.Enabled {
		db, err := database.InitDB(&cfg.Database, cfg.Server.Mode == "debug")
		if err != nil {
			logger.Log.Fatal("Failed to initialize database", zap.Error(err))
			log.Fatalf("Failed to initialize database: %v", err)
		}
		app.DB = db
	}

	if cfg.TokenStore.Type == "redis" {
		rdb, err := database.InitRedis(&cfg.Redis)
		if err != nil {
			logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
			log.Fatalf("Failed to initialize redis: %v", err)
		}
		app.Redis = rdb
	}

	repos := app.initRepositories(app.DB)
	services, err := app.initServices(repos, cfg, app.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize services", zap.Error(err))
	}
	app.services = services
	controllers := app.initControllers(services)

	// 监控初始化
	monitoring.Init()

	router := gin.Default()
	app.Router = router

	renderer, err := view.NewRenderer()
	if err != nil {
		logger.Log.Fatal("Failed to load templates", zap.Error(err))
	}
	router.HTMLRender = renderer

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer(cfg.Tracing)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracer = tp
	}

	app.registerRoutes(router, controllers, services)

	// 本地归档（包括远程存储不可用时的回退）通过静态路由访问
	if local, ok := services.archive.Provider.(*service.LocalStorageProvider); ok {
		router.Static("/archive", local.Root)
	}

	app.registerConfigCallbacks(services)

	ctx, cancel := context.WithCancel(context.Background())
	app.cancel = cancel
	app.startBackgroundTasks(ctx, services)

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	// 启动服务器
	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	if a.cancel != nil {
		a.cancel()
	}

	// 关闭考试事件推送和所有工作区计时器
	if a.services != nil {
		a.services.hub.Stop()
		a.services.workspaces.Shutdown()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	// 等待归档写入完成
	if a.services != nil {
		a.services.exam.Wait()
	}

	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}

	log.Println("Server exiting")
}
