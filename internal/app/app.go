package app

import (
	"context"
	"lingua_backend/internal/config"
	"lingua_backend/internal/controller"
	"lingua_backend/internal/jobs"
	"lingua_backend/internal/repository"
	"lingua_backend/internal/service"
	"lingua_backend/pkg/configwatcher"
	"lingua_backend/pkg/database"
	"lingua_backend/pkg/lock"
	"lingua_backend/pkg/logger"
	"lingua_backend/pkg/monitoring"
	"lingua_backend/pkg/security"
	"lingua_backend/pkg/tracing"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	ConfigDir       string
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	services        *services
	scheduler       *jobs.Scheduler
	tracer          *sdktrace.TracerProvider
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user      *repository.UserRepository
	task      *repository.TaskRepository
	userLevel *repository.UserLevelRepository
	topic     *repository.TopicRepository
	word      *repository.WordRepository
}

type services struct {
	auth        *service.AuthService
	progression *service.ProgressionService
	task        *service.TaskService
	submission  *service.SubmissionService
	ai          *service.AIService
	content     *service.ContentService
}

type controllers struct {
	auth    *controller.AuthController
	task    *controller.TaskController
	comment *controller.CommentController
	level   *controller.LevelController
	content *controller.ContentController
	health  *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func newRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:      repository.NewUserRepository(db),
		task:      repository.NewTaskRepository(db),
		userLevel: repository.NewUserLevelRepository(db),
		topic:     repository.NewTopicRepository(db),
		word:      repository.NewWordRepository(db),
	}
}

// newLocker 启用 Redis 时使用分布式锁，多实例部署下也能串行化任务创建
func newLocker(rdb *redis.Client) lock.Locker {
	if rdb != nil {
		return lock.NewRedisLocker(rdb, 10*time.Second)
	}
	return lock.NewLocalLocker()
}

func newServices(repos *repositories, cfg *config.Config, db *gorm.DB, rdb *redis.Client) *services {
	s := &services{}

	s.progression = service.NewProgressionService(db, repos.task, repos.userLevel, repos.topic)
	s.auth = service.NewAuthService(repos.user, s.progression, cfg)
	s.task = service.NewTaskService(db, repos.task, repos.user, repos.topic, repos.word, s.progression, newLocker(rdb))
	s.submission = service.NewSubmissionService(s.task)
	s.ai = service.NewAIService(cfg.AI)
	s.content = service.NewContentService(s.ai, s.task, repos.task, repos.word, rdb)

	return s
}

func newControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		auth:    controller.NewAuthController(s.auth),
		task:    controller.NewTaskController(s.task, s.submission),
		comment: controller.NewCommentController(),
		level:   controller.NewLevelController(s.progression),
		content: controller.NewContentController(s.content),
		health:  controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	// 认证前只能按 IP 区分
	router.Use(security.RateLimiter(cfg.RateLimit.MaxRequests, rateLimitWindow(cfg), security.ClientKey))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func rateLimitWindow(cfg *config.Config) time.Duration {
	if cfg.RateLimit.WindowMinutes <= 0 {
		return time.Minute
	}
	return time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
}

// OpenDatabase 初始化数据库并执行迁移，-migrate-only 与 -import-words 也走这里
func OpenDatabase(cfg *config.Config) (*gorm.DB, error) {
	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func NewApp(cfg *config.Config, configDir string) *App {
	logger.InitLogger(cfg)
	logger.Log.Info("Logger initialized successfully")

	db, err := OpenDatabase(cfg)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb, err = database.InitRedis(&cfg.Redis)
		if err != nil {
			logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
			log.Fatalf("Failed to initialize redis: %v", err)
		}
	}

	app := &App{
		Config:    cfg,
		ConfigDir: configDir,
		DB:        db,
		Redis:     rdb,
	}

	repos := newRepositories(db)
	app.services = newServices(repos, cfg, db, rdb)
	controllers := newControllers(app.services, db, rdb)

	// 监控初始化
	monitoring.Init()

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("lingua-backend", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracer = tp
	}

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	app.Router = router

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers, cfg)

	// 热更新：AI 凭据与日志级别
	app.RegisterConfigCallback(func(newCfg *config.Config) {
		app.services.ai.UpdateConfig(newCfg.AI)
		logger.SetMode(newCfg.Server.Mode)
	})

	if cfg.Scheduler.Enabled {
		app.scheduler = jobs.New(repos.task, cfg.Scheduler.GaugeIntervalMinutes)
	}

	return app
}

func (a *App) startBackgroundTasks(ctx context.Context) {
	if a.scheduler != nil {
		if err := a.scheduler.Start(); err != nil {
			logger.Log.Error("Failed to start scheduler", zap.Error(err))
		}
	}

	if a.ConfigDir == "" {
		return
	}
	configFile := filepath.Join(a.ConfigDir, "config.yaml")
	if _, err := os.Stat(configFile); err != nil {
		return
	}
	go func() {
		err := configwatcher.WatchConfig(ctx, configFile, func(newCfg *config.Config) {
			for _, cb := range a.configCallbacks {
				cb(newCfg)
			}
		})
		if err != nil {
			logger.Log.Error("Config watcher stopped", zap.Error(err))
		}
	}()
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	bgCtx, stopBackground := context.WithCancel(context.Background())
	a.startBackgroundTasks(bgCtx)

	// 启动服务器
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

	stopBackground()
	if a.scheduler != nil {
		a.scheduler.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		_ = a.Redis.Close()
	}

	logger.Log.Info("Server exiting")
}
