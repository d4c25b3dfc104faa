package app

import (
	"lingua_backend/docs"
	"lingua_backend/internal/config"
	"lingua_backend/internal/middleware"
	"lingua_backend/pkg/monitoring"
	"lingua_backend/pkg/security"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	registerPublicRoutes(router, c)

	// 2. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg.JWT.Secret))
	// 登录用户另按用户 ID 限流，共享出口 IP 的用户互不影响
	authGroup.Use(security.RateLimiter(cfg.RateLimit.MaxRequests, rateLimitWindow(cfg), security.ClientKey))
	registerLearnerRoutes(authGroup, c)
}

func registerPublicRoutes(router *gin.Engine, c *controllers) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
		public.GET("/topics", c.level.ListTopics)

		// 评论工具不依赖用户状态
		public.POST("/comments/validate", c.comment.Validate)
		public.POST("/comments/score", c.comment.Score)
	}
}

func registerLearnerRoutes(rg *gin.RouterGroup, c *controllers) {
	tasks := rg.Group("/tasks")
	{
		tasks.POST("", c.task.CreateTask)
		tasks.GET("", c.task.GetTasks)
		tasks.GET("/:id", c.task.GetTask)
		tasks.POST("/:id/complete", c.task.CompleteTask)
		tasks.POST("/:id/words", c.task.AddWords)
		tasks.POST("/:id/submit", c.task.Submit)
	}

	levels := rg.Group("/levels")
	{
		levels.GET("", c.level.GetLevels)
		levels.POST("/complete", c.level.CompleteLevel)
		levels.POST("/initialize", c.level.InitializeLevels)
	}

	content := rg.Group("/content")
	{
		content.POST("/vocabulary", c.content.GenerateVocabulary)
		content.POST("/post", c.content.GeneratePost)
	}
}
