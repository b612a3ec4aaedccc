package app

import (
	"context"
	"net/http"
	"time"

	"taskmanager/internal/auth"
	"taskmanager/internal/cache"
	"taskmanager/internal/config"
	"taskmanager/internal/handlers"
	"taskmanager/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/swaggo/swag"
)

// Setup registers all routes on the given engine. rdb may be nil.
func Setup(r *gin.Engine, cfg config.Config, log logrus.FieldLogger, stores Stores, rdb *redis.Client) {
	if err := handlers.RegisterValidators(); err != nil {
		panic(err)
	}

	r.GET("/", rootHandler(cfg))
	r.GET("/health", healthHandler(cfg, stores))
	r.GET("/version", versionHandler(cfg))
	r.GET("/swagger-doc.json", swaggerDocHandler())
	r.GET("/swagger", func(c *gin.Context) { c.Redirect(http.StatusFound, "/swagger/index.html") })
	r.GET("/swagger/*any", ginSwagger.WrapHandler(
		swaggerFiles.Handler,
		ginSwagger.URL("/swagger-doc.json"),
		ginSwagger.DefaultModelsExpandDepth(-1),
		ginSwagger.PersistAuthorization(true),
	))

	api := r.Group("/api/v1")

	var sessions *auth.Store
	var listCache *cache.TaskCache
	if rdb != nil {
		sessions = auth.NewStore(rdb, cfg.Auth.SessionTTL.Duration())
		if ttl := cfg.Redis.DefaultTTL.Duration(); ttl > 0 {
			listCache = cache.NewTaskCache(rdb, ttl)
		}
	}
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL.Duration(), cfg.Auth.JWTIssuer)
	requireUser := auth.RequireUser(tokens, sessions)

	userSvc := service.NewUserService(stores.Users, cfg.Auth.BcryptCost)
	authHandler := handlers.NewAuthHandler(tokens, sessions, userSvc, log, cfg.Auth.CookieSecure)
	registerAuthRoutes(api, authHandler, requireUser)

	protected := api.Group("", requireUser)
	taskSvc := service.NewTaskService(stores.Tasks, listCache, log)
	queries := service.NewTaskQueryEngine(stores.Tasks, listCache, log)
	stats := service.NewTaskStatsEngine(stores.Tasks, cfg.App.Location(), cfg.App.StatsParallelism)
	taskHandler := handlers.NewTaskHandler(taskSvc, queries, stats, log)
	registerTaskRoutes(protected, taskHandler)
}

func rootHandler(cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service": "Task Manager API",
			"version": cfg.App.Version,
			"env":     cfg.App.Env,
			"docs":    "/swagger/index.html",
			"spec":    "/swagger-doc.json",
			"health":  "/health",
			"api":     "/api/v1",
		})
	}
}

func healthHandler(cfg config.Config, stores Stores) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := stores.Tasks.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "env": cfg.App.Env, "store": "unreachable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true, "env": cfg.App.Env, "store": cfg.Store.Driver})
	}
}

func versionHandler(cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"version": cfg.App.Version})
	}
}

func swaggerDocHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		doc, err := swag.ReadDoc("swagger")
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(doc))
	}
}

func registerTaskRoutes(api *gin.RouterGroup, h *handlers.TaskHandler) {
	api.GET("/tasks", h.List)
	api.GET("/tasks/stats", h.Stats)
	api.POST("/tasks", h.Create)
	api.GET("/tasks/:id", h.Get)
	api.PUT("/tasks/:id", h.Update)
	api.DELETE("/tasks/:id", h.Delete)
}

func registerAuthRoutes(api *gin.RouterGroup, h *handlers.AuthHandler, requireUser gin.HandlerFunc) {
	api.POST("/auth/register", h.Register)
	api.POST("/auth/login", h.Login)
	api.POST("/auth/logout", h.Logout)
	api.GET("/auth/me", requireUser, h.Me)
}
