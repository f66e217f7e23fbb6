package router

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"

	"github.com/talenthubhq/talenthub/authz"
	"github.com/talenthubhq/talenthub/handlers"
	"github.com/talenthubhq/talenthub/internal/config"
	"github.com/talenthubhq/talenthub/services"
	"github.com/talenthubhq/talenthub/store"
)

// NewGinRouter wires stores, services and handlers into the HTTP surface.
func NewGinRouter(pg *sql.DB, rdb *redis.Client) *gin.Engine {
	st := store.NewPostgres(pg)
	engine := authz.NewEngine(config.App.DefaultPageSize, config.App.MaxPageSize)
	notifier := services.NewNotifier(rdb)
	jwtService := services.NewJWTService(config.App.JWTSecret, config.App.TokenTTL())

	authService := services.NewAuthService(st, jwtService)
	postingService := services.NewPostingService(st, engine)
	applicationService := services.NewApplicationService(st, engine, notifier)
	interviewService := services.NewInterviewService(st, engine, notifier)
	notificationService := services.NewNotificationService(st)

	authHandler := handlers.NewAuthHandler(authService)
	postingHandler := handlers.NewPostingHandler(postingService)
	applicationHandler := handlers.NewApplicationHandler(applicationService)
	interviewHandler := handlers.NewInterviewHandler(interviewService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	authMiddleware := handlers.NewAuthMiddleware(authService)

	r := gin.Default()
	r.Use(handlers.CORSMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")

	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)

	protected := api.Group("")
	protected.Use(authMiddleware.RequireAuth())
	{
		protected.GET("/postings", postingHandler.List)
		protected.POST("/postings", postingHandler.Create)
		protected.GET("/postings/my-postings", postingHandler.ListMine)
		protected.GET("/postings/:id", postingHandler.Get)
		protected.PATCH("/postings/:id", postingHandler.Update)
		protected.DELETE("/postings/:id", postingHandler.Delete)

		protected.GET("/applications", applicationHandler.List)
		protected.POST("/applications", applicationHandler.Apply)
		protected.GET("/applications/my-applications", applicationHandler.ListMine)
		protected.GET("/applications/:id", applicationHandler.Get)
		protected.PATCH("/applications/:id", applicationHandler.Update)
		protected.DELETE("/applications/:id", applicationHandler.Delete)

		protected.GET("/interviews", interviewHandler.List)
		protected.POST("/interviews", interviewHandler.Schedule)
		protected.GET("/interviews/my-interviews", interviewHandler.ListMine)
		protected.GET("/interviews/:id", interviewHandler.Get)
		protected.PATCH("/interviews/:id", interviewHandler.Update)
		protected.DELETE("/interviews/:id", interviewHandler.Delete)

		protected.GET("/notifications", notificationHandler.List)
		protected.POST("/notifications/:id/read", notificationHandler.MarkRead)
	}

	return r
}
