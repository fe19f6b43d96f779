package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/roadready/roadready-backend/internal/config"
	"github.com/roadready/roadready-backend/internal/handler"
	"github.com/roadready/roadready-backend/internal/middleware"
	"github.com/roadready/roadready-backend/internal/response"
	"github.com/roadready/roadready-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Session  *handler.SessionHandler
	User     *handler.UserHandler
	Question *handler.QuestionHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	userService *service.UserService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Writes are rate limited per IP; reads are not.
	writeLimiter := middleware.NewRateLimiter(60, time.Minute)

	authed := router.Group("/api/v1")
	authed.Use(
		middleware.RequireAuth(authService),
		middleware.ResolveUser(userService),
	)
	{
		authed.GET("/me", handlers.User.GetMe)

		authed.GET("/sessions", handlers.Session.ListSessions)
		authed.GET("/sessions/active", handlers.Session.GetActiveSession)
		authed.GET("/sessions/:session_id", handlers.Session.GetSession)
		authed.POST("/sessions", writeLimiter.Middleware(), handlers.Session.CreateSession)
		authed.PATCH("/sessions/:session_id", handlers.Session.UpdateSession)
		authed.DELETE("/sessions/:session_id", handlers.Session.DeleteSession)
		authed.POST("/sessions/:session_id/answers", writeLimiter.Middleware(), handlers.Session.RecordAnswer)

		admin := authed.Group("/admin")
		admin.Use(middleware.RequireAdmin())
		{
			admin.GET("/questions", handlers.Question.ListQuestions)
		}
	}

	return router
}
