package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/scholaris/cbt-backend/internal/config"
	"github.com/scholaris/cbt-backend/internal/handler"
	"github.com/scholaris/cbt-backend/internal/middleware"
	"github.com/scholaris/cbt-backend/internal/response"
	"github.com/scholaris/cbt-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Session  *handler.SessionHandler
	Exam     *handler.ExamHandler
	Passcode *handler.PasscodeHandler
	Practice *handler.PracticeHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	sessionService *service.SessionService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID", middleware.SessionHeader}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter on passcode redemption: six digits is a small space.
	validateLimiter := middleware.NewRateLimiter(10, time.Minute)

	// Public: passcode redemption and practice mode.
	public := router.Group("/api/v1/cbt")
	{
		public.POST("/sessions", validateLimiter.Middleware(), handlers.Session.Validate)

		public.GET("/practice", handlers.Practice.List)
		public.GET("/practice/:examId", handlers.Practice.Get)
		public.POST("/practice/:examId/submit", handlers.Practice.Submit)
	}

	// Session-scoped: exam taking. ResolveCBTSession leaves failed resolution
	// anonymous; RequireCBTSession turns anonymous into a 401.
	sessionAPI := router.Group("/api/v1/cbt")
	sessionAPI.Use(
		middleware.ResolveCBTSession(sessionService),
		middleware.RequireCBTSession(),
	)
	{
		sessionAPI.GET("/sessions/me", handlers.Session.Me)
		sessionAPI.POST("/sessions/refresh", handlers.Session.Refresh)
		sessionAPI.DELETE("/sessions/me", handlers.Session.Terminate)

		sessionAPI.GET("/exams", handlers.Exam.ListOpen)
		sessionAPI.POST("/exams/:examId/start", handlers.Exam.Start)
		sessionAPI.POST("/exams/:examId/submit", handlers.Exam.Submit)
		sessionAPI.GET("/exams/:examId/result", handlers.Exam.Result)
	}

	// Staff: passcode management and session oversight. Tokens are minted by
	// the account system; this service only validates them.
	adminAPI := router.Group("/api/v1/cbt/admin")
	adminAPI.Use(middleware.RequireStaffJWT(cfg.StaffJWTSecret))
	{
		adminAPI.POST("/passcodes", handlers.Passcode.Issue)
		adminAPI.GET("/passcodes/stats", handlers.Passcode.Stats)
		adminAPI.DELETE("/passcodes/:id", handlers.Passcode.Revoke)
		adminAPI.GET("/students/:studentId/passcodes", handlers.Passcode.ListByStudent)
		adminAPI.GET("/students/:studentId/session", handlers.Session.GetByStudent)
		adminAPI.DELETE("/students/:studentId/session", handlers.Session.TerminateByStudent)
	}

	return router
}
