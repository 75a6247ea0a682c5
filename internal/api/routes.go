package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/autokat/backend/internal/api/handlers"
	"github.com/autokat/backend/internal/config"
	"github.com/autokat/backend/internal/middleware"
)

// Operator is what the operator endpoints need from the authenticator.
type Operator interface {
	handlers.OperatorAuth
	middleware.TokenParser
}

// Audit is the operator audit log. Leave it nil when no database is configured.
type Audit interface {
	handlers.AuditLogger
	handlers.AuditReader
}

// Deps are the services the routes are wired to.
type Deps struct {
	Config *config.Config
	Log    *zap.SugaredLogger
	Loop   handlers.LoopStats
	Hub    interface {
		handlers.WSServer
		handlers.ClientCounter
	}
	Tracker handlers.CalibrationTracker
	Board   handlers.HighscoreReader
	Auth    Operator
	Audit   Audit
}

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, d Deps) {
	router.Use(middleware.CORSMiddleware(d.Config, d.Log))

	if !d.Config.IsProduction() {
		router.Use(middleware.NoCache())
		d.Log.Info("[DEV MODE] No-cache headers enabled for all routes")
	}

	router.GET("/ws",
		middleware.WebSocketCORSCheck(d.Config),
		middleware.OptionalOperator(d.Auth),
		handlers.HandleWebSocket(d.Hub),
	)

	// API v1 group
	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", handlers.HealthCheck)
		v1.GET("/metrics", handlers.GetMetrics(d.Loop, d.Hub))
		v1.GET("/highscores", handlers.GetHighscores(d.Board))
		v1.GET("/calibration", handlers.GetCalibration(d.Tracker))
		v1.POST("/calibration/:corner",
			middleware.RequireOperator(d.Auth),
			handlers.MarkCalibrationCorner(d.Tracker, d.Audit, d.Log),
		)

		operator := v1.Group("/operator")
		{
			operator.POST("/login", handlers.OperatorLogin(d.Auth, d.Audit, d.Log))
			operator.GET("/audit", middleware.RequireOperator(d.Auth), handlers.GetOperatorAuditLogs(d.Audit, d.Log))
		}
	}
}
