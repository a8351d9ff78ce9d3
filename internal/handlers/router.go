package handlers

import (
	"net/http"

	"github.com/SAP-F-2025/test-session/internal/services"
	"github.com/SAP-F-2025/test-session/internal/utils"
	"github.com/SAP-F-2025/test-session/internal/validator"
	"github.com/gin-gonic/gin"
)

type HandlerManager struct {
	sessionHandler   *SessionHandler
	analyticsHandler *AnalyticsHandler
	authHandler      *AuthHandler
}

func NewHandlerManager(
	sessionService services.SessionService,
	exportService services.ExportService,
	analyticsService services.AnalyticsService,
	stream StreamServer,
	auth AuthContext,
	validator *validator.Validator,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		sessionHandler:   NewSessionHandler(sessionService, exportService, stream, validator, logger),
		analyticsHandler: NewAnalyticsHandler(analyticsService, logger),
		authHandler:      NewAuthHandler(auth, logger),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", HealthCheck)

	v1 := router.Group("/api/v1")
	{
		sessions := v1.Group("/sessions")
		{
			sessions.POST("", hm.sessionHandler.StartSession)
			sessions.GET("/:id", hm.sessionHandler.GetSession)
			sessions.PUT("/:id/answers/:question_id", hm.sessionHandler.SetAnswer)

			// Submission flow
			sessions.POST("/:id/submit", hm.sessionHandler.RequestSubmit)
			sessions.POST("/:id/acknowledge", hm.sessionHandler.Acknowledge)
			sessions.POST("/:id/cancel", hm.sessionHandler.Cancel)
			sessions.POST("/:id/confirm", hm.sessionHandler.Confirm)

			// After submission
			sessions.POST("/:id/review", hm.sessionHandler.Review)
			sessions.GET("/:id/review", hm.sessionHandler.GetReview)
			sessions.POST("/:id/back", hm.sessionHandler.Back)
			sessions.GET("/:id/export", hm.sessionHandler.ExportReview)

			// Navigation
			sessions.GET("/:id/palette", hm.sessionHandler.GetPalette)
			sessions.POST("/:id/jump/:index", hm.sessionHandler.JumpTo)
			sessions.GET("/:id/pages/:page", hm.sessionHandler.GetPage)

			sessions.GET("/:id/ws", hm.sessionHandler.Stream)
		}

		v1.GET("/history", hm.sessionHandler.ListHistory)
		v1.GET("/tests/:test_id/stats", hm.analyticsHandler.GetTestStatistics)
		v1.GET("/me", hm.authHandler.Me)

		auth := v1.Group("/auth")
		{
			auth.POST("/login", hm.authHandler.Login)
			auth.POST("/logout", hm.authHandler.Logout)
		}
	}
}

func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "test-session",
	})
}
