package api

import (
	"net/http"

	"github.com/steventyyeh/kailendar-v2/internal/auth/delivery"
	"github.com/steventyyeh/kailendar-v2/pkg/metrics"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, h *Handler) {
	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api")
	{
		// Health check (no auth required)
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		requireAuth := delivery.AuthMiddleware(h.authUsecase)

		// Auth routes
		auth := api.Group("/auth")
		{
			auth.POST("/google", h.authHandler.GoogleSignIn)
			auth.GET("/me", requireAuth, h.authHandler.Me)
		}

		// FCM routes (protected)
		fcm := api.Group("/fcm")
		fcm.Use(requireAuth)
		{
			fcm.POST("/register", h.authHandler.RegisterFCMToken)
			fcm.DELETE("/:token", h.authHandler.UnregisterFCMToken)
		}

		// Goal routes (protected)
		goals := api.Group("/goals")
		goals.Use(requireAuth)
		{
			goals.POST("", h.goalHandler.CreateGoal)
			goals.GET("", h.goalHandler.ListGoals)
			goals.GET("/:id", h.goalHandler.GetGoal)
			goals.GET("/:id/generation", h.goalHandler.GetGenerationStatus)
			goals.POST("/:id/tasks", h.goalHandler.GenerateTasks)
			goals.POST("/:id/approve", h.goalHandler.ApproveGoal)
			goals.POST("/:id/pause", h.goalHandler.PauseGoal)
			goals.POST("/:id/resume", h.goalHandler.ResumeGoal)
			goals.POST("/:id/complete", h.goalHandler.CompleteGoal)
			goals.POST("/:id/archive", h.goalHandler.ArchiveGoal)
			goals.DELETE("/:id", h.goalHandler.DeleteGoal)
		}
		api.GET("/progress", requireAuth, h.goalHandler.GetProgress)

		// Task routes (protected)
		tasks := api.Group("/tasks")
		tasks.Use(requireAuth)
		{
			tasks.GET("", h.taskHandler.GetTasks)
			tasks.POST("", h.taskHandler.CreateTask)
			tasks.GET("/upcoming", h.taskHandler.GetUpcomingTasks)
			tasks.GET("/search", h.taskHandler.SearchTasks)
			tasks.POST("/reconcile", h.taskHandler.Reconcile)
			tasks.GET("/:id", h.taskHandler.GetTaskByID)
			tasks.PUT("/:id", h.taskHandler.UpdateTask)
			tasks.DELETE("/:id", h.taskHandler.DeleteTask)
			tasks.PATCH("/:id/complete", h.taskHandler.ToggleCompletion)
		}

		// Calendar routes; the OAuth callback carries its user in the signed state
		api.GET("/calendar/callback", h.calendarHandler.Callback)
		calendar := api.Group("/calendar")
		calendar.Use(requireAuth)
		{
			calendar.GET("/auth-url", h.calendarHandler.GetAuthURL)
			calendar.POST("/connect", h.calendarHandler.Connect)
			calendar.GET("/status", h.calendarHandler.GetStatus)
			calendar.DELETE("/connection", h.calendarHandler.Disconnect)
			calendar.GET("/events", h.calendarHandler.ImportEvents)
			calendar.GET("/freebusy", h.calendarHandler.FreeBusy)
		}

		// Settings routes (protected) - runtime generation configuration
		settings := api.Group("/settings")
		settings.Use(requireAuth)
		{
			settings.GET("/generation", h.settings.GetGenerationSettings)
			settings.PUT("/ollama", h.settings.UpdateOllamaSettings)
			settings.POST("/ollama/test", h.settings.TestOllamaConnection)
		}
	}
}
