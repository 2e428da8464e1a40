package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	authDelivery "github.com/steventyyeh/kailendar-v2/internal/auth/delivery"
	authUsecase "github.com/steventyyeh/kailendar-v2/internal/auth/usecase"
	calendarDelivery "github.com/steventyyeh/kailendar-v2/internal/calendar/delivery"
	calendarUsecase "github.com/steventyyeh/kailendar-v2/internal/calendar/usecase"
	goalDelivery "github.com/steventyyeh/kailendar-v2/internal/goal/delivery"
	goalUsecase "github.com/steventyyeh/kailendar-v2/internal/goal/usecase"
	taskDelivery "github.com/steventyyeh/kailendar-v2/internal/task/delivery"
	taskUsecase "github.com/steventyyeh/kailendar-v2/internal/task/usecase"
	"github.com/steventyyeh/kailendar-v2/pkg/config"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	authUsecase     authUsecase.AuthUsecase
	authHandler     *authDelivery.AuthHandler
	goalHandler     *goalDelivery.GoalHandler
	taskHandler     *taskDelivery.TaskHandler
	calendarHandler *calendarDelivery.CalendarHandler
	settings        *RuntimeSettings
	config          *config.Config
	server          *http.Server
}

func NewHandler(authUc authUsecase.AuthUsecase, goalUc goalUsecase.GoalUsecase, taskUc taskUsecase.TaskUsecase, connectionUc calendarUsecase.ConnectionUsecase, settings *RuntimeSettings, cfg *config.Config) *Handler {
	return &Handler{
		authUsecase:     authUc,
		authHandler:     authDelivery.NewAuthHandler(authUc),
		goalHandler:     goalDelivery.NewGoalHandler(goalUc),
		taskHandler:     taskDelivery.NewTaskHandler(taskUc),
		calendarHandler: calendarDelivery.NewCalendarHandler(connectionUc, cfg.FrontendURL),
		settings:        settings,
		config:          cfg,
	}
}

// Router builds the gin engine with middleware and routes
func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	// CORS middleware
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		} else {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	SetupRoutes(r, h)
	return r
}

// Start serves HTTP until Shutdown is called
func (h *Handler) Start(addr string) error {
	gin.SetMode(gin.ReleaseMode)
	h.server = &http.Server{
		Addr:              addr,
		Handler:           h.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Printf("Server starting on %s", addr)
	if err := h.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests
func (h *Handler) Shutdown(ctx context.Context) error {
	if h.server == nil {
		return nil
	}
	return h.server.Shutdown(ctx)
}
