package delivery

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/steventyyeh/kailendar-v2/internal/calendar/domain"
	"github.com/steventyyeh/kailendar-v2/internal/calendar/usecase"

	"github.com/gin-gonic/gin"
)

// CalendarHandler handles calendar connection HTTP requests
type CalendarHandler struct {
	connections usecase.ConnectionUsecase
	frontendURL string
}

// NewCalendarHandler creates a new CalendarHandler
func NewCalendarHandler(connections usecase.ConnectionUsecase, frontendURL string) *CalendarHandler {
	return &CalendarHandler{connections: connections, frontendURL: frontendURL}
}

// GetAuthURL returns the consent URL for linking a calendar
// GET /api/calendar/auth-url
func (h *CalendarHandler) GetAuthURL(c *gin.Context) {
	authURL, err := h.connections.AuthURL(c.GetString("userID"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": authURL})
}

// Callback completes the OAuth flow and sends the browser back to the app
// GET /api/calendar/callback?code=...&state=...
func (h *CalendarHandler) Callback(c *gin.Context) {
	if errMsg := c.Query("error"); errMsg != "" {
		h.redirect(c, "error", errMsg)
		return
	}
	code := c.Query("code")
	state := c.Query("state")
	if code == "" || state == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "code and state are required"})
		return
	}

	if _, err := h.connections.HandleCallback(c.Request.Context(), state, code); err != nil {
		h.redirect(c, "error", err.Error())
		return
	}
	h.redirect(c, "connected", "")
}

// Connect exchanges a code obtained by the client
// POST /api/calendar/connect
func (h *CalendarHandler) Connect(c *gin.Context) {
	var req struct {
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	status, err := h.connections.Connect(c.Request.Context(), c.GetString("userID"), req.Code)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// GetStatus reports whether the calendar link is healthy
// GET /api/calendar/status
func (h *CalendarHandler) GetStatus(c *gin.Context) {
	status, err := h.connections.Status(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// Disconnect unlinks the calendar
// DELETE /api/calendar/connection
func (h *CalendarHandler) Disconnect(c *gin.Context) {
	if err := h.connections.Disconnect(c.Request.Context(), c.GetString("userID")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Calendar disconnected"})
}

// ImportEvents lists the user's own upcoming events
// GET /api/calendar/events?days=30
func (h *CalendarHandler) ImportEvents(c *gin.Context) {
	days, _ := strconv.Atoi(c.DefaultQuery("days", "30"))

	events, err := h.connections.ImportEvents(c.Request.Context(), c.GetString("userID"), days)
	if err != nil {
		respondError(c, err)
		return
	}
	if events == nil {
		events = []domain.ExternalEvent{}
	}
	c.JSON(http.StatusOK, gin.H{"events": events, "count": len(events)})
}

// FreeBusy returns busy slots in a range
// GET /api/calendar/freebusy?from=RFC3339&to=RFC3339
func (h *CalendarHandler) FreeBusy(c *gin.Context) {
	from, err := time.Parse(time.RFC3339, c.Query("from"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from must be an RFC3339 timestamp"})
		return
	}
	to, err := time.Parse(time.RFC3339, c.Query("to"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "to must be an RFC3339 timestamp"})
		return
	}

	slots, err := h.connections.FreeBusy(c.Request.Context(), c.GetString("userID"), from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	if slots == nil {
		slots = []domain.BusySlot{}
	}
	c.JSON(http.StatusOK, gin.H{"busy": slots})
}

func (h *CalendarHandler) redirect(c *gin.Context, key, value string) {
	q := url.Values{}
	q.Set("calendar", key)
	if value != "" {
		q.Set("message", value)
	}
	c.Redirect(http.StatusFound, h.frontendURL+"/settings?"+q.Encode())
}

func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotConnected):
		c.JSON(http.StatusPreconditionFailed, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrConnectionRevoked):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error(), "needsReconnect": true})
	case errors.Is(err, domain.ErrNotConfigured):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidState):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
