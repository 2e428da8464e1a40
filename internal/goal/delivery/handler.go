package delivery

import (
	"errors"
	"net/http"

	"github.com/steventyyeh/kailendar-v2/internal/goal/domain"
	"github.com/steventyyeh/kailendar-v2/internal/goal/usecase"

	"github.com/gin-gonic/gin"
)

// GoalHandler handles goal-related HTTP requests
type GoalHandler struct {
	goalUsecase usecase.GoalUsecase
}

// NewGoalHandler creates a new GoalHandler
func NewGoalHandler(goalUsecase usecase.GoalUsecase) *GoalHandler {
	return &GoalHandler{
		goalUsecase: goalUsecase,
	}
}

// CreateGoal stores a goal and queues plan generation
// POST /api/goals
func (h *GoalHandler) CreateGoal(c *gin.Context) {
	var req usecase.CreateGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	goal, err := h.goalUsecase.CreateGoal(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{
		"goalId":        goal.ID,
		"status":        goal.Status,
		"estimatedTime": 8,
		"goal":          goal,
	})
}

// ListGoals returns the caller's goals
// GET /api/goals?status=active
func (h *GoalHandler) ListGoals(c *gin.Context) {
	var status *domain.GoalStatus
	if v := c.Query("status"); v != "" {
		parsed, err := domain.ParseGoalStatus(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		status = &parsed
	}

	goals, err := h.goalUsecase.ListGoals(c.GetString("userID"), status)
	if err != nil {
		respondError(c, err)
		return
	}
	if goals == nil {
		goals = []*domain.Goal{}
	}
	c.JSON(http.StatusOK, gin.H{"goals": goals, "count": len(goals)})
}

// GetGoal returns one goal
// GET /api/goals/:id
func (h *GoalHandler) GetGoal(c *gin.Context) {
	goal, err := h.goalUsecase.GetGoal(c.GetString("userID"), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, goal)
}

// GetGenerationStatus reports the plan generation job of a goal
// GET /api/goals/:id/generation
func (h *GoalHandler) GetGenerationStatus(c *gin.Context) {
	job, err := h.goalUsecase.GetGenerationJob(c.GetString("userID"), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

// GenerateTasks re-runs task projection for a goal
// POST /api/goals/:id/tasks
func (h *GoalHandler) GenerateTasks(c *gin.Context) {
	var req struct {
		SyncToCalendar *bool `json:"syncToCalendar"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	sync := req.SyncToCalendar == nil || *req.SyncToCalendar

	result, err := h.goalUsecase.GenerateTasks(c.Request.Context(), c.GetString("userID"), c.Param("id"), sync)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ApproveGoal POST /api/goals/:id/approve
func (h *GoalHandler) ApproveGoal(c *gin.Context) {
	h.respondGoal(c, h.goalUsecase.ApproveGoal)
}

// PauseGoal POST /api/goals/:id/pause
func (h *GoalHandler) PauseGoal(c *gin.Context) {
	h.respondGoal(c, h.goalUsecase.PauseGoal)
}

// ResumeGoal POST /api/goals/:id/resume
func (h *GoalHandler) ResumeGoal(c *gin.Context) {
	h.respondGoal(c, h.goalUsecase.ResumeGoal)
}

// CompleteGoal POST /api/goals/:id/complete
func (h *GoalHandler) CompleteGoal(c *gin.Context) {
	h.respondGoal(c, h.goalUsecase.CompleteGoal)
}

// ArchiveGoal POST /api/goals/:id/archive
func (h *GoalHandler) ArchiveGoal(c *gin.Context) {
	h.respondGoal(c, h.goalUsecase.ArchiveGoal)
}

// DeleteGoal removes a goal with its tasks and calendar events
// DELETE /api/goals/:id
func (h *GoalHandler) DeleteGoal(c *gin.Context) {
	result, err := h.goalUsecase.DeleteGoal(c.Request.Context(), c.GetString("userID"), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Goal deleted successfully",
		"result":  result,
	})
}

// GetProgress aggregates progress over the caller's active goals
// GET /api/progress
func (h *GoalHandler) GetProgress(c *gin.Context) {
	summary, err := h.goalUsecase.GetProgressSummary(c.GetString("userID"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *GoalHandler) respondGoal(c *gin.Context, action func(userID, goalID string) (*domain.Goal, error)) {
	goal, err := action(c.GetString("userID"), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, goal)
}

func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrGoalNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": "Unauthorized"})
	case errors.Is(err, domain.ErrSubscriptionLimit):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error(), "code": "SUBSCRIPTION_LIMIT"})
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrInvalidDeadline):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidTransition), errors.Is(err, domain.ErrPlanNotReady):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
