package domain

import (
	"errors"
	"time"
)

var (
	ErrTaskNotFound = errors.New("task not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrValidation   = errors.New("validation error")
)

// Priority represents task priority level
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// ParsePriority maps free-form values onto the closed set, defaulting to medium.
func ParsePriority(p string) Priority {
	switch Priority(p) {
	case PriorityHigh:
		return PriorityHigh
	case PriorityLow:
		return PriorityLow
	default:
		return PriorityMedium
	}
}

// Resource is a {title, url} hint surfaced from generation.
type Resource struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Task is the scheduled unit mirrored onto the external calendar.
// Completed is the source of truth for progress; the calendar event's look is a projection of it.
// StartDateTime and EndDateTime keep the generated strings verbatim so their UTC offset survives.
type Task struct {
	ID              string     `json:"id" gorm:"primaryKey"`
	UserID          string     `json:"userId" gorm:"index;not null"`
	GoalID          string     `json:"goalId" gorm:"index;not null"`
	MilestoneID     string     `json:"milestoneId,omitempty"`
	Title           string     `json:"title" gorm:"not null"`
	Description     string     `json:"description,omitempty"`
	DueDate         time.Time  `json:"dueDate" gorm:"index"`
	StartDateTime   string     `json:"startDateTime,omitempty"`
	EndDateTime     string     `json:"endDateTime,omitempty"`
	Priority        Priority   `json:"priority" gorm:"default:medium"`
	Completed       bool       `json:"completed" gorm:"default:false"`
	CompletedAt     *time.Time `json:"completedAt,omitempty"`
	CalendarEventID string     `json:"calendarEventId,omitempty" gorm:"index"`
	Resources       []Resource `json:"resources,omitempty" gorm:"serializer:json"`
	Timezone        string     `json:"timezone,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// HasExplicitWindow reports whether the task carries a generated start/end pair.
func (t *Task) HasExplicitWindow() bool {
	return t.StartDateTime != "" && t.EndDateTime != ""
}

// Draft is a materialized task before it has an identity or a calendar reference.
type Draft struct {
	MilestoneID   string
	Title         string
	Description   string
	DueDate       time.Time
	StartDateTime string
	EndDateTime   string
	Priority      Priority
	Resources     []Resource
	Timezone      string
}

// NewTaskFromDraft stamps a draft with its owner and goal.
func NewTaskFromDraft(id, userID, goalID string, d Draft, now time.Time) *Task {
	priority := d.Priority
	if priority == "" {
		priority = PriorityMedium
	}
	return &Task{
		ID:            id,
		UserID:        userID,
		GoalID:        goalID,
		MilestoneID:   d.MilestoneID,
		Title:         d.Title,
		Description:   d.Description,
		DueDate:       d.DueDate,
		StartDateTime: d.StartDateTime,
		EndDateTime:   d.EndDateTime,
		Priority:      priority,
		Resources:     d.Resources,
		Timezone:      d.Timezone,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}
