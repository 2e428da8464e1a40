package domain

import (
	"time"

	"gorm.io/gorm"
)

// Goal is the top-level aspirational record owned by one user.
// Plan is nil while Status is processing.
type Goal struct {
	ID             string          `json:"id" gorm:"primaryKey"`
	UserID         string          `json:"userId" gorm:"index;not null"`
	Status         GoalStatus      `json:"status" gorm:"index;not null"`
	Category       Category        `json:"category" gorm:"not null"`
	Specificity    string          `json:"specificity" gorm:"not null"`
	CurrentState   ExperienceLevel `json:"currentState"`
	TargetState    string          `json:"targetState"`
	Deadline       time.Time       `json:"deadline"`
	Timezone       string          `json:"timezone,omitempty"`
	LearningStyles []string        `json:"learningStyles" gorm:"serializer:json"`
	Budget         string          `json:"budget,omitempty"`
	Equipment      string          `json:"equipment,omitempty"`
	Constraints    string          `json:"constraints,omitempty"`
	AvailableHours string          `json:"availableHours,omitempty"`
	Plan           *Plan           `json:"plan,omitempty" gorm:"serializer:json"`
	Calendar       CalendarInfo    `json:"calendar" gorm:"serializer:json"`
	Progress       Progress        `json:"progress" gorm:"serializer:json"`
	Resources      []Resource      `json:"resources" gorm:"serializer:json"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
	CompletedAt    *time.Time      `json:"completedAt,omitempty"`
	PausedAt       *time.Time      `json:"pausedAt,omitempty"`
}

// CalendarInfo is the goal's calendar projection metadata.
type CalendarInfo struct {
	Color    string   `json:"color"`
	EventIDs []string `json:"eventIds"`
}

type Resource struct {
	ID          string       `json:"id"`
	Type        ResourceType `json:"type"`
	Title       string       `json:"title"`
	URL         string       `json:"url,omitempty"`
	Description string       `json:"description"`
	Cost        string       `json:"cost,omitempty"`
	AddedBy     string       `json:"addedBy"`
	AddedAt     time.Time    `json:"addedAt"`
}

// BeforeSave keeps the derived objective view in step with the milestones.
func (g *Goal) BeforeSave(tx *gorm.DB) error {
	if g.Plan != nil {
		g.Plan.RefreshObjectives()
	}
	return nil
}

// Location resolves the goal timezone, defaulting to UTC.
func (g *Goal) Location() *time.Location {
	return LoadLocation(g.Timezone)
}

// LoadLocation resolves an IANA name, defaulting to UTC when empty or unknown.
func LoadLocation(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

// EndOfDay is the deadline a date-only value stands for: the last second of that day in loc.
func EndOfDay(day time.Time, loc *time.Location) time.Time {
	d := day.In(loc)
	return time.Date(d.Year(), d.Month(), d.Day(), 23, 59, 59, 0, loc)
}

// DeadlineDay returns the start of a date-only deadline's day in loc. ok is false when the
// deadline carries its own time of day.
func DeadlineDay(deadline time.Time, loc *time.Location) (day time.Time, ok bool) {
	d := deadline.In(loc)
	if !d.Equal(EndOfDay(d, loc)) {
		return time.Time{}, false
	}
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc), true
}

// GoalColors is the palette new goals pick their display color from.
var GoalColors = []string{
	"#FF5733", "#33C1FF", "#8E44AD", "#27AE60",
	"#F39C12", "#E74C3C", "#3498DB", "#2ECC71",
}
