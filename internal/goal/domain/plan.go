package domain

import (
	"fmt"
	"time"
)

// Plan is the AI or template decomposition of a goal.
// Objectives is derived from Milestones and rebuilt by RefreshObjectives; never edit it directly.
type Plan struct {
	GeneratedAt  time.Time    `json:"generatedAt"`
	LLMModel     string       `json:"llmModel"`
	Milestones   []Milestone  `json:"milestones"`
	Objectives   []Objective  `json:"objectives"`
	TaskTemplate TaskTemplate `json:"taskTemplate"`
}

type Milestone struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	TargetDate  time.Time   `json:"targetDate"`
	Status      ItemStatus  `json:"status"`
	CompletedAt *time.Time  `json:"completedAt,omitempty"`
	Objectives  []Objective `json:"objectives"`
}

type Objective struct {
	ID             string     `json:"id"`
	MilestoneID    string     `json:"milestoneId"`
	Description    string     `json:"description"`
	EstimatedHours float64    `json:"estimatedHours"`
	Status         ItemStatus `json:"status"`
	Tasks          []PlanTask `json:"tasks"`
}

// PlanTask is a checklist leaf inside an objective. It has no calendar presence by itself.
type PlanTask struct {
	ID          string     `json:"id"`
	Description string     `json:"description"`
	Status      ItemStatus `json:"status"`
}

type TaskTemplate struct {
	Summary       string         `json:"summary"`
	Insights      []string       `json:"insights"`
	OneTimeTasks  []OneTimeTask  `json:"oneTimeTasks,omitempty"`
	CalendarTasks []CalendarTask `json:"calendarTasks,omitempty"`
}

type OneTimeTask struct {
	ID                 string     `json:"id,omitempty"`
	Title              string     `json:"title"`
	Description        string     `json:"description"`
	DurationMinutes    int        `json:"duration"`
	LinkedObjectiveID  string     `json:"linkedObjectiveId,omitempty"`
	SchedulingPriority int        `json:"schedulingPriority"`
	TargetDate         *time.Time `json:"targetDate,omitempty"`
}

// CalendarTask is a generated task with an explicit, offset-qualified window.
// MilestoneID is empty when the generated reference could not be resolved.
type CalendarTask struct {
	Title         string         `json:"title"`
	Description   string         `json:"description"`
	StartDateTime string         `json:"startDateTime"`
	EndDateTime   string         `json:"endDateTime"`
	Priority      string         `json:"priority"`
	MilestoneID   string         `json:"milestoneId,omitempty"`
	Resources     []ResourceHint `json:"resources,omitempty"`
}

type ResourceHint struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// RefreshObjectives rebuilds the flattened objective view from the milestones.
func (p *Plan) RefreshObjectives() {
	if p == nil {
		return
	}
	var all []Objective
	for i := range p.Milestones {
		m := &p.Milestones[i]
		for j := range m.Objectives {
			m.Objectives[j].MilestoneID = m.ID
		}
		all = append(all, m.Objectives...)
	}
	p.Objectives = all
}

// MilestoneByID returns the milestone with the given id or nil.
func (p *Plan) MilestoneByID(id string) *Milestone {
	for i := range p.Milestones {
		if p.Milestones[i].ID == id {
			return &p.Milestones[i]
		}
	}
	return nil
}

// Validate checks the structural invariants of a freshly generated plan:
// at least one milestone, target dates non-decreasing and inside (now, deadline],
// objective parents resolvable, flattened view consistent.
func (p *Plan) Validate(now, deadline time.Time) error {
	if p == nil {
		return fmt.Errorf("%w: plan is nil", ErrInvalidPlan)
	}
	if len(p.Milestones) == 0 {
		return fmt.Errorf("%w: no milestones", ErrInvalidPlan)
	}

	ids := make(map[string]bool, len(p.Milestones))
	var prev time.Time
	var flat []Objective
	for i, m := range p.Milestones {
		if m.ID == "" {
			return fmt.Errorf("%w: milestone %d has no id", ErrInvalidPlan, i)
		}
		if ids[m.ID] {
			return fmt.Errorf("%w: duplicate milestone id %s", ErrInvalidPlan, m.ID)
		}
		ids[m.ID] = true

		if m.TargetDate.IsZero() {
			return fmt.Errorf("%w: milestone %s has no target date", ErrInvalidPlan, m.ID)
		}
		if !m.TargetDate.After(now) {
			return fmt.Errorf("%w: milestone %s target date is not in the future", ErrInvalidPlan, m.ID)
		}
		if m.TargetDate.After(deadline) {
			return fmt.Errorf("%w: milestone %s target date is after the deadline", ErrInvalidPlan, m.ID)
		}
		if m.TargetDate.Before(prev) {
			return fmt.Errorf("%w: milestone %s target date goes backwards", ErrInvalidPlan, m.ID)
		}
		prev = m.TargetDate

		for _, o := range m.Objectives {
			if o.MilestoneID != m.ID {
				return fmt.Errorf("%w: objective %s does not reference milestone %s", ErrInvalidPlan, o.ID, m.ID)
			}
		}
		flat = append(flat, m.Objectives...)
	}

	if len(flat) != len(p.Objectives) {
		return fmt.Errorf("%w: flattened objectives out of sync", ErrInvalidPlan)
	}
	for i := range flat {
		if flat[i].ID != p.Objectives[i].ID || !ids[p.Objectives[i].MilestoneID] {
			return fmt.Errorf("%w: flattened objectives out of sync", ErrInvalidPlan)
		}
	}
	return nil
}
