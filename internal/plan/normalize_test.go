package plan

import (
	"testing"
	"time"

	goaldomain "github.com/steventyyeh/kailendar-v2/internal/goal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_AssignsIdentitiesAndDates(t *testing.T) {
	gp, err := Parse(validPlanJSON)
	require.NoError(t, err)

	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	now := time.Date(2026, 3, 1, 15, 30, 0, 0, loc)
	deadline := time.Date(2026, 5, 30, 0, 0, 0, 0, loc)

	p, resources := Normalize(gp, NormalizeInput{Now: now, Deadline: deadline, Location: loc, Model: "claude-test"})
	require.NoError(t, p.Validate(now, deadline))

	assert.Equal(t, "claude-test", p.LLMModel)
	require.Len(t, p.Milestones, 2)
	assert.Equal(t, "milestone-0", p.Milestones[0].ID)
	assert.Equal(t, "milestone-1", p.Milestones[1].ID)
	assert.Equal(t, deadline, p.Milestones[1].TargetDate, "last milestone lands on the deadline")

	first := p.Milestones[0].TargetDate.In(loc)
	assert.Zero(t, first.Hour(), "intermediate milestones are date-only")
	assert.True(t, first.After(now))

	obj := p.Milestones[0].Objectives[0]
	assert.Equal(t, "obj-0-0", obj.ID)
	assert.Equal(t, "task-0-0-1", obj.Tasks[1].ID)
	assert.Equal(t, goaldomain.ItemPending, obj.Tasks[1].Status)
	assert.Len(t, p.Objectives, 2)

	require.Len(t, p.TaskTemplate.CalendarTasks, 1)
	ct := p.TaskTemplate.CalendarTasks[0]
	assert.Equal(t, "milestone-0", ct.MilestoneID, "numeric reference resolves by index")
	assert.Equal(t, "2026-03-02T09:00:00-05:00", ct.StartDateTime)

	require.Len(t, resources, 1)
	assert.Equal(t, "ai-resource-0", resources[0].ID)
	assert.Equal(t, goaldomain.ResourceWebsite, resources[0].Type)
	assert.Equal(t, "system", resources[0].AddedBy)
}

func TestNormalize_Defaults(t *testing.T) {
	gp := &GeneratedPlan{
		Summary: "legacy summary",
		Milestones: []GeneratedMilestone{
			{Objectives: []GeneratedObjective{{Description: "o", Tasks: []string{"", "  real task  "}}}},
			{Title: "Empty"},
		},
		Tasks: []GeneratedTask{
			{Title: "by title", MilestoneID: "empty", StartDateTime: "not a time", EndDateTime: "x"},
			{Title: "dangling", MilestoneID: "milestone-9"},
		},
		Resources: []GeneratedResource{{Title: "Thing", Type: "podcast"}, {Title: ""}},
	}
	now := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	deadline := now.AddDate(0, 1, 0)

	p, resources := Normalize(gp, NormalizeInput{Now: now, Deadline: deadline})
	require.NoError(t, p.Validate(now, deadline))

	assert.Equal(t, "legacy summary", p.TaskTemplate.Summary)
	assert.Equal(t, "Milestone 1", p.Milestones[0].Title)
	assert.Equal(t, float64(defaultEstimatedHours), p.Milestones[0].Objectives[0].EstimatedHours)
	require.Len(t, p.Milestones[0].Objectives[0].Tasks, 1)
	assert.Equal(t, "real task", p.Milestones[0].Objectives[0].Tasks[0].Description)
	assert.Empty(t, p.Milestones[1].Objectives)

	assert.Equal(t, "milestone-1", p.TaskTemplate.CalendarTasks[0].MilestoneID, "title reference is case-insensitive")
	assert.Empty(t, p.TaskTemplate.CalendarTasks[0].StartDateTime, "unparseable windows are dropped")
	assert.Empty(t, p.TaskTemplate.CalendarTasks[1].MilestoneID, "unresolved reference means no milestone")

	require.Len(t, resources, 1)
	assert.Equal(t, goaldomain.ResourceWebsite, resources[0].Type)
	assert.Equal(t, "Unknown", resources[0].Cost)
}

func TestMilestoneDate(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	t.Run("even spread anchored to day start", func(t *testing.T) {
		deadline := now.AddDate(0, 0, 30)
		var prev time.Time
		for i := 0; i < 3; i++ {
			d := MilestoneDate(now, deadline, i, 3, time.UTC)
			assert.True(t, d.After(now))
			assert.False(t, d.After(deadline))
			assert.False(t, d.Before(prev))
			prev = d
		}
		assert.Equal(t, time.Date(2026, 1, 11, 0, 0, 0, 0, time.UTC), MilestoneDate(now, deadline, 0, 3, time.UTC))
	})

	t.Run("date-only deadline anchors the last milestone to its day", func(t *testing.T) {
		deadline := goaldomain.EndOfDay(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), time.UTC)
		assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), MilestoneDate(now, deadline, 1, 2, time.UTC))

		timed := time.Date(2026, 3, 1, 17, 30, 0, 0, time.UTC)
		assert.Equal(t, timed, MilestoneDate(now, timed, 1, 2, time.UTC))
	})

	t.Run("same-day milestone keeps its clock", func(t *testing.T) {
		deadline := now.Add(4 * time.Hour)
		d := MilestoneDate(now, deadline, 0, 2, time.UTC)
		assert.Equal(t, now.Add(2*time.Hour), d)
	})
}
