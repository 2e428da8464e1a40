package plan

import (
	"testing"
	"time"

	goaldomain "github.com/steventyyeh/kailendar-v2/internal/goal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFallback_Shape(t *testing.T) {
	now := time.Date(2026, 2, 10, 14, 0, 0, 0, time.UTC)
	deadlines := []time.Duration{48 * time.Hour, 30 * 24 * time.Hour, 365 * 24 * time.Hour}

	for _, span := range deadlines {
		deadline := now.Add(span)
		p := Fallback(FallbackInput{Specificity: "Run a marathon", Now: now, Deadline: deadline})

		require.NoError(t, p.Validate(now, deadline))
		require.Len(t, p.Milestones, 2)
		for _, m := range p.Milestones {
			assert.NotEmpty(t, m.Objectives)
			assert.True(t, m.TargetDate.After(now))
			assert.False(t, m.TargetDate.After(deadline))
		}
		assert.Equal(t, FallbackModel, p.LLMModel)
		assert.Contains(t, p.Milestones[0].Description, "Run a marathon")
		assert.Contains(t, p.TaskTemplate.Summary, "Run a marathon")
		assert.Len(t, p.TaskTemplate.Insights, 2)
		assert.Empty(t, p.TaskTemplate.OneTimeTasks)
	}
}

func TestFallback_IsDeterministic(t *testing.T) {
	now := time.Date(2026, 2, 10, 14, 0, 0, 0, time.UTC)
	in := FallbackInput{Specificity: "Learn Spanish", Now: now, Deadline: now.AddDate(0, 6, 0)}
	assert.Equal(t, Fallback(in), Fallback(in))
}

func TestFallback_WebDevelopmentScenario(t *testing.T) {
	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	deadline := now.AddDate(0, 0, 90)

	p := Fallback(FallbackInput{Specificity: "Learn web development", Now: now, Deadline: deadline})

	assert.Equal(t, time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC), p.Milestones[0].TargetDate)
	assert.Equal(t, deadline, p.Milestones[1].TargetDate, "a deadline with a clock time is kept")

	drafts := Materialize(p, MaterializeInput{Now: now, Timezone: "UTC", DefaultHour: 9})
	require.Len(t, drafts, 4)
	assert.Equal(t, "Set up your workspace and gather materials", drafts[0].Title)
	assert.Equal(t, "Part of: Research and plan your approach", drafts[0].Description)
	assert.Equal(t, "milestone-2", drafts[3].MilestoneID)
	assert.Equal(t, time.Date(2026, 2, 15, 9, 0, 0, 0, time.UTC), drafts[0].DueDate)
}

func TestFallback_DateOnlyDeadlineGivesDateOnlyMilestones(t *testing.T) {
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	deadline := goaldomain.EndOfDay(time.Date(2026, 6, 30, 0, 0, 0, 0, loc), loc)

	p := Fallback(FallbackInput{Specificity: "Learn web development", Now: now, Deadline: deadline, Timezone: "America/New_York"})
	require.NoError(t, p.Validate(now, deadline))

	for _, m := range p.Milestones {
		local := m.TargetDate.In(loc)
		assert.Zero(t, local.Hour(), m.ID)
		assert.Zero(t, local.Minute(), m.ID)
	}
	assert.True(t, time.Date(2026, 6, 30, 0, 0, 0, 0, loc).Equal(p.Milestones[1].TargetDate))

	drafts := Materialize(p, MaterializeInput{Now: now, Timezone: "America/New_York", DefaultHour: 9})
	require.Len(t, drafts, 4)
	for _, d := range drafts {
		assert.Equal(t, 9, d.DueDate.In(loc).Hour(), d.Title)
		assert.False(t, d.DueDate.After(deadline), d.Title)
	}
	assert.True(t, time.Date(2026, 6, 30, 9, 0, 0, 0, loc).Equal(drafts[3].DueDate))
}
