package domain

import (
	"strings"
	"testing"
	"time"

	goaldomain "github.com/steventyyeh/kailendar-v2/internal/goal/domain"
	taskdomain "github.com/steventyyeh/kailendar-v2/internal/task/domain"

	"github.com/stretchr/testify/assert"
)

func TestResolveWindow(t *testing.T) {
	ny, _ := time.LoadLocation("America/New_York")

	tests := []struct {
		name      string
		task      *taskdomain.Task
		wantStart time.Time
		wantEnd   time.Time
	}{
		{
			name: "explicit window",
			task: &taskdomain.Task{
				StartDateTime: "2026-05-01T14:00:00-04:00",
				EndDateTime:   "2026-05-01T15:30:00-04:00",
			},
			wantStart: time.Date(2026, 5, 1, 18, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2026, 5, 1, 19, 30, 0, 0, time.UTC),
		},
		{
			name:      "date only moves to the default hour",
			task:      &taskdomain.Task{DueDate: time.Date(2026, 5, 1, 0, 0, 0, 0, ny), Timezone: "America/New_York"},
			wantStart: time.Date(2026, 5, 1, 9, 0, 0, 0, ny),
			wantEnd:   time.Date(2026, 5, 1, 10, 0, 0, 0, ny),
		},
		{
			name:      "time of day is kept",
			task:      &taskdomain.Task{DueDate: time.Date(2026, 5, 1, 17, 30, 0, 0, time.UTC)},
			wantStart: time.Date(2026, 5, 1, 17, 30, 0, 0, time.UTC),
			wantEnd:   time.Date(2026, 5, 1, 18, 30, 0, 0, time.UTC),
		},
		{
			name: "unparseable window falls back to due date",
			task: &taskdomain.Task{
				StartDateTime: "tomorrow",
				EndDateTime:   "later",
				DueDate:       time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC),
			},
			wantStart: time.Date(2026, 5, 2, 9, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2026, 5, 2, 10, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := ResolveWindow(tt.task, 9)
			assert.True(t, tt.wantStart.Equal(start), "start %s", start)
			assert.True(t, tt.wantEnd.Equal(end), "end %s", end)
		})
	}
}

func TestBuildEvent(t *testing.T) {
	goal := &goaldomain.Goal{
		Specificity: "Run a marathon",
		Calendar:    goaldomain.CalendarInfo{Color: "#e74c3c"},
		Resources: []goaldomain.Resource{
			{Title: "Couch to 5k", URL: "https://example.com/c25k"},
			{Title: "Running shoes"},
			{Title: "Hal Higdon", URL: "https://example.com/hal"},
			{Title: "Strava", URL: "https://example.com/strava"},
		},
	}
	task := &taskdomain.Task{
		ID:            "t1",
		Title:         "Long run",
		Description:   "Part of: Build endurance",
		StartDateTime: "2026-05-03T07:00:00+02:00",
		EndDateTime:   "2026-05-03T09:00:00+02:00",
		Timezone:      "Europe/Berlin",
		Resources:     []taskdomain.Resource{{Title: "Pacing guide", URL: "https://example.com/pace"}},
	}

	ev := BuildEvent(task, goal, 9)

	assert.Equal(t, "Long run", ev.Summary)
	assert.Equal(t, "2026-05-03T07:00:00+02:00", ev.Start, "explicit windows are sent verbatim")
	assert.Equal(t, "2026-05-03T09:00:00+02:00", ev.End)
	assert.Equal(t, "Europe/Berlin", ev.TimeZone)
	assert.Equal(t, ColorTomato, ev.ColorID)
	assert.Equal(t, []Reminder{{Method: "popup", Minutes: 30}, {Method: "email", Minutes: 1440}}, ev.Reminders)

	want := strings.Join([]string{
		"Part of: Build endurance",
		"📚 Task Resources:",
		"• Pacing guide: https://example.com/pace",
		"🎯 Goal Resources:",
		"• Couch to 5k: https://example.com/c25k",
		"• Running shoes",
		"• Hal Higdon: https://example.com/hal",
		"  ... and 1 more resources",
		"From Kailendar Goal: Run a marathon",
		"Managed by Kailendar - https://kailendar.app",
	}, "\n")
	assert.Equal(t, want, ev.Description)
}

func TestBuildEvent_WithoutGoal(t *testing.T) {
	task := &taskdomain.Task{ID: "t1", Title: "Stretch", DueDate: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)}

	ev := BuildEvent(task, nil, 9)

	assert.Equal(t, "UTC", ev.TimeZone)
	assert.Equal(t, DefaultColorID, ev.ColorID)
	assert.Equal(t, "2026-05-01T09:00:00Z", ev.Start)
	assert.Equal(t, "From Kailendar Goal: Your Goal\nManaged by Kailendar - https://kailendar.app", ev.Description)
}

func TestEventAppearance(t *testing.T) {
	goal := &goaldomain.Goal{Calendar: goaldomain.CalendarInfo{Color: "#9B59B6"}}
	task := &taskdomain.Task{Title: "Practice scales"}

	assert.Equal(t, "Practice scales", EventTitle(task))
	assert.Equal(t, ColorGrape, EventColor(task, goal))

	task.Completed = true
	assert.Equal(t, "✅ Practice scales", EventTitle(task))
	assert.Equal(t, DoneColorID, EventColor(task, goal))
}

func TestColorForGoal(t *testing.T) {
	tests := []struct {
		hex  string
		want ColorID
	}{
		{"#3498DB", ColorBlueberry},
		{" #27ae60 ", ColorSage},
		{"#123456", DefaultColorID},
		{"", DefaultColorID},
	}
	for _, tt := range tests {
		t.Run(tt.hex, func(t *testing.T) {
			assert.Equal(t, tt.want, ColorForGoal(tt.hex))
		})
	}

	for _, hex := range goaldomain.GoalColors {
		_, ok := LookupColor(hex)
		assert.True(t, ok, "goal palette color %s has a calendar entry", hex)
	}
}

func TestCalendarConnection(t *testing.T) {
	var nilConn *CalendarConnection
	assert.False(t, nilConn.IsConnected())

	conn := &CalendarConnection{UserID: "u1", AccessToken: "a", RefreshToken: "r"}
	assert.True(t, conn.IsConnected())
	assert.Equal(t, PrimaryCalendarID, conn.TargetCalendar())

	conn.CalendarID = "work@example.com"
	assert.Equal(t, "work@example.com", conn.TargetCalendar())
	assert.Equal(t, "r", conn.Token().RefreshToken)
}
