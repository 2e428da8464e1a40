package domain

import (
	"context"
	"fmt"
	"strings"
	"time"

	goaldomain "github.com/steventyyeh/kailendar-v2/internal/goal/domain"
	taskdomain "github.com/steventyyeh/kailendar-v2/internal/task/domain"

	"golang.org/x/oauth2"
)

const (
	// DefaultEventDuration is used when a task has only a due date.
	DefaultEventDuration = time.Hour

	PopupReminderMinutes = 30
	EmailReminderMinutes = 24 * 60

	CompletedGlyph     = "✅ "
	maxGoalResources   = 3
	attributionFooter  = "Managed by Kailendar - https://kailendar.app"
	defaultGoalCaption = "Your Goal"
)

type Reminder struct {
	Method  string `json:"method"`
	Minutes int64  `json:"minutes"`
}

// EventPayload is the provider-neutral event written for a task.
type EventPayload struct {
	TaskID      string
	Summary     string
	Description string
	Start       string
	End         string
	TimeZone    string
	ColorID     ColorID
	Reminders   []Reminder
}

// ExternalEvent is an event read back from the calendar. TaskID is set for events this
// service created.
type ExternalEvent struct {
	ID          string    `json:"id"`
	Summary     string    `json:"summary"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	StartRaw    string    `json:"-"`
	EndRaw      string    `json:"-"`
	AllDay      bool      `json:"allDay"`
	TaskID      string    `json:"taskId,omitempty"`
	HTMLLink    string    `json:"htmlLink,omitempty"`
}

// Cancelled reports whether the event was deleted on the calendar side.
func (e ExternalEvent) Cancelled() bool {
	return e.Status == "cancelled"
}

type BusySlot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// EventClient is a user's authorized handle on one calendar.
type EventClient interface {
	ListCalendars(ctx context.Context) ([]CalendarSummary, error)
	InsertEvent(ctx context.Context, ev *EventPayload) (string, error)
	PatchEvent(ctx context.Context, eventID string, ev *EventPayload) error
	PatchAppearance(ctx context.Context, eventID, summary string, color ColorID) error
	DeleteEvent(ctx context.Context, eventID string) error
	ListEvents(ctx context.Context, from, to time.Time, showDeleted bool) ([]ExternalEvent, error)
	FreeBusy(ctx context.Context, from, to time.Time) ([]BusySlot, error)
}

// Provider performs the OAuth flow and hands out clients.
type Provider interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	Revoke(ctx context.Context, token string) error
	Client(ctx context.Context, token *oauth2.Token, calendarID string, onRefresh func(*oauth2.Token) error) (EventClient, error)
}

// ResolveWindow returns the event window for a task: its explicit start/end when present,
// otherwise the due date (moved to defaultHour when it has no time of day) plus one hour.
func ResolveWindow(task *taskdomain.Task, defaultHour int) (start, end time.Time) {
	if task.HasExplicitWindow() {
		s, errS := time.Parse(time.RFC3339, task.StartDateTime)
		e, errE := time.Parse(time.RFC3339, task.EndDateTime)
		if errS == nil && errE == nil {
			return s, e
		}
	}
	loc := goaldomain.LoadLocation(task.Timezone)
	due := task.DueDate.In(loc)
	if due.Hour() == 0 && due.Minute() == 0 {
		due = time.Date(due.Year(), due.Month(), due.Day(), defaultHour, 0, 0, 0, loc)
	}
	return due, due.Add(DefaultEventDuration)
}

// EventTimezone is the zone sent with the event window.
func EventTimezone(task *taskdomain.Task) string {
	if task.Timezone == "" {
		return "UTC"
	}
	return task.Timezone
}

// EventTitle decorates completed tasks with the completion glyph.
func EventTitle(task *taskdomain.Task) string {
	if task.Completed {
		return CompletedGlyph + task.Title
	}
	return task.Title
}

// EventColor is the done entry for completed tasks, the goal's color otherwise.
func EventColor(task *taskdomain.Task, goal *goaldomain.Goal) ColorID {
	if task.Completed {
		return DoneColorID
	}
	if goal == nil {
		return DefaultColorID
	}
	return ColorForGoal(goal.Calendar.Color)
}

// BuildEvent assembles the full event payload for a task. goal may be nil.
func BuildEvent(task *taskdomain.Task, goal *goaldomain.Goal, defaultHour int) *EventPayload {
	ev := &EventPayload{
		TaskID:      task.ID,
		Summary:     EventTitle(task),
		Description: eventDescription(task, goal),
		TimeZone:    EventTimezone(task),
		ColorID:     EventColor(task, goal),
		Reminders: []Reminder{
			{Method: "popup", Minutes: PopupReminderMinutes},
			{Method: "email", Minutes: EmailReminderMinutes},
		},
	}
	if task.HasExplicitWindow() {
		ev.Start, ev.End = task.StartDateTime, task.EndDateTime
		if _, err := time.Parse(time.RFC3339, ev.Start); err == nil {
			return ev
		}
	}
	start, end := ResolveWindow(task, defaultHour)
	ev.Start, ev.End = start.Format(time.RFC3339), end.Format(time.RFC3339)
	return ev
}

func eventDescription(task *taskdomain.Task, goal *goaldomain.Goal) string {
	lines := []string{task.Description}

	if len(task.Resources) > 0 {
		lines = append(lines, "📚 Task Resources:")
		for _, r := range task.Resources {
			lines = append(lines, fmt.Sprintf("• %s: %s", r.Title, r.URL))
		}
	}

	caption := defaultGoalCaption
	if goal != nil {
		if len(goal.Resources) > 0 {
			lines = append(lines, "🎯 Goal Resources:")
			for i, r := range goal.Resources {
				if i == maxGoalResources {
					break
				}
				if r.URL != "" {
					lines = append(lines, fmt.Sprintf("• %s: %s", r.Title, r.URL))
				} else {
					lines = append(lines, fmt.Sprintf("• %s", r.Title))
				}
			}
			if extra := len(goal.Resources) - maxGoalResources; extra > 0 {
				lines = append(lines, fmt.Sprintf("  ... and %d more resources", extra))
			}
		}
		if goal.Specificity != "" {
			caption = goal.Specificity
		}
	}
	lines = append(lines, fmt.Sprintf("From Kailendar Goal: %s", caption), attributionFooter)

	out := lines[:0]
	for _, l := range lines {
		if l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}
