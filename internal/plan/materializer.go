package plan

import (
	"fmt"
	"strings"
	"time"

	goaldomain "github.com/steventyyeh/kailendar-v2/internal/goal/domain"
	taskdomain "github.com/steventyyeh/kailendar-v2/internal/task/domain"
)

const (
	// DefaultTaskHour is the local hour used when a due date has no time of day.
	DefaultTaskHour = 9

	milestoneHorizon = 7 * 24 * time.Hour
	oneTimeHorizon   = 3 * 24 * time.Hour
)

type MaterializeInput struct {
	Now      time.Time
	Timezone string
	// DefaultHour of zero means DefaultTaskHour.
	DefaultHour int
}

// Materialize flattens a plan into scheduled task drafts: one per checklist task, one per
// unmatched calendar-ready task and one per one-time task, in plan order.
func Materialize(p *goaldomain.Plan, in MaterializeInput) []taskdomain.Draft {
	if p == nil {
		return nil
	}
	loc := goaldomain.LoadLocation(in.Timezone)
	hour := in.DefaultHour
	if hour <= 0 || hour > 23 {
		hour = DefaultTaskHour
	}
	timezone := in.Timezone
	if timezone == "" {
		timezone = "UTC"
	}

	windows := make(map[string]goaldomain.CalendarTask)
	for _, ct := range p.TaskTemplate.CalendarTasks {
		if ct.StartDateTime == "" || ct.EndDateTime == "" {
			continue
		}
		key := windowKey(ct.MilestoneID, ct.Title)
		if _, seen := windows[key]; !seen {
			windows[key] = ct
		}
	}
	used := make(map[string]bool)
	checklist := make(map[string]bool)

	var drafts []taskdomain.Draft
	for _, m := range p.Milestones {
		due := in.Now.Add(milestoneHorizon)
		if !m.TargetDate.IsZero() {
			due = withDefaultHour(m.TargetDate, loc, hour)
		}
		for _, obj := range m.Objectives {
			for _, t := range obj.Tasks {
				d := taskdomain.Draft{
					MilestoneID: m.ID,
					Title:       t.Description,
					Description: fmt.Sprintf("Part of: %s", obj.Description),
					DueDate:     due,
					Priority:    taskdomain.PriorityMedium,
					Timezone:    timezone,
				}
				key := windowKey(m.ID, t.Description)
				checklist[key] = true
				if ct, ok := windows[key]; ok && !used[key] {
					used[key] = true
					applyWindow(&d, ct)
				}
				drafts = append(drafts, d)
			}
		}
	}

	for _, ct := range p.TaskTemplate.CalendarTasks {
		key := windowKey(ct.MilestoneID, ct.Title)
		if used[key] || checklist[key] {
			continue
		}
		due := in.Now.Add(milestoneHorizon)
		if m := p.MilestoneByID(ct.MilestoneID); m != nil && !m.TargetDate.IsZero() {
			due = withDefaultHour(m.TargetDate, loc, hour)
		}
		d := taskdomain.Draft{
			MilestoneID: ct.MilestoneID,
			Title:       ct.Title,
			Description: ct.Description,
			DueDate:     due,
			Priority:    taskdomain.ParsePriority(ct.Priority),
			Timezone:    timezone,
		}
		applyWindow(&d, ct)
		drafts = append(drafts, d)
		used[key] = true
	}

	for _, ot := range p.TaskTemplate.OneTimeTasks {
		due := in.Now.Add(oneTimeHorizon)
		if ot.TargetDate != nil && !ot.TargetDate.IsZero() {
			due = withDefaultHour(*ot.TargetDate, loc, hour)
		}
		drafts = append(drafts, taskdomain.Draft{
			Title:       ot.Title,
			Description: ot.Description,
			DueDate:     due,
			Priority:    taskdomain.PriorityMedium,
			Timezone:    timezone,
		})
	}
	return drafts
}

// applyWindow copies an explicit window verbatim so its UTC offset survives.
func applyWindow(d *taskdomain.Draft, ct goaldomain.CalendarTask) {
	for _, r := range ct.Resources {
		d.Resources = append(d.Resources, taskdomain.Resource{Title: r.Title, URL: r.URL})
	}
	if ct.StartDateTime == "" || ct.EndDateTime == "" {
		return
	}
	d.StartDateTime = ct.StartDateTime
	d.EndDateTime = ct.EndDateTime
	if start, err := time.Parse(time.RFC3339, ct.StartDateTime); err == nil {
		d.DueDate = start
	}
	if ct.Priority != "" {
		d.Priority = taskdomain.ParsePriority(ct.Priority)
	}
}

// withDefaultHour moves a date-only value (midnight in loc) to the default hour.
func withDefaultHour(t time.Time, loc *time.Location, hour int) time.Time {
	local := t.In(loc)
	if local.Hour() != 0 || local.Minute() != 0 || local.Second() != 0 || local.Nanosecond() != 0 {
		return t
	}
	return time.Date(local.Year(), local.Month(), local.Day(), hour, 0, 0, 0, loc)
}

func windowKey(milestoneID, title string) string {
	return milestoneID + "\x00" + strings.ToLower(strings.TrimSpace(title))
}
