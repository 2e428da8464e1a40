package plan

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	goaldomain "github.com/steventyyeh/kailendar-v2/internal/goal/domain"
)

const (
	defaultEstimatedHours = 5
	defaultSummary        = "Your personalized goal plan is ready!"
)

// NormalizeInput carries the goal context the generated plan is anchored to.
type NormalizeInput struct {
	Now      time.Time
	Deadline time.Time
	Location *time.Location
	Model    string
}

// Normalize assigns identities, spreads milestone dates across the remaining duration,
// resolves calendar-task milestone references and converts resources.
func Normalize(gp *GeneratedPlan, in NormalizeInput) (*goaldomain.Plan, []goaldomain.Resource) {
	loc := in.Location
	if loc == nil {
		loc = time.UTC
	}

	p := &goaldomain.Plan{
		GeneratedAt: in.Now,
		LLMModel:    in.Model,
		TaskTemplate: goaldomain.TaskTemplate{
			Summary:  strings.TrimSpace(gp.SummaryText()),
			Insights: nonEmpty(gp.Insights),
		},
	}
	if p.TaskTemplate.Summary == "" {
		p.TaskTemplate.Summary = defaultSummary
	}

	n := len(gp.Milestones)
	for i, gm := range gp.Milestones {
		m := goaldomain.Milestone{
			ID:          fmt.Sprintf("milestone-%d", i),
			Title:       strings.TrimSpace(gm.Title),
			Description: gm.Description,
			TargetDate:  MilestoneDate(in.Now, in.Deadline, i, n, loc),
			Status:      goaldomain.ItemPending,
		}
		if m.Title == "" {
			m.Title = fmt.Sprintf("Milestone %d", i+1)
		}
		for j, gobj := range gm.Objectives {
			obj := goaldomain.Objective{
				ID:             fmt.Sprintf("obj-%d-%d", i, j),
				MilestoneID:    m.ID,
				Description:    gobj.Description,
				EstimatedHours: float64(gobj.EstimatedHours),
				Status:         goaldomain.ItemPending,
			}
			if obj.EstimatedHours <= 0 {
				obj.EstimatedHours = defaultEstimatedHours
			}
			k := 0
			for _, text := range gobj.Tasks {
				text = strings.TrimSpace(text)
				if text == "" {
					continue
				}
				obj.Tasks = append(obj.Tasks, goaldomain.PlanTask{
					ID:          fmt.Sprintf("task-%d-%d-%d", i, j, k),
					Description: text,
					Status:      goaldomain.ItemPending,
				})
				k++
			}
			m.Objectives = append(m.Objectives, obj)
		}
		p.Milestones = append(p.Milestones, m)
	}

	for _, gt := range gp.Tasks {
		title := strings.TrimSpace(gt.Title)
		if title == "" {
			continue
		}
		ct := goaldomain.CalendarTask{
			Title:       title,
			Description: gt.Description,
			Priority:    gt.Priority,
			MilestoneID: resolveMilestone(p.Milestones, string(gt.MilestoneID)),
		}
		if validWindow(gt.StartDateTime, gt.EndDateTime) {
			ct.StartDateTime = gt.StartDateTime
			ct.EndDateTime = gt.EndDateTime
		}
		for _, r := range gt.Resources {
			if r.Title == "" && r.URL == "" {
				continue
			}
			ct.Resources = append(ct.Resources, goaldomain.ResourceHint{Title: r.Title, URL: r.URL})
		}
		p.TaskTemplate.CalendarTasks = append(p.TaskTemplate.CalendarTasks, ct)
	}

	for i, ot := range gp.OneTimeTasks {
		title := strings.TrimSpace(ot.Title)
		if title == "" {
			continue
		}
		task := goaldomain.OneTimeTask{
			ID:                 fmt.Sprintf("onetime-%d", i),
			Title:              title,
			Description:        ot.Description,
			DurationMinutes:    int(ot.DurationMinutes),
			SchedulingPriority: i + 1,
		}
		if t, ok := parseDate(ot.TargetDate, loc); ok {
			task.TargetDate = &t
		}
		p.TaskTemplate.OneTimeTasks = append(p.TaskTemplate.OneTimeTasks, task)
	}

	p.RefreshObjectives()
	return p, convertResources(gp.Resources, in.Now)
}

// MilestoneDate spreads milestone i of n evenly over (now, deadline]. Dates are anchored
// to the start of their day in loc unless that would land on or before now. The last
// milestone is the deadline itself, or the start of its day for a date-only deadline.
func MilestoneDate(now, deadline time.Time, i, n int, loc *time.Location) time.Time {
	if i >= n-1 {
		if day, ok := goaldomain.DeadlineDay(deadline, loc); ok && day.After(now) {
			return day
		}
		return deadline
	}
	span := deadline.Sub(now)
	raw := now.Add(time.Duration(float64(span) * float64(i+1) / float64(n)))
	local := raw.In(loc)
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	if !day.After(now) {
		return raw
	}
	return day
}

func resolveMilestone(milestones []goaldomain.Milestone, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	for _, m := range milestones {
		if m.ID == ref {
			return m.ID
		}
	}
	if idx, err := strconv.Atoi(ref); err == nil && idx >= 0 && idx < len(milestones) {
		return milestones[idx].ID
	}
	for _, m := range milestones {
		if strings.EqualFold(m.Title, ref) {
			return m.ID
		}
	}
	return ""
}

func validWindow(start, end string) bool {
	s, err := time.Parse(time.RFC3339, start)
	if err != nil {
		return false
	}
	e, err := time.Parse(time.RFC3339, end)
	if err != nil {
		return false
	}
	return e.After(s)
}

func parseDate(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.ParseInLocation(time.DateOnly, s, loc); err == nil {
		return t, true
	}
	return time.Time{}, false
}

func convertResources(in []GeneratedResource, now time.Time) []goaldomain.Resource {
	var out []goaldomain.Resource
	for i, r := range in {
		title := strings.TrimSpace(r.Title)
		if title == "" {
			continue
		}
		cost := r.Cost
		if cost == "" {
			cost = "Unknown"
		}
		out = append(out, goaldomain.Resource{
			ID:          fmt.Sprintf("ai-resource-%d", i),
			Type:        goaldomain.ParseResourceType(strings.ToLower(strings.TrimSpace(r.Type))),
			Title:       title,
			URL:         r.URL,
			Description: r.Description,
			Cost:        cost,
			AddedBy:     "system",
			AddedAt:     now,
		})
	}
	return out
}

func nonEmpty(items []string) []string {
	var out []string
	for _, s := range items {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
