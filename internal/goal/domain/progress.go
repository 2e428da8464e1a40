package domain

import (
	"math"
	"sort"
	"time"
)

// MinutesPerTask is the time credited per completed task; each one is a one-hour event.
const MinutesPerTask = 60

// Progress is the aggregate derived from the task store. Task completion flags are the
// only input; calendar state never feeds into it.
type Progress struct {
	TotalTasksScheduled  int        `json:"totalTasksScheduled"`
	TasksCompleted       int        `json:"tasksCompleted"`
	CompletionRate       float64    `json:"completionRate"`
	LastCompletedTask    *time.Time `json:"lastCompletedTask,omitempty"`
	CurrentStreak        int        `json:"currentStreak"`
	LongestStreak        int        `json:"longestStreak"`
	TotalMinutesInvested int        `json:"totalMinutesInvested"`
}

// ComputeProgress derives the aggregate from the number of tasks and the completion
// timestamps of the completed ones. Streaks count consecutive calendar days in loc with
// at least one completion; the current streak stays alive through the end of today.
func ComputeProgress(total int, completedAt []time.Time, now time.Time, loc *time.Location) Progress {
	if loc == nil {
		loc = time.UTC
	}
	p := Progress{
		TotalTasksScheduled:  total,
		TasksCompleted:       len(completedAt),
		TotalMinutesInvested: len(completedAt) * MinutesPerTask,
	}
	if total > 0 {
		p.CompletionRate = math.Round(float64(len(completedAt))/float64(total)*1000) / 10
	}
	if len(completedAt) == 0 {
		return p
	}

	dayKeys := map[time.Time]bool{}
	var last time.Time
	for _, ts := range completedAt {
		if ts.After(last) {
			last = ts
		}
		dayKeys[dayOf(ts, loc)] = true
	}
	lastCopy := last
	p.LastCompletedTask = &lastCopy

	days := make([]time.Time, 0, len(dayKeys))
	for d := range dayKeys {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	run := 1
	p.LongestStreak = 1
	for i := 1; i < len(days); i++ {
		if days[i-1].AddDate(0, 0, 1).Equal(days[i]) {
			run++
		} else {
			run = 1
		}
		if run > p.LongestStreak {
			p.LongestStreak = run
		}
	}

	today := dayOf(now, loc)
	lastDay := days[len(days)-1]
	if lastDay.Equal(today) || lastDay.AddDate(0, 0, 1).Equal(today) {
		p.CurrentStreak = run
	}
	return p
}

func dayOf(t time.Time, loc *time.Location) time.Time {
	l := t.In(loc)
	return time.Date(l.Year(), l.Month(), l.Day(), 0, 0, 0, 0, loc)
}
