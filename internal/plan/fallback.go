package plan

import (
	"fmt"
	"time"

	goaldomain "github.com/steventyyeh/kailendar-v2/internal/goal/domain"
)

// FallbackModel identifies template plans in Plan.LLMModel.
const FallbackModel = "fallback-v1"

type FallbackInput struct {
	Specificity string
	Now         time.Time
	Deadline    time.Time
	Timezone    string
}

// Fallback builds the two-milestone template plan. It performs no I/O and cannot fail.
func Fallback(in FallbackInput) *goaldomain.Plan {
	loc := goaldomain.LoadLocation(in.Timezone)
	midpoint := MilestoneDate(in.Now, in.Deadline, 0, 2, loc)
	final := MilestoneDate(in.Now, in.Deadline, 1, 2, loc)

	p := &goaldomain.Plan{
		GeneratedAt: in.Now,
		LLMModel:    FallbackModel,
		Milestones: []goaldomain.Milestone{
			{
				ID:          "milestone-1",
				Title:       "Get Started",
				Description: fmt.Sprintf("Begin working on: %s", in.Specificity),
				TargetDate:  midpoint,
				Status:      goaldomain.ItemPending,
				Objectives: []goaldomain.Objective{{
					ID:             "obj-1",
					Description:    "Research and plan your approach",
					EstimatedHours: 5,
					Status:         goaldomain.ItemPending,
					Tasks: []goaldomain.PlanTask{
						{ID: "task-1-1", Description: "Set up your workspace and gather materials", Status: goaldomain.ItemPending},
						{ID: "task-1-2", Description: "Create a detailed action plan", Status: goaldomain.ItemPending},
					},
				}},
			},
			{
				ID:          "milestone-2",
				Title:       "Make Progress",
				Description: "Work consistently toward your goal",
				TargetDate:  final,
				Status:      goaldomain.ItemPending,
				Objectives: []goaldomain.Objective{{
					ID:             "obj-2",
					Description:    "Execute your plan and track progress",
					EstimatedHours: 20,
					Status:         goaldomain.ItemPending,
					Tasks: []goaldomain.PlanTask{
						{ID: "task-2-1", Description: "Practice or work on your goal daily", Status: goaldomain.ItemPending},
						{ID: "task-2-2", Description: "Review and adjust your approach weekly", Status: goaldomain.ItemPending},
					},
				}},
			},
		},
		TaskTemplate: goaldomain.TaskTemplate{
			Summary: fmt.Sprintf("Starting your journey with %s. This basic plan will help you get organized.", in.Specificity),
			Insights: []string{
				"Break down your goal into smaller daily actions",
				"Track your progress consistently and adjust as needed",
			},
		},
	}
	p.RefreshObjectives()
	return p
}
