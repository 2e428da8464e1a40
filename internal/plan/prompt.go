package plan

import (
	"fmt"
	"strings"
	"time"
)

// Request is the goal context sent to the generative call.
type Request struct {
	Specificity    string
	Category       string
	CurrentState   string
	TargetState    string
	Deadline       time.Time
	LearningStyles []string
	Budget         string
	Equipment      string
	Constraints    string
	AvailableHours string
	Timezone       string
}

const systemPrompt = `You are an expert productivity coach and goal planning assistant. Your role is to help users achieve their goals by creating detailed, actionable plans.

Given a user's goal and context, generate a structured plan with:
1. A motivational summary (2-3 sentences)
2. 3-5 milestones that break down the goal into major phases, in chronological order
3. For each milestone: specific objectives with checklist tasks
4. Calendar-ready tasks with explicit start and end times inside the user's available hours
5. 2-3 actionable insights
6. 3-5 recommended resources (books, courses, tools, websites)

Respond ONLY with valid JSON in this exact format:
{
  "planSummary": "Motivational text here",
  "milestones": [
    {
      "title": "Milestone title",
      "description": "What this milestone achieves",
      "objectives": [
        {
          "description": "Specific objective",
          "estimatedHours": 5,
          "tasks": ["Specific task 1", "Specific task 2"]
        }
      ]
    }
  ],
  "tasks": [
    {
      "title": "Task title, matching a checklist task where it schedules one",
      "description": "What to do in this session",
      "startDateTime": "2025-01-06T09:00:00-05:00",
      "endDateTime": "2025-01-06T10:00:00-05:00",
      "priority": "high|medium|low",
      "milestoneId": "milestone-0",
      "resources": [{"title": "Resource name", "url": "https://example.com"}]
    }
  ],
  "insights": ["Actionable insight 1", "Actionable insight 2"],
  "resources": [
    {
      "title": "Resource name",
      "type": "course|book|video|tool|website|community|workshop|mentor",
      "description": "Why this resource is helpful",
      "url": "https://example.com or null",
      "cost": "Free|$X|Subscription"
    }
  ]
}

Milestone ids are "milestone-" followed by the zero-based milestone index. Every startDateTime and endDateTime must be RFC 3339 with an explicit UTC offset for the user's timezone. Make the plan realistic, specific, and tailored to the user's experience level and constraints. Include only high-quality, well-known resources.`

// BuildPrompt renders the system and user prompts for a plan request.
func BuildPrompt(req Request, now time.Time) (string, string) {
	orDefault := func(s, def string) string {
		if strings.TrimSpace(s) == "" {
			return def
		}
		return s
	}
	styles := "Not specified"
	if len(req.LearningStyles) > 0 {
		styles = strings.Join(req.LearningStyles, ", ")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Goal: %s\n", req.Specificity)
	fmt.Fprintf(&b, "Category: %s\n", req.Category)
	fmt.Fprintf(&b, "Current Experience Level: %s\n", orDefault(req.CurrentState, "Not specified"))
	fmt.Fprintf(&b, "Target State: %s\n", orDefault(req.TargetState, "Not specified"))
	fmt.Fprintf(&b, "Today: %s\n", now.Format(time.DateOnly))
	fmt.Fprintf(&b, "Deadline: %s\n", req.Deadline.Format(time.DateOnly))
	fmt.Fprintf(&b, "Learning Preferences: %s\n", styles)
	fmt.Fprintf(&b, "Budget: %s\n", orDefault(req.Budget, "Not specified"))
	fmt.Fprintf(&b, "Equipment Available: %s\n", orDefault(req.Equipment, "Not specified"))
	fmt.Fprintf(&b, "Constraints: %s\n", orDefault(req.Constraints, "None specified"))
	fmt.Fprintf(&b, "Available Hours: %s\n", orDefault(req.AvailableHours, "Not specified"))
	fmt.Fprintf(&b, "Timezone: %s\n", orDefault(req.Timezone, "UTC"))
	b.WriteString("\nPlease generate a comprehensive goal plan.")

	return systemPrompt, b.String()
}
