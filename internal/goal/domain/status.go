package domain

import "fmt"

// GoalStatus is the lifecycle state of a goal. Values are wire-visible.
type GoalStatus string

const (
	GoalStatusProcessing GoalStatus = "processing"
	GoalStatusReady      GoalStatus = "ready"
	GoalStatusActive     GoalStatus = "active"
	GoalStatusPaused     GoalStatus = "paused"
	GoalStatusCompleted  GoalStatus = "completed"
	GoalStatusArchived   GoalStatus = "archived"
	GoalStatusDeleted    GoalStatus = "deleted"
)

var goalTransitions = map[GoalStatus][]GoalStatus{
	GoalStatusProcessing: {GoalStatusReady},
	GoalStatusReady:      {GoalStatusActive, GoalStatusArchived},
	GoalStatusActive:     {GoalStatusPaused, GoalStatusCompleted, GoalStatusArchived},
	GoalStatusPaused:     {GoalStatusActive, GoalStatusArchived},
	GoalStatusCompleted:  {GoalStatusArchived},
	GoalStatusArchived:   {},
	GoalStatusDeleted:    {},
}

// ParseGoalStatus validates a wire value.
func ParseGoalStatus(s string) (GoalStatus, error) {
	st := GoalStatus(s)
	if _, ok := goalTransitions[st]; !ok {
		return "", fmt.Errorf("unknown goal status %q", s)
	}
	return st, nil
}

// CanTransitionTo reports whether the lifecycle allows moving from s to next.
// deleted is reachable from every non-deleted state.
func (s GoalStatus) CanTransitionTo(next GoalStatus) bool {
	if next == GoalStatusDeleted {
		return s != GoalStatusDeleted
	}
	for _, allowed := range goalTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// HasPlan reports whether a goal in this state is expected to carry a plan.
func (s GoalStatus) HasPlan() bool {
	switch s {
	case GoalStatusProcessing, GoalStatusDeleted:
		return false
	case GoalStatusReady, GoalStatusActive, GoalStatusPaused, GoalStatusCompleted, GoalStatusArchived:
		return true
	}
	return false
}

// Category is the closed set of goal categories.
type Category string

const (
	CategoryCreativeSkills   Category = "creative_skills"
	CategoryProfessionalDev  Category = "professional_dev"
	CategoryHealthFitness    Category = "health_fitness"
	CategoryLearning         Category = "learning"
	CategoryPersonalProjects Category = "personal_projects"
	CategoryLifestyleHabits  Category = "lifestyle_habits"
)

// ParseCategory validates a wire value.
func ParseCategory(s string) (Category, error) {
	switch c := Category(s); c {
	case CategoryCreativeSkills, CategoryProfessionalDev, CategoryHealthFitness,
		CategoryLearning, CategoryPersonalProjects, CategoryLifestyleHabits:
		return c, nil
	}
	return "", fmt.Errorf("%w: unknown category %q", ErrValidation, s)
}

// ExperienceLevel describes the user's starting point.
type ExperienceLevel string

const (
	ExperienceNone         ExperienceLevel = "no_experience"
	ExperienceBeginner     ExperienceLevel = "beginner"
	ExperienceIntermediate ExperienceLevel = "intermediate"
	ExperienceAdvanced     ExperienceLevel = "advanced"
)

// ParseExperienceLevel validates a wire value.
func ParseExperienceLevel(s string) (ExperienceLevel, error) {
	switch e := ExperienceLevel(s); e {
	case ExperienceNone, ExperienceBeginner, ExperienceIntermediate, ExperienceAdvanced:
		return e, nil
	}
	return "", fmt.Errorf("%w: unknown experience level %q", ErrValidation, s)
}

// ItemStatus is the progress state of milestones, objectives and checklist tasks.
type ItemStatus string

const (
	ItemPending    ItemStatus = "pending"
	ItemInProgress ItemStatus = "in_progress"
	ItemCompleted  ItemStatus = "completed"
)

// ResourceType is the closed set of learning resource kinds.
type ResourceType string

const (
	ResourceCourse    ResourceType = "course"
	ResourceBook      ResourceType = "book"
	ResourceVideo     ResourceType = "video"
	ResourceTool      ResourceType = "tool"
	ResourceWebsite   ResourceType = "website"
	ResourceCommunity ResourceType = "community"
	ResourceWorkshop  ResourceType = "workshop"
	ResourceMentor    ResourceType = "mentor"
)

// ParseResourceType maps generated values onto the closed set; unknown kinds become website.
func ParseResourceType(s string) ResourceType {
	switch r := ResourceType(s); r {
	case ResourceCourse, ResourceBook, ResourceVideo, ResourceTool, ResourceWebsite,
		ResourceCommunity, ResourceWorkshop, ResourceMentor:
		return r
	}
	return ResourceWebsite
}
