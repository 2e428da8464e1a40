package domain

import "errors"

var (
	ErrGoalNotFound      = errors.New("goal not found")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrValidation        = errors.New("validation error")
	ErrInvalidDeadline   = errors.New("deadline must be in the future")
	ErrSubscriptionLimit = errors.New("free tier allows only 1 active goal, upgrade to Pro for unlimited goals")
	ErrInvalidTransition = errors.New("invalid goal status transition")
	ErrPlanNotReady      = errors.New("goal plan is not ready")
	ErrInvalidPlan       = errors.New("invalid plan")

	// ErrGenerationAbandoned marks a generation that deleted its goal and must not be retried.
	ErrGenerationAbandoned = errors.New("plan generation abandoned")
)
