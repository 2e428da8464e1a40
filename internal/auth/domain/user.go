package domain

import (
	"errors"
	"time"
)

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrUserNotFound = errors.New("user not found")
)

// SubscriptionTier gates how many goals a user may run at once.
type SubscriptionTier string

const (
	TierFree SubscriptionTier = "free"
	TierPro  SubscriptionTier = "pro"
)

// ParseSubscriptionTier maps unknown values to the free tier.
func ParseSubscriptionTier(s string) SubscriptionTier {
	if SubscriptionTier(s) == TierPro {
		return TierPro
	}
	return TierFree
}

type User struct {
	ID               string           `json:"id" gorm:"primaryKey"`
	Email            string           `json:"email" gorm:"index"`
	Name             string           `json:"name"`
	AvatarURL        string           `json:"avatarUrl,omitempty"`
	Timezone         string           `json:"timezone,omitempty"`
	SubscriptionTier SubscriptionTier `json:"subscriptionTier" gorm:"default:free"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
}

// IsPro reports whether the user is exempt from the free-tier goal limit.
func (u *User) IsPro() bool {
	return u != nil && u.SubscriptionTier == TierPro
}
