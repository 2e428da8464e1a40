package repository

import (
	"errors"
	"time"

	authdomain "github.com/steventyyeh/kailendar-v2/internal/auth/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	FindByID(id string) (*authdomain.User, error)
	FindByEmail(email string) (*authdomain.User, error)

	// Upsert creates the user or refreshes its profile fields; the subscription tier is left alone
	Upsert(user *authdomain.User) error

	SetSubscriptionTier(id string, tier authdomain.SubscriptionTier) error
}

// userRepository implements UserRepository interface
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new instance of userRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{
		db: db,
	}
}

func (r *userRepository) FindByEmail(email string) (*authdomain.User, error) {
	var user authdomain.User
	err := r.db.Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByID(id string) (*authdomain.User, error) {
	var user authdomain.User
	err := r.db.Where("id = ?", id).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) Upsert(user *authdomain.User) error {
	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	if user.SubscriptionTier == "" {
		user.SubscriptionTier = authdomain.TierFree
	}

	updates := []string{"updated_at"}
	if user.Email != "" {
		updates = append(updates, "email")
	}
	if user.Name != "" {
		updates = append(updates, "name")
	}
	if user.AvatarURL != "" {
		updates = append(updates, "avatar_url")
	}
	if user.Timezone != "" {
		updates = append(updates, "timezone")
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns(updates),
	}).Create(user).Error
}

func (r *userRepository) SetSubscriptionTier(id string, tier authdomain.SubscriptionTier) error {
	return r.db.Model(&authdomain.User{}).Where("id = ?", id).
		Updates(map[string]interface{}{"subscription_tier": tier, "updated_at": time.Now()}).Error
}
