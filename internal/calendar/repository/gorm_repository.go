package repository

import (
	"errors"
	"time"

	"github.com/steventyyeh/kailendar-v2/internal/calendar/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type gormConnectionRepository struct {
	db *gorm.DB
}

// NewGormConnectionRepository creates a new GORM-based ConnectionRepository
func NewGormConnectionRepository(db *gorm.DB) ConnectionRepository {
	return &gormConnectionRepository{db: db}
}

func (r *gormConnectionRepository) FindByUserID(userID string) (*domain.CalendarConnection, error) {
	var conn domain.CalendarConnection
	err := r.db.Where("user_id = ?", userID).First(&conn).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &conn, nil
}

func (r *gormConnectionRepository) Save(conn *domain.CalendarConnection) error {
	now := time.Now()
	if conn.ConnectedAt.IsZero() {
		conn.ConnectedAt = now
	}
	conn.UpdatedAt = now
	if conn.CalendarID == "" {
		conn.CalendarID = domain.PrimaryCalendarID
	}

	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"access_token", "refresh_token", "token_expiry", "calendar_id", "calendars", "connected_at", "updated_at"}),
	}).Create(conn).Error
}

func (r *gormConnectionRepository) UpdateTokens(userID, accessToken, refreshToken string, expiry time.Time) error {
	updates := map[string]interface{}{
		"access_token": accessToken,
		"token_expiry": expiry,
		"updated_at":   time.Now(),
	}
	// Refresh responses usually omit the refresh token; keep the stored one.
	if refreshToken != "" {
		updates["refresh_token"] = refreshToken
	}
	return r.db.Model(&domain.CalendarConnection{}).Where("user_id = ?", userID).Updates(updates).Error
}

func (r *gormConnectionRepository) UpdateCalendars(userID string, calendars []domain.CalendarSummary) error {
	return r.db.Model(&domain.CalendarConnection{}).Where("user_id = ?", userID).
		Select("calendars", "updated_at").
		Updates(&domain.CalendarConnection{Calendars: calendars, UpdatedAt: time.Now()}).Error
}

func (r *gormConnectionRepository) Delete(userID string) error {
	return r.db.Delete(&domain.CalendarConnection{}, "user_id = ?", userID).Error
}
