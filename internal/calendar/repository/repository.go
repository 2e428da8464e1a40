package repository

import (
	"time"

	"github.com/steventyyeh/kailendar-v2/internal/calendar/domain"
)

// ConnectionRepository stores per-user calendar credentials.
type ConnectionRepository interface {
	FindByUserID(userID string) (*domain.CalendarConnection, error)
	Save(conn *domain.CalendarConnection) error
	UpdateTokens(userID, accessToken, refreshToken string, expiry time.Time) error
	UpdateCalendars(userID string, calendars []domain.CalendarSummary) error
	Delete(userID string) error
}
