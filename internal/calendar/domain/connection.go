package domain

import (
	"errors"
	"time"

	"golang.org/x/oauth2"
)

var (
	ErrNotConnected      = errors.New("calendar not connected")
	ErrNotConfigured     = errors.New("calendar integration not configured")
	ErrConnectionRevoked = errors.New("calendar access was revoked, please reconnect")
	ErrEventGone         = errors.New("calendar event no longer exists")
	ErrInvalidState      = errors.New("invalid or expired calendar connect state")
)

// PrimaryCalendarID addresses the user's default calendar.
const PrimaryCalendarID = "primary"

// CalendarConnection is the per-user OAuth token pair. A connection without a refresh
// token is treated as not connected.
type CalendarConnection struct {
	UserID       string            `json:"userId" gorm:"primaryKey"`
	AccessToken  string            `json:"-"`
	RefreshToken string            `json:"-"`
	TokenExpiry  time.Time         `json:"tokenExpiry"`
	CalendarID   string            `json:"calendarId" gorm:"default:primary"`
	Calendars    []CalendarSummary `json:"calendars" gorm:"serializer:json"`
	ConnectedAt  time.Time         `json:"connectedAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
}

type CalendarSummary struct {
	ID       string `json:"id"`
	Summary  string `json:"summary"`
	Primary  bool   `json:"primary"`
	TimeZone string `json:"timeZone,omitempty"`
}

// IsConnected reports whether the stored credentials can be refreshed.
func (c *CalendarConnection) IsConnected() bool {
	return c != nil && c.RefreshToken != ""
}

// Token rebuilds the OAuth token from the stored pair.
func (c *CalendarConnection) Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  c.AccessToken,
		RefreshToken: c.RefreshToken,
		TokenType:    "Bearer",
		Expiry:       c.TokenExpiry,
	}
}

// TargetCalendar returns the calendar events are written to.
func (c *CalendarConnection) TargetCalendar() string {
	if c.CalendarID == "" {
		return PrimaryCalendarID
	}
	return c.CalendarID
}

// ConnectionStatus is what the user sees about their calendar link.
type ConnectionStatus struct {
	Connected      bool              `json:"connected"`
	NeedsReconnect bool              `json:"needsReconnect"`
	Message        string            `json:"message,omitempty"`
	CalendarID     string            `json:"calendarId,omitempty"`
	Calendars      []CalendarSummary `json:"calendars,omitempty"`
}
