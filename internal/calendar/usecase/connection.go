package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/steventyyeh/kailendar-v2/internal/calendar/domain"
	"github.com/steventyyeh/kailendar-v2/internal/calendar/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

const (
	stateTTL       = 10 * time.Minute
	statePurpose   = "calendar_connect"
	importLookback = 7 * 24 * time.Hour
)

type connectionUsecase struct {
	repo        repository.ConnectionRepository
	provider    domain.Provider
	stateSecret []byte
	now         func() time.Time
}

// NewConnectionUsecase wires calendar connection management. A nil provider behaves as
// not configured.
func NewConnectionUsecase(repo repository.ConnectionRepository, provider domain.Provider, stateSecret string) ConnectionUsecase {
	if provider == nil {
		provider = NewNopProvider()
	}
	return &connectionUsecase{
		repo:        repo,
		provider:    provider,
		stateSecret: []byte(stateSecret),
		now:         time.Now,
	}
}

func (u *connectionUsecase) AuthURL(userID string) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"purpose": statePurpose,
		"exp":     u.now().Add(stateTTL).Unix(),
		"iat":     u.now().Unix(),
	}
	state, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(u.stateSecret)
	if err != nil {
		return "", err
	}
	url := u.provider.AuthURL(state)
	if url == "" {
		return "", domain.ErrNotConfigured
	}
	return url, nil
}

func (u *connectionUsecase) HandleCallback(ctx context.Context, state, code string) (*domain.ConnectionStatus, error) {
	token, err := jwt.Parse(state, func(token *jwt.Token) (interface{}, error) {
		return u.stateSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, domain.ErrInvalidState
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || claims["purpose"] != statePurpose {
		return nil, domain.ErrInvalidState
	}
	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return nil, domain.ErrInvalidState
	}
	return u.Connect(ctx, userID, code)
}

func (u *connectionUsecase) Connect(ctx context.Context, userID, code string) (*domain.ConnectionStatus, error) {
	token, err := u.provider.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	existing, err := u.repo.FindByUserID(userID)
	if err != nil {
		return nil, err
	}
	conn := &domain.CalendarConnection{
		UserID:       userID,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenExpiry:  token.Expiry,
		CalendarID:   domain.PrimaryCalendarID,
	}
	if existing != nil {
		if conn.RefreshToken == "" {
			conn.RefreshToken = existing.RefreshToken
		}
		conn.CalendarID = existing.TargetCalendar()
	}
	if conn.RefreshToken == "" {
		return nil, fmt.Errorf("%w: provider returned no refresh token", domain.ErrNotConnected)
	}
	if err := u.repo.Save(conn); err != nil {
		return nil, err
	}

	log.Printf("[CalendarConnection] Connected calendar for user %s", userID)
	return u.Status(ctx, userID)
}

func (u *connectionUsecase) Status(ctx context.Context, userID string) (*domain.ConnectionStatus, error) {
	conn, err := u.repo.FindByUserID(userID)
	if err != nil {
		return nil, err
	}
	if !conn.IsConnected() {
		return &domain.ConnectionStatus{Connected: false, Message: "Calendar not connected"}, nil
	}

	client, err := u.clientFor(ctx, conn)
	if err != nil {
		return nil, err
	}
	calendars, err := client.ListCalendars(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrConnectionRevoked) {
			log.Printf("[CalendarConnection] Connection for user %s was revoked: %v", userID, err)
			return &domain.ConnectionStatus{
				Connected:      false,
				NeedsReconnect: true,
				Message:        domain.ErrConnectionRevoked.Error(),
			}, nil
		}
		return nil, fmt.Errorf("failed to verify calendar connection: %w", err)
	}

	if err := u.repo.UpdateCalendars(userID, calendars); err != nil {
		log.Printf("[CalendarConnection] Failed to cache calendars for user %s: %v", userID, err)
	}
	return &domain.ConnectionStatus{
		Connected:  true,
		CalendarID: conn.TargetCalendar(),
		Calendars:  calendars,
	}, nil
}

func (u *connectionUsecase) Disconnect(ctx context.Context, userID string) error {
	conn, err := u.repo.FindByUserID(userID)
	if err != nil {
		return err
	}
	if conn == nil {
		return nil
	}

	token := conn.RefreshToken
	if token == "" {
		token = conn.AccessToken
	}
	if token != "" {
		if err := u.provider.Revoke(ctx, token); err != nil {
			log.Printf("[CalendarConnection] Failed to revoke token for user %s, continuing: %v", userID, err)
		}
	}
	return u.repo.Delete(userID)
}

func (u *connectionUsecase) ImportEvents(ctx context.Context, userID string, days int) ([]domain.ExternalEvent, error) {
	if days <= 0 {
		days = 30
	}
	client, err := u.ClientFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := u.now()
	events, err := client.ListEvents(ctx, now.Add(-importLookback), now.AddDate(0, 0, days), false)
	if err != nil {
		return nil, err
	}

	imported := make([]domain.ExternalEvent, 0, len(events))
	for _, ev := range events {
		if ev.TaskID != "" || ev.Cancelled() {
			continue
		}
		imported = append(imported, ev)
	}
	return imported, nil
}

func (u *connectionUsecase) FreeBusy(ctx context.Context, userID string, from, to time.Time) ([]domain.BusySlot, error) {
	if !to.After(from) {
		return nil, fmt.Errorf("invalid range: %s is not after %s", to.Format(time.RFC3339), from.Format(time.RFC3339))
	}
	client, err := u.ClientFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	return client.FreeBusy(ctx, from, to)
}

func (u *connectionUsecase) ClientFor(ctx context.Context, userID string) (domain.EventClient, error) {
	conn, err := u.repo.FindByUserID(userID)
	if err != nil {
		return nil, err
	}
	if !conn.IsConnected() {
		return nil, domain.ErrNotConnected
	}
	return u.clientFor(ctx, conn)
}

func (u *connectionUsecase) clientFor(ctx context.Context, conn *domain.CalendarConnection) (domain.EventClient, error) {
	userID := conn.UserID
	return u.provider.Client(ctx, conn.Token(), conn.TargetCalendar(), func(t *oauth2.Token) error {
		return u.repo.UpdateTokens(userID, t.AccessToken, t.RefreshToken, t.Expiry)
	})
}
