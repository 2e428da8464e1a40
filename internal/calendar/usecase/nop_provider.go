package usecase

import (
	"context"

	"github.com/steventyyeh/kailendar-v2/internal/calendar/domain"

	"golang.org/x/oauth2"
)

// nopProvider stands in when no OAuth client is configured.
type nopProvider struct{}

// NewNopProvider returns a provider whose operations fail with domain.ErrNotConfigured.
func NewNopProvider() domain.Provider {
	return nopProvider{}
}

func (nopProvider) AuthURL(state string) string { return "" }

func (nopProvider) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	return nil, domain.ErrNotConfigured
}

func (nopProvider) Revoke(ctx context.Context, token string) error {
	return domain.ErrNotConfigured
}

func (nopProvider) Client(ctx context.Context, token *oauth2.Token, calendarID string, onRefresh func(*oauth2.Token) error) (domain.EventClient, error) {
	return nil, domain.ErrNotConfigured
}
