package gcal

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/steventyyeh/kailendar-v2/internal/calendar/domain"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// TaskIDProperty is the private extended property linking an event to its task.
const TaskIDProperty = "kailendar_task_id"

const defaultRevokeURL = "https://oauth2.googleapis.com/revoke"

// TokenUpdateFunc is called when the client refreshes the access token.
type TokenUpdateFunc func(*oauth2.Token) error

type Service struct {
	config      *oauth2.Config
	revokeURL   string
	apiEndpoint string
	httpClient  *http.Client
}

type notifyTokenSource struct {
	src      oauth2.TokenSource
	current  *oauth2.Token
	callback TokenUpdateFunc
}

func (s *notifyTokenSource) Token() (*oauth2.Token, error) {
	t, err := s.src.Token()
	if err != nil {
		return nil, err
	}
	if s.callback != nil && s.current.AccessToken != t.AccessToken {
		s.current = t
		if err := s.callback(t); err != nil {
			log.Printf("[GoogleCalendar] Failed to persist refreshed token: %v", err)
		}
	}
	return t, nil
}

func NewService(clientID, clientSecret, redirectURI string) *Service {
	return &Service{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURI,
			Endpoint:     google.Endpoint,
			Scopes:       []string{calendar.CalendarScope},
		},
		revokeURL:  defaultRevokeURL,
		httpClient: http.DefaultClient,
	}
}

// WithEndpoints points the service at alternative API, token and revoke URLs.
func (s *Service) WithEndpoints(apiEndpoint, tokenURL, revokeURL string) *Service {
	s.apiEndpoint = apiEndpoint
	if tokenURL != "" {
		s.config.Endpoint = oauth2.Endpoint{AuthURL: s.config.Endpoint.AuthURL, TokenURL: tokenURL}
	}
	if revokeURL != "" {
		s.revokeURL = revokeURL
	}
	return s
}

func (s *Service) AuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

func (s *Service) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := s.config.Exchange(ctx, code)
	if err != nil {
		return nil, mapError(err)
	}
	return token, nil
}

// Revoke invalidates a token at the provider.
func (s *Service) Revoke(ctx context.Context, token string) error {
	form := url.Values{"token": {token}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.revokeURL, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("revoke request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("revoke failed with status %d", resp.StatusCode)
	}
	return nil
}

// Client builds an authorized calendar client for one user.
func (s *Service) Client(ctx context.Context, token *oauth2.Token, calendarID string, onRefresh func(*oauth2.Token) error) (domain.EventClient, error) {
	wrapped := &notifyTokenSource{
		src:      s.config.TokenSource(ctx, token),
		current:  token,
		callback: onRefresh,
	}

	opts := []option.ClientOption{option.WithHTTPClient(oauth2.NewClient(ctx, wrapped))}
	if s.apiEndpoint != "" {
		opts = append(opts, option.WithEndpoint(s.apiEndpoint))
	}
	srv, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create Calendar service: %v", err)
	}
	if calendarID == "" {
		calendarID = domain.PrimaryCalendarID
	}
	return &Client{srv: srv, calendarID: calendarID}, nil
}

// mapError turns authorization failures into domain.ErrConnectionRevoked.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusUnauthorized {
		return fmt.Errorf("%w: %v", domain.ErrConnectionRevoked, err)
	}
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) && (retrieveErr.ErrorCode == "invalid_grant" || retrieveErr.Response != nil && retrieveErr.Response.StatusCode == http.StatusUnauthorized) {
		return fmt.Errorf("%w: %v", domain.ErrConnectionRevoked, err)
	}
	return err
}

func isGone(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && (apiErr.Code == http.StatusNotFound || apiErr.Code == http.StatusGone)
}

func parseEventTime(dt *calendar.EventDateTime) (time.Time, string, bool) {
	if dt == nil {
		return time.Time{}, "", false
	}
	if dt.DateTime != "" {
		t, _ := time.Parse(time.RFC3339, dt.DateTime)
		return t, dt.DateTime, false
	}
	loc := time.UTC
	if dt.TimeZone != "" {
		if l, err := time.LoadLocation(dt.TimeZone); err == nil {
			loc = l
		}
	}
	t, _ := time.ParseInLocation(time.DateOnly, dt.Date, loc)
	return t, dt.Date, true
}
