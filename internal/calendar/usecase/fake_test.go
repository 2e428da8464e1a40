package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/steventyyeh/kailendar-v2/internal/calendar/domain"

	"golang.org/x/oauth2"
)

// memoryCalendar is an in-memory EventClient.
type memoryCalendar struct {
	mu          sync.Mutex
	events      map[string]*domain.EventPayload
	cancelled   map[string]bool
	nextID      int
	inserts     int
	patches     int
	failInsert  map[string]error // by summary
	failPatch   error
	failDelete  error
	listErr     error
	calendars   []domain.CalendarSummary
	appearances map[string]domain.ColorID
	external    []domain.ExternalEvent
}

func newMemoryCalendar() *memoryCalendar {
	return &memoryCalendar{
		events:      make(map[string]*domain.EventPayload),
		cancelled:   make(map[string]bool),
		failInsert:  make(map[string]error),
		appearances: make(map[string]domain.ColorID),
		calendars:   []domain.CalendarSummary{{ID: "primary", Summary: "Me", Primary: true}},
	}
}

func (m *memoryCalendar) ListCalendars(ctx context.Context) ([]domain.CalendarSummary, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.calendars, nil
}

func (m *memoryCalendar) InsertEvent(ctx context.Context, ev *domain.EventPayload) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failInsert[ev.Summary]; err != nil {
		return "", err
	}
	m.nextID++
	m.inserts++
	id := fmt.Sprintf("evt-%d", m.nextID)
	copied := *ev
	m.events[id] = &copied
	return id, nil
}

func (m *memoryCalendar) PatchEvent(ctx context.Context, eventID string, ev *domain.EventPayload) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failPatch != nil {
		return m.failPatch
	}
	if _, ok := m.events[eventID]; !ok || m.cancelled[eventID] {
		return fmt.Errorf("%w: %s", domain.ErrEventGone, eventID)
	}
	m.patches++
	copied := *ev
	m.events[eventID] = &copied
	return nil
}

func (m *memoryCalendar) PatchAppearance(ctx context.Context, eventID, summary string, color domain.ColorID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failPatch != nil {
		return m.failPatch
	}
	ev, ok := m.events[eventID]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrEventGone, eventID)
	}
	ev.Summary = summary
	ev.ColorID = color
	m.appearances[eventID] = color
	return nil
}

func (m *memoryCalendar) DeleteEvent(ctx context.Context, eventID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failDelete != nil {
		return m.failDelete
	}
	delete(m.events, eventID)
	return nil
}

func (m *memoryCalendar) ListEvents(ctx context.Context, from, to time.Time, showDeleted bool) ([]domain.ExternalEvent, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.external, nil
}

func (m *memoryCalendar) FreeBusy(ctx context.Context, from, to time.Time) ([]domain.BusySlot, error) {
	return []domain.BusySlot{{Start: from, End: from.Add(time.Hour)}}, nil
}

// staticClients hands out the same client, or an error, for every user.
type staticClients struct {
	client domain.EventClient
	err    error
}

func (s staticClients) ClientFor(ctx context.Context, userID string) (domain.EventClient, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.client, nil
}

// fakeProvider records OAuth calls and returns a fixed client.
type fakeProvider struct {
	token     *oauth2.Token
	client    domain.EventClient
	revokeErr error
	revoked   []string
	refresh   *oauth2.Token
}

func (p *fakeProvider) AuthURL(state string) string {
	return "https://accounts.example.com/auth?state=" + state
}

func (p *fakeProvider) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	if code == "bad" {
		return nil, errors.New("invalid code")
	}
	return p.token, nil
}

func (p *fakeProvider) Revoke(ctx context.Context, token string) error {
	p.revoked = append(p.revoked, token)
	return p.revokeErr
}

func (p *fakeProvider) Client(ctx context.Context, token *oauth2.Token, calendarID string, onRefresh func(*oauth2.Token) error) (domain.EventClient, error) {
	if p.refresh != nil && onRefresh != nil {
		if err := onRefresh(p.refresh); err != nil {
			return nil, err
		}
	}
	return p.client, nil
}
