package usecase

import (
	"context"
	"time"

	"github.com/steventyyeh/kailendar-v2/internal/calendar/domain"
	goaldomain "github.com/steventyyeh/kailendar-v2/internal/goal/domain"
	taskdomain "github.com/steventyyeh/kailendar-v2/internal/task/domain"
)

// ConnectionUsecase manages a user's calendar link.
type ConnectionUsecase interface {
	AuthURL(userID string) (string, error)
	// HandleCallback completes the OAuth flow for the user encoded in state.
	HandleCallback(ctx context.Context, state, code string) (*domain.ConnectionStatus, error)
	Connect(ctx context.Context, userID, code string) (*domain.ConnectionStatus, error)
	// Status re-verifies the stored connection by listing calendars.
	Status(ctx context.Context, userID string) (*domain.ConnectionStatus, error)
	// Disconnect revokes at the provider and drops local tokens even when revocation fails.
	Disconnect(ctx context.Context, userID string) error
	// ImportEvents lists the user's own events from a week ago to days ahead.
	ImportEvents(ctx context.Context, userID string, days int) ([]domain.ExternalEvent, error)
	FreeBusy(ctx context.Context, userID string, from, to time.Time) ([]domain.BusySlot, error)
	ClientFor(ctx context.Context, userID string) (domain.EventClient, error)
}

// ClientSource hands out authorized calendar clients.
type ClientSource interface {
	ClientFor(ctx context.Context, userID string) (domain.EventClient, error)
}

// Synchronizer mirrors tasks onto the calendar. The task store stays the system of record;
// nothing here writes to it.
type Synchronizer interface {
	// SyncTask creates or updates the task's event and returns its id.
	SyncTask(ctx context.Context, userID string, task *taskdomain.Task, goal *goaldomain.Goal) (string, error)
	// SyncTasks syncs a batch with per-task failure isolation.
	SyncTasks(ctx context.Context, userID string, tasks []*taskdomain.Task, goals map[string]*goaldomain.Goal) *SyncReport
	RemoveEvent(ctx context.Context, userID, eventID string) error
	// ApplyCompletion projects the task's completion flag onto its event title and color.
	ApplyCompletion(ctx context.Context, userID string, task *taskdomain.Task, goal *goaldomain.Goal) error
	// FetchEvents lists events in a range, deleted ones included.
	FetchEvents(ctx context.Context, userID string, from, to time.Time) ([]domain.ExternalEvent, error)
}

// SyncReport is the outcome of a batch sync keyed by task id.
type SyncReport struct {
	Synced map[string]string
	Failed map[string]error
}

func newSyncReport() *SyncReport {
	return &SyncReport{Synced: make(map[string]string), Failed: make(map[string]error)}
}

// EventIDs returns the synced event ids in no particular order.
func (r *SyncReport) EventIDs() []string {
	ids := make([]string, 0, len(r.Synced))
	for _, id := range r.Synced {
		ids = append(ids, id)
	}
	return ids
}
