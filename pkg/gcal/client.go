package gcal

import (
	"context"
	"fmt"
	"time"

	"github.com/steventyyeh/kailendar-v2/internal/calendar/domain"

	"google.golang.org/api/calendar/v3"
)

// Client is a Google Calendar API client bound to one user and calendar.
type Client struct {
	srv        *calendar.Service
	calendarID string
}

func (c *Client) ListCalendars(ctx context.Context) ([]domain.CalendarSummary, error) {
	list, err := c.srv.CalendarList.List().Context(ctx).Do()
	if err != nil {
		return nil, mapError(err)
	}
	calendars := make([]domain.CalendarSummary, 0, len(list.Items))
	for _, item := range list.Items {
		calendars = append(calendars, domain.CalendarSummary{
			ID:       item.Id,
			Summary:  item.Summary,
			Primary:  item.Primary,
			TimeZone: item.TimeZone,
		})
	}
	return calendars, nil
}

func (c *Client) InsertEvent(ctx context.Context, ev *domain.EventPayload) (string, error) {
	created, err := c.srv.Events.Insert(c.calendarID, toEvent(ev)).Context(ctx).Do()
	if err != nil {
		return "", mapError(err)
	}
	return created.Id, nil
}

// PatchEvent updates an event in place. A deleted event is reported as domain.ErrEventGone,
// since the API still accepts patches to cancelled events.
func (c *Client) PatchEvent(ctx context.Context, eventID string, ev *domain.EventPayload) error {
	updated, err := c.srv.Events.Patch(c.calendarID, eventID, toEvent(ev)).Context(ctx).Do()
	if err != nil {
		if isGone(err) {
			return fmt.Errorf("%w: %s", domain.ErrEventGone, eventID)
		}
		return mapError(err)
	}
	if updated.Status == "cancelled" {
		return fmt.Errorf("%w: %s", domain.ErrEventGone, eventID)
	}
	return nil
}

func (c *Client) PatchAppearance(ctx context.Context, eventID, summary string, color domain.ColorID) error {
	patch := &calendar.Event{Summary: summary, ColorId: string(color)}
	if _, err := c.srv.Events.Patch(c.calendarID, eventID, patch).Context(ctx).Do(); err != nil {
		if isGone(err) {
			return fmt.Errorf("%w: %s", domain.ErrEventGone, eventID)
		}
		return mapError(err)
	}
	return nil
}

// DeleteEvent removes an event; an already deleted event is not an error.
func (c *Client) DeleteEvent(ctx context.Context, eventID string) error {
	err := c.srv.Events.Delete(c.calendarID, eventID).Context(ctx).Do()
	if err != nil && !isGone(err) {
		return mapError(err)
	}
	return nil
}

func (c *Client) ListEvents(ctx context.Context, from, to time.Time, showDeleted bool) ([]domain.ExternalEvent, error) {
	var events []domain.ExternalEvent
	call := c.srv.Events.List(c.calendarID).
		TimeMin(from.Format(time.RFC3339)).
		TimeMax(to.Format(time.RFC3339)).
		ShowDeleted(showDeleted).
		SingleEvents(true).
		MaxResults(250)

	err := call.Pages(ctx, func(page *calendar.Events) error {
		for _, item := range page.Items {
			events = append(events, fromEvent(item))
		}
		return nil
	})
	if err != nil {
		return nil, mapError(err)
	}
	return events, nil
}

func (c *Client) FreeBusy(ctx context.Context, from, to time.Time) ([]domain.BusySlot, error) {
	resp, err := c.srv.Freebusy.Query(&calendar.FreeBusyRequest{
		TimeMin: from.Format(time.RFC3339),
		TimeMax: to.Format(time.RFC3339),
		Items:   []*calendar.FreeBusyRequestItem{{Id: c.calendarID}},
	}).Context(ctx).Do()
	if err != nil {
		return nil, mapError(err)
	}

	var slots []domain.BusySlot
	for _, period := range resp.Calendars[c.calendarID].Busy {
		start, errS := time.Parse(time.RFC3339, period.Start)
		end, errE := time.Parse(time.RFC3339, period.End)
		if errS != nil || errE != nil {
			continue
		}
		slots = append(slots, domain.BusySlot{Start: start, End: end})
	}
	return slots, nil
}

func toEvent(ev *domain.EventPayload) *calendar.Event {
	out := &calendar.Event{
		Summary:     ev.Summary,
		Description: ev.Description,
		ColorId:     string(ev.ColorID),
		Start:       &calendar.EventDateTime{DateTime: ev.Start, TimeZone: ev.TimeZone},
		End:         &calendar.EventDateTime{DateTime: ev.End, TimeZone: ev.TimeZone},
		Reminders: &calendar.EventReminders{
			UseDefault:      false,
			ForceSendFields: []string{"UseDefault"},
		},
	}
	for _, r := range ev.Reminders {
		out.Reminders.Overrides = append(out.Reminders.Overrides, &calendar.EventReminder{Method: r.Method, Minutes: r.Minutes})
	}
	if ev.TaskID != "" {
		out.ExtendedProperties = &calendar.EventExtendedProperties{
			Private: map[string]string{TaskIDProperty: ev.TaskID},
		}
	}
	return out
}

func fromEvent(item *calendar.Event) domain.ExternalEvent {
	start, startRaw, allDay := parseEventTime(item.Start)
	end, endRaw, _ := parseEventTime(item.End)
	ev := domain.ExternalEvent{
		ID:          item.Id,
		Summary:     item.Summary,
		Description: item.Description,
		Status:      item.Status,
		Start:       start,
		End:         end,
		StartRaw:    startRaw,
		EndRaw:      endRaw,
		AllDay:      allDay,
		HTMLLink:    item.HtmlLink,
	}
	if item.ExtendedProperties != nil {
		ev.TaskID = item.ExtendedProperties.Private[TaskIDProperty]
	}
	return ev
}
