package service

import (
	"context"
	"fmt"
	"sync"

	"calendar-service/api"
	"calendar-service/internal/models"
)

// GetUserFreeBusy composes a user's free and busy timelines over the window
// from every calendar they own (optionally narrowed to calendarIDs).
// Calendars are expanded concurrently; any expansion error fails the whole
// query rather than silently shrinking the busy set.
func (s *Service) GetUserFreeBusy(ctx context.Context, userID, accountID string, startTs, endTs int64, calendarIDs []string) (*api.FreeBusyResponse, error) {
	const op = "service.GetUserFreeBusy"

	span, err := s.querySpan(op, startTs, endTs, s.eventInstancesQueryLimit)
	if err != nil {
		return nil, err
	}

	calendars, err := s.store.ListCalendars(ctx, userID, accountID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(calendarIDs) > 0 {
		wanted := make(map[string]struct{}, len(calendarIDs))
		for _, id := range calendarIDs {
			wanted[id] = struct{}{}
		}
		filtered := calendars[:0]
		for _, cal := range calendars {
			if _, ok := wanted[cal.ID]; ok {
				filtered = append(filtered, cal)
			}
		}
		calendars = filtered
	}

	results := make([][]models.EventInstance, len(calendars))
	errs := make([]error, len(calendars))

	var wg sync.WaitGroup
	for i, cal := range calendars {
		wg.Add(1)
		go func(i int, cal models.Calendar) {
			defer wg.Done()
			results[i], errs[i] = s.calendarInstances(ctx, cal, span)
		}(i, cal)
	}
	wg.Wait()

	var instances []models.EventInstance
	for i := range calendars {
		if errs[i] != nil {
			return nil, fmt.Errorf("%s: calendar %s: %w", op, calendars[i].ID, errs[i])
		}
		instances = append(instances, results[i]...)
	}

	fb := models.ComposeFreeBusy(instances)
	return &api.FreeBusyResponse{
		UserID: userID,
		Busy:   fb.Busy.Clamp(span).Instances(),
		Free:   fb.Free.Clamp(span).Instances(),
	}, nil
}

func (s *Service) calendarInstances(ctx context.Context, cal models.Calendar, span models.TimeSpan) ([]models.EventInstance, error) {
	events, err := s.store.ListEventsByCalendar(ctx, cal.ID, &span)
	if err != nil {
		return nil, err
	}

	var instances []models.EventInstance
	for i := range events {
		expanded, err := events[i].Expand(&span, &cal.Settings)
		if err != nil {
			return nil, fmt.Errorf("event %s: %w", events[i].ID, err)
		}
		instances = append(instances, expanded...)
	}
	return instances, nil
}
