package service

import (
	"context"
	"fmt"

	"calendar-service/api"
	"calendar-service/internal/models"
)

func (s *Service) CreateEvent(ctx context.Context, req *api.EventRequest) (*api.EventResponse, error) {
	const op = "service.CreateEvent"

	cal, err := s.store.GetCalendar(ctx, req.CalendarID, req.AccountID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ev, err := models.NewCalendarEvent(req.CalendarID, req.UserID, req.AccountID, req.StartTs, req.Duration, req.Busy)
	if err != nil {
		return nil, badRequest(op, err)
	}
	ev.ServiceID = req.ServiceID
	ev.Metadata = req.Metadata
	if req.Reminder != nil {
		if !req.Reminder.Valid() {
			return nil, badRequest(op, fmt.Errorf("%w: reminder minutes_before out of range", models.ErrInvalidEvent))
		}
		ev.Reminder = req.Reminder
	}
	if req.Recurrence != nil {
		if err := ev.SetRecurrence(*req.Recurrence, &cal.Settings); err != nil {
			return nil, badRequest(op, err)
		}
		ev.Exdates = req.Exdates
	}

	if err := s.store.CreateEvent(ctx, ev); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.syncEventReminders(ctx, ev, &cal.Settings); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &api.EventResponse{Event: *ev}, nil
}

func (s *Service) GetEvent(ctx context.Context, id, accountID string) (*api.EventResponse, error) {
	const op = "service.GetEvent"

	ev, err := s.store.GetEvent(ctx, id, accountID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &api.EventResponse{Event: *ev}, nil
}

func (s *Service) UpdateEvent(ctx context.Context, id string, req *api.EventUpdateRequest) (*api.EventResponse, error) {
	const op = "service.UpdateEvent"

	ev, err := s.store.GetEvent(ctx, id, req.AccountID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	cal, err := s.store.GetCalendar(ctx, ev.CalendarID, req.AccountID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// Moving the anchor or swapping the rule re-keys every occurrence, so
	// exception dates recorded against the old series no longer apply.
	anchorChanged := false
	if req.StartTs != nil && *req.StartTs != ev.StartTs {
		ev.StartTs = *req.StartTs
		anchorChanged = true
	}
	if req.Duration != nil && *req.Duration != ev.Duration {
		if *req.Duration <= 0 {
			return nil, badRequest(op, fmt.Errorf("%w: duration must be positive, got %d", models.ErrInvalidEvent, *req.Duration))
		}
		ev.Duration = *req.Duration
	}
	if req.Busy != nil {
		ev.Busy = *req.Busy
	}
	if req.Recurrence != nil {
		if err := ev.SetRecurrence(*req.Recurrence, &cal.Settings); err != nil {
			return nil, badRequest(op, err)
		}
		anchorChanged = true
	}
	if anchorChanged {
		ev.Exdates = nil
	}
	if req.Exdates != nil {
		ev.Exdates = req.Exdates
	}
	if req.Reminder != nil {
		if !req.Reminder.Valid() {
			return nil, badRequest(op, fmt.Errorf("%w: reminder minutes_before out of range", models.ErrInvalidEvent))
		}
		ev.Reminder = req.Reminder
	}
	if req.Metadata != nil {
		ev.Metadata = req.Metadata
	}

	if err := ev.UpdateEndTs(&cal.Settings); err != nil {
		return nil, badRequest(op, err)
	}
	ev.Updated = s.now()

	if err := s.store.UpdateEvent(ctx, ev); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.syncEventReminders(ctx, ev, &cal.Settings); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &api.EventResponse{Event: *ev}, nil
}

func (s *Service) DeleteEvent(ctx context.Context, id, accountID string) error {
	const op = "service.DeleteEvent"

	if err := s.store.DeleteEvent(ctx, id, accountID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.store.DeleteExpansionJobs(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Service) GetEventInstances(ctx context.Context, id, accountID string, startTs, endTs int64) (*api.EventInstancesResponse, error) {
	const op = "service.GetEventInstances"

	span, err := s.querySpan(op, startTs, endTs, s.eventInstancesQueryLimit)
	if err != nil {
		return nil, err
	}

	ev, err := s.store.GetEvent(ctx, id, accountID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	cal, err := s.store.GetCalendar(ctx, ev.CalendarID, accountID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	instances, err := ev.Expand(&span, &cal.Settings)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &api.EventInstancesResponse{Event: *ev, Instances: instances}, nil
}

// syncEventReminders keeps the reminder expansion bookkeeping in step with
// the event. Long series leave a continuation marker so a background sweep
// can pick up where the bounded expansion stopped.
func (s *Service) syncEventReminders(ctx context.Context, ev *models.CalendarEvent, settings *models.CalendarSettings) error {
	if ev.Reminder == nil {
		return s.store.DeleteExpansionJobs(ctx, ev.ID)
	}

	_, resumeAfter, err := ev.ExpandForReminders(0, settings)
	if err != nil {
		return err
	}
	if resumeAfter == nil {
		return s.store.DeleteExpansionJobs(ctx, ev.ID)
	}
	return s.store.UpsertExpansionJob(ctx, ev.ID, *resumeAfter)
}
