package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"calendar-service/api"
	"calendar-service/internal/models"
	"calendar-service/internal/providers"
	"calendar-service/pkg/response"
)

// GetUserBookingSlots discretizes one user's availability for a local
// calendar date into bookable slots. The user is bookable whenever no busy
// instance from their calendars covers the candidate slot.
func (s *Service) GetUserBookingSlots(ctx context.Context, userID, accountID string, q models.BookingSlotsQuery) (*api.UserBookingSlotsResponse, error) {
	const op = "service.GetUserBookingSlots"

	span, _, err := models.ValidateBookingSlotsQuery(q)
	if err != nil {
		return nil, badRequest(op, err)
	}
	if span.GreaterThan(s.bookingSlotsQueryLimit) {
		return nil, badRequest(op, fmt.Errorf("query window exceeds the %dms limit", s.bookingSlotsQueryLimit))
	}

	calendars, err := s.store.ListCalendars(ctx, userID, accountID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var busy []models.EventInstance
	for _, cal := range calendars {
		instances, err := s.calendarInstances(ctx, cal, span)
		if err != nil {
			return nil, fmt.Errorf("%s: calendar %s: %w", op, cal.ID, err)
		}
		for _, inst := range instances {
			if inst.Busy {
				busy = append(busy, inst)
			}
		}
	}

	free := models.NewTimeline(busy).Gaps(span)
	slots := models.GetBookingSlots(free, models.BookingSlotsOptions{
		StartTs:  span.StartTs,
		EndTs:    span.EndTs,
		Duration: q.Duration,
		Interval: q.Interval,
	})

	return &api.UserBookingSlotsResponse{Slots: slots}, nil
}

// GetServiceBookingSlots aggregates the bookable slots of every resource in
// the service for a local calendar date, grouped by date in the query
// timezone.
func (s *Service) GetServiceBookingSlots(ctx context.Context, serviceID, accountID string, q models.BookingSlotsQuery) (*api.BookingSlotsResponse, error) {
	const op = "service.GetServiceBookingSlots"

	span, loc, err := models.ValidateBookingSlotsQuery(q)
	if err != nil {
		return nil, badRequest(op, err)
	}
	if span.GreaterThan(s.bookingSlotsQueryLimit) {
		return nil, badRequest(op, fmt.Errorf("query window exceeds the %dms limit", s.bookingSlotsQueryLimit))
	}

	svc, err := s.store.GetService(ctx, serviceID, accountID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	slots, err := s.serviceSlots(ctx, svc, span, q.Duration, q.Interval)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &api.BookingSlotsResponse{Dates: models.GroupSlotsByDate(slots, loc)}, nil
}

// serviceSlots computes the service-level slots over the window. Resources
// are resolved concurrently; slots of a group service at capacity are
// dropped.
func (s *Service) serviceSlots(ctx context.Context, svc *models.Service, span models.TimeSpan, duration, interval int64) ([]models.ServiceBookingSlot, error) {
	usersFree := make([]models.UserFreeEvents, len(svc.Users))
	errs := make([]error, len(svc.Users))

	var wg sync.WaitGroup
	for i := range svc.Users {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			free, err := s.resourceFreeTimeline(ctx, &svc.Users[i], svc.AccountID, span)
			usersFree[i] = models.UserFreeEvents{UserID: svc.Users[i].UserID, FreeEvents: free}
			errs[i] = err
		}(i)
	}
	wg.Wait()

	for i := range errs {
		if errs[i] != nil {
			return nil, fmt.Errorf("resource %s: %w", svc.Users[i].UserID, errs[i])
		}
	}

	slots := models.GetServiceBookingSlots(usersFree, models.BookingSlotsOptions{
		StartTs:  span.StartTs,
		EndTs:    span.EndTs,
		Duration: duration,
		Interval: interval,
	})

	if svc.MultiPerson.Variant != models.MultiPersonGroup {
		return slots, nil
	}

	open := slots[:0]
	for _, slot := range slots {
		count, err := s.store.CountReservations(ctx, svc.ID, slot.Start)
		if err != nil {
			return nil, err
		}
		if count < svc.MultiPerson.MaxCount {
			open = append(open, slot)
		}
	}
	return open, nil
}

// resourceFreeTimeline resolves one resource's bookable timeline: its
// availability plan, minus its buffered busy instances, clamped to the
// closest/furthest booking bounds.
func (s *Service) resourceFreeTimeline(ctx context.Context, resource *models.ServiceResource, accountID string, span models.TimeSpan) (models.Timeline, error) {
	var (
		free models.Timeline
		busy []models.EventInstance
	)

	switch resource.Availability.Variant {
	case models.TimePlanCalendar:
		cal, err := s.store.GetCalendar(ctx, resource.Availability.ID, accountID)
		if err != nil {
			return models.Timeline{}, fmt.Errorf("availability calendar %s: %w", resource.Availability.ID, err)
		}
		instances, err := s.calendarInstances(ctx, *cal, span)
		if err != nil {
			return models.Timeline{}, fmt.Errorf("availability calendar %s: %w", cal.ID, err)
		}
		var freeInstances []models.EventInstance
		for _, inst := range instances {
			if inst.Busy {
				busy = append(busy, inst)
			} else {
				freeInstances = append(freeInstances, inst)
			}
		}
		free = models.NewTimeline(freeInstances)
	case models.TimePlanSchedule:
		schedule, err := s.store.GetSchedule(ctx, resource.Availability.ID, accountID)
		if err != nil {
			return models.Timeline{}, fmt.Errorf("availability schedule %s: %w", resource.Availability.ID, err)
		}
		free, err = schedule.FreeBusy(span)
		if err != nil {
			return models.Timeline{}, fmt.Errorf("availability schedule %s: %w", schedule.ID, err)
		}
	case models.TimePlanEmpty:
		return models.Timeline{}, nil
	default:
		return models.Timeline{}, fmt.Errorf("unknown availability variant %q", resource.Availability.Variant)
	}

	for _, busyCal := range resource.Busy {
		switch busyCal.Provider {
		case models.BusyCalendarLocal, "":
			cal, err := s.store.GetCalendar(ctx, busyCal.ID, accountID)
			if err != nil {
				return models.Timeline{}, fmt.Errorf("busy calendar %s: %w", busyCal.ID, err)
			}
			instances, err := s.calendarInstances(ctx, *cal, span)
			if err != nil {
				return models.Timeline{}, fmt.Errorf("busy calendar %s: %w", cal.ID, err)
			}
			for _, inst := range instances {
				if inst.Busy {
					busy = append(busy, inst)
				}
			}
		default:
			instances, err := s.providers.FreeBusy(ctx, busyCal.Provider, providers.FreeBusyQuery{
				CalendarIDs: []string{busyCal.ID},
				StartTs:     span.StartTs,
				EndTs:       span.EndTs,
			})
			if err != nil {
				return models.Timeline{}, fmt.Errorf("busy calendar %s: %w", busyCal.ID, err)
			}
			busy = append(busy, instances...)
		}
	}

	buffered := models.ApplyBuffers(busy, resource.BufferBefore, resource.BufferAfter)
	free = free.Subtract(models.NewTimeline(buffered))

	bookable, ok := models.ClampBookingWindow(span, s.now(), resource.ClosestBookingTime, resource.FurthestBookingTime)
	if !ok {
		return models.Timeline{}, nil
	}
	return free.Clamp(bookable), nil
}

// CreateBookingIntent reserves a slot on the service at the given timestamp
// and selects the hosting user. Concurrent intents for the same service and
// timestamp are serialized through a distributed lock; group services
// additionally count the hold against capacity inside the store so racing
// pods cannot overbook.
func (s *Service) CreateBookingIntent(ctx context.Context, serviceID string, req *api.BookingIntentRequest) (*api.BookingIntentResponse, error) {
	const op = "service.CreateBookingIntent"

	if !models.ValidateSlotsInterval(req.Interval) {
		return nil, badRequest(op, fmt.Errorf("%w: must be between 10 and 60 minutes, got %dms", models.ErrInvalidInterval, req.Interval))
	}
	if req.Duration < 1 {
		return nil, badRequest(op, fmt.Errorf("duration must be positive, got %d", req.Duration))
	}

	acquired, err := s.locker.LockSlot(ctx, serviceID, req.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !acquired {
		return nil, fmt.Errorf("%s: %w", op, response.ErrLocked)
	}
	defer func() { _ = s.locker.UnlockSlot(ctx, serviceID, req.Timestamp) }()

	svc, err := s.store.GetService(ctx, serviceID, req.AccountID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// Rebuild the slots over the two UTC days starting at the day that
	// contains the timestamp; a slot offered for a non-UTC local date can
	// run past UTC midnight. The intent is only valid if it lands exactly
	// on an open slot.
	dayStart := time.UnixMilli(req.Timestamp).UTC().Truncate(24 * time.Hour)
	span, err := models.NewTimeSpan(dayStart.UnixMilli(), dayStart.Add(48*time.Hour).UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	slots, err := s.serviceSlots(ctx, svc, span, req.Duration, req.Interval)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var eligible []string
	for _, slot := range slots {
		if slot.Start == req.Timestamp {
			eligible = slot.UserIDs
			break
		}
	}
	if len(eligible) == 0 {
		return nil, fmt.Errorf("%s: %w", op, response.ErrNotAvailable)
	}

	selected, err := s.selectHost(ctx, svc, eligible, req.HostUserID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	resp := &api.BookingIntentResponse{
		ServiceID:      serviceID,
		SelectedUserID: selected,
		Timestamp:      req.Timestamp,
		Duration:       req.Duration,
	}

	if svc.MultiPerson.Variant == models.MultiPersonGroup {
		reservationID, err := s.store.CreateReservation(ctx, serviceID, req.Timestamp, svc.MultiPerson.MaxCount)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		resp.ReservationID = reservationID
	}

	return resp, nil
}

// selectHost picks the hosting user among the members free at the slot,
// honoring an explicitly requested host or the service's round-robin
// policy.
func (s *Service) selectHost(ctx context.Context, svc *models.Service, eligible []string, hostUserID *string) (string, error) {
	if hostUserID != nil {
		if _, ok := svc.Resource(*hostUserID); !ok {
			return "", fmt.Errorf("host %s: %w", *hostUserID, response.ErrNotFound)
		}
		for _, userID := range eligible {
			if userID == *hostUserID {
				return userID, nil
			}
		}
		return "", fmt.Errorf("host %s: %w", *hostUserID, response.ErrNotAvailable)
	}

	if svc.MultiPerson.Variant != models.MultiPersonRoundRobin {
		return eligible[0], nil
	}

	switch svc.MultiPerson.Algorithm {
	case models.RoundRobinEqualDistribution:
		now := s.now()
		events, err := s.store.ListEventsByService(ctx, svc.ID, now, now+models.EqualDistributionHorizonMs)
		if err != nil {
			return "", err
		}
		selected, ok := models.RoundRobinEqualDistributionAssignment{
			Events:  events,
			UserIDs: eligible,
			Rand:    s.rnd,
		}.Assign()
		if !ok {
			return "", response.ErrNotAvailable
		}
		return selected, nil
	default:
		members := make([]models.RoundRobinMember, 0, len(eligible))
		for _, userID := range eligible {
			member := models.RoundRobinMember{UserID: userID}
			ev, err := s.store.FindMostRecentServiceEvent(ctx, svc.ID, userID)
			if err != nil && !errors.Is(err, response.ErrNotFound) {
				return "", err
			}
			if ev != nil {
				created := ev.Created
				member.LastAssigned = &created
			}
			members = append(members, member)
		}
		selected, ok := models.RoundRobinAvailabilityAssignment{
			Members: members,
			Rand:    s.rnd,
		}.Assign()
		if !ok {
			return "", response.ErrNotAvailable
		}
		return selected, nil
	}
}

// RemoveBookingIntent releases one capacity hold at the timestamp, e.g.
// when the client abandons the booking flow.
func (s *Service) RemoveBookingIntent(ctx context.Context, serviceID, accountID string, timestamp int64) error {
	const op = "service.RemoveBookingIntent"

	if _, err := s.store.GetService(ctx, serviceID, accountID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.store.RemoveReservation(ctx, serviceID, timestamp); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
