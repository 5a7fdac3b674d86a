package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"calendar-service/api"
	"calendar-service/internal/lock"
	"calendar-service/internal/models"
	"calendar-service/internal/providers"
	"calendar-service/pkg/response"
)

type Service struct {
	store     Store
	locker    lock.Locker
	providers *providers.Registry

	now func() int64
	rnd *rand.Rand

	eventInstancesQueryLimit int64
	bookingSlotsQueryLimit   int64
}

// Limits bound query windows, in milliseconds of window duration.
type Limits struct {
	EventInstancesQueryLimit int64
	BookingSlotsQueryLimit   int64
}

func NewService(store Store, locker lock.Locker, registry *providers.Registry, limits Limits) *Service {
	return &Service{
		store:     store,
		locker:    locker,
		providers: registry,
		now:       func() int64 { return time.Now().UnixMilli() },
		rnd:       rand.New(rand.NewSource(time.Now().UnixNano())),

		eventInstancesQueryLimit: limits.EventInstancesQueryLimit,
		bookingSlotsQueryLimit:   limits.BookingSlotsQueryLimit,
	}
}

// WithClock fixes "now" for tests.
func (s *Service) WithClock(now func() int64) *Service {
	s.now = now
	return s
}

// WithRand fixes the round-robin tie-break source for tests.
func (s *Service) WithRand(rnd *rand.Rand) *Service {
	s.rnd = rnd
	return s
}

type Store interface {
	// Calendars
	CreateCalendar(ctx context.Context, cal *models.Calendar) error
	GetCalendar(ctx context.Context, id, accountID string) (*models.Calendar, error)
	ListCalendars(ctx context.Context, userID, accountID string) ([]models.Calendar, error)
	DeleteCalendar(ctx context.Context, id, accountID string) error

	// Events
	CreateEvent(ctx context.Context, ev *models.CalendarEvent) error
	GetEvent(ctx context.Context, id, accountID string) (*models.CalendarEvent, error)
	UpdateEvent(ctx context.Context, ev *models.CalendarEvent) error
	DeleteEvent(ctx context.Context, id, accountID string) error
	ListEventsByCalendar(ctx context.Context, calendarID string, span *models.TimeSpan) ([]models.CalendarEvent, error)
	ListEventsByService(ctx context.Context, serviceID string, minTs, maxTs int64) ([]models.CalendarEvent, error)
	FindMostRecentServiceEvent(ctx context.Context, serviceID, userID string) (*models.CalendarEvent, error)

	// Schedules
	CreateSchedule(ctx context.Context, schedule *models.Schedule) error
	GetSchedule(ctx context.Context, id, accountID string) (*models.Schedule, error)
	UpdateSchedule(ctx context.Context, schedule *models.Schedule) error
	DeleteSchedule(ctx context.Context, id, accountID string) error

	// Services
	CreateService(ctx context.Context, service *models.Service) error
	GetService(ctx context.Context, id, accountID string) (*models.Service, error)
	DeleteService(ctx context.Context, id, accountID string) error
	UpsertServiceResource(ctx context.Context, resource *models.ServiceResource) error
	RemoveServiceResource(ctx context.Context, serviceID, userID string) error

	// Reservations. CreateReservation inserts the hold and recounts in the
	// same transaction, returning response.ErrConflict on capacity overrun.
	CreateReservation(ctx context.Context, serviceID string, timestamp int64, maxCount int) (string, error)
	CountReservations(ctx context.Context, serviceID string, timestamp int64) (int, error)
	RemoveReservation(ctx context.Context, serviceID string, timestamp int64) error

	// Reminder expansion continuations
	UpsertExpansionJob(ctx context.Context, eventID string, resumeAfterTs int64) error
	DeleteExpansionJobs(ctx context.Context, eventID string) error
}

// badRequest tags a validation failure so handlers map it to 4xx while the
// message still names the offending field.
func badRequest(op string, err error) error {
	return fmt.Errorf("%s: %s: %w", op, err, response.ErrBadRequest)
}

func (s *Service) querySpan(op string, startTs, endTs, limitMs int64) (models.TimeSpan, error) {
	span, err := models.NewTimeSpan(startTs, endTs)
	if err != nil {
		return models.TimeSpan{}, badRequest(op, err)
	}
	if span.GreaterThan(limitMs) {
		return models.TimeSpan{}, badRequest(op, fmt.Errorf("query window exceeds the %dms limit", limitMs))
	}
	return span, nil
}

// Calendars

func (s *Service) CreateCalendar(ctx context.Context, req *api.CalendarRequest) (*api.CalendarResponse, error) {
	const op = "service.CreateCalendar"

	cal := models.NewCalendar(req.UserID, req.AccountID)
	if req.WeekStart != nil {
		cal.Settings.WeekStart = *req.WeekStart
	}
	if req.Timezone != nil {
		cal.Settings.Timezone = *req.Timezone
	}
	if err := cal.Settings.Validate(); err != nil {
		return nil, badRequest(op, err)
	}

	if err := s.store.CreateCalendar(ctx, &cal); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return calendarResponse(&cal), nil
}

func (s *Service) GetCalendar(ctx context.Context, id, accountID string) (*api.CalendarResponse, error) {
	const op = "service.GetCalendar"

	cal, err := s.store.GetCalendar(ctx, id, accountID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return calendarResponse(cal), nil
}

func (s *Service) DeleteCalendar(ctx context.Context, id, accountID string) error {
	const op = "service.DeleteCalendar"

	if err := s.store.DeleteCalendar(ctx, id, accountID); err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func calendarResponse(cal *models.Calendar) *api.CalendarResponse {
	return &api.CalendarResponse{
		ID:        cal.ID,
		UserID:    cal.UserID,
		AccountID: cal.AccountID,
		Settings:  cal.Settings,
	}
}
