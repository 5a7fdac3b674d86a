package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"calendar-service/internal/models"
	"calendar-service/pkg/response"

	"github.com/google/uuid"
)

// Storage is an in-memory store with the same contract as the Postgres
// adapter. Used by tests and local runs without a database.
type Storage struct {
	mu sync.RWMutex

	calendars    map[string]models.Calendar
	events       map[string]models.CalendarEvent
	schedules    map[string]models.Schedule
	services     map[string]models.Service
	resources    map[string]map[string]models.ServiceResource
	reservations map[string]models.ServiceReservation
	jobs         map[string]int64
}

func New() *Storage {
	return &Storage{
		calendars:    make(map[string]models.Calendar),
		events:       make(map[string]models.CalendarEvent),
		schedules:    make(map[string]models.Schedule),
		services:     make(map[string]models.Service),
		resources:    make(map[string]map[string]models.ServiceResource),
		reservations: make(map[string]models.ServiceReservation),
		jobs:         make(map[string]int64),
	}
}

func (s *Storage) Close() error { return nil }

// #### calendars ####

func (s *Storage) CreateCalendar(_ context.Context, cal *models.Calendar) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calendars[cal.ID] = *cal
	return nil
}

func (s *Storage) GetCalendar(_ context.Context, id, accountID string) (*models.Calendar, error) {
	const op = "storage.memory.GetCalendar"

	s.mu.RLock()
	defer s.mu.RUnlock()

	cal, ok := s.calendars[id]
	if !ok || cal.AccountID != accountID {
		return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}
	return &cal, nil
}

func (s *Storage) ListCalendars(_ context.Context, userID, accountID string) ([]models.Calendar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var calendars []models.Calendar
	for _, cal := range s.calendars {
		if cal.UserID == userID && cal.AccountID == accountID {
			calendars = append(calendars, cal)
		}
	}
	sort.Slice(calendars, func(i, j int) bool { return calendars[i].ID < calendars[j].ID })
	return calendars, nil
}

func (s *Storage) DeleteCalendar(_ context.Context, id, accountID string) error {
	const op = "storage.memory.DeleteCalendar"

	s.mu.Lock()
	defer s.mu.Unlock()

	cal, ok := s.calendars[id]
	if !ok || cal.AccountID != accountID {
		return fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}
	delete(s.calendars, id)
	for evID, ev := range s.events {
		if ev.CalendarID == id {
			delete(s.events, evID)
		}
	}
	return nil
}

// #### events ####

func (s *Storage) CreateEvent(_ context.Context, ev *models.CalendarEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events[ev.ID] = *ev
	return nil
}

func (s *Storage) GetEvent(_ context.Context, id, accountID string) (*models.CalendarEvent, error) {
	const op = "storage.memory.GetEvent"

	s.mu.RLock()
	defer s.mu.RUnlock()

	ev, ok := s.events[id]
	if !ok || ev.AccountID != accountID {
		return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}
	return &ev, nil
}

func (s *Storage) UpdateEvent(_ context.Context, ev *models.CalendarEvent) error {
	const op = "storage.memory.UpdateEvent"

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.events[ev.ID]
	if !ok || existing.AccountID != ev.AccountID {
		return fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}
	s.events[ev.ID] = *ev
	return nil
}

func (s *Storage) DeleteEvent(_ context.Context, id, accountID string) error {
	const op = "storage.memory.DeleteEvent"

	s.mu.Lock()
	defer s.mu.Unlock()

	ev, ok := s.events[id]
	if !ok || ev.AccountID != accountID {
		return fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}
	delete(s.events, id)
	return nil
}

func (s *Storage) ListEventsByCalendar(_ context.Context, calendarID string, span *models.TimeSpan) ([]models.CalendarEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var events []models.CalendarEvent
	for _, ev := range s.events {
		if ev.CalendarID != calendarID {
			continue
		}
		if span != nil && (ev.StartTs >= span.EndTs || ev.EndTs <= span.StartTs) {
			continue
		}
		events = append(events, ev)
	}
	sort.Slice(events, func(i, j int) bool { return events[i].StartTs < events[j].StartTs })
	return events, nil
}

func (s *Storage) ListEventsByService(_ context.Context, serviceID string, minTs, maxTs int64) ([]models.CalendarEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var events []models.CalendarEvent
	for _, ev := range s.events {
		if ev.ServiceID == serviceID && ev.StartTs >= minTs && ev.StartTs <= maxTs {
			events = append(events, ev)
		}
	}
	sort.Slice(events, func(i, j int) bool { return events[i].StartTs < events[j].StartTs })
	return events, nil
}

func (s *Storage) FindMostRecentServiceEvent(_ context.Context, serviceID, userID string) (*models.CalendarEvent, error) {
	const op = "storage.memory.FindMostRecentServiceEvent"

	s.mu.RLock()
	defer s.mu.RUnlock()

	var found *models.CalendarEvent
	for _, ev := range s.events {
		if ev.ServiceID != serviceID || ev.UserID != userID {
			continue
		}
		if found == nil || ev.Created > found.Created {
			ev := ev
			found = &ev
		}
	}
	if found == nil {
		return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}
	return found, nil
}

// #### schedules ####

func (s *Storage) CreateSchedule(_ context.Context, schedule *models.Schedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.schedules[schedule.ID] = *schedule
	return nil
}

func (s *Storage) GetSchedule(_ context.Context, id, accountID string) (*models.Schedule, error) {
	const op = "storage.memory.GetSchedule"

	s.mu.RLock()
	defer s.mu.RUnlock()

	schedule, ok := s.schedules[id]
	if !ok || schedule.AccountID != accountID {
		return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}
	return &schedule, nil
}

func (s *Storage) UpdateSchedule(_ context.Context, schedule *models.Schedule) error {
	const op = "storage.memory.UpdateSchedule"

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.schedules[schedule.ID]
	if !ok || existing.AccountID != schedule.AccountID {
		return fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}
	s.schedules[schedule.ID] = *schedule
	return nil
}

func (s *Storage) DeleteSchedule(_ context.Context, id, accountID string) error {
	const op = "storage.memory.DeleteSchedule"

	s.mu.Lock()
	defer s.mu.Unlock()

	schedule, ok := s.schedules[id]
	if !ok || schedule.AccountID != accountID {
		return fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}
	delete(s.schedules, id)
	return nil
}

// #### services ####

func (s *Storage) CreateService(_ context.Context, service *models.Service) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *service
	stored.Users = nil
	s.services[service.ID] = stored
	return nil
}

func (s *Storage) GetService(_ context.Context, id, accountID string) (*models.Service, error) {
	const op = "storage.memory.GetService"

	s.mu.RLock()
	defer s.mu.RUnlock()

	service, ok := s.services[id]
	if !ok || service.AccountID != accountID {
		return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}

	service.Users = nil
	for _, resource := range s.resources[id] {
		service.Users = append(service.Users, resource)
	}
	sort.Slice(service.Users, func(i, j int) bool { return service.Users[i].UserID < service.Users[j].UserID })

	return &service, nil
}

func (s *Storage) DeleteService(_ context.Context, id, accountID string) error {
	const op = "storage.memory.DeleteService"

	s.mu.Lock()
	defer s.mu.Unlock()

	service, ok := s.services[id]
	if !ok || service.AccountID != accountID {
		return fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}
	delete(s.services, id)
	delete(s.resources, id)
	for resID, res := range s.reservations {
		if res.ServiceID == id {
			delete(s.reservations, resID)
		}
	}
	return nil
}

func (s *Storage) UpsertServiceResource(_ context.Context, resource *models.ServiceResource) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.resources[resource.ServiceID] == nil {
		s.resources[resource.ServiceID] = make(map[string]models.ServiceResource)
	}
	s.resources[resource.ServiceID][resource.UserID] = *resource
	return nil
}

func (s *Storage) RemoveServiceResource(_ context.Context, serviceID, userID string) error {
	const op = "storage.memory.RemoveServiceResource"

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.resources[serviceID][userID]; !ok {
		return fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}
	delete(s.resources[serviceID], userID)
	return nil
}

// #### reservations ####

// CreateReservation mirrors the Postgres insert-then-recheck under the
// store mutex: insert the hold, recount, back out on capacity overrun.
func (s *Storage) CreateReservation(_ context.Context, serviceID string, timestamp int64, maxCount int) (string, error) {
	const op = "storage.memory.CreateReservation"

	s.mu.Lock()
	defer s.mu.Unlock()

	reservation := models.ServiceReservation{
		ID:        uuid.NewString(),
		ServiceID: serviceID,
		Timestamp: timestamp,
	}
	s.reservations[reservation.ID] = reservation

	count := 0
	for _, res := range s.reservations {
		if res.ServiceID == serviceID && res.Timestamp == timestamp {
			count++
		}
	}
	if count > maxCount {
		delete(s.reservations, reservation.ID)
		return "", fmt.Errorf("%s: %w", op, response.ErrConflict)
	}

	return reservation.ID, nil
}

func (s *Storage) CountReservations(_ context.Context, serviceID string, timestamp int64) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, res := range s.reservations {
		if res.ServiceID == serviceID && res.Timestamp == timestamp {
			count++
		}
	}
	return count, nil
}

func (s *Storage) RemoveReservation(_ context.Context, serviceID string, timestamp int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, res := range s.reservations {
		if res.ServiceID == serviceID && res.Timestamp == timestamp {
			delete(s.reservations, id)
			return nil
		}
	}
	return nil
}

// #### reminder expansion continuations ####

func (s *Storage) UpsertExpansionJob(_ context.Context, eventID string, resumeAfterTs int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.jobs[eventID] = resumeAfterTs
	return nil
}

func (s *Storage) DeleteExpansionJobs(_ context.Context, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.jobs, eventID)
	return nil
}

// ExpansionJob reports the continuation marker recorded for an event, if
// any. Test helper; the sweep itself lives outside this service.
func (s *Storage) ExpansionJob(eventID string) (int64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ts, ok := s.jobs[eventID]
	return ts, ok
}
