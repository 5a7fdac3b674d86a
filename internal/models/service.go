package models

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var ErrInvalidServiceResource = errors.New("invalid service resource")

type TimePlanVariant string

const (
	TimePlanCalendar TimePlanVariant = "calendar"
	TimePlanSchedule TimePlanVariant = "schedule"
	TimePlanEmpty    TimePlanVariant = "empty"
)

// TimePlan points at a resource's availability source: a calendar with
// concrete events, a schedule template, or nothing.
type TimePlan struct {
	Variant TimePlanVariant `json:"variant"`
	ID      string          `json:"id,omitempty"`
}

type BusyCalendarProvider string

const (
	BusyCalendarLocal   BusyCalendarProvider = "local"
	BusyCalendarGoogle  BusyCalendarProvider = "google"
	BusyCalendarOutlook BusyCalendarProvider = "outlook"
)

// BusyCalendar identifies an additional busy source subtracted from a
// resource's availability, either one of our calendars or an external
// provider's.
type BusyCalendar struct {
	Provider BusyCalendarProvider `json:"provider"`
	ID       string               `json:"id"`
}

const (
	minBufferMinutes = 0
	maxBufferMinutes = 60 * 12
)

// ServiceResource binds a user to a service together with the booking
// policy applied to that user. It is a relation entity keyed by
// (service_id, user_id).
type ServiceResource struct {
	UserID       string         `json:"userId"`
	ServiceID    string         `json:"serviceId"`
	Availability TimePlan       `json:"availability"`
	Busy         []BusyCalendar `json:"busy,omitempty"`
	// Minutes of enforced gap before and after existing busy meetings.
	BufferBefore int64 `json:"bufferBefore"`
	BufferAfter  int64 `json:"bufferAfter"`
	// Minutes from "now" bounding how soon and how far out a slot may start.
	ClosestBookingTime  int64  `json:"closestBookingTime"`
	FurthestBookingTime *int64 `json:"furthestBookingTime,omitempty"`
}

func NewServiceResource(userID, serviceID string, availability TimePlan, busy []BusyCalendar) ServiceResource {
	return ServiceResource{
		UserID:       userID,
		ServiceID:    serviceID,
		Availability: availability,
		Busy:         busy,
	}
}

func validBuffer(minutes int64) bool {
	return minutes >= minBufferMinutes && minutes <= maxBufferMinutes
}

func (r *ServiceResource) SetBufferBefore(minutes int64) error {
	if !validBuffer(minutes) {
		return fmt.Errorf("%w: buffer_before must be in [0,%d] minutes, got %d", ErrInvalidServiceResource, maxBufferMinutes, minutes)
	}
	r.BufferBefore = minutes
	return nil
}

func (r *ServiceResource) SetBufferAfter(minutes int64) error {
	if !validBuffer(minutes) {
		return fmt.Errorf("%w: buffer_after must be in [0,%d] minutes, got %d", ErrInvalidServiceResource, maxBufferMinutes, minutes)
	}
	r.BufferAfter = minutes
	return nil
}

func (r *ServiceResource) ScheduleID() (string, bool) {
	if r.Availability.Variant == TimePlanSchedule {
		return r.Availability.ID, true
	}
	return "", false
}

type MultiPersonVariant string

const (
	MultiPersonSingle     MultiPersonVariant = "single"
	MultiPersonGroup      MultiPersonVariant = "group"
	MultiPersonRoundRobin MultiPersonVariant = "roundRobin"
)

// ServiceMultiPerson is the booking policy of a service: a single host, a
// group with bounded concurrent capacity, or round-robin host selection.
type ServiceMultiPerson struct {
	Variant   MultiPersonVariant  `json:"variant"`
	MaxCount  int                 `json:"maxCount,omitempty"`
	Algorithm RoundRobinAlgorithm `json:"algorithm,omitempty"`
}

// Service is a bookable resource backed by one or more users.
type Service struct {
	ID          string             `json:"id"`
	AccountID   string             `json:"accountId"`
	MultiPerson ServiceMultiPerson `json:"multiPerson"`
	Users       []ServiceResource  `json:"users"`
	Metadata    map[string]string  `json:"metadata,omitempty"`
}

func NewService(accountID string, multiPerson ServiceMultiPerson) Service {
	if multiPerson.Variant == "" {
		multiPerson.Variant = MultiPersonSingle
	}
	if multiPerson.Variant == MultiPersonRoundRobin && multiPerson.Algorithm == "" {
		multiPerson.Algorithm = RoundRobinAvailability
	}
	return Service{
		ID:          uuid.NewString(),
		AccountID:   accountID,
		MultiPerson: multiPerson,
	}
}

func (s *Service) Resource(userID string) (*ServiceResource, bool) {
	for i := range s.Users {
		if s.Users[i].UserID == userID {
			return &s.Users[i], true
		}
	}
	return nil, false
}

// ServiceReservation records a booking-intent hold counted against a group
// service's capacity before the confirmed event exists.
type ServiceReservation struct {
	ID        string `json:"id"`
	ServiceID string `json:"serviceId"`
	Timestamp int64  `json:"timestamp"`
}
