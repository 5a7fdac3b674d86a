package api

import "calendar-service/internal/models"

// Calendars

type CalendarRequest struct {
	UserID    string  `json:"user_id"`
	AccountID string  `json:"account_id"`
	WeekStart *int    `json:"week_start,omitempty"`
	Timezone  *string `json:"timezone,omitempty"`
}

type CalendarResponse struct {
	ID        string                  `json:"id"`
	UserID    string                  `json:"user_id"`
	AccountID string                  `json:"account_id"`
	Settings  models.CalendarSettings `json:"settings"`
}

// Events

type EventRequest struct {
	CalendarID string                        `json:"calendar_id"`
	UserID     string                        `json:"user_id"`
	AccountID  string                        `json:"account_id"`
	StartTs    int64                         `json:"startTs"`
	Duration   int64                         `json:"duration"`
	Busy       bool                          `json:"busy"`
	Recurrence *models.RRuleOptions          `json:"recurrence,omitempty"`
	Exdates    []int64                       `json:"exdates,omitempty"`
	Reminder   *models.CalendarEventReminder `json:"reminder,omitempty"`
	ServiceID  string                        `json:"service_id,omitempty"`
	Metadata   map[string]string             `json:"metadata,omitempty"`
}

type EventUpdateRequest struct {
	AccountID  string                        `json:"account_id"`
	StartTs    *int64                        `json:"startTs,omitempty"`
	Duration   *int64                        `json:"duration,omitempty"`
	Busy       *bool                         `json:"busy,omitempty"`
	Recurrence *models.RRuleOptions          `json:"recurrence,omitempty"`
	Exdates    []int64                       `json:"exdates,omitempty"`
	Reminder   *models.CalendarEventReminder `json:"reminder,omitempty"`
	Metadata   map[string]string             `json:"metadata,omitempty"`
}

type EventResponse struct {
	Event models.CalendarEvent `json:"event"`
}

type EventInstancesResponse struct {
	Event     models.CalendarEvent   `json:"event"`
	Instances []models.EventInstance `json:"instances"`
}

// Free/busy

type FreeBusyResponse struct {
	UserID string                 `json:"user_id"`
	Busy   []models.EventInstance `json:"busy"`
	Free   []models.EventInstance `json:"free"`
}

// Schedules

type ScheduleRequest struct {
	UserID    string                `json:"user_id"`
	AccountID string                `json:"account_id"`
	Timezone  string                `json:"timezone"`
	Rules     []models.ScheduleRule `json:"rules,omitempty"`
}

type ScheduleUpdateRequest struct {
	AccountID string                `json:"account_id"`
	Timezone  *string               `json:"timezone,omitempty"`
	Rules     []models.ScheduleRule `json:"rules,omitempty"`
}

type ScheduleResponse struct {
	Schedule models.Schedule `json:"schedule"`
}

// Services

type ServiceRequest struct {
	AccountID   string                    `json:"account_id"`
	MultiPerson models.ServiceMultiPerson `json:"multi_person"`
	Metadata    map[string]string         `json:"metadata,omitempty"`
}

type ServiceResponse struct {
	Service models.Service `json:"service"`
}

type ServiceResourceRequest struct {
	AccountID           string                `json:"account_id"`
	UserID              string                `json:"user_id"`
	Availability        models.TimePlan       `json:"availability"`
	Busy                []models.BusyCalendar `json:"busy,omitempty"`
	BufferBefore        *int64                `json:"buffer_before,omitempty"`
	BufferAfter         *int64                `json:"buffer_after,omitempty"`
	ClosestBookingTime  *int64                `json:"closest_booking_time,omitempty"`
	FurthestBookingTime *int64                `json:"furthest_booking_time,omitempty"`
}

// Booking slots

type BookingSlotsResponse struct {
	Dates []models.ServiceBookingSlotsDate `json:"dates"`
}

type UserBookingSlotsResponse struct {
	Slots []models.BookingSlot `json:"slots"`
}

// Booking intents

type BookingIntentRequest struct {
	AccountID  string  `json:"account_id"`
	HostUserID *string `json:"host_user_id,omitempty"`
	Timestamp  int64   `json:"timestamp"`
	Duration   int64   `json:"duration"`
	Interval   int64   `json:"interval"`
}

type BookingIntentResponse struct {
	ServiceID      string `json:"service_id"`
	SelectedUserID string `json:"selected_user_id"`
	Timestamp      int64  `json:"timestamp"`
	Duration       int64  `json:"duration"`
	ReservationID  string `json:"reservation_id,omitempty"`
}

type BookingIntentRemoveRequest struct {
	AccountID string `json:"account_id"`
	Timestamp int64  `json:"timestamp"`
}
