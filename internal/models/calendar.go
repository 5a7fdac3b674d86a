package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var ErrInvalidCalendarSettings = errors.New("invalid calendar settings")

// CalendarSettings carry the week start (0=Monday .. 6=Sunday) and the IANA
// timezone used when expanding the calendar's events.
type CalendarSettings struct {
	WeekStart int    `json:"weekStart"`
	Timezone  string `json:"timezone"`
}

func (s CalendarSettings) Validate() error {
	if s.WeekStart < 0 || s.WeekStart > 6 {
		return fmt.Errorf("%w: week_start must be in [0,6], got %d", ErrInvalidCalendarSettings, s.WeekStart)
	}
	if _, err := time.LoadLocation(s.Timezone); err != nil {
		return fmt.Errorf("%w: unknown timezone %q", ErrInvalidCalendarSettings, s.Timezone)
	}
	return nil
}

func (s CalendarSettings) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown timezone %q", ErrInvalidCalendarSettings, s.Timezone)
	}
	return loc, nil
}

// Calendar owns its events: deleting a calendar cascades to delete them.
type Calendar struct {
	ID        string           `json:"id"`
	UserID    string           `json:"userId"`
	AccountID string           `json:"accountId"`
	Settings  CalendarSettings `json:"settings"`
}

func NewCalendar(userID, accountID string) Calendar {
	return Calendar{
		ID:        uuid.NewString(),
		UserID:    userID,
		AccountID: accountID,
		Settings: CalendarSettings{
			WeekStart: 0,
			Timezone:  "UTC",
		},
	}
}
