package models

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

var (
	ErrInvalidInterval = errors.New("invalid interval")
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidTimezone = errors.New("invalid timezone")
)

const (
	minSlotsInterval = int64(10 * 60 * 1000)
	maxSlotsInterval = int64(60 * 60 * 1000)
)

// BookingSlot is one discrete bookable start. AvailableUntil is the end of
// the free interval the slot sits in.
type BookingSlot struct {
	Start          int64 `json:"start"`
	Duration       int64 `json:"duration"`
	AvailableUntil int64 `json:"availableUntil"`
}

type BookingSlotsOptions struct {
	StartTs  int64
	EndTs    int64
	Duration int64
	Interval int64
}

// GetBookingSlots discretizes a free timeline into fixed-size slots on the
// interval grid anchored at StartTs. A candidate is a slot iff its whole
// [t, t+duration) lies inside one free interval.
func GetBookingSlots(free Timeline, opts BookingSlotsOptions) []BookingSlot {
	if opts.Duration < 1 || opts.Interval < 1 {
		return nil
	}

	var slots []BookingSlot
	for cursor := opts.StartTs; cursor+opts.Duration <= opts.EndTs; cursor += opts.Interval {
		for _, inst := range free.Instances() {
			if inst.StartTs <= cursor && inst.EndTs >= cursor+opts.Duration {
				slots = append(slots, BookingSlot{
					Start:          cursor,
					Duration:       opts.Duration,
					AvailableUntil: inst.EndTs,
				})
				break
			}
		}
	}

	return slots
}

// UserFreeEvents is one service member's bookable free timeline.
type UserFreeEvents struct {
	UserID     string
	FreeEvents Timeline
}

// ServiceBookingSlot is a service-level slot with every member who is
// individually free at that start.
type ServiceBookingSlot struct {
	Start    int64    `json:"start"`
	Duration int64    `json:"duration"`
	UserIDs  []string `json:"userIds"`
}

// GetServiceBookingSlots aggregates per-member booking slots into
// service-level slots ordered by start. Member ids keep the order of
// usersFree, so the result is deterministic for a fixed input ordering.
func GetServiceBookingSlots(usersFree []UserFreeEvents, opts BookingSlotsOptions) []ServiceBookingSlot {
	lookup := make(map[int64]*ServiceBookingSlot)

	for _, user := range usersFree {
		for _, slot := range GetBookingSlots(user.FreeEvents, opts) {
			if existing, ok := lookup[slot.Start]; ok {
				existing.UserIDs = append(existing.UserIDs, user.UserID)
				continue
			}
			lookup[slot.Start] = &ServiceBookingSlot{
				Start:    slot.Start,
				Duration: slot.Duration,
				UserIDs:  []string{user.UserID},
			}
		}
	}

	slots := make([]ServiceBookingSlot, 0, len(lookup))
	for _, slot := range lookup {
		slots = append(slots, *slot)
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].Start < slots[j].Start })

	return slots
}

// ServiceBookingSlotsDate groups a run of slots falling on the same local
// calendar date.
type ServiceBookingSlotsDate struct {
	Date  string               `json:"date"`
	Slots []ServiceBookingSlot `json:"slots"`
}

// GroupSlotsByDate splits ordered slots into per-date groups in the query
// timezone.
func GroupSlotsByDate(slots []ServiceBookingSlot, loc *time.Location) []ServiceBookingSlotsDate {
	var dates []ServiceBookingSlotsDate
	for _, slot := range slots {
		date := time.UnixMilli(slot.Start).In(loc).Format("2006-01-02")
		if len(dates) == 0 || dates[len(dates)-1].Date != date {
			dates = append(dates, ServiceBookingSlotsDate{Date: date})
		}
		last := &dates[len(dates)-1]
		last.Slots = append(last.Slots, slot)
	}
	return dates
}

// ValidateSlotsInterval bounds the grid granularity to 10-60 minutes,
// specified in milliseconds.
func ValidateSlotsInterval(interval int64) bool {
	return interval >= minSlotsInterval && interval <= maxSlotsInterval
}

// BookingSlotsQuery is a booking-slots request addressed by local calendar
// date and IANA timezone rather than raw timestamps.
type BookingSlotsQuery struct {
	Date     string
	Timezone string
	Duration int64
	Interval int64
}

// ValidateBookingSlotsQuery resolves the query to the UTC-ms day window
// [local midnight, next local midnight) in the query timezone. Day bounds
// are computed in the timezone itself, so a DST transition day is 23 or 25
// hours long rather than a naive 24.
func ValidateBookingSlotsQuery(q BookingSlotsQuery) (TimeSpan, *time.Location, error) {
	if !ValidateSlotsInterval(q.Interval) {
		return TimeSpan{}, nil, fmt.Errorf("%w: must be between 10 and 60 minutes, got %dms", ErrInvalidInterval, q.Interval)
	}

	tzName := q.Timezone
	if tzName == "" {
		tzName = "UTC"
	}
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return TimeSpan{}, nil, fmt.Errorf("%w: %q is not a valid IANA timezone", ErrInvalidTimezone, q.Timezone)
	}

	day, err := time.ParseInLocation("2006-01-02", q.Date, loc)
	if err != nil {
		return TimeSpan{}, nil, fmt.Errorf("%w: %q should be YYYY-MM-DD", ErrInvalidDate, q.Date)
	}

	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
	end := start.AddDate(0, 0, 1)

	span, err := NewTimeSpan(start.UnixMilli(), end.UnixMilli())
	if err != nil {
		return TimeSpan{}, nil, err
	}
	return span, loc, nil
}

// ApplyBuffers widens each busy instance by the resource's buffers: the
// before-buffer is subtracted from the start and the after-buffer added to
// the end, shrinking availability around existing meetings.
func ApplyBuffers(busy []EventInstance, bufferBeforeMin, bufferAfterMin int64) []EventInstance {
	if bufferBeforeMin == 0 && bufferAfterMin == 0 {
		return busy
	}

	buffered := make([]EventInstance, len(busy))
	for i, inst := range busy {
		inst.StartTs -= bufferBeforeMin * 60 * 1000
		inst.EndTs += bufferAfterMin * 60 * 1000
		buffered[i] = inst
	}
	return buffered
}

// ClampBookingWindow narrows the query window to what the resource's
// closest/furthest booking times allow relative to now. Returns false when
// nothing of the window remains bookable.
func ClampBookingWindow(span TimeSpan, now int64, closestMin int64, furthestMin *int64) (TimeSpan, bool) {
	firstAvailable := now + closestMin*60*1000
	if span.StartTs < firstAvailable {
		if firstAvailable >= span.EndTs {
			return TimeSpan{}, false
		}
		span.StartTs = firstAvailable
	}

	if furthestMin != nil {
		lastAvailable := now + *furthestMin*60*1000
		if lastAvailable < span.EndTs {
			if lastAvailable <= span.StartTs {
				return TimeSpan{}, false
			}
			span.EndTs = lastAvailable
		}
	}

	return span, true
}
