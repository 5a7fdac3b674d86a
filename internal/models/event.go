package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var ErrInvalidEvent = errors.New("invalid event")

// MaxEventTimestamp is the end timestamp recorded for recurring events
// whose rule never terminates.
const MaxEventTimestamp = int64(5609882500905)

// maxUnboundedOccurrences caps expansion of rules without count/until when
// no query window bounds the iteration. The reminder sweep resumes past
// this cap via a continuation marker.
const maxUnboundedOccurrences = 100

type CalendarEventReminder struct {
	MinutesBefore int64 `json:"minutesBefore"`
}

func (r CalendarEventReminder) Valid() bool {
	return r.MinutesBefore >= 0 && r.MinutesBefore <= 60*24
}

// CalendarEvent is owned by a calendar and expands to concrete instances
// through its optional recurrence rule.
type CalendarEvent struct {
	ID         string                 `json:"id"`
	CalendarID string                 `json:"calendarId"`
	UserID     string                 `json:"userId"`
	AccountID  string                 `json:"accountId"`
	StartTs    int64                  `json:"startTs"`
	Duration   int64                  `json:"duration"`
	EndTs      int64                  `json:"endTs"`
	Busy       bool                   `json:"busy"`
	Created    int64                  `json:"created"`
	Updated    int64                  `json:"updated"`
	Recurrence *RRuleOptions          `json:"recurrence,omitempty"`
	Exdates    []int64                `json:"exdates,omitempty"`
	Reminder   *CalendarEventReminder `json:"reminder,omitempty"`
	ServiceID  string                 `json:"serviceId,omitempty"`
	Metadata   map[string]string      `json:"metadata,omitempty"`
}

func NewCalendarEvent(calendarID, userID, accountID string, startTs, duration int64, busy bool) (*CalendarEvent, error) {
	if duration <= 0 {
		return nil, fmt.Errorf("%w: duration must be positive, got %d", ErrInvalidEvent, duration)
	}

	now := time.Now().UnixMilli()
	return &CalendarEvent{
		ID:         uuid.NewString(),
		CalendarID: calendarID,
		UserID:     userID,
		AccountID:  accountID,
		StartTs:    startTs,
		Duration:   duration,
		EndTs:      startTs + duration,
		Busy:       busy,
		Created:    now,
		Updated:    now,
	}, nil
}

// SetRecurrence validates and attaches a recurrence rule, recomputing the
// event's end timestamp from the last occurrence.
func (e *CalendarEvent) SetRecurrence(rec RRuleOptions, settings *CalendarSettings) error {
	if err := rec.Validate(e.StartTs); err != nil {
		return err
	}

	e.Recurrence = &rec
	return e.UpdateEndTs(settings)
}

// UpdateEndTs recomputes the bookkeeping end timestamp from the current
// anchor, duration and rule. Unbounded rules pin it to MaxEventTimestamp.
func (e *CalendarEvent) UpdateEndTs(settings *CalendarSettings) error {
	if e.Recurrence == nil {
		e.EndTs = e.StartTs + e.Duration
		return nil
	}
	if !e.Recurrence.Bounded() {
		e.EndTs = MaxEventTimestamp
		return nil
	}

	instances, err := e.Expand(nil, settings)
	if err != nil {
		return err
	}
	if len(instances) == 0 {
		e.EndTs = e.StartTs
		return nil
	}
	e.EndTs = instances[len(instances)-1].EndTs
	return nil
}

// Expand produces the ordered instances of the event, optionally restricted
// to the given window. Exception dates are matched at exact millisecond
// precision. Without a window, rules lacking count/until are capped to keep
// the expansion finite.
func (e *CalendarEvent) Expand(span *TimeSpan, settings *CalendarSettings) ([]EventInstance, error) {
	if e.Recurrence == nil {
		inst := EventInstance{StartTs: e.StartTs, EndTs: e.StartTs + e.Duration, Busy: e.Busy}
		if span != nil && !inst.Overlaps(*span) {
			return nil, nil
		}
		return []EventInstance{inst}, nil
	}

	if e.Recurrence.Count != nil && *e.Recurrence.Count <= 0 {
		return nil, nil
	}

	rule, err := e.Recurrence.rule(e.StartTs, settings)
	if err != nil {
		return nil, err
	}

	exdates := make(map[int64]struct{}, len(e.Exdates))
	for _, ex := range e.Exdates {
		exdates[ex] = struct{}{}
	}
	// the rrule grid runs at second precision; re-apply the sub-second
	// offset of the anchor so exdates still match exactly
	msOffset := ((e.StartTs % 1000) + 1000) % 1000

	var occurrences []time.Time
	switch {
	case span != nil:
		// Widen by the duration plus one second so instances straddling the
		// window boundaries survive the second-precision grid, then filter
		// by exact overlap below.
		after := time.UnixMilli(span.StartTs - e.Duration - 1000)
		before := time.UnixMilli(span.EndTs + 1000)
		occurrences = rule.Between(after, before, true)
	case e.Recurrence.Bounded():
		occurrences = rule.All()
	default:
		next := rule.Iterator()
		for len(occurrences) < maxUnboundedOccurrences {
			t, ok := next()
			if !ok {
				break
			}
			occurrences = append(occurrences, t)
		}
	}

	instances := make([]EventInstance, 0, len(occurrences))
	for _, occ := range occurrences {
		startTs := occ.UnixMilli() + msOffset
		if _, excluded := exdates[startTs]; excluded {
			continue
		}
		inst := EventInstance{StartTs: startTs, EndTs: startTs + e.Duration, Busy: e.Busy}
		if span != nil && !inst.Overlaps(*span) {
			continue
		}
		instances = append(instances, inst)
	}

	return instances, nil
}

// ExpandForReminders expands up to maxUnboundedOccurrences instances
// starting strictly after resumeAfterTs. When further occurrences remain it
// returns the timestamp the background sweep should resume from.
func (e *CalendarEvent) ExpandForReminders(resumeAfterTs int64, settings *CalendarSettings) ([]EventInstance, *int64, error) {
	if e.Recurrence == nil {
		if e.StartTs <= resumeAfterTs {
			return nil, nil, nil
		}
		return []EventInstance{{StartTs: e.StartTs, EndTs: e.StartTs + e.Duration, Busy: e.Busy}}, nil, nil
	}

	if e.Recurrence.Count != nil && *e.Recurrence.Count <= 0 {
		return nil, nil, nil
	}

	rule, err := e.Recurrence.rule(e.StartTs, settings)
	if err != nil {
		return nil, nil, err
	}

	exdates := make(map[int64]struct{}, len(e.Exdates))
	for _, ex := range e.Exdates {
		exdates[ex] = struct{}{}
	}
	msOffset := ((e.StartTs % 1000) + 1000) % 1000

	instances := make([]EventInstance, 0, maxUnboundedOccurrences)
	next := rule.Iterator()
	for {
		occ, ok := next()
		if !ok {
			return instances, nil, nil
		}
		startTs := occ.UnixMilli() + msOffset
		if startTs <= resumeAfterTs {
			continue
		}
		if _, excluded := exdates[startTs]; excluded {
			continue
		}
		if len(instances) == maxUnboundedOccurrences {
			resume := instances[len(instances)-1].StartTs
			return instances, &resume, nil
		}
		instances = append(instances, EventInstance{StartTs: startTs, EndTs: startTs + e.Duration, Busy: e.Busy})
	}
}
