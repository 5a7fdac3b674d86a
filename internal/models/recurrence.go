package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/teambition/rrule-go"
)

var ErrInvalidRecurrence = errors.New("invalid recurrence")

type RRuleFrequency string

const (
	FreqYearly  RRuleFrequency = "yearly"
	FreqMonthly RRuleFrequency = "monthly"
	FreqWeekly  RRuleFrequency = "weekly"
	FreqDaily   RRuleFrequency = "daily"
)

// WeekDay is a weekday in the 0=Monday .. 6=Sunday convention, optionally
// qualified by N for nth-weekday-of-month patterns (N=2 means the second
// such weekday, N=-1 the last one; N=0 means every such weekday).
type WeekDay struct {
	Weekday int `json:"weekday"`
	N       int `json:"n,omitempty"`
}

// RRuleOptions is the recurrence specification attached to a calendar
// event. It is immutable once attached except via explicit replacement.
type RRuleOptions struct {
	Freq      RRuleFrequency `json:"freq"`
	Interval  int            `json:"interval"`
	Count     *int           `json:"count,omitempty"`
	Until     *int64         `json:"until,omitempty"`
	BySetPos  []int          `json:"bysetpos,omitempty"`
	ByWeekday []WeekDay      `json:"byweekday,omitempty"`
	// WeekStart overrides the owning calendar's week start (0=Monday .. 6=Sunday).
	WeekStart *int `json:"weekStart,omitempty"`
	// Timezone overrides the owning calendar's IANA timezone.
	Timezone string `json:"timezone,omitempty"`
}

// ten years; recurrence rules reaching further are almost certainly a
// client bug and would make end-time bookkeeping useless
const maxUntilHorizonMs = int64(10 * 366 * 24 * 60 * 60 * 1000)

// about two years of daily occurrences; count also bounds the work a single
// windowless expansion may do, so it gets a ceiling at validation time
const maxRecurrenceCount = 739

// Validate checks the recurrence options at event-creation time. Expansion
// assumes these checks already passed.
func (r RRuleOptions) Validate(startTs int64) error {
	switch r.Freq {
	case FreqYearly, FreqMonthly, FreqWeekly, FreqDaily:
	default:
		return fmt.Errorf("%w: unknown freq %q", ErrInvalidRecurrence, r.Freq)
	}

	if r.Interval < 1 {
		return fmt.Errorf("%w: interval must be >= 1, got %d", ErrInvalidRecurrence, r.Interval)
	}

	if r.Count != nil && (*r.Count < 0 || *r.Count > maxRecurrenceCount) {
		return fmt.Errorf("%w: count must be in [0,%d], got %d", ErrInvalidRecurrence, maxRecurrenceCount, *r.Count)
	}

	if r.Until != nil && *r.Until-startTs > maxUntilHorizonMs {
		return fmt.Errorf("%w: until is too far after start_ts", ErrInvalidRecurrence)
	}

	if r.WeekStart != nil && (*r.WeekStart < 0 || *r.WeekStart > 6) {
		return fmt.Errorf("%w: week_start must be in [0,6], got %d", ErrInvalidRecurrence, *r.WeekStart)
	}

	for _, wd := range r.ByWeekday {
		if wd.Weekday < 0 || wd.Weekday > 6 {
			return fmt.Errorf("%w: byweekday entry must be in [0,6], got %d", ErrInvalidRecurrence, wd.Weekday)
		}
	}

	if len(r.BySetPos) > 0 && len(r.ByWeekday) == 0 {
		return fmt.Errorf("%w: bysetpos requires byweekday", ErrInvalidRecurrence)
	}

	if r.Timezone != "" {
		if _, err := time.LoadLocation(r.Timezone); err != nil {
			return fmt.Errorf("%w: unknown timezone %q", ErrInvalidRecurrence, r.Timezone)
		}
	}

	return nil
}

// Bounded reports whether the rule terminates on its own via count or until.
func (r RRuleOptions) Bounded() bool {
	return r.Count != nil || r.Until != nil
}

var rruleWeekdays = [7]rrule.Weekday{
	rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA, rrule.SU,
}

var rruleFrequencies = map[RRuleFrequency]rrule.Frequency{
	FreqYearly:  rrule.YEARLY,
	FreqMonthly: rrule.MONTHLY,
	FreqWeekly:  rrule.WEEKLY,
	FreqDaily:   rrule.DAILY,
}

// rule materializes the recurrence iterator seeded at startTs in the
// event's timezone. The rrule library works at second precision; callers
// re-apply the event's sub-second offset to every occurrence.
func (r RRuleOptions) rule(startTs int64, settings *CalendarSettings) (*rrule.RRule, error) {
	tzName := r.Timezone
	if tzName == "" {
		tzName = settings.Timezone
	}
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown timezone %q", ErrInvalidRecurrence, tzName)
	}

	weekStart := settings.WeekStart
	if r.WeekStart != nil {
		weekStart = *r.WeekStart
	}

	opt := rrule.ROption{
		Freq:     rruleFrequencies[r.Freq],
		Interval: r.Interval,
		Wkst:     rruleWeekdays[weekStart],
		Dtstart:  time.UnixMilli(startTs).In(loc),
		Bysetpos: r.BySetPos,
	}
	if r.Count != nil {
		opt.Count = *r.Count
	}
	if r.Until != nil {
		opt.Until = time.UnixMilli(*r.Until).In(loc)
	}
	for _, wd := range r.ByWeekday {
		day := rruleWeekdays[wd.Weekday]
		if wd.N != 0 {
			day = day.Nth(wd.N)
		}
		opt.Byweekday = append(opt.Byweekday, day)
	}

	rule, err := rrule.NewRRule(opt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecurrence, err)
	}

	return rule, nil
}
