package models

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

var ErrInvalidSchedule = errors.New("invalid schedule")

const maxIntervalsPerRule = 10

// ScheduleRuleInterval is a local-clock interval within one day, expressed
// as minutes from local midnight: [Start, End).
type ScheduleRuleInterval struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

func (i ScheduleRuleInterval) valid() bool {
	return i.Start >= 0 && i.Start < i.End && i.End <= 24*60
}

// ScheduleRule binds intervals either to a weekday (0=Monday .. 6=Sunday,
// recurring weekly) or to one fixed calendar date ("2006-01-02"). A date
// rule overrides the weekday rule on that date.
type ScheduleRule struct {
	Weekday   *int                   `json:"weekday,omitempty"`
	Date      string                 `json:"date,omitempty"`
	Intervals []ScheduleRuleInterval `json:"intervals"`
}

// Schedule is a template-based availability source: a weekly set of local
// working intervals in a fixed timezone.
type Schedule struct {
	ID        string         `json:"id"`
	UserID    string         `json:"userId"`
	AccountID string         `json:"accountId"`
	Timezone  string         `json:"timezone"`
	Rules     []ScheduleRule `json:"rules"`
}

func NewSchedule(userID, accountID, timezone string) (*Schedule, error) {
	if _, err := time.LoadLocation(timezone); err != nil {
		return nil, fmt.Errorf("%w: unknown timezone %q", ErrInvalidSchedule, timezone)
	}

	return &Schedule{
		ID:        uuid.NewString(),
		UserID:    userID,
		AccountID: accountID,
		Timezone:  timezone,
		Rules:     defaultScheduleRules(),
	}, nil
}

// SetTimezone replaces the schedule's timezone after validating it.
func (s *Schedule) SetTimezone(timezone string) error {
	if _, err := time.LoadLocation(timezone); err != nil {
		return fmt.Errorf("%w: unknown timezone %q", ErrInvalidSchedule, timezone)
	}
	s.Timezone = timezone
	return nil
}

// Monday to Friday, 09:00-17:30 local time.
func defaultScheduleRules() []ScheduleRule {
	rules := make([]ScheduleRule, 0, 5)
	for wd := 0; wd < 5; wd++ {
		day := wd
		rules = append(rules, ScheduleRule{
			Weekday:   &day,
			Intervals: []ScheduleRuleInterval{{Start: 9 * 60, End: 17*60 + 30}},
		})
	}
	return rules
}

// SetRules replaces the rule set, dropping malformed entries and
// normalizing each rule's intervals (sorted, capped, inverted ones
// removed).
func (s *Schedule) SetRules(rules []ScheduleRule) error {
	normalized := make([]ScheduleRule, 0, len(rules))
	for _, rule := range rules {
		if rule.Weekday == nil && rule.Date == "" {
			return fmt.Errorf("%w: rule needs a weekday or a date", ErrInvalidSchedule)
		}
		if rule.Weekday != nil && (*rule.Weekday < 0 || *rule.Weekday > 6) {
			return fmt.Errorf("%w: weekday must be in [0,6], got %d", ErrInvalidSchedule, *rule.Weekday)
		}
		if rule.Date != "" {
			if _, err := time.Parse("2006-01-02", rule.Date); err != nil {
				return fmt.Errorf("%w: bad date %q", ErrInvalidSchedule, rule.Date)
			}
		}

		intervals := make([]ScheduleRuleInterval, 0, len(rule.Intervals))
		for _, iv := range rule.Intervals {
			if iv.valid() {
				intervals = append(intervals, iv)
			}
		}
		sort.Slice(intervals, func(i, j int) bool { return intervals[i].Start < intervals[j].Start })
		if len(intervals) > maxIntervalsPerRule {
			intervals = intervals[:maxIntervalsPerRule]
		}
		rule.Intervals = intervals
		normalized = append(normalized, rule)
	}

	s.Rules = normalized
	return nil
}

// FreeBusy materializes the schedule's free instances over the window by
// walking each local day the window touches. Interval endpoints are built
// with time.Date in the schedule's location, so a rule spanning a DST
// transition still yields correct UTC instants.
func (s *Schedule) FreeBusy(span TimeSpan) (Timeline, error) {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return Timeline{}, fmt.Errorf("%w: unknown timezone %q", ErrInvalidSchedule, s.Timezone)
	}

	dateRules := make(map[string][]ScheduleRuleInterval)
	weekdayRules := make(map[int][]ScheduleRuleInterval)
	for _, rule := range s.Rules {
		if rule.Date != "" {
			dateRules[rule.Date] = rule.Intervals
			continue
		}
		if rule.Weekday != nil {
			weekdayRules[*rule.Weekday] = rule.Intervals
		}
	}

	start := time.UnixMilli(span.StartTs).In(loc)
	end := time.UnixMilli(span.EndTs).In(loc)
	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, loc)
	lastDay := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, loc)

	var instances []EventInstance
	for !day.After(lastDay) {
		intervals, ok := dateRules[day.Format("2006-01-02")]
		if !ok {
			// go weekdays start on Sunday
			weekday := (int(day.Weekday()) + 6) % 7
			intervals = weekdayRules[weekday]
		}
		for _, iv := range intervals {
			instances = append(instances, EventInstance{
				StartTs: time.Date(day.Year(), day.Month(), day.Day(), 0, iv.Start, 0, 0, loc).UnixMilli(),
				EndTs:   time.Date(day.Year(), day.Month(), day.Day(), 0, iv.End, 0, 0, loc).UnixMilli(),
			})
		}
		day = day.AddDate(0, 0, 1)
	}

	return NewTimeline(instances).Clamp(span), nil
}
