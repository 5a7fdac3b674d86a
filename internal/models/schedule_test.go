package models

import (
	"errors"
	"testing"
	"time"
)

func TestNewSchedule(t *testing.T) {
	t.Run("rejects unknown timezones", func(t *testing.T) {
		if _, err := NewSchedule("user-1", "acc-1", "Mars/Olympus"); !errors.Is(err, ErrInvalidSchedule) {
			t.Fatalf("expected ErrInvalidSchedule, got %v", err)
		}
	})

	t.Run("defaults to monday through friday office hours", func(t *testing.T) {
		schedule, err := NewSchedule("user-1", "acc-1", "UTC")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(schedule.Rules) != 5 {
			t.Fatalf("expected 5 default rules, got %d", len(schedule.Rules))
		}
		for i, rule := range schedule.Rules {
			if rule.Weekday == nil || *rule.Weekday != i {
				t.Fatalf("rule %d has unexpected weekday: %+v", i, rule)
			}
			if len(rule.Intervals) != 1 || rule.Intervals[0].Start != 9*60 || rule.Intervals[0].End != 17*60+30 {
				t.Fatalf("rule %d has unexpected intervals: %+v", i, rule.Intervals)
			}
		}
	})
}

func TestSchedule_SetRules(t *testing.T) {
	schedule, err := NewSchedule("user-1", "acc-1", "UTC")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	t.Run("rejects rules without weekday or date", func(t *testing.T) {
		err := schedule.SetRules([]ScheduleRule{{Intervals: []ScheduleRuleInterval{{Start: 0, End: 60}}}})
		if !errors.Is(err, ErrInvalidSchedule) {
			t.Fatalf("expected ErrInvalidSchedule, got %v", err)
		}
	})

	t.Run("normalizes intervals", func(t *testing.T) {
		wd := 0
		err := schedule.SetRules([]ScheduleRule{{
			Weekday: &wd,
			Intervals: []ScheduleRuleInterval{
				{Start: 600, End: 660},
				{Start: 60, End: 120},
				{Start: 500, End: 100}, // inverted, dropped
			},
		}})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got := schedule.Rules[0].Intervals
		if len(got) != 2 || got[0].Start != 60 || got[1].Start != 600 {
			t.Fatalf("unexpected normalized intervals: %+v", got)
		}
	})
}

func TestSchedule_FreeBusy(t *testing.T) {
	t.Run("weekday rule produces one instance per matching day", func(t *testing.T) {
		schedule, err := NewSchedule("user-1", "acc-1", "UTC")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		monday := 0
		if err := schedule.SetRules([]ScheduleRule{{
			Weekday:   &monday,
			Intervals: []ScheduleRuleInterval{{Start: 9 * 60, End: 10 * 60}},
		}}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		// 2021-03-01 is a Monday; window covers the full week
		weekStart := time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)
		span := TimeSpan{
			StartTs: weekStart.UnixMilli(),
			EndTs:   weekStart.AddDate(0, 0, 7).UnixMilli(),
		}

		timeline, err := schedule.FreeBusy(span)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if timeline.Len() != 1 {
			t.Fatalf("expected one instance, got %+v", timeline.Instances())
		}
		inst := timeline.Instances()[0]
		if inst.StartTs != time.Date(2021, 3, 1, 9, 0, 0, 0, time.UTC).UnixMilli() {
			t.Fatalf("unexpected start: %d", inst.StartTs)
		}
		if inst.EndTs != time.Date(2021, 3, 1, 10, 0, 0, 0, time.UTC).UnixMilli() {
			t.Fatalf("unexpected end: %d", inst.EndTs)
		}
	})

	t.Run("date rule overrides the weekday rule", func(t *testing.T) {
		schedule, err := NewSchedule("user-1", "acc-1", "UTC")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		monday := 0
		if err := schedule.SetRules([]ScheduleRule{
			{Weekday: &monday, Intervals: []ScheduleRuleInterval{{Start: 9 * 60, End: 17 * 60}}},
			{Date: "2021-03-01", Intervals: []ScheduleRuleInterval{{Start: 13 * 60, End: 14 * 60}}},
		}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		day := time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)
		span := TimeSpan{StartTs: day.UnixMilli(), EndTs: day.AddDate(0, 0, 1).UnixMilli()}

		timeline, err := schedule.FreeBusy(span)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if timeline.Len() != 1 {
			t.Fatalf("expected one instance, got %+v", timeline.Instances())
		}
		inst := timeline.Instances()[0]
		if inst.StartTs != day.Add(13*time.Hour).UnixMilli() || inst.EndTs != day.Add(14*time.Hour).UnixMilli() {
			t.Fatalf("date rule not applied: %+v", inst)
		}
	})

	t.Run("dst transition keeps local wall-clock times", func(t *testing.T) {
		loc, err := time.LoadLocation("Europe/Berlin")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		schedule, err := NewSchedule("user-1", "acc-1", "Europe/Berlin")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		sunday := 6
		if err := schedule.SetRules([]ScheduleRule{{
			Weekday:   &sunday,
			Intervals: []ScheduleRuleInterval{{Start: 9 * 60, End: 10 * 60}},
		}}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		// 2021-03-28 is the spring-forward Sunday in Berlin
		day := time.Date(2021, 3, 28, 0, 0, 0, 0, loc)
		span := TimeSpan{StartTs: day.UnixMilli(), EndTs: day.AddDate(0, 0, 1).UnixMilli()}

		timeline, err := schedule.FreeBusy(span)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if timeline.Len() != 1 {
			t.Fatalf("expected one instance, got %+v", timeline.Instances())
		}
		inst := timeline.Instances()[0]
		want := time.Date(2021, 3, 28, 9, 0, 0, 0, loc)
		if inst.StartTs != want.UnixMilli() {
			t.Fatalf("got start %d, want %d (09:00 local after the transition)", inst.StartTs, want.UnixMilli())
		}
		// 09:00 CEST is 07:00 UTC on the short day
		if utc := time.UnixMilli(inst.StartTs).UTC().Hour(); utc != 7 {
			t.Fatalf("expected 07:00 UTC, got %02d:00", utc)
		}
	})

	t.Run("window clamps partial days", func(t *testing.T) {
		schedule, err := NewSchedule("user-1", "acc-1", "UTC")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		monday := 0
		if err := schedule.SetRules([]ScheduleRule{{
			Weekday:   &monday,
			Intervals: []ScheduleRuleInterval{{Start: 9 * 60, End: 17 * 60}},
		}}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		day := time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)
		span := TimeSpan{
			StartTs: day.Add(12 * time.Hour).UnixMilli(),
			EndTs:   day.Add(13 * time.Hour).UnixMilli(),
		}

		timeline, err := schedule.FreeBusy(span)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if timeline.Len() != 1 {
			t.Fatalf("expected one clamped instance, got %+v", timeline.Instances())
		}
		inst := timeline.Instances()[0]
		if inst.StartTs != span.StartTs || inst.EndTs != span.EndTs {
			t.Fatalf("instance not clamped to window: %+v", inst)
		}
	})
}
