package models

import (
	"testing"
	"time"
)

const dayMs = int64(24 * 60 * 60 * 1000)

func utcSettings() *CalendarSettings {
	return &CalendarSettings{WeekStart: 0, Timezone: "UTC"}
}

func dailyEvent(t *testing.T, startTs, duration int64, count int) *CalendarEvent {
	t.Helper()

	ev, err := NewCalendarEvent("cal-1", "user-1", "acc-1", startTs, duration, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rec := RRuleOptions{Freq: FreqDaily, Interval: 1}
	if count >= 0 {
		c := count
		rec.Count = &c
	}
	if err := ev.SetRecurrence(rec, utcSettings()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return ev
}

func TestCalendarEvent_Expand(t *testing.T) {
	t.Run("exdate removes exactly its occurrence", func(t *testing.T) {
		const startTs = int64(1521317491239)
		const duration = int64(3600000)

		ev := dailyEvent(t, startTs, duration, 4)
		ev.Exdates = []int64{startTs}

		instances, err := ev.Expand(nil, utcSettings())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(instances) != 3 {
			t.Fatalf("expected 3 instances, got %d: %+v", len(instances), instances)
		}
		for i, inst := range instances {
			if inst.StartTs == startTs {
				t.Fatalf("excluded occurrence still present at index %d", i)
			}
			want := startTs + int64(i+1)*dayMs
			if inst.StartTs != want {
				t.Fatalf("instance %d: got start %d, want %d", i, inst.StartTs, want)
			}
			if inst.EndTs != want+duration {
				t.Fatalf("instance %d: got end %d, want %d", i, inst.EndTs, want+duration)
			}
		}
	})

	t.Run("count zero yields no instances", func(t *testing.T) {
		ev := dailyEvent(t, 1609459200000, 3600000, 0)

		instances, err := ev.Expand(nil, utcSettings())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(instances) != 0 {
			t.Fatalf("expected no instances, got %d", len(instances))
		}
	})

	t.Run("until before start yields no instances", func(t *testing.T) {
		start := int64(1609459200000)
		until := start - dayMs

		ev, err := NewCalendarEvent("cal-1", "user-1", "acc-1", start, 3600000, true)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := ev.SetRecurrence(RRuleOptions{Freq: FreqDaily, Interval: 1, Until: &until}, utcSettings()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		instances, err := ev.Expand(nil, utcSettings())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(instances) != 0 {
			t.Fatalf("expected no instances, got %d", len(instances))
		}
	})

	t.Run("window clips the series", func(t *testing.T) {
		start := int64(1609459200000) // 2021-01-01T00:00:00Z
		ev := dailyEvent(t, start, 3600000, 10)

		span := TimeSpan{StartTs: start + 2*dayMs, EndTs: start + 5*dayMs}
		instances, err := ev.Expand(&span, utcSettings())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(instances) != 3 {
			t.Fatalf("expected 3 instances, got %d: %+v", len(instances), instances)
		}
		for i, inst := range instances {
			want := start + int64(i+2)*dayMs
			if inst.StartTs != want {
				t.Fatalf("instance %d: got start %d, want %d", i, inst.StartTs, want)
			}
		}
	})

	t.Run("narrowing the window equals filtering the wide expansion", func(t *testing.T) {
		start := int64(1609459200000) // 2021-01-01T00:00:00Z
		ev := dailyEvent(t, start, 3600000, 10)

		outer := TimeSpan{StartTs: start, EndTs: start + 8*dayMs}
		inner := TimeSpan{StartTs: start + 2*dayMs, EndTs: start + 5*dayMs}

		wide, err := ev.Expand(&outer, utcSettings())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var filtered []EventInstance
		for _, inst := range wide {
			if inst.Overlaps(inner) {
				filtered = append(filtered, inst)
			}
		}

		narrow, err := ev.Expand(&inner, utcSettings())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(narrow) != len(filtered) {
			t.Fatalf("narrow expansion has %d instances, wide-then-filter has %d", len(narrow), len(filtered))
		}
		for i := range narrow {
			if narrow[i] != filtered[i] {
				t.Fatalf("instance %d: narrow %+v, filtered %+v", i, narrow[i], filtered[i])
			}
		}
	})

	t.Run("non-recurring event respects the window", func(t *testing.T) {
		ev, err := NewCalendarEvent("cal-1", "user-1", "acc-1", 1000, 500, true)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		in := TimeSpan{StartTs: 0, EndTs: 2000}
		instances, err := ev.Expand(&in, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(instances) != 1 || instances[0].StartTs != 1000 || instances[0].EndTs != 1500 {
			t.Fatalf("unexpected instances: %+v", instances)
		}

		out := TimeSpan{StartTs: 2000, EndTs: 3000}
		instances, err = ev.Expand(&out, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(instances) != 0 {
			t.Fatalf("expected no instances, got %+v", instances)
		}
	})

	t.Run("exdates are ignored without a recurrence rule", func(t *testing.T) {
		ev, err := NewCalendarEvent("cal-1", "user-1", "acc-1", 1000, 500, true)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		ev.Exdates = []int64{1000}

		instances, err := ev.Expand(nil, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(instances) != 1 {
			t.Fatalf("expected the single instance to survive, got %+v", instances)
		}
	})

	t.Run("unbounded expansion without a window is capped", func(t *testing.T) {
		ev := dailyEvent(t, 1609459200000, 3600000, -1)

		instances, err := ev.Expand(nil, utcSettings())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(instances) != 100 {
			t.Fatalf("expected expansion capped at 100, got %d", len(instances))
		}
	})

	t.Run("nth weekday of month", func(t *testing.T) {
		start := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC).UnixMilli()
		ev, err := NewCalendarEvent("cal-1", "user-1", "acc-1", start, 3600000, true)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		count := 2
		rec := RRuleOptions{
			Freq:      FreqMonthly,
			Interval:  1,
			Count:     &count,
			ByWeekday: []WeekDay{{Weekday: 1, N: 1}}, // first Tuesday
		}
		if err := ev.SetRecurrence(rec, utcSettings()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		instances, err := ev.Expand(nil, utcSettings())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []int64{
			time.Date(2021, 1, 5, 0, 0, 0, 0, time.UTC).UnixMilli(),
			time.Date(2021, 2, 2, 0, 0, 0, 0, time.UTC).UnixMilli(),
		}
		if len(instances) != len(want) {
			t.Fatalf("expected %d instances, got %d: %+v", len(want), len(instances), instances)
		}
		for i, inst := range instances {
			if inst.StartTs != want[i] {
				t.Fatalf("instance %d: got %d, want %d", i, inst.StartTs, want[i])
			}
		}
	})
}

func TestCalendarEvent_UpdateEndTs(t *testing.T) {
	t.Run("bounded rule ends at the last occurrence", func(t *testing.T) {
		const startTs = int64(1609459200000)
		const duration = int64(3600000)

		ev := dailyEvent(t, startTs, duration, 4)
		if want := startTs + 3*dayMs + duration; ev.EndTs != want {
			t.Fatalf("got end %d, want %d", ev.EndTs, want)
		}
	})

	t.Run("unbounded rule pins the end to the horizon", func(t *testing.T) {
		ev := dailyEvent(t, 1609459200000, 3600000, -1)
		if ev.EndTs != MaxEventTimestamp {
			t.Fatalf("got end %d, want %d", ev.EndTs, MaxEventTimestamp)
		}
	})
}

func TestCalendarEvent_ExpandForReminders(t *testing.T) {
	ev := dailyEvent(t, 1609459200000, 3600000, 150)

	instances, resume, err := ev.ExpandForReminders(0, utcSettings())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(instances) != 100 {
		t.Fatalf("expected 100 instances, got %d", len(instances))
	}
	if resume == nil {
		t.Fatalf("expected a continuation marker")
	}
	if *resume != instances[len(instances)-1].StartTs {
		t.Fatalf("marker should point at the last expanded start, got %d", *resume)
	}

	rest, resume2, err := ev.ExpandForReminders(*resume, utcSettings())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rest) != 50 {
		t.Fatalf("expected the remaining 50 instances, got %d", len(rest))
	}
	if resume2 != nil {
		t.Fatalf("expected no further continuation, got %d", *resume2)
	}
	if rest[0].StartTs <= *resume {
		t.Fatalf("resumed expansion must start strictly after the marker")
	}
}

func TestRRuleOptions_Validate(t *testing.T) {
	start := int64(1609459200000)

	cases := []struct {
		name string
		rec  RRuleOptions
		ok   bool
	}{
		{"valid daily", RRuleOptions{Freq: FreqDaily, Interval: 1}, true},
		{"unknown freq", RRuleOptions{Freq: "hourly", Interval: 1}, false},
		{"interval below one", RRuleOptions{Freq: FreqDaily, Interval: 0}, false},
		{"week start out of range", RRuleOptions{Freq: FreqWeekly, Interval: 1, WeekStart: intPtr(7)}, false},
		{"count at the ceiling", RRuleOptions{Freq: FreqDaily, Interval: 1, Count: intPtr(739)}, true},
		{"count above the ceiling", RRuleOptions{Freq: FreqDaily, Interval: 1, Count: intPtr(740)}, false},
		{"count negative", RRuleOptions{Freq: FreqDaily, Interval: 1, Count: intPtr(-1)}, false},
		{"bysetpos without byweekday", RRuleOptions{Freq: FreqMonthly, Interval: 1, BySetPos: []int{1}}, false},
		{"bad timezone", RRuleOptions{Freq: FreqDaily, Interval: 1, Timezone: "Mars/Olympus"}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.rec.Validate(start)
			if tc.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tc.ok && err == nil {
				t.Fatalf("expected a validation error")
			}
		})
	}
}

func intPtr(v int) *int { return &v }
