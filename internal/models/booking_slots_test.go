package models

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

const minuteMs = int64(60 * 1000)

func TestGetBookingSlots(t *testing.T) {
	t.Run("slots align to the interval grid inside free intervals", func(t *testing.T) {
		free := NewTimeline([]EventInstance{{StartTs: 0, EndTs: 60 * minuteMs}})
		slots := GetBookingSlots(free, BookingSlotsOptions{
			StartTs:  0,
			EndTs:    60 * minuteMs,
			Duration: 30 * minuteMs,
			Interval: 15 * minuteMs,
		})

		wantStarts := []int64{0, 15 * minuteMs, 30 * minuteMs}
		if len(slots) != len(wantStarts) {
			t.Fatalf("expected %d slots, got %d: %+v", len(wantStarts), len(slots), slots)
		}
		for i, slot := range slots {
			if slot.Start != wantStarts[i] {
				t.Fatalf("slot %d: got start %d, want %d", i, slot.Start, wantStarts[i])
			}
			if slot.AvailableUntil != 60*minuteMs {
				t.Fatalf("slot %d: got availableUntil %d, want %d", i, slot.AvailableUntil, 60*minuteMs)
			}
		}
	})

	t.Run("a slot must fit entirely inside one free interval", func(t *testing.T) {
		free := NewTimeline([]EventInstance{
			{StartTs: 0, EndTs: 20 * minuteMs},
			{StartTs: 40 * minuteMs, EndTs: 70 * minuteMs},
		})
		slots := GetBookingSlots(free, BookingSlotsOptions{
			StartTs:  0,
			EndTs:    70 * minuteMs,
			Duration: 30 * minuteMs,
			Interval: 10 * minuteMs,
		})

		// only the second interval can hold a 30 minute slot
		if len(slots) != 1 || slots[0].Start != 40*minuteMs {
			t.Fatalf("unexpected slots: %+v", slots)
		}
	})

	t.Run("empty free timeline yields no slots", func(t *testing.T) {
		slots := GetBookingSlots(Timeline{}, BookingSlotsOptions{
			StartTs: 0, EndTs: 100, Duration: 10, Interval: 10,
		})
		if len(slots) != 0 {
			t.Fatalf("expected no slots, got %+v", slots)
		}
	})
}

func TestApplyBuffers(t *testing.T) {
	free := NewTimeline([]EventInstance{{StartTs: 0, EndTs: 1000 * minuteMs}})
	busy := []EventInstance{{StartTs: 400 * minuteMs, EndTs: 500 * minuteMs, Busy: true}}

	buffered := ApplyBuffers(busy, 100, 100)
	got := free.Subtract(NewTimeline(buffered))

	want := []EventInstance{
		{StartTs: 0, EndTs: 300 * minuteMs},
		{StartTs: 600 * minuteMs, EndTs: 1000 * minuteMs},
	}
	if !reflect.DeepEqual(got.Instances(), want) {
		t.Fatalf("got %+v, want %+v", got.Instances(), want)
	}
}

func TestGetServiceBookingSlots(t *testing.T) {
	dur := 30 * minuteMs
	opts := BookingSlotsOptions{StartTs: 0, EndTs: 120 * minuteMs, Duration: dur, Interval: 30 * minuteMs}

	usersFree := []UserFreeEvents{
		{UserID: "alice", FreeEvents: NewTimeline([]EventInstance{{StartTs: 0, EndTs: 60 * minuteMs}})},
		{UserID: "bob", FreeEvents: NewTimeline([]EventInstance{{StartTs: 30 * minuteMs, EndTs: 120 * minuteMs}})},
	}

	slots := GetServiceBookingSlots(usersFree, opts)

	want := []ServiceBookingSlot{
		{Start: 0, Duration: dur, UserIDs: []string{"alice"}},
		{Start: 30 * minuteMs, Duration: dur, UserIDs: []string{"alice", "bob"}},
		{Start: 60 * minuteMs, Duration: dur, UserIDs: []string{"bob"}},
		{Start: 90 * minuteMs, Duration: dur, UserIDs: []string{"bob"}},
	}
	if !reflect.DeepEqual(slots, want) {
		t.Fatalf("got %+v, want %+v", slots, want)
	}
}

func TestGroupSlotsByDate(t *testing.T) {
	day1 := time.Date(2021, 3, 1, 23, 30, 0, 0, time.UTC).UnixMilli()
	day2 := time.Date(2021, 3, 2, 0, 0, 0, 0, time.UTC).UnixMilli()

	dates := GroupSlotsByDate([]ServiceBookingSlot{
		{Start: day1, Duration: 1, UserIDs: []string{"a"}},
		{Start: day2, Duration: 1, UserIDs: []string{"a"}},
	}, time.UTC)

	if len(dates) != 2 {
		t.Fatalf("expected 2 date groups, got %+v", dates)
	}
	if dates[0].Date != "2021-03-01" || dates[1].Date != "2021-03-02" {
		t.Fatalf("unexpected dates: %q, %q", dates[0].Date, dates[1].Date)
	}
}

func TestValidateBookingSlotsQuery(t *testing.T) {
	base := BookingSlotsQuery{
		Date:     "2021-03-01",
		Timezone: "UTC",
		Duration: 30 * minuteMs,
		Interval: 15 * minuteMs,
	}

	t.Run("resolves the utc day window", func(t *testing.T) {
		span, loc, err := ValidateBookingSlotsQuery(base)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if loc != time.UTC {
			t.Fatalf("unexpected location: %v", loc)
		}
		wantStart := time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC).UnixMilli()
		if span.StartTs != wantStart || span.EndTs != wantStart+24*60*minuteMs {
			t.Fatalf("unexpected span: %+v", span)
		}
	})

	t.Run("dst transition day is 23 hours long", func(t *testing.T) {
		q := base
		q.Date = "2021-03-28"
		q.Timezone = "Europe/Berlin"

		span, _, err := ValidateBookingSlotsQuery(q)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := span.Duration(); got != 23*60*minuteMs {
			t.Fatalf("expected a 23 hour day, got %d ms", got)
		}
	})

	t.Run("interval out of bounds", func(t *testing.T) {
		q := base
		q.Interval = 5 * minuteMs
		if _, _, err := ValidateBookingSlotsQuery(q); !errors.Is(err, ErrInvalidInterval) {
			t.Fatalf("expected ErrInvalidInterval, got %v", err)
		}
		q.Interval = 61 * minuteMs
		if _, _, err := ValidateBookingSlotsQuery(q); !errors.Is(err, ErrInvalidInterval) {
			t.Fatalf("expected ErrInvalidInterval, got %v", err)
		}
	})

	t.Run("bad timezone", func(t *testing.T) {
		q := base
		q.Timezone = "Mars/Olympus"
		if _, _, err := ValidateBookingSlotsQuery(q); !errors.Is(err, ErrInvalidTimezone) {
			t.Fatalf("expected ErrInvalidTimezone, got %v", err)
		}
	})

	t.Run("bad date", func(t *testing.T) {
		q := base
		q.Date = "03/01/2021"
		if _, _, err := ValidateBookingSlotsQuery(q); !errors.Is(err, ErrInvalidDate) {
			t.Fatalf("expected ErrInvalidDate, got %v", err)
		}
	})
}

func TestClampBookingWindow(t *testing.T) {
	now := int64(1000 * minuteMs)
	span := TimeSpan{StartTs: now, EndTs: now + 600*minuteMs}

	t.Run("closest booking time pushes the start forward", func(t *testing.T) {
		got, ok := ClampBookingWindow(span, now, 60, nil)
		if !ok {
			t.Fatalf("expected a remaining window")
		}
		if got.StartTs != now+60*minuteMs || got.EndTs != span.EndTs {
			t.Fatalf("unexpected window: %+v", got)
		}
	})

	t.Run("furthest booking time pulls the end in", func(t *testing.T) {
		furthest := int64(120)
		got, ok := ClampBookingWindow(span, now, 0, &furthest)
		if !ok {
			t.Fatalf("expected a remaining window")
		}
		if got.StartTs != span.StartTs || got.EndTs != now+120*minuteMs {
			t.Fatalf("unexpected window: %+v", got)
		}
	})

	t.Run("nothing remains when bounds cross", func(t *testing.T) {
		if _, ok := ClampBookingWindow(span, now, 700, nil); ok {
			t.Fatalf("expected no bookable window")
		}
		furthest := int64(0)
		if _, ok := ClampBookingWindow(span, now, 0, &furthest); ok {
			t.Fatalf("expected no bookable window when furthest is now")
		}
	})
}
