package models

import (
	"reflect"
	"testing"
)

func TestNewTimeline(t *testing.T) {
	t.Run("sorts and merges overlapping instances", func(t *testing.T) {
		timeline := NewTimeline([]EventInstance{
			{StartTs: 500, EndTs: 700},
			{StartTs: 0, EndTs: 100},
			{StartTs: 50, EndTs: 200},
			{StartTs: 200, EndTs: 300},
		})

		want := []EventInstance{
			{StartTs: 0, EndTs: 300},
			{StartTs: 500, EndTs: 700},
		}
		if !reflect.DeepEqual(timeline.Instances(), want) {
			t.Fatalf("got %+v, want %+v", timeline.Instances(), want)
		}
	})

	t.Run("empty input stays empty", func(t *testing.T) {
		if !NewTimeline(nil).IsEmpty() {
			t.Fatalf("expected empty timeline")
		}
	})
}

func TestTimeline_Subtract(t *testing.T) {
	free := NewTimeline([]EventInstance{{StartTs: 0, EndTs: 1000}})

	t.Run("busy splits free in two", func(t *testing.T) {
		got := free.Subtract(NewTimeline([]EventInstance{{StartTs: 400, EndTs: 500}}))
		want := []EventInstance{
			{StartTs: 0, EndTs: 400},
			{StartTs: 500, EndTs: 1000},
		}
		if !reflect.DeepEqual(got.Instances(), want) {
			t.Fatalf("got %+v, want %+v", got.Instances(), want)
		}
	})

	t.Run("busy covering everything empties the timeline", func(t *testing.T) {
		got := free.Subtract(NewTimeline([]EventInstance{{StartTs: -10, EndTs: 2000}}))
		if !got.IsEmpty() {
			t.Fatalf("expected empty timeline, got %+v", got.Instances())
		}
	})

	t.Run("busy outside leaves free untouched", func(t *testing.T) {
		got := free.Subtract(NewTimeline([]EventInstance{{StartTs: 2000, EndTs: 3000}}))
		if !reflect.DeepEqual(got.Instances(), free.Instances()) {
			t.Fatalf("got %+v, want %+v", got.Instances(), free.Instances())
		}
	})
}

func TestTimeline_Gaps(t *testing.T) {
	span := TimeSpan{StartTs: 0, EndTs: 1000}
	busy := NewTimeline([]EventInstance{
		{StartTs: 100, EndTs: 200},
		{StartTs: 400, EndTs: 600},
	})

	got := busy.Gaps(span)
	want := []EventInstance{
		{StartTs: 0, EndTs: 100},
		{StartTs: 200, EndTs: 400},
		{StartTs: 600, EndTs: 1000},
	}
	if !reflect.DeepEqual(got.Instances(), want) {
		t.Fatalf("got %+v, want %+v", got.Instances(), want)
	}
}

func TestComposeFreeBusy(t *testing.T) {
	fb := ComposeFreeBusy([]EventInstance{
		{StartTs: 0, EndTs: 500},
		{StartTs: 200, EndTs: 300, Busy: true},
		{StartTs: 600, EndTs: 700, Busy: true},
	})

	wantBusy := []EventInstance{
		{StartTs: 200, EndTs: 300, Busy: true},
		{StartTs: 600, EndTs: 700, Busy: true},
	}
	if !reflect.DeepEqual(fb.Busy.Instances(), wantBusy) {
		t.Fatalf("busy: got %+v, want %+v", fb.Busy.Instances(), wantBusy)
	}

	wantFree := []EventInstance{
		{StartTs: 0, EndTs: 200},
		{StartTs: 300, EndTs: 500},
	}
	if !reflect.DeepEqual(fb.Free.Instances(), wantFree) {
		t.Fatalf("free: got %+v, want %+v", fb.Free.Instances(), wantFree)
	}
}
