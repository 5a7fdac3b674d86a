package models

import (
	"errors"
	"testing"
)

func TestNewTimeSpan(t *testing.T) {
	t.Run("fails when start is not before end", func(t *testing.T) {
		_, err := NewTimeSpan(100, 50)
		if !errors.Is(err, ErrInvalidTimeSpan) {
			t.Fatalf("expected ErrInvalidTimeSpan, got %v", err)
		}
		_, err = NewTimeSpan(100, 100)
		if !errors.Is(err, ErrInvalidTimeSpan) {
			t.Fatalf("expected ErrInvalidTimeSpan for empty span, got %v", err)
		}
	})

	t.Run("succeeds for a valid interval", func(t *testing.T) {
		span, err := NewTimeSpan(50, 100)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if span.Duration() != 50 {
			t.Fatalf("expected duration 50, got %d", span.Duration())
		}
	})
}

func TestTimeSpan_GreaterThan(t *testing.T) {
	span, err := NewTimeSpan(0, 1000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if span.GreaterThan(1000) {
		t.Fatalf("span equal to the limit should not exceed it")
	}
	if !span.GreaterThan(999) {
		t.Fatalf("span longer than the limit should exceed it")
	}
}

func TestTimeSpan_Overlaps(t *testing.T) {
	span := TimeSpan{StartTs: 100, EndTs: 200}

	cases := []struct {
		name  string
		other TimeSpan
		want  bool
	}{
		{"fully inside", TimeSpan{StartTs: 120, EndTs: 180}, true},
		{"straddles start", TimeSpan{StartTs: 50, EndTs: 150}, true},
		{"straddles end", TimeSpan{StartTs: 150, EndTs: 250}, true},
		{"touching end is exclusive", TimeSpan{StartTs: 200, EndTs: 300}, false},
		{"touching start is exclusive", TimeSpan{StartTs: 0, EndTs: 100}, false},
		{"disjoint", TimeSpan{StartTs: 300, EndTs: 400}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := span.Overlaps(tc.other); got != tc.want {
				t.Fatalf("Overlaps(%+v) = %v, want %v", tc.other, got, tc.want)
			}
		})
	}
}

func TestTimeSpan_Clip(t *testing.T) {
	span := TimeSpan{StartTs: 100, EndTs: 200}

	clipped, ok := span.Clip(TimeSpan{StartTs: 150, EndTs: 300})
	if !ok {
		t.Fatalf("expected overlap")
	}
	if clipped.StartTs != 150 || clipped.EndTs != 200 {
		t.Fatalf("unexpected clip result: %+v", clipped)
	}

	if _, ok := span.Clip(TimeSpan{StartTs: 200, EndTs: 300}); ok {
		t.Fatalf("expected no overlap for touching spans")
	}
}
