package models

import (
	"errors"
	"fmt"
)

var ErrInvalidTimeSpan = errors.New("invalid timespan")

// TimeSpan is a validated [StartTs, EndTs) interval in unix milliseconds.
type TimeSpan struct {
	StartTs int64 `json:"startTs"`
	EndTs   int64 `json:"endTs"`
}

func NewTimeSpan(startTs, endTs int64) (TimeSpan, error) {
	if startTs >= endTs {
		return TimeSpan{}, fmt.Errorf("%w: start_ts %d must be before end_ts %d", ErrInvalidTimeSpan, startTs, endTs)
	}

	return TimeSpan{StartTs: startTs, EndTs: endTs}, nil
}

func (t TimeSpan) Duration() int64 {
	return t.EndTs - t.StartTs
}

// GreaterThan reports whether the span is longer than maxDurationMs.
// Queries exceeding the configured limit are rejected before expansion
// begins so the CPU work per request stays bounded.
func (t TimeSpan) GreaterThan(maxDurationMs int64) bool {
	return t.Duration() > maxDurationMs
}

func (t TimeSpan) Overlaps(other TimeSpan) bool {
	return t.StartTs < other.EndTs && t.EndTs > other.StartTs
}

// Clip returns the intersection of the two spans, or false when they are
// disjoint.
func (t TimeSpan) Clip(other TimeSpan) (TimeSpan, bool) {
	if !t.Overlaps(other) {
		return TimeSpan{}, false
	}

	clipped := t
	if other.StartTs > clipped.StartTs {
		clipped.StartTs = other.StartTs
	}
	if other.EndTs < clipped.EndTs {
		clipped.EndTs = other.EndTs
	}

	return clipped, true
}
