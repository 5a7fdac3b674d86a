package models

import "sort"

// EventInstance is one concrete occurrence of a calendar event or schedule
// rule. Instances are derived values and never persisted.
type EventInstance struct {
	StartTs int64 `json:"startTs"`
	EndTs   int64 `json:"endTs"`
	Busy    bool  `json:"busy"`
}

func (i EventInstance) Overlaps(span TimeSpan) bool {
	return i.StartTs < span.EndTs && i.EndTs > span.StartTs
}

// Timeline holds instances sorted by StartTs with no two overlapping or
// touching. Construct through NewTimeline.
type Timeline struct {
	instances []EventInstance
}

// NewTimeline sorts the given instances and sweep-merges adjacent and
// overlapping ones into a minimal set. The result does not depend on the
// input order, only on the merged sorted intervals.
func NewTimeline(instances []EventInstance) Timeline {
	sorted := make([]EventInstance, len(instances))
	copy(sorted, instances)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].StartTs == sorted[j].StartTs {
			return sorted[i].EndTs < sorted[j].EndTs
		}
		return sorted[i].StartTs < sorted[j].StartTs
	})

	merged := make([]EventInstance, 0, len(sorted))
	for _, inst := range sorted {
		if len(merged) == 0 {
			merged = append(merged, inst)
			continue
		}
		last := &merged[len(merged)-1]
		if inst.StartTs <= last.EndTs {
			if inst.EndTs > last.EndTs {
				last.EndTs = inst.EndTs
			}
			continue
		}
		merged = append(merged, inst)
	}

	return Timeline{instances: merged}
}

func (t Timeline) Instances() []EventInstance {
	return t.instances
}

func (t Timeline) Len() int {
	return len(t.instances)
}

func (t Timeline) IsEmpty() bool {
	return len(t.instances) == 0
}

// Subtract removes the given busy timeline from this one, splitting
// intervals where needed. The busy flag of the survivors is preserved.
func (t Timeline) Subtract(busy Timeline) Timeline {
	out := make([]EventInstance, 0, len(t.instances))

	for _, free := range t.instances {
		cursor := free.StartTs
		for _, b := range busy.instances {
			if b.EndTs <= cursor {
				continue
			}
			if b.StartTs >= free.EndTs {
				break
			}
			if b.StartTs > cursor {
				out = append(out, EventInstance{StartTs: cursor, EndTs: b.StartTs, Busy: free.Busy})
			}
			if b.EndTs > cursor {
				cursor = b.EndTs
			}
			if cursor >= free.EndTs {
				break
			}
		}
		if cursor < free.EndTs {
			out = append(out, EventInstance{StartTs: cursor, EndTs: free.EndTs, Busy: free.Busy})
		}
	}

	return Timeline{instances: out}
}

// Clamp trims the timeline to the window, dropping instances fully outside
// it and clipping the ones straddling a boundary.
func (t Timeline) Clamp(span TimeSpan) Timeline {
	out := make([]EventInstance, 0, len(t.instances))
	for _, inst := range t.instances {
		if !inst.Overlaps(span) {
			continue
		}
		if inst.StartTs < span.StartTs {
			inst.StartTs = span.StartTs
		}
		if inst.EndTs > span.EndTs {
			inst.EndTs = span.EndTs
		}
		out = append(out, inst)
	}
	return Timeline{instances: out}
}

// Gaps returns the complement of the timeline within the window: the free
// intervals between consecutive busy intervals and the window boundaries.
func (t Timeline) Gaps(span TimeSpan) Timeline {
	out := make([]EventInstance, 0, len(t.instances)+1)
	cursor := span.StartTs
	for _, inst := range t.instances {
		if inst.EndTs <= cursor {
			continue
		}
		if inst.StartTs >= span.EndTs {
			break
		}
		if inst.StartTs > cursor {
			out = append(out, EventInstance{StartTs: cursor, EndTs: inst.StartTs})
		}
		if inst.EndTs > cursor {
			cursor = inst.EndTs
		}
	}
	if cursor < span.EndTs {
		out = append(out, EventInstance{StartTs: cursor, EndTs: span.EndTs})
	}
	return Timeline{instances: out}
}

// FreeBusy is a consolidated availability picture for one user over a
// window: a minimal busy set and the free set that remains after removing
// the busy intervals from the explicitly free ones.
type FreeBusy struct {
	Free Timeline
	Busy Timeline
}

// ComposeFreeBusy splits instances by their busy flag, merges each class
// and removes the busy timeline from the free one.
func ComposeFreeBusy(instances []EventInstance) FreeBusy {
	var free, busy []EventInstance
	for _, inst := range instances {
		if inst.Busy {
			busy = append(busy, inst)
		} else {
			free = append(free, inst)
		}
	}

	freeTimeline := NewTimeline(free)
	busyTimeline := NewTimeline(busy)

	return FreeBusy{
		Free: freeTimeline.Subtract(busyTimeline),
		Busy: busyTimeline,
	}
}
