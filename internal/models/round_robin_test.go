package models

import (
	"math/rand"
	"testing"
)

func int64Ptr(v int64) *int64 { return &v }

func TestRoundRobinAvailabilityAssignment(t *testing.T) {
	t.Run("no members", func(t *testing.T) {
		_, ok := RoundRobinAvailabilityAssignment{}.Assign()
		if ok {
			t.Fatalf("expected no assignment")
		}
	})

	t.Run("least recently assigned wins", func(t *testing.T) {
		a := RoundRobinAvailabilityAssignment{
			Members: []RoundRobinMember{
				{UserID: "alice", LastAssigned: int64Ptr(10)},
				{UserID: "bob", LastAssigned: int64Ptr(4)},
				{UserID: "carol", LastAssigned: int64Ptr(20)},
			},
			Rand: rand.New(rand.NewSource(1)),
		}
		selected, ok := a.Assign()
		if !ok || selected != "bob" {
			t.Fatalf("expected bob, got %q (ok=%v)", selected, ok)
		}
	})

	t.Run("never assigned sorts before any timestamp", func(t *testing.T) {
		a := RoundRobinAvailabilityAssignment{
			Members: []RoundRobinMember{
				{UserID: "alice", LastAssigned: int64Ptr(-100)},
				{UserID: "bob"},
			},
			Rand: rand.New(rand.NewSource(1)),
		}
		selected, ok := a.Assign()
		if !ok || selected != "bob" {
			t.Fatalf("expected the never-assigned member, got %q (ok=%v)", selected, ok)
		}
	})

	t.Run("ties are broken only among the tied set", func(t *testing.T) {
		seen := map[string]bool{}
		for seed := int64(0); seed < 50; seed++ {
			a := RoundRobinAvailabilityAssignment{
				Members: []RoundRobinMember{
					{UserID: "alice", LastAssigned: int64Ptr(100)},
					{UserID: "bob", LastAssigned: int64Ptr(100)},
					{UserID: "carol", LastAssigned: int64Ptr(500)},
				},
				Rand: rand.New(rand.NewSource(seed)),
			}
			selected, ok := a.Assign()
			if !ok {
				t.Fatalf("expected an assignment")
			}
			if selected == "carol" {
				t.Fatalf("member outside the tied set was selected")
			}
			seen[selected] = true
		}
		if !seen["alice"] || !seen["bob"] {
			t.Fatalf("tie-break never exercised both tied members: %v", seen)
		}
	})

	t.Run("deterministic for a fixed seed", func(t *testing.T) {
		pick := func() string {
			a := RoundRobinAvailabilityAssignment{
				Members: []RoundRobinMember{
					{UserID: "alice", LastAssigned: int64Ptr(100)},
					{UserID: "bob", LastAssigned: int64Ptr(100)},
				},
				Rand: rand.New(rand.NewSource(42)),
			}
			selected, _ := a.Assign()
			return selected
		}
		if pick() != pick() {
			t.Fatalf("same seed must give the same assignment")
		}
	})
}

func TestRoundRobinEqualDistributionAssignment(t *testing.T) {
	eventFor := func(userID string) CalendarEvent {
		return CalendarEvent{UserID: userID, ServiceID: "svc-1"}
	}

	t.Run("no candidates", func(t *testing.T) {
		_, ok := RoundRobinEqualDistributionAssignment{}.Assign()
		if ok {
			t.Fatalf("expected no assignment")
		}
	})

	t.Run("member with the most upcoming events is never selected", func(t *testing.T) {
		events := []CalendarEvent{eventFor("alice"), eventFor("alice")}

		for seed := int64(0); seed < 50; seed++ {
			a := RoundRobinEqualDistributionAssignment{
				Events:  events,
				UserIDs: []string{"alice", "bob", "carol"},
				Rand:    rand.New(rand.NewSource(seed)),
			}
			selected, ok := a.Assign()
			if !ok {
				t.Fatalf("expected an assignment")
			}
			if selected == "alice" {
				t.Fatalf("the busiest member must never win the tie")
			}
		}
	})

	t.Run("single least loaded member wins outright", func(t *testing.T) {
		events := []CalendarEvent{eventFor("alice"), eventFor("carol")}

		a := RoundRobinEqualDistributionAssignment{
			Events:  events,
			UserIDs: []string{"alice", "bob", "carol"},
			Rand:    rand.New(rand.NewSource(7)),
		}
		selected, ok := a.Assign()
		if !ok || selected != "bob" {
			t.Fatalf("expected bob, got %q (ok=%v)", selected, ok)
		}
	})
}
