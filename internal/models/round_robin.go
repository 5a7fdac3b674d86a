package models

import (
	"math/rand"
	"sort"
	"time"
)

// RoundRobinAlgorithm decides which service member is assigned a booking
// when several are eligible.
type RoundRobinAlgorithm string

const (
	// RoundRobinAvailability assigns the member least recently assigned a
	// service event; members never assigned sort first.
	RoundRobinAvailability RoundRobinAlgorithm = "availability"
	// RoundRobinEqualDistribution assigns the member with the fewest
	// upcoming service events within a two week horizon.
	RoundRobinEqualDistribution RoundRobinAlgorithm = "equalDistribution"
)

// EqualDistributionHorizonMs is how far ahead upcoming assignments are
// counted for the equal-distribution strategy.
const EqualDistributionHorizonMs = int64(14 * 24 * 60 * 60 * 1000)

// RoundRobinMember pairs a service member with the timestamp of their most
// recent assignment, nil when they were never assigned.
type RoundRobinMember struct {
	UserID       string
	LastAssigned *int64
}

// RoundRobinAvailabilityAssignment selects the member whose most recent
// assignment is earliest. Ties are broken uniformly at random; tests pin
// the outcome by injecting Rand.
type RoundRobinAvailabilityAssignment struct {
	Members []RoundRobinMember
	Rand    *rand.Rand
}

func (a RoundRobinAvailabilityAssignment) Assign() (string, bool) {
	if len(a.Members) == 0 {
		return "", false
	}

	members := make([]RoundRobinMember, len(a.Members))
	copy(members, a.Members)
	sort.SliceStable(members, func(i, j int) bool {
		mi, mj := members[i], members[j]
		if mi.LastAssigned == nil {
			return mj.LastAssigned != nil
		}
		if mj.LastAssigned == nil {
			return false
		}
		return *mi.LastAssigned < *mj.LastAssigned
	})

	tied := members[:1]
	for _, m := range members[1:] {
		if !sameAssignment(m.LastAssigned, tied[0].LastAssigned) {
			break
		}
		tied = append(tied, m)
	}

	if len(tied) == 1 {
		return tied[0].UserID, true
	}
	return tied[a.rng().Intn(len(tied))].UserID, true
}

func sameAssignment(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// RoundRobinEqualDistributionAssignment selects the member with the fewest
// upcoming assigned events among UserIDs. Events carries every upcoming
// service event within the horizon, assigned or not to the candidates.
type RoundRobinEqualDistributionAssignment struct {
	Events  []CalendarEvent
	UserIDs []string
	Rand    *rand.Rand
}

func (a RoundRobinEqualDistributionAssignment) Assign() (string, bool) {
	if len(a.UserIDs) == 0 {
		return "", false
	}

	type memberLoad struct {
		userID string
		count  int
	}

	loads := make([]memberLoad, 0, len(a.UserIDs))
	for _, userID := range a.UserIDs {
		count := 0
		for _, ev := range a.Events {
			if ev.UserID == userID {
				count++
			}
		}
		loads = append(loads, memberLoad{userID: userID, count: count})
	}
	sort.SliceStable(loads, func(i, j int) bool { return loads[i].count < loads[j].count })

	tied := loads[:1]
	for _, l := range loads[1:] {
		if l.count != tied[0].count {
			break
		}
		tied = append(tied, l)
	}

	if len(tied) == 1 {
		return tied[0].userID, true
	}
	return tied[a.rng().Intn(len(tied))].userID, true
}

func (a RoundRobinAvailabilityAssignment) rng() *rand.Rand {
	if a.Rand != nil {
		return a.Rand
	}
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

func (a RoundRobinEqualDistributionAssignment) rng() *rand.Rand {
	if a.Rand != nil {
		return a.Rand
	}
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}
