// Package leaderboard ranks ambassadors by audience reach and proof conversion.
package leaderboard

import (
	"cmp"
	"math"
	"slices"

	"campusreach/internal/records"
)

// Entry is one ambassador's standing.
type Entry struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Campus         string `json:"campus"`
	Events         int    `json:"events"`
	Reach          int    `json:"reach"`
	Proofs         int    `json:"proofs"`
	ConversionRate int    `json:"conversionRate"`
}

// Compute ranks every ambassador. An event's audience is split evenly across
// its ambassadors; proofs are the submissions for the ambassador's events.
// Entries are ordered by reach, then name.
func Compute(ambassadors []records.Ambassador, events []records.Event, submissions []records.Submission) []Entry {
	proofsByEvent := make(map[string]int, len(events))
	for _, s := range submissions {
		proofsByEvent[s.EventID]++
	}

	type tally struct {
		events int
		reach  float64
		proofs int
	}
	tallies := make(map[string]*tally, len(ambassadors))
	for _, a := range ambassadors {
		tallies[a.ID] = &tally{}
	}

	for _, e := range events {
		if len(e.AmbassadorIDs) == 0 {
			continue
		}
		share := float64(e.TotalAudience) / float64(len(e.AmbassadorIDs))
		seen := make(map[string]bool, len(e.AmbassadorIDs))
		for _, id := range e.AmbassadorIDs {
			t, ok := tallies[id]
			if !ok || seen[id] {
				continue
			}
			seen[id] = true
			t.events++
			t.reach += share
			t.proofs += proofsByEvent[e.ID]
		}
	}

	out := make([]Entry, 0, len(ambassadors))
	for _, a := range ambassadors {
		t := tallies[a.ID]
		entry := Entry{
			ID:     a.ID,
			Name:   a.Name,
			Email:  a.Email,
			Campus: a.Campus,
			Events: t.events,
			Reach:  int(math.Round(t.reach)),
			Proofs: t.proofs,
		}
		if t.reach > 0 {
			entry.ConversionRate = int(math.Round(float64(t.proofs) / t.reach * 100))
		}
		out = append(out, entry)
	}

	slices.SortStableFunc(out, func(a, b Entry) int {
		if c := cmp.Compare(b.Reach, a.Reach); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return out
}
