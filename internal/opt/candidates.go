package opt

import (
	"sort"

	"parkday/internal/park"
)

// Candidate is an attraction eligible for the day's pool, with the value
// score feeding the builder's greedy choice and the evaluator.
type Candidate struct {
	A               *park.Attraction
	Value           float64
	MustInclude     bool
	PriorityRank    int // 0 = top-ranked must-include, -1 otherwise
	HeightUncertain bool
}

// Conservative height-for-age lookup (cm). Erring low keeps restricted
// attractions out rather than scheduling a ride the child cannot board.
var heightForAge = map[int]int{
	0: 60, 1: 70, 2: 82, 3: 92, 4: 98, 5: 104, 6: 110,
	7: 116, 8: 122, 9: 128, 10: 133, 11: 138, 12: 144,
}

func estimatedHeightCm(age int) int {
	if age >= 13 {
		return 150
	}
	if age < 0 {
		return 0
	}
	return heightForAge[age]
}

// heightEligible reports whether the party clears an attraction's
// minimum height, and whether the answer is uncertain because some
// children's ages were not stated.
func heightEligible(a *park.Attraction, party Party) (ok, uncertain bool) {
	if a.MinHeightCm <= 0 || party.Children == 0 {
		return true, false
	}
	for _, age := range party.ChildAges {
		if estimatedHeightCm(age) < a.MinHeightCm {
			return false, false
		}
	}
	return true, len(party.ChildAges) < party.Children
}

func categoryMatches(a *park.Attraction, filter string) bool {
	switch filter {
	case "thrill":
		return a.Thrill
	case "family":
		return !a.Thrill
	default: // "all" or unset
		return true
	}
}

// FilterCandidates narrows the park's attraction list for one party and
// preference set and attaches value scores. A must-include attraction
// that is excluded, unknown, or height-ineligible is a configuration
// conflict and aborts before any scheduling attempt.
func FilterCandidates(p Problem) ([]Candidate, error) {
	excluded := map[string]bool{}
	for _, id := range p.Prefs.ExcludedIDs {
		excluded[id] = true
	}
	rank := map[string]int{}
	for i, id := range p.Prefs.PriorityIDs {
		if excluded[id] {
			return nil, &ConflictError{AttractionID: id, Reason: "must-include attraction is also excluded"}
		}
		if _, dup := rank[id]; !dup {
			rank[id] = i
		}
	}
	for id := range rank {
		a := p.Park.Attraction(id)
		if a == nil {
			return nil, &ConflictError{AttractionID: id, Reason: "must-include attraction not in park catalog"}
		}
		if ok, _ := heightEligible(a, p.Party); !ok {
			return nil, &ConflictError{AttractionID: id, Reason: "must-include attraction is height-ineligible for the party"}
		}
	}

	out := []Candidate{}
	for i := range p.Park.Attractions {
		a := &p.Park.Attractions[i]
		if excluded[a.ID] {
			continue
		}
		r, must := rank[a.ID]
		if !must {
			r = -1
		}
		ok, uncertain := heightEligible(a, p.Party)
		if !ok {
			continue
		}
		// the rain pool is strictly indoor/covered, must-includes included
		if p.IndoorOnly && !a.Indoor {
			continue
		}
		match := categoryMatches(a, p.Prefs.Category)
		if !match && !must {
			continue
		}
		c := Candidate{A: a, MustInclude: must, PriorityRank: r, HeightUncertain: uncertain}
		if must {
			// highest fixed weight, decayed slightly by rank
			c.Value = p.Tuning.PriorityValue - 0.5*float64(r)
			if c.Value < p.Tuning.PriorityValue/2 {
				c.Value = p.Tuning.PriorityValue / 2
			}
		} else {
			c.Value = a.Popularity * 10
		}
		out = append(out, c)
	}
	// stable pool order: must-includes by rank, then by descending value,
	// ID as the final tie-break so runs are deterministic
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.MustInclude != b.MustInclude {
			return a.MustInclude
		}
		if a.MustInclude && a.PriorityRank != b.PriorityRank {
			return a.PriorityRank < b.PriorityRank
		}
		if a.Value != b.Value {
			return a.Value > b.Value
		}
		return a.A.ID < b.A.ID
	})
	return out, nil
}
