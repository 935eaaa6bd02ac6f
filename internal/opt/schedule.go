package opt

import (
	"fmt"
	"math"

	"parkday/internal/park"
)

// item is one slot of the mutable sequence the builder emits and the
// improver permutes. Meals are not items: the scheduler force-inserts
// them whenever the clock enters their window, so any permutation of
// items keeps meals anchored.
type item struct {
	kind     string // KindVisit or KindBreak
	cand     int
	breakMin float64
}

// visitPreview holds the projected timing of a visit before committing.
type visitPreview struct {
	travel float64
	arrive float64
	wait   float64
	access string
	price  float64
	end    float64
}

// simState advances one plan through time. The builder steps it forward
// while choosing items; schedule() replays a finished sequence with the
// identical transition so both always agree.
type simState struct {
	p     *Problem
	cands []Candidate

	clock     float64
	loc       park.Coordinate
	led       *Ledger
	mealIdx   int
	breakUsed float64
	seen      map[int]int // cand index -> visit count

	plan Plan
}

func newSim(p *Problem, cands []Candidate) *simState {
	return &simState{
		p:     p,
		cands: cands,
		clock: p.OpenMin,
		loc:   p.Park.Entrance,
		led:   NewLedger(p.Prefs, p.Tuning, p.OpenMin),
		seen:  map[int]int{},
	}
}

// insertDueMeals force-inserts every pending meal whose window the clock
// has entered. Returns false when a due meal no longer fits before close.
func (s *simState) insertDueMeals() bool {
	for s.mealIdx < len(s.p.Prefs.Meals) {
		mw := s.p.Prefs.Meals[s.mealIdx]
		if s.clock < mw.StartMin {
			return true
		}
		end := s.clock + mw.DurationMin
		if end > s.p.CloseMin {
			if mw.Flexible {
				s.mealIdx++
				continue
			}
			return false
		}
		s.plan.Entries = append(s.plan.Entries, Entry{
			Kind:      KindMeal,
			MealLabel: mw.Label,
			StartMin:  s.clock,
			EndMin:    end,
		})
		s.clock = end
		s.mealIdx++
	}
	return true
}

// effectiveWait decides queue mode for one attraction at an arrival
// time: included token first, paid individual while the token is on
// cooldown, standby otherwise. The ledger is only consulted, not
// mutated, so the builder can preview candidates freely.
func (s *simState) effectiveWait(a *park.Attraction, arrive float64) (wait float64, access string, price float64) {
	standby := WaitAt(a, arrive, s.p.CrowdScale)
	pw := s.p.Tuning.PriorityWaitMin
	if pw >= standby {
		return standby, "", 0
	}
	switch a.Access {
	case park.AccessIncluded:
		if s.led.CanUseToken(arrive) {
			return pw, "included", 0
		}
		// token on cooldown: fall back to a paid reservation when the
		// attraction sells one and the cap allows it
		if a.AccessPrice > 0 && s.led.CanSpend(a.AccessPrice) {
			return pw, "paid", a.AccessPrice
		}
	case park.AccessPaid:
		if s.led.CanSpend(a.AccessPrice) {
			return pw, "paid", a.AccessPrice
		}
	}
	return standby, "", 0
}

// previewVisit projects a visit to candidate ci from the current state
// without mutating anything. ok is false when it cannot finish by close.
func (s *simState) previewVisit(ci int) (visitPreview, bool) {
	a := s.cands[ci].A
	travel := WalkMinutes(s.loc, a.Location, s.p.Party, s.p.Tuning)
	arrive := s.clock + travel
	if arrive >= s.p.CloseMin {
		return visitPreview{}, false
	}
	wait, access, price := s.effectiveWait(a, arrive)
	end := arrive + wait + a.DurationMin
	if end > s.p.CloseMin {
		return visitPreview{}, false
	}
	return visitPreview{travel: travel, arrive: arrive, wait: wait, access: access, price: price, end: end}, true
}

// effValue is a candidate's value at its next repetition, decayed
// geometrically so repeats never dominate the pool.
func (s *simState) effValue(ci int) float64 {
	v := s.cands[ci].Value
	return v * math.Pow(s.p.Tuning.RepeatDecay, float64(s.seen[ci]))
}

func (s *simState) applyVisit(ci int) bool {
	if !s.insertDueMeals() {
		return false
	}
	pv, ok := s.previewVisit(ci)
	if !ok {
		return false
	}
	c := s.cands[ci]
	e := Entry{
		Kind:       KindVisit,
		Cand:       ci,
		Attraction: c.A,
		StartMin:   pv.arrive,
		EndMin:     pv.end,
		WaitMin:    pv.wait,
		TravelMin:  pv.travel,
		Access:     pv.access,
	}
	if c.HeightUncertain {
		e.Warnings = append(e.Warnings, "height requirement unverified for some children")
	}
	if s.p.Prefs.MaxWaitMin > 0 && pv.wait > s.p.Prefs.MaxWaitMin {
		e.Warnings = append(e.Warnings, fmt.Sprintf("forecast wait %.0fm exceeds max wait %.0fm", pv.wait, s.p.Prefs.MaxWaitMin))
		s.plan.Violations++
	}
	switch pv.access {
	case "included":
		s.led.UseToken(pv.arrive, pv.arrive+pv.wait, c.A.AccessClass)
		s.plan.TokenUses++
	case "paid":
		s.led.Spend(pv.price)
		s.plan.PaidSpend += pv.price
	}
	s.plan.Entries = append(s.plan.Entries, e)
	s.plan.Value += s.effValue(ci)
	s.plan.TotalWait += pv.wait
	s.plan.TotalWalk += pv.travel
	s.plan.Visits++
	s.seen[ci]++
	s.clock = pv.end
	s.loc = c.A.Location
	return true
}

func (s *simState) applyBreak(min float64) bool {
	if !s.insertDueMeals() {
		return false
	}
	end := s.clock + min
	if end > s.p.CloseMin {
		return false
	}
	s.plan.Entries = append(s.plan.Entries, Entry{Kind: KindBreak, StartMin: s.clock, EndMin: end})
	s.breakUsed += min
	s.clock = end
	return true
}

// finish inserts any meal whose window opens after the last scheduled
// entry, padding the gap with an idle break so the plan stays contiguous.
// A meal that can no longer end by close is never scheduled: the day
// simply overran its window, which counts as a soft violation for a
// fixed meal and is silent for a flexible one.
func (s *simState) finish() {
	for s.mealIdx < len(s.p.Prefs.Meals) {
		mw := s.p.Prefs.Meals[s.mealIdx]
		start := s.clock
		if mw.StartMin > start {
			start = mw.StartMin
		}
		if start+mw.DurationMin > s.p.CloseMin {
			if !mw.Flexible {
				s.plan.Violations++
			}
			s.mealIdx++
			continue
		}
		if start > s.clock {
			s.plan.Entries = append(s.plan.Entries, Entry{Kind: KindBreak, StartMin: s.clock, EndMin: start})
			s.clock = start
		}
		s.plan.Entries = append(s.plan.Entries, Entry{
			Kind:      KindMeal,
			MealLabel: mw.Label,
			StartMin:  s.clock,
			EndMin:    s.clock + mw.DurationMin,
		})
		s.clock += mw.DurationMin
		s.mealIdx++
	}
}

// schedule replays a full item sequence from the open of day. ok is
// false when any item no longer fits, which rejects the improver move
// that produced the sequence.
func schedule(p *Problem, cands []Candidate, seq []item) (Plan, bool) {
	s := newSim(p, cands)
	for _, it := range seq {
		var ok bool
		switch it.kind {
		case KindVisit:
			ok = s.applyVisit(it.cand)
		case KindBreak:
			ok = s.applyBreak(it.breakMin)
		}
		if !ok {
			return Plan{}, false
		}
	}
	s.finish()
	s.plan.Score = scorePlan(p.Tuning, &s.plan)
	return s.plan, true
}
