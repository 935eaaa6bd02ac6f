package opt

import (
	"strings"
	"testing"

	"parkday/internal/park"
)

func mustFilter(t *testing.T, p Problem) []Candidate {
	t.Helper()
	cands, err := FilterCandidates(p)
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	return cands
}

func TestBuildRouteOrderedAndUnique(t *testing.T) {
	p := testProblem()
	plan, _ := BuildRoute(&p, mustFilter(t, p))
	checkInvariants(t, p, plan)
	if plan.Visits == 0 {
		t.Fatalf("empty baseline plan")
	}
	seen := map[string]bool{}
	for _, e := range plan.Entries {
		if e.Kind != KindVisit {
			continue
		}
		if seen[e.Attraction.ID] {
			t.Fatalf("attraction %s visited twice with repeats disallowed", e.Attraction.ID)
		}
		seen[e.Attraction.ID] = true
	}
}

func TestBuildRouteMustIncludeBeforeWaitExceedsMax(t *testing.T) {
	// curve rises from 10m at 09:30 to 70m at 15:00; max-wait 30m is
	// first exceeded at 11:20 (minute 680), so the visit must land by then
	p := testProblem()
	p.Prefs.PriorityIDs = []string{"a_coaster"}
	p.Prefs.MaxWaitMin = 30
	plan, _ := BuildRoute(&p, mustFilter(t, p))
	for _, e := range plan.Entries {
		if e.Kind == KindVisit && e.Attraction.ID == "a_coaster" {
			if e.StartMin > 680 {
				t.Fatalf("must-include scheduled at %.1f, after the forecast exceeds max-wait", e.StartMin)
			}
			return
		}
	}
	t.Fatalf("must-include attraction missing from plan")
}

func TestBuildRouteMealForceInserted(t *testing.T) {
	p := testProblem()
	p.Prefs.Meals = []MealWindow{{Label: "lunch", StartMin: 720, EndMin: 810, DurationMin: 45}}
	plan, _ := BuildRoute(&p, mustFilter(t, p))
	checkInvariants(t, p, plan)
	for _, e := range plan.Entries {
		if e.Kind == KindMeal {
			if e.MealLabel != "lunch" {
				t.Fatalf("meal label %q", e.MealLabel)
			}
			if e.StartMin < 720 {
				t.Fatalf("meal inserted before its window: %.1f", e.StartMin)
			}
			if e.EndMin-e.StartMin != 45 {
				t.Fatalf("meal duration %.1f", e.EndMin-e.StartMin)
			}
			return
		}
	}
	t.Fatalf("lunch never inserted")
}

func TestBuildRouteMealOverrunNearClose(t *testing.T) {
	// a 55-minute visit overruns the fixed lunch window; with five minutes
	// left before close the meal must be dropped, never scheduled past close
	p := testProblem()
	p.OpenMin, p.CloseMin = 540, 600
	p.Park = park.Park{
		ID: "pk_short", Name: "Shortday", OpenMin: 540, CloseMin: 600,
		Attractions: []park.Attraction{{
			ID: "long_show", Name: "Long Show", Category: park.CategoryShow,
			DurationMin: 55, Popularity: 0.9,
			WaitCurve: []park.WaitSample{{MinuteOfDay: 540, WaitMin: 0}},
		}},
	}
	p.Prefs.Meals = []MealWindow{{Label: "lunch", StartMin: 550, EndMin: 590, DurationMin: 45}}
	plan, _ := BuildRoute(&p, mustFilter(t, p))
	checkInvariants(t, p, plan)
	for _, e := range plan.Entries {
		if e.Kind == KindMeal {
			t.Fatalf("meal scheduled %.1f-%.1f despite not fitting before close", e.StartMin, e.EndMin)
		}
	}
	if plan.Violations == 0 {
		t.Fatalf("dropped fixed meal not recorded as a violation")
	}

	// a flexible meal in the same spot is skipped silently
	p.Prefs.Meals[0].Flexible = true
	plan, _ = BuildRoute(&p, mustFilter(t, p))
	checkInvariants(t, p, plan)
	if plan.Violations != 0 {
		t.Fatalf("flexible meal skip counted as a violation")
	}
}

func TestBuildRouteTighterMaxWaitNeverRaisesScheduledWait(t *testing.T) {
	// a standby visit's wait is always the forecast at its arrival time;
	// tightening max-wait steers visits toward slots that clear the
	// threshold and flags the remainder, it never inflates a wait
	for _, max := range []float64{0, 60, 30, 15} {
		p := testProblem()
		p.Prefs.MaxWaitMin = max
		plan, _ := BuildRoute(&p, mustFilter(t, p))
		checkInvariants(t, p, plan)
		flagged := 0
		for _, e := range plan.Entries {
			if e.Kind != KindVisit {
				continue
			}
			if e.Access == "" {
				if f := WaitAt(e.Attraction, e.StartMin, p.CrowdScale); e.WaitMin > f+scoreEps {
					t.Fatalf("max=%.0f: %s wait %.1f above forecast %.1f", max, e.Attraction.ID, e.WaitMin, f)
				}
			}
			if max > 0 && e.WaitMin > max+scoreEps {
				flagged++
				if len(e.Warnings) == 0 {
					t.Fatalf("max=%.0f: over-threshold visit %s carries no warning", max, e.Attraction.ID)
				}
			}
		}
		if plan.Violations != flagged {
			t.Fatalf("max=%.0f: violations=%d, flagged visits=%d", max, plan.Violations, flagged)
		}
	}
}

func TestBuildRouteBreaksWhenNothingClears(t *testing.T) {
	p := testProblem()
	p.Prefs.MaxWaitMin = 1 // nothing clears; breaks should be spent first
	p.Prefs.BreakBudgetMin = 30
	plan, _ := BuildRoute(&p, mustFilter(t, p))
	checkInvariants(t, p, plan)
	var breakMin float64
	for _, e := range plan.Entries {
		if e.Kind == KindBreak {
			breakMin += e.EndMin - e.StartMin
		}
	}
	if breakMin == 0 {
		t.Fatalf("no break inserted despite nothing clearing max-wait")
	}
	if breakMin > 30 {
		t.Fatalf("break budget exceeded: %.1f", breakMin)
	}
}

func TestBuildRouteRepeatsDecay(t *testing.T) {
	p := testProblem()
	p.Prefs.AllowRepeats = true
	plan, _ := BuildRoute(&p, mustFilter(t, p))
	checkInvariants(t, p, plan)
	counts := map[string]int{}
	for _, e := range plan.Entries {
		if e.Kind == KindVisit {
			counts[e.Attraction.ID]++
		}
	}
	if len(counts) < len(p.Park.Attractions) {
		t.Fatalf("repeats crowded out first visits: %v", counts)
	}
}

func TestBuildRouteViolationWarning(t *testing.T) {
	p := testProblem()
	p.Prefs.MaxWaitMin = 1
	p.Prefs.BreakBudgetMin = 0
	plan, _ := BuildRoute(&p, mustFilter(t, p))
	if plan.Violations == 0 {
		t.Fatalf("expected soft violations with max-wait=1 and no break budget")
	}
	found := false
	for _, e := range plan.Entries {
		for _, w := range e.Warnings {
			if strings.Contains(w, "exceeds max wait") {
				found = true
			}
		}
	}
	if !found {
		t.Fatalf("violation carries no warning")
	}
}

func TestBuildRoutePriorityAccessRespectsLedger(t *testing.T) {
	p := testProblem()
	p.Prefs.UseToken = true
	p.Prefs.AllowRepeats = true
	plan, _ := BuildRoute(&p, mustFilter(t, p))
	// consecutive token bookings must honor the class cooldown and the
	// redemption of the previous reservation
	var lastBook, lastRedeem float64 = -1, -1
	lastClass := ""
	for _, e := range plan.Entries {
		if e.Kind != KindVisit || e.Access != "included" {
			continue
		}
		book := e.StartMin
		if lastBook >= 0 {
			floor := lastBook + p.Tuning.CooldownMin[lastClass]
			if lastRedeem > floor {
				floor = lastRedeem
			}
			if book+scoreEps < floor {
				t.Fatalf("token booked at %.1f before floor %.1f", book, floor)
			}
		}
		lastBook, lastRedeem, lastClass = book, e.StartMin+e.WaitMin, e.Attraction.AccessClass
	}
}

func TestBuildRoutePaidSpendCap(t *testing.T) {
	p := testProblem()
	p.Prefs.UsePaid = true
	p.Prefs.SpendCap = 12
	p.Prefs.AllowRepeats = true
	plan, _ := BuildRoute(&p, mustFilter(t, p))
	if plan.PaidSpend > 12 {
		t.Fatalf("paid spend %.2f exceeds cap", plan.PaidSpend)
	}
}
