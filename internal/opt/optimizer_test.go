package opt

import (
	"errors"
	"reflect"
	"testing"
)

func TestOptimizeDayIdempotent(t *testing.T) {
	r1, err := OptimizeDay(testProblem())
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}
	r2, err := OptimizeDay(testProblem())
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}
	if !reflect.DeepEqual(r1, r2) {
		t.Fatalf("identical inputs produced different results")
	}
}

func TestOptimizeDayAlwaysHasHighCrowdAlternate(t *testing.T) {
	r, err := OptimizeDay(testProblem())
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}
	for _, alt := range r.Alternates {
		if alt.Label == LabelHighCrowd {
			if alt.Plan.TotalWait < r.Primary.TotalWait && alt.Plan.Visits >= r.Primary.Visits {
				t.Fatalf("inflated forecasts produced a strictly better day")
			}
			return
		}
	}
	t.Fatalf("high-crowd alternate missing")
}

func TestOptimizeDayRainAlternateIndoorOnly(t *testing.T) {
	p := testProblem()
	p.Prefs.WeatherAdapt = true
	r, err := OptimizeDay(p)
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}
	var rain *Alternate
	for i := range r.Alternates {
		if r.Alternates[i].Label == LabelRain {
			rain = &r.Alternates[i]
		}
	}
	if rain == nil {
		t.Fatalf("rain alternate missing with weather adaptation on")
	}
	if rain.Plan.Visits == 0 {
		t.Fatalf("rain plan empty: %s", rain.Plan.Reason)
	}
	for _, e := range rain.Plan.Entries {
		if e.Kind == KindVisit && !e.Attraction.Indoor {
			t.Fatalf("outdoor attraction %s in rain plan", e.Attraction.ID)
		}
	}
}

func TestOptimizeDayNoRainWithoutAdaptation(t *testing.T) {
	r, err := OptimizeDay(testProblem())
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}
	for _, alt := range r.Alternates {
		if alt.Label == LabelRain {
			t.Fatalf("rain alternate returned without weather adaptation")
		}
	}
}

func TestOptimizeDayConflict(t *testing.T) {
	p := testProblem()
	p.Prefs.PriorityIDs = []string{"a_coaster"}
	p.Prefs.ExcludedIDs = []string{"b_dark", "a_coaster"}
	r, err := OptimizeDay(p)
	var ce *ConflictError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if r.Primary.Visits != 0 || len(r.Primary.Entries) != 0 {
		t.Fatalf("conflict result carries visits")
	}
}

func TestOptimizeDayEmptyWindow(t *testing.T) {
	p := testProblem()
	p.CloseMin = p.OpenMin
	r, err := OptimizeDay(p)
	if err != nil {
		t.Fatalf("infeasible day must not error: %v", err)
	}
	if r.Primary.Reason == "" {
		t.Fatalf("empty plan without a reason")
	}
	if len(r.Primary.Entries) != 0 {
		t.Fatalf("entries in an empty-window plan")
	}
}

func TestOptimizeDayMealOutsideWindow(t *testing.T) {
	p := testProblem()
	p.CloseMin = 660 // 11:00, before the dinner window opens
	p.Prefs.Meals = []MealWindow{{Label: "dinner", StartMin: 1080, EndMin: 1140, DurationMin: 45}}
	r, err := OptimizeDay(p)
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}
	if r.Primary.Reason == "" {
		t.Fatalf("expected an infeasible-day reason")
	}
}

func TestOptimizeDayShrinkingWindowCoversNoMore(t *testing.T) {
	long := testProblem()
	rLong, err := OptimizeDay(long)
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}
	short := testProblem()
	short.CloseMin = 700
	rShort, err := OptimizeDay(short)
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}
	if rShort.Primary.Visits > rLong.Primary.Visits {
		t.Fatalf("shrinking the window increased coverage: %d > %d", rShort.Primary.Visits, rLong.Primary.Visits)
	}
}

func TestOptimizeDayExcludedNeverAppear(t *testing.T) {
	p := testProblem()
	p.Prefs.ExcludedIDs = []string{"c_show", "e_flat"}
	r, err := OptimizeDay(p)
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}
	plans := []Plan{r.Primary}
	for _, alt := range r.Alternates {
		plans = append(plans, alt.Plan)
	}
	for _, pl := range plans {
		for _, e := range pl.Entries {
			if e.Kind == KindVisit && (e.Attraction.ID == "c_show" || e.Attraction.ID == "e_flat") {
				t.Fatalf("excluded attraction scheduled")
			}
		}
	}
}
