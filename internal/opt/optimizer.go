package opt

import "sync"

// Labels for the plans returned by one optimization call.
const (
	LabelPrimary   = "primary"
	LabelHighCrowd = "high_crowd"
	LabelRain      = "rain"
)

// Alternate is a labeled degraded-case plan.
type Alternate struct {
	Label   string
	Plan    Plan
	Metrics SearchMetrics
}

// Result is the full outcome of one OptimizeDay call.
type Result struct {
	Primary        Plan
	PrimaryMetrics SearchMetrics
	Alternates     []Alternate
}

// OptimizeDay produces the primary plan plus labeled alternates for one
// park day. Pure function of its inputs: the ledger and every other
// piece of state is call-scoped, and the pipeline is deterministic, so
// identical inputs yield identical plans.
//
// The high-crowd alternate is always computed (wait curves inflated by
// the tuning multiplier); the rain alternate only when the preferences
// ask for weather adaptation. Alternates run concurrently with each
// other since their candidate pools are independent.
func OptimizeDay(p Problem) (Result, error) {
	if p.CrowdScale <= 0 {
		p.CrowdScale = 1
	}
	// configuration conflicts surface before any scheduling attempt
	if _, err := FilterCandidates(p); err != nil {
		return Result{}, err
	}
	if reason := infeasibleReason(p); reason != "" {
		return Result{
			Primary: Plan{Reason: reason},
			Alternates: []Alternate{
				{Label: LabelHighCrowd, Plan: Plan{Reason: reason}},
			},
		}, nil
	}

	res := Result{}

	high := p
	high.CrowdScale = p.CrowdScale * p.Tuning.CrowdMultiplier
	var rain *Problem
	if p.Prefs.WeatherAdapt {
		r := p
		r.IndoorOnly = true
		rain = &r
	}

	var wg sync.WaitGroup
	var highPlan, rainPlan Plan
	var highM, rainM SearchMetrics
	wg.Add(1)
	go func() {
		defer wg.Done()
		highPlan, highM = runPipeline(high)
	}()
	if rain != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rainPlan, rainM = runPipeline(*rain)
		}()
	}
	res.Primary, res.PrimaryMetrics = runPipeline(p)
	wg.Wait()

	res.Alternates = append(res.Alternates, Alternate{Label: LabelHighCrowd, Plan: highPlan, Metrics: highM})
	if rain != nil {
		res.Alternates = append(res.Alternates, Alternate{Label: LabelRain, Plan: rainPlan, Metrics: rainM})
	}
	return res, nil
}

// runPipeline executes filter -> build -> improve for one variant.
// Conflicts were already checked by OptimizeDay, so a filter error here
// cannot occur; an empty pool yields an empty plan with a reason.
func runPipeline(p Problem) (Plan, SearchMetrics) {
	m := SearchMetrics{}
	cands, err := FilterCandidates(p)
	if err != nil {
		return Plan{Reason: err.Error()}, m
	}
	m.Candidates = len(cands)
	if len(cands) == 0 {
		reason := "no eligible attractions for this party and preference set"
		if p.IndoorOnly {
			reason = "no indoor or covered attractions available"
		}
		return Plan{Reason: reason}, m
	}
	base, seq := BuildRoute(&p, cands)
	for _, e := range base.Entries {
		if e.Kind == KindVisit {
			m.BuiltVisits++
		}
	}
	m.InitialScore = base.Score
	if len(base.Entries) == 0 {
		base.Reason = "no candidate fits within the operating window"
		m.FinalScore = base.Score
		return base, m
	}
	improved, _ := Improve(&p, cands, seq, base, &m)
	m.FinalScore = improved.Score
	return improved, m
}

// infeasibleReason reports why no scheduling attempt can succeed at all:
// an empty operating window, or a fixed meal window that cannot fit.
func infeasibleReason(p Problem) string {
	if p.CloseMin <= p.OpenMin {
		return "operating window is empty"
	}
	for _, mw := range p.Prefs.Meals {
		if mw.Flexible {
			continue
		}
		if mw.StartMin >= p.CloseMin || mw.StartMin+mw.DurationMin > p.CloseMin || mw.EndMin <= p.OpenMin {
			return "operating window too short to fit the " + mw.Label + " window"
		}
	}
	return ""
}
