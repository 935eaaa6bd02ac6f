package api

import (
	"fmt"
	"math"
	"sort"

	"parkday/internal/model"
	"parkday/internal/opt"
	"parkday/internal/park"
)

// buildProblem resolves a wire request against the park catalog entry into
// an engine problem. Clock fields are parsed here so a malformed window
// surfaces as a 400, not an engine error.
func (s *Server) buildProblem(req model.OptimizeRequest, pk park.Park) (opt.Problem, error) {
	openMin := float64(pk.OpenMin)
	closeMin := float64(pk.CloseMin)
	if req.OperatingWindow != nil {
		o, err := model.ParseClock(req.OperatingWindow.Open)
		if err != nil {
			return opt.Problem{}, fmt.Errorf("operatingWindow.open: %w", err)
		}
		c, err := model.ParseClock(req.OperatingWindow.Close)
		if err != nil {
			return opt.Problem{}, fmt.Errorf("operatingWindow.close: %w", err)
		}
		openMin, closeMin = float64(o), float64(c)
	}

	pace := opt.PaceModerate
	if req.Party.Pace != "" {
		pace = opt.Pace(req.Party.Pace)
	}
	party := opt.Party{
		Adults:      req.Party.Adults,
		Children:    req.Party.Children,
		Seniors:     req.Party.Seniors,
		ChildAges:   req.Party.ChildAges,
		Stroller:    req.Party.Stroller,
		MobilityAid: req.Party.MobilityAid,
		Pace:        pace,
	}

	meals := []opt.MealWindow{}
	for _, mw := range []struct {
		label string
		win   *model.MealWindow
	}{{"lunch", req.Preferences.Lunch}, {"dinner", req.Preferences.Dinner}} {
		if mw.win == nil {
			continue
		}
		start, err := model.ParseClock(mw.win.Start)
		if err != nil {
			return opt.Problem{}, fmt.Errorf("%s.start: %w", mw.label, err)
		}
		end, err := model.ParseClock(mw.win.End)
		if err != nil {
			return opt.Problem{}, fmt.Errorf("%s.end: %w", mw.label, err)
		}
		if end <= start {
			return opt.Problem{}, fmt.Errorf("%s window must end after it starts", mw.label)
		}
		dur := float64(mw.win.DurationMin)
		if dur <= 0 {
			dur = 45
		}
		meals = append(meals, opt.MealWindow{
			Label:       mw.label,
			StartMin:    float64(start),
			EndMin:      float64(end),
			DurationMin: dur,
			Flexible:    mw.win.Flexible,
		})
	}
	sort.Slice(meals, func(i, j int) bool { return meals[i].StartMin < meals[j].StartMin })

	prefs := opt.Prefs{
		PriorityIDs:    req.Preferences.PriorityIDs,
		ExcludedIDs:    req.Preferences.ExcludedIDs,
		Category:       req.Preferences.CategoryFilter,
		MaxWaitMin:     float64(req.Preferences.MaxWaitMin),
		BreakBudgetMin: float64(req.Preferences.BreakBudgetMin),
		Meals:          meals,
		AllowRepeats:   req.Preferences.AllowRepeats,
		UseToken:       req.Preferences.UseIncludedToken,
		UsePaid:        req.Preferences.UsePaidAccess,
		SpendCap:       req.Preferences.PaidSpendCap,
		WeatherAdapt:   req.Preferences.WeatherAdaptation,
	}

	tuning := s.Tuning
	// per-request knob overrides
	if req.CrowdMultiplier > 1 {
		tuning.CrowdMultiplier = req.CrowdMultiplier
	}
	if req.MaxImproverMoves > 0 {
		tuning.ImproverCap = req.MaxImproverMoves
	}

	return opt.Problem{
		Park:     pk,
		OpenMin:  openMin,
		CloseMin: closeMin,
		Party:    party,
		Prefs:    prefs,
		Tuning:   tuning,
	}, nil
}

func toWirePlan(label string, p opt.Plan) model.Plan {
	entries := make([]model.PlanEntry, 0, len(p.Entries))
	for _, e := range p.Entries {
		we := model.PlanEntry{
			Kind:      e.Kind,
			Start:     model.FormatClock(int(math.Round(e.StartMin))),
			End:       model.FormatClock(int(math.Round(e.EndMin))),
			WaitMin:   round1(e.WaitMin),
			TravelMin: round1(e.TravelMin),
			Access:    e.Access,
			MealLabel: e.MealLabel,
			Warnings:  e.Warnings,
		}
		if e.Kind == opt.KindVisit && e.Attraction != nil {
			we.AttractionID = e.Attraction.ID
			we.AttractionName = e.Attraction.Name
		}
		entries = append(entries, we)
	}
	return model.Plan{
		Label:   label,
		Entries: entries,
		Summary: model.PlanSummary{
			TotalWaitMin:   round1(p.TotalWait),
			TotalWalkMin:   round1(p.TotalWalk),
			Attractions:    p.Visits,
			TokenUses:      p.TokenUses,
			PaidSpend:      p.PaidSpend,
			SoftViolations: p.Violations,
			Score:          round1(p.Score),
		},
		Reason: p.Reason,
	}
}

func toWireResult(req model.OptimizeRequest, res opt.Result) model.OptimizeResponse {
	out := model.OptimizeResponse{
		ParkID:  req.ParkID,
		Date:    req.Date,
		Primary: toWirePlan(opt.LabelPrimary, res.Primary),
	}
	for _, alt := range res.Alternates {
		out.Alternates = append(out.Alternates, toWirePlan(alt.Label, alt.Plan))
	}
	return out
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
