// Package opt implements the single-day itinerary optimizer: candidate
// filtering, greedy construction, and local-search refinement over one
// mutable plan. All inputs are in-memory; the package performs no I/O.
package opt

import (
	"fmt"

	"parkday/internal/park"
)

type Pace string

const (
	PaceSlow     Pace = "slow"
	PaceModerate Pace = "moderate"
	PaceFast     Pace = "fast"
)

// Party mirrors the wire PartyProfile in engine units.
type Party struct {
	Adults      int
	Children    int
	Seniors     int
	ChildAges   []int
	Stroller    bool
	MobilityAid bool
	Pace        Pace
}

// MealWindow in minutes after midnight.
type MealWindow struct {
	Label       string // lunch, dinner
	StartMin    float64
	EndMin      float64
	DurationMin float64
	Flexible    bool
}

type Prefs struct {
	PriorityIDs    []string // must-include, ranked best-first
	ExcludedIDs    []string
	Category       string // thrill, family, all
	MaxWaitMin     float64
	BreakBudgetMin float64
	Meals          []MealWindow // sorted by StartMin
	AllowRepeats   bool
	UseToken       bool
	UsePaid        bool
	SpendCap       float64
	WeatherAdapt   bool
}

// Tuning carries the scoring weights and search knobs. Values come from
// the service config with optional per-request overrides.
type Tuning struct {
	LambdaWait      float64
	LambdaWalk      float64
	LambdaViolation float64
	CrowdMultiplier float64            // high-crowd alternate inflation
	ImproverCap     int                // hard cap on improver move evaluations
	RepeatDecay     float64            // geometric value decay per repeat ride
	PriorityValue   float64            // fixed value for the top-ranked must-include
	PriorityWaitMin float64            // assumed queue time with priority access
	BreakChunkMin   float64            // size of one opportunistic break
	CooldownMin     map[string]float64 // token cooldown per access class
	PaceMultipliers map[Pace]float64
}

func DefaultTuning() Tuning {
	return Tuning{
		LambdaWait:      0.5,
		LambdaWalk:      0.3,
		LambdaViolation: 8,
		CrowdMultiplier: 1.6,
		ImproverCap:     400,
		RepeatDecay:     0.5,
		PriorityValue:   20,
		PriorityWaitMin: 5,
		BreakChunkMin:   15,
		CooldownMin:     map[string]float64{"high": 120, "standard": 60, "low": 30},
		PaceMultipliers: map[Pace]float64{PaceSlow: 1.3, PaceModerate: 1.0, PaceFast: 0.8},
	}
}

// Problem is one optimization call: park + party + preferences, all
// resolved before the engine runs. CrowdScale inflates every wait curve
// and is 1.0 except for the high-crowd alternate.
type Problem struct {
	Park       park.Park
	OpenMin    float64
	CloseMin   float64
	Party      Party
	Prefs      Prefs
	Tuning     Tuning
	CrowdScale float64
	IndoorOnly bool // rain alternate: restrict the pool to indoor/covered
}

const (
	KindVisit = "visit"
	KindBreak = "break"
	KindMeal  = "meal"
)

// Entry is one scheduled row. Entries are time-ordered and contiguous:
// every start equals the previous end plus travel.
type Entry struct {
	Kind       string
	Cand       int              // index into the candidate pool, visits only
	Attraction *park.Attraction // visits only
	StartMin   float64
	EndMin     float64
	WaitMin    float64
	TravelMin  float64
	Access     string // "", "included", "paid"
	MealLabel  string
	Warnings   []string
}

// Plan is an ordered schedule plus aggregate metrics.
type Plan struct {
	Entries    []Entry
	TotalWait  float64
	TotalWalk  float64
	Value      float64 // captured attraction value
	Visits     int
	TokenUses  int
	PaidSpend  float64
	Violations int
	Score      float64
	Reason     string // populated when the plan is empty/infeasible
}

// ConflictError reports a configuration conflict detected before any
// scheduling attempt (must-include vs excluded or height-ineligible).
type ConflictError struct {
	AttractionID string
	Reason       string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("configuration conflict: attraction %s: %s", e.AttractionID, e.Reason)
}

// SearchMetrics summarizes one build+improve run.
type SearchMetrics struct {
	Candidates    int     `json:"candidates"`
	BuiltVisits   int     `json:"builtVisits"`
	Passes        int     `json:"passes"`
	MovesTried    int     `json:"movesTried"`
	MovesAccepted int     `json:"movesAccepted"`
	InitialScore  float64 `json:"initialScore"`
	FinalScore    float64 `json:"finalScore"`
}
