package model

import "fmt"

// Wire types for the itinerary API.

// TimeWindow is a clock interval in "HH:MM".
type TimeWindow struct {
	Open  string `json:"open"`
	Close string `json:"close"`
}

// PartyProfile describes who is touring. Children's ages feed the
// conservative height-eligibility check; flags scale walking time.
type PartyProfile struct {
	Adults      int    `json:"adults"`
	Children    int    `json:"children,omitempty"`
	Seniors     int    `json:"seniors,omitempty"`
	ChildAges   []int  `json:"childAges,omitempty"`
	Stroller    bool   `json:"stroller,omitempty"`
	MobilityAid bool   `json:"mobilityAid,omitempty"`
	Pace        string `json:"pace,omitempty"` // slow, moderate, fast
}

// MealWindow anchors a meal to a preferred clock interval.
type MealWindow struct {
	Start       string `json:"start"`
	End         string `json:"end"`
	DurationMin int    `json:"durationMin,omitempty"`
	Flexible    bool   `json:"flexible,omitempty"`
}

type Preferences struct {
	PriorityIDs       []string    `json:"priorityIds,omitempty"` // must-include, ranked
	ExcludedIDs       []string    `json:"excludedIds,omitempty"`
	CategoryFilter    string      `json:"categoryFilter,omitempty"` // thrill, family, all
	MaxWaitMin        int         `json:"maxWaitMin,omitempty"`     // per-attraction acceptable wait
	BreakBudgetMin    int         `json:"breakBudgetMin,omitempty"`
	Lunch             *MealWindow `json:"lunch,omitempty"`
	Dinner            *MealWindow `json:"dinner,omitempty"`
	AllowRepeats      bool        `json:"allowRepeats,omitempty"`
	UseIncludedToken  bool        `json:"useIncludedToken,omitempty"`
	UsePaidAccess     bool        `json:"usePaidAccess,omitempty"`
	PaidSpendCap      float64     `json:"paidSpendCap,omitempty"`
	WeatherAdaptation bool        `json:"weatherAdaptation,omitempty"`
}

// OptimizeRequest is the input contract consumed from the planning wizard.
type OptimizeRequest struct {
	TenantID        string       `json:"tenantId,omitempty"`
	ParkID          string       `json:"parkId"`
	Date            string       `json:"planDate"`
	OperatingWindow *TimeWindow  `json:"operatingWindow,omitempty"` // defaults to the park's hours
	Party           PartyProfile `json:"party"`
	Preferences     Preferences  `json:"preferences"`
	// Tuning overrides
	CrowdMultiplier  float64 `json:"crowdMultiplier,omitempty"`
	MaxImproverMoves int     `json:"maxImproverMoves,omitempty"`
}

// PlanEntry is one row of the ordered day schedule.
type PlanEntry struct {
	Kind           string   `json:"kind"` // visit, break, meal
	Start          string   `json:"start"`
	End            string   `json:"end"`
	AttractionID   string   `json:"attractionId,omitempty"`
	AttractionName string   `json:"attractionName,omitempty"`
	WaitMin        float64  `json:"waitMin,omitempty"`
	TravelMin      float64  `json:"travelMin,omitempty"`
	Access         string   `json:"access,omitempty"` // included, paid
	MealLabel      string   `json:"mealLabel,omitempty"`
	Warnings       []string `json:"warnings,omitempty"`
}

type PlanSummary struct {
	TotalWaitMin   float64 `json:"totalWaitMin"`
	TotalWalkMin   float64 `json:"totalWalkMin"`
	Attractions    int     `json:"attractions"`
	TokenUses      int     `json:"tokenUses"`
	PaidSpend      float64 `json:"paidSpend"`
	SoftViolations int     `json:"softViolations"`
	Score          float64 `json:"score"`
}

// Plan is one labeled candidate schedule (primary or an alternate).
type Plan struct {
	Label   string      `json:"label"` // primary, high_crowd, rain
	Entries []PlanEntry `json:"entries"`
	Summary PlanSummary `json:"summary"`
	Reason  string      `json:"reason,omitempty"` // set when the plan is empty
}

// OptimizeResponse is the output contract consumed by the review UI.
type OptimizeResponse struct {
	PlanID     string `json:"planId,omitempty"`
	ParkID     string `json:"parkId"`
	Date       string `json:"planDate"`
	Primary    Plan   `json:"primary"`
	Alternates []Plan `json:"alternates,omitempty"`
}

// PlanRecord is the persisted form of an optimization result.
type PlanRecord struct {
	ID        string           `json:"id"`
	TenantID  string           `json:"tenantId"`
	ParkID    string           `json:"parkId"`
	Date      string           `json:"planDate"`
	CreatedAt string           `json:"createdAt"`
	Request   OptimizeRequest  `json:"request"`
	Result    OptimizeResponse `json:"result"`
}

type SubscriptionRequest struct {
	TenantID string   `json:"tenantId"`
	URL      string   `json:"url"`
	Events   []string `json:"events"`
	Secret   string   `json:"secret"`
}

type Subscription struct {
	ID       string   `json:"id"`
	TenantID string   `json:"tenantId"`
	URL      string   `json:"url"`
	Events   []string `json:"events"`
	Secret   string   `json:"secret,omitempty"`
}

// ParseClock converts "HH:MM" to minutes after midnight.
func ParseClock(s string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid clock %q: %w", s, err)
	}
	if h < 0 || h > 24 || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid clock %q", s)
	}
	return h*60 + m, nil
}

// FormatClock renders minutes after midnight as "HH:MM".
func FormatClock(min int) string {
	if min < 0 {
		min = 0
	}
	return fmt.Sprintf("%02d:%02d", min/60, min%60)
}
