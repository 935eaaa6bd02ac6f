package api

import (
	"fmt"
	"time"

	"parkday/internal/model"
)

func validateOptimizeRequest(req *model.OptimizeRequest) error {
	if req.ParkID == "" {
		return fmt.Errorf("parkId is required")
	}
	if req.Date == "" {
		return fmt.Errorf("planDate is required")
	}
	if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		return fmt.Errorf("planDate must be YYYY-MM-DD")
	}
	if req.Party.Adults < 0 || req.Party.Children < 0 || req.Party.Seniors < 0 {
		return fmt.Errorf("party counts must be >= 0")
	}
	if req.Party.Adults+req.Party.Children+req.Party.Seniors == 0 {
		return fmt.Errorf("party must have at least one member")
	}
	switch req.Party.Pace {
	case "", "slow", "moderate", "fast":
	default:
		return fmt.Errorf("invalid pace: %s (allowed: slow, moderate, fast)", req.Party.Pace)
	}
	for _, age := range req.Party.ChildAges {
		if age < 0 {
			return fmt.Errorf("childAges must be >= 0")
		}
	}
	p := &req.Preferences
	switch p.CategoryFilter {
	case "", "thrill", "family", "all":
	default:
		return fmt.Errorf("invalid categoryFilter: %s (allowed: thrill, family, all)", p.CategoryFilter)
	}
	if p.MaxWaitMin < 0 {
		return fmt.Errorf("maxWaitMin must be >= 0")
	}
	if p.BreakBudgetMin < 0 {
		return fmt.Errorf("breakBudgetMin must be >= 0")
	}
	if p.PaidSpendCap < 0 {
		return fmt.Errorf("paidSpendCap must be >= 0")
	}
	if req.CrowdMultiplier < 0 {
		return fmt.Errorf("crowdMultiplier must be >= 0")
	}
	if req.MaxImproverMoves < 0 {
		return fmt.Errorf("maxImproverMoves must be >= 0")
	}
	return nil
}
