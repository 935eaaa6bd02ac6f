package opt

import (
	"errors"
	"testing"
)

func candidateIDs(cands []Candidate) map[string]bool {
	out := map[string]bool{}
	for _, c := range cands {
		out[c.A.ID] = true
	}
	return out
}

func TestFilterExcludesUnconditionally(t *testing.T) {
	p := testProblem()
	p.Prefs.ExcludedIDs = []string{"a_coaster", "e_flat"}
	cands, err := FilterCandidates(p)
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	ids := candidateIDs(cands)
	if ids["a_coaster"] || ids["e_flat"] {
		t.Fatalf("excluded attraction survived filter: %v", ids)
	}
}

func TestFilterHeightIneligibleChild(t *testing.T) {
	p := testProblem()
	p.Party.ChildAges = []int{5} // est 104cm < 120cm minimum
	cands, err := FilterCandidates(p)
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	if candidateIDs(cands)["a_coaster"] {
		t.Fatalf("height-restricted attraction kept for a too-short child")
	}
}

func TestFilterUnknownAgesKeptWithUncertainty(t *testing.T) {
	p := testProblem()
	p.Party.Children = 2
	p.Party.ChildAges = []int{13} // second child's age unstated
	cands, err := FilterCandidates(p)
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	for _, c := range cands {
		if c.A.ID == "a_coaster" {
			if !c.HeightUncertain {
				t.Fatalf("expected height uncertainty flag")
			}
			return
		}
	}
	t.Fatalf("attraction dropped instead of flagged")
}

func TestFilterCategoryKeepsMustInclude(t *testing.T) {
	p := testProblem()
	p.Prefs.Category = "thrill"
	p.Prefs.PriorityIDs = []string{"c_show"} // not a thrill attraction
	cands, err := FilterCandidates(p)
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	ids := candidateIDs(cands)
	if !ids["c_show"] {
		t.Fatalf("must-include dropped by category filter")
	}
	if ids["b_dark"] || ids["d_meet"] {
		t.Fatalf("non-thrill attraction kept without must-include: %v", ids)
	}
	// must-includes sort first and carry the highest value
	if cands[0].A.ID != "c_show" {
		t.Fatalf("must-include not first: %s", cands[0].A.ID)
	}
	if cands[0].Value <= cands[1].Value {
		t.Fatalf("must-include value %f not above %f", cands[0].Value, cands[1].Value)
	}
}

func TestFilterConflictMustIncludeExcluded(t *testing.T) {
	p := testProblem()
	p.Prefs.PriorityIDs = []string{"b_dark"}
	p.Prefs.ExcludedIDs = []string{"d_meet", "b_dark"}
	_, err := FilterCandidates(p)
	var ce *ConflictError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if ce.AttractionID != "b_dark" {
		t.Fatalf("conflict names %s", ce.AttractionID)
	}
}

func TestFilterConflictMustIncludeHeight(t *testing.T) {
	p := testProblem()
	p.Party.ChildAges = []int{4}
	p.Prefs.PriorityIDs = []string{"a_coaster"}
	_, err := FilterCandidates(p)
	var ce *ConflictError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
}

func TestFilterValueScores(t *testing.T) {
	p := testProblem()
	p.Prefs.PriorityIDs = []string{"d_meet"}
	for _, c := range mustFilter(t, p) {
		switch {
		case c.MustInclude:
			if c.Value != p.Tuning.PriorityValue {
				t.Fatalf("top-ranked must-include scored %.1f, want %.1f", c.Value, p.Tuning.PriorityValue)
			}
		case c.Value != c.A.Popularity*10:
			t.Fatalf("%s scored %.1f, want popularity-weighted %.1f", c.A.ID, c.Value, c.A.Popularity*10)
		}
	}
}

func TestFilterIndoorOnly(t *testing.T) {
	p := testProblem()
	p.IndoorOnly = true
	cands, err := FilterCandidates(p)
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	for _, c := range cands {
		if !c.A.Indoor {
			t.Fatalf("outdoor attraction %s in indoor pool", c.A.ID)
		}
	}
}
