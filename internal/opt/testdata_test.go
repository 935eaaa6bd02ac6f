package opt

import "parkday/internal/park"

// Shared fixture: a small five-attraction park open 09:00-21:00.
func testPark() park.Park {
	return park.Park{
		ID:       "pk_test",
		Name:     "Testland",
		Entrance: park.Coordinate{X: 0, Y: 0},
		OpenMin:  540,
		CloseMin: 1260,
		Attractions: []park.Attraction{
			{
				ID: "a_coaster", Name: "Apex Coaster", Category: park.CategoryRide,
				Thrill: true, MinHeightCm: 120, DurationMin: 5, Popularity: 0.9,
				Access: park.AccessIncluded, AccessClass: "high",
				Location: park.Coordinate{X: 400, Y: 300},
				WaitCurve: []park.WaitSample{
					{MinuteOfDay: 570, WaitMin: 10},
					{MinuteOfDay: 900, WaitMin: 70},
					{MinuteOfDay: 1200, WaitMin: 40},
				},
			},
			{
				ID: "b_dark", Name: "Shadow Manor", Category: park.CategoryRide,
				Indoor: true, DurationMin: 8, Popularity: 0.8,
				Access: park.AccessIncluded, AccessClass: "standard",
				Location: park.Coordinate{X: 200, Y: 100},
				WaitCurve: []park.WaitSample{
					{MinuteOfDay: 540, WaitMin: 15},
					{MinuteOfDay: 900, WaitMin: 60},
					{MinuteOfDay: 1200, WaitMin: 30},
				},
			},
			{
				ID: "c_show", Name: "Grand Revue", Category: park.CategoryShow,
				Indoor: true, DurationMin: 25, Popularity: 0.6,
				Access:   park.AccessNone,
				Location: park.Coordinate{X: 600, Y: 200},
				WaitCurve: []park.WaitSample{
					{MinuteOfDay: 540, WaitMin: 10},
					{MinuteOfDay: 1200, WaitMin: 10},
				},
			},
			{
				ID: "d_meet", Name: "Character Plaza", Category: park.CategoryMeet,
				DurationMin: 10, Popularity: 0.4,
				Access:   park.AccessNone,
				Location: park.Coordinate{X: 100, Y: 400},
				WaitCurve: []park.WaitSample{
					{MinuteOfDay: 540, WaitMin: 20},
					{MinuteOfDay: 900, WaitMin: 40},
					{MinuteOfDay: 1200, WaitMin: 20},
				},
			},
			{
				ID: "e_flat", Name: "Harbor Spinner", Category: park.CategoryRide,
				DurationMin: 4, Popularity: 0.5,
				Access: park.AccessPaid, AccessPrice: 12, AccessClass: "standard",
				Location: park.Coordinate{X: 500, Y: 500},
				WaitCurve: []park.WaitSample{
					{MinuteOfDay: 540, WaitMin: 5},
					{MinuteOfDay: 900, WaitMin: 25},
					{MinuteOfDay: 1200, WaitMin: 15},
				},
			},
		},
	}
}

func testProblem() Problem {
	return Problem{
		Park:     testPark(),
		OpenMin:  540,
		CloseMin: 1260,
		Party: Party{
			Adults:    2,
			Children:  1,
			ChildAges: []int{9},
			Pace:      PaceModerate,
		},
		Prefs: Prefs{
			Category:   "all",
			MaxWaitMin: 60,
		},
		Tuning:     DefaultTuning(),
		CrowdScale: 1,
	}
}

// checkInvariants asserts the structural plan invariants every returned
// plan must satisfy: time-ordered, non-overlapping, inside the window.
func checkInvariants(t interface {
	Helper()
	Fatalf(string, ...any)
}, p Problem, plan Plan) {
	t.Helper()
	prevEnd := p.OpenMin
	for i, e := range plan.Entries {
		if e.StartMin+scoreEps < prevEnd {
			t.Fatalf("entry %d overlaps previous: start=%.1f prevEnd=%.1f", i, e.StartMin, prevEnd)
		}
		if e.EndMin < e.StartMin {
			t.Fatalf("entry %d ends before it starts", i)
		}
		if e.StartMin < p.OpenMin || e.StartMin > p.CloseMin {
			t.Fatalf("entry %d starts outside operating window: %.1f", i, e.StartMin)
		}
		if e.EndMin > p.CloseMin+scoreEps {
			t.Fatalf("entry %d (%s) ends after close: %.1f", i, e.Kind, e.EndMin)
		}
		prevEnd = e.EndMin
	}
}
