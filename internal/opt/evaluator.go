package opt

const scoreEps = 1e-9

// scorePlan computes the scalar plan score: captured value minus
// weighted wait, walk, and soft-violation penalties. Hard constraints
// never reach here; infeasible sequences are rejected during scheduling.
func scorePlan(t Tuning, p *Plan) float64 {
	return p.Value - t.LambdaWait*p.TotalWait - t.LambdaWalk*p.TotalWalk - t.LambdaViolation*float64(p.Violations)
}

// better reports whether candidate strictly beats incumbent: higher
// score, or an equal score with strictly less total wait.
func better(candidate, incumbent *Plan) bool {
	if candidate.Score > incumbent.Score+scoreEps {
		return true
	}
	if candidate.Score >= incumbent.Score-scoreEps && candidate.TotalWait+scoreEps < incumbent.TotalWait {
		return true
	}
	return false
}
