package opt

// BuildRoute constructs the baseline plan by greedy time-respecting
// insertion: starting at the entrance at open, repeatedly take the
// candidate with the best value per minute of (wait + travel + visit),
// preferring candidates that clear the party's max-wait threshold and
// spending break budget when none do. Intentionally myopic; the result
// feeds the improver.
func BuildRoute(p *Problem, cands []Candidate) (Plan, []item) {
	sim := newSim(p, cands)
	seq := []item{}
	for {
		if !sim.insertDueMeals() {
			break
		}
		bestAny, bestClear := -1, -1
		var ratioAny, ratioClear float64
		for ci := range cands {
			if !p.Prefs.AllowRepeats && sim.seen[ci] > 0 {
				continue
			}
			pv, ok := sim.previewVisit(ci)
			if !ok || pv.end <= sim.clock {
				continue
			}
			denom := pv.wait + pv.travel + cands[ci].A.DurationMin
			if denom < 1 {
				denom = 1
			}
			ratio := sim.effValue(ci) / denom
			if bestAny == -1 || ratio > ratioAny {
				bestAny, ratioAny = ci, ratio
			}
			if p.Prefs.MaxWaitMin <= 0 || pv.wait <= p.Prefs.MaxWaitMin {
				if bestClear == -1 || ratio > ratioClear {
					bestClear, ratioClear = ci, ratio
				}
			}
		}
		switch {
		case bestClear >= 0:
			if !sim.applyVisit(bestClear) {
				return finishBuild(p, cands, seq)
			}
			seq = append(seq, item{kind: KindVisit, cand: bestClear})
		case bestAny >= 0 && sim.breakUsed+p.Tuning.BreakChunkMin <= p.Prefs.BreakBudgetMin:
			// nothing clears max-wait right now: burn a break and retry later
			if !sim.applyBreak(p.Tuning.BreakChunkMin) {
				return finishBuild(p, cands, seq)
			}
			seq = append(seq, item{kind: KindBreak, breakMin: p.Tuning.BreakChunkMin})
		case bestAny >= 0:
			// no alternative exists; schedule anyway and record the violation
			if !sim.applyVisit(bestAny) {
				return finishBuild(p, cands, seq)
			}
			seq = append(seq, item{kind: KindVisit, cand: bestAny})
		default:
			// no candidate fits before close or the pool is exhausted
			return finishBuild(p, cands, seq)
		}
	}
	return finishBuild(p, cands, seq)
}

// finishBuild replays the sequence through the canonical scheduler so
// the baseline plan and every improver evaluation share one code path.
func finishBuild(p *Problem, cands []Candidate, seq []item) (Plan, []item) {
	plan, ok := schedule(p, cands, seq)
	if !ok {
		// cannot happen for a sequence the builder just applied step by
		// step, but keep the degenerate fallback explicit
		return Plan{Reason: "baseline schedule infeasible"}, nil
	}
	return plan, seq
}
