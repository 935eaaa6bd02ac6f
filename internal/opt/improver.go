package opt

// Improve runs hill-climbing local search over the baseline sequence:
// reinsertion (move one visit to another slot), pairwise swap, and
// substitution of a scheduled visit by an unused candidate. Moves are
// accepted only when the rescheduled plan strictly improves the score
// (ties prefer less total wait). The search stops after a full pass
// with no improvement or when the move budget is exhausted, whichever
// comes first. Deterministic: fixed iteration order, no randomness.
func Improve(p *Problem, cands []Candidate, seq []item, base Plan, m *SearchMetrics) (Plan, []item) {
	best := base
	bestSeq := seq
	visits := 0
	for _, it := range bestSeq {
		if it.kind == KindVisit {
			visits++
		}
	}
	budget := visits * visits
	if budget > p.Tuning.ImproverCap {
		budget = p.Tuning.ImproverCap
	}
	moves := 0

	try := func(cand []item) bool {
		moves++
		m.MovesTried++
		plan, ok := schedule(p, cands, cand)
		if !ok {
			return false
		}
		if !better(&plan, &best) {
			return false
		}
		best = plan
		bestSeq = cand
		m.MovesAccepted++
		return true
	}

	improved := true
	for improved && moves < budget {
		improved = false
		m.Passes++

		// reinsertion: pull one visit out and try every other slot
		for i := 0; i < len(bestSeq) && moves < budget; i++ {
			if bestSeq[i].kind != KindVisit {
				continue
			}
			for j := 0; j <= len(bestSeq)-1 && moves < budget; j++ {
				if j == i {
					continue
				}
				if try(moveItem(bestSeq, i, j)) {
					improved = true
				}
			}
		}

		// swap: exchange two visit positions
		for i := 0; i < len(bestSeq) && moves < budget; i++ {
			if bestSeq[i].kind != KindVisit {
				continue
			}
			for j := i + 1; j < len(bestSeq) && moves < budget; j++ {
				if bestSeq[j].kind != KindVisit {
					continue
				}
				if try(swapItems(bestSeq, i, j)) {
					improved = true
				}
			}
		}

		// substitution: replace a scheduled visit with an unused candidate
		used := map[int]bool{}
		for _, it := range bestSeq {
			if it.kind == KindVisit {
				used[it.cand] = true
			}
		}
		for i := 0; i < len(bestSeq) && moves < budget; i++ {
			if bestSeq[i].kind != KindVisit {
				continue
			}
			for ci := range cands {
				if moves >= budget {
					break
				}
				if used[ci] {
					continue
				}
				prev := bestSeq[i].cand
				if try(substituteItem(bestSeq, i, ci)) {
					improved = true
					used[ci] = true
					delete(used, prev)
				}
			}
		}
	}
	return best, bestSeq
}

func moveItem(seq []item, from, to int) []item {
	out := make([]item, 0, len(seq))
	out = append(out, seq[:from]...)
	out = append(out, seq[from+1:]...)
	if to > len(out) {
		to = len(out)
	}
	out = append(out[:to], append([]item{seq[from]}, out[to:]...)...)
	return out
}

func swapItems(seq []item, i, j int) []item {
	out := append([]item(nil), seq...)
	out[i], out[j] = out[j], out[i]
	return out
}

func substituteItem(seq []item, i, cand int) []item {
	out := append([]item(nil), seq...)
	out[i] = item{kind: KindVisit, cand: cand}
	return out
}
