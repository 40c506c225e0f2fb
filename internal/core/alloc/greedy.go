package alloc

// pickRule alternates a pro's selection between the two scan directions
type pickRule int

const (
	earliestStart pickRule = iota
	latestEnd
)

func (r pickRule) next() pickRule {
	if r == earliestStart {
		return latestEnd
	}
	return earliestStart
}

// greedy carries the iteration guards across days
type greedy struct {
	perProLimit int
	globalLimit int
	globalIter  int
	warnings    []string
	aborted     bool
}

// solveGreedy runs the rotation heuristic day by day
func solveGreedy(byDay map[int][]dmd, ps []Pro, days int, opts Options) Result {
	total := 0
	for _, ds := range byDay {
		total += len(ds)
	}
	g := &greedy{perProLimit: 2 * total, globalLimit: 10 * total * len(ps)}

	plans := make([]DayPlan, 0, days)
	for day := 1; day <= days; day++ {
		plans = append(plans, g.day(day, byDay[day], rotation(ps, opts.BaseShift, day)))
		if g.aborted {
			// keep the output total: remaining days come back uncovered
			for d := day + 1; d <= days; d++ {
				plans = append(plans, buildPlan(d, byDay[d], rotation(ps, opts.BaseShift, d), nil, nil))
			}
			break
		}
	}

	res := assemble(plans, ps, opts.Costs, ModeGreedy)
	res.Warnings = g.warnings
	res.Diagnostics = diagnoseUncovered(res.Days, ps)
	res.Infeasible = opts.RequireFull && len(res.Diagnostics) > 0
	return res
}

// day assigns one day's demands across the rotated pros
func (g *greedy) day(day int, ds []dmd, rotated []Pro) DayPlan {
	owner := make(map[int]string, len(ds)) // tie ordinal -> pro id
	held := make(map[string][]dmd, len(rotated))
	remaining := append([]dmd(nil), ds...)

	for _, p := range rotated {
		rule := earliestStart
		iter := 0
		for len(remaining) > 0 {
			iter++
			g.globalIter++
			if g.perProLimit > 0 && iter > g.perProLimit {
				g.warnings = append(g.warnings, warnGuard(day, p.ID))
				break
			}
			if g.globalLimit > 0 && g.globalIter > g.globalLimit {
				g.warnings = append(g.warnings, warnGuard(day, ""))
				g.aborted = true
				return buildPlan(day, ds, rotated, owner, held)
			}
			pick, ok := selectDemand(remaining, p, held[p.ID], rule)
			if !ok {
				break
			}
			owner[pick.tie] = p.ID
			held[p.ID] = append(held[p.ID], pick)
			remaining = removeByTie(remaining, pick.tie)
			rule = rule.next()
		}
	}
	return buildPlan(day, ds, rotated, owner, held)
}

// selectDemand applies hard constraints, the reservation rule, then the rule's ordering
func selectDemand(remaining []dmd, p Pro, held []dmd, rule pickRule) (dmd, bool) {
	// reservation: a pediatric-capable pro skips non-pediatric work while any
	// pediatric demand remains feasible for them
	pediOpen := false
	if p.CanPeds {
		for _, d := range remaining {
			if d.Pediatric && feasible(p, d, held) {
				pediOpen = true
				break
			}
		}
	}

	var best dmd
	found := false
	for _, d := range remaining {
		if !feasible(p, d, held) {
			continue
		}
		if pediOpen && !d.Pediatric {
			continue
		}
		if !found || better(d, best, rule) {
			best, found = d, true
		}
	}
	return best, found
}

// better orders candidates under the active rule
// ties always settle on the lowest ordinal so runs are reproducible
//
// under earliestStart, equal starts break toward the EARLIER end: with
// A[6,9) and B[6,10) on the board the first pro takes A, leaving the longer
// case for whoever rotates in next. Flipping that tie to prefer the later
// end reshuffles every downstream pick, so keep it ascending on both axes
func better(a, b dmd, rule pickRule) bool {
	if rule == latestEnd {
		if a.EndH != b.EndH {
			return a.EndH > b.EndH
		}
		if a.StartH != b.StartH {
			return a.StartH < b.StartH
		}
		return a.tie < b.tie
	}
	if a.StartH != b.StartH {
		return a.StartH < b.StartH
	}
	if a.EndH != b.EndH {
		return a.EndH < b.EndH
	}
	return a.tie < b.tie
}

func removeByTie(ds []dmd, tie int) []dmd {
	out := ds[:0]
	for _, d := range ds {
		if d.tie != tie {
			out = append(out, d)
		}
	}
	return out
}

// buildPlan materializes the per-day output shape from the owner and held maps
// nil maps produce an uncovered plan
func buildPlan(day int, ds []dmd, rotated []Pro, owner map[int]string, held map[string][]dmd) DayPlan {
	plan := DayPlan{
		Day:      day,
		Pros:     make([]string, 0, len(rotated)),
		ByPro:    make(map[string][]Demand, len(held)),
		Demands:  make([]Demand, 0, len(ds)),
		Assigned: make([]string, len(ds)),
	}
	for _, p := range rotated {
		plan.Pros = append(plan.Pros, p.ID)
	}
	for i, d := range ds {
		plan.Demands = append(plan.Demands, d.Demand)
		plan.Assigned[i] = owner[d.tie]
	}
	for _, p := range rotated {
		for _, d := range held[p.ID] {
			plan.ByPro[p.ID] = append(plan.ByPro[p.ID], d.Demand)
		}
	}
	return plan
}
