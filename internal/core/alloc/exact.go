package alloc

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	defaultMaxSeconds = 5
	defaultWorkers    = 8
)

// solveExact runs an exhaustive per-day search under a wall-time budget
//
// days are independent once demands are bucketed, so each one fans out to a
// worker; every day is seeded with the greedy plan as an upper bound and the
// branch-and-bound only keeps strictly cheaper assignments, which makes the
// result deterministic and never worse than the heuristic
func solveExact(ctx context.Context, byDay map[int][]dmd, ps []Pro, days int, opts Options) (Result, error) {
	maxSec := opts.MaxSeconds
	if maxSec <= 0 {
		maxSec = defaultMaxSeconds
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}

	deadline := time.Now().Add(time.Duration(maxSec) * time.Second)
	ctx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	seed := solveGreedy(byDay, ps, days, opts)
	idx := proIndex(ps)

	plans := make([]DayPlan, days)
	proven := make([]bool, days)

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for day := 1; day <= days; day++ {
		eg.Go(func() error {
			s := &daySearch{
				day:      day,
				ds:       byDay[day],
				rotated:  rotation(ps, opts.BaseShift, day),
				idx:      idx,
				costs:    opts.Costs,
				deadline: deadline,
				ctx:      ctx,
			}
			plans[day-1], proven[day-1] = s.run(seed.Days[day-1])
			return nil
		})
	}
	// workers report through their slice slots; the deadline is the only cancel source
	_ = eg.Wait()

	res := assemble(plans, ps, opts.Costs, ModeExact)
	res.Optimal = true
	for _, p := range proven {
		res.Optimal = res.Optimal && p
	}
	res.Warnings = seed.Warnings
	res.Diagnostics = diagnoseUncovered(res.Days, ps)
	res.Infeasible = opts.RequireFull && len(res.Diagnostics) > 0
	return res, nil
}

// daySearch is a branch-and-bound over one day's demands
//
// demands are expanded in their sorted order and pros in rotation order, the
// unassigned branch comes last so full coverage is explored first
type daySearch struct {
	day      int
	ds       []dmd
	rotated  []Pro
	idx      map[string]Pro
	costs    Costs
	deadline time.Time
	ctx      context.Context

	best     map[int]string // tie ordinal -> pro id
	bestCost int
	cur      map[int]string
	held     map[string][]dmd
	nodes    int
	timedOut bool
}

func (s *daySearch) run(seed DayPlan) (DayPlan, bool) {
	s.best = s.ownerOf(seed)
	s.bestCost = planCost(seed, s.idx, s.costs)
	s.cur = make(map[int]string, len(s.ds))
	s.held = make(map[string][]dmd, len(s.rotated))

	s.search(0, 0)

	held := make(map[string][]dmd, len(s.rotated))
	for _, d := range s.ds {
		if pid := s.best[d.tie]; pid != "" {
			held[pid] = append(held[pid], d)
		}
	}
	return buildPlan(s.day, s.ds, s.rotated, s.best, held), !s.timedOut
}

func (s *daySearch) search(i, cost int) {
	if cost >= s.bestCost {
		return
	}
	if s.expired() {
		return
	}
	if i == len(s.ds) {
		s.bestCost = cost
		s.best = cloneOwner(s.cur)
		return
	}

	d := s.ds[i]
	for _, p := range s.rotated {
		if !feasible(p, d, s.held[p.ID]) {
			continue
		}
		extra := 0
		if p.CanPeds && !d.Pediatric {
			extra = s.costs.PedReserve
		}
		s.cur[d.tie] = p.ID
		s.held[p.ID] = append(s.held[p.ID], d)
		s.search(i+1, cost+extra)
		s.held[p.ID] = s.held[p.ID][:len(s.held[p.ID])-1]
		delete(s.cur, d.tie)
		if s.timedOut {
			return
		}
	}

	pen := s.costs.Unassigned
	if d.Pediatric {
		pen += s.costs.PedExtra
	}
	s.search(i+1, cost+pen)
}

// expired polls the clock every few hundred nodes to keep the hot loop cheap
func (s *daySearch) expired() bool {
	if s.timedOut {
		return true
	}
	s.nodes++
	if s.nodes&0xff != 0 {
		return false
	}
	if s.ctx.Err() != nil || time.Now().After(s.deadline) {
		s.timedOut = true
		return true
	}
	return false
}

// ownerOf flattens the seed plan's assignment back into the tie-ordinal map
// the seed's demand order matches s.ds, both come from the same day bucket
func (s *daySearch) ownerOf(seed DayPlan) map[int]string {
	out := make(map[int]string, len(s.ds))
	for i, d := range s.ds {
		if i < len(seed.Assigned) && seed.Assigned[i] != "" {
			out[d.tie] = seed.Assigned[i]
		}
	}
	return out
}

func cloneOwner(m map[int]string) map[int]string {
	out := make(map[int]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
