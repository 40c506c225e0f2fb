// Package alloc assigns professionals to surgical demands inside a period
// input is already normalized to solver space: 1-based day indexes and
// fractional wall-clock hours (see core/interval)
package alloc

import (
	"context"
	"fmt"
	"sort"

	perr "turna/internal/platform/errors"
)

// Mode selects the allocation algorithm
type Mode string

const (
	// ModeGreedy is the rotation-based heuristic, always available
	ModeGreedy Mode = "greedy"
	// ModeExact is the per-day exact search under a wall-time budget
	ModeExact Mode = "cpsat"
)

// Valid reports whether m is a known mode
func (m Mode) Valid() bool { return m == ModeGreedy || m == ModeExact }

// Demand is one staffing window on one day of the period
type Demand struct {
	ID         string
	Day        int // 1-based index into the period
	StartH     float64
	EndH       float64
	Pediatric  bool
	RowID      string // demand row uuid, empty for extract previews
	HospitalID string
}

// DayRange is an inclusive day-index interval
type DayRange struct {
	From int
	To   int
}

// Contains reports whether day falls inside the range
func (r DayRange) Contains(day int) bool { return day >= r.From && day <= r.To }

// HourRange is a half-open window in absolute period hours
// absolute hour = (day-1)*24 + wall-clock hour
type HourRange struct {
	From float64
	To   float64
}

// Overlaps reports half-open intersection
func (h HourRange) Overlaps(o HourRange) bool { return h.From < o.To && o.From < h.To }

// Pro is a schedulable professional
type Pro struct {
	ID       string
	Name     string
	Sequence int
	CanPeds  bool

	// VacationHours are within-day blocks in absolute period hours
	VacationHours []HourRange
	// VacationDays are whole-day blocks, inclusive
	VacationDays []DayRange
}

// Costs weighs the soft objective
// the zero value means defaults
type Costs struct {
	Unassigned int // per uncovered demand
	PedExtra   int // additional per uncovered pediatric demand
	PedReserve int // per pediatric-capable pro on a non-pediatric demand
}

// DefaultCosts returns the standard penalty weights
func DefaultCosts() Costs { return Costs{Unassigned: 1000, PedExtra: 1000, PedReserve: 1} }

func (c Costs) orDefault() Costs {
	if c == (Costs{}) {
		return DefaultCosts()
	}
	return c
}

// Options tunes a solve
type Options struct {
	Mode      Mode
	Days      int // period length; 0 derives from the demands
	BaseShift int // rotation seed, usually 0
	Costs     Costs

	// exact search only
	MaxSeconds  int  // wall budget, default 5
	Workers     int  // day fan-out, default 8
	RequireFull bool // forbid uncovered demands; infeasibility is diagnosed, not errored
}

// DayPlan is the allocation for one day
type DayPlan struct {
	Day      int
	Pros     []string            // member ids in rotated first-pick order
	ByPro    map[string][]Demand // member id -> assigned demands
	Demands  []Demand            // the day's demands in normalized order
	Assigned []string            // member id per Demands entry, "" when uncovered
}

// Diagnostic explains why a demand went uncovered
type Diagnostic struct {
	DemandID string
	Day      int
	Eligible []string // pros passing capability and vacation checks
	Detail   string   // human-readable bottleneck
}

// Result is the full solve output
type Result struct {
	Days        []DayPlan
	TotalCost   int
	Mode        Mode
	Optimal     bool // exact search proved optimality within budget
	Infeasible  bool // RequireFull could not be satisfied
	Warnings    []string
	Diagnostics []Diagnostic
}

// internal demand with its deterministic tie ordinal
type dmd struct {
	Demand
	tie int
}

func (d dmd) abs() HourRange {
	base := float64(d.Day-1) * 24
	return HourRange{From: base + d.StartH, To: base + d.EndH}
}

// Solve allocates demands to pros under the requested mode
// deterministic for identical input slices; ctx bounds the exact search
func Solve(ctx context.Context, demands []Demand, pros []Pro, opts Options) (Result, error) {
	if opts.Mode == "" {
		opts.Mode = ModeGreedy
	}
	if !opts.Mode.Valid() {
		return Result{}, perr.InvalidArgf("unsupported allocation_mode %q", opts.Mode)
	}
	for _, d := range demands {
		if d.Day < 1 {
			return Result{}, perr.InvalidArgf("demand %s: day %d outside period", d.ID, d.Day)
		}
		if d.EndH <= d.StartH {
			return Result{}, perr.InvalidArgf("demand %s: end %.2f not after start %.2f", d.ID, d.EndH, d.StartH)
		}
	}
	opts.Costs = opts.Costs.orDefault()

	days := opts.Days
	for _, d := range demands {
		if d.Day > days {
			days = d.Day
		}
	}

	// deterministic pro order: sequence then id
	ps := make([]Pro, len(pros))
	copy(ps, pros)
	sort.SliceStable(ps, func(i, j int) bool {
		if ps[i].Sequence != ps[j].Sequence {
			return ps[i].Sequence < ps[j].Sequence
		}
		return ps[i].ID < ps[j].ID
	})

	// bucket per day, tie ordinal = position in the input slice
	byDay := make(map[int][]dmd, days)
	for i, d := range demands {
		byDay[d.Day] = append(byDay[d.Day], dmd{Demand: d, tie: i})
	}
	for day := range byDay {
		ds := byDay[day]
		sort.SliceStable(ds, func(i, j int) bool {
			if ds[i].StartH != ds[j].StartH {
				return ds[i].StartH < ds[j].StartH
			}
			if ds[i].EndH != ds[j].EndH {
				return ds[i].EndH < ds[j].EndH
			}
			return ds[i].tie < ds[j].tie
		})
	}

	switch opts.Mode {
	case ModeExact:
		return solveExact(ctx, byDay, ps, days, opts)
	default:
		return solveGreedy(byDay, ps, days, opts), nil
	}
}

// rotation returns ps rotated so index (baseShift + day - 1) mod n picks first
func rotation(ps []Pro, baseShift, day int) []Pro {
	n := len(ps)
	if n == 0 {
		return nil
	}
	start := (baseShift + day - 1) % n
	if start < 0 {
		start += n
	}
	out := make([]Pro, 0, n)
	out = append(out, ps[start:]...)
	out = append(out, ps[:start]...)
	return out
}

// available checks the static hard constraints: capability and vacations
func available(p Pro, d dmd) bool {
	if d.Pediatric && !p.CanPeds {
		return false
	}
	for _, vr := range p.VacationDays {
		if vr.Contains(d.Day) {
			return false
		}
	}
	w := d.abs()
	for _, vh := range p.VacationHours {
		if vh.Overlaps(w) {
			return false
		}
	}
	return true
}

// clashes reports overlap between d and any demand already held by the pro
func clashes(d dmd, held []dmd) bool {
	w := d.abs()
	for _, h := range held {
		if h.Day == d.Day && w.Overlaps(h.abs()) {
			return true
		}
	}
	return false
}

// feasible is the full hard-constraint check for one pick
func feasible(p Pro, d dmd, held []dmd) bool {
	return available(p, d) && !clashes(d, held)
}

// planCost totals the soft objective for one day plan
func planCost(plan DayPlan, prosByID map[string]Pro, costs Costs) int {
	total := 0
	for i, d := range plan.Demands {
		if plan.Assigned[i] == "" {
			total += costs.Unassigned
			if d.Pediatric {
				total += costs.PedExtra
			}
			continue
		}
		if p, ok := prosByID[plan.Assigned[i]]; ok && p.CanPeds && !d.Pediatric {
			total += costs.PedReserve
		}
	}
	return total
}

func proIndex(ps []Pro) map[string]Pro {
	m := make(map[string]Pro, len(ps))
	for _, p := range ps {
		m[p.ID] = p
	}
	return m
}

// assemble fills the shared plumbing of a Result from finished day plans
func assemble(plans []DayPlan, ps []Pro, costs Costs, mode Mode) Result {
	idx := proIndex(ps)
	res := Result{Mode: mode}
	for _, plan := range plans {
		res.TotalCost += planCost(plan, idx, costs)
		res.Days = append(res.Days, plan)
	}
	return res
}

func warnGuard(day int, pro string) string {
	if pro == "" {
		return fmt.Sprintf("day %d: global iteration guard tripped, allocation truncated", day)
	}
	return fmt.Sprintf("day %d: iteration guard tripped for pro %s", day, pro)
}
