package alloc

import (
	"fmt"
	"sort"
)

// diagnoseUncovered builds a report for every demand no pro ended up holding
func diagnoseUncovered(plans []DayPlan, ps []Pro) []Diagnostic {
	var out []Diagnostic
	for _, plan := range plans {
		for i, d := range plan.Demands {
			if i < len(plan.Assigned) && plan.Assigned[i] != "" {
				continue
			}
			var eligible []string
			for _, p := range ps {
				if available(p, dmd{Demand: d}) {
					eligible = append(eligible, p.ID)
				}
			}
			out = append(out, Diagnostic{
				DemandID: d.ID,
				Day:      plan.Day,
				Eligible: eligible,
				Detail:   bottleneck(plan, i, ps, len(eligible)),
			})
		}
	}
	return out
}

// bottleneck names the tightest stretch inside an uncovered demand's window
//
// the window is split at every boundary of an overlapping demand and each
// segment's concurrent load is compared against the pros free during it; when
// no segment is oversubscribed the gap is an ordering artifact, not capacity
func bottleneck(plan DayPlan, idx int, ps []Pro, eligible int) string {
	d := plan.Demands[idx]
	if eligible == 0 {
		if d.Pediatric {
			return fmt.Sprintf("no pediatric-capable pro is available on day %d between %gh and %gh", plan.Day, d.StartH, d.EndH)
		}
		return fmt.Sprintf("every pro is on vacation on day %d between %gh and %gh", plan.Day, d.StartH, d.EndH)
	}

	bounds := []float64{d.StartH, d.EndH}
	for _, o := range plan.Demands {
		if o.StartH > d.StartH && o.StartH < d.EndH {
			bounds = append(bounds, o.StartH)
		}
		if o.EndH > d.StartH && o.EndH < d.EndH {
			bounds = append(bounds, o.EndH)
		}
	}
	sort.Float64s(bounds)

	worstLoad, worstSlots := 0, 0
	var worstFrom, worstTo float64
	found := false
	for i := 0; i+1 < len(bounds); i++ {
		from, to := bounds[i], bounds[i+1]
		if to <= from {
			continue
		}
		load := 0
		for _, o := range plan.Demands {
			if d.Pediatric && !o.Pediatric {
				continue
			}
			if o.StartH < to && o.EndH > from {
				load++
			}
		}
		slots := 0
		seg := dmd{Demand: Demand{Day: d.Day, StartH: from, EndH: to, Pediatric: d.Pediatric}}
		for _, p := range ps {
			if available(p, seg) {
				slots++
			}
		}
		if load > slots && (!found || load-slots > worstLoad-worstSlots) {
			worstLoad, worstSlots, worstFrom, worstTo = load, slots, from, to
			found = true
		}
	}
	if found {
		if d.Pediatric {
			return fmt.Sprintf("day %d [%gh,%gh): concurrent pediatric demands %d exceed pediatric-capable pros %d", plan.Day, worstFrom, worstTo, worstLoad, worstSlots)
		}
		return fmt.Sprintf("day %d [%gh,%gh): concurrent demands %d exceed available pros %d", plan.Day, worstFrom, worstTo, worstLoad, worstSlots)
	}
	return "crowded out by earlier assignments in the rotation"
}
