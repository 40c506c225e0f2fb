package service

import (
	"context"
	"encoding/json"
	"sort"

	"turna/internal/platform/logger"
	ddom "turna/internal/services/demands/domain"
	"turna/internal/services/schedule/domain"
)

// parseAllocation decodes a row's schedule_result_data; unparseable payloads
// degrade to an empty allocation rather than poisoning the whole listing
func parseAllocation(ctx context.Context, d ddom.Demand) domain.Allocation {
	var a domain.Allocation
	if len(d.ScheduleResultData) == 0 {
		return a
	}
	if err := json.Unmarshal(d.ScheduleResultData, &a); err != nil {
		logger.C(ctx).Warn().Err(err).Str("demand_id", d.ID).Msg("unparseable schedule_result_data")
	}
	return a
}

func entryFrom(a domain.Allocation, row ddom.Demand) domain.Entry {
	return domain.Entry{
		MemberID:    a.MemberID,
		MemberName:  a.Member,
		DemandToken: a.ID,
		DemandID:    a.DemandID,
		Start:       a.Start,
		End:         a.End,
		IsPediatric: a.IsPediatric,
		HospitalID:  a.HospitalID,
		Procedure:   row.Procedure,
		Room:        row.Room,
	}
}

// buildView reconstructs the per-day picture of one schedule. Rows written by
// a master-style generator carry their own per_day; fragmented rows are
// reassembled from every sibling the same generation job wrote
func (s *Svc) buildView(ctx context.Context, r domain.Repo, tenantID string, d ddom.Demand) (domain.ScheduleView, error) {
	own := parseAllocation(ctx, d)
	view := domain.ScheduleView{
		DemandID:    d.ID,
		Name:        d.ScheduleName,
		Status:      string(d.ScheduleStatus),
		Version:     d.ScheduleVersionNumber,
		JobID:       d.JobID,
		GeneratedAt: d.GeneratedAt,
		PublishedAt: d.PublishedAt,
		PdfFileID:   d.PdfFileID,
		TotalCost:   own.Metadata.TotalCost,
	}

	if len(own.PerDay) > 0 {
		view.Days = own.PerDay
		return view, nil
	}

	rows := []ddom.Demand{d}
	if d.JobID != "" {
		sibs, err := r.Siblings(ctx, tenantID, d.JobID)
		if err != nil {
			return domain.ScheduleView{}, err
		}
		if len(sibs) > 0 {
			rows = sibs
		}
	}

	byDay := make(map[int][]domain.Entry)
	for _, row := range rows {
		a := parseAllocation(ctx, row)
		if a.Day == 0 {
			continue
		}
		byDay[a.Day] = append(byDay[a.Day], entryFrom(a, row))
	}
	days := make([]domain.DayView, 0, len(byDay))
	for day, entries := range byDay {
		sort.SliceStable(entries, func(i, j int) bool {
			if entries[i].Start != entries[j].Start {
				return entries[i].Start < entries[j].Start
			}
			return entries[i].DemandToken < entries[j].DemandToken
		})
		days = append(days, domain.DayView{Day: day, Entries: entries})
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Day < days[j].Day })
	view.Days = days
	return view, nil
}
