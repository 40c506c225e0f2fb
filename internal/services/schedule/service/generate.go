package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/samber/lo"

	"turna/internal/core/alloc"
	"turna/internal/core/interval"
	"turna/internal/modkit/repokit"
	perr "turna/internal/platform/errors"
	"turna/internal/platform/logger"
	"turna/internal/platform/metrics"
	"turna/internal/platform/store"
	auditdom "turna/internal/services/audit/domain"
	ddom "turna/internal/services/demands/domain"
	extdom "turna/internal/services/extraction/domain"
	identdom "turna/internal/services/identity/domain"
	"turna/internal/services/schedule/domain"
)

// solver demand plus the row fields the write-back needs
type solvable struct {
	demands []alloc.Demand
	warns   []string
}

// Generate runs one GENERATE_SCHEDULE job: resolve demands, normalize to
// solver space, solve, and write drafts back in a single transaction.
// from_extract is preview-only, nothing is written
func (s *Svc) Generate(ctx context.Context, tenantID, jobID string, raw []byte) (domain.GenerateReport, error) {
	var in domain.GenerateInput
	if err := json.Unmarshal(raw, &in); err != nil {
		return domain.GenerateReport{}, perr.InvalidArgf("unparseable generate input")
	}
	if in.Mode == "" {
		in.Mode = domain.ModeFromDemands
	}
	if in.Mode != domain.ModeFromDemands && in.Mode != domain.ModeFromExtract {
		return domain.GenerateReport{}, perr.InvalidArgf("unknown generation mode %q", in.Mode)
	}
	amode := alloc.Mode(in.AllocationMode)
	if amode == "" {
		amode = alloc.ModeGreedy
	}
	if !amode.Valid() {
		return domain.GenerateReport{}, perr.InvalidArgf("unsupported allocation_mode %q", in.AllocationMode)
	}
	if in.PeriodDays < 1 || in.PeriodDays > 366 {
		return domain.GenerateReport{}, perr.InvalidArgf("period_days must be between 1 and 366")
	}

	tenant, err := s.tenants.Load(ctx, tenantID)
	if err != nil {
		return domain.GenerateReport{}, err
	}
	loc, err := time.LoadLocation(tenant.Timezone)
	if err != nil {
		return domain.GenerateReport{}, perr.InvalidArgf("tenant timezone %q is unusable", tenant.Timezone)
	}
	dayOne, err := time.ParseInLocation("2006-01-02", in.PeriodStart, loc)
	if err != nil {
		return domain.GenerateReport{}, perr.InvalidArgf("period_start must be YYYY-MM-DD")
	}

	var sv solvable
	switch in.Mode {
	case domain.ModeFromDemands:
		sv, err = s.demandsFromRows(ctx, tenantID, in, dayOne, loc)
	default:
		sv, err = s.demandsFromExtract(ctx, tenantID, in, dayOne, loc)
	}
	if err != nil {
		return domain.GenerateReport{}, err
	}

	members, err := s.roster.ActivePros(ctx, tenantID)
	if err != nil {
		return domain.GenerateReport{}, err
	}
	pros := lo.Map(members, func(m identdom.Member, _ int) alloc.Pro {
		return proFrom(m, dayOne, in.PeriodDays, loc)
	})
	nameByID := lo.SliceToMap(pros, func(p alloc.Pro) (string, string) { return p.ID, p.Name })

	started := s.clock.Now()
	res, err := alloc.Solve(ctx, sv.demands, pros, alloc.Options{
		Mode:      amode,
		Days:      in.PeriodDays,
		BaseShift: in.BaseShift,
		Costs: alloc.Costs{
			Unassigned: s.opts.Unassigned,
			PedExtra:   s.opts.PedExtra,
			PedReserve: s.opts.PedReserve,
		},
		MaxSeconds: s.opts.MaxSeconds,
		Workers:    s.opts.Workers,
	})
	metrics.SolverDuration.Observe(s.clock.Now().Sub(started).Seconds())
	if err != nil {
		metrics.SolverRuns.WithLabelValues(string(amode), "error").Inc()
		return domain.GenerateReport{}, err
	}
	outcome := "ok"
	if res.Infeasible {
		outcome = "infeasible"
	}
	metrics.SolverRuns.WithLabelValues(string(amode), outcome).Inc()

	now := s.clock.Now()
	base := in.BaseName
	if base == "" {
		base = s.opts.BaseName
	}

	report := domain.GenerateReport{
		Mode:           in.Mode,
		AllocationMode: string(res.Mode),
		TotalCost:      res.TotalCost,
		Days:           in.PeriodDays,
		Infeasible:     res.Infeasible,
		Warnings:       append(sv.warns, res.Warnings...),
		Diagnostics: lo.Map(res.Diagnostics, func(d alloc.Diagnostic, _ int) string {
			return fmt.Sprintf("day %d demand %s: %s", d.Day, d.DemandID, d.Detail)
		}),
	}

	var writes []domain.ScheduleWrite
	seq := 0
	for _, plan := range res.Days {
		for i, dm := range plan.Demands {
			pid := plan.Assigned[i]
			if pid == "" {
				report.Unassigned++
				continue
			}
			report.Assigned++
			if in.Mode != domain.ModeFromDemands || dm.RowID == "" {
				continue
			}
			seq++
			a := domain.Allocation{
				Member:      nameByID[pid],
				MemberID:    pid,
				ID:          dm.ID,
				Day:         plan.Day,
				Start:       dm.StartH,
				End:         dm.EndH,
				IsPediatric: dm.Pediatric,
				DemandID:    dm.RowID,
				HospitalID:  dm.HospitalID,
				Metadata: domain.Metadata{
					AllocationMode: string(res.Mode),
					TotalCost:      res.TotalCost,
					Mode:           in.Mode,
					GeneratedAt:    now,
					JobID:          jobID,
					Sequence:       seq,
					ExtractJobID:   in.ExtractJobID,
				},
			}
			payload, err := json.Marshal(a)
			if err != nil {
				return domain.GenerateReport{}, perr.Wrap(err, perr.ErrorCodeJSON, "encode allocation")
			}
			writes = append(writes, domain.ScheduleWrite{
				DemandID:    dm.RowID,
				MemberID:    pid,
				Name:        fmt.Sprintf("%s - %s - Dia %d", base, nameByID[pid], plan.Day),
				ResultData:  payload,
				JobID:       jobID,
				GeneratedAt: now,
			})
		}
	}

	if len(writes) > 0 {
		err = store.RunInTenant(ctx, s.db, tenantID, func(ctx context.Context, q repokit.Queryer) error {
			return s.binder.Bind(q).ApplyAllocations(ctx, tenantID, writes)
		})
		if err != nil {
			return domain.GenerateReport{}, err
		}
	}
	report.RowsWritten = len(writes)

	s.audit.Emit(ctx, auditdom.Event{
		TenantID: tenantID,
		// worker-side event, no session behind it
		AccountID: "system",
		Type:      auditdom.EventScheduleGenerated,
		Data: map[string]any{
			"job_id":       jobID,
			"mode":         in.Mode,
			"rows_written": report.RowsWritten,
			"total_cost":   report.TotalCost,
		},
	})
	logger.C(ctx).Info().
		Str("job_id", jobID).
		Str("mode", in.Mode).
		Int("assigned", report.Assigned).
		Int("unassigned", report.Unassigned).
		Int("rows_written", report.RowsWritten).
		Msg("schedule generated")
	return report, nil
}

// demandsFromRows reads the period's demand rows. Rows with a published or
// archived schedule are frozen and skipped; rows without a hospital are a
// hard, counted error
func (s *Svc) demandsFromRows(ctx context.Context, tenantID string, in domain.GenerateInput, dayOne time.Time, loc *time.Location) (solvable, error) {
	from := interval.DaySpan(dayOne, 1, loc).Start
	to := interval.DaySpan(dayOne, in.PeriodDays, loc).End

	var rows []ddom.Demand
	err := store.RunInTenant(ctx, s.db, tenantID, func(ctx context.Context, q repokit.Queryer) error {
		var err error
		rows, err = s.binder.Bind(q).ListDemandsForPeriod(ctx, tenantID, from, to, in.HospitalID)
		return err
	})
	if err != nil {
		return solvable{}, err
	}

	missingHospital := lo.CountBy(rows, func(d ddom.Demand) bool { return d.HospitalID == "" })
	if missingHospital > 0 {
		return solvable{}, perr.InvalidArgf("%d demands in the period are missing hospital_id", missingHospital)
	}

	var sv solvable
	frozen := 0
	for _, row := range rows {
		if row.ScheduleStatus == ddom.SchedulePublished || row.ScheduleStatus == ddom.ScheduleArchived {
			frozen++
			continue
		}
		span := interval.Span{Start: row.StartTime, End: row.EndTime}
		day, hr := interval.Localize(span, dayOne, loc)
		if day < 1 || day > in.PeriodDays {
			continue
		}
		sv.demands = append(sv.demands, alloc.Demand{
			ID:         row.ID,
			Day:        day,
			StartH:     hr.From,
			EndH:       hr.To,
			Pediatric:  row.IsPediatric,
			RowID:      row.ID,
			HospitalID: row.HospitalID,
		})
	}
	if frozen > 0 {
		sv.warns = append(sv.warns, fmt.Sprintf("%d demands skipped: schedule already published or archived", frozen))
	}
	return sv, nil
}

// demandsFromExtract builds synthetic demands from a prior extraction job's
// stored result. They carry no row id, so the solve is preview-only
func (s *Svc) demandsFromExtract(ctx context.Context, tenantID string, in domain.GenerateInput, dayOne time.Time, loc *time.Location) (solvable, error) {
	if in.ExtractJobID == "" {
		return solvable{}, perr.InvalidArgf("from_extract requires extract_job_id")
	}

	var raw json.RawMessage
	err := store.RunInTenant(ctx, s.db, tenantID, func(ctx context.Context, q repokit.Queryer) error {
		var err error
		raw, err = s.binder.Bind(q).GetJobResult(ctx, tenantID, in.ExtractJobID)
		return err
	})
	if err != nil {
		return solvable{}, err
	}
	var res extdom.Result
	if err := json.Unmarshal(raw, &res); err != nil {
		return solvable{}, perr.InvalidArgf("extraction job result is not a demand extraction")
	}

	var sv solvable
	for i, ed := range res.Demands {
		date, err := time.ParseInLocation("2006-01-02", ed.Date, loc)
		if err != nil {
			sv.warns = append(sv.warns, fmt.Sprintf("extracted row %d: bad date %q", i+1, ed.Date))
			continue
		}
		startH, err1 := parseClock(ed.StartTime)
		endH, err2 := parseClock(ed.EndTime)
		if err1 != nil || err2 != nil || endH <= startH {
			sv.warns = append(sv.warns, fmt.Sprintf("extracted row %d: bad time window %q-%q", i+1, ed.StartTime, ed.EndTime))
			continue
		}
		day := interval.DayIndex(date, dayOne, loc)
		if day < 1 || day > in.PeriodDays {
			continue
		}
		sv.demands = append(sv.demands, alloc.Demand{
			ID:         fmt.Sprintf("extract-%d", i+1),
			Day:        day,
			StartH:     startH,
			EndH:       endH,
			Pediatric:  ed.IsPediatric,
			HospitalID: res.Meta.HospitalID,
		})
	}
	return sv, nil
}

// proFrom projects a member onto solver space: vacations become blocked hour
// ranges in absolute period hours
func proFrom(m identdom.Member, dayOne time.Time, days int, loc *time.Location) alloc.Pro {
	name := m.Name
	if name == "" {
		name = m.Email
	}
	p := alloc.Pro{ID: m.ID, Name: name, Sequence: m.Sequence, CanPeds: m.CanPeds}
	for _, span := range m.Vacation {
		for day := 1; day <= days; day++ {
			hr, ok := interval.ClipToDay(span, dayOne, day, loc)
			if !ok {
				continue
			}
			base := float64(day-1) * 24
			p.VacationHours = append(p.VacationHours, alloc.HourRange{From: base + hr.From, To: base + hr.To})
		}
	}
	return p
}

// parseClock reads HH:MM wall-clock into fractional hours
func parseClock(s string) (float64, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, err
	}
	return float64(t.Hour()) + float64(t.Minute())/60, nil
}
