// Reconciler binary: sweeps PENDING jobs no worker ever claimed and fails
// the ones past their stale window. Runs on a cron cadence
package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"

	"turna/internal/platform/config"
	"turna/internal/platform/logger"
	"turna/internal/platform/store"
	ptime "turna/internal/platform/time"

	"turna/internal/adapters/queue"
	auditrepo "turna/internal/services/audit/repo"
	auditsvc "turna/internal/services/audit/service"
	jobsrepo "turna/internal/services/jobs/repo"
	jobssvc "turna/internal/services/jobs/service"
)

func main() {
	root := config.New()
	pgCfg := root.Prefix("SERVICE_PGSQL_")
	recCfg := root.Prefix("RECONCILER_")
	l := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, store.Config{
		PG: store.PGConfig{
			Enabled:     true,
			URL:         pgCfg.MustString("DBURL"),
			MaxConns:    int32(pgCfg.MayInt("MAX_CONNS", 2)),
			SlowQueryMs: pgCfg.MayInt("SLOW_MS", 500),
			LogSQL:      pgCfg.MayBool("LOG_SQL", false),
		},
	}, store.WithLogger(*l))
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	broker := queue.NewPublisher(queue.FromConfig(root))
	defer func() {
		if err := broker.Close(); err != nil {
			l.Error().Err(err).Msg("failed to close broker")
		}
	}()

	audit := auditsvc.New(st.PG, auditrepo.NewPG(), nil)
	jobs := jobssvc.New(st.PG, jobsrepo.NewPG(), broker, audit, ptime.SystemClock{}, jobssvc.FromConfig(root))

	sweep := func() {
		report, err := jobs.ReconcilePendingOrphans(ctx)
		if err != nil {
			l.Error().Err(err).Msg("orphan sweep failed")
			return
		}
		l.Info().Int("scanned", report.Scanned).Int("failed", report.Failed).Msg("orphan sweep done")
	}

	spec := recCfg.MayString("CRON", "*/5 * * * *")
	c := cron.New()
	if _, err := c.AddFunc(spec, sweep); err != nil {
		l.Panic().Err(err).Str("spec", spec).Msg("bad reconciler cron spec")
	}

	sweep() // one pass at boot so restarts do not widen the orphan window
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
}
