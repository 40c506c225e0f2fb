// Worker binary: consumes job claim messages and runs the registered
// handlers (ping, demand extraction, schedule generation, thumbnails)
package main

import (
	"context"
	"encoding/json"
	"os/signal"
	"syscall"

	"turna/internal/platform/config"
	perr "turna/internal/platform/errors"
	"turna/internal/platform/logger"
	"turna/internal/platform/store"
	ptime "turna/internal/platform/time"

	s3blob "turna/internal/adapters/blob/s3"
	"turna/internal/adapters/extract"
	"turna/internal/adapters/queue"
	"turna/internal/adapters/render"
	"turna/internal/adapters/thumb"
	auditrepo "turna/internal/services/audit/repo"
	auditsvc "turna/internal/services/audit/service"
	demandsrepo "turna/internal/services/demands/repo"
	demandssvc "turna/internal/services/demands/service"
	extractionsvc "turna/internal/services/extraction/service"
	filesrepo "turna/internal/services/files/repo"
	filessvc "turna/internal/services/files/service"
	identrepo "turna/internal/services/identity/repo"
	identsvc "turna/internal/services/identity/service"
	"turna/internal/services/identity/token"
	jobsdom "turna/internal/services/jobs/domain"
	jobsrepo "turna/internal/services/jobs/repo"
	jobssvc "turna/internal/services/jobs/service"
	schedrepo "turna/internal/services/schedule/repo"
	schedsvc "turna/internal/services/schedule/service"
	tenantsrepo "turna/internal/services/tenants/repo"
	tenantssvc "turna/internal/services/tenants/service"
)

func main() {
	root := config.New()
	pgCfg := root.Prefix("SERVICE_PGSQL_")
	chCfg := root.Prefix("SERVICE_CLICKHOUSE_")
	l := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, store.Config{
		PG: store.PGConfig{
			Enabled:     true,
			URL:         pgCfg.MustString("DBURL"),
			MaxConns:    int32(pgCfg.MayInt("MAX_CONNS", 8)),
			SlowQueryMs: pgCfg.MayInt("SLOW_MS", 500),
			LogSQL:      pgCfg.MayBool("LOG_SQL", false),
		},
		CH: store.CHConfig{
			Enabled:    chCfg.MayBool("ENABLED", false),
			URL:        chCfg.MayString("DBURL", ""),
			ClientName: "turna",
			ClientTag:  "worker",
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

	blobs, err := s3blob.New(ctx, s3blob.FromConfig(root))
	if err != nil {
		l.Panic().Err(err).Msg("blob store init failed")
	}
	queueOpts := queue.FromConfig(root)
	broker := queue.NewPublisher(queueOpts)
	defer func() {
		if err := broker.Close(); err != nil {
			l.Error().Err(err).Msg("failed to close broker")
		}
	}()

	clock := ptime.SystemClock{}
	codec := token.New(root.MustString("AUTH_SECRET"), root.MayDuration("AUTH_TTL", token.DefaultTTL))
	audit := auditsvc.New(st.PG, auditrepo.NewPG(), st.CH)
	identity := identsvc.New(st.PG, identrepo.NewPG(), codec, audit)
	tenants := tenantssvc.New(st.PG, tenantsrepo.NewPG(), audit)
	files := filessvc.New(st.PG, filesrepo.NewPG(), blobs, thumb.New(), audit,
		int64(root.MayInt("FILES_MAX_BYTES", 0)))
	demands := demandssvc.New(st.PG, demandsrepo.NewPG())
	jobs := jobssvc.New(st.PG, jobsrepo.NewPG(), broker, audit, clock, jobssvc.FromConfig(root))
	sched := schedsvc.New(st.PG, schedrepo.NewPG(), identity, tenants, blobs,
		render.New(), audit, clock, schedsvc.FromConfig(root))

	vision, err := extract.NewVision(ctx, extract.VisionFromConfig(root))
	if err != nil {
		l.Panic().Err(err).Msg("vision extractor init failed")
	}
	extraction := extractionsvc.New(files, tenants, blobs, extract.NewSwitch(extract.NewSheet(), vision), demands)

	jobs.Register(jobsdom.KindPing, jobssvc.Ping())
	jobs.Register(jobsdom.KindExtractDemand, jobsdom.HandlerFunc(
		func(ctx context.Context, job jobsdom.Job) (any, error) {
			return extraction.Run(ctx, job.TenantID, job.ID, job.Input)
		}))
	jobs.Register(jobsdom.KindGenerateSchedule, jobsdom.HandlerFunc(
		func(ctx context.Context, job jobsdom.Job) (any, error) {
			return sched.Generate(ctx, job.TenantID, job.ID, job.Input)
		}))
	jobs.Register(jobsdom.KindGenerateThumbnail, jobsdom.HandlerFunc(
		func(ctx context.Context, job jobsdom.Job) (any, error) {
			var in struct {
				FileID string `json:"file_id"`
			}
			if err := json.Unmarshal(job.Input, &in); err != nil || in.FileID == "" {
				return nil, perr.InvalidArgf("thumbnail input requires file_id")
			}
			return files.Thumbnail(ctx, job.TenantID, in.FileID)
		}))

	srv := queue.NewServer(queueOpts, jobs)
	l.Info().Int("concurrency", queueOpts.Concurrency).Msg("worker consuming")
	if err := srv.Run(ctx); err != nil && err != context.Canceled {
		l.Panic().Err(err).Msg("queue server stopped")
	}
}
