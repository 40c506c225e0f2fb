// @title         Turna API
// @version       0.1.0
// @description   Multi-tenant surgical demand scheduling

package main

import (
	"context"

	"turna/internal/platform/config"
	"turna/internal/platform/logger"
	phttp "turna/internal/platform/net/http"
	"turna/internal/platform/store"

	s3blob "turna/internal/adapters/blob/s3"
	"turna/internal/adapters/queue"
	"turna/internal/services/api"
)

func main() {
	root := config.New()
	apiCfg := root.Prefix("TURNA_API_")
	pgCfg := root.Prefix("SERVICE_PGSQL_")
	chCfg := root.Prefix("SERVICE_CLICKHOUSE_")
	l := logger.Get()

	ctx := context.Background()
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
			ClientTag:  "api",
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
	broker := queue.NewPublisher(queue.FromConfig(root))
	defer func() {
		if err := broker.Close(); err != nil {
			l.Error().Err(err).Msg("failed to close broker")
		}
	}()

	srv := phttp.NewServer(apiCfg)
	api.Mount(srv.Router(), api.Options{
		Config:         root,
		Store:          st,
		Logger:         l,
		Blobs:          blobs,
		Broker:         broker,
		EnableSwagger:  apiCfg.MayBool("SWAGGER", true),
		EnableProfiler: apiCfg.MayBool("PROFILER", false),
	})

	if err := srv.Run(ctx); err != nil {
		l.Panic().Err(err).Msg("http server stopped")
	}
}
