// @title         Sitebuilder API
// @version       0.1.0
// @description   Content build orchestration for generated business sites

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sitebuilder/internal/platform/config"
	"sitebuilder/internal/platform/logger"
	"sitebuilder/internal/platform/migrate"
	phttp "sitebuilder/internal/platform/net/http"
	"sitebuilder/internal/platform/store"

	"sitebuilder/internal/services/api"
)

func main() {
	// service-scoped config for HTTP etc (CORE_API_*)
	root := config.New()
	apiCfg := root.Prefix("CORE_API_")
	buildCfg := root.Prefix("CORE_BUILD_")

	pgCfg := root.Prefix("SERVICE_PGSQL_")      // pgCfg lives under SERVICE_PGSQL_*
	chCfg := root.Prefix("SERVICE_CLICKHOUSE_") // chCfg lives under SERVICE_CLICKHOUSE_*
	// bring up logging early
	l := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// open the platform store (postgres + optional CH analytics)
	chOn := chCfg.MayBool("ENABLED", false)
	st, err := store.Open(
		ctx,
		store.Config{
			AppName: "sitebuilder-api",
			PG: store.PGConfig{
				Enabled:     true,
				URL:         pgCfg.MustString("DBURL"),
				MaxConns:    int32(pgCfg.MayInt("MAX_CONNS", 8)),
				SlowQueryMs: pgCfg.MayInt("SLOW_MS", 500),
				LogSQL:      pgCfg.MayBool("LOG_SQL", false),
			},
			CH: store.CHConfig{
				Enabled:    chOn,
				URL:        chCfg.MayString("DBURL", ""),
				ClientName: "sitebuilder",
				ClientTag:  "api",
				LogSQL:     chCfg.MayBool("LOG_SQL", false),
			},
		},
		store.WithLogger(*logger.Get()),
	)
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	if buildCfg.MayBool("MIGRATE", false) {
		n, err := migrate.PG(ctx, st.PG)
		if err != nil {
			l.Panic().Err(err).Msg("pg migrations failed")
		}
		l.Info().Int("applied", n).Msg("pg migrations done")
		if st.CH != nil {
			if err := migrate.CH(ctx, st.CH); err != nil {
				l.Panic().Err(err).Msg("ch migrations failed")
			}
		}
	}

	// http server (CORE_API_ADDR, CORE_API_*_TIMEOUT)
	srv := phttp.NewServer(apiCfg)

	// mount our API
	build := api.Mount(
		srv.Router(),
		api.Options{
			Config:         root,
			Store:          st,
			Logger:         l,
			EnableSwagger:  apiCfg.MayBool("SWAGGER", true),
			EnableProfiler: apiCfg.MayBool("PROFILER", false),
		},
	)

	errc := make(chan error, 1)
	go func() { errc <- srv.Run(ctx) }()

	select {
	case err := <-errc:
		if err != nil {
			l.Panic().Err(err).Msg("http server stopped")
		}
	case <-ctx.Done():
		l.Info().Msg("shutting down")
	}

	// stop taking requests first, then let running builds finalize
	shutCtx, cancel := context.WithTimeout(context.Background(), 45*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		l.Error().Err(err).Msg("http shutdown")
	}
	if err := build.Supervisor.Shutdown(shutCtx); err != nil {
		l.Error().Err(err).Msg("build supervisor shutdown")
	}
}
