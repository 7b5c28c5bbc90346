// Command sitebuilder-ctl is the operator CLI: migrations, foreground builds,
// progress inspection and internal token minting
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"sitebuilder/internal/modkit"
	"sitebuilder/internal/platform/config"
	"sitebuilder/internal/platform/logger"
	"sitebuilder/internal/platform/store"
	workerbuild "sitebuilder/internal/services/build/module"
)

var asJSON bool

var rootCmd = &cobra.Command{
	Use:           "sitebuilder-ctl",
	Short:         "Sitebuilder operator CLI",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	rootCmd.PersistentFlags().BoolVar(&asJSON, "json", false, "output JSON")
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(buildCmd())
	rootCmd.AddCommand(progressCmd())
	rootCmd.AddCommand(artifactsCmd())
	rootCmd.AddCommand(tokenCmd())
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// openStore connects to postgres and, when enabled, clickhouse
func openStore(ctx context.Context) (*store.Store, error) {
	root := config.New()
	pgCfg := root.Prefix("SERVICE_PGSQL_")
	chCfg := root.Prefix("SERVICE_CLICKHOUSE_")
	url := pgCfg.MayString("DBURL", "")
	if url == "" {
		return nil, fmt.Errorf("SERVICE_PGSQL_DBURL is not set")
	}
	return store.Open(ctx, store.Config{
		AppName: "sitebuilder-ctl",
		PG: store.PGConfig{
			Enabled:     true,
			URL:         url,
			MaxConns:    int32(pgCfg.MayInt("MAX_CONNS", 2)),
			SlowQueryMs: pgCfg.MayInt("SLOW_MS", 500),
			LogSQL:      pgCfg.MayBool("LOG_SQL", false),
		},
		CH: store.CHConfig{
			Enabled:    chCfg.MayBool("ENABLED", false),
			URL:        chCfg.MayString("DBURL", ""),
			ClientName: "sitebuilder",
			ClientTag:  "ctl",
		},
	}, store.WithLogger(*logger.Get()))
}

// withBuild opens the store and wires a build worker over it
func withBuild(ctx context.Context, fn func(context.Context, workerbuild.Ports) error) error {
	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close(context.Background()) }()

	deps := modkit.Deps{Cfg: config.New(), PG: st.PG, CH: st.CH, Log: *logger.Get()}
	m := workerbuild.New(deps, workerbuild.Overrides{})
	return fn(ctx, m.Ports().(workerbuild.Ports))
}
