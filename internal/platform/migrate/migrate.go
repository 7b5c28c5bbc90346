// Package migrate applies the embedded schema to postgres and clickhouse
package migrate

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"sitebuilder/internal/platform/logger"
	"sitebuilder/internal/platform/store"
)

//go:embed sql/pg/*.sql sql/ch/*.sql
var migrationsFS embed.FS

// Migration is one versioned file
type Migration struct {
	Version int
	Name    string
	UpSQL   string
}

// Load reads migrations under sql/<dir> sorted by version
func Load(dir string) ([]Migration, error) {
	root := "sql/" + dir
	files, err := fs.ReadDir(migrationsFS, root)
	if err != nil {
		return nil, err
	}
	var out []Migration
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".sql") {
			continue
		}
		data, err := migrationsFS.ReadFile(root + "/" + f.Name())
		if err != nil {
			return nil, err
		}
		var v int
		if _, err := fmt.Sscanf(f.Name(), "%d_", &v); err != nil {
			return nil, fmt.Errorf("invalid migration filename %s: %w", f.Name(), err)
		}
		out = append(out, Migration{Version: v, Name: f.Name(), UpSQL: string(data)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	for i := 1; i < len(out); i++ {
		if out[i].Version == out[i-1].Version {
			return nil, fmt.Errorf("duplicate migration version %d (%s, %s)", out[i].Version, out[i-1].Name, out[i].Name)
		}
	}
	return out, nil
}

// PG applies pending postgres migrations in one transaction and returns how many ran
func PG(ctx context.Context, db store.TxRunner) (int, error) {
	migrations, err := Load("pg")
	if err != nil {
		return 0, err
	}
	log := logger.Named("migrate")

	applied := 0
	err = db.Tx(ctx, func(q store.RowQuerier) error {
		// serialize concurrent migrators (api replicas starting together)
		if _, err := q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext('sitebuilder.migrate'))`); err != nil {
			return fmt.Errorf("migrate lock: %w", err)
		}
		if _, err := q.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_version (version integer NOT NULL)`); err != nil {
			return fmt.Errorf("create schema_version: %w", err)
		}

		var current int
		if err := q.QueryRow(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&current); err != nil {
			return fmt.Errorf("read schema_version: %w", err)
		}

		for _, m := range migrations {
			if m.Version <= current {
				continue
			}
			if _, err := q.Exec(ctx, m.UpSQL); err != nil {
				return fmt.Errorf("migration %s: %w", m.Name, err)
			}
			if _, err := q.Exec(ctx, `INSERT INTO schema_version (version) VALUES ($1)`, m.Version); err != nil {
				return fmt.Errorf("record schema_version: %w", err)
			}
			log.Info().Str("name", m.Name).Msg("migrate: applied")
			current = m.Version
			applied++
		}
		return nil
	})
	return applied, err
}

// CH runs the clickhouse DDL; every statement is IF NOT EXISTS so it is safe to repeat
func CH(ctx context.Context, ch store.Clickhouse) error {
	migrations, err := Load("ch")
	if err != nil {
		return err
	}
	for _, m := range migrations {
		for _, stmt := range Statements(m.UpSQL) {
			if err := ch.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("clickhouse migration %s: %w", m.Name, err)
			}
		}
	}
	return nil
}

// Statements splits a file on ';' and drops empty pieces
func Statements(sql string) []string {
	var out []string
	for s := range strings.SplitSeq(sql, ";") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
