package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"sitebuilder/internal/core/lifecycle"
	"sitebuilder/internal/platform/config"
	"sitebuilder/internal/platform/migrate"
	"sitebuilder/internal/platform/sysauth"
	"sitebuilder/internal/services/build/domain"
	workerbuild "sitebuilder/internal/services/build/module"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply embedded postgres and clickhouse migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			st, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close(context.Background()) }()

			n, err := migrate.PG(ctx, st.PG)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "postgres: %d migration(s) applied\n", n)
			if st.CH != nil {
				if err := migrate.CH(ctx, st.CH); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "clickhouse: ok")
			}
			return nil
		},
	}
}

func buildCmd() *cobra.Command {
	var system bool
	cmd := &cobra.Command{
		Use:   "build <site-id>",
		Short: "Run a content build in the foreground",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid site id: %w", err)
			}
			trig := lifecycle.TriggerUser
			if system {
				trig = lifecycle.TriggerSystem
			}
			return withBuild(cmd.Context(), func(ctx context.Context, p workerbuild.Ports) error {
				out, err := p.Orchestrator.Build(ctx, id, trig)
				if err != nil {
					return err
				}
				if err := renderOutcome(cmd.OutOrStdout(), out); err != nil {
					return err
				}
				return out.Err
			})
		},
	}
	cmd.Flags().BoolVar(&system, "system", false, "run as a system trigger (bypasses the building guard)")
	return cmd
}

func progressCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "progress <site-id>",
		Short: "Show site status and build progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid site id: %w", err)
			}
			return withBuild(cmd.Context(), func(ctx context.Context, p workerbuild.Ports) error {
				st, err := p.Tracker.Read(ctx, id)
				if err != nil {
					return err
				}
				return renderState(cmd.OutOrStdout(), id, st)
			})
		},
	}
}

func artifactsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "artifacts <site-id>",
		Short: "List generated pages and content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid site id: %w", err)
			}
			return withBuild(cmd.Context(), func(ctx context.Context, p workerbuild.Ports) error {
				idx, err := p.Store.ListArtifacts(ctx, id)
				if err != nil {
					return err
				}
				return renderArtifacts(cmd.OutOrStdout(), idx)
			})
		},
	}
}

func tokenCmd() *cobra.Command {
	var subject string
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an internal auth token for system triggers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			secret := config.New().Prefix("CORE_BUILD_").MayString("INTERNAL_SECRET", "")
			tok, err := sysauth.Sign(secret, subject, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "sitebuilder-ctl", "token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", sysauth.DefaultTTL, "token lifetime")
	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(w io.Writer) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	return tw
}

func renderState(w io.Writer, id uuid.UUID, st lifecycle.State) error {
	if asJSON {
		return printJSON(w, map[string]any{
			"site_id":           id,
			"status":            st.Status,
			"build_progress":    st.Progress,
			"status_message":    st.StatusMessage,
			"status_updated_at": st.UpdatedAt,
		})
	}
	tw := newTable(w)
	tw.AppendHeader(table.Row{"Site", "Status", "Done", "Total", "%", "Current task", "Message"})
	done, total, pct, current := "-", "-", "-", "-"
	if p := st.Progress; p != nil {
		done, total = fmt.Sprint(p.CompletedTasks), fmt.Sprint(p.TotalTasks)
		pct, current = fmt.Sprint(p.Percent()), p.CurrentTask
	}
	tw.AppendRow(table.Row{id, st.Status, done, total, pct, current, st.StatusMessage})
	tw.Render()
	return nil
}

func renderOutcome(w io.Writer, out domain.Outcome) error {
	if asJSON {
		msg := ""
		if out.Err != nil {
			msg = out.Err.Error()
		}
		return printJSON(w, map[string]any{
			"run_id": out.RunID, "status": out.Status, "completed": out.Completed,
			"total": out.Total, "failed_batches": out.FailedBatches, "error": msg,
		})
	}
	tw := newTable(w)
	tw.AppendHeader(table.Row{"Run", "Status", "Completed", "Total", "Failed batches"})
	tw.AppendRow(table.Row{out.RunID, out.Status, out.Completed, out.Total, out.FailedBatches})
	tw.Render()
	return nil
}

func renderArtifacts(w io.Writer, idx domain.ArtifactIndex) error {
	if asJSON {
		return printJSON(w, idx)
	}
	tw := newTable(w)
	tw.AppendHeader(table.Row{"Kind", "Key"})
	for _, p := range idx.Pages {
		tw.AppendRow(table.Row{"page", p})
	}
	for _, s := range idx.Services {
		tw.AppendRow(table.Row{"service", s})
	}
	for _, a := range idx.Areas {
		tw.AppendRow(table.Row{"area", a})
	}
	tw.AppendFooter(table.Row{"total", len(idx.Pages) + len(idx.Services) + len(idx.Areas)})
	tw.Render()
	return nil
}

