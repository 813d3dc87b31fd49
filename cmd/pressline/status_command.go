package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"pressline/internal/api"
	"pressline/internal/config"
	"pressline/internal/daemonrun"
	"pressline/internal/document"
	"pressline/internal/logging"
	"pressline/internal/notifications"
	"pressline/internal/preflight"
	"pressline/internal/queue"
)

type statusOutput struct {
	DaemonRunning bool              `json:"daemonRunning"`
	DatabasePath  string            `json:"databasePath"`
	DocumentsDir  string            `json:"documentsDir"`
	QueueStats    map[string]int    `json:"queueStats"`
	Stages        []api.StageHealth `json:"stages"`
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon state and work item counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStores(func(cfg *config.Config, store *queue.Store, docs *document.Store) error {
				stats, err := api.NewQueueService(store, docs).Stats(cmd.Context())
				if err != nil {
					return err
				}
				pipeline := daemonrun.NewPipeline(cfg, store, docs, logging.NewNop(), notifications.NewService(cfg))
				status := statusOutput{
					DaemonRunning: daemonRunning(cfg),
					DatabasePath:  cfg.DatabasePath(),
					DocumentsDir:  cfg.DocumentsDir(),
					QueueStats:    stats,
					Stages:        api.FromHealth(pipeline.Health(cmd.Context())).Stages,
				}
				if jsonOutput {
					return writeJSON(cmd, status)
				}

				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				printSection(out, "System Status", colorize)
				daemonKind, daemonText := statusWarn, "Not running"
				if status.DaemonRunning {
					daemonKind, daemonText = statusOK, "Running"
				}
				fmt.Fprintln(out, renderStatusLine("Daemon", daemonKind, daemonText, colorize))
				fmt.Fprintln(out, renderStatusLine("Work store", statusInfo, status.DatabasePath, colorize))
				fmt.Fprintln(out, renderStatusLine("Document store", statusInfo, status.DocumentsDir, colorize))
				fmt.Fprintln(out, renderStatusLine("Publishing", statusInfo, yesNo(cfg.Publish.Enabled), colorize))
				fmt.Fprintln(out)

				printSection(out, "Stages", colorize)
				for _, h := range status.Stages {
					kind := statusOK
					if !h.Ready {
						kind = statusError
					} else if h.Detail != "" {
						kind = statusInfo
					}
					detail := h.Detail
					if detail == "" {
						detail = "Ready"
					}
					fmt.Fprintln(out, renderStatusLine(h.Name, kind, detail, colorize))
				}
				fmt.Fprintln(out)

				printSection(out, "Work Items", colorize)
				rows, total := queueStatRows(stats)
				fmt.Fprint(out, tableView{
					headers: []string{"Status", "Count"},
					rows:    rows,
					footer:  []string{"Total", strconv.Itoa(total)},
					right:   []int{1},
				})
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

// queueStatRows lists every status in pipeline order, zero counts included,
// and returns the item total for the footer.
func queueStatRows(stats map[string]int) (rows [][]string, total int) {
	for _, status := range queue.AllStatuses() {
		count := stats[string(status)]
		total += count
		rows = append(rows, []string{string(status), strconv.Itoa(count)})
	}
	return rows, total
}

func newHealthCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Run preflight checks against directories and external services",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			results := preflight.RunAll(cmd.Context(), cfg)
			if jsonOutput {
				if err := writeJSON(cmd, healthJSON(results)); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				printSection(out, "Preflight", colorize)
				for _, r := range results {
					kind := statusOK
					if !r.Passed {
						kind = statusError
					}
					fmt.Fprintln(out, renderStatusLine(r.Name, kind, r.Detail, colorize))
				}
			}
			if failed := preflight.Failed(results); len(failed) > 0 {
				return fmt.Errorf("%d of %d checks failed", len(failed), len(results))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func healthJSON(results []preflight.Result) api.HealthResponse {
	resp := api.HealthResponse{Ready: true, Stages: make([]api.StageHealth, 0, len(results))}
	for _, r := range results {
		resp.Stages = append(resp.Stages, api.StageHealth{Name: r.Name, Ready: r.Passed, Detail: r.Detail})
		if !r.Passed {
			resp.Ready = false
		}
	}
	return resp
}
