package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"pressline/internal/api"
	"pressline/internal/config"
	"pressline/internal/daemonrun"
	"pressline/internal/document"
	"pressline/internal/logging"
	"pressline/internal/notifications"
	"pressline/internal/queue"
	"pressline/internal/stage"
	"pressline/internal/workflow"
)

func newCycleCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "cycle",
		Short: "Run one pipeline cycle and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withExclusiveStores(func(cfg *config.Config, store *queue.Store, docs *document.Store) error {
				mgr, err := newOneShotPipeline(cfg, store, docs)
				if err != nil {
					return err
				}
				summary, runErr := mgr.RunCycle(cmd.Context())
				if jsonOutput {
					if err := writeJSON(cmd, cycleJSON(summary)); err != nil {
						return err
					}
				} else {
					printCycleSummary(cmd.OutOrStdout(), summary)
				}
				if runErr != nil {
					return runErr
				}
				if len(summary.Errors) > 0 {
					return fmt.Errorf("%d stage(s) failed", len(summary.Errors))
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newStageCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "stage <name>",
		Short: "Run a single pipeline stage and exit",
		Long: "Run a single pipeline stage and exit. Valid names: " +
			"fetching, cleaning, summarizing, selection, generation, publishing.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withExclusiveStores(func(cfg *config.Config, store *queue.Store, docs *document.Store) error {
				mgr, err := newOneShotPipeline(cfg, store, docs)
				if err != nil {
					return err
				}
				report, runErr := mgr.RunStage(cmd.Context(), args[0])
				if report.Stage == "" && runErr != nil {
					return runErr
				}
				if jsonOutput {
					if err := writeJSON(cmd, api.FromReport(report)); err != nil {
						return err
					}
				} else {
					fmt.Fprint(cmd.OutOrStdout(), tableView{headers: reportHeaders, rows: [][]string{reportRow(report, runErr)}, right: reportRight})
				}
				return runErr
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newOneShotPipeline(cfg *config.Config, store *queue.Store, docs *document.Store) (*workflow.Manager, error) {
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return daemonrun.NewPipeline(cfg, store, docs, logger, notifications.NewService(cfg)), nil
}

var (
	reportHeaders = []string{"Stage", "Attempted", "Succeeded", "Failed", "Soft", "Skipped", "Duration", "Note"}
	reportRight   = []int{1, 2, 3, 4, 5, 6}
)

func reportRow(r stage.Report, err error) []string {
	note := r.Note
	if err != nil {
		note = "error: " + err.Error()
	}
	return []string{
		r.Stage,
		strconv.Itoa(r.Attempted),
		strconv.Itoa(r.Succeeded),
		strconv.Itoa(r.Failed),
		strconv.Itoa(r.Soft),
		strconv.Itoa(r.Skipped),
		r.Duration().Round(time.Millisecond).String(),
		note,
	}
}

func printCycleSummary(out io.Writer, summary workflow.CycleSummary) {
	rows := make([][]string, 0, len(summary.Reports))
	for _, report := range summary.Reports {
		var err error
		if msg, ok := summary.Errors[report.Stage]; ok {
			err = errors.New(msg)
		}
		rows = append(rows, reportRow(report, err))
	}
	fmt.Fprintf(out, "Cycle %s\n", summary.ID)
	fmt.Fprint(out, tableView{headers: reportHeaders, rows: rows, right: reportRight})
	line := fmt.Sprintf("%d succeeded, %d failed in %s", summary.Succeeded, summary.Failed, summary.Duration().Round(time.Millisecond))
	if summary.Interrupted {
		line += " (interrupted)"
	}
	fmt.Fprintln(out, line)
}

type cycleOutput struct {
	ID          string                     `json:"id"`
	Succeeded   int                        `json:"succeeded"`
	Failed      int                        `json:"failed"`
	DurationMS  int64                      `json:"durationMs"`
	Interrupted bool                       `json:"interrupted,omitempty"`
	Stages      map[string]api.StageReport `json:"stages"`
	Errors      map[string]string          `json:"errors,omitempty"`
}

func cycleJSON(summary workflow.CycleSummary) cycleOutput {
	out := cycleOutput{
		ID:          summary.ID,
		Succeeded:   summary.Succeeded,
		Failed:      summary.Failed,
		DurationMS:  summary.Duration().Milliseconds(),
		Interrupted: summary.Interrupted,
		Stages:      make(map[string]api.StageReport, len(summary.Reports)),
		Errors:      summary.Errors,
	}
	for _, report := range summary.Reports {
		out.Stages[strings.TrimSpace(report.Stage)] = api.FromReport(report)
	}
	return out
}
