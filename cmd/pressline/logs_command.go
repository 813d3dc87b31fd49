package main

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"pressline/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var (
		lines  int
		follow bool
		raw    bool
		filter logs.Filter
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the daemon log",
		Long:  "Show the daemon log. Records can be narrowed to one stage, item, or cycle.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := filepath.Join(cfg.Paths.LogDir, "pressline.log")
			out := cmd.OutOrStdout()

			result, err := logs.Tail(cmd.Context(), path, logs.TailOptions{Offset: -1, Limit: lines})
			if err != nil {
				return err
			}
			printLogLines(out, filter.Apply(result.Lines), raw)
			if !follow {
				return nil
			}

			offset := result.Offset
			for {
				result, err = logs.Tail(cmd.Context(), path, logs.TailOptions{Offset: offset, Follow: true, Wait: 5 * time.Second})
				if err != nil {
					if errors.Is(err, cmd.Context().Err()) {
						return nil
					}
					return err
				}
				offset = result.Offset
				printLogLines(out, filter.Apply(result.Lines), raw)
			}
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new lines")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print JSON records unchanged")
	cmd.Flags().StringVar(&filter.MinLevel, "level", "", "Minimum level (debug, info, warn, error)")
	cmd.Flags().StringVar(&filter.Stage, "stage", "", "Only records from this stage")
	cmd.Flags().Int64Var(&filter.ItemID, "item", 0, "Only records about this item id")
	cmd.Flags().StringVar(&filter.Cycle, "cycle", "", "Only records from cycles whose id starts with this prefix")
	return cmd
}

func printLogLines(out io.Writer, lines []string, raw bool) {
	for _, line := range lines {
		if !raw {
			if rec, ok := logs.Parse(line); ok {
				line = logs.Format(rec)
			}
		}
		fmt.Fprintln(out, line)
	}
}
