package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"pressline/internal/api"
	"pressline/internal/config"
	"pressline/internal/document"
	"pressline/internal/queue"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	var statusFlags []string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List work items, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses, err := parseStatusFlags(statusFlags)
			if err != nil {
				return err
			}
			return ctx.withStores(func(_ *config.Config, store *queue.Store, docs *document.Store) error {
				items, err := api.NewQueueService(store, docs).List(cmd.Context(), statuses...)
				if err != nil {
					return err
				}
				items = api.SortItemsNewestFirst(items)
				if jsonOutput {
					if items == nil {
						items = []api.Item{}
					}
					return writeJSON(cmd, items)
				}
				if len(items) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No items")
					return nil
				}
				fmt.Fprint(cmd.OutOrStdout(), tableView{
					headers: []string{"ID", "Status", "Source", "Title", "Updated"},
					rows:    itemRows(items),
					right:   []int{0},
				})
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVarP(&statusFlags, "status", "s", nil, "Filter by status (repeatable or comma separated)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func parseStatusFlags(values []string) ([]queue.Status, error) {
	var statuses []queue.Status
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			status, ok := queue.ParseStatus(part)
			if !ok {
				return nil, fmt.Errorf("unknown status %q", part)
			}
			statuses = append(statuses, status)
		}
	}
	return statuses, nil
}

func itemRows(items []api.Item) [][]string {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		status := item.Status
		if item.Failed && item.LastError != "" {
			status += " (" + truncate(item.LastError, 40) + ")"
		}
		title := item.Title
		if title == "" {
			title = item.SourceURL
		}
		rows = append(rows, []string{
			strconv.FormatInt(item.ID, 10),
			status,
			item.SourceName,
			truncate(title, 60),
			shortTime(item.UpdatedAt),
		})
	}
	return rows
}

func shortTime(value string) string {
	t := api.ParseTime(value)
	if t.IsZero() {
		return value
	}
	return t.Local().Format("2006-01-02 15:04")
}

func truncate(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit-1]) + "…"
}

func newShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one work item and its documents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(strings.TrimSpace(args[0]), 10, 64)
			if err != nil {
				return fmt.Errorf("invalid item id %q", args[0])
			}
			return ctx.withStores(func(_ *config.Config, store *queue.Store, docs *document.Store) error {
				detail, err := api.NewQueueService(store, docs).Describe(cmd.Context(), id)
				if err != nil {
					return err
				}
				if detail == nil {
					return fmt.Errorf("item %d not found", id)
				}
				if jsonOutput {
					return writeJSON(cmd, detail)
				}
				printItemDetail(cmd, detail)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func printItemDetail(cmd *cobra.Command, detail *api.ItemDetail) {
	out := cmd.OutOrStdout()
	item := detail.Item
	fields := [][2]string{
		{"ID", strconv.FormatInt(item.ID, 10)},
		{"Title", item.Title},
		{"Source", item.SourceName},
		{"URL", item.SourceURL},
		{"Status", item.Status},
		{"Published", item.PublishedAt},
		{"Created", item.CreatedAt},
		{"Updated", item.UpdatedAt},
		{"Raw page", item.RawRef},
		{"Cleaned", item.CleanedRef},
		{"Post", item.PostRef},
		{"Last error", item.LastError},
	}
	for _, f := range fields {
		if f[1] == "" {
			continue
		}
		fmt.Fprintf(out, "%-11s %s\n", f[0]+":", f[1])
	}
	for _, doc := range detail.Documents {
		fmt.Fprintf(out, "\n%s document %s\n", doc.Kind, doc.Ref)
		if doc.Error != "" {
			fmt.Fprintf(out, "  error: %s\n", doc.Error)
			continue
		}
		fmt.Fprintf(out, "  status: %s, %d chars\n", doc.Status, doc.Chars)
		if doc.Summary != "" {
			fmt.Fprintf(out, "  summary: %s\n", doc.Summary)
		}
	}
}

func newRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry [id...]",
		Short: "Return failed items to the status before the failure",
		Long:  "Return failed items to the status before the failure. Without ids every failed item is retried.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int64, 0, len(args))
			for _, arg := range args {
				id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
				if err != nil {
					return fmt.Errorf("invalid item id %q", arg)
				}
				ids = append(ids, id)
			}
			return ctx.withStores(func(_ *config.Config, store *queue.Store, _ *document.Store) error {
				count, err := store.RetryFailed(cmd.Context(), ids...)
				if err != nil {
					return err
				}
				switch count {
				case 0:
					fmt.Fprintln(cmd.OutOrStdout(), "No failed items to retry")
				case 1:
					fmt.Fprintln(cmd.OutOrStdout(), "1 item queued for retry")
				default:
					fmt.Fprintf(cmd.OutOrStdout(), "%d items queued for retry\n", count)
				}
				return nil
			})
		},
	}
}
