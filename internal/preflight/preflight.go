package preflight

import (
	"context"
	"strings"

	"pressline/internal/config"
)

// minFreeBytes is the free space the data directory needs before the
// pipeline writes raw pages and documents into it.
const minFreeBytes = 256 << 20

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// Checks are only run when the corresponding feature is enabled.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Document store", cfg.DocumentsDir()),
		CheckFreeSpace("Data directory space", cfg.Paths.DataDir, minFreeBytes),
	}
	if strings.TrimSpace(cfg.Paths.LogDir) != "" {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	}

	results = append(results, CheckFeeds(cfg.Feeds))
	results = append(results, CheckLLM(ctx, "LLM", cfg.GetLLM()))

	// Stage models share the key and endpoint, so one reachability check
	// covers them. Only a distinct model per stage needs its own probe.
	seen := map[string]bool{strings.TrimSpace(cfg.GetLLM().Model): true}
	for _, stage := range []string{"cleaning", "summarizing", "selection", "generation"} {
		stageCfg := cfg.StageLLM(stage)
		if seen[stageCfg.Model] {
			continue
		}
		seen[stageCfg.Model] = true
		results = append(results, CheckLLM(ctx, "LLM ("+stage+")", stageCfg))
	}

	if cfg.Publish.Enabled {
		results = append(results, CheckTelegram(cfg.Telegram))
	}
	return results
}

// Failed returns the subset of results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
