package cli

import (
	"context"
	"fmt"
	"sort"

	"github.com/raphaelgruber/boardroom/internal/metrics"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show server statistics",
	Long: `Show server runtime statistics: turn and completion timings, token usage,
context builds and database queries since the server started.`,
	Args: cobra.NoArgs,
	RunE: runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	stats, err := apiClient.Stats(ctx)
	if err != nil {
		return fmt.Errorf("get server stats: %w", err)
	}
	printServerStats(stats)
	return nil
}

// printServerStats displays server runtime statistics.
func printServerStats(stats *metrics.Snapshot) {
	fmt.Printf("Server Statistics (in-memory, since restart)\n")
	fmt.Printf("═══════════════════════════════════════════════\n")
	fmt.Printf("Uptime: %.1f seconds\n", stats.UptimeSeconds)

	sections := []struct {
		title string
		op    *metrics.OperationSnapshot
	}{
		{"Turns", stats.Turn},
		{"Completions", stats.Completion},
		{"Summaries", stats.Summary},
		{"Context Builds", stats.ContextBuild},
		{"DB Queries", stats.DBQuery},
	}
	for _, s := range sections {
		if s.op == nil {
			continue
		}
		fmt.Printf("\n%s:\n", s.title)
		printOpStats(s.op)
		printTokenStats(s.op)
	}

	if len(stats.CompletionByTier) > 0 {
		tiers := make([]string, 0, len(stats.CompletionByTier))
		for tier := range stats.CompletionByTier {
			tiers = append(tiers, tier)
		}
		sort.Strings(tiers)
		for _, tier := range tiers {
			op := stats.CompletionByTier[tier]
			if op == nil {
				continue
			}
			fmt.Printf("\nCompletions (%s tier):\n", tier)
			printOpStats(op)
			printTokenStats(op)
		}
	}

	if len(stats.Counters) > 0 {
		fmt.Printf("\nEvents:\n")
		names := make([]string, 0, len(stats.Counters))
		for name := range stats.Counters {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Printf("  %-18s %d\n", name+":", stats.Counters[name])
		}
	}
}

// printOpStats displays timing statistics for an operation.
func printOpStats(op *metrics.OperationSnapshot) {
	fmt.Printf("  Calls: %d, Failures: %d, Total: %dms\n", op.Count, op.Failures, op.TotalTimeMs)
	fmt.Printf("  Time: avg %.1fms, min %dms, max %dms\n", op.AvgTimeMs, op.MinTimeMs, op.MaxTimeMs)
}

// printTokenStats displays token statistics for LLM operations.
func printTokenStats(op *metrics.OperationSnapshot) {
	if op.TotalInputTokens == nil || op.TotalOutputTokens == nil {
		return
	}
	fmt.Printf("  Tokens: %d in, %d out\n", *op.TotalInputTokens, *op.TotalOutputTokens)
	if op.AvgInputTokens != nil && op.AvgOutputTokens != nil {
		fmt.Printf("  Avg tokens: %.0f in, %.0f out\n", *op.AvgInputTokens, *op.AvgOutputTokens)
	}
}
