package cli

import (
	"fmt"

	"github.com/raphaelgruber/chronicle-go/internal/metrics"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show pipeline statistics for this process",
	Long: `Show in-memory pipeline statistics: per-stage timings and LLM token
usage. Stats cover operations run by this process, so combine with a
command that does work, e.g. run a preview first in the same shell session
with --follow.`,
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	timelines, err := dbClient.CountTimelines(cmd.Context())
	if err != nil {
		return fmt.Errorf("count timelines: %w", err)
	}

	snap := collector.Snapshot()

	fmt.Printf("Pipeline Statistics (in-memory)\n")
	fmt.Printf("═══════════════════════════════════════\n")
	fmt.Printf("Uptime: %.1f seconds\n", snap.UptimeSeconds)
	fmt.Printf("Canonical timelines: %d\n", timelines)

	printStage("Chunking", snap.Chunking)
	printStage("Extraction", snap.Extraction)
	printStage("LLM Generate", snap.LLMGenerate)
	printStage("Merge", snap.Merge)
	printStage("Match", snap.Match)
	printStage("Enrich", snap.Enrich)
	printStage("Commit", snap.Commit)

	return nil
}

func printStage(name string, op *metrics.OperationSnapshot) {
	if op == nil {
		return
	}
	fmt.Printf("\n%s:\n", name)
	fmt.Printf("  Calls: %d, Total: %dms\n", op.Count, op.TotalTimeMs)
	fmt.Printf("  Time: avg %.1fms, min %dms, max %dms\n",
		op.AvgTimeMs, op.MinTimeMs, op.MaxTimeMs)
	printStageTokens(op)
}

func printStageTokens(op *metrics.OperationSnapshot) {
	if op.TotalInputTokens == nil || op.TotalOutputTokens == nil {
		return
	}
	fmt.Printf("  Tokens In:  %d total", *op.TotalInputTokens)
	if op.AvgInputTokens != nil {
		fmt.Printf(", avg %.0f", *op.AvgInputTokens)
	}
	fmt.Println()

	fmt.Printf("  Tokens Out: %d total", *op.TotalOutputTokens)
	if op.AvgOutputTokens != nil {
		fmt.Printf(", avg %.0f", *op.AvgOutputTokens)
	}
	fmt.Println()
}
