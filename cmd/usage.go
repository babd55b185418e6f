package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/diagramdive/internal/usage"
)

var (
	usageSince time.Duration
	usagePrune time.Duration
)

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Summarize LLM token usage and estimated cost",
	Long: `Reads the usage ledger written by the in-process generation pipeline and
prints calls, tokens and estimated cost per pipeline stage and model.`,
	RunE: runUsage,
}

func init() {
	usageCmd.Flags().DurationVar(&usageSince, "since", 30*24*time.Hour, "only count calls newer than this (0 for all)")
	usageCmd.Flags().DurationVar(&usagePrune, "prune", 0, "delete calls older than this before summarizing")
	rootCmd.AddCommand(usageCmd)
}

func runUsage(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if !cfg.Usage.Enabled {
		fmt.Println("Usage recording is disabled (usage.enabled: false).")
		return nil
	}
	if _, err := os.Stat(cfg.Usage.Path); os.IsNotExist(err) {
		fmt.Printf("No usage recorded yet (%s does not exist).\n", cfg.Usage.Path)
		return nil
	}

	store, closeUsage, err := openUsage(cfg)
	if err != nil {
		return err
	}
	defer closeUsage()

	if usagePrune > 0 {
		n, err := store.Prune(ctx, time.Now().Add(-usagePrune))
		if err != nil {
			return err
		}
		color.Yellow("Pruned %d call(s) older than %s", n, usagePrune)
	}

	var since time.Time
	if usageSince > 0 {
		since = time.Now().Add(-usageSince)
	}
	sum, err := store.Summary(ctx, since)
	if err != nil {
		return err
	}
	printUsage(os.Stdout, sum, usageSince)
	return nil
}

func printUsage(w io.Writer, sum *usage.Summary, window time.Duration) {
	header := color.New(color.Bold, color.FgCyan)
	total := color.New(color.Bold)

	header.Fprintln(w, "LLM Usage")
	header.Fprintln(w, "=========")
	if window > 0 {
		fmt.Fprintf(w, "  Window: last %s\n", window)
	}
	if len(sum.Lines) == 0 {
		fmt.Fprintln(w, "  No calls recorded.")
		return
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "  %-12s %-28s %7s %10s %10s %10s\n", "Stage", "Model", "Calls", "Input", "Output", "Cost")
	fmt.Fprintln(w, "  ────────────────────────────────────────────────────────────────────────────────")
	for _, l := range sum.Lines {
		fmt.Fprintf(w, "  %-12s %-28s %7d %10d %10d %10s\n", l.Stage, l.Model, l.Calls, l.InputTokens, l.OutputTokens, fmt.Sprintf("$%.4f", l.CostUSD))
	}
	fmt.Fprintln(w, "  ────────────────────────────────────────────────────────────────────────────────")
	total.Fprintf(w, "  %-12s %-28s %7d %10d %10d %10s\n", "Total", "", sum.Calls, sum.InputTokens, sum.OutputTokens, fmt.Sprintf("$%.4f", sum.CostUSD))
}
