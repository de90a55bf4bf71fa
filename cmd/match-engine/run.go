// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/match-engine/internal/catalog"
	"github.com/pdiddy/match-engine/internal/match"
	"github.com/pdiddy/match-engine/pkg/types"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute one matching run over a sell and a buy catalog",
	Long: `Run loads both catalogs, scores candidates, auto-accepts pairs above
the confidence threshold, and prints everything left for manual review.

High-confidence conflicts with previously accepted pairings do not abort
the run; they are recorded for later resolution with "conflicts resolve".`,
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	sellPath, _ := cmd.Flags().GetString("sell")
	buyPath, _ := cmd.Flags().GetString("buy")
	if sellPath == "" || buyPath == "" {
		return fmt.Errorf("both --sell and --buy catalog files are required")
	}

	sells, err := catalog.LoadSell(sellPath, os.Stderr)
	if err != nil {
		return err
	}
	buys, err := catalog.LoadBuy(buyPath, os.Stderr)
	if err != nil {
		return err
	}

	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	engine := match.NewEngine(store, engineConfig(cmd))
	result, err := engine.Run(cmd.Context(), sells, buys, os.Stderr)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	printSessionSummary(result.Session)
	printPending(result.Pending())
	return nil
}

func printSessionSummary(s types.MatchSession) {
	fmt.Printf("Session %s\n", s.ID)
	fmt.Printf("  sell records:   %d (%d skipped as decided)\n", s.SellCount, s.SkippedDecided)
	fmt.Printf("  buy records:    %d\n", s.BuyCount)
	fmt.Printf("  candidates:     %d (%d exclusions applied)\n", s.CandidateCount, s.ExclusionsApplied)
	fmt.Printf("  auto-accepted:  %d\n", s.AutoAccepted)
	fmt.Printf("  auto-rejected:  %d\n", s.AutoRejected)
	fmt.Printf("  blocked:        %d\n", s.ConflictsBlocked)
	fmt.Printf("  pending review: %d\n", s.PendingReview)
	fmt.Printf("  duration:       %s\n", s.Duration)
}

func printPending(pending []match.Proposal) {
	if len(pending) == 0 {
		fmt.Println("\nNothing pending review.")
		return
	}

	fmt.Printf("\n%-4s  %-10s  %-30s  %-10s  %-30s  %-6s  %s\n",
		"Rank", "Sell ID", "Sell Name", "Buy ID", "Buy Name", "Score", "Confidence")
	fmt.Println(strings.Repeat("-", 110))

	for _, p := range pending {
		c := p.Candidate
		fmt.Printf("%-4d  %-10s  %-30s  %-10s  %-30s  %.3f  %s\n",
			c.Rank, c.SellID, clip(c.SellName, 30), c.BuyID, clip(c.BuyName, 30),
			c.Score, types.Confidence(c.Score))
	}

	fmt.Printf("\n%d candidates pending review\n", len(pending))
}

// clip shortens s to at most n runes. Counting runes keeps multi-byte
// card names from being cut mid-character.
func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func init() {
	runCmd.Flags().String("sell", "", "sell catalog file (.csv or .yaml)")
	runCmd.Flags().String("buy", "", "buy catalog file (.json or .yaml)")
	runCmd.Flags().Int("top-k", 5, "maximum candidates per sell record")
	runCmd.Flags().Float64("floor", 0.3, "minimum similarity for a candidate")
	runCmd.Flags().Float64("auto-accept", 0.9, "auto-accept threshold")
	runCmd.Flags().Bool("skip-decided", false, "skip sell records with an active decision")
	runCmd.Flags().Bool("json", false, "output the full run result as JSON")

	rootCmd.AddCommand(runCmd)
}
