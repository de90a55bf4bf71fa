// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List past matching runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		store, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		sessions, err := store.ListSessions(cmd.Context(), limit)
		if err != nil {
			return err
		}
		if len(sessions) == 0 {
			fmt.Println("No sessions recorded.")
			return nil
		}

		fmt.Printf("%-36s  %-6s  %-6s  %-10s  %-8s  %-8s  %-8s  %s\n",
			"Session", "Sells", "Buys", "Candidates", "Accepted", "Rejected", "Blocked", "Started")
		for _, s := range sessions {
			fmt.Printf("%-36s  %-6d  %-6d  %-10d  %-8d  %-8d  %-8d  %s\n",
				s.ID, s.SellCount, s.BuyCount, s.CandidateCount,
				s.AutoAccepted, s.AutoRejected, s.ConflictsBlocked,
				s.StartedAt.Format("2006-01-02 15:04"))
		}
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize the decision ledger",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		stats, err := store.Stats(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Printf("Decisions: %d\n", stats.Total)
		for status, count := range stats.ByStatus {
			fmt.Printf("  %-16s %d\n", status, count)
		}
		if stats.Total > 0 {
			fmt.Printf("Scores: min %.3f, max %.3f, mean %.3f\n",
				stats.MinScore, stats.MaxScore, stats.MeanScore)
		}
		fmt.Printf("Exclusions: %d\n", stats.Exclusions)
		fmt.Printf("Unresolved conflicts: %d\n", stats.Unresolved)
		return nil
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every decision, conflict, exclusion, and session",
	Long: `Clear wipes the entire decision ledger. This is irreversible and
requires --confirm. The matching pipeline never invokes it; it exists for
starting a reconciliation over from scratch.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		confirm, _ := cmd.Flags().GetBool("confirm")
		if !confirm {
			return fmt.Errorf("refusing to clear without --confirm")
		}

		store, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		summary, err := store.ClearAll(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Printf("Cleared %d decisions, %d conflicts, %d exclusions, %d sessions\n",
			summary.Decisions, summary.Conflicts, summary.Exclusions, summary.Sessions)
		return nil
	},
}

func init() {
	sessionsCmd.Flags().Int("limit", 20, "maximum sessions to list (0 = all)")
	clearCmd.Flags().Bool("confirm", false, "confirm the irreversible reset")

	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(clearCmd)
}
