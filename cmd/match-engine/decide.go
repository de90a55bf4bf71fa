// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/match-engine/internal/decision"
	"github.com/pdiddy/match-engine/pkg/types"
)

var decideCmd = &cobra.Command{
	Use:   "decide",
	Short: "Record manual accept/reject decisions for reviewed candidates",
}

var decideAcceptCmd = &cobra.Command{
	Use:   "accept SELL_ID BUY_ID",
	Short: "Accept a pairing",
	Long: `Accept records a manual pairing decision. If either side is already
actively matched elsewhere, the command fails and reports the conflict id
to resolve with "conflicts resolve".`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDecide(cmd, args, types.StatusAccepted)
	},
}

var decideRejectCmd = &cobra.Command{
	Use:   "reject SELL_ID BUY_ID",
	Short: "Reject a pairing and exclude it from future runs",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDecide(cmd, args, types.StatusRejected)
	},
}

func runDecide(cmd *cobra.Command, args []string, status types.DecisionStatus) error {
	score, _ := cmd.Flags().GetFloat64("score")
	notes, _ := cmd.Flags().GetString("notes")

	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	candidate := types.CandidateMatch{SellID: args[0], BuyID: args[1], Score: score}
	id, err := store.Record(cmd.Context(), candidate, status, 0, notes)
	if cerr := decision.AsConflict(err); cerr != nil {
		return fmt.Errorf("%s: resolve it with: match-engine conflicts resolve %d --action keep_existing|replace_existing",
			cerr.Message, cerr.ConflictID)
	}
	if err != nil {
		return err
	}

	fmt.Printf("Recorded %s decision %d for %s/%s\n", status, id, args[0], args[1])
	if status == types.StatusRejected {
		fmt.Println("Pair excluded from future candidate generation.")
	}
	return nil
}

var decideListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded decisions",
	RunE: func(cmd *cobra.Command, args []string) error {
		statusFilter, _ := cmd.Flags().GetString("status")

		store, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		var statuses []types.DecisionStatus
		if statusFilter != "" {
			st := types.DecisionStatus(statusFilter)
			if !st.Valid() {
				return fmt.Errorf("unknown status %q", statusFilter)
			}
			statuses = append(statuses, st)
		}

		decisions, err := store.Decisions(cmd.Context(), statuses...)
		if err != nil {
			return err
		}
		if len(decisions) == 0 {
			fmt.Println("No decisions recorded.")
			return nil
		}

		fmt.Printf("%-6s  %-10s  %-10s  %-16s  %-6s  %s\n",
			"ID", "Sell ID", "Buy ID", "Status", "Score", "Updated")
		for _, d := range decisions {
			fmt.Printf("%-6d  %-10s  %-10s  %-16s  %.3f  %s\n",
				d.ID, d.SellID, d.BuyID, d.Status, d.Score,
				d.UpdatedAt.Format("2006-01-02 15:04"))
		}
		return nil
	},
}

// errNotFoundHint rewrites store not-found errors with a CLI-level hint.
func errNotFoundHint(err error, what string) error {
	if errors.Is(err, decision.ErrNotFound) {
		return fmt.Errorf("%s not found (already resolved or removed?): %w", what, err)
	}
	return err
}

func init() {
	decideAcceptCmd.Flags().Float64("score", 0, "similarity score to record with the decision")
	decideAcceptCmd.Flags().String("notes", "", "reviewer notes")
	decideRejectCmd.Flags().Float64("score", 0, "similarity score to record with the decision")
	decideRejectCmd.Flags().String("notes", "", "rejection reason")
	decideListCmd.Flags().String("status", "", "filter by decision status")

	decideCmd.AddCommand(decideAcceptCmd)
	decideCmd.AddCommand(decideRejectCmd)
	decideCmd.AddCommand(decideListCmd)

	rootCmd.AddCommand(decideCmd)
}
