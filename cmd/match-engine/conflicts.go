// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/pdiddy/match-engine/internal/decision"
	"github.com/pdiddy/match-engine/pkg/types"
)

var conflictsCmd = &cobra.Command{
	Use:   "conflicts",
	Short: "Inspect and resolve matching conflicts",
}

var conflictsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List matching conflicts",
	RunE: func(cmd *cobra.Command, args []string) error {
		statusFilter, _ := cmd.Flags().GetString("status")

		store, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		conflicts, err := store.ListConflicts(cmd.Context(), types.ResolutionStatus(statusFilter))
		if err != nil {
			return err
		}
		if len(conflicts) == 0 {
			fmt.Println("No conflicts.")
			return nil
		}

		fmt.Printf("%-6s  %-14s  %-10s  %-10s  %-6s  %-10s  %s\n",
			"ID", "Type", "Sell ID", "Buy ID", "Score", "Status", "Message")
		for _, c := range conflicts {
			fmt.Printf("%-6d  %-14s  %-10s  %-10s  %.3f  %-10s  %s\n",
				c.ID, c.Type, c.AttemptedSellID, c.AttemptedBuyID,
				c.AttemptedScore, c.ResolutionStatus, c.Message)
		}
		return nil
	},
}

var conflictsResolveCmd = &cobra.Command{
	Use:   "resolve CONFLICT_ID",
	Short: "Resolve a conflict by keeping or replacing the existing pairing",
	Long: `Resolve closes a conflict. With --action keep_existing the prior
decision stands untouched. With --action replace_existing the prior
decision is marked replaced and the attempted pair becomes accepted.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		conflictID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid conflict id %q", args[0])
		}
		action, _ := cmd.Flags().GetString("action")
		notes, _ := cmd.Flags().GetString("notes")

		store, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		err = store.ResolveConflict(cmd.Context(), conflictID, decision.ResolutionAction(action), notes)
		if err != nil {
			return errNotFoundHint(err, fmt.Sprintf("conflict %d", conflictID))
		}

		fmt.Printf("Conflict %d resolved (%s)\n", conflictID, action)
		return nil
	},
}

func init() {
	conflictsListCmd.Flags().String("status", "", "filter: unresolved, resolved, or ignored")
	conflictsResolveCmd.Flags().String("action", string(decision.KeepExisting),
		"resolution action: keep_existing or replace_existing")
	conflictsResolveCmd.Flags().String("notes", "", "resolution notes")

	conflictsCmd.AddCommand(conflictsListCmd)
	conflictsCmd.AddCommand(conflictsResolveCmd)

	rootCmd.AddCommand(conflictsCmd)
}
