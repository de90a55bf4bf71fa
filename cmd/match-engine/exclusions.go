// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/match-engine/pkg/types"
)

var exclusionsCmd = &cobra.Command{
	Use:   "exclusions",
	Short: "Manage non-match exclusions",
	Long: `Exclusions block a sell/buy pair from ever being suggested again.
They are created automatically when a pair is rejected, or manually here.`,
}

var exclusionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List excluded pairs",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		exclusions, err := store.Exclusions(cmd.Context())
		if err != nil {
			return err
		}
		if len(exclusions) == 0 {
			fmt.Println("No exclusions.")
			return nil
		}

		fmt.Printf("%-10s  %-10s  %-8s  %-10s  %s\n",
			"Sell ID", "Buy ID", "Origin", "Permanent", "Reason")
		for _, e := range exclusions {
			fmt.Printf("%-10s  %-10s  %-8s  %-10t  %s\n",
				e.SellID, e.BuyID, e.Origin, e.Permanent, e.Reason)
		}
		return nil
	},
}

var exclusionsAddCmd = &cobra.Command{
	Use:   "add SELL_ID BUY_ID",
	Short: "Exclude a pair from future candidate generation",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		reason, _ := cmd.Flags().GetString("reason")
		session, _ := cmd.Flags().GetBool("session")

		store, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		err = store.AddExclusion(cmd.Context(), types.NonMatchExclusion{
			SellID:    args[0],
			BuyID:     args[1],
			Reason:    reason,
			Origin:    types.OriginUser,
			Permanent: !session,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Excluded %s/%s\n", args[0], args[1])
		return nil
	},
}

var exclusionsRemoveCmd = &cobra.Command{
	Use:   "remove SELL_ID BUY_ID",
	Short: "Remove an exclusion so the pair can be suggested again",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.RemoveExclusion(cmd.Context(), args[0], args[1]); err != nil {
			return errNotFoundHint(err, fmt.Sprintf("exclusion %s/%s", args[0], args[1]))
		}
		fmt.Printf("Removed exclusion %s/%s\n", args[0], args[1])
		return nil
	},
}

func init() {
	exclusionsAddCmd.Flags().String("reason", "", "why the pair is excluded")
	exclusionsAddCmd.Flags().Bool("session", false, "scope the exclusion to the current session instead of permanently")

	exclusionsCmd.AddCommand(exclusionsListCmd)
	exclusionsCmd.AddCommand(exclusionsAddCmd)
	exclusionsCmd.AddCommand(exclusionsRemoveCmd)

	rootCmd.AddCommand(exclusionsCmd)
}
