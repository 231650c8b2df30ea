package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete [plan-no]",
	Short: "Delete a scheduled row and release its capacity",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		planNo := args[0]

		a, err := newApp(ctx, seedFiles{})
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.planner.DeleteRow(ctx, planNo); err != nil {
			return fmt.Errorf("failed to delete %s: %w", planNo, err)
		}

		fmt.Printf("✓ deleted %s and released its capacity\n", planNo)
		return nil
	},
}
