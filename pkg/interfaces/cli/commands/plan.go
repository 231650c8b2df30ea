package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/lfeng/aps/pkg/domain/entities"
	"github.com/lfeng/aps/pkg/interfaces/cli/output"
)

var planCmd = &cobra.Command{
	Use:   "plan [source-no]",
	Short: "Schedule a requirement and propagate it through its BOM",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		sourceNo := args[0]

		product, _ := cmd.Flags().GetString("product")
		qty, _ := cmd.Flags().GetInt64("qty")
		dueStr, _ := cmd.Flags().GetString("due")
		process, _ := cmd.Flags().GetString("process")
		bomID, _ := cmd.Flags().GetString("bom-id")
		order, _ := cmd.Flags().GetString("order")

		due, err := time.Parse("2006-01-02", dueStr)
		if err != nil {
			return fmt.Errorf("invalid --due %q (expected YYYY-MM-DD)", dueStr)
		}

		req, err := entities.NewRequirement(sourceNo, entities.MaterialCode(product), entities.Quantity(qty), due, entities.ProcessName(process))
		if err != nil {
			return err
		}
		req.BOMID = bomID
		req.CustomerOrder = order

		a, err := newApp(ctx, seedFilesFromFlags(cmd))
		if err != nil {
			return err
		}
		defer a.Close()

		result, err := a.planner.PlanRequirement(ctx, req)
		if err != nil {
			return fmt.Errorf("planning failed: %w", err)
		}

		output.NewRenderer(os.Stdout).RenderPlanResult(result)
		return nil
	},
}

func seedFilesFromFlags(cmd *cobra.Command) seedFiles {
	capacity, _ := cmd.Flags().GetString("capacity-file")
	bom, _ := cmd.Flags().GetString("bom-file")
	routes, _ := cmd.Flags().GetString("routes-file")
	stock, _ := cmd.Flags().GetString("stock-file")
	return seedFiles{capacity: capacity, bom: bom, routes: routes, stock: stock}
}

func addSeedFileFlags(cmd *cobra.Command) {
	cmd.Flags().String("capacity-file", "", "capacity calendar CSV to seed")
	cmd.Flags().String("bom-file", "", "BOM links CSV")
	cmd.Flags().String("routes-file", "", "process routing CSV")
	cmd.Flags().String("stock-file", "", "available stock CSV")
}

func init() {
	planCmd.Flags().String("product", "", "product material code (required)")
	planCmd.Flags().Int64("qty", 0, "required quantity (required)")
	planCmd.Flags().String("due", "", "promised delivery date YYYY-MM-DD (required)")
	planCmd.Flags().String("process", "", "output process of the product (required)")
	planCmd.Flags().String("bom-id", "", "explicit BOM to explode (default: product code)")
	planCmd.Flags().String("order", "", "customer order number")
	planCmd.MarkFlagRequired("product")
	planCmd.MarkFlagRequired("qty")
	planCmd.MarkFlagRequired("due")
	planCmd.MarkFlagRequired("process")
	addSeedFileFlags(planCmd)
}
