package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/lfeng/aps/pkg/domain/entities"
	"github.com/lfeng/aps/pkg/interfaces/cli/output"
)

var capacityCmd = &cobra.Command{
	Use:   "capacity",
	Short: "Inspect and edit the capacity calendar",
}

var capacityListCmd = &cobra.Command{
	Use:   "list [process]",
	Short: "List capacity records for a process",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		process := entities.ProcessName(args[0])

		a, err := newApp(ctx, seedFiles{})
		if err != nil {
			return err
		}
		defer a.Close()

		records, err := a.uow.Repos().Capacity.ListByProcess(ctx, process)
		if err != nil {
			return fmt.Errorf("failed to list capacity: %w", err)
		}

		output.NewRenderer(os.Stdout).RenderCapacity(process, records)
		return nil
	},
}

var capacitySetCmd = &cobra.Command{
	Use:   "set [process]",
	Short: "Set shift hours and workstation count for a process-date",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		process := entities.ProcessName(args[0])

		dateStr, _ := cmd.Flags().GetString("date")
		shiftStr, _ := cmd.Flags().GetString("shift-hours")
		workstations, _ := cmd.Flags().GetInt("workstations")

		date, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			return fmt.Errorf("invalid --date %q (expected YYYY-MM-DD)", dateStr)
		}
		shiftHours, err := decimal.NewFromString(shiftStr)
		if err != nil {
			return fmt.Errorf("invalid --shift-hours %q", shiftStr)
		}

		rec, err := entities.NewCapacityRecord(process, date, shiftHours, workstations)
		if err != nil {
			return err
		}

		a, err := newApp(ctx, seedFiles{})
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.uow.Repos().Capacity.Save(ctx, rec); err != nil {
			return fmt.Errorf("failed to save capacity: %w", err)
		}

		fmt.Printf("✓ %s %s: %s h × %d workstations (%s total)\n",
			process, entities.DateKey(rec.Date), rec.ShiftHours, rec.WorkstationCount, rec.TotalHours())
		return nil
	},
}

var capacityLoadCmd = &cobra.Command{
	Use:   "load [file]",
	Short: "Load a capacity calendar CSV into the backend",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		a, err := newApp(ctx, seedFiles{capacity: args[0]})
		if err != nil {
			return err
		}
		defer a.Close()

		fmt.Printf("✓ loaded capacity calendar from %s\n", args[0])
		return nil
	},
}

func init() {
	capacitySetCmd.Flags().String("date", "", "calendar date YYYY-MM-DD (required)")
	capacitySetCmd.Flags().String("shift-hours", "8", "working hours per workstation")
	capacitySetCmd.Flags().Int("workstations", 1, "available workstation count")
	capacitySetCmd.MarkFlagRequired("date")

	capacityCmd.AddCommand(capacityListCmd)
	capacityCmd.AddCommand(capacitySetCmd)
	capacityCmd.AddCommand(capacityLoadCmd)
}
