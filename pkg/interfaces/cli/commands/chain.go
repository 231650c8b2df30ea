package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lfeng/aps/pkg/interfaces/cli/output"
)

var chainCmd = &cobra.Command{
	Use:   "chain [source-no]",
	Short: "Dump the overflow chain of a requirement",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		sourceNo := args[0]

		a, err := newApp(ctx, seedFiles{})
		if err != nil {
			return err
		}
		defer a.Close()

		rows, err := a.uow.Repos().Schedule.ListBySource(ctx, sourceNo)
		if err != nil {
			return fmt.Errorf("failed to load chain %s: %w", sourceNo, err)
		}
		if len(rows) == 0 {
			return fmt.Errorf("no chain found for %s", sourceNo)
		}

		output.NewRenderer(os.Stdout).RenderChain(sourceNo, rows)
		return nil
	},
}
