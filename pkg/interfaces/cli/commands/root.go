// Package commands holds the cobra command tree of the aps CLI.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "aps",
	Short: "Capacity-constrained scheduling and requirement propagation",
	Long: `aps schedules production requirements against per-day process capacity,
spilling overflow onto later days, and explodes each scheduled row through
its bill of materials into child schedules and procurement requests.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./aps.yaml)")

	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(capacityCmd)
	rootCmd.AddCommand(chainCmd)
	rootCmd.AddCommand(deleteCmd)
}
