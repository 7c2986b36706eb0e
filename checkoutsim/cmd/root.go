// Package cmd provides the command-line interface of checkoutsim.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "checkoutsim",
	Short: "checkoutsim simulates customers at a self-checkout kiosk.",
	Long: `checkoutsim simulates customers at a self-checkout kiosk with a ` +
		`discrete event engine and reports waiting times, sales and losses.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(newRunCmd())
}

// Execute adds all child commands to the root command and sets flags
// appropriately. Registered exit handlers, such as trace flushes, run before
// the process exits.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}
