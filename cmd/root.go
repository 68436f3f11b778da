package cmd

import "github.com/spf13/cobra"

var rootCmd = &cobra.Command{
	Use:   "kimchi-arb",
	Short: "Kimchi premium arbitrage backtesting engine",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(backtestCmd)
	rootCmd.AddCommand(sweepCmd)
	rootCmd.AddCommand(serverCmd)
}
