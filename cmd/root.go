package cmd

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "chainswap",
	Short: "A CLI for token swaps via a price-aggregator API",
	Long: `chainswap quotes and executes token swaps on EVM chains through a
0x-style price-aggregator API. It resolves tokens, batches balance and
allowance reads, establishes ERC-20 approvals, and tracks submitted
transactions to confirmation.

Examples:
  chainswap tokens --chain 137
  chainswap balances 0xYourAddress --chain 137
  chainswap quote --chain 137 --sell 0x2791... --buy 0xEeee... --sell-amount 100
  chainswap swap --chain 137 --sell 0x2791... --buy 0xEeee... --sell-amount 100
  chainswap status 0xTxHash --chain 137 --watch`,
	Version: "0.1.0",
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Add global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "Output in JSON format")
}

func printError(err error) {
	fmt.Printf("\nError: %v\n\n", err)
}

// newLogger builds the logger the engine packages share. Verbose mode turns
// on debug logs; otherwise only warnings reach the terminal.
func newLogger(verbose bool) *logrus.Logger {
	log := logrus.New()
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.WarnLevel)
	}
	return log
}
