package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"shine-swap/pkg/logging"
)

var rootCmd = &cobra.Command{
	Use:   "shine-swap",
	Short: "A CLI for swapping ETH and SHINE on Sepolia",
	Long: `shine-swap quotes and settles swaps between Sepolia ETH and the SHINE token
through the SHINE/ETH constant-product pool.

Quotes are advisory: the pool computes the output on-chain when the swap is
mined, and no minimum output is sent with the swap.

Examples:
  shine-swap balance
  shine-swap quote 0.1 ETH to SHINE
  shine-swap swap 0.1 ETH to SHINE
  shine-swap swap --max SHINE to ETH
  shine-swap history
  shine-swap status <tx-hash>`,
	Version: "0.1.0",
}

var (
	verbose    bool
	jsonOutput bool
)

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Add global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&jsonOutput, "json", "j", false, "Output in JSON format")
}

// setupLogging applies the configured level; --verbose forces debug
func setupLogging(level string) {
	if verbose {
		level = "debug"
	}
	logging.Setup(level)
}

// commandContext is cancelled on Ctrl+C, the only way to abandon a pending
// confirmation wait.
func commandContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func printError(err error) {
	fmt.Printf("\n%s %v\n\n", color.RedString("Error:"), err)
}

func printSuccess(message string) {
	fmt.Printf("\n%s\n\n", color.GreenString(message))
}

func printJSON(v interface{}) {
	jsonData, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(jsonData))
}
