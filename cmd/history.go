package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"shine-swap/pkg/amount"
	"shine-swap/pkg/history"
	"shine-swap/pkg/logging"
	"shine-swap/pkg/types"
)

var (
	localHistory bool
	historyLimit int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List your swaps",
	Long: `List the swaps of the configured account, newest first.

By default the history is rebuilt from the pool's swap events. Failed
transactions emit no event and do not appear there. With --local the capped
log of the last 20 swaps sent from this machine is shown instead.

Examples:
  shine-swap history
  shine-swap history --limit 5
  shine-swap history --local --json`,
	Run: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().BoolVar(&localHistory, "local", false, "Show the local swap log instead of on-chain events")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 0, "Show at most n swaps (0 = all)")
}

func runHistory(cmd *cobra.Command, args []string) {
	ctx, cancel := commandContext()
	defer cancel()

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput && !localHistory {
		s.Suffix = " Reading swap events..."
		s.Start()
	}

	sess, err := openSession(ctx, sessionOptions{signer: true})
	if err != nil {
		s.Stop()
		printError(err)
		os.Exit(1)
	}
	defer sess.Close()

	var records []types.SwapRecord
	if localHistory {
		records = sess.log.List()
	} else {
		account, _ := sess.svc.Account()
		reconstructor := history.NewReconstructor(sess.provider, sess.cfg.Pool, sess.cfg.ChainID, logging.Component("history"))
		records, err = reconstructor.SwapHistory(ctx, account)
	}
	if !jsonOutput {
		s.Stop()
	}
	if err != nil {
		printError(fmt.Errorf("could not load swap history: %w", err))
		os.Exit(1)
	}

	if historyLimit > 0 && len(records) > historyLimit {
		records = records[:historyLimit]
	}

	if jsonOutput {
		if records == nil {
			records = []types.SwapRecord{}
		}
		printJSON(records)
		return
	}
	displayHistory(records, sess.cfg.TxURL)
	if localHistory {
		fmt.Printf("Log file: %s\n\n", color.HiBlackString(sess.log.Path()))
	}
}

func displayHistory(records []types.SwapRecord, txURL func(string) string) {
	if len(records) == 0 {
		fmt.Println("\nNo swaps found.")
		return
	}

	fmt.Println("\n" + strings.Repeat("=", 90))
	color.Green("                                  SWAP HISTORY")
	fmt.Println(strings.Repeat("=", 90))

	for _, rec := range records {
		ts := time.UnixMilli(rec.Timestamp).Format("2006-01-02 15:04:05")
		fmt.Printf("\n  %s  %s  %s %s -> %s %s\n",
			color.HiBlackString(ts),
			getColoredStatus(string(rec.Status)),
			amount.FormatDisplay(rec.FromAmount), color.YellowString(rec.FromToken),
			amount.FormatDisplay(rec.ToAmount), color.YellowString(rec.ToToken))
		fmt.Printf("  %s\n", color.CyanString(txURL(rec.Hash)))
	}

	fmt.Println("\n" + strings.Repeat("=", 90))
	fmt.Printf("\nTotal: %d swaps\n\n", len(records))
}
