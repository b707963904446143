package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"shine-swap/pkg/amount"
	"shine-swap/pkg/contracts"
	"shine-swap/pkg/history"
	"shine-swap/pkg/types"
)

var (
	watchStatus   bool
	watchInterval int
)

var statusCmd = &cobra.Command{
	Use:   "status <tx-hash>",
	Short: "Check the status of a swap transaction",
	Long: `Check whether a swap or approval transaction is pending, mined or reverted,
and show the amounts of any pool swap it contains.

Examples:
  shine-swap status 0x1234...abcd
  shine-swap status 0x1234...abcd --watch
  shine-swap status 0x1234...abcd --watch --interval 10`,
	Args: cobra.ExactArgs(1),
	Run:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().BoolVarP(&watchStatus, "watch", "w", false, "Watch until the transaction is mined")
	statusCmd.Flags().IntVar(&watchInterval, "interval", 5, "Polling interval in seconds (when watching)")
}

// txStatus is what the status command reports for one transaction
type txStatus struct {
	Hash        string            `json:"hash"`
	Status      string            `json:"status"`
	BlockNumber uint64            `json:"block_number,omitempty"`
	GasUsed     uint64            `json:"gas_used,omitempty"`
	Swap        *types.SwapRecord `json:"swap,omitempty"`
	Explorer    string            `json:"explorer"`
}

func runStatus(cmd *cobra.Command, args []string) {
	if !common.IsHexHash(args[0]) {
		printError(fmt.Errorf("invalid transaction hash: %s", args[0]))
		os.Exit(1)
	}
	hash := common.HexToHash(args[0])

	ctx, cancel := commandContext()
	defer cancel()

	sess, err := openSession(ctx, sessionOptions{})
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	defer sess.Close()

	if watchStatus {
		watchTxStatus(ctx, sess, hash)
	} else {
		checkTxStatus(ctx, sess, hash)
	}
}

func checkTxStatus(ctx context.Context, sess *session, hash common.Hash) {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Checking transaction status..."
		s.Start()
	}

	status, err := lookupTx(ctx, sess, hash)
	if !jsonOutput {
		s.Stop()
	}

	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if jsonOutput {
		printJSON(status)
	} else {
		displayStatus(status)
	}
}

func watchTxStatus(ctx context.Context, sess *session, hash common.Hash) {
	if jsonOutput {
		fmt.Println(`{"error": "watch mode not supported with JSON output"}`)
		os.Exit(1)
	}

	fmt.Printf("\nWatching transaction %s\n", color.CyanString(hash.Hex()))
	fmt.Printf("Checking every %d seconds. Press Ctrl+C to stop.\n\n", watchInterval)

	ticker := time.NewTicker(time.Duration(watchInterval) * time.Second)
	defer ticker.Stop()

	for {
		status, err := lookupTx(ctx, sess, hash)
		if err != nil {
			color.Red("Error: %v", err)
		} else {
			displayStatus(status)
			if status.Status != "PENDING" {
				return
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func lookupTx(ctx context.Context, sess *session, hash common.Hash) (*txStatus, error) {
	status := &txStatus{
		Hash:     hash.Hex(),
		Status:   "PENDING",
		Explorer: sess.cfg.TxURL(hash.Hex()),
	}

	receipt, found, err := sess.provider.Receipt(ctx, hash)
	if err != nil {
		return nil, err
	}
	if !found {
		return status, nil
	}

	status.BlockNumber = receipt.BlockNumber.Uint64()
	status.GasUsed = receipt.GasUsed
	if receipt.Status != ethtypes.ReceiptStatusSuccessful {
		status.Status = "FAILED"
		return status, nil
	}
	status.Status = "SUCCESS"

	pool := contracts.NewPool(sess.cfg.Pool, sess.provider)
	for _, lg := range receipt.Logs {
		ev, ok, err := pool.DecodeSwap(*lg)
		if err != nil || !ok {
			continue
		}
		var tsMillis int64
		if header, err := sess.provider.HeaderByNumber(ctx, receipt.BlockNumber); err == nil {
			tsMillis = int64(header.Time) * 1000
		}
		rec := history.RecordFromEvent(ev, tsMillis)
		status.Swap = &rec
		break
	}
	return status, nil
}

func displayStatus(status *txStatus) {
	fmt.Println("\n" + strings.Repeat("=", 70))
	color.Green("                     TRANSACTION STATUS")
	fmt.Println(strings.Repeat("=", 70))

	fmt.Printf("\n  Transaction:     %s\n", color.CyanString(status.Hash))
	fmt.Printf("  Status:          %s\n", getColoredStatus(status.Status))
	if status.BlockNumber > 0 {
		fmt.Printf("  Block:           %d\n", status.BlockNumber)
		fmt.Printf("  Gas Used:        %d\n", status.GasUsed)
	}
	if status.Swap != nil {
		fmt.Printf("  Sold:            %s %s\n", amount.FormatDisplay(status.Swap.FromAmount), status.Swap.FromToken)
		fmt.Printf("  Received:        %s %s\n", amount.FormatDisplay(status.Swap.ToAmount), status.Swap.ToToken)
	}
	fmt.Printf("  Explorer:        %s\n", color.HiBlackString(status.Explorer))

	fmt.Println("\n" + strings.Repeat("=", 70) + "\n")
}

func getColoredStatus(status string) string {
	status = strings.ToUpper(status)

	switch status {
	case "SUCCESS", "SETTLED":
		return color.GreenString(status)
	case "PENDING":
		return color.YellowString(status)
	case "FAILED", "REVERTED":
		return color.RedString(status)
	case "CANCELLED":
		return color.MagentaString(status)
	default:
		return status
	}
}
