package cmd

import (
	"fmt"
	"math/big"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"shine-swap/pkg/amm"
	"shine-swap/pkg/amount"
	"shine-swap/pkg/parser"
	"shine-swap/pkg/swap"
	"shine-swap/pkg/types"
	"shine-swap/pkg/wallet"
)

var (
	noConfirm bool
	swapMax   bool
)

var swapCmd = &cobra.Command{
	Use:   "swap <amount> <source-token> to <dest-token>",
	Short: "Swap ETH for SHINE or SHINE for ETH",
	Long: `Swap through the SHINE/ETH pool on Sepolia.

Selling SHINE needs an allowance for the pool. When it is too low an approval
for twice the amount is sent and mined first.

IMPORTANT:
  - The quote shown is advisory. The pool recomputes the output when the swap
    is mined and no minimum output is enforced, so the rate can be worse if
    the reserves move in between.

Examples:
  shine-swap swap 0.1 ETH to SHINE
  shine-swap swap 250 SHINE to ETH
  shine-swap swap --max ETH to SHINE      # keeps 0.01 ETH for gas
  shine-swap swap 0.1 ETH to SHINE --yes`,
	Args: cobra.MinimumNArgs(1),
	Run:  runSwap,
}

func init() {
	rootCmd.AddCommand(swapCmd)

	swapCmd.Flags().BoolVarP(&noConfirm, "yes", "y", false, "Skip confirmation prompts")
	swapCmd.Flags().BoolVar(&swapMax, "max", false, "Swap the maximum available amount")
}

func runSwap(cmd *cobra.Command, args []string) {
	var (
		swapReq *types.SwapRequest
		err     error
	)
	if swapMax {
		var dir types.Direction
		dir, err = parser.ParsePair(args)
		swapReq = &types.SwapRequest{Direction: dir}
	} else {
		swapReq, err = parser.ParseSwapCommand(strings.Join(args, " "))
	}
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	ctx, cancel := commandContext()
	defer cancel()

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	onState := func(st swap.State) {
		if jsonOutput {
			return
		}
		s.Lock()
		s.Suffix = " " + stateMessage(st, swapReq.Direction)
		s.Unlock()
	}

	sess, err := openSession(ctx, sessionOptions{signer: true, skipConfirm: noConfirm, onState: onState})
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	defer sess.Close()

	if inner := sess.provider.Confirm; inner != nil {
		sess.provider.Confirm = func(req wallet.TxRequest) bool {
			s.Stop()
			ok := inner(req)
			if !jsonOutput {
				s.Start()
			}
			return ok
		}
	}

	if swapMax {
		maxAmount, err := sess.svc.MaxSwapAmount(ctx, swapReq.Direction)
		if err != nil {
			printError(err)
			os.Exit(1)
		}
		if maxAmount.Sign() == 0 {
			printError(fmt.Errorf("nothing to swap: %s balance is below what --max keeps back", swapReq.Direction.FromSymbol()))
			os.Exit(1)
		}
		swapReq.Amount = amount.Format(maxAmount)
	}

	if !jsonOutput {
		s.Suffix = " Fetching quote..."
		s.Start()
	}
	quote := sess.svc.Quote(ctx, swapReq.Amount, swapReq.Direction)
	balances, balErr := sess.svc.Balances(ctx)
	if !jsonOutput {
		s.Stop()
	}

	if verbose {
		fmt.Printf("\nDebug: reserves-based quote %s, impact %s bps\n", quote.Output, quote.ImpactBps)
	}

	if !jsonOutput {
		displayQuote(quote, swapReq)
		if balErr == nil {
			warnIfShort(swapReq, balances)
		}
	}

	// Ask for confirmation
	if !noConfirm && !jsonOutput && !sess.cfg.AutoConfirm {
		if !askYesNo("\nProceed with swap?") {
			fmt.Println("\nSwap cancelled.")
			os.Exit(0)
		}
	}

	if !jsonOutput {
		s.Suffix = " Submitting swap..."
		s.Start()
	}
	result, err := sess.svc.Execute(ctx, swapReq.Amount, swapReq.Direction)
	if !jsonOutput {
		s.Stop()
	}

	switch swap.Classify(err) {
	case swap.OutcomeCancelled:
		if jsonOutput {
			printJSON(map[string]interface{}{"status": "cancelled", "error": err.Error()})
		} else {
			color.Yellow("\nSwap cancelled: %v\n", err)
		}
		os.Exit(0)
	case swap.OutcomeFailed:
		if jsonOutput {
			printJSON(map[string]interface{}{"status": "failed", "error": err.Error()})
		} else {
			printError(fmt.Errorf("swap failed: %w", err))
		}
		os.Exit(1)
	}

	if jsonOutput {
		output := map[string]interface{}{
			"status":      "settled",
			"hash":        result.Hash.Hex(),
			"from_amount": result.Record.FromAmount,
			"from_token":  result.Record.FromToken,
			"to_amount":   result.Record.ToAmount,
			"to_token":    result.Record.ToToken,
			"explorer":    sess.cfg.TxURL(result.Hash.Hex()),
		}
		if result.ApprovalHash != nil {
			output["approval_hash"] = result.ApprovalHash.Hex()
		}
		printJSON(output)
		return
	}

	displaySettled(result, sess.cfg.TxURL(result.Hash.Hex()))
}

func stateMessage(st swap.State, dir types.Direction) string {
	switch st {
	case swap.StateSubmitting:
		return "Waiting for signature..."
	case swap.StateAwaitingApproval:
		return "Waiting for SHINE approval to be mined..."
	case swap.StateAwaitingConfirmation:
		return fmt.Sprintf("Waiting for %s swap to be mined...", dir)
	default:
		return st.String()
	}
}

func displayQuote(quote amm.Quote, swapReq *types.SwapRequest) {
	dir := swapReq.Direction

	fmt.Println("\n" + strings.Repeat("=", 60))
	color.Green("                     SWAP QUOTE")
	fmt.Println(strings.Repeat("=", 60))

	fmt.Printf("\n  From:              %s %s\n", swapReq.Amount, color.YellowString(dir.FromSymbol()))
	if quote.Output.Sign() == 0 {
		fmt.Printf("  To:                %s\n", color.HiBlackString("quote unavailable"))
	} else {
		fmt.Printf("  To:                ~%s %s\n", amount.FormatDisplay(amount.Format(quote.Output)), color.YellowString(dir.ToSymbol()))
		fmt.Printf("  Rate:              1 %s = %s %s\n", dir.FromSymbol(), amount.FormatRate(quote.CurrentRate), dir.ToSymbol())
		fmt.Printf("  Price Impact:      %s\n", coloredImpact(quote))
	}
	fmt.Printf("  Fee:               0.3%%\n")

	fmt.Println("\n" + strings.Repeat("=", 60) + "\n")
}

func coloredImpact(quote amm.Quote) string {
	text := quote.PriceImpact + "%"
	switch {
	case quote.ImpactBps.Cmp(big.NewInt(500)) >= 0:
		return color.RedString(text)
	case quote.ImpactBps.Cmp(big.NewInt(100)) >= 0:
		return color.YellowString(text)
	default:
		return color.GreenString(text)
	}
}

func warnIfShort(swapReq *types.SwapRequest, balances types.Balances) {
	in, err := amount.Parse(swapReq.Amount)
	have := balances.Of(swapReq.Direction)
	if err != nil || have == nil || in.Cmp(have) <= 0 {
		return
	}
	color.Yellow("Warning: amount exceeds your balance of %s %s\n",
		amount.FormatDisplay(amount.Format(have)), swapReq.Direction.FromSymbol())
}

func displaySettled(result *swap.Result, txURL string) {
	color.Green("\n✓ Swap settled!")
	if result.ApprovalHash != nil {
		fmt.Printf("  Approval Tx:     %s\n", color.HiBlackString(result.ApprovalHash.Hex()))
	}
	fmt.Printf("  Transaction:     %s\n", color.CyanString(result.Hash.Hex()))
	fmt.Printf("  Sold:            %s %s\n", result.Record.FromAmount, result.Record.FromToken)
	fmt.Printf("  Received:        %s %s\n", amount.FormatDisplay(result.Record.ToAmount), result.Record.ToToken)
	fmt.Printf("  Explorer:        %s\n", txURL)

	if result.Balances.Native != nil {
		fmt.Println("\nNew balances:")
		displayBalances(result.Balances)
	}
	fmt.Println()
}
