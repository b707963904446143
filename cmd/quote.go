package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"shine-swap/pkg/amm"
	"shine-swap/pkg/amount"
	"shine-swap/pkg/parser"
	"shine-swap/pkg/swap"
	"shine-swap/pkg/types"
)

var watchQuote bool

var quoteCmd = &cobra.Command{
	Use:   "quote <amount> <source-token> to <dest-token>",
	Short: "Quote a swap against the current pool reserves",
	Long: `Compute the advisory output, exchange rate and price impact of a swap
from the pool's current reserves. Nothing is signed or sent.

With --watch, amounts are read line by line from stdin and each one is quoted
once input has been quiet for the debounce period (quote_debounce_ms).

Examples:
  shine-swap quote 0.1 ETH to SHINE
  shine-swap quote 1000 SHINE to ETH --json
  shine-swap quote --watch ETH to SHINE`,
	Args: cobra.MinimumNArgs(1),
	Run:  runQuote,
}

func init() {
	rootCmd.AddCommand(quoteCmd)

	quoteCmd.Flags().BoolVarP(&watchQuote, "watch", "w", false, "Read amounts from stdin and re-quote as they change")
}

func runQuote(cmd *cobra.Command, args []string) {
	ctx, cancel := commandContext()
	defer cancel()

	if watchQuote {
		dir, err := parser.ParsePair(args)
		if err != nil {
			printError(err)
			os.Exit(1)
		}
		sess, err := openSession(ctx, sessionOptions{})
		if err != nil {
			printError(err)
			os.Exit(1)
		}
		defer sess.Close()

		watchQuotes(ctx, sess, dir)
		return
	}

	swapReq, err := parser.ParseSwapCommand(strings.Join(args, " "))
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	sess, err := openSession(ctx, sessionOptions{})
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	defer sess.Close()

	// A failed reserve read degrades to the zero quote; say so instead of
	// printing zeros.
	if _, err := sess.svc.Reserves(ctx, nil); err != nil {
		printError(err)
		os.Exit(1)
	}

	quote := sess.svc.Quote(ctx, swapReq.Amount, swapReq.Direction)
	if jsonOutput {
		printJSON(quoteJSON(swapReq, quote))
		return
	}
	displayQuote(quote, swapReq)
}

func quoteJSON(swapReq *types.SwapRequest, quote amm.Quote) map[string]interface{} {
	return map[string]interface{}{
		"from_amount":    swapReq.Amount,
		"from_token":     swapReq.Direction.FromSymbol(),
		"to_amount":      amount.Format(quote.Output),
		"to_token":       swapReq.Direction.ToSymbol(),
		"rate":           amount.Format(quote.CurrentRate),
		"effective_rate": amount.Format(quote.EffectiveRate),
		"price_impact":   quote.PriceImpact,
	}
}

// watchQuotes re-quotes the latest stdin amount after the debounce period.
// Amounts typed in quick succession only produce one quote.
func watchQuotes(ctx context.Context, sess *session, dir types.Direction) {
	if !jsonOutput {
		fmt.Printf("\nQuoting %s. Type an amount per line, Ctrl+D to stop.\n\n", color.CyanString(dir.String()))
	}

	debouncer := swap.NewDebouncer(sess.cfg.QuoteDebounce)
	defer debouncer.Stop()

	var outMu sync.Mutex

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if _, err := amount.Parse(input); err != nil {
			color.Red("  %q is not a valid amount", input)
			continue
		}

		debouncer.Trigger(func() {
			quote := sess.svc.Quote(ctx, input, dir)

			outMu.Lock()
			defer outMu.Unlock()
			req := &types.SwapRequest{Amount: input, Direction: dir}
			if jsonOutput {
				printJSON(quoteJSON(req, quote))
				return
			}
			fmt.Printf("  %s %s -> ~%s %s  (impact %s%%)\n",
				input, dir.FromSymbol(),
				amount.FormatDisplay(amount.Format(quote.Output)), dir.ToSymbol(),
				quote.PriceImpact)
		})
	}
	// quote the last amount right away once stdin closes
	debouncer.Flush()
}
