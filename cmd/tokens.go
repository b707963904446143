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
	"shine-swap/pkg/types"
)

var balanceCmd = &cobra.Command{
	Use:     "balance",
	Aliases: []string{"balances", "bal"},
	Short:   "Show ETH and SHINE balances of the configured account",
	Long: `Show the ETH and SHINE balances of the account behind SHINE_SWAP_PRIVATE_KEY,
together with the most you can swap in each direction.

Examples:
  shine-swap balance
  shine-swap balance --json`,
	Run: runBalance,
}

var allowanceCmd = &cobra.Command{
	Use:   "allowance",
	Short: "Show how much SHINE the pool may spend for you",
	Run:   runAllowance,
}

var addTokenCmd = &cobra.Command{
	Use:   "add-token",
	Short: "Register SHINE with the wallet",
	Long: `Ask the wallet to track the SHINE token (18 decimals).

Examples:
  shine-swap add-token`,
	Run: runAddToken,
}

func init() {
	rootCmd.AddCommand(balanceCmd)
	rootCmd.AddCommand(allowanceCmd)
	rootCmd.AddCommand(addTokenCmd)
}

func runBalance(cmd *cobra.Command, args []string) {
	ctx, cancel := commandContext()
	defer cancel()

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Fetching balances..."
		s.Start()
	}

	sess, err := openSession(ctx, sessionOptions{signer: true})
	if err != nil {
		s.Stop()
		printError(err)
		os.Exit(1)
	}
	defer sess.Close()

	maxNative, err := sess.svc.MaxSwapAmount(ctx, types.NativeToToken)
	if !jsonOutput {
		s.Stop()
	}
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	balances := sess.svc.CachedBalances()

	account, _ := sess.svc.Account()
	if jsonOutput {
		printJSON(map[string]interface{}{
			"account":        account.Hex(),
			"eth":            amount.Format(balances.Native),
			"shine":          amount.Format(balances.Token),
			"max_eth_swap":   amount.Format(maxNative),
			"max_shine_swap": amount.Format(balances.Token),
		})
		return
	}

	fmt.Println("\n" + strings.Repeat("=", 60))
	color.Green("                      BALANCES")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("\n  Account:         %s\n", color.CyanString(account.Hex()))
	displayBalances(balances)
	fmt.Printf("  Max ETH swap:    %s (keeps 0.01 ETH for gas)\n", amount.FormatDisplay(amount.Format(maxNative)))
	fmt.Println("\n" + strings.Repeat("=", 60) + "\n")
}

func displayBalances(b types.Balances) {
	fmt.Printf("  %-5s            %s\n", color.YellowString(types.NativeSymbol), amount.FormatDisplay(amount.Format(b.Native)))
	fmt.Printf("  %-5s            %s\n", color.YellowString(types.TokenSymbol), amount.FormatDisplay(amount.Format(b.Token)))
}

func runAllowance(cmd *cobra.Command, args []string) {
	ctx, cancel := commandContext()
	defer cancel()

	sess, err := openSession(ctx, sessionOptions{signer: true})
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	defer sess.Close()

	allowance, err := sess.svc.Allowance(ctx)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if jsonOutput {
		printJSON(map[string]interface{}{
			"spender":   sess.cfg.Pool.Hex(),
			"allowance": amount.Format(allowance),
		})
		return
	}
	fmt.Printf("\n  Pool %s may spend %s SHINE\n\n",
		color.CyanString(sess.cfg.Pool.Hex()),
		color.YellowString(amount.Format(allowance)))
}

func runAddToken(cmd *cobra.Command, args []string) {
	ctx, cancel := commandContext()
	defer cancel()

	sess, err := openSession(ctx, sessionOptions{signer: true})
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	defer sess.Close()

	added, err := sess.svc.AddTokenToWallet(ctx)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	if jsonOutput {
		printJSON(map[string]interface{}{"token": sess.cfg.Token.Hex(), "added": added})
		return
	}
	if !added {
		color.Yellow("\nThe wallet declined to add SHINE.\n")
		return
	}
	printSuccess(fmt.Sprintf("✓ SHINE (%s) added to wallet", sess.cfg.Token.Hex()))
}
