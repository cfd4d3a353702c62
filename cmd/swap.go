package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"chainswap/config"
	"chainswap/pkg/approve"
	"chainswap/pkg/balances"
	"chainswap/pkg/chains"
	"chainswap/pkg/quote"
	"chainswap/pkg/swap"
	"chainswap/pkg/wallet"
)

var (
	swapChainID     int64
	swapSellAddr    string
	swapBuyAddr     string
	swapSellAmount  string
	swapBuyAmount   string
	swapFromLink    string
	swapSlippageBps int
	swapYes         bool
)

var swapCmd = &cobra.Command{
	Use:   "swap",
	Short: "Quote and execute a token swap",
	Long: `Run the full swap flow: fetch a fresh quote, establish the ERC-20
allowance if the aggregator contract needs one, submit the swap, and wait
for at least one confirmation.

You will be prompted before any approval or swap transaction is sent
unless --yes is given.

Examples:
  chainswap swap --chain 137 --sell 0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174 --buy 0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE --sell-amount 100
  chainswap swap --from-link "https://app.example.com/swap?chainId=1&sellToken=0xA0b8...&buyToken=0xC02a..." --sell-amount 250 --yes`,
	Run: runSwap,
}

func init() {
	rootCmd.AddCommand(swapCmd)

	swapCmd.Flags().Int64Var(&swapChainID, "chain", 1, "Chain ID")
	swapCmd.Flags().StringVar(&swapSellAddr, "sell", "", "Sell token address")
	swapCmd.Flags().StringVar(&swapBuyAddr, "buy", "", "Buy token address")
	swapCmd.Flags().StringVar(&swapSellAmount, "sell-amount", "", "Amount to sell, in whole token units")
	swapCmd.Flags().StringVar(&swapBuyAmount, "buy-amount", "", "Amount to buy, in whole token units")
	swapCmd.Flags().StringVar(&swapFromLink, "from-link", "", "Storefront link carrying chainId/sellToken/buyToken query parameters")
	swapCmd.Flags().IntVar(&swapSlippageBps, "slippage-bps", 0, "Slippage tolerance in basis points (0 = auto)")
	swapCmd.Flags().BoolVarP(&swapYes, "yes", "y", false, "Skip confirmation prompts")
}

// terminalNotifier prints confirmation notifications to the terminal.
type terminalNotifier struct{}

func (terminalNotifier) CreateNotification(kind swap.TxKind, metadata map[string]string) {
	switch kind {
	case swap.TxApprove:
		color.Green("\nApproval confirmed: %s may now be spent by %s", metadata["token"], metadata["spender"])
	case swap.TxSwap:
		color.Green("\nSwap confirmed: %s %s -> %s %s",
			metadata["sellAmount"], metadata["sellToken"],
			metadata["buyAmount"], metadata["buyToken"])
	}
}

// terminalHistory logs confirmed transactions for later inspection via the
// verbose output.
type terminalHistory struct{}

func (terminalHistory) AddTransaction(hash string, kind swap.TxKind, metadata map[string]string) {
	fmt.Printf("  [%s] %s\n", kind, color.HiBlackString(hash))
}

func runSwap(cmd *cobra.Command, args []string) {
	verbose, _ := cmd.Flags().GetBool("verbose")

	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	params, err := buildQuoteParams(cfg, swapChainID, cmd.Flags().Changed("chain"), swapFromLink, swapSellAddr, swapBuyAddr, swapSellAmount, swapBuyAmount, swapSlippageBps)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	if (params.SellAmount == "") == (params.BuyAmount == "") {
		printError(fmt.Errorf("exactly one of --sell-amount or --buy-amount is required"))
		os.Exit(1)
	}

	registry := chains.DefaultRegistry()
	chain, err := registry.GetChain(params.ChainID)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	rpcClient, ethClient, err := dialChain(cfg, chain)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	defer rpcClient.Close()

	log := newLogger(verbose)

	w, err := wallet.New(cfg.PrivateKey, chain.ChainID, ethClient, log)
	if err != nil {
		printError(fmt.Errorf("wallet unavailable: %w (set CHAINSWAP_PRIVATE_KEY or private_key in config)", err))
		os.Exit(1)
	}

	engine := quote.NewEngine(cfg.AggregatorBaseURL, log)
	aggregator := balances.NewAggregator(chain.ChainID, rpcClient, log)
	approvals := approve.NewManager(aggregator, w, log)
	executor := swap.NewExecutor(w, ethClient, log)

	controller := swap.NewController(chain.ChainID, engine, approvals, executor, w.Address(), swap.Callbacks{
		OnConnectWallet: func() {
			color.Yellow("No wallet connected; configure a private key first.")
		},
		Notifier: terminalNotifier{},
		History:  terminalHistory{},
	}, log)

	fmt.Printf("\nSwapping on %s (%d) as %s\n",
		chain.Name, chain.ChainID, color.CyanString(w.Address().Hex()))

	opts := swap.Options{}
	if !swapYes {
		opts.ConfirmApproval = func(tokenSymbol, spender string) bool {
			return promptYesNo(fmt.Sprintf("Approve %s for spender %s?", tokenSymbol, spender))
		}
		if !promptYesNo("Swap " + describeTrade(params) + "?") {
			fmt.Println("Aborted.")
			return
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	done := make(chan struct{})
	go reportState(controller, done)

	outcome, err := controller.Swap(ctx, params, opts)
	close(done)
	if err != nil {
		var allowanceErr *approve.InsufficientAllowanceError
		var revertErr *swap.TransactionRevertedError
		switch {
		case errors.As(err, &allowanceErr):
			fmt.Println()
			color.Yellow("Swap needs an allowance of %s for %s; approval was declined.",
				allowanceErr.Required, allowanceErr.Spender.Hex())
			fmt.Println()
		case errors.As(err, &revertErr):
			fmt.Println()
			color.Red("Transaction reverted on-chain: %s", revertErr.Hash)
			fmt.Println("Nothing was retried; inspect the transaction and re-run when ready.")
			fmt.Println()
		default:
			printError(err)
		}
		os.Exit(1)
	}

	fmt.Println("\n" + strings.Repeat("=", 70))
	color.Green("                      SWAP CONFIRMED")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("\n  Tx hash:       %s\n", color.CyanString(outcome.TxHash))
	fmt.Printf("  Confirmations: %d\n", outcome.Confirmations)
	fmt.Printf("\nTrack it: chainswap status %s --chain %d --watch\n\n", outcome.TxHash, chain.ChainID)
}

// reportState echoes state transitions while the flow runs.
func reportState(c *swap.Controller, done <-chan struct{}) {
	last := c.State()
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if s := c.State(); s != last {
				last = s
				switch s {
				case swap.StateQuoting:
					fmt.Println("  Fetching quote...")
				case swap.StateApproving:
					fmt.Println("  Waiting for approval to confirm...")
				case swap.StateSwapping:
					fmt.Println("  Submitting swap...")
				}
			}
		}
	}
}

func describeTrade(p quote.Params) string {
	if p.SellAmount != "" {
		return fmt.Sprintf("%s %s for %s", p.SellAmount, p.SellToken.Symbol, p.BuyToken.Symbol)
	}
	return fmt.Sprintf("%s for %s %s", p.SellToken.Symbol, p.BuyAmount, p.BuyToken.Symbol)
}

func promptYesNo(question string) bool {
	fmt.Printf("%s [y/N]: ", question)
	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
