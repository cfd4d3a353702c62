package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"chainswap/config"
	"chainswap/pkg/chains"
	"chainswap/pkg/quote"
)

var (
	quoteChainID     int64
	quoteSellAddr    string
	quoteBuyAddr     string
	quoteSellAmount  string
	quoteBuyAmount   string
	quoteFromLink    string
	quoteSlippageBps int
	quoteTaker       string
)

var quoteCmd = &cobra.Command{
	Use:   "quote",
	Short: "Fetch a swap quote without executing",
	Long: `Fetch a price and transaction payload from the aggregator for a token
pair. Exactly one of --sell-amount and --buy-amount must be given; amounts
are in whole token units.

A pasted storefront link can preselect the pair:

Examples:
  chainswap quote --chain 137 --sell 0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174 --buy 0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE --sell-amount 100
  chainswap quote --from-link "https://app.example.com/swap?chainId=1&sellToken=0xA0b8...&buyToken=0xC02a..." --sell-amount 250
  chainswap quote --chain 1 --sell 0xA0b8... --buy 0xC02a... --buy-amount 0.5 --slippage-bps 30`,
	Run: runQuote,
}

func init() {
	rootCmd.AddCommand(quoteCmd)

	quoteCmd.Flags().Int64Var(&quoteChainID, "chain", 1, "Chain ID")
	quoteCmd.Flags().StringVar(&quoteSellAddr, "sell", "", "Sell token address")
	quoteCmd.Flags().StringVar(&quoteBuyAddr, "buy", "", "Buy token address")
	quoteCmd.Flags().StringVar(&quoteSellAmount, "sell-amount", "", "Amount to sell, in whole token units")
	quoteCmd.Flags().StringVar(&quoteBuyAmount, "buy-amount", "", "Amount to buy, in whole token units")
	quoteCmd.Flags().StringVar(&quoteFromLink, "from-link", "", "Storefront link carrying chainId/sellToken/buyToken query parameters")
	quoteCmd.Flags().IntVar(&quoteSlippageBps, "slippage-bps", 0, "Slippage tolerance in basis points (0 = auto)")
	quoteCmd.Flags().StringVar(&quoteTaker, "taker", "", "Taker address used for quote validation")
}

// buildQuoteParams resolves the pair from the link and/or flags and assembles
// the engine params shared by the quote and swap commands.
func buildQuoteParams(cfg *config.Config, chainID int64, chainFlagSet bool, fromLink, sellAddr, buyAddr, sellAmount, buyAmount string, slippageBps int) (quote.Params, error) {
	// An explicit --chain wins; otherwise the link's chainId does.
	if !chainFlagSet && fromLink != "" {
		if linkChain := linkChainID(fromLink); linkChain != 0 {
			chainID = linkChain
		}
	}

	registry := chains.DefaultRegistry()
	if !registry.IsSupported(chainID) {
		return quote.Params{}, &chains.UnknownChainError{ChainID: chainID}
	}

	resolver, err := loadResolver(cfg)
	if err != nil {
		return quote.Params{}, err
	}

	sell, buy, err := resolvePair(resolver, chainID, fromLink, sellAddr, buyAddr)
	if err != nil {
		return quote.Params{}, err
	}
	if sell == nil || buy == nil {
		return quote.Params{}, fmt.Errorf("both sell and buy tokens are required (use --sell/--buy or --from-link)")
	}
	if strings.EqualFold(sell.Address, buy.Address) {
		return quote.Params{}, fmt.Errorf("sell and buy tokens must differ")
	}

	slippage := quote.SlippageSetting{Mode: quote.SlippageAuto}
	if slippageBps > 0 {
		slippage = quote.SlippageSetting{Mode: quote.SlippageManual, ValueBps: slippageBps}
	} else if cfg.DefaultSlippageBps > 0 {
		slippage = quote.SlippageSetting{Mode: quote.SlippageManual, ValueBps: cfg.DefaultSlippageBps}
	}

	return quote.Params{
		ChainID:        chainID,
		SellToken:      *sell,
		BuyToken:       *buy,
		SellAmount:     sellAmount,
		BuyAmount:      buyAmount,
		Slippage:       slippage,
		FeeRecipient:   cfg.FeeRecipient,
		BuyTokenFeeBps: cfg.FeeBps,
	}, nil
}

func runQuote(cmd *cobra.Command, args []string) {
	verbose, _ := cmd.Flags().GetBool("verbose")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	params, err := buildQuoteParams(cfg, quoteChainID, cmd.Flags().Changed("chain"), quoteFromLink, quoteSellAddr, quoteBuyAddr, quoteSellAmount, quoteBuyAmount, quoteSlippageBps)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	if params.SellAmount == "" && params.BuyAmount == "" {
		printError(fmt.Errorf("one of --sell-amount or --buy-amount is required"))
		os.Exit(1)
	}
	if params.SellAmount != "" && params.BuyAmount != "" {
		printError(fmt.Errorf("--sell-amount and --buy-amount are mutually exclusive"))
		os.Exit(1)
	}
	params.TakerAddress = quoteTaker
	params.SkipValidation = quoteTaker == ""

	log := newLogger(verbose)
	engine := quote.NewEngine(cfg.AggregatorBaseURL, log)

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Fetching quote..."
		s.Start()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	q, err := engine.GetQuote(ctx, params)

	if !jsonOutput {
		s.Stop()
	}
	if err != nil {
		var liqErr *quote.InsufficientLiquidityError
		if errors.As(err, &liqErr) {
			fmt.Println()
			color.Yellow("Insufficient liquidity for this pair and size.")
			fmt.Printf("Aggregator said: %s\n\n", liqErr.Reason)
			os.Exit(1)
		}
		printError(err)
		os.Exit(1)
	}

	if jsonOutput {
		out := map[string]any{
			"sellToken":   q.SellToken.Symbol,
			"buyToken":    q.BuyToken.Symbol,
			"sellAmount":  q.SellAmountDisplay,
			"buyAmount":   q.BuyAmountDisplay,
			"to":          q.TxTo,
			"value":       q.TxValue.String(),
			"slippageBps": q.SlippageBps,
		}
		if q.GasPrice != nil {
			out["gasPrice"] = q.GasPrice.String()
		}
		jsonData, _ := json.MarshalIndent(out, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	printQuote(q)
}

func printQuote(q *quote.Quote) {
	fmt.Println("\n" + strings.Repeat("=", 70))
	color.Green("                          QUOTE")
	fmt.Println(strings.Repeat("=", 70))

	fmt.Printf("\n  Sell:      %s %s\n", color.YellowString(q.SellAmountDisplay), q.SellToken.Symbol)
	fmt.Printf("  Buy:       %s %s\n", color.YellowString(q.BuyAmountDisplay), q.BuyToken.Symbol)
	fmt.Printf("  Slippage:  %d bps\n", q.SlippageBps)
	fmt.Printf("  Via:       %s\n", color.HiBlackString(q.TxTo))
	if q.GasPrice != nil {
		fmt.Printf("  Gas price: %s wei\n", q.GasPrice.String())
	}
	if q.FeeRecipient != "" {
		fmt.Printf("  Fee to:    %s\n", color.HiBlackString(q.FeeRecipient))
	}

	fmt.Println("\n" + strings.Repeat("=", 70) + "\n")
}
