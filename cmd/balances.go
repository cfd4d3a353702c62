package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/ethereum/go-ethereum/common"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"chainswap/config"
	"chainswap/pkg/balances"
	"chainswap/pkg/chains"
	"chainswap/pkg/tokens"
)

var balancesChainID int64

var balancesCmd = &cobra.Command{
	Use:   "balances <account>",
	Short: "Show token balances for an account",
	Long: `Show balances of every token in the merged set for an account on one
chain. All reads go out as a single batched RPC round trip.

Examples:
  chainswap balances 0xYourAddress --chain 137
  chainswap balances 0xYourAddress --chain 1 --json`,
	Args: cobra.ExactArgs(1),
	Run:  runBalances,
}

func init() {
	rootCmd.AddCommand(balancesCmd)

	balancesCmd.Flags().Int64Var(&balancesChainID, "chain", 1, "Chain ID")
}

func runBalances(cmd *cobra.Command, args []string) {
	account := args[0]
	verbose, _ := cmd.Flags().GetBool("verbose")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	if !common.IsHexAddress(account) {
		printError(fmt.Errorf("invalid account address: %s", account))
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	registry := chains.DefaultRegistry()
	chain, err := registry.GetChain(balancesChainID)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	resolver, err := loadResolver(cfg)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	tokenList := resolver.TokensForChain(chain.ChainID)
	if len(tokenList) == 0 {
		fmt.Printf("\nNo tokens configured for chain %d.\n", chain.ChainID)
		return
	}

	rpcClient, _, err := dialChain(cfg, chain)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	defer rpcClient.Close()

	log := newLogger(verbose)
	aggregator := balances.NewAggregator(chain.ChainID, rpcClient, log)

	addrs := make([]string, len(tokenList))
	for i, t := range tokenList {
		addrs[i] = t.Address
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Fetching balances..."
		s.Start()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	result, err := aggregator.GetBalances(ctx, addrs, common.HexToAddress(account))

	if !jsonOutput {
		s.Stop()
	}
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if jsonOutput {
		out := make(map[string]string, len(tokenList))
		for _, t := range tokenList {
			out[t.Symbol] = tokens.FromBaseUnits(result[t.Address], t.Decimals)
		}
		jsonData, _ := json.MarshalIndent(out, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	fmt.Println("\n" + strings.Repeat("=", 70))
	color.Green("                        BALANCES")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("\n  Account: %s\n  Chain:   %s (%d)\n\n", color.CyanString(account), chain.Name, chain.ChainID)

	for _, t := range tokenList {
		display := tokens.FromBaseUnits(result[t.Address], t.Decimals)
		fmt.Printf("  %-10s  %s\n", color.YellowString(t.Symbol), display)
	}

	fmt.Println("\n" + strings.Repeat("=", 70) + "\n")
}
