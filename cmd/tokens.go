package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"chainswap/config"
	"chainswap/pkg/chains"
	"chainswap/pkg/tokens"
)

var (
	tokensChainID int64
	filterSymbol  string
	listTestnets  bool
)

var tokensCmd = &cobra.Command{
	Use:     "tokens",
	Aliases: []string{"list-tokens", "ls"},
	Short:   "List the merged token set",
	Long: `List the merged token set (site-configured plus user-imported) for one
chain, or for every supported chain.

Examples:
  chainswap tokens
  chainswap tokens --chain 137
  chainswap tokens --symbol USDC`,
	Run: runListTokens,
}

func init() {
	rootCmd.AddCommand(tokensCmd)

	tokensCmd.Flags().Int64Var(&tokensChainID, "chain", 0, "Filter by chain ID")
	tokensCmd.Flags().StringVar(&filterSymbol, "symbol", "", "Filter by token symbol")
	tokensCmd.Flags().BoolVar(&listTestnets, "testnets", false, "Include testnet chains")
}

func runListTokens(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	resolver, err := loadResolver(cfg)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	registry := chains.DefaultRegistry()

	chainList := registry.ListChains(listTestnets)
	if tokensChainID != 0 {
		chain, err := registry.GetChain(tokensChainID)
		if err != nil {
			printError(err)
			os.Exit(1)
		}
		chainList = []chains.Chain{chain}
	}

	type chainTokens struct {
		Chain  chains.Chain
		Tokens []tokens.Token
	}
	listed := make([]chainTokens, 0, len(chainList))
	total := 0
	for _, chain := range chainList {
		tokenList := resolver.TokensForChain(chain.ChainID)
		if filterSymbol != "" {
			var filtered []tokens.Token
			for _, t := range tokenList {
				if strings.Contains(strings.ToUpper(t.Symbol), strings.ToUpper(filterSymbol)) {
					filtered = append(filtered, t)
				}
			}
			tokenList = filtered
		}
		if len(tokenList) == 0 {
			continue
		}
		listed = append(listed, chainTokens{Chain: chain, Tokens: tokenList})
		total += len(tokenList)
	}

	if jsonOutput {
		out := make(map[string][]tokens.Token, len(listed))
		for _, ct := range listed {
			out[ct.Chain.Name] = ct.Tokens
		}
		jsonData, _ := json.MarshalIndent(out, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	if len(listed) == 0 {
		fmt.Println("\nNo tokens found matching the criteria.")
		return
	}

	fmt.Println("\n" + strings.Repeat("=", 90))
	color.Green("                                TOKENS")
	fmt.Println(strings.Repeat("=", 90))

	for _, ct := range listed {
		color.Cyan("\n%s (chain %d)", strings.ToUpper(ct.Chain.Name), ct.Chain.ChainID)
		fmt.Println(strings.Repeat("-", 90))

		for _, t := range ct.Tokens {
			marker := "  "
			if t.IsUserImported {
				marker = color.MagentaString("* ")
			}
			fmt.Printf("  %s%-10s  %2d decimals  %s\n",
				marker,
				color.YellowString(t.Symbol),
				t.Decimals,
				color.HiBlackString(t.Address))
		}
	}

	fmt.Println("\n" + strings.Repeat("=", 90))
	fmt.Printf("\nTotal: %d tokens across %d chains (* = user-imported)\n\n", total, len(listed))
}
