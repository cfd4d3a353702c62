package cmd

import (
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
	importChainID  int64
	importAddress  string
	importSymbol   string
	importName     string
	importDecimals uint8
)

var importTokenCmd = &cobra.Command{
	Use:   "import-token",
	Short: "Add a token to the user-imported list",
	Long: `Add a token to the persisted user-imported token list. Imported tokens
appear in the merged set; site-configured fields win when the same token is
already configured.

Example:
  chainswap import-token --chain 1 --address 0x514910771AF9Ca656af840dff83E8264EcF986CA --symbol LINK --decimals 18`,
	Run: runImportToken,
}

func init() {
	rootCmd.AddCommand(importTokenCmd)

	importTokenCmd.Flags().Int64Var(&importChainID, "chain", 0, "Chain ID (required)")
	importTokenCmd.Flags().StringVar(&importAddress, "address", "", "Token contract address (required)")
	importTokenCmd.Flags().StringVar(&importSymbol, "symbol", "", "Token symbol (required)")
	importTokenCmd.Flags().StringVar(&importName, "name", "", "Token name")
	importTokenCmd.Flags().Uint8Var(&importDecimals, "decimals", 18, "Token decimals")
	_ = importTokenCmd.MarkFlagRequired("chain")
	_ = importTokenCmd.MarkFlagRequired("address")
	_ = importTokenCmd.MarkFlagRequired("symbol")
}

func runImportToken(cmd *cobra.Command, args []string) {
	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if !chains.DefaultRegistry().IsSupported(importChainID) {
		printError(&chains.UnknownChainError{ChainID: importChainID})
		os.Exit(1)
	}

	userTokens, err := tokens.LoadTokensFile(cfg.UserTokensFile)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	resolver := tokens.NewResolver(nil, userTokens)
	token := tokens.Token{
		ChainID:  importChainID,
		Address:  importAddress,
		Symbol:   importSymbol,
		Name:     importName,
		Decimals: importDecimals,
	}
	if err := resolver.ImportToken(token); err != nil {
		printError(err)
		os.Exit(1)
	}

	// Persist the full user list across all chains, replacing any previous
	// entry with the same identity.
	token.IsUserImported = true
	updated := make([]tokens.Token, 0, len(userTokens)+1)
	for _, existing := range userTokens {
		if existing.ChainID == token.ChainID && strings.EqualFold(existing.Address, token.Address) {
			continue
		}
		updated = append(updated, existing)
	}
	updated = append(updated, token)

	if err := tokens.SaveTokensFile(cfg.UserTokensFile, updated); err != nil {
		printError(err)
		os.Exit(1)
	}

	fmt.Println()
	color.Green("Imported %s (%s) on chain %d", importSymbol, importAddress, importChainID)
	fmt.Printf("Saved to %s\n\n", cfg.UserTokensFile)
}
