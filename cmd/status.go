package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"chainswap/config"
	"chainswap/pkg/chains"
	"chainswap/pkg/swap"
)

var (
	statusChainID int64
	statusWatch   bool
)

var statusCmd = &cobra.Command{
	Use:   "status <txHash>",
	Short: "Check a transaction's confirmation status",
	Long: `Check whether a submitted transaction has been mined, whether it
succeeded or reverted, and how many confirmations it has.

With --watch the command polls until the transaction reaches at least one
confirmation.

Examples:
  chainswap status 0xTxHash --chain 137
  chainswap status 0xTxHash --chain 137 --watch`,
	Args: cobra.ExactArgs(1),
	Run:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().Int64Var(&statusChainID, "chain", 1, "Chain ID")
	statusCmd.Flags().BoolVarP(&statusWatch, "watch", "w", false, "Poll until at least one confirmation")
}

func runStatus(cmd *cobra.Command, args []string) {
	txHash := args[0]
	verbose, _ := cmd.Flags().GetBool("verbose")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	chain, err := chains.DefaultRegistry().GetChain(statusChainID)
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

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if statusWatch {
		executor := swap.NewExecutor(nil, ethClient, log)
		fmt.Printf("\nWatching %s on %s...\n", color.CyanString(txHash), chain.Name)
		conf, err := executor.AwaitConfirmation(ctx, txHash)
		if err != nil {
			printError(err)
			os.Exit(1)
		}
		printConfirmation(txHash, chain.Name, true, conf.Success, conf.Confirmations, jsonOutput)
		if !conf.Success {
			os.Exit(1)
		}
		return
	}

	receipt, err := ethClient.TransactionReceipt(ctx, common.HexToHash(txHash))
	if errors.Is(err, ethereum.NotFound) {
		printConfirmation(txHash, chain.Name, false, false, 0, jsonOutput)
		return
	}
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	current, err := ethClient.BlockNumber(ctx)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	var confirmations uint64
	if receiptBlock := receipt.BlockNumber.Uint64(); current >= receiptBlock {
		confirmations = current - receiptBlock + 1
	}
	success := receipt.Status == ethtypes.ReceiptStatusSuccessful

	printConfirmation(txHash, chain.Name, true, success, confirmations, jsonOutput)
	if !success {
		os.Exit(1)
	}
}

func printConfirmation(txHash, chainName string, mined, success bool, confirmations uint64, jsonOutput bool) {
	if jsonOutput {
		out := map[string]any{
			"hash":          txHash,
			"chain":         chainName,
			"mined":         mined,
			"success":       success,
			"confirmations": confirmations,
		}
		jsonData, _ := json.MarshalIndent(out, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	fmt.Println("\n" + strings.Repeat("=", 70))
	color.Green("                    TRANSACTION STATUS")
	fmt.Println(strings.Repeat("=", 70))

	fmt.Printf("\n  Hash:  %s\n  Chain: %s\n", color.CyanString(txHash), chainName)
	switch {
	case !mined:
		fmt.Printf("  State: %s\n", color.YellowString("pending (not mined yet)"))
	case success:
		fmt.Printf("  State: %s (%d confirmations)\n", color.GreenString("confirmed"), confirmations)
	default:
		fmt.Printf("  State: %s (%d confirmations)\n", color.RedString("reverted"), confirmations)
	}

	fmt.Println("\n" + strings.Repeat("=", 70) + "\n")
}
