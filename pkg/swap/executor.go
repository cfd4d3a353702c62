package swap

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/sirupsen/logrus"

	"chainswap/pkg/quote"
)

// InvalidQuoteError indicates a quote was used without its transaction
// payload. This is a programmer error; it should never reach the user.
type InvalidQuoteError struct {
	Missing string
}

func (e *InvalidQuoteError) Error() string {
	return fmt.Sprintf("quote is missing transaction field: %s", e.Missing)
}

// TransactionRevertedError reports an on-chain revert. Terminal for the
// attempt; reported, never retried automatically.
type TransactionRevertedError struct {
	Hash string
}

func (e *TransactionRevertedError) Error() string {
	return fmt.Sprintf("transaction %s reverted on-chain", e.Hash)
}

// Confirmation is the outcome of waiting for a transaction receipt. Success
// requires both a successful status and at least one confirmation.
type Confirmation struct {
	Success       bool
	Confirmations uint64
}

// Backend is the chain surface needed to track a submitted transaction.
// *ethclient.Client satisfies it.
type Backend interface {
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*ethtypes.Receipt, error)
	BlockNumber(ctx context.Context) (uint64, error)
}

// TxSender submits a signed transaction and returns its hash. The wallet
// satisfies it.
type TxSender interface {
	SendTransaction(ctx context.Context, to common.Address, value *big.Int, data []byte, gasPrice *big.Int) (string, error)
}

// Executor submits quote transaction payloads and tracks them to
// confirmation. It does not re-validate amounts or allowance; callers do
// that before submitting.
type Executor struct {
	sender       TxSender
	backend      Backend
	pollInterval time.Duration
	log          *logrus.Entry
}

// NewExecutor creates an executor over a sender and a receipt backend.
func NewExecutor(sender TxSender, backend Backend, log *logrus.Logger) *Executor {
	return &Executor{
		sender:       sender,
		backend:      backend,
		pollInterval: 4 * time.Second,
		log:          log.WithField("component", "swap"),
	}
}

// Execute submits the quote's transaction payload and returns the hash. It
// fails fast with InvalidQuoteError when the payload is incomplete.
func (x *Executor) Execute(ctx context.Context, q *quote.Quote) (string, error) {
	if q == nil {
		return "", &InvalidQuoteError{Missing: "quote"}
	}
	if q.TxTo == "" {
		return "", &InvalidQuoteError{Missing: "to"}
	}
	if q.TxData == "" {
		return "", &InvalidQuoteError{Missing: "data"}
	}

	data, err := hexutil.Decode(q.TxData)
	if err != nil {
		return "", &InvalidQuoteError{Missing: "data"}
	}

	hash, err := x.sender.SendTransaction(ctx, common.HexToAddress(q.TxTo), q.TxValue, data, q.GasPrice)
	if err != nil {
		return "", fmt.Errorf("failed to submit swap: %w", err)
	}

	x.log.WithField("hash", hash).Info("swap submitted")
	return hash, nil
}

// AwaitConfirmation blocks until the transaction's receipt is available and
// has at least one confirmation, polling the chain. A reverted transaction
// yields Success=false, not an error.
func (x *Executor) AwaitConfirmation(ctx context.Context, txHash string) (Confirmation, error) {
	hash := common.HexToHash(txHash)

	for {
		receipt, err := x.backend.TransactionReceipt(ctx, hash)
		switch {
		case err == nil:
			confirmations, err := x.confirmations(ctx, receipt.BlockNumber.Uint64())
			if err != nil {
				return Confirmation{}, err
			}
			if confirmations >= 1 {
				success := receipt.Status == ethtypes.ReceiptStatusSuccessful
				x.log.WithFields(logrus.Fields{
					"hash":          txHash,
					"success":       success,
					"confirmations": confirmations,
				}).Info("transaction mined")
				return Confirmation{Success: success, Confirmations: confirmations}, nil
			}
		case errors.Is(err, ethereum.NotFound):
			// Not mined yet; keep polling.
		default:
			return Confirmation{}, fmt.Errorf("failed to get receipt: %w", err)
		}

		select {
		case <-ctx.Done():
			return Confirmation{}, ctx.Err()
		case <-time.After(x.pollInterval):
		}
	}
}

func (x *Executor) confirmations(ctx context.Context, receiptBlock uint64) (uint64, error) {
	current, err := x.backend.BlockNumber(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get block number: %w", err)
	}
	if current < receiptBlock {
		return 0, nil
	}
	return current - receiptBlock + 1, nil
}
