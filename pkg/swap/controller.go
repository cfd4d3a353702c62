package swap

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"chainswap/pkg/approve"
	"chainswap/pkg/quote"
)

// State of the swap flow.
type State string

const (
	StateIdle      State = "idle"
	StateQuoting   State = "quoting"
	StateApproving State = "approving"
	StateSwapping  State = "swapping"
	StateConfirmed State = "confirmed"
	StateFailed    State = "failed"
)

// TxKind distinguishes approval and swap transactions.
type TxKind string

const (
	TxApprove TxKind = "approve"
	TxSwap    TxKind = "swap"
)

// TxStatus is a pending transaction's lifecycle state. A record transitions
// from pending to a terminal status exactly once and is never deleted.
type TxStatus string

const (
	TxPending   TxStatus = "pending"
	TxConfirmed TxStatus = "confirmed"
	TxFailed    TxStatus = "failed"
)

// PendingTransaction is an append-only record of a submitted transaction,
// shared read-only with history views.
type PendingTransaction struct {
	Hash        string
	ChainID     int64
	Kind        TxKind
	Status      TxStatus
	SubmittedAt time.Time
	Metadata    map[string]string
}

// Notifier receives a typed notification when a transaction confirms.
type Notifier interface {
	CreateNotification(kind TxKind, metadata map[string]string)
}

// History receives confirmed transactions for the transaction-history view.
type History interface {
	AddTransaction(hash string, kind TxKind, metadata map[string]string)
}

// QuoteFetcher fetches a quote for the given params. *quote.Engine
// satisfies it.
type QuoteFetcher interface {
	GetQuote(ctx context.Context, params quote.Params) (*quote.Quote, error)
}

// AllowanceEnsurer checks allowance sufficiency. *approve.Manager satisfies
// it.
type AllowanceEnsurer interface {
	EnsureAllowance(ctx context.Context, tokenAddr string, owner, spender common.Address, requiredAmount *big.Int) (approve.Result, error)
}

// QuoteExecutor submits a quote and awaits its confirmation. *Executor
// satisfies it.
type QuoteExecutor interface {
	Execute(ctx context.Context, q *quote.Quote) (string, error)
	AwaitConfirmation(ctx context.Context, txHash string) (Confirmation, error)
}

// Callbacks are the collaborator hooks exposed outward to the UI layer.
type Callbacks struct {
	// OnConnectWallet is invoked when a swap is attempted without a wallet.
	OnConnectWallet func()
	Notifier        Notifier
	History         History
}

// Options tunes a single swap run.
type Options struct {
	// ConfirmApproval is asked before submitting an approval transaction.
	// Nil means approvals proceed without asking.
	ConfirmApproval func(tokenSymbol string, spender string) bool
}

// Outcome is the result of a completed swap flow.
type Outcome struct {
	TxHash        string
	Confirmations uint64
}

// Controller orchestrates the full swap flow and owns its state machine:
// idle -> quoting -> (approving) -> swapping -> confirmed/failed. On failure
// the error is retained for display and nothing is retried automatically;
// the user re-triggers.
type Controller struct {
	chainID   int64
	engine    QuoteFetcher
	approvals AllowanceEnsurer
	executor  QuoteExecutor
	taker     common.Address
	hasWallet bool
	callbacks Callbacks
	log       *logrus.Entry

	mu      sync.RWMutex
	state   State
	lastErr error
	txs     []PendingTransaction
}

// NewController wires the swap flow together. A zero taker address means no
// wallet is connected; attempts to swap will invoke OnConnectWallet.
func NewController(chainID int64, engine QuoteFetcher, approvals AllowanceEnsurer, executor QuoteExecutor, taker common.Address, callbacks Callbacks, log *logrus.Logger) *Controller {
	return &Controller{
		chainID:   chainID,
		engine:    engine,
		approvals: approvals,
		executor:  executor,
		taker:     taker,
		hasWallet: taker != (common.Address{}),
		callbacks: callbacks,
		state:     StateIdle,
		log:       log.WithField("component", "controller").WithField("chainId", chainID),
	}
}

// State returns the current flow state.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// LastError returns the retained error from the most recent failure, if any.
func (c *Controller) LastError() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastErr
}

// Transactions returns a snapshot of the append-only transaction log. Safe
// to call while a swap is in flight.
func (c *Controller) Transactions() []PendingTransaction {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]PendingTransaction, len(c.txs))
	copy(out, c.txs)
	return out
}

// Swap runs the full flow for the given quote params: fetch a fresh quote,
// establish allowance if needed, submit, and wait for confirmation.
func (c *Controller) Swap(ctx context.Context, params quote.Params, opts Options) (*Outcome, error) {
	if !c.hasWallet {
		if c.callbacks.OnConnectWallet != nil {
			c.callbacks.OnConnectWallet()
		}
		return nil, fmt.Errorf("no wallet connected")
	}

	if err := c.begin(); err != nil {
		return nil, err
	}

	params.TakerAddress = c.taker.Hex()

	q, err := c.engine.GetQuote(ctx, params)
	if err != nil {
		return nil, c.fail(err)
	}
	if q == nil {
		return nil, c.fail(fmt.Errorf("no quote requested: exactly one of sell/buy amount must be set"))
	}

	if err := c.establishAllowance(ctx, q, opts); err != nil {
		return nil, c.fail(err)
	}

	c.setState(StateSwapping)
	hash, err := c.executor.Execute(ctx, q)
	if err != nil {
		return nil, c.fail(err)
	}
	c.appendTx(hash, TxSwap, map[string]string{
		"sellToken":  q.SellToken.Symbol,
		"buyToken":   q.BuyToken.Symbol,
		"sellAmount": q.SellAmountDisplay,
		"buyAmount":  q.BuyAmountDisplay,
	})

	conf, err := c.executor.AwaitConfirmation(ctx, hash)
	if err != nil {
		c.resolveTx(hash, TxFailed)
		return nil, c.fail(err)
	}
	if !conf.Success {
		c.resolveTx(hash, TxFailed)
		return nil, c.fail(&TransactionRevertedError{Hash: hash})
	}

	c.resolveTx(hash, TxConfirmed)
	c.notifyConfirmed(hash, TxSwap, map[string]string{
		"sellToken":  q.SellToken.Symbol,
		"buyToken":   q.BuyToken.Symbol,
		"sellAmount": q.SellAmountDisplay,
		"buyAmount":  q.BuyAmountDisplay,
	})
	c.setState(StateConfirmed)

	return &Outcome{TxHash: hash, Confirmations: conf.Confirmations}, nil
}

func (c *Controller) establishAllowance(ctx context.Context, q *quote.Quote, opts Options) error {
	res, err := c.approvals.EnsureAllowance(ctx, q.SellToken.Address, c.taker, common.HexToAddress(q.TxTo), q.SellAmount)
	if err != nil {
		return err
	}
	if res.Sufficient {
		return nil
	}

	if opts.ConfirmApproval != nil && !opts.ConfirmApproval(q.SellToken.Symbol, q.TxTo) {
		return &approve.InsufficientAllowanceError{
			Token:    q.SellToken.Address,
			Spender:  common.HexToAddress(q.TxTo),
			Current:  res.Current,
			Required: q.SellAmount,
		}
	}

	c.setState(StateApproving)
	hash, err := res.Approve(ctx)
	if err != nil {
		return err
	}
	c.appendTx(hash, TxApprove, map[string]string{
		"token":   q.SellToken.Symbol,
		"spender": q.TxTo,
	})

	conf, err := c.executor.AwaitConfirmation(ctx, hash)
	if err != nil {
		c.resolveTx(hash, TxFailed)
		return err
	}
	if !conf.Success {
		c.resolveTx(hash, TxFailed)
		return &TransactionRevertedError{Hash: hash}
	}

	c.resolveTx(hash, TxConfirmed)
	c.notifyConfirmed(hash, TxApprove, map[string]string{
		"token":   q.SellToken.Symbol,
		"spender": q.TxTo,
	})
	return nil
}

func (c *Controller) begin() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case StateQuoting, StateApproving, StateSwapping:
		return fmt.Errorf("swap already in progress (state %s)", c.state)
	}
	c.state = StateQuoting
	c.lastErr = nil
	return nil
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// fail records the error for display and returns the flow to idle. Nothing
// is retried; the user must re-trigger.
func (c *Controller) fail(err error) error {
	c.mu.Lock()
	c.state = StateIdle
	c.lastErr = err
	c.mu.Unlock()
	c.log.WithError(err).Warn("swap flow failed")
	return err
}

func (c *Controller) appendTx(hash string, kind TxKind, metadata map[string]string) {
	c.mu.Lock()
	c.txs = append(c.txs, PendingTransaction{
		Hash:        hash,
		ChainID:     c.chainID,
		Kind:        kind,
		Status:      TxPending,
		SubmittedAt: time.Now(),
		Metadata:    metadata,
	})
	c.mu.Unlock()
}

// resolveTx moves a pending record to a terminal status. Records already in
// a terminal state are left untouched.
func (c *Controller) resolveTx(hash string, status TxStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.txs {
		if c.txs[i].Hash == hash && c.txs[i].Status == TxPending {
			c.txs[i].Status = status
			return
		}
	}
}

func (c *Controller) notifyConfirmed(hash string, kind TxKind, metadata map[string]string) {
	if c.callbacks.Notifier != nil {
		c.callbacks.Notifier.CreateNotification(kind, metadata)
	}
	if c.callbacks.History != nil {
		c.callbacks.History.AddTransaction(hash, kind, metadata)
	}
}
