package approve

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"chainswap/pkg/chains"
)

// ERC-20 approve function ABI.
const erc20ApproveABI = `[{"constant":false,"inputs":[{"name":"_spender","type":"address"},{"name":"_value","type":"uint256"}],"name":"approve","outputs":[{"name":"","type":"bool"}],"type":"function"}]`

var approveABI abi.ABI

func init() {
	parsed, err := abi.JSON(strings.NewReader(erc20ApproveABI))
	if err != nil {
		panic(fmt.Sprintf("invalid approve ABI: %v", err))
	}
	approveABI = parsed
}

// InsufficientAllowanceError reports that a spender lacks allowance and the
// caller chose not to approve. It is an expected steady state that triggers
// the approval flow rather than a failure surfaced to the user.
type InsufficientAllowanceError struct {
	Token    string
	Spender  common.Address
	Current  *big.Int
	Required *big.Int
}

func (e *InsufficientAllowanceError) Error() string {
	return fmt.Sprintf("allowance %s of token %s for spender %s is below required %s",
		e.Current, e.Token, e.Spender.Hex(), e.Required)
}

// AllowanceReader reads current on-chain allowances. The balances aggregator
// satisfies it.
type AllowanceReader interface {
	GetAllowances(ctx context.Context, tokenAddrs []string, owner, spender common.Address) (map[string]*big.Int, error)
}

// TxSender submits a signed transaction and returns its hash. The wallet
// satisfies it.
type TxSender interface {
	SendTransaction(ctx context.Context, to common.Address, value *big.Int, data []byte, gasPrice *big.Int) (string, error)
}

// Result reports whether allowance is sufficient. When it is not, Approve is
// the explicit callable that submits the approval transaction; the manager
// never submits one implicitly.
type Result struct {
	Sufficient bool
	Current    *big.Int
	Approve    func(ctx context.Context) (string, error)
}

// Manager decides whether a spender may move the required amount and issues
// approval transactions on explicit request.
type Manager struct {
	reader AllowanceReader
	sender TxSender
	log    *logrus.Entry
}

// NewManager creates an approval manager over an allowance reader and a
// transaction sender.
func NewManager(reader AllowanceReader, sender TxSender, log *logrus.Logger) *Manager {
	return &Manager{
		reader: reader,
		sender: sender,
		log:    log.WithField("component", "approve"),
	}
}

// EnsureAllowance checks whether spender may transfer requiredAmount of the
// token from owner. The current allowance is always re-read on-chain;
// approvals from outside this session may have changed it. A zero-address
// spender and the native-currency sentinel need no approval.
func (m *Manager) EnsureAllowance(ctx context.Context, tokenAddr string, owner, spender common.Address, requiredAmount *big.Int) (Result, error) {
	if spender == (common.Address{}) || chains.IsNativeToken(tokenAddr) {
		return Result{Sufficient: true}, nil
	}

	allowances, err := m.reader.GetAllowances(ctx, []string{tokenAddr}, owner, spender)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read allowance: %w", err)
	}
	current, ok := allowances[tokenAddr]
	if !ok {
		return Result{}, fmt.Errorf("allowance read returned no entry for %s", tokenAddr)
	}

	if current.Cmp(requiredAmount) >= 0 {
		return Result{Sufficient: true, Current: current}, nil
	}

	m.log.WithFields(logrus.Fields{
		"token":    tokenAddr,
		"current":  current.String(),
		"required": requiredAmount.String(),
	}).Debug("allowance insufficient")

	return Result{
		Sufficient: false,
		Current:    current,
		Approve: func(ctx context.Context) (string, error) {
			return m.submitApproval(ctx, tokenAddr, spender, requiredAmount)
		},
	}, nil
}

func (m *Manager) submitApproval(ctx context.Context, tokenAddr string, spender common.Address, amount *big.Int) (string, error) {
	data, err := approveABI.Pack("approve", spender, amount)
	if err != nil {
		return "", fmt.Errorf("failed to encode approve call: %w", err)
	}

	hash, err := m.sender.SendTransaction(ctx, common.HexToAddress(tokenAddr), big.NewInt(0), data, nil)
	if err != nil {
		return "", fmt.Errorf("failed to submit approval: %w", err)
	}

	m.log.WithFields(logrus.Fields{"token": tokenAddr, "hash": hash}).Info("approval submitted")
	return hash, nil
}
