package balances

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/sirupsen/logrus"

	"chainswap/pkg/chains"
)

// ERC-20 read-call ABI used for encoding batched eth_call payloads.
const erc20ReadABI = `[
	{"constant":true,"inputs":[{"name":"_owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"balance","type":"uint256"}],"type":"function"},
	{"constant":true,"inputs":[{"name":"_owner","type":"address"},{"name":"_spender","type":"address"}],"name":"allowance","outputs":[{"name":"remaining","type":"uint256"}],"type":"function"}
]`

var erc20ABI abi.ABI

func init() {
	parsed, err := abi.JSON(strings.NewReader(erc20ReadABI))
	if err != nil {
		panic(fmt.Sprintf("invalid ERC-20 ABI: %v", err))
	}
	erc20ABI = parsed
}

// BatchCaller dispatches a set of JSON-RPC calls in a single round trip.
// *rpc.Client satisfies it.
type BatchCaller interface {
	BatchCallContext(ctx context.Context, b []rpc.BatchElem) error
}

// Aggregator batches balance and allowance reads for one chain into a single
// RPC round trip. If the batch fails, the whole aggregate fails; callers
// retry the full batch, never individual entries.
type Aggregator struct {
	chainID int64
	caller  BatchCaller
	log     *logrus.Entry
}

// NewAggregator creates an aggregator over a chain's batch-capable RPC client.
func NewAggregator(chainID int64, caller BatchCaller, log *logrus.Logger) *Aggregator {
	return &Aggregator{
		chainID: chainID,
		caller:  caller,
		log:     log.WithField("component", "balances").WithField("chainId", chainID),
	}
}

// GetBalances returns the balance of each token for the account, keyed by
// the token address exactly as supplied. The native-currency sentinel is
// read via eth_getBalance; everything else goes through ERC-20 balanceOf.
func (a *Aggregator) GetBalances(ctx context.Context, tokenAddrs []string, account common.Address) (map[string]*big.Int, error) {
	elems := make([]rpc.BatchElem, len(tokenAddrs))
	for i, addr := range tokenAddrs {
		if chains.IsNativeToken(addr) {
			elems[i] = rpc.BatchElem{
				Method: "eth_getBalance",
				Args:   []interface{}{account, "latest"},
				Result: new(hexutil.Big),
			}
			continue
		}
		data, err := erc20ABI.Pack("balanceOf", account)
		if err != nil {
			return nil, fmt.Errorf("failed to encode balanceOf for %s: %w", addr, err)
		}
		elems[i] = callElem(addr, data)
	}

	if err := a.dispatch(ctx, elems); err != nil {
		return nil, err
	}

	out := make(map[string]*big.Int, len(tokenAddrs))
	for i, addr := range tokenAddrs {
		v, err := decodeUint256(elems[i])
		if err != nil {
			return nil, fmt.Errorf("failed to decode balance of %s: %w", addr, err)
		}
		out[addr] = v
	}
	a.log.WithField("tokens", len(tokenAddrs)).Debug("fetched balances")
	return out, nil
}

// GetAllowances returns the spender's allowance for each token, keyed by the
// token address exactly as supplied. The native currency has no allowance
// and is rejected; callers must not include the sentinel here.
func (a *Aggregator) GetAllowances(ctx context.Context, tokenAddrs []string, owner, spender common.Address) (map[string]*big.Int, error) {
	elems := make([]rpc.BatchElem, len(tokenAddrs))
	for i, addr := range tokenAddrs {
		if chains.IsNativeToken(addr) {
			return nil, fmt.Errorf("native currency has no allowance")
		}
		data, err := erc20ABI.Pack("allowance", owner, spender)
		if err != nil {
			return nil, fmt.Errorf("failed to encode allowance for %s: %w", addr, err)
		}
		elems[i] = callElem(addr, data)
	}

	if err := a.dispatch(ctx, elems); err != nil {
		return nil, err
	}

	out := make(map[string]*big.Int, len(tokenAddrs))
	for i, addr := range tokenAddrs {
		v, err := decodeUint256(elems[i])
		if err != nil {
			return nil, fmt.Errorf("failed to decode allowance of %s: %w", addr, err)
		}
		out[addr] = v
	}
	a.log.WithField("tokens", len(tokenAddrs)).Debug("fetched allowances")
	return out, nil
}

func callElem(tokenAddr string, data []byte) rpc.BatchElem {
	return rpc.BatchElem{
		Method: "eth_call",
		Args: []interface{}{
			map[string]interface{}{
				"to":   common.HexToAddress(tokenAddr),
				"data": hexutil.Encode(data),
			},
			"latest",
		},
		Result: new(hexutil.Bytes),
	}
}

// dispatch sends all encoded calls as one batch. Any per-element error fails
// the whole aggregate so callers never see partial results.
func (a *Aggregator) dispatch(ctx context.Context, elems []rpc.BatchElem) error {
	if len(elems) == 0 {
		return nil
	}
	if err := a.caller.BatchCallContext(ctx, elems); err != nil {
		return fmt.Errorf("batch call failed: %w", err)
	}
	for i := range elems {
		if elems[i].Error != nil {
			return fmt.Errorf("batch element %d failed: %w", i, elems[i].Error)
		}
	}
	return nil
}

func decodeUint256(elem rpc.BatchElem) (*big.Int, error) {
	switch result := elem.Result.(type) {
	case *hexutil.Big:
		return (*big.Int)(result), nil
	case *hexutil.Bytes:
		if len(*result) == 0 {
			return nil, fmt.Errorf("empty call result")
		}
		return new(big.Int).SetBytes(*result), nil
	default:
		return nil, fmt.Errorf("unexpected result type %T", elem.Result)
	}
}
