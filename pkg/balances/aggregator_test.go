package balances

import (
	"context"
	"fmt"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"chainswap/pkg/chains"
)

const (
	usdcAddr = "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"
	daiAddr  = "0x6B175474E89094C44Da98b954EedeAC495271d0F"
)

var (
	testAccount = common.HexToAddress("0x1111111111111111111111111111111111111111")
	testSpender = common.HexToAddress("0x2222222222222222222222222222222222222222")
)

// fakeBatchCaller records batches and answers each element from a script.
type fakeBatchCaller struct {
	batches [][]rpc.BatchElem
	answer  func(i int, elem *rpc.BatchElem) error
	err     error
}

func (f *fakeBatchCaller) BatchCallContext(_ context.Context, b []rpc.BatchElem) error {
	f.batches = append(f.batches, b)
	if f.err != nil {
		return f.err
	}
	for i := range b {
		if err := f.answer(i, &b[i]); err != nil {
			return err
		}
	}
	return nil
}

func uint256Result(elem *rpc.BatchElem, v *big.Int) {
	switch result := elem.Result.(type) {
	case *hexutil.Big:
		*result = hexutil.Big(*v)
	case *hexutil.Bytes:
		*result = common.LeftPadBytes(v.Bytes(), 32)
	}
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func TestGetBalancesSingleBatch(t *testing.T) {
	values := []*big.Int{big.NewInt(100000000), big.NewInt(42), big.NewInt(999)}
	caller := &fakeBatchCaller{answer: func(i int, elem *rpc.BatchElem) error {
		uint256Result(elem, values[i])
		return nil
	}}

	agg := NewAggregator(1, caller, testLogger())
	got, err := agg.GetBalances(context.Background(), []string{usdcAddr, daiAddr, chains.NativeTokenAddress}, testAccount)
	require.NoError(t, err)

	// One round trip for all three reads.
	require.Len(t, caller.batches, 1)
	require.Len(t, caller.batches[0], 3)

	// Results map back to input addresses in order.
	require.Equal(t, "100000000", got[usdcAddr].String())
	require.Equal(t, "42", got[daiAddr].String())
	require.Equal(t, "999", got[chains.NativeTokenAddress].String())

	// The native sentinel never goes through the ERC-20 path.
	require.Equal(t, "eth_getBalance", caller.batches[0][2].Method)
	require.Equal(t, "eth_call", caller.batches[0][0].Method)
	require.Equal(t, "eth_call", caller.batches[0][1].Method)
}

func TestGetBalancesBatchFailureNoPartialResults(t *testing.T) {
	caller := &fakeBatchCaller{err: fmt.Errorf("connection reset")}

	agg := NewAggregator(1, caller, testLogger())
	got, err := agg.GetBalances(context.Background(), []string{usdcAddr, daiAddr}, testAccount)
	require.Error(t, err)
	require.Nil(t, got)
}

func TestGetBalancesElementFailureFailsWholeBatch(t *testing.T) {
	caller := &fakeBatchCaller{answer: func(i int, elem *rpc.BatchElem) error {
		if i == 1 {
			elem.Error = fmt.Errorf("execution reverted")
			return nil
		}
		uint256Result(elem, big.NewInt(7))
		return nil
	}}

	agg := NewAggregator(1, caller, testLogger())
	got, err := agg.GetBalances(context.Background(), []string{usdcAddr, daiAddr}, testAccount)
	require.Error(t, err)
	require.Nil(t, got)
}

func TestGetAllowances(t *testing.T) {
	caller := &fakeBatchCaller{answer: func(i int, elem *rpc.BatchElem) error {
		uint256Result(elem, big.NewInt(int64(1000*(i+1))))
		return nil
	}}

	agg := NewAggregator(1, caller, testLogger())
	got, err := agg.GetAllowances(context.Background(), []string{usdcAddr, daiAddr}, testAccount, testSpender)
	require.NoError(t, err)

	require.Len(t, caller.batches, 1)
	require.Equal(t, "1000", got[usdcAddr].String())
	require.Equal(t, "2000", got[daiAddr].String())
}

func TestGetAllowancesRejectsNativeSentinel(t *testing.T) {
	agg := NewAggregator(1, &fakeBatchCaller{}, testLogger())
	_, err := agg.GetAllowances(context.Background(), []string{chains.NativeTokenAddress}, testAccount, testSpender)
	require.Error(t, err)
}

func TestGetBalancesEmptyInput(t *testing.T) {
	caller := &fakeBatchCaller{}
	agg := NewAggregator(1, caller, testLogger())

	got, err := agg.GetBalances(context.Background(), nil, testAccount)
	require.NoError(t, err)
	require.Empty(t, got)
	require.Empty(t, caller.batches)
}
