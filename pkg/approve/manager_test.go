package approve

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"chainswap/pkg/chains"
)

const usdcAddr = "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"

var (
	owner   = common.HexToAddress("0x1111111111111111111111111111111111111111")
	spender = common.HexToAddress("0x2222222222222222222222222222222222222222")
)

type fakeReader struct {
	allowance *big.Int
	reads     int
}

func (f *fakeReader) GetAllowances(_ context.Context, tokenAddrs []string, _, _ common.Address) (map[string]*big.Int, error) {
	f.reads++
	out := make(map[string]*big.Int, len(tokenAddrs))
	for _, addr := range tokenAddrs {
		out[addr] = new(big.Int).Set(f.allowance)
	}
	return out, nil
}

type fakeSender struct {
	sent   int
	lastTo common.Address
}

func (f *fakeSender) SendTransaction(_ context.Context, to common.Address, _ *big.Int, _ []byte, _ *big.Int) (string, error) {
	f.sent++
	f.lastTo = to
	return "0xabc123", nil
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func TestEnsureAllowanceSufficient(t *testing.T) {
	reader := &fakeReader{allowance: big.NewInt(1000)}
	sender := &fakeSender{}
	m := NewManager(reader, sender, testLogger())

	res, err := m.EnsureAllowance(context.Background(), usdcAddr, owner, spender, big.NewInt(500))
	require.NoError(t, err)
	require.True(t, res.Sufficient)
	require.Zero(t, sender.sent, "no approval may be submitted implicitly")
}

func TestEnsureAllowanceInsufficientReturnsCallable(t *testing.T) {
	reader := &fakeReader{allowance: big.NewInt(10)}
	sender := &fakeSender{}
	m := NewManager(reader, sender, testLogger())

	res, err := m.EnsureAllowance(context.Background(), usdcAddr, owner, spender, big.NewInt(500))
	require.NoError(t, err)
	require.False(t, res.Sufficient)
	require.NotNil(t, res.Approve)
	require.Zero(t, sender.sent, "insufficient result alone must not approve")

	hash, err := res.Approve(context.Background())
	require.NoError(t, err)
	require.Equal(t, "0xabc123", hash)
	require.Equal(t, 1, sender.sent)
	require.Equal(t, common.HexToAddress(usdcAddr), sender.lastTo)
}

// After approve() is invoked, a subsequent check must re-read the chain, not
// assume the approval landed. While the mocked chain still reports the old
// allowance, the result stays insufficient.
func TestEnsureAllowanceRereadsAfterApprove(t *testing.T) {
	reader := &fakeReader{allowance: big.NewInt(10)}
	sender := &fakeSender{}
	m := NewManager(reader, sender, testLogger())

	res, err := m.EnsureAllowance(context.Background(), usdcAddr, owner, spender, big.NewInt(500))
	require.NoError(t, err)
	require.False(t, res.Sufficient)

	_, err = res.Approve(context.Background())
	require.NoError(t, err)

	// Chain still reports the stale allowance.
	res, err = m.EnsureAllowance(context.Background(), usdcAddr, owner, spender, big.NewInt(500))
	require.NoError(t, err)
	require.False(t, res.Sufficient)
	require.Equal(t, 2, reader.reads)

	// Once the chain reflects the approval, the check turns sufficient.
	reader.allowance = big.NewInt(500)
	res, err = m.EnsureAllowance(context.Background(), usdcAddr, owner, spender, big.NewInt(500))
	require.NoError(t, err)
	require.True(t, res.Sufficient)
	require.Equal(t, 3, reader.reads)
}

func TestEnsureAllowanceZeroSpenderAlwaysSufficient(t *testing.T) {
	reader := &fakeReader{allowance: big.NewInt(0)}
	m := NewManager(reader, &fakeSender{}, testLogger())

	res, err := m.EnsureAllowance(context.Background(), usdcAddr, owner, common.Address{}, big.NewInt(500))
	require.NoError(t, err)
	require.True(t, res.Sufficient)
	require.Zero(t, reader.reads)
}

func TestEnsureAllowanceNativeTokenAlwaysSufficient(t *testing.T) {
	reader := &fakeReader{allowance: big.NewInt(0)}
	m := NewManager(reader, &fakeSender{}, testLogger())

	res, err := m.EnsureAllowance(context.Background(), chains.NativeTokenAddress, owner, spender, big.NewInt(500))
	require.NoError(t, err)
	require.True(t, res.Sufficient)
	require.Zero(t, reader.reads)
}
