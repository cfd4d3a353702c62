package wallet

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

// Well-known anvil/hardhat test key; not a real account.
const testKey = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

type fakeBackend struct {
	nonce       uint64
	gasPrice    *big.Int
	gasEstimate uint64
	estimateErr error
	sent        []*types.Transaction
	sendErr     error
}

func (b *fakeBackend) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	return b.nonce, nil
}

func (b *fakeBackend) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return b.gasPrice, nil
}

func (b *fakeBackend) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	if b.estimateErr != nil {
		return 0, b.estimateErr
	}
	return b.gasEstimate, nil
}

func (b *fakeBackend) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	if b.sendErr != nil {
		return b.sendErr
	}
	b.sent = append(b.sent, tx)
	return nil
}

func TestNewRejectsMissingOrBadKey(t *testing.T) {
	log := logrus.New()

	_, err := New("", 1, &fakeBackend{}, log)
	require.Error(t, err)

	_, err = New("not-hex", 1, &fakeBackend{}, log)
	require.Error(t, err)
}

func TestSendTransactionSignsForChain(t *testing.T) {
	backend := &fakeBackend{nonce: 7, gasPrice: big.NewInt(2e9), gasEstimate: 50000}
	w, err := New("0x"+testKey, 137, backend, logrus.New())
	require.NoError(t, err)

	to := common.HexToAddress("0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174")
	hash, err := w.SendTransaction(context.Background(), to, big.NewInt(0), []byte{0x01}, nil)
	require.NoError(t, err)
	require.Len(t, backend.sent, 1)

	tx := backend.sent[0]
	require.Equal(t, hash, tx.Hash().Hex())
	require.Equal(t, uint64(7), tx.Nonce())
	require.Equal(t, big.NewInt(2e9), tx.GasPrice())
	require.Equal(t, uint64(60000), tx.Gas(), "estimate plus 20% headroom")
	require.Equal(t, big.NewInt(137), tx.ChainId())

	sender, err := types.Sender(types.NewEIP155Signer(big.NewInt(137)), tx)
	require.NoError(t, err)
	require.Equal(t, w.Address(), sender)
}

func TestSendTransactionExplicitGasPriceWins(t *testing.T) {
	backend := &fakeBackend{nonce: 0, gasPrice: big.NewInt(2e9), gasEstimate: 21000}
	w, err := New(testKey, 1, backend, logrus.New())
	require.NoError(t, err)

	_, err = w.SendTransaction(context.Background(), common.Address{0x01}, nil, nil, big.NewInt(5e9))
	require.NoError(t, err)
	require.Equal(t, big.NewInt(5e9), backend.sent[0].GasPrice())
}

func TestSendTransactionEstimateFallback(t *testing.T) {
	backend := &fakeBackend{gasPrice: big.NewInt(1e9), estimateErr: errors.New("execution reverted")}
	w, err := New(testKey, 1, backend, logrus.New())
	require.NoError(t, err)

	_, err = w.SendTransaction(context.Background(), common.Address{0x01}, nil, nil, nil)
	require.NoError(t, err)
	require.Equal(t, fallbackGasLimit, backend.sent[0].Gas())
}
