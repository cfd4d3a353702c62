package wallet

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/sirupsen/logrus"
)

// fallbackGasLimit is used when gas estimation fails.
const fallbackGasLimit = uint64(300000)

// Backend is the chain surface a wallet needs to submit transactions.
// *ethclient.Client satisfies it.
type Backend interface {
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
}

// Wallet signs and submits transactions with a local private key.
type Wallet struct {
	backend    Backend
	privateKey *ecdsa.PrivateKey
	address    common.Address
	chainID    *big.Int
	log        *logrus.Entry
}

// New creates a wallet from a hex-encoded private key for one chain.
func New(privateKeyHex string, chainID int64, backend Backend, log *logrus.Logger) (*Wallet, error) {
	if privateKeyHex == "" {
		return nil, fmt.Errorf("private key not configured")
	}

	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}

	publicKey, ok := privateKey.Public().(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("failed to derive public key")
	}

	return &Wallet{
		backend:    backend,
		privateKey: privateKey,
		address:    crypto.PubkeyToAddress(*publicKey),
		chainID:    big.NewInt(chainID),
		log:        log.WithField("component", "wallet").WithField("chainId", chainID),
	}, nil
}

// Address returns the wallet's account address.
func (w *Wallet) Address() common.Address {
	return w.address
}

// SendTransaction builds, signs, and broadcasts a transaction, returning its
// hash. A nil gasPrice falls back to the backend's suggestion.
func (w *Wallet) SendTransaction(ctx context.Context, to common.Address, value *big.Int, data []byte, gasPrice *big.Int) (string, error) {
	nonce, err := w.backend.PendingNonceAt(ctx, w.address)
	if err != nil {
		return "", fmt.Errorf("failed to get nonce: %w", err)
	}

	if gasPrice == nil {
		gasPrice, err = w.backend.SuggestGasPrice(ctx)
		if err != nil {
			return "", fmt.Errorf("failed to get gas price: %w", err)
		}
	}

	if value == nil {
		value = big.NewInt(0)
	}

	gasLimit := fallbackGasLimit
	msg := ethereum.CallMsg{From: w.address, To: &to, Value: value, Data: data}
	if estimated, err := w.backend.EstimateGas(ctx, msg); err == nil {
		gasLimit = estimated * 120 / 100
	}

	tx := types.NewTransaction(nonce, to, value, gasLimit, gasPrice, data)

	signedTx, err := types.SignTx(tx, types.NewEIP155Signer(w.chainID), w.privateKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign transaction: %w", err)
	}

	if err := w.backend.SendTransaction(ctx, signedTx); err != nil {
		return "", fmt.Errorf("failed to send transaction: %w", err)
	}

	hash := signedTx.Hash().Hex()
	w.log.WithFields(logrus.Fields{"hash": hash, "nonce": nonce}).Info("transaction submitted")
	return hash, nil
}
