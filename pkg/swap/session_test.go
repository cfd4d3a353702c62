package swap

import (
	"testing"

	"github.com/stretchr/testify/require"

	"chainswap/pkg/quote"
	"chainswap/pkg/tokens"
)

func TestSessionSetChainClearsPair(t *testing.T) {
	s := NewSession(1)
	usdc := &tokens.Token{ChainID: 1, Address: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", Symbol: "USDC", Decimals: 6}
	weth := &tokens.Token{ChainID: 1, Address: "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2", Symbol: "WETH", Decimals: 18}
	s.SetPair(usdc, weth)

	s.SetChain(137)
	sell, buy := s.Pair()
	require.Nil(t, sell)
	require.Nil(t, buy)
	require.Equal(t, int64(137), s.ChainID())

	// Re-selecting the same chain must not clear anything.
	s.SetPair(usdc, weth)
	s.SetChain(137)
	sell, buy = s.Pair()
	require.NotNil(t, sell)
	require.NotNil(t, buy)
}

func TestSessionQuoteParams(t *testing.T) {
	s := NewSession(1)

	_, ok := s.QuoteParams("100", "")
	require.False(t, ok, "incomplete pair must not project into params")

	usdc := &tokens.Token{ChainID: 1, Address: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", Symbol: "USDC", Decimals: 6}
	weth := &tokens.Token{ChainID: 1, Address: "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2", Symbol: "WETH", Decimals: 18}
	s.SetPair(usdc, weth)
	s.SetSlippage(quote.SlippageSetting{Mode: quote.SlippageManual, ValueBps: 50})

	params, ok := s.QuoteParams("100", "")
	require.True(t, ok)
	require.Equal(t, int64(1), params.ChainID)
	require.Equal(t, "USDC", params.SellToken.Symbol)
	require.Equal(t, "WETH", params.BuyToken.Symbol)
	require.Equal(t, "100", params.SellAmount)
	require.Empty(t, params.BuyAmount)
	require.Equal(t, quote.SlippageManual, params.Slippage.Mode)
	require.Equal(t, 50, params.Slippage.ValueBps)
}
