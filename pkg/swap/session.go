package swap

import (
	"sync"

	"chainswap/pkg/quote"
	"chainswap/pkg/tokens"
)

// Session holds the user's swap inputs for one sitting: selected chain,
// token pair, and slippage. Each field has a read accessor and exactly one
// mutation entry point; components receive the session explicitly instead
// of sharing hidden global state.
type Session struct {
	mu        sync.RWMutex
	chainID   int64
	sellToken *tokens.Token
	buyToken  *tokens.Token
	slippage  quote.SlippageSetting
}

// NewSession creates a session for a chain with auto slippage.
func NewSession(chainID int64) *Session {
	return &Session{
		chainID:  chainID,
		slippage: quote.SlippageSetting{Mode: quote.SlippageAuto},
	}
}

// ChainID returns the selected chain.
func (s *Session) ChainID() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.chainID
}

// SetChain switches the session to another chain. The token pair is cleared
// because token identity is per-chain.
func (s *Session) SetChain(chainID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if chainID == s.chainID {
		return
	}
	s.chainID = chainID
	s.sellToken = nil
	s.buyToken = nil
}

// Pair returns the selected sell/buy tokens; nil means not selected.
func (s *Session) Pair() (sell, buy *tokens.Token) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sellToken, s.buyToken
}

// SetPair selects the token pair. Nil keeps a side unselected.
func (s *Session) SetPair(sell, buy *tokens.Token) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sellToken = sell
	s.buyToken = buy
}

// Slippage returns the session's slippage setting.
func (s *Session) Slippage() quote.SlippageSetting {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.slippage
}

// SetSlippage updates the slippage setting.
func (s *Session) SetSlippage(setting quote.SlippageSetting) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slippage = setting
}

// QuoteParams projects the session onto quote params for the given amount
// side. Returns false when the pair is not fully selected.
func (s *Session) QuoteParams(sellAmount, buyAmount string) (quote.Params, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.sellToken == nil || s.buyToken == nil {
		return quote.Params{}, false
	}
	return quote.Params{
		ChainID:    s.chainID,
		SellToken:  *s.sellToken,
		BuyToken:   *s.buyToken,
		SellAmount: sellAmount,
		BuyAmount:  buyAmount,
		Slippage:   s.slippage,
	}, true
}
