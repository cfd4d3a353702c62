package tokens

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// Resolver merges site-configured and user-imported tokens into a single
// per-chain token set and resolves tokens by address. Resolution is a pure
// projection; the underlying lists change only through ImportToken.
type Resolver struct {
	mu         sync.RWMutex
	siteTokens map[int64]map[string]Token
	userTokens map[int64]map[string]Token
}

// NewResolver creates a resolver over the given site-configured and
// user-imported token lists.
func NewResolver(siteTokens, userTokens []Token) *Resolver {
	r := &Resolver{
		siteTokens: make(map[int64]map[string]Token),
		userTokens: make(map[int64]map[string]Token),
	}
	for _, t := range siteTokens {
		insertToken(r.siteTokens, t)
	}
	for _, t := range userTokens {
		t.IsUserImported = true
		insertToken(r.userTokens, t)
	}
	return r
}

func insertToken(set map[int64]map[string]Token, t Token) {
	chainSet, ok := set[t.ChainID]
	if !ok {
		chainSet = make(map[string]Token)
		set[t.ChainID] = chainSet
	}
	chainSet[addressKey(t.Address)] = t
}

// Resolve returns the token with the given address on the given chain.
// Site-configured tokens take precedence over user-imported ones.
func (r *Resolver) Resolve(chainID int64, address string) (Token, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	key := addressKey(address)
	if chainSet, ok := r.siteTokens[chainID]; ok {
		if t, ok := chainSet[key]; ok {
			return t, true
		}
	}
	if chainSet, ok := r.userTokens[chainID]; ok {
		if t, ok := chainSet[key]; ok {
			return t, true
		}
	}
	return Token{}, false
}

// TokensForChain returns the merged token set for a chain, deduplicated by
// case-insensitive address with site-configured fields winning, sorted by
// symbol for stable display.
func (r *Resolver) TokensForChain(chainID int64) []Token {
	r.mu.RLock()
	defer r.mu.RUnlock()

	merged := make(map[string]Token)
	for key, t := range r.userTokens[chainID] {
		merged[key] = t
	}
	for key, t := range r.siteTokens[chainID] {
		merged[key] = t
	}

	out := make([]Token, 0, len(merged))
	for _, t := range merged {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Symbol != out[j].Symbol {
			return out[i].Symbol < out[j].Symbol
		}
		return addressKey(out[i].Address) < addressKey(out[j].Address)
	})
	return out
}

// ImportToken adds a token to the user-imported list. This is the only
// mutation path into the token set.
func (r *Resolver) ImportToken(t Token) error {
	if !common.IsHexAddress(t.Address) {
		return fmt.Errorf("invalid token address: %s", t.Address)
	}
	if t.Symbol == "" {
		return fmt.Errorf("token symbol is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	t.IsUserImported = true
	insertToken(r.userTokens, t)
	return nil
}

// PairSelection holds the outcome of URL-parameter resolution. Nil fields
// mean the parameter was absent or did not resolve; callers fall back to
// their previously configured tokens.
type PairSelection struct {
	BuyToken  *Token
	SellToken *Token
}

// ResolveFromURLParams pre-selects a token pair from chainId/buyToken/
// sellToken query parameters. Absent or unresolvable values yield nil
// fields, never an error.
func (r *Resolver) ResolveFromURLParams(params url.Values) PairSelection {
	var sel PairSelection

	chainIDStr := strings.TrimSpace(params.Get("chainId"))
	if chainIDStr == "" {
		return sel
	}
	chainID, err := strconv.ParseInt(chainIDStr, 10, 64)
	if err != nil {
		return sel
	}

	if addr := strings.TrimSpace(params.Get("buyToken")); addr != "" {
		if t, ok := r.Resolve(chainID, addr); ok {
			sel.BuyToken = &t
		}
	}
	if addr := strings.TrimSpace(params.Get("sellToken")); addr != "" {
		if t, ok := r.Resolve(chainID, addr); ok {
			sel.SellToken = &t
		}
	}
	return sel
}
