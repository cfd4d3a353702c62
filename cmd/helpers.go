package cmd

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"

	"chainswap/config"
	"chainswap/pkg/chains"
	"chainswap/pkg/tokens"
)

// loadResolver builds the token resolver from the site token list (built-in
// or file-based) and the persisted user-imported tokens.
func loadResolver(cfg *config.Config) (*tokens.Resolver, error) {
	siteTokens := tokens.DefaultSiteTokens()
	if cfg.SiteTokensFile != "" {
		loaded, err := tokens.LoadTokensFile(cfg.SiteTokensFile)
		if err != nil {
			return nil, err
		}
		if len(loaded) > 0 {
			siteTokens = loaded
		}
	}

	userTokens, err := tokens.LoadTokensFile(cfg.UserTokensFile)
	if err != nil {
		return nil, err
	}

	return tokens.NewResolver(siteTokens, userTokens), nil
}

// chainRPCURL applies any configured RPC override to the registry default.
func chainRPCURL(cfg *config.Config, chain chains.Chain) string {
	if override, ok := cfg.RPCOverrides[chain.ChainID]; ok && override != "" {
		return override
	}
	return chain.RPCUrl
}

// dialChain connects to a chain's RPC endpoint, returning both the raw
// batch-capable client and the typed ethclient wrapper over it.
func dialChain(cfg *config.Config, chain chains.Chain) (*rpc.Client, *ethclient.Client, error) {
	rpcClient, err := rpc.Dial(chainRPCURL(cfg, chain))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to %s RPC: %w", chain.Name, err)
	}
	return rpcClient, ethclient.NewClient(rpcClient), nil
}

// linkChainID extracts the chainId query parameter from a storefront link.
// Zero means absent or malformed.
func linkChainID(fromLink string) int64 {
	query := fromLink
	if idx := strings.Index(query, "?"); idx >= 0 {
		query = query[idx+1:]
	}
	params, err := url.ParseQuery(query)
	if err != nil {
		return 0
	}
	chainID, err := strconv.ParseInt(strings.TrimSpace(params.Get("chainId")), 10, 64)
	if err != nil {
		return 0
	}
	return chainID
}

// resolvePair resolves the sell/buy tokens from a pasted storefront link
// (query parameters) and/or explicit address flags. Flag values win over
// link values; either side may stay unset.
func resolvePair(resolver *tokens.Resolver, chainID int64, fromLink, sellAddr, buyAddr string) (sell, buy *tokens.Token, err error) {
	if fromLink != "" {
		query := fromLink
		if idx := strings.Index(query, "?"); idx >= 0 {
			query = query[idx+1:]
		}
		params, err := url.ParseQuery(query)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid link: %w", err)
		}
		sel := resolver.ResolveFromURLParams(params)
		sell = sel.SellToken
		buy = sel.BuyToken
	}

	if sellAddr != "" {
		t, ok := resolver.Resolve(chainID, sellAddr)
		if !ok {
			return nil, nil, fmt.Errorf("sell token %s not found on chain %d (try: chainswap import-token)", sellAddr, chainID)
		}
		sell = &t
	}
	if buyAddr != "" {
		t, ok := resolver.Resolve(chainID, buyAddr)
		if !ok {
			return nil, nil, fmt.Errorf("buy token %s not found on chain %d (try: chainswap import-token)", buyAddr, chainID)
		}
		buy = &t
	}
	return sell, buy, nil
}
