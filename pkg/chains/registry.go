package chains

import (
	"fmt"
	"sort"
	"strings"
)

// NativeTokenAddress is the sentinel address identifying a chain's native
// currency in token lists and balance requests. It is never a real contract.
const NativeTokenAddress = "0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE"

// Chain describes a supported network.
type Chain struct {
	ChainID             int64
	Name                string
	Symbol              string
	NativeDecimals      uint8
	RPCUrl              string
	ExplorerURL         string
	WrappedTokenAddress string
	IsTestnet           bool
}

// UnknownChainError is returned when a chain ID is not registered.
type UnknownChainError struct {
	ChainID int64
}

func (e *UnknownChainError) Error() string {
	return fmt.Sprintf("unknown chain ID: %d", e.ChainID)
}

// Registry is a static directory of supported chains keyed by chain ID.
type Registry struct {
	chains map[int64]Chain
}

// NewRegistry creates a registry with the given chains. Duplicate chain IDs
// are rejected so that lookups are unambiguous.
func NewRegistry(chains []Chain) (*Registry, error) {
	r := &Registry{chains: make(map[int64]Chain, len(chains))}
	for _, c := range chains {
		if _, exists := r.chains[c.ChainID]; exists {
			return nil, fmt.Errorf("duplicate chain ID: %d", c.ChainID)
		}
		r.chains[c.ChainID] = c
	}
	return r, nil
}

// DefaultRegistry returns a registry populated with the built-in chains.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(defaultChains)
	if err != nil {
		// defaultChains is a compile-time list; a duplicate is a bug.
		panic(err)
	}
	return r
}

// GetChain returns the chain for the given ID or an UnknownChainError.
func (r *Registry) GetChain(chainID int64) (Chain, error) {
	c, ok := r.chains[chainID]
	if !ok {
		return Chain{}, &UnknownChainError{ChainID: chainID}
	}
	return c, nil
}

// ListChains returns all registered chains sorted by chain ID. Testnets are
// excluded unless includeTestnets is set.
func (r *Registry) ListChains(includeTestnets bool) []Chain {
	out := make([]Chain, 0, len(r.chains))
	for _, c := range r.chains {
		if c.IsTestnet && !includeTestnets {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChainID < out[j].ChainID })
	return out
}

// IsSupported reports whether a chain ID is registered.
func (r *Registry) IsSupported(chainID int64) bool {
	_, ok := r.chains[chainID]
	return ok
}

// IsNativeToken reports whether an address is the native-currency sentinel.
func IsNativeToken(address string) bool {
	return strings.EqualFold(address, NativeTokenAddress)
}

var defaultChains = []Chain{
	{
		ChainID:             1,
		Name:                "Ethereum",
		Symbol:              "ETH",
		NativeDecimals:      18,
		RPCUrl:              "https://eth.llamarpc.com",
		ExplorerURL:         "https://etherscan.io",
		WrappedTokenAddress: "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2",
	},
	{
		ChainID:             10,
		Name:                "Optimism",
		Symbol:              "ETH",
		NativeDecimals:      18,
		RPCUrl:              "https://mainnet.optimism.io",
		ExplorerURL:         "https://optimistic.etherscan.io",
		WrappedTokenAddress: "0x4200000000000000000000000000000000000006",
	},
	{
		ChainID:             56,
		Name:                "BNB Smart Chain",
		Symbol:              "BNB",
		NativeDecimals:      18,
		RPCUrl:              "https://bsc-dataseed1.binance.org",
		ExplorerURL:         "https://bscscan.com",
		WrappedTokenAddress: "0xbb4CdB9CBd36B01bD1cBaEBF2De08d9173bc095c",
	},
	{
		ChainID:             137,
		Name:                "Polygon",
		Symbol:              "MATIC",
		NativeDecimals:      18,
		RPCUrl:              "https://polygon-rpc.com",
		ExplorerURL:         "https://polygonscan.com",
		WrappedTokenAddress: "0x0d500B1d8E8eF31E21C99d1Db9A6444d3ADf1270",
	},
	{
		ChainID:             8453,
		Name:                "Base",
		Symbol:              "ETH",
		NativeDecimals:      18,
		RPCUrl:              "https://mainnet.base.org",
		ExplorerURL:         "https://basescan.org",
		WrappedTokenAddress: "0x4200000000000000000000000000000000000006",
	},
	{
		ChainID:             42161,
		Name:                "Arbitrum One",
		Symbol:              "ETH",
		NativeDecimals:      18,
		RPCUrl:              "https://arb1.arbitrum.io/rpc",
		ExplorerURL:         "https://arbiscan.io",
		WrappedTokenAddress: "0x82aF49447D8a07e3bd95BD0d56f35241523fBab1",
	},
	{
		ChainID:             43114,
		Name:                "Avalanche",
		Symbol:              "AVAX",
		NativeDecimals:      18,
		RPCUrl:              "https://api.avax.network/ext/bc/C/rpc",
		ExplorerURL:         "https://snowtrace.io",
		WrappedTokenAddress: "0xB31f66AA3C1e785363F0875A1B74E27b85FD66c7",
	},
	{
		ChainID:             11155111,
		Name:                "Sepolia",
		Symbol:              "ETH",
		NativeDecimals:      18,
		RPCUrl:              "https://rpc.sepolia.org",
		ExplorerURL:         "https://sepolia.etherscan.io",
		WrappedTokenAddress: "0xfFf9976782d46CC05630D1f6eBAb18b2324d6B14",
		IsTestnet:           true,
	},
}
