package tokens

import (
	"encoding/json"
	"fmt"
	"os"

	"chainswap/pkg/chains"
)

// tokensFile is the on-disk token list structure.
type tokensFile struct {
	Tokens []Token `json:"tokens"`
}

// LoadTokensFile reads a token list from a JSON file. A missing file yields
// an empty list, not an error, so first runs work without setup.
func LoadTokensFile(path string) ([]Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	var file tokensFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse token file: %w", err)
	}
	return file.Tokens, nil
}

// SaveTokensFile writes a token list to a JSON file.
func SaveTokensFile(path string, list []Token) error {
	data, err := json.MarshalIndent(tokensFile{Tokens: list}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode token file: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

// DefaultSiteTokens returns the built-in site-configured token list, used
// when no site token file is supplied.
func DefaultSiteTokens() []Token {
	return []Token{
		{ChainID: 1, Address: chains.NativeTokenAddress, Symbol: "ETH", Name: "Ether", Decimals: 18, IsFeatured: true},
		{ChainID: 1, Address: "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2", Symbol: "WETH", Name: "Wrapped Ether", Decimals: 18, IsFeatured: true},
		{ChainID: 1, Address: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", Symbol: "USDC", Name: "USD Coin", Decimals: 6, IsFeatured: true},
		{ChainID: 1, Address: "0xdAC17F958D2ee523a2206206994597C13D831ec7", Symbol: "USDT", Name: "Tether USD", Decimals: 6},
		{ChainID: 1, Address: "0x6B175474E89094C44Da98b954EedeAC495271d0F", Symbol: "DAI", Name: "Dai Stablecoin", Decimals: 18},
		{ChainID: 10, Address: chains.NativeTokenAddress, Symbol: "ETH", Name: "Ether", Decimals: 18, IsFeatured: true},
		{ChainID: 10, Address: "0x0b2C639c533813f4Aa9D7837CAf62653d097Ff85", Symbol: "USDC", Name: "USD Coin", Decimals: 6},
		{ChainID: 56, Address: chains.NativeTokenAddress, Symbol: "BNB", Name: "BNB", Decimals: 18, IsFeatured: true},
		{ChainID: 56, Address: "0x8AC76a51cc950d9822D68b83fE1Ad97B32Cd580d", Symbol: "USDC", Name: "USD Coin", Decimals: 18},
		{ChainID: 137, Address: chains.NativeTokenAddress, Symbol: "MATIC", Name: "Polygon", Decimals: 18, IsFeatured: true},
		{ChainID: 137, Address: "0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174", Symbol: "USDC", Name: "USD Coin (PoS)", Decimals: 6, IsFeatured: true},
		{ChainID: 137, Address: "0x7ceB23fD6bC0adD59E62ac25578270cFf1b9f619", Symbol: "WETH", Name: "Wrapped Ether (PoS)", Decimals: 18},
		{ChainID: 8453, Address: chains.NativeTokenAddress, Symbol: "ETH", Name: "Ether", Decimals: 18, IsFeatured: true},
		{ChainID: 8453, Address: "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913", Symbol: "USDC", Name: "USD Coin", Decimals: 6},
		{ChainID: 42161, Address: chains.NativeTokenAddress, Symbol: "ETH", Name: "Ether", Decimals: 18, IsFeatured: true},
		{ChainID: 42161, Address: "0xaf88d065e77c8cC2239327C5EDb3A432268e5831", Symbol: "USDC", Name: "USD Coin", Decimals: 6},
		{ChainID: 43114, Address: chains.NativeTokenAddress, Symbol: "AVAX", Name: "Avalanche", Decimals: 18, IsFeatured: true},
	}
}
