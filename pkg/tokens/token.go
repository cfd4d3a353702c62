package tokens

import "strings"

// Token describes an ERC-20 token (or the native-currency sentinel) on a
// specific chain. Identity is (ChainID, Address), address case-insensitive.
type Token struct {
	ChainID        int64  `json:"chainId"`
	Address        string `json:"address"`
	Symbol         string `json:"symbol"`
	Name           string `json:"name"`
	Decimals       uint8  `json:"decimals"`
	LogoURL        string `json:"logoUrl,omitempty"`
	IsFeatured     bool   `json:"isFeatured,omitempty"`
	IsUserImported bool   `json:"isUserImported,omitempty"`
}

// addressKey canonicalizes a token address for identity comparison within a
// chain's token set.
func addressKey(address string) string {
	return strings.ToLower(address)
}
