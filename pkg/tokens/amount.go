package tokens

import (
	"fmt"
	"math/big"
	"strings"
)

// ToBaseUnits converts a user-facing decimal amount to integer base units,
// e.g. "100" with 6 decimals -> 100000000. Excess fractional digits are
// truncated. The conversion is exact; no floating point is involved.
func ToBaseUnits(amount string, decimals uint8) (*big.Int, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return nil, fmt.Errorf("amount cannot be empty")
	}

	parts := strings.Split(amount, ".")
	if len(parts) > 2 {
		return nil, fmt.Errorf("invalid amount format: %s", amount)
	}

	whole := parts[0]
	frac := ""
	if len(parts) == 2 {
		frac = parts[1]
	}
	if whole == "" {
		whole = "0"
	}

	d := int(decimals)
	if len(frac) < d {
		frac += strings.Repeat("0", d-len(frac))
	} else {
		frac = frac[:d]
	}

	combined := strings.TrimLeft(whole+frac, "0")
	if combined == "" {
		combined = "0"
	}

	result, ok := new(big.Int).SetString(combined, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount: %s", amount)
	}
	return result, nil
}

// FromBaseUnits converts integer base units back to a decimal display
// string, e.g. 1500000000000000000 with 18 decimals -> "1.5".
func FromBaseUnits(amount *big.Int, decimals uint8) string {
	if amount == nil {
		return "0"
	}

	str := amount.String()
	negative := strings.HasPrefix(str, "-")
	if negative {
		str = str[1:]
	}

	d := int(decimals)
	if len(str) <= d {
		str = strings.Repeat("0", d-len(str)+1) + str
	}

	pos := len(str) - d
	whole := str[:pos]
	frac := strings.TrimRight(str[pos:], "0")

	result := whole
	if frac != "" {
		result += "." + frac
	}
	if negative {
		result = "-" + result
	}
	return result
}
