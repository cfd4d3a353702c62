package tokens

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestToBaseUnits(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		decimals uint8
		expected string
		wantErr  bool
	}{
		{name: "whole USDC", amount: "100", decimals: 6, expected: "100000000"},
		{name: "fractional ETH", amount: "1.5", decimals: 18, expected: "1500000000000000000"},
		{name: "sub-unit", amount: "0.000001", decimals: 6, expected: "1"},
		{name: "leading dot", amount: ".5", decimals: 2, expected: "50"},
		{name: "truncates excess digits", amount: "1.1234567", decimals: 6, expected: "1123456"},
		{name: "zero", amount: "0", decimals: 18, expected: "0"},
		{name: "empty", amount: "", decimals: 6, wantErr: true},
		{name: "two dots", amount: "1.2.3", decimals: 6, wantErr: true},
		{name: "not a number", amount: "abc", decimals: 6, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToBaseUnits(tt.amount, tt.decimals)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.expected, got.String())
		})
	}
}

func TestFromBaseUnits(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		decimals uint8
		expected string
	}{
		{name: "whole USDC", amount: "100000000", decimals: 6, expected: "100"},
		{name: "fractional ETH", amount: "1500000000000000000", decimals: 18, expected: "1.5"},
		{name: "below one", amount: "1", decimals: 6, expected: "0.000001"},
		{name: "trailing zeros trimmed", amount: "1230000", decimals: 6, expected: "1.23"},
		{name: "zero", amount: "0", decimals: 18, expected: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, ok := new(big.Int).SetString(tt.amount, 10)
			require.True(t, ok)
			require.Equal(t, tt.expected, FromBaseUnits(v, tt.decimals))
		})
	}
}

func TestFromBaseUnitsNil(t *testing.T) {
	require.Equal(t, "0", FromBaseUnits(nil, 18))
}

func TestBaseUnitsRoundTrip(t *testing.T) {
	v, err := ToBaseUnits("123.456", 8)
	require.NoError(t, err)
	require.Equal(t, "123.456", FromBaseUnits(v, 8))
}
