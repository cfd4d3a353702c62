package chains

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetChain(t *testing.T) {
	r := DefaultRegistry()

	c, err := r.GetChain(137)
	require.NoError(t, err)
	require.Equal(t, "Polygon", c.Name)
	require.Equal(t, uint8(18), c.NativeDecimals)
}

func TestGetChainUnknown(t *testing.T) {
	r := DefaultRegistry()

	_, err := r.GetChain(999999)
	require.Error(t, err)

	var unknownErr *UnknownChainError
	require.True(t, errors.As(err, &unknownErr))
	require.Equal(t, int64(999999), unknownErr.ChainID)
}

func TestNewRegistryRejectsDuplicates(t *testing.T) {
	_, err := NewRegistry([]Chain{
		{ChainID: 1, Name: "Ethereum"},
		{ChainID: 1, Name: "Ethereum Again"},
	})
	require.Error(t, err)
}

func TestListChainsExcludesTestnets(t *testing.T) {
	r := DefaultRegistry()

	mainnets := r.ListChains(false)
	for _, c := range mainnets {
		require.False(t, c.IsTestnet, "%s should not appear without includeTestnets", c.Name)
	}

	all := r.ListChains(true)
	require.Greater(t, len(all), len(mainnets))

	// Sorted by chain ID.
	for i := 1; i < len(all); i++ {
		require.Less(t, all[i-1].ChainID, all[i].ChainID)
	}
}

func TestIsNativeToken(t *testing.T) {
	require.True(t, IsNativeToken(NativeTokenAddress))
	require.True(t, IsNativeToken("0xeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee"))
	require.False(t, IsNativeToken("0x0000000000000000000000000000000000000000"))
	require.False(t, IsNativeToken("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"))
}
