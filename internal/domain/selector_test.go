package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelectorFromSignature_KnownValue(t *testing.T) {
	// transfer(address,uint256) → 0xa9059cbb, el selector ERC-20 canónico.
	sel := SelectorFromSignature("transfer(address,uint256)")
	assert.Equal(t, "0xa9059cbb", sel.String())
}

func TestSelectorFromSignature_Distinct(t *testing.T) {
	a := SelectorFromSignature("rebalanceBots()")
	b := SelectorFromSignature("getStrikeBotStats()")
	assert.NotEqual(t, a, b)
	assert.False(t, a.IsZero())
}

func TestSelectorFromBytes(t *testing.T) {
	sel, ok := SelectorFromBytes([]byte{0xa9, 0x05, 0x9c, 0xbb, 0xff})
	assert.True(t, ok)
	assert.Equal(t, "0xa9059cbb", sel.String())

	_, ok = SelectorFromBytes([]byte{0x01, 0x02})
	assert.False(t, ok)
}

func TestZeroSelector(t *testing.T) {
	assert.True(t, ZeroSelector.IsZero())
	assert.Equal(t, "0x00000000", ZeroSelector.String())
}
