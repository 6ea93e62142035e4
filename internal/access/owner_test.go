package access

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/macrostrike/internal/domain"
)

var (
	alice = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	bob   = common.HexToAddress("0x00000000000000000000000000000000000000bb")
)

func TestRequire_OwnerPasses(t *testing.T) {
	g := NewGate(alice)
	assert.NoError(t, g.Require(alice))
	assert.Equal(t, alice, g.Owner())
}

func TestRequire_StrangerFails(t *testing.T) {
	g := NewGate(alice)
	assert.ErrorIs(t, g.Require(bob), domain.ErrNotOwner)
}

func TestTransfer_HandsOverTheGate(t *testing.T) {
	g := NewGate(alice)

	prev, err := g.Transfer(alice, bob)
	require.NoError(t, err)
	assert.Equal(t, alice, prev)
	assert.Equal(t, bob, g.Owner())

	// El dueño anterior pierde acceso inmediatamente.
	assert.ErrorIs(t, g.Require(alice), domain.ErrNotOwner)
	assert.NoError(t, g.Require(bob))
}

func TestTransfer_OnlyOwnerMayTransfer(t *testing.T) {
	g := NewGate(alice)
	_, err := g.Transfer(bob, bob)
	assert.ErrorIs(t, err, domain.ErrNotOwner)
	assert.Equal(t, alice, g.Owner())
}

func TestTransfer_RejectsZeroAddress(t *testing.T) {
	g := NewGate(alice)
	_, err := g.Transfer(alice, common.Address{})
	assert.ErrorIs(t, err, domain.ErrInvalidAddress)
	assert.Equal(t, alice, g.Owner())
}
