package domain

import (
	"encoding/hex"

	"github.com/ethereum/go-ethereum/crypto"
)

// Selector es el identificador de 4 bytes de una operación, al estilo EVM:
// los primeros 4 bytes del Keccak256 de la firma canónica de la función.
type Selector [4]byte

// ZeroSelector es el selector nulo (ninguna función).
var ZeroSelector Selector

// SelectorFromSignature deriva el selector de una firma canónica, p.ej.
// "executeCoordinatedStrike((uint8,uint8,uint256,uint256,uint256,uint256,string))".
func SelectorFromSignature(sig string) Selector {
	var s Selector
	copy(s[:], crypto.Keccak256([]byte(sig))[:4])
	return s
}

// SelectorFromBytes interpreta los primeros 4 bytes de calldata como selector.
// Devuelve false si no hay bytes suficientes.
func SelectorFromBytes(data []byte) (Selector, bool) {
	if len(data) < 4 {
		return ZeroSelector, false
	}
	var s Selector
	copy(s[:], data[:4])
	return s, true
}

// String devuelve el selector en hex con prefijo 0x.
func (s Selector) String() string {
	return "0x" + hex.EncodeToString(s[:])
}

// IsZero devuelve true si el selector es el nulo.
func (s Selector) IsZero() bool {
	return s == ZeroSelector
}
