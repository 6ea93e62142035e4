package domain

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// PoolRegistry es el set de pools de liquidez aprobados para el facet AMM,
// con lista ordenada para enumeración. Solo muta bajo el owner gate del
// proxy; un arbitraje que referencia un pool no registrado en cualquiera
// de las dos patas se rechaza.
type PoolRegistry struct {
	approved map[common.Address]bool
	order    []common.Address
}

// NewPoolRegistry crea un registro vacío.
func NewPoolRegistry() *PoolRegistry {
	return &PoolRegistry{approved: make(map[common.Address]bool)}
}

// Register aprueba un pool. Rechaza la dirección cero y los duplicados.
func (r *PoolRegistry) Register(pool common.Address) error {
	if pool == (common.Address{}) {
		return fmt.Errorf("pools.Register: %w", ErrInvalidAddress)
	}
	if r.approved[pool] {
		return fmt.Errorf("pools.Register: %s: %w", pool, ErrAlreadyRegistered)
	}
	r.approved[pool] = true
	r.order = append(r.order, pool)
	return nil
}

// Contains indica si el pool está aprobado.
func (r *PoolRegistry) Contains(pool common.Address) bool {
	return r.approved[pool]
}

// List devuelve los pools aprobados en orden de registro.
func (r *PoolRegistry) List() []common.Address {
	out := make([]common.Address, len(r.order))
	copy(out, r.order)
	return out
}

// Len devuelve el número de pools aprobados.
func (r *PoolRegistry) Len() int { return len(r.order) }

// Clone devuelve una copia profunda (rollback de cuts).
func (r *PoolRegistry) Clone() *PoolRegistry {
	c := NewPoolRegistry()
	for _, p := range r.order {
		c.approved[p] = true
	}
	c.order = append(c.order, r.order...)
	return c
}
