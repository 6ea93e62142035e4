package dispatch

// dispatcher.go — selector dispatch against the proxy's own storage.
//
// On-chain, the diamond fallback delegatecalls the facet so its code runs
// against the proxy's state. Here the same contract is explicit: the resolved
// handler is passed a mutable reference to the proxy's Storage. Return data
// and failures propagate verbatim; the dispatcher adds nothing on top.

import (
	"fmt"

	"github.com/alejandrodnm/macrostrike/internal/domain"
	"github.com/alejandrodnm/macrostrike/internal/ledger"
)

// Storage is the explicit owned state of one proxy instance, replacing the
// hashed-namespace diamond storage. Facet code only ever sees the Storage of
// the proxy it was dispatched through.
type Storage struct {
	Ledger *ledger.Ledger
	Pools  *domain.PoolRegistry
}

// Clone deep-copies the storage for transactional rollback.
func (s *Storage) Clone() *Storage {
	c := &Storage{}
	if s.Ledger != nil {
		c.Ledger = s.Ledger.Clone()
	}
	if s.Pools != nil {
		c.Pools = s.Pools.Clone()
	}
	return c
}

// Restore overwrites the storage with a previously taken clone.
func (s *Storage) Restore(from *Storage) {
	s.Ledger = from.Ledger
	s.Pools = from.Pools
}

// Initializer is the optional one-shot call executed as part of a cut batch,
// typically the ledger initialize of a freshly added facet.
type Initializer func(st *Storage) error

// Dispatcher owns a selector table and the storage handlers run against.
type Dispatcher struct {
	table *Table
	store *Storage
}

// New creates a dispatcher with an empty table over the given storage.
func New(store *Storage) *Dispatcher {
	return &Dispatcher{table: NewTable(), store: store}
}

// Table exposes the read-only loupe surface.
func (d *Dispatcher) Table() *Table { return d.table }

// Storage returns the proxy storage (the children hand it to facet wiring).
func (d *Dispatcher) Storage() *Storage { return d.store }

// Dispatch resolves sel and runs the facet handler against the proxy
// storage. An unresolved selector fails with ErrUnknownSelector; a resolved
// handler's result, success or failure, is returned unchanged.
func (d *Dispatcher) Dispatch(sel domain.Selector, calldata []byte) ([]byte, error) {
	h, ok := d.table.Resolve(sel)
	if !ok {
		return nil, fmt.Errorf("dispatch.Dispatch: %s: %w", sel, domain.ErrUnknownSelector)
	}
	return h.Invoke(d.store, calldata)
}

// Cut applies a batch of facet cuts atomically, with an optional one-shot
// initializer. The batch is validated and applied on a table clone; the
// initializer runs against a storage snapshot. Any failure — validation or
// initializer — rolls the whole batch back and surfaces the original error,
// never a masked one.
func (d *Dispatcher) Cut(cuts []FacetCut, init Initializer) error {
	next := d.table.clone()
	if err := next.Apply(cuts); err != nil {
		return err
	}

	if init != nil {
		snapshot := d.store.Clone()
		if err := init(d.store); err != nil {
			d.store.Restore(snapshot)
			return err
		}
	}

	d.table = next
	return nil
}
