package dispatch

// table.go — selector table with EIP-2535 cut semantics.
//
// The table maps a 4-byte selector to the facet that implements it, plus the
// bookkeeping to add/replace/remove mappings in batches while keeping the
// ordered selector list gap-free (swap-with-last removal). It is mutated only
// through Cut batches under the proxy's owner gate, never during dispatch.

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/alejandrodnm/macrostrike/internal/domain"
)

// Handler is a unit of facet logic. Handlers are stateless: all mutable state
// reaches them through the proxy storage they are invoked against, which is
// the caller's storage, not the facet's — the in-process rendering of
// delegatecall. The same handler can serve several proxies.
type Handler interface {
	Invoke(st *Storage, calldata []byte) ([]byte, error)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(st *Storage, calldata []byte) ([]byte, error)

// Invoke calls f.
func (f HandlerFunc) Invoke(st *Storage, calldata []byte) ([]byte, error) {
	return f(st, calldata)
}

// FacetRef pairs a facet identity with its handler. The address is the unit
// of replace/remove comparison, exactly as on-chain.
type FacetRef struct {
	Addr    common.Address
	Handler Handler
}

// CutAction is the kind of mutation a FacetCut applies.
type CutAction uint8

const (
	CutAdd CutAction = iota
	CutReplace
	CutRemove
)

func (a CutAction) String() string {
	switch a {
	case CutAdd:
		return "ADD"
	case CutReplace:
		return "REPLACE"
	case CutRemove:
		return "REMOVE"
	default:
		return "UNKNOWN"
	}
}

// FacetCut is one entry of a cut batch: an action, the target facet, and the
// selectors it covers. Remove cuts must target the zero address.
type FacetCut struct {
	Action    CutAction
	Facet     FacetRef
	Selectors []domain.Selector
}

type entry struct {
	addr     common.Address
	handler  Handler
	position int // index into order; kept dense by swap-with-last
}

// Table is the selector → facet mapping of one proxy.
type Table struct {
	entries map[domain.Selector]entry
	order   []domain.Selector
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{entries: make(map[domain.Selector]entry)}
}

// Resolve returns the handler mapped to sel.
func (t *Table) Resolve(sel domain.Selector) (Handler, bool) {
	e, ok := t.entries[sel]
	if !ok {
		return nil, false
	}
	return e.handler, true
}

// FacetAddress returns the facet address mapped to sel, or the zero address.
func (t *Table) FacetAddress(sel domain.Selector) common.Address {
	return t.entries[sel].addr
}

// Selectors returns the ordered selector list (loupe surface).
func (t *Table) Selectors() []domain.Selector {
	out := make([]domain.Selector, len(t.order))
	copy(out, t.order)
	return out
}

// FacetAddresses returns the distinct facet addresses in first-seen order
// (loupe surface).
func (t *Table) FacetAddresses() []common.Address {
	seen := make(map[common.Address]bool)
	var out []common.Address
	for _, sel := range t.order {
		addr := t.entries[sel].addr
		if !seen[addr] {
			seen[addr] = true
			out = append(out, addr)
		}
	}
	return out
}

// Len returns the number of mapped selectors.
func (t *Table) Len() int { return len(t.order) }

// position returns the recorded position of sel, for consistency tests.
func (t *Table) Position(sel domain.Selector) (int, bool) {
	e, ok := t.entries[sel]
	if !ok {
		return 0, false
	}
	return e.position, true
}

func (t *Table) clone() *Table {
	c := NewTable()
	for sel, e := range t.entries {
		c.entries[sel] = e
	}
	c.order = append(c.order, t.order...)
	return c
}

// Apply validates and applies a cut batch to the table in place. On error the
// table may be partially mutated; callers that need atomicity apply to a
// clone and swap (see Dispatcher.Cut).
func (t *Table) Apply(cuts []FacetCut) error {
	for _, cut := range cuts {
		if len(cut.Selectors) == 0 {
			return fmt.Errorf("dispatch: %s cut: %w", cut.Action, domain.ErrEmptySelectorSet)
		}
		var err error
		switch cut.Action {
		case CutAdd:
			err = t.add(cut.Facet, cut.Selectors)
		case CutReplace:
			err = t.replace(cut.Facet, cut.Selectors)
		case CutRemove:
			err = t.remove(cut.Facet, cut.Selectors)
		default:
			err = fmt.Errorf("dispatch: unknown cut action %d", cut.Action)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (t *Table) add(facet FacetRef, selectors []domain.Selector) error {
	if facet.Addr == (common.Address{}) || facet.Handler == nil {
		return fmt.Errorf("dispatch: add cut: %w", domain.ErrNullFacet)
	}
	for _, sel := range selectors {
		if _, exists := t.entries[sel]; exists {
			return fmt.Errorf("dispatch: add %s: %w", sel, domain.ErrDuplicateSelector)
		}
		t.entries[sel] = entry{addr: facet.Addr, handler: facet.Handler, position: len(t.order)}
		t.order = append(t.order, sel)
	}
	return nil
}

// replace is remove+add composed per selector, with the no-op guard first.
func (t *Table) replace(facet FacetRef, selectors []domain.Selector) error {
	if facet.Addr == (common.Address{}) || facet.Handler == nil {
		return fmt.Errorf("dispatch: replace cut: %w", domain.ErrNullFacet)
	}
	for _, sel := range selectors {
		current, exists := t.entries[sel]
		if !exists {
			return fmt.Errorf("dispatch: replace %s: %w", sel, domain.ErrSelectorNotFound)
		}
		if current.addr == facet.Addr {
			return fmt.Errorf("dispatch: replace %s: %w", sel, domain.ErrNoOpReplace)
		}
		t.dropSelector(sel)
		t.entries[sel] = entry{addr: facet.Addr, handler: facet.Handler, position: len(t.order)}
		t.order = append(t.order, sel)
	}
	return nil
}

func (t *Table) remove(facet FacetRef, selectors []domain.Selector) error {
	// Remove always targets "no facet"; a non-null address is a misuse.
	if facet.Addr != (common.Address{}) {
		return fmt.Errorf("dispatch: remove cut: %w", domain.ErrRemoveTargetNotNull)
	}
	for _, sel := range selectors {
		if _, exists := t.entries[sel]; !exists {
			return fmt.Errorf("dispatch: remove %s: %w", sel, domain.ErrSelectorNotFound)
		}
		t.dropSelector(sel)
	}
	return nil
}

// dropSelector removes sel from the order list by swapping the last selector
// into its slot, then deletes the mapping. O(1) and gap-free.
func (t *Table) dropSelector(sel domain.Selector) {
	pos := t.entries[sel].position
	last := len(t.order) - 1
	if pos != last {
		moved := t.order[last]
		t.order[pos] = moved
		e := t.entries[moved]
		e.position = pos
		t.entries[moved] = e
	}
	t.order = t.order[:last]
	delete(t.entries, sel)
}
