package dispatch

import (
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/macrostrike/internal/domain"
	"github.com/alejandrodnm/macrostrike/internal/ledger"
)

func newDispatcher(t *testing.T) *Dispatcher {
	t.Helper()
	return New(&Storage{Ledger: ledger.New("LONG_STRIKE"), Pools: domain.NewPoolRegistry()})
}

func TestDispatch_UnknownSelector(t *testing.T) {
	d := newDispatcher(t)
	_, err := d.Dispatch(selA, nil)
	assert.ErrorIs(t, err, domain.ErrUnknownSelector)
}

func TestDispatch_HandlerResultPropagatesVerbatim(t *testing.T) {
	d := newDispatcher(t)
	boom := errors.New("facet exploded")

	cuts := []FacetCut{
		{Action: CutAdd, Facet: FacetRef{Addr: facet1, Handler: HandlerFunc(
			func(_ *Storage, calldata []byte) ([]byte, error) { return calldata, nil },
		)}, Selectors: []domain.Selector{selA}},
		{Action: CutAdd, Facet: FacetRef{Addr: facet1, Handler: HandlerFunc(
			func(*Storage, []byte) ([]byte, error) { return nil, boom },
		)}, Selectors: []domain.Selector{selB}},
	}
	require.NoError(t, d.Cut(cuts, nil))

	out, err := d.Dispatch(selA, []byte{0xca, 0xfe})
	require.NoError(t, err)
	assert.Equal(t, []byte{0xca, 0xfe}, out)

	_, err = d.Dispatch(selB, nil)
	assert.ErrorIs(t, err, boom)
}

func TestDispatch_HandlerSeesProxyStorage(t *testing.T) {
	d := newDispatcher(t)
	cuts := []FacetCut{
		{Action: CutAdd, Facet: FacetRef{Addr: facet1, Handler: HandlerFunc(
			func(st *Storage, _ []byte) ([]byte, error) {
				return nil, st.Ledger.Init(big.NewInt(1000), 10, 25)
			},
		)}, Selectors: []domain.Selector{selA}},
	}
	require.NoError(t, d.Cut(cuts, nil))

	_, err := d.Dispatch(selA, nil)
	require.NoError(t, err)
	assert.True(t, d.Storage().Ledger.IsInitialized())
}

func TestCut_InvalidBatchLeavesTableUntouched(t *testing.T) {
	d := newDispatcher(t)
	require.NoError(t, d.Cut([]FacetCut{addCut(facet1, selA)}, nil))

	// El segundo cut del batch es inválido: nada del batch debe aplicarse.
	err := d.Cut([]FacetCut{
		addCut(facet2, selB),
		addCut(facet2, selA), // duplicado
	}, nil)
	assert.ErrorIs(t, err, domain.ErrDuplicateSelector)

	assert.Equal(t, 1, d.Table().Len())
	_, ok := d.Table().Resolve(selB)
	assert.False(t, ok)
}

func TestCut_InitializerRunsAgainstStorage(t *testing.T) {
	d := newDispatcher(t)
	init := func(st *Storage) error {
		return st.Ledger.Init(big.NewInt(2_500_000), 25, 25)
	}
	require.NoError(t, d.Cut([]FacetCut{addCut(facet1, selA)}, init))

	assert.True(t, d.Storage().Ledger.IsInitialized())
	assert.Equal(t, 1, d.Table().Len())
}

func TestCut_FailedInitializerRollsBackEverything(t *testing.T) {
	d := newDispatcher(t)
	boom := errors.New("init rejected")

	init := func(st *Storage) error {
		// Muta primero, falla después: la mutación no debe sobrevivir.
		if err := st.Ledger.Init(big.NewInt(1000), 10, 25); err != nil {
			return err
		}
		return boom
	}
	err := d.Cut([]FacetCut{addCut(facet1, selA)}, init)
	assert.ErrorIs(t, err, boom)

	// Ni selectores nuevos ni estado inicializado.
	assert.Zero(t, d.Table().Len())
	assert.False(t, d.Storage().Ledger.IsInitialized())
}
