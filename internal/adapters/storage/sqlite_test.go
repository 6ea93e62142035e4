package storage

import (
	"context"
	"math/big"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/macrostrike/internal/domain"
)

func newTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := NewJournal(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func event(op, family string, at time.Time) domain.AuditEvent {
	return domain.AuditEvent{
		ID:      uuid.New().String(),
		Op:      op,
		Actor:   common.HexToAddress("0x00000000000000000000000000000000000000aa"),
		Family:  family,
		Success: true,
		Profit:  big.NewInt(250_000),
		WinRate: 96,
		Details: map[string]string{"kind": "STRIKE"},
		At:      at,
	}
}

func TestJournal_RecordAndRecent(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, j.Record(ctx, event(domain.EvBatchExecuted, "LONG_STRIKE", now.Add(-2*time.Minute))))
	require.NoError(t, j.Record(ctx, event(domain.EvRebalanced, "AMM", now.Add(-time.Minute))))

	events, err := j.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)

	// Más recientes primero
	assert.Equal(t, domain.EvRebalanced, events[0].Op)
	assert.Equal(t, "AMM", events[0].Family)
	assert.Equal(t, domain.EvBatchExecuted, events[1].Op)
	assert.Equal(t, big.NewInt(250_000), events[1].Profit)
	assert.Equal(t, uint64(96), events[1].WinRate)
	assert.Equal(t, map[string]string{"kind": "STRIKE"}, events[1].Details)
	assert.True(t, events[1].Success)
}

func TestJournal_RecentHonorsLimit(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()
	base := time.Now().UTC()

	for i := 0; i < 5; i++ {
		require.NoError(t, j.Record(ctx, event(domain.EvCoordinated, "", base.Add(time.Duration(i)*time.Second))))
	}

	events, err := j.Recent(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, events, 3)
}

func TestJournal_ByOpFiltersByWindow(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, j.Record(ctx, event(domain.EvBatchExecuted, "LONG_STRIKE", now.Add(-48*time.Hour))))
	require.NoError(t, j.Record(ctx, event(domain.EvBatchExecuted, "LONG_STRIKE", now.Add(-time.Hour))))
	require.NoError(t, j.Record(ctx, event(domain.EvDiamondCut, "AMM", now.Add(-time.Hour))))

	events, err := j.ByOp(ctx, domain.EvBatchExecuted, now.Add(-2*time.Hour), now)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, domain.EvBatchExecuted, events[0].Op)
}

func TestJournal_CountByOp(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, j.Record(ctx, event(domain.EvBatchExecuted, "LONG_STRIKE", now)))
	require.NoError(t, j.Record(ctx, event(domain.EvBatchExecuted, "SHORT_STRIKE", now)))
	require.NoError(t, j.Record(ctx, event(domain.EvPoolRegistered, "AMM", now)))

	counts, err := j.CountByOp(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, counts[domain.EvBatchExecuted])
	assert.Equal(t, 1, counts[domain.EvPoolRegistered])
}

func TestJournal_PruneOnOpen(t *testing.T) {
	dir := t.TempDir()
	dsn := filepath.Join(dir, "journal.db")
	ctx := context.Background()

	j, err := NewJournal(dsn)
	require.NoError(t, err)
	require.NoError(t, j.Record(ctx, event(domain.EvBatchExecuted, "x", time.Now().UTC().Add(-45*24*time.Hour))))
	require.NoError(t, j.Record(ctx, event(domain.EvBatchExecuted, "x", time.Now().UTC())))
	require.NoError(t, j.Close())

	// Reabrir descarta lo que tenga más de 30 días.
	j, err = NewJournal(dsn)
	require.NoError(t, err)
	defer j.Close()

	events, err := j.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}
