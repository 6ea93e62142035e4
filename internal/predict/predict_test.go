package predict

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
)

var caller = common.HexToAddress("0x00000000000000000000000000000000000000c1")

func pinned() func() time.Time {
	at := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return at }
}

func TestEnvEntropy_DeterministicUnderPinnedClock(t *testing.T) {
	a := NewEnvEntropyAt(caller, pinned())
	b := NewEnvEntropyAt(caller, pinned())

	for bot := 0; bot < 50; bot++ {
		assert.Equal(t, a.Outcome(93, bot), b.Outcome(93, bot))
		assert.Equal(t, a.JitterBps(bot), b.JitterBps(bot))
	}
}

func TestEnvEntropy_ConfidenceBounds(t *testing.T) {
	p := NewEnvEntropyAt(caller, pinned())
	for bot := 0; bot < 50; bot++ {
		assert.False(t, p.Outcome(0, bot), "confidence 0 never wins")
		assert.True(t, p.Outcome(100, bot), "confidence 100 always wins")
	}
}

func TestEnvEntropy_JitterWithinRange(t *testing.T) {
	p := NewEnvEntropyAt(caller, pinned())
	for bot := 0; bot < 200; bot++ {
		j := p.JitterBps(bot)
		assert.GreaterOrEqual(t, j, int64(-1000))
		assert.LessOrEqual(t, j, int64(1000))
	}
}

func TestEnvEntropy_CallerChangesOutcomes(t *testing.T) {
	other := common.HexToAddress("0x00000000000000000000000000000000000000c2")
	a := NewEnvEntropyAt(caller, pinned())
	b := NewEnvEntropyAt(other, pinned())

	same := true
	for bot := 0; bot < 100 && same; bot++ {
		same = a.Outcome(50, bot) == b.Outcome(50, bot)
	}
	assert.False(t, same, "distinct callers should diverge somewhere")
}

func TestFixed(t *testing.T) {
	assert.True(t, Fixed{Favorable: true}.Outcome(0, 7))
	assert.False(t, Fixed{}.Outcome(100, 7))
	assert.Zero(t, Fixed{}.JitterBps(3))
}

func TestAlternating(t *testing.T) {
	p := Alternating{}
	assert.True(t, p.Outcome(93, 0))
	assert.False(t, p.Outcome(93, 1))
	assert.True(t, p.Outcome(93, 2))
}
