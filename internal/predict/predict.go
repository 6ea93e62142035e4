package predict

// predict.go — outcome sources for the per-bot success decision.
//
// EnvEntropy reproduces the contract's behavior: wall-clock timestamp mixed
// with the caller address through Keccak256. It is NOT cryptographically
// secure and NOT statistically meaningful — anyone who can predict the
// timestamp can predict every outcome. It exists to keep the simulated
// behavior faithful to the source; anything that needs a real decision
// process must inject its own ports.Predictor.

import (
	"encoding/binary"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// EnvEntropy derives outcomes from environment metadata (clock + caller).
type EnvEntropy struct {
	caller common.Address
	now    func() time.Time
}

// NewEnvEntropy creates the weak default source for the given caller
// identity (the proxy address in the deployed graph).
func NewEnvEntropy(caller common.Address) *EnvEntropy {
	return &EnvEntropy{caller: caller, now: time.Now}
}

// NewEnvEntropyAt pins the clock, for reproducible runs.
func NewEnvEntropyAt(caller common.Address, now func() time.Time) *EnvEntropy {
	return &EnvEntropy{caller: caller, now: now}
}

func (p *EnvEntropy) roll(bot int, salt byte) uint64 {
	var buf [33]byte
	binary.BigEndian.PutUint64(buf[:8], uint64(p.now().Unix()))
	copy(buf[8:28], p.caller[:])
	binary.BigEndian.PutUint32(buf[28:32], uint32(bot))
	buf[32] = salt
	h := crypto.Keccak256(buf[:])
	return binary.BigEndian.Uint64(h[:8])
}

// Outcome is favorable when a pseudo-random roll in [0,100) lands under the
// confidence percentage.
func (p *EnvEntropy) Outcome(confidence uint8, bot int) bool {
	return p.roll(bot, 0)%100 < uint64(confidence)
}

// JitterBps returns a roll in [-1000, +1000] bps: favorable bots realize
// 90%-110% of the base profit-per-bot.
func (p *EnvEntropy) JitterBps(bot int) int64 {
	return int64(p.roll(bot, 1)%2001) - 1000
}

// Fixed is a deterministic predictor: every bot gets the same outcome and
// zero jitter. Test and dry-run helper.
type Fixed struct {
	Favorable bool
}

func (f Fixed) Outcome(uint8, int) bool { return f.Favorable }
func (f Fixed) JitterBps(int) int64     { return 0 }

// Alternating succeeds for even bot indexes only, zero jitter.
type Alternating struct{}

func (Alternating) Outcome(_ uint8, bot int) bool { return bot%2 == 0 }
func (Alternating) JitterBps(int) int64           { return 0 }
