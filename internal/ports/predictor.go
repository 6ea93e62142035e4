package ports

// Predictor is the injected per-bot outcome decision. The on-chain original
// derived it from block.timestamp mixed with the caller address, which is
// fully predictable; the decision is therefore modeled as an external input
// rather than something this core pretends to compute soundly.
type Predictor interface {
	// Outcome decides whether bot's attempt at an opportunity with the given
	// confidence (0-100) is favorable.
	Outcome(confidence uint8, bot int) bool

	// JitterBps returns the jitter applied to a favorable bot's profit, in
	// basis points relative to the base profit-per-bot.
	JitterBps(bot int) int64
}
