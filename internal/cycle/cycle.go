// Package cycle computes the Diretta protocol cycle period: the fixed-size
// window the cycle supplier must fill exactly once per invocation.
package cycle

// minCycleUs is the per-format lower bound that keeps consumer callback
// overhead tractable.
const minCycleUs = 250

// defaultCycleUs is used verbatim when auto-selection is disabled.
const defaultCycleUs = 1000

// protocolOverheadBytes is the fixed per-cycle header/trailer overhead the
// Diretta wire protocol subtracts from the link MTU before computing the
// usable payload budget.
const protocolOverheadBytes = 28

// Calculate returns the largest cycle period, in microseconds, such that
// one cycle's payload fits within the sink's per-cycle frame budget derived
// from mtu, never going below minCycleUs. rate is the sample rate in Hz,
// channels the channel count, bits the wire bit depth per sample.
func Calculate(rate uint32, channels uint8, bits int, mtu uint32) uint32 {
	budget := int(mtu) - protocolOverheadBytes
	if budget <= 0 {
		return minCycleUs
	}

	bytesPerUs := float64(rate) * float64(channels) * float64(bits) / 8 / 1_000_000
	if bytesPerUs <= 0 {
		return minCycleUs
	}

	// Largest cycle_us such that ceil(bytesPerUs * cycle_us) <= budget.
	cycleUs := uint32(float64(budget) / bytesPerUs)

	if cycleUs < minCycleUs {
		return minCycleUs
	}

	return cycleUs
}

// Default returns the configured fallback cycle period used when
// cycle_time_auto is false.
func Default() uint32 {
	return defaultCycleUs
}
