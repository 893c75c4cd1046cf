package cycle

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestCalculateNeverBelowMinimum(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		rate := rapid.Uint32Range(8000, 49152000).Draw(t, "rate")
		channels := rapid.Uint8Range(1, 32).Draw(t, "channels")
		bits := rapid.SampledFrom([]int{16, 24, 32}).Draw(t, "bits")
		mtu := rapid.Uint32Range(200, 9000).Draw(t, "mtu")

		got := Calculate(rate, channels, bits, mtu)
		assert.GreaterOrEqual(t, got, uint32(minCycleUs))
	})
}

func TestCalculatePayloadFitsBudget(t *testing.T) {
	rate := uint32(2822400)
	channels := uint8(2)
	bits := 32
	mtu := uint32(1500)

	got := Calculate(rate, channels, bits, mtu)

	budget := int(mtu) - protocolOverheadBytes
	bytesPerUs := float64(rate) * float64(channels) * float64(bits) / 8 / 1_000_000
	payload := int(math.Ceil(bytesPerUs * float64(got)))

	assert.LessOrEqual(t, payload, budget)
}

func TestDefaultUsedVerbatim(t *testing.T) {
	assert.Equal(t, uint32(1000), Default())
}
