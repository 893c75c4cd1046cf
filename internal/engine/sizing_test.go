package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/silvertone-audio/direttasync/internal/wire"
)

func TestRingCapacityBytes_DSDIsHalfOfPCMSeconds(t *testing.T) {
	pcm := wire.WireFormat{Kind: wire.KindPCM, PCMBits: wire.PCMBits32, SampleRateHz: 44100, Channels: 2}
	dsd := wire.WireFormat{Kind: wire.KindDSD, DSDWordBits: 32, SampleRateHz: 2822400, Channels: 2}

	assert.Equal(t, bytesPerSecond(pcm)*2, ringCapacityBytes(pcm))
	assert.Equal(t, bytesPerSecond(dsd)*1, ringCapacityBytes(dsd))
}

func TestPrefillTargetBytes_NeverExceedsQuarterCapacity(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		rate := rapid.SampledFrom([]uint32{44100, 48000, 96000, 192000}).Draw(t, "rate")
		bits := rapid.SampledFrom([]int{16, 24, 32}).Draw(t, "bits")

		wf := wire.WireFormat{Kind: wire.KindPCM, PCMBits: wire.PCMBits(bits), SampleRateHz: rate, Channels: 2}
		in := wire.AudioFormat{Kind: wire.KindPCM, SampleRateHz: rate, BitDepth: uint8(bits), Channels: 2}

		capacity := rapid.IntRange(1000, 10_000_000).Draw(t, "capacity")

		target := prefillTargetBytes(in, wf, capacity)

		assert.LessOrEqual(t, target, capacity/4)
		assert.GreaterOrEqual(t, target, 0)
	})
}

func TestSilenceByteFor_PCMIsZeroDSDIs0x69(t *testing.T) {
	pcm := wire.WireFormat{Kind: wire.KindPCM, PCMBits: wire.PCMBits32, SampleRateHz: 44100, Channels: 2}
	dsd := wire.WireFormat{Kind: wire.KindDSD, DSDWordBits: 32, SampleRateHz: 2822400, Channels: 2}

	assert.Equal(t, byte(0x00), silenceByteFor(pcm))
	assert.Equal(t, byte(0x69), silenceByteFor(dsd))
}

func TestBytesPerBuffer_AgreesWithLiteralFormulaAt1msCycle(t *testing.T) {
	wf := wire.WireFormat{Kind: wire.KindPCM, PCMBits: wire.PCMBits32, SampleRateHz: 44100, Channels: 2}

	got := bytesPerBuffer(wf, 1000)

	// The documented 1ms-cycle formula: ceil(sample_rate/1000) * channels * bytes_per_sample.
	want := 45 * 2 * 4

	assert.Equal(t, want, got)
}
