package engine

import (
	"math"

	"github.com/silvertone-audio/direttasync/internal/wire"
)

const (
	pcmPrefillFraction         = 0.5
	dsdPrefillFraction         = 0.25
	lowBitratePCMFraction      = 0.75
	lowBitrateMaxRateHz        = 48000
	lowBitrateMaxBitDepth      = 16
	ringSecondsPCM             = 2
	ringSecondsDSD             = 1
)

// bytesPerSecond returns the wire-format byte rate: the unit both ring
// sizing and prefill targets are expressed in.
func bytesPerSecond(wf wire.WireFormat) int {
	return int(wf.SampleRateHz) * int(wf.Channels) * wf.BytesPerSample()
}

// silenceByteFor returns the fill byte the ring (and the cycle supplier
// reading its SilenceByte) should use for this wire format: 0x69 is the
// DSD idle pattern a DAC interprets as silence, 0x00 for PCM.
func silenceByteFor(wf wire.WireFormat) byte {
	if wf.Kind == wire.KindDSD {
		return 0x69
	}

	return 0x00
}

// ringCapacityBytes sizes the ring buffer to hold 2s of PCM or 1s of DSD
// of post-transform data at the current wire rate.
func ringCapacityBytes(wf wire.WireFormat) int {
	seconds := ringSecondsPCM
	if wf.Kind == wire.KindDSD {
		seconds = ringSecondsDSD
	}

	return bytesPerSecond(wf) * seconds
}

// prefillTargetBytes implements the prefill policy:
// prefill_target = min(bytes_per_second * prefill_fraction, capacity/4).
func prefillTargetBytes(in wire.AudioFormat, wf wire.WireFormat, capacity int) int {
	fraction := pcmPrefillFraction

	if wf.Kind == wire.KindDSD {
		fraction = dsdPrefillFraction
	} else if in.SampleRateHz <= lowBitrateMaxRateHz && in.BitDepth <= lowBitrateMaxBitDepth {
		fraction = lowBitratePCMFraction
	}

	byRate := int(float64(bytesPerSecond(wf)) * fraction)
	quarterCap := capacity / 4

	if byRate < quarterCap {
		return byRate
	}

	return quarterCap
}

// bytesPerBuffer computes the fixed per-cycle wire-frame size. The default
// 1ms-cycle formula is ceil(sample_rate/1000) * channels *
// wire_bytes_per_sample; this generalizes it to the negotiated cycle
// period (sample_rate * cycle_us / 1e6) so cycle_time_auto continues to
// produce a correctly sized frame when the cycle period isn't exactly
// 1ms — the two formulas agree when cycle_us is the 1000us default.
func bytesPerBuffer(wf wire.WireFormat, cycleUs uint32) int {
	samplesPerCycle := math.Ceil(float64(wf.SampleRateHz) * float64(cycleUs) / 1_000_000)
	n := int(samplesPerCycle) * int(wf.Channels) * wf.BytesPerSample()

	if wf.Kind == wire.KindDSD {
		align := int(wf.Channels) * wf.BytesPerSample()
		if align > 0 && n%align != 0 {
			n += align - n%align
		}
	}

	return n
}
