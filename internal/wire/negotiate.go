package wire

import (
	"context"
	"errors"
	"fmt"

	"github.com/silvertone-audio/direttasync/internal/logging"
)

// ErrFormatUnsupported is returned when no candidate wire format was
// accepted by the sink for the given AudioFormat.
var ErrFormatUnsupported = errors.New("wire: sink rejected all candidate formats")

// Prober is satisfied by the connected sink: it reports whether it accepts
// a single candidate wire format. The negotiator probes in a fixed order
// and latches the first accepted candidate.
type Prober interface {
	TryFormat(ctx context.Context, candidate WireFormat) (bool, error)
}

var log = logging.For("negotiator")

// Negotiate selects a WireFormat and its derived TransformSet for the given
// AudioFormat against a connected sink, reproducing the tie-break order
// below bit-for-bit.
func Negotiate(ctx context.Context, sink Prober, in AudioFormat) (WireFormat, TransformSet, error) {
	if in.Kind == KindPCM {
		return negotiatePCM(ctx, sink, in)
	}

	return negotiateDSD(ctx, sink, in)
}

func negotiatePCM(ctx context.Context, sink Prober, in AudioFormat) (WireFormat, TransformSet, error) {
	candidates := []PCMBits{PCMBits32, PCMBits24, PCMBits16}

	for _, bits := range candidates {
		candidate := WireFormat{
			Kind:         KindPCM,
			PCMBits:      bits,
			SampleRateHz: in.SampleRateHz,
			Channels:     in.Channels,
		}

		ok, err := sink.TryFormat(ctx, candidate)
		if err != nil {
			log.Warn("probe failed", "candidate", candidate, "err", err)

			continue
		}

		if ok {
			log.Info("negotiated PCM wire format", "format", candidate)

			return candidate, transformsForPCM(in, candidate), nil
		}
	}

	return WireFormat{}, TransformSet{}, fmt.Errorf("%w: %s", ErrFormatUnsupported, in)
}

type dsdCandidate struct {
	order  BitOrder
	endian Endianness
}

// Probing order: (LSB,BIG), (MSB,BIG), (LSB,LITTLE), (MSB,LITTLE), then
// bare DSD inferred as (LSB,BIG).
var dsdProbeOrder = []dsdCandidate{
	{BitOrderLSB, EndiannessBig},
	{BitOrderMSB, EndiannessBig},
	{BitOrderLSB, EndiannessLittle},
	{BitOrderMSB, EndiannessLittle},
}

func negotiateDSD(ctx context.Context, sink Prober, in AudioFormat) (WireFormat, TransformSet, error) {
	for _, c := range dsdProbeOrder {
		candidate := WireFormat{
			Kind:          KindDSD,
			DSDWordBits:   32,
			DSDBitOrder:   c.order,
			DSDEndianness: c.endian,
			SampleRateHz:  in.SampleRateHz,
			Channels:      in.Channels,
		}

		ok, err := sink.TryFormat(ctx, candidate)
		if err != nil {
			log.Warn("probe failed", "candidate", candidate, "err", err)

			continue
		}

		if ok {
			log.Info("negotiated DSD wire format", "format", candidate)

			return candidate, transformsForDSD(in, candidate), nil
		}
	}

	// Bare DSD support, inferred as (LSB, BIG).
	bare := WireFormat{
		Kind:          KindDSD,
		DSDWordBits:   32,
		DSDBitOrder:   BitOrderLSB,
		DSDEndianness: EndiannessBig,
		SampleRateHz:  in.SampleRateHz,
		Channels:      in.Channels,
	}

	ok, err := sink.TryFormat(ctx, bare)
	if err == nil && ok {
		log.Info("negotiated bare DSD, inferring LSB/BIG", "format", bare)

		return bare, transformsForDSD(in, bare), nil
	}

	return WireFormat{}, TransformSet{}, fmt.Errorf("%w: %s", ErrFormatUnsupported, in)
}

func transformsForPCM(in AudioFormat, wf WireFormat) TransformSet {
	return TransformSet{
		Widen16To32: in.BitDepth == 16 && wf.PCMBits == PCMBits32,
		Pack24In32:  wf.PCMBits == PCMBits24,
	}
}

func transformsForDSD(in AudioFormat, wf WireFormat) TransformSet {
	sourceOrder := BitOrderMSB
	if in.DSDSubformat == DSDSubformatDSF {
		sourceOrder = BitOrderLSB
	}

	return TransformSet{
		DSDBitReverse:       sourceOrder != wf.DSDBitOrder,
		DSDByteSwap:         wf.DSDEndianness == EndiannessLittle,
		DSDPlanarInterleave: true,
	}
}
