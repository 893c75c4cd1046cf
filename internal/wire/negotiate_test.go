package wire

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProber struct {
	accept func(WireFormat) bool
	calls  []WireFormat
}

func (p *fakeProber) TryFormat(_ context.Context, candidate WireFormat) (bool, error) {
	p.calls = append(p.calls, candidate)

	return p.accept(candidate), nil
}

func TestNegotiatePCM_TriesWidestFirst(t *testing.T) {
	sink := &fakeProber{accept: func(wf WireFormat) bool { return wf.PCMBits == PCMBits24 }}

	wf, ts, err := Negotiate(context.Background(), sink, AudioFormat{Kind: KindPCM, SampleRateHz: 44100, BitDepth: 16, Channels: 2})

	require.NoError(t, err)
	assert.Equal(t, PCMBits24, wf.PCMBits)
	assert.True(t, ts.Pack24In32)
	assert.False(t, ts.Widen16To32)
	assert.Equal(t, []PCMBits{PCMBits32, PCMBits24}, []PCMBits{sink.calls[0].PCMBits, sink.calls[1].PCMBits})
}

func TestNegotiatePCM_WidenWhenSinkOnlyTakes32(t *testing.T) {
	sink := &fakeProber{accept: func(wf WireFormat) bool { return wf.PCMBits == PCMBits32 }}

	wf, ts, err := Negotiate(context.Background(), sink, AudioFormat{Kind: KindPCM, SampleRateHz: 44100, BitDepth: 16, Channels: 2})

	require.NoError(t, err)
	assert.Equal(t, PCMBits32, wf.PCMBits)
	assert.True(t, ts.Widen16To32)
}

func TestNegotiatePCM_AllRejected(t *testing.T) {
	sink := &fakeProber{accept: func(WireFormat) bool { return false }}

	_, _, err := Negotiate(context.Background(), sink, AudioFormat{Kind: KindPCM, SampleRateHz: 44100, BitDepth: 16, Channels: 2})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFormatUnsupported)
}

func TestNegotiateDSD_ProbeOrderAndBitReverseLatch(t *testing.T) {
	// Sink only accepts MSB/BIG: a DSF (LSB) source must latch bit-reverse.
	sink := &fakeProber{accept: func(wf WireFormat) bool {
		return wf.DSDBitOrder == BitOrderMSB && wf.DSDEndianness == EndiannessBig
	}}

	wf, ts, err := Negotiate(context.Background(), sink, AudioFormat{
		Kind: KindDSD, SampleRateHz: 2822400, Channels: 2, DSDSubformat: DSDSubformatDSF,
	})

	require.NoError(t, err)
	require.Len(t, sink.calls, 2)
	assert.Equal(t, BitOrderLSB, sink.calls[0].DSDBitOrder, "LSB/BIG is probed before MSB/BIG")
	assert.Equal(t, BitOrderMSB, wf.DSDBitOrder)
	assert.True(t, ts.DSDBitReverse)
	assert.True(t, ts.DSDPlanarInterleave)
}

func TestNegotiateDSD_BareFallback(t *testing.T) {
	calls := 0
	sink := &fakeProber{accept: func(WireFormat) bool {
		calls++

		return calls == 5 // every named candidate rejected, bare DSD accepted
	}}

	wf, _, err := Negotiate(context.Background(), sink, AudioFormat{
		Kind: KindDSD, SampleRateHz: 2822400, Channels: 2, DSDSubformat: DSDSubformatDFF,
	})

	require.NoError(t, err)
	assert.Equal(t, BitOrderLSB, wf.DSDBitOrder)
	assert.Equal(t, EndiannessBig, wf.DSDEndianness)
}
