package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/silvertone-audio/direttasync/internal/transport"
	"github.com/silvertone-audio/direttasync/internal/wire"
)

func TestSelectTransferMode(t *testing.T) {
	e := &Engine{}

	assert.Equal(t, transport.TransferVarAuto, e.selectTransferMode(wire.AudioFormat{Kind: wire.KindDSD}))

	lowBitrate := wire.AudioFormat{Kind: wire.KindPCM, SampleRateHz: 44100, BitDepth: 16}
	assert.Equal(t, transport.TransferVarAuto, e.selectTransferMode(lowBitrate))

	hiRes := wire.AudioFormat{Kind: wire.KindPCM, SampleRateHz: 192000, BitDepth: 24}
	assert.Equal(t, transport.TransferVarMax, e.selectTransferMode(hiRes))

	override := transport.TransferFixAuto
	e.opts.TransferModeOverride = &override
	assert.Equal(t, transport.TransferFixAuto, e.selectTransferMode(wire.AudioFormat{Kind: wire.KindDSD}))
}
