package engine

import (
	"github.com/silvertone-audio/direttasync/internal/transport"
	"github.com/silvertone-audio/direttasync/internal/wire"
)

// selectTransferMode implements the AUTO transfer-mode policy: VAR_AUTO for
// low-bitrate PCM or any DSD, else VAR_MAX. An explicit override always
// wins.
func (e *Engine) selectTransferMode(in wire.AudioFormat) transport.TransferMode {
	if e.opts.TransferModeOverride != nil {
		return *e.opts.TransferModeOverride
	}

	if in.Kind == wire.KindDSD {
		return transport.TransferVarAuto
	}

	if in.SampleRateHz <= lowBitrateMaxRateHz && in.BitDepth <= lowBitrateMaxBitDepth {
		return transport.TransferVarAuto
	}

	return transport.TransferVarMax
}
