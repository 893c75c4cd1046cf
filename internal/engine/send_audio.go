package engine

import (
	"fmt"

	"github.com/silvertone-audio/direttasync/internal/ring"
	"github.com/silvertone-audio/direttasync/internal/wire"
)

// SendAudio is the upstream producer API: the decoder pushes raw
// input-format bytes and gets back the number of input units accepted.
// For PCM it is a byte count except when Widen16To32 is in effect, where it
// is a sample count (matching ring.Buffer.PushWiden16To32's contract); for
// DSD it is a byte count. Callers must retry with the unaccepted remainder
// on a short return — this is backpressure, not an error.
//
// SendAudio never blocks and takes only pushMu, never the control-plane
// mutex: it reads the current cycleState through the atomic snapshot
// published by open().
func (e *Engine) SendAudio(src []byte) (int, error) {
	e.pushMu.Lock()
	defer e.pushMu.Unlock()

	cs := e.snapshot.Load()
	if cs == nil {
		return 0, fmt.Errorf("%w: not open", ErrNotEnabled)
	}

	if cs.wireFormat.Kind == wire.KindDSD {
		return cs.ring.PushDSDPlanar(src, cs.transforms.DSDByteSwap, dsdLUT(cs.transforms.DSDBitReverse)), nil
	}

	switch {
	case cs.transforms.Widen16To32:
		return cs.ring.PushWiden16To32(src), nil
	case cs.transforms.Pack24In32:
		return cs.ring.PushPack24In32(src), nil
	default:
		return cs.ring.Push(src), nil
	}
}

func dsdLUT(bitReverse bool) *[256]byte {
	if !bitReverse {
		return nil
	}

	return &ring.ReverseTable
}
