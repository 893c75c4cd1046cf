package engine

import (
	"context"

	"github.com/silvertone-audio/direttasync/internal/wire"
)

// Close drains silence, stops and disconnects the transport, and returns
// to Enabled. It is a no-op from any
// state other than Open or Reopening.
func (e *Engine) Close(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.state.IsOpen() && e.state != StateReopening {
		return nil
	}

	e.state = StateDraining

	kind := wire.KindPCM
	if cs := e.snapshot.Load(); cs != nil {
		kind = cs.wireFormat.Kind
	}

	n := e.opts.Silence.ClosePCM
	if kind == wire.KindDSD {
		n = e.opts.Silence.CloseDSD
	}

	e.silenceBuffersRemaining.Store(int32(n))
	e.draining.Store(true)

	sleep(ctx, closeDrainWait)

	e.draining.Store(false)
	e.state = StateClosing

	if err := e.transport.Stop(ctx); err != nil {
		e.log.Warn("stop during close failed", "err", err)
	}

	if err := e.transport.Disconnect(ctx, true); err != nil {
		e.log.Warn("disconnect during close failed", "err", err)
	}

	sleep(ctx, closeWorkerWait)

	e.snapshot.Store(nil)
	e.stopRequested.Store(true)
	e.state = StateEnabled

	e.log.Info("closed")

	return nil
}
