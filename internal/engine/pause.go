package engine

import (
	"context"
	"fmt"

	"github.com/silvertone-audio/direttasync/internal/wire"
)

// Pause drains a short silence budget, stops the transport, and marks the
// engine Open(Paused). It does not disconnect: the sink connection stays
// live so Resume can restart playback without renegotiating.
func (e *Engine) Pause(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateOpenPlaying {
		return fmt.Errorf("%w: engine state is %s", ErrNotEnabled, e.state)
	}

	kind := wire.KindPCM
	if cs := e.snapshot.Load(); cs != nil {
		kind = cs.wireFormat.Kind
	}

	n := e.opts.Silence.PausePCM
	if kind == wire.KindDSD {
		n = e.opts.Silence.PauseDSD
	}

	e.silenceBuffersRemaining.Store(int32(n))
	e.stopRequested.Store(true)

	if err := e.transport.Stop(ctx); err != nil {
		e.log.Warn("stop during pause failed", "err", err)
	}

	e.state = StateOpenPaused

	e.log.Info("paused")

	return nil
}

// Resume calls play() directly and returns to Open(Playing). The ring
// still holds whatever audio was buffered before the pause, so unlike
// open() this never touches the ring or prefillComplete: no prefill is
// needed.
func (e *Engine) Resume(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateOpenPaused {
		return fmt.Errorf("%w: engine state is %s", ErrNotEnabled, e.state)
	}

	e.stopRequested.Store(false)

	if err := e.transport.Play(ctx); err != nil {
		e.stopRequested.Store(true)

		return fmt.Errorf("engine: resume play: %w", err)
	}

	e.state = StateOpenPlaying

	e.log.Info("resumed")

	return nil
}
