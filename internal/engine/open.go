package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/silvertone-audio/direttasync/internal/cycle"
	"github.com/silvertone-audio/direttasync/internal/ring"
	"github.com/silvertone-audio/direttasync/internal/transport"
	"github.com/silvertone-audio/direttasync/internal/wire"
)

// Open transitions Enabled → Open(Playing) for in, following one of three
// paths: fast-resume for an unchanged format, reopen-for-format-change
// when a format was previously open, and a fresh open otherwise.
func (e *Engine) Open(ctx context.Context, in wire.AudioFormat) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.state {
	case StateOpenPlaying, StateOpenPaused:
		if e.previousFmt != nil && *e.previousFmt == in {
			return e.fastResumeLocked(ctx)
		}

		return e.reopenForFormatChangeLocked(ctx, in)
	case StateEnabled:
		return e.freshOpenLocked(ctx, in, false)
	default:
		return fmt.Errorf("%w: engine state is %s", ErrNotEnabled, e.state)
	}
}

// fastResumeLocked re-plays an identical format without touching the sink
// connection: clear the ring, reset the prefill/stop gates, and resume
// play.
func (e *Engine) fastResumeLocked(ctx context.Context) error {
	cs := e.snapshot.Load()
	if cs == nil {
		return fmt.Errorf("%w: no prior open state to resume", ErrNotEnabled)
	}

	cs.ring.Reset()
	e.prefillComplete.Store(false)
	e.stopRequested.Store(false)

	if err := e.transport.Play(ctx); err != nil {
		return fmt.Errorf("engine: fast resume play: %w", err)
	}

	e.state = StateOpenPlaying
	e.log.Info("fast resume")

	return nil
}

// reopenForFormatChangeLocked drains silence, tears the connection and the
// vendor transport down, waits the configured format-switch delay, then
// reopens the transport, rediscovers the sink, and continues through a
// fresh open (spec.md §4.5 reopen_for_format_change).
func (e *Engine) reopenForFormatChangeLocked(ctx context.Context, in wire.AudioFormat) error {
	e.state = StateReopening
	e.log.Info("reopening for format change", "format", in)

	e.drainSilenceLocked(in.Kind)
	sleep(ctx, reopenDrainWait)

	if err := e.transport.Stop(ctx); err != nil {
		e.log.Warn("stop during reopen failed", "err", err)
	}

	if err := e.transport.Disconnect(ctx, true); err != nil {
		e.log.Warn("disconnect during reopen failed", "err", err)
	}

	if err := e.transport.Close(ctx); err != nil {
		e.log.Warn("transport close during reopen failed", "err", err)
	}

	sleep(ctx, time.Duration(e.opts.FormatSwitchDelayMs)*time.Millisecond)

	if err := retry(ctx, TransportOpenRetry, func(ctx context.Context) error {
		return e.transport.Open(ctx, transport.OpenOptions{
			Name:       e.opts.Name,
			ThreadMode: e.opts.ThreadMode,
			CycleUs:    e.opts.CycleTimeUs,
			MSMode:     false,
		})
	}); err != nil {
		e.state = StateEnabled

		return fmt.Errorf("%w: transport reopen during reopen: %w", ErrEnableFailed, err)
	}

	e.transport.SetCycleSupplier(e.supplyCycle)

	target, err := retryValue(ctx, ReopenRediscoverRetry, func(ctx context.Context) (string, error) {
		t, derr := e.finder.Discover(ctx, e.targetNameFilter, e.opts.TargetIndex)
		if derr != nil {
			return "", derr
		}

		return t.Address, nil
	})
	if err != nil {
		e.state = StateEnabled

		return fmt.Errorf("%w: rediscovery during reopen: %w", ErrEnableFailed, err)
	}

	e.address = target

	return e.freshOpenLocked(ctx, in, true)
}

// freshOpenLocked runs the full negotiate → size → set_sink → connect →
// play sequence. Called both for a brand-new open and as the tail of
// reopenForFormatChangeLocked; isReopen picks the shorter post-reopen
// settle delay (200ms) instead of the fresh-connect one (500ms).
func (e *Engine) freshOpenLocked(ctx context.Context, in wire.AudioFormat, isReopen bool) error {
	e.state = StateOpening

	wf, transforms, err := wire.Negotiate(ctx, e.transport, in)
	if err != nil {
		e.state = StateEnabled

		return fmt.Errorf("engine: negotiate: %w", err)
	}

	cycleUs := e.opts.CycleTimeUs
	if e.opts.CycleTimeAuto {
		cycleUs = cycle.Calculate(wf.SampleRateHz, wf.Channels, wf.BytesPerSample()*8, e.mtu)
	}

	capacity := ringCapacityBytes(wf)
	buf := ring.New(capacity, silenceByteFor(wf))
	prefill := prefillTargetBytes(in, wf, buf.Capacity())
	bpb := bytesPerBuffer(wf, cycleUs)

	settleDelay := freshSettleDelay
	if isReopen {
		settleDelay = reopenSettleDelay
	}

	sleep(ctx, settleDelay)

	setSinkBudget := SetSinkFreshRetry
	if e.previousFmt != nil {
		setSinkBudget = SetSinkReopenRetry
	}

	err = retry(ctx, setSinkBudget, func(ctx context.Context) error {
		return e.transport.SetSink(ctx, transport.SetSinkOptions{
			Address: e.address,
			CycleUs: cycleUs,
			MTU:     e.mtu,
		})
	})
	if err != nil {
		e.state = StateEnabled

		return newOpenFailed(StageSetSink, err)
	}

	if err := e.transport.SetTransferMode(e.selectTransferMode(in)); err != nil {
		e.log.Warn("set transfer mode failed", "err", err)
	}

	if err := retry(ctx, ConnectRetry, e.transport.ConnectPrepare); err != nil {
		e.state = StateEnabled

		return newOpenFailed(StageConnectPrepare, err)
	}

	if err := retry(ctx, ConnectRetry, e.transport.Connect); err != nil {
		e.state = StateEnabled

		return newOpenFailed(StageConnect, err)
	}

	if err := retry(ctx, ConnectRetry, e.transport.ConnectWait); err != nil {
		e.state = StateEnabled

		return newOpenFailed(StageConnectWait, err)
	}

	buf.Reset()
	e.prefillComplete.Store(false)
	e.postOnlineDelayDone.Store(false)
	e.stabilizationCount.Store(0)
	e.stopRequested.Store(false)

	e.snapshot.Store(&cycleState{
		ring:           buf,
		transforms:     transforms,
		wireFormat:     wf,
		bytesPerBuffer: bpb,
		prefillTarget:  prefill,
	})

	if fc, ok := e.transport.(transport.FormatConfigurer); ok {
		if err := fc.ConfigureFormat(wf, bpb); err != nil {
			e.state = StateEnabled

			return fmt.Errorf("engine: configure format: %w", err)
		}
	}

	if err := e.transport.Play(ctx); err != nil {
		e.state = StateEnabled

		return fmt.Errorf("engine: play: %w", err)
	}

	if !e.waitOnlineLocked(ctx) {
		e.log.Warn("sink did not report online within wait window, continuing anyway")
	}

	fmtCopy := in
	e.previousFmt = &fmtCopy
	e.state = StateOpenPlaying

	e.log.Info("open", "wire_format", wf, "ring_capacity", capacity, "prefill_target", prefill)

	return nil
}

// drainSilenceLocked loads the format-appropriate silence budget into the
// cycle supplier so the sink receives a clean run of silent cycles before
// the connection is torn down.
func (e *Engine) drainSilenceLocked(kind wire.Kind) {
	n := e.opts.Silence.ReopenPCM
	if kind == wire.KindDSD {
		n = e.opts.Silence.ReopenDSD
	}

	e.silenceBuffersRemaining.Store(int32(n))
}

// waitOnlineLocked polls IsOnline, bounded by OnlineWaitMs. It is
// non-fatal: the caller proceeds either way, best-effort.
func (e *Engine) waitOnlineLocked(ctx context.Context) bool {
	deadline := e.opts.OnlineWaitMs
	const pollMs = 50

	for waited := 0; waited < deadline; waited += pollMs {
		if e.transport.IsOnline() {
			return true
		}

		if ctx.Err() != nil {
			return false
		}

		sleep(ctx, pollMs*1_000_000)
	}

	return e.transport.IsOnline()
}
