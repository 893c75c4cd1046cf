package engine

// supplyCycle is the capability handed to the transport at open time: it
// is called from the transport's own cycle-worker thread, once per
// protocol cycle, and must never block, allocate, or take the
// control-plane mutex. It reads only the atomic cycleState snapshot and
// the atomic flags/counters below.
//
// Control policy, checked in this exact order:
//  1. silence_buffers_remaining > 0  → silence, decrement
//  2. stop_requested                → silence
//  3. !prefill_complete              → silence
//  4. !post_online_delay_done       → silence, advance stabilization
//  5. available < bytes_per_buffer  → underrun: silence, log, count
//  6. otherwise                     → ring.Pop
func (e *Engine) supplyCycle(dest []byte) bool {
	cs := e.snapshot.Load()
	if cs == nil {
		zero(dest)

		return true
	}

	if remaining := e.silenceBuffersRemaining.Load(); remaining > 0 {
		e.silenceBuffersRemaining.Add(-1)
		fillSilence(dest, cs.ring.SilenceByte())

		return true
	}

	if e.stopRequested.Load() {
		fillSilence(dest, cs.ring.SilenceByte())

		return true
	}

	if !e.prefillComplete.Load() {
		fillSilence(dest, cs.ring.SilenceByte())

		if cs.ring.Available() >= cs.prefillTarget {
			e.prefillComplete.Store(true)
		}

		return true
	}

	if !e.postOnlineDelayDone.Load() {
		fillSilence(dest, cs.ring.SilenceByte())

		n := e.stabilizationCount.Add(1)
		if n >= e.opts.PostOnlineSilenceBuffers {
			e.postOnlineDelayDone.Store(true)
		}

		return true
	}

	if cs.ring.Available() < len(dest) {
		e.underrunCount.Add(1)
		e.log.Debug("underrun", "available", cs.ring.Available(), "want", len(dest))
		fillSilence(dest, cs.ring.SilenceByte())

		return true
	}

	cs.ring.Pop(dest)

	return true
}

func fillSilence(dest []byte, b byte) {
	for i := range dest {
		dest[i] = b
	}
}

func zero(dest []byte) {
	for i := range dest {
		dest[i] = 0
	}
}
