package engine

import (
	"time"

	"github.com/silvertone-audio/direttasync/internal/transport"
)

// SilenceBudget holds the tuning constants for how many fully-silent
// cycles are pushed through the cycle supplier at each drain point. These
// are deliberately configurable rather than hard-coded, since the right
// counts vary by DAC.
type SilenceBudget struct {
	ReopenDSD, ReopenPCM int
	CloseDSD, ClosePCM   int
	PauseDSD, PausePCM   int
}

// DefaultSilenceBudget holds the documented default drain counts.
func DefaultSilenceBudget() SilenceBudget {
	return SilenceBudget{
		ReopenDSD: 100, ReopenPCM: 30,
		CloseDSD: 50, ClosePCM: 20,
		PauseDSD: 30, PausePCM: 10,
	}
}

// RetryBudget describes one bounded retry loop: at most Attempts tries,
// waiting Delay between each.
type RetryBudget struct {
	Attempts int
	Delay    time.Duration
}

// Options configures one Engine instance. Zero-valued fields are replaced
// by the documented defaults in applyDefaults.
type Options struct {
	Name        string
	TargetIndex int

	CycleTimeUs   uint32
	CycleTimeAuto bool

	MTU         uint32 // 0 = measure
	MTUFallback uint32

	ThreadMode transport.ThreadMode

	// TransferModeOverride, when non-nil, forces a transfer mode instead
	// of running the AUTO policy (see selectTransferMode).
	TransferModeOverride *transport.TransferMode

	OnlineWaitMs         int
	FormatSwitchDelayMs  int
	PostOnlineSilenceBuffers int32

	Silence SilenceBudget
}

// DiscoveryRetry, SetSinkFreshRetry, SetSinkReopenRetry, ConnectRetry, and
// ReopenRediscoverRetry are the bounded retry budgets for each control
// sequence's retry loop.
var (
	DiscoveryRetry        = RetryBudget{Attempts: 3, Delay: 500 * time.Millisecond}
	TransportOpenRetry    = RetryBudget{Attempts: 3, Delay: 500 * time.Millisecond}
	SetSinkFreshRetry     = RetryBudget{Attempts: 20, Delay: 500 * time.Millisecond}
	SetSinkReopenRetry    = RetryBudget{Attempts: 15, Delay: 300 * time.Millisecond}
	ConnectRetry          = RetryBudget{Attempts: 3, Delay: 500 * time.Millisecond}
	ReopenRediscoverRetry = RetryBudget{Attempts: 10, Delay: 500 * time.Millisecond}
)

const (
	freshSettleDelay   = 500 * time.Millisecond
	reopenSettleDelay  = 200 * time.Millisecond
	reopenDrainWait    = 300 * time.Millisecond
	closeDrainWait     = 150 * time.Millisecond
	closeWorkerWait    = 500 * time.Millisecond
	defaultOnlineWaitMs = 2000
	defaultFormatSwitchDelayMs = 1000
	defaultPostOnlineSilenceBuffers = 50
)

func (o *Options) applyDefaults() {
	if o.Name == "" {
		o.Name = "DirettaRenderer"
	}

	if o.CycleTimeUs == 0 {
		o.CycleTimeUs = 1000
	}

	if o.MTUFallback == 0 {
		o.MTUFallback = 1500
	}

	if o.OnlineWaitMs == 0 {
		o.OnlineWaitMs = defaultOnlineWaitMs
	}

	if o.FormatSwitchDelayMs == 0 {
		o.FormatSwitchDelayMs = defaultFormatSwitchDelayMs
	}

	if o.PostOnlineSilenceBuffers == 0 {
		o.PostOnlineSilenceBuffers = defaultPostOnlineSilenceBuffers
	}

	var zero SilenceBudget
	if o.Silence == zero {
		o.Silence = DefaultSilenceBudget()
	}
}
