// Package engine implements the Diretta sync engine: the connection
// lifecycle state machine together with the cycle supplier it hands to the
// transport. These live in one package because the cycle supplier reads
// only the atomic snapshot the state machine publishes at open time — it
// is a capability handed to the transport, callable without the engine's
// control-plane mutex.
package engine

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"github.com/silvertone-audio/direttasync/internal/discovery"
	"github.com/silvertone-audio/direttasync/internal/logging"
	"github.com/silvertone-audio/direttasync/internal/ring"
	"github.com/silvertone-audio/direttasync/internal/standby"
	"github.com/silvertone-audio/direttasync/internal/transport"
	"github.com/silvertone-audio/direttasync/internal/wire"
)

// Finder is the subset of *discovery.Finder the engine depends on,
// extracted so tests can substitute a fake without a real mDNS browse.
type Finder interface {
	Discover(ctx context.Context, nameFilter string, index int) (discovery.Target, error)
}

// cycleState is the immutable-per-open bundle the producer and consumer
// both read through a single atomic pointer, so the cycle supplier never
// takes a lock while audio is flowing.
type cycleState struct {
	ring           *ring.Buffer
	transforms     wire.TransformSet
	wireFormat     wire.WireFormat
	bytesPerBuffer int
	prefillTarget  int
}

// Engine is created once per process: a single engine value created at
// startup, whose Enable/Disable bracket the transport's lifetime. The zero
// value is not usable; construct with New.
type Engine struct {
	mu     sync.Mutex // serializes control-plane calls: enable/open/close/...
	pushMu sync.Mutex // serializes SendAudio callers

	state State

	transport transport.Transport
	finder    Finder
	standby   *standby.Trigger // optional; nil disables the feature
	opts      Options

	snapshot atomic.Pointer[cycleState]

	prefillComplete         atomic.Bool
	postOnlineDelayDone     atomic.Bool
	stabilizationCount      atomic.Int32
	silenceBuffersRemaining atomic.Int32
	stopRequested           atomic.Bool
	draining                atomic.Bool
	workerActive            atomic.Bool
	running                 atomic.Bool
	underrunCount           atomic.Int64

	// Control-thread-only state, guarded by mu.
	address          string
	mtu              uint32
	targetNameFilter string
	previousFmt      *wire.AudioFormat

	log *log.Logger
}

// New constructs an Engine around the given vendor transport boundary and
// target finder. standbyTrigger may be nil.
func New(t transport.Transport, finder Finder, standbyTrigger *standby.Trigger, opts Options) *Engine {
	opts.applyDefaults()

	return &Engine{
		transport: t,
		finder:    finder,
		standby:   standbyTrigger,
		opts:      opts,
		state:     StateDisabled,
		log:       logging.For("engine"),
	}
}

// State returns the engine's current lifecycle state. Safe to call from any
// goroutine.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.state
}

// UnderrunCount returns the number of cycles the supplier has had to fill
// with silence because the ring buffer ran dry.
func (e *Engine) UnderrunCount() int64 {
	return e.underrunCount.Load()
}

// GetBufferLevel returns the current ring occupancy in [0,1].
func (e *Engine) GetBufferLevel() float32 {
	cs := e.snapshot.Load()
	if cs == nil || cs.ring == nil || cs.ring.Capacity() == 0 {
		return 0
	}

	return float32(cs.ring.Available()) / float32(cs.ring.Capacity())
}

// Enable performs discovery, MTU measurement, and vendor transport open
// with bounded retry budgets. On any permanent failure
// the engine returns to Disabled and reports ErrEnableFailed.
func (e *Engine) Enable(ctx context.Context, nameFilter string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateDisabled {
		return nil
	}

	target, err := retryValue(ctx, DiscoveryRetry, func(ctx context.Context) (discovery.Target, error) {
		return e.finder.Discover(ctx, nameFilter, e.opts.TargetIndex)
	})
	if err != nil {
		e.log.Warn("discovery failed", "err", err)

		return fmt.Errorf("%w: %w", ErrEnableFailed, ErrNoTarget)
	}

	mtu := e.opts.MTU
	if mtu == 0 {
		measured, mtuErr := discovery.MeasureMTU(target.Address)
		if mtuErr != nil {
			e.log.Warn("mtu measurement failed, using fallback", "err", mtuErr, "fallback", e.opts.MTUFallback)
			mtu = e.opts.MTUFallback
		} else {
			mtu = measured
		}
	}

	err = retry(ctx, TransportOpenRetry, func(ctx context.Context) error {
		return e.transport.Open(ctx, transport.OpenOptions{
			Name:       e.opts.Name,
			ThreadMode: e.opts.ThreadMode,
			CycleUs:    e.opts.CycleTimeUs,
			MSMode:     false,
		})
	})
	if err != nil {
		e.log.Error("transport open failed", "err", err)

		return fmt.Errorf("%w: %w", ErrEnableFailed, err)
	}

	e.transport.SetCycleSupplier(e.supplyCycle)

	e.address = target.Address
	e.mtu = mtu
	e.targetNameFilter = nameFilter
	e.running.Store(true)
	e.state = StateEnabled

	if e.standby != nil {
		if stErr := e.standby.Raise(); stErr != nil {
			e.log.Warn("standby trigger raise failed", "err", stErr)
		}
	}

	e.log.Info("enabled", "target", target.Address, "mtu", mtu)

	return nil
}

// Disable tears the engine down unconditionally: closes if open, shuts
// down the worker, closes the transport, and returns to Disabled.
func (e *Engine) Disable(ctx context.Context) error {
	e.mu.Lock()
	state := e.state
	e.mu.Unlock()

	if state.IsOpen() || state == StateOpening || state == StateReopening {
		if err := e.Close(ctx); err != nil {
			e.log.Warn("close during disable failed", "err", err)
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == StateDisabled {
		return nil
	}

	if err := e.transport.Close(ctx); err != nil {
		e.log.Warn("transport close failed", "err", err)
	}

	e.running.Store(false)
	e.state = StateDisabled

	if e.standby != nil {
		if stErr := e.standby.Lower(); stErr != nil {
			e.log.Warn("standby trigger lower failed", "err", stErr)
		}
	}

	e.log.Info("disabled")

	return nil
}
