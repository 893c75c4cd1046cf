package transport

import (
	"context"
	"sync"

	"github.com/silvertone-audio/direttasync/internal/wire"
)

// Fake is an in-memory Transport with no real network or hardware
// dependency, driven entirely by explicit calls from a test. It is used by
// internal/engine's tests to assert the open/close/reopen protocols and
// end-to-end playback scenarios without a Diretta DAC.
type Fake struct {
	mu sync.Mutex

	// AcceptFormat, if set, decides whether TryFormat accepts a candidate.
	// A nil value accepts everything, matching a maximally capable sink.
	AcceptFormat func(wire.WireFormat) bool

	// FailOpen, FailSetSink, FailConnect force the corresponding call to
	// return an error, simulating retry-budget exhaustion.
	FailOpen     bool
	FailSetSink  bool
	FailConnect  bool

	online   bool
	supplier CycleSupplierFunc

	Opened       bool
	Closed       bool
	Playing      bool
	Disconnected bool
	SetSinkCalls int
	ConnectCalls int
	TransferMode TransferMode
	LastSetSink  SetSinkOptions
}

var _ Transport = (*Fake)(nil)

func (f *Fake) TryFormat(_ context.Context, candidate wire.WireFormat) (bool, error) {
	if f.AcceptFormat == nil {
		return true, nil
	}

	return f.AcceptFormat(candidate), nil
}

func (f *Fake) Open(_ context.Context, _ OpenOptions) error {
	if f.FailOpen {
		return errFakeForced
	}

	f.mu.Lock()
	f.Opened = true
	f.Closed = false
	f.mu.Unlock()

	return nil
}

func (f *Fake) SetSink(_ context.Context, opts SetSinkOptions) error {
	if f.FailSetSink {
		return errFakeForced
	}

	f.mu.Lock()
	f.SetSinkCalls++
	f.LastSetSink = opts
	f.mu.Unlock()

	return nil
}

func (f *Fake) ConnectPrepare(_ context.Context) error { return nil }

func (f *Fake) Connect(_ context.Context) error {
	if f.FailConnect {
		return errFakeForced
	}

	f.mu.Lock()
	f.ConnectCalls++
	f.mu.Unlock()

	return nil
}

func (f *Fake) ConnectWait(_ context.Context) error {
	f.mu.Lock()
	f.online = true
	f.mu.Unlock()

	return nil
}

func (f *Fake) SetTransferMode(mode TransferMode) error {
	f.TransferMode = mode

	return nil
}

func (f *Fake) Play(_ context.Context) error {
	f.mu.Lock()
	f.Playing = true
	f.mu.Unlock()

	return nil
}

func (f *Fake) Stop(_ context.Context) error {
	f.mu.Lock()
	f.Playing = false
	f.mu.Unlock()

	return nil
}

func (f *Fake) Disconnect(_ context.Context, _ bool) error {
	f.mu.Lock()
	f.Disconnected = true
	f.online = false
	f.mu.Unlock()

	return nil
}

func (f *Fake) Close(_ context.Context) error {
	f.mu.Lock()
	f.Closed = true
	f.Opened = false
	f.mu.Unlock()

	return nil
}

func (f *Fake) IsOnline() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.online
}

func (f *Fake) SetCycleSupplier(fn CycleSupplierFunc) {
	f.mu.Lock()
	f.supplier = fn
	f.mu.Unlock()
}

// Tick invokes the installed cycle supplier exactly once, as the vendor
// transport's worker thread would every cycle, and returns the buffer it
// produced. It is the test-only substitute for the real protocol cadence.
func (f *Fake) Tick(bufSize int) []byte {
	f.mu.Lock()
	supplier := f.supplier
	f.mu.Unlock()

	buf := make([]byte, bufSize)
	if supplier != nil {
		supplier(buf)
	}

	return buf
}

var errFakeForced = &fakeError{"transport: fake forced failure"}

type fakeError struct{ msg string }

func (e *fakeError) Error() string { return e.msg }
