// Package transport defines the boundary between the sync engine and the
// vendor Diretta transport library: open, set_sink, connect_prepare,
// connect, play, stop, disconnect, is_online, and a cycle-supplier
// callback. The vendor SDK itself is out of scope; this package only
// fixes the Go-shaped interface the engine drives and supplies three
// implementations usable without real Diretta hardware.
package transport

import (
	"context"

	"github.com/silvertone-audio/direttasync/internal/wire"
)

// TransferMode mirrors the protocol's transfer-mode selector.
type TransferMode int

const (
	TransferFixAuto TransferMode = iota
	TransferVarAuto
	TransferVarMax
)

// ThreadMode selects the vendor thread model; its concrete values are
// vendor-SDK-specific and opaque to the engine.
type ThreadMode int

// OpenOptions bundles the parameters the engine passes to Open.
type OpenOptions struct {
	Name       string
	ThreadMode ThreadMode
	CycleUs    uint32
	MSMode     bool
}

// SetSinkOptions bundles the parameters passed to SetSink.
type SetSinkOptions struct {
	Address  string
	CycleUs  uint32
	Loopback bool
	MTU      uint32
}

// CycleSupplierFunc is invoked by the transport's own worker once per
// protocol cycle. It must fill dest completely and return quickly: no
// blocking, no allocation, no locks shared with the producer side. The
// transport owns the cadence; this package never calls it directly, only
// the Transport implementations do.
type CycleSupplierFunc func(dest []byte) bool

// FormatConfigurer is implemented by Transport implementations that need
// the negotiated wire format and fixed per-cycle buffer size before Play
// starts the cadence (e.g. to open a host audio stream at the right rate
// and frame size). Optional: the engine type-asserts for it after
// negotiation and sizing, right before Play, and only the implementations
// that need it (Loopback, PortAudioMonitor) satisfy it.
type FormatConfigurer interface {
	ConfigureFormat(f wire.WireFormat, bytesPerBuffer int) error
}

// Transport is the vendor SDK boundary. Every method may block briefly (a
// real SDK call) but must respect ctx cancellation.
type Transport interface {
	wire.Prober

	Open(ctx context.Context, opts OpenOptions) error
	SetSink(ctx context.Context, opts SetSinkOptions) error
	ConnectPrepare(ctx context.Context) error
	Connect(ctx context.Context) error
	ConnectWait(ctx context.Context) error
	SetTransferMode(mode TransferMode) error
	Play(ctx context.Context) error
	Stop(ctx context.Context) error
	Disconnect(ctx context.Context, wait bool) error
	Close(ctx context.Context) error
	IsOnline() bool

	// SetCycleSupplier installs the callback the transport's cycle worker
	// invokes once per cycle. fn must remain callable without the
	// engine's control-plane mutex: it reads only atomic state.
	SetCycleSupplier(fn CycleSupplierFunc)
}
