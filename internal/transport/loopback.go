package transport

import (
	"context"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/silvertone-audio/direttasync/internal/logging"
	"github.com/silvertone-audio/direttasync/internal/wire"
)

// Loopback is a real UDP transport that frames and sends one datagram per
// protocol cycle to a local socket, so the wire-format byte-exactness
// invariants can be exercised end to end without Diretta hardware.
// Grounded on other_examples' HPSDR protocol client, which paces UDP sends
// to a fixed per-packet cadence over a raw socket.
type Loopback struct {
	conn    *net.UDPConn
	cycleUs atomic.Uint32
	bufSize atomic.Int32
	online  atomic.Bool

	mu       sync.Mutex
	supplier CycleSupplierFunc
	cancel   context.CancelFunc
}

var (
	_      Transport = (*Loopback)(nil)
	loopLg           = logging.For("transport.loopback")
)

// NewLoopback returns a Loopback transport with no open socket.
func NewLoopback() *Loopback {
	return &Loopback{}
}

func (l *Loopback) TryFormat(_ context.Context, _ wire.WireFormat) (bool, error) {
	// A loopback socket accepts whatever bytes it's handed; every
	// candidate format is "supported".
	return true, nil
}

func (l *Loopback) Open(_ context.Context, _ OpenOptions) error {
	return nil
}

func (l *Loopback) SetSink(ctx context.Context, opts SetSinkOptions) error {
	addr, err := net.ResolveUDPAddr("udp", opts.Address)
	if err != nil {
		return err
	}

	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return err
	}

	l.mu.Lock()
	l.conn = conn
	l.mu.Unlock()

	l.cycleUs.Store(opts.CycleUs)

	loopLg.Info("loopback sink configured", "address", opts.Address, "cycle_us", opts.CycleUs)

	return nil
}

func (l *Loopback) ConnectPrepare(context.Context) error { return nil }
func (l *Loopback) Connect(context.Context) error        { return nil }

func (l *Loopback) ConnectWait(context.Context) error {
	l.online.Store(true)

	return nil
}

func (l *Loopback) SetTransferMode(TransferMode) error { return nil }

func (l *Loopback) Play(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	l.cancel = cancel

	go l.cycleWorker(workerCtx)

	return nil
}

func (l *Loopback) cycleWorker(ctx context.Context) {
	cycleUs := l.cycleUs.Load()
	if cycleUs == 0 {
		cycleUs = 1000
	}

	ticker := time.NewTicker(time.Duration(cycleUs) * time.Microsecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.emitOneCycle()
		}
	}
}

func (l *Loopback) emitOneCycle() {
	size := int(l.bufSize.Load())
	if size == 0 {
		return
	}

	l.mu.Lock()
	supplier := l.supplier
	conn := l.conn
	l.mu.Unlock()

	if supplier == nil || conn == nil {
		return
	}

	buf := make([]byte, size)
	supplier(buf)
	_, _ = conn.Write(buf)
}

func (l *Loopback) Stop(context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}

	return nil
}

func (l *Loopback) Disconnect(ctx context.Context, _ bool) error {
	l.online.Store(false)

	return l.Stop(ctx)
}

func (l *Loopback) Close(context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.conn != nil {
		err := l.conn.Close()
		l.conn = nil

		return err
	}

	return nil
}

func (l *Loopback) IsOnline() bool {
	return l.online.Load()
}

func (l *Loopback) SetCycleSupplier(fn CycleSupplierFunc) {
	l.mu.Lock()
	l.supplier = fn
	l.mu.Unlock()
}

// ConfigureFormat implements transport.FormatConfigurer: it records the
// fixed per-cycle buffer size the engine computed at open time. The wire
// format itself is irrelevant to a raw UDP datagram send.
func (l *Loopback) ConfigureFormat(_ wire.WireFormat, bytesPerBuffer int) error {
	l.bufSize.Store(int32(bytesPerBuffer))

	return nil
}
