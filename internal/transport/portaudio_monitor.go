package transport

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"

	"github.com/silvertone-audio/direttasync/internal/logging"
	"github.com/silvertone-audio/direttasync/internal/wire"
)

// PortAudioMonitor plays the negotiated wire format out the host's sound
// card via github.com/gordonklaus/portaudio, so a developer can listen to
// exactly what the sync engine is producing. It is never the production
// playback target (that is the network DAC); it exists purely as a
// monitoring tap.
type PortAudioMonitor struct {
	stream *portaudio.Stream

	mu       sync.Mutex
	supplier CycleSupplierFunc
	format   wire.WireFormat
	bufSize  int
	online   bool
}

var _ Transport = (*PortAudioMonitor)(nil)

// NewPortAudioMonitor initializes the PortAudio host API. Callers must call
// Close when done to release it.
func NewPortAudioMonitor() (*PortAudioMonitor, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("transport: portaudio init: %w", err)
	}

	return &PortAudioMonitor{}, nil
}

func (p *PortAudioMonitor) TryFormat(_ context.Context, candidate wire.WireFormat) (bool, error) {
	// The host sound card accepts whatever PCM-shaped bytes we hand it for
	// monitoring purposes; DSD candidates are rejected since consumer
	// sound hardware can't render raw DSD bitstreams.
	return candidate.Kind == wire.KindPCM, nil
}

func (p *PortAudioMonitor) Open(context.Context, OpenOptions) error { return nil }

func (p *PortAudioMonitor) SetSink(_ context.Context, opts SetSinkOptions) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	// opts.Address/MTU are meaningless for a local monitor output; only
	// the format and cycle cadence matter here.
	p.bufSize = 0

	return nil
}

func (p *PortAudioMonitor) ConnectPrepare(context.Context) error { return nil }
func (p *PortAudioMonitor) Connect(context.Context) error        { return nil }

func (p *PortAudioMonitor) ConnectWait(context.Context) error {
	p.mu.Lock()
	p.online = true
	p.mu.Unlock()

	return nil
}

func (p *PortAudioMonitor) SetTransferMode(TransferMode) error { return nil }

// ConfigureFormat implements transport.FormatConfigurer: it opens the host
// output stream at the negotiated sample rate/channel count and the fixed
// per-cycle frame size, called by the engine right after negotiation and
// sizing, before Play.
func (p *PortAudioMonitor) ConfigureFormat(f wire.WireFormat, bytesPerBuffer int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stream != nil {
		_ = p.stream.Close()
		p.stream = nil
	}

	p.format = f
	p.bufSize = bytesPerBuffer

	framesPerBuffer := bytesPerBuffer / (f.BytesPerSample() * int(f.Channels))

	stream, err := portaudio.OpenDefaultStream(
		0, int(f.Channels), float64(f.SampleRateHz), framesPerBuffer,
		func(out []int32) {
			p.fillFromSupplier(out)
		},
	)
	if err != nil {
		return fmt.Errorf("transport: portaudio open stream: %w", err)
	}

	p.stream = stream

	time.Sleep(settleDelay)

	return nil
}

func (p *PortAudioMonitor) fillFromSupplier(out []int32) {
	p.mu.Lock()
	supplier := p.supplier
	p.mu.Unlock()

	if supplier == nil {
		for i := range out {
			out[i] = 0
		}

		return
	}

	raw := make([]byte, len(out)*4)
	supplier(raw)

	for i := range out {
		out[i] = int32(raw[i*4]) | int32(raw[i*4+1])<<8 | int32(raw[i*4+2])<<16 | int32(raw[i*4+3])<<24
	}
}

func (p *PortAudioMonitor) Play(context.Context) error {
	p.mu.Lock()
	stream := p.stream
	p.mu.Unlock()

	if stream == nil {
		return nil
	}

	return stream.Start()
}

func (p *PortAudioMonitor) Stop(context.Context) error {
	p.mu.Lock()
	stream := p.stream
	p.mu.Unlock()

	if stream == nil {
		return nil
	}

	return stream.Stop()
}

func (p *PortAudioMonitor) Disconnect(ctx context.Context, _ bool) error {
	p.mu.Lock()
	p.online = false
	p.mu.Unlock()

	return p.Stop(ctx)
}

func (p *PortAudioMonitor) Close(context.Context) error {
	p.mu.Lock()
	stream := p.stream
	p.stream = nil
	p.mu.Unlock()

	if stream != nil {
		if err := stream.Close(); err != nil {
			return err
		}
	}

	return portaudio.Terminate()
}

func (p *PortAudioMonitor) IsOnline() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.online
}

func (p *PortAudioMonitor) SetCycleSupplier(fn CycleSupplierFunc) {
	p.mu.Lock()
	p.supplier = fn
	p.mu.Unlock()
}

// settleDelay is a short grace period after a PortAudio stream (re)open
// before audio flows, for the same reason the engine sleeps its own
// (longer) settle delay before a fresh open.
const settleDelay = 50 * time.Millisecond
