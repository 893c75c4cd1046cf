// Command direttasyncd is a minimal demonstration binary for the sync
// engine: it loads configuration, discovers a Diretta sink, opens a
// synthetic test-tone PCM stream through the engine, and logs steady-state
// buffer level. It is not a full renderer control-point stack; it exists
// so the engine has a runnable, observable leaf.
package main

import (
	"context"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/silvertone-audio/direttasync/internal/config"
	"github.com/silvertone-audio/direttasync/internal/discovery"
	"github.com/silvertone-audio/direttasync/internal/engine"
	"github.com/silvertone-audio/direttasync/internal/logging"
	"github.com/silvertone-audio/direttasync/internal/standby"
	"github.com/silvertone-audio/direttasync/internal/transport"
	"github.com/silvertone-audio/direttasync/internal/wire"
)

const (
	testToneHz     = 1000
	testToneRateHz = 48000
	testToneChans  = 2
	testToneAmp    = 0.2
)

func main() {
	log := logging.For("direttasyncd")

	fs := pflag.NewFlagSet("direttasyncd", pflag.ExitOnError)
	configPath := fs.String("config", "", "path to a direttasync YAML config file")
	config.RegisterFlags(fs)

	if err := fs.Parse(os.Args[1:]); err != nil {
		log.Fatal("flag parse failed", "err", err)
	}

	cfg, err := config.Load(*configPath, fs)
	if err != nil {
		log.Fatal("config load failed", "err", err)
	}

	if err := logging.SetLevel(cfg.LogLevel); err != nil {
		log.Warn("invalid log level, keeping default", "err", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal("exiting", "err", err)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	log := logging.For("direttasyncd")

	opts, err := cfg.EngineOptions()
	if err != nil {
		return err
	}

	var xport transport.Transport

	if cfg.Monitor.Enabled {
		mon, monErr := transport.NewPortAudioMonitor()
		if monErr != nil {
			return monErr
		}

		defer mon.Close(ctx) //nolint:errcheck

		xport = mon
	} else {
		xport = transport.NewLoopback()
	}

	var standbyTrigger *standby.Trigger

	if cfg.StandbyGPIO.Enabled {
		standbyTrigger, err = standby.Open(cfg.StandbyGPIO.Chip, cfg.StandbyGPIO.Line, false)
		if err != nil {
			log.Warn("standby gpio unavailable, continuing without it", "err", err)

			standbyTrigger = nil
		} else {
			defer standbyTrigger.Close() //nolint:errcheck
		}
	}

	finder := &discovery.Finder{}
	eng := engine.New(xport, finder, standbyTrigger, opts)

	if err := eng.Enable(ctx, ""); err != nil {
		return err
	}

	defer eng.Disable(ctx) //nolint:errcheck

	format := wire.AudioFormat{
		SampleRateHz: testToneRateHz,
		BitDepth:     16,
		Channels:     testToneChans,
		Kind:         wire.KindPCM,
	}

	if err := eng.Open(ctx, format); err != nil {
		return err
	}

	defer eng.Close(ctx) //nolint:errcheck

	return streamTestTone(ctx, eng, format)
}

// streamTestTone pushes a synthetic sine wave through SendAudio until ctx
// is cancelled, retrying any bytes the ring didn't accept.
func streamTestTone(ctx context.Context, eng *engine.Engine, format wire.AudioFormat) error {
	log := logging.For("direttasyncd")

	const framesPerChunk = 480 // 10ms at 48kHz

	buf := make([]byte, framesPerChunk*int(format.Channels)*2)

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	logTicker := time.NewTicker(2 * time.Second)
	defer logTicker.Stop()

	var sampleIndex uint64

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-logTicker.C:
			stamp := logging.Stamp(logging.DefaultTimestampFormat, time.Now())
			log.Info("buffer level", "at", stamp, "level", eng.GetBufferLevel(), "underruns", eng.UnderrunCount())
		case <-ticker.C:
			fillTestTone(buf, &sampleIndex, format)

			remaining := buf
			for len(remaining) > 0 {
				n, err := eng.SendAudio(remaining)
				if err != nil {
					return err
				}

				// n is in 16-bit input-sample units whenever the sink
				// widened our 16-bit PCM to a 32-bit wire format, which is
				// always the case against Loopback since it accepts every
				// negotiation candidate and the widest is tried first.
				accepted := n * 2
				if accepted == 0 || accepted > len(remaining) {
					break
				}

				remaining = remaining[accepted:]
			}
		}
	}
}

func fillTestTone(dest []byte, sampleIndex *uint64, format wire.AudioFormat) {
	frames := len(dest) / (int(format.Channels) * 2)

	for f := 0; f < frames; f++ {
		angle := 2 * math.Pi * testToneHz * float64(*sampleIndex) / float64(format.SampleRateHz)
		sample := int16(testToneAmp * math.MaxInt16 * math.Sin(angle))

		for ch := 0; ch < int(format.Channels); ch++ {
			off := (f*int(format.Channels) + ch) * 2
			dest[off] = byte(sample)
			dest[off+1] = byte(sample >> 8)
		}

		*sampleIndex++
	}
}
