// Package standby drives an optional GPIO line that signals a downstream
// amplifier or DAC to leave standby while the sync engine is enabled.
//
// Grounded on src/ptt.go's GPIO output control (export a line, then push an
// on/off value to it for the duration of a transmission); here the signal
// is raised for the engine's enabled lifetime instead of per-transmission,
// and driven through github.com/warthog618/go-gpiocdev's character-device
// API, a pure-Go alternative to a sysfs/cgo path.
package standby

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"

	"github.com/silvertone-audio/direttasync/internal/logging"
)

var log = logging.For("standby")

// Trigger owns one requested GPIO line. The zero value is not usable;
// construct with Open.
type Trigger struct {
	chip    string
	offset  int
	invert  bool
	line    *gpiocdev.Line
}

// Open requests chip/offset as an output line, initially inactive.
func Open(chip string, offset int, invert bool) (*Trigger, error) {
	initial := 0
	if invert {
		initial = 1
	}

	line, err := gpiocdev.RequestLine(chip, offset, gpiocdev.AsOutput(initial))
	if err != nil {
		return nil, fmt.Errorf("standby: request line %s:%d: %w", chip, offset, err)
	}

	return &Trigger{chip: chip, offset: offset, invert: invert, line: line}, nil
}

// Raise activates the standby-release signal.
func (t *Trigger) Raise() error {
	return t.set(true)
}

// Lower deactivates the standby-release signal, returning the downstream
// device to standby.
func (t *Trigger) Lower() error {
	return t.set(false)
}

func (t *Trigger) set(active bool) error {
	value := 0
	if active != t.invert {
		value = 1
	}

	if err := t.line.SetValue(value); err != nil {
		return fmt.Errorf("standby: set %s:%d=%d: %w", t.chip, t.offset, value, err)
	}

	log.Debug("standby line set", "chip", t.chip, "offset", t.offset, "active", active)

	return nil
}

// Close releases the underlying line request.
func (t *Trigger) Close() error {
	return t.line.Close()
}
