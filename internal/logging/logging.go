// Package logging provides the single shared structured logger used across
// the renderer: one place components go for leveled, component-scoped
// output.
package logging

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
)

var root = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: true,
	TimeFormat:      "2006-01-02T15:04:05.000Z07:00",
})

// SetLevel sets the level on the root logger. Valid values mirror
// log.ParseLevel: debug, info, warn, error.
func SetLevel(level string) error {
	parsed, err := log.ParseLevel(level)
	if err != nil {
		return err
	}

	root.SetLevel(parsed)

	return nil
}

// SetOutput redirects all log output, used by tests that want to capture
// or silence logging.
func SetOutput(w io.Writer) {
	root.SetOutput(w)
}

// For returns a logger scoped to a single component, e.g. For("engine").
func For(component string) *log.Logger {
	return root.With("component", component)
}
