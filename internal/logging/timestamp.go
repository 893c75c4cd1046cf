package logging

import (
	"time"

	"github.com/lestrrat-go/strftime"
)

// DefaultTimestampFormat mirrors src/tq.go's configurable
// "timestamp_format" field: a strftime layout applied to event timestamps
// in addition to the structured logger's own ISO-8601 field, for operators
// who want a locale-familiar stamp in a status line.
const DefaultTimestampFormat = "%Y-%m-%d %H:%M:%S"

// Stamp formats t using layout (a strftime pattern). An invalid layout
// falls back to RFC3339 rather than failing the caller.
func Stamp(layout string, t time.Time) string {
	formatted, err := strftime.Format(layout, t)
	if err != nil {
		return t.Format(time.RFC3339)
	}

	return formatted
}
