package logging

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStamp(t *testing.T) {
	ts := time.Date(2026, time.July, 29, 13, 5, 9, 0, time.UTC)

	got := Stamp("%Y-%m-%d %H:%M:%S", ts)

	assert.Equal(t, "2026-07-29 13:05:09", got)
}

