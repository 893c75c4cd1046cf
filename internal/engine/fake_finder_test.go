package engine

import (
	"context"
	"errors"

	"github.com/silvertone-audio/direttasync/internal/discovery"
)

// fakeFinder satisfies engine.Finder without any real mDNS browse.
type fakeFinder struct {
	target discovery.Target
	err    error
	calls  int
}

func (f *fakeFinder) Discover(_ context.Context, _ string, _ int) (discovery.Target, error) {
	f.calls++

	if f.err != nil {
		return discovery.Target{}, f.err
	}

	return f.target, nil
}

var errFakeNoTarget = errors.New("fakeFinder: no target configured")
