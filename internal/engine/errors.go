package engine

import (
	"errors"
	"fmt"
)

// ErrEnableFailed indicates discovery or transport-open retries were
// exhausted, during enable() or while reopening for a format change. A
// failed MTU measurement does not cause it: enable() falls back to
// MTUFallback instead.
var ErrEnableFailed = errors.New("engine: enable failed")

// ErrNoTarget indicates no reachable DAC was found during discovery.
var ErrNoTarget = errors.New("engine: no target found")

// ErrNotEnabled indicates a caller used the engine before enable().
var ErrNotEnabled = errors.New("engine: not enabled")

// Stage identifies which step of open() exhausted its retry budget.
type Stage string

const (
	StageSetSink        Stage = "set_sink"
	StageConnectPrepare Stage = "connect_prepare"
	StageConnect        Stage = "connect"
	StageConnectWait    Stage = "connect_wait"
)

// OpenFailedError wraps the stage whose retry budget was exhausted.
type OpenFailedError struct {
	Stage Stage
	Err   error
}

func (e *OpenFailedError) Error() string {
	return fmt.Sprintf("engine: open failed at stage %s: %v", e.Stage, e.Err)
}

func (e *OpenFailedError) Unwrap() error { return e.Err }

func newOpenFailed(stage Stage, err error) error {
	return &OpenFailedError{Stage: stage, Err: err}
}
