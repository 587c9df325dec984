package updater

import (
	"errors"
	"fmt"
)

// ErrUnexpectedPhase is returned when a command arrives before the
// handshake has completed or after the update is complete.
var ErrUnexpectedPhase = errors.New("command received in unexpected phase")

// ErrAddressOverflow is returned for a chunk request whose reply address
// would not fit in the 32-bit address field.
var ErrAddressOverflow = errors.New("chunk address overflows 32 bits")

// Stage names the part of a run that failed.
type Stage string

const (
	StageHandshake Stage = "handshake"
	StageUpdate    Stage = "update"
	StageDecode    Stage = "frame decode"
	StageImage     Stage = "image I/O"
	StageTransport Stage = "transport"
)

// StageError is the fatal error returned by a run. Err is the cause;
// errors.Is and errors.As see through to it.
type StageError struct {
	// Stage is where the run failed
	Stage Stage
	// Phase is the protocol phase at the time of failure
	Phase Phase
	// Underlying error
	Err error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s failed (phase %s): %v", e.Stage, e.Phase, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// StageOf returns the failing stage of err, or "" if err is not a StageError.
func StageOf(err error) Stage {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}
