package updater

import (
	"time"

	"github.com/muurk/fwupdater/internal/protocol"
)

// EventKind identifies a progress event.
type EventKind int

const (
	EventHandshakeAttempt EventKind = iota // START_UPD^_^ sent
	EventHandshakeAcked                    // RECEIVESTART received
	EventIdle                              // Read timed out or no complete frame yet
	EventCommand                           // Command frame handled and any reply written
	EventChunkSent                         // Chunk reply and payload written
	EventStatus                            // Device status report
	EventComplete                          // Device reported completion
)

func (k EventKind) String() string {
	switch k {
	case EventHandshakeAttempt:
		return "handshake-attempt"
	case EventHandshakeAcked:
		return "handshake-acked"
	case EventIdle:
		return "idle"
	case EventCommand:
		return "command"
	case EventChunkSent:
		return "chunk-sent"
	case EventStatus:
		return "status"
	case EventComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// Event reports driver progress.
type Event struct {
	Kind  EventKind
	Phase Phase

	// Attempt is the handshake attempt number (1-based)
	Attempt int

	// Command is the device command, for command, chunk and status events
	Command protocol.Frame

	// Address is the address of the last chunk reply
	Address uint32

	// Chunks is the number of chunks sent so far
	Chunks int

	// BytesSent is the number of image bytes sent so far
	BytesSent int64

	// ImageSize is the firmware image size
	ImageSize int64

	// Elapsed is the time since the run started
	Elapsed time.Duration
}

// Fraction returns the share of the image the device has asked past,
// between 0 and 1.
func (e Event) Fraction() float64 {
	if e.ImageSize <= 0 {
		return 0
	}
	f := float64(e.Address) / float64(e.ImageSize)
	if f > 1 {
		return 1
	}
	return f
}

// EventFunc receives progress events. It is called synchronously from the
// driver loop and should return quickly.
type EventFunc func(Event)
