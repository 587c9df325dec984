package updater

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/muurk/fwupdater/internal/protocol"
)

// Handshake strings
const (
	HandshakeRequest = "START_UPD^_^"
	HandshakeAck     = "RECEIVESTART"
)

// Phase is the protocol state of a session.
type Phase int

const (
	PhaseAwaitingHandshakeAck Phase = iota // Sending START_UPD^_^, waiting for RECEIVESTART
	PhaseHandshakeAcked                    // Device acknowledged; no command seen yet
	PhaseUpdateInProgress                  // Answering device commands
	PhaseComplete                          // Device reported status 0xFF
)

func (p Phase) String() string {
	switch p {
	case PhaseAwaitingHandshakeAck:
		return "awaiting-handshake-ack"
	case PhaseHandshakeAcked:
		return "handshake-acked"
	case PhaseUpdateInProgress:
		return "update-in-progress"
	case PhaseComplete:
		return "complete"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Session is the protocol state of one update run. It is a value: every
// method returns the next session and leaves the receiver unchanged.
type Session struct {
	Phase Phase
	// Last is the most recent command accepted from the device
	Last protocol.Frame
	// Address is the address sent in the last chunk reply, i.e. where the
	// device is expected to ask next
	Address uint32
	// Chunks counts chunk replies built so far
	Chunks int
}

// Reply is the host's answer to one command.
type Reply struct {
	Frame protocol.Frame
	// Payload is sent as a separate write after Frame; nil for no payload
	Payload []byte
	// ImageBytes is how many payload bytes came from the image; the rest
	// of the chunk is zero padding
	ImageBytes int
}

// NewSession returns a session at the start of the handshake.
func NewSession() Session {
	return Session{Phase: PhaseAwaitingHandshakeAck}
}

// Acknowledge checks one handshake response. Only an exact RECEIVESTART
// moves the session to PhaseHandshakeAcked; anything else, including an
// empty response, leaves it unchanged.
func (s Session) Acknowledge(resp []byte) Session {
	if s.Phase == PhaseAwaitingHandshakeAck && string(resp) == HandshakeAck {
		s.Phase = PhaseHandshakeAcked
	}
	return s
}

// Begin enters the update loop after a successful handshake.
func (s Session) Begin() Session {
	if s.Phase == PhaseHandshakeAcked {
		s.Phase = PhaseUpdateInProgress
	}
	return s
}

// Transition applies one device command and returns the next session and
// the reply to send, if any. A command that fails its header checksum is
// never dispatched. Errors are *StageError values.
func (s Session) Transition(cmd protocol.Frame, img io.ReaderAt) (Session, *Reply, error) {
	if s.Phase != PhaseUpdateInProgress {
		return s, nil, &StageError{
			Stage: StageDecode,
			Phase: s.Phase,
			Err:   fmt.Errorf("%w: %s", ErrUnexpectedPhase, cmd.OpcodeString()),
		}
	}
	if err := cmd.Verify(); err != nil {
		return s, nil, &StageError{Stage: StageDecode, Phase: s.Phase, Err: err}
	}

	s.Last = cmd

	switch cmd.Opcode {
	case protocol.OpCheckUpdate:
		return s, &Reply{Frame: protocol.NewFrame(protocol.OpCheckUpdate, 0, 0).Seal()}, nil

	case protocol.OpRequestChunk:
		if cmd.Address > math.MaxUint32-protocol.ChunkSize {
			return s, nil, &StageError{
				Stage: StageDecode,
				Phase: s.Phase,
				Err:   fmt.Errorf("%w: 0x%08X", ErrAddressOverflow, cmd.Address),
			}
		}
		chunk, n, err := ReadChunk(img, cmd.Address)
		if err != nil {
			return s, nil, &StageError{Stage: StageImage, Phase: s.Phase, Err: err}
		}
		next := cmd.Address + protocol.ChunkSize
		reply := &Reply{
			Frame:      protocol.NewFrame(protocol.OpRequestChunk, next, protocol.Checksum(chunk)).Seal(),
			Payload:    chunk,
			ImageBytes: n,
		}
		s.Address = next
		s.Chunks++
		return s, reply, nil

	case protocol.OpReportStatus:
		if cmd.Status == protocol.StatusDone {
			s.Phase = PhaseComplete
		}
		return s, nil, nil

	default:
		return s, nil, nil
	}
}

// ReadChunk reads the ChunkSize bytes at address. A short read at the end
// of the image is zero-padded, so the checksum of the bytes read equals the
// checksum of the whole chunk. It returns the chunk and the number of bytes
// that came from the image.
func ReadChunk(img io.ReaderAt, address uint32) ([]byte, int, error) {
	chunk := make([]byte, protocol.ChunkSize)
	n, err := img.ReadAt(chunk, int64(address))
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, n, fmt.Errorf("read chunk at 0x%08X: %w", address, err)
	}
	// ReaderAt may leave junk past n on error; the padding must be zero.
	clear(chunk[n:])
	return chunk, n, nil
}
