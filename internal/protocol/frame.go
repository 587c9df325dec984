package protocol

import (
	"encoding/binary"
	"fmt"
)

// Frame geometry
const (
	FrameSize  = 16   // Every command frame, in either direction
	HeaderSize = 12   // Bytes covered by the header checksum
	ChunkSize  = 512  // Firmware bytes carried by one data reply
	Marker     = 0x55AA
)

// MarkerBytes is Marker as it appears on the wire.
var MarkerBytes = [2]byte{0xAA, 0x55}

// Opcodes
const (
	OpCheckUpdate  = 0x01 // Device asks whether an update is pending
	OpRequestChunk = 0x02 // Device asks for the chunk at Address
	OpReportStatus = 0x03 // Device reports its update status
)

// StatusDone is the status value the device reports once the image is written.
const StatusDone = 0xFF

// Frame is the fixed 16-byte command structure. Inbound frames use Aux as
// the payload length; outbound frames use it as the payload checksum.
type Frame struct {
	Marker         uint16
	Opcode         byte
	Status         byte
	Address        uint32
	Aux            uint32
	HeaderChecksum uint16
	Reserved       uint16
}

// NewFrame returns an outbound frame with the marker set. The header
// checksum is left zero; call Seal once every other field is final.
func NewFrame(opcode byte, address, payloadChecksum uint32) Frame {
	return Frame{
		Marker:  Marker,
		Opcode:  opcode,
		Address: address,
		Aux:     payloadChecksum,
	}
}

// PayloadLength is Aux read as an inbound frame.
func (f Frame) PayloadLength() uint32 { return f.Aux }

// PayloadChecksum is Aux read as an outbound frame.
func (f Frame) PayloadChecksum() uint32 { return f.Aux }

// Encode returns the 16-byte wire form of f. Fields are written one by one;
// the in-memory layout of Frame plays no part.
func (f Frame) Encode() []byte {
	return f.AppendEncode(make([]byte, 0, FrameSize))
}

// AppendEncode appends the wire form of f to b.
func (f Frame) AppendEncode(b []byte) []byte {
	b = binary.LittleEndian.AppendUint16(b, f.Marker)
	b = append(b, f.Opcode, f.Status)
	b = binary.LittleEndian.AppendUint32(b, f.Address)
	b = binary.LittleEndian.AppendUint32(b, f.Aux)
	b = binary.LittleEndian.AppendUint16(b, f.HeaderChecksum)
	b = binary.LittleEndian.AppendUint16(b, f.Reserved)
	return b
}

// Decode parses the first FrameSize bytes of p. Any 16 bytes decode; use
// Verify to check the header checksum.
func Decode(p []byte) (Frame, error) {
	if len(p) < FrameSize {
		return Frame{}, fmt.Errorf("%w: %d bytes (need %d)", ErrFrameTooShort, len(p), FrameSize)
	}
	return Frame{
		Marker:         binary.LittleEndian.Uint16(p[0:2]),
		Opcode:         p[2],
		Status:         p[3],
		Address:        binary.LittleEndian.Uint32(p[4:8]),
		Aux:            binary.LittleEndian.Uint32(p[8:12]),
		HeaderChecksum: binary.LittleEndian.Uint16(p[12:14]),
		Reserved:       binary.LittleEndian.Uint16(p[14:16]),
	}, nil
}

// ComputeHeaderChecksum returns the checksum of the first 12 encoded bytes
// of f, from its current field values.
func (f Frame) ComputeHeaderChecksum() uint16 {
	return HeaderChecksum(f.Encode()[:HeaderSize])
}

// Seal returns f with HeaderChecksum recomputed from the other fields.
// It must be the last change made to a frame before it is encoded for
// transmission.
func (f Frame) Seal() Frame {
	f.HeaderChecksum = f.ComputeHeaderChecksum()
	return f
}

// Verify reports whether the stored header checksum matches the header.
func (f Frame) Verify() error {
	if want := f.ComputeHeaderChecksum(); want != f.HeaderChecksum {
		return &ChecksumMismatchError{Frame: f, Expected: want, Actual: f.HeaderChecksum}
	}
	return nil
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (f Frame) MarshalBinary() ([]byte, error) {
	return f.Encode(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (f *Frame) UnmarshalBinary(data []byte) error {
	decoded, err := Decode(data)
	if err != nil {
		return err
	}
	*f = decoded
	return nil
}

// OpcodeString returns a human-readable opcode name
func (f Frame) OpcodeString() string {
	return OpcodeName(f.Opcode)
}

// OpcodeName returns a human-readable name for an opcode
func OpcodeName(op byte) string {
	switch op {
	case OpCheckUpdate:
		return "check-update"
	case OpRequestChunk:
		return "request-chunk"
	case OpReportStatus:
		return "report-status"
	default:
		return fmt.Sprintf("unknown(0x%02X)", op)
	}
}

// String returns a debug representation of the frame
func (f Frame) String() string {
	return fmt.Sprintf("Frame{marker=0x%04X, op=%s, status=0x%02X, addr=0x%08X, aux=0x%08X, hcs=0x%04X}",
		f.Marker, f.OpcodeString(), f.Status, f.Address, f.Aux, f.HeaderChecksum)
}
