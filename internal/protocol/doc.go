// Package protocol implements the wire layer of the serial update protocol.
//
// The device drives the update: after the handshake it sends fixed 16-byte
// command frames and the host answers each one with exactly one frame, plus
// one 512-byte payload write for data requests. This package knows nothing
// about sequencing; it only encodes, decodes, checksums and locates frames.
//
// # Frame Layout
//
// All multi-byte fields are little-endian:
//
//	[0-1]   marker           0x55AA (bytes AA 55 on the wire)
//	[2]     opcode           command kind
//	[3]     status           device status (device to host only)
//	[4-7]   address          byte offset into the firmware image
//	[8-11]  aux              payload length inbound, payload checksum outbound
//	[12-13] header checksum  additive checksum of bytes 0-11
//	[14-15] reserved         unused, carried through unchanged
//
// The same Frame type serves both directions; PayloadLength and
// PayloadChecksum name the aux field for each role.
//
// # Checksums
//
// The checksum is a plain byte sum. The header checksum keeps the low 16
// bits; the payload checksum keeps all 32. The device firmware verifies
// exactly this sum, so it must not be replaced with a CRC.
//
// # Scanning
//
// Serial reads do not respect frame boundaries. Scan locates the first
// marker in a buffer and reports one of three outcomes: a decoded frame, an
// incomplete match that needs more bytes, or no marker at all. Scanner wraps
// Scan with an accumulation buffer so frames split across reads are
// reassembled.
//
// # Usage Example
//
//	var sc protocol.Scanner
//	sc.Feed(readBytes)
//	frame, res := sc.Next()
//	if res == protocol.ScanFound {
//	    if err := frame.Verify(); err != nil {
//	        return err
//	    }
//	}
//
//	reply := protocol.NewFrame(protocol.OpCheckUpdate, 0, 0)
//	wire := reply.Seal().Encode()
//
// # Thread Safety
//
// All functions are stateless. A Scanner must not be shared between
// goroutines.
package protocol
