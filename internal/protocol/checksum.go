package protocol

// Checksum returns the additive checksum of p: the sum of all byte values,
// wrapping at 32 bits.
//
// This is the scheme the device bootloader verifies. It is deliberately weak
// (byte order does not affect it) and must not be swapped for a CRC.
func Checksum(p []byte) uint32 {
	var sum uint32
	for _, b := range p {
		sum += uint32(b)
	}
	return sum
}

// HeaderChecksum returns the 16-bit header checksum of p, the low half of
// Checksum(p).
func HeaderChecksum(p []byte) uint16 {
	return uint16(Checksum(p))
}
