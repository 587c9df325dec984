package protocol

import (
	"hash/crc32"
	"testing"
)

func TestChecksum(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		expected uint32
	}{
		{
			name:     "empty data",
			data:     []byte{},
			expected: 0,
		},
		{
			name:     "single byte",
			data:     []byte{0xAA},
			expected: 0xAA,
		},
		{
			name:     "multiple bytes",
			data:     []byte{0x01, 0x02, 0x03, 0x04},
			expected: 0x0A,
		},
		{
			name:     "sum exceeds 16 bits",
			data:     bytesOf(0xFF, ChunkSize),
			expected: 0xFF * ChunkSize, // 0x1FE00
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Checksum(tt.data); got != tt.expected {
				t.Errorf("Checksum() = 0x%08X, want 0x%08X", got, tt.expected)
			}
		})
	}
}

func TestHeaderChecksumTruncates(t *testing.T) {
	data := bytesOf(0xFF, ChunkSize)
	if got := HeaderChecksum(data); got != 0xFE00 {
		t.Errorf("HeaderChecksum() = 0x%04X, want 0xFE00", got)
	}
}

func TestChecksumIgnoresByteOrder(t *testing.T) {
	data := []byte{0x10, 0x20, 0x30, 0xAA, 0x55, 0xFF, 0x00, 0x7E}
	reversed := make([]byte, len(data))
	for i, b := range data {
		reversed[len(data)-1-i] = b
	}
	rotated := append(append([]byte{}, data[3:]...), data[:3]...)

	want := Checksum(data)
	if got := Checksum(reversed); got != want {
		t.Errorf("reversed checksum = 0x%X, want 0x%X", got, want)
	}
	if got := Checksum(rotated); got != want {
		t.Errorf("rotated checksum = 0x%X, want 0x%X", got, want)
	}
}

// The device verifies a plain byte sum. A CRC would also be order-sensitive,
// so both the value and the permutation behaviour are checked.
func TestChecksumIsNotCRC(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03, 0x04}
	swapped := []byte{0x04, 0x03, 0x02, 0x01}

	if Checksum(data) == crc32.ChecksumIEEE(data) {
		t.Fatal("Checksum() matches CRC-32; the additive scheme must be kept")
	}
	if crc32.ChecksumIEEE(data) == crc32.ChecksumIEEE(swapped) {
		t.Fatal("test vectors do not distinguish CRC from sum")
	}
	if Checksum(data) != Checksum(swapped) {
		t.Error("Checksum() depends on byte order; expected an additive sum")
	}
	// A sum over n bytes can never exceed 255*n; CRC-32 values routinely do.
	if got := Checksum(data); got > 255*uint32(len(data)) {
		t.Errorf("Checksum() = 0x%X exceeds the maximum byte sum", got)
	}
}

func BenchmarkChecksum(b *testing.B) {
	data := make([]byte, ChunkSize)
	for i := range data {
		data[i] = byte(i)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Checksum(data)
	}
}

func bytesOf(v byte, n int) []byte {
	p := make([]byte, n)
	for i := range p {
		p[i] = v
	}
	return p
}
