package protocol

import (
	"bytes"
	"errors"
	"testing"
	"testing/iotest"
)

func wire(op, status byte, addr uint32) []byte {
	return inbound(op, status, addr, ChunkSize).Encode()
}

func TestAnalyze(t *testing.T) {
	var capture []byte
	capture = append(capture, "RECEIVESTART"...)
	capture = append(capture, wire(OpCheckUpdate, 0, 0)...)
	for addr := uint32(0); addr < 3*ChunkSize; addr += ChunkSize {
		capture = append(capture, wire(OpRequestChunk, 0, addr)...)
	}
	capture = append(capture, 0x00, 0x13, 0x37) // line noise

	bad := wire(OpRequestChunk, 0, 0)
	bad[4] ^= 0xFF
	capture = append(capture, bad...)

	capture = append(capture, wire(OpReportStatus, 0x01, 0)...)
	capture = append(capture, wire(OpReportStatus, StatusDone, 0)...)
	capture = append(capture, MarkerBytes[0], MarkerBytes[1], 0x02) // truncated

	// One byte per read splits every frame across reads.
	stats, err := Analyze(iotest.OneByteReader(bytes.NewReader(capture)))
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if stats.Bytes != int64(len(capture)) {
		t.Errorf("Bytes = %d, want %d", stats.Bytes, len(capture))
	}
	if stats.Frames != 7 {
		t.Errorf("Frames = %d, want 7", stats.Frames)
	}
	if stats.Valid != 6 || stats.Invalid() != 1 {
		t.Errorf("Valid = %d, Invalid = %d; want 6, 1", stats.Valid, stats.Invalid())
	}
	if stats.Opcodes[OpRequestChunk] != 3 || stats.Opcodes[OpCheckUpdate] != 1 || stats.Opcodes[OpReportStatus] != 2 {
		t.Errorf("Opcodes = %v", stats.Opcodes)
	}
	if stats.Statuses[StatusDone] != 1 || stats.Statuses[0x01] != 1 {
		t.Errorf("Statuses = %v", stats.Statuses)
	}
	if stats.Trailing != 3 {
		t.Errorf("Trailing = %d, want 3", stats.Trailing)
	}

	f := stats.Failures[0]
	if f.Index != 4 {
		t.Errorf("failure index = %d, want 4", f.Index)
	}
	if !errors.Is(f.Err, ErrChecksumMismatch) {
		t.Errorf("failure error = %v, want ErrChecksumMismatch", f.Err)
	}
}

func TestAnalyzeReadError(t *testing.T) {
	boom := errors.New("boom")
	_, err := Analyze(iotest.ErrReader(boom))
	if !errors.Is(err, boom) {
		t.Errorf("Analyze() error = %v, want %v", err, boom)
	}
}
