package protocol

import (
	"testing"
)

func inbound(op, status byte, addr, length uint32) Frame {
	return Frame{Marker: Marker, Opcode: op, Status: status, Address: addr, Aux: length}.Seal()
}

func TestScan(t *testing.T) {
	cmd := inbound(OpRequestChunk, 0, 1024, ChunkSize)
	wire := cmd.Encode()

	tests := []struct {
		name      string
		buf       []byte
		wantRes   ScanResult
		wantStart int
		wantFrame Frame
	}{
		{
			name:      "empty buffer",
			buf:       nil,
			wantRes:   ScanNoFrame,
			wantStart: -1,
		},
		{
			name:      "noise only",
			buf:       []byte{0x00, 0x11, 0x55, 0xAA, 0x22},
			wantRes:   ScanNoFrame,
			wantStart: -1,
		},
		{
			name:      "lone AA not followed by 55",
			buf:       []byte{0xAA, 0x00, 0xAA, 0xAA, 0x11},
			wantRes:   ScanNoFrame,
			wantStart: -1,
		},
		{
			name:      "frame at start",
			buf:       wire,
			wantRes:   ScanFound,
			wantStart: 0,
			wantFrame: cmd,
		},
		{
			name:      "frame after noise",
			buf:       append([]byte{0x01, 0xAA, 0x02}, wire...),
			wantRes:   ScanFound,
			wantStart: 3,
			wantFrame: cmd,
		},
		{
			name:      "frame after lone AA",
			buf:       append([]byte{0xAA}, wire...),
			wantRes:   ScanFound,
			wantStart: 1,
			wantFrame: cmd,
		},
		{
			name:      "marker with 15 bytes",
			buf:       wire[:FrameSize-1],
			wantRes:   ScanIncomplete,
			wantStart: 0,
		},
		{
			name:      "marker as the last two bytes",
			buf:       []byte{0x00, 0x00, 0xAA, 0x55},
			wantRes:   ScanIncomplete,
			wantStart: 2,
		},
		{
			// A second marker inside the short tail must not be decoded either.
			name:      "short tail containing another marker",
			buf:       []byte{0xAA, 0x55, 0x01, 0x00, 0xAA, 0x55, 0x02, 0x00, 0x00, 0x04, 0x00, 0x00},
			wantRes:   ScanIncomplete,
			wantStart: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, start, res := Scan(tt.buf)
			if res != tt.wantRes {
				t.Fatalf("Scan() result = %s, want %s", res, tt.wantRes)
			}
			if start != tt.wantStart {
				t.Errorf("Scan() start = %d, want %d", start, tt.wantStart)
			}
			if f != tt.wantFrame {
				t.Errorf("Scan() frame = %s, want %s", f, tt.wantFrame)
			}
		})
	}
}

func TestScannerReassemblesSplitFrame(t *testing.T) {
	cmd := inbound(OpReportStatus, StatusDone, 0, 0)
	wire := cmd.Encode()

	var sc Scanner
	// Split inside the marker itself
	sc.Feed([]byte{0x00, 0x00, wire[0]})
	if _, res := sc.Next(); res != ScanNoFrame {
		t.Fatalf("first read: result = %s, want no-frame", res)
	}
	if sc.Buffered() != 1 {
		t.Fatalf("trailing 0xAA not kept: buffered = %d, want 1", sc.Buffered())
	}

	sc.Feed(wire[1:9])
	if _, res := sc.Next(); res != ScanIncomplete {
		t.Fatalf("second read: result = %s, want incomplete", res)
	}
	if sc.Buffered() != 9 {
		t.Fatalf("incomplete tail: buffered = %d, want 9", sc.Buffered())
	}

	sc.Feed(wire[9:])
	f, res := sc.Next()
	if res != ScanFound {
		t.Fatalf("third read: result = %s, want found", res)
	}
	if f != cmd {
		t.Errorf("frame = %s, want %s", f, cmd)
	}
	if sc.Buffered() != 0 {
		t.Errorf("buffered after frame = %d, want 0", sc.Buffered())
	}
}

func TestScannerKeepsBytesAfterFrame(t *testing.T) {
	first := inbound(OpCheckUpdate, 0, 0, 0)
	second := inbound(OpRequestChunk, 0, 512, ChunkSize)

	var sc Scanner
	sc.Feed(append(first.Encode(), second.Encode()...))

	f, res := sc.Next()
	if res != ScanFound || f != first {
		t.Fatalf("first Next() = %s, %s; want %s, found", f, res, first)
	}
	f, res = sc.Next()
	if res != ScanFound || f != second {
		t.Fatalf("second Next() = %s, %s; want %s, found", f, res, second)
	}
	if _, res := sc.Next(); res != ScanNoFrame {
		t.Errorf("third Next() result = %s, want no-frame", res)
	}
}

func TestScannerDropsNoise(t *testing.T) {
	var sc Scanner
	sc.Feed([]byte{0x01, 0x02, 0x03, 0x55})
	if _, res := sc.Next(); res != ScanNoFrame {
		t.Fatalf("result = %s, want no-frame", res)
	}
	if sc.Buffered() != 0 {
		t.Errorf("buffered = %d, want 0 after noise", sc.Buffered())
	}
}

func TestScannerLimit(t *testing.T) {
	sc := Scanner{Limit: 32}
	sc.Feed(make([]byte, 100))
	if sc.Buffered() != 32 {
		t.Fatalf("buffered = %d, want 32", sc.Buffered())
	}

	// The newest bytes survive the cap.
	cmd := inbound(OpCheckUpdate, 0, 0, 0)
	sc.Feed(cmd.Encode())
	f, res := sc.Next()
	if res != ScanFound || f != cmd {
		t.Errorf("Next() = %s, %s; want %s, found", f, res, cmd)
	}
}

func TestScannerReset(t *testing.T) {
	var sc Scanner
	sc.Feed([]byte{0xAA, 0x55, 0x01})
	sc.Reset()
	if sc.Buffered() != 0 {
		t.Errorf("buffered after Reset = %d, want 0", sc.Buffered())
	}
}
