package transport

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"time"
)

type fakePort struct {
	reads    [][]byte
	readErr  error
	written  bytes.Buffer
	maxWrite int
	writeErr error
	closed   bool
	timeout  time.Duration
}

func (p *fakePort) Read(b []byte) (int, error) {
	if p.readErr != nil {
		return 0, p.readErr
	}
	if len(p.reads) == 0 {
		return 0, nil // what go.bug.st/serial does on timeout
	}
	n := copy(b, p.reads[0])
	p.reads = p.reads[1:]
	return n, nil
}

func (p *fakePort) Write(b []byte) (int, error) {
	if p.writeErr != nil {
		return 0, p.writeErr
	}
	if p.maxWrite > 0 && len(b) > p.maxWrite {
		b = b[:p.maxWrite]
	}
	return p.written.Write(b)
}

func (p *fakePort) Close() error {
	p.closed = true
	return nil
}

func (p *fakePort) SetReadTimeout(t time.Duration) error {
	p.timeout = t
	return nil
}

func TestSerialRead(t *testing.T) {
	port := &fakePort{reads: [][]byte{[]byte("RECEIVESTART")}}
	s := NewSerial("fake0", port)

	buf := make([]byte, 512)
	n, err := s.Read(buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if string(buf[:n]) != "RECEIVESTART" {
		t.Errorf("Read() = %q, want RECEIVESTART", buf[:n])
	}

	// Nothing queued: the port reports (0, nil) which must become ErrTimeout.
	n, err = s.Read(buf)
	if n != 0 || !errors.Is(err, ErrTimeout) {
		t.Errorf("Read() on idle port = %d, %v; want 0, ErrTimeout", n, err)
	}
}

func TestSerialReadError(t *testing.T) {
	portErr := errors.New("device unplugged")
	s := NewSerial("fake0", &fakePort{readErr: portErr})

	_, err := s.Read(make([]byte, 8))
	if !errors.Is(err, portErr) {
		t.Errorf("Read() error = %v, want to wrap %v", err, portErr)
	}
	if errors.Is(err, ErrTimeout) {
		t.Error("port failure reported as timeout")
	}
}

func TestSerialWriteCompletesPartialWrites(t *testing.T) {
	port := &fakePort{maxWrite: 5}
	s := NewSerial("fake0", port)

	payload := bytes.Repeat([]byte{0x5A}, 23)
	n, err := s.Write(payload)
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if n != len(payload) || !bytes.Equal(port.written.Bytes(), payload) {
		t.Errorf("Write() wrote %d bytes (%d on port), want %d", n, port.written.Len(), len(payload))
	}
}

type stalledPort struct{ fakePort }

func (p *stalledPort) Write(b []byte) (int, error) { return 0, nil }

func TestSerialWriteErrors(t *testing.T) {
	writeErr := errors.New("io failure")
	if _, err := NewSerial("fake0", &fakePort{writeErr: writeErr}).Write([]byte{1}); !errors.Is(err, writeErr) {
		t.Errorf("Write() error = %v, want to wrap %v", err, writeErr)
	}
	if _, err := NewSerial("fake0", &stalledPort{}).Write([]byte{1}); !errors.Is(err, io.ErrShortWrite) {
		t.Errorf("Write() on stalled port error = %v, want io.ErrShortWrite", err)
	}
}

func TestSerialClose(t *testing.T) {
	port := &fakePort{}
	s := NewSerial("fake0", port)
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !port.closed {
		t.Error("Close() did not close the port")
	}
	if s.Name() != "fake0" {
		t.Errorf("Name() = %q, want fake0", s.Name())
	}
}
