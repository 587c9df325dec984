package updater

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/muurk/fwupdater/internal/logging"
	"github.com/muurk/fwupdater/internal/protocol"
	"github.com/muurk/fwupdater/internal/transport"
)

// Channel is the byte link to the device. Read returns (0, nil) or an
// error wrapping transport.ErrTimeout when nothing arrived in time.
type Channel interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
}

// Image is the firmware the device reads from.
type Image interface {
	io.ReaderAt
	Size() int64
}

// Driver runs one update session over a Channel.
type Driver struct {
	ch      Channel
	img     Image
	config  Config
	id      ulid.ULID
	session Session
	scanner protocol.Scanner
	scratch [protocol.ChunkSize]byte

	start     time.Time
	bytesSent int64
}

// New creates a driver for one update of img over ch.
func New(ch Channel, img Image, opts ...Option) *Driver {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	id, err := ulid.New(ulid.Now(), rand.Reader)
	if err != nil {
		id = ulid.Make()
	}

	return &Driver{
		ch:      ch,
		img:     img,
		config:  cfg,
		id:      id,
		session: NewSession(),
	}
}

// ID returns the session identifier attached to every log line of the run.
func (d *Driver) ID() string {
	return d.id.String()
}

// Session returns the current protocol state.
func (d *Driver) Session() Session {
	return d.session
}

// Run performs the handshake and then answers device commands until the
// device reports completion. It returns nil on completion and a
// *StageError otherwise.
func (d *Driver) Run(ctx context.Context) error {
	d.start = time.Now()
	log := logging.GetLogger().With(zap.String("session", d.ID()))
	log.Info("Update started",
		zap.Int64("image_size", d.img.Size()),
		zap.Duration("handshake_interval", d.config.Timing.HandshakeInterval),
		zap.Duration("poll_interval", d.config.Timing.PollInterval),
	)

	if err := d.handshake(ctx, log); err != nil {
		log.Error("Handshake failed", zap.Error(err))
		return err
	}

	if err := d.serve(ctx, log); err != nil {
		log.Error("Update failed", zap.Error(err), zap.Int("chunks", d.session.Chunks))
		return err
	}

	log.Info("Update complete",
		zap.Int("chunks", d.session.Chunks),
		zap.Int64("bytes_sent", d.bytesSent),
		zap.Duration("elapsed", time.Since(d.start)),
	)
	d.emit(Event{Kind: EventComplete})
	return nil
}

// handshake sends START_UPD^_^ until the device answers RECEIVESTART.
// There is no attempt limit; cancel ctx to give up.
func (d *Driver) handshake(ctx context.Context, log *zap.Logger) error {
	request := []byte(HandshakeRequest)

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return d.fail(StageHandshake, err)
		}

		if _, err := d.ch.Write(request); err != nil {
			return d.fail(StageHandshake, fmt.Errorf("send handshake: %w", err))
		}
		d.emit(Event{Kind: EventHandshakeAttempt, Attempt: attempt})

		n, err := d.read()
		if err != nil {
			return d.fail(StageHandshake, fmt.Errorf("read handshake response: %w", err))
		}
		if n > 0 {
			logging.LogRawBytes("Handshake response", d.scratch[:n])
		}

		next := d.session.Acknowledge(d.scratch[:n])
		if next.Phase != d.session.Phase {
			log.Info("Handshake acknowledged", zap.Int("attempt", attempt))
			d.advance(next)
			d.emit(Event{Kind: EventHandshakeAcked, Attempt: attempt})
			d.advance(d.session.Begin())
			return nil
		}

		if err := sleep(ctx, d.config.Timing.HandshakeInterval); err != nil {
			return d.fail(StageHandshake, err)
		}
	}
}

// serve answers commands until the device reports status 0xFF.
func (d *Driver) serve(ctx context.Context, log *zap.Logger) error {
	for d.session.Phase != PhaseComplete {
		if err := sleep(ctx, d.config.Timing.PollInterval); err != nil {
			return d.fail(StageUpdate, err)
		}

		cmd, ok, err := d.receive()
		if err != nil {
			return d.fail(StageTransport, fmt.Errorf("read command: %w", err))
		}
		if !ok {
			d.emit(Event{Kind: EventIdle})
			continue
		}
		logging.LogFrame("rx", cmd, zap.String("session", d.ID()))

		next, reply, err := d.session.Transition(cmd, d.img)
		if err != nil {
			return err
		}
		if reply != nil {
			if err := d.send(reply); err != nil {
				return d.fail(StageTransport, err)
			}
			if reply.Payload != nil {
				d.bytesSent += int64(reply.ImageBytes)
				if reply.ImageBytes == 0 {
					log.Warn("Chunk requested past end of image",
						zap.String("address", fmt.Sprintf("0x%08X", cmd.Address)),
						zap.Int64("image_size", d.img.Size()),
					)
				}
			}
		}

		d.advance(next)
		d.emit(Event{Kind: EventCommand, Command: cmd})

		switch cmd.Opcode {
		case protocol.OpRequestChunk:
			d.emit(Event{Kind: EventChunkSent, Command: cmd})
		case protocol.OpReportStatus:
			log.Info("Device status", zap.Uint8("status", cmd.Status))
			d.emit(Event{Kind: EventStatus, Command: cmd})
		case protocol.OpCheckUpdate:
		default:
			log.Debug("Ignoring unknown opcode", zap.String("opcode", cmd.OpcodeString()))
		}
	}
	return nil
}

// receive returns the next complete command, reading from the channel only
// when none is already buffered.
func (d *Driver) receive() (protocol.Frame, bool, error) {
	if f, res := d.scanner.Next(); res == protocol.ScanFound {
		return f, true, nil
	}

	n, err := d.read()
	if err != nil || n == 0 {
		return protocol.Frame{}, false, err
	}
	d.scanner.Feed(d.scratch[:n])

	f, res := d.scanner.Next()
	return f, res == protocol.ScanFound, nil
}

// read fills the scratch buffer with one channel read. Timeouts are reported
// as zero bytes.
func (d *Driver) read() (int, error) {
	n, err := d.ch.Read(d.scratch[:])
	if errors.Is(err, transport.ErrTimeout) {
		return 0, nil
	}
	return n, err
}

// send writes the reply header and, for chunk replies, the payload as a
// second write.
func (d *Driver) send(r *Reply) error {
	logging.LogFrame("tx", r.Frame, zap.String("session", d.ID()))
	if _, err := d.ch.Write(r.Frame.Encode()); err != nil {
		return fmt.Errorf("send %s reply: %w", r.Frame.OpcodeString(), err)
	}
	if r.Payload == nil {
		return nil
	}
	if _, err := d.ch.Write(r.Payload); err != nil {
		return fmt.Errorf("send chunk payload: %w", err)
	}
	return nil
}

func (d *Driver) advance(next Session) {
	if next.Phase != d.session.Phase {
		logging.LogTransition(d.session.Phase.String(), next.Phase.String(), zap.String("session", d.ID()))
	}
	d.session = next
}

func (d *Driver) fail(stage Stage, err error) error {
	return &StageError{Stage: stage, Phase: d.session.Phase, Err: err}
}

func (d *Driver) emit(e Event) {
	if d.config.OnEvent == nil {
		return
	}
	e.Phase = d.session.Phase
	e.Address = d.session.Address
	e.Chunks = d.session.Chunks
	e.BytesSent = d.bytesSent
	e.ImageSize = d.img.Size()
	e.Elapsed = time.Since(d.start)
	d.config.OnEvent(e)
}

// sleep waits for dur or until ctx is done.
func sleep(ctx context.Context, dur time.Duration) error {
	if dur <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(dur)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
