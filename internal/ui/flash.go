package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/muurk/fwupdater/internal/protocol"
	"github.com/muurk/fwupdater/internal/updater"
)

// FlashRunnerConfig holds configuration for a flash run
type FlashRunnerConfig struct {
	Title   string            // Command title (e.g., "Firmware Update")
	Command string            // Full command (e.g., "fwupdater flash")
	Params  map[string]string // Parameters to display in header
	Plain   bool              // Line output instead of the live view
	Output  io.Writer         // Output writer (default: os.Stdout)
}

// FlashOperation runs the update, reporting progress through onEvent.
type FlashOperation func(ctx context.Context, onEvent updater.EventFunc) error

// FlashRunner orchestrates the UI for a flash run. It manages the
// header → progress → result flow, in either the live bubbletea view or
// plain line output.
type FlashRunner struct {
	config    FlashRunnerConfig
	header    *Header
	output    io.Writer
	width     int
	startTime time.Time
	last      updater.Event
}

// NewFlashRunner creates a new runner for a flash command
func NewFlashRunner(config FlashRunnerConfig) *FlashRunner {
	if config.Output == nil {
		config.Output = os.Stdout
	}

	width := GetTerminalWidth()
	return &FlashRunner{
		config: config,
		header: NewHeader(config.Title, config.Command, config.Params).SetWidth(width),
		output: config.Output,
		width:  width,
	}
}

// Run executes the operation with UI updates and prints the result box.
func (r *FlashRunner) Run(ctx context.Context, op FlashOperation) error {
	r.startTime = time.Now()

	_, _ = fmt.Fprintln(r.output, r.header.Render())
	_, _ = fmt.Fprintln(r.output)

	var err error
	if r.config.Plain {
		err = r.runPlain(ctx, op)
	} else {
		err = r.runInteractive(ctx, op)
	}

	duration := time.Since(r.startTime)
	_, _ = fmt.Fprintln(r.output)
	if err != nil {
		result := NewFailureResult(r.config.Title+" failed", err, Troubleshooting(err))
		if stage := updater.StageOf(err); stage != "" {
			result.AddDetail("Stage", string(stage))
		}
		result.AddDetail("Duration", duration.Round(time.Millisecond).String())
		_, _ = fmt.Fprintln(r.output, result.SetWidth(r.width).Render())
		return err
	}

	result := NewSuccessResult(r.config.Title+" complete", map[string]string{
		"Duration": duration.Round(time.Millisecond).String(),
		"Chunks":   fmt.Sprintf("%d", r.last.Chunks),
		"Sent":     FormatBytes(r.last.BytesSent),
	})
	_, _ = fmt.Fprintln(r.output, result.SetWidth(r.width).Render())
	return nil
}

// runPlain prints one line per milestone and a dot per idle poll.
func (r *FlashRunner) runPlain(ctx context.Context, op FlashOperation) error {
	p := NewPlainPrinter(r.output)
	err := op(ctx, func(e updater.Event) {
		r.last = e
		p.Event(e)
	})
	p.Finish()
	return err
}

// runInteractive runs the operation in a goroutine and renders its events
// in a bubbletea program. ctrl+c cancels the operation and waits for it to
// return.
func (r *FlashRunner) runInteractive(ctx context.Context, op FlashOperation) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := newFlashModel(cancel, r.width)
	program := tea.NewProgram(model, tea.WithOutput(r.output))

	done := make(chan error, 1)
	go func() {
		err := op(ctx, func(e updater.Event) {
			program.Send(flashEventMsg(e))
		})
		done <- err
		program.Send(flashDoneMsg{err: err})
	}()

	final, runErr := program.Run()
	cancel()
	err := <-done

	if fm, ok := final.(flashModel); ok {
		r.last = fm.last
	}
	if err == nil && runErr != nil {
		return runErr
	}
	return err
}

type flashEventMsg updater.Event

type flashDoneMsg struct{ err error }

// flashModel is the live flash view: a spinner while waiting for the
// device, then the progress bar and step list.
type flashModel struct {
	spinner    spinner.Model
	progress   *Progress
	last       updater.Event
	cancel     context.CancelFunc
	cancelling bool
	err        error
	done       bool
}

func newFlashModel(cancel context.CancelFunc, width int) flashModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	return flashModel{
		spinner:  s,
		progress: NewFlashProgress().SetWidth(width),
		cancel:   cancel,
	}
}

// Init implements tea.Model
func (m flashModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update implements tea.Model
func (m flashModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" && !m.cancelling {
			m.cancelling = true
			m.cancel()
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.progress.SetWidth(min(max(msg.Width, MinTerminalWidth), MaxContentWidth))
		return m, nil

	case flashEventMsg:
		m.last = updater.Event(msg)
		m.progress.Apply(m.last)
		return m, nil

	case flashDoneMsg:
		m.done = true
		m.err = msg.err
		if msg.err != nil {
			m.progress.Fail(string(updater.StageOf(msg.err)))
		}
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View implements tea.Model
func (m flashModel) View() string {
	var b strings.Builder

	if !m.done && m.last.Phase == updater.PhaseAwaitingHandshakeAck {
		b.WriteString(ProgressLabelStyle.Render(m.spinner.View() + " Waiting for device to acknowledge..."))
		b.WriteString("\n\n")
	}

	b.WriteString(m.progress.Render())
	b.WriteString("\n\n")

	if m.last.BytesSent > 0 {
		b.WriteString(StatsStyle.Render(statsLine(m.last)))
		b.WriteString("\n")
	}

	switch {
	case m.done:
	case m.cancelling:
		b.WriteString(HintStyle.Render("cancelling..."))
		b.WriteString("\n")
	default:
		b.WriteString(HintStyle.Render("ctrl+c to abort"))
		b.WriteString("\n")
	}

	return b.String()
}

func statsLine(e updater.Event) string {
	line := fmt.Sprintf("%s sent · %d chunks", FormatBytes(e.BytesSent), e.Chunks)
	if secs := e.Elapsed.Seconds(); secs > 0 {
		line += fmt.Sprintf(" · %s/s", FormatBytes(int64(float64(e.BytesSent)/secs)))
	}
	return line
}

// PlainPrinter renders driver events as plain lines, for logs and pipes.
// Idle polls print a dot, so a stalled device is visible.
type PlainPrinter struct {
	out    io.Writer
	dotted bool
}

// NewPlainPrinter creates a PlainPrinter writing to w
func NewPlainPrinter(w io.Writer) *PlainPrinter {
	return &PlainPrinter{out: w}
}

// Event prints one driver event
func (p *PlainPrinter) Event(e updater.Event) {
	switch e.Kind {
	case updater.EventHandshakeAttempt:
		if e.Attempt == 1 {
			p.line("Waiting for device")
			return
		}
		p.dot()
	case updater.EventIdle:
		p.dot()
	case updater.EventHandshakeAcked:
		p.line(fmt.Sprintf("Device acknowledged after %d attempt(s)", e.Attempt))
	case updater.EventCommand:
		if e.Command.Opcode == protocol.OpCheckUpdate {
			p.line("Device checking for update")
		}
	case updater.EventChunkSent:
		p.line(fmt.Sprintf("Chunk 0x%08X  %s / %s  %3.0f%%",
			e.Command.Address, FormatBytes(int64(e.Address)), FormatBytes(e.ImageSize), e.Fraction()*100))
	case updater.EventStatus:
		p.line(fmt.Sprintf("Device status 0x%02X", e.Command.Status))
	case updater.EventComplete:
		p.line(fmt.Sprintf("Update complete: %d chunks, %s in %s",
			e.Chunks, FormatBytes(e.BytesSent), e.Elapsed.Round(time.Millisecond)))
	}
}

// Finish ends a pending line of dots
func (p *PlainPrinter) Finish() {
	if p.dotted {
		_, _ = fmt.Fprintln(p.out)
		p.dotted = false
	}
}

func (p *PlainPrinter) dot() {
	_, _ = fmt.Fprint(p.out, ".")
	p.dotted = true
}

func (p *PlainPrinter) line(s string) {
	p.Finish()
	_, _ = fmt.Fprintln(p.out, s)
}

// Troubleshooting returns tips for a failed run, keyed on the stage that
// failed.
func Troubleshooting(err error) []string {
	if errors.Is(err, context.Canceled) {
		return []string{
			"The update was interrupted; the device stays in its bootloader",
			"Run the update again to resume from the start",
		}
	}

	switch updater.StageOf(err) {
	case updater.StageHandshake:
		return []string{
			"Check the device is powered and in bootloader mode",
			"Check the serial port and baud rate (fwupdater config show)",
			"List available ports with: fwupdater ports",
		}
	case updater.StageDecode:
		return []string{
			"A corrupt command frame was received; check cabling and baud rate",
			"Run with --log-level debug to see the raw frames",
		}
	case updater.StageImage:
		return []string{
			"Check the image file is readable and not being rewritten",
			"Intel HEX images must end with an EOF record",
		}
	case updater.StageTransport:
		return []string{
			"The serial link failed; check the device is still connected",
			"Close other programs using the port",
		}
	default:
		return []string{
			"Run with --log-level debug for protocol details",
		}
	}
}
