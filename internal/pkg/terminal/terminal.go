// Package terminal implements a cell-addressed screen on top of an ANSI
// terminal in raw mode.
package terminal

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/charmbracelet/x/term"
	"github.com/mattn/go-runewidth"
)

// Attr is an emphasis attribute applied to written text.
type Attr int

const (
	AttrNormal Attr = iota
	AttrBold
)

var (
	// ErrOutOfBounds is returned when a write starts outside the screen.
	ErrOutOfBounds = errors.New("write outside of screen")
	// ErrNotTerminal is returned by Init when input or output is not a tty.
	ErrNotTerminal = errors.New("not a terminal")
)

// Terminal is a screen backed by a pair of files. Writes are buffered into
// a frame and sent to the output on Refresh.
type Terminal struct {
	in  io.Reader
	out io.Writer

	tty         bool
	inFd, outFd uintptr
	state       *term.State

	width, height int
	frame         bytes.Buffer
	bold          lipgloss.Style

	keys        chan rune
	done        chan struct{}
	readErr     error
	onInterrupt func()

	logger *slog.Logger
}

// New returns a Terminal reading keys from in and drawing to out. Both must
// be terminals; Init puts in into raw mode.
func New(in, out *os.File, logger *slog.Logger) *Terminal {
	t := newTerminal(in, out, 80, 24, logger)
	t.tty = true
	t.inFd = in.Fd()
	t.outFd = out.Fd()
	t.bold = lipgloss.NewRenderer(out).NewStyle().Bold(true)
	return t
}

func newTerminal(in io.Reader, out io.Writer, width, height int, logger *slog.Logger) *Terminal {
	if logger == nil {
		logger = slog.Default()
	}
	return &Terminal{
		in:     in,
		out:    out,
		width:  width,
		height: height,
		bold:   lipgloss.NewStyle().Bold(true),
		keys:   make(chan rune),
		done:   make(chan struct{}),
		logger: logger,
	}
}

// OnInterrupt registers fn to run when Ctrl-C is read. Raw mode delivers
// Ctrl-C as a byte instead of SIGINT. Must be called before Init.
func (t *Terminal) OnInterrupt(fn func()) { t.onInterrupt = fn }

// Init switches the terminal to raw mode and the alternate screen, and
// starts reading keys. On failure the terminal is left in its original mode.
func (t *Terminal) Init() error {
	if t.tty {
		if !term.IsTerminal(t.inFd) || !term.IsTerminal(t.outFd) {
			return ErrNotTerminal
		}
		state, err := term.MakeRaw(t.inFd)
		if err != nil {
			return fmt.Errorf("unable to set raw mode: %w", err)
		}
		t.state = state
	}
	t.resize()
	if _, err := io.WriteString(t.out, ansi.SetAltScreenSaveCursorMode+ansi.HideCursor); err != nil {
		if rerr := t.restore(); rerr != nil {
			t.logger.Error("unable to restore terminal", "err", rerr)
		}
		return fmt.Errorf("unable to enter alternate screen: %w", err)
	}
	go t.readKeys()
	return nil
}

// Close leaves the alternate screen and restores the original terminal mode.
// The key reader stays blocked on input until the process exits.
func (t *Terminal) Close() error {
	_, err := io.WriteString(t.out, ansi.ShowCursor+ansi.ResetAltScreenSaveCursorMode)
	if rerr := t.restore(); rerr != nil {
		return rerr
	}
	return err
}

func (t *Terminal) restore() error {
	if t.state == nil {
		return nil
	}
	if err := term.Restore(t.inFd, t.state); err != nil {
		return fmt.Errorf("unable to restore terminal: %w", err)
	}
	t.state = nil
	return nil
}

// Clear starts a new, empty frame sized to the current terminal.
func (t *Terminal) Clear() error {
	t.resize()
	t.frame.Reset()
	t.frame.WriteString(ansi.EraseEntireScreen)
	return nil
}

// Write places text at row, col (zero based). Text running past the right
// edge is clipped.
func (t *Terminal) Write(row, col int, text string, attr Attr) error {
	if row < 0 || col < 0 || row >= t.height || col >= t.width {
		return fmt.Errorf("%w: row %d col %d on %dx%d", ErrOutOfBounds, row, col, t.width, t.height)
	}
	text = runewidth.Truncate(text, t.width-col, "")
	if attr == AttrBold {
		text = t.bold.Render(text)
	}
	t.frame.WriteString(ansi.SetCursorPosition(col+1, row+1))
	t.frame.WriteString(text)
	return nil
}

// Refresh sends the current frame to the output.
func (t *Terminal) Refresh() error {
	_, err := t.out.Write(t.frame.Bytes())
	t.frame.Reset()
	return err
}

// ReadKey waits up to timeout for a key press. ok is false when the timeout
// expired without input.
func (t *Terminal) ReadKey(ctx context.Context, timeout time.Duration) (rune, bool, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case k := <-t.keys:
		return k, true, nil
	case <-t.done:
		return 0, false, t.readErr
	case <-timer.C:
		return 0, false, nil
	case <-ctx.Done():
		return 0, false, ctx.Err()
	}
}

func (t *Terminal) readKeys() {
	r := bufio.NewReader(t.in)
	for {
		k, _, err := r.ReadRune()
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = fmt.Errorf("keyboard input closed: %w", err)
			}
			t.readErr = err
			close(t.done)
			return
		}
		if k == ansi.ETX && t.onInterrupt != nil {
			t.onInterrupt()
			continue
		}
		t.keys <- k
	}
}

func (t *Terminal) resize() {
	if !t.tty {
		return
	}
	w, h, err := term.GetSize(t.outFd)
	if err != nil {
		t.logger.Debug("unable to get terminal size", "err", err)
		return
	}
	t.width, t.height = w, h
}
