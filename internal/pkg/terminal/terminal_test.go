package terminal

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/x/ansi"
)

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("closed") }

func TestWrite_Bounds(t *testing.T) {
	var out bytes.Buffer
	term := newTerminal(strings.NewReader(""), &out, 10, 3, nil)

	if err := term.Write(3, 0, "x", AttrNormal); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("row past bottom: expected ErrOutOfBounds, got %v", err)
	}
	if err := term.Write(0, 10, "x", AttrNormal); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("col past right edge: expected ErrOutOfBounds, got %v", err)
	}
	if err := term.Write(-1, 0, "x", AttrNormal); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("negative row: expected ErrOutOfBounds, got %v", err)
	}
	if err := term.Write(2, 9, "x", AttrNormal); err != nil {
		t.Errorf("last cell should be writable: %v", err)
	}
}

func TestWriteRefresh_ClipsAndPositions(t *testing.T) {
	var out bytes.Buffer
	term := newTerminal(strings.NewReader(""), &out, 10, 3, nil)

	if err := term.Clear(); err != nil {
		t.Fatal(err)
	}
	if err := term.Write(1, 4, "abcdefghij", AttrNormal); err != nil {
		t.Fatal(err)
	}
	if out.Len() != 0 {
		t.Fatalf("output written before Refresh: %q", out.String())
	}
	if err := term.Refresh(); err != nil {
		t.Fatal(err)
	}
	want := ansi.EraseEntireScreen + ansi.SetCursorPosition(5, 2) + "abcdef"
	if out.String() != want {
		t.Errorf("frame = %q, want %q", out.String(), want)
	}
}

func TestReadKey(t *testing.T) {
	term := newTerminal(strings.NewReader("xq"), io.Discard, 80, 24, nil)
	if err := term.Init(); err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	for _, want := range []rune{'x', 'q'} {
		k, ok, err := term.ReadKey(ctx, time.Second)
		if err != nil || !ok || k != want {
			t.Fatalf("ReadKey = %q, %v, %v; want %q", k, ok, err, want)
		}
	}
	if _, ok, err := term.ReadKey(ctx, time.Second); ok || !errors.Is(err, io.EOF) {
		t.Errorf("expected EOF after input drained, got ok=%v err=%v", ok, err)
	}
}

func TestReadKey_Timeout(t *testing.T) {
	r, w := io.Pipe()
	defer w.Close()
	term := newTerminal(r, io.Discard, 80, 24, nil)
	if err := term.Init(); err != nil {
		t.Fatal(err)
	}

	start := time.Now()
	k, ok, err := term.ReadKey(context.Background(), 20*time.Millisecond)
	if err != nil || ok || k != 0 {
		t.Fatalf("ReadKey = %q, %v, %v; want timeout", k, ok, err)
	}
	if time.Since(start) < 20*time.Millisecond {
		t.Errorf("ReadKey returned before timeout")
	}
}

func TestReadKey_ContextCanceled(t *testing.T) {
	r, w := io.Pipe()
	defer w.Close()
	term := newTerminal(r, io.Discard, 80, 24, nil)
	if err := term.Init(); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := term.ReadKey(ctx, time.Minute); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestInit_WriteFailure(t *testing.T) {
	r, w := io.Pipe()
	defer w.Close()
	term := newTerminal(r, failingWriter{}, 80, 24, nil)

	if err := term.Init(); err == nil {
		t.Fatal("expected Init to fail when the output is not writable")
	}
	if term.state != nil {
		t.Error("terminal state should be restored after a failed Init")
	}
	if _, ok, err := term.ReadKey(context.Background(), 10*time.Millisecond); ok || err != nil {
		t.Errorf("key reader should not run after a failed Init, got ok=%v err=%v", ok, err)
	}
}

func TestReadKey_CtrlCInterrupts(t *testing.T) {
	term := newTerminal(strings.NewReader("\x03q"), io.Discard, 80, 24, nil)
	interrupted := make(chan struct{})
	term.OnInterrupt(func() { close(interrupted) })
	if err := term.Init(); err != nil {
		t.Fatal(err)
	}

	k, ok, err := term.ReadKey(context.Background(), time.Second)
	if err != nil || !ok || k != 'q' {
		t.Fatalf("Ctrl-C should not be delivered as a key, got %q, %v, %v", k, ok, err)
	}
	select {
	case <-interrupted:
	default:
		t.Error("Ctrl-C should run the interrupt hook")
	}
}
