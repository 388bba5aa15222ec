package dashboard

import (
	"context"
	"time"

	"smmon/internal/pkg/terminal"
)

// Screen is the terminal capability the dashboard draws on.
type Screen interface {
	Init() error
	Clear() error
	Write(row, col int, text string, attr terminal.Attr) error
	Refresh() error
	// ReadKey blocks until a key is pressed or timeout expires; ok is false
	// on timeout.
	ReadKey(ctx context.Context, timeout time.Duration) (key rune, ok bool, err error)
	Close() error
}
