// Package terminal manages the state of the controlling terminal: size
// queries, raw mode, and propagating resizes to a child's PTY. Every
// operation degrades gracefully when stdin is not a terminal, so the proxy
// still works under pipes and CI.
package terminal

import (
	"os"
	"strconv"

	"github.com/creack/pty"
	"github.com/mattn/go-isatty"
	"golang.org/x/term"
)

const (
	defaultRows uint16 = 24
	defaultCols uint16 = 80
)

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Size returns the controlling terminal's dimensions. Falls back to the
// LINES/COLUMNS environment and finally to 24x80; never fails.
func Size() (rows, cols uint16) {
	if c, r, err := term.GetSize(int(os.Stdin.Fd())); err == nil && r > 0 && c > 0 {
		return uint16(r), uint16(c)
	}
	return envSize()
}

func envSize() (rows, cols uint16) {
	rows, cols = defaultRows, defaultCols
	if r, err := strconv.Atoi(os.Getenv("LINES")); err == nil && r > 0 && r <= 0xffff {
		rows = uint16(r)
	}
	if c, err := strconv.Atoi(os.Getenv("COLUMNS")); err == nil && c > 0 && c <= 0xffff {
		cols = uint16(c)
	}
	return rows, cols
}

// SetPTYSize applies dimensions to a PTY. Best effort: sizing is cosmetic,
// failures are swallowed.
func SetPTYSize(ptmx *os.File, rows, cols uint16) {
	_ = pty.Setsize(ptmx, &pty.Winsize{Rows: rows, Cols: cols})
}

// EnterRaw switches stdin to raw mode and returns a restore function. The
// restore function is idempotent and safe to call even when raw mode was
// never entered (stdin not a terminal).
func EnterRaw() func() {
	fd := int(os.Stdin.Fd())
	if !IsTerminal(os.Stdin) {
		return func() {}
	}
	state, err := term.MakeRaw(fd)
	if err != nil {
		return func() {}
	}
	restored := false
	return func() {
		if restored {
			return
		}
		restored = true
		_ = term.Restore(fd, state)
	}
}
