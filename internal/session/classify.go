package session

import "path/filepath"

// Mode selects how the child's I/O is wired up.
type Mode int

const (
	// Interactive runs the child on a PTY with full title interception.
	Interactive Mode = iota
	// NonInteractive connects the child straight to our standard streams.
	NonInteractive
)

func (m Mode) String() string {
	if m == NonInteractive {
		return "direct"
	}
	return "pty"
}

// Command names known to want a real terminal: shells, editors, pagers,
// REPLs, multiplexers, monitors.
var interactiveCommands = map[string]bool{
	"vim": true, "vi": true, "nano": true, "emacs": true,
	"htop": true, "top": true, "btop": true, "atop": true,
	"less": true, "more": true, "man": true,
	"tmux": true, "screen": true,
	"bash": true, "sh": true, "zsh": true, "fish": true,
	"python": true, "python3": true, "ipython": true,
	"node": true, "irb": true, "ghci": true,
}

// Command names known to run fine without a PTY.
var nonInteractiveCommands = map[string]bool{
	"sleep": true, "echo": true, "cat": true, "grep": true,
	"find": true, "sort": true,
	"make": true, "gcc": true, "clang": true, "cargo": true,
	"npm": true, "pip": true,
	"git": true, "curl": true, "wget": true, "tar": true, "gzip": true,
}

// Classify picks the execution mode for a command from its base name. The
// lookup is a heuristic, not a guarantee; unknown commands default to
// Interactive because a PTY never breaks a program, while withholding one
// from a program that needs a terminal would.
func Classify(command []string, extraInteractive, extraNonInteractive []string) Mode {
	if len(command) == 0 {
		return Interactive
	}
	name := filepath.Base(command[0])

	for _, n := range extraNonInteractive {
		if n == name {
			return NonInteractive
		}
	}
	for _, n := range extraInteractive {
		if n == name {
			return Interactive
		}
	}
	if nonInteractiveCommands[name] {
		return NonInteractive
	}
	if interactiveCommands[name] {
		return Interactive
	}
	return Interactive
}
