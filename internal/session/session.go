// Package session runs one monitored command: it picks an execution mode,
// relays the child's I/O, and keeps resource stats flowing into the terminal
// title for the lifetime of the child.
package session

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"shellback/internal/stats"
	"shellback/internal/title"
)

// Default timing constants. The suppression window keeps a proactive push
// from clobbering a title the child just set; the push gap bounds how often
// the sampler may write titles on its own.
const (
	DefaultInterval = 2 * time.Second

	titleSuppressionWindow = 1 * time.Second
	titlePushGap           = 500 * time.Millisecond
)

// Session is the mutable context for one monitored invocation. The relay
// loop (foreground) and the sampler (background goroutine) share it; the
// mutex guards every field they both touch.
type Session struct {
	Command  []string
	Interval time.Duration
	Prefix   string
	Provider stats.Provider
	Log      zerolog.Logger
	ID       string

	// Extra classification entries from user config.
	ExtraInteractive    []string
	ExtraNonInteractive []string

	// In/Out/ErrOut are the real terminal's streams. Overridable in tests;
	// default to the process's standard streams.
	In     *os.File
	Out    io.Writer
	ErrOut io.Writer

	suppressWindow time.Duration
	pushGap        time.Duration

	mu            sync.Mutex
	ptmx          *os.File
	pid           int32
	lastStats     string
	lastTitle     string
	lastIntercept time.Time
	lastPush      time.Time
	defaultTitle  string

	interrupted atomic.Bool
	done        chan struct{}
	stopOnce    sync.Once
}

// New builds a session around command with the given sampling interval and
// title prefix.
func New(command []string, interval time.Duration, prefix string, provider stats.Provider, log zerolog.Logger) *Session {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Session{
		Command:        command,
		Interval:       interval,
		Prefix:         prefix,
		Provider:       provider,
		Log:            log,
		In:             os.Stdin,
		Out:            os.Stdout,
		ErrOut:         os.Stderr,
		suppressWindow: titleSuppressionWindow,
		pushGap:        titlePushGap,
		done:           make(chan struct{}),
	}
}

// Run executes the command in the mode Classify selects and returns its exit
// code. The terminal title is reset on every exit path.
func (s *Session) Run() (int, error) {
	if len(s.Command) == 0 {
		return 1, errors.New("no command to run")
	}
	s.setDefaultTitle(deriveDefaultTitle(s.Command))

	mode := Classify(s.Command, s.ExtraInteractive, s.ExtraNonInteractive)
	s.Log.Debug().
		Str("session", s.ID).
		Strs("command", s.Command).
		Stringer("mode", mode).
		Msg("starting monitored command")

	if mode == Interactive {
		return s.runPTY()
	}
	return s.runDirect()
}

// Running reports whether shutdown has begun.
func (s *Session) Running() bool {
	select {
	case <-s.done:
		return false
	default:
		return true
	}
}

// Shutdown flips the running flag. Safe to call more than once; only the
// first call has an effect.
func (s *Session) Shutdown() {
	s.stopOnce.Do(func() { close(s.done) })
}

// Interrupted reports whether shutdown was triggered by SIGINT/SIGTERM.
func (s *Session) Interrupted() bool {
	return s.interrupted.Load()
}

// StatsText returns the most recent formatted stats string.
func (s *Session) StatsText() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastStats
}

func (s *Session) setStats(text string) {
	s.mu.Lock()
	s.lastStats = text
	s.mu.Unlock()
}

func (s *Session) setDefaultTitle(t string) {
	s.mu.Lock()
	s.defaultTitle = t
	s.mu.Unlock()
}

func (s *Session) setPID(pid int32) {
	s.mu.Lock()
	s.pid = pid
	s.mu.Unlock()
}

// PID returns the monitored child's process ID, 0 before spawn.
func (s *Session) PID() int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pid
}

func (s *Session) setPTY(ptmx *os.File) {
	s.mu.Lock()
	s.ptmx = ptmx
	s.mu.Unlock()
}

func (s *Session) clearPTY() {
	s.setPTY(nil)
}

// noteInterception records a title the child set itself. The timestamp
// suppresses proactive pushes for the suppression window, and the text is
// reused as the base of later pushes.
func (s *Session) noteInterception(text string) {
	s.mu.Lock()
	s.lastTitle = text
	s.lastIntercept = time.Now()
	s.mu.Unlock()
}

// writeRaw writes bytes to the real terminal. Errors are swallowed: title
// traffic is cosmetic.
func (s *Session) writeRaw(data []byte) {
	_, _ = s.Out.Write(data)
}

// watchTermination installs SIGINT/SIGTERM handling: the OS handler only
// feeds a channel, and this goroutine does the actual state changes. Returns
// a function that uninstalls the handler.
func (s *Session) watchTermination(cmd *exec.Cmd, groupKill bool) func() {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sig:
			s.interrupted.Store(true)
			s.Shutdown()
			s.terminate(cmd, groupKill)
			s.Log.Debug().Str("session", s.ID).Msg("termination signal received")
		case <-s.done:
		}
	}()
	return func() { signal.Stop(sig) }
}

// terminate asks the child to exit. In PTY mode the child leads its own
// process group, so the whole group is signalled; in direct mode the child
// shares our group and only the child itself gets the signal.
func (s *Session) terminate(cmd *exec.Cmd, groupKill bool) {
	if cmd.Process == nil {
		return
	}
	if groupKill {
		if pgid, err := syscall.Getpgid(cmd.Process.Pid); err == nil {
			_ = syscall.Kill(-pgid, syscall.SIGTERM)
			return
		}
	}
	_ = cmd.Process.Signal(syscall.SIGTERM)
}

// exitStatus maps a cmd.Wait error to a shell-style exit code. signaled is
// true when the child died on a signal (code 128+sig).
func exitStatus(err error) (code int, signaled bool) {
	if err == nil {
		return 0, false
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		if ws, ok := ee.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			return 128 + int(ws.Signal()), true
		}
		return ee.ExitCode(), false
	}
	return 1, false
}

// deriveDefaultTitle builds the fallback title shown when the child never
// sets one: "<cwd base>> <command base>".
func deriveDefaultTitle(command []string) string {
	name := filepath.Base(command[0])
	wd, err := os.Getwd()
	if err != nil {
		return "shellback> " + strings.Join(command[:min(2, len(command))], " ")
	}
	return filepath.Base(wd) + "> " + name
}

// resetTitle writes the title reset sequence during cleanup.
func (s *Session) resetTitle() {
	s.writeRaw(title.ResetSequence)
}

// completionNotice reports the child's exit on stderr, outside the forwarded
// stream.
func (s *Session) completionNotice(code int) {
	fmt.Fprintf(s.ErrOut, "\r\nprocess completed with exit code %d\r\n", code)
}
