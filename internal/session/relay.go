package session

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/creack/pty"
	"golang.org/x/sys/unix"

	"shellback/internal/stats"
	"shellback/internal/terminal"
	"shellback/internal/title"
)

const (
	ioChunkSize  = 4096
	relayTimeout = 500 * time.Millisecond
)

// runPTY executes the child attached to a pseudo-terminal and pumps bytes
// between it and the real terminal, rewriting title sequences on the way
// out. The child becomes a session leader owning the PTY's subordinate side
// (creack/pty sets Setsid/Setctty), so it behaves exactly as if it ran in a
// real terminal.
func (s *Session) runPTY() (int, error) {
	cmd := exec.Command(s.Command[0], s.Command[1:]...)
	rows, cols := terminal.Size()
	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{Rows: rows, Cols: cols})
	if err != nil {
		return 1, fmt.Errorf("start %s: %w", s.Command[0], err)
	}
	s.setPTY(ptmx)
	s.setPID(int32(cmd.Process.Pid))
	s.Log.Debug().Str("session", s.ID).Int("pid", cmd.Process.Pid).Msg("child started on pty")

	restore := terminal.EnterRaw()

	winch := make(chan os.Signal, 1)
	signal.Notify(winch, syscall.SIGWINCH)
	go s.forwardResizes(winch, ptmx)

	stopTermWatch := s.watchTermination(cmd, true)

	// Seed stats synchronously so the very first rewrite or push has data.
	if snap, err := stats.Collect(s.Provider, s.PID()); err == nil {
		s.setStats(snap.Format(s.Prefix))
	}
	go s.runSampler()

	var waitErr error
	childDone := make(chan struct{})
	go func() {
		waitErr = cmd.Wait()
		close(childDone)
	}()

	// Closed state: this cleanup runs on every exit path, including
	// signal-driven ones.
	defer func() {
		s.Shutdown()
		signal.Stop(winch)
		stopTermWatch()
		restore()
		ptmx.Close()
		s.clearPTY()
		s.resetTitle()
		s.Log.Debug().Str("session", s.ID).Msg("pty session closed")
	}()

	s.relay(ptmx, childDone)

	// Draining: no more I/O, wait for the child's status.
	<-childDone
	code, signaled := exitStatus(waitErr)
	if signaled && s.Interrupted() {
		code = 130
	}
	s.completionNotice(code)
	return code, nil
}

// relay pumps bytes until shutdown, EOF on either side, or child exit. The
// bounded poll timeout keeps the loop responsive to the running flag without
// busy-waiting; child exit is only checked on idle cycles, sparing a syscall
// when I/O is flowing.
func (s *Session) relay(ptmx *os.File, childDone <-chan struct{}) {
	stdinFd := int(s.In.Fd())
	ptyFd := int(ptmx.Fd())
	buf := make([]byte, ioChunkSize)

	for s.Running() {
		fds := []unix.PollFd{
			{Fd: int32(stdinFd), Events: unix.POLLIN},
			{Fd: int32(ptyFd), Events: unix.POLLIN},
		}
		n, err := unix.Poll(fds, int(relayTimeout.Milliseconds()))
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return
		}

		if n == 0 {
			select {
			case <-childDone:
				return
			default:
			}
			continue
		}

		// Input path: forwarded verbatim, titles are only rewritten on the
		// way out.
		if fds[0].Revents != 0 {
			rn, err := unix.Read(stdinFd, buf)
			if rn <= 0 || err != nil {
				return
			}
			if _, err := ptmx.Write(buf[:rn]); err != nil {
				return
			}
		}

		if fds[1].Revents != 0 {
			rn, err := unix.Read(ptyFd, buf)
			if rn <= 0 || err != nil {
				// Zero read or EIO: the child closed its terminal side.
				return
			}
			s.writeRaw(s.processOutput(buf[:rn]))
		}
	}
}

// processOutput rewrites one chunk of child output and records any
// intercepted titles. Split into its own step (rather than a side effect
// inside the rewrite) so the bookkeeping is visible in the control flow.
func (s *Session) processOutput(chunk []byte) []byte {
	out, matches := title.Rewrite(chunk, s.StatsText())
	for _, m := range matches {
		s.noteInterception(m.Text)
		s.Log.Debug().Str("session", s.ID).Str("title", m.Text).Msg("intercepted title")
	}
	return out
}

// forwardResizes propagates terminal size changes to the child's PTY.
// Fire-and-forget: a failed resize never disturbs the relay.
func (s *Session) forwardResizes(winch <-chan os.Signal, ptmx *os.File) {
	for {
		select {
		case <-winch:
			rows, cols := terminal.Size()
			terminal.SetPTYSize(ptmx, rows, cols)
		case <-s.done:
			return
		}
	}
}
