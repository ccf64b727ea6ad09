package session

import (
	"fmt"
	"os/exec"

	"shellback/internal/stats"
)

// runDirect executes non-interactive children with their standard streams
// connected straight to ours; the OS moves the bytes and nothing is
// intercepted. Title updates come solely from the sampler's proactive
// pushes.
func (s *Session) runDirect() (int, error) {
	cmd := exec.Command(s.Command[0], s.Command[1:]...)
	cmd.Stdin = s.In
	cmd.Stdout = s.Out
	cmd.Stderr = s.ErrOut

	if err := cmd.Start(); err != nil {
		return 1, fmt.Errorf("start %s: %w", s.Command[0], err)
	}
	s.setPID(int32(cmd.Process.Pid))
	s.Log.Debug().Str("session", s.ID).Int("pid", cmd.Process.Pid).Msg("child started direct")

	stopTermWatch := s.watchTermination(cmd, false)

	if snap, err := stats.Collect(s.Provider, s.PID()); err == nil {
		s.setStats(snap.Format(s.Prefix))
	}
	go s.runSampler()

	defer func() {
		s.Shutdown()
		stopTermWatch()
		s.resetTitle()
		s.Log.Debug().Str("session", s.ID).Msg("direct session closed")
	}()

	waitErr := cmd.Wait()
	code, signaled := exitStatus(waitErr)
	if signaled && s.Interrupted() {
		code = 130
	}
	s.completionNotice(code)
	return code, nil
}
