package session

import (
	"time"

	"shellback/internal/stats"
	"shellback/internal/title"
)

// runSampler is the session's single background activity. Each tick it
// aggregates stats over the child's process tree, stores the formatted
// string for the rewriter, and may push a title update for children that
// never set one. It stops when shutdown begins or the child is gone.
func (s *Session) runSampler() {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		if !s.Running() {
			return
		}
		pid := s.PID()
		if pid == 0 || !s.Provider.Running(pid) {
			s.Log.Debug().Str("session", s.ID).Msg("monitored process gone, sampler stopping")
			return
		}
		snap, err := stats.Collect(s.Provider, pid)
		if err != nil {
			s.Log.Debug().Str("session", s.ID).Err(err).Msg("root sampling failed, sampler stopping")
			return
		}
		s.setStats(snap.Format(s.Prefix))
		s.pushTitle(time.Now())

		select {
		case <-ticker.C:
		case <-s.done:
			return
		}
	}
}

// pushTitle writes a proactive title update unless one of the guards says
// not to: no stats yet, a child-set title was intercepted within the
// suppression window, or the previous push was too recent. Write errors are
// swallowed.
func (s *Session) pushTitle(now time.Time) {
	s.mu.Lock()
	if s.lastStats == "" {
		s.mu.Unlock()
		return
	}
	if now.Sub(s.lastIntercept) < s.suppressWindow {
		s.mu.Unlock()
		return
	}
	if now.Sub(s.lastPush) < s.pushGap {
		s.mu.Unlock()
		return
	}

	text := s.lastStats
	switch {
	case s.lastTitle != "":
		text = s.lastTitle + " | " + s.lastStats
	case s.defaultTitle != "":
		text = s.defaultTitle + " | " + s.lastStats
	}
	s.lastPush = now
	s.mu.Unlock()

	s.writeRaw(title.Set(text))
	s.Log.Debug().Str("session", s.ID).Str("title", text).Msg("proactive title push")
}
