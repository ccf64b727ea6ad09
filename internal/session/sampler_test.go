package session

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"shellback/internal/stats"
)

type stubProvider struct {
	running bool
	sample  stats.Sample
}

func (p *stubProvider) Running(pid int32) bool { return p.running }
func (p *stubProvider) Sample(pid int32) (stats.Sample, error) {
	if !p.running {
		return stats.Sample{}, stats.ErrUnavailable
	}
	return p.sample, nil
}
func (p *stubProvider) Descendants(pid int32) ([]int32, error) { return nil, nil }

func newTestSession(out *bytes.Buffer) *Session {
	s := New([]string{"sleep", "1"}, time.Second, "🐢", &stubProvider{running: true}, zerolog.Nop())
	s.Out = out
	return s
}

func TestPushTitleRequiresStats(t *testing.T) {
	var out bytes.Buffer
	s := newTestSession(&out)
	s.pushTitle(time.Now())
	if out.Len() != 0 {
		t.Errorf("push without stats wrote %q", out.String())
	}
}

func TestPushTitleSuppressionWindow(t *testing.T) {
	var out bytes.Buffer
	s := newTestSession(&out)
	s.setStats("🐢 1.0% CPU, 2.0MB RAM")

	base := time.Now()
	s.mu.Lock()
	s.lastTitle = "ChildTitle"
	s.lastIntercept = base
	s.mu.Unlock()

	// Inside (0, 1.0s): suppressed.
	s.pushTitle(base.Add(300 * time.Millisecond))
	s.pushTitle(base.Add(999 * time.Millisecond))
	if out.Len() != 0 {
		t.Fatalf("push inside suppression window wrote %q", out.String())
	}

	// At exactly the window boundary the push fires.
	s.pushTitle(base.Add(1 * time.Second))
	got := out.String()
	want := "\x1b]0;ChildTitle | 🐢 1.0% CPU, 2.0MB RAM\x07"
	if got != want {
		t.Errorf("pushed %q, want %q", got, want)
	}
}

func TestPushTitleMinimumGap(t *testing.T) {
	var out bytes.Buffer
	s := newTestSession(&out)
	s.setStats("S")

	base := time.Now()
	s.pushTitle(base)
	s.pushTitle(base.Add(200 * time.Millisecond)) // within gap, skipped
	s.pushTitle(base.Add(600 * time.Millisecond)) // past gap, pushed

	if n := strings.Count(out.String(), "\x1b]0;"); n != 2 {
		t.Errorf("got %d pushes, want 2: %q", n, out.String())
	}
}

func TestPushTitleFallbackOrder(t *testing.T) {
	var out bytes.Buffer
	s := newTestSession(&out)
	s.setStats("S")

	// No intercepted title, no default: stats alone.
	s.pushTitle(time.Now())
	if got := out.String(); got != "\x1b]0;S\x07" {
		t.Fatalf("stats-only push = %q", got)
	}

	// Default title set: used as the base.
	out.Reset()
	s.setDefaultTitle("proj> vim")
	s.mu.Lock()
	s.lastPush = time.Time{}
	s.mu.Unlock()
	s.pushTitle(time.Now())
	if got := out.String(); got != "\x1b]0;proj> vim | S\x07" {
		t.Errorf("default-title push = %q", got)
	}

	// Intercepted title beats the default. An empty intercepted title does
	// not: it means "no title".
	out.Reset()
	s.noteInterception("Real")
	s.mu.Lock()
	s.lastPush = time.Time{}
	s.lastIntercept = time.Time{}
	s.mu.Unlock()
	s.pushTitle(time.Now())
	if got := out.String(); got != "\x1b]0;Real | S\x07" {
		t.Errorf("intercepted-title push = %q", got)
	}
}

func TestSamplerStopsWhenProcessGone(t *testing.T) {
	var out bytes.Buffer
	p := &stubProvider{running: false}
	s := New([]string{"sleep"}, 10*time.Millisecond, "🐢", p, zerolog.Nop())
	s.Out = &out
	s.setPID(12345)

	done := make(chan struct{})
	go func() {
		s.runSampler()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("sampler did not stop for a dead process")
	}
}

func TestSamplerStopsOnShutdown(t *testing.T) {
	p := &stubProvider{running: true, sample: stats.Sample{CPUPercent: 1, RSSBytes: 1 << 20}}
	s := New([]string{"sleep"}, 20*time.Millisecond, "🐢", p, zerolog.Nop())
	s.Out = &bytes.Buffer{}
	s.setPID(int32(1))

	done := make(chan struct{})
	go func() {
		s.runSampler()
		close(done)
	}()
	time.Sleep(50 * time.Millisecond)
	s.Shutdown()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("sampler did not observe shutdown within a tick")
	}
}
