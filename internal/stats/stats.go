// Package stats aggregates CPU and memory usage over a process tree: a
// monitored root process plus every descendant alive at sampling time.
package stats

import (
	"errors"
	"fmt"
)

// ErrUnavailable reports that a process vanished or denied access between
// enumeration and sampling. For descendants this is skipped silently; for the
// root it ends monitoring.
var ErrUnavailable = errors.New("process unavailable")

// Sample is one process's resource usage at a point in time.
type Sample struct {
	CPUPercent float64
	RSSBytes   uint64
}

// Provider reports per-process resource usage. The production implementation
// is backed by gopsutil; tests substitute fakes.
type Provider interface {
	// Running reports whether pid refers to a live process.
	Running(pid int32) bool
	// Sample returns usage for one process, or ErrUnavailable.
	Sample(pid int32) (Sample, error)
	// Descendants lists all live descendants of pid, recursively.
	Descendants(pid int32) ([]int32, error)
}

// Snapshot is a point-in-time aggregate over a process tree. Recomputed every
// tick and never persisted; only its formatted string outlives the tick.
type Snapshot struct {
	CPUPercent float64
	MemoryMB   float64
	Processes  int
}

// Format renders the snapshot for the terminal title.
func (s Snapshot) Format(prefix string) string {
	return fmt.Sprintf("%s %.1f%% CPU, %.1fMB RAM", prefix, s.CPUPercent, s.MemoryMB)
}

// Collect sums usage across the root process and its descendants. A
// descendant that disappears mid-scan is skipped; an unavailable root is an
// error. Descendant enumeration failures degrade to sampling the root alone.
func Collect(p Provider, root int32) (Snapshot, error) {
	rootSample, err := p.Sample(root)
	if err != nil {
		return Snapshot{}, fmt.Errorf("sample root process %d: %w", root, err)
	}

	snap := Snapshot{
		CPUPercent: rootSample.CPUPercent,
		MemoryMB:   float64(rootSample.RSSBytes) / (1 << 20),
		Processes:  1,
	}

	children, err := p.Descendants(root)
	if err != nil {
		return snap, nil
	}
	for _, pid := range children {
		s, err := p.Sample(pid)
		if err != nil {
			continue
		}
		snap.CPUPercent += s.CPUPercent
		snap.MemoryMB += float64(s.RSSBytes) / (1 << 20)
		snap.Processes++
	}
	return snap, nil
}
