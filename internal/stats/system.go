package stats

import (
	"sync"

	"github.com/shirou/gopsutil/v3/process"
)

// SystemProvider samples live processes via gopsutil. Process handles are
// cached per PID because gopsutil computes CPU percentages as a delta since
// the previous call on the same handle; a fresh handle every tick would
// always read 0.
type SystemProvider struct {
	mu      sync.Mutex
	handles map[int32]*process.Process
}

// NewSystemProvider returns a Provider backed by the running system.
func NewSystemProvider() *SystemProvider {
	return &SystemProvider{handles: make(map[int32]*process.Process)}
}

func (p *SystemProvider) handle(pid int32) (*process.Process, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if h, ok := p.handles[pid]; ok {
		return h, nil
	}
	h, err := process.NewProcess(pid)
	if err != nil {
		return nil, ErrUnavailable
	}
	p.handles[pid] = h
	return h, nil
}

// Running reports whether pid is alive.
func (p *SystemProvider) Running(pid int32) bool {
	h, err := p.handle(pid)
	if err != nil {
		return false
	}
	running, err := h.IsRunning()
	return err == nil && running
}

// Sample returns CPU and resident memory for one process. Any gopsutil error
// maps to ErrUnavailable: the distinction between "gone" and "denied" doesn't
// matter to callers.
func (p *SystemProvider) Sample(pid int32) (Sample, error) {
	h, err := p.handle(pid)
	if err != nil {
		return Sample{}, err
	}
	cpu, err := h.CPUPercent()
	if err != nil {
		p.evict(pid)
		return Sample{}, ErrUnavailable
	}
	mem, err := h.MemoryInfo()
	if err != nil || mem == nil {
		p.evict(pid)
		return Sample{}, ErrUnavailable
	}
	return Sample{CPUPercent: cpu, RSSBytes: mem.RSS}, nil
}

// Descendants lists all live descendants of pid, depth first. gopsutil only
// enumerates immediate children, so the recursion happens here.
func (p *SystemProvider) Descendants(pid int32) ([]int32, error) {
	h, err := p.handle(pid)
	if err != nil {
		return nil, err
	}
	var pids []int32
	queue := []*process.Process{h}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		children, err := cur.Children()
		if err != nil {
			// Childless processes surface as an error in gopsutil.
			continue
		}
		for _, c := range children {
			pids = append(pids, c.Pid)
			queue = append(queue, c)
		}
	}
	return pids, nil
}

func (p *SystemProvider) evict(pid int32) {
	p.mu.Lock()
	delete(p.handles, pid)
	p.mu.Unlock()
}
