package proc

import (
	"sync/atomic"
	"time"

	gopsprocess "github.com/shirou/gopsutil/v3/process"
)

// rssMonitor periodically samples a subprocess's resident set size so
// RunProcess can report the peak even though the process has already
// exited by the time the caller inspects the Result.
type rssMonitor struct {
	peak atomic.Uint64
	stop_ chan struct{}
	done  chan struct{}
}

func startRSSMonitor(pid int, interval time.Duration) *rssMonitor {
	m := &rssMonitor{
		stop_: make(chan struct{}),
		done:  make(chan struct{}),
	}
	go m.run(pid, interval)
	return m
}

func (m *rssMonitor) run(pid int, interval time.Duration) {
	defer close(m.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	proc, err := gopsprocess.NewProcess(int32(pid))
	if err != nil {
		return
	}

	for {
		select {
		case <-m.stop_:
			return
		case <-ticker.C:
			mem, err := proc.MemoryInfo()
			if err != nil || mem == nil {
				continue
			}
			for {
				cur := m.peak.Load()
				if mem.RSS <= cur || m.peak.CompareAndSwap(cur, mem.RSS) {
					break
				}
			}
		}
	}
}

// stop halts sampling and returns the peak RSS observed in bytes.
func (m *rssMonitor) stop() uint64 {
	close(m.stop_)
	<-m.done
	return m.peak.Load()
}
