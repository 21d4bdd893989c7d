package scheduler

import (
	"runtime"
	"runtime/debug"
	"time"
)

// MemoryMonitor reads Go heap usage against a configured cap on demand,
// each time one of its methods is called. Nothing samples it on a timer:
// Scheduler.Run checks OverCap before every 100th job and the traversal
// driver every 100 commits; there is no periodic 2-second sampler. There
// is no portable stdlib way to read total system memory, so the
// cap is expressed directly in MB of Go heap (HeapAlloc) rather than as a
// percentage of system RAM — the traversal driver and scheduler both size
// their caps off the same ≥4 GB "comfortable operation" baseline from
// spec.md §6.
type MemoryMonitor struct {
	CapMB   int64
	FloorMB int64
}

// NewMemoryMonitor builds a monitor with the given cap and floor in MB.
func NewMemoryMonitor(capMB, floorMB int64) *MemoryMonitor {
	return &MemoryMonitor{CapMB: capMB, FloorMB: floorMB}
}

// usageMB returns current heap allocation in MB.
func (m *MemoryMonitor) usageMB() int64 {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	return int64(stats.HeapAlloc / (1024 * 1024))
}

// UsagePercent returns current usage as a percentage of CapMB.
func (m *MemoryMonitor) UsagePercent() float64 {
	if m.CapMB <= 0 {
		return 0
	}
	return 100 * float64(m.usageMB()) / float64(m.CapMB)
}

// OverCap reports whether usage currently exceeds CapMB.
func (m *MemoryMonitor) OverCap() bool {
	return m.usageMB() > m.CapMB
}

// ForceCollect runs a GC cycle and returns OS memory where possible, per
// spec.md §4.6 "forces a GC cycle".
func (m *MemoryMonitor) ForceCollect() {
	runtime.GC()
	debug.FreeOSMemory()
}

// WaitUntilBelow blocks, forcing GC and sleeping in 5s ticks, until usage
// has dropped at least 5 percentage points below its value when called and
// available headroom (CapMB - usage) is at least FloorMB+500MB, per
// spec.md §4.6's scheduler thread backoff and §4.4 step 3c's traversal
// driver backoff (both express the same "drop ≥5 points, then continue"
// rule; the traversal driver's batch-flush loop calls this directly rather
// than running a separate scheduler thread).
func (m *MemoryMonitor) WaitUntilBelow(startPercent float64) {
	target := startPercent - 5
	for {
		m.ForceCollect()
		current := m.UsagePercent()
		headroomMB := m.CapMB - m.usageMB()
		if current <= target && headroomMB >= m.FloorMB+500 {
			return
		}
		time.Sleep(5 * time.Second)
	}
}
