// Package environment captures the platform snapshot attached to each event.
package environment

import (
	"runtime"
	"sync"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
)

// MemoryPressureThreshold is the used-memory percentage above which a
// snapshot is flagged as under memory pressure.
const MemoryPressureThreshold = 95.0

// Snapshotter captures environment snapshots. Host information is gathered
// once; memory and runtime figures are read on every capture.
type Snapshotter struct {
	appVersion string
	logger     zerolog.Logger

	once     sync.Once
	hostInfo map[string]any
}

// NewSnapshotter creates a snapshotter tagging snapshots with appVersion.
func NewSnapshotter(appVersion string, logger zerolog.Logger) *Snapshotter {
	return &Snapshotter{
		appVersion: appVersion,
		logger:     logger,
	}
}

// Capture returns a fresh snapshot. Failures to read system information are
// logged at debug level and leave the corresponding fields out.
func (s *Snapshotter) Capture() map[string]any {
	s.once.Do(s.loadHost)

	snap := make(map[string]any, len(s.hostInfo)+8)
	for k, v := range s.hostInfo {
		snap[k] = v
	}

	snap["os"] = runtime.GOOS
	snap["arch"] = runtime.GOARCH
	snap["go_version"] = runtime.Version()
	snap["goroutines"] = runtime.NumGoroutine()
	if s.appVersion != "" {
		snap["app_version"] = s.appVersion
	}

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	snap["heap_alloc_bytes"] = ms.HeapAlloc

	vm, err := mem.VirtualMemory()
	if err != nil {
		s.logger.Debug().Err(err).Msg("Failed to read virtual memory stats")
		return snap
	}
	snap["memory_used_percent"] = vm.UsedPercent
	snap["memory_available_bytes"] = vm.Available
	snap["memory_pressure"] = vm.UsedPercent >= MemoryPressureThreshold

	return snap
}

func (s *Snapshotter) loadHost() {
	s.hostInfo = make(map[string]any, 4)
	info, err := host.Info()
	if err != nil {
		s.logger.Debug().Err(err).Msg("Failed to read host info")
		return
	}
	s.hostInfo["platform"] = info.Platform
	s.hostInfo["platform_version"] = info.PlatformVersion
	s.hostInfo["kernel_version"] = info.KernelVersion
	s.hostInfo["virtualization"] = info.VirtualizationSystem
}

// UnderMemoryPressure reports whether a snapshot was flagged by Capture.
func UnderMemoryPressure(snapshot map[string]any) bool {
	v, ok := snapshot["memory_pressure"].(bool)
	return ok && v
}
