package system

import (
	"fmt"
	"os"

	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// MemoryStats is a snapshot of host and process memory.
type MemoryStats struct {
	HostTotal   uint64
	HostUsedPct float64
	ProcessRSS  uint64
}

// ReadMemoryStats samples memory usage of the host and this process.
func ReadMemoryStats() (MemoryStats, error) {
	var st MemoryStats

	vm, err := mem.VirtualMemory()
	if err != nil {
		return st, fmt.Errorf("host memory: %w", err)
	}
	st.HostTotal = vm.Total
	st.HostUsedPct = vm.UsedPercent

	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return st, fmt.Errorf("process: %w", err)
	}
	info, err := proc.MemoryInfo()
	if err != nil {
		return st, fmt.Errorf("process memory: %w", err)
	}
	st.ProcessRSS = info.RSS
	return st, nil
}

func (s MemoryStats) String() string {
	return fmt.Sprintf("RSS: %.1f MiB | Host: %.1f%% of %.1f GiB",
		float64(s.ProcessRSS)/(1<<20), s.HostUsedPct, float64(s.HostTotal)/(1<<30))
}
