package monitor

import (
	"fmt"
	"os"

	"github.com/shirou/gopsutil/v4/process"
)

// Sampler returns the current resident-set size of a process in bytes.
type Sampler func() (uint64, error)

// SelfSampler samples the resident memory of the current process.
func SelfSampler() Sampler {
	return PidSampler(int32(os.Getpid()))
}

// PidSampler samples the resident memory of the given process.
// The process is looked up on every call so the sampler keeps working if
// the target restarts under the same pid, and errors cleanly once it exits.
func PidSampler(pid int32) Sampler {
	return func() (uint64, error) {
		p, err := process.NewProcess(pid)
		if err != nil {
			return 0, fmt.Errorf("find process %d: %w", pid, err)
		}

		info, err := p.MemoryInfo()
		if err != nil {
			return 0, fmt.Errorf("read memory info for pid %d: %w", pid, err)
		}

		return info.RSS, nil
	}
}
