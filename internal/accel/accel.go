// Package accel detects whether GPU acceleration is usable on the current
// host and reports available memory for the MemoryPlanner. It is the engine
// analogue of the teacher's pkg/hashing/hardware.DeviceDetector, which
// shells out to nvidia-smi to decide whether its CUDA hash method is
// available — the same probe is reused here, generalized to also report
// free GPU memory rather than just presence/absence.
package accel

import (
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/shirou/gopsutil/v3/mem"
)

// ConservativeHostMemory is the device-available memory the MemoryPlanner
// assumes when GPU acceleration is off or no GPU is detected, and the value
// HostAvailableMemory falls back to when its gopsutil read fails.
const ConservativeHostMemory = 4 << 30 // 4 GiB

// Probe reports accelerator and host memory availability. Results are
// cached after the first call, mirroring the teacher's DeviceDetector
// caching its detection in a map rather than re-shelling on every query.
type Probe struct {
	once      sync.Once
	available bool
	freeBytes uint64
	reason    string
}

var shared Probe

// Default returns the process-wide accelerator probe.
func Default() *Probe { return &shared }

// GPUAvailable reports whether an NVIDIA GPU was detected via nvidia-smi.
func (p *Probe) GPUAvailable() bool {
	p.detect()
	return p.available
}

// GPUFreeBytes returns the last-probed free GPU memory in bytes, valid only
// when GPUAvailable reports true.
func (p *Probe) GPUFreeBytes() uint64 {
	p.detect()
	return p.freeBytes
}

// Reason explains why the GPU was judged unavailable (empty if available).
func (p *Probe) Reason() string {
	p.detect()
	return p.reason
}

func (p *Probe) detect() {
	p.once.Do(func() {
		out, err := exec.Command("nvidia-smi",
			"--query-gpu=memory.free",
			"--format=csv,noheader,nounits",
		).Output()
		if err != nil {
			p.available = false
			p.reason = "nvidia-smi not found or no NVIDIA GPU present: " + err.Error()
			return
		}

		lines := strings.Split(strings.TrimSpace(string(out)), "\n")
		if len(lines) == 0 || strings.TrimSpace(lines[0]) == "" {
			p.available = false
			p.reason = "nvidia-smi returned no devices"
			return
		}

		mib, perr := strconv.ParseUint(strings.TrimSpace(lines[0]), 10, 64)
		if perr != nil {
			p.available = false
			p.reason = "could not parse nvidia-smi output: " + perr.Error()
			return
		}

		p.available = true
		p.freeBytes = mib << 20
	})
}

// HostAvailableMemory returns the host's available memory via gopsutil,
// falling back to ConservativeHostMemory when the read fails.
func HostAvailableMemory() uint64 {
	v, err := mem.VirtualMemory()
	if err != nil || v.Available == 0 {
		return ConservativeHostMemory
	}
	return v.Available
}
