// Package sysmem detects total system memory and derives the heap ceiling a
// Go process can grow to.
package sysmem

import "math"

// DefaultMemoryBytes is the fallback memory value (4 GB) used when
// platform-specific detection fails or is unsupported.
const DefaultMemoryBytes uint64 = 4 * 1024 * 1024 * 1024

// Result holds the result of memory detection.
type Result struct {
	// TotalBytes is the total system memory in bytes.
	TotalBytes uint64

	// Reliable indicates whether the value was obtained from
	// a platform-specific method (true) or is a fallback default (false).
	Reliable bool
}

// Total returns the total system memory.
// If platform-specific detection fails or is unsupported,
// it returns DefaultMemoryBytes with Reliable=false.
func Total() Result {
	bytes, ok := totalSystemMemory()
	if !ok || bytes == 0 {
		return Result{TotalBytes: DefaultMemoryBytes}
	}
	return Result{TotalBytes: bytes, Reliable: true}
}

// CeilingSource names where a heap ceiling came from.
type CeilingSource string

const (
	// CeilingMemoryLimit means the runtime soft memory limit is the ceiling.
	CeilingMemoryLimit CeilingSource = "memory-limit"
	// CeilingSystemRAM means no limit is set and detected RAM is the ceiling.
	CeilingSystemRAM CeilingSource = "system-ram"
	// CeilingDefault means no limit is set and RAM could not be detected.
	CeilingDefault CeilingSource = "default"
)

// HeapCeiling returns the largest heap the process may grow to: the soft
// memory limit when one is set below system RAM, otherwise system RAM.
func HeapCeiling(memoryLimit int64) (uint64, CeilingSource) {
	return heapCeiling(memoryLimit, Total())
}

func heapCeiling(memoryLimit int64, ram Result) (uint64, CeilingSource) {
	if memoryLimit > 0 && memoryLimit != math.MaxInt64 && uint64(memoryLimit) < ram.TotalBytes {
		return uint64(memoryLimit), CeilingMemoryLimit
	}
	if !ram.Reliable {
		return ram.TotalBytes, CeilingDefault
	}
	return ram.TotalBytes, CeilingSystemRAM
}
