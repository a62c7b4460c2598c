// Package threadprio applies best-effort scheduling hints to the OS thread
// running the calling goroutine.
//
// Apply locks the calling goroutine to its OS thread and never unlocks it, so
// the adjusted thread is discarded by the runtime when the goroutine exits
// instead of returning to the pool with a modified priority.
package threadprio

import (
	"errors"
	"fmt"
	"runtime"
)

// Level is a scheduling hint.
type Level int

const (
	// Normal leaves the thread's priority alone.
	Normal Level = iota
	// High asks for the highest priority the platform allows.
	High
	// Low asks for the lowest priority the platform allows.
	Low
)

// Nice values used on platforms with per-thread nice levels.
const (
	HighestNice = -20
	LowestNice  = 19
)

// ErrUnsupported is returned where per-thread priorities are not available.
var ErrUnsupported = errors.New("threadprio: per-thread priority not supported on " + runtime.GOOS)

func (l Level) String() string {
	switch l {
	case Normal:
		return "normal"
	case High:
		return "high"
	case Low:
		return "low"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// Nice returns the nice value requested for l.
func (l Level) Nice() (int, bool) {
	switch l {
	case High:
		return HighestNice, true
	case Low:
		return LowestNice, true
	default:
		return 0, false
	}
}

// Apply pins the calling goroutine to its OS thread and applies the hint.
// Raising priority usually requires privileges; the error reports that and
// the goroutine keeps running at its current priority.
func Apply(l Level) error {
	nice, ok := l.Nice()
	if !ok {
		return nil
	}
	runtime.LockOSThread()
	if err := setThreadNice(nice); err != nil {
		return fmt.Errorf("set %s priority (nice %d): %w", l, nice, err)
	}
	return nil
}
