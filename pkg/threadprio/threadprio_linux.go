//go:build linux

package threadprio

import "golang.org/x/sys/unix"

// On Linux, PRIO_PROCESS with a thread id targets that single thread.
func setThreadNice(nice int) error {
	return unix.Setpriority(unix.PRIO_PROCESS, unix.Gettid(), nice)
}

// currentNice returns the nice value of the calling thread. The raw syscall
// reports 20-nice.
func currentNice() (int, error) {
	raw, err := unix.Getpriority(unix.PRIO_PROCESS, unix.Gettid())
	if err != nil {
		return 0, err
	}
	return 20 - raw, nil
}
