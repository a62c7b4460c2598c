//go:build !linux

package threadprio

func setThreadNice(int) error {
	return ErrUnsupported
}

func currentNice() (int, error) {
	return 0, ErrUnsupported
}
