//go:build !linux && !darwin

package sysmem

// totalSystemMemory reports no value so Total falls back to the default.
func totalSystemMemory() (uint64, bool) {
	return 0, false
}
