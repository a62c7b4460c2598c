package probe

import "math"

// Work runs a fixed numeric loop standing in for a real scheduled task.
// The result is returned so the loop cannot be eliminated.
func Work(iterations int) float64 {
	var acc float64
	for i := 0; i < iterations; i++ {
		acc += math.Sin(float64(i))
	}
	return acc
}
