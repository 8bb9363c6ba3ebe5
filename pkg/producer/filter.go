package producer

import "github.com/dialsense/dialsense-go/pkg/sampler"

// Delta returns |a - b| without wrapping.
func Delta(a, b sampler.Reading) uint32 {
	if a > b {
		return uint32(a - b)
	}
	return uint32(b - a)
}

// Exceeds reports whether current differs from last by more than tolerance.
func Exceeds(current, last sampler.Reading, tolerance uint32) bool {
	return Delta(current, last) > tolerance
}
