package core

import "golang.org/x/exp/constraints"

// Clamp returns the value `f` clamped to the range [low, high].
func Clamp[T constraints.Ordered](f, low, high T) T {
	if f < low {
		return low
	}
	if f > high {
		return high
	}
	return f
}

// Fraction returns done/total as a value in [0, 1]. A zero total counts as complete.
func Fraction[T constraints.Integer](done, total T) float32 {
	if total <= 0 {
		return 1
	}
	return Clamp(float32(done)/float32(total), 0, 1)
}
