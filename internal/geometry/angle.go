package geometry

import "math"

// Radians converts degrees to radians.
func Radians(degrees float64) float64 {
	return degrees * math.Pi / 180.0
}

// Degrees converts radians to degrees.
func Degrees(radians float64) float64 {
	return radians * 180.0 / math.Pi
}

// WrapAngle normalizes an angle into [0, 2π).
func WrapAngle(angle float64) float64 {
	//1.- math.Mod keeps the sign of the dividend so negative inputs need a full turn added.
	wrapped := math.Mod(angle, TwoPi)
	if wrapped < 0 {
		wrapped += TwoPi
	}
	//2.- Adding 2π to a tiny negative value rounds up to exactly 2π, which is outside the range.
	if wrapped >= TwoPi {
		wrapped = 0
	}
	return wrapped
}

// AngleDiff returns the signed shortest rotation from `from` to `to`, in [-π, π).
func AngleDiff(from, to float64) float64 {
	diff := WrapAngle(to - from)
	if diff >= math.Pi {
		diff -= TwoPi
	}
	return diff
}
