package geometry

import "math"

// TwoPi is one full turn in radians.
const TwoPi = 2 * math.Pi

// Vec2D is a value-semantics 2D vector used for positions and velocities.
type Vec2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns the component-wise sum.
func (v Vec2D) Add(other Vec2D) Vec2D {
	return Vec2D{X: v.X + other.X, Y: v.Y + other.Y}
}

// Sub returns the component-wise difference.
func (v Vec2D) Sub(other Vec2D) Vec2D {
	return Vec2D{X: v.X - other.X, Y: v.Y - other.Y}
}

// Scale multiplies both components by factor.
func (v Vec2D) Scale(factor float64) Vec2D {
	return Vec2D{X: v.X * factor, Y: v.Y * factor}
}

// Length returns the magnitude of the vector.
func (v Vec2D) Length() float64 {
	return math.Hypot(v.X, v.Y)
}

// Distance returns the Euclidean distance between two points.
func (v Vec2D) Distance(other Vec2D) float64 {
	return v.Sub(other).Length()
}

// Normalize returns a unit vector, or the zero vector when the length is zero.
func (v Vec2D) Normalize() Vec2D {
	length := v.Length()
	if length == 0 {
		return Vec2D{}
	}
	return Vec2D{X: v.X / length, Y: v.Y / length}
}

// IsFinite reports whether neither component is NaN or infinite.
func (v Vec2D) IsFinite() bool {
	return isFinite(v.X) && isFinite(v.Y)
}

// FromAngle builds a vector of the given magnitude pointing along angle (radians, 0 = +X, counterclockwise).
func FromAngle(angle, magnitude float64) Vec2D {
	return Vec2D{X: magnitude * math.Cos(angle), Y: magnitude * math.Sin(angle)}
}

// Bearing returns the angle from one point to another. Coincident points yield ok=false instead of a
// meaningless atan2(0, 0).
func Bearing(from, to Vec2D) (angle float64, ok bool) {
	delta := to.Sub(from)
	if delta.X == 0 && delta.Y == 0 {
		return 0, false
	}
	return math.Atan2(delta.Y, delta.X), true
}

func isFinite(value float64) bool {
	return !math.IsNaN(value) && !math.IsInf(value, 0)
}
