package layout

import "math"

// Vector2 is a point or displacement in viewport units.
type Vector2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Distance returns the straight-line distance between two points.
func Distance(a, b Vector2) float64 {
	return norm(sub(b, a))
}

// Magnitude returns the length of v.
func (v Vector2) Magnitude() float64 {
	return norm(v)
}

func add(a, b Vector2) Vector2 {
	return Vector2{X: a.X + b.X, Y: a.Y + b.Y}
}

func sub(a, b Vector2) Vector2 {
	return Vector2{X: a.X - b.X, Y: a.Y - b.Y}
}

func scale(v Vector2, factor float64) Vector2 {
	return Vector2{X: v.X * factor, Y: v.Y * factor}
}

func dot(a, b Vector2) float64 {
	return a.X*b.X + a.Y*b.Y
}

func norm(v Vector2) float64 {
	return math.Sqrt(dot(v, v))
}

// clamp bounds v to [lo, hi]. When the window is inverted, or v is NaN, the
// midpoint wins.
func clamp(v, lo, hi float64) float64 {
	if lo > hi || math.IsNaN(v) {
		return (lo + hi) / 2
	}
	return math.Max(lo, math.Min(hi, v))
}
