package threatmap

import "math"

// Point is a canvas coordinate in pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Project maps latitude/longitude onto a width x height canvas using a plain
// equirectangular projection.
func Project(lat, lon, width, height float64) Point {
	return Point{
		X: (lon + 180) * (width / 360),
		Y: (90 - lat) * (height / 180),
	}
}

// MarkerRadius sizes a location marker from its event count.
func MarkerRadius(count int) float64 {
	return math.Max(5, math.Min(15, float64(count)/2))
}

// Marker is a projected, styled location ready to draw.
type Marker struct {
	Location Location `json:"location"`
	Point    Point    `json:"point"`
	Radius   float64  `json:"radius"`
	Color    string   `json:"color"`
	Pulse    bool     `json:"pulse"`
}

// Markers projects every location onto the canvas.
func Markers(locations []Location, width, height float64) []Marker {
	out := make([]Marker, 0, len(locations))
	for _, loc := range locations {
		out = append(out, Marker{
			Location: loc,
			Point:    Project(loc.Lat, loc.Lon, width, height),
			Radius:   MarkerRadius(loc.Count),
			Color:    loc.Level.Color(),
			Pulse:    loc.Level == LevelCritical,
		})
	}
	return out
}
