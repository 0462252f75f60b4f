package outcome

import "math"

// RadiusScale maps trace counts linearly onto bubble radii.
type RadiusScale struct {
	Min float64
	Max float64
}

// DefaultRadiusScale matches the sizes of the outcome chart.
var DefaultRadiusScale = RadiusScale{Min: 5, Max: 35}

// Radius returns the radius for count relative to the largest count. A zero
// count still gets Min so the bubble stays visible.
func (s RadiusScale) Radius(count, maxCount int) float64 {
	if maxCount <= 0 {
		maxCount = 1
	}
	ratio := float64(count) / float64(maxCount)
	ratio = math.Max(0, math.Min(1, ratio))
	return s.Min + ratio*(s.Max-s.Min)
}

// Palette is an ordered colour scale from lowest to highest conformance.
type Palette []string

// ColorFor returns the colour for a conformance value in [0, 1]. Values
// outside the range use the first or last colour.
func (p Palette) ColorFor(v float64) string {
	if len(p) == 0 {
		return ""
	}
	switch {
	case math.IsNaN(v), v < 0:
		v = 0
	case v > 1:
		v = 1
	}
	i := int(math.Floor(v * float64(len(p))))
	return p[min(i, len(p)-1)]
}
