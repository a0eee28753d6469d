package models

// Stroke is one continuous pen trajectory. X[i] and Y[i] form the i-th point.
type Stroke struct {
	X []float64 `json:"x"`
	Y []float64 `json:"y"`
}

// Points returns the number of points, or -1 when the coordinate arrays disagree.
func (s Stroke) Points() int {
	if len(s.X) != len(s.Y) {
		return -1
	}
	return len(s.X)
}

// Drawing is an ordered sequence of strokes; later strokes are drawn over earlier ones.
type Drawing struct {
	Strokes []Stroke `json:"strokes"`
}
