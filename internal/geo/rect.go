// Package geo provides axis-aligned rectangle math for detection boxes.
// All coordinates are in a normalized frame (0.0-1.0 relative to image size).
package geo

// Rect is an axis-aligned rectangle. X and Y are the top-left corner.
type Rect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// NewRect creates a rectangle from a flat [x, y, w, h] tuple as carried on
// the detection wire format.
func NewRect(coords [4]float64) Rect {
	return Rect{X: coords[0], Y: coords[1], Width: coords[2], Height: coords[3]}
}

// Coords returns the rectangle as a flat [x, y, w, h] tuple.
func (r Rect) Coords() [4]float64 {
	return [4]float64{r.X, r.Y, r.Width, r.Height}
}

// Area returns the surface area of the rectangle.
func (r Rect) Area() float64 {
	return r.Width * r.Height
}

// IntersectionArea returns the area shared by two rectangles, or 0 if they
// do not overlap.
func IntersectionArea(a, b Rect) float64 {
	xA := max(a.X, b.X)
	yA := max(a.Y, b.Y)
	xB := min(a.X+a.Width, b.X+b.Width)
	yB := min(a.Y+a.Height, b.Y+b.Height)

	return max(0, xB-xA) * max(0, yB-yA)
}

// IoS computes Intersection-over-Smaller-Area: the shared area divided by
// the area of the smaller rectangle. Unlike IoU this saturates at 1.0 when
// a small box sits fully inside a larger one, which is the behavior wanted
// for "object A is on/inside object B" style checks.
func IoS(a, b Rect) float64 {
	interArea := IntersectionArea(a, b)
	if interArea == 0 {
		return 0.0
	}

	smaller := min(a.Area(), b.Area())
	if smaller == 0 {
		return 0.0
	}

	return interArea / smaller
}
