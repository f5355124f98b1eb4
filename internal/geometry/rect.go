// Package geometry holds the rectangle arithmetic used for window placement:
// offsets, minimum-size clamping, cascade placement and edge resizing.
package geometry

// Minimum window size applied on every rect mutation path.
const (
	MinWidth  = 220
	MinHeight = 140
)

// Cascade placement constants. New windows start at the base origin and are
// shifted diagonally by CascadeStep per id, wrapping every CascadeWrap windows.
const (
	CascadeBaseX = 40
	CascadeBaseY = 48
	CascadeStep  = 20
	CascadeWrap  = 8
)

// Point is a pointer position in desktop pixels.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Delta returns the vector from p to other.
func (p Point) Delta(other Point) (dx, dy int) {
	return other.X - p.X, other.Y - p.Y
}

// Rect represents a window position and size
type Rect struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// Offset translates the rect without changing its size.
func (r Rect) Offset(dx, dy int) Rect {
	r.X += dx
	r.Y += dy
	return r
}

// ClampedMin raises width and height to the given floor. Position is kept.
func (r Rect) ClampedMin(minW, minH int) Rect {
	if r.W < minW {
		r.W = minW
	}
	if r.H < minH {
		r.H = minH
	}
	return r
}

// Clamped applies the package minimum window size.
func (r Rect) Clamped() Rect {
	return r.ClampedMin(MinWidth, MinHeight)
}

// Contains reports whether the point lies inside the rect.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.X+r.W && p.Y >= r.Y && p.Y < r.Y+r.H
}

// IsZero reports whether the rect has no area and sits at the origin.
func (r Rect) IsZero() bool {
	return r == Rect{}
}

// Cascade returns the placement for a new window with the given id and size.
// Offsets repeat every CascadeWrap ids so stacked opens stay distinguishable.
func Cascade(id uint64, w, h int) Rect {
	var step int
	if id > 0 {
		step = int((id-1)%CascadeWrap) * CascadeStep
	}
	return Rect{
		X: CascadeBaseX + step,
		Y: CascadeBaseY + step,
		W: w,
		H: h,
	}.Clamped()
}
