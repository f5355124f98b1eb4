package geometry

import (
	"fmt"
	"strings"
)

// Edge identifies the window border or corner grabbed for resizing.
type Edge int

const (
	EdgeNorth Edge = iota
	EdgeSouth
	EdgeEast
	EdgeWest
	EdgeNorthEast
	EdgeNorthWest
	EdgeSouthEast
	EdgeSouthWest
)

var edgeNames = map[Edge]string{
	EdgeNorth:     "n",
	EdgeSouth:     "s",
	EdgeEast:      "e",
	EdgeWest:      "w",
	EdgeNorthEast: "ne",
	EdgeNorthWest: "nw",
	EdgeSouthEast: "se",
	EdgeSouthWest: "sw",
}

// String returns the compass abbreviation of the edge.
func (e Edge) String() string {
	if name, ok := edgeNames[e]; ok {
		return name
	}
	return "unknown"
}

// ParseEdge converts a compass abbreviation ("n", "se", ...) or a full name
// ("north", "south-east") to an Edge.
func ParseEdge(s string) (Edge, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer("-", "", "_", "", " ", "").Replace(key)
	switch key {
	case "n", "north", "top":
		return EdgeNorth, nil
	case "s", "south", "bottom":
		return EdgeSouth, nil
	case "e", "east", "right":
		return EdgeEast, nil
	case "w", "west", "left":
		return EdgeWest, nil
	case "ne", "northeast", "topright":
		return EdgeNorthEast, nil
	case "nw", "northwest", "topleft":
		return EdgeNorthWest, nil
	case "se", "southeast", "bottomright":
		return EdgeSouthEast, nil
	case "sw", "southwest", "bottomleft":
		return EdgeSouthWest, nil
	}
	return 0, fmt.Errorf("unknown resize edge %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (e Edge) MarshalText() ([]byte, error) {
	if _, ok := edgeNames[e]; !ok {
		return nil, fmt.Errorf("unknown resize edge %d", int(e))
	}
	return []byte(e.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (e *Edge) UnmarshalText(text []byte) error {
	parsed, err := ParseEdge(string(text))
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}

func (e Edge) north() bool { return e == EdgeNorth || e == EdgeNorthEast || e == EdgeNorthWest }
func (e Edge) south() bool { return e == EdgeSouth || e == EdgeSouthEast || e == EdgeSouthWest }
func (e Edge) east() bool  { return e == EdgeEast || e == EdgeNorthEast || e == EdgeSouthEast }
func (e Edge) west() bool  { return e == EdgeWest || e == EdgeNorthWest || e == EdgeSouthWest }

// ResizeRect applies a pointer delta to start for the grabbed edge.
// Leading edges (north, west) move the origin and change the size by the
// negated delta; trailing edges (south, east) only change the size. Corners
// combine the two adjacent edges. The result is not clamped.
func ResizeRect(start Rect, edge Edge, dx, dy int) Rect {
	r := start
	if edge.east() {
		r.W = start.W + dx
	}
	if edge.west() {
		r.X = start.X + dx
		r.W = start.W - dx
	}
	if edge.south() {
		r.H = start.H + dy
	}
	if edge.north() {
		r.Y = start.Y + dy
		r.H = start.H - dy
	}
	return r
}
