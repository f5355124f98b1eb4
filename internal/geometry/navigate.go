package geometry

import (
	"fmt"
	"strings"
)

// Direction is a spatial navigation direction.
type Direction int

const (
	DirUp Direction = iota
	DirDown
	DirLeft
	DirRight
)

func (d Direction) String() string {
	switch d {
	case DirUp:
		return "up"
	case DirDown:
		return "down"
	case DirLeft:
		return "left"
	case DirRight:
		return "right"
	}
	return "unknown"
}

// ParseDirection accepts up/down/left/right and the vi keys k/j/h/l.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up", "k", "north":
		return DirUp, nil
	case "down", "j", "south":
		return DirDown, nil
	case "left", "h", "west":
		return DirLeft, nil
	case "right", "l", "east":
		return DirRight, nil
	}
	return 0, fmt.Errorf("unknown direction %q", s)
}

func (r Rect) center() (int, int) {
	return r.X + r.W/2, r.Y + r.H/2
}

// Nearest returns the index of the rect closest to rects[current] in dir,
// measured centre to centre. When nothing lies in that direction it wraps to
// the rect furthest the other way, preferring the same row or column. It
// returns current when there is nowhere to go.
func Nearest(rects []Rect, current int, dir Direction) int {
	if current < 0 || current >= len(rects) {
		return current
	}
	cx, cy := rects[current].center()

	best, bestDist := -1, 0
	for i, r := range rects {
		if i == current {
			continue
		}
		x, y := r.center()
		ahead := false
		switch dir {
		case DirUp:
			ahead = y < cy
		case DirDown:
			ahead = y > cy
		case DirLeft:
			ahead = x < cx
		case DirRight:
			ahead = x > cx
		}
		if !ahead {
			continue
		}
		dist := abs(x-cx) + abs(y-cy)
		if best == -1 || dist < bestDist {
			best, bestDist = i, dist
		}
	}
	if best >= 0 {
		return best
	}

	// Wrap: the far edge scores highest, cross-axis distance breaks ties.
	bestScore := 0
	for i, r := range rects {
		if i == current {
			continue
		}
		x, y := r.center()
		var score int
		switch dir {
		case DirUp:
			score = y*10000 - abs(x-cx)
		case DirDown:
			score = -y*10000 - abs(x-cx)
		case DirLeft:
			score = x*10000 - abs(y-cy)
		case DirRight:
			score = -x*10000 - abs(y-cy)
		}
		if best == -1 || score > bestScore {
			best, bestScore = i, score
		}
	}
	if best >= 0 {
		return best
	}
	return current
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
