package geometry

import (
	"fmt"
	"math"
)

// CalculateGrid determines the optimal grid dimensions for the given number of windows
func CalculateGrid(numWindows int) (rows, cols int) {
	if numWindows <= 0 {
		return 0, 0
	}

	// Columns first (ceiling of square root), then the rows needed.
	cols = int(math.Ceil(math.Sqrt(float64(numWindows))))
	rows = int(math.Ceil(float64(numWindows) / float64(cols)))

	return rows, cols
}

// CalculatePositions computes window rects for a grid layout with gaps inside
// area. Windows on a short last row expand to fill the width. Every rect is
// clamped to the minimum window size, so tiles may overlap when the area is
// too small to hold the grid.
func CalculatePositions(numWindows int, area Rect, gapSize int) ([]Rect, error) {
	if numWindows <= 0 {
		return nil, nil
	}
	if gapSize < 0 {
		return nil, fmt.Errorf("gap must be >= 0, got %d", gapSize)
	}

	rows, cols := CalculateGrid(numWindows)

	// (cols + 1) gaps: one before each column and one after the last.
	slotWidth := (area.W - (cols+1)*gapSize) / cols
	slotHeight := (area.H - (rows+1)*gapSize) / rows
	if slotWidth <= 0 || slotHeight <= 0 {
		return nil, fmt.Errorf(
			"insufficient space for grid: area=%dx%d rows=%d cols=%d gap=%d",
			area.W, area.H, rows, cols, gapSize,
		)
	}

	lastRow := rows - 1
	inLastRow := numWindows - lastRow*cols
	lastRowWidth := slotWidth
	if inLastRow > 0 && inLastRow < cols {
		lastRowWidth = (area.W - (inLastRow+1)*gapSize) / inLastRow
	}

	positions := make([]Rect, numWindows)
	for i := 0; i < numWindows; i++ {
		row := i / cols
		col := i % cols
		width := slotWidth
		if row == lastRow {
			width = lastRowWidth
		}
		positions[i] = Rect{
			X: area.X + gapSize + col*(width+gapSize),
			Y: area.Y + gapSize + row*(slotHeight+gapSize),
			W: width,
			H: slotHeight,
		}.Clamped()
	}

	return positions, nil
}
