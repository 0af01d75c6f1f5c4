// Package ui draws the maze, the port sidebar and the serial output panel on
// a tcell screen
package ui

// Rect is a screen rectangle in cells
type Rect struct {
	X, Y          int
	Width, Height int
}

// Contains reports whether the cell (x, y) lies inside r
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}

const (
	sidebarWidth    = 26
	minSidebarWidth = 16
	minTopHeight    = 10
	minOutputHeight = 4
	cellWidth       = 2
)

// Layout splits the screen into the sidebar (top left), the maze (top, to
// the right of the sidebar) and the output panel (bottom, full width)
type Layout struct {
	Width, Height int
	Sidebar       Rect
	Ports         Rect
	Button        Rect
	Status        Rect
	Maze          Rect
	Output        Rect
	TooSmall      bool
}

// ComputeLayout places the panels for a screen of width x height holding a
// maze of rows x cols cells
func ComputeLayout(width, height, rows, cols int) Layout {
	l := Layout{Width: width, Height: height}

	mazeWidth := cols*cellWidth + 2
	mazeHeight := rows + 2

	side := sidebarWidth
	if width-mazeWidth < side {
		side = width - mazeWidth
	}
	if side < minSidebarWidth {
		side = minSidebarWidth
	}

	top := mazeHeight
	if top < minTopHeight {
		top = minTopHeight
	}
	if height-top < minOutputHeight {
		top = height - minOutputHeight
	}

	if top < 6 || width < side+mazeWidth {
		l.TooSmall = true
		return l
	}

	l.Sidebar = Rect{X: 0, Y: 0, Width: side, Height: top}
	l.Ports = Rect{X: 0, Y: 0, Width: side, Height: top - 3}
	l.Button = Rect{X: 1, Y: top - 3, Width: side - 4, Height: 1}
	l.Status = Rect{X: 1, Y: top - 2, Width: side - 2, Height: 2}

	// Top right, as far right as the screen allows
	mazeX := width - mazeWidth
	if mazeX < side {
		mazeX = side
	}
	mazeY := (top - mazeHeight) / 2
	if mazeY < 0 {
		mazeY = 0
	}
	l.Maze = Rect{X: mazeX, Y: mazeY, Width: mazeWidth, Height: mazeHeight}

	l.Output = Rect{X: 0, Y: top, Width: width, Height: height - top}
	return l
}

// MazeCell returns the screen cell where the maze cell (row, col) starts
func (l Layout) MazeCell(row, col int) (x, y int) {
	return l.Maze.X + 1 + col*cellWidth, l.Maze.Y + 1 + row
}
