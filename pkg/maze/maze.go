// Package maze provides the fixed maze grid and the marker moved through it
package maze

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

// CellKind represents the content of a single grid cell
type CellKind int

const (
	Empty CellKind = iota
	Wall
)

// String returns the string representation of CellKind
func (k CellKind) String() string {
	switch k {
	case Empty:
		return "empty"
	case Wall:
		return "wall"
	default:
		return "unknown"
	}
}

// Position is a (row, column) pair, row 0 being the top row
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// String returns the position formatted as (row,col)
func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.Row, p.Col)
}

// Direction represents a single marker step
type Direction int

const (
	Up Direction = iota
	Down
	Left
	Right
)

// String returns the token that selects the direction
func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return "unknown"
	}
}

// Delta returns the row and column offset of one step in this direction
func (d Direction) Delta() (dRow, dCol int) {
	switch d {
	case Up:
		return -1, 0
	case Down:
		return 1, 0
	case Left:
		return 0, -1
	case Right:
		return 0, 1
	default:
		return 0, 0
	}
}

// ParseDirection maps a token to a direction, ignoring case
func ParseDirection(token string) (Direction, bool) {
	// Casers carry state, so each call gets its own.
	switch cases.Fold().String(token) {
	case "up":
		return Up, true
	case "down":
		return Down, true
	case "left":
		return Left, true
	case "right":
		return Right, true
	default:
		return 0, false
	}
}

// Tokenize splits text on any run of whitespace
func Tokenize(text string) []string {
	return strings.Fields(text)
}

// Grid is an immutable rectangle of cells
type Grid struct {
	cells [][]CellKind
	rows  int
	cols  int
}

// NewGrid creates a grid from a copy of cells. The input must be rectangular
// and non-empty.
func NewGrid(cells [][]CellKind) (*Grid, error) {
	if len(cells) == 0 || len(cells[0]) == 0 {
		return nil, fmt.Errorf("grid cannot be empty")
	}

	cols := len(cells[0])
	copied := make([][]CellKind, len(cells))
	for i, row := range cells {
		if len(row) != cols {
			return nil, fmt.Errorf("row %d has %d cells, want %d", i, len(row), cols)
		}
		for j, kind := range row {
			if kind != Empty && kind != Wall {
				return nil, fmt.Errorf("invalid cell kind %d at %s", kind, Position{Row: i, Col: j})
			}
		}
		copied[i] = append([]CellKind(nil), row...)
	}

	return &Grid{
		cells: copied,
		rows:  len(cells),
		cols:  cols,
	}, nil
}

// DefaultGrid returns the built-in 5x7 maze
func DefaultGrid() *Grid {
	const (
		E = Empty
		W = Wall
	)
	grid, err := NewGrid([][]CellKind{
		{E, W, E, E, E, W, E},
		{E, W, E, W, E, W, E},
		{E, E, E, W, E, E, E},
		{W, W, E, W, W, W, E},
		{E, E, E, E, E, E, E},
	})
	if err != nil {
		panic(err)
	}
	return grid
}

// Rows returns the number of rows
func (g *Grid) Rows() int {
	return g.rows
}

// Cols returns the number of columns
func (g *Grid) Cols() int {
	return g.cols
}

// InBounds reports whether p lies inside the grid
func (g *Grid) InBounds(p Position) bool {
	return p.Row >= 0 && p.Row < g.rows && p.Col >= 0 && p.Col < g.cols
}

// At returns the cell kind at p. ok is false when p is out of bounds.
func (g *Grid) At(p Position) (kind CellKind, ok bool) {
	if !g.InBounds(p) {
		return Empty, false
	}
	return g.cells[p.Row][p.Col], true
}

// IsOpen reports whether the marker may stand on p
func (g *Grid) IsOpen(p Position) bool {
	kind, ok := g.At(p)
	return ok && kind != Wall
}

// Step records the outcome of one direction token
type Step struct {
	Token     string    `json:"token"`
	Direction Direction `json:"direction"`
	From      Position  `json:"from"`
	To        Position  `json:"to"`
	Moved     bool      `json:"moved"`
}

// Maze is a grid plus the marker position
type Maze struct {
	grid   *Grid
	start  Position
	marker Position
}

// New creates a maze with the marker at start
func New(grid *Grid, start Position) (*Maze, error) {
	if grid == nil {
		return nil, fmt.Errorf("grid cannot be nil")
	}
	if !grid.InBounds(start) {
		return nil, fmt.Errorf("start %s is outside the %dx%d grid", start, grid.Rows(), grid.Cols())
	}
	if !grid.IsOpen(start) {
		return nil, fmt.Errorf("start %s is a wall", start)
	}

	return &Maze{
		grid:   grid,
		start:  start,
		marker: start,
	}, nil
}

// NewDefault creates the built-in maze with the marker in the top-left cell
func NewDefault() *Maze {
	m, err := New(DefaultGrid(), Position{})
	if err != nil {
		panic(err)
	}
	return m
}

// Grid returns the underlying grid
func (m *Maze) Grid() *Grid {
	return m.grid
}

// Marker returns the current marker position
func (m *Maze) Marker() Position {
	return m.marker
}

// Start returns the position the marker is reset to
func (m *Maze) Start() Position {
	return m.start
}

// Move moves the marker one cell in direction d. The move is refused, and
// false returned, when the target is outside the grid or a wall.
func (m *Maze) Move(d Direction) bool {
	dRow, dCol := d.Delta()
	if dRow == 0 && dCol == 0 {
		return false
	}

	target := Position{Row: m.marker.Row + dRow, Col: m.marker.Col + dCol}
	if !m.grid.IsOpen(target) {
		return false
	}

	m.marker = target
	return true
}

// Apply tokenizes text and applies every direction token in order. Tokens
// that are not directions are skipped and produce no step.
func (m *Maze) Apply(text string) []Step {
	var steps []Step
	for _, token := range Tokenize(text) {
		d, ok := ParseDirection(token)
		if !ok {
			continue
		}

		from := m.marker
		moved := m.Move(d)
		steps = append(steps, Step{
			Token:     token,
			Direction: d,
			From:      from,
			To:        m.marker,
			Moved:     moved,
		})
	}
	return steps
}

// Reset puts the marker back on the start cell
func (m *Maze) Reset() {
	m.marker = m.start
}

// String renders the maze as text: '#' wall, '.' empty, '@' marker
func (m *Maze) String() string {
	var sb strings.Builder
	for row := 0; row < m.grid.rows; row++ {
		for col := 0; col < m.grid.cols; col++ {
			switch {
			case row == m.marker.Row && col == m.marker.Col:
				sb.WriteByte('@')
			case m.grid.cells[row][col] == Wall:
				sb.WriteByte('#')
			default:
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// CountMoves returns how many steps actually moved the marker
func CountMoves(steps []Step) int {
	n := 0
	for _, s := range steps {
		if s.Moved {
			n++
		}
	}
	return n
}
