package maze

import (
	"strings"
	"testing"
)

func TestParseDirection(t *testing.T) {
	tests := []struct {
		token string
		want  Direction
		ok    bool
	}{
		{"up", Up, true},
		{"UP", Up, true},
		{"Down", Down, true},
		{"lEfT", Left, true},
		{"right", Right, true},
		{"forward", 0, false},
		{"", 0, false},
		{"up!", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			got, ok := ParseDirection(tt.token)
			if ok != tt.ok {
				t.Fatalf("ParseDirection(%q) ok = %v, want %v", tt.token, ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("ParseDirection(%q) = %v, want %v", tt.token, got, tt.want)
			}
		})
	}
}

func TestTokenize(t *testing.T) {
	got := Tokenize("up\r\ndown\tleft  right\n")
	want := []string{"up", "down", "left", "right"}

	if len(got) != len(want) {
		t.Fatalf("Tokenize() returned %d tokens, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestNewGrid(t *testing.T) {
	tests := []struct {
		name    string
		cells   [][]CellKind
		wantErr bool
	}{
		{"valid", [][]CellKind{{Empty, Wall}, {Wall, Empty}}, false},
		{"empty", nil, true},
		{"empty row", [][]CellKind{{}}, true},
		{"ragged", [][]CellKind{{Empty, Empty}, {Empty}}, true},
		{"bad kind", [][]CellKind{{Empty, CellKind(7)}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGrid(tt.cells)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewGrid() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewGrid_CopiesInput(t *testing.T) {
	cells := [][]CellKind{{Empty, Empty}}
	grid, err := NewGrid(cells)
	if err != nil {
		t.Fatalf("NewGrid() failed: %v", err)
	}

	cells[0][1] = Wall
	if kind, _ := grid.At(Position{Row: 0, Col: 1}); kind != Empty {
		t.Error("grid should not change when the input slice is modified")
	}
}

func TestDefaultGrid(t *testing.T) {
	grid := DefaultGrid()

	if grid.Rows() != 5 || grid.Cols() != 7 {
		t.Fatalf("DefaultGrid() is %dx%d, want 5x7", grid.Rows(), grid.Cols())
	}

	walls := []Position{{0, 1}, {0, 5}, {1, 1}, {1, 3}, {1, 5}, {2, 3}, {3, 0}, {3, 1}, {3, 3}, {3, 4}, {3, 5}}
	for _, p := range walls {
		if kind, _ := grid.At(p); kind != Wall {
			t.Errorf("cell %s = %v, want wall", p, kind)
		}
	}

	count := 0
	for row := 0; row < grid.Rows(); row++ {
		for col := 0; col < grid.Cols(); col++ {
			if kind, _ := grid.At(Position{Row: row, Col: col}); kind == Wall {
				count++
			}
		}
	}
	if count != len(walls) {
		t.Errorf("DefaultGrid() has %d walls, want %d", count, len(walls))
	}
}

func TestNew_RejectsBadStart(t *testing.T) {
	grid := DefaultGrid()

	if _, err := New(grid, Position{Row: 0, Col: 1}); err == nil {
		t.Error("New() should reject a start on a wall")
	}
	if _, err := New(grid, Position{Row: -1, Col: 0}); err == nil {
		t.Error("New() should reject a start outside the grid")
	}
	if _, err := New(nil, Position{}); err == nil {
		t.Error("New() should reject a nil grid")
	}
}

func TestMaze_Move(t *testing.T) {
	tests := []struct {
		name  string
		start Position
		dir   Direction
		want  Position
		moved bool
	}{
		{"up at top edge", Position{0, 0}, Up, Position{0, 0}, false},
		{"left at left edge", Position{0, 0}, Left, Position{0, 0}, false},
		{"right into wall", Position{0, 0}, Right, Position{0, 0}, false},
		{"down into empty", Position{0, 0}, Down, Position{1, 0}, true},
		{"down at bottom edge", Position{4, 3}, Down, Position{4, 3}, false},
		{"right at right edge", Position{0, 6}, Right, Position{0, 6}, false},
		{"up into wall", Position{4, 0}, Up, Position{4, 0}, false},
		{"right along bottom", Position{4, 0}, Right, Position{4, 1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := New(DefaultGrid(), tt.start)
			if err != nil {
				t.Fatalf("New() failed: %v", err)
			}

			moved := m.Move(tt.dir)
			if moved != tt.moved {
				t.Errorf("Move(%v) = %v, want %v", tt.dir, moved, tt.moved)
			}
			if m.Marker() != tt.want {
				t.Errorf("marker = %s, want %s", m.Marker(), tt.want)
			}
		})
	}
}

func TestMaze_MoveAcceptedIffTargetOpen(t *testing.T) {
	grid := DefaultGrid()
	for row := 0; row < grid.Rows(); row++ {
		for col := 0; col < grid.Cols(); col++ {
			start := Position{Row: row, Col: col}
			if !grid.IsOpen(start) {
				continue
			}
			for _, d := range []Direction{Up, Down, Left, Right} {
				m, _ := New(grid, start)
				dRow, dCol := d.Delta()
				target := Position{Row: row + dRow, Col: col + dCol}

				moved := m.Move(d)
				if moved != grid.IsOpen(target) {
					t.Errorf("Move(%v) from %s = %v, target open = %v", d, start, moved, grid.IsOpen(target))
				}
				if !moved && m.Marker() != start {
					t.Errorf("refused move from %s changed marker to %s", start, m.Marker())
				}
			}
		}
	}
}

func TestMaze_NeverOnWall(t *testing.T) {
	grid := DefaultGrid()
	start := Position{}

	seen := map[Position]bool{start: true}
	queue := []Position{start}
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]

		for _, d := range []Direction{Up, Down, Left, Right} {
			m, err := New(grid, p)
			if err != nil {
				t.Fatalf("reachable position %s rejected: %v", p, err)
			}
			m.Move(d)
			next := m.Marker()

			if kind, ok := grid.At(next); !ok || kind == Wall {
				t.Fatalf("marker reached %s (in bounds %v, kind %v)", next, ok, kind)
			}
			if !seen[next] {
				seen[next] = true
				queue = append(queue, next)
			}
		}
	}

	// Every empty cell of the default maze is connected to the start.
	if len(seen) != 35-11 {
		t.Errorf("reached %d cells, want %d", len(seen), 35-11)
	}
}

func TestMaze_ApplyFromTopLeft(t *testing.T) {
	m := NewDefault()

	steps := m.Apply("up down left right")

	if len(steps) != 4 {
		t.Fatalf("Apply() returned %d steps, want 4", len(steps))
	}
	wantMoved := []bool{false, true, false, false}
	for i, s := range steps {
		if s.Moved != wantMoved[i] {
			t.Errorf("step %d (%s) moved = %v, want %v", i, s.Token, s.Moved, wantMoved[i])
		}
	}
	if got := m.Marker(); got != (Position{Row: 1, Col: 0}) {
		t.Errorf("final marker = %s, want (1,0)", got)
	}
	if CountMoves(steps) != 1 {
		t.Errorf("CountMoves() = %d, want 1", CountMoves(steps))
	}
}

func TestMaze_ApplyIgnoresOtherTokens(t *testing.T) {
	m := NewDefault()

	steps := m.Apply("hello DOWN\r\nworld Down 42\n")

	if len(steps) != 2 {
		t.Fatalf("Apply() returned %d steps, want 2", len(steps))
	}
	if got := m.Marker(); got != (Position{Row: 2, Col: 0}) {
		t.Errorf("final marker = %s, want (2,0)", got)
	}
	if steps[0].Token != "DOWN" || steps[0].From != (Position{}) || steps[0].To != (Position{Row: 1}) {
		t.Errorf("unexpected first step: %+v", steps[0])
	}
}

func TestMaze_Reset(t *testing.T) {
	m := NewDefault()
	m.Apply("down down right right")
	if m.Marker() == m.Start() {
		t.Fatal("marker should have moved")
	}

	m.Reset()
	if m.Marker() != m.Start() {
		t.Errorf("Reset() left marker at %s", m.Marker())
	}
}

func TestMaze_String(t *testing.T) {
	m := NewDefault()
	m.Move(Down)

	lines := strings.Split(strings.TrimRight(m.String(), "\n"), "\n")
	want := []string{
		".#...#.",
		"@#.#.#.",
		"...#...",
		"##.###.",
		".......",
	}

	if len(lines) != len(want) {
		t.Fatalf("String() has %d lines, want %d", len(lines), len(want))
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestDirection_String(t *testing.T) {
	for _, d := range []Direction{Up, Down, Left, Right} {
		parsed, ok := ParseDirection(d.String())
		if !ok || parsed != d {
			t.Errorf("ParseDirection(%q) = %v, %v", d.String(), parsed, ok)
		}
	}
	if Direction(99).String() != "unknown" {
		t.Error("invalid direction should print as unknown")
	}
}
