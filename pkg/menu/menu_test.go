package menu

import (
	"strings"
	"testing"

	"github.com/gdamore/tcell/v2"
)

func newTestScreen(t *testing.T, width, height int) tcell.SimulationScreen {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatalf("failed to init simulation screen: %v", err)
	}
	screen.SetSize(width, height)
	t.Cleanup(screen.Fini)
	return screen
}

func readRow(screen tcell.Screen, y, x0, x1 int) string {
	var sb strings.Builder
	for x := x0; x < x1; x++ {
		ch, _, _, _ := screen.GetContent(x, y)
		sb.WriteRune(ch)
	}
	return sb.String()
}

func newPortMenu(t *testing.T) (*Menu, tcell.SimulationScreen) {
	screen := newTestScreen(t, 40, 12)
	m := NewMenu("Ports", screen)
	m.SetBounds(0, 0, 20, 6)
	m.SetItems([]string{"COM1", "COM2", "COM3", "COM4", "COM5"})
	return m, screen
}

func TestMenu_SelectAndItems(t *testing.T) {
	m, _ := newPortMenu(t)

	if m.Selected() != "" || m.selected != -1 {
		t.Errorf("fresh items should have no selection, got %q", m.Selected())
	}

	if !m.Select("COM3") {
		t.Fatal("Select(COM3) failed")
	}
	if m.Selected() != "COM3" || m.selected != 2 {
		t.Errorf("Selected() = %q (%d), want COM3 (2)", m.Selected(), m.selected)
	}

	if m.Select("COM9") {
		t.Error("Select() of missing label should fail")
	}

	if got := strings.Join(m.Items(), ","); got != "COM1,COM2,COM3,COM4,COM5" {
		t.Errorf("Items() = %s", got)
	}

	m.SetItems([]string{"COM1"})
	if m.Selected() != "" {
		t.Error("SetItems() should clear the selection")
	}
}

func TestMenu_MoveSelection(t *testing.T) {
	tests := []struct {
		name      string
		start     int
		direction int
		want      int
	}{
		{"down from none", -1, 1, 0},
		{"up from none", -1, -1, 4},
		{"down", 1, 1, 2},
		{"wrap down", 4, 1, 0},
		{"wrap up", 0, -1, 4},
		{"page down wraps", 3, 4, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := newPortMenu(t)
			if tt.start >= 0 {
				m.setSelected(tt.start)
			}

			if !m.MoveSelection(tt.direction) {
				t.Fatal("MoveSelection() reported no change")
			}
			if m.selected != tt.want {
				t.Errorf("selected index = %d, want %d", m.selected, tt.want)
			}
		})
	}
}

func TestMenu_LockedIgnoresSelection(t *testing.T) {
	m, _ := newPortMenu(t)
	m.Select("COM2")
	m.SetLocked(true)

	if m.MoveSelection(1) {
		t.Error("locked menu should not move")
	}
	if m.HandleMouse(tcell.NewEventMouse(3, 3, tcell.Button1, 0)) {
		t.Error("locked menu should ignore clicks")
	}
	if m.Selected() != "COM2" {
		t.Errorf("Selected() = %q, want COM2", m.Selected())
	}

	m.SetLocked(false)
	if !m.MoveSelection(1) {
		t.Error("unlocked menu should move")
	}
	if m.Selected() != "COM3" {
		t.Errorf("Selected() = %q, want COM3", m.Selected())
	}
}

func TestMenu_OnSelect(t *testing.T) {
	m, _ := newPortMenu(t)

	var picked []string
	m.SetOnSelect(func(index int, item MenuItem) {
		picked = append(picked, item.Label)
	})

	m.MoveSelection(1)
	m.Select("COM4")
	m.MoveSelection(-1)

	if got := strings.Join(picked, ","); got != "COM1,COM3" {
		t.Errorf("callbacks = %s, want only user moves", got)
	}
}

func TestMenu_HitTestAndMouse(t *testing.T) {
	m, _ := newPortMenu(t)

	tests := []struct {
		x, y  int
		index int
		ok    bool
	}{
		{2, 1, 0, true},
		{2, 4, 3, true},
		{0, 1, -1, false},  // border
		{19, 1, -1, false}, // border
		{2, 0, -1, false},  // title row
		{2, 5, -1, false},  // bottom border
		{25, 2, -1, false}, // outside
	}

	for _, tt := range tests {
		index, ok := m.HitTest(tt.x, tt.y)
		if index != tt.index || ok != tt.ok {
			t.Errorf("HitTest(%d,%d) = %d,%v; want %d,%v", tt.x, tt.y, index, ok, tt.index, tt.ok)
		}
	}

	if !m.HandleMouse(tcell.NewEventMouse(5, 2, tcell.Button1, 0)) {
		t.Fatal("click on item should select it")
	}
	if m.Selected() != "COM2" {
		t.Errorf("Selected() = %q, want COM2", m.Selected())
	}
	if m.HandleMouse(tcell.NewEventMouse(5, 2, tcell.ButtonNone, 0)) {
		t.Error("mouse motion should not select")
	}
}

func TestMenu_ScrollsToSelection(t *testing.T) {
	m, screen := newPortMenu(t)

	m.Select("COM5")
	m.Draw()

	// 4 visible rows: COM2..COM5
	if row := readRow(screen, 1, 2, 6); row != "COM2" {
		t.Errorf("first visible row = %q, want COM2", row)
	}
	if row := readRow(screen, 4, 2, 6); row != "COM5" {
		t.Errorf("last visible row = %q, want COM5", row)
	}
	if ch, _, _, _ := screen.GetContent(19, 1); ch != '▲' {
		t.Errorf("expected scroll-up marker, got %q", ch)
	}

	index, ok := m.HitTest(2, 1)
	if !ok || index != 1 {
		t.Errorf("HitTest on scrolled list = %d,%v; want 1,true", index, ok)
	}
}

func TestMenu_Draw(t *testing.T) {
	screen := newTestScreen(t, 40, 10)
	m := NewMenu("Ports", screen)
	m.SetBounds(1, 1, 16, 5)
	m.SetEmptyText("no ports")
	m.Draw()

	if row := readRow(screen, 1, 1, 17); !strings.HasPrefix(row, "┌─ Ports ") {
		t.Errorf("title row = %q", row)
	}
	if row := readRow(screen, 2, 2, 10); row != "no ports" {
		t.Errorf("empty text row = %q", row)
	}

	m.SetItems([]string{"/dev/ttyUSB0-with-a-very-long-name"})
	m.Select("/dev/ttyUSB0-with-a-very-long-name")
	m.Draw()

	row := readRow(screen, 2, 3, 15)
	if !strings.HasPrefix(row, "/dev/ttyUSB") || !strings.HasSuffix(row, "…") {
		t.Errorf("long label should be truncated, got %q", row)
	}

	_, _, style, _ := screen.GetContent(3, 2)
	if style != selectedStyle {
		t.Error("selected item should use the selected style")
	}

	m.SetLocked(true)
	m.Draw()
	_, _, style, _ = screen.GetContent(3, 2)
	if style != lockedStyle {
		t.Error("locked selection should use the locked style")
	}
}

func TestOverlayManager_ShowDismiss(t *testing.T) {
	screen := newTestScreen(t, 40, 12)
	screen.SetContent(20, 6, 'X', nil, tcell.StyleDefault)

	om := NewOverlayManager(screen)
	om.Show("Help", []string{"Ctrl+Q  quit", "F1      help"})

	if !om.IsVisible() {
		t.Fatal("overlay should be visible after Show()")
	}
	if ch, _, _, _ := screen.GetContent(20, 6); ch == 'X' {
		t.Error("overlay should cover the screen centre")
	}

	found := false
	for y := 0; y < 12; y++ {
		if strings.Contains(readRow(screen, y, 0, 40), "Ctrl+Q  quit") {
			found = true
		}
	}
	if !found {
		t.Error("overlay lines not drawn")
	}

	om.Dismiss()
	if om.IsVisible() {
		t.Error("overlay should be hidden after Dismiss()")
	}
	if ch, _, _, _ := screen.GetContent(20, 6); ch != 'X' {
		t.Errorf("Dismiss() should restore the screen, got %q", ch)
	}
}
