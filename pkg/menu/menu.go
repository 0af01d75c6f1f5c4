// Package menu provides the boxed list selector and screen overlays drawn on
// a tcell screen
package menu

import (
	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
)

// Menu is a bordered, scrollable list drawn inside a rectangle
type Menu struct {
	items    []MenuItem
	selected int
	offset   int
	locked   bool
	screen   tcell.Screen
	x, y     int
	width    int
	height   int
	title    string
	empty    string

	// Callbacks
	onSelect func(index int, item MenuItem)
}

// MenuItem represents a single list entry
type MenuItem struct {
	Label string
}

var (
	menuStyle     = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	selectedStyle = tcell.StyleDefault.Background(tcell.ColorWhite).Foreground(tcell.ColorBlack)
	lockedStyle   = tcell.StyleDefault.Background(tcell.ColorGray).Foreground(tcell.ColorBlack)
	disabledStyle = tcell.StyleDefault.Foreground(tcell.ColorGray)
)

// NewMenu creates an empty menu
func NewMenu(title string, screen tcell.Screen) *Menu {
	return &Menu{
		title:    title,
		screen:   screen,
		items:    make([]MenuItem, 0),
		selected: -1,
		width:    20,
		height:   5,
	}
}

// SetBounds places the menu, border included
func (m *Menu) SetBounds(x, y, width, height int) {
	m.x, m.y = x, y
	m.width, m.height = width, height
	m.scrollToSelected()
}

// SetEmptyText sets the line drawn when there are no items
func (m *Menu) SetEmptyText(text string) {
	m.empty = text
}

// SetItems replaces the items. The selection is cleared; call Select to
// restore it.
func (m *Menu) SetItems(labels []string) {
	m.items = make([]MenuItem, len(labels))
	for i, label := range labels {
		m.items[i] = MenuItem{Label: label}
	}
	m.selected = -1
	m.offset = 0
}

// Items returns the item labels in order
func (m *Menu) Items() []string {
	labels := make([]string, len(m.items))
	for i, item := range m.items {
		labels[i] = item.Label
	}
	return labels
}

// Select selects the item with the given label
func (m *Menu) Select(label string) bool {
	for i, item := range m.items {
		if item.Label == label {
			m.setSelected(i)
			return true
		}
	}
	return false
}

// Selected returns the selected label, or "" when nothing is selected
func (m *Menu) Selected() string {
	if m.selected < 0 || m.selected >= len(m.items) {
		return ""
	}
	return m.items[m.selected].Label
}

// SetLocked freezes the selection. A locked menu ignores selection changes.
func (m *Menu) SetLocked(locked bool) {
	m.locked = locked
}

// SetOnSelect sets the callback run when MoveSelection or HandleMouse
// changes the selection. Select does not run it.
func (m *Menu) SetOnSelect(callback func(index int, item MenuItem)) {
	m.onSelect = callback
}

// MoveSelection moves the selection by direction, wrapping around. With
// nothing selected it starts from the first item going down and the last
// going up. It reports whether the selection changed and runs the OnSelect
// callback when it did.
func (m *Menu) MoveSelection(direction int) bool {
	if m.locked || len(m.items) == 0 || direction == 0 {
		return false
	}

	itemCount := len(m.items)
	start := m.selected
	if start < 0 {
		start = itemCount - 1
		if direction < 0 {
			start = 0
		}
	}

	newSelected := ((start+direction)%itemCount + itemCount) % itemCount
	if newSelected == m.selected {
		return false
	}

	m.setSelected(newSelected)
	m.notify()
	return true
}

// HitTest maps a screen cell to an item index
func (m *Menu) HitTest(x, y int) (int, bool) {
	if x <= m.x || x >= m.x+m.width-1 {
		return -1, false
	}

	row := y - m.listTop()
	if row < 0 || row >= m.visibleRows() {
		return -1, false
	}

	index := m.offset + row
	if index >= len(m.items) {
		return -1, false
	}
	return index, true
}

// HandleMouse selects the clicked item
func (m *Menu) HandleMouse(ev *tcell.EventMouse) bool {
	if ev.Buttons()&tcell.Button1 == 0 || m.locked {
		return false
	}

	x, y := ev.Position()
	index, ok := m.HitTest(x, y)
	if !ok || index == m.selected {
		return false
	}

	m.setSelected(index)
	m.notify()
	return true
}

// Draw renders the menu on screen
func (m *Menu) Draw() {
	if m.width < 3 || m.height < 3 {
		return
	}

	m.drawBorder()

	if m.title != "" {
		title := " " + m.title + " "
		m.drawText(m.x+2, m.y, title, m.width-4, menuStyle.Bold(true))
	}

	top := m.listTop()
	inner := m.width - 2

	if len(m.items) == 0 && m.empty != "" {
		m.drawText(m.x+1, top, m.empty, inner, disabledStyle)
		return
	}

	for row := 0; row < m.visibleRows(); row++ {
		index := m.offset + row
		if index >= len(m.items) {
			break
		}
		item := m.items[index]

		itemStyle := menuStyle
		switch {
		case index == m.selected && m.locked:
			itemStyle = lockedStyle
		case index == m.selected:
			itemStyle = selectedStyle
		case m.locked:
			itemStyle = disabledStyle
		}

		// Clear line first
		for x := m.x + 1; x < m.x+m.width-1; x++ {
			m.screen.SetContent(x, top+row, ' ', nil, itemStyle)
		}
		m.drawText(m.x+2, top+row, item.Label, inner-2, itemStyle)
	}

	if m.offset > 0 {
		m.screen.SetContent(m.x+m.width-1, top, '▲', nil, menuStyle)
	}
	if m.offset+m.visibleRows() < len(m.items) {
		m.screen.SetContent(m.x+m.width-1, top+m.visibleRows()-1, '▼', nil, menuStyle)
	}
}

func (m *Menu) setSelected(index int) {
	m.selected = index
	m.scrollToSelected()
}

func (m *Menu) notify() {
	if m.onSelect != nil && m.selected >= 0 {
		m.onSelect(m.selected, m.items[m.selected])
	}
}

func (m *Menu) listTop() int {
	return m.y + 1
}

func (m *Menu) visibleRows() int {
	rows := m.height - 2
	if rows < 0 {
		return 0
	}
	return rows
}

func (m *Menu) scrollToSelected() {
	rows := m.visibleRows()
	if m.selected < 0 || rows == 0 {
		return
	}
	if m.selected < m.offset {
		m.offset = m.selected
	}
	if m.selected >= m.offset+rows {
		m.offset = m.selected - rows + 1
	}
}

// drawBorder draws the menu border
func (m *Menu) drawBorder() {
	drawBox(m.screen, m.x, m.y, m.width, m.height, menuStyle)
}

// drawText draws text clipped to maxWidth cells
func (m *Menu) drawText(x, y int, text string, maxWidth int, style tcell.Style) {
	drawText(m.screen, x, y, text, maxWidth, style)
}

func drawBox(screen tcell.Screen, x, y, width, height int, style tcell.Style) {
	// Top border
	screen.SetContent(x, y, '┌', nil, style)
	screen.SetContent(x+width-1, y, '┐', nil, style)
	for cx := x + 1; cx < x+width-1; cx++ {
		screen.SetContent(cx, y, '─', nil, style)
	}

	// Side borders and fill
	for cy := y + 1; cy < y+height-1; cy++ {
		screen.SetContent(x, cy, '│', nil, style)
		screen.SetContent(x+width-1, cy, '│', nil, style)
		for cx := x + 1; cx < x+width-1; cx++ {
			screen.SetContent(cx, cy, ' ', nil, style)
		}
	}

	// Bottom border
	screen.SetContent(x, y+height-1, '└', nil, style)
	screen.SetContent(x+width-1, y+height-1, '┘', nil, style)
	for cx := x + 1; cx < x+width-1; cx++ {
		screen.SetContent(cx, y+height-1, '─', nil, style)
	}
}

func drawText(screen tcell.Screen, x, y int, text string, maxWidth int, style tcell.Style) {
	if maxWidth <= 0 {
		return
	}
	text = runewidth.Truncate(text, maxWidth, "…")
	for _, ch := range text {
		screen.SetContent(x, y, ch, nil, style)
		x += runewidth.RuneWidth(ch)
	}
}
