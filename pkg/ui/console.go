package ui

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"

	"serial-maze/pkg/maze"
	"serial-maze/pkg/menu"
)

const (
	openLabel  = "Open port"
	closeLabel = "Close port"
)

var (
	borderStyle    = tcell.StyleDefault.Foreground(tcell.ColorSilver)
	titleStyle     = tcell.StyleDefault.Foreground(tcell.ColorWhite).Bold(true)
	textStyle      = tcell.StyleDefault
	dimStyle       = tcell.StyleDefault.Foreground(tcell.ColorGray)
	wallStyle      = tcell.StyleDefault.Background(tcell.ColorGray)
	emptyStyle     = tcell.StyleDefault.Foreground(tcell.ColorDarkGray)
	markerStyle    = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	buttonStyle    = tcell.StyleDefault.Background(tcell.ColorNavy).Foreground(tcell.ColorWhite)
	disabledButton = tcell.StyleDefault.Background(tcell.ColorDarkGray).Foreground(tcell.ColorGray)
	indicatorOn    = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	indicatorOff   = tcell.StyleDefault.Foreground(tcell.ColorGray)
)

// OutputSource holds the text shown in the output panel
type OutputSource interface {
	Text() string
}

// Console renders the application state on a tcell screen. It is not safe
// for concurrent use; all calls belong on the event loop goroutine.
type Console struct {
	screen  tcell.Screen
	layout  Layout
	ports   *menu.Menu
	overlay *menu.OverlayManager

	maze        *maze.Maze
	openEnabled bool
	connected   bool
	status      string

	output OutputSource
	scroll int

	help      []string
	helpTitle string
}

// NewConsole creates a console showing the text of output
func NewConsole(screen tcell.Screen, m *maze.Maze, output OutputSource) *Console {
	c := &Console{
		screen:  screen,
		maze:    m,
		output:  output,
		ports:   menu.NewMenu("Serial port", screen),
		overlay: menu.NewOverlayManager(screen),
	}
	c.ports.SetEmptyText("no ports found")
	c.Resize()
	return c
}

// Layout returns the current panel placement
func (c *Console) Layout() Layout {
	return c.layout
}

// Resize recomputes the layout from the screen size and redraws
func (c *Console) Resize() {
	width, height := c.screen.Size()
	rows, cols := 0, 0
	if c.maze != nil {
		rows, cols = c.maze.Grid().Rows(), c.maze.Grid().Cols()
	}
	c.layout = ComputeLayout(width, height, rows, cols)

	p := c.layout.Ports
	c.ports.SetBounds(p.X, p.Y, p.Width, p.Height)
	c.Draw()
}

// SetPorts rebuilds the port selector
func (c *Console) SetPorts(ports []string, selected string) {
	c.ports.SetItems(ports)
	c.ports.Select(selected)
	c.Draw()
}

// SelectPort moves the selector highlight to port
func (c *Console) SelectPort(port string) {
	c.ports.Select(port)
	c.Draw()
}

// SetOnSelect sets the callback run when the user picks a port with the
// keyboard or the mouse
func (c *Console) SetOnSelect(callback func(port string)) {
	c.ports.SetOnSelect(func(_ int, item menu.MenuItem) {
		callback(item.Label)
	})
}

// MoveSelection moves the selector highlight by delta ports, wrapping
// around. Nothing moves while the selector is locked.
func (c *Console) MoveSelection(delta int) bool {
	if !c.ports.MoveSelection(delta) {
		return false
	}
	c.Draw()
	return true
}

// HandleMouse selects the clicked port. It reports whether the selection
// changed.
func (c *Console) HandleMouse(ev *tcell.EventMouse) bool {
	if c.layout.TooSmall || !c.ports.HandleMouse(ev) {
		return false
	}
	c.Draw()
	return true
}

// SetOpenEnabled enables or disables the open button
func (c *Console) SetOpenEnabled(enabled bool) {
	c.openEnabled = enabled
	c.Draw()
}

// SetConnected switches the indicator and the button label, and locks the
// selector while connected
func (c *Console) SetConnected(connected bool) {
	c.connected = connected
	c.ports.SetLocked(connected)
	c.Draw()
}

// ShowStatus shows a short message under the button
func (c *Console) ShowStatus(message string) {
	c.status = message
	c.Draw()
}

// RefreshOutput redraws the output panel after its source changed
func (c *Console) RefreshOutput() {
	c.Draw()
}

// ClearOutput scrolls back to the newest output and redraws
func (c *Console) ClearOutput() {
	c.scroll = 0
	c.Draw()
}

// RenderMaze redraws the maze from m
func (c *Console) RenderMaze(m *maze.Maze) {
	c.maze = m
	c.Draw()
}

// ScrollOutput scrolls the output panel by lines; positive values go back
// in time. Scrolling to 0 follows new output again.
func (c *Console) ScrollOutput(lines int) {
	c.scroll += lines
	if c.scroll < 0 {
		c.scroll = 0
	}
	c.Draw()
}

// Scroll returns how many lines the output panel is scrolled back
func (c *Console) Scroll() int {
	return c.scroll
}

// PageSize returns the number of text rows in the output panel
func (c *Console) PageSize() int {
	if rows := c.layout.Output.Height - 2; rows > 0 {
		return rows
	}
	return 1
}

// ButtonAt reports whether (x, y) is on the open/close button
func (c *Console) ButtonAt(x, y int) bool {
	return !c.layout.TooSmall && c.layout.Button.Contains(x, y)
}

// ShowHelp draws lines in a box over the panels until HideHelp
func (c *Console) ShowHelp(title string, lines []string) {
	c.helpTitle = title
	c.help = lines
	c.Draw()
}

// HideHelp removes the help box, putting back the panels drawn under it
func (c *Console) HideHelp() {
	if c.help == nil {
		return
	}
	c.help = nil
	if c.overlay.IsVisible() {
		c.overlay.Dismiss()
		return
	}
	c.Draw()
}

// HelpVisible reports whether the help box is shown
func (c *Console) HelpVisible() bool {
	return c.help != nil
}

// Draw redraws every panel
func (c *Console) Draw() {
	if c.layout.TooSmall {
		c.overlay.Dismiss()
		c.screen.Clear()
		drawText(c.screen, 0, 0, "terminal too small", c.layout.Width, textStyle)
		return
	}

	c.screen.Clear()

	c.drawSidebar()
	c.drawMaze()
	c.drawOutput()

	if c.help != nil {
		c.overlay.Show(c.helpTitle, c.help)
	}
}

func (c *Console) drawSidebar() {
	c.ports.Draw()

	b := c.layout.Button
	label := openLabel
	if c.connected {
		label = closeLabel
	}

	style := buttonStyle
	if !c.openEnabled && !c.connected {
		style = disabledButton
	}
	for x := b.X; x < b.X+b.Width; x++ {
		c.screen.SetContent(x, b.Y, ' ', nil, style)
	}
	labelX := b.X + (b.Width-runewidth.StringWidth(label))/2
	if labelX < b.X {
		labelX = b.X
	}
	drawText(c.screen, labelX, b.Y, label, b.Width, style)

	indicator := indicatorOff
	if c.connected {
		indicator = indicatorOn
	}
	c.screen.SetContent(b.X+b.Width+1, b.Y, '●', nil, indicator)

	s := c.layout.Status
	if c.status != "" {
		drawText(c.screen, s.X, s.Y, c.status, s.Width, dimStyle)
	}
	drawText(c.screen, s.X, s.Y+s.Height-1, "F1 help  Ctrl+Q quit", s.Width, dimStyle)
}

func (c *Console) drawMaze() {
	r := c.layout.Maze
	drawBox(c.screen, r, " Maze ")

	if c.maze == nil {
		return
	}

	grid := c.maze.Grid()
	marker := c.maze.Marker()
	for row := 0; row < grid.Rows(); row++ {
		for col := 0; col < grid.Cols(); col++ {
			x, y := c.layout.MazeCell(row, col)
			pos := maze.Position{Row: row, Col: col}
			kind, _ := grid.At(pos)

			switch {
			case pos == marker:
				c.screen.SetContent(x, y, '@', nil, markerStyle)
				c.screen.SetContent(x+1, y, ' ', nil, markerStyle)
			case kind == maze.Wall:
				c.screen.SetContent(x, y, ' ', nil, wallStyle)
				c.screen.SetContent(x+1, y, ' ', nil, wallStyle)
			default:
				c.screen.SetContent(x, y, '·', nil, emptyStyle)
				c.screen.SetContent(x+1, y, ' ', nil, emptyStyle)
			}
		}
	}
}

func (c *Console) drawOutput() {
	r := c.layout.Output
	drawBox(c.screen, r, " Serial output ")

	width := r.Width - 2
	rows := r.Height - 2
	if width <= 0 || rows <= 0 {
		return
	}

	text := ""
	if c.output != nil {
		text = c.output.Text()
	}
	lines := tailLines(text, width, c.scroll+rows)
	if limit := len(lines) - rows; c.scroll > limit {
		c.scroll = limit
		if c.scroll < 0 {
			c.scroll = 0
		}
	}

	end := len(lines) - c.scroll
	start := end - rows
	if start < 0 {
		start = 0
	}
	for i, line := range lines[start:end] {
		drawClusters(c.screen, r.X+1, r.Y+1+i, line, textStyle)
	}

	if c.scroll > 0 {
		marker := fmt.Sprintf(" +%d ", c.scroll)
		drawText(c.screen, r.X+r.Width-1-runewidth.StringWidth(marker)-1, r.Y, marker, r.Width, titleStyle)
	}
}

// tailLines wraps text to width cells and returns at most the last n
// visual lines
func tailLines(text string, width, n int) []string {
	if n <= 0 || width <= 0 {
		return nil
	}

	logical := strings.Split(text, "\n")
	// A trailing newline does not start a visible line
	if len(logical) > 1 && logical[len(logical)-1] == "" {
		logical = logical[:len(logical)-1]
	}

	var out []string
	for i := len(logical) - 1; i >= 0 && len(out) < n; i-- {
		wrapped := wrapLine(sanitize(logical[i]), width)
		out = append(wrapped, out...)
	}

	if len(out) > n {
		out = out[len(out)-n:]
	}
	return out
}

// wrapLine splits line into pieces at most width cells wide without
// breaking grapheme clusters
func wrapLine(line string, width int) []string {
	if line == "" {
		return []string{""}
	}

	var out []string
	var current strings.Builder
	currentWidth := 0
	state := -1

	for len(line) > 0 {
		var cluster string
		var w int
		cluster, line, w, state = uniseg.FirstGraphemeClusterInString(line, state)

		if currentWidth+w > width && currentWidth > 0 {
			out = append(out, current.String())
			current.Reset()
			currentWidth = 0
		}
		current.WriteString(cluster)
		currentWidth += w
	}

	return append(out, current.String())
}

// sanitize drops carriage returns and other control characters and expands
// tabs to a single space
func sanitize(line string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\t':
			return ' '
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, line)
}

// drawClusters draws text one grapheme cluster per screen cell group
func drawClusters(screen tcell.Screen, x, y int, text string, style tcell.Style) {
	state := -1
	for len(text) > 0 {
		var cluster string
		var w int
		cluster, text, w, state = uniseg.FirstGraphemeClusterInString(text, state)
		if w == 0 {
			continue
		}
		runes := []rune(cluster)
		screen.SetContent(x, y, runes[0], runes[1:], style)
		x += w
	}
}

// drawText draws text clipped to maxWidth cells
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

func drawBox(screen tcell.Screen, r Rect, title string) {
	if r.Width < 2 || r.Height < 2 {
		return
	}

	right, bottom := r.X+r.Width-1, r.Y+r.Height-1
	for x := r.X + 1; x < right; x++ {
		screen.SetContent(x, r.Y, '─', nil, borderStyle)
		screen.SetContent(x, bottom, '─', nil, borderStyle)
	}
	for y := r.Y + 1; y < bottom; y++ {
		screen.SetContent(r.X, y, '│', nil, borderStyle)
		screen.SetContent(right, y, '│', nil, borderStyle)
	}
	screen.SetContent(r.X, r.Y, '┌', nil, borderStyle)
	screen.SetContent(right, r.Y, '┐', nil, borderStyle)
	screen.SetContent(r.X, bottom, '└', nil, borderStyle)
	screen.SetContent(right, bottom, '┘', nil, borderStyle)

	if title != "" {
		drawText(screen, r.X+2, r.Y, title, r.Width-4, titleStyle)
	}
}
