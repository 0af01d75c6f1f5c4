package menu

import (
	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
)

// OverlayManager draws a centered text box over the screen and puts back
// what was underneath when dismissed
type OverlayManager struct {
	screen       tcell.Screen
	savedContent [][]SavedCell
	width        int
	height       int
	visible      bool
}

// SavedCell represents a saved screen cell
type SavedCell struct {
	Char  rune
	Comb  []rune
	Style tcell.Style
}

var overlayStyle = tcell.StyleDefault.Background(tcell.ColorDarkBlue).Foreground(tcell.ColorWhite)

// NewOverlayManager creates a new overlay manager
func NewOverlayManager(screen tcell.Screen) *OverlayManager {
	width, height := screen.Size()
	return &OverlayManager{
		screen: screen,
		width:  width,
		height: height,
	}
}

// IsVisible reports whether an overlay is on screen
func (om *OverlayManager) IsVisible() bool {
	return om.visible
}

// Show saves the screen and draws title and lines in a centered box
func (om *OverlayManager) Show(title string, lines []string) {
	om.SaveScreen()
	om.visible = true

	width := runewidth.StringWidth(title) + 6
	for _, line := range lines {
		if w := runewidth.StringWidth(line) + 4; w > width {
			width = w
		}
	}
	height := len(lines) + 4

	screenWidth, screenHeight := om.screen.Size()
	if width > screenWidth {
		width = screenWidth
	}
	if height > screenHeight {
		height = screenHeight
	}
	if width < 3 || height < 3 {
		return
	}

	x := (screenWidth - width) / 2
	y := (screenHeight - height) / 2

	drawBox(om.screen, x, y, width, height, overlayStyle)
	if title != "" {
		drawText(om.screen, x+2, y, " "+title+" ", width-4, overlayStyle.Bold(true))
	}
	for i, line := range lines {
		if y+2+i >= y+height-1 {
			break
		}
		drawText(om.screen, x+2, y+2+i, line, width-4, overlayStyle)
	}
}

// Dismiss restores the screen saved by Show
func (om *OverlayManager) Dismiss() {
	if !om.visible {
		return
	}
	om.visible = false
	om.RestoreScreen()
	om.Clear()
}

// SaveScreen saves the current screen content
func (om *OverlayManager) SaveScreen() {
	om.width, om.height = om.screen.Size()
	om.savedContent = make([][]SavedCell, om.height)

	for y := 0; y < om.height; y++ {
		om.savedContent[y] = make([]SavedCell, om.width)
		for x := 0; x < om.width; x++ {
			mainc, combc, style, _ := om.screen.GetContent(x, y)
			om.savedContent[y][x] = SavedCell{
				Char:  mainc,
				Comb:  combc,
				Style: style,
			}
		}
	}
}

// RestoreScreen restores the saved screen content
func (om *OverlayManager) RestoreScreen() {
	if om.savedContent == nil {
		return
	}

	for y := 0; y < len(om.savedContent); y++ {
		for x := 0; x < len(om.savedContent[y]); x++ {
			cell := om.savedContent[y][x]
			om.screen.SetContent(x, y, cell.Char, cell.Comb, cell.Style)
		}
	}
}

// Clear clears the saved content
func (om *OverlayManager) Clear() {
	om.savedContent = nil
}
