package ui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/gdamore/tcell/v2/encoding"
)

// NewScreen creates and initializes the terminal screen
func NewScreen() (tcell.Screen, error) {
	// Legacy terminals report non UTF-8 charsets
	encoding.Register()

	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("failed to create screen: %w", err)
	}

	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize screen: %w", err)
	}

	// Use default terminal colors instead of forcing black background
	defaultStyle := tcell.StyleDefault.
		Background(tcell.ColorReset).
		Foreground(tcell.ColorReset)
	screen.SetStyle(defaultStyle)
	screen.EnableMouse(tcell.MouseButtonEvents)
	screen.HideCursor()
	screen.Clear()

	return screen, nil
}
