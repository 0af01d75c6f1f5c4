package app

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/gdamore/tcell/v2"
)

// ShortcutAction represents different types of shortcut actions
type ShortcutAction int

const (
	ActionQuit ShortcutAction = iota
	ActionToggle
	ActionSelectPrev
	ActionSelectNext
	ActionScrollUp
	ActionScrollDown
	ActionClear
	ActionSave
	ActionReset
	ActionHelp
)

// String returns the string representation of ShortcutAction
func (sa ShortcutAction) String() string {
	switch sa {
	case ActionQuit:
		return "quit"
	case ActionToggle:
		return "toggle"
	case ActionSelectPrev:
		return "select-prev"
	case ActionSelectNext:
		return "select-next"
	case ActionScrollUp:
		return "scroll-up"
	case ActionScrollDown:
		return "scroll-down"
	case ActionClear:
		return "clear"
	case ActionSave:
		return "save"
	case ActionReset:
		return "reset"
	case ActionHelp:
		return "help"
	default:
		return "unknown"
	}
}

// Shortcut represents a keyboard shortcut
type Shortcut struct {
	Name        string
	Key         tcell.Key
	Char        rune
	Mods        tcell.ModMask
	Action      ShortcutAction
	Handler     func() error
	Description string
}

// Matches checks if the given key event matches this shortcut
func (s *Shortcut) Matches(key tcell.Key, char rune, mods tcell.ModMask) bool {
	// Control keys already carry Ctrl; some terminals report the modifier
	// and some do not
	if key >= tcell.KeyCtrlA && key <= tcell.KeyCtrlZ {
		mods &^= tcell.ModCtrl
	}

	if s.Mods != mods {
		return false
	}

	if s.Key != tcell.KeyRune {
		return s.Key == key
	}

	return key == tcell.KeyRune && unicode.ToLower(s.Char) == unicode.ToLower(char)
}

// Execute executes the shortcut action
func (s *Shortcut) Execute() error {
	if s.Handler != nil {
		return s.Handler()
	}

	return fmt.Errorf("no handler defined for shortcut %s", s.Name)
}

// ShortcutManager manages keyboard shortcuts. Shortcuts are matched and
// listed in the order they were added.
type ShortcutManager struct {
	shortcuts map[string]*Shortcut
	order     []string
}

// NewShortcutManager creates a shortcut manager holding the default
// shortcuts without handlers
func NewShortcutManager() *ShortcutManager {
	sm := &ShortcutManager{
		shortcuts: make(map[string]*Shortcut),
	}

	sm.addDefaultShortcuts()

	return sm
}

// addDefaultShortcuts adds the default application shortcuts
func (sm *ShortcutManager) addDefaultShortcuts() {
	defaults := []*Shortcut{
		{Name: "quit", Key: tcell.KeyCtrlQ, Action: ActionQuit, Description: "Quit"},
		{Name: "quit-esc", Key: tcell.KeyEscape, Action: ActionQuit, Description: "Quit"},
		{Name: "toggle", Key: tcell.KeyEnter, Action: ActionToggle, Description: "Open/close the selected port"},
		{Name: "toggle-o", Key: tcell.KeyRune, Char: 'o', Action: ActionToggle, Description: "Open/close the selected port"},
		{Name: "select-prev", Key: tcell.KeyUp, Action: ActionSelectPrev, Description: "Previous port"},
		{Name: "select-next", Key: tcell.KeyDown, Action: ActionSelectNext, Description: "Next port"},
		{Name: "scroll-up", Key: tcell.KeyPgUp, Action: ActionScrollUp, Description: "Scroll output back"},
		{Name: "scroll-down", Key: tcell.KeyPgDn, Action: ActionScrollDown, Description: "Scroll output forward"},
		{Name: "clear", Key: tcell.KeyCtrlL, Action: ActionClear, Description: "Clear output"},
		{Name: "save", Key: tcell.KeyCtrlS, Action: ActionSave, Description: "Save scrollback to file"},
		{Name: "reset", Key: tcell.KeyCtrlR, Action: ActionReset, Description: "Reset marker"},
		{Name: "help", Key: tcell.KeyF1, Action: ActionHelp, Description: "Show help"},
	}

	for _, s := range defaults {
		sm.AddShortcut(s)
	}
}

// AddShortcut adds a new shortcut, replacing one with the same name
func (sm *ShortcutManager) AddShortcut(shortcut *Shortcut) {
	if _, exists := sm.shortcuts[shortcut.Name]; !exists {
		sm.order = append(sm.order, shortcut.Name)
	}
	sm.shortcuts[shortcut.Name] = shortcut
}

// ListShortcuts returns all shortcuts
func (sm *ShortcutManager) ListShortcuts() []*Shortcut {
	shortcuts := make([]*Shortcut, 0, len(sm.order))
	for _, name := range sm.order {
		shortcuts = append(shortcuts, sm.shortcuts[name])
	}
	return shortcuts
}

// ProcessKeyEvent executes the first shortcut matching the key event
func (sm *ShortcutManager) ProcessKeyEvent(key tcell.Key, char rune, mods tcell.ModMask) (bool, error) {
	for _, name := range sm.order {
		shortcut := sm.shortcuts[name]
		if shortcut.Matches(key, char, mods) {
			return true, shortcut.Execute()
		}
	}

	return false, nil
}

// SetActionHandler sets the handler of every shortcut bound to action
func (sm *ShortcutManager) SetActionHandler(action ShortcutAction, handler func() error) error {
	found := false
	for _, shortcut := range sm.shortcuts {
		if shortcut.Action == action {
			shortcut.Handler = handler
			found = true
		}
	}
	if !found {
		return fmt.Errorf("no shortcut for action %s", action)
	}
	return nil
}

// HelpLines returns one line per action, joining the keys bound to it
func (sm *ShortcutManager) HelpLines() []string {
	type entry struct {
		keys        []string
		description string
	}

	var entries []*entry
	byAction := make(map[ShortcutAction]*entry)
	width := 0

	for _, shortcut := range sm.ListShortcuts() {
		e := byAction[shortcut.Action]
		if e == nil {
			e = &entry{description: shortcut.Description}
			byAction[shortcut.Action] = e
			entries = append(entries, e)
		}
		e.keys = append(e.keys, formatKeyDescription(shortcut))

		if w := len(strings.Join(e.keys, " / ")); w > width {
			width = w
		}
	}

	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, fmt.Sprintf("%-*s  %s", width, strings.Join(e.keys, " / "), e.description))
	}
	return lines
}

// formatKeyDescription formats a key combination for display
func formatKeyDescription(shortcut *Shortcut) string {
	var parts []string

	if shortcut.Mods&tcell.ModCtrl != 0 {
		parts = append(parts, "Ctrl")
	}
	if shortcut.Mods&tcell.ModAlt != 0 {
		parts = append(parts, "Alt")
	}
	if shortcut.Mods&tcell.ModShift != 0 {
		parts = append(parts, "Shift")
	}

	var keyName string
	if shortcut.Key == tcell.KeyRune {
		keyName = string(shortcut.Char)
	} else {
		keyName = keyToString(shortcut.Key)
	}

	if len(parts) > 0 {
		return strings.Join(parts, "+") + "+" + keyName
	}

	return keyName
}

// keyToString converts tcell.Key to string
func keyToString(key tcell.Key) string {
	switch key {
	case tcell.KeyF1:
		return "F1"
	case tcell.KeyEnter:
		return "Enter"
	case tcell.KeyPgUp:
		return "PgUp"
	case tcell.KeyPgDn:
		return "PgDn"
	case tcell.KeyUp:
		return "Up"
	case tcell.KeyDown:
		return "Down"
	case tcell.KeyEscape:
		return "Esc"
	}

	if key >= tcell.KeyCtrlA && key <= tcell.KeyCtrlZ {
		return "Ctrl+" + string(rune('A'+key-tcell.KeyCtrlA))
	}

	if name, ok := tcell.KeyNames[key]; ok {
		return name
	}
	return "Unknown"
}
