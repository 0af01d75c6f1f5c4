// Package app wires the serial host, the maze and the console together and
// runs the event loop
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	log "github.com/sirupsen/logrus"

	"serial-maze/pkg/history"
	"serial-maze/pkg/host"
	"serial-maze/pkg/maze"
	"serial-maze/pkg/ui"
)

// AppConfig holds the application settings
type AppConfig struct {
	PortPollInterval time.Duration
	DataPollInterval time.Duration
	ScrollbackBytes  int
	SaveDir          string
	HistoryFormat    history.FileFormat
	EnableMouse      bool
	PreferredPort    string
}

// DefaultAppConfig returns default application configuration
func DefaultAppConfig() AppConfig {
	return AppConfig{
		PortPollInterval: 2 * time.Second,
		DataPollInterval: 2 * time.Second,
		ScrollbackBytes:  1024 * 1024,
		SaveDir:          ".",
		HistoryFormat:    history.FormatTimestamped,
		EnableMouse:      true,
	}
}

// Validate checks if the configuration is usable
func (c AppConfig) Validate() error {
	if c.PortPollInterval <= 0 {
		return fmt.Errorf("port poll interval must be positive, got: %v", c.PortPollInterval)
	}
	if c.DataPollInterval <= 0 {
		return fmt.Errorf("data poll interval must be positive, got: %v", c.DataPollInterval)
	}
	if c.ScrollbackBytes <= 0 {
		return fmt.Errorf("scrollback size must be positive, got: %d", c.ScrollbackBytes)
	}
	return nil
}

// Application represents the main application
type Application struct {
	host       host.Host
	screen     tcell.Screen
	console    *ui.Console
	controller *Controller
	shortcuts  *ShortcutManager

	portPoller *Poller
	dataPoller *Poller

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex

	isRunning bool
	config    AppConfig
	logger    *log.Entry
}

// NewApplication creates an application drawing on screen. A nil screen
// opens the terminal.
func NewApplication(h host.Host, screen tcell.Screen, config AppConfig) (*Application, error) {
	if h == nil {
		return nil, errors.New("no serial host")
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if screen == nil {
		var err error
		screen, err = ui.NewScreen()
		if err != nil {
			return nil, err
		}
	}
	if !config.EnableMouse {
		screen.DisableMouse()
	}

	ctx, cancel := context.WithCancel(context.Background())

	app := &Application{
		host:   h,
		screen: screen,
		ctx:    ctx,
		cancel: cancel,
		config: config,
		logger: log.WithField("component", "app"),
	}
	app.initializeComponents()

	return app, nil
}

// initializeComponents creates the console, the controller, the pollers and
// the shortcuts
func (app *Application) initializeComponents() {
	m := maze.NewDefault()
	scrollback := history.NewMemoryHistoryManager(app.config.ScrollbackBytes)

	app.console = ui.NewConsole(app.screen, m, scrollback)
	app.controller = NewController(app.host, app.console, m, scrollback)
	app.console.SetOnSelect(func(port string) {
		app.controller.SelectPort(port)
	})

	app.portPoller = NewPoller("ports", app.config.PortPollInterval, app.pollPorts)
	app.dataPoller = NewPoller("data", app.config.DataPollInterval, app.pollData)
	app.controller.SetOnDisconnect(app.portPoller.Trigger)

	app.shortcuts = NewShortcutManager()
	app.setupShortcuts()
}

// setupShortcuts binds the shortcut actions
func (app *Application) setupShortcuts() {
	app.shortcuts.SetActionHandler(ActionQuit, func() error {
		app.Stop()
		return nil
	})

	app.shortcuts.SetActionHandler(ActionToggle, func() error {
		return app.controller.Toggle()
	})

	app.shortcuts.SetActionHandler(ActionSelectPrev, func() error {
		app.console.MoveSelection(-1)
		return nil
	})

	app.shortcuts.SetActionHandler(ActionSelectNext, func() error {
		app.console.MoveSelection(1)
		return nil
	})

	app.shortcuts.SetActionHandler(ActionScrollUp, func() error {
		app.console.ScrollOutput(app.console.PageSize())
		return nil
	})

	app.shortcuts.SetActionHandler(ActionScrollDown, func() error {
		app.console.ScrollOutput(-app.console.PageSize())
		return nil
	})

	app.shortcuts.SetActionHandler(ActionClear, func() error {
		app.controller.ClearOutput()
		return nil
	})

	app.shortcuts.SetActionHandler(ActionSave, func() error {
		_, err := app.controller.SaveScrollback(app.SaveDir(), app.config.HistoryFormat)
		return err
	})

	app.shortcuts.SetActionHandler(ActionReset, func() error {
		app.controller.ResetMarker()
		return nil
	})

	app.shortcuts.SetActionHandler(ActionHelp, func() error {
		app.console.ShowHelp("Shortcuts", app.shortcuts.HelpLines())
		return nil
	})
}

// Controller returns the controller driven by the event loop
func (app *Application) Controller() *Controller {
	return app.controller
}

// Console returns the view the controller draws on
func (app *Application) Console() *ui.Console {
	return app.console
}

// Run starts the pollers and handles events until Stop is called or ctx is
// cancelled. The port is closed and the screen finalized before it returns.
func (app *Application) Run(ctx context.Context) error {
	app.mu.Lock()
	if app.isRunning {
		app.mu.Unlock()
		return errors.New("application is already running")
	}
	app.isRunning = true
	app.mu.Unlock()

	app.logger.Info("application started")

	app.controller.Start()
	if app.config.PreferredPort != "" {
		app.controller.Prefer(app.config.PreferredPort)
	}
	app.screen.Show()

	for _, p := range []*Poller{app.portPoller, app.dataPoller} {
		app.wg.Add(1)
		go func(p *Poller) {
			defer app.wg.Done()
			p.Run(app.ctx)
		}(p)
	}

	// Wake the event loop when either context ends
	go func() {
		select {
		case <-ctx.Done():
			app.Stop()
		case <-app.ctx.Done():
		}
		app.screen.PostEvent(tcell.NewEventInterrupt(nil))
	}()

	app.eventLoop()
	app.shutdown()
	return nil
}

func (app *Application) eventLoop() {
	for app.ctx.Err() == nil {
		event := app.screen.PollEvent()
		if event == nil {
			return
		}

		switch ev := event.(type) {
		case *tcell.EventInterrupt:
			if fn, ok := ev.Data().(func()); ok {
				fn()
			}
		case *tcell.EventKey:
			app.handleKeyEvent(ev)
		case *tcell.EventMouse:
			app.handleMouseEvent(ev)
		case *tcell.EventResize:
			app.console.Resize()
			app.screen.Sync()
		}

		app.screen.Show()
	}
}

func (app *Application) shutdown() {
	app.cancel()

	done := make(chan struct{})
	go func() {
		app.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		app.logger.Debug("pollers finished")
	case <-time.After(2 * time.Second):
		// A poller is stuck in a host call
		app.logger.Warn("timeout waiting for pollers")
	}

	app.controller.Shutdown()
	app.screen.Fini()

	app.mu.Lock()
	app.isRunning = false
	app.mu.Unlock()

	app.logger.Info("application stopped")
}

// Stop ends the event loop
func (app *Application) Stop() {
	app.cancel()
}

// IsRunning returns whether the event loop is running
func (app *Application) IsRunning() bool {
	app.mu.Lock()
	defer app.mu.Unlock()
	return app.isRunning
}

// post runs fn on the event loop goroutine
func (app *Application) post(fn func()) {
	if err := app.screen.PostEvent(tcell.NewEventInterrupt(fn)); err != nil {
		app.logger.WithError(err).Debug("dropped poll result")
	}
}

func (app *Application) pollPorts(ctx context.Context) {
	ports, err := app.host.GetSerialPorts()
	if ctx.Err() != nil {
		return
	}

	app.post(func() {
		if err != nil {
			app.controller.HandlePortsError(err)
			return
		}
		app.controller.ApplyPorts(ports)
	})
}

func (app *Application) pollData(ctx context.Context) {
	conn := app.controller.Connection()
	if !app.controller.IsOpen() || app.controller.Connection() != conn {
		return
	}

	data, err := app.host.GetSerialData()
	if ctx.Err() != nil {
		return
	}

	app.post(func() {
		app.controller.HandleRead(conn, data, err)
	})
}

// handleKeyEvent handles keyboard events
func (app *Application) handleKeyEvent(ev *tcell.EventKey) {
	if ev.Key() == tcell.KeyRune {
		app.logger.Tracef("key: rune=%q mods=%v", ev.Rune(), ev.Modifiers())
	} else {
		app.logger.Tracef("key: key=%v mods=%v", ev.Key(), ev.Modifiers())
	}

	// Any key closes the help box
	if app.console.HelpVisible() {
		app.console.HideHelp()
		if ev.Key() != tcell.KeyCtrlQ {
			return
		}
	}

	handled, err := app.shortcuts.ProcessKeyEvent(ev.Key(), ev.Rune(), ev.Modifiers())
	if err != nil {
		app.logger.WithError(err).Debug("shortcut failed")
	}
	if !handled {
		app.logger.Tracef("unbound key %v", ev.Name())
	}
}

// handleMouseEvent handles clicks on the port list and the button
func (app *Application) handleMouseEvent(ev *tcell.EventMouse) {
	if ev.Buttons()&tcell.Button1 == 0 {
		switch {
		case ev.Buttons()&tcell.WheelUp != 0:
			app.console.ScrollOutput(1)
		case ev.Buttons()&tcell.WheelDown != 0:
			app.console.ScrollOutput(-1)
		}
		return
	}

	if app.console.HelpVisible() {
		app.console.HideHelp()
		return
	}

	if app.console.HandleMouse(ev) {
		return
	}

	x, y := ev.Position()
	if app.console.ButtonAt(x, y) {
		if err := app.controller.Toggle(); err != nil {
			app.logger.WithError(err).Debug("toggle from click failed")
		}
	}
}

// SaveDir returns the directory scrollback files are written to
func (app *Application) SaveDir() string {
	if app.config.SaveDir != "" {
		return app.config.SaveDir
	}
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return "."
}
