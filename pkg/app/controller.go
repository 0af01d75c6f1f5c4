package app

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"serial-maze/pkg/history"
	"serial-maze/pkg/host"
	"serial-maze/pkg/maze"
)

// IntroText is written to the output panel on startup
const IntroText = "Select a serial port and open it\n" +
	"The maze is at the top right\n" +
	"This is the serial output panel\n"

// View is what the controller draws on
type View interface {
	SetPorts(ports []string, selected string)
	SelectPort(port string)
	SetOpenEnabled(enabled bool)
	SetConnected(connected bool)
	RefreshOutput()
	ClearOutput()
	RenderMaze(m *maze.Maze)
	ShowStatus(message string)
}

// Controller holds the port list, the selection, the connection state, the
// maze and the scrollback. Apart from IsOpen and Connection, its methods
// must be called from a single goroutine.
type Controller struct {
	host    host.Host
	view    View
	maze    *maze.Maze
	history history.HistoryManager
	session *Session

	ports     []string
	selected  string
	preferred string
	active    string
	open      atomic.Bool
	conn      atomic.Uint64

	onDisconnect func()
	logger       *log.Entry
}

// NewController creates a controller. The view is drawn by Start.
func NewController(h host.Host, v View, m *maze.Maze, hist history.HistoryManager) *Controller {
	return &Controller{
		host:    h,
		view:    v,
		maze:    m,
		history: hist,
		session: NewSession(),
		logger:  log.WithField("component", "controller"),
	}
}

// SetOnDisconnect sets the callback run after the port went away
func (c *Controller) SetOnDisconnect(callback func()) {
	c.onDisconnect = callback
}

// Start draws the initial state
func (c *Controller) Start() {
	c.view.RenderMaze(c.maze)
	c.view.SetPorts(nil, "")
	c.view.SetOpenEnabled(false)
	c.view.SetConnected(false)
	c.write(IntroText, history.SourceLocal)
}

// Ports returns the last applied port list
func (c *Controller) Ports() []string {
	return slices.Clone(c.ports)
}

// SelectedPort returns the selected port, or ""
func (c *Controller) SelectedPort() string {
	return c.selected
}

// IsOpen reports whether a port is open. Safe for concurrent use.
func (c *Controller) IsOpen() bool {
	return c.open.Load()
}

// Connection returns a number that changes every time a port is opened or
// closed. Safe for concurrent use.
func (c *Controller) Connection() uint64 {
	return c.conn.Load()
}

// Maze returns the maze driven by the serial data
func (c *Controller) Maze() *maze.Maze {
	return c.maze
}

// Scrollback returns the recorded output
func (c *Controller) Scrollback() history.HistoryManager {
	return c.history
}

// Session returns the statistics of this run
func (c *Controller) Session() *Session {
	return c.session
}

// ApplyPorts stores a freshly fetched port list. The selector is only
// rebuilt when the list differs by content; the return value tells whether
// that happened. The selection does not move while a port is open.
func (c *Controller) ApplyPorts(ports []string) bool {
	if slices.Equal(c.ports, ports) {
		return false
	}

	c.ports = slices.Clone(ports)
	if !c.IsOpen() {
		c.reselect()
	}

	c.logger.WithFields(log.Fields{
		"ports":    c.ports,
		"selected": c.selected,
	}).Debug("port list changed")

	c.view.SetPorts(c.Ports(), c.selected)
	c.view.SetOpenEnabled(len(c.ports) > 0)
	return true
}

// reselect replaces a selection that is no longer listed with the preferred
// port, or the first one
func (c *Controller) reselect() {
	if slices.Contains(c.ports, c.selected) {
		return
	}

	c.selected = ""
	switch {
	case slices.Contains(c.ports, c.preferred):
		c.selected = c.preferred
	case len(c.ports) > 0:
		c.selected = c.ports[0]
	}
}

// HandlePortsError records a failed port enumeration
func (c *Controller) HandlePortsError(err error) {
	c.logger.WithError(err).Warn("failed to list serial ports")
}

// Prefer makes port the initial selection once it shows up in the list
func (c *Controller) Prefer(port string) {
	c.preferred = port
	if !c.IsOpen() && slices.Contains(c.ports, port) {
		c.SelectPort(port)
	}
}

// SelectPort selects port while closed
func (c *Controller) SelectPort(port string) bool {
	if c.IsOpen() || port == c.selected || !slices.Contains(c.ports, port) {
		return false
	}

	c.selected = port
	c.view.SelectPort(port)
	return true
}

// Toggle opens the selected port when closed and closes it when open. A
// false answer from the host leaves the state unchanged.
func (c *Controller) Toggle() error {
	if c.IsOpen() {
		return c.closePort()
	}
	return c.openPort()
}

func (c *Controller) openPort() error {
	if c.selected == "" {
		return errors.New("no serial port selected")
	}

	logger := c.logger.WithField("port", c.selected)

	ok, err := c.host.OpenSerial(c.selected)
	if err != nil {
		logger.WithError(err).Error("failed to open serial port")
		c.view.ShowStatus(fmt.Sprintf("open failed: %v", err))
		return fmt.Errorf("failed to open %s: %w", c.selected, err)
	}
	if !ok {
		logger.Warn("host refused to open serial port")
		return nil
	}

	c.active = c.selected
	c.setConnected(true)
	c.session.Opened(c.selected)
	c.view.ShowStatus("opened " + c.selected)
	logger.Info("serial port opened")
	return nil
}

func (c *Controller) closePort() error {
	ok, err := c.host.CloseSerial()
	if err != nil {
		c.logger.WithError(err).Error("failed to close serial port")
		c.view.ShowStatus(fmt.Sprintf("close failed: %v", err))
		return fmt.Errorf("failed to close %s: %w", c.active, err)
	}
	if !ok {
		c.logger.Warn("host refused to close serial port")
		return nil
	}

	name := c.active
	c.setConnected(false)
	c.view.ShowStatus("closed " + name)
	c.logger.WithField("port", name).Info("serial port closed")
	return nil
}

// setConnected records the connection state. Closing unlocks the selector
// and moves a selection whose port went away.
func (c *Controller) setConnected(connected bool) {
	c.conn.Add(1)
	c.open.Store(connected)
	c.view.SetConnected(connected)

	if connected {
		return
	}
	c.active = ""
	prev := c.selected
	c.reselect()
	if c.selected != prev {
		c.view.SelectPort(c.selected)
	}
}

// IntakeData appends received text to the scrollback and moves the marker
// for every direction token in it
func (c *Controller) IntakeData(data string) []maze.Step {
	if data == "" {
		return nil
	}

	c.write(data, history.SourceSerial)

	steps := c.maze.Apply(data)
	moves := maze.CountMoves(steps)
	c.session.Received(len(data), len(steps), moves)

	if moves > 0 {
		c.view.RenderMaze(c.maze)
	}

	if len(steps) > 0 {
		c.logger.WithFields(log.Fields{
			"tokens": len(steps),
			"moves":  moves,
			"marker": c.maze.Marker().String(),
		}).Debug("applied direction tokens")
	}
	return steps
}

// HandleRead applies the result of a data read started while Connection
// returned conn. Results from an earlier connection are dropped; the return
// value tells whether the result was applied.
func (c *Controller) HandleRead(conn uint64, data string, err error) bool {
	if conn != c.Connection() {
		c.logger.WithFields(log.Fields{
			"bytes": len(data),
			"error": err,
		}).Debug("dropped read from a previous connection")
		return false
	}

	c.IntakeData(data)
	if err != nil {
		c.HandleDataError(err)
	}
	return true
}

// HandleDataError reacts to a failed data read. Only a disconnection changes
// state: the connection is marked closed, the selector unlocked and the port
// list refreshed. Everything else is logged.
func (c *Controller) HandleDataError(err error) {
	if !errors.Is(err, host.ErrPortDisconnected) {
		c.logger.WithError(err).Warn("failed to read serial data")
		return
	}

	c.logger.WithError(err).Warn("serial port disconnected")
	if c.IsOpen() {
		name := c.active
		c.setConnected(false)
		c.view.ShowStatus(name + " disconnected")
	}

	if c.onDisconnect != nil {
		c.onDisconnect()
	}
}

// ClearOutput empties the output panel and the scrollback
func (c *Controller) ClearOutput() {
	if err := c.history.Clear(); err != nil {
		c.logger.WithError(err).Warn("failed to clear scrollback")
	}
	c.view.ClearOutput()
}

// ResetMarker puts the marker back on the start cell
func (c *Controller) ResetMarker() {
	c.maze.Reset()
	c.view.RenderMaze(c.maze)
}

// SaveScrollback writes the scrollback to a new file in dir and returns its
// path
func (c *Controller) SaveScrollback(dir string, format history.FileFormat) (string, error) {
	ext := ".log"
	if format == history.FormatJSON {
		ext = ".json"
	}
	name := filepath.Join(dir, fmt.Sprintf("scrollback_%s%s", time.Now().Format("20060102_150405"), ext))

	if err := c.history.SaveToFile(name, format); err != nil {
		c.view.ShowStatus(fmt.Sprintf("save failed: %v", err))
		return "", fmt.Errorf("failed to save scrollback: %w", err)
	}

	c.view.ShowStatus("saved " + filepath.Base(name))
	c.logger.WithField("file", name).Info("scrollback saved")
	return name, nil
}

// Shutdown closes the port if one is open. Errors are logged only.
func (c *Controller) Shutdown() {
	c.session.End()

	if !c.IsOpen() {
		return
	}

	if _, err := c.host.CloseSerial(); err != nil {
		c.logger.WithError(err).Warn("failed to close serial port on shutdown")
		return
	}
	c.open.Store(false)
}

func (c *Controller) write(text string, source history.Source) {
	if err := c.history.Write([]byte(text), source); err != nil {
		c.logger.WithError(err).Warn("failed to record scrollback")
	}
	c.view.RefreshOutput()
}
