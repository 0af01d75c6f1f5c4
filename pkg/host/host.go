// Package host provides the serial command surface the application polls:
// port enumeration, open, close and data reads.
package host

import (
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"serial-maze/pkg/serial"
)

// ErrPortDisconnected signals that the open port went away. It is the only
// error callers are expected to tell apart from the rest.
var ErrPortDisconnected = errors.New("port disconnected")

// Host is the set of operations the front-end needs from the serial layer
type Host interface {
	GetSerialPorts() ([]string, error)
	OpenSerial(port string) (bool, error)
	CloseSerial() (bool, error)
	GetSerialData() (string, error)
}

// maxChunk and maxDrain bound a single GetSerialData call
const (
	maxChunk = 64 * 1024
	maxDrain = 250 * time.Millisecond
)

// SerialHost implements Host on top of real serial ports
type SerialHost struct {
	mu        sync.Mutex
	line      serial.SerialConfig
	newPort   func() serial.SerialPort
	listPorts func() ([]string, error)
	port      serial.SerialPort
	name      string
	logger    *log.Entry
}

// SerialHostOption customises a SerialHost
type SerialHostOption func(*SerialHost)

// WithPortFactory replaces the function creating port handles
func WithPortFactory(factory func() serial.SerialPort) SerialHostOption {
	return func(h *SerialHost) {
		h.newPort = factory
	}
}

// WithPortLister replaces the function enumerating ports
func WithPortLister(lister func() ([]string, error)) SerialHostOption {
	return func(h *SerialHost) {
		h.listPorts = lister
	}
}

// WithLogger sets the logger used for host events
func WithLogger(logger *log.Entry) SerialHostOption {
	return func(h *SerialHost) {
		h.logger = logger
	}
}

// NewSerialHost creates a host opening ports with the given line settings
func NewSerialHost(line serial.SerialConfig, opts ...SerialHostOption) (*SerialHost, error) {
	if err := line.ValidateLine(); err != nil {
		return nil, fmt.Errorf("invalid line settings: %w", err)
	}

	h := &SerialHost{
		line:      line,
		newPort:   serial.NewSerialPort,
		listPorts: serial.ListPorts,
		logger:    log.WithField("component", "host"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// GetSerialPorts returns the names of the ports currently present
func (h *SerialHost) GetSerialPorts() ([]string, error) {
	ports, err := h.listPorts()
	if err != nil {
		return nil, err
	}
	if ports == nil {
		ports = []string{}
	}
	return ports, nil
}

// OpenSerial opens port, closing any port opened before
func (h *SerialHost) OpenSerial(port string) (bool, error) {
	if port == "" {
		return false, fmt.Errorf("no port selected")
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.closeLocked()

	p := h.newPort()
	if err := p.Open(h.line.WithPort(port)); err != nil {
		return false, err
	}

	h.port = p
	h.name = port
	h.logger.WithField("port", port).Info("serial port opened")
	return true, nil
}

// CloseSerial closes the open port. Closing when nothing is open succeeds.
func (h *SerialHost) CloseSerial() (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.closeLocked(); err != nil {
		return false, err
	}
	return true, nil
}

// GetSerialData drains what the port has buffered, stopping after maxChunk
// bytes or maxDrain. The handle is read without holding the host lock so a
// concurrent CloseSerial is never blocked behind a read. Reads that fail
// because the device is gone, or an idle read on a port that is no longer
// enumerated, close the handle and return ErrPortDisconnected.
func (h *SerialHost) GetSerialData() (string, error) {
	h.mu.Lock()
	p, name := h.port, h.name
	h.mu.Unlock()

	if p == nil || !p.IsOpen() {
		return "", serial.ErrPortNotOpen
	}

	buffer := make([]byte, 4096)
	var data []byte
	deadline := time.Now().Add(maxDrain)
	for len(data) < maxChunk && time.Now().Before(deadline) {
		n, err := p.Read(buffer)
		data = append(data, buffer[:n]...)

		if err != nil {
			if !h.current(p) {
				// closed or replaced while reading
				return "", serial.ErrPortNotOpen
			}
			if serial.IsDisconnect(err) {
				return string(data), h.disconnect(p, name, err)
			}
			return string(data), err
		}

		if n == 0 {
			break
		}
	}

	if len(data) == 0 && !h.stillPresent(name) && h.current(p) {
		return "", h.disconnect(p, name, fmt.Errorf("port %s no longer listed", name))
	}

	return string(data), nil
}

// current reports whether p is still the open handle
func (h *SerialHost) current(p serial.SerialPort) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.port == p
}

func (h *SerialHost) closeLocked() error {
	if h.port == nil {
		return nil
	}

	p, name := h.port, h.name
	h.port = nil
	h.name = ""

	if !p.IsOpen() {
		return nil
	}
	if err := p.Close(); err != nil {
		return err
	}

	h.logger.WithField("port", name).Info("serial port closed")
	return nil
}

// disconnect drops p if it is still the open handle
func (h *SerialHost) disconnect(p serial.SerialPort, name string, cause error) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.port != p {
		return serial.ErrPortNotOpen
	}
	if err := h.closeLocked(); err != nil {
		h.logger.WithError(err).WithField("port", name).Debug("close after disconnect failed")
	}
	h.logger.WithError(cause).WithField("port", name).Warn("serial port disconnected")
	return fmt.Errorf("%w: %s: %v", ErrPortDisconnected, name, cause)
}

func (h *SerialHost) stillPresent(name string) bool {
	ports, err := h.listPorts()
	if err != nil {
		// Enumeration trouble is not proof the device left.
		return true
	}
	for _, p := range ports {
		if p == name {
			return true
		}
	}
	return false
}
