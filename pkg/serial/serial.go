// Package serial provides serial port communication functionality
package serial

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"syscall"
	"time"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

// ErrPortNotOpen is returned by operations that need an open port
var ErrPortNotOpen = errors.New("serial port is not open")

// SerialConfig defines the line settings used when a port is opened.
// Port is filled in by the caller at open time.
type SerialConfig struct {
	Port     string        `json:"port" yaml:"-"`
	BaudRate int           `json:"baud_rate" yaml:"baud_rate"`
	DataBits int           `json:"data_bits" yaml:"data_bits"`
	StopBits int           `json:"stop_bits" yaml:"stop_bits"`
	Parity   string        `json:"parity" yaml:"parity"`
	Timeout  time.Duration `json:"timeout" yaml:"read_timeout"`
}

var validBaudRates = []int{1200, 2400, 4800, 9600, 19200, 38400, 57600, 115200, 230400, 460800, 921600}

// ValidateLine checks the line settings, ignoring the port name
func (c SerialConfig) ValidateLine() error {
	validBaud := false
	for _, rate := range validBaudRates {
		if c.BaudRate == rate {
			validBaud = true
			break
		}
	}
	if !validBaud {
		return fmt.Errorf("invalid baud rate: %d", c.BaudRate)
	}

	if c.DataBits < 5 || c.DataBits > 8 {
		return fmt.Errorf("data bits must be between 5 and 8, got: %d", c.DataBits)
	}

	if c.StopBits < 1 || c.StopBits > 2 {
		return fmt.Errorf("stop bits must be 1 or 2, got: %d", c.StopBits)
	}

	switch c.Parity {
	case "none", "odd", "even", "mark", "space":
	default:
		return fmt.Errorf("invalid parity: %s", c.Parity)
	}

	if c.Timeout <= 0 {
		return fmt.Errorf("read timeout must be positive, got: %v", c.Timeout)
	}

	return nil
}

// Validate checks if the serial configuration is valid
func (c SerialConfig) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("port cannot be empty")
	}
	return c.ValidateLine()
}

// WithPort returns a copy of the configuration bound to port
func (c SerialConfig) WithPort(port string) SerialConfig {
	c.Port = port
	return c
}

// DefaultConfig returns a default serial configuration. The short read
// timeout lets a poller drain the port without blocking.
func DefaultConfig() SerialConfig {
	return SerialConfig{
		BaudRate: 115200,
		DataBits: 8,
		StopBits: 1,
		Parity:   "none",
		Timeout:  50 * time.Millisecond,
	}
}

// SerialPort interface defines the contract for serial port operations
type SerialPort interface {
	Open(config SerialConfig) error
	Close() error
	Read(buffer []byte) (int, error)
	IsOpen() bool
	GetConfig() SerialConfig
}

// CrossPlatformSerialPort implements SerialPort interface using go.bug.st/serial.
// Close may be called while a Read is pending; it unblocks the read.
type CrossPlatformSerialPort struct {
	mu     sync.Mutex
	port   serial.Port
	config SerialConfig
	isOpen bool
}

// NewCrossPlatformSerialPort creates a new cross-platform serial port instance
func NewCrossPlatformSerialPort() *CrossPlatformSerialPort {
	return &CrossPlatformSerialPort{}
}

// NewSerialPort creates a new serial port instance (convenience function)
func NewSerialPort() SerialPort {
	return NewCrossPlatformSerialPort()
}

// Open opens the serial port with the given configuration
func (sp *CrossPlatformSerialPort) Open(config SerialConfig) error {
	sp.mu.Lock()
	defer sp.mu.Unlock()

	if sp.isOpen {
		return fmt.Errorf("serial port is already open")
	}

	if err := config.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	mode := &serial.Mode{
		BaudRate: config.BaudRate,
		DataBits: config.DataBits,
		StopBits: convertStopBits(config.StopBits),
		Parity:   convertParity(config.Parity),
	}

	port, err := serial.Open(config.Port, mode)
	if err != nil {
		return NewSerialError("open", config.Port, err)
	}

	if err := port.SetReadTimeout(config.Timeout); err != nil {
		port.Close()
		return NewSerialError("set read timeout", config.Port, err)
	}

	sp.port = port
	sp.config = config
	sp.isOpen = true

	return nil
}

// Close closes the serial port
func (sp *CrossPlatformSerialPort) Close() error {
	sp.mu.Lock()
	if !sp.isOpen {
		sp.mu.Unlock()
		return ErrPortNotOpen
	}
	port, name := sp.port, sp.config.Port
	sp.port = nil
	sp.isOpen = false
	sp.mu.Unlock()

	if err := port.Close(); err != nil {
		return NewSerialError("close", name, err)
	}

	return nil
}

// Read reads data from the serial port. With a read timeout configured a
// read that finds nothing returns 0 and a nil error.
func (sp *CrossPlatformSerialPort) Read(buffer []byte) (int, error) {
	sp.mu.Lock()
	port, name, open := sp.port, sp.config.Port, sp.isOpen
	sp.mu.Unlock()

	if !open {
		return 0, NewSerialError("read", name, ErrPortNotOpen)
	}

	n, err := port.Read(buffer)
	if err != nil {
		return n, NewSerialError("read", name, err)
	}

	return n, nil
}

// IsOpen returns true if the serial port is open
func (sp *CrossPlatformSerialPort) IsOpen() bool {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	return sp.isOpen
}

// GetConfig returns the current serial port configuration
func (sp *CrossPlatformSerialPort) GetConfig() SerialConfig {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	return sp.config
}

// convertStopBits converts our stop bits format to go.bug.st/serial format
func convertStopBits(stopBits int) serial.StopBits {
	switch stopBits {
	case 2:
		return serial.TwoStopBits
	default:
		return serial.OneStopBit
	}
}

// convertParity converts our parity format to go.bug.st/serial format
func convertParity(parity string) serial.Parity {
	switch parity {
	case "odd":
		return serial.OddParity
	case "even":
		return serial.EvenParity
	case "mark":
		return serial.MarkParity
	case "space":
		return serial.SpaceParity
	default:
		return serial.NoParity
	}
}

// PortInfo contains information about a serial port
type PortInfo struct {
	Name         string `json:"name"`
	IsUSB        bool   `json:"is_usb"`
	VID          string `json:"vid,omitempty"`
	PID          string `json:"pid,omitempty"`
	Product      string `json:"product,omitempty"`
	SerialNumber string `json:"serial_number,omitempty"`
}

// ListPorts returns a list of available serial ports on the system
func ListPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to get ports list: %w", err)
	}
	return ports, nil
}

// GetDetailedPortsList returns detailed information about available serial ports
func GetDetailedPortsList() ([]PortInfo, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to get detailed ports list: %w", err)
	}

	portInfos := make([]PortInfo, 0, len(details))
	for _, d := range details {
		portInfos = append(portInfos, PortInfo{
			Name:         d.Name,
			IsUSB:        d.IsUSB,
			VID:          d.VID,
			PID:          d.PID,
			Product:      d.Product,
			SerialNumber: d.SerialNumber,
		})
	}

	return portInfos, nil
}

// IsPortAvailable checks if a specific port is available
func IsPortAvailable(portName string) bool {
	ports, err := serial.GetPortsList()
	if err != nil {
		return false
	}

	for _, port := range ports {
		if port == portName {
			return true
		}
	}

	return false
}

// SerialError represents a serial port specific error
type SerialError struct {
	Operation string
	Port      string
	Cause     error
}

// Error implements the error interface
func (e *SerialError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("serial %s operation failed on port %s: %v", e.Operation, e.Port, e.Cause)
	}
	return fmt.Sprintf("serial %s operation failed on port %s", e.Operation, e.Port)
}

// Unwrap returns the underlying cause
func (e *SerialError) Unwrap() error {
	return e.Cause
}

// NewSerialError creates a new serial error
func NewSerialError(operation, port string, cause error) *SerialError {
	return &SerialError{
		Operation: operation,
		Port:      port,
		Cause:     cause,
	}
}

// IsDisconnect reports whether err means the device went away, as opposed
// to a transient failure worth retrying on the next poll.
func IsDisconnect(err error) bool {
	if err == nil {
		return false
	}

	var portErr *serial.PortError
	if errors.As(err, &portErr) {
		switch portErr.Code() {
		case serial.PortClosed, serial.PortNotFound, serial.InvalidSerialPort:
			return true
		}
	}

	return errors.Is(err, ErrPortNotOpen) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, syscall.EIO) ||
		errors.Is(err, syscall.ENXIO) ||
		errors.Is(err, syscall.ENODEV) ||
		errors.Is(err, syscall.EBADF)
}
