package host

import (
	"errors"
	"fmt"
	"sync"
)

// DefaultScript is what a SimulatedHost sends when no script is given
var DefaultScript = []string{"up\r\n"}

var simulatedPorts = []string{"COM1", "COM2"}

// SimulatedHost stands in for real hardware. It lists two fixed ports and
// answers every data request with the next chunk of a looping script.
type SimulatedHost struct {
	mu      sync.Mutex
	open    bool
	dropped bool
	port    string
	script  []string
	next    int
}

// NewSimulatedHost creates a host replaying script. An empty script selects
// DefaultScript.
func NewSimulatedHost(script []string) *SimulatedHost {
	if len(script) == 0 {
		script = DefaultScript
	}
	s := make([]string, len(script))
	copy(s, script)
	return &SimulatedHost{script: s}
}

// GetSerialPorts returns COM1 and COM2
func (h *SimulatedHost) GetSerialPorts() ([]string, error) {
	ports := make([]string, len(simulatedPorts))
	copy(ports, simulatedPorts)
	return ports, nil
}

// OpenSerial marks the host open
func (h *SimulatedHost) OpenSerial(port string) (bool, error) {
	if port == "" {
		return false, errors.New("no port selected")
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, p := range simulatedPorts {
		if p == port {
			h.open = true
			h.dropped = false
			h.port = port
			return true, nil
		}
	}
	return false, fmt.Errorf("unknown port: %s", port)
}

// CloseSerial marks the host closed
func (h *SimulatedHost) CloseSerial() (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.open = false
	h.dropped = false
	h.port = ""
	return true, nil
}

// GetSerialData returns the next script chunk
func (h *SimulatedHost) GetSerialData() (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.dropped {
		h.dropped = false
		return "", fmt.Errorf("%w: %s", ErrPortDisconnected, h.port)
	}
	if !h.open {
		return "", errors.New("simulated port is not open")
	}

	chunk := h.script[h.next]
	h.next = (h.next + 1) % len(h.script)
	return chunk, nil
}

// Disconnect drops the open port. The next data request reports
// ErrPortDisconnected once, then behaves like a closed host.
func (h *SimulatedHost) Disconnect() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.open {
		h.open = false
		h.dropped = true
	}
}
