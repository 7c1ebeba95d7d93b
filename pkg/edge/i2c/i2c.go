// Package i2c implements edge.Edge on an I²C bus using periph.io.
package i2c

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/golang/glog"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// Edge talks to one device on an I²C bus.
type Edge struct {
	Dev *i2c.Dev
	// Combined holds written bytes back and sends them as the write half
	// of the next read transaction (repeated start). Devices like the
	// D6T series only answer a command issued this way.
	Combined bool

	bus     i2c.BusCloser
	pending []byte
}

var initOnce struct {
	sync.Once
	err error
}

// Open initializes host drivers and opens the device at addr on the named
// bus ("" for the first available bus).
func Open(busName string, addr uint16) (*Edge, error) {
	initOnce.Do(func() {
		_, initOnce.err = host.Init()
	})
	if initOnce.err != nil {
		return nil, fmt.Errorf("periph host init: %w", initOnce.err)
	}
	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("open i2c bus %q: %w", busName, err)
	}
	glog.V(2).Infof("i2c bus %s opened, device 0x%02x", bus, addr)
	e := New(bus, addr)
	e.bus = bus
	return e, nil
}

// New creates an Edge on an already opened bus, in combined mode.
func New(bus i2c.Bus, addr uint16) *Edge {
	return &Edge{
		Dev:      &i2c.Dev{Bus: bus, Addr: addr},
		Combined: true,
	}
}

// ParseAddr parses a 7-bit device address, e.g. "0x0a" or "10".
func ParseAddr(s string) (uint16, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 0, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid i2c address %q: %w", s, err)
	}
	if v > 0x7f {
		return 0, fmt.Errorf("i2c address 0x%x out of range", v)
	}
	return uint16(v), nil
}

// Write implements edge.Edge.
func (e *Edge) Write(data []byte) error {
	if e.Combined {
		e.pending = append(e.pending[:0], data...)
		return nil
	}
	_, err := e.Dev.Write(data)
	return err
}

// Read implements edge.Edge.
func (e *Edge) Read(n int) ([]byte, error) {
	buf := make([]byte, n)
	w := e.pending
	e.pending = nil
	if err := e.Dev.Tx(w, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// Close releases the bus if it was opened by Open.
func (e *Edge) Close() error {
	if e.bus == nil {
		return nil
	}
	err := e.bus.Close()
	e.bus = nil
	return err
}
