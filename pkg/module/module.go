// Package module defines the lifecycle contract of device modules and
// the registry a host loads them from.
package module

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/robotalks/thermo.go/pkg/edge"
)

// Values maps value names to raw register values produced by a read.
type Values map[string][]int

// Clone returns a deep copy.
func (v Values) Clone() Values {
	if v == nil {
		return nil
	}
	c := make(Values, len(v))
	for k, vals := range v {
		c[k] = append([]int(nil), vals...)
	}
	return c
}

// ErrStale is wrapped by the error Read returns along with Values repeated
// from an earlier read.
var ErrStale = errors.New("stale values")

// IsStale tells whether a Read error comes with stale Values.
func IsStale(err error) bool {
	return errors.Is(err, ErrStale)
}

// Module is a device driver plugged into a host through four hooks.
type Module interface {
	// Init prepares the module on an edge and returns the edge to use.
	Init(edge.Edge) (edge.Edge, error)
	// Read performs one read cycle. A non-nil error means the Values are
	// not fresh: they are nil, or stale when the error wraps ErrStale.
	Read(edge.Edge) (Values, error)
	// Write sends data to the device.
	Write(edge.Edge, []byte) error
	// Close finalizes the module. It must not close the edge.
	Close(edge.Edge) error
}

// Params configures a module instance.
type Params map[string]string

// Factory creates a module instance.
type Factory func(Params) (Module, error)

// Meta describes a registered module.
type Meta struct {
	Description string            `json:"description,omitempty"`
	Params      map[string]string `json:"params,omitempty"`
}

// UnknownModuleError indicates no module is registered with the name.
type UnknownModuleError struct {
	Name string
}

// Error implements error.
func (e *UnknownModuleError) Error() string {
	return fmt.Sprintf("unknown module: %q", e.Name)
}

type registration struct {
	meta    Meta
	factory Factory
}

var (
	registry     = make(map[string]registration)
	registryLock sync.RWMutex
)

// Register makes a module available by name. It is meant to be called
// from init funcs and panics on duplicates.
func Register(name string, meta Meta, factory Factory) {
	registryLock.Lock()
	defer registryLock.Unlock()
	if _, exist := registry[name]; exist {
		panic("module already registered: " + name)
	}
	registry[name] = registration{meta: meta, factory: factory}
}

// Lookup gets the meta of a registered module.
func Lookup(name string) (Meta, bool) {
	registryLock.RLock()
	defer registryLock.RUnlock()
	reg, ok := registry[name]
	return reg.meta, ok
}

// Names lists registered modules, sorted.
func Names() []string {
	registryLock.RLock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	registryLock.RUnlock()
	sort.Strings(names)
	return names
}

// New creates a module instance by name.
func New(name string, params Params) (Module, error) {
	registryLock.RLock()
	reg, ok := registry[name]
	registryLock.RUnlock()
	if !ok {
		return nil, &UnknownModuleError{Name: name}
	}
	return reg.factory(params)
}
