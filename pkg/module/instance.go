package module

import (
	"errors"
	"io"
	"sync"

	"github.com/golang/glog"

	"github.com/robotalks/thermo.go/pkg/edge"
	fx "github.com/robotalks/thermo.go/pkg/framework"
)

// ErrClosed indicates the instance is already closed.
var ErrClosed = errors.New("module closed")

// Instance binds a module to the edge it owns. Hooks are serialized so
// at most one command/response exchange is in flight on the edge.
type Instance struct {
	Name   string
	Module Module

	edge   edge.Edge
	lock   sync.Mutex
	closed bool
}

// Load creates the named module and runs its Init hook on e.
// The Instance takes ownership of e.
func Load(name string, params Params, e edge.Edge) (*Instance, error) {
	m, err := New(name, params)
	if err != nil {
		return nil, err
	}
	return Attach(name, m, e)
}

// Attach runs Init of an existing module on e.
func Attach(name string, m Module, e edge.Edge) (*Instance, error) {
	inited, err := m.Init(e)
	if err != nil {
		return nil, err
	}
	if inited == nil {
		inited = e
	}
	glog.V(1).Infof("module %s loaded", name)
	return &Instance{Name: name, Module: m, edge: inited}, nil
}

// Edge returns the edge in use.
func (i *Instance) Edge() edge.Edge {
	return i.edge
}

// Read runs the Read hook.
func (i *Instance) Read() (Values, error) {
	i.lock.Lock()
	defer i.lock.Unlock()
	if i.closed {
		return nil, ErrClosed
	}
	return i.Module.Read(i.edge)
}

// Write runs the Write hook.
func (i *Instance) Write(data []byte) error {
	i.lock.Lock()
	defer i.lock.Unlock()
	if i.closed {
		return ErrClosed
	}
	return i.Module.Write(i.edge, data)
}

// Close runs the Close hook and then closes the edge if it's an io.Closer.
func (i *Instance) Close() error {
	i.lock.Lock()
	defer i.lock.Unlock()
	if i.closed {
		return nil
	}
	i.closed = true
	var errs fx.AggregatedError
	errs.Add(i.Module.Close(i.edge))
	if closer, ok := i.edge.(io.Closer); ok {
		errs.Add(closer.Close())
	}
	glog.V(1).Infof("module %s closed", i.Name)
	return errs.Aggregate()
}
