package d6t

import (
	"fmt"

	"github.com/golang/glog"

	"github.com/robotalks/thermo.go/pkg/edge"
	"github.com/robotalks/thermo.go/pkg/module"
)

// ModuleName is the registered name of the D6T-44L module.
const ModuleName = "d6t-44l"

// ParamPolicy is the module param selecting the short response Policy.
const ParamPolicy = "policy"

// Module exposes a Reader through the module lifecycle hooks.
type Module struct {
	Reader *Reader
}

// NewModule creates a Module.
func NewModule(policy Policy) *Module {
	return &Module{Reader: NewReader(policy)}
}

// NewModuleFromParams is the module.Factory of d6t-44l.
func NewModuleFromParams(params module.Params) (module.Module, error) {
	policy, err := ParsePolicy(params[ParamPolicy])
	if err != nil {
		return nil, err
	}
	return NewModule(policy), nil
}

// Init implements module.Module. The edge is expected to be open already.
func (m *Module) Init(e edge.Edge) (edge.Edge, error) {
	glog.Infof("%s: init (policy=%s)", ModuleName, m.Reader.Policy)
	return e, nil
}

// Read implements module.Module. A repeated result is returned with an
// error wrapping module.ErrStale, and a short response with no earlier
// result fails with ErrNoMeasurement.
func (m *Module) Read(e edge.Edge) (module.Values, error) {
	res, err := m.Reader.Measure(e)
	switch {
	case err != nil:
		return nil, err
	case !res.Valid:
		return nil, ErrNoMeasurement
	case res.Stale:
		return res.Values(), fmt.Errorf("%s: %w", ModuleName, module.ErrStale)
	}
	return res.Values(), nil
}

// Write implements module.Module. The device has no register write
// command, so data is dropped and success reported.
func (m *Module) Write(e edge.Edge, data []byte) error {
	glog.V(2).Infof("%s: write of %d bytes ignored", ModuleName, len(data))
	return nil
}

// Close implements module.Module. The edge is released by its owner.
func (m *Module) Close(e edge.Edge) error {
	glog.Infof("%s: close", ModuleName)
	return nil
}

func init() {
	module.Register(ModuleName, module.Meta{
		Description: "Omron D6T-44L thermal sensor, PTAT + 4x4 PX",
		Params:      map[string]string{ParamPolicy: "short response policy: stale|fail"},
	}, NewModuleFromParams)
}
