package module

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/thermo.go/pkg/edge"
	"github.com/robotalks/thermo.go/pkg/edge/edgetest"
)

type countingModule struct {
	inits, reads, writes, closes int
	closeErr                     error
}

func (m *countingModule) Init(e edge.Edge) (edge.Edge, error) {
	m.inits++
	return e, nil
}

func (m *countingModule) Read(e edge.Edge) (Values, error) {
	m.reads++
	data, err := e.Read(1)
	if err != nil {
		return nil, err
	}
	return Values{"v": {int(data[0])}}, nil
}

func (m *countingModule) Write(e edge.Edge, data []byte) error {
	m.writes++
	return e.Write(data)
}

func (m *countingModule) Close(e edge.Edge) error {
	m.closes++
	return m.closeErr
}

func init() {
	Register("test-counting", Meta{Description: "counting"}, func(Params) (Module, error) {
		return &countingModule{}, nil
	})
}

func TestRegistry(t *testing.T) {
	meta, ok := Lookup("test-counting")
	require.True(t, ok)
	require.Equal(t, "counting", meta.Description)
	require.Contains(t, Names(), "test-counting")

	_, err := New("no-such-module", nil)
	var unknown *UnknownModuleError
	require.True(t, errors.As(err, &unknown))
	require.Equal(t, "no-such-module", unknown.Name)

	require.Panics(t, func() {
		Register("test-counting", Meta{}, nil)
	})
}

func TestInstanceLifecycle(t *testing.T) {
	e := edgetest.New([]byte{42})
	inst, err := Load("test-counting", nil, e)
	require.NoError(t, err)
	m := inst.Module.(*countingModule)
	require.Equal(t, 1, m.inits)

	vals, err := inst.Read()
	require.NoError(t, err)
	require.Equal(t, Values{"v": {42}}, vals)

	require.NoError(t, inst.Write([]byte{1, 2}))
	require.Equal(t, [][]byte{{1, 2}}, e.Writes())

	require.NoError(t, inst.Close())
	require.Equal(t, 1, m.closes)
	require.True(t, e.Closed())

	_, err = inst.Read()
	require.Equal(t, ErrClosed, err)
	require.Equal(t, ErrClosed, inst.Write(nil))
	require.NoError(t, inst.Close())
	require.Equal(t, 1, m.closes)
}

func TestInstanceCloseError(t *testing.T) {
	m := &countingModule{closeErr: errors.New("stuck")}
	e := edgetest.New()
	inst, err := Attach("x", m, e)
	require.NoError(t, err)
	err = inst.Close()
	require.Error(t, err)
	require.Contains(t, err.Error(), "stuck")
	require.True(t, e.Closed())
}

func TestValuesClone(t *testing.T) {
	v := Values{"a": {1, 2}}
	c := v.Clone()
	c["a"][0] = 9
	require.Equal(t, 1, v["a"][0])
	require.Nil(t, Values(nil).Clone())
}
