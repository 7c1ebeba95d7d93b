package thermal

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/thermo.go/pkg/d6t"
	"github.com/robotalks/thermo.go/pkg/edge/edgetest"
	fx "github.com/robotalks/thermo.go/pkg/framework"
	"github.com/robotalks/thermo.go/pkg/module"
	"github.com/robotalks/thermo.go/pkg/node"
	"github.com/robotalks/thermo.go/pkg/node/comm"
	"github.com/robotalks/thermo.go/pkg/node/env/sensor"
	nodemsgs "github.com/robotalks/thermo.go/pkg/node/msgs"
	"github.com/robotalks/thermo.go/pkg/thermal/msgs"
)

type recordingRegistrar struct {
	events []fx.Message
}

func (r *recordingRegistrar) SendEvent(ctx context.Context, msg fx.Message) error {
	r.events = append(r.events, msg)
	return nil
}

func (r *recordingRegistrar) take() []fx.Message {
	events := r.events
	r.events = nil
	return events
}

type fakeCommand struct {
	msg   fx.Message
	reply fx.Message
}

func (c *fakeCommand) Msg() fx.Message { return c.msg }

func (c *fakeCommand) Done(reply fx.Message) error {
	c.reply = reply
	return nil
}

func testMeasurement(base uint16) d6t.Measurement {
	m := d6t.Measurement{PTAT: base}
	for i := range m.PX {
		m.PX[i] = base + uint16(i) + 1
	}
	return m
}

type controllerTest struct {
	edge *edgetest.Edge
	reg  *recordingRegistrar
	ctl  *Controller
	loop *fx.Loop
}

func newControllerTest(t *testing.T, policy string) *controllerTest {
	e := edgetest.New()
	inst, err := module.Load(d6t.ModuleName, module.Params{d6t.ParamPolicy: policy}, e)
	require.NoError(t, err)
	reg := &recordingRegistrar{}
	env := &sensor.Env{Registrar: &comm.RegistrarMux{}}
	env.Registrar.Add(reg)
	ctl := NewController(env, inst)
	ctl.Interval = 500 * time.Millisecond
	ctl.EdgeURL = "i2c://1/0x0a"
	loop := fx.NewLoop()
	loop.Add(ctl)
	return &controllerTest{edge: e, reg: reg, ctl: ctl, loop: loop}
}

func (c *controllerTest) command(msg fx.Message) *fakeCommand {
	cmd := &fakeCommand{msg: msg}
	c.loop.PostMessage(&node.CommandMsg{Command: cmd})
	c.loop.RunIteration(context.Background())
	return cmd
}

func TestControllerInitialStatus(t *testing.T) {
	ct := newControllerTest(t, "stale")
	ct.loop.RunIteration(context.Background())
	events := ct.reg.take()
	require.Len(t, events, 1)
	status, ok := events[0].(*msgs.SensorStatus)
	require.True(t, ok)
	require.Equal(t, d6t.ModuleName, status.Module)
	require.Equal(t, "i2c://1/0x0a", status.Edge)
	require.Equal(t, int64(500), status.IntervalMs)

	ct.loop.RunIteration(context.Background())
	require.Empty(t, ct.reg.take())
}

func TestControllerSamples(t *testing.T) {
	ct := newControllerTest(t, "stale")
	ct.loop.RunIteration(context.Background())
	ct.reg.take()

	var seen []*msgs.Frame
	ct.ctl.OnFrame = func(f *msgs.Frame) { seen = append(seen, f) }

	m := testMeasurement(100)
	at := time.Unix(10, 0)
	ct.loop.PostMessage(&sampleMsg{time: at, values: d6t.Result{Measurement: m, Valid: true}.Values()})
	ct.loop.RunIteration(context.Background())
	events := ct.reg.take()
	require.Len(t, events, 1)
	frame, ok := events[0].(*msgs.Frame)
	require.True(t, ok)
	require.Equal(t, uint64(1), frame.Seq)
	require.Equal(t, d6t.ModuleName, frame.Module)
	require.True(t, at.Equal(frame.Time()))
	require.Equal(t, []int{100}, frame.Values()[d6t.KeyPTAT])
	require.Len(t, seen, 1)

	readErr := errors.New("bus error")
	ct.loop.PostMessage(&sampleMsg{time: at, err: readErr})
	ct.loop.RunIteration(context.Background())
	events = ct.reg.take()
	require.Len(t, events, 1)
	status, ok := events[0].(*msgs.SensorStatus)
	require.True(t, ok)
	require.Equal(t, uint64(1), status.Errors)
	require.Equal(t, uint64(1), status.Frames)
	require.Equal(t, "bus error", status.LastError)

	// the same error again does not republish the status.
	ct.loop.PostMessage(&sampleMsg{time: at, err: readErr})
	ct.loop.RunIteration(context.Background())
	require.Empty(t, ct.reg.take())

	ct.loop.PostMessage(&sampleMsg{time: at, values: d6t.Result{Measurement: m, Valid: true}.Values()})
	ct.loop.RunIteration(context.Background())
	events = ct.reg.take()
	require.Len(t, events, 2)
	require.Equal(t, uint64(2), events[0].(*msgs.Frame).Seq)
	status = events[1].(*msgs.SensorStatus)
	require.Empty(t, status.LastError)
	require.Equal(t, uint64(2), status.Errors)
}

func TestControllerMeasureQuery(t *testing.T) {
	ct := newControllerTest(t, "stale")
	m := testMeasurement(200)
	ct.edge.Reply(m.Encode())

	cmd := ct.command(&msgs.MeasureQuery{})
	reply, ok := cmd.reply.(*msgs.MeasureReply)
	require.True(t, ok)
	require.Equal(t, uint64(1), reply.Frame.Seq)
	vals := reply.Frame.Values()
	require.Equal(t, []int{200}, vals[d6t.KeyPTAT])
	require.Len(t, vals[d6t.KeyPX], d6t.PixelCount)
	require.Equal(t, 216, vals[d6t.KeyPX][15])
	require.Equal(t, [][]byte{{d6t.CmdMeasure}}, ct.edge.Writes())
	require.Equal(t, []int{d6t.ResponseSize}, ct.edge.Reads())

	// short response returns the last frame values under stale policy.
	ct.edge.Reply(make([]byte, 10))
	cmd = ct.command(&msgs.MeasureQuery{})
	reply, ok = cmd.reply.(*msgs.MeasureReply)
	require.True(t, ok)
	require.True(t, reply.Frame.Stale)
	require.Equal(t, uint64(1), reply.Frame.Seq)
	require.Equal(t, vals, reply.Frame.Values())

	ct.edge.ReplyErr(errors.New("nack"))
	cmd = ct.command(&msgs.MeasureQuery{})
	errReply, ok := cmd.reply.(*nodemsgs.CommandErr)
	require.True(t, ok)
	require.Contains(t, errReply.Message, "nack")
}

func (c *controllerTest) sample(at time.Time) []fx.Message {
	vals, err := c.ctl.Instance.Read()
	c.loop.PostMessage(&sampleMsg{time: at, values: vals, err: err})
	c.loop.RunIteration(context.Background())
	return c.reg.take()
}

func TestControllerStaleSamples(t *testing.T) {
	ct := newControllerTest(t, "stale")
	ct.loop.RunIteration(context.Background())
	ct.reg.take()

	var seen []*msgs.Frame
	ct.ctl.OnFrame = func(f *msgs.Frame) { seen = append(seen, f) }
	at := time.Unix(20, 0)

	// short before any good response: no frame, counted as an error.
	ct.edge.Reply(make([]byte, 3))
	events := ct.sample(at)
	require.Len(t, events, 1)
	status := events[0].(*msgs.SensorStatus)
	require.Zero(t, status.Frames)
	require.Zero(t, status.Stale)
	require.Equal(t, uint64(1), status.Errors)
	require.Equal(t, d6t.ErrNoMeasurement.Error(), status.LastError)

	ct.edge.Reply(testMeasurement(5).Encode())
	events = ct.sample(at)
	require.Len(t, events, 2)
	frame := events[0].(*msgs.Frame)
	require.Equal(t, uint64(1), frame.Seq)
	require.False(t, frame.Stale)
	require.Equal(t, []int{5}, frame.Values()[d6t.KeyPTAT])

	// short after a good response: no frame event, stale counted.
	ct.edge.Reply(make([]byte, 20))
	events = ct.sample(at)
	require.Len(t, events, 1)
	status = events[0].(*msgs.SensorStatus)
	require.Equal(t, uint64(1), status.Frames)
	require.Equal(t, uint64(1), status.Stale)
	require.Equal(t, uint64(1), status.Errors)
	require.Empty(t, status.LastError)

	ct.edge.Reply(make([]byte, 20))
	require.Empty(t, ct.sample(at))
	require.Equal(t, uint64(2), ct.ctl.status.Stale)
	require.Len(t, seen, 1)

	ct.edge.Reply(testMeasurement(6).Encode())
	events = ct.sample(at)
	require.Len(t, events, 1)
	frame = events[0].(*msgs.Frame)
	require.Equal(t, uint64(2), frame.Seq)
	require.Equal(t, []int{6}, frame.Values()[d6t.KeyPTAT])
	require.Len(t, seen, 2)
}

func TestControllerMeasureQueryNoMeasurement(t *testing.T) {
	ct := newControllerTest(t, "stale")
	ct.edge.Reply(make([]byte, 3))
	cmd := ct.command(&msgs.MeasureQuery{})
	errReply, ok := cmd.reply.(*nodemsgs.CommandErr)
	require.True(t, ok)
	require.Equal(t, d6t.ErrNoMeasurement.Error(), errReply.Message)
}

func TestControllerMeasureQueryFailPolicy(t *testing.T) {
	ct := newControllerTest(t, "fail")
	ct.edge.Reply(make([]byte, 34))
	cmd := ct.command(&msgs.MeasureQuery{})
	errReply, ok := cmd.reply.(*nodemsgs.CommandErr)
	require.True(t, ok)
	require.NotEmpty(t, errReply.Message)
}

func TestControllerStatusQuery(t *testing.T) {
	ct := newControllerTest(t, "stale")
	ct.edge.Reply(testMeasurement(1).Encode())
	ct.command(&msgs.MeasureQuery{})

	cmd := ct.command(&msgs.StatusQuery{})
	reply, ok := cmd.reply.(*msgs.StatusReply)
	require.True(t, ok)
	require.Equal(t, uint64(1), reply.Status.Frames)
	require.Zero(t, reply.Status.Errors)
	require.Equal(t, d6t.ModuleName, reply.Status.Module)
}

func TestControllerRegisterWrite(t *testing.T) {
	ct := newControllerTest(t, "stale")
	cmd := ct.command(&msgs.RegisterWrite{Data: []byte{0x01, 0x02}})
	_, ok := cmd.reply.(*nodemsgs.CommandOK)
	require.True(t, ok)
	require.Empty(t, ct.edge.Writes())

	require.NoError(t, ct.ctl.Instance.Close())
	cmd = ct.command(&msgs.RegisterWrite{Data: []byte{0x01}})
	errReply, ok := cmd.reply.(*nodemsgs.CommandErr)
	require.True(t, ok)
	require.Equal(t, module.ErrClosed.Error(), errReply.Message)
	require.True(t, ct.edge.Closed())
}
