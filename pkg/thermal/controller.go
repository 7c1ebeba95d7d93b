package thermal

import (
	"context"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/thermo.go/pkg/framework"
	"github.com/robotalks/thermo.go/pkg/module"
	"github.com/robotalks/thermo.go/pkg/node"
	"github.com/robotalks/thermo.go/pkg/node/env/sensor"
	nodemsgs "github.com/robotalks/thermo.go/pkg/node/msgs"
	"github.com/robotalks/thermo.go/pkg/thermal/msgs"
)

// Controller polls a module instance and serves it as a sensor node.
type Controller struct {
	Env      *sensor.Env
	Instance *module.Instance
	Interval time.Duration
	EdgeURL  string
	// OnFrame is invoked in the loop for every fresh frame produced.
	OnFrame func(*msgs.Frame)

	seq           uint64
	stale         bool
	status        msgs.SensorStatus
	statusChanged bool
}

type sampleMsg struct {
	time   time.Time
	values module.Values
	err    error
}

func (m *sampleMsg) NewMessage() fx.Message { return &sampleMsg{} }

// NewController creates a Controller.
func NewController(e *sensor.Env, inst *module.Instance) *Controller {
	return &Controller{
		Env:           e,
		Instance:      inst,
		Interval:      defaultConfig.Interval,
		EdgeURL:       defaultConfig.Edge,
		statusChanged: true,
	}
}

// AddToLoop implements LoopAdder.
func (c *Controller) AddToLoop(loop *fx.Loop) {
	c.status.Module = c.Instance.Name
	c.status.Edge = c.EdgeURL
	c.status.IntervalMs = int64(c.Interval / time.Millisecond)
	loop.AddRunnable(c)
	loop.AddController(fx.PrLvSense, fx.ControlFunc(c.sense))
	loop.AddController(fx.PrLvControl, c)
	loop.AddController(fx.PrLvPostProc, fx.ControlFunc(c.notifyStatusChange))
}

// Run implements Runnable. It samples the instance at Interval and closes
// the instance on exit.
func (c *Controller) Run(ctx context.Context) error {
	defer func() {
		if err := c.Instance.Close(); err != nil {
			glog.Warningf("close module %s: %v", c.Instance.Name, err)
		}
	}()
	loopCtl := fx.LoopCtlFrom(ctx)
	ticker := time.NewTicker(c.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			vals, err := c.Instance.Read()
			loopCtl.PostMessage(&sampleMsg{time: now, values: vals, err: err})
			loopCtl.TriggerNext()
		}
	}
}

func (c *Controller) sense(cc fx.ControlContext) error {
	cc.Messages().ProcessMessages(fx.ProcessMessageFunc(func(mctx fx.MessageProcessingContext) {
		if msg, ok := mctx.CurrentMessage().(*sampleMsg); ok {
			mctx.MessageTaken()
			if frame := c.handleSample(msg); frame != nil && !frame.Stale {
				if err := c.Env.Registrar.SendEvent(cc.Context(), frame); err != nil {
					glog.Warningf("send frame %d: %v", frame.Seq, err)
				}
			}
		}
	}))
	return nil
}

// Control implements Controller.
func (c *Controller) Control(cc fx.ControlContext) error {
	cc.Messages().ProcessMessages(fx.ProcessMessageFunc(func(mctx fx.MessageProcessingContext) {
		msg, ok := mctx.CurrentMessage().(*node.CommandMsg)
		if !ok {
			return
		}
		switch m := msg.Command.Msg().(type) {
		case *msgs.MeasureQuery:
			mctx.MessageTaken()
			vals, err := c.Instance.Read()
			frame := c.handleSample(&sampleMsg{time: cc.Time(), values: vals, err: err})
			if frame == nil {
				msg.Command.Done(nodemsgs.NewCommandErr(err))
				return
			}
			msg.Command.Done(&msgs.MeasureReply{Frame: frame})
		case *msgs.StatusQuery:
			mctx.MessageTaken()
			status := c.status
			msg.Command.Done(&msgs.StatusReply{Status: &status})
		case *msgs.RegisterWrite:
			mctx.MessageTaken()
			if err := c.Instance.Write(m.Data); err != nil {
				msg.Command.Done(nodemsgs.NewCommandErr(err))
				return
			}
			msg.Command.Done(nodemsgs.NewCommandOK())
		}
	}))
	return nil
}

// handleSample returns nil when the read failed, and a frame marked Stale
// carrying the Seq of the last fresh frame when values are repeated.
func (c *Controller) handleSample(msg *sampleMsg) *msgs.Frame {
	if module.IsStale(msg.err) {
		c.status.Stale++
		if !c.stale {
			c.stale = true
			c.statusChanged = true
		}
		glog.V(2).Infof("read %s: %v", c.Instance.Name, msg.err)
		frame := msgs.NewFrame(c.Instance.Name, c.seq, msg.time, msg.values)
		frame.Stale = true
		return frame
	}
	if msg.err != nil {
		c.status.Errors++
		if errMsg := msg.err.Error(); errMsg != c.status.LastError {
			c.status.LastError = errMsg
			c.statusChanged = true
		}
		glog.Warningf("read %s: %v", c.Instance.Name, msg.err)
		return nil
	}
	if c.status.LastError != "" {
		c.status.LastError = ""
		c.statusChanged = true
	}
	c.stale = false
	c.seq++
	c.status.Frames++
	frame := msgs.NewFrame(c.Instance.Name, c.seq, msg.time, msg.values)
	glog.V(3).Infof("frame %d: %v", frame.Seq, msg.values)
	if c.OnFrame != nil {
		c.OnFrame(frame)
	}
	return frame
}

func (c *Controller) notifyStatusChange(cc fx.ControlContext) error {
	changed := c.statusChanged
	c.statusChanged = false
	if changed {
		status := c.status
		return c.Env.Registrar.SendEvent(cc.Context(), &status)
	}
	return nil
}
