package comm

import (
	"context"
	"sync"
	"time"

	fx "github.com/robotalks/thermo.go/pkg/framework"
	"github.com/robotalks/thermo.go/pkg/node"
	"github.com/robotalks/thermo.go/pkg/node/msgs"
)

// DefaultCommandExpiration is how long a command waits for its reply.
const DefaultCommandExpiration = time.Second

// NodeConn is the client side of a Pipe and implements node.Conn.
// Commands not answered within Expiration fail with DeadlineExceeded.
type NodeConn struct {
	Expiration time.Duration

	pipe    Pipe
	lock    sync.Mutex
	lastSeq uint32
	pending map[uint32]*commandFuture
}

type commandFuture struct {
	expireAt time.Time
	result   chan node.Result
}

func (f *commandFuture) ResultChan() <-chan node.Result {
	return f.result
}

func (f *commandFuture) resolve(res node.Result) {
	f.result <- res
	close(f.result)
}

// Init initializes NodeConn with defaults.
func (c *NodeConn) Init(rw PacketReadWriter) {
	c.Expiration = DefaultCommandExpiration
	c.pipe.ReadWriter = rw
	c.pipe.Handler = msgs.HandleTypedMsgFunc(c.handleTypedMsg)
	c.pending = make(map[uint32]*commandFuture)
}

// DoCommand implements node.Conn. Sequence 0 is never used.
func (c *NodeConn) DoCommand(msg fx.Message) node.CommandFuture {
	f := &commandFuture{result: make(chan node.Result, 1)}
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.lastSeq++; c.lastSeq == 0 {
		c.lastSeq = 1
	}
	seq := c.lastSeq
	if err := c.pipe.SendCommandMsg(msg, seq); err != nil {
		f.resolve(node.Result{Err: err})
		return f
	}
	f.expireAt = time.Now().Add(c.Expiration)
	c.pending[seq] = f
	return f
}

// Pending returns the number of commands waiting for replies.
func (c *NodeConn) Pending() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return len(c.pending)
}

// AddToLoop implements LoopAdder.
func (c *NodeConn) AddToLoop(l *fx.Loop) {
	l.Add(&c.pipe)
	l.AddController(fx.PrLvIdle, fx.ControlFunc(c.purgeExpired))
}

func (c *NodeConn) handleTypedMsg(ctx context.Context, msg fx.Message, typed *msgs.Typed) error {
	if typed.IsEvent() {
		loopCtl := fx.LoopCtlFrom(ctx)
		loopCtl.PostMessage(msg)
		loopCtl.TriggerNext()
		return nil
	}
	c.lock.Lock()
	f, ok := c.pending[typed.Sequence]
	delete(c.pending, typed.Sequence)
	c.lock.Unlock()
	if !ok {
		return nil
	}
	res := node.Result{Msg: msg}
	if cmdErr, isErr := msg.(*msgs.CommandErr); isErr {
		res.Err = cmdErr
	}
	f.resolve(res)
	return nil
}

func (c *NodeConn) purgeExpired(cc fx.ControlContext) error {
	now := cc.Time()
	c.lock.Lock()
	defer c.lock.Unlock()
	for seq, f := range c.pending {
		if now.Before(f.expireAt) {
			continue
		}
		delete(c.pending, seq)
		f.resolve(node.Result{Err: context.DeadlineExceeded})
	}
	return nil
}
