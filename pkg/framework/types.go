// Package framework provides the control loop a sensor node runs in.
package framework

import (
	"context"
	"time"
)

// Named is implemented by loop parts that report a name in logs.
type Named interface {
	Name() string
}

// Runnable is a background task of the loop, e.g. a sampler polling a
// device. It returns when the context is done.
type Runnable interface {
	Run(context.Context) error
}

// Message is a sample, command or event posted into the loop.
type Message interface {
	// NewMessage creates an empty message of the same type, used as
	// the decode target.
	NewMessage() Message
}

// Controller consumes messages once per iteration at its priority level.
type Controller interface {
	Control(ControlContext) error
}

// ControlFunc adapts a func to Controller.
type ControlFunc func(ControlContext) error

// Control implements Controller.
func (f ControlFunc) Control(ctx ControlContext) error {
	return f(ctx)
}

// ControlContext is what a Controller sees during one iteration.
type ControlContext interface {
	// Context is canceled when the loop stops.
	Context() context.Context
	// Time is when the iteration started, used to stamp samples.
	Time() time.Time
	// PriorityLevel is the level of the running Controller.
	PriorityLevel() int
	// Messages holds the samples and commands queued before the
	// iteration started, plus those added by higher levels.
	Messages() MessageStore

	LoopControl
}

// PriorityLevels is the number of priority levels, 0 runs first.
const PriorityLevels int = 16

// Priority levels of a sensor node iteration.
const (
	PrLvTop    int = 0
	PrLvHigh   int = 4
	PrLvNormal int = 8
	PrLvLow    int = 12
	PrLvIdle   int = PriorityLevels - 1

	// PrLvSense is where samples are taken in.
	PrLvSense = PrLvHigh
	// PrLvControl is where commands are served.
	PrLvControl = PrLvNormal
	// PrLvPostProc is for publishing state at the end of an iteration.
	PrLvPostProc = PrLvIdle - 1
)

// LoopControl lets runnables feed the loop from their own goroutines.
type LoopControl interface {
	// PostMessage queues a message for the next iteration.
	PostMessage(Message)
	// TriggerNext starts the next iteration without waiting for a tick.
	TriggerNext()
}

// MessageStore is the queue of one iteration.
type MessageStore interface {
	// ProcessMessages offers each queued message to the processor in
	// posting order.
	ProcessMessages(MessageProcessor)
	// AddMessages queues messages for lower priority levels of the same
	// iteration.
	AddMessages(msgs ...Message)
}

// MessageProcessor visits queued messages.
type MessageProcessor interface {
	ProcessMessage(MessageProcessingContext)
}

// ProcessMessageFunc adapts a func to MessageProcessor.
type ProcessMessageFunc func(MessageProcessingContext)

// ProcessMessage implements MessageProcessor.
func (f ProcessMessageFunc) ProcessMessage(mc MessageProcessingContext) {
	f(mc)
}

// MessageProcessingContext is the cursor of ProcessMessages.
type MessageProcessingContext interface {
	// CurrentMessage is the message being visited.
	CurrentMessage() Message
	// MessageTaken marks the message consumed so lower levels skip it.
	MessageTaken()
	// StopProcessing ends the visit early.
	StopProcessing()
}
