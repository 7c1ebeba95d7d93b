// Package node defines how sensor nodes register themselves and how
// clients reach them.
package node

import (
	"context"

	fx "github.com/robotalks/thermo.go/pkg/framework"
)

// Registrar publishes a node to a registry.
type Registrar interface {
	// SendEvent sends an event to subscribers of the node.
	SendEvent(context.Context, fx.Message) error
}

// Command represents a received command to be processed.
type Command interface {
	Msg() fx.Message
	Done(fx.Message) error
}

// CommandMsg wraps a Command as a loop Message.
type CommandMsg struct {
	Command Command
}

// NewMessage implements Message.
func (m *CommandMsg) NewMessage() fx.Message { return &CommandMsg{} }

// Ref identifies a node.
type Ref struct {
	// Type is the node type, e.g. "thermal".
	Type string
	// ID is unique ID of the node, the machine ID by default.
	ID string
}

// Name retrieves the name from ref.
func (r Ref) Name() string {
	return r.Type + "/" + r.ID
}

// IsValid indicates Ref is valid.
func (r Ref) IsValid() bool {
	return r.Type != "" && r.ID != ""
}

// Meta is published by a node on registration.
type Meta struct {
	Description string            `json:"description,omitempty"`
	Module      string            `json:"module,omitempty"`
	Labels      map[string]string `json:"labels,omitempty"`
}

// Info combines Ref and Meta.
type Info struct {
	Ref  Ref
	Meta Meta
}

// Connector is used by clients to reach nodes.
type Connector interface {
	// Discover enumerates registered nodes.
	Discover(context.Context) ([]Info, error)
	// Connect connects to the specified node.
	Connect(context.Context, Ref) (Conn, error)
}

// Conn is a client connection to a node.
type Conn interface {
	// DoCommand sends a command.
	DoCommand(fx.Message) CommandFuture
}

// Result represents result of a command.
type Result struct {
	Msg fx.Message
	Err error
}

// CommandFuture is the future of sent command.
type CommandFuture interface {
	ResultChan() <-chan Result
}
