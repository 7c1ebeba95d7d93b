package msgs

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/golang/protobuf/proto"

	fx "github.com/robotalks/thermo.go/pkg/framework"
)

// Type IDs are laid out as kind bit, group, reply bit and id.
const (
	TypeIDMaskKind  uint32 = 0x80000000
	TypeIDMaskGroup uint32 = 0x7fff0000
	TypeIDMaskID    uint32 = 0x0000ffff
	TypeIDMaskReply uint32 = 0x00008000
)

// Kinds of a type ID.
const (
	TypeIDKindCommand uint32 = 0x00000000
	TypeIDKindEvent   uint32 = 0x80000000
)

// Typed is a message in its wire envelope, e.g. a frame event on its way
// to a monitor.
type Typed struct {
	Envelope
}

// TypedMsgHandler receives messages decoded from a queue.
type TypedMsgHandler interface {
	HandleTypedMsg(context.Context, fx.Message, *Typed) error
}

// HandleTypedMsgFunc adapts a func to TypedMsgHandler.
type HandleTypedMsgFunc func(context.Context, fx.Message, *Typed) error

// HandleTypedMsg implements TypedMsgHandler.
func (f HandleTypedMsgFunc) HandleTypedMsg(ctx context.Context, msg fx.Message, typed *Typed) error {
	return f(ctx, msg, typed)
}

// ErrUnknownType is returned for envelopes whose type ID no package
// registered.
type ErrUnknownType struct {
	TypeID uint32
}

// Error implements error.
func (e *ErrUnknownType) Error() string {
	return fmt.Sprintf("unknown type: %x", e.TypeID)
}

var (
	// ErrNotSerializable is returned for loop-local messages such as
	// samples.
	ErrNotSerializable = errors.New("not serializable message")
	// ErrUnsupportedCommand is the reply to commands no controller takes.
	ErrUnsupportedCommand = errors.New("unsupported command")
)

// SerializableMessage is a message with a wire form.
type SerializableMessage interface {
	fx.Message
	TypeID() uint32
	Serializable() proto.Message
}

var (
	messageTypes = map[uint32]SerializableMessage{
		CommandOKTypeID:  (*CommandOK)(nil),
		CommandErrTypeID: (*CommandErr)(nil),
	}
	messageTypesLock sync.RWMutex
)

// RegisterTypes makes messages decodable by their type IDs. Message
// packages call it from init.
func RegisterTypes(types ...SerializableMessage) {
	messageTypesLock.Lock()
	defer messageTypesLock.Unlock()
	for _, t := range types {
		messageTypes[t.TypeID()] = t
	}
}

// TypedFrom wraps a message into its envelope.
func TypedFrom(msg fx.Message) (*Typed, error) {
	s, ok := msg.(SerializableMessage)
	if !ok {
		return nil, ErrNotSerializable
	}
	data, err := proto.Marshal(s.Serializable())
	if err != nil {
		return nil, err
	}
	return &Typed{Envelope: Envelope{TypeId: s.TypeID(), Message: data}}, nil
}

// Decode unwraps the registered message type from the envelope.
func (p Typed) Decode() (fx.Message, error) {
	messageTypesLock.RLock()
	msgType, ok := messageTypes[p.TypeId]
	messageTypesLock.RUnlock()
	if !ok {
		return nil, &ErrUnknownType{TypeID: p.TypeId}
	}
	msg := msgType.NewMessage()
	if err := proto.Unmarshal(p.Message, msg.(SerializableMessage).Serializable()); err != nil {
		return nil, err
	}
	return msg, nil
}

// Encode returns the envelope bytes published on a topic.
func (p Typed) Encode() ([]byte, error) {
	return proto.Marshal(&p.Envelope)
}

// Kind is TypeIDKindCommand or TypeIDKindEvent.
func (p Typed) Kind() uint32 {
	return p.TypeId & TypeIDMaskKind
}

// IsCommand tells whether a node should answer the message.
func (p Typed) IsCommand() bool {
	return p.Kind() == TypeIDKindCommand
}

// IsEvent tells whether the message was published by a node.
func (p Typed) IsEvent() bool {
	return p.Kind() == TypeIDKindEvent
}

// DecodeTyped parses an envelope received from a topic.
func DecodeTyped(data []byte) (*Typed, error) {
	var typed Typed
	if err := proto.Unmarshal(data, &typed.Envelope); err != nil {
		return nil, err
	}
	return &typed, nil
}
