// Package msgs defines the messages of thermal sensor nodes.
package msgs

import (
	"sort"
	"time"

	"github.com/golang/protobuf/proto"

	fx "github.com/robotalks/thermo.go/pkg/framework"
	"github.com/robotalks/thermo.go/pkg/module"
	"github.com/robotalks/thermo.go/pkg/node/msgs"
)

// Channel is one named set of raw register values.
type Channel struct {
	Name   string  `protobuf:"bytes,1,opt,name=name,proto3" json:"name,omitempty"`
	Values []int64 `protobuf:"varint,2,rep,packed,name=values,proto3" json:"values,omitempty"`
}

// ProtoMessage implements proto.Message.
func (m *Channel) ProtoMessage() {}

// Reset implements proto.Message.
func (m *Channel) Reset() { *m = Channel{} }

// String implements proto.Message.
func (m *Channel) String() string { return proto.CompactTextString(m) }

// Frame is an event carrying one read of a module.
type Frame struct {
	Module    string     `protobuf:"bytes,1,opt,name=module,proto3" json:"module,omitempty"`
	Seq       uint64     `protobuf:"varint,2,opt,name=seq,proto3" json:"seq,omitempty"`
	Timestamp int64      `protobuf:"varint,3,opt,name=timestamp,proto3" json:"timestamp,omitempty"`
	Channels  []*Channel `protobuf:"bytes,4,rep,name=channels,proto3" json:"channels,omitempty"`
	// Stale marks values repeated from frame Seq.
	Stale bool `protobuf:"varint,5,opt,name=stale,proto3" json:"stale,omitempty"`
}

// NewFrame builds a Frame from module values. Channels are sorted by name.
func NewFrame(moduleName string, seq uint64, at time.Time, vals module.Values) *Frame {
	f := &Frame{Module: moduleName, Seq: seq, Timestamp: at.UnixNano()}
	names := make([]string, 0, len(vals))
	for name := range vals {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		ch := &Channel{Name: name, Values: make([]int64, len(vals[name]))}
		for i, v := range vals[name] {
			ch.Values[i] = int64(v)
		}
		f.Channels = append(f.Channels, ch)
	}
	return f
}

// Values converts the channels back to module values.
func (m *Frame) Values() module.Values {
	vals := make(module.Values, len(m.Channels))
	for _, ch := range m.Channels {
		v := make([]int, len(ch.Values))
		for i, val := range ch.Values {
			v[i] = int(val)
		}
		vals[ch.Name] = v
	}
	return vals
}

// Channel finds a channel by name.
func (m *Frame) Channel(name string) *Channel {
	for _, ch := range m.Channels {
		if ch.Name == name {
			return ch
		}
	}
	return nil
}

// Time returns the time of the read.
func (m *Frame) Time() time.Time {
	return time.Unix(0, m.Timestamp)
}

// NewMessage implements Message.
func (m *Frame) NewMessage() fx.Message { return &Frame{} }

// TypeID implements SerializableMessage.
func (m *Frame) TypeID() uint32 { return FrameEventTypeID }

// Serializable implements SerializableMessage.
func (m *Frame) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *Frame) ProtoMessage() {}

// Reset implements proto.Message.
func (m *Frame) Reset() { *m = Frame{} }

// String implements proto.Message.
func (m *Frame) String() string { return proto.CompactTextString(m) }

// SensorStatus is an event reporting the state of the node.
type SensorStatus struct {
	Module     string `protobuf:"bytes,1,opt,name=module,proto3" json:"module,omitempty"`
	Edge       string `protobuf:"bytes,2,opt,name=edge,proto3" json:"edge,omitempty"`
	IntervalMs int64  `protobuf:"varint,3,opt,name=interval_ms,proto3" json:"interval_ms,omitempty"`
	Frames     uint64 `protobuf:"varint,4,opt,name=frames,proto3" json:"frames,omitempty"`
	Errors     uint64 `protobuf:"varint,5,opt,name=errors,proto3" json:"errors,omitempty"`
	LastError  string `protobuf:"bytes,6,opt,name=last_error,proto3" json:"last_error,omitempty"`
	Stale      uint64 `protobuf:"varint,7,opt,name=stale,proto3" json:"stale,omitempty"`
}

// NewMessage implements Message.
func (m *SensorStatus) NewMessage() fx.Message { return &SensorStatus{} }

// TypeID implements SerializableMessage.
func (m *SensorStatus) TypeID() uint32 { return StatusEventTypeID }

// Serializable implements SerializableMessage.
func (m *SensorStatus) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *SensorStatus) ProtoMessage() {}

// Reset implements proto.Message.
func (m *SensorStatus) Reset() { *m = SensorStatus{} }

// String implements proto.Message.
func (m *SensorStatus) String() string { return proto.CompactTextString(m) }

// MeasureQuery asks the node for an immediate read.
type MeasureQuery struct {
}

// NewMessage implements Message.
func (m *MeasureQuery) NewMessage() fx.Message { return &MeasureQuery{} }

// TypeID implements SerializableMessage.
func (m *MeasureQuery) TypeID() uint32 { return MeasureQueryTypeID }

// Serializable implements SerializableMessage.
func (m *MeasureQuery) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *MeasureQuery) ProtoMessage() {}

// Reset implements proto.Message.
func (m *MeasureQuery) Reset() { *m = MeasureQuery{} }

// String implements proto.Message.
func (m *MeasureQuery) String() string { return proto.CompactTextString(m) }

// MeasureReply is the response for MeasureQuery.
type MeasureReply struct {
	Frame *Frame `protobuf:"bytes,1,opt,name=frame,proto3" json:"frame,omitempty"`
}

// NewMessage implements Message.
func (m *MeasureReply) NewMessage() fx.Message { return &MeasureReply{} }

// TypeID implements SerializableMessage.
func (m *MeasureReply) TypeID() uint32 { return MeasureReplyTypeID }

// Serializable implements SerializableMessage.
func (m *MeasureReply) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *MeasureReply) ProtoMessage() {}

// Reset implements proto.Message.
func (m *MeasureReply) Reset() { *m = MeasureReply{} }

// String implements proto.Message.
func (m *MeasureReply) String() string { return proto.CompactTextString(m) }

// StatusQuery queries the status.
type StatusQuery struct {
}

// NewMessage implements Message.
func (m *StatusQuery) NewMessage() fx.Message { return &StatusQuery{} }

// TypeID implements SerializableMessage.
func (m *StatusQuery) TypeID() uint32 { return StatusQueryTypeID }

// Serializable implements SerializableMessage.
func (m *StatusQuery) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *StatusQuery) ProtoMessage() {}

// Reset implements proto.Message.
func (m *StatusQuery) Reset() { *m = StatusQuery{} }

// String implements proto.Message.
func (m *StatusQuery) String() string { return proto.CompactTextString(m) }

// StatusReply is the response for StatusQuery.
type StatusReply struct {
	Status *SensorStatus `protobuf:"bytes,1,opt,name=status,proto3" json:"status,omitempty"`
}

// NewMessage implements Message.
func (m *StatusReply) NewMessage() fx.Message { return &StatusReply{} }

// TypeID implements SerializableMessage.
func (m *StatusReply) TypeID() uint32 { return StatusReplyTypeID }

// Serializable implements SerializableMessage.
func (m *StatusReply) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *StatusReply) ProtoMessage() {}

// Reset implements proto.Message.
func (m *StatusReply) Reset() { *m = StatusReply{} }

// String implements proto.Message.
func (m *StatusReply) String() string { return proto.CompactTextString(m) }

// RegisterWrite passes data to the module Write hook.
type RegisterWrite struct {
	Data []byte `protobuf:"bytes,1,opt,name=data,proto3" json:"data,omitempty"`
}

// NewMessage implements Message.
func (m *RegisterWrite) NewMessage() fx.Message { return &RegisterWrite{} }

// TypeID implements SerializableMessage.
func (m *RegisterWrite) TypeID() uint32 { return RegisterWriteTypeID }

// Serializable implements SerializableMessage.
func (m *RegisterWrite) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *RegisterWrite) ProtoMessage() {}

// Reset implements proto.Message.
func (m *RegisterWrite) Reset() { *m = RegisterWrite{} }

// String implements proto.Message.
func (m *RegisterWrite) String() string { return proto.CompactTextString(m) }

// GroupThermal is the message group of thermal nodes.
const GroupThermal = msgs.GroupSensor

// TypeIDs
const (
	FrameEventTypeID    uint32 = GroupThermal | msgs.TypeIDKindEvent | 0x0000
	StatusEventTypeID   uint32 = GroupThermal | msgs.TypeIDKindEvent | 0x0001
	MeasureQueryTypeID  uint32 = GroupThermal | 0x0000
	MeasureReplyTypeID  uint32 = GroupThermal | msgs.TypeIDMaskReply | 0x0000
	StatusQueryTypeID   uint32 = GroupThermal | 0x0001
	StatusReplyTypeID   uint32 = GroupThermal | msgs.TypeIDMaskReply | 0x0001
	RegisterWriteTypeID uint32 = GroupThermal | 0x0002
)

func init() {
	msgs.RegisterTypes(
		(*Frame)(nil),
		(*SensorStatus)(nil),
		(*MeasureQuery)(nil),
		(*MeasureReply)(nil),
		(*StatusQuery)(nil),
		(*StatusReply)(nil),
		(*RegisterWrite)(nil),
	)
}
