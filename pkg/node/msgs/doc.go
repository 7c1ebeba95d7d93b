// Package msgs provides the typed message envelope used between sensor
// nodes and their clients, and the generic replies.
//
// Each message on the wire is a Typed envelope: a type ID, a sequence
// number matching replies to commands, and the protobuf-encoded message.
package msgs
