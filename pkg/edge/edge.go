// Package edge defines the byte-oriented transport to a sensor device.
package edge

import "fmt"

// Edge is the ordered byte channel to a device (e.g. a bus handle).
// Write sends all bytes; Read returns up to n bytes and may return fewer
// without an error.
type Edge interface {
	Write(data []byte) error
	Read(n int) ([]byte, error)
}

// WriteFunc is func form of Edge.Write.
type WriteFunc func([]byte) error

// ReadFunc is func form of Edge.Read.
type ReadFunc func(int) ([]byte, error)

// Funcs builds an Edge from a pair of funcs.
type Funcs struct {
	WriteFn WriteFunc
	ReadFn  ReadFunc
}

// Write implements Edge.
func (f *Funcs) Write(data []byte) error {
	if f.WriteFn == nil {
		return nil
	}
	return f.WriteFn(data)
}

// Read implements Edge.
func (f *Funcs) Read(n int) ([]byte, error) {
	if f.ReadFn == nil {
		return nil, nil
	}
	return f.ReadFn(n)
}

// Error wraps a failure of the underlying transport.
type Error struct {
	Op  string
	Err error
}

// Error implements error.
func (e *Error) Error() string {
	return fmt.Sprintf("edge %s: %v", e.Op, e.Err)
}

// Unwrap returns the transport error.
func (e *Error) Unwrap() error {
	return e.Err
}
