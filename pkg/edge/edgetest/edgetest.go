// Package edgetest provides a scripted Edge for tests.
package edgetest

import (
	"errors"
	"sync"
)

// ErrNoResponse is returned by Read when the script is exhausted.
var ErrNoResponse = errors.New("no scripted response")

// Response is one scripted reply to Read.
type Response struct {
	Data []byte
	Err  error
}

// Edge records writes and replays scripted responses in order.
type Edge struct {
	WriteErr error
	// Overrun disables truncation of scripted payloads to the requested size.
	Overrun bool

	lock      sync.Mutex
	writes    [][]byte
	reads     []int
	responses []Response
	closed    bool
}

// New creates an Edge replying with the given payloads.
func New(payloads ...[]byte) *Edge {
	e := &Edge{}
	for _, p := range payloads {
		e.Reply(p)
	}
	return e
}

// Reply appends a scripted payload.
func (e *Edge) Reply(data []byte) *Edge {
	return e.ReplyWith(Response{Data: data})
}

// ReplyErr appends a scripted read failure.
func (e *Edge) ReplyErr(err error) *Edge {
	return e.ReplyWith(Response{Err: err})
}

// ReplyWith appends a scripted response.
func (e *Edge) ReplyWith(r Response) *Edge {
	e.lock.Lock()
	e.responses = append(e.responses, r)
	e.lock.Unlock()
	return e
}

// Write implements edge.Edge.
func (e *Edge) Write(data []byte) error {
	e.lock.Lock()
	defer e.lock.Unlock()
	if e.WriteErr != nil {
		return e.WriteErr
	}
	e.writes = append(e.writes, append([]byte(nil), data...))
	return nil
}

// Read implements edge.Edge. Scripted payloads longer than n are
// truncated to n unless Overrun is set.
func (e *Edge) Read(n int) ([]byte, error) {
	e.lock.Lock()
	defer e.lock.Unlock()
	e.reads = append(e.reads, n)
	if len(e.responses) == 0 {
		return nil, ErrNoResponse
	}
	r := e.responses[0]
	e.responses = e.responses[1:]
	if r.Err != nil {
		return nil, r.Err
	}
	data := r.Data
	if len(data) > n && !e.Overrun {
		data = data[:n]
	}
	return append([]byte(nil), data...), nil
}

// Close implements io.Closer.
func (e *Edge) Close() error {
	e.lock.Lock()
	e.closed = true
	e.lock.Unlock()
	return nil
}

// Writes returns all recorded writes.
func (e *Edge) Writes() [][]byte {
	e.lock.Lock()
	defer e.lock.Unlock()
	return append([][]byte(nil), e.writes...)
}

// Reads returns the requested sizes of all reads.
func (e *Edge) Reads() []int {
	e.lock.Lock()
	defer e.lock.Unlock()
	return append([]int(nil), e.reads...)
}

// Closed tells whether Close was called.
func (e *Edge) Closed() bool {
	e.lock.Lock()
	defer e.lock.Unlock()
	return e.closed
}
