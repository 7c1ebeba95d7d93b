package edge

import (
	"io"
	"os"
	"time"
)

// Stream implements Edge over an io.ReadWriter, e.g. a serial port or
// a TCP connection to a bus bridge.
type Stream struct {
	ReadWriter io.ReadWriter
	// Timeout bounds each Read when ReadWriter supports SetReadDeadline.
	// Zero means no deadline.
	Timeout time.Duration
}

type readDeadliner interface {
	SetReadDeadline(time.Time) error
}

// NewStream creates a Stream.
func NewStream(rw io.ReadWriter) *Stream {
	return &Stream{ReadWriter: rw}
}

// Write implements Edge.
func (s *Stream) Write(data []byte) error {
	_, err := s.ReadWriter.Write(data)
	return err
}

// Read implements Edge. It keeps reading until n bytes arrive. EOF and
// timeouts end the read early and are reported as a short read.
func (s *Stream) Read(n int) ([]byte, error) {
	if s.Timeout > 0 {
		if d, ok := s.ReadWriter.(readDeadliner); ok {
			if err := d.SetReadDeadline(time.Now().Add(s.Timeout)); err != nil {
				return nil, err
			}
		}
	}
	buf := make([]byte, n)
	var got int
	for got < n {
		cnt, err := s.ReadWriter.Read(buf[got:])
		got += cnt
		if err != nil {
			if err == io.EOF || os.IsTimeout(err) {
				break
			}
			return buf[:got], err
		}
		if cnt == 0 {
			break
		}
	}
	return buf[:got], nil
}

// Close implements io.Closer.
func (s *Stream) Close() error {
	if closer, ok := s.ReadWriter.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
