package d6t

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang/glog"

	"github.com/robotalks/thermo.go/pkg/edge"
	"github.com/robotalks/thermo.go/pkg/module"
)

// Policy decides what Measure does with a short response.
type Policy int

const (
	// PolicyStale returns the last good result marked Stale.
	PolicyStale Policy = iota
	// PolicyFail returns a ShortResponseError.
	PolicyFail
)

// ParsePolicy parses "stale" or "fail". Empty means PolicyStale.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(s) {
	case "", "stale":
		return PolicyStale, nil
	case "fail":
		return PolicyFail, nil
	}
	return PolicyStale, fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
}

// String implements fmt.Stringer.
func (p Policy) String() string {
	if p == PolicyFail {
		return "fail"
	}
	return "stale"
}

// Result is what Measure returns. The zero Result holds no measurement.
type Result struct {
	Measurement
	// Valid is set when Measurement holds decoded data.
	Valid bool
	// Stale is set when Measurement comes from an earlier call because
	// the latest response was short.
	Stale bool
}

// Values renders the result as module values: empty if not valid,
// otherwise exactly PTAT (one word) and PX (PixelCount words).
func (r Result) Values() module.Values {
	vals := make(module.Values)
	if !r.Valid {
		return vals
	}
	vals[KeyPTAT] = []int{int(r.PTAT)}
	px := make([]int, PixelCount)
	for i, w := range r.PX {
		px[i] = int(w)
	}
	vals[KeyPX] = px
	return vals
}

// Reader issues measure commands and keeps the last good result.
// It is not safe for concurrent use; callers sharing an edge must
// serialize Measure.
type Reader struct {
	Policy Policy

	last Result
}

// NewReader creates a Reader.
func NewReader(policy Policy) *Reader {
	return &Reader{Policy: policy}
}

// Measure writes CmdMeasure, reads the response and decodes it.
// Transport failures are returned as *edge.Error and leave the last
// result untouched, as does a short response.
func (r *Reader) Measure(e edge.Edge) (Result, error) {
	if err := e.Write([]byte{CmdMeasure}); err != nil {
		return Result{}, &edge.Error{Op: "write", Err: err}
	}
	raw, err := e.Read(ResponseSize)
	if err != nil {
		return Result{}, &edge.Error{Op: "read", Err: err}
	}
	m, err := Decode(raw)
	if err != nil {
		if r.Policy == PolicyFail || !errors.Is(err, ErrShortResponse) {
			return Result{}, err
		}
		glog.V(2).Infof("d6t: %v, keeping last result", err)
		res := r.last
		res.Stale = res.Valid
		return res, nil
	}
	r.last = Result{Measurement: m, Valid: true}
	return r.last, nil
}

// Last returns the last good result.
func (r *Reader) Last() Result {
	return r.last
}

// Reset drops the last good result.
func (r *Reader) Reset() {
	r.last = Result{}
}
