package msgs

import (
	"bytes"
	"fmt"
	"math"
	"time"
)

// Channel names rendered specially by FormatFrame.
const (
	ChannelPTAT = "PTAT"
	ChannelPX   = "PX"
)

// FormatFrame renders a frame for terminals: a header line with scalar
// channels, then the PX channel as a square grid when it has a square
// number of values.
func FormatFrame(f *Frame) string {
	var w bytes.Buffer
	fmt.Fprintf(&w, "#%d %s %s", f.Seq, f.Module, f.Time().Format(time.RFC3339Nano))
	if f.Stale {
		w.WriteString(" (stale)")
	}
	for _, ch := range f.Channels {
		if ch.Name == ChannelPX {
			continue
		}
		fmt.Fprintf(&w, " %s=%v", ch.Name, ch.Values)
	}
	if px := f.Channel(ChannelPX); px != nil {
		cols := len(px.Values)
		if side := int(math.Sqrt(float64(cols))); side*side == cols {
			cols = side
		}
		for n, val := range px.Values {
			if n%cols == 0 {
				w.WriteString("\n")
			}
			fmt.Fprintf(&w, " %6d", val)
		}
	}
	return w.String()
}

// FormatStatus renders a status on one line.
func FormatStatus(s *SensorStatus) string {
	out := fmt.Sprintf("%s on %s every %dms: frames=%d stale=%d errors=%d",
		s.Module, s.Edge, s.IntervalMs, s.Frames, s.Stale, s.Errors)
	if s.LastError != "" {
		out += " last-error=" + s.LastError
	}
	return out
}
