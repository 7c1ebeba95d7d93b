package msgs

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/thermo.go/pkg/module"
	"github.com/robotalks/thermo.go/pkg/node/msgs"
)

func TestFrameValues(t *testing.T) {
	vals := module.Values{
		"PX":   {1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16},
		"PTAT": {3000},
	}
	at := time.Unix(100, 5)
	f := NewFrame("d6t-44l", 3, at, vals)
	require.Len(t, f.Channels, 2)
	require.Equal(t, "PTAT", f.Channels[0].Name)
	require.Equal(t, "PX", f.Channels[1].Name)
	require.Equal(t, vals, f.Values())
	require.Equal(t, []int64{3000}, f.Channel("PTAT").Values)
	require.Nil(t, f.Channel("none"))
	require.True(t, at.Equal(f.Time()))
}

func TestFrameOverTyped(t *testing.T) {
	f := NewFrame("d6t-44l", 7, time.Unix(1, 0), module.Values{"PTAT": {0xffff}, "PX": make([]int, 16)})
	typed, err := msgs.TypedFrom(&MeasureReply{Frame: f})
	require.NoError(t, err)
	require.True(t, typed.IsCommand())
	data, err := typed.Encode()
	require.NoError(t, err)

	decoded, err := msgs.DecodeTyped(data)
	require.NoError(t, err)
	msg, err := decoded.Decode()
	require.NoError(t, err)
	reply, ok := msg.(*MeasureReply)
	require.True(t, ok)
	require.Equal(t, "d6t-44l", reply.Frame.Module)
	require.Equal(t, uint64(7), reply.Frame.Seq)
	require.Equal(t, []int{0xffff}, reply.Frame.Values()["PTAT"])
	require.Len(t, reply.Frame.Values()["PX"], 16)
}

func TestEventKinds(t *testing.T) {
	for _, m := range []msgs.SerializableMessage{&Frame{}, &SensorStatus{}} {
		typed, err := msgs.TypedFrom(m)
		require.NoError(t, err)
		require.True(t, typed.IsEvent())
	}
	for _, m := range []msgs.SerializableMessage{&MeasureQuery{}, &StatusQuery{}, &RegisterWrite{}} {
		typed, err := msgs.TypedFrom(m)
		require.NoError(t, err)
		require.True(t, typed.IsCommand())
		require.Zero(t, typed.TypeId&msgs.TypeIDMaskReply)
	}
}

func TestFormatFrame(t *testing.T) {
	px := make([]int, 16)
	for i := range px {
		px[i] = 3000 + i
	}
	f := NewFrame("d6t-44l", 2, time.Unix(0, 0).UTC(), module.Values{"PTAT": {2950}, "PX": px})
	lines := strings.Split(FormatFrame(f), "\n")
	require.Len(t, lines, 5)
	require.True(t, strings.HasPrefix(lines[0], "#2 d6t-44l "))
	require.True(t, strings.HasSuffix(lines[0], " PTAT=[2950]"))
	require.Equal(t, "   3000   3001   3002   3003", lines[1])
	require.Equal(t, "   3012   3013   3014   3015", lines[4])

	f.Stale = true
	lines = strings.Split(FormatFrame(f), "\n")
	require.True(t, strings.HasPrefix(lines[0], "#2 d6t-44l "))
	require.Contains(t, lines[0], " (stale)")

	f = NewFrame("x", 1, time.Unix(0, 0), module.Values{"PX": {1, 2, 3}})
	lines = strings.Split(FormatFrame(f), "\n")
	require.Len(t, lines, 2)
	require.Equal(t, "      1      2      3", lines[1])
}

func TestFormatStatus(t *testing.T) {
	s := &SensorStatus{Module: "d6t-44l", Edge: "i2c:///0x0a", IntervalMs: 1000, Frames: 3}
	require.Equal(t, "d6t-44l on i2c:///0x0a every 1000ms: frames=3 stale=0 errors=0", FormatStatus(s))
	s.Stale, s.Errors, s.LastError = 2, 1, "nack"
	require.Equal(t, "d6t-44l on i2c:///0x0a every 1000ms: frames=3 stale=2 errors=1 last-error=nack", FormatStatus(s))
}
