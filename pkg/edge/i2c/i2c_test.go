package i2c

import (
	"testing"

	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/i2c/i2ctest"
)

func TestCombinedTransaction(t *testing.T) {
	resp := make([]byte, 35)
	resp[0], resp[1] = 0x34, 0x12
	bus := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: 0x0a, W: []byte{0x4c}, R: resp},
		},
	}
	e := New(bus, 0x0a)
	require.NoError(t, e.Write([]byte{0x4c}))
	data, err := e.Read(35)
	require.NoError(t, err)
	require.Equal(t, resp, data)
	require.NoError(t, bus.Close())
}

func TestSeparateTransactions(t *testing.T) {
	resp := []byte{1, 2, 3}
	bus := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: 0x0a, W: []byte{0x4c}},
			{Addr: 0x0a, R: resp},
		},
	}
	e := New(bus, 0x0a)
	e.Combined = false
	require.NoError(t, e.Write([]byte{0x4c}))
	data, err := e.Read(3)
	require.NoError(t, err)
	require.Equal(t, resp, data)
	require.NoError(t, bus.Close())
}

func TestParseAddr(t *testing.T) {
	testCases := []struct {
		in     string
		expect uint16
		err    bool
	}{
		{"0x0a", 0x0a, false},
		{"10", 10, false},
		{" 0x7f ", 0x7f, false},
		{"0x80", 0, true},
		{"bad", 0, true},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			addr, err := ParseAddr(tc.in)
			if tc.err {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.expect, addr)
		})
	}
}
