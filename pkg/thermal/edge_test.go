package thermal

import (
	"io/ioutil"
	"net"
	"net/url"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tarm/serial"

	"github.com/robotalks/thermo.go/pkg/d6t"
	"github.com/robotalks/thermo.go/pkg/edge"
)

func TestOpenEdgeErrors(t *testing.T) {
	testCases := []struct {
		name string
		url  string
	}{
		{"unsupported scheme", "udp://127.0.0.1:1"},
		{"bad i2c address", "i2c://1/0x100"},
		{"missing i2c address", "i2c://1/"},
		{"bad timeout", "tcp://127.0.0.1:1?timeout=soon"},
		{"missing file", "file:///nonexistent/thermo-device"},
		{"bad serial baud", "serial:///dev/ttyUSB0?baud=fast"},
		{"missing serial device", "serial:///nonexistent/thermo-tty"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := OpenEdge(tc.url)
			require.Error(t, err)
		})
	}
}

func TestOpenEdgeTCP(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	want := d6t.Measurement{PTAT: 2950}
	for i := range want.PX {
		want.PX[i] = uint16(3000 + i)
	}
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		cmd := make([]byte, 1)
		if _, err := conn.Read(cmd); err != nil || cmd[0] != d6t.CmdMeasure {
			return
		}
		conn.Write(want.Encode())
	}()

	e, err := OpenEdge("tcp://" + ln.Addr().String() + "?timeout=2s")
	require.NoError(t, err)
	s, ok := e.(*edge.Stream)
	require.True(t, ok)
	require.Equal(t, 2*time.Second, s.Timeout)
	defer s.Close()

	res, err := d6t.NewReader(d6t.PolicyFail).Measure(e)
	require.NoError(t, err)
	require.True(t, res.Valid)
	require.Equal(t, want, res.Measurement)
}

func TestOpenEdgeFile(t *testing.T) {
	f, err := ioutil.TempFile("", "thermal-edge")
	require.NoError(t, err)
	f.Close()
	defer os.Remove(f.Name())

	e, err := OpenEdge("file://" + f.Name())
	require.NoError(t, err)
	require.NoError(t, e.Write([]byte{d6t.CmdMeasure}))
	require.NoError(t, e.(*edge.Stream).Close())

	data, err := ioutil.ReadFile(f.Name())
	require.NoError(t, err)
	require.Equal(t, []byte{d6t.CmdMeasure}, data)
}

func TestSerialConfig(t *testing.T) {
	testCases := []struct {
		name   string
		url    string
		expect serial.Config
	}{
		{
			name: "defaults",
			url:  "serial:///dev/ttyUSB0",
			expect: serial.Config{
				Name: "/dev/ttyUSB0", Baud: DefaultBaud, Size: 8,
				Parity: serial.ParityNone, StopBits: serial.Stop1,
			},
		},
		{
			name: "line settings",
			url:  "serial:///dev/ttyAMA0?baud=115200&size=7&parity=e&stop=2&timeout=200ms",
			expect: serial.Config{
				Name: "/dev/ttyAMA0", Baud: 115200, Size: 7,
				Parity: serial.ParityEven, StopBits: serial.Stop2,
				ReadTimeout: 200 * time.Millisecond,
			},
		},
		{
			name: "odd parity one and a half stop bits",
			url:  "serial:///dev/ttyS1?parity=O&stop=1.5",
			expect: serial.Config{
				Name: "/dev/ttyS1", Baud: DefaultBaud, Size: 8,
				Parity: serial.ParityOdd, StopBits: serial.Stop1Half,
			},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			u, err := url.Parse(tc.url)
			require.NoError(t, err)
			conf, err := SerialConfig(u)
			require.NoError(t, err)
			require.Equal(t, tc.expect, *conf)
		})
	}
}

func TestSerialConfigErrors(t *testing.T) {
	testCases := []struct {
		name string
		url  string
	}{
		{"missing device", "serial://"},
		{"bad baud", "serial:///dev/ttyUSB0?baud=fast"},
		{"zero baud", "serial:///dev/ttyUSB0?baud=0"},
		{"bad size", "serial:///dev/ttyUSB0?size=9"},
		{"bad parity", "serial:///dev/ttyUSB0?parity=X"},
		{"long parity", "serial:///dev/ttyUSB0?parity=none"},
		{"bad stop bits", "serial:///dev/ttyUSB0?stop=3"},
		{"bad timeout", "serial:///dev/ttyUSB0?timeout=soon"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			u, err := url.Parse(tc.url)
			require.NoError(t, err)
			_, err = SerialConfig(u)
			require.Error(t, err)
		})
	}
}
