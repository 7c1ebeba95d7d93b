package thermal

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/tarm/serial"

	"github.com/robotalks/thermo.go/pkg/edge"
	"github.com/robotalks/thermo.go/pkg/edge/i2c"
)

// DialTimeout bounds connecting tcp edges.
var DialTimeout = 5 * time.Second

// DefaultBaud is the baud rate of serial edges without "baud".
const DefaultBaud = 9600

// OpenEdge opens an edge from URL:
//
//	i2c://BUS/ADDR         I²C device, BUS may be empty for the first bus
//	tcp://HOST:PORT        raw byte stream to a bus bridge
//	serial:///dev/TTY      serial port to a bus bridge, see SerialConfig
//	file:///dev/DEVICE     non-tty character device
//
// Query parameters: "combined=false" for i2c disables repeated start,
// "timeout=DURATION" for tcp and file sets the read deadline.
func OpenEdge(rawURL string) (edge.Edge, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid edge URL %q: %w", rawURL, err)
	}
	query := u.Query()
	switch u.Scheme {
	case "i2c":
		addr, err := i2c.ParseAddr(strings.Trim(u.Path, "/"))
		if err != nil {
			return nil, err
		}
		e, err := i2c.Open(u.Host, addr)
		if err != nil {
			return nil, err
		}
		if val := query.Get("combined"); val != "" {
			if e.Combined, err = strconv.ParseBool(val); err != nil {
				e.Close()
				return nil, fmt.Errorf("invalid combined %q: %w", val, err)
			}
		}
		return e, nil
	case "serial":
		conf, err := SerialConfig(u)
		if err != nil {
			return nil, err
		}
		port, err := serial.OpenPort(conf)
		if err != nil {
			return nil, err
		}
		return edge.NewStream(port), nil
	case "tcp", "file":
		timeout, err := parseTimeout(query.Get("timeout"))
		if err != nil {
			return nil, err
		}
		var s *edge.Stream
		if u.Scheme == "tcp" {
			conn, err := net.DialTimeout("tcp", u.Host, DialTimeout)
			if err != nil {
				return nil, err
			}
			s = edge.NewStream(conn)
		} else {
			f, err := os.OpenFile(u.Path, os.O_RDWR, 0)
			if err != nil {
				return nil, err
			}
			s = edge.NewStream(f)
		}
		s.Timeout = timeout
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported edge scheme %q", u.Scheme)
	}
}

// SerialConfig builds the port config from a serial edge URL. Query
// parameters: "baud" (default DefaultBaud), "size" data bits (default 8),
// "parity" one of N, O, E, M, S (default N), "stop" one of 1, 1.5, 2
// (default 1) and "timeout" for reads. A read timing out returns the bytes
// received so far.
func SerialConfig(u *url.URL) (*serial.Config, error) {
	if u.Path == "" {
		return nil, fmt.Errorf("missing serial device in %q", u.String())
	}
	query := u.Query()
	conf := &serial.Config{
		Name:     u.Path,
		Baud:     DefaultBaud,
		Size:     serial.DefaultSize,
		Parity:   serial.ParityNone,
		StopBits: serial.Stop1,
	}
	if val := query.Get("baud"); val != "" {
		baud, err := strconv.Atoi(val)
		if err != nil || baud <= 0 {
			return nil, fmt.Errorf("invalid baud %q", val)
		}
		conf.Baud = baud
	}
	if val := query.Get("size"); val != "" {
		size, err := strconv.Atoi(val)
		if err != nil || size < 5 || size > 8 {
			return nil, fmt.Errorf("invalid size %q", val)
		}
		conf.Size = byte(size)
	}
	if val := query.Get("parity"); val != "" {
		switch p := serial.Parity(strings.ToUpper(val)[0]); p {
		case serial.ParityNone, serial.ParityOdd, serial.ParityEven, serial.ParityMark, serial.ParitySpace:
			if len(val) != 1 {
				return nil, fmt.Errorf("invalid parity %q", val)
			}
			conf.Parity = p
		default:
			return nil, fmt.Errorf("invalid parity %q", val)
		}
	}
	switch val := query.Get("stop"); val {
	case "", "1":
	case "1.5":
		conf.StopBits = serial.Stop1Half
	case "2":
		conf.StopBits = serial.Stop2
	default:
		return nil, fmt.Errorf("invalid stop bits %q", val)
	}
	timeout, err := parseTimeout(query.Get("timeout"))
	if err != nil {
		return nil, err
	}
	conf.ReadTimeout = timeout
	return conf, nil
}

func parseTimeout(val string) (time.Duration, error) {
	if val == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q: %w", val, err)
	}
	return d, nil
}
