// Package sensor exposes thermal sensor node commands in the shell.
package sensor

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/thermo.go/pkg/cli/sh"
	fx "github.com/robotalks/thermo.go/pkg/framework"
	"github.com/robotalks/thermo.go/pkg/thermal/msgs"
)

var (
	// MeasureCmd exposes MeasureQuery command.
	MeasureCmd = ishell.Cmd{
		Name:    "sensor.measure",
		Aliases: []string{"m"},
		Help:    "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			sh.DoCommand(c, &msgs.MeasureQuery{})
		}),
	}

	// StatusCmd exposes StatusQuery command.
	StatusCmd = ishell.Cmd{
		Name:    "sensor.status",
		Aliases: []string{"st"},
		Help:    "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			sh.DoCommand(c, &msgs.StatusQuery{})
		}),
	}

	// WriteCmd exposes RegisterWrite command.
	WriteCmd = ishell.Cmd{
		Name:    "sensor.write",
		Aliases: []string{"w"},
		Help:    "HEX...",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("HEX required"))
				return
			}
			data, err := ParseHex(c.Args...)
			if err != nil {
				c.Err(err)
				return
			}
			sh.DoCommand(c, &msgs.RegisterWrite{Data: data})
		}),
	}
)

// ParseHex parses bytes in hex, e.g. "4c", "0x4c" or "4c0102".
func ParseHex(args ...string) ([]byte, error) {
	var data []byte
	for _, arg := range args {
		s := strings.TrimPrefix(strings.ToLower(arg), "0x")
		if len(s)%2 != 0 {
			s = "0" + s
		}
		b, err := hex.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("invalid HEX %q: %w", arg, err)
		}
		data = append(data, b...)
	}
	return data, nil
}

func init() {
	sh.AddCmds(
		&MeasureCmd,
		&StatusCmd,
		&WriteCmd,
	)
	sh.SetFormatter(&msgs.MeasureReply{}, func(msg fx.Message) string {
		reply := msg.(*msgs.MeasureReply)
		if reply.Frame == nil {
			return "no frame"
		}
		return msgs.FormatFrame(reply.Frame)
	})
	sh.SetFormatter(&msgs.StatusReply{}, func(msg fx.Message) string {
		reply := msg.(*msgs.StatusReply)
		if reply.Status == nil {
			return "no status"
		}
		return msgs.FormatStatus(reply.Status)
	})
}
