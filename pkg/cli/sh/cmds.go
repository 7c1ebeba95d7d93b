package sh

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/abiosoft/ishell"

	fx "github.com/robotalks/thermo.go/pkg/framework"
	"github.com/robotalks/thermo.go/pkg/node"
	"github.com/robotalks/thermo.go/pkg/node/msgs"
)

// Formatter renders a reply for display.
type Formatter func(fx.Message) string

var (
	formattersLock sync.RWMutex
	formatters     = make(map[reflect.Type]Formatter)
)

// SetFormatter registers the formatter for replies of the same type as sample.
func SetFormatter(sample fx.Message, fn Formatter) {
	formattersLock.Lock()
	formatters[reflect.TypeOf(sample)] = fn
	formattersLock.Unlock()
}

// FormatReply renders a reply with its registered formatter, or as
// "Type text".
func FormatReply(msg fx.Message) string {
	if _, ok := msg.(*msgs.CommandOK); ok {
		return "OK"
	}
	formattersLock.RLock()
	fn := formatters[reflect.TypeOf(msg)]
	formattersLock.RUnlock()
	if fn != nil {
		return fn(msg)
	}
	name := reflect.Indirect(reflect.ValueOf(msg)).Type().Name()
	if sm, ok := msg.(msgs.SerializableMessage); ok {
		return name + " " + sm.Serializable().String()
	}
	return name
}

// FormatInfo renders node.Info on one line.
func FormatInfo(info node.Info) string {
	var sb strings.Builder
	sb.WriteString(info.Ref.Name())
	if info.Meta.Module != "" {
		fmt.Fprintf(&sb, " [%s]", info.Meta.Module)
	}
	if info.Meta.Description != "" {
		sb.WriteString(": " + info.Meta.Description)
	}
	return sb.String()
}

// MustBeConnected wraps command func requires a connection.
func MustBeConnected(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).Session == nil {
			c.Err(ErrNotConnected)
			return
		}
		fn(c)
	}
}

// DoCommand runs a command and prints the result.
func DoCommand(c *ishell.Context, msg fx.Message) error {
	s := ShellFrom(c)
	reply, err := s.Do(msg)
	if err == nil {
		var out string
		if out, err = s.Render(reply); err == nil {
			c.Println(out)
			return nil
		}
	}
	c.Err(err)
	return err
}

func typeFilter(args []string) func(node.Info) bool {
	if len(args) == 0 {
		return nil
	}
	return func(info node.Info) bool {
		return info.Ref.Type == args[0]
	}
}

var (
	// DiscoverCmd lists nodes.
	DiscoverCmd = ishell.Cmd{
		Name:    "discover",
		Aliases: []string{"list", "l"},
		Help:    "[TYPE]",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			infoList, err := s.DiscoverNodes(typeFilter(c.Args))
			if err != nil {
				c.Err(err)
				return
			}
			if s.OutputJSON {
				if infoList == nil {
					infoList = []node.Info{}
				}
				out, err := json.Marshal(infoList)
				if err != nil {
					c.Err(err)
					return
				}
				c.Println(string(out))
				return
			}
			if len(infoList) == 0 {
				c.Println("No nodes found")
			}
			for _, info := range infoList {
				c.Println(FormatInfo(info))
			}
		},
	}

	// ConnectCmd connects a node, discovering it if ID is omitted.
	ConnectCmd = ishell.Cmd{
		Name:    "connect",
		Aliases: []string{"c"},
		Help:    "[TYPE [ID]]",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			var ref node.Ref
			if len(c.Args) >= 2 {
				ref = node.Ref{Type: c.Args[0], ID: c.Args[1]}
			} else {
				info, err := s.SelectNode(typeFilter(c.Args))
				if err != nil {
					c.Err(err)
					return
				}
				if info == nil {
					c.Err(fmt.Errorf("no node discovered"))
					return
				}
				ref = info.Ref
			}
			if err := s.Connect(ref); err != nil {
				c.Err(err)
			}
		},
	}

	// DisconnectCmd disconnects current node.
	DisconnectCmd = ishell.Cmd{
		Name:    "disconnect",
		Aliases: []string{"d"},
		Help:    "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Disconnect()
		},
	}
)
