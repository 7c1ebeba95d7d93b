// Package sh provides the interactive shell of thermocli.
package sh

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/abiosoft/ishell"

	fx "github.com/robotalks/thermo.go/pkg/framework"
	"github.com/robotalks/thermo.go/pkg/node"
	env "github.com/robotalks/thermo.go/pkg/node/env/connector"
	"github.com/robotalks/thermo.go/pkg/node/msgs"
)

// CommandTimeout bounds the wait for a command result.
var CommandTimeout = time.Second

// ErrNotConnected is returned by commands requiring a node connection.
var ErrNotConnected = errors.New("not connected")

const (
	shellKey          = "$shell"
	unconnectedPrompt = "[none] > "
)

var (
	evalOnly   bool
	outputJSON bool

	commands = []*ishell.Cmd{
		&DiscoverCmd,
		&ConnectCmd,
		&DisconnectCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// Session is a running loop serving one node connection.
type Session struct {
	Ref    node.Ref
	Conn   node.Conn
	Loop   *fx.Loop
	cancel context.CancelFunc
}

// Close stops the loop.
func (s *Session) Close() {
	s.cancel()
}

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	AutoConnect bool

	Shell     *ishell.Shell
	Config    *env.Config
	Connector node.Connector
	Session   *Session
}

// New creates a new shell.
func New(conf *env.Config) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,
		Shell:       ishell.New(),
		Config:      conf,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(unconnectedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// WithAutoConnect sets AutoConnect.
func (s *Shell) WithAutoConnect(en bool) *Shell {
	s.AutoConnect = en
	return s
}

func (s *Shell) connector() (node.Connector, error) {
	if s.Connector == nil {
		connector, err := s.Config.NewConnector()
		if err != nil {
			return nil, err
		}
		s.Connector = connector
	}
	return s.Connector, nil
}

// DiscoverNodes lists nodes accepted by filter, all when filter is nil.
func (s *Shell) DiscoverNodes(filter func(node.Info) bool) ([]node.Info, error) {
	connector, err := s.connector()
	if err != nil {
		return nil, err
	}
	infoList, err := connector.Discover(context.TODO())
	if err != nil || filter == nil {
		return infoList, err
	}
	selected := make([]node.Info, 0, len(infoList))
	for _, info := range infoList {
		if filter(info) {
			selected = append(selected, info)
		}
	}
	return selected, nil
}

// SelectNode discovers nodes and asks for a choice when more than one is
// found. It returns nil if none is found.
func (s *Shell) SelectNode(filter func(node.Info) bool) (*node.Info, error) {
	infoList, err := s.DiscoverNodes(filter)
	if err != nil || len(infoList) == 0 {
		return nil, err
	}
	if len(infoList) == 1 {
		return &infoList[0], nil
	}
	if !s.Interactive {
		return nil, fmt.Errorf("%d nodes discovered in non-interactive mode", len(infoList))
	}
	items := make([]string, len(infoList))
	for n, info := range infoList {
		items[n] = FormatInfo(info)
	}
	return &infoList[s.Shell.MultiChoice(items, "Which one to connect?")], nil
}

// Connect connects the node and replaces the current session.
func (s *Shell) Connect(ref node.Ref) error {
	connector, err := s.connector()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(context.Background())
	conn, err := connector.Connect(ctx, ref)
	if err != nil {
		cancel()
		return err
	}
	session := &Session{Ref: ref, Conn: conn, Loop: fx.NewLoop(), cancel: cancel}
	if adder, ok := conn.(fx.LoopAdder); ok {
		session.Loop.Add(adder)
	}
	s.Disconnect()
	s.Session = session
	go session.Loop.Run(ctx)
	s.setPrompt(ref.Name() + " > ")
	return nil
}

func (s *Shell) setPrompt(prompt string) {
	if s.Shell != nil {
		s.Shell.SetPrompt(prompt)
	}
}

// Disconnect closes the current session.
func (s *Shell) Disconnect() {
	if s.Session != nil {
		s.Session.Close()
		s.Session = nil
		s.setPrompt(unconnectedPrompt)
	}
}

// Do sends a command on the current session and waits for the result.
// CommandErr replies are returned as errors.
func (s *Shell) Do(msg fx.Message) (fx.Message, error) {
	if s.Session == nil {
		return nil, ErrNotConnected
	}
	select {
	case res := <-s.Session.Conn.DoCommand(msg).ResultChan():
		return res.Msg, res.Err
	case <-time.After(CommandTimeout):
		return nil, fmt.Errorf("command timeout: %w", context.DeadlineExceeded)
	}
}

// Render formats a reply as JSON or text according to OutputJSON.
func (s *Shell) Render(msg fx.Message) (string, error) {
	if !s.OutputJSON {
		return FormatReply(msg), nil
	}
	var v interface{} = msg
	if sm, ok := msg.(msgs.SerializableMessage); ok {
		v = sm.Serializable()
	}
	out, err := json.Marshal(v)
	return string(out), err
}

// Run connects the configured node if AutoConnect, then processes args as
// one command, or runs the interactive shell.
func (s *Shell) Run(args ...string) {
	if s.AutoConnect && s.Config.Ref.IsValid() {
		if s.Interactive {
			s.Shell.Printf("Connecting %s ...\n", s.Config.Ref.Name())
		}
		if err := s.Connect(s.Config.Ref); err != nil {
			log.Fatalf("connect %q failed: %v", s.Config.Ref.Name(), err)
		}
	}
	switch {
	case len(args) > 0:
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
	case s.Interactive:
		s.Shell.Run()
	default:
		log.Fatalln("command expected")
	}
}

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	New(env.NewConfig()).WithAutoConnect(true).Run(flag.Args()...)
}
