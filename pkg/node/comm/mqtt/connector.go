package mqtt

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/thermo.go/pkg/node"
	"github.com/robotalks/thermo.go/pkg/node/comm"
)

// Connector implements node.Connector using MQTT.
type Connector struct {
	DiscoverTimeout time.Duration

	broker *Broker
}

// DefaultDiscoverTimeout defines the default timeout value of discovery.
const DefaultDiscoverTimeout = 500 * time.Millisecond

// NewConnector creates a Connector.
func NewConnector(brokerURL string) (*Connector, error) {
	broker, err := ParseBrokerURL(brokerURL)
	if err != nil {
		return nil, err
	}
	return &Connector{DiscoverTimeout: DefaultDiscoverTimeout, broker: broker}, nil
}

// ParseMetaTopic extracts the node info from a retained meta message.
// Empty payloads (cleared registrations) are rejected.
func ParseMetaTopic(topic string, payload []byte) (info node.Info, ok bool) {
	items := strings.Split(topic, "/")
	if len(items) != 3 || items[2] != "meta" || len(payload) == 0 {
		return
	}
	info.Ref = node.Ref{Type: items[0], ID: items[1]}
	if err := json.Unmarshal(payload, &info.Meta); err != nil {
		glog.Warningf("bad meta on %q: %v", topic, err)
	}
	return info, true
}

// Discover implements node.Connector.
func (c *Connector) Discover(ctx context.Context) (res []node.Info, err error) {
	q := c.broker.NewQueue()
	token := q.Connect()
	token.Wait()
	if err = token.Error(); err != nil {
		return
	}
	defer q.Close()
	resCh := make(chan node.Info, 1)
	sub := q.Sub("+/+/meta", Handler(func(topic string, payload []byte) {
		if info, ok := ParseMetaTopic(topic, payload); ok {
			select {
			case resCh <- info:
			case <-time.After(time.Second):
			}
		}
	}))
	defer sub.Close()

	dur := c.DiscoverTimeout
	if dur == 0 {
		dur = DefaultDiscoverTimeout
	}
	timeout := time.After(dur)
	for {
		select {
		case info := <-resCh:
			res = append(res, info)
		case <-timeout:
			return
		case <-ctx.Done():
			err = ctx.Err()
			return
		}
	}
}

// Connect implements node.Connector.
func (c *Connector) Connect(ctx context.Context, ref node.Ref) (node.Conn, error) {
	conn := &NodeConn{
		Queue: c.broker.NewQueue(),
	}
	conn.Init(NewPacketReadWriter(conn.Queue).ForClient(ref))
	token := conn.Queue.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return nil, err
	}
	return conn, nil
}

// NodeConn implements node.Conn using MQTT.
type NodeConn struct {
	comm.NodeConn
	Queue *Queue
}
