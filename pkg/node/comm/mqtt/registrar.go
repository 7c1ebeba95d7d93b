package mqtt

import (
	"context"
	"encoding/json"
	"time"

	fx "github.com/robotalks/thermo.go/pkg/framework"
	"github.com/robotalks/thermo.go/pkg/node"
	"github.com/robotalks/thermo.go/pkg/node/comm"
)

// Registrar implements node.Registrar using MQTT.
type Registrar struct {
	Queue *Queue
	Info  node.Info

	metaJSON  []byte
	registrar comm.Registrar
}

// NewRegistrar creates a Registrar. The retained meta topic is cleared
// by the broker (last will) if the node drops off.
func NewRegistrar(brokerURL string, info node.Info) (*Registrar, error) {
	meta, err := json.Marshal(&info.Meta)
	if err != nil {
		return nil, err
	}
	broker, err := ParseBrokerURL(brokerURL)
	if err != nil {
		return nil, err
	}
	broker.Options.SetBinaryWill(broker.TopicPrefix+metaTopic(info.Ref), nil, 1, true)
	if broker.Options.ClientID == "" {
		broker.Options.SetClientID("thermo:" + info.Ref.Name())
	}
	r := &Registrar{
		Queue:    broker.NewQueue(),
		Info:     info,
		metaJSON: meta,
	}
	r.Queue.OnConnect = func(*Queue) { r.onConnected() }
	r.registrar.Init(NewPacketReadWriter(r.Queue).ForNode(info.Ref))
	return r, nil
}

func metaTopic(ref node.Ref) string {
	return ref.Name() + "/meta"
}

// SendEvent implements node.Registrar.
func (r *Registrar) SendEvent(ctx context.Context, msg fx.Message) error {
	return r.registrar.SendEvent(ctx, msg)
}

// AddToLoop implements LoopAdder.
func (r *Registrar) AddToLoop(loop *fx.Loop) {
	loop.Add(&r.registrar)
	loop.AddRunnable(r)
}

// Run implements Runnable.
func (r *Registrar) Run(ctx context.Context) error {
	r.Queue.Connect()
	<-ctx.Done()
	r.Queue.PubWith(metaTopic(r.Info.Ref), nil, 1, true).WaitTimeout(time.Second)
	r.Queue.Close()
	return ctx.Err()
}

func (r *Registrar) onConnected() {
	r.Queue.PubWith(metaTopic(r.Info.Ref), r.metaJSON, 1, true)
}
