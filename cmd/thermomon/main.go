package main

import (
	"flag"
	"log"
	"os"
	"reflect"
	"strings"

	"github.com/robotalks/thermo.go/pkg/node/comm/mqtt"
	"github.com/robotalks/thermo.go/pkg/node/msgs"
	thermalmsgs "github.com/robotalks/thermo.go/pkg/thermal/msgs"
)

var (
	mqttURL = "mqtt://localhost:1883/thermo/"
)

func init() {
	if val := os.Getenv("THERMO_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	q, err := mqtt.NewQueueFromURL(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}
	if token := q.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalln(token.Error())
	}

	q.Sub("#", mqtt.Handler(func(topic string, payload []byte) {
		if strings.HasSuffix(topic, "/meta") {
			log.Printf("%s: %s", topic, string(payload))
			return
		}
		typed, err := msgs.DecodeTyped(payload)
		if err != nil {
			log.Printf("%s: bad message: %v", topic, err)
			return
		}
		msg, err := typed.Decode()
		if err != nil {
			log.Printf("%s: decode error: (type_id=%x) %v", topic, typed.TypeId, err)
			return
		}
		switch m := msg.(type) {
		case *thermalmsgs.Frame:
			log.Printf("%s: %s", topic, thermalmsgs.FormatFrame(m))
		case *thermalmsgs.SensorStatus:
			log.Printf("%s: %s", topic, thermalmsgs.FormatStatus(m))
		default:
			log.Printf("%s: [%s] %s", topic,
				reflect.Indirect(reflect.ValueOf(msg)).Type().Name(),
				msg.(msgs.SerializableMessage).Serializable().String())
		}
	}))
	<-(chan struct{})(nil)
}
