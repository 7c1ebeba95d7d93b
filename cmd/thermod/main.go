package main

//go-build: CGO_ENABLED=0

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/thermo.go/pkg/framework"
	"github.com/robotalks/thermo.go/pkg/module"
	"github.com/robotalks/thermo.go/pkg/node/env/sensor"
	"github.com/robotalks/thermo.go/pkg/thermal"
	"github.com/robotalks/thermo.go/pkg/thermal/msgs"

	_ "github.com/robotalks/thermo.go/pkg/d6t"
)

var (
	once        bool
	printFrames bool
)

func init() {
	sensor.SetupFlags()
	thermal.SetupFlags()
	flag.BoolVar(&once, "once", once, "Read once, print the frame in JSON and exit.")
	flag.BoolVar(&printFrames, "print", printFrames, "Print every frame.")
}

func readOnce(conf *thermal.Config) error {
	inst, err := conf.LoadInstance()
	if err != nil {
		return err
	}
	defer inst.Close()
	vals, err := inst.Read()
	if err != nil {
		return err
	}
	out, err := json.Marshal(msgs.NewFrame(inst.Name, 1, time.Now(), vals))
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func main() {
	flag.Parse()
	defer glog.Flush()

	conf, err := thermal.Load()
	if err != nil {
		log.Fatalln(err)
	}
	if once {
		if err := readOnce(conf); err != nil {
			log.Fatalln(err)
		}
		return
	}

	envConf := sensor.NewConfig()
	envConf.Info.Meta.Module = conf.Module
	if envConf.Info.Meta.Description == "" {
		if meta, ok := module.Lookup(conf.Module); ok {
			envConf.Info.Meta.Description = meta.Description
		}
	}
	env := envConf.MustNewEnv()
	inst, err := conf.LoadInstance()
	if err != nil {
		log.Fatalln(err)
	}
	ctl := conf.NewController(env, inst)
	if printFrames {
		ctl.OnFrame = func(f *msgs.Frame) {
			fmt.Println(msgs.FormatFrame(f))
		}
	}
	glog.Infof("%s: module %s on %s every %v", envConf.Info.Ref.Name(), conf.Module, conf.Edge, conf.Interval)
	loop := fx.NewLoop().Add(env, ctl)
	if err := fx.NewRunner().HandleSignals().Go(loop).Wait(); err != nil {
		log.Fatalln(err)
	}
}
