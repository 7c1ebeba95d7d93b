package main

import (
	"github.com/robotalks/thermo.go/pkg/cli/sh"
	env "github.com/robotalks/thermo.go/pkg/node/env/connector"

	_ "github.com/robotalks/thermo.go/pkg/cli/cmds/all"
)

//go-build: CGO_ENABLED=0

func init() {
	env.SetupFlags()
}

func main() {
	sh.Main()
}
