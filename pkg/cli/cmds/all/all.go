// Package all registers all shell commands.
package all

import (
	_ "github.com/robotalks/thermo.go/pkg/cli/cmds/sensor"
)
