// Package env provides environment helpers shared by nodes and clients.
package env

import (
	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"
)

// MachineID retrieves a stable ID for this machine, scoped to the app so
// the raw machine ID is not exposed.
func MachineID() string {
	id, err := machineid.ProtectedID("thermo")
	if err != nil {
		glog.Warningf("machine id unavailable: %v", err)
		return ""
	}
	return id[:16]
}
