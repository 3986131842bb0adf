// Package radio defines the WiFi radio capability the provisioner drives
// and a scripted simulation used by tests and the wifiprov-sim binary.
//
// Real deployments supply their own implementation (OS network manager,
// vendor SDK shim, serial-attached modem). The core only ever calls
// through the Radio interface.
package radio

import "context"

// Network is one entry in a scan result.
type Network struct {
	SSID    string
	RSSI    int
	Secured bool
}

// Radio is the WiFi capability consumed by the provisioner.
type Radio interface {
	// Join attempts to associate with the named network. The attempt is
	// bounded by the context deadline; a nil error means the link is up.
	Join(ctx context.Context, ssid, password string) error

	// StartAccessPoint brings up a device-hosted network and returns the
	// address clients should be captured to. An empty password starts an
	// open network.
	StartAccessPoint(ssid, password string) (string, error)

	// StopAccessPoint tears the access point down.
	StopAccessPoint() error

	// Scan lists visible networks in driver order.
	Scan(ctx context.Context) ([]Network, error)

	// Disconnect drops the station link.
	Disconnect()

	// LinkUp reports whether the station link is currently connected.
	LinkUp() bool

	// IP returns the station address, or "" when not connected.
	IP() string

	// MACAddress returns the station MAC.
	MACAddress() [6]byte
}
