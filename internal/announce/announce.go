// Package announce advertises the provisioned device over mDNS while it
// is connected, so operators can reach it by name instead of address.
//
// The device registers as an "_http._tcp" service under the configured
// name, matching how the portal's connected-mode server is reached.
package announce

import (
	"fmt"

	"github.com/grandcat/zeroconf"

	"github.com/muurk/wifiprov/internal/logging"
	"github.com/muurk/wifiprov/internal/version"
	"go.uber.org/zap"
)

const (
	// ServiceType is the mDNS service type the device advertises as.
	ServiceType = "_http._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."
)

// Announcer is a running mDNS advertisement.
type Announcer struct {
	server *zeroconf.Server
}

// Start registers the service and begins answering mDNS queries.
// name becomes "<name>.local" on the network; port is the HTTP port the
// connected-mode server listens on.
func Start(name string, port int) (*Announcer, error) {
	txt := []string{"version=" + version.Version}

	server, err := zeroconf.Register(name, ServiceType, ServiceDomain, port, txt, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to register mDNS service: %w", err)
	}

	logging.Info("mDNS responder started",
		zap.String("name", name+".local"),
		zap.Int("port", port),
	)

	return &Announcer{server: server}, nil
}

// Shutdown withdraws the advertisement.
func (a *Announcer) Shutdown() {
	if a == nil || a.server == nil {
		return
	}
	a.server.Shutdown()
	a.server = nil
	logging.Debug("mDNS responder stopped")
}
