// Package provisioner implements the WiFi provisioning state machine for
// headless devices.
//
// The provisioner is a single cooperative task: the host application
// calls Begin once, then Tick repeatedly from its main loop. Each tick
// runs the reset-trigger checks, updates the status indicator, and
// advances the state machine by exactly one step. Nothing blocks beyond
// the bounded per-attempt join, so the host loop stays responsive.
//
// Lifecycle:
//
//	Init -> LoadConfig -> Connecting -> Connected
//	                   \-> Provisioning -> ProvisioningActive
//
// with Connecting <-> RetryWait on join failure, Connected -> Connecting
// on link loss, and ProvisioningActive -> Connecting when the portal
// times out while stored credentials exist.
//
// Radio, persistence, restart, and GPIO access are capabilities supplied
// through Deps; the package never talks to hardware directly. Host
// integration points are the Hooks callbacks and caller-registered
// routes, both of which close over whatever context the host needs.
//
// Three independent reset triggers are reachable from every state: the
// hardware button, the authenticated POST /reset endpoint, and
// double-reboot detection at startup. Each erases all stored state and
// restarts the device.
package provisioner
