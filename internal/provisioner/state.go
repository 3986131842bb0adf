package provisioner

// State is the provisioner's lifecycle mode. Exactly one value is live at
// any time; only the state machine writes it.
type State uint8

const (
	// StateInit is the pre-start state, left on the first tick.
	StateInit State = iota

	// StateLoadConfig reads stored credentials and picks the first real
	// mode. Visited once at startup.
	StateLoadConfig

	// StateConnecting runs one bounded join attempt per visit.
	StateConnecting

	// StateConnected monitors link health and services the minimal
	// connected-mode server.
	StateConnected

	// StateRetryWait spaces join attempts by the configured retry delay.
	StateRetryWait

	// StateProvisioning brings up the access point, DNS capture, and
	// portal server, then immediately hands over to ProvisioningActive.
	StateProvisioning

	// StateProvisioningActive services portal traffic until credentials
	// arrive or the inactivity timeout fires.
	StateProvisioningActive
)

// String returns the lowercase state name used in logs and the /status
// payload.
func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateLoadConfig:
		return "load_config"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateRetryWait:
		return "retry_wait"
	case StateProvisioning:
		return "provisioning"
	case StateProvisioningActive:
		return "provisioning_active"
	default:
		return "unknown"
	}
}
