package provisioner

// Blink timings in milliseconds. Provisioning is a fast blink so the
// device is visibly waiting for the user; connecting and retry are a
// slow pulse.
const (
	fastBlinkOnMS  = 100
	fastBlinkOffMS = 100
	slowBlinkOnMS  = 100
	slowBlinkOffMS = 900
)

// updateIndicator drives the status LED from the current state. The
// phase is derived from the tick clock, so the pattern stays stable
// across ticks without extra bookkeeping.
func (p *Provisioner) updateIndicator(now uint32) {
	var on bool

	switch p.state {
	case StateConnected:
		on = true
	case StateConnecting, StateRetryWait:
		on = blinkPhase(now, slowBlinkOnMS, slowBlinkOffMS)
	case StateProvisioning, StateProvisioningActive:
		on = blinkPhase(now, fastBlinkOnMS, fastBlinkOffMS)
	default:
		on = false
	}

	if p.cfg.LEDActiveLow {
		on = !on
	}
	p.deps.LED.Set(on)
}

// blinkPhase reports whether the LED is in the lit part of its cycle.
func blinkPhase(now, onMS, offMS uint32) bool {
	return now%(onMS+offMS) < onMS
}
