package provisioner

// System is the restart capability. Triggered resets and post-save
// reboots are the only paths that call it.
type System interface {
	Restart()
}

// InputPin is a digital input line (the reset button).
type InputPin interface {
	// Read returns the electrical level: true for high.
	Read() bool
}

// OutputPin is a digital output line (the status LED).
type OutputPin interface {
	// Set drives the electrical level: true for high.
	Set(high bool)
}
