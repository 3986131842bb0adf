package provisioner

import (
	"errors"
	"time"
)

// Default configuration values, matching the firmware the provisioner
// replaces.
const (
	DefaultAPName             = "wifiprov"
	DefaultAPPassword         = "" // open network
	DefaultMaxRetries         = 10
	DefaultRetryDelay         = 3 * time.Second
	DefaultAPTimeout          = 5 * time.Minute
	DefaultJoinTimeout        = 10 * time.Second
	DefaultResetButtonHold    = 5 * time.Second
	DefaultDoubleRebootWindow = 10 * time.Second
	DefaultHTTPAddr           = ":80"
	DefaultDNSAddr            = ":53"
	DefaultMDNSPort           = 80
)

// Config is the immutable tunable set consumed by the state machine at
// construction. Durations are stored as millisecond counters because all
// runtime comparisons run against the 32-bit tick clock.
type Config struct {
	APName      string
	APPassword  string
	APTimeoutMS uint32 // 0 disables the provisioning timeout

	MaxRetries           int
	RetryDelayMS         uint32
	AutoWipeOnMaxRetries bool
	JoinTimeout          time.Duration

	HardwareResetEnabled bool
	ResetButtonHoldMS    uint32
	ResetButtonActiveLow bool

	HTTPResetEnabled      bool
	HTTPResetAuthRequired bool

	LEDEnabled   bool
	LEDActiveLow bool

	MDNSEnabled bool
	MDNSName    string
	MDNSPort    int

	DoubleRebootEnabled  bool
	DoubleRebootWindowMS uint32

	LogLevel string

	HTTPAddr string
	DNSAddr  string
}

// Builder assembles a Config. Setters return the builder for chaining;
// Build validates and produces the finished read-only value. Unlike the
// firmware's fluent API, nothing here mutates a live provisioner, so
// configuration after start is impossible by construction.
type Builder struct {
	cfg Config
}

// NewBuilder starts a builder populated with the defaults above.
func NewBuilder() *Builder {
	return &Builder{cfg: Config{
		APName:               DefaultAPName,
		APPassword:           DefaultAPPassword,
		APTimeoutMS:          uint32(DefaultAPTimeout.Milliseconds()),
		MaxRetries:           DefaultMaxRetries,
		RetryDelayMS:         uint32(DefaultRetryDelay.Milliseconds()),
		AutoWipeOnMaxRetries: true,
		JoinTimeout:          DefaultJoinTimeout,
		ResetButtonHoldMS:    uint32(DefaultResetButtonHold.Milliseconds()),
		ResetButtonActiveLow: true,
		MDNSName:             DefaultAPName,
		MDNSPort:             DefaultMDNSPort,
		DoubleRebootWindowMS: uint32(DefaultDoubleRebootWindow.Milliseconds()),
		HTTPAddr:             DefaultHTTPAddr,
		DNSAddr:              DefaultDNSAddr,
	}}
}

// APName sets the access-point base name. The advertised SSID appends the
// last three MAC octets for uniqueness.
func (b *Builder) APName(name string) *Builder {
	b.cfg.APName = name
	return b
}

// APPassword protects the provisioning access point. Empty keeps it open.
func (b *Builder) APPassword(password string) *Builder {
	b.cfg.APPassword = password
	return b
}

// APTimeout sets the provisioning inactivity timeout. Zero disables it.
func (b *Builder) APTimeout(d time.Duration) *Builder {
	b.cfg.APTimeoutMS = uint32(d.Milliseconds())
	return b
}

// MaxRetries caps consecutive failed join attempts.
func (b *Builder) MaxRetries(n int) *Builder {
	b.cfg.MaxRetries = n
	return b
}

// RetryDelay spaces join attempts.
func (b *Builder) RetryDelay(d time.Duration) *Builder {
	b.cfg.RetryDelayMS = uint32(d.Milliseconds())
	return b
}

// AutoWipeOnMaxRetries erases credentials and reopens provisioning when
// the retry budget is exhausted. Disabled, the counter resets and retries
// continue forever.
func (b *Builder) AutoWipeOnMaxRetries(enable bool) *Builder {
	b.cfg.AutoWipeOnMaxRetries = enable
	return b
}

// JoinTimeout bounds each individual join attempt.
func (b *Builder) JoinTimeout(d time.Duration) *Builder {
	b.cfg.JoinTimeout = d
	return b
}

// EnableHardwareReset arms the reset button: held for hold, it factory
// resets the device. activeLow matches the button wiring.
func (b *Builder) EnableHardwareReset(hold time.Duration, activeLow bool) *Builder {
	b.cfg.HardwareResetEnabled = true
	b.cfg.ResetButtonHoldMS = uint32(hold.Milliseconds())
	b.cfg.ResetButtonActiveLow = activeLow
	return b
}

// EnableHTTPReset exposes POST /reset without authentication.
func (b *Builder) EnableHTTPReset() *Builder {
	b.cfg.HTTPResetEnabled = true
	b.cfg.HTTPResetAuthRequired = false
	return b
}

// EnableAuthenticatedHTTPReset exposes POST /reset guarded by the stored
// reset-password digest.
func (b *Builder) EnableAuthenticatedHTTPReset() *Builder {
	b.cfg.HTTPResetEnabled = true
	b.cfg.HTTPResetAuthRequired = true
	return b
}

// EnableLED drives the status indicator.
func (b *Builder) EnableLED(activeLow bool) *Builder {
	b.cfg.LEDEnabled = true
	b.cfg.LEDActiveLow = activeLow
	return b
}

// EnableMDNS advertises the device as <name>.local while connected.
func (b *Builder) EnableMDNS(name string) *Builder {
	b.cfg.MDNSEnabled = true
	b.cfg.MDNSName = name
	return b
}

// MDNSPort overrides the advertised HTTP port.
func (b *Builder) MDNSPort(port int) *Builder {
	b.cfg.MDNSPort = port
	return b
}

// EnableDoubleRebootDetect arms the two-restarts-within-window reset
// trigger.
func (b *Builder) EnableDoubleRebootDetect(window time.Duration) *Builder {
	b.cfg.DoubleRebootEnabled = true
	b.cfg.DoubleRebootWindowMS = uint32(window.Milliseconds())
	return b
}

// LogLevel sets logging verbosity ("debug", "info", "warn", "error").
// Empty defers to the WIFIPROV_LOG_LEVEL environment variable.
func (b *Builder) LogLevel(level string) *Builder {
	b.cfg.LogLevel = level
	return b
}

// HTTPAddr overrides the portal listen address (default ":80").
func (b *Builder) HTTPAddr(addr string) *Builder {
	b.cfg.HTTPAddr = addr
	return b
}

// DNSAddr overrides the capture DNS listen address (default ":53").
func (b *Builder) DNSAddr(addr string) *Builder {
	b.cfg.DNSAddr = addr
	return b
}

// Build validates the assembled configuration and returns it.
func (b *Builder) Build() (Config, error) {
	cfg := b.cfg

	if cfg.APName == "" {
		return Config{}, errors.New("ap name must not be empty")
	}
	if cfg.MaxRetries < 1 {
		return Config{}, errors.New("max retries must be at least 1")
	}
	if cfg.RetryDelayMS == 0 {
		return Config{}, errors.New("retry delay must be positive")
	}
	if cfg.JoinTimeout <= 0 {
		return Config{}, errors.New("join timeout must be positive")
	}
	if cfg.HardwareResetEnabled && cfg.ResetButtonHoldMS == 0 {
		return Config{}, errors.New("reset button hold duration must be positive")
	}
	if cfg.DoubleRebootEnabled && cfg.DoubleRebootWindowMS == 0 {
		return Config{}, errors.New("double-reboot window must be positive")
	}
	if cfg.MDNSEnabled && cfg.MDNSName == "" {
		return Config{}, errors.New("mdns name must not be empty")
	}

	return cfg, nil
}
