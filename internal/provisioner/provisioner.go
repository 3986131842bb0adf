package provisioner

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/muurk/wifiprov/internal/announce"
	"github.com/muurk/wifiprov/internal/clock"
	"github.com/muurk/wifiprov/internal/creds"
	"github.com/muurk/wifiprov/internal/dnsd"
	"github.com/muurk/wifiprov/internal/httpd"
	"github.com/muurk/wifiprov/internal/logging"
	"github.com/muurk/wifiprov/internal/portal"
	"github.com/muurk/wifiprov/internal/radio"
	"github.com/muurk/wifiprov/internal/store"
	"github.com/muurk/wifiprov/internal/version"
)

// resetRestartDelayMS is the pause between a triggered reset and the
// restart, long enough for the acting client to receive its response.
const resetRestartDelayMS = 500

// ErrEmptySSID rejects programmatic credentials with no network name.
var ErrEmptySSID = errors.New("provisioner: ssid must not be empty")

// Hooks are the host application's callbacks, invoked synchronously at
// the transition points they name. Nil hooks are skipped.
type Hooks struct {
	// OnConnected fires when a join attempt succeeds.
	OnConnected func()

	// OnFailed fires when the retry budget is exhausted.
	OnFailed func(retryCount int)

	// OnAPMode fires when the provisioning access point comes up.
	OnAPMode func(ssid, ip string)

	// OnReset fires before stored state is erased by any reset trigger.
	OnReset func()
}

// Deps are the capabilities the provisioner drives. Radio, Store, and
// System are required; Clock defaults to the process monotonic clock.
// ResetButton and LED are required only when the matching config feature
// is enabled.
type Deps struct {
	Clock       clock.Clock
	Radio       radio.Radio
	Store       store.Store
	System      System
	ResetButton InputPin
	LED         OutputPin
}

// Provisioner owns the device's connectivity lifecycle. All methods must
// be called from the host loop goroutine; the type is deliberately not
// goroutine-safe (single-writer model).
type Provisioner struct {
	cfg   Config
	deps  Deps
	hooks Hooks

	credStore *creds.Store
	portal    *portal.Portal

	state      State
	retryCount int

	lastRetryAt uint32
	apStartedAt uint32

	buttonPressed bool
	buttonPressAt uint32

	stored    creds.Credentials
	hasStored bool

	// resetDigest caches the stored reset-password digest while a server
	// that needs it is up.
	resetDigest string

	apSSID string
	apIP   string

	portalSrv *httpd.Server
	connSrv   *httpd.Server
	dnsSrv    *dnsd.Server
	announcer *announce.Announcer

	restartPending bool
	restartAt      uint32
	restartDelayMS uint32

	routes []Route
}

// New wires a provisioner from its configuration and capabilities. The
// configuration is consumed by value and never mutated afterwards.
func New(cfg Config, deps Deps, hooks Hooks) (*Provisioner, error) {
	if deps.Radio == nil {
		return nil, errors.New("provisioner: radio capability is required")
	}
	if deps.Store == nil {
		return nil, errors.New("provisioner: store capability is required")
	}
	if deps.System == nil {
		return nil, errors.New("provisioner: system capability is required")
	}
	if cfg.HardwareResetEnabled && deps.ResetButton == nil {
		return nil, errors.New("provisioner: hardware reset enabled but no reset button pin")
	}
	if cfg.LEDEnabled && deps.LED == nil {
		return nil, errors.New("provisioner: led enabled but no led pin")
	}
	if deps.Clock == nil {
		deps.Clock = clock.NewSystem()
	}

	p := &Provisioner{
		cfg:       cfg,
		deps:      deps,
		hooks:     hooks,
		credStore: creds.New(deps.Store),
		state:     StateInit,
	}
	p.portal = portal.New(portal.Config{
		ResetEnabled:      cfg.HTTPResetEnabled,
		ResetAuthRequired: cfg.HTTPResetAuthRequired,
	}, deps.Radio, p.credStore, p)

	return p, nil
}

// Begin runs the one-time startup work: logging, double-reboot
// detection, and the transition into LoadConfig. Call once before the
// first Tick.
func (p *Provisioner) Begin() error {
	if err := logging.Initialize(p.cfg.LogLevel); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}

	logging.Info("WiFi provisioner starting",
		zap.String("version", version.Version),
		zap.String("ap_name", p.cfg.APName),
	)

	if p.cfg.DoubleRebootEnabled {
		p.checkDoubleReboot()
	}

	p.setState(StateLoadConfig)
	return nil
}

// Tick advances the system by one step. Reset triggers run first so they
// are reachable from every state, then the indicator, then exactly one
// state-machine step.
func (p *Provisioner) Tick() {
	now := p.deps.Clock.Millis()

	if p.restartPending && clock.Elapsed(now, p.restartAt) >= p.restartDelayMS {
		p.restartPending = false
		logging.Info("Restarting device")
		logging.Sync()
		p.deps.System.Restart()
		return
	}

	if p.cfg.HardwareResetEnabled {
		p.checkResetButton(now)
	}

	if p.cfg.LEDEnabled {
		p.updateIndicator(now)
	}

	// Queued requests are serviced every tick so the reset endpoint stays
	// reachable even while the state machine is mid-retry.
	if p.portalSrv != nil {
		p.portalSrv.ServePending()
	}
	if p.connSrv != nil {
		p.connSrv.ServePending()
	}

	switch p.state {
	case StateInit:
		p.setState(StateLoadConfig)
	case StateLoadConfig:
		p.handleLoadConfig()
	case StateConnecting:
		p.handleConnecting(now)
	case StateConnected:
		p.handleConnected()
	case StateRetryWait:
		p.handleRetryWait(now)
	case StateProvisioning:
		p.handleProvisioning(now)
	case StateProvisioningActive:
		p.handleProvisioningActive(now)
	}
}

func (p *Provisioner) setState(s State) {
	if p.state == s {
		return
	}
	logging.LogStateTransition(p.state.String(), s.String())
	p.state = s
	p.portal.Events().Publish(s.String())
}

// ----- State handlers -----

func (p *Provisioner) handleLoadConfig() {
	c, ok := p.credStore.Load()
	if ok {
		logging.Info("Found stored credentials", zap.String("ssid", c.SSID))
		p.stored = c
		p.hasStored = true
		p.retryCount = 0
		p.setState(StateConnecting)
		return
	}

	logging.Info("No credentials found, entering provisioning mode")
	p.setState(StateProvisioning)
}

func (p *Provisioner) handleConnecting(now uint32) {
	logging.LogConnectionAttempt(p.stored.SSID, p.retryCount+1, p.cfg.MaxRetries)

	ctx, cancel := context.WithTimeout(context.Background(), p.cfg.JoinTimeout)
	err := p.deps.Radio.Join(ctx, p.stored.SSID, p.stored.Password)
	cancel()

	if err != nil {
		logging.Warn("Join attempt failed", zap.Error(err))
		p.lastRetryAt = now
		p.setState(StateRetryWait)
		return
	}

	logging.Info("Connected to WiFi",
		zap.String("ssid", p.stored.SSID),
		zap.String("ip", p.deps.Radio.IP()),
	)

	if p.cfg.MDNSEnabled {
		a, err := announce.Start(p.cfg.MDNSName, p.cfg.MDNSPort)
		if err != nil {
			logging.Warn("mDNS advertisement failed", zap.Error(err))
		} else {
			p.announcer = a
		}
	}

	p.startConnectedServer()
	p.setState(StateConnected)

	if p.hooks.OnConnected != nil {
		p.hooks.OnConnected()
	}
}

func (p *Provisioner) handleConnected() {
	if !p.deps.Radio.LinkUp() {
		logging.Error("WiFi connection lost")
		p.announcer.Shutdown()
		p.announcer = nil
		p.retryCount = 0
		p.setState(StateConnecting)
	}
}

func (p *Provisioner) handleRetryWait(now uint32) {
	if clock.Elapsed(now, p.lastRetryAt) < p.cfg.RetryDelayMS {
		return
	}

	p.retryCount++
	logging.Info("Retry",
		zap.Int("attempt", p.retryCount),
		zap.Int("max_retries", p.cfg.MaxRetries),
	)

	if p.retryCount >= p.cfg.MaxRetries {
		logging.Error("Max retries exceeded", zap.Int("retries", p.retryCount))

		if p.hooks.OnFailed != nil {
			p.hooks.OnFailed(p.retryCount)
		}

		if p.cfg.AutoWipeOnMaxRetries {
			logging.Info("Auto-wiping credentials")
			p.eraseStored()
			p.setState(StateProvisioning)
		} else {
			// Infinite retry policy: start the budget over.
			p.retryCount = 0
			p.setState(StateConnecting)
		}
		return
	}

	p.setState(StateConnecting)
}

func (p *Provisioner) handleProvisioning(now uint32) {
	p.startProvisioningMode(now)
	p.setState(StateProvisioningActive)
}

func (p *Provisioner) handleProvisioningActive(now uint32) {
	// The inactivity timeout only applies when there is something to go
	// back to; with no stored credentials the portal stays up forever.
	if p.cfg.APTimeoutMS > 0 && p.hasStored &&
		clock.Elapsed(now, p.apStartedAt) >= p.cfg.APTimeoutMS {
		logging.Info("Provisioning timeout reached, retrying stored network")
		p.stopProvisioningMode()
		p.retryCount = 0
		p.setState(StateConnecting)
	}
}

// ----- Provisioning mode -----

func (p *Provisioner) startProvisioningMode(now uint32) {
	logging.Info("Starting provisioning mode")

	p.deps.Radio.Disconnect()
	p.stopConnectedServer()

	mac := p.deps.Radio.MACAddress()
	p.apSSID = fmt.Sprintf("%s-%02X%02X%02X", p.cfg.APName, mac[3], mac[4], mac[5])

	ip, err := p.deps.Radio.StartAccessPoint(p.apSSID, p.cfg.APPassword)
	if err != nil {
		// Radio capability failure is never fatal; the portal simply has
		// no network until a later reset or restart clears the condition.
		logging.Error("Failed to start access point", zap.Error(err))
		return
	}
	p.apIP = ip

	if p.cfg.APPassword != "" {
		logging.Info("AP started", zap.String("ssid", p.apSSID), zap.String("ip", ip), zap.Bool("open", false))
	} else {
		logging.Info("AP started", zap.String("ssid", p.apSSID), zap.String("ip", ip), zap.Bool("open", true))
	}

	dnsSrv, err := dnsd.New(ip)
	if err == nil {
		err = dnsSrv.Start(p.cfg.DNSAddr)
	}
	if err != nil {
		logging.Error("Failed to start capture DNS", zap.Error(err))
	} else {
		p.dnsSrv = dnsSrv
	}

	if p.cfg.HTTPResetAuthRequired {
		p.resetDigest, _ = p.credStore.LoadResetSecret()
	}

	srv := httpd.New()
	p.portal.RegisterProvisioning(srv)
	p.registerCustomRoutes(srv, ScopeProvisioningOnly)
	if err := srv.Start(p.cfg.HTTPAddr); err != nil {
		logging.Error("Failed to start portal server", zap.Error(err))
	} else {
		p.portalSrv = srv
		logging.Info("Portal server started", zap.String("addr", srv.Addr()))
	}

	p.apStartedAt = now

	if p.hooks.OnAPMode != nil {
		p.hooks.OnAPMode(p.apSSID, ip)
	}
}

func (p *Provisioner) stopProvisioningMode() {
	logging.Info("Stopping provisioning mode")

	if p.dnsSrv != nil {
		_ = p.dnsSrv.Close()
		p.dnsSrv = nil
	}
	if p.portalSrv != nil {
		_ = p.portalSrv.Close()
		p.portalSrv = nil
	}
	_ = p.deps.Radio.StopAccessPoint()
	p.apIP = ""
	p.apSSID = ""
}

// ----- Connected-mode server -----

func (p *Provisioner) startConnectedServer() {
	// Only exposed when software reset is wanted; there is nothing else
	// on it worth a listener.
	if !p.cfg.HTTPResetEnabled {
		return
	}
	if p.connSrv != nil {
		return
	}

	if p.cfg.HTTPResetAuthRequired {
		p.resetDigest, _ = p.credStore.LoadResetSecret()
	}

	srv := httpd.New()
	p.portal.RegisterConnected(srv)
	p.registerCustomRoutes(srv, ScopeConnectedOnly)
	if err := srv.Start(p.cfg.HTTPAddr); err != nil {
		logging.Error("Failed to start connected-mode server", zap.Error(err))
		return
	}

	p.connSrv = srv
	logging.Info("Connected-mode server started", zap.String("addr", srv.Addr()))
}

func (p *Provisioner) stopConnectedServer() {
	if p.connSrv != nil {
		_ = p.connSrv.Close()
		p.connSrv = nil
	}
}

// ----- Reset triggers -----

// checkResetButton edge-detects the reset button and fires after the
// configured hold time.
func (p *Provisioner) checkResetButton(now uint32) {
	level := p.deps.ResetButton.Read()
	isPressed := level
	if p.cfg.ResetButtonActiveLow {
		isPressed = !level
	}

	switch {
	case isPressed && !p.buttonPressed:
		p.buttonPressed = true
		p.buttonPressAt = now
	case isPressed && p.buttonPressed:
		if clock.Elapsed(now, p.buttonPressAt) >= p.cfg.ResetButtonHoldMS {
			logging.Info("Reset button held", zap.Uint32("hold_ms", p.cfg.ResetButtonHoldMS))
			p.PerformReset("hardware_button")
		}
	case !isPressed && p.buttonPressed:
		// Released before the threshold.
		p.buttonPressed = false
	}
}

// checkDoubleReboot runs before the state machine starts: it bumps the
// persisted boot counter and erases credentials when two boots land
// inside the window.
//
// The recorded timestamp comes from a counter that restarts at zero each
// boot, not a real-time clock. A long previous uptime makes the elapsed
// value wrap large and read as outside the window, which fails safe.
func (p *Provisioner) checkDoubleReboot() {
	rec := p.credStore.LoadBootRecord()
	now := p.deps.Clock.Millis()

	count := rec.Count + 1
	if err := p.credStore.SaveBootRecord(creds.BootRecord{Count: count, LastMillis: now}); err != nil {
		logging.Warn("Failed to persist boot record", zap.Error(err))
		return
	}

	logging.Debug("Boot record",
		zap.Uint32("count", count),
		zap.Uint32("since_last_ms", clock.Elapsed(now, rec.LastMillis)),
	)

	if count >= 2 && clock.Elapsed(now, rec.LastMillis) < p.cfg.DoubleRebootWindowMS {
		logging.LogResetEvent("double_reboot")
		if p.hooks.OnReset != nil {
			p.hooks.OnReset()
		}
		p.eraseStored()
		if err := p.credStore.SaveBootRecord(creds.BootRecord{Count: 0, LastMillis: now}); err != nil {
			logging.Warn("Failed to reset boot counter", zap.Error(err))
		}
	}
}

// PerformReset fires the reset hook, erases all stored state, and
// schedules the restart. It is the terminal path shared by every
// trigger.
func (p *Provisioner) PerformReset(trigger string) {
	if p.restartPending {
		return
	}

	logging.LogResetEvent(trigger)

	if p.hooks.OnReset != nil {
		p.hooks.OnReset()
	}

	p.eraseStored()
	p.ScheduleRestart(resetRestartDelayMS, "reset: "+trigger)
}

// Reset triggers a programmatic factory reset.
func (p *Provisioner) Reset() {
	p.PerformReset("programmatic")
}

func (p *Provisioner) eraseStored() {
	if err := p.credStore.EraseAll(); err != nil {
		logging.Error("Failed to erase stored state", zap.Error(err))
	}
	p.stored = creds.Credentials{}
	p.hasStored = false
	p.resetDigest = ""
}

// ----- Manual control -----

// SetCredentials stores credentials programmatically, optionally
// restarting so the state machine picks them up from a clean boot.
func (p *Provisioner) SetCredentials(ssid, password string, restart bool) error {
	if ssid == "" {
		return ErrEmptySSID
	}
	if err := p.credStore.Save(creds.Credentials{SSID: ssid, Password: password}); err != nil {
		return err
	}
	p.stored = creds.Credentials{SSID: ssid, Password: password}
	p.hasStored = true
	logging.Info("Credentials saved", zap.String("ssid", ssid))

	if restart {
		p.ScheduleRestart(resetRestartDelayMS, "credentials set")
	}
	return nil
}

// ClearCredentials erases stored state, optionally restarting into
// provisioning mode.
func (p *Provisioner) ClearCredentials(restart bool) error {
	if err := p.credStore.EraseAll(); err != nil {
		return err
	}
	p.stored = creds.Credentials{}
	p.hasStored = false
	p.resetDigest = ""
	logging.Info("Credentials cleared")

	if restart {
		p.ScheduleRestart(resetRestartDelayMS, "credentials cleared")
	}
	return nil
}

// ----- Status queries -----

// State returns the current state machine mode.
func (p *Provisioner) State() State {
	return p.state
}

// IsConnected reports whether the device is connected with a live link.
func (p *Provisioner) IsConnected() bool {
	return p.state == StateConnected && p.deps.Radio.LinkUp()
}

// IsProvisioning reports whether the captive portal is the active mode.
func (p *Provisioner) IsProvisioning() bool {
	return p.state == StateProvisioning || p.state == StateProvisioningActive
}

// SSID returns the stored network name, if any.
func (p *Provisioner) SSID() string {
	return p.stored.SSID
}

// IP returns the station address, or "" when not connected.
func (p *Provisioner) IP() string {
	return p.deps.Radio.IP()
}

// APIP returns the access point address while provisioning.
func (p *Provisioner) APIP() string {
	return p.apIP
}

// StateName returns the lowercase name of the current state.
func (p *Provisioner) StateName() string {
	return p.state.String()
}

// ResetSecret returns the stored reset-password digest, if any.
func (p *Provisioner) ResetSecret() (string, bool) {
	if p.resetDigest != "" {
		return p.resetDigest, true
	}
	return p.credStore.LoadResetSecret()
}

// ScheduleRestart arranges a device restart after delayMS. Later calls
// while a restart is pending are ignored so a held button cannot push
// the deadline forever.
func (p *Provisioner) ScheduleRestart(delayMS uint32, reason string) {
	if p.restartPending {
		return
	}
	logging.Info("Restart scheduled",
		zap.Uint32("delay_ms", delayMS),
		zap.String("reason", reason),
	)
	p.restartPending = true
	p.restartAt = p.deps.Clock.Millis()
	p.restartDelayMS = delayMS
}

// Close tears down any servers and advertisements. Intended for host
// shutdown paths and tests; a real device normally restarts instead.
func (p *Provisioner) Close() {
	p.stopProvisioningMode()
	p.stopConnectedServer()
	p.announcer.Shutdown()
	p.announcer = nil
	p.portal.Events().Close()
}
