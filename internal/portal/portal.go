package portal

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/wifiprov/internal/creds"
	"github.com/muurk/wifiprov/internal/digest"
	"github.com/muurk/wifiprov/internal/httpd"
	"github.com/muurk/wifiprov/internal/logging"
	"github.com/muurk/wifiprov/internal/radio"
)

// scanTimeout bounds the radio scan triggered by GET /scan.
const scanTimeout = 10 * time.Second

// saveRestartDelayMS is how long after a successful save the device
// restarts, giving the client time to read the acknowledgement.
const saveRestartDelayMS = 2000

// Controller is the provisioner surface the portal handlers drive. The
// provisioner implements it; tests substitute a fake.
type Controller interface {
	// StateName is the lowercase name of the current state.
	StateName() string

	// SSID is the stored network name, if any.
	SSID() string

	// IP is the current station address, or "" when not connected.
	IP() string

	// ResetSecret returns the stored reset-password digest, if any.
	ResetSecret() (string, bool)

	// ScheduleRestart arranges a device restart after delayMS.
	ScheduleRestart(delayMS uint32, reason string)

	// PerformReset fires the reset callback, erases stored state, and
	// schedules a restart.
	PerformReset(trigger string)
}

// Config selects which reset surface the portal exposes.
type Config struct {
	ResetEnabled      bool
	ResetAuthRequired bool
}

// Portal owns the HTTP handlers for both provisioning and connected mode.
type Portal struct {
	cfg    Config
	radio  radio.Radio
	store  *creds.Store
	ctrl   Controller
	events *EventHub
}

// New creates a portal over the given capabilities.
func New(cfg Config, r radio.Radio, store *creds.Store, ctrl Controller) *Portal {
	return &Portal{
		cfg:    cfg,
		radio:  r,
		store:  store,
		ctrl:   ctrl,
		events: NewEventHub(),
	}
}

// Events returns the hub the provisioner publishes state transitions to.
func (p *Portal) Events() *EventHub {
	return p.events
}

// RegisterProvisioning installs the captive-portal route set.
func (p *Portal) RegisterProvisioning(srv *httpd.Server) {
	srv.Register(http.MethodGet, "/", p.handleRoot)
	srv.Register(http.MethodGet, "/scan", p.handleScan)
	srv.Register(http.MethodPost, "/save", p.handleSave)
	// GET /save answers portal auto-redirect probes so they never
	// re-submit the form.
	srv.Register(http.MethodGet, "/save", p.handleSaveGet)
	if p.cfg.ResetEnabled {
		srv.Register(http.MethodPost, "/reset", p.handleReset)
	}
	srv.Register(http.MethodGet, "/events", p.events.Handler)
	srv.NotFound(p.handleNotFound)
}

// RegisterConnected installs the minimal connected-mode route set.
func (p *Portal) RegisterConnected(srv *httpd.Server) {
	srv.Register(http.MethodGet, "/status", p.handleStatus)
	srv.Register(http.MethodPost, "/reset", p.handleReset)
	srv.Register(http.MethodGet, "/events", p.events.Handler)
}

func (p *Portal) handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, Page(p.cfg.ResetAuthRequired))
}

// scanEntry matches the field names the embedded page's script reads.
type scanEntry struct {
	SSID   string `json:"ssid"`
	RSSI   int    `json:"rssi"`
	Secure bool   `json:"secure"`
}

func (p *Portal) handleScan(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), scanTimeout)
	defer cancel()

	networks, err := p.radio.Scan(ctx)
	if err != nil {
		logging.Error("Network scan failed", zap.Error(err))
		http.Error(w, "scan failed", http.StatusInternalServerError)
		return
	}

	entries := make([]scanEntry, 0, len(networks))
	for _, n := range networks {
		entries = append(entries, scanEntry{SSID: n.SSID, RSSI: n.RSSI, Secure: n.Secured})
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(entries)
}

func (p *Portal) handleSave(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "malformed form", http.StatusBadRequest)
		return
	}

	ssid := r.PostFormValue("ssid")
	password := r.PostFormValue("password")
	resetPwd := r.PostFormValue("reset_password")

	logging.Info("Received configuration", zap.String("ssid", ssid))

	if ssid == "" {
		http.Error(w, "SSID is required", http.StatusBadRequest)
		return
	}

	if err := p.store.Save(creds.Credentials{SSID: ssid, Password: password}); err != nil {
		logging.Error("Failed to save credentials", zap.Error(err))
		http.Error(w, "Failed to save credentials", http.StatusInternalServerError)
		return
	}

	if p.cfg.ResetAuthRequired && resetPwd != "" {
		if err := p.store.SaveResetSecret(resetPwd); err != nil {
			// Credentials are already saved; the reset secret is optional.
			logging.Warn("Failed to save reset secret", zap.Error(err))
		}
	}

	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprint(w, "Configuration saved. Rebooting...")

	p.ctrl.ScheduleRestart(saveRestartDelayMS, "credentials saved")
}

func (p *Portal) handleSaveGet(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprint(w, "OK")
}

func (p *Portal) handleReset(w http.ResponseWriter, r *http.Request) {
	if !p.cfg.ResetEnabled {
		http.Error(w, "Reset disabled", http.StatusForbidden)
		return
	}

	if p.cfg.ResetAuthRequired {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "malformed form", http.StatusBadRequest)
			return
		}
		password := r.PostFormValue("password")
		if password == "" {
			http.Error(w, "Password required", http.StatusUnauthorized)
			return
		}

		stored, ok := p.ctrl.ResetSecret()
		if !ok || !digest.Verify(password, stored) {
			logging.Error("Reset authentication failed")
			http.Error(w, "Invalid password", http.StatusUnauthorized)
			return
		}
	}

	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprint(w, "Resetting device...")

	p.ctrl.PerformReset("http")
}

// statusPayload is the connected-mode status document.
type statusPayload struct {
	State string `json:"state"`
	SSID  string `json:"ssid"`
	IP    string `json:"ip"`
}

func (p *Portal) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(statusPayload{
		State: p.ctrl.StateName(),
		SSID:  p.ctrl.SSID(),
		IP:    p.ctrl.IP(),
	})
}

func (p *Portal) handleNotFound(w http.ResponseWriter, r *http.Request) {
	logging.Debug("Captive redirect",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	)
	w.Header().Set("Location", "/")
	w.WriteHeader(http.StatusFound)
}
