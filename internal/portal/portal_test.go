package portal

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muurk/wifiprov/internal/creds"
	"github.com/muurk/wifiprov/internal/digest"
	"github.com/muurk/wifiprov/internal/radio"
	"github.com/muurk/wifiprov/internal/store"
)

// fakeController records what the handlers ask the provisioner to do.
type fakeController struct {
	state        string
	ssid         string
	ip           string
	resetSecret  string
	restarts     []string
	resets       []string
	restartDelay uint32
}

func (f *fakeController) StateName() string { return f.state }
func (f *fakeController) SSID() string      { return f.ssid }
func (f *fakeController) IP() string        { return f.ip }

func (f *fakeController) ResetSecret() (string, bool) {
	return f.resetSecret, f.resetSecret != ""
}

func (f *fakeController) ScheduleRestart(delayMS uint32, reason string) {
	f.restartDelay = delayMS
	f.restarts = append(f.restarts, reason)
}

func (f *fakeController) PerformReset(trigger string) {
	f.resets = append(f.resets, trigger)
}

func newTestPortal(cfg Config) (*Portal, *fakeController, *creds.Store, *radio.Simulated) {
	ctrl := &fakeController{state: "provisioning_active"}
	cs := creds.New(store.NewMemory())
	r := radio.NewSimulated()
	return New(cfg, r, cs, ctrl), ctrl, cs, r
}

func postForm(handler http.HandlerFunc, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestRootServesPage(t *testing.T) {
	p, _, _, _ := newTestPortal(Config{})

	rec := httptest.NewRecorder()
	p.handleRoot(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "WiFi Configuration")
	assert.NotContains(t, rec.Body.String(), "reset_password",
		"auth fragment must be absent when authenticated reset is off")
}

func TestRootIncludesAuthFragment(t *testing.T) {
	p, _, _, _ := newTestPortal(Config{ResetEnabled: true, ResetAuthRequired: true})

	rec := httptest.NewRecorder()
	p.handleRoot(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Contains(t, rec.Body.String(), "reset_password")
	assert.Contains(t, rec.Body.String(), "Advanced Options")
}

func TestScanReturnsNetworksInOrder(t *testing.T) {
	p, _, _, r := newTestPortal(Config{})
	r.AddNetwork("Alpha", -40, "pw")
	r.AddNetwork("Beta", -55, "")
	r.AddNetwork("Gamma", -80, "pw")

	rec := httptest.NewRecorder()
	p.handleScan(rec, httptest.NewRequest(http.MethodGet, "/scan", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var entries []scanEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 3)
	assert.Equal(t, "Alpha", entries[0].SSID)
	assert.Equal(t, "Beta", entries[1].SSID)
	assert.Equal(t, "Gamma", entries[2].SSID)
	assert.Equal(t, -40, entries[0].RSSI)
	assert.True(t, entries[0].Secure)
	assert.False(t, entries[1].Secure)
}

func TestScanEmpty(t *testing.T) {
	p, _, _, _ := newTestPortal(Config{})

	rec := httptest.NewRecorder()
	p.handleScan(rec, httptest.NewRequest(http.MethodGet, "/scan", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())
}

func TestSavePersistsAndSchedulesRestart(t *testing.T) {
	p, ctrl, cs, _ := newTestPortal(Config{})

	rec := postForm(p.handleSave, "/save", url.Values{
		"ssid":     {"HomeNet"},
		"password": {"s3cret"},
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Rebooting")

	stored, ok := cs.Load()
	require.True(t, ok)
	assert.Equal(t, creds.Credentials{SSID: "HomeNet", Password: "s3cret"}, stored)

	require.Len(t, ctrl.restarts, 1)
	assert.Equal(t, uint32(saveRestartDelayMS), ctrl.restartDelay)
}

func TestSaveEmptySSIDRejected(t *testing.T) {
	p, ctrl, cs, _ := newTestPortal(Config{})
	require.NoError(t, cs.Save(creds.Credentials{SSID: "OldNet", Password: "old"}))

	rec := postForm(p.handleSave, "/save", url.Values{
		"ssid":     {""},
		"password": {"whatever"},
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, ctrl.restarts, "no restart on validation failure")

	stored, ok := cs.Load()
	require.True(t, ok)
	assert.Equal(t, "OldNet", stored.SSID, "previous credentials must be untouched")
}

func TestSaveStoresResetSecretWhenAuthEnabled(t *testing.T) {
	p, _, cs, _ := newTestPortal(Config{ResetEnabled: true, ResetAuthRequired: true})

	rec := postForm(p.handleSave, "/save", url.Values{
		"ssid":           {"HomeNet"},
		"password":       {"s3cret"},
		"reset_password": {"resetme"},
	})

	require.Equal(t, http.StatusOK, rec.Code)

	d, ok := cs.LoadResetSecret()
	require.True(t, ok)
	assert.True(t, digest.Verify("resetme", d))
}

func TestSaveIgnoresResetSecretWhenAuthDisabled(t *testing.T) {
	p, _, cs, _ := newTestPortal(Config{ResetEnabled: true})

	postForm(p.handleSave, "/save", url.Values{
		"ssid":           {"HomeNet"},
		"reset_password": {"resetme"},
	})

	_, ok := cs.LoadResetSecret()
	assert.False(t, ok)
}

func TestSaveGetAcknowledges(t *testing.T) {
	p, _, _, _ := newTestPortal(Config{})

	rec := httptest.NewRecorder()
	p.handleSaveGet(rec, httptest.NewRequest(http.MethodGet, "/save", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestResetDisabled(t *testing.T) {
	p, ctrl, _, _ := newTestPortal(Config{})

	rec := postForm(p.handleReset, "/reset", url.Values{})

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, ctrl.resets)
}

func TestResetUnauthenticated(t *testing.T) {
	p, ctrl, _, _ := newTestPortal(Config{ResetEnabled: true})

	rec := postForm(p.handleReset, "/reset", url.Values{})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"http"}, ctrl.resets,
		"without auth configured any POST resets unconditionally")
}

func TestResetWrongPassword(t *testing.T) {
	p, ctrl, cs, _ := newTestPortal(Config{ResetEnabled: true, ResetAuthRequired: true})
	require.NoError(t, cs.Save(creds.Credentials{SSID: "HomeNet", Password: "s3cret"}))
	ctrl.resetSecret = digest.Hash("resetme")

	rec := postForm(p.handleReset, "/reset", url.Values{"password": {"wrong"}})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, ctrl.resets)

	_, ok := cs.Load()
	assert.True(t, ok, "credentials untouched on auth failure")
}

func TestResetMissingPassword(t *testing.T) {
	p, ctrl, _, _ := newTestPortal(Config{ResetEnabled: true, ResetAuthRequired: true})
	ctrl.resetSecret = digest.Hash("resetme")

	rec := postForm(p.handleReset, "/reset", url.Values{})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, ctrl.resets)
}

func TestResetCorrectPassword(t *testing.T) {
	p, ctrl, _, _ := newTestPortal(Config{ResetEnabled: true, ResetAuthRequired: true})
	ctrl.resetSecret = digest.Hash("resetme")

	rec := postForm(p.handleReset, "/reset", url.Values{"password": {"resetme"}})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"http"}, ctrl.resets)
}

func TestResetNoStoredSecretRejects(t *testing.T) {
	// Auth required but nothing stored yet: nothing can authenticate.
	p, ctrl, _, _ := newTestPortal(Config{ResetEnabled: true, ResetAuthRequired: true})

	rec := postForm(p.handleReset, "/reset", url.Values{"password": {"anything"}})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, ctrl.resets)
}

func TestStatusPayload(t *testing.T) {
	p, ctrl, _, _ := newTestPortal(Config{ResetEnabled: true})
	ctrl.state = "connected"
	ctrl.ssid = "HomeNet"
	ctrl.ip = "192.168.1.50"

	rec := httptest.NewRecorder()
	p.handleStatus(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var got statusPayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, statusPayload{State: "connected", SSID: "HomeNet", IP: "192.168.1.50"}, got)
}

func TestNotFoundRedirectsToRoot(t *testing.T) {
	p, _, _, _ := newTestPortal(Config{})

	rec := httptest.NewRecorder()
	p.handleNotFound(rec, httptest.NewRequest(http.MethodGet, "/generate_204", nil))

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestEventHubPublishWithoutClients(t *testing.T) {
	h := NewEventHub()
	h.Publish("connecting") // must not panic
	h.Close()
}
