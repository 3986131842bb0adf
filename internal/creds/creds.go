// Package creds persists WiFi credentials, the hashed reset secret, and
// the boot record used by double-reboot detection.
//
// Every operation is one open/read-or-write/close round trip against the
// persistence capability; there is no cross-call transaction. The state
// machine is the single writer.
package creds

import (
	"fmt"

	"github.com/muurk/wifiprov/internal/digest"
	"github.com/muurk/wifiprov/internal/store"
)

// Namespace is the persistence namespace holding all provisioner state.
const Namespace = "wifiprov"

// Key names within the namespace.
const (
	keySSID      = "ssid"
	keyPassword  = "password"
	keyResetPwd  = "reset_pwd"
	keyBootCount = "boot_count"
	keyBootTime  = "boot_time"
)

// Credentials is the stored network name and secret.
type Credentials struct {
	SSID     string
	Password string
}

// BootRecord is the boot counter state read and rewritten once per start.
type BootRecord struct {
	Count      uint32
	LastMillis uint32
}

// Store performs credential persistence over a key-value capability.
type Store struct {
	kv store.Store
}

// New creates a credential store over the given persistence capability.
func New(kv store.Store) *Store {
	return &Store{kv: kv}
}

// Load returns the stored credentials. A missing SSID or any storage
// failure reads as "no credentials present".
func (s *Store) Load() (Credentials, bool) {
	h, err := s.kv.Open(Namespace, true)
	if err != nil {
		return Credentials{}, false
	}
	defer h.Close()

	c := Credentials{
		SSID:     h.GetString(keySSID, ""),
		Password: h.GetString(keyPassword, ""),
	}
	return c, c.SSID != ""
}

// closeFlush surfaces a close failure from a write handle. Backends that
// buffer writes persist them in Close, so a close error means the data
// never reached the medium.
func closeFlush(h store.Handle, err *error) {
	if cerr := h.Close(); *err == nil && cerr != nil {
		*err = fmt.Errorf("failed to flush credential store: %w", cerr)
	}
}

// Save persists credentials, replacing any previous pair.
func (s *Store) Save(c Credentials) (err error) {
	h, err := s.kv.Open(Namespace, false)
	if err != nil {
		return fmt.Errorf("failed to open credential store: %w", err)
	}
	defer closeFlush(h, &err)

	if err := h.PutString(keySSID, c.SSID); err != nil {
		return fmt.Errorf("failed to store ssid: %w", err)
	}
	if err := h.PutString(keyPassword, c.Password); err != nil {
		return fmt.Errorf("failed to store password: %w", err)
	}
	return nil
}

// LoadResetSecret returns the stored reset-password digest, if any.
func (s *Store) LoadResetSecret() (string, bool) {
	h, err := s.kv.Open(Namespace, true)
	if err != nil {
		return "", false
	}
	defer h.Close()

	d := h.GetString(keyResetPwd, "")
	return d, d != ""
}

// SaveResetSecret hashes the password and stores the digest. The
// plaintext password is never written.
func (s *Store) SaveResetSecret(password string) (err error) {
	h, err := s.kv.Open(Namespace, false)
	if err != nil {
		return fmt.Errorf("failed to open credential store: %w", err)
	}
	defer closeFlush(h, &err)

	if err := h.PutString(keyResetPwd, digest.Hash(password)); err != nil {
		return fmt.Errorf("failed to store reset secret: %w", err)
	}
	return nil
}

// EraseAll wipes the whole namespace: credentials, reset secret, and the
// boot record.
func (s *Store) EraseAll() (err error) {
	h, err := s.kv.Open(Namespace, false)
	if err != nil {
		return fmt.Errorf("failed to open credential store: %w", err)
	}
	defer closeFlush(h, &err)

	if err := h.Clear(); err != nil {
		return fmt.Errorf("failed to erase credential store: %w", err)
	}
	return nil
}

// LoadBootRecord reads the persisted boot counter state. Missing keys
// read as zero.
func (s *Store) LoadBootRecord() BootRecord {
	h, err := s.kv.Open(Namespace, true)
	if err != nil {
		return BootRecord{}
	}
	defer h.Close()

	return BootRecord{
		Count:      h.GetUint(keyBootCount, 0),
		LastMillis: h.GetUint(keyBootTime, 0),
	}
}

// SaveBootRecord rewrites the persisted boot counter state.
func (s *Store) SaveBootRecord(r BootRecord) (err error) {
	h, err := s.kv.Open(Namespace, false)
	if err != nil {
		return fmt.Errorf("failed to open credential store: %w", err)
	}
	defer closeFlush(h, &err)

	if err := h.PutUint(keyBootCount, r.Count); err != nil {
		return fmt.Errorf("failed to store boot count: %w", err)
	}
	if err := h.PutUint(keyBootTime, r.LastMillis); err != nil {
		return fmt.Errorf("failed to store boot time: %w", err)
	}
	return nil
}
