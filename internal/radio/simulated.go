package radio

import (
	"context"
	"errors"
	"sync"
)

// ErrJoinFailed is the generic join failure returned by the simulated
// radio when the target network rejects the attempt.
var ErrJoinFailed = errors.New("radio: join failed")

// Simulated is a scripted Radio for tests and the simulator binary.
//
// Join outcomes are controlled by the Networks table: an attempt succeeds
// when a network with a matching SSID exists and its configured password
// matches (open networks accept any password). JoinError, when set,
// overrides the table and fails every attempt.
type Simulated struct {
	mu sync.Mutex

	// Networks are the environment's visible networks, returned by Scan
	// in order.
	networks []Network

	// passwords maps SSID to the password the network expects. Absent
	// entries behave as open networks.
	passwords map[string]string

	joinErr   error
	linkUp    bool
	dropLink  bool
	ssid      string
	stationIP string
	apIP      string
	apActive  bool
	mac       [6]byte
}

// NewSimulated creates a simulated radio with a fixed MAC and station
// address.
func NewSimulated() *Simulated {
	return &Simulated{
		passwords: make(map[string]string),
		stationIP: "192.168.1.50",
		apIP:      "192.168.4.1",
		mac:       [6]byte{0xDE, 0xAD, 0xBE, 0xEF, 0x12, 0x34},
	}
}

// AddNetwork adds a visible network. password is the secret the network
// expects; empty means open.
func (s *Simulated) AddNetwork(ssid string, rssi int, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.networks = append(s.networks, Network{SSID: ssid, RSSI: rssi, Secured: password != ""})
	s.passwords[ssid] = password
}

// FailJoins makes every join attempt fail with err (or ErrJoinFailed when
// err is nil). Pass a nil error after calling SucceedJoins to restore
// table-driven behavior.
func (s *Simulated) FailJoins(err error) {
	if err == nil {
		err = ErrJoinFailed
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.joinErr = err
}

// SucceedJoins restores table-driven join behavior.
func (s *Simulated) SucceedJoins() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.joinErr = nil
}

// DropLink marks the station link lost; the next LinkUp reports false.
func (s *Simulated) DropLink() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.linkUp = false
}

// APActive reports whether the access point is currently up.
func (s *Simulated) APActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apActive
}

func (s *Simulated) Join(ctx context.Context, ssid, password string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.joinErr != nil {
		return s.joinErr
	}

	expected, known := s.passwords[ssid]
	if !known {
		return ErrJoinFailed
	}
	if expected != "" && expected != password {
		return ErrJoinFailed
	}

	s.linkUp = true
	s.ssid = ssid
	return nil
}

func (s *Simulated) StartAccessPoint(ssid, password string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apActive = true
	return s.apIP, nil
}

func (s *Simulated) StopAccessPoint() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apActive = false
	return nil
}

func (s *Simulated) Scan(ctx context.Context) ([]Network, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Network, len(s.networks))
	copy(out, s.networks)
	return out, nil
}

func (s *Simulated) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.linkUp = false
	s.ssid = ""
}

func (s *Simulated) LinkUp() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.linkUp
}

func (s *Simulated) IP() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.linkUp {
		return ""
	}
	return s.stationIP
}

func (s *Simulated) MACAddress() [6]byte {
	return s.mac
}
