// Package dnsd implements the wildcard DNS responder behind captive-portal
// capture: while provisioning, every query resolves to the access point's
// own address so client devices open the configuration page automatically.
package dnsd

import (
	"fmt"
	"net"

	"github.com/miekg/dns"

	"github.com/muurk/wifiprov/internal/logging"
)

// defaultTTL keeps captured answers short-lived so clients re-resolve
// promptly once provisioning ends.
const defaultTTL = 60

// Server answers every A query with the capture address. The handler is
// stateless, so serving from the transport's own goroutines does not
// touch provisioner state.
type Server struct {
	capture net.IP
	srv     *dns.Server
}

// New creates a wildcard responder that resolves all names to captureIP.
func New(captureIP string) (*Server, error) {
	ip := net.ParseIP(captureIP)
	if ip == nil || ip.To4() == nil {
		return nil, fmt.Errorf("invalid capture address %q", captureIP)
	}
	return &Server{capture: ip.To4()}, nil
}

// Start begins answering UDP queries on addr (typically ":53").
func (s *Server) Start(addr string) error {
	s.srv = &dns.Server{
		Addr:    addr,
		Net:     "udp",
		Handler: s,
	}

	errCh := make(chan error, 1)
	s.srv.NotifyStartedFunc = func() { errCh <- nil }
	go func() {
		if err := s.srv.ListenAndServe(); err != nil {
			errCh <- fmt.Errorf("dns server failed: %w", err)
		}
	}()

	return <-errCh
}

// ServeDNS answers any question with an A record for the capture address.
func (s *Server) ServeDNS(w dns.ResponseWriter, r *dns.Msg) {
	m := new(dns.Msg)
	m.SetReply(r)
	m.Authoritative = true

	for _, q := range r.Question {
		if q.Qtype != dns.TypeA && q.Qtype != dns.TypeANY {
			continue
		}
		m.Answer = append(m.Answer, &dns.A{
			Hdr: dns.RR_Header{
				Name:   q.Name,
				Rrtype: dns.TypeA,
				Class:  dns.ClassINET,
				Ttl:    defaultTTL,
			},
			A: s.capture,
		})
		logging.LogDNSQuery(q.Name, s.capture.String())
	}

	_ = w.WriteMsg(m)
}

// Close stops the responder. Safe to call when never started.
func (s *Server) Close() error {
	if s.srv == nil {
		return nil
	}
	err := s.srv.Shutdown()
	s.srv = nil
	return err
}
