package dnsd

import (
	"net"
	"testing"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingWriter captures the reply without a real socket.
type recordingWriter struct {
	msg *dns.Msg
}

func (w *recordingWriter) LocalAddr() net.Addr {
	return &net.UDPAddr{IP: net.IPv4zero, Port: 53}
}

func (w *recordingWriter) RemoteAddr() net.Addr {
	return &net.UDPAddr{IP: net.IPv4(192, 168, 4, 2), Port: 5353}
}

func (w *recordingWriter) WriteMsg(m *dns.Msg) error { w.msg = m; return nil }
func (w *recordingWriter) Write([]byte) (int, error) { return 0, nil }
func (w *recordingWriter) Close() error              { return nil }
func (w *recordingWriter) TsigStatus() error         { return nil }
func (w *recordingWriter) TsigTimersOnly(bool)       {}
func (w *recordingWriter) Hijack()                   {}

func query(t *testing.T, s *Server, name string, qtype uint16) *dns.Msg {
	t.Helper()
	req := new(dns.Msg)
	req.SetQuestion(dns.Fqdn(name), qtype)

	w := &recordingWriter{}
	s.ServeDNS(w, req)
	require.NotNil(t, w.msg, "handler must always reply")
	return w.msg
}

func TestWildcardCapture(t *testing.T) {
	s, err := New("192.168.4.1")
	require.NoError(t, err)

	for _, name := range []string{"example.com", "connectivitycheck.gstatic.com", "captive.apple.com"} {
		reply := query(t, s, name, dns.TypeA)
		require.Len(t, reply.Answer, 1, "every name should resolve")

		a, ok := reply.Answer[0].(*dns.A)
		require.True(t, ok)
		assert.Equal(t, "192.168.4.1", a.A.String())
		assert.Equal(t, dns.Fqdn(name), a.Hdr.Name)
	}
}

func TestNonAQueriesGetEmptyReply(t *testing.T) {
	s, err := New("192.168.4.1")
	require.NoError(t, err)

	reply := query(t, s, "example.com", dns.TypeAAAA)
	assert.Empty(t, reply.Answer)
	assert.True(t, reply.Authoritative)
}

func TestNewRejectsBadAddress(t *testing.T) {
	_, err := New("not-an-ip")
	assert.Error(t, err)

	_, err = New("::1")
	assert.Error(t, err, "capture address must be IPv4")
}

func TestCloseWithoutStart(t *testing.T) {
	s, err := New("192.168.4.1")
	require.NoError(t, err)
	assert.NoError(t, s.Close())
}
