package httpd

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// get fires a request on a background goroutine and pumps ServePending
// until the response arrives, mimicking the host tick loop.
func get(t *testing.T, s *Server, url string) (*http.Response, string) {
	t.Helper()

	type result struct {
		resp *http.Response
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		resp, err := http.Get(url)
		ch <- result{resp, err}
	}()

	deadline := time.After(5 * time.Second)
	for {
		s.ServePending()
		select {
		case r := <-ch:
			require.NoError(t, r.err)
			body, err := io.ReadAll(r.resp.Body)
			require.NoError(t, err)
			r.resp.Body.Close()
			return r.resp, string(body)
		case <-deadline:
			t.Fatal("request did not complete")
		default:
			time.Sleep(time.Millisecond)
		}
	}
}

func TestServerDispatchesRegisteredRoute(t *testing.T) {
	s := New()
	s.Register(http.MethodGet, "/hello", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "hi")
	})
	require.NoError(t, s.Start("127.0.0.1:0"))
	defer s.Close()

	resp, body := get(t, s, "http://"+s.Addr()+"/hello")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "hi", body)
}

func TestServerNotFoundFallback(t *testing.T) {
	s := New()
	s.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", "/")
		w.WriteHeader(http.StatusFound)
	})
	require.NoError(t, s.Start("127.0.0.1:0"))
	defer s.Close()

	client := &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	type result struct {
		resp *http.Response
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		resp, err := client.Get("http://" + s.Addr() + "/no-such-path")
		ch <- result{resp, err}
	}()

	deadline := time.After(5 * time.Second)
	for {
		s.ServePending()
		select {
		case r := <-ch:
			require.NoError(t, r.err)
			r.resp.Body.Close()
			assert.Equal(t, http.StatusFound, r.resp.StatusCode)
			assert.Equal(t, "/", r.resp.Header.Get("Location"))
			return
		case <-deadline:
			t.Fatal("request did not complete")
		default:
			time.Sleep(time.Millisecond)
		}
	}
}

func TestServerMethodMatters(t *testing.T) {
	s := New()
	s.Register(http.MethodPost, "/save", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "saved")
	})
	require.NoError(t, s.Start("127.0.0.1:0"))
	defer s.Close()

	// GET on a POST-only route falls through to not-found.
	resp, _ := get(t, s, "http://"+s.Addr()+"/save")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServePendingIsNonBlocking(t *testing.T) {
	s := New()
	assert.Equal(t, 0, s.ServePending(), "empty queue must return immediately")
}

func TestRequestAfterCloseIsRejected(t *testing.T) {
	s := New()
	s.Register(http.MethodGet, "/hello", func(w http.ResponseWriter, r *http.Request) {})
	require.NoError(t, s.Start("127.0.0.1:0"))
	require.NoError(t, s.Close())

	// A late request must be answered, not parked forever on a queue
	// nothing drains anymore.
	rec := httptest.NewRecorder()
	done := make(chan struct{})
	go func() {
		s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/hello", nil))
		close(done)
	}()

	select {
	case <-done:
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	case <-time.After(time.Second):
		t.Fatal("request parked after Close")
	}
}
