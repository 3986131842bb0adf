package httpd

import (
	"fmt"
	"net"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"github.com/muurk/wifiprov/internal/logging"
)

// queueDepth bounds how many requests may wait between ticks.
const queueDepth = 32

type routeKey struct {
	method string
	path   string
}

type pendingRequest struct {
	w    http.ResponseWriter
	r    *http.Request
	done chan struct{}
}

// Server is a tick-driven HTTP server. Routes are matched on exact
// (method, path) pairs; anything else goes to the not-found handler.
type Server struct {
	mu       sync.Mutex
	routes   map[routeKey]http.HandlerFunc
	notFound http.HandlerFunc
	closed   bool

	pending  chan *pendingRequest
	listener net.Listener
	srv      *http.Server
}

// New creates a Server with no routes and a plain 404 fallback.
func New() *Server {
	return &Server{
		routes:  make(map[routeKey]http.HandlerFunc),
		pending: make(chan *pendingRequest, queueDepth),
		notFound: func(w http.ResponseWriter, r *http.Request) {
			http.NotFound(w, r)
		},
	}
}

// Register installs a handler for an exact method and path.
func (s *Server) Register(method, path string, h http.HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes[routeKey{method: method, path: path}] = h
}

// NotFound replaces the fallback handler for unmatched requests.
func (s *Server) NotFound(h http.HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notFound = h
}

// Start begins listening on addr. Serving happens on a background
// goroutine; handlers still only run during ServePending.
func (s *Server) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.listener = ln
	s.srv = &http.Server{Handler: s}

	go func() {
		// ErrServerClosed is the normal shutdown path.
		if err := s.srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			logging.Error("HTTP server stopped", zap.Error(err))
		}
	}()

	logging.Debug("HTTP server listening", zap.String("addr", ln.Addr().String()))
	return nil
}

// Addr returns the bound listen address, useful when started on ":0".
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// ServeHTTP parks the request for the tick goroutine and waits for its
// handler to finish. Enqueueing happens under the mutex so a request can
// never slip into the queue after Close has drained it.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p := &pendingRequest{w: w, r: r, done: make(chan struct{})}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		http.Error(w, "server closed", http.StatusServiceUnavailable)
		return
	}
	select {
	case s.pending <- p:
		s.mu.Unlock()
	default:
		s.mu.Unlock()
		http.Error(w, "server busy", http.StatusServiceUnavailable)
		return
	}

	<-p.done
}

// ServePending services every request queued at the time of the call and
// returns how many were handled. It never blocks waiting for new work.
func (s *Server) ServePending() int {
	n := 0
	for {
		select {
		case p := <-s.pending:
			s.dispatch(p.w, p.r)
			close(p.done)
			n++
		default:
			return n
		}
	}
}

func (s *Server) dispatch(w http.ResponseWriter, r *http.Request) {
	logging.LogHTTPRequest(r.RemoteAddr, r.Method, r.URL.Path)

	s.mu.Lock()
	h, ok := s.routes[routeKey{method: r.Method, path: r.URL.Path}]
	notFound := s.notFound
	s.mu.Unlock()

	if !ok {
		notFound(w, r)
		return
	}
	h(w, r)
}

// Close stops the listener and drops queued requests.
func (s *Server) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	if s.srv == nil {
		return nil
	}
	err := s.srv.Close()
	s.srv = nil
	s.listener = nil

	// Unblock any goroutine still parked on the queue.
	for {
		select {
		case p := <-s.pending:
			close(p.done)
		default:
			return err
		}
	}
}
