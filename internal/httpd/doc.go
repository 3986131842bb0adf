// Package httpd provides the HTTP transport for the captive portal and
// the connected-mode server.
//
// net/http serves each request on its own goroutine, but the provisioner
// core is single-writer: all handlers must run on the tick goroutine.
// The Server bridges the two by parking incoming requests on a queue;
// ServePending drains the queue from inside a tick and runs the matched
// handler there. The accepting goroutine blocks until its handler has
// finished, so response writers are never touched concurrently.
//
// At most the requests already queued when ServePending is called are
// serviced in that tick. When the queue is full, requests are rejected
// with 503 rather than blocking the accept path.
package httpd
