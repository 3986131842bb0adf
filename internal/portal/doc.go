// Package portal implements the HTTP surface of the provisioner: the
// captive-portal configuration page and its routes while provisioning,
// and the minimal status/reset server while connected.
//
// Provisioning routes:
//
//	GET  /       configuration page (embedded asset)
//	GET  /scan   JSON array of visible networks, in scan order
//	POST /save   validate and persist credentials, then reboot
//	GET  /save   fixed acknowledgement for portal auto-redirect probes
//	POST /reset  factory reset (only when HTTP reset is enabled)
//	GET  /events websocket stream of state transitions
//	*            302 redirect to /, completing captive-portal capture
//
// Connected-mode routes (only when HTTP reset is enabled):
//
//	GET  /status JSON {state, ssid, ip}
//	POST /reset  factory reset
//	GET  /events websocket stream of state transitions
//
// Handlers run on the tick goroutine via the httpd queue, so they may
// touch provisioner state freely through the Controller.
package portal
