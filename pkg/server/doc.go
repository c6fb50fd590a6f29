// Package server serves the counter demo over HTTP and WebSocket.
//
// All store and component operations run on a single event-loop goroutine
// (Loop). HTTP handlers and WebSocket readers hand work to the loop with
// Loop.Do and wait for the result, so the component runtime never sees
// concurrent access.
//
// Routes:
//
//	GET  /            the rendered page with the live client script
//	GET  /state       the current Frame as JSON
//	POST /increment   increments the counter, returns the new Frame
//	POST /event/{hid} runs the click handler registered under hid
//	GET  /ws          live updates: one Frame per committed change
//	GET  /metrics     Prometheus metrics
//	GET  /healthz     liveness probe
//
// WebSocket clients may send {"type":"increment"} or
// {"type":"event","hid":"h1"}; every change is pushed to all clients as
// {"type":"frame", ...Frame}.
package server
