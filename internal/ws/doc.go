// Package ws pushes run-completed summaries and fired alerts to WebSocket
// clients subscribed at /ws.
package ws
