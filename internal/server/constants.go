// Package server exposes the orchestrator to the shell over WebSocket, REST
// and a gRPC health service.
package server

import "time"

// Server configuration constants
const (
	// Outbound messages queued per connection before window commands fail.
	SendBuffer = 64

	// Upper bound for a single WebSocket write.
	WriteTimeout = 5 * time.Second

	// Inbound frame size limit; shell messages are small JSON documents.
	ReadLimit = 1 << 20

	// HealthService is the gRPC health service name that tracks whether a
	// shell window is attached.
	HealthService = "snapdeck.Shell"
)

// Inbound message types.
const (
	MsgAttach   = "attach"
	MsgMoved    = "moved"
	MsgResized  = "resized"
	MsgClosed   = "closed"
	MsgCommand  = "command"
	MsgShortcut = "shortcut"
)

// Outbound message types (events reuse orchestrator event names).
const (
	MsgResult = "result"
	MsgWindow = "window"
	MsgError  = "error"
)
