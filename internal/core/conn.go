package core

import "context"

// Conn is the write capability the transport lends to the core. The
// registry references connections but does not own them: fan-out tasks must
// tolerate the owning registry entry disappearing mid-flight, and a failed
// write is a per-task outcome, never a resolver failure.
type Conn interface {
	// WriteText delivers one whole text frame to the peer.
	WriteText(ctx context.Context, data []byte) error
	// RemoteAddr identifies the peer for logging.
	RemoteAddr() string
}
