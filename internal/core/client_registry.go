package core

import "github.com/puzpuzpuz/xsync/v3"

// ClientRegistry maps session identity <-> connection <-> display name <->
// current context. The resolver is the only writer; the broadcast pool
// reads concurrently, so all state lives in concurrency-safe maps.
type ClientRegistry struct {
	conns    *xsync.MapOf[string, Conn]
	ids      *xsync.MapOf[Conn, string]
	names    *xsync.MapOf[string, string]
	contexts *xsync.MapOf[string, string]
}

func NewClientRegistry() *ClientRegistry {
	return &ClientRegistry{
		conns:    xsync.NewMapOf[string, Conn](),
		ids:      xsync.NewMapOf[Conn, string](),
		names:    xsync.NewMapOf[string, string](),
		contexts: xsync.NewMapOf[string, string](),
	}
}

// Register binds a fresh identity to its connection.
func (r *ClientRegistry) Register(clientID string, conn Conn) {
	r.conns.Store(clientID, conn)
	r.ids.Store(conn, clientID)
}

// Unregister fully removes an identity: connection binding, name, context.
func (r *ClientRegistry) Unregister(clientID string) {
	if conn, ok := r.conns.LoadAndDelete(clientID); ok {
		r.ids.Delete(conn)
	}
	r.names.Delete(clientID)
	r.contexts.Delete(clientID)
}

// Conn returns the connection for an identity, if it is online.
func (r *ClientRegistry) Conn(clientID string) (Conn, bool) {
	return r.conns.Load(clientID)
}

// ClientID resolves a connection back to its identity.
func (r *ClientRegistry) ClientID(conn Conn) (string, bool) {
	return r.ids.Load(conn)
}

// SetName updates the display name.
func (r *ClientRegistry) SetName(clientID, name string) {
	r.names.Store(clientID, name)
}

// Name returns the display name, defaulting to the identity itself.
func (r *ClientRegistry) Name(clientID string) string {
	if name, ok := r.names.Load(clientID); ok {
		return name
	}
	return clientID
}

// SetContext records the client's active room or DM session. An empty
// context id clears it.
func (r *ClientRegistry) SetContext(clientID, contextID string) {
	if contextID == "" {
		r.contexts.Delete(clientID)
		return
	}
	r.contexts.Store(clientID, contextID)
}

// Context returns the client's active context id, or "" if none is set.
func (r *ClientRegistry) Context(clientID string) string {
	ctx, _ := r.contexts.Load(clientID)
	return ctx
}

// IsOnline reports whether the identity is currently registered.
func (r *ClientRegistry) IsOnline(clientID string) bool {
	_, ok := r.conns.Load(clientID)
	return ok
}

// Count returns the number of online clients.
func (r *ClientRegistry) Count() int {
	return r.conns.Size()
}
