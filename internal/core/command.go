package core

// CommandKind is the raw event class produced by the transport.
type CommandKind int

const (
	// CommandConnect turns a bare connection into an addressable identity.
	CommandConnect CommandKind = iota
	// CommandMessage carries one text frame from a registered connection.
	CommandMessage
	// CommandDisconnect removes the identity and all its memberships.
	CommandDisconnect
)

func (k CommandKind) String() string {
	switch k {
	case CommandConnect:
		return "connect"
	case CommandMessage:
		return "message"
	case CommandDisconnect:
		return "disconnect"
	default:
		return "unknown"
	}
}

// ClientCommand is the queue element handed from the transport producers to
// the single resolver consumer. It is immutable after enqueue.
type ClientCommand struct {
	Conn    Conn
	Kind    CommandKind
	Payload string
	// Name is the client-supplied display-name hint, only meaningful on
	// CommandConnect.
	Name string
}
