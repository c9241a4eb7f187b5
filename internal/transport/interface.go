package transport

import "context"

// EventKind tags a transport event
type EventKind int

const (
	// EventOpen signals a successfully established connection
	EventOpen EventKind = iota
	// EventMessage carries one pushed payload
	EventMessage
	// EventError carries a non-fatal transport error
	EventError
	// EventClosed signals the connection ended; no further events follow
	EventClosed
)

func (k EventKind) String() string {
	switch k {
	case EventOpen:
		return "open"
	case EventMessage:
		return "message"
	case EventError:
		return "error"
	case EventClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Event is one occurrence on a transport. All four handler callbacks of
// the underlying protocols are folded into this single tagged type so a
// consumer can dispatch them sequentially from one loop.
type Event struct {
	Kind    EventKind
	Payload []byte
	Err     error
}

// Transport is one push connection to the controller. A Transport is
// single-use: once closed, a fresh instance must be dialed. The Events
// channel is closed after EventClosed is delivered; no event is ever
// delivered for a closed Transport.
type Transport interface {
	// Connect establishes the connection and starts event delivery.
	Connect(ctx context.Context) error

	// Events returns the ordered stream of transport events.
	Events() <-chan Event

	// Close tears the connection down. Idempotent.
	Close() error
}

// Factory dials fresh Transport instances for one endpoint. Which
// implementation backs it is a configuration choice, not a code fork.
type Factory func() Transport

// Kind selects a transport implementation
type Kind string

const (
	KindWebSocket Kind = "websocket"
	KindSSE       Kind = "sse"
)

// NewFactory returns a Factory producing transports of the given kind
// for the given URL.
func NewFactory(kind Kind, url string) Factory {
	if kind == KindSSE {
		return func() Transport { return NewStream(url) }
	}

	return func() Transport { return NewSocket(url) }
}
