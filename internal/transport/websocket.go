package transport

import (
	"context"
	"sync"

	"codeberg.org/mutker/brewmon/internal/errors"
	"codeberg.org/mutker/brewmon/internal/logger"
	"github.com/coder/websocket"
)

const eventBuffer = 32

// socketTransport implements Transport over a bidirectional websocket.
// The server pushes status on change; the client sends nothing.
type socketTransport struct {
	url       string
	conn      *websocket.Conn
	events    chan Event
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// NewSocket creates an unconnected websocket transport for the given URL.
func NewSocket(url string) Transport {
	return &socketTransport{
		url:    url,
		events: make(chan Event, eventBuffer),
	}
}

func (t *socketTransport) Connect(ctx context.Context) error {
	errFactory := errors.New()

	if t.conn != nil {
		return errFactory.New(ErrAlreadyConnected)
	}

	conn, _, err := websocket.Dial(ctx, t.url, nil)
	if err != nil {
		return errFactory.Wrap(ErrDialFailed, err)
	}
	t.conn = conn

	// Read lifetime is owned by Close, not by the dial context
	readCtx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel

	t.events <- Event{Kind: EventOpen}
	go t.readLoop(readCtx)

	return nil
}

func (t *socketTransport) Events() <-chan Event {
	return t.events
}

func (t *socketTransport) Close() error {
	t.closeOnce.Do(func() {
		if t.cancel != nil {
			t.cancel()
		}
		if t.conn != nil {
			_ = t.conn.Close(websocket.StatusNormalClosure, "client shutdown")
		}
	})

	return nil
}

func (t *socketTransport) readLoop(ctx context.Context) {
	defer close(t.events)

	for {
		msgType, payload, err := t.conn.Read(ctx)
		if err != nil {
			t.emit(ctx, Event{Kind: EventClosed, Err: err})
			return
		}

		if msgType != websocket.MessageText {
			logger.Debug().Str("url", t.url).Msg("Ignoring non-text websocket frame")
			continue
		}

		if !t.emit(ctx, Event{Kind: EventMessage, Payload: payload}) {
			return
		}
	}
}

// emit delivers an event unless the transport was closed meanwhile.
func (t *socketTransport) emit(ctx context.Context, event Event) bool {
	select {
	case t.events <- event:
		return true
	case <-ctx.Done():
		return false
	}
}
