package transport

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"strings"
	"sync"

	"codeberg.org/mutker/brewmon/internal/errors"
)

// streamTransport implements Transport over a server-sent-events stream,
// one JSON payload per event. It is interchangeable with the websocket
// transport: both emit the same event sequence.
type streamTransport struct {
	url       string
	client    *http.Client
	body      io.ReadCloser
	events    chan Event
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// NewStream creates an unconnected SSE transport for the given URL.
func NewStream(url string) Transport {
	return &streamTransport{
		url:    url,
		client: &http.Client{},
		events: make(chan Event, eventBuffer),
	}
}

func (t *streamTransport) Connect(ctx context.Context) error {
	errFactory := errors.New()

	if t.body != nil {
		return errFactory.New(ErrAlreadyConnected)
	}

	// Stream lifetime is owned by Close, not by the dial context
	readCtx, cancel := context.WithCancel(context.Background())

	req, err := http.NewRequestWithContext(readCtx, http.MethodGet, t.url, nil)
	if err != nil {
		cancel()
		return errFactory.Wrap(ErrDialFailed, err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := t.client.Do(req)
	if err != nil {
		cancel()
		return errFactory.Wrap(ErrDialFailed, err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		cancel()
		return errFactory.WithData(ErrUnexpectedStatus, resp.Status)
	}

	t.body = resp.Body
	t.cancel = cancel

	t.events <- Event{Kind: EventOpen}
	go t.readLoop(readCtx)

	return nil
}

func (t *streamTransport) Events() <-chan Event {
	return t.events
}

func (t *streamTransport) Close() error {
	t.closeOnce.Do(func() {
		if t.cancel != nil {
			t.cancel()
		}
		if t.body != nil {
			_ = t.body.Close()
		}
	})

	return nil
}

// readLoop parses the text/event-stream framing: data lines accumulate
// until a blank line terminates the event.
func (t *streamTransport) readLoop(ctx context.Context) {
	defer close(t.events)

	scanner := bufio.NewScanner(t.body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var data strings.Builder
	for scanner.Scan() {
		line := scanner.Text()

		if line == "" {
			if data.Len() > 0 {
				payload := []byte(data.String())
				data.Reset()
				if !t.emit(ctx, Event{Kind: EventMessage, Payload: payload}) {
					return
				}
			}
			continue
		}

		if strings.HasPrefix(line, "data:") {
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
		// Comment and id/event/retry lines are ignored
	}

	t.emit(ctx, Event{Kind: EventClosed, Err: scanner.Err()})
}

func (t *streamTransport) emit(ctx context.Context, event Event) bool {
	select {
	case t.events <- event:
		return true
	case <-ctx.Done():
		return false
	}
}
