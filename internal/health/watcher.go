package health

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"codeberg.org/mutker/brewmon/internal/channel"
	"codeberg.org/mutker/brewmon/internal/errors"
	"codeberg.org/mutker/brewmon/internal/logger"
	"codeberg.org/mutker/brewmon/internal/transport"
)

// Decode parses one health push into a Report.
func Decode(payload []byte) (Report, error) {
	var report Report
	if err := json.Unmarshal(payload, &report); err != nil {
		return nil, errors.New().Wrap(ErrDecodeFailed, err)
	}

	return report, nil
}

// Watcher follows the read-only component health stream. It shares the
// status channel's transport family and reconnect policy but is an
// independent connection with its own lifecycle.
type Watcher struct {
	factory transport.Factory

	mu      sync.RWMutex
	running bool
	gen     int
	cancel  context.CancelFunc
	backoff *channel.Backoff
	report  Report
	updates chan Report
}

// NewWatcher constructs a stopped Watcher.
func NewWatcher(factory transport.Factory, backoffBase, backoffMax time.Duration) (*Watcher, error) {
	if factory == nil {
		return nil, errors.New().New(ErrInvalidFactory)
	}

	return &Watcher{
		factory: factory,
		backoff: channel.NewBackoff(backoffBase, backoffMax),
		updates: make(chan Report, 1),
	}, nil
}

// Updates returns the stream of decoded reports. Delivery conflates to
// the latest report.
func (w *Watcher) Updates() <-chan Report {
	return w.updates
}

// Current returns the latest report, nil before the first push.
func (w *Watcher) Current() Report {
	w.mu.RLock()
	defer w.mu.RUnlock()

	return w.report
}

// Start opens the health stream. Idempotent.
func (w *Watcher) Start() {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.gen++
	gen := w.gen
	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.backoff.Reset()
	w.mu.Unlock()

	go w.run(ctx, gen)
}

// Stop closes the stream and cancels any pending reconnect. Idempotent.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.gen++
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
	w.running = false
	w.report = nil
}

func (w *Watcher) run(ctx context.Context, gen int) {
	for {
		t := w.factory()
		if err := t.Connect(ctx); err != nil {
			_ = t.Close()
			logger.Warn().Err(err).Msg("Failed to connect health transport")
			if !w.waitRetry(ctx, gen) {
				return
			}
			continue
		}

		w.onOpen(gen)
		stopped := w.consume(ctx, gen, t)
		_ = t.Close()
		if stopped {
			return
		}

		if !w.waitRetry(ctx, gen) {
			return
		}
	}
}

func (w *Watcher) consume(ctx context.Context, gen int, t transport.Transport) bool {
	for {
		select {
		case <-ctx.Done():
			return true
		case event, ok := <-t.Events():
			if !ok {
				return false
			}

			switch event.Kind {
			case transport.EventOpen:
				logger.Debug().Msg("Health transport open")
			case transport.EventMessage:
				w.handleMessage(gen, event.Payload)
			case transport.EventError:
				logger.Warn().Err(event.Err).Msg("Health transport error")
			case transport.EventClosed:
				logger.Info().Err(event.Err).Msg("Health transport closed")
				return false
			}
		}
	}
}

func (w *Watcher) handleMessage(gen int, payload []byte) {
	report, err := Decode(payload)
	if err != nil {
		logger.Warn().Err(err).Msg("Dropping undecodable health message")
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.gen != gen {
		return
	}

	w.report = report

	select {
	case w.updates <- report:
		return
	default:
	}
	select {
	case <-w.updates:
	default:
	}
	select {
	case w.updates <- report:
	default:
	}
}

func (w *Watcher) onOpen(gen int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.gen == gen {
		w.backoff.Reset()
	}
}

func (w *Watcher) waitRetry(ctx context.Context, gen int) bool {
	w.mu.Lock()
	if w.gen != gen {
		w.mu.Unlock()
		return false
	}
	delay := w.backoff.Next()
	w.mu.Unlock()

	logger.Info().Dur("delay", delay).Msg("Scheduling health transport reconnect")

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
