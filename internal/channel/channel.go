package channel

import (
	"context"
	"sync"
	"time"

	"codeberg.org/mutker/brewmon/internal/errors"
	"codeberg.org/mutker/brewmon/internal/logger"
	"codeberg.org/mutker/brewmon/internal/status"
	"codeberg.org/mutker/brewmon/internal/transport"
)

// Config carries the collaborators and tuning of a Channel.
type Config struct {
	// Factory dials fresh transport instances; required.
	Factory transport.Factory

	// BackoffBase and BackoffMax bound the reconnect delay. Zero values
	// select the defaults (1s and 30s).
	BackoffBase time.Duration
	BackoffMax  time.Duration

	// HistorySize bounds each history ring. Zero selects the default.
	HistorySize int
}

// Channel keeps the local view consistent with the remote brew. It owns
// the transport instance, feeds decoded snapshots into the history
// rings, derives the brew error state and pushes composite updates to
// subscribers. All mutation happens under one mutex, driven by a single
// run goroutine per Start.
type Channel struct {
	factory transport.Factory
	now     func() time.Time

	mu          sync.RWMutex
	running     bool
	gen         int
	cancel      context.CancelFunc
	backoff     *Backoff
	connState   ConnectionState
	snapshot    *status.Snapshot
	brewErr     *status.BrewError
	flowHist    *status.HistoryRing
	weightHist  *status.HistoryRing
	subscribers map[int]chan Update
	nextSub     int
}

// New constructs a stopped Channel. The caller owns its lifecycle:
// Start on activation, Stop on teardown. There is no package-level
// instance.
func New(cfg Config) (*Channel, error) {
	if cfg.Factory == nil {
		return nil, errors.New().New(ErrInvalidFactory)
	}

	return &Channel{
		factory:     cfg.Factory,
		now:         time.Now,
		backoff:     NewBackoff(cfg.BackoffBase, cfg.BackoffMax),
		connState:   StateDisconnected,
		flowHist:    status.NewHistoryRing(cfg.HistorySize),
		weightHist:  status.NewHistoryRing(cfg.HistorySize),
		subscribers: make(map[int]chan Update),
	}, nil
}

func (c *Channel) Start() {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		logger.Debug().Msg("Status channel already started")
		return
	}

	c.running = true
	c.gen++
	gen := c.gen
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.backoff.Reset()
	c.setConnStateLocked(StateConnecting)
	c.mu.Unlock()

	go c.run(ctx, gen)
}

func (c *Channel) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gen++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.running = false
	c.snapshot = nil
	c.brewErr = nil
	c.flowHist.Clear()
	c.weightHist.Clear()
	c.setConnStateLocked(StateDisconnected)
}

func (c *Channel) EnsureConnected() {
	c.mu.RLock()
	healthy := c.running
	c.mu.RUnlock()

	if !healthy {
		c.Start()
	}
}

func (c *Channel) Subscribe() (<-chan Update, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextSub
	c.nextSub++
	ch := make(chan Update, 1)
	c.subscribers[id] = ch
	ch <- c.updateLocked()

	unsubscribe := func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if sub, ok := c.subscribers[id]; ok {
			delete(c.subscribers, id)
			close(sub)
		}
	}

	return ch, unsubscribe
}

func (c *Channel) Current() Update {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.updateLocked()
}

// run owns one connect/consume/retry cycle per iteration. It exits when
// the generation it was started under is superseded by Stop or a new
// Start.
func (c *Channel) run(ctx context.Context, gen int) {
	for {
		t := c.factory()
		if err := t.Connect(ctx); err != nil {
			_ = t.Close()
			logger.Warn().Err(err).Msg("Failed to connect status transport")
			if !c.waitRetry(ctx, gen) {
				return
			}
			continue
		}

		c.onOpen(gen)
		stopped := c.consume(ctx, gen, t)
		_ = t.Close()
		if stopped {
			return
		}

		if !c.waitRetry(ctx, gen) {
			return
		}
	}
}

// consume dispatches transport events sequentially until the transport
// closes or the channel is stopped. Returns true when stopped.
func (c *Channel) consume(ctx context.Context, gen int, t transport.Transport) bool {
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
				logger.Debug().Msg("Status transport open")
			case transport.EventMessage:
				c.handleMessage(gen, event.Payload)
			case transport.EventError:
				logger.Warn().Err(event.Err).Msg("Status transport error")
			case transport.EventClosed:
				logger.Info().Err(event.Err).Msg("Status transport closed")
				return false
			}
		}
	}
}

// handleMessage decodes one pushed payload and folds it into the held
// state. Malformed input is logged and dropped; held state is never
// touched on a decode failure.
func (c *Channel) handleMessage(gen int, payload []byte) {
	snapshot, err := status.Decode(payload)
	if err != nil {
		logger.Warn().Err(err).Msg("Dropping undecodable status message")
		return
	}

	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		return
	}

	if snapshot.State.IsActive() {
		c.flowHist.Append(status.Sample{Time: now, Value: snapshot.FlowRate})
		c.weightHist.Append(status.Sample{Time: now, Value: snapshot.Weight})
	} else {
		c.flowHist.Clear()
		c.weightHist.Clear()
	}

	c.snapshot = snapshot
	c.brewErr = status.DeriveError(snapshot, now)
	c.publishLocked()
}

// onOpen records a successful connection: the attempt counter resets and
// the connection state becomes connected.
func (c *Channel) onOpen(gen int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		return
	}

	c.backoff.Reset()
	c.setConnStateLocked(StateConnected)
}

// waitRetry schedules the next reconnect attempt and blocks on its
// timer. Returns false when the channel was stopped, in which case no
// further attempt may be made.
func (c *Channel) waitRetry(ctx context.Context, gen int) bool {
	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		return false
	}
	delay := c.backoff.Next()
	attempt := c.backoff.Attempt()
	c.setConnStateLocked(StateReconnecting)
	c.mu.Unlock()

	logger.Info().
		Dur("delay", delay).
		Int("attempt", attempt).
		Msg("Scheduling status transport reconnect")

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (c *Channel) setConnStateLocked(state ConnectionState) {
	if c.connState == state {
		return
	}

	logger.Debug().
		Str("from", string(c.connState)).
		Str("to", string(state)).
		Msg("Connection state changed")
	c.connState = state
	c.publishLocked()
}

func (c *Channel) updateLocked() Update {
	return Update{
		Connection:    c.connState,
		Snapshot:      c.snapshot,
		BrewError:     c.brewErr,
		FlowHistory:   c.flowHist.Samples(),
		WeightHistory: c.weightHist.Samples(),
	}
}

// publishLocked pushes the current composite state to every subscriber.
// Delivery conflates: a full subscriber buffer is drained of its stale
// update first, so subscribers always converge on the latest state and
// never block the channel.
func (c *Channel) publishLocked() {
	update := c.updateLocked()
	for _, sub := range c.subscribers {
		select {
		case sub <- update:
			continue
		default:
		}

		select {
		case <-sub:
		default:
		}

		select {
		case sub <- update:
		default:
		}
	}
}
