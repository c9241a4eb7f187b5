package channel

import (
	"codeberg.org/mutker/brewmon/internal/status"
)

// ConnectionState tracks the transport lifecycle, independent of payload
// content. Transitions are owned exclusively by the Channel.
type ConnectionState string

const (
	// StateDisconnected is the initial state and the explicit-stop
	// terminal state
	StateDisconnected ConnectionState = "disconnected"
	// StateConnecting is transition-only, held while the first dial is
	// in flight
	StateConnecting ConnectionState = "connecting"
	// StateConnected means a transport is open and delivering events
	StateConnected ConnectionState = "connected"
	// StateReconnecting means a reconnect timer or redial is pending
	StateReconnecting ConnectionState = "reconnecting"
)

// Update is the composite state pushed to subscribers on every change.
// Slices and pointers are copies; subscribers never share memory with
// the Channel's own buffers.
type Update struct {
	Connection    ConnectionState
	Snapshot      *status.Snapshot
	BrewError     *status.BrewError
	FlowHistory   []status.Sample
	WeightHistory []status.Sample
}

// StatusChannel is the public contract of the live status channel.
type StatusChannel interface {
	// Start opens the transport if none is open. Idempotent: calling it
	// while connected or reconnecting is a no-op.
	Start()

	// Stop cancels any pending reconnect, closes the transport, clears
	// all held state and returns the connection to disconnected.
	// Idempotent and safe before Start.
	Stop()

	// EnsureConnected behaves like Start when the transport is not
	// healthy, and is a no-op otherwise. Called after control-plane
	// mutations so the next state change is observed.
	EnsureConnected()

	// Subscribe registers a subscriber and returns its update stream
	// plus an unsubscribe function. Delivery conflates to the latest
	// update; a slow subscriber never blocks the channel.
	Subscribe() (<-chan Update, func())

	// Current returns the latest composite state.
	Current() Update
}
