package health_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"codeberg.org/mutker/brewmon/internal/health"
	"codeberg.org/mutker/brewmon/internal/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeReport(t *testing.T) {
	payload := []byte(`{
		"scale": {"connected": true, "battery_pct": 82, "weight": 1203.4, "units": "grams"},
		"valve": {"connected": true},
		"influxdb": {"connected": false}
	}`)

	report, err := health.Decode(payload)
	require.NoError(t, err)

	scale := report.Scale()
	assert.True(t, scale.Connected)
	require.NotNil(t, scale.BatteryPct)
	assert.Equal(t, 82, *scale.BatteryPct)
	require.NotNil(t, scale.Weight)
	assert.InDelta(t, 1203.4, *scale.Weight, 1e-9)
	assert.Equal(t, "grams", scale.Units)

	assert.True(t, report.Valve().Connected)
	assert.False(t, report.InfluxDB().Connected)
	assert.Nil(t, report.Valve().BatteryPct)
}

func TestDecodeReportRejectsMalformed(t *testing.T) {
	_, err := health.Decode([]byte(`not json`))
	assert.Error(t, err)
}

// fakeHealthTransport is a minimal scriptable transport.
type fakeHealthTransport struct {
	events chan transport.Event
	mu     sync.Mutex
	closed bool
}

func (f *fakeHealthTransport) Connect(_ context.Context) error {
	f.events <- transport.Event{Kind: transport.EventOpen}
	return nil
}

func (f *fakeHealthTransport) Events() <-chan transport.Event { return f.events }

func (f *fakeHealthTransport) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

func TestWatcherPublishesReports(t *testing.T) {
	tr := &fakeHealthTransport{events: make(chan transport.Event, 8)}
	watcher, err := health.NewWatcher(func() transport.Transport { return tr }, time.Minute, time.Minute)
	require.NoError(t, err)

	watcher.Start()
	defer watcher.Stop()

	tr.events <- transport.Event{
		Kind:    transport.EventMessage,
		Payload: []byte(`{"scale": {"connected": true}, "valve": {"connected": false}}`),
	}

	select {
	case report := <-watcher.Updates():
		assert.True(t, report.Scale().Connected)
		assert.False(t, report.Valve().Connected)
	case <-time.After(2 * time.Second):
		t.Fatal("no health report delivered")
	}

	require.Eventually(t, func() bool {
		return watcher.Current() != nil
	}, 2*time.Second, 5*time.Millisecond)
}

func TestWatcherDropsMalformedAndKeepsCurrent(t *testing.T) {
	tr := &fakeHealthTransport{events: make(chan transport.Event, 8)}
	watcher, err := health.NewWatcher(func() transport.Transport { return tr }, time.Minute, time.Minute)
	require.NoError(t, err)

	watcher.Start()
	defer watcher.Stop()

	tr.events <- transport.Event{Kind: transport.EventMessage, Payload: []byte(`{"valve": {"connected": true}}`)}
	require.Eventually(t, func() bool {
		report := watcher.Current()
		return report != nil && report.Valve().Connected
	}, 2*time.Second, 5*time.Millisecond)

	tr.events <- transport.Event{Kind: transport.EventMessage, Payload: []byte(`garbage`)}
	time.Sleep(50 * time.Millisecond)

	report := watcher.Current()
	require.NotNil(t, report)
	assert.True(t, report.Valve().Connected)
}

func TestWatcherStopClearsReport(t *testing.T) {
	tr := &fakeHealthTransport{events: make(chan transport.Event, 8)}
	watcher, err := health.NewWatcher(func() transport.Transport { return tr }, time.Minute, time.Minute)
	require.NoError(t, err)

	watcher.Start()
	tr.events <- transport.Event{Kind: transport.EventMessage, Payload: []byte(`{"valve": {"connected": true}}`)}
	require.Eventually(t, func() bool {
		return watcher.Current() != nil
	}, 2*time.Second, 5*time.Millisecond)

	watcher.Stop()
	assert.Nil(t, watcher.Current())

	watcher.Stop() // idempotent
}

func TestWatcherRequiresFactory(t *testing.T) {
	_, err := health.NewWatcher(nil, 0, 0)
	assert.Error(t, err)
}
