package status_test

import (
	"testing"
	"time"

	"codeberg.org/mutker/brewmon/internal/status"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleAt(i int) status.Sample {
	return status.Sample{
		Time:  time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC).Add(time.Duration(i) * time.Second),
		Value: status.MetricOf(float64(i)),
	}
}

func TestHistoryRingAppendAndEvict(t *testing.T) {
	ring := status.NewHistoryRing(3)

	for i := 0; i < 3; i++ {
		ring.Append(sampleAt(i))
	}
	assert.Equal(t, 3, ring.Len())

	// Fourth append evicts the oldest
	ring.Append(sampleAt(3))
	assert.Equal(t, 3, ring.Len())

	samples := ring.Samples()
	require.Len(t, samples, 3)
	assert.InDelta(t, 1, samples[0].Value.Value, 1e-9)
	assert.InDelta(t, 3, samples[2].Value.Value, 1e-9)
}

func TestHistoryRingFullCapacityEviction(t *testing.T) {
	ring := status.NewHistoryRing(status.DefaultHistorySize)

	// One more tick than the bound
	for i := 0; i < status.DefaultHistorySize+1; i++ {
		ring.Append(sampleAt(i))
	}

	samples := ring.Samples()
	require.Len(t, samples, status.DefaultHistorySize)
	assert.InDelta(t, 1, samples[0].Value.Value, 1e-9)
	assert.InDelta(t, status.DefaultHistorySize, samples[len(samples)-1].Value.Value, 1e-9)
}

func TestHistoryRingClear(t *testing.T) {
	ring := status.NewHistoryRing(4)
	ring.Append(sampleAt(0))
	ring.Append(sampleAt(1))

	ring.Clear()
	assert.Zero(t, ring.Len())
	assert.Nil(t, ring.Samples())

	// Clearing an empty ring is fine
	ring.Clear()
	assert.Zero(t, ring.Len())
}

func TestHistoryRingSamplesAreCopies(t *testing.T) {
	ring := status.NewHistoryRing(4)
	ring.Append(sampleAt(0))

	samples := ring.Samples()
	samples[0].Value = status.MetricOf(999)

	fresh := ring.Samples()
	assert.InDelta(t, 0, fresh[0].Value.Value, 1e-9)
}

func TestHistoryRingDefaultCapacity(t *testing.T) {
	ring := status.NewHistoryRing(0)
	assert.Equal(t, status.DefaultHistorySize, ring.Capacity())
}
