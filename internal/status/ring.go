package status

import "time"

// DefaultHistorySize is the bound on retained samples per tracked metric
const DefaultHistorySize = 128

// Sample records a single history measurement. Value is unavailable when
// the controller could not produce the metric at that instant.
type Sample struct {
	Time  time.Time
	Value Metric
}

// HistoryRing is a fixed-capacity FIFO store of samples, insertion
// ordered, oldest evicted first once full. It is owned by a single
// producer; consumers only ever see copies.
type HistoryRing struct {
	capacity int
	samples  []Sample
}

// NewHistoryRing creates an empty ring. A non-positive capacity falls
// back to DefaultHistorySize.
func NewHistoryRing(capacity int) *HistoryRing {
	if capacity <= 0 {
		capacity = DefaultHistorySize
	}

	return &HistoryRing{
		capacity: capacity,
		samples:  make([]Sample, 0, capacity),
	}
}

// Append adds a sample, evicting the oldest entry if the ring is full.
func (r *HistoryRing) Append(sample Sample) {
	if len(r.samples) < r.capacity {
		r.samples = append(r.samples, sample)
		return
	}

	copy(r.samples, r.samples[1:])
	r.samples[len(r.samples)-1] = sample
}

// Clear discards all samples while keeping the allocated capacity.
func (r *HistoryRing) Clear() {
	r.samples = r.samples[:0]
}

// Len returns the number of retained samples.
func (r *HistoryRing) Len() int {
	return len(r.samples)
}

// Capacity returns the bound on retained samples.
func (r *HistoryRing) Capacity() int {
	return r.capacity
}

// Samples returns a copy of the retained samples in insertion order.
func (r *HistoryRing) Samples() []Sample {
	if len(r.samples) == 0 {
		return nil
	}

	return append([]Sample(nil), r.samples...)
}
