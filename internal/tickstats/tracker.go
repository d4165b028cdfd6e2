package tickstats

import (
	"math"
	"sync/atomic"

	"github.com/benbjohnson/clock"
)

const (
	// IdealTickMs is the nominal server tick period.
	IdealTickMs = 600

	// warmupTicks is the number of observed ticks discarded after
	// construction or reset, while timing settles after a transition.
	warmupTicks = 15

	defaultSampleSize = 100
)

// Tracker measures tick regularity from a stream of observed tick events.
// It keeps the most recent inter-tick deltas in a fixed-size ring buffer and
// derives quality, average and jitter statistics from it on demand.
//
// RecordTick and Reset are expected to be called from a single event source.
// The getters may be called concurrently from a reader (the overlay and the
// metrics endpoint); every buffer cell and counter is atomic, so a reader
// never blocks the writer. A reader may observe a snapshot that is one
// sample behind or ahead, which is acceptable for a diagnostic display.
type Tracker struct {
	clk      clock.Clock
	deltas   []atomic.Int64
	capacity int

	head      atomic.Int64
	count     atomic.Int64
	lastTick  atomic.Int64 // unix nanos of the previous event, 0 = none yet
	threshold atomic.Int64 // ms deviation from IdealTickMs still counted good
	warmup    atomic.Int64
}

// New returns a tracker holding up to sampleSize deltas. A tick counts as
// "good" when its delta is within thresholdMs of the ideal period.
func New(sampleSize, thresholdMs int, clk clock.Clock) *Tracker {
	if sampleSize <= 0 {
		sampleSize = defaultSampleSize
	}
	t := &Tracker{
		clk:      clk,
		deltas:   make([]atomic.Int64, sampleSize),
		capacity: sampleSize,
	}
	t.threshold.Store(int64(thresholdMs))
	t.warmup.Store(warmupTicks)
	return t
}

// RecordTick registers one observed tick event. Ticks arriving during the
// warm-up window only seed the previous-event timestamp and are not recorded.
func (t *Tracker) RecordTick() {
	now := t.clk.Now().UnixNano()

	if t.warmup.Load() > 0 {
		t.warmup.Add(-1)
		t.lastTick.Store(now)
		return
	}

	last := t.lastTick.Load()
	if last != 0 {
		deltaMs := (now - last) / int64(1e6)
		head := t.head.Load()
		t.deltas[head].Store(deltaMs)
		t.head.Store((head + 1) % int64(t.capacity))
		if t.count.Load() < int64(t.capacity) {
			t.count.Add(1)
		}
	}
	t.lastTick.Store(now)
}

// IsWaiting reports whether the tracker is still inside the warm-up window.
// The window ends when the first delta lands, one tick after the discard
// counter empties, so the display never shows statistics with no samples.
func (t *Tracker) IsWaiting() bool {
	return t.warmup.Load() > 0 || t.count.Load() == 0
}

// Quality returns the percentage of recorded deltas within the threshold of
// the ideal period. With no samples yet it reports 100 (assume healthy).
func (t *Tracker) Quality() float64 {
	count := t.sampleCount()
	if count == 0 {
		return 100.0
	}

	threshold := t.threshold.Load()
	good := 0
	for i := 0; i < count; i++ {
		delta := t.deltas[i].Load()
		if abs64(delta-IdealTickMs) <= threshold {
			good++
		}
	}
	return float64(good) * 100.0 / float64(count)
}

// AverageMs returns the mean recorded delta, or the ideal period with no
// samples yet.
func (t *Tracker) AverageMs() float64 {
	count := t.sampleCount()
	if count == 0 {
		return float64(IdealTickMs)
	}

	var sum int64
	for i := 0; i < count; i++ {
		sum += t.deltas[i].Load()
	}
	return float64(sum) / float64(count)
}

// JitterMs returns the population standard deviation of recorded deltas.
func (t *Tracker) JitterMs() float64 {
	count := t.sampleCount()
	if count < 2 {
		return 0.0
	}

	mean := t.AverageMs()
	var sumSq float64
	for i := 0; i < count; i++ {
		diff := float64(t.deltas[i].Load()) - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(count))
}

// LastDeltaMs returns the most recently recorded delta, or -1 with no samples.
func (t *Tracker) LastDeltaMs() int64 {
	if t.sampleCount() == 0 {
		return -1
	}
	last := (t.head.Load() - 1 + int64(t.capacity)) % int64(t.capacity)
	return t.deltas[last].Load()
}

// SetThresholdMs changes the good-tick threshold without touching samples.
func (t *Tracker) SetThresholdMs(ms int) {
	t.threshold.Store(int64(ms))
}

// ThresholdMs returns the current good-tick threshold.
func (t *Tracker) ThresholdMs() int {
	return int(t.threshold.Load())
}

// Count returns the number of valid samples collected so far.
func (t *Tracker) Count() int {
	return t.sampleCount()
}

// Capacity returns the ring buffer size fixed at construction.
func (t *Tracker) Capacity() int {
	return t.capacity
}

// Reset discards all collected data and restarts the warm-up window. Called
// on session boundaries so stale cross-session samples never pollute new
// statistics.
func (t *Tracker) Reset() {
	t.head.Store(0)
	t.count.Store(0)
	t.lastTick.Store(0)
	t.warmup.Store(warmupTicks)
}

func (t *Tracker) sampleCount() int {
	count := t.count.Load()
	if count > int64(t.capacity) {
		count = int64(t.capacity)
	}
	return int(count)
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
