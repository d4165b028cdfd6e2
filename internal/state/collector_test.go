package state

import "testing"

type fakeScheduler struct {
	running bool
	paused  bool
}

func (f fakeScheduler) IsRunning() bool      { return f.running }
func (f fakeScheduler) IsPaused() bool       { return f.paused }
func (f fakeScheduler) IntervalMs() int      { return 50 }
func (f fakeScheduler) TotalSent() uint64    { return 12345 }
func (f fakeScheduler) TotalErrors() uint64  { return 7 }
func (f fakeScheduler) TargetString() string { return "192.168.1.1:9" }

type fakeTracker struct {
	waiting bool
}

func (f fakeTracker) IsWaiting() bool    { return f.waiting }
func (f fakeTracker) Quality() float64   { return 98.5 }
func (f fakeTracker) AverageMs() float64 { return 601.2 }
func (f fakeTracker) JitterMs() float64  { return 12.3 }
func (f fakeTracker) LastDeltaMs() int64 { return 612 }
func (f fakeTracker) ThresholdMs() int   { return 30 }
func (f fakeTracker) Count() int         { return 40 }
func (f fakeTracker) Capacity() int      { return 100 }

func TestKeepaliveStateMapping(t *testing.T) {
	tests := []struct {
		running bool
		paused  bool
		want    KeepaliveState
	}{
		{false, false, KeepaliveOff},
		{false, true, KeepaliveOff},
		{true, true, KeepalivePaused},
		{true, false, KeepaliveActive},
	}

	for _, tt := range tests {
		c := NewCollector(fakeScheduler{running: tt.running, paused: tt.paused}, fakeTracker{})
		if got := c.GetSnapshot().Keepalive; got != tt.want {
			t.Fatalf("running=%v paused=%v: expected %s, got %s", tt.running, tt.paused, tt.want, got)
		}
	}
}

func TestGetSnapshotCopiesAllFields(t *testing.T) {
	c := NewCollector(fakeScheduler{running: true}, fakeTracker{waiting: true})
	snapshot := c.GetSnapshot()

	if snapshot.Target != "192.168.1.1:9" || snapshot.IntervalMs != 50 {
		t.Fatalf("unexpected scheduler fields: %+v", snapshot)
	}
	if snapshot.TotalSent != 12345 || snapshot.TotalErrors != 7 {
		t.Fatalf("unexpected counters: %+v", snapshot)
	}
	if !snapshot.Waiting || snapshot.Quality != 98.5 || snapshot.LastDeltaMs != 612 {
		t.Fatalf("unexpected tracker fields: %+v", snapshot)
	}
	if snapshot.SampleCount != 40 || snapshot.SampleSize != 100 || snapshot.ThresholdMs != 30 {
		t.Fatalf("unexpected sample fields: %+v", snapshot)
	}
}
