package state

// Collector assembles snapshots from the two core components. It holds no
// state of its own; every GetSnapshot reads the live getters, which are all
// lock-free, so callers may poll at any cadence.
type Collector struct {
	scheduler SchedulerStatus
	tracker   TrackerStats
}

// NewCollector wires the collector to its sources.
func NewCollector(scheduler SchedulerStatus, tracker TrackerStats) *Collector {
	return &Collector{scheduler: scheduler, tracker: tracker}
}

// GetSnapshot returns the current combined status.
func (c *Collector) GetSnapshot() Snapshot {
	return Snapshot{
		Keepalive:   keepaliveState(c.scheduler),
		Target:      c.scheduler.TargetString(),
		IntervalMs:  c.scheduler.IntervalMs(),
		TotalSent:   c.scheduler.TotalSent(),
		TotalErrors: c.scheduler.TotalErrors(),

		Waiting:     c.tracker.IsWaiting(),
		Quality:     c.tracker.Quality(),
		AverageMs:   c.tracker.AverageMs(),
		JitterMs:    c.tracker.JitterMs(),
		LastDeltaMs: c.tracker.LastDeltaMs(),
		ThresholdMs: c.tracker.ThresholdMs(),
		SampleCount: c.tracker.Count(),
		SampleSize:  c.tracker.Capacity(),
	}
}

func keepaliveState(scheduler SchedulerStatus) KeepaliveState {
	switch {
	case !scheduler.IsRunning():
		return KeepaliveOff
	case scheduler.IsPaused():
		return KeepalivePaused
	default:
		return KeepaliveActive
	}
}
