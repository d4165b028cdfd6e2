package state

// KeepaliveState is the scheduler status shown to the operator.
type KeepaliveState string

const (
	KeepaliveOff    KeepaliveState = "OFF"
	KeepalivePaused KeepaliveState = "PAUSED"
	KeepaliveActive KeepaliveState = "ACTIVE"
)

// Snapshot is one read-only view of both core components, taken at an
// arbitrary point between writes. The UI and metrics endpoint consume it.
type Snapshot struct {
	Keepalive   KeepaliveState
	Target      string
	IntervalMs  int
	TotalSent   uint64
	TotalErrors uint64

	Waiting     bool
	Quality     float64
	AverageMs   float64
	JitterMs    float64
	LastDeltaMs int64
	ThresholdMs int
	SampleCount int
	SampleSize  int
}

// SchedulerStatus is the read-only face of the keepalive scheduler.
type SchedulerStatus interface {
	IsRunning() bool
	IsPaused() bool
	IntervalMs() int
	TotalSent() uint64
	TotalErrors() uint64
	TargetString() string
}

// TrackerStats is the read-only face of the tick quality tracker.
type TrackerStats interface {
	IsWaiting() bool
	Quality() float64
	AverageMs() float64
	JitterMs() float64
	LastDeltaMs() int64
	ThresholdMs() int
	Count() int
	Capacity() int
}
