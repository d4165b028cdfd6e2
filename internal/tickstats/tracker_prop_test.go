package tickstats

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/prop"
)

func genDeltaMs() gopter.Gen {
	return gopter.Gen(func(genParams *gopter.GenParameters) *gopter.GenResult {
		// 300..900ms covers everything from badly early to badly late ticks.
		value := genParams.Rng.Intn(601) + 300
		return gopter.NewGenResult(value, gopter.NoShrinker)
	})
}

func genSampleCount() gopter.Gen {
	return gopter.Gen(func(genParams *gopter.GenParameters) *gopter.GenResult {
		value := genParams.Rng.Intn(40) + 1
		return gopter.NewGenResult(value, gopter.NoShrinker)
	})
}

func TestPropertyStatisticsStayInRange(t *testing.T) {
	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 100
	props := gopter.NewProperties(params)

	props.Property("quality is a percentage and count never exceeds capacity", prop.ForAll(
		func(deltaMs, sampleCount int) bool {
			tracker, mock := newTestTracker(20, 30)
			drainWarmup(tracker, mock)

			for i := 0; i < sampleCount; i++ {
				advanceAndTick(tracker, mock, time.Duration(deltaMs)*time.Millisecond)
			}

			quality := tracker.Quality()
			if quality < 0.0 || quality > 100.0 {
				return false
			}
			if tracker.Count() > tracker.Capacity() {
				return false
			}
			return tracker.JitterMs() >= 0.0
		},
		genDeltaMs(),
		genSampleCount(),
	))

	props.Property("uniform deltas give that exact average and zero jitter", prop.ForAll(
		func(deltaMs int) bool {
			tracker, mock := newTestTracker(50, 30)
			drainWarmup(tracker, mock)

			for i := 0; i < 10; i++ {
				advanceAndTick(tracker, mock, time.Duration(deltaMs)*time.Millisecond)
			}

			return tracker.AverageMs() == float64(deltaMs) &&
				tracker.JitterMs() == 0.0 &&
				tracker.LastDeltaMs() == int64(deltaMs)
		},
		genDeltaMs(),
	))

	props.Property("reset always returns to the warm-up defaults", prop.ForAll(
		func(deltaMs, sampleCount int) bool {
			tracker, mock := newTestTracker(20, 30)
			drainWarmup(tracker, mock)
			for i := 0; i < sampleCount; i++ {
				advanceAndTick(tracker, mock, time.Duration(deltaMs)*time.Millisecond)
			}

			tracker.Reset()

			return tracker.IsWaiting() &&
				tracker.Count() == 0 &&
				tracker.Quality() == 100.0 &&
				tracker.LastDeltaMs() == -1
		},
		genDeltaMs(),
		genSampleCount(),
	))

	props.TestingRun(t)
}
