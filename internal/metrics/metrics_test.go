package metrics

import (
	"bufio"
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jonathang/tickfixer-go/internal/state"
)

type fakeSource struct {
	snapshot state.Snapshot
}

func (f fakeSource) GetSnapshot() state.Snapshot {
	return f.snapshot
}

func TestWriteSnapshot(t *testing.T) {
	snapshot := state.Snapshot{
		Keepalive:   state.KeepaliveActive,
		IntervalMs:  50,
		TotalSent:   1000,
		TotalErrors: 3,
		Quality:     97.5,
		AverageMs:   600.4,
		JitterMs:    8.25,
		LastDeltaMs: 598,
		SampleCount: 100,
	}

	var buf bytes.Buffer
	writer := bufio.NewWriter(&buf)
	writeSnapshot(writer, snapshot)
	_ = writer.Flush()

	got := buf.String()
	expected := strings.Join([]string{
		"tickfixer_keepalive_running 1",
		"tickfixer_keepalive_paused 0",
		"tickfixer_keepalive_interval_ms 50",
		"tickfixer_keepalive_packets_sent_total 1000",
		"tickfixer_keepalive_send_errors_total 3",
		"tickfixer_tick_warming_up 0",
		"tickfixer_tick_quality_percent 97.5",
		"tickfixer_tick_avg_ms 600.4",
		"tickfixer_tick_jitter_ms 8.25",
		"tickfixer_tick_last_delta_ms 598",
		"tickfixer_tick_samples 100",
		"",
	}, "\n")
	if got != expected {
		t.Fatalf("unexpected metrics output:\n%s", got)
	}
}

func TestWriteSnapshotStoppedAndWaiting(t *testing.T) {
	snapshot := state.Snapshot{
		Keepalive:   state.KeepaliveOff,
		Waiting:     true,
		Quality:     100.0,
		AverageMs:   600.0,
		LastDeltaMs: -1,
	}

	var buf bytes.Buffer
	writer := bufio.NewWriter(&buf)
	writeSnapshot(writer, snapshot)
	_ = writer.Flush()

	got := buf.String()
	for _, line := range []string{
		"tickfixer_keepalive_running 0",
		"tickfixer_tick_warming_up 1",
		"tickfixer_tick_last_delta_ms -1",
	} {
		if !strings.Contains(got, line+"\n") {
			t.Fatalf("expected line %q in output:\n%s", line, got)
		}
	}
}

func TestHandlerServesMetrics(t *testing.T) {
	source := fakeSource{snapshot: state.Snapshot{Keepalive: state.KeepalivePaused}}
	server := NewServer(source)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "tickfixer_keepalive_paused 1") {
		t.Fatalf("expected paused gauge in body:\n%s", rec.Body.String())
	}
}

func TestHandlerRejectsNonGet(t *testing.T) {
	server := NewServer(fakeSource{})

	req := httptest.NewRequest(http.MethodPost, "/metrics", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}
