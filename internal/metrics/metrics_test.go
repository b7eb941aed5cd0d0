package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestCollectorsExported(t *testing.T) {
	m := New()
	m.ObserveStep(time.Millisecond)
	m.ObserveStep(time.Millisecond)
	m.SubscriberJoined()
	m.SubscriberJoined()
	m.SubscriberLeft()
	m.EventDropped()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)

	for _, want := range []string{
		"netwatch_layout_ticks_total 2",
		"netwatch_layout_step_seconds_count 2",
		"netwatch_stream_subscribers 1",
		"netwatch_events_dropped_total 1",
	} {
		if !strings.Contains(string(body), want) {
			t.Fatalf("missing %q in exposition:\n%s", want, body)
		}
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveStep(time.Second)
	m.EventDropped()
	m.SubscriberJoined()
	m.SubscriberLeft()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != 404 {
		t.Fatalf("nil metrics should not expose an endpoint, got %d", rec.Code)
	}
}
