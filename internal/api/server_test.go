package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/example/netwatch/internal/metrics"
	"github.com/example/netwatch/simulation"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	srv, err := NewServer(Options{Metrics: metrics.New()})
	if err != nil {
		t.Fatalf("failed to build server: %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

func getJSON(t *testing.T, url string, into any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if into != nil {
		if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

func TestHealthAndSnapshot(t *testing.T) {
	_, ts := newTestServer(t)

	var health healthResponse
	if code := getJSON(t, ts.URL+"/health", &health); code != http.StatusOK || health.Status != "ok" {
		t.Fatalf("unexpected health response %d %+v", code, health)
	}

	var snap snapshotResponse
	if code := getJSON(t, ts.URL+"/topology/snapshot", &snap); code != http.StatusOK {
		t.Fatalf("unexpected status %d", code)
	}
	if len(snap.Snapshot.Nodes) != 10 || snap.Snapshot.Width != 800 {
		t.Fatalf("unexpected snapshot: %d nodes, width %v", len(snap.Snapshot.Nodes), snap.Snapshot.Width)
	}
}

func TestResize(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/topology/resize", "application/json", strings.NewReader(`{"width":1200,"height":700}`))
	if err != nil {
		t.Fatalf("resize request failed: %v", err)
	}
	var body snapshotResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode resize response: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || body.Snapshot.Width != 1200 || body.Snapshot.Height != 700 {
		t.Fatalf("unexpected resize response %d %+v", resp.StatusCode, body.Snapshot)
	}

	for _, payload := range []string{`{"width":0,"height":700}`, `not json`} {
		resp, err := http.Post(ts.URL+"/topology/resize", "application/json", strings.NewReader(payload))
		if err != nil {
			t.Fatalf("resize request failed: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("payload %s: expected 400, got %d", payload, resp.StatusCode)
		}
	}

	resp, err = http.Get(ts.URL + "/topology/resize")
	if err != nil {
		t.Fatalf("GET resize failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 for GET resize, got %d", resp.StatusCode)
	}
}

func TestTopologyReload(t *testing.T) {
	srv, ts := newTestServer(t)

	var inventory topologyResponse
	getJSON(t, ts.URL+"/topology", &inventory)
	if len(inventory.Devices) != 10 || len(inventory.Links) != 9 || len(inventory.Dangling) != 0 {
		t.Fatalf("unexpected inventory: %d devices, %d links, %d dangling",
			len(inventory.Devices), len(inventory.Links), len(inventory.Dangling))
	}
	before, _ := srv.sim.Snapshot().Position("n1")

	payload := `{
		"devices": [
			{"id": "n1", "name": "Main Firewall", "type": "firewall"},
			{"id": "db", "name": "Database", "type": "server", "status": "warning"}
		],
		"links": [
			{"source": "n1", "target": "db"},
			{"source": "db", "target": "ghost"}
		]
	}`
	resp, err := http.Post(ts.URL+"/topology", "application/json", strings.NewReader(payload))
	if err != nil {
		t.Fatalf("reload request failed: %v", err)
	}
	var body snapshotResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode reload response: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || len(body.Snapshot.Nodes) != 2 || len(body.Snapshot.Links) != 1 {
		t.Fatalf("unexpected reload response %d: %d nodes, %d links", resp.StatusCode, len(body.Snapshot.Nodes), len(body.Snapshot.Links))
	}
	if after, _ := body.Snapshot.Position("n1"); after != before {
		t.Fatalf("surviving device should keep its position: %+v -> %+v", before, after)
	}

	getJSON(t, ts.URL+"/topology", &inventory)
	if len(inventory.Devices) != 2 || len(inventory.Dangling) != 1 || inventory.Dangling[0].Target != "ghost" {
		t.Fatalf("inventory should reflect the reload: %+v", inventory)
	}

	for _, bad := range []string{
		`{"devices": [{"id": "x", "type": "router"}, {"id": "x", "type": "router"}]}`,
		`{"devices": [{"id": "x", "type": "toaster"}]}`,
		`{"devices": []}`,
		`not json`,
	} {
		resp, err := http.Post(ts.URL+"/topology", "application/json", strings.NewReader(bad))
		if err != nil {
			t.Fatalf("reload request failed: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("payload %s: expected 400, got %d", bad, resp.StatusCode)
		}
	}
	if got := len(srv.sim.Snapshot().Nodes); got != 2 {
		t.Fatalf("rejected reloads must keep the running layout, got %d nodes", got)
	}
}

func TestAlertsFilterAndSort(t *testing.T) {
	_, ts := newTestServer(t)

	var all alertsResponse
	getJSON(t, ts.URL+"/alerts", &all)
	if all.Matched != 10 || all.Total != 10 || all.Alerts[0].ID != "a1" {
		t.Fatalf("unexpected unfiltered alerts: matched %d first %s", all.Matched, all.Alerts[0].ID)
	}
	if all.Summary.Open != 6 || all.Summary.Closed != 4 {
		t.Fatalf("unexpected summary %+v", all.Summary)
	}

	var filtered alertsResponse
	getJSON(t, ts.URL+"/alerts?severity=critical,high&status=new", &filtered)
	if filtered.Matched != 2 || filtered.Showing != "Showing 2 of 10 alerts" || filtered.Filters != 3 {
		t.Fatalf("unexpected filtered alerts %+v", filtered)
	}

	var sorted alertsResponse
	getJSON(t, ts.URL+"/alerts?severity=critical&severity=high&sort=severity&dir=asc", &sorted)
	var ids []string
	for _, a := range sorted.Alerts {
		ids = append(ids, a.ID)
	}
	if got := strings.Join(ids, ","); got != "a2,a5,a6,a1,a7" {
		t.Fatalf("unexpected severity order %s", got)
	}

	var query alertsResponse
	getJSON(t, ts.URL+"/alerts?q=192.168.1.2", &query)
	if query.Matched != 1 || query.Alerts[0].ID != "a5" {
		t.Fatalf("query should match the source address, got %+v", query.Alerts)
	}

	if code := getJSON(t, ts.URL+"/alerts?sort=colour", nil); code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown sort field, got %d", code)
	}
	if code := getJSON(t, ts.URL+"/alerts?dir=sideways", nil); code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown direction, got %d", code)
	}
}

func TestThreatsAndTraffic(t *testing.T) {
	_, ts := newTestServer(t)

	var threats threatsResponse
	getJSON(t, ts.URL+"/threats?width=360&height=180", &threats)
	if threats.Summary.TotalCells != 72 || len(threats.Heatmap) != 72 {
		t.Fatalf("unexpected grid size %+v", threats.Summary)
	}
	if len(threats.Markers) != 8 || len(threats.Locations) != 8 {
		t.Fatalf("expected 8 markers, got %d", len(threats.Markers))
	}
	for _, m := range threats.Markers {
		if m.Point.X < 0 || m.Point.X > 360 || m.Point.Y < 0 || m.Point.Y > 180 {
			t.Fatalf("marker projected off canvas: %+v", m)
		}
	}
	if code := getJSON(t, ts.URL+"/threats?width=-5", nil); code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad width, got %d", code)
	}

	var traffic trafficResponse
	getJSON(t, ts.URL+"/traffic", &traffic)
	if len(traffic.Samples) != 12 || traffic.Normal != 5270 || traffic.Anomalies != 85 {
		t.Fatalf("unexpected traffic totals %+v", traffic)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv, ts := newTestServer(t)
	srv.sim.Step()
	srv.sim.Step()

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET metrics failed: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "netwatch_layout_ticks_total 2") {
		t.Fatalf("metrics should report two ticks:\n%s", body)
	}
}

func TestStreamPushesFrames(t *testing.T) {
	srv, ts := newTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.PumpEvents(ctx)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/topology/stream"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial stream: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var first simulation.Event
	if err := conn.ReadJSON(&first); err != nil {
		t.Fatalf("read initial frame: %v", err)
	}
	if first.Type != simulation.EventFrame || len(first.Snapshot.Nodes) != 10 {
		t.Fatalf("unexpected initial frame %+v", first.Type)
	}

	waitFor(t, func() bool { return srv.Hub().Len() == 1 })
	srv.sim.Step()

	for {
		var evt simulation.Event
		if err := conn.ReadJSON(&evt); err != nil {
			t.Fatalf("read frame: %v", err)
		}
		if evt.Type == simulation.EventFrame && evt.Snapshot.Tick == 1 {
			break
		}
	}

	conn.Close()
	waitFor(t, func() bool { return srv.Hub().Len() == 0 })
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met before deadline")
}
