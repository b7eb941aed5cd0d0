package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func init() {
	color.NoColor = true
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	dir := t.TempDir()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append(args,
		"--config", filepath.Join(dir, "config.toml"),
		"--env", filepath.Join(dir, ".env"),
	))
	err := root.Execute()
	return out.String(), err
}

func TestLayoutJSON(t *testing.T) {
	out, err := run(t, "layout", "--ticks", "120", "--seed", "5", "--width", "600", "--height", "400", "--json")
	if err != nil {
		t.Fatalf("layout failed: %v\n%s", err, out)
	}
	var res layoutResult
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode layout output: %v\n%s", err, out)
	}
	if res.Ticks != 120 || len(res.Nodes) != 10 {
		t.Fatalf("unexpected result: %d ticks, %d nodes", res.Ticks, len(res.Nodes))
	}
	for _, n := range res.Nodes {
		if n.Position.X < 30 || n.Position.X > 570 || n.Position.Y < 30 || n.Position.Y > 370 {
			t.Fatalf("node %s outside the padded viewport: %+v", n.ID, n.Position)
		}
	}

	again, err := run(t, "layout", "--ticks", "120", "--seed", "5", "--width", "600", "--height", "400", "--json")
	if err != nil {
		t.Fatalf("second layout failed: %v", err)
	}
	if again != out {
		t.Fatalf("same seed should reproduce the same layout")
	}
}

func TestLayoutTable(t *testing.T) {
	out, err := run(t, "layout", "--ticks", "10", "--seed", "1")
	if err != nil {
		t.Fatalf("layout failed: %v", err)
	}
	if !strings.Contains(out, "ticks 10, viewport 800x530") || !strings.Contains(out, "Main Firewall") {
		t.Fatalf("unexpected layout table:\n%s", out)
	}
}

func TestLayoutRejectsBadViewport(t *testing.T) {
	if _, err := run(t, "layout", "--width=-1"); err == nil {
		t.Fatalf("expected an error for a negative width")
	}
}

func TestAlertsFilters(t *testing.T) {
	out, err := run(t, "alerts", "--severity", "critical", "--status", "new,investigating")
	if err != nil {
		t.Fatalf("alerts failed: %v", err)
	}
	if !strings.Contains(out, "Showing 2 of 10 alerts (3 filters)") {
		t.Fatalf("unexpected footer:\n%s", out)
	}
	if !strings.Contains(out, "SQL injection") || strings.Contains(out, "Port scan") {
		t.Fatalf("unexpected rows:\n%s", out)
	}
	if !strings.Contains(out, "open 6, closed 4") {
		t.Fatalf("summary should cover every alert:\n%s", out)
	}

	if _, err := run(t, "alerts", "--dir", "up"); err == nil {
		t.Fatalf("expected an error for an unknown direction")
	}
	if _, err := run(t, "alerts", "--sort", "colour"); err == nil {
		t.Fatalf("expected an error for an unknown sort field")
	}
}

func TestThreatsSummary(t *testing.T) {
	out, err := run(t, "threats", "--lat-step", "30", "--lon-step", "90")
	if err != nil {
		t.Fatalf("threats failed: %v", err)
	}
	if !strings.Contains(out, "123 events from 8 locations") || !strings.Contains(out, "of 24 cells hot") {
		t.Fatalf("unexpected summary:\n%s", out)
	}
	if strings.Index(out, "New Delhi") > strings.Index(out, "Beijing") {
		t.Fatalf("busiest location should be listed first:\n%s", out)
	}

	if _, err := run(t, "threats", "--lat-step", "0"); err == nil {
		t.Fatalf("expected an error for a zero grid step")
	}
}
