package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"HeikinSentinel/internal/model"
)

const testConfig = `
universe:
  source: static
  fallback: [RY, TD, "REI.UN"]
data_source:
  provider: mock
  workers: 2
log:
  level: error
`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(testConfig), 0o644); err != nil {
		t.Fatal(err)
	}
	var out, errOut bytes.Buffer
	cmd := NewRootCmd(&out, &errOut)
	cmd.SetArgs(append([]string{"--config", path}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	if err != nil || !strings.Contains(out, Version) {
		t.Errorf("out=%q err=%v", out, err)
	}
}

func TestUniverse(t *testing.T) {
	out, err := run(t, "universe", "--json")
	if err != nil {
		t.Fatal(err)
	}
	var syms []string
	if err := json.Unmarshal([]byte(out), &syms); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if strings.Join(syms, ",") != "REI-UN.TO,RY.TO,TD.TO" {
		t.Errorf("symbols = %v", syms)
	}
}

func TestScan_JSON(t *testing.T) {
	out, err := run(t, "scan", "--json", "--cooldown", "0")
	if err != nil {
		t.Fatal(err)
	}
	var batch model.Batch
	if err := json.Unmarshal([]byte(out), &batch); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if batch.Source != "static" || len(batch.Results) != 3 || batch.ID == "" {
		t.Errorf("batch = %+v", batch)
	}
	for _, r := range batch.Results {
		if !r.OK() {
			t.Errorf("%s failed: %s", r.Symbol, r.Err)
		}
	}
}

func TestScan_Symbols(t *testing.T) {
	out, err := run(t, "scan", "--symbols", "bce, shop", "--cooldown", "0")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "source symbols") || !strings.Contains(out, "2 scanned") {
		t.Errorf("unexpected report:\n%s", out)
	}

	if _, err := run(t, "scan", "--symbols", "$$$"); err == nil {
		t.Error("expected error for no valid symbol")
	}
}

func TestScan_BadFlags(t *testing.T) {
	if _, err := run(t, "scan", "--period", "1y"); err == nil {
		t.Error("expected error for unsupported period")
	}
	if _, err := run(t, "scan", "--cooldown", "soon"); err == nil {
		t.Error("expected error for bad cooldown")
	}
}

func TestChart(t *testing.T) {
	out, err := run(t, "chart", "ry", "--last", "5")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "RY.TO Heikin-Ashi") {
		t.Errorf("unexpected chart:\n%s", out)
	}
	if _, err := run(t, "chart"); err == nil {
		t.Error("chart needs a symbol")
	}
}

func TestParseCooldown(t *testing.T) {
	tests := map[string]time.Duration{
		"100ms": 100 * time.Millisecond,
		"0.25":  250 * time.Millisecond,
		"0":     0,
		"1s":    time.Second,
	}
	for in, want := range tests {
		got, err := parseCooldown(in)
		if err != nil || got != want {
			t.Errorf("parseCooldown(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
}
