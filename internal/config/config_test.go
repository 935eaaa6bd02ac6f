package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadTuningMissingFile(t *testing.T) {
	tu, err := LoadTuning(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if tu.ImproverCap != 400 {
		t.Fatalf("defaults not applied: cap=%d", tu.ImproverCap)
	}
}

func TestLoadTuningOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	body := []byte(`
lambda:
  wait: 0.9
improverCap: 50
cooldownMin:
  high: 90
paceMultipliers:
  fast: 0.7
`)
	if err := os.WriteFile(path, body, 0o600); err != nil {
		t.Fatal(err)
	}
	tu, err := LoadTuning(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if tu.LambdaWait != 0.9 {
		t.Fatalf("lambda.wait=%f", tu.LambdaWait)
	}
	if tu.ImproverCap != 50 {
		t.Fatalf("improverCap=%d", tu.ImproverCap)
	}
	if tu.CooldownMin["high"] != 90 {
		t.Fatalf("cooldown high=%f", tu.CooldownMin["high"])
	}
	// untouched fields keep defaults
	if tu.LambdaWalk != 0.3 {
		t.Fatalf("lambda.walk=%f", tu.LambdaWalk)
	}
	if tu.PaceMultipliers["slow"] != 1.3 {
		t.Fatalf("slow multiplier=%f", tu.PaceMultipliers["slow"])
	}
}

func TestLoadTuningBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("lambda: ["), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadTuning(path); err == nil {
		t.Fatalf("expected parse error")
	}
}
