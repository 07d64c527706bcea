package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
models:
  - name: MACE
    params:
      model_size: large
  - name: CHGNET
input_dir: ./structures
output_dir: ./out
prediction_type: energy
correction: false
test_size: 0.25
seed: 7
timeout_sec: 120
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Models) != 2 || cfg.Models[0].Name != "MACE" || cfg.Models[1].Name != "CHGNET" {
		t.Fatalf("models = %+v", cfg.Models)
	}
	if got := cfg.Models[0].Params["model_size"]; got != "large" {
		t.Fatalf("params not parsed: %v", cfg.Models[0].Params)
	}
	if cfg.InputDir != "./structures" || cfg.OutputDir != "./out" {
		t.Fatalf("paths = %q, %q", cfg.InputDir, cfg.OutputDir)
	}
	if cfg.CorrectionEnabled() {
		t.Fatalf("correction: false not honored")
	}
	if cfg.TestSize != 0.25 || cfg.Seed != 7 {
		t.Fatalf("split settings = %v, %v", cfg.TestSize, cfg.Seed)
	}
	if cfg.Timeout() != 2*time.Minute {
		t.Fatalf("timeout = %v", cfg.Timeout())
	}
}

func TestLoadJSON(t *testing.T) {
	path := writeConfig(t, "config.json", `{
  "models": [{"name": "MatterSim", "params": {"device": "cpu"}}],
  "traj_file": "run.extxyz"
}`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Models) != 1 || cfg.Models[0].Name != "MatterSim" {
		t.Fatalf("models = %+v", cfg.Models)
	}
	if cfg.TrajFile != "run.extxyz" {
		t.Fatalf("traj_file = %q", cfg.TrajFile)
	}
}

func TestLoadTOML(t *testing.T) {
	path := writeConfig(t, "config.toml", `
input_dir = "structures"
seed = 9

[[models]]
name = "EqV2"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Models) != 1 || cfg.Models[0].Name != "EqV2" {
		t.Fatalf("models = %+v", cfg.Models)
	}
	if cfg.Seed != 9 {
		t.Fatalf("seed = %d", cfg.Seed)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(""); err == nil {
		t.Errorf("empty path should fail")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Errorf("missing file should fail")
	}
	ini := writeConfig(t, "config.ini", "[models]\n")
	if _, err := Load(ini); err == nil {
		t.Errorf("unsupported extension should fail")
	}
	broken := writeConfig(t, "broken.yaml", "models: [")
	if _, err := Load(broken); err == nil {
		t.Errorf("malformed yaml should fail")
	}
}

func TestNormalizeDefaults(t *testing.T) {
	var cfg Config
	cfg.Normalize()
	if cfg.OutputDir != "results" {
		t.Errorf("output dir default = %q", cfg.OutputDir)
	}
	if cfg.TestSize != 0.2 {
		t.Errorf("test size default = %v", cfg.TestSize)
	}
	if cfg.Seed != 42 {
		t.Errorf("seed default = %v", cfg.Seed)
	}

	set := Config{OutputDir: "out", TestSize: 0.5, Seed: 3}
	set.Normalize()
	if set.OutputDir != "out" || set.TestSize != 0.5 || set.Seed != 3 {
		t.Errorf("explicit values overwritten: %+v", set)
	}
}

func TestCorrectionEnabledDefault(t *testing.T) {
	var cfg Config
	if !cfg.CorrectionEnabled() {
		t.Fatalf("correction should default to enabled")
	}
	on := true
	cfg.Correction = &on
	if !cfg.CorrectionEnabled() {
		t.Fatalf("explicit true not honored")
	}
	off := false
	cfg.Correction = &off
	if cfg.CorrectionEnabled() {
		t.Fatalf("explicit false not honored")
	}
}
