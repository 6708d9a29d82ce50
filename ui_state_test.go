package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestUIConfigRoundTrip(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, path := loadUIConfig()
	if cfg.Theme != "" || cfg.WordWrap != 0 {
		t.Fatalf("missing config should yield defaults, got %+v", cfg)
	}

	cfg.Theme = "dark"
	cfg.WordWrap = 72
	if err := saveUIConfig(cfg, path); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, _ := loadUIConfig()
	if loaded.Theme != "dark" || loaded.WordWrap != 72 {
		t.Fatalf("round trip mismatch: %+v", loaded)
	}
}

func TestLoadUIConfigIgnoresCorruptFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	cfgDir := filepath.Join(dir, "nbfold")
	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(cfgDir, "ui.yaml"), []byte("{:broken"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, _ := loadUIConfig()
	if cfg.Theme != "" || cfg.WordWrap != 0 {
		t.Fatalf("corrupt config should degrade to defaults, got %+v", cfg)
	}
}
