package server

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfigMatchesSpecDefaults(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Port != 9000 {
		t.Errorf("Port = %d, want 9000", cfg.Port)
	}
	if cfg.LameConnectionTimeout != 10*time.Second {
		t.Errorf("LameConnectionTimeout = %v, want 10s", cfg.LameConnectionTimeout)
	}
	if cfg.ReaperInterval != time.Second {
		t.Errorf("ReaperInterval = %v, want 1s", cfg.ReaperInterval)
	}
	if cfg.WaitTimeout != 500*time.Millisecond {
		t.Errorf("WaitTimeout = %v, want 500ms", cfg.WaitTimeout)
	}
	if cfg.BatchSize != 256 {
		t.Errorf("BatchSize = %d, want 256", cfg.BatchSize)
	}
}

func TestLoadConfigYAMLOverridesOnlyMentionedFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("port: 8080\nstatic_root: /var/www\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	cfg, err := LoadConfigYAML(path)
	if err != nil {
		t.Fatalf("LoadConfigYAML: %v", err)
	}
	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.StaticRoot != "/var/www" {
		t.Errorf("StaticRoot = %q, want /var/www", cfg.StaticRoot)
	}
	if cfg.LameConnectionTimeout != 10*time.Second {
		t.Errorf("LameConnectionTimeout = %v, want untouched default of 10s", cfg.LameConnectionTimeout)
	}
}

func TestLoadConfigYAMLMissingFile(t *testing.T) {
	if _, err := LoadConfigYAML(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected an error for a missing config file")
	}
}
