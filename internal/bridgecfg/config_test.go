package bridgecfg

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadAppliesDefaultsWithNoFile(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("HTTPAddr = %q, want :8080", cfg.HTTPAddr)
	}
	if cfg.HQP.Port != 4321 {
		t.Fatalf("HQP.Port = %d, want 4321", cfg.HQP.Port)
	}
	if len(cfg.Enabled) != 0 {
		t.Fatalf("Enabled = %v, want empty", cfg.Enabled)
	}
}

func TestLoadReadsYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hifictl.yaml")
	contents := "enabled:\n  - hqp\n  - lms\nhttp_addr: \":9090\"\nhqp:\n  host: dsp.local\nlms:\n  host: lms.local\n  port: 9001\n"
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Enabled) != 2 || cfg.Enabled[0] != "hqp" || cfg.Enabled[1] != "lms" {
		t.Fatalf("Enabled = %v", cfg.Enabled)
	}
	if cfg.HTTPAddr != ":9090" {
		t.Fatalf("HTTPAddr = %q", cfg.HTTPAddr)
	}
	if cfg.HQP.Host != "dsp.local" {
		t.Fatalf("HQP.Host = %q", cfg.HQP.Host)
	}
	if cfg.LMS.Port != 9001 {
		t.Fatalf("LMS.Port = %d, want 9001 (file overrides default)", cfg.LMS.Port)
	}
}

func TestLoadMissingFileIsNotAnError(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(filepath.Join(dir, "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("Load: %v, want nil for a missing file", err)
	}
}

func TestLoadEnvironmentOverridesDefault(t *testing.T) {
	t.Setenv("HIFICTL_HTTP_ADDR", ":7070")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":7070" {
		t.Fatalf("HTTPAddr = %q, want :7070 from env", cfg.HTTPAddr)
	}
}
