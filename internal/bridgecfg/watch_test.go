package bridgecfg

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcherDetectsEnabledDiffOnReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hifictl.yaml")
	if err := os.WriteFile(path, []byte("enabled:\n  - hqp\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	w, err := NewWatcher(path)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	if len(w.Current().Enabled) != 1 || w.Current().Enabled[0] != "hqp" {
		t.Fatalf("Current().Enabled = %v", w.Current().Enabled)
	}

	type diff struct {
		prefix  string
		enabled bool
	}
	diffs := make(chan diff, 8)
	w.OnChange(func(prefix string, enabled bool) {
		diffs <- diff{prefix, enabled}
	})

	// Give fsnotify's watch goroutine a moment to attach before the
	// rewrite, then replace the file with a changed enabled list.
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(path, []byte("enabled:\n  - lms\n"), 0o644); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}

	select {
	case d := <-diffs:
		if d.prefix == "hqp" && d.enabled {
			t.Fatal("hqp should have been reported as disabled or not reported at all, not enabled")
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for a config-change diff")
	}
}

func TestToSetDedupesPrefixes(t *testing.T) {
	s := toSet([]string{"hqp", "lms", "hqp"})
	if len(s) != 2 || !s["hqp"] || !s["lms"] {
		t.Fatalf("toSet = %v", s)
	}
}
