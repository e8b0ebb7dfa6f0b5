package bridgecfg

import (
	"log/slog"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Watcher reloads Config from disk whenever the backing file changes,
// via viper's own fsnotify-backed WatchConfig, and diffs the enabled
// adapter set across reloads so callers only hear about what actually
// changed — spec.md §4.4's "On runtime enable/disable (reconfiguration):
// idempotently starts/stops the corresponding handle" needs exactly a
// diff, not the whole new list, since starting an already-running
// adapter is a deliberate no-op at the Coordinator layer but there is no
// reason to call SetEnabled for prefixes that didn't change.
type Watcher struct {
	v       *viper.Viper
	path    string
	current *Config
}

// NewWatcher loads configPath once via Load and returns a Watcher ready
// to track further changes to it. configPath must be non-empty — a
// file-less configuration has nothing to watch.
func NewWatcher(configPath string) (*Watcher, error) {
	cfg, err := Load(configPath)
	if err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	return &Watcher{v: v, path: configPath, current: cfg}, nil
}

// Current returns the most recently loaded configuration.
func (w *Watcher) Current() *Config {
	return w.current
}

// OnChange starts watching the config file and invokes onEnabledDiff
// with (prefix, enabled) once per adapter prefix whose enabled state
// changed in the new file content, relative to the previous load. Call
// once; viper.WatchConfig spawns its own internal goroutine for the
// lifetime of the process.
func (w *Watcher) OnChange(onEnabledDiff func(prefix string, enabled bool)) {
	w.v.OnConfigChange(func(e fsnotify.Event) {
		var next Config
		if err := w.v.Unmarshal(&next); err != nil {
			slog.Error("bridgecfg: failed to reload config", "err", err)
			return
		}

		prevEnabled := toSet(w.current.Enabled)
		nextEnabled := toSet(next.Enabled)

		for prefix := range nextEnabled {
			if !prevEnabled[prefix] {
				onEnabledDiff(prefix, true)
			}
		}
		for prefix := range prevEnabled {
			if !nextEnabled[prefix] {
				onEnabledDiff(prefix, false)
			}
		}

		w.current = &next
		slog.Info("bridgecfg: reloaded configuration", "enabled", next.Enabled)
	})
	w.v.WatchConfig()
}

func toSet(prefixes []string) map[string]bool {
	out := make(map[string]bool, len(prefixes))
	for _, p := range prefixes {
		out[p] = true
	}
	return out
}
