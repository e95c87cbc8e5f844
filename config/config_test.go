package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tuning.yaml")
	data := []byte(`
combat:
  attack_range: 6
  ragdoll_duration: 1500ms
arena:
  gravity: 80
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write tuning: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Combat.AttackRange != 6 {
		t.Fatalf("attack_range = %f, want 6", cfg.Combat.AttackRange)
	}
	if cfg.Combat.RagdollDuration.Std() != 1500*time.Millisecond {
		t.Fatalf("ragdoll_duration = %v, want 1.5s", cfg.Combat.RagdollDuration.Std())
	}
	if cfg.Arena.Gravity != 80 {
		t.Fatalf("gravity = %f, want 80", cfg.Arena.Gravity)
	}
	// untouched fields keep their defaults
	def := DefaultConfig()
	if cfg.Combat.SampleCount != def.Combat.SampleCount {
		t.Fatalf("sample_count lost its default")
	}
	if cfg.Combat.ImpulseExpiry != def.Combat.ImpulseExpiry {
		t.Fatalf("impulse_expiry lost its default")
	}
}

func TestLoadRejectsInvalidTuning(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"zero_range", "combat:\n  attack_range: 0\n"},
		{"no_samples", "combat:\n  sample_count: 0\n"},
		{"bias_above_one", "combat:\n  upward_bias: 1.5\n"},
		{"bad_duration", "combat:\n  attack_duration: soon\n"},
		{"zero_arena", "arena:\n  width: 0\n"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "tuning.yaml")
			if err := os.WriteFile(path, []byte(c.body), 0o644); err != nil {
				t.Fatalf("write tuning: %v", err)
			}
			if _, err := Load(path); err == nil {
				t.Fatalf("invalid tuning accepted")
			}
		})
	}
}

func TestStoreReplaceValidates(t *testing.T) {
	store := NewStore(nil)
	if store.Current().Combat.SampleCount != DefaultConfig().Combat.SampleCount {
		t.Fatalf("nil seed did not fall back to defaults")
	}

	bad := DefaultConfig()
	bad.Combat.SampleCount = 0
	if err := store.Replace(bad); err == nil {
		t.Fatalf("invalid replacement accepted")
	}
	if store.Current().Combat.SampleCount == 0 {
		t.Fatalf("rejected replacement still swapped in")
	}

	good := DefaultConfig()
	good.Combat.AttackRange = 7
	if err := store.Replace(good); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if store.Current().Combat.AttackRange != 7 {
		t.Fatalf("replacement not visible")
	}
}

func TestWatcherReportsWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tuning.yaml")
	if err := os.WriteFile(path, []byte("combat:\n  attack_range: 6\n"), 0o644); err != nil {
		t.Fatalf("write tuning: %v", err)
	}

	w, err := NewWatcher(path)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer func() { _ = w.Close() }()

	if err := os.WriteFile(path, []byte("combat:\n  attack_range: 8\n"), 0o644); err != nil {
		t.Fatalf("rewrite tuning: %v", err)
	}

	select {
	case got := <-w.Events:
		if filepath.Clean(got) != filepath.Clean(path) {
			t.Fatalf("event for %s, want %s", got, path)
		}
	case err := <-w.Errors:
		t.Fatalf("watcher error: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatalf("no event within 5s of a write")
	}
}
