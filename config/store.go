package config

import "sync/atomic"

// Store holds the active tuning and allows hot swaps between swings.
// Readers snapshot the values they need at operation start, so a swap
// never changes an in-flight session.
type Store struct {
	current atomic.Pointer[Config]
}

// NewStore creates a store seeded with cfg, or the defaults when cfg is nil.
func NewStore(cfg *Config) *Store {
	s := &Store{}
	if cfg == nil {
		cfg = DefaultConfig()
	}
	s.current.Store(cfg)
	return s
}

// Current returns the active tuning. The returned value must not be mutated.
func (s *Store) Current() *Config {
	if s == nil {
		return DefaultConfig()
	}
	return s.current.Load()
}

// Replace swaps in a new tuning. Invalid or nil configs are rejected.
func (s *Store) Replace(cfg *Config) error {
	if s == nil || cfg == nil {
		return ErrNilConfig
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.current.Store(cfg)
	return nil
}
