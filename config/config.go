package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrNilConfig is returned when a nil tuning is supplied where one is required.
var ErrNilConfig = errors.New("config: nil config")

// Duration wraps time.Duration so tuning files can use values like "150ms" or "2s".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("config: duration must be a scalar, got %v", value.Kind)
	}
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("config: parse duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config is the full tuning surface for a bout.
type Config struct {
	Arena  ArenaConfig  `yaml:"arena"`
	Combat CombatConfig `yaml:"combat"`
	Bout   BoutConfig   `yaml:"bout"`
}

// ArenaConfig tunes the physical space fighters move in.
type ArenaConfig struct {
	Width         float64 `yaml:"width"`
	Height        float64 `yaml:"height"`
	Gravity       float64 `yaml:"gravity"`
	FighterWidth  float64 `yaml:"fighter_width"`
	FighterHeight float64 `yaml:"fighter_height"`
	FighterMass   float64 `yaml:"fighter_mass"`
	MoveSpeed     float64 `yaml:"move_speed"`
	JumpSpeed     float64 `yaml:"jump_speed"`
	Friction      float64 `yaml:"friction"`
}

// CombatConfig tunes swings, knockback, and ragdoll recovery.
type CombatConfig struct {
	AttackRange       float64  `yaml:"attack_range"`
	AttackDuration    Duration `yaml:"attack_duration"`
	SampleCount       int      `yaml:"sample_count"`
	PushMagnitude     float64  `yaml:"push_magnitude"`
	UpwardBias        float64  `yaml:"upward_bias"`
	RagdollDuration   Duration `yaml:"ragdoll_duration"`
	ImpulseExpiry     Duration `yaml:"impulse_expiry"`
	JumpRecoveryDelay Duration `yaml:"jump_recovery_delay"`
}

// BoutConfig tunes the demo bout runner.
type BoutConfig struct {
	TickRate      int      `yaml:"tick_rate"`
	Fighters      int      `yaml:"fighters"`
	ThinkInterval Duration `yaml:"think_interval"`
	Script        string   `yaml:"script"`
}

// DefaultConfig returns the documented fallback tuning.
func DefaultConfig() *Config {
	return &Config{
		Arena: ArenaConfig{
			Width:         60,
			Height:        30,
			Gravity:       50,
			FighterWidth:  1.0,
			FighterHeight: 2.0,
			FighterMass:   1.0,
			MoveSpeed:     8,
			JumpSpeed:     18,
			Friction:      0.8,
		},
		Combat: CombatConfig{
			AttackRange:       10,
			AttackDuration:    Duration(450 * time.Millisecond),
			SampleCount:       5,
			PushMagnitude:     28,
			UpwardBias:        0.3,
			RagdollDuration:   Duration(2 * time.Second),
			ImpulseExpiry:     Duration(150 * time.Millisecond),
			JumpRecoveryDelay: Duration(300 * time.Millisecond),
		},
		Bout: BoutConfig{
			TickRate:      60,
			Fighters:      4,
			ThinkInterval: Duration(100 * time.Millisecond),
			Script:        "",
		},
	}
}

// Load reads a tuning file and overlays it on the defaults.
// Fields missing from the file keep their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects tunings the simulation cannot run with.
func (c *Config) Validate() error {
	if c == nil {
		return ErrNilConfig
	}
	if c.Arena.Width <= 0 || c.Arena.Height <= 0 {
		return fmt.Errorf("config: arena dimensions must be positive")
	}
	if c.Arena.FighterWidth <= 0 || c.Arena.FighterHeight <= 0 || c.Arena.FighterMass <= 0 {
		return fmt.Errorf("config: fighter dimensions and mass must be positive")
	}
	if c.Combat.AttackRange <= 0 {
		return fmt.Errorf("config: attack_range must be positive")
	}
	if c.Combat.AttackDuration <= 0 {
		return fmt.Errorf("config: attack_duration must be positive")
	}
	if c.Combat.SampleCount < 1 {
		return fmt.Errorf("config: sample_count must be at least 1")
	}
	if c.Combat.PushMagnitude <= 0 {
		return fmt.Errorf("config: push_magnitude must be positive")
	}
	if c.Combat.UpwardBias < 0 || c.Combat.UpwardBias > 1 {
		return fmt.Errorf("config: upward_bias must be in [0, 1]")
	}
	if c.Combat.RagdollDuration <= 0 {
		return fmt.Errorf("config: ragdoll_duration must be positive")
	}
	if c.Combat.ImpulseExpiry <= 0 {
		return fmt.Errorf("config: impulse_expiry must be positive")
	}
	if c.Combat.JumpRecoveryDelay < 0 {
		return fmt.Errorf("config: jump_recovery_delay must not be negative")
	}
	if c.Bout.TickRate < 1 {
		return fmt.Errorf("config: tick_rate must be at least 1")
	}
	return nil
}
