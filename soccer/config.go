package soccer

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// WorldConfig parametrizes the kinematic World
type WorldConfig struct {
	// Floor extends over |x| <= HalfWidth, |z| <= HalfDepth
	HalfWidth float64 `yaml:"half_width" json:"half_width"`
	HalfDepth float64 `yaml:"half_depth" json:"half_depth"`
	Gravity   float64 `yaml:"gravity" json:"gravity"`
	// ContactRadius is the agent to ball distance at which they touch
	ContactRadius float64 `yaml:"contact_radius" json:"contact_radius"`
	// PushFactor scales the agent speed handed to the ball on contact
	PushFactor float64 `yaml:"push_factor" json:"push_factor"`
	// Friction is the fraction of ball speed lost per second
	Friction float64 `yaml:"friction" json:"friction"`
}

// SceneConfig is everything needed to build an Env
type SceneConfig struct {
	SpeedMultiplier float64 `yaml:"speed_multiplier" json:"speed_multiplier"`
	DeltaTime       float64 `yaml:"delta_time" json:"delta_time"`
	// State hashing resolution used by tabular policies and coverage
	HashCell       float64 `yaml:"hash_cell" json:"hash_cell"`
	HashYawBuckets int     `yaml:"hash_yaw_buckets" json:"hash_yaw_buckets"`

	World WorldConfig `yaml:"world" json:"world"`
}

func DefaultWorldConfig() WorldConfig {
	return WorldConfig{
		HalfWidth:     15,
		HalfDepth:     10,
		Gravity:       9.81,
		ContactRadius: 1.0,
		PushFactor:    1.2,
		Friction:      1.5,
	}
}

func DefaultSceneConfig() SceneConfig {
	return SceneConfig{
		SpeedMultiplier: DefaultSpeedMultiplier,
		DeltaTime:       DefaultDeltaTime,
		HashCell:        2.0,
		HashYawBuckets:  8,
		World:           DefaultWorldConfig(),
	}
}

func (c SceneConfig) Validate() error {
	if c.SpeedMultiplier <= 0 {
		return fmt.Errorf("speed_multiplier must be positive")
	}
	if c.DeltaTime <= 0 {
		return fmt.Errorf("delta_time must be positive")
	}
	if c.HashCell <= 0 {
		return fmt.Errorf("hash_cell must be positive")
	}
	if c.HashYawBuckets <= 0 {
		return fmt.Errorf("hash_yaw_buckets must be positive")
	}
	w := c.World
	if w.HalfWidth <= 0 || w.HalfDepth <= 0 {
		return fmt.Errorf("world floor extents must be positive")
	}
	if w.HalfWidth < TargetSpawnX.Max || w.HalfWidth < -TargetSpawnX.Min || w.HalfWidth < AgentSpawnX.Max || w.HalfDepth < AgentSpawnZ.Max {
		return fmt.Errorf("world floor %.1fx%.1f does not cover the spawn regions", 2*w.HalfWidth, 2*w.HalfDepth)
	}
	if w.Gravity < 0 || w.ContactRadius <= 0 || w.PushFactor < 0 || w.Friction < 0 {
		return fmt.Errorf("world gravity, push_factor and friction must be non-negative and contact_radius positive")
	}
	return nil
}

// LoadSceneConfig reads a YAML scene file. Fields missing from the file
// keep their default values.
func LoadSceneConfig(path string) (SceneConfig, error) {
	cfg := DefaultSceneConfig()
	bs, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading scene config: %w", err)
	}
	if err := yaml.Unmarshal(bs, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing scene config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid scene config %s: %w", path, err)
	}
	return cfg, nil
}
