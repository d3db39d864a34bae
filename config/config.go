// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/physarum/systems"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Dispatch geometry shared by every compute backend.
const (
	// ParticleGroupSize is the 1D group size of the agent kernels (variant 1).
	ParticleGroupSize = systems.ParticleGroupSize
	// ParticleGroupSizeCompact is the 1D group size used by variant 2.
	ParticleGroupSizeCompact = systems.ParticleGroupSizeCompact
	// TrailTileSize is the edge of the 2D tile the field kernels run on.
	TrailTileSize = systems.TrailTileX
	// MaxGroupsPerDimension is the platform limit on groups in one dispatch dimension.
	MaxGroupsPerDimension = systems.MaxGroupsPerDimension

	// DegToRad converts the degree-valued runtime angles.
	DegToRad = 0.0174533
)

// Backend names accepted by compute.backend.
const (
	BackendCPU = "cpu"
	BackendGPU = "gpu"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Config holds all simulation configuration parameters.
type Config struct {
	Screen     ScreenConfig     `yaml:"screen"`
	Simulation SimulationConfig `yaml:"simulation"`
	Runtime    RuntimeConfig    `yaml:"runtime"`
	Pointer    PointerConfig    `yaml:"pointer"`
	Compute    ComputeConfig    `yaml:"compute"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
	PanelW    int `yaml:"panel_width"`
}

// SimulationConfig holds the allocation-time settings. Changing either size
// at runtime reallocates the matching resource.
type SimulationConfig struct {
	Particles      int    `yaml:"particles"`
	TrailDimension int    `yaml:"trail_dimension"`
	Seed           uint32 `yaml:"seed"`
	Variant        int    `yaml:"variant"` // 1 = 64-wide groups, 2 = 8-wide groups
	Active         bool   `yaml:"active"`
}

// RuntimeConfig holds the per-frame tunables in user units.
type RuntimeConfig struct {
	StartRadius          float64 `yaml:"start_radius"`
	Deposit              float64 `yaml:"deposit"`
	Decay                float64 `yaml:"decay"`
	SensorAngleDegrees   float64 `yaml:"sensor_angle_degrees"`
	RotationAngleDegrees float64 `yaml:"rotation_angle_degrees"`
	SensorOffsetDistance float64 `yaml:"sensor_offset_distance"`
	StepSize             float64 `yaml:"step_size"`
	Randomness           float64 `yaml:"randomness"`
	BlurRadius           int     `yaml:"blur_radius"` // 0 = identity, 1 = 3x3
}

// PointerConfig holds the interaction tunables.
type PointerConfig struct {
	Radius             float64 `yaml:"radius"`
	ChemicalA          float64 `yaml:"chemical_a"`
	ParticleAttraction float64 `yaml:"particle_attraction"`
}

// ComputeConfig selects the compute backend.
type ComputeConfig struct {
	Backend string `yaml:"backend"`
	Workers int    `yaml:"workers"` // 0 = GOMAXPROCS
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         float64 `yaml:"stats_window"`
	PerfCollectorWindow int     `yaml:"perf_collector_window"`
	CoverageThreshold   float64 `yaml:"coverage_threshold"`
	BookmarkHistory     int     `yaml:"bookmark_history"` // windows kept by the bookmark detector; 0 disables
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	SensorAngle    float32 // radians
	RotationAngle  float32 // radians
	GroupSize      int     // particle group size for the selected variant
	MaxParticles   int     // GroupSize * MaxGroupsPerDimension
	Particles      int     // Simulation.Particles after clamping
	TrailDimension int     // Simulation.TrailDimension after snapping
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Defaults returns a fresh copy of the embedded defaults.
func Defaults() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults are broken: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.ComputeDerived()

	return cfg, nil
}

// Validate rejects values that cannot be corrected locally. Sizes are not
// checked here; they are clamped or snapped during provisioning.
func (c *Config) Validate() error {
	r := c.Runtime
	if r.Decay < 0 || r.Decay > 1 || math.IsNaN(r.Decay) {
		return fmt.Errorf("%w: runtime.decay %v outside [0,1]", ErrInvalid, r.Decay)
	}
	if r.Deposit < 0 || math.IsNaN(r.Deposit) {
		return fmt.Errorf("%w: runtime.deposit %v is negative", ErrInvalid, r.Deposit)
	}
	if r.StartRadius < 0 {
		return fmt.Errorf("%w: runtime.start_radius %v is negative", ErrInvalid, r.StartRadius)
	}
	if r.StepSize < 0 || r.SensorOffsetDistance < 0 {
		return fmt.Errorf("%w: runtime step_size and sensor_offset_distance must be >= 0", ErrInvalid)
	}
	if r.BlurRadius < 0 {
		return fmt.Errorf("%w: runtime.blur_radius %d is negative", ErrInvalid, r.BlurRadius)
	}
	if c.Pointer.Radius < 0 {
		return fmt.Errorf("%w: pointer.radius %v is negative", ErrInvalid, c.Pointer.Radius)
	}
	switch c.Compute.Backend {
	case BackendCPU, BackendGPU:
	default:
		return fmt.Errorf("%w: unknown compute.backend %q", ErrInvalid, c.Compute.Backend)
	}
	switch c.Simulation.Variant {
	case 1, 2:
	default:
		return fmt.Errorf("%w: simulation.variant %d (want 1 or 2)", ErrInvalid, c.Simulation.Variant)
	}
	return nil
}

// ComputeDerived calculates values derived from loaded config. Call it again
// after editing the runtime or simulation sections in place.
func (c *Config) ComputeDerived() {
	c.Derived.SensorAngle = float32(c.Runtime.SensorAngleDegrees * DegToRad)
	c.Derived.RotationAngle = float32(c.Runtime.RotationAngleDegrees * DegToRad)

	c.Derived.GroupSize = ParticleGroupSize
	if c.Simulation.Variant == 2 {
		c.Derived.GroupSize = ParticleGroupSizeCompact
	}
	c.Derived.MaxParticles = c.Derived.GroupSize * MaxGroupsPerDimension

	c.Derived.Particles, _ = systems.ClampParticleCount(c.Simulation.Particles, c.Derived.GroupSize)
	c.Derived.TrailDimension, _ = systems.SnapTrailDimension(c.Simulation.TrailDimension)
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
