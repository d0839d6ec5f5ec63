package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Server      ServerConfig      `toml:"server"`
	Simulation  SimulationConfig  `toml:"simulation"`
	Destruction DestructionConfig `toml:"destruction"`
	Mesher      MesherConfig      `toml:"mesher"`
	Replication ReplicationConfig `toml:"replication"`
	Logging     LoggingConfig     `toml:"logging"`
}

type ServerConfig struct {
	Name string `toml:"name"`
	ID   int    `toml:"id"`
}

type SimulationConfig struct {
	TickRate time.Duration `toml:"tick_rate"`
}

// NonDivisiblePolicy decides what happens to objects flagged non-divisible
// when a cut reaches them.
type NonDivisiblePolicy string

const (
	NonDivisibleNone   NonDivisiblePolicy = "none"   // leave intact
	NonDivisibleFall   NonDivisiblePolicy = "fall"   // whole object becomes debris
	NonDivisibleRemove NonDivisiblePolicy = "remove" // delete from the scene
)

// DestructionConfig is the per-job settings snapshot: jobs copy it at
// submission, so changing it mid-flight never alters queued work.
type DestructionConfig struct {
	GridSize             float64 `toml:"grid_size"`
	MinGridSize          float64 `toml:"min_grid_size"`
	MaxDivisionsPerFrame int     `toml:"max_divisions_per_frame"`
	MaxOpsPerFrame       int     `toml:"max_ops_per_frame"`
	// UsePriorityQueue serves the most recent PriorityRecentN submissions
	// first. Old large jobs can starve indefinitely under sustained load;
	// that is a deliberate fairness tradeoff, tune rather than "fix".
	UsePriorityQueue   bool               `toml:"use_priority_queue"`
	PriorityRecentN    int                `toml:"priority_recent_n"`
	NonDivisiblePolicy NonDivisiblePolicy `toml:"non_divisible_policy"`
}

type MesherConfig struct {
	WorkerCount           int `toml:"worker_count"`
	TraversalsPerFrame    int `toml:"traversals_per_frame"`
	PartCreationsPerFrame int `toml:"part_creations_per_frame"`
}

type ReplicationConfig struct {
	PuppetMaxCount             int     `toml:"puppet_max_count"`
	PuppetReplicationFrequency float64 `toml:"puppet_replication_frequency"` // Hz
	PuppetSleepVelocity        float64 `toml:"puppet_sleep_velocity"`
	PuppetAnchorTimeout        float64 `toml:"puppet_anchor_timeout"` // seconds
	ClientTweenPuppets         bool    `toml:"client_tween_puppets"`
	ClientTweenDistanceLimit   float64 `toml:"client_tween_distance_limit"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := Defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Destruction.NonDivisiblePolicy {
	case NonDivisibleNone, NonDivisibleFall, NonDivisibleRemove:
	default:
		return fmt.Errorf("unknown non_divisible_policy %q", c.Destruction.NonDivisiblePolicy)
	}
	if c.Destruction.GridSize <= 0 {
		return fmt.Errorf("grid_size must be positive")
	}
	if c.Replication.PuppetMaxCount < 1 {
		return fmt.Errorf("puppet_max_count must be at least 1")
	}
	return nil
}

func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Name: "voxfall",
			ID:   1,
		},
		Simulation: SimulationConfig{
			TickRate: 50 * time.Millisecond,
		},
		Destruction: DestructionConfig{
			GridSize:             2.0,
			MinGridSize:          0.5,
			MaxDivisionsPerFrame: 4,
			MaxOpsPerFrame:       512,
			UsePriorityQueue:     false,
			PriorityRecentN:      3,
			NonDivisiblePolicy:   NonDivisibleNone,
		},
		Mesher: MesherConfig{
			WorkerCount:           2,
			TraversalsPerFrame:    256,
			PartCreationsPerFrame: 32,
		},
		Replication: ReplicationConfig{
			PuppetMaxCount:             64,
			PuppetReplicationFrequency: 10,
			PuppetSleepVelocity:        0.5,
			PuppetAnchorTimeout:        2.0,
			ClientTweenPuppets:         true,
			ClientTweenDistanceLimit:   40,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
