// Package config holds the configuration of an exploration.
//
// A configuration is read from YAML. Fields that are left out keep the values of Default.
package config

import (
	"fmt"
	"os"
	"time"

	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"
)

// The strategy names recognized in Config.Strategies
var KnownStrategies = []string{
	"dfs",
	"bfs",
	"random-state",
	"random-path",
	"nurs:depth",
	"nurs:rp",
	"nurs:icnt",
	"nurs:cpicnt",
	"nurs:qc",
	"nurs:md2u",
	"nurs:covnew",
	"mcts",
}

type Config struct {
	// The strategies of the exploration. More than one strategy are interleaved
	Strategies []string `yaml:"strategies"`
	// Seed of the random source. 0 draws a seed from the current time
	Seed int64 `yaml:"seed"`
	// The number of strategies that can track paths of the exploration tree
	TagWidth int `yaml:"tag_width"`
	// Splice out fork points left with a single child
	CompactTree bool `yaml:"compact_tree"`
	// Stop after the given number of steps. 0 means no limit
	MaxSteps int `yaml:"max_steps"`
	// Terminate states that branch at the given depth. 0 means no limit
	MaxDepth int `yaml:"max_depth"`
	// Pause states that exceed a doubling time quota
	IterativeDeepening bool `yaml:"iterative_deepening"`

	Batching   Batching   `yaml:"batching"`
	Merge      Merge      `yaml:"merge"`
	Simulation Simulation `yaml:"simulation"`
}

// Keep running a selected state within the budgets. A zero budget disables it
type Batching struct {
	Time         time.Duration `yaml:"time"`
	Instructions uint64        `yaml:"instructions"`
}

type Merge struct {
	Enabled bool `yaml:"enabled"`
	// Prioritize states that are about to reach a merge point
	Incomplete bool `yaml:"incomplete"`
	// Log preemptive releases of waiting states
	DebugLog bool `yaml:"debug_log"`
}

// Configures the rollouts of the mcts strategy
type Simulation struct {
	Enabled bool `yaml:"enabled"`
	// Skip rollouts at blocks whose rollouts stopped improving
	Memoize bool `yaml:"memoize"`
	// The number of rollouts without improvement before a block is skipped
	Limit int `yaml:"limit"`
	// The maximal number of steps of a rollout
	Depth int `yaml:"depth"`
	// Address of a rollout service. Rollouts run locally if empty
	Remote string `yaml:"remote"`
}

func Default() *Config {
	return &Config{
		Strategies:  []string{"random-path", "nurs:covnew"},
		TagWidth:    3,
		CompactTree: true,
		Simulation: Simulation{
			Limit: 3,
			Depth: 64,
		},
	}
}

// Parse a YAML configuration on top of Default and validate it
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: unable to parse configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Read, parse and validate the configuration stored at path
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: unable to read configuration: %w", err)
	}
	return Parse(data)
}

func (c *Config) Validate() error {
	if len(c.Strategies) == 0 {
		return fmt.Errorf("config: at least one strategy is required")
	}
	paths := 0
	for _, name := range c.Strategies {
		if !slices.Contains(KnownStrategies, name) {
			return fmt.Errorf("config: unknown strategy %q", name)
		}
		if name == "random-path" {
			paths++
		}
	}
	if c.TagWidth < 1 || c.TagWidth > 8 {
		return fmt.Errorf("config: tag_width %v outside [1, 8]", c.TagWidth)
	}
	if paths > c.TagWidth {
		return fmt.Errorf("config: %v random-path strategies need a tag_width of at least %v", paths, paths)
	}
	if c.MaxSteps < 0 || c.MaxDepth < 0 {
		return fmt.Errorf("config: max_steps and max_depth must not be negative")
	}
	if c.Batching.Time < 0 {
		return fmt.Errorf("config: negative batching time %v", c.Batching.Time)
	}
	if c.Simulation.Enabled {
		if !slices.Contains(c.Strategies, "mcts") {
			return fmt.Errorf("config: simulation requires the mcts strategy")
		}
		if c.Simulation.Depth < 1 {
			return fmt.Errorf("config: simulation depth must be positive, got %v", c.Simulation.Depth)
		}
		if c.Simulation.Memoize && c.Simulation.Limit < 1 {
			return fmt.Errorf("config: memoization requires a positive limit, got %v", c.Simulation.Limit)
		}
	}
	return nil
}
