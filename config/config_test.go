package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(`
strategies: [mcts, dfs]
seed: 42
max_steps: 1000
batching:
  time: 5s
  instructions: 10000
merge:
  enabled: true
  incomplete: true
simulation:
  enabled: true
  memoize: true
  remote: localhost:7000
`))
	require.NoError(t, err)

	assert.Equal(t, []string{"mcts", "dfs"}, cfg.Strategies)
	assert.Equal(t, int64(42), cfg.Seed)
	assert.Equal(t, 1000, cfg.MaxSteps)
	assert.Equal(t, 5*time.Second, cfg.Batching.Time)
	assert.Equal(t, uint64(10000), cfg.Batching.Instructions)
	assert.Equal(t, Merge{Enabled: true, Incomplete: true}, cfg.Merge)
	assert.Equal(t, Simulation{Enabled: true, Memoize: true, Limit: 3, Depth: 64, Remote: "localhost:7000"}, cfg.Simulation)

	// Left out fields keep their defaults
	assert.Equal(t, 3, cfg.TagWidth)
	assert.True(t, cfg.CompactTree)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"noStrategies", func(c *Config) { c.Strategies = nil }},
		{"unknownStrategy", func(c *Config) { c.Strategies = []string{"nurs:unknown"} }},
		{"tagWidthZero", func(c *Config) { c.TagWidth = 0 }},
		{"tagWidthTooLarge", func(c *Config) { c.TagWidth = 9 }},
		{"tooManyPaths", func(c *Config) {
			c.TagWidth = 1
			c.Strategies = []string{"random-path", "random-path"}
		}},
		{"negativeSteps", func(c *Config) { c.MaxSteps = -1 }},
		{"negativeBatching", func(c *Config) { c.Batching.Time = -time.Second }},
		{"simulationWithoutMCTS", func(c *Config) { c.Simulation.Enabled = true }},
		{"simulationWithoutDepth", func(c *Config) {
			c.Strategies = []string{"mcts"}
			c.Simulation = Simulation{Enabled: true}
		}},
		{"memoizeWithoutLimit", func(c *Config) {
			c.Strategies = []string{"mcts"}
			c.Simulation = Simulation{Enabled: true, Memoize: true, Depth: 10}
		}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := Default()
			test.modify(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestParseErrors(t *testing.T) {
	_, err := Parse([]byte(`strategies: [`))
	assert.Error(t, err)

	_, err = Parse([]byte(`tag_width: 12`))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("strategies: [bfs]\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"bfs"}, cfg.Strategies)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
