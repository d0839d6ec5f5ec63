package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "server.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[server]
name = "test-shard"
id = 7

[simulation]
tick_rate = 100000000 # nanoseconds

[destruction]
grid_size = 1.5
max_ops_per_frame = 64
non_divisible_policy = "fall"

[replication]
puppet_max_count = 16
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "test-shard", cfg.Server.Name)
	assert.Equal(t, 7, cfg.Server.ID)
	assert.Equal(t, 100*time.Millisecond, cfg.Simulation.TickRate)
	assert.Equal(t, 1.5, cfg.Destruction.GridSize)
	assert.Equal(t, 64, cfg.Destruction.MaxOpsPerFrame)
	assert.Equal(t, NonDivisibleFall, cfg.Destruction.NonDivisiblePolicy)
	assert.Equal(t, 16, cfg.Replication.PuppetMaxCount)

	// Untouched sections keep their defaults.
	assert.Equal(t, 4, cfg.Destruction.MaxDivisionsPerFrame)
	assert.Equal(t, 2, cfg.Mesher.WorkerCount)
	assert.Equal(t, 10.0, cfg.Replication.PuppetReplicationFrequency)
}

func TestLoadEmptyFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}

func TestLoadMalformedToml(t *testing.T) {
	_, err := Load(writeConfig(t, `[destruction`))
	assert.Error(t, err)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"unknown policy", "[destruction]\nnon_divisible_policy = \"explode\""},
		{"zero grid size", "[destruction]\ngrid_size = 0.0"},
		{"negative grid size", "[destruction]\ngrid_size = -2.0"},
		{"zero puppet cap", "[replication]\npuppet_max_count = 0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.body))
			assert.Error(t, err)
		})
	}
}
