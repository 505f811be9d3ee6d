package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zeusync/arcourse/internal/core/observability/log"
)

func TestDefaultIsValid(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())

	sc := c.Session()
	require.True(t, sc.AutoSpawn)
	require.Equal(t, 0.1, sc.MaxFrameDelta)
	require.Equal(t, 1.8, sc.Track.Width)
	require.Equal(t, 0.40, sc.Spawner.BarWeight)
	require.Equal(t, log.LevelInfo, c.LogLevel())
}

func TestLoadYAML(t *testing.T) {
	src := `
server:
  listen_addr: ":9000"
  read_timeout: 3s
  log_level: debug
track:
  speed: 2.0
spawner:
  bar_weight: 1
  auto_spawn: false
`
	c, err := LoadYAML(strings.NewReader(src))
	require.NoError(t, err)
	require.Equal(t, ":9000", c.Server.ListenAddr)
	require.Equal(t, 3*time.Second, c.Server.ReadTimeout)
	require.Equal(t, log.LevelDebug, c.LogLevel())
	require.Equal(t, 2.0, c.Track.Speed)
	require.Equal(t, 1.8, c.Track.Width)
	require.Equal(t, 1.0, c.Spawner.BarWeight)
	require.Equal(t, 0.35, c.Spawner.GateWeight)
	require.False(t, c.Spawner.AutoSpawn)

	t.Run("empty document keeps defaults", func(t *testing.T) {
		c, err := LoadYAML(strings.NewReader(""))
		require.NoError(t, err)
		require.Equal(t, Default(), c)
	})

	t.Run("unknown key", func(t *testing.T) {
		_, err := LoadYAML(strings.NewReader("track:\n  colour: red\n"))
		require.Error(t, err)
	})
}

func TestLoadTOML(t *testing.T) {
	src := `
[server]
max_sessions = 4

[player]
duck_delta = 0.3

[spawner]
hurdle_weight = 0.5
auto_spawn = false

[game]
max_frame_delta = 0.05
`
	c, err := LoadTOML(strings.NewReader(src))
	require.NoError(t, err)
	require.Equal(t, 4, c.Server.MaxSessions)
	require.Equal(t, 0.3, c.Player.DuckDelta)
	require.Equal(t, 0.5, c.Spawner.HurdleWeight)
	require.False(t, c.Spawner.AutoSpawn)
	require.Equal(t, 0.05, c.Game.MaxFrameDelta)

	t.Run("unknown key", func(t *testing.T) {
		_, err := LoadTOML(strings.NewReader("[track]\ncolour = \"red\"\n"))
		require.ErrorIs(t, err, ErrInvalidConfig)
	})
}

func TestLoadByExtension(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "game.yml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("track:\n  length: 4\n"), 0o600))
	c, err := Load(yamlPath)
	require.NoError(t, err)
	require.Equal(t, 4.0, c.Track.Length)

	tomlPath := filepath.Join(dir, "game.toml")
	require.NoError(t, os.WriteFile(tomlPath, []byte("[track]\nlength = 5.0\n"), 0o600))
	c, err = Load(tomlPath)
	require.NoError(t, err)
	require.Equal(t, 5.0, c.Track.Length)

	jsonPath := filepath.Join(dir, "game.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte("{}"), 0o600))
	_, err = Load(jsonPath)
	require.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no sessions", func(c *Config) { c.Server.MaxSessions = 0 }},
		{"bad level", func(c *Config) { c.Server.LogLevel = "loud" }},
		{"bad encoding", func(c *Config) { c.Server.LogEncoding = "xml" }},
		{"zero width", func(c *Config) { c.Track.Width = 0 }},
		{"lane outside track", func(c *Config) { c.Track.LaneOffset = 1.0 }},
		{"smoothing above one", func(c *Config) { c.Player.PositionSmoothing = 1.5 }},
		{"no samples", func(c *Config) { c.Player.CalibrationSamples = 0 }},
		{"zero weights", func(c *Config) {
			c.Spawner.BarWeight, c.Spawner.GateWeight, c.Spawner.HurdleWeight = 0, 0, 0
		}},
		{"inverted intervals", func(c *Config) { c.Spawner.MinInterval = 2 }},
		{"negative frame delta", func(c *Config) { c.Game.MaxFrameDelta = -1 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := Default()
			tc.mutate(&c)
			require.ErrorIs(t, c.Validate(), ErrInvalidConfig)
		})
	}

	t.Run("reports every problem", func(t *testing.T) {
		c := Default()
		c.Track.Width = 0
		c.Game.MaxFrameDelta = -1
		err := c.Validate()
		require.Contains(t, err.Error(), "track.width")
		require.Contains(t, err.Error(), "game.max_frame_delta")
	})
}

func TestWriteTOML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTOML(&buf, Default()))
	out := buf.String()
	require.Contains(t, out, "[server]")
	require.Contains(t, out, "listen_addr = \"127.0.0.1:8080\"")
	require.Contains(t, out, "bar_weight = 0.4")
}
