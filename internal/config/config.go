package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/zeusync/arcourse/internal/core/geometry"
	"github.com/zeusync/arcourse/internal/core/motion"
	"github.com/zeusync/arcourse/internal/core/observability/log"
	"github.com/zeusync/arcourse/internal/core/session"
	"github.com/zeusync/arcourse/internal/core/spawn"
)

var (
	ErrInvalidConfig     = errors.New("invalid configuration")
	ErrUnsupportedFormat = errors.New("unsupported config format")
)

// Config is the full runtime configuration of the server and replay tools.
type Config struct {
	Server  ServerConfig   `yaml:"server" toml:"server"`
	Track   geometry.Track `yaml:"track" toml:"track"`
	Player  motion.Config  `yaml:"player" toml:"player"`
	Spawner SpawnerConfig  `yaml:"spawner" toml:"spawner"`
	Game    GameConfig     `yaml:"game" toml:"game"`
}

type ServerConfig struct {
	ListenAddr   string        `yaml:"listen_addr" toml:"listen_addr"`
	MaxSessions  int           `yaml:"max_sessions" toml:"max_sessions"`
	ReadTimeout  time.Duration `yaml:"read_timeout" toml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" toml:"write_timeout"`
	// RateLimit caps client messages per second per session. Zero disables it.
	RateLimit int `yaml:"rate_limit" toml:"rate_limit"`
	// AccessToken, when set, must be passed as the token query parameter.
	AccessToken string `yaml:"access_token" toml:"access_token"`
	LogLevel    string `yaml:"log_level" toml:"log_level"`
	LogEncoding string `yaml:"log_encoding" toml:"log_encoding"`
}

type SpawnerConfig struct {
	spawn.Config `yaml:",inline"`
	AutoSpawn    bool `yaml:"auto_spawn" toml:"auto_spawn"`
}

type GameConfig struct {
	MaxFrameDelta float64 `yaml:"max_frame_delta" toml:"max_frame_delta"`
}

func Default() Config {
	return Config{
		Server: ServerConfig{
			ListenAddr:   "127.0.0.1:8080",
			MaxSessions:  64,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 5 * time.Second,
			RateLimit:    240,
			LogLevel:     "info",
			LogEncoding:  "json",
		},
		Track:   geometry.DefaultTrack(),
		Player:  motion.DefaultConfig(),
		Spawner: SpawnerConfig{Config: spawn.DefaultConfig(), AutoSpawn: true},
		Game:    GameConfig{MaxFrameDelta: 0.1},
	}
}

// Load reads a YAML (.yaml, .yml) or TOML (.toml) file on top of Default and
// validates the result.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	defer f.Close()

	var c Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		c, err = LoadYAML(f)
	case ".toml":
		c, err = LoadTOML(f)
	default:
		return Config{}, fmt.Errorf("load config %s: %w", path, ErrUnsupportedFormat)
	}
	if err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	return c, nil
}

// LoadYAML decodes YAML over the defaults. Unknown keys are rejected.
func LoadYAML(r io.Reader) (Config, error) {
	c := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, err
	}
	return c, c.Validate()
}

// LoadTOML decodes TOML over the defaults. Unknown keys are rejected.
func LoadTOML(r io.Reader) (Config, error) {
	c := Default()
	md, err := toml.NewDecoder(r).Decode(&c)
	if err != nil {
		return Config{}, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("%w: unknown key %s", ErrInvalidConfig, undecoded[0])
	}
	return c, c.Validate()
}

// WriteTOML encodes c, used to dump the effective configuration.
func WriteTOML(w io.Writer, c Config) error {
	return toml.NewEncoder(w).Encode(c)
}

// Validate checks value ranges. All problems are reported together.
func (c Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
		}
	}

	check(c.Server.ListenAddr != "", "server.listen_addr is empty")
	check(c.Server.MaxSessions > 0, "server.max_sessions must be positive, got %d", c.Server.MaxSessions)
	check(c.Server.ReadTimeout >= 0, "server.read_timeout is negative")
	check(c.Server.WriteTimeout >= 0, "server.write_timeout is negative")
	check(c.Server.RateLimit >= 0, "server.rate_limit is negative")
	_, err := log.ParseLevel(c.Server.LogLevel)
	check(err == nil, "server.log_level %q", c.Server.LogLevel)
	check(c.Server.LogEncoding == "" || c.Server.LogEncoding == "json" || c.Server.LogEncoding == "console",
		"server.log_encoding %q", c.Server.LogEncoding)

	t := c.Track
	check(t.Width > 0, "track.width must be positive")
	check(t.Length > 0, "track.length must be positive")
	check(t.Speed > 0, "track.speed must be positive")
	check(t.LaneOffset >= 0 && t.LaneOffset < t.Width/2, "track.lane_offset must lie inside the track")

	p := c.Player
	check(p.HeadRadius > 0, "player.head_radius must be positive")
	check(p.DuckDelta > 0, "player.duck_delta must be positive")
	check(p.JumpVelocity > 0, "player.jump_velocity must be positive")
	check(p.JumpDebounce >= 0, "player.jump_debounce is negative")
	check(p.CalibrationWindow >= 0, "player.calibration_window is negative")
	check(p.CalibrationSamples >= 1, "player.calibration_samples must be at least 1")
	check(p.PositionSmoothing > 0 && p.PositionSmoothing <= 1, "player.position_smoothing must be in (0, 1]")
	check(p.VelocitySmoothing > 0 && p.VelocitySmoothing <= 1, "player.velocity_smoothing must be in (0, 1]")
	check(p.MinSampleInterval > 0, "player.min_sample_interval must be positive")

	s := c.Spawner
	check(s.BarWeight >= 0 && s.GateWeight >= 0 && s.HurdleWeight >= 0, "spawner weights must not be negative")
	check(s.BarWeight+s.GateWeight+s.HurdleWeight > 0, "spawner weights sum to zero")
	check(s.MinInterval > 0 && s.MinInterval <= s.MaxInterval, "spawner.min_interval must be positive and not above max_interval")
	check(s.FirstInterval >= 0, "spawner.first_interval is negative")
	check(s.SlowSpeed != s.FastSpeed, "spawner.slow_speed and fast_speed must differ")

	check(c.Game.MaxFrameDelta >= 0, "game.max_frame_delta is negative")

	return errors.Join(errs...)
}

// LogLevel returns the parsed server log level, defaulting to info.
func (c Config) LogLevel() log.Level {
	l, _ := log.ParseLevel(c.Server.LogLevel)
	return l
}

// Session builds the per-session gameplay configuration.
func (c Config) Session() session.Config {
	return session.Config{
		Track:         c.Track,
		Player:        c.Player,
		Spawner:       c.Spawner.Config,
		AutoSpawn:     c.Spawner.AutoSpawn,
		MaxFrameDelta: c.Game.MaxFrameDelta,
	}
}
