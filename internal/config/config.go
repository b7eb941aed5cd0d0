package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"

	"github.com/example/netwatch/layout"
	"github.com/example/netwatch/threatmap"
)

// Config holds netwatch configuration.
type Config struct {
	Server     ServerConfig         `toml:"server"`
	Canvas     CanvasConfig         `toml:"canvas"`
	Simulation SimulationConfig     `toml:"simulation"`
	Layout     layout.Params        `toml:"layout"`
	Threats    threatmap.GridConfig `toml:"threats"`
	Fixtures   FixturesConfig       `toml:"fixtures"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// CanvasConfig is the initial topology viewport in pixels.
type CanvasConfig struct {
	Width  float64 `toml:"width"`
	Height float64 `toml:"height"`
}

// SimulationConfig paces the layout loop.
type SimulationConfig struct {
	Tick Duration `toml:"tick"`
	Seed int64    `toml:"seed"` // 0 seeds from the clock
}

// FixturesConfig points at an on-disk dataset; empty uses the built-in one.
type FixturesConfig struct {
	Dir string `toml:"dir"`
}

// Duration decodes TOML strings such as "16ms".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Server:     ServerConfig{Addr: ":8080"},
		Canvas:     CanvasConfig{Width: 800, Height: 530},
		Simulation: SimulationConfig{Tick: Duration{16 * time.Millisecond}},
		Layout:     layout.DefaultParams(),
		Threats:    threatmap.GridConfig{LatStep: 30, LonStep: 30},
	}
}

// ConfigDir returns the netwatch config directory path.
func ConfigDir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "netwatch")
}

// Path is the default config file location.
func Path() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// LoadDotEnv exports variables from the given .env files. Missing files are
// skipped; variables already set in the environment win.
func LoadDotEnv(files ...string) error {
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Load reads path (Path() when empty) over the defaults, applies NETWATCH_*
// environment overrides and validates the result. A missing file is not an
// error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = Path()
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config to path.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

func (c *Config) applyEnv() error {
	var result *multierror.Error
	if v, ok := os.LookupEnv("NETWATCH_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := os.LookupEnv("NETWATCH_WIDTH"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("NETWATCH_WIDTH: %w", err))
		}
		c.Canvas.Width = f
	}
	if v, ok := os.LookupEnv("NETWATCH_HEIGHT"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("NETWATCH_HEIGHT: %w", err))
		}
		c.Canvas.Height = f
	}
	if v, ok := os.LookupEnv("NETWATCH_TICK"); ok {
		if err := c.Simulation.Tick.UnmarshalText([]byte(v)); err != nil {
			result = multierror.Append(result, fmt.Errorf("NETWATCH_TICK: %w", err))
		}
	}
	if v, ok := os.LookupEnv("NETWATCH_SEED"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("NETWATCH_SEED: %w", err))
		}
		c.Simulation.Seed = n
	}
	if v, ok := os.LookupEnv("NETWATCH_FIXTURES"); ok {
		c.Fixtures.Dir = v
	}
	return result.ErrorOrNil()
}

// Validate reports every problem in the configuration at once.
func (c *Config) Validate() error {
	var result *multierror.Error
	if c.Server.Addr == "" {
		result = multierror.Append(result, errors.New("server.addr cannot be empty"))
	}
	if c.Canvas.Width <= 0 || c.Canvas.Height <= 0 {
		result = multierror.Append(result, fmt.Errorf("canvas %vx%v: %w", c.Canvas.Width, c.Canvas.Height, layout.ErrInvalidViewport))
	}
	if c.Simulation.Tick.Duration <= 0 {
		result = multierror.Append(result, errors.New("simulation.tick must be positive"))
	}
	if err := c.Layout.Validate(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := c.Threats.Validate(); err != nil {
		result = multierror.Append(result, fmt.Errorf("threats: %w", err))
	}
	return result.ErrorOrNil()
}
