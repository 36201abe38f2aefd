package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"rootfind/internal/problems"
	"rootfind/internal/roots"
)

// EnvConfig names the variable pointing at a config file.
const EnvConfig = "ROOTFIND_CONFIG"

// Config holds the complete application configuration
type Config struct {
	Server  ServerConfig  `toml:"server" yaml:"server"`
	Solver  SolverConfig  `toml:"solver" yaml:"solver"`
	History HistoryConfig `toml:"history" yaml:"history"`
	Log     LogConfig     `toml:"log" yaml:"log"`
}

type ServerConfig struct {
	Addr         string   `toml:"addr" yaml:"addr"`
	StaticDir    string   `toml:"static_dir" yaml:"static_dir"`
	ReadTimeout  Duration `toml:"read_timeout" yaml:"read_timeout"`
	WriteTimeout Duration `toml:"write_timeout" yaml:"write_timeout"`
	// PlotPoints is the number of f(x) samples returned when a run starts.
	PlotPoints int `toml:"plot_points" yaml:"plot_points"`
}

// SolverConfig holds defaults for requests that omit them
type SolverConfig struct {
	Tolerance float64 `toml:"tolerance" yaml:"tolerance"`
	Problem   string  `toml:"problem" yaml:"problem"`
	Method    string  `toml:"method" yaml:"method"`
}

// HistoryConfig points at the SQLite run history; an empty path disables it.
type HistoryConfig struct {
	Path string `toml:"path" yaml:"path"`
}

type LogConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"`
}

// Duration wraps time.Duration for "30s"-style values.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:         ":8080",
			StaticDir:    "static",
			ReadTimeout:  Duration{10 * time.Second},
			WriteTimeout: Duration{0},
			PlotPoints:   400,
		},
		Solver: SolverConfig{
			Tolerance: 0.5,
			Problem:   "p1",
			Method:    string(roots.MethodBisection),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a TOML or YAML file on top of the defaults.
func Load(path string) (*Config, error) {
	path = os.ExpandEnv(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	default:
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromEnv loads the file named by ROOTFIND_CONFIG, else the first of
// the default locations that exists, else the defaults.
func LoadFromEnv() (*Config, error) {
	if path := os.Getenv(EnvConfig); path != "" {
		return Load(path)
	}
	for _, p := range []string{"./configs/config.toml", "./config.toml", "./config.yaml"} {
		if _, err := os.Stat(p); err == nil {
			return Load(p)
		}
	}
	return Default(), nil
}

// Validate checks the solver defaults.
func (c *Config) Validate() error {
	if err := roots.ValidateTolerance(c.Solver.Tolerance); err != nil {
		return fmt.Errorf("solver.tolerance: %w", err)
	}
	if _, err := roots.ParseMethod(c.Solver.Method); err != nil {
		return fmt.Errorf("solver.method: %w", err)
	}
	if _, ok := problems.Lookup(c.Solver.Problem); !ok {
		return fmt.Errorf("solver.problem: unknown problem %q", c.Solver.Problem)
	}
	if c.Server.PlotPoints < 2 {
		return fmt.Errorf("server.plot_points: need at least 2, got %d", c.Server.PlotPoints)
	}
	return nil
}
