package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/mapsim/internal/diffusion"
	"github.com/san-kum/mapsim/internal/dynamo"
)

const (
	DefaultMap        = "StandardMap"
	DefaultSteps      = 1000
	DefaultQ          = 0.5
	DefaultP          = 0.5
	DefaultImageSize  = 256
	DefaultIterations = 1
	DefaultDataDir    = "./runs"
	DefaultMapsDir    = "./maps"
	DefaultTheme      = "cyberpunk"
)

type Config struct {
	Map       string             `yaml:"map"`
	DataDir   string             `yaml:"data_dir"`
	MapsDir   string             `yaml:"maps_dir"`
	Steps     int                `yaml:"steps"`
	Workers   int                `yaml:"workers"`
	Theme     string             `yaml:"theme"`
	LogLevel  string             `yaml:"log_level"`
	Initial   InitialConfig      `yaml:"initial"`
	Constants map[string]float64 `yaml:"constants,omitempty"`
	Image     ImageConfig        `yaml:"image"`
	Diffusion diffusion.Config   `yaml:"diffusion"`
}

// InitialConfig places Count starting points on a line from (Q, P) to
// (Q+SpreadQ, P+SpreadP). Count 1 is the single point (Q, P).
type InitialConfig struct {
	Q       float64 `yaml:"q"`
	P       float64 `yaml:"p"`
	Count   int     `yaml:"count"`
	SpreadQ float64 `yaml:"spread_q"`
	SpreadP float64 `yaml:"spread_p"`
}

type ImageConfig struct {
	Path       string `yaml:"path"`
	Size       int    `yaml:"size"`
	Iterations int    `yaml:"iterations"`
}

func DefaultConfig() *Config {
	return &Config{
		Map:      DefaultMap,
		DataDir:  DefaultDataDir,
		MapsDir:  DefaultMapsDir,
		Steps:    DefaultSteps,
		Theme:    DefaultTheme,
		LogLevel: "info",
		Initial: InitialConfig{
			Q:     DefaultQ,
			P:     DefaultP,
			Count: 1,
		},
		Image: ImageConfig{
			Size:       DefaultImageSize,
			Iterations: DefaultIterations,
		},
		Diffusion: diffusion.DefaultConfig(),
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if c.Steps < 1 {
		return dynamo.Invalid("steps", "must be at least 1, got %d", c.Steps)
	}
	if c.Workers < 0 {
		return dynamo.Invalid("workers", "must not be negative, got %d", c.Workers)
	}
	if c.Initial.Count < 1 {
		return dynamo.Invalid("initial.count", "must be at least 1, got %d", c.Initial.Count)
	}
	if c.Image.Size < 1 {
		return dynamo.Invalid("image.size", "must be at least 1, got %d", c.Image.Size)
	}
	if c.Image.Iterations < 0 {
		return dynamo.Invalid("image.iterations", "must not be negative, got %d", c.Image.Iterations)
	}
	return nil
}

// Apply copies preset constants and the initial point into c.
func (c *Config) Apply(p *Config) {
	if p == nil {
		return
	}
	if p.Map != "" {
		c.Map = p.Map
	}
	if p.Steps > 0 {
		c.Steps = p.Steps
	}
	c.Initial = p.Initial
	if c.Initial.Count < 1 {
		c.Initial.Count = 1
	}
	if len(p.Constants) > 0 {
		c.Constants = make(map[string]float64, len(p.Constants))
		for k, v := range p.Constants {
			c.Constants[k] = v
		}
	}
}
