package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Engine    EngineConfig    `toml:"engine"`
	ECS       ECSConfig       `toml:"ecs"`
	Proxy     ProxyConfig     `toml:"proxy"`
	Resources ResourcesConfig `toml:"resources"`
	Scripting ScriptingConfig `toml:"scripting"`
	Logging   LoggingConfig   `toml:"logging"`
	Profile   ProfileConfig   `toml:"profile"`
}

type EngineConfig struct {
	Name      string        `toml:"name"`
	TickRate  time.Duration `toml:"tick_rate"`
	MaxTicks  int           `toml:"max_ticks"` // 0 runs until interrupted
	StartTime int64         // set at boot, not from config
}

type ECSConfig struct {
	PageSize        int               `toml:"page_size"`
	InitialCapacity int               `toml:"initial_capacity"`
	Policies        map[string]string `toml:"policies"` // component type name -> default|packed|flag
}

type ProxyConfig struct {
	SweepEvery int `toml:"sweep_every"` // ticks between orphan sweeps, 0 disables
}

type ResourcesConfig struct {
	Manifest string `toml:"manifest"`
	Root     string `toml:"root"`
	Watch    bool   `toml:"watch"`
}

type ScriptingConfig struct {
	Dir string `toml:"dir"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

type ProfileConfig struct {
	Mode string `toml:"mode"` // "", "cpu", "mem" or "trace"
	Path string `toml:"path"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	cfg.Engine.StartTime = time.Now().Unix()
	return cfg, nil
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := defaults()
	cfg.Engine.StartTime = time.Now().Unix()
	return cfg
}

func (c *Config) validate() error {
	if c.ECS.PageSize <= 0 || c.ECS.PageSize&(c.ECS.PageSize-1) != 0 {
		return fmt.Errorf("ecs.page_size %d must be a positive power of two", c.ECS.PageSize)
	}
	if c.Engine.TickRate <= 0 {
		return fmt.Errorf("engine.tick_rate must be positive")
	}
	switch c.Profile.Mode {
	case "", "cpu", "mem", "trace":
	default:
		return fmt.Errorf("profile.mode %q not supported", c.Profile.Mode)
	}
	return nil
}

func defaults() *Config {
	return &Config{
		Engine: EngineConfig{
			Name:     "LEapsGL",
			TickRate: 16 * time.Millisecond,
		},
		ECS: ECSConfig{
			PageSize:        4096,
			InitialCapacity: 1024,
			Policies:        map[string]string{},
		},
		Proxy: ProxyConfig{
			SweepEvery: 60,
		},
		Resources: ResourcesConfig{
			Manifest: "resources/manifest.yaml",
			Root:     "resources",
			Watch:    true,
		},
		Scripting: ScriptingConfig{
			Dir: "scripts",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Profile: ProfileConfig{
			Path: ".",
		},
	}
}
