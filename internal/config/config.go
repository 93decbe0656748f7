package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// FileName is the conventional config file name.
const FileName = "spark.yml"

// Defaults applied by Validate when a field is omitted.
const (
	DefaultTickInterval   = 10 * time.Millisecond
	DefaultBreathInterval = 30
	DefaultRebootDelay    = 1000
	DefaultQueueSize      = 256
)

// SparkConfig represents the top-level spark.yml configuration
type SparkConfig struct {
	Version    string           `yaml:"version"`
	Device     DeviceConfig     `yaml:"device"`
	Server     ServerConfig     `yaml:"server"`
	Loop       LoopConfig       `yaml:"loop"`
	Modules    ModulesConfig    `yaml:"modules"`
	Blackboard BlackboardConfig `yaml:"blackboard"`
	Health     HealthConfig     `yaml:"health"`
}

// DeviceConfig identifies the device
type DeviceConfig struct {
	Name       string `yaml:"name" env:"SPARK_DEVICE_NAME"`
	VerboseLED bool   `yaml:"verbose_led,omitempty" env:"SPARK_VERBOSE_LED"`
}

// ServerConfig points the device at its console
type ServerConfig struct {
	URL string `yaml:"url" env:"SPARK_SERVER_URL"`
}

// LoopConfig tunes the control loop
type LoopConfig struct {
	TickInterval time.Duration `yaml:"tick_interval,omitempty" env:"SPARK_TICK_INTERVAL"`
}

// ModulesConfig holds per-module settings
type ModulesConfig struct {
	Basic  BasicModuleConfig  `yaml:"basic"`
	System SystemModuleConfig `yaml:"system"`
}

// BasicModuleConfig tunes the LED and reboot timers, in milliseconds
type BasicModuleConfig struct {
	BreathInterval uint64 `yaml:"breath_interval,omitempty" env:"SPARK_BREATH_INTERVAL"`
	RebootDelay    uint64 `yaml:"reboot_delay,omitempty" env:"SPARK_REBOOT_DELAY"`
}

// SystemModuleConfig toggles the info / mock sensor module
type SystemModuleConfig struct {
	Disabled bool `yaml:"disabled,omitempty" env:"SPARK_SYSTEM_DISABLED"`
}

// BlackboardConfig enables event mirroring when RedisURL is set
type BlackboardConfig struct {
	RedisURL  string `yaml:"redis_url,omitempty" env:"SPARK_REDIS_URL"`
	QueueSize int    `yaml:"queue_size,omitempty" env:"SPARK_QUEUE_SIZE"`
}

// HealthConfig exposes /healthz; port 0 disables it
type HealthConfig struct {
	Port int `yaml:"port,omitempty" env:"SPARK_HEALTH_PORT"`
}

// Validate performs strict validation on the configuration and fills defaults
func (c *SparkConfig) Validate() error {
	// Required: version
	if c.Version != "1.0" {
		return fmt.Errorf("unsupported version: %s (expected: 1.0)", c.Version)
	}

	// Required: device name, used to namespace blackboard keys
	if c.Device.Name == "" {
		return fmt.Errorf("device.name is required")
	}
	if strings.ContainsAny(c.Device.Name, ": ") {
		return fmt.Errorf("device.name must not contain ':' or spaces: %q", c.Device.Name)
	}

	// Required: console URL
	if c.Server.URL == "" {
		return fmt.Errorf("server.url is required")
	}
	u, err := url.Parse(c.Server.URL)
	if err != nil {
		return fmt.Errorf("server.url is invalid: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("server.url must use ws:// or wss://, got %q", c.Server.URL)
	}
	if u.Host == "" {
		return fmt.Errorf("server.url has no host: %q", c.Server.URL)
	}

	if c.Loop.TickInterval == 0 {
		c.Loop.TickInterval = DefaultTickInterval
	}
	if c.Loop.TickInterval < time.Millisecond || c.Loop.TickInterval > time.Second {
		return fmt.Errorf("loop.tick_interval must be between 1ms and 1s, got %s", c.Loop.TickInterval)
	}

	if c.Modules.Basic.BreathInterval == 0 {
		c.Modules.Basic.BreathInterval = DefaultBreathInterval
	}
	if c.Modules.Basic.RebootDelay == 0 {
		c.Modules.Basic.RebootDelay = DefaultRebootDelay
	}

	if c.Blackboard.RedisURL != "" {
		if !strings.HasPrefix(c.Blackboard.RedisURL, "redis://") && !strings.HasPrefix(c.Blackboard.RedisURL, "rediss://") {
			return fmt.Errorf("blackboard.redis_url must use redis:// or rediss://, got %q", c.Blackboard.RedisURL)
		}
	}
	if c.Blackboard.QueueSize == 0 {
		c.Blackboard.QueueSize = DefaultQueueSize
	}
	if c.Blackboard.QueueSize < 0 {
		return fmt.Errorf("blackboard.queue_size must be > 0, got %d", c.Blackboard.QueueSize)
	}

	if c.Health.Port < 0 || c.Health.Port > 65535 {
		return fmt.Errorf("health.port must be between 0 and 65535, got %d", c.Health.Port)
	}

	return nil
}

// MirrorEnabled reports whether events are mirrored to a blackboard.
func (c *SparkConfig) MirrorEnabled() bool {
	return c.Blackboard.RedisURL != ""
}

// Load reads spark.yml from the specified path, applies SPARK_* environment
// overrides and validates the result
func Load(path string) (*SparkConfig, error) {
	return LoadWithEnv(path, nil)
}

// LoadWithEnv is Load with an explicit environment. A nil map reads the
// process environment.
func LoadWithEnv(path string, environ map[string]string) (*SparkConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config SparkConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if environ == nil {
		err = env.Parse(&config)
	} else {
		err = env.ParseWithOptions(&config, env.Options{Environment: environ})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}
