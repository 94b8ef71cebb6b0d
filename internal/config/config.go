// internal/config/config.go
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Bridge BridgeConfig `yaml:"bridge"`
}

type BridgeConfig struct {
	Device    DeviceConfig    `yaml:"device"`
	Poll      PollConfig      `yaml:"poll"`
	Monitor   MonitorConfig   `yaml:"monitor"`
	LeakCheck LeakCheckConfig `yaml:"leak_check"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	Mirror    *MirrorConfig   `yaml:"mirror"` // opt-in
	API       APIConfig       `yaml:"api"`
	Log       LogConfig       `yaml:"log"`
}

// ---- DEVICE ----

type DeviceConfig struct {
	Endpoint  string `yaml:"endpoint"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

// ---- POLL ----

type PollConfig struct {
	PeriodMs  int `yaml:"period_ms"`
	BackoffMs int `yaml:"backoff_ms"`
}

// ---- MEASUREMENT MODES ----

type MonitorConfig struct {
	Channel   int     `yaml:"channel"`
	StartMass float64 `yaml:"start_mass"`
	StopMass  float64 `yaml:"stop_mass"`
	PPAMU     int     `yaml:"ppamu"`
	Dwell     int     `yaml:"dwell"`
}

type LeakCheckConfig struct {
	Channel int     `yaml:"channel"`
	Mass    float64 `yaml:"mass"`
	Dwell   int     `yaml:"dwell"`
}

// ---- PUBLISHING ----

type MQTTConfig struct {
	Broker      string `yaml:"broker"`
	ClientID    string `yaml:"client_id"`
	TopicPrefix string `yaml:"topic_prefix"`
	QoS         int    `yaml:"qos"`
}

type MirrorConfig struct {
	Endpoint     string `yaml:"endpoint"`
	UnitID       uint8  `yaml:"unit_id"`
	BaseRegister uint16 `yaml:"base_register"`
	TimeoutMs    int    `yaml:"timeout_ms"`
}

// ---- SERVICE ----

type APIConfig struct {
	Listen string `yaml:"listen"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Load reads and parses a YAML config file. Validation and
// normalization are separate, explicit steps.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return &cfg, nil
}
