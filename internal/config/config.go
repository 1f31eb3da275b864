package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/loykin/dumpkey/internal/logger"
)

// Config is the top-level TOML structure for the dumpkey daemon.
type Config struct {
	// InputDevice is the evdev node carrying the key events.
	InputDevice string `toml:"input_device" mapstructure:"input_device"`
	// DumpMode gates the force-dump halt; with it off the full gesture is
	// silently absorbed.
	DumpMode bool `toml:"dump_mode" mapstructure:"dump_mode"`
	// GracePeriod is how long to block after signaling a capture target.
	GracePeriod time.Duration `toml:"grace_period" mapstructure:"grace_period"`
	// TraceTarget and TombstoneTarget name the processes the chord-gated
	// capture requests go after.
	TraceTarget     string `toml:"trace_target" mapstructure:"trace_target"`
	TombstoneTarget string `toml:"tombstone_target" mapstructure:"tombstone_target"`

	Notify  NotifyConfig   `toml:"notify" mapstructure:"notify"`
	Server  ServerConfig   `toml:"server" mapstructure:"server"`
	Metrics MetricsConfig  `toml:"metrics" mapstructure:"metrics"`
	Journal JournalConfig  `toml:"journal" mapstructure:"journal"`
	History HistoryConfig  `toml:"history" mapstructure:"history"`
	Log     *logger.Config `toml:"log" mapstructure:"log"`
}

type NotifyConfig struct {
	// Socket is the unix datagram path listeners register on.
	Socket string `toml:"socket" mapstructure:"socket"`
}

type ServerConfig struct {
	Listen   string `toml:"listen" mapstructure:"listen"`
	BasePath string `toml:"base_path" mapstructure:"base_path"`
}

type MetricsConfig struct {
	Listen string `toml:"listen" mapstructure:"listen"`
}

type JournalConfig struct {
	// DSN selects the journal backend: sqlite path or postgres URL.
	DSN string `toml:"dsn" mapstructure:"dsn"`
}

type HistoryConfig struct {
	ClickHouseAddr  string `toml:"clickhouse_addr" mapstructure:"clickhouse_addr"`
	ClickHouseTable string `toml:"clickhouse_table" mapstructure:"clickhouse_table"`
}

// Default values applied when the file leaves them unset.
const (
	DefaultTraceTarget     = "system_server"
	DefaultTombstoneTarget = "system_server"
	DefaultNotifySocket    = "/run/dumpkey/notify.sock"
	DefaultListen          = "127.0.0.1:8080"
	DefaultBasePath        = "/api"
)

// Load parses a TOML config file.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}
	c.applyDefaults()
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.TraceTarget == "" {
		c.TraceTarget = DefaultTraceTarget
	}
	if c.TombstoneTarget == "" {
		c.TombstoneTarget = DefaultTombstoneTarget
	}
	if c.Notify.Socket == "" {
		c.Notify.Socket = DefaultNotifySocket
	}
	if c.Server.Listen == "" {
		c.Server.Listen = DefaultListen
	}
	if c.Server.BasePath == "" {
		c.Server.BasePath = DefaultBasePath
	}
	if c.History.ClickHouseTable == "" {
		c.History.ClickHouseTable = "trigger_events"
	}
}

func (c *Config) validate() error {
	if c.InputDevice == "" {
		return fmt.Errorf("input_device is required")
	}
	if c.GracePeriod < 0 {
		return fmt.Errorf("grace_period must not be negative")
	}
	return nil
}
