package config

import (
	"fmt"
	"strconv"
)

// Config represents the persistent lectern configuration stored as config.toml
// in the .lectern/ directory. The TOML layout uses sections for logical grouping.
type Config struct {
	Version     int               `toml:"version"`
	Client      ClientConfig      `toml:"client"`
	Chat        ChatConfig        `toml:"chat"`
	EventStream EventStreamConfig `toml:"eventstream"`
	Replay      ReplayConfig      `toml:"replay"`
}

// ClientConfig holds settings for CLI commands that connect to a running
// LearnLab backend (e.g. lectern chat, lectern ask, lectern sessions).
// Values are full URLs (scheme + host + port).
type ClientConfig struct {
	APITarget string `toml:"api_target,omitempty"`
}

// ChatConfig holds defaults for chat and ask commands.
type ChatConfig struct {
	Namespace string `toml:"namespace,omitempty"`
	Agent     string `toml:"agent,omitempty"`
	Mode      string `toml:"mode,omitempty"`
	K         uint   `toml:"k,omitempty"`
}

// EventStreamConfig holds settings for publishing turn-completed events.
type EventStreamConfig struct {
	Provider string `toml:"provider,omitempty"`
	Brokers  string `toml:"brokers,omitempty"`
	Topic    string `toml:"topic,omitempty"`
}

// ReplayConfig holds settings for the local transcript replay server.
type ReplayConfig struct {
	Listen  string `toml:"listen,omitempty"`
	DelayMS uint   `toml:"delay_ms,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"client.api_target": {
		get: func(c *Config) string { return c.Client.APITarget },
		set: func(c *Config, v string) error { c.Client.APITarget = v; return nil },
	},
	"chat.namespace": {
		get: func(c *Config) string { return c.Chat.Namespace },
		set: func(c *Config, v string) error { c.Chat.Namespace = v; return nil },
	},
	"chat.agent": {
		get: func(c *Config) string { return c.Chat.Agent },
		set: func(c *Config, v string) error { c.Chat.Agent = v; return nil },
	},
	"chat.mode": {
		get: func(c *Config) string { return c.Chat.Mode },
		set: func(c *Config, v string) error { c.Chat.Mode = v; return nil },
	},
	"chat.k": {
		get: func(c *Config) string {
			if c.Chat.K == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(c.Chat.K), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for chat.k: %w", err)
			}
			c.Chat.K = uint(n)
			return nil
		},
	},
	"eventstream.provider": {
		get: func(c *Config) string { return c.EventStream.Provider },
		set: func(c *Config, v string) error { c.EventStream.Provider = v; return nil },
	},
	"eventstream.brokers": {
		get: func(c *Config) string { return c.EventStream.Brokers },
		set: func(c *Config, v string) error { c.EventStream.Brokers = v; return nil },
	},
	"eventstream.topic": {
		get: func(c *Config) string { return c.EventStream.Topic },
		set: func(c *Config, v string) error { c.EventStream.Topic = v; return nil },
	},
	"replay.listen": {
		get: func(c *Config) string { return c.Replay.Listen },
		set: func(c *Config, v string) error { c.Replay.Listen = v; return nil },
	},
	"replay.delay_ms": {
		get: func(c *Config) string {
			if c.Replay.DelayMS == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(c.Replay.DelayMS), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for replay.delay_ms: %w", err)
			}
			c.Replay.DelayMS = uint(n)
			return nil
		},
	},
}
