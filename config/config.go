package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Web       WebConfig       `yaml:"web"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Messaging MessagingConfig `yaml:"messaging"`
	Hub       HubConfig       `yaml:"hub"`
}

type WebConfig struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	SessionKey string `yaml:"session_key"`
	Rooms      int    `yaml:"rooms"`
}

type DatabaseConfig struct {
	Driver   string         `yaml:"driver"`
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	Postgres PostgresConfig `yaml:"postgres"`
}

type SQLiteConfig struct {
	Path string `yaml:"path"`
}

type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// MessagingConfig selects and configures the device channel backend.
// Topic segments use '/' separators; the kafka backend collapses them.
type MessagingConfig struct {
	Backend        string   `yaml:"backend"` // "mqtt" or "kafka"
	Broker         string   `yaml:"broker"`
	ClientID       string   `yaml:"client_id"`
	CmdTopicPrefix string   `yaml:"cmd_topic_prefix"`
	EvtTopicPrefix string   `yaml:"evt_topic_prefix"`
	KafkaGroup     string   `yaml:"kafka_group"`
	ConnectTimeout Duration `yaml:"connect_timeout"`
}

type HubConfig struct {
	BaseURL      string   `yaml:"base_url"`
	Timeout      Duration `yaml:"timeout"`
	PollInterval Duration `yaml:"poll_interval"`
}

// Duration decodes either a Go duration string ("3s") or a bare integer
// of milliseconds.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		v, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("parse duration %q: %w", s, err)
		}
		*d = Duration(v)
		return nil
	}
	var ms int64
	if err := value.Decode(&ms); err != nil {
		return fmt.Errorf("duration must be a string or integer milliseconds")
	}
	*d = Duration(time.Duration(ms) * time.Millisecond)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

// Default returns the built-in configuration: sqlite storage, MQTT on
// localhost, a 3 second poll interval.
func Default() *Config {
	return &Config{
		Web: WebConfig{
			Host:  "0.0.0.0",
			Port:  8080,
			Rooms: 2,
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			SQLite: SQLiteConfig{Path: "dispensecore.db"},
			Postgres: PostgresConfig{
				Host:    "localhost",
				Port:    5432,
				SSLMode: "disable",
			},
		},
		Redis: RedisConfig{Address: "localhost:6379"},
		Messaging: MessagingConfig{
			Backend:        "mqtt",
			Broker:         "tcp://127.0.0.1:1883",
			ClientID:       "dispensehub",
			CmdTopicPrefix: "disp/cmd",
			EvtTopicPrefix: "disp/evt",
			KafkaGroup:     "dispensehub",
			ConnectTimeout: Duration(5 * time.Second),
		},
		Hub: HubConfig{
			BaseURL:      "http://127.0.0.1:8080",
			Timeout:      Duration(5 * time.Second),
			PollInterval: Duration(3 * time.Second),
		},
	}
}

// Load reads a YAML config file over the defaults. A missing file is not
// an error; the defaults apply.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
