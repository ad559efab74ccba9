package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port         string         `yaml:"port"`
	DBPath       string         `yaml:"db_path"`
	BotmasterURL string         `yaml:"botmaster_url"`
	JWTSecret    string         `yaml:"jwt_secret"`
	Registry     RegistryConfig `yaml:"registry"`
	Names        NamesConfig    `yaml:"names"`
	Fleet        FleetConfig    `yaml:"fleet"`
	Journal      JournalConfig  `yaml:"journal"`
}

// RegistryConfig.Timeout bounds registry calls that carry no deadline of
// their own. Batch create calls are bounded by FleetConfig.MemberTimeout
// instead.
type RegistryConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

type NamesConfig struct {
	URL     string        `yaml:"url"`
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout"`
}

type FleetConfig struct {
	MemberTimeout time.Duration `yaml:"member_timeout"`
}

type JournalConfig struct {
	Dir    string `yaml:"dir"`
	Author string `yaml:"author"`
}

func Default() *Config {
	return &Config{
		Port:         "8080",
		DBPath:       "./botmaster-console.db",
		BotmasterURL: "http://localhost:7070",
		JWTSecret:    "botmaster-secret-key-change-in-production",
		Registry:     RegistryConfig{Timeout: 15 * time.Second},
		Names:        NamesConfig{URL: "https://randommer.io", Timeout: 10 * time.Second},
		Fleet:        FleetConfig{MemberTimeout: 30 * time.Second},
		Journal:      JournalConfig{Author: "botmaster-console"},
	}
}

// Load layers defaults, the optional YAML file at path, a .env file in the
// working directory, and the process environment, later layers winning.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	// Missing .env is fine; variables already set in the environment win.
	_ = godotenv.Load()

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.Port, "PORT")
	setString(&c.DBPath, "DB_PATH")
	setString(&c.BotmasterURL, "BOTMASTER_URL")
	setString(&c.JWTSecret, "JWT_SECRET")
	setString(&c.Names.URL, "RANDOMMER_URL")
	setString(&c.Names.APIKey, "RANDOMMER_API_KEY")
	setString(&c.Journal.Dir, "JOURNAL_DIR")

	for key, dst := range map[string]*time.Duration{
		"REGISTRY_TIMEOUT": &c.Registry.Timeout,
		"NAMES_TIMEOUT":    &c.Names.Timeout,
		"MEMBER_TIMEOUT":   &c.Fleet.MemberTimeout,
	} {
		v := os.Getenv(key)
		if v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", key, v, err)
		}
		*dst = d
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
