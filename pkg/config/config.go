package config

import (
	"log"
	"os"

	"gopkg.in/yaml.v3"
)

// ServerConfig holds the HTTP API settings.
type ServerConfig struct {
	Port       string `yaml:"port"`
	CORSOrigin string `yaml:"cors_origin"`
}

// UpstreamConfig holds settings for the marketplace page source.
// Mode selects the fetch strategy: "http" for a plain request with browser
// headers, "browser" for a real headless browser (survives bot walls).
type UpstreamConfig struct {
	BaseURL        string `yaml:"base_url"`
	Mode           string `yaml:"mode"`
	Headless       bool   `yaml:"headless"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// AIConfig holds the settings for the OpenAI-compatible generation endpoint.
type AIConfig struct {
	APIURL         string `yaml:"api_url"`
	APIKey         string `yaml:"api_key"`
	Model          string `yaml:"model"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// DatabaseConfig holds the sqlite settings.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// Config is the complete structure for the config.yml file.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Upstream UpstreamConfig `yaml:"upstream"`
	AI       AIConfig       `yaml:"ai"`
	Database DatabaseConfig `yaml:"database"`
}

// Load reads and parses the config file, applying defaults for anything
// left unset. The PORT environment variable overrides server.port.
func Load(filepath string) *Config {
	data, err := os.ReadFile(filepath)
	if err != nil {
		log.Fatalf("Error reading config file: %v", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		log.Fatalf("Error unmarshalling config YAML: %v", err)
	}
	cfg.applyDefaults()
	return &cfg
}

func (c *Config) applyDefaults() {
	if p := os.Getenv("PORT"); p != "" {
		c.Server.Port = p
	}
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Upstream.BaseURL == "" {
		c.Upstream.BaseURL = "https://www.amazon.in"
	}
	if c.Upstream.Mode == "" {
		c.Upstream.Mode = "http"
	}
	if c.Upstream.TimeoutSeconds <= 0 {
		c.Upstream.TimeoutSeconds = 60
	}
	if c.AI.TimeoutSeconds <= 0 {
		c.AI.TimeoutSeconds = 120
	}
	if c.Database.Path == "" {
		c.Database.Path = "listings.db"
	}
}
