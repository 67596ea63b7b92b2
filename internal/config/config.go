// Package config provides YAML-based configuration loading for the flight bag.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultAPIBase is the dispatch proxy used when no base_url is configured.
const DefaultAPIBase = "https://efb-hispafly-va.onrender.com"

// Config is the top-level flight bag configuration, loaded from efb.yaml.
type Config struct {
	Pilot     string          `yaml:"pilot"`
	API       APIConfig       `yaml:"api"`
	OAuth     OAuthConfig     `yaml:"oauth"`
	Storage   StorageConfig   `yaml:"storage"`
	Simulator SimulatorConfig `yaml:"simulator"`
	Roster    RosterConfig    `yaml:"roster"`
	Dashboard DashboardConfig `yaml:"dashboard"`
	Telegraph TelegraphConfig `yaml:"telegraph"`
}

// APIConfig points at the dispatch proxy that fronts the airline system.
type APIConfig struct {
	BaseURL    string `yaml:"base_url"`
	Offline    bool   `yaml:"offline"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// OAuthConfig holds the public OAuth client settings. The client secret lives
// on the proxy, never here.
type OAuthConfig struct {
	ClientID     string `yaml:"client_id"`
	AuthorizeURL string `yaml:"authorize_url"`
	RedirectURL  string `yaml:"redirect_url"`
}

// StorageConfig selects the durable key-value backend.
type StorageConfig struct {
	Driver   string `yaml:"driver"` // "sqlite" (default) or "mysql"
	Path     string `yaml:"path"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// SimulatorConfig tunes the ACARS feed simulator.
type SimulatorConfig struct {
	Note      string  `yaml:"note"`
	TimeScale float64 `yaml:"time_scale"`
}

// RosterConfig controls background roster refreshes in serve mode.
type RosterConfig struct {
	RefreshCron string `yaml:"refresh_cron"`
}

// DashboardConfig holds the local HTTP API settings.
type DashboardConfig struct {
	Port int `yaml:"port"`
}

// TelegraphConfig configures the chat relay for phase events.
type TelegraphConfig struct {
	Platform string        `yaml:"platform"` // "", "slack" or "discord"
	Channel  string        `yaml:"channel"`
	Slack    SlackConfig   `yaml:"slack"`
	Discord  DiscordConfig `yaml:"discord"`
}

// SlackConfig holds Slack bot credentials.
type SlackConfig struct {
	BotToken string `yaml:"bot_token"`
}

// DiscordConfig holds Discord bot credentials.
type DiscordConfig struct {
	BotToken string `yaml:"bot_token"`
}

// Load reads a YAML config file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// LoadOrDefault behaves like Load but returns the defaults when path does not
// exist, so the flight bag works without any configuration file.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Parse(nil)
	}
	return Load(path)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	c.API.BaseURL = strings.TrimRight(strings.TrimSpace(c.API.BaseURL), "/")
	switch {
	case c.API.Offline:
		c.API.BaseURL = ""
	case c.API.BaseURL == "":
		c.API.BaseURL = DefaultAPIBase
	}
	if c.API.TimeoutSec == 0 {
		c.API.TimeoutSec = 10
	}
	if c.OAuth.AuthorizeURL == "" {
		c.OAuth.AuthorizeURL = "https://vamsys.io/oauth/authorize"
	}
	if c.OAuth.RedirectURL == "" {
		c.OAuth.RedirectURL = "https://va-efb-frontend.onrender.com/#/oauth"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "sqlite"
	}
	if c.Storage.Driver == "sqlite" && c.Storage.Path == "" {
		c.Storage.Path = os.ExpandEnv("${HOME}/.flightbag/efb.db")
	}
	if c.Storage.Driver == "mysql" {
		if c.Storage.Host == "" {
			c.Storage.Host = "127.0.0.1"
		}
		if c.Storage.Port == 0 {
			c.Storage.Port = 3306
		}
		if c.Storage.User == "" {
			c.Storage.User = "root"
		}
		if c.Storage.Database == "" {
			c.Storage.Database = "flightbag"
		}
	}
	if c.Simulator.Note == "" {
		c.Simulator.Note = "SIM ACARS"
	}
	if c.Simulator.TimeScale == 0 {
		c.Simulator.TimeScale = 1
	}
	if c.Dashboard.Port == 0 {
		c.Dashboard.Port = 8080
	}
	c.Telegraph.Platform = strings.ToLower(strings.TrimSpace(c.Telegraph.Platform))
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	if c.API.TimeoutSec < 0 {
		errs = append(errs, "api.timeout_sec must not be negative")
	}
	switch c.Storage.Driver {
	case "sqlite", "mysql":
	default:
		errs = append(errs, fmt.Sprintf("storage.driver %q is not supported (sqlite, mysql)", c.Storage.Driver))
	}
	if c.Simulator.TimeScale < 0 {
		errs = append(errs, "simulator.time_scale must not be negative")
	}
	if c.Dashboard.Port < 0 || c.Dashboard.Port > 65535 {
		errs = append(errs, fmt.Sprintf("dashboard.port %d is out of range", c.Dashboard.Port))
	}
	switch c.Telegraph.Platform {
	case "":
	case "slack":
		if c.Telegraph.Slack.BotToken == "" {
			errs = append(errs, "telegraph.slack.bot_token is required for platform slack")
		}
	case "discord":
		if c.Telegraph.Discord.BotToken == "" {
			errs = append(errs, "telegraph.discord.bot_token is required for platform discord")
		}
	default:
		errs = append(errs, fmt.Sprintf("telegraph.platform %q is not supported (slack, discord)", c.Telegraph.Platform))
	}
	if c.Telegraph.Platform != "" && c.Telegraph.Channel == "" {
		errs = append(errs, "telegraph.channel is required when a platform is set")
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
