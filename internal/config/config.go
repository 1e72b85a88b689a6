// Package config loads scorepad configuration from an HCL file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"golang.org/x/text/language"

	"github.com/lox/scorepad/internal/round"
)

// Config is the complete configuration.
type Config struct {
	Server     ServerSettings
	Database   DatabaseSettings
	Rules      RulesSettings
	Profiles   []ProfileConfig
	Slack      SlackSettings
	Commentary CommentarySettings

	Secrets Secrets
}

// fileConfig mirrors Config with every block optional.
type fileConfig struct {
	Server     *ServerSettings     `hcl:"server,block"`
	Database   *DatabaseSettings   `hcl:"database,block"`
	Rules      *RulesSettings      `hcl:"rules,block"`
	Profiles   []ProfileConfig     `hcl:"profile,block"`
	Slack      *SlackSettings      `hcl:"slack,block"`
	Commentary *CommentarySettings `hcl:"commentary,block"`
}

// ServerSettings contains listener and logging configuration.
type ServerSettings struct {
	Address  string `hcl:"address,optional"`
	Port     int    `hcl:"port,optional"`
	LogLevel string `hcl:"log_level,optional"`
	Locale   string `hcl:"locale,optional"`
}

// DatabaseSettings locates the SQLite database.
type DatabaseSettings struct {
	Path string `hcl:"path,optional"`
}

// RulesSettings holds the white-win shortcut values.
type RulesSettings struct {
	WhiteWin   int `hcl:"white_win,optional"`
	LoserShare int `hcl:"loser_share,optional"`
}

// ProfileConfig seeds a player profile at startup.
type ProfileConfig struct {
	ID     string `hcl:"id,label"`
	Name   string `hcl:"name"`
	Email  string `hcl:"email,optional"`
	UserID string `hcl:"user_id,optional"`
}

// SlackSettings configures round notifications.
type SlackSettings struct {
	Enabled bool   `hcl:"enabled,optional"`
	Channel string `hcl:"channel,optional"`
	BaseURL string `hcl:"base_url,optional"`
	Timeout string `hcl:"timeout,optional"`
}

// CommentarySettings configures AI commentary.
type CommentarySettings struct {
	Enabled bool   `hcl:"enabled,optional"`
	Model   string `hcl:"model,optional"`
	BaseURL string `hcl:"base_url,optional"`
	Timeout string `hcl:"timeout,optional"`
}

// Secrets are read from the environment only.
type Secrets struct {
	SlackToken string `env:"SCOREPAD_SLACK_TOKEN"`
	OpenAIKey  string `env:"OPENAI_API_KEY"`
	Database   string `env:"SCOREPAD_DATABASE"`
}

const (
	defaultAddress  = "localhost"
	defaultPort     = 8080
	defaultLogLevel = "info"
	defaultLocale   = "en"
	defaultDBPath   = "scorepad.db"
	defaultTimeout  = "10s"
	defaultModel    = "gpt-4o-mini"
)

// Default returns the configuration used when no file exists.
func Default() *Config {
	rules := round.DefaultRules()
	return &Config{
		Server: ServerSettings{
			Address:  defaultAddress,
			Port:     defaultPort,
			LogLevel: defaultLogLevel,
			Locale:   defaultLocale,
		},
		Database: DatabaseSettings{Path: defaultDBPath},
		Rules:    RulesSettings{WhiteWin: rules.WhiteWin, LoserShare: rules.LoserShare},
		Slack:    SlackSettings{Timeout: defaultTimeout},
		Commentary: CommentarySettings{
			Model:   defaultModel,
			Timeout: defaultTimeout,
		},
	}
}

// Load reads filename, falling back to defaults when it does not exist, and
// then applies environment secrets.
func Load(filename string) (*Config, error) {
	cfg, err := loadFile(filename)
	if err != nil {
		return nil, err
	}
	if err := env.Parse(&cfg.Secrets); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.Secrets.Database != "" {
		cfg.Database.Path = cfg.Secrets.Database
	}
	return cfg, nil
}

func loadFile(filename string) (*Config, error) {
	if filename == "" {
		return Default(), nil
	}
	if _, err := os.Stat(filename); errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var raw fileConfig
	diags = gohcl.DecodeBody(file.Body, nil, &raw)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	cfg := &Config{Profiles: raw.Profiles}
	if raw.Server != nil {
		cfg.Server = *raw.Server
	}
	if raw.Database != nil {
		cfg.Database = *raw.Database
	}
	if raw.Rules != nil {
		cfg.Rules = *raw.Rules
	}
	if raw.Slack != nil {
		cfg.Slack = *raw.Slack
	}
	if raw.Commentary != nil {
		cfg.Commentary = *raw.Commentary
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	def := Default()
	if c.Server.Address == "" {
		c.Server.Address = def.Server.Address
	}
	if c.Server.Port == 0 {
		c.Server.Port = def.Server.Port
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = def.Server.LogLevel
	}
	if c.Server.Locale == "" {
		c.Server.Locale = def.Server.Locale
	}
	if c.Database.Path == "" {
		c.Database.Path = def.Database.Path
	}
	// A rules block with neither value set keeps the standard shortcut.
	if c.Rules.WhiteWin == 0 && c.Rules.LoserShare == 0 {
		c.Rules = def.Rules
	}
	if c.Slack.Timeout == "" {
		c.Slack.Timeout = def.Slack.Timeout
	}
	if c.Commentary.Model == "" {
		c.Commentary.Model = def.Commentary.Model
	}
	if c.Commentary.Timeout == "" {
		c.Commentary.Timeout = def.Commentary.Timeout
	}
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if _, err := c.Locale(); err != nil {
		return err
	}
	if strings.TrimSpace(c.Database.Path) == "" {
		return fmt.Errorf("database path is required")
	}
	if err := c.RoundRules().Validate(); err != nil {
		return err
	}

	seen := make(map[string]bool, len(c.Profiles))
	for _, p := range c.Profiles {
		if strings.TrimSpace(p.ID) == "" {
			return fmt.Errorf("profile id is required")
		}
		if seen[p.ID] {
			return fmt.Errorf("profile %s: declared twice", p.ID)
		}
		seen[p.ID] = true
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("profile %s: name is required", p.ID)
		}
	}

	if c.Slack.Enabled {
		if c.Slack.Channel == "" {
			return fmt.Errorf("slack: channel is required when enabled")
		}
		if c.Secrets.SlackToken == "" {
			return fmt.Errorf("slack: SCOREPAD_SLACK_TOKEN is required when enabled")
		}
	}
	if _, err := c.SlackTimeout(); err != nil {
		return err
	}
	if c.Commentary.Enabled && c.Secrets.OpenAIKey == "" {
		return fmt.Errorf("commentary: OPENAI_API_KEY is required when enabled")
	}
	if _, err := c.CommentaryTimeout(); err != nil {
		return err
	}
	return nil
}

// ServerAddress returns the listen address.
func (c *Config) ServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

// RoundRules converts the rules block.
func (c *Config) RoundRules() round.Rules {
	return round.Rules{WhiteWin: c.Rules.WhiteWin, LoserShare: c.Rules.LoserShare}
}

// Locale parses the summary locale.
func (c *Config) Locale() (language.Tag, error) {
	tag, err := language.Parse(c.Server.Locale)
	if err != nil {
		return language.Und, fmt.Errorf("invalid locale %q: %w", c.Server.Locale, err)
	}
	return tag, nil
}

// SlackTimeout parses the slack timeout.
func (c *Config) SlackTimeout() (time.Duration, error) {
	return parseTimeout("slack", c.Slack.Timeout)
}

// CommentaryTimeout parses the commentary timeout.
func (c *Config) CommentaryTimeout() (time.Duration, error) {
	return parseTimeout("commentary", c.Commentary.Timeout)
}

func parseTimeout(block, value string) (time.Duration, error) {
	if value == "" {
		value = defaultTimeout
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid timeout %q: %w", block, value, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s: timeout must be positive", block)
	}
	return d, nil
}
