package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Config holds every setting of the reconcile tools
type Config struct {
	Enrich     EnrichConfig     `yaml:"enrich" toml:"enrich"`
	Scrub      ScrubConfig      `yaml:"scrub" toml:"scrub"`
	EmailCheck EmailCheckConfig `yaml:"emailcheck" toml:"emailcheck"`
	DupCheck   DupCheckConfig   `yaml:"dupcheck" toml:"dupcheck"`
	History    HistoryConfig    `yaml:"history" toml:"history"`
	Server     ServerConfig     `yaml:"server" toml:"server"`
	Logging    LoggingConfig    `yaml:"logging" toml:"logging"`
}

// EnrichConfig configures email enrichment
type EnrichConfig struct {
	Master       string   `yaml:"master" toml:"master"`
	Source       string   `yaml:"source" toml:"source"`
	Output       string   `yaml:"output" toml:"output"`
	FirstColumn  string   `yaml:"first_column" toml:"first_column"`
	LastColumn   string   `yaml:"last_column" toml:"last_column"`
	EmailColumn  string   `yaml:"email_column" toml:"email_column"`
	SourceFirst  string   `yaml:"source_first_column" toml:"source_first_column"`
	SourceLast   string   `yaml:"source_last_column" toml:"source_last_column"`
	SourceEmails []string `yaml:"source_email_columns" toml:"source_email_columns"` // priority order
}

// ScrubConfig configures the bounce scrubber
type ScrubConfig struct {
	Master       string `yaml:"master" toml:"master"`
	Bounced      string `yaml:"bounced" toml:"bounced"`
	Output       string `yaml:"output" toml:"output"`
	EmailColumn  string `yaml:"email_column" toml:"email_column"`
	BouncedEmail string `yaml:"bounced_email_column" toml:"bounced_email_column"`
}

// EmailCheckConfig configures the email-focused duplicate checker
type EmailCheckConfig struct {
	Alumni       string `yaml:"alumni" toml:"alumni"`
	Bounced      string `yaml:"bounced" toml:"bounced"`
	EmailColumn  string `yaml:"email_column" toml:"email_column"`
	BouncedEmail string `yaml:"bounced_email_column" toml:"bounced_email_column"`
	SampleSize   int    `yaml:"sample_size" toml:"sample_size"`
}

// DupCheckConfig configures the generic duplicate checker
type DupCheckConfig struct {
	File1   string   `yaml:"file1" toml:"file1"`
	File2   string   `yaml:"file2" toml:"file2"`
	Columns []string `yaml:"columns" toml:"columns"` // empty means auto-detect
	Report  string   `yaml:"report" toml:"report"`
}

// HistoryConfig configures the run history store
type HistoryConfig struct {
	Enabled        bool   `yaml:"enabled" toml:"enabled"`
	Driver         string `yaml:"driver" toml:"driver"` // sqlite or postgres
	DSN            string `yaml:"dsn" toml:"dsn"`
	MaxConnections int    `yaml:"max_connections" toml:"max_connections"`
}

// ServerConfig configures the history API server
type ServerConfig struct {
	Host   string `yaml:"host" toml:"host"`
	Port   int    `yaml:"port" toml:"port"`
	APIKey string `yaml:"api_key" toml:"api_key"`
}

// LoggingConfig configures zap
type LoggingConfig struct {
	Mode   string `yaml:"mode" toml:"mode"` // dev or prod
	Level  string `yaml:"level" toml:"level"`
	Redact bool   `yaml:"redact" toml:"redact"`
}

// Default returns the file and column names of the standard alumni exports
func Default() *Config {
	return &Config{
		Enrich: EnrichConfig{
			Master:       "alumni.csv",
			Source:       "add.csv",
			Output:       "alumni_with_emails.csv",
			FirstColumn:  "First Name",
			LastColumn:   "Last Name",
			EmailColumn:  "Email Address",
			SourceFirst:  "firstName",
			SourceLast:   "lastName",
			SourceEmails: []string{"proEmail", "linkedinEmail"},
		},
		Scrub: ScrubConfig{
			Master:       "alumni.csv",
			Bounced:      "export.csv",
			Output:       "alumni_cleaned.csv",
			EmailColumn:  "Email Address",
			BouncedEmail: "Primary Email",
		},
		EmailCheck: EmailCheckConfig{
			Alumni:       "alumni_cleaned.csv",
			Bounced:      "export.csv",
			EmailColumn:  "Email Address",
			BouncedEmail: "Primary Email",
			SampleSize:   10,
		},
		DupCheck: DupCheckConfig{
			File1:  "Master Alumni Sheet - Sheet1.csv",
			File2:  "export.csv",
			Report: "duplicate_analysis.txt",
		},
		History: HistoryConfig{
			Enabled:        false,
			Driver:         "sqlite",
			DSN:            "reconcile_runs.db",
			MaxConnections: 4,
		},
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8080,
		},
		Logging: LoggingConfig{
			Mode:   "dev",
			Level:  "warn",
			Redact: true,
		},
	}
}

// Load reads a YAML or TOML file over the defaults and then applies
// environment overrides. An empty filename yields defaults plus environment.
func Load(filename string) (*Config, error) {
	cfg := Default()

	if filename != "" {
		data, err := os.ReadFile(filename)
		if err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", filename, err)
		}

		switch strings.ToLower(filepath.Ext(filename)) {
		case ".toml":
			if _, err := toml.Decode(string(data), cfg); err != nil {
				return nil, fmt.Errorf("failed to parse TOML config %s: %w", filename, err)
			}
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse YAML config %s: %w", filename, err)
			}
		}
	}

	cfg.ApplyEnv()
	return cfg, nil
}

// ApplyEnv overrides settings from RECONCILE_* environment variables
func (c *Config) ApplyEnv() {
	c.History.Enabled = GetEnvBool(EnvPrefix+"HISTORY_ENABLED", c.History.Enabled)
	c.History.Driver = GetEnv(EnvPrefix+"HISTORY_DRIVER", c.History.Driver)
	c.History.DSN = GetEnv(EnvPrefix+"HISTORY_DSN", c.History.DSN)
	c.History.MaxConnections = GetEnvInt(EnvPrefix+"HISTORY_MAX_CONNECTIONS", c.History.MaxConnections)

	c.Server.Host = GetEnv(EnvPrefix+"HOST", c.Server.Host)
	c.Server.Port = GetEnvInt(EnvPrefix+"PORT", c.Server.Port)
	c.Server.APIKey = GetEnv(EnvPrefix+"API_KEY", c.Server.APIKey)

	c.Logging.Mode = GetEnv(EnvPrefix+"LOG_MODE", c.Logging.Mode)
	c.Logging.Level = GetEnv(EnvPrefix+"LOG_LEVEL", c.Logging.Level)
	c.Logging.Redact = GetEnvBool(EnvPrefix+"LOG_REDACT", c.Logging.Redact)

	c.Enrich.SourceEmails = GetEnvList(EnvPrefix+"ENRICH_SOURCE_EMAIL_COLUMNS", c.Enrich.SourceEmails)
	c.DupCheck.Columns = GetEnvList(EnvPrefix+"DUPCHECK_COLUMNS", c.DupCheck.Columns)
}

// Validate reports every setting that would make a command fail
func (c *Config) Validate() []string {
	var issues []string

	required := map[string]string{
		"enrich.first_column":             c.Enrich.FirstColumn,
		"enrich.last_column":              c.Enrich.LastColumn,
		"enrich.email_column":             c.Enrich.EmailColumn,
		"enrich.source_first_column":      c.Enrich.SourceFirst,
		"enrich.source_last_column":       c.Enrich.SourceLast,
		"scrub.email_column":              c.Scrub.EmailColumn,
		"scrub.bounced_email_column":      c.Scrub.BouncedEmail,
		"emailcheck.email_column":         c.EmailCheck.EmailColumn,
		"emailcheck.bounced_email_column": c.EmailCheck.BouncedEmail,
	}
	for _, key := range sortedKeys(required) {
		if strings.TrimSpace(required[key]) == "" {
			issues = append(issues, key+" must not be empty")
		}
	}

	if len(c.Enrich.SourceEmails) == 0 {
		issues = append(issues, "enrich.source_email_columns must list at least one column")
	}
	if c.EmailCheck.SampleSize < 0 {
		issues = append(issues, "emailcheck.sample_size must not be negative")
	}

	if c.History.Enabled {
		switch c.History.Driver {
		case "sqlite", "postgres":
		default:
			issues = append(issues, fmt.Sprintf("history.driver %q is not supported (use sqlite or postgres)", c.History.Driver))
		}
		if c.History.DSN == "" {
			issues = append(issues, "history.dsn must not be empty when history is enabled")
		}
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		issues = append(issues, fmt.Sprintf("server.port %d is out of range", c.Server.Port))
	}

	return issues
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
