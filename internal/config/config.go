package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Nomadcxx/jellyrename/internal/logging"
	"github.com/Nomadcxx/jellyrename/internal/naming"
	"github.com/Nomadcxx/jellyrename/internal/paths"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. JELLYRENAME_JELLYFIN_API_KEY.
const EnvPrefix = "JELLYRENAME"

type Config struct {
	Templates TemplatesConfig `mapstructure:"templates"`
	Jellyfin  JellyfinConfig  `mapstructure:"jellyfin"`
	Options   OptionsConfig   `mapstructure:"options"`
	Daemon    DaemonConfig    `mapstructure:"daemon"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// TemplatesConfig holds the naming templates per kind. Empty means default.
type TemplatesConfig struct {
	Series  string `mapstructure:"series"`
	Season  string `mapstructure:"season"`
	Episode string `mapstructure:"episode"`
	Movie   string `mapstructure:"movie"`
}

func orDefault(tmpl, def string) string {
	if strings.TrimSpace(tmpl) == "" {
		return def
	}
	return tmpl
}

func (t TemplatesConfig) SeriesTemplate() string {
	return orDefault(t.Series, naming.DefaultFolderTemplate)
}

func (t TemplatesConfig) SeasonTemplate() string {
	return orDefault(t.Season, naming.DefaultSeasonTemplate)
}

func (t TemplatesConfig) EpisodeTemplate() string {
	return orDefault(t.Episode, naming.DefaultEpisodeTemplate)
}

func (t TemplatesConfig) MovieTemplate() string {
	return orDefault(t.Movie, naming.DefaultFolderTemplate)
}

// JellyfinConfig contains Jellyfin server settings
type JellyfinConfig struct {
	URL                string `mapstructure:"url"`
	APIKey             string `mapstructure:"api_key"`
	WebhookSecret      string `mapstructure:"webhook_secret"`
	TimeoutSeconds     int    `mapstructure:"timeout_seconds"`
	RefreshAfterRename bool   `mapstructure:"refresh_after_rename"`
}

func (j JellyfinConfig) Enabled() bool {
	return strings.TrimSpace(j.URL) != "" && strings.TrimSpace(j.APIKey) != ""
}

func (j JellyfinConfig) Timeout() time.Duration {
	if j.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(j.TimeoutSeconds) * time.Second
}

// OptionsConfig contains general options
type OptionsConfig struct {
	DryRun bool `mapstructure:"dry_run"`
	// Libraries are the physical library roots. The watcher observes them and
	// movie folders equal to a root are never renamed.
	Libraries []string `mapstructure:"libraries"`
}

type DaemonConfig struct {
	Addr            string `mapstructure:"addr"`
	Schedule        string `mapstructure:"schedule"`
	DebounceSeconds int    `mapstructure:"debounce_seconds"`
}

func (d DaemonConfig) Debounce() time.Duration {
	if d.DebounceSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(d.DebounceSeconds) * time.Second
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// ResolvedPath returns the configured history database path, or the
// default under the jellyrename directory.
func (d DatabaseConfig) ResolvedPath() (string, error) {
	if strings.TrimSpace(d.Path) != "" {
		return paths.ExpandHome(d.Path)
	}
	return paths.HistoryDBPath()
}

type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
}

// LoggerConfig converts the section into the logger's own config.
func (l LoggingConfig) LoggerConfig() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = l.Level
	cfg.File = l.File
	if l.MaxSizeMB > 0 {
		cfg.MaxSizeMB = l.MaxSizeMB
	}
	if l.MaxBackups > 0 {
		cfg.MaxBackups = l.MaxBackups
	}
	return cfg
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Templates: TemplatesConfig{
			Series:  naming.DefaultFolderTemplate,
			Season:  naming.DefaultSeasonTemplate,
			Episode: naming.DefaultEpisodeTemplate,
			Movie:   naming.DefaultFolderTemplate,
		},
		Jellyfin: JellyfinConfig{
			URL:                "http://localhost:8096",
			TimeoutSeconds:     30,
			RefreshAfterRename: true,
		},
		Options: OptionsConfig{
			DryRun:    false,
			Libraries: []string{},
		},
		Daemon: DaemonConfig{
			Addr:            ":8687",
			Schedule:        "0 4 * * *",
			DebounceSeconds: 30,
		},
		Logging: LoggingConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 5,
		},
	}
}

// Load loads configuration from the default path or returns defaults
func Load() (*Config, error) {
	configPath, err := paths.ConfigPath()
	if err != nil {
		return nil, fmt.Errorf("unable to get config path: %w", err)
	}
	return LoadFrom(configPath)
}

// LoadFrom loads configuration from path. A missing file yields defaults,
// still subject to environment overrides.
func LoadFrom(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, DefaultConfig())

	if _, err := os.Stat(path); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("unable to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to unmarshal config: %w", err)
	}
	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override keys that
// are absent from the file.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("templates.series", d.Templates.Series)
	v.SetDefault("templates.season", d.Templates.Season)
	v.SetDefault("templates.episode", d.Templates.Episode)
	v.SetDefault("templates.movie", d.Templates.Movie)
	v.SetDefault("jellyfin.url", d.Jellyfin.URL)
	v.SetDefault("jellyfin.api_key", d.Jellyfin.APIKey)
	v.SetDefault("jellyfin.webhook_secret", d.Jellyfin.WebhookSecret)
	v.SetDefault("jellyfin.timeout_seconds", d.Jellyfin.TimeoutSeconds)
	v.SetDefault("jellyfin.refresh_after_rename", d.Jellyfin.RefreshAfterRename)
	v.SetDefault("options.dry_run", d.Options.DryRun)
	v.SetDefault("options.libraries", d.Options.Libraries)
	v.SetDefault("daemon.addr", d.Daemon.Addr)
	v.SetDefault("daemon.schedule", d.Daemon.Schedule)
	v.SetDefault("daemon.debounce_seconds", d.Daemon.DebounceSeconds)
	v.SetDefault("database.path", d.Database.Path)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.file", d.Logging.File)
	v.SetDefault("logging.max_size_mb", d.Logging.MaxSizeMB)
	v.SetDefault("logging.max_backups", d.Logging.MaxBackups)
}

// Validate reports every problem in the configuration at once.
func (c *Config) Validate() error {
	var errs []error

	for name, tmpl := range map[string]string{
		"series":  c.Templates.Series,
		"season":  c.Templates.Season,
		"episode": c.Templates.Episode,
		"movie":   c.Templates.Movie,
	} {
		if tmpl != "" && strings.TrimSpace(tmpl) == "" {
			errs = append(errs, fmt.Errorf("templates.%s is blank", name))
		}
	}

	if strings.TrimSpace(c.Daemon.Schedule) != "" {
		if _, err := cron.ParseStandard(c.Daemon.Schedule); err != nil {
			errs = append(errs, fmt.Errorf("daemon.schedule %q: %w", c.Daemon.Schedule, err))
		}
	}

	if raw := strings.TrimSpace(c.Jellyfin.URL); raw != "" {
		u, err := url.Parse(raw)
		switch {
		case err != nil:
			errs = append(errs, fmt.Errorf("jellyfin.url: %w", err))
		case u.Scheme != "http" && u.Scheme != "https":
			errs = append(errs, fmt.Errorf("jellyfin.url %q: scheme must be http or https", raw))
		case u.Host == "":
			errs = append(errs, fmt.Errorf("jellyfin.url %q: missing host", raw))
		}
	}

	for _, lib := range c.Options.Libraries {
		if !filepath.IsAbs(lib) && !strings.HasPrefix(lib, "~") {
			errs = append(errs, fmt.Errorf("options.libraries: %q is not absolute", lib))
		}
	}

	return errors.Join(errs...)
}

// Save saves configuration to the default path
func (c *Config) Save() error {
	configFile, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(configFile)
}

// SaveTo writes the commented TOML rendering to path. The file holds the
// API key, so it is only readable by the owner.
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("unable to create config dir: %w", err)
	}
	return os.WriteFile(path, []byte(c.ToTOML()), 0600)
}

func ConfigPath() (string, error) {
	return paths.ConfigPath()
}

func ConfigExists() bool {
	path, err := ConfigPath()
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

func (c *Config) ToTOML() string {
	return fmt.Sprintf(`# jellyrename configuration
# Generated by: jellyrename config init

# ============================================================================
# NAMING TEMPLATES
# Placeholders: {Name} {Year} {Provider} {Id} {Season} {Episode} {Title}
# {Season:00} and {Episode:000} zero-pad to the number of digits given.
# Empty values fall back to the built-in defaults.
# ============================================================================
[templates]
series = %q
season = %q
episode = %q
movie = %q

# ============================================================================
# JELLYFIN
# Get an API key from: Dashboard -> API Keys
# webhook_secret must match the X-Jellyrename-Webhook-Secret header sent by
# the Jellyfin webhook plugin
# ============================================================================
[jellyfin]
url = %q
api_key = %q
webhook_secret = %q
timeout_seconds = %d
refresh_after_rename = %v

# ============================================================================
# GENERAL OPTIONS
# ============================================================================
[options]
# Preview mode - report what would be renamed without touching files
dry_run = %v

# Library roots as seen on this machine; watched by the daemon
libraries = %s

# ============================================================================
# DAEMON SETTINGS
# schedule is a cron expression (minute hour dom month dow) or @every <dur>
# ============================================================================
[daemon]
addr = %q
schedule = %q
debounce_seconds = %d

# ============================================================================
# RENAME HISTORY
# Empty path means ~/.config/jellyrename/history.db
# ============================================================================
[database]
path = %q

# ============================================================================
# LOGGING
# ============================================================================
[logging]
level = %q
file = %q
max_size_mb = %d
max_backups = %d
`,
		c.Templates.Series,
		c.Templates.Season,
		c.Templates.Episode,
		c.Templates.Movie,
		c.Jellyfin.URL,
		c.Jellyfin.APIKey,
		c.Jellyfin.WebhookSecret,
		c.Jellyfin.TimeoutSeconds,
		c.Jellyfin.RefreshAfterRename,
		c.Options.DryRun,
		formatStringSlice(c.Options.Libraries),
		c.Daemon.Addr,
		c.Daemon.Schedule,
		c.Daemon.DebounceSeconds,
		c.Database.Path,
		c.Logging.Level,
		c.Logging.File,
		c.Logging.MaxSizeMB,
		c.Logging.MaxBackups,
	)
}

func formatStringSlice(s []string) string {
	if len(s) == 0 {
		return "[]"
	}
	quoted := make([]string, len(s))
	for i, v := range s {
		quoted[i] = fmt.Sprintf("%q", v)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
