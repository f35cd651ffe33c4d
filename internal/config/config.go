package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/thepixelmancer/image-mixer/internal/model"
)

// EnvPrefix prefixes every environment override, e.g. IMAGE_MIXER_WORKERS.
const EnvPrefix = "IMAGE_MIXER"

// DefaultPath is where the configuration is looked up when no path is given.
const DefaultPath = "./config/config.yml"

// Config holds the main configuration for the application.
type Config struct {
	Workers          int     `mapstructure:"workers"`           // Parallel workers, 0 means one per CPU
	ConfirmThreshold int     `mapstructure:"confirm_threshold"` // Combination count that requires confirmation
	Variables        string  `mapstructure:"variables"`         // Path of the variable table
	Log              Log     `mapstructure:"log"`
	Retry            Retry   `mapstructure:"retry"`
	Mixers           []Mixer `mapstructure:"image_mixers"`
}

// Log holds logging configuration.
type Log struct {
	Level      string `mapstructure:"level"`       // zerolog level name
	Format     string `mapstructure:"format"`      // "console" or "json"
	File       string `mapstructure:"file"`        // Optional rotating log file
	MaxSizeMB  int    `mapstructure:"max_size_mb"` // Rotate after this many megabytes
	MaxBackups int    `mapstructure:"max_backups"` // Rotated files to keep
}

// Retry defines retry policy configuration.
type Retry struct {
	Attempts int           `mapstructure:"attempts"` // Number of retry attempts
	Delay    time.Duration `mapstructure:"delay"`    // Initial delay between retries
	Backoff  float64       `mapstructure:"backoff"`  // Backoff multiplier for delays
}

// Mixer is one image_mixers entry as written in the file.
type Mixer struct {
	Name            string  `mapstructure:"name"`
	OutputFolder    string  `mapstructure:"output_folder"`
	OutputTemplate  string  `mapstructure:"output_template"`
	CombinationMode string  `mapstructure:"combination_mode"`
	Layers          []Layer `mapstructure:"layers"`
}

// Layer is one layer declaration. Path, Offset and Scale accept several
// shapes and are decoded by Jobs.
type Layer struct {
	Path      any    `mapstructure:"path"`
	Offset    any    `mapstructure:"offset"`
	BlendMode string `mapstructure:"blend_mode"`
	Anchor    string `mapstructure:"anchor"`
	Scale     any    `mapstructure:"scale"`
	Resample  string `mapstructure:"resample"`
}

var defaults = map[string]any{
	"workers":           0,
	"confirm_threshold": 500,
	"variables":         "",
	"log.level":         "info",
	"log.format":        "console",
	"log.file":          "",
	"log.max_size_mb":   100,
	"log.max_backups":   3,
	"retry.attempts":    3,
	"retry.delay":       100 * time.Millisecond,
	"retry.backoff":     2.0,
}

// bindEnv binds the unprefixed aliases some deployments already export.
func bindEnv(v *viper.Viper) error {
	bindings := map[string]string{
		"log.level": "LOG_LEVEL",
		"log.file":  "LOG_FILE",
	}

	for key, env := range bindings {
		if err := v.BindEnv(key, EnvPrefix+"_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return fmt.Errorf("failed to bind env %s: %w", env, err)
		}
	}

	return nil
}

// LoadDotEnv loads KEY=VALUE files into the process environment without
// overriding variables that are already set. Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// Load reads the configuration file at path from fsys and applies
// IMAGE_MIXER_* environment overrides. The format follows the extension.
func Load(fsys afero.Fs, path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}

	v := viper.New()
	v.SetFs(fsys)
	v.SetConfigFile(path)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, val := range defaults {
		v.SetDefault(key, val)
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("%w: failed to read config: %v", model.ErrConfiguration, err)
	}

	if err := bindEnv(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to unmarshal config: %v", model.ErrConfiguration, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Workers < 0:
		return fmt.Errorf("%w: workers must not be negative", model.ErrConfiguration)
	case c.ConfirmThreshold < 1:
		return fmt.Errorf("%w: confirm_threshold must be at least 1", model.ErrConfiguration)
	case c.Retry.Attempts < 1:
		return fmt.Errorf("%w: retry.attempts must be at least 1", model.ErrConfiguration)
	case c.Retry.Backoff < 1:
		return fmt.Errorf("%w: retry.backoff must be at least 1", model.ErrConfiguration)
	}

	switch strings.ToLower(c.Log.Format) {
	case "console", "json":
	default:
		return fmt.Errorf("%w: unknown log.format %q", model.ErrConfiguration, c.Log.Format)
	}

	if len(c.Mixers) == 0 {
		return fmt.Errorf("%w: no image_mixers configured", model.ErrConfiguration)
	}

	return nil
}
