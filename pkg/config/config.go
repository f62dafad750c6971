// Package config loads the stubcheck configuration file.
package config

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/mod/semver"
)

// EnvPrefix prefixes environment overrides, e.g. STUBCHECK_REPORT_FORMAT.
const EnvPrefix = "STUBCHECK"

// Config represents the complete stubcheck configuration
type Config struct {
	Analyzer  AnalyzerConfig  `json:"analyzer" mapstructure:"analyzer"`
	Reference ReferenceConfig `json:"reference" mapstructure:"reference"`
	Compare   CompareConfig   `json:"compare" mapstructure:"compare"`
	Report    ReportConfig    `json:"report" mapstructure:"report"`
	Logging   LoggingConfig   `json:"logging" mapstructure:"logging"`

	// path of the file the configuration was read from
	file string
}

// AnalyzerConfig controls how declaration graphs are read
type AnalyzerConfig struct {
	BuiltinsModule string   `json:"builtins_module" mapstructure:"builtins_module"`
	StubSuffix     string   `json:"stub_suffix" mapstructure:"stub_suffix"`
	Exclude        []string `json:"exclude" mapstructure:"exclude"`
	FormatVersion  string   `json:"format_version" mapstructure:"format_version"`
}

// ReferenceConfig locates the reference stubs when none are given on
// the command line
type ReferenceConfig struct {
	Path    string        `json:"path" mapstructure:"path"`
	URL     string        `json:"url" mapstructure:"url"`
	Mirrors []string      `json:"mirrors" mapstructure:"mirrors"`
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`
}

// CompareConfig tunes the comparison pass
type CompareConfig struct {
	SkipPrivateMissing bool `json:"skip_private_missing" mapstructure:"skip_private_missing"`
}

// ReportConfig contains report rendering options
type ReportConfig struct {
	Format         string `json:"format" mapstructure:"format"`
	ShowSuppressed bool   `json:"show_suppressed" mapstructure:"show_suppressed"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Format string `json:"format" mapstructure:"format"`
	Level  string `json:"level" mapstructure:"level"`
}

var (
	reportFormats = []string{"text", "json", "yaml"}
	logFormats    = []string{"terminal", "text", "json"}
	logLevels     = []string{"debug", "info", "warn", "warning", "error", "quiet"}
)

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Analyzer: AnalyzerConfig{
			BuiltinsModule: "builtins",
			StubSuffix:     ".pyi",
			Exclude:        []string{"typeshed", "site-packages"},
			FormatVersion:  "v1",
		},
		Reference: ReferenceConfig{
			Timeout: 30 * time.Second,
		},
		Compare: CompareConfig{
			SkipPrivateMissing: true,
		},
		Report: ReportConfig{
			Format: "text",
		},
		Logging: LoggingConfig{
			Format: "terminal",
			Level:  "warn",
		},
	}
}

// Load reads the configuration file at path. The format follows the
// file extension (yaml, yml, toml or json). Unset keys keep their
// defaults and STUBCHECK_* environment variables override both.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetConfigFile(path)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config %s: %w", path, err)
	}
	cfg.file = path

	return &cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("analyzer.builtins_module", d.Analyzer.BuiltinsModule)
	v.SetDefault("analyzer.stub_suffix", d.Analyzer.StubSuffix)
	v.SetDefault("analyzer.exclude", d.Analyzer.Exclude)
	v.SetDefault("analyzer.format_version", d.Analyzer.FormatVersion)
	v.SetDefault("reference.path", d.Reference.Path)
	v.SetDefault("reference.url", d.Reference.URL)
	v.SetDefault("reference.mirrors", d.Reference.Mirrors)
	v.SetDefault("reference.timeout", d.Reference.Timeout)
	v.SetDefault("compare.skip_private_missing", d.Compare.SkipPrivateMissing)
	v.SetDefault("report.format", d.Report.Format)
	v.SetDefault("report.show_suppressed", d.Report.ShowSuppressed)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.level", d.Logging.Level)
}

// File returns the path the configuration was loaded from.
func (c *Config) File() string {
	return c.file
}

// ReferenceLocation returns the configured reference stubs, preferring
// a local path over a bundle URL. Relative paths are resolved against
// the directory of the configuration file.
func (c *Config) ReferenceLocation() string {
	if p := c.Reference.Path; p != "" {
		if filepath.IsAbs(p) || c.file == "" {
			return p
		}
		return filepath.Join(filepath.Dir(c.file), p)
	}
	return c.Reference.URL
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Analyzer.StubSuffix == "" {
		return &ConfigError{Field: "analyzer.stub_suffix", Message: "must not be empty"}
	}
	if c.Analyzer.BuiltinsModule == "" {
		return &ConfigError{Field: "analyzer.builtins_module", Message: "must not be empty"}
	}
	fv := c.Analyzer.FormatVersion
	if !semver.IsValid(fv) || semver.Major(fv) != fv {
		return &ConfigError{Field: "analyzer.format_version", Message: fmt.Sprintf("%q is not a major version such as \"v1\"", fv)}
	}
	if c.Reference.Timeout < 0 {
		return &ConfigError{Field: "reference.timeout", Message: "must not be negative"}
	}
	if err := oneOf("report.format", c.Report.Format, reportFormats); err != nil {
		return err
	}
	if err := oneOf("logging.format", c.Logging.Format, logFormats); err != nil {
		return err
	}
	return oneOf("logging.level", strings.ToLower(c.Logging.Level), logLevels)
}

func oneOf(field, value string, valid []string) error {
	if slices.Contains(valid, value) {
		return nil
	}
	return &ConfigError{
		Field:   field,
		Message: fmt.Sprintf("%q is not valid (use one of %s)", value, strings.Join(valid, ", ")),
	}
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
