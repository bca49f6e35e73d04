package atg

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Config contains all configuration options for the generator
type Config struct {
	// CacheMaxSize is the maximum number of parsed templates to cache. 0 disables caching.
	CacheMaxSize int
	// CacheTTL is the time-to-live for cached templates. 0 means no expiration.
	CacheTTL time.Duration
	// LogLevel controls the verbosity of logging (debug, info, warn, error, off)
	LogLevel string
	// MaxNestingDepth limits how deeply bracket expressions may nest. 0 means unlimited.
	MaxNestingDepth int
	// StrictMode turns the first evaluation warning into an error
	StrictMode bool
	// Workers is the number of rows evaluated concurrently. 1 evaluates sequentially.
	Workers int
	// CSVDelimiter separates fields of delimited table files
	CSVDelimiter rune
	// InputEncoding is the encoding of template and table files
	InputEncoding string
}

// fileConfig is the on-disk shape of Config, shared by TOML and YAML files.
type fileConfig struct {
	CacheMaxSize    *int    `toml:"cache_max_size" yaml:"cache_max_size"`
	CacheTTL        *string `toml:"cache_ttl" yaml:"cache_ttl"`
	LogLevel        *string `toml:"log_level" yaml:"log_level"`
	MaxNestingDepth *int    `toml:"max_nesting_depth" yaml:"max_nesting_depth"`
	StrictMode      *bool   `toml:"strict_mode" yaml:"strict_mode"`
	Workers         *int    `toml:"workers" yaml:"workers"`
	CSVDelimiter    *string `toml:"csv_delimiter" yaml:"csv_delimiter"`
	InputEncoding   *string `toml:"input_encoding" yaml:"input_encoding"`
}

var (
	globalConfig      = ConfigFromEnvironment()
	globalConfigMutex sync.RWMutex
)

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		CacheMaxSize:    100,
		CacheTTL:        0,
		LogLevel:        "info",
		MaxNestingDepth: 0,
		StrictMode:      false,
		Workers:         1,
		CSVDelimiter:    ';',
		InputEncoding:   "utf-8",
	}
}

// ConfigFromEnvironment creates a configuration from environment variables
func ConfigFromEnvironment() *Config {
	config := DefaultConfig()
	config.ApplyEnvironment()
	return config
}

// ApplyEnvironment overrides c with any ATG_* environment variables that are
// set and parse cleanly.
func (c *Config) ApplyEnvironment() {
	if val := os.Getenv("ATG_CACHE_MAX_SIZE"); val != "" {
		if size, err := strconv.Atoi(val); err == nil {
			c.CacheMaxSize = size
		}
	}

	if val := os.Getenv("ATG_CACHE_TTL"); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			c.CacheTTL = duration
		}
	}

	if val := os.Getenv("ATG_LOG_LEVEL"); val != "" {
		c.LogLevel = val
	}

	if val := os.Getenv("ATG_MAX_NESTING_DEPTH"); val != "" {
		if depth, err := strconv.Atoi(val); err == nil {
			c.MaxNestingDepth = depth
		}
	}

	if val := os.Getenv("ATG_STRICT_MODE"); val != "" {
		c.StrictMode = parseBool(val)
	}

	if val := os.Getenv("ATG_WORKERS"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			c.Workers = n
		}
	}

	if val := os.Getenv("ATG_CSV_DELIMITER"); val != "" {
		if r, err := ParseDelimiter(val); err == nil {
			c.CSVDelimiter = r
		}
	}

	if val := os.Getenv("ATG_INPUT_ENCODING"); val != "" {
		c.InputEncoding = val
	}
}

// LoadConfigFile reads a TOML (.toml) or YAML (.yaml, .yml) file on top of
// DefaultConfig. Keys absent from the file keep their default.
func LoadConfigFile(path string) (*Config, error) {
	var fc fileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.DecodeFile(path, &fc); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q", filepath.Ext(path))
	}

	config := DefaultConfig()
	if err := fc.apply(config); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return config, nil
}

func (fc *fileConfig) apply(c *Config) error {
	if fc.CacheMaxSize != nil {
		c.CacheMaxSize = *fc.CacheMaxSize
	}
	if fc.CacheTTL != nil {
		d, err := time.ParseDuration(*fc.CacheTTL)
		if err != nil {
			return fmt.Errorf("cache_ttl: %w", err)
		}
		c.CacheTTL = d
	}
	if fc.LogLevel != nil {
		c.LogLevel = *fc.LogLevel
	}
	if fc.MaxNestingDepth != nil {
		c.MaxNestingDepth = *fc.MaxNestingDepth
	}
	if fc.StrictMode != nil {
		c.StrictMode = *fc.StrictMode
	}
	if fc.Workers != nil {
		c.Workers = *fc.Workers
	}
	if fc.CSVDelimiter != nil {
		r, err := ParseDelimiter(*fc.CSVDelimiter)
		if err != nil {
			return fmt.Errorf("csv_delimiter: %w", err)
		}
		c.CSVDelimiter = r
	}
	if fc.InputEncoding != nil {
		c.InputEncoding = *fc.InputEncoding
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.CacheMaxSize < 0 {
		return errors.New("cache max size cannot be negative")
	}

	if c.CacheTTL < 0 {
		return errors.New("cache TTL cannot be negative")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
		"off":   true,
	}

	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		return errors.New("invalid log level: " + c.LogLevel)
	}

	if c.MaxNestingDepth < 0 {
		return errors.New("max nesting depth cannot be negative")
	}

	if c.Workers <= 0 {
		return errors.New("workers must be positive")
	}

	if c.CSVDelimiter == 0 || c.CSVDelimiter == '"' || c.CSVDelimiter == '\r' || c.CSVDelimiter == '\n' {
		return fmt.Errorf("invalid csv delimiter %q", c.CSVDelimiter)
	}

	return nil
}

// GetGlobalConfig returns the global configuration
func GetGlobalConfig() *Config {
	globalConfigMutex.RLock()
	defer globalConfigMutex.RUnlock()

	if globalConfig == nil {
		return DefaultConfig()
	}

	configCopy := *globalConfig
	return &configCopy
}

// SetGlobalConfig sets the global configuration
func SetGlobalConfig(config *Config) {
	globalConfigMutex.Lock()
	globalConfig = config
	globalConfigMutex.Unlock()

	UpdateLoggerFromConfig()
}

// parseBool parses a boolean value from a string
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes" || s == "on"
}

// ParseDelimiter accepts a single character or one of the names "tab",
// "comma", "semicolon".
func ParseDelimiter(s string) (rune, error) {
	switch strings.ToLower(s) {
	case "tab", `\t`:
		return '\t', nil
	case "comma":
		return ',', nil
	case "semicolon":
		return ';', nil
	}
	if utf8.RuneCountInString(s) != 1 {
		return 0, fmt.Errorf("delimiter must be a single character, got %q", s)
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r, nil
}
