package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultTypeName is the node type used when none is configured
	DefaultTypeName = "Instagram"

	// DefaultLimit is the number of media entries fetched per sourcing cycle
	DefaultLimit = 5

	// DefaultLocale is the locale used for formatted dates
	DefaultLocale = "en"

	// DefaultGraphBaseURL is the Instagram Graph API host
	DefaultGraphBaseURL = "https://graph.instagram.com"
)

// Config holds all configuration options for igsource
type Config struct {
	// Sourcing options (the plugin options of the content source)
	Source SourceConfig `yaml:"source" json:"source"`

	// Graph API client settings
	Graph GraphConfig `yaml:"graph" json:"graph"`

	// File download settings
	Download DownloadConfig `yaml:"download" json:"download"`

	// Where nodes, schema and downloaded files are written
	Output OutputConfig `yaml:"output" json:"output"`

	// Rate limiting for file downloads
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Retry policy for file downloads
	Retry RetryConfig `yaml:"retry" json:"retry"`

	// Scheduled token refresh
	Schedule ScheduleConfig `yaml:"schedule" json:"schedule"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// SourceConfig holds the options that drive one sourcing cycle
type SourceConfig struct {
	Token           string `yaml:"token" json:"token"`
	Limit           int    `yaml:"limit" json:"limit"`
	Locale          string `yaml:"locale" json:"locale"`
	Type            string `yaml:"type" json:"type"`
	Account         string `yaml:"account" json:"account"`
	// StrictDownloads fails the cycle on the first download failure.
	// Unset means strict.
	StrictDownloads *bool  `yaml:"strict_downloads,omitempty" json:"strict_downloads,omitempty"`
}

// Strict reports whether download failures are fatal
func (s SourceConfig) Strict() bool {
	return s.StrictDownloads == nil || *s.StrictDownloads
}

// SetStrict sets the download failure policy
func (s *SourceConfig) SetStrict(strict bool) {
	s.StrictDownloads = &strict
}

// GraphConfig holds Graph API client settings
type GraphConfig struct {
	BaseURL string        `yaml:"base_url" json:"base_url"`
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
}

// DownloadConfig holds download-specific configuration
type DownloadConfig struct {
	ConcurrentDownloads int           `yaml:"concurrent_downloads" json:"concurrent_downloads"`
	DownloadTimeout     time.Duration `yaml:"download_timeout" json:"download_timeout"`
	MaxFileSize         int64         `yaml:"max_file_size" json:"max_file_size"`
}

// OutputConfig holds output locations. Relative file names are resolved
// against BaseDirectory.
type OutputConfig struct {
	BaseDirectory  string `yaml:"base_directory" json:"base_directory"`
	NodesFile      string `yaml:"nodes_file" json:"nodes_file"`
	SchemaFile     string `yaml:"schema_file" json:"schema_file"`
	CacheDirectory string `yaml:"cache_directory" json:"cache_directory"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" json:"requests_per_minute"`
}

// RetryConfig holds retry configuration for file downloads
type RetryConfig struct {
	Enabled     bool          `yaml:"enabled" json:"enabled"`
	MaxAttempts int           `yaml:"max_attempts" json:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay" json:"base_delay"`
	MaxDelay    time.Duration `yaml:"max_delay" json:"max_delay"`
	Multiplier  float64       `yaml:"multiplier" json:"multiplier"`
}

// ScheduleConfig holds the cron expression for token refresh
type ScheduleConfig struct {
	RefreshCron string `yaml:"refresh_cron" json:"refresh_cron"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Source: SourceConfig{
			Limit:           DefaultLimit,
			Locale:          DefaultLocale,
			Type:            DefaultTypeName,
			StrictDownloads: boolPtr(true),
		},
		Graph: GraphConfig{
			BaseURL: DefaultGraphBaseURL,
			Timeout: 30 * time.Second,
		},
		Download: DownloadConfig{
			ConcurrentDownloads: 3,
			DownloadTimeout:     30 * time.Second,
			MaxFileSize:         0, // 0 means no limit
		},
		Output: OutputConfig{
			BaseDirectory:  "./.igsource",
			NodesFile:      "nodes.json",
			SchemaFile:     "schema.graphql",
			CacheDirectory: "files",
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 60,
		},
		Retry: RetryConfig{
			Enabled:     true,
			MaxAttempts: 3,
			BaseDelay:   1 * time.Second,
			MaxDelay:    30 * time.Second,
			Multiplier:  2.0,
		},
		Schedule: ScheduleConfig{
			RefreshCron: "@every 720h",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if token := os.Getenv("IGSOURCE_TOKEN"); token != "" {
		c.Source.Token = token
	}
	if limit := os.Getenv("IGSOURCE_LIMIT"); limit != "" {
		var val int
		if _, err := fmt.Sscanf(limit, "%d", &val); err != nil {
			return fmt.Errorf("invalid IGSOURCE_LIMIT %q: %w", limit, err)
		}
		c.Source.Limit = val
	}
	if locale := os.Getenv("IGSOURCE_LOCALE"); locale != "" {
		c.Source.Locale = locale
	}
	if typeName := os.Getenv("IGSOURCE_TYPE"); typeName != "" {
		c.Source.Type = typeName
	}
	if account := os.Getenv("IGSOURCE_ACCOUNT"); account != "" {
		c.Source.Account = account
	}
	if strict := os.Getenv("IGSOURCE_STRICT_DOWNLOADS"); strict != "" {
		c.Source.SetStrict(strings.ToLower(strict) == "true")
	}

	if baseURL := os.Getenv("IGSOURCE_GRAPH_BASE_URL"); baseURL != "" {
		c.Graph.BaseURL = baseURL
	}

	if outputDir := os.Getenv("IGSOURCE_OUTPUT_DIR"); outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}

	if concurrent := os.Getenv("IGSOURCE_CONCURRENT_DOWNLOADS"); concurrent != "" {
		var val int
		fmt.Sscanf(concurrent, "%d", &val)
		if val > 0 {
			c.Download.ConcurrentDownloads = val
		}
	}

	if logLevel := os.Getenv("IGSOURCE_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = FindConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// FindConfigFile searches for a config file in standard locations
func FindConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		".igsource.yaml",
		".igsource.yml",
		filepath.Join(home, ".config", "igsource", "config.yaml"),
		filepath.Join(home, ".config", "igsource", "config.yml"),
		filepath.Join(home, ".igsource.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid. The access token is not
// checked here because it may come from the credential store.
func (c *Config) Validate() error {
	var errs []error

	if c.Source.Limit < 1 {
		errs = append(errs, errors.New("source limit must be at least 1"))
	}
	if strings.TrimSpace(c.Source.Type) == "" {
		errs = append(errs, errors.New("source type name is required"))
	}
	if strings.TrimSpace(c.Source.Locale) == "" {
		errs = append(errs, errors.New("source locale is required"))
	}

	if c.Graph.BaseURL == "" {
		errs = append(errs, errors.New("graph base URL is required"))
	}
	if c.Graph.Timeout <= 0 {
		errs = append(errs, errors.New("graph timeout must be positive"))
	}

	if c.Download.ConcurrentDownloads <= 0 {
		errs = append(errs, errors.New("concurrent downloads must be positive"))
	}
	if c.Download.ConcurrentDownloads > 10 {
		errs = append(errs, errors.New("concurrent downloads should not exceed 10"))
	}
	if c.Download.DownloadTimeout <= 0 {
		errs = append(errs, errors.New("download timeout must be positive"))
	}
	if c.Download.MaxFileSize < 0 {
		errs = append(errs, errors.New("max file size cannot be negative"))
	}

	if c.Output.BaseDirectory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}

	if c.RateLimit.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("requests per minute must be positive"))
	}

	if c.Retry.Enabled && c.Retry.MaxAttempts < 1 {
		errs = append(errs, errors.New("retry max attempts must be at least 1"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "disabled": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// NodesPath returns the resolved path of the persisted node store
func (c *Config) NodesPath() string {
	return c.resolve(c.Output.NodesFile)
}

// SchemaPath returns the resolved path of the published schema
func (c *Config) SchemaPath() string {
	return c.resolve(c.Output.SchemaFile)
}

// CachePath returns the resolved directory for downloaded files
func (c *Config) CachePath() string {
	return c.resolve(c.Output.CacheDirectory)
}

func (c *Config) resolve(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.Output.BaseDirectory, name)
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if token, ok := flags["token"].(string); ok && token != "" {
		c.Source.Token = token
	}
	if limit, ok := flags["limit"].(int); ok {
		c.Source.Limit = limit
	}
	if locale, ok := flags["locale"].(string); ok && locale != "" {
		c.Source.Locale = locale
	}
	if typeName, ok := flags["type"].(string); ok && typeName != "" {
		c.Source.Type = typeName
	}
	if account, ok := flags["account"].(string); ok && account != "" {
		c.Source.Account = account
	}
	if strict, ok := flags["strict-downloads"].(bool); ok {
		c.Source.SetStrict(strict)
	}
	if outputDir, ok := flags["output"].(string); ok && outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}
	if concurrent, ok := flags["concurrent"].(int); ok && concurrent > 0 {
		c.Download.ConcurrentDownloads = concurrent
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// .env files are optional
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".igsource.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

func boolPtr(b bool) *bool {
	return &b
}
