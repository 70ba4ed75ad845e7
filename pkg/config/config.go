package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for ninlil
type Config struct {
	// Tumblr application credentials and endpoints
	Tumblr TumblrConfig `yaml:"tumblr" json:"tumblr"`

	// API query behaviour
	API APIConfig `yaml:"api" json:"api"`

	// Rate limiting configuration
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Retry configuration for photo fetches and API pages
	Retry RetryConfig `yaml:"retry" json:"retry"`

	// Download settings
	Download DownloadConfig `yaml:"download" json:"download"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Web session layer
	Server ServerConfig `yaml:"server" json:"server"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// TumblrConfig holds the application-level OAuth consumer pair and endpoint URLs
type TumblrConfig struct {
	ConsumerKey     string `yaml:"consumer_key" json:"consumer_key"`
	ConsumerSecret  string `yaml:"consumer_secret" json:"consumer_secret"`
	APIBaseURL      string `yaml:"api_base_url" json:"api_base_url"`
	RequestTokenURL string `yaml:"request_token_url" json:"request_token_url"`
	AuthorizeURL    string `yaml:"authorize_url" json:"authorize_url"`
	AccessTokenURL  string `yaml:"access_token_url" json:"access_token_url"`
	CallbackURL     string `yaml:"callback_url" json:"callback_url"`
	UserAgent       string `yaml:"user_agent" json:"user_agent"`
}

// APIConfig controls post retrieval
type APIConfig struct {
	// MaxPages caps pagination; 0 walks every page, 1 reads only the newest page.
	MaxPages int           `yaml:"max_pages" json:"max_pages"`
	PageSize int           `yaml:"page_size" json:"page_size"`
	Timeout  time.Duration `yaml:"timeout" json:"timeout"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" json:"requests_per_minute"`
	BurstSize         int `yaml:"burst_size" json:"burst_size"`
}

// RetryConfig holds retry configuration
type RetryConfig struct {
	Enabled           bool          `yaml:"enabled" json:"enabled"`
	MaxAttempts       int           `yaml:"max_attempts" json:"max_attempts"`
	BaseDelay         time.Duration `yaml:"base_delay" json:"base_delay"`
	MaxDelay          time.Duration `yaml:"max_delay" json:"max_delay"`
	BackoffMultiplier float64       `yaml:"backoff_multiplier" json:"backoff_multiplier"`
	JitterFactor      float64       `yaml:"jitter_factor" json:"jitter_factor"`
}

// DownloadConfig holds download-specific configuration
type DownloadConfig struct {
	ConcurrentDownloads int           `yaml:"concurrent_downloads" json:"concurrent_downloads"`
	DownloadTimeout     time.Duration `yaml:"download_timeout" json:"download_timeout"`
}

// OutputConfig holds output directory configuration
type OutputConfig struct {
	// BaseDirectory receives finished archives
	BaseDirectory string `yaml:"base_directory" json:"base_directory"`
	// WorkDirectory is the parent for per-job temporary directories; empty means os.TempDir()
	WorkDirectory string `yaml:"work_directory" json:"work_directory"`
}

// ServerConfig holds web server configuration
type ServerConfig struct {
	Address         string        `yaml:"address" json:"address"`
	PublicURL       string        `yaml:"public_url" json:"public_url"`
	ReadTimeout     time.Duration `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout" json:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" json:"shutdown_timeout"`
	PendingTTL      time.Duration `yaml:"pending_ttl" json:"pending_ttl"`
	Debug           bool          `yaml:"debug" json:"debug"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Tumblr: TumblrConfig{
			APIBaseURL:      "https://api.tumblr.com/v2",
			RequestTokenURL: "https://www.tumblr.com/oauth/request_token",
			AuthorizeURL:    "https://www.tumblr.com/oauth/authorize",
			AccessTokenURL:  "https://www.tumblr.com/oauth/access_token",
			CallbackURL:     "http://localhost:8765/callback",
			UserAgent:       "ninlil/1.0",
		},
		API: APIConfig{
			MaxPages: 0,
			PageSize: 20,
			Timeout:  30 * time.Second,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 300,
			BurstSize:         10,
		},
		Retry: RetryConfig{
			Enabled:           true,
			MaxAttempts:       3,
			BaseDelay:         1 * time.Second,
			MaxDelay:          30 * time.Second,
			BackoffMultiplier: 2.0,
			JitterFactor:      0.1,
		},
		Download: DownloadConfig{
			ConcurrentDownloads: 3,
			DownloadTimeout:     30 * time.Second,
		},
		Output: OutputConfig{
			BaseDirectory: "./archives",
			WorkDirectory: "",
		},
		Server: ServerConfig{
			Address:         "localhost:8080",
			PublicURL:       "http://localhost:8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    10 * time.Minute,
			ShutdownTimeout: 30 * time.Second,
			PendingTTL:      15 * time.Minute,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if key := os.Getenv("TUMBLR_CONSUMER_KEY"); key != "" {
		c.Tumblr.ConsumerKey = key
	}
	if secret := os.Getenv("TUMBLR_CONSUMER_SECRET"); secret != "" {
		c.Tumblr.ConsumerSecret = secret
	}
	if callback := os.Getenv("NINLIL_CALLBACK_URL"); callback != "" {
		c.Tumblr.CallbackURL = callback
	}
	if base := os.Getenv("NINLIL_API_BASE_URL"); base != "" {
		c.Tumblr.APIBaseURL = base
	}

	if pages := os.Getenv("NINLIL_MAX_PAGES"); pages != "" {
		val, err := strconv.Atoi(pages)
		if err != nil {
			return fmt.Errorf("invalid NINLIL_MAX_PAGES %q: %w", pages, err)
		}
		c.API.MaxPages = val
	}

	if rpm := os.Getenv("NINLIL_REQUESTS_PER_MINUTE"); rpm != "" {
		val, err := strconv.Atoi(rpm)
		if err != nil {
			return fmt.Errorf("invalid NINLIL_REQUESTS_PER_MINUTE %q: %w", rpm, err)
		}
		c.RateLimit.RequestsPerMinute = val
	}

	if concurrent := os.Getenv("NINLIL_CONCURRENT_DOWNLOADS"); concurrent != "" {
		val, err := strconv.Atoi(concurrent)
		if err != nil {
			return fmt.Errorf("invalid NINLIL_CONCURRENT_DOWNLOADS %q: %w", concurrent, err)
		}
		c.Download.ConcurrentDownloads = val
	}

	if timeout := os.Getenv("NINLIL_DOWNLOAD_TIMEOUT"); timeout != "" {
		val, err := time.ParseDuration(timeout)
		if err != nil {
			return fmt.Errorf("invalid NINLIL_DOWNLOAD_TIMEOUT %q: %w", timeout, err)
		}
		c.Download.DownloadTimeout = val
	}

	if outputDir := os.Getenv("NINLIL_OUTPUT_DIR"); outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}
	if workDir := os.Getenv("NINLIL_WORK_DIR"); workDir != "" {
		c.Output.WorkDirectory = workDir
	}

	if addr := os.Getenv("NINLIL_SERVER_ADDRESS"); addr != "" {
		c.Server.Address = addr
	}
	if publicURL := os.Getenv("NINLIL_PUBLIC_URL"); publicURL != "" {
		c.Server.PublicURL = publicURL
	}

	if logLevel := os.Getenv("NINLIL_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil
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

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		".ninlil.yaml",
		".ninlil.yml",
		filepath.Join(home, ".config", "ninlil", "config.yaml"),
		filepath.Join(home, ".config", "ninlil", "config.yml"),
		filepath.Join(home, ".ninlil.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Tumblr.APIBaseURL == "" {
		errs = append(errs, errors.New("tumblr API base URL is required"))
	}
	if c.Tumblr.RequestTokenURL == "" || c.Tumblr.AuthorizeURL == "" || c.Tumblr.AccessTokenURL == "" {
		errs = append(errs, errors.New("tumblr OAuth endpoints are required"))
	}

	if c.API.MaxPages < 0 {
		errs = append(errs, errors.New("max pages cannot be negative"))
	}
	if c.API.PageSize <= 0 || c.API.PageSize > 20 {
		errs = append(errs, errors.New("page size must be between 1 and 20"))
	}

	if c.RateLimit.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("requests per minute must be positive"))
	}
	if c.RateLimit.BurstSize <= 0 {
		errs = append(errs, errors.New("burst size must be positive"))
	}

	if c.Retry.MaxAttempts < 0 {
		errs = append(errs, errors.New("max retry attempts cannot be negative"))
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

	if c.Output.BaseDirectory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// RequireConsumer reports an error unless the application consumer pair is configured.
func (c *Config) RequireConsumer() error {
	if c.Tumblr.ConsumerKey == "" || c.Tumblr.ConsumerSecret == "" {
		return errors.New("tumblr consumer key and secret are required (set TUMBLR_CONSUMER_KEY and TUMBLR_CONSUMER_SECRET)")
	}
	return nil
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
	if outputDir, ok := flags["output"].(string); ok && outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}
	if concurrent, ok := flags["concurrent"].(int); ok && concurrent > 0 {
		c.Download.ConcurrentDownloads = concurrent
	}
	if maxPages, ok := flags["max-pages"].(int); ok && maxPages >= 0 {
		c.API.MaxPages = maxPages
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
	if addr, ok := flags["address"].(string); ok && addr != "" {
		c.Server.Address = addr
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".ninlil.env"))

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
