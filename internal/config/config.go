package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the complete application configuration
type Config struct {
	R2      R2Config      `mapstructure:"r2"`
	Log     LogConfig     `mapstructure:"log"`
	General GeneralConfig `mapstructure:"general"`
	Upload  UploadConfig  `mapstructure:"upload"`
	Browser BrowserConfig `mapstructure:"browser"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// R2Config holds R2/S3 specific configuration
type R2Config struct {
	AccountID       string   `mapstructure:"account_id"`
	AccessKeyID     string   `mapstructure:"access_key_id"`
	AccessKeySecret string   `mapstructure:"access_key_secret"`
	BucketName      string   `mapstructure:"bucket_name"`
	Endpoint        string   `mapstructure:"endpoint"`
	Region          string   `mapstructure:"region"`
	CustomDomains   []string `mapstructure:"custom_domains"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// GeneralConfig holds general application configuration
type GeneralConfig struct {
	DefaultTimeout int    `mapstructure:"default_timeout"`
	MaxRetries     int    `mapstructure:"max_retries"`
	ConfigPath     string `mapstructure:"config_path"`
}

// UploadConfig holds upload-specific configuration
type UploadConfig struct {
	DefaultOverwrite      bool        `mapstructure:"default_overwrite"`
	DefaultPublic         bool        `mapstructure:"default_public"`
	AutoDetectContentType bool        `mapstructure:"auto_detect_content_type"`
	MaxFiles              int         `mapstructure:"max_files"`
	MaxFileSizeMB         int64       `mapstructure:"max_file_size_mb"`
	Legals                []LegalType `mapstructure:"legals"`
}

// LegalType is one accepted mime type and its extensions
type LegalType struct {
	Mime       string   `mapstructure:"mime"`
	Extensions []string `mapstructure:"extensions"`
}

// BrowserConfig holds the interactive browser configuration
type BrowserConfig struct {
	Mode              string          `mapstructure:"mode"`
	EnablePath        bool            `mapstructure:"enable_path"`
	RollbackOnFailure bool            `mapstructure:"rollback_on_failure"`
	Notify            string          `mapstructure:"notify"`
	Selection         SelectionConfig `mapstructure:"selection"`
	// Windows maps dialog names to their initial open state
	Windows map[string]bool `mapstructure:"windows"`
}

// SelectionConfig holds selection behaviour
type SelectionConfig struct {
	Multiple  bool     `mapstructure:"multiple"`
	Which     []string `mapstructure:"which"`
	FileTypes []string `mapstructure:"file_types"`
}

// MetricsConfig holds the prometheus endpoint configuration
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// DefaultLegals are the accepted uploads when none are configured
var DefaultLegals = []LegalType{
	{Mime: "image/jpeg", Extensions: []string{".jpg", ".jpeg"}},
	{Mime: "image/png", Extensions: []string{".png"}},
	{Mime: "image/gif", Extensions: []string{".gif"}},
	{Mime: "image/webp", Extensions: []string{".webp"}},
	{Mime: "image/svg+xml", Extensions: []string{".svg"}},
	{Mime: "application/pdf", Extensions: []string{".pdf"}},
	{Mime: "text/plain", Extensions: []string{".txt", ".log"}},
	{Mime: "text/markdown", Extensions: []string{".md"}},
	{Mime: "text/csv", Extensions: []string{".csv"}},
	{Mime: "application/json", Extensions: []string{".json"}},
	{Mime: "application/zip", Extensions: []string{".zip"}},
	{Mime: "video/mp4", Extensions: []string{".mp4"}},
	{Mime: "audio/mpeg", Extensions: []string{".mp3"}},
}

// Load loads configuration from multiple sources with priority:
// 1. Command line flags (highest)
// 2. Environment variables
// 3. Configuration file
// 4. Defaults (lowest)
func Load(configPath string) (*Config, error) {
	config, err := load(configPath)
	if err != nil {
		return nil, err
	}

	if err := Validate(config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("R2DRIVE")
	v.AutomaticEnv()

	v.BindEnv("r2.account_id", "R2DRIVE_ACCOUNT_ID")
	v.BindEnv("r2.access_key_id", "R2DRIVE_ACCESS_KEY_ID")
	v.BindEnv("r2.access_key_secret", "R2DRIVE_ACCESS_KEY_SECRET")
	v.BindEnv("r2.bucket_name", "R2DRIVE_BUCKET_NAME")
	v.BindEnv("r2.endpoint", "R2DRIVE_ENDPOINT")
	v.BindEnv("r2.region", "R2DRIVE_REGION")
	v.BindEnv("r2.custom_domains", "R2DRIVE_CUSTOM_DOMAINS")
	v.BindEnv("log.level", "R2DRIVE_LOG_LEVEL")
	v.BindEnv("log.format", "R2DRIVE_LOG_FORMAT")
	v.BindEnv("upload.default_overwrite", "R2DRIVE_UPLOAD_DEFAULT_OVERWRITE")
	v.BindEnv("upload.default_public", "R2DRIVE_UPLOAD_DEFAULT_PUBLIC")
	v.BindEnv("upload.max_files", "R2DRIVE_UPLOAD_MAX_FILES")
	v.BindEnv("upload.max_file_size_mb", "R2DRIVE_UPLOAD_MAX_FILE_SIZE_MB")
	v.BindEnv("browser.mode", "R2DRIVE_BROWSER_MODE")
	v.BindEnv("browser.enable_path", "R2DRIVE_BROWSER_ENABLE_PATH")
	v.BindEnv("browser.rollback_on_failure", "R2DRIVE_BROWSER_ROLLBACK_ON_FAILURE")
	v.BindEnv("browser.notify", "R2DRIVE_BROWSER_NOTIFY")
	v.BindEnv("metrics.addr", "R2DRIVE_METRICS_ADDR")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")

		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.r2drive")
		v.AddConfigPath("/etc/r2drive/")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is not an error - we can use defaults and env vars
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if len(config.Upload.Legals) == 0 {
		config.Upload.Legals = append([]LegalType(nil), DefaultLegals...)
	}

	return &config, nil
}

// setDefaults sets default values for configuration
func setDefaults(v *viper.Viper) {
	// R2 defaults
	v.SetDefault("r2.endpoint", "auto")
	v.SetDefault("r2.region", "auto")

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	// General defaults
	v.SetDefault("general.default_timeout", 30)
	v.SetDefault("general.max_retries", 3)

	// Upload defaults
	v.SetDefault("upload.default_overwrite", false)
	v.SetDefault("upload.default_public", false)
	v.SetDefault("upload.auto_detect_content_type", true)
	v.SetDefault("upload.max_files", 20)
	v.SetDefault("upload.max_file_size_mb", 100)

	// Browser defaults
	v.SetDefault("browser.mode", "normal")
	v.SetDefault("browser.enable_path", true)
	v.SetDefault("browser.rollback_on_failure", false)
	v.SetDefault("browser.notify", "log")
	v.SetDefault("browser.selection.multiple", true)
	v.SetDefault("browser.selection.which", []string{"file", "folder"})

	// Metrics are off unless an address is set
	v.SetDefault("metrics.addr", "")
}

// GetDefaultConfigPath returns the default configuration file path
func GetDefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./config.toml"
	}
	return filepath.Join(homeDir, ".r2drive", "config.toml")
}

// EnsureConfigDir creates the configuration directory if it doesn't exist
func EnsureConfigDir() error {
	configPath := GetDefaultConfigPath()
	dir := filepath.Dir(configPath)
	return os.MkdirAll(dir, 0700)
}

// CustomDomain returns the public domain for bucket. Entries in
// custom_domains are either "bucket=domain" or a bare domain that
// applies to every bucket.
func (c *R2Config) CustomDomain(bucket string) string {
	fallback := ""
	for _, entry := range c.CustomDomains {
		name, domain, scoped := strings.Cut(entry, "=")
		if !scoped {
			if fallback == "" {
				fallback = strings.TrimSpace(entry)
			}
			continue
		}
		if strings.TrimSpace(name) == bucket {
			return strings.TrimSpace(domain)
		}
	}
	return fallback
}
