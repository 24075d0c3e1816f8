package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// Default values
	DefaultPort        = 8080
	DefaultHost        = "127.0.0.1"
	DefaultLogLevel    = "info"
	DefaultMaxFileSize = 50 * 1024 * 1024 // 50MB
	DefaultTemplate    = "dd1750.pdf"
	DefaultProfile     = "standard"
	DefaultQtyCeiling  = 99999

	// Directory permissions
	DefaultDirPerm = 0o750
)

// Config holds all configuration for the DD 1750 generation server
type Config struct {
	// Server configuration
	Host string
	Port int

	// Template configuration
	TemplateDir     string
	DefaultTemplate string

	// Extraction and layout configuration
	Profile           string // geometry profile name
	StartPage         int    // zero-based first BOM page to read
	QtyCeiling        int    // quantities above this are dropped as parse noise
	RequireIdentifier bool   // discard records without a stock number

	// Application configuration
	Version     string
	ServerName  string
	LogLevel    string
	MaxFileSize int64 // Maximum upload size in bytes
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		// Fallback to current directory if working directory cannot be determined
		currentDir = "."
	}

	return &Config{
		Host:              DefaultHost,
		Port:              DefaultPort,
		TemplateDir:       filepath.Join(currentDir, "templates"),
		DefaultTemplate:   DefaultTemplate,
		Profile:           DefaultProfile,
		StartPage:         0,
		QtyCeiling:        DefaultQtyCeiling,
		RequireIdentifier: false,
		Version:           "1.0.0",
		ServerName:        "dd1750-server",
		LogLevel:          DefaultLogLevel,
		MaxFileSize:       DefaultMaxFileSize,
	}
}

// LoadFromFlags parses command line flags and returns a configuration
func LoadFromFlags() (*Config, error) {
	cfg := DefaultConfig()

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()
	setupUsageMessage()

	// Check for version flag before parsing
	if err := checkVersionFlag(); err != nil {
		return nil, err
	}

	pflag.Parse()

	populateConfigFromViper(cfg)

	// Expand paths if needed
	if cfg.TemplateDir != "" {
		if expandedPath, err := filepath.Abs(cfg.TemplateDir); err == nil {
			cfg.TemplateDir = expandedPath
		}
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(cfg *Config) {
	// Set environment variable prefix
	viper.SetEnvPrefix("DD1750")
	viper.AutomaticEnv()

	viper.SetDefault("host", cfg.Host)
	viper.SetDefault("port", cfg.Port)
	viper.SetDefault("templatedir", cfg.TemplateDir)
	viper.SetDefault("template", cfg.DefaultTemplate)
	viper.SetDefault("profile", cfg.Profile)
	viper.SetDefault("startpage", cfg.StartPage)
	viper.SetDefault("qtyceiling", cfg.QtyCeiling)
	viper.SetDefault("requireidentifier", cfg.RequireIdentifier)
	viper.SetDefault("loglevel", cfg.LogLevel)
	viper.SetDefault("maxfilesize", cfg.MaxFileSize)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(cfg *Config) {
	pflag.String("host", cfg.Host, "Server host address")
	pflag.Int("port", cfg.Port, "Server port")
	pflag.String("templatedir", cfg.TemplateDir, "Directory containing blank form templates")
	pflag.String("template", cfg.DefaultTemplate, "Default template file name")
	pflag.String("profile", cfg.Profile, "Form geometry profile (standard, compact)")
	pflag.Int("startpage", cfg.StartPage, "First page of the listing to read, zero-based")
	pflag.Int("qtyceiling", cfg.QtyCeiling, "Largest quantity accepted from a listing line")
	pflag.Bool("requireidentifier", cfg.RequireIdentifier, "Discard items that have no stock number")
	pflag.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	pflag.Int64("maxfilesize", cfg.MaxFileSize, "Maximum upload size in bytes")
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper() {
	_ = viper.BindPFlag("host", pflag.Lookup("host"))
	_ = viper.BindPFlag("port", pflag.Lookup("port"))
	_ = viper.BindPFlag("templatedir", pflag.Lookup("templatedir"))
	_ = viper.BindPFlag("template", pflag.Lookup("template"))
	_ = viper.BindPFlag("profile", pflag.Lookup("profile"))
	_ = viper.BindPFlag("startpage", pflag.Lookup("startpage"))
	_ = viper.BindPFlag("qtyceiling", pflag.Lookup("qtyceiling"))
	_ = viper.BindPFlag("requireidentifier", pflag.Lookup("requireidentifier"))
	_ = viper.BindPFlag("loglevel", pflag.Lookup("loglevel"))
	_ = viper.BindPFlag("maxfilesize", pflag.Lookup("maxfilesize"))
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nDD 1750 Generator - converts bill-of-materials PDFs into packing lists\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                                          # defaults, ./templates\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --templatedir=/opt/forms                 # custom template directory\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --host=0.0.0.0 --port=8081               # listen on all interfaces\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  DD1750_HOST              Server host\n")
		fmt.Fprintf(os.Stderr, "  DD1750_PORT              Server port\n")
		fmt.Fprintf(os.Stderr, "  DD1750_TEMPLATEDIR       Template directory\n")
		fmt.Fprintf(os.Stderr, "  DD1750_TEMPLATE          Default template file name\n")
		fmt.Fprintf(os.Stderr, "  DD1750_PROFILE           Form geometry profile\n")
		fmt.Fprintf(os.Stderr, "  DD1750_STARTPAGE         First listing page to read\n")
		fmt.Fprintf(os.Stderr, "  DD1750_QTYCEILING        Largest accepted quantity\n")
		fmt.Fprintf(os.Stderr, "  DD1750_REQUIREIDENTIFIER Discard items without a stock number\n")
		fmt.Fprintf(os.Stderr, "  DD1750_LOGLEVEL          Log level\n")
		fmt.Fprintf(os.Stderr, "  DD1750_MAXFILESIZE       Maximum upload size\n")
	}
}

// checkVersionFlag checks if version flag was requested
func checkVersionFlag() error {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return fmt.Errorf("version requested")
		}
	}
	return nil
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(cfg *Config) {
	cfg.Host = viper.GetString("host")
	cfg.Port = viper.GetInt("port")
	cfg.TemplateDir = viper.GetString("templatedir")
	cfg.DefaultTemplate = viper.GetString("template")
	cfg.Profile = viper.GetString("profile")
	cfg.StartPage = viper.GetInt("startpage")
	cfg.QtyCeiling = viper.GetInt("qtyceiling")
	cfg.RequireIdentifier = viper.GetBool("requireidentifier")
	cfg.LogLevel = viper.GetString("loglevel")
	cfg.MaxFileSize = viper.GetInt64("maxfilesize")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return errors.New("port must be between 1 and 65535")
	}

	if c.TemplateDir == "" {
		return errors.New("template directory cannot be empty")
	}

	// Check if template directory exists, create if it doesn't
	if _, err := os.Stat(c.TemplateDir); os.IsNotExist(err) {
		if err := os.MkdirAll(c.TemplateDir, DefaultDirPerm); err != nil {
			return fmt.Errorf("cannot create template directory %s: %w", c.TemplateDir, err)
		}
	} else if err != nil {
		return fmt.Errorf("cannot access template directory %s: %w", c.TemplateDir, err)
	}

	if c.DefaultTemplate == "" {
		return errors.New("default template cannot be empty")
	}

	if c.Profile != "standard" && c.Profile != "compact" {
		return fmt.Errorf("invalid profile: %s (must be one of: standard, compact)", c.Profile)
	}

	if c.StartPage < 0 {
		return errors.New("start page cannot be negative")
	}

	if c.QtyCeiling < 1 {
		return errors.New("quantity ceiling must be positive")
	}

	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	return nil
}

// Address returns the server address as host:port
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Host: %s, Port: %d, TemplateDir: %s, Profile: %s, LogLevel: %s, MaxFileSize: %d}",
		c.Host, c.Port, c.TemplateDir, c.Profile, c.LogLevel, c.MaxFileSize)
}
