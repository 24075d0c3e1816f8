package config

import (
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Host != "127.0.0.1" {
		t.Errorf("Expected default host to be '127.0.0.1', got '%s'", cfg.Host)
	}

	if cfg.Port != 8080 {
		t.Errorf("Expected default port to be 8080, got %d", cfg.Port)
	}

	if cfg.DefaultTemplate != "dd1750.pdf" {
		t.Errorf("Expected default template to be 'dd1750.pdf', got '%s'", cfg.DefaultTemplate)
	}

	if cfg.Profile != "standard" {
		t.Errorf("Expected default profile to be 'standard', got '%s'", cfg.Profile)
	}

	if cfg.StartPage != 0 {
		t.Errorf("Expected default start page to be 0, got %d", cfg.StartPage)
	}

	if cfg.QtyCeiling != 99999 {
		t.Errorf("Expected default quantity ceiling to be 99999, got %d", cfg.QtyCeiling)
	}

	if cfg.RequireIdentifier {
		t.Errorf("Expected identifiers to be optional by default")
	}

	if cfg.ServerName != "dd1750-server" {
		t.Errorf("Expected default server name to be 'dd1750-server', got '%s'", cfg.ServerName)
	}

	if cfg.LogLevel != "info" {
		t.Errorf("Expected default log level to be 'info', got '%s'", cfg.LogLevel)
	}

	if cfg.MaxFileSize != 50*1024*1024 {
		t.Errorf("Expected default max file size to be 50MB, got %d", cfg.MaxFileSize)
	}
}

func validTestConfig(t *testing.T) *Config {
	t.Helper()
	return &Config{
		Host:            "127.0.0.1",
		Port:            8080,
		TemplateDir:     filepath.Join(t.TempDir(), "templates"),
		DefaultTemplate: "dd1750.pdf",
		Profile:         "standard",
		StartPage:       0,
		QtyCeiling:      99999,
		LogLevel:        "info",
		MaxFileSize:     1024,
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid config",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "compact profile accepted",
			mutate:  func(c *Config) { c.Profile = "compact" },
			wantErr: false,
		},
		{
			name:    "port too low",
			mutate:  func(c *Config) { c.Port = 0 },
			wantErr: true,
		},
		{
			name:    "port too high",
			mutate:  func(c *Config) { c.Port = 70000 },
			wantErr: true,
		},
		{
			name:    "empty template directory",
			mutate:  func(c *Config) { c.TemplateDir = "" },
			wantErr: true,
		},
		{
			name:    "empty default template",
			mutate:  func(c *Config) { c.DefaultTemplate = "" },
			wantErr: true,
		},
		{
			name:    "unknown profile",
			mutate:  func(c *Config) { c.Profile = "a5" },
			wantErr: true,
		},
		{
			name:    "negative start page",
			mutate:  func(c *Config) { c.StartPage = -1 },
			wantErr: true,
		},
		{
			name:    "zero quantity ceiling",
			mutate:  func(c *Config) { c.QtyCeiling = 0 },
			wantErr: true,
		},
		{
			name:    "zero max file size",
			mutate:  func(c *Config) { c.MaxFileSize = 0 },
			wantErr: true,
		},
		{
			name:    "invalid log level",
			mutate:  func(c *Config) { c.LogLevel = "trace" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validTestConfig(t)
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Errorf("expected validation error but got none")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected validation error: %v", err)
			}
		})
	}
}

func TestConfigValidate_CreatesTemplateDir(t *testing.T) {
	cfg := validTestConfig(t)

	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Validate creates the directory when it is missing
	if err := cfg.Validate(); err != nil {
		t.Errorf("second validation should succeed: %v", err)
	}
}

func TestConfigAddress(t *testing.T) {
	cfg := &Config{Host: "0.0.0.0", Port: 9090}
	if got := cfg.Address(); got != "0.0.0.0:9090" {
		t.Errorf("Address() = %s, want 0.0.0.0:9090", got)
	}
}

func TestConfigIsDebug(t *testing.T) {
	cfg := &Config{LogLevel: "debug"}
	if !cfg.IsDebug() {
		t.Errorf("expected IsDebug to be true for debug level")
	}

	cfg.LogLevel = "info"
	if cfg.IsDebug() {
		t.Errorf("expected IsDebug to be false for info level")
	}
}
