package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	ConfigFileName = "config.yml"
	AppDirName     = "sharetext"
)

// ConfigDir returns the standard config directory for sharetext.
// Windows: %APPDATA%\sharetext\
// macOS/Linux: ~/.config/sharetext/
func ConfigDir() (string, error) {
	if runtime.GOOS == "windows" {
		appData := os.Getenv("APPDATA")
		if appData != "" {
			return filepath.Join(appData, AppDirName), nil
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", AppDirName), nil
}

// ConfigPath returns the path to the config file.
// e.g., ~/.config/sharetext/config.yml
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName), nil
}

// Config represents the sharetext configuration
type Config struct {
	// Language for CLI messages (zh, en)
	Language string `yaml:"language,omitempty"`

	// LogLevel is one of debug, info, warn, error
	LogLevel string `yaml:"log_level,omitempty"`

	// TempDir holds per-run pipeline directories; empty means the OS default
	TempDir string `yaml:"temp_dir,omitempty"`

	Transcription ServiceConfig   `yaml:"transcription,omitempty"`
	Summarization ServiceConfig   `yaml:"summarization,omitempty"`
	Transcode     TranscodeConfig `yaml:"transcode,omitempty"`
	RedBook       RedBookConfig   `yaml:"redbook,omitempty"`
	Server        ServerConfig    `yaml:"server,omitempty"`
}

// ServiceConfig configures a remote AI service
type ServiceConfig struct {
	// Provider selects the client: http or openai for transcription;
	// openai, anthropic or qwen for summarization (empty disables it)
	Provider string `yaml:"provider,omitempty"`
	APIKey   string `yaml:"api_key,omitempty"`

	// BaseURL is the full endpoint for the http transcriber, the API base otherwise
	BaseURL string `yaml:"base_url,omitempty"`
	Model   string `yaml:"model,omitempty"`
}

// TranscodeConfig selects how audio is extracted from media
type TranscodeConfig struct {
	// Mode is auto, native (ffmpeg in PATH) or wasm (embedded ffmpeg)
	Mode string `yaml:"mode,omitempty"`

	// Format of the extracted audio sent for transcription: mp3 or wav
	Format string `yaml:"format,omitempty"`
}

// RedBookConfig controls how RedBook pages are loaded
type RedBookConfig struct {
	// Browser renders pages in headless Chrome instead of a plain HTTP GET
	Browser bool `yaml:"browser,omitempty"`
	Visible bool `yaml:"visible,omitempty"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	// Port to listen on (default: 8080)
	Port int `yaml:"port,omitempty"`

	// MaxConcurrent is the maximum number of concurrent text jobs (default: 4)
	MaxConcurrent int `yaml:"max_concurrent,omitempty"`

	// APIKey for authentication (optional)
	APIKey string `yaml:"api_key,omitempty"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Language: "zh",
		LogLevel: "info",
		Transcription: ServiceConfig{
			Provider: "http",
		},
		Transcode: TranscodeConfig{
			Mode:   "auto",
			Format: "mp3",
		},
		Server: ServerConfig{
			Port:          8080,
			MaxConcurrent: 4,
		},
	}
}

// Exists checks if the config file exists
func Exists() bool {
	path, err := ConfigPath()
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// Load reads config from the config file
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile reads config from path, filling unset fields with defaults
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config file not found: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	cfg.TempDir = expandPath(cfg.TempDir)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// expandPath expands ~ to the user's home directory.
// Only handles ~ alone or ~/... (and ~\... on Windows).
// Does not support ~user/... syntax.
func expandPath(path string) string {
	if path == "" {
		return ""
	}

	if strings.HasPrefix(path, "~") {
		if len(path) == 1 || path[1] == '/' || path[1] == '\\' {
			home, err := os.UserHomeDir()
			if err == nil {
				subPath := path[1:]
				if len(subPath) > 0 && (subPath[0] == '/' || subPath[0] == '\\') {
					subPath = subPath[1:]
				}
				return filepath.Join(home, subPath)
			}
		}
	}

	return path
}

// Save writes config to the config file
func Save(cfg *Config) error {
	configPath, err := ConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}
	return SaveFile(configPath, cfg)
}

// SaveFile writes config to path, creating its directory
func SaveFile(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	header := "# sharetext configuration file\n# Run 'sharetext init' to regenerate with defaults\n\n"
	content := header + string(data)

	// API keys live here
	return os.WriteFile(path, []byte(content), 0600)
}

// SavePath returns the path where config will be saved
func SavePath() string {
	if path, err := ConfigPath(); err == nil {
		return path
	}
	return ConfigFileName
}

// Init creates a default config file
func Init() error {
	if Exists() {
		path, _ := ConfigPath()
		return fmt.Errorf("%s already exists", path)
	}
	return Save(DefaultConfig())
}

// LoadOrDefault loads config or returns defaults when missing or invalid
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		cfg = DefaultConfig()
	}
	return cfg
}

var (
	validLogLevels              = []string{"debug", "info", "warn", "error"}
	validTranscriptionProviders = []string{"http", "openai"}
	validSummarizationProviders = []string{"", "openai", "anthropic", "qwen"}
	validTranscodeModes         = []string{"auto", "native", "wasm"}
	validTranscodeFormats       = []string{"mp3", "wav"}
)

// Validate reports the first invalid setting
func (c *Config) Validate() error {
	if c.LogLevel != "" && !oneOf(c.LogLevel, validLogLevels) {
		return fmt.Errorf("log_level must be one of %s", strings.Join(validLogLevels, ", "))
	}
	if c.Transcription.Provider != "" && !oneOf(c.Transcription.Provider, validTranscriptionProviders) {
		return fmt.Errorf("transcription.provider must be one of %s", strings.Join(validTranscriptionProviders, ", "))
	}
	if !oneOf(c.Summarization.Provider, validSummarizationProviders) {
		return fmt.Errorf("summarization.provider must be empty or one of %s", strings.Join(validSummarizationProviders[1:], ", "))
	}
	if c.Transcode.Mode != "" && !oneOf(c.Transcode.Mode, validTranscodeModes) {
		return fmt.Errorf("transcode.mode must be one of %s", strings.Join(validTranscodeModes, ", "))
	}
	if c.Transcode.Format != "" && !oneOf(c.Transcode.Format, validTranscodeFormats) {
		return fmt.Errorf("transcode.format must be one of %s", strings.Join(validTranscodeFormats, ", "))
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Server.MaxConcurrent < 0 {
		return fmt.Errorf("server.max_concurrent must not be negative")
	}
	return nil
}

func oneOf(s string, options []string) bool {
	for _, o := range options {
		if s == o {
			return true
		}
	}
	return false
}

// Keys lists the settings accepted by Get and Set
var Keys = []string{
	"language",
	"log_level",
	"temp_dir",
	"transcription.provider",
	"transcription.api_key",
	"transcription.base_url",
	"transcription.model",
	"summarization.provider",
	"summarization.api_key",
	"summarization.base_url",
	"summarization.model",
	"transcode.mode",
	"transcode.format",
	"redbook.browser",
	"redbook.visible",
	"server.port",
	"server.api_key",
	"server.max_concurrent",
}

// Get returns a setting by its dotted key
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "language":
		return c.Language, nil
	case "log_level":
		return c.LogLevel, nil
	case "temp_dir":
		return c.TempDir, nil
	case "transcode.mode":
		return c.Transcode.Mode, nil
	case "transcode.format":
		return c.Transcode.Format, nil
	case "redbook.browser":
		return strconv.FormatBool(c.RedBook.Browser), nil
	case "redbook.visible":
		return strconv.FormatBool(c.RedBook.Visible), nil
	case "server.port":
		return strconv.Itoa(c.Server.Port), nil
	case "server.api_key":
		return c.Server.APIKey, nil
	case "server.max_concurrent":
		return strconv.Itoa(c.Server.MaxConcurrent), nil
	}

	if svc, field, ok := c.service(key); ok {
		switch field {
		case "provider":
			return svc.Provider, nil
		case "api_key":
			return svc.APIKey, nil
		case "base_url":
			return svc.BaseURL, nil
		case "model":
			return svc.Model, nil
		}
	}
	return "", fmt.Errorf("unknown config key: %s", key)
}

// Set updates a setting by its dotted key and validates the result
func (c *Config) Set(key, value string) error {
	next := *c
	if err := next.set(key, value); err != nil {
		return err
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}

func (c *Config) set(key, value string) error {
	switch key {
	case "language":
		c.Language = value
		return nil
	case "log_level":
		c.LogLevel = strings.ToLower(value)
		return nil
	case "temp_dir":
		c.TempDir = expandPath(value)
		return nil
	case "transcode.mode":
		c.Transcode.Mode = strings.ToLower(value)
		return nil
	case "transcode.format":
		c.Transcode.Format = strings.ToLower(value)
		return nil
	case "redbook.browser", "redbook.visible":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s must be true or false", key)
		}
		if key == "redbook.browser" {
			c.RedBook.Browser = b
		} else {
			c.RedBook.Visible = b
		}
		return nil
	case "server.port", "server.max_concurrent":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s must be a number", key)
		}
		if key == "server.port" {
			c.Server.Port = n
		} else {
			c.Server.MaxConcurrent = n
		}
		return nil
	case "server.api_key":
		c.Server.APIKey = value
		return nil
	}

	if svc, field, ok := c.service(key); ok {
		switch field {
		case "provider":
			svc.Provider = strings.ToLower(value)
			return nil
		case "api_key":
			svc.APIKey = value
			return nil
		case "base_url":
			svc.BaseURL = value
			return nil
		case "model":
			svc.Model = value
			return nil
		}
	}
	return fmt.Errorf("unknown config key: %s", key)
}

func (c *Config) service(key string) (*ServiceConfig, string, bool) {
	section, field, ok := strings.Cut(key, ".")
	if !ok {
		return nil, "", false
	}
	switch section {
	case "transcription":
		return &c.Transcription, field, true
	case "summarization":
		return &c.Summarization, field, true
	}
	return nil, "", false
}

// IsSecret reports whether a key holds a credential that should not be echoed
func IsSecret(key string) bool {
	return strings.HasSuffix(key, "api_key")
}
