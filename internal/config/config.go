package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// LLMConfig configures the LLM provider used for summaries
type LLMConfig struct {
	Enabled  bool   `json:"enabled" yaml:"enabled"`
	Provider string `json:"provider" yaml:"provider"` // ollama, bedrock
	Model    string `json:"model" yaml:"model"`
	Endpoint string `json:"endpoint" yaml:"endpoint"`
	Region   string `json:"region" yaml:"region"` // For AWS Bedrock
	APIKey   string `json:"api_key" yaml:"api_key"`
	Timeout  string `json:"timeout" yaml:"timeout"`

	// Summary caching configuration
	CacheEnabled bool   `json:"cache_enabled" yaml:"cache_enabled"`
	CachePath    string `json:"cache_path" yaml:"cache_path"`

	// Template file path (relative to config dir or absolute)
	SummarizeTemplate string `json:"summarize_template" yaml:"summarize_template"`

	// Inline prompt, used when the template file is missing or blank
	SummarizePrompt string `json:"summarize_prompt,omitempty" yaml:"summarize_prompt,omitempty"`
}

// CacheConfig controls the local message body cache
type CacheConfig struct {
	// Enabled controls whether message bodies are cached on disk
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Dir is the cache directory (empty = default under the config dir)
	Dir string `json:"dir" yaml:"dir"`

	// TTLDays is how long cached bodies are kept before pruning
	TTLDays int `json:"ttl_days" yaml:"ttl_days"`
}

// AttachmentsConfig controls attachment downloads
type AttachmentsConfig struct {
	// DownloadPath is where attachments are saved (empty = current directory)
	DownloadPath string `json:"download_path" yaml:"download_path"`

	// AutoOpen opens attachments with the system handler after download
	AutoOpen bool `json:"auto_open" yaml:"auto_open"`

	// MaxDownloadSize is the largest attachment to download, in MB
	MaxDownloadSize int64 `json:"max_download_size" yaml:"max_download_size"`
}

// Config holds all configuration for the unicli application
type Config struct {
	Credentials string `json:"credentials" yaml:"credentials"`
	Token       string `json:"token" yaml:"token"`

	// LLM configuration (unified)
	LLM LLMConfig `json:"llm" yaml:"llm"`

	// Message body cache
	Cache CacheConfig `json:"cache" yaml:"cache"`

	// Attachment handling
	Attachments AttachmentsConfig `json:"attachments" yaml:"attachments"`

	// Logging
	LogFile string `json:"log_file" yaml:"log_file"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		LLM:         DefaultLLMConfig(),
		Cache:       DefaultCacheConfig(),
		Attachments: DefaultAttachmentsConfig(),
		LogFile:     "",
	}
}

// DefaultLLMConfig returns the stock Ollama-backed LLM settings
func DefaultLLMConfig() LLMConfig {
	return LLMConfig{
		Enabled:           true,
		Provider:          "ollama",
		Model:             "llama3.2:latest",
		Endpoint:          "http://localhost:11434/api/generate",
		Timeout:           "20s",
		CacheEnabled:      true,
		CachePath:         "",
		SummarizeTemplate: "templates/ai/summarize.md",
		// No inline prompt in defaults - use the template file
		SummarizePrompt: "",
	}
}

// DefaultCacheConfig returns default body cache configuration
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled: true,
		Dir:     "",
		TTLDays: 30,
	}
}

// DefaultAttachmentsConfig returns default attachment configuration
func DefaultAttachmentsConfig() AttachmentsConfig {
	return AttachmentsConfig{
		DownloadPath:    "",
		AutoOpen:        false,
		MaxDownloadSize: 25,
	}
}

// LoadConfig loads configuration from file, falling back to defaults
// for anything the file does not set. YAML files are recognized by
// their .yaml/.yml extension; everything else is parsed as JSON.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		if data, err := os.ReadFile(ExpandPath(path)); err == nil {
			if err := unmarshalConfig(path, data, cfg); err != nil {
				return nil, err
			}
		}
	}

	cfg.applyDefaults()

	return cfg, nil
}

func isYAMLPath(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

func unmarshalConfig(path string, data []byte, cfg *Config) error {
	var err error
	if isYAMLPath(path) {
		err = yaml.Unmarshal(data, cfg)
	} else {
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// applyDefaults restores defaults for values a config file blanked out
func (c *Config) applyDefaults() {
	if c.LLM.Provider == "" {
		c.LLM.Provider = "ollama"
	}
	if c.LLM.Timeout == "" {
		c.LLM.Timeout = "20s"
	}
	if c.Cache.TTLDays <= 0 {
		c.Cache.TTLDays = DefaultCacheConfig().TTLDays
	}
	if c.Attachments.MaxDownloadSize <= 0 {
		c.Attachments.MaxDownloadSize = DefaultAttachmentsConfig().MaxDownloadSize
	}
}

// Validate checks the configuration for values that cannot work
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}

	if c.LLM.Enabled {
		if c.LLM.Model == "" {
			return fmt.Errorf("LLM is enabled but no model specified")
		}

		if c.LLM.Timeout != "" {
			d, err := time.ParseDuration(c.LLM.Timeout)
			if err != nil {
				return fmt.Errorf("invalid LLM timeout: %w", err)
			}
			if d <= 0 {
				return fmt.Errorf("LLM timeout must be positive, got %q", c.LLM.Timeout)
			}
		}
	}

	if c.Cache.TTLDays < 0 {
		return fmt.Errorf("cache TTL days cannot be negative")
	}

	if c.Attachments.MaxDownloadSize < 0 {
		return fmt.Errorf("attachment size limit cannot be negative")
	}

	return nil
}

// ExpandPath expands a leading ~ to the user's home directory
func ExpandPath(path string) string {
	if path == "~" {
		if home, err := os.UserHomeDir(); err == nil {
			return home
		}
		return path
	}

	if !strings.HasPrefix(path, "~/") {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	return filepath.Join(home, path[2:])
}

// CredentialPaths returns the credential and token paths with proper expansion
func (c *Config) CredentialPaths() (string, string) {
	credPath, tokenPath := DefaultCredentialPaths()

	if c.Credentials != "" {
		credPath = ExpandPath(c.Credentials)
	}

	if c.Token != "" {
		tokenPath = ExpandPath(c.Token)
	}

	return credPath, tokenPath
}

// CacheDir returns the configured body cache directory, or the default
func (c *Config) CacheDir() string {
	if c.Cache.Dir != "" {
		return ExpandPath(c.Cache.Dir)
	}
	return DefaultCacheDir()
}

// defaultConfigDir is ~/.config/unicli, or "" when the home directory
// cannot be determined.
func defaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "unicli")
}

// DefaultConfigPath returns the default configuration file path
func DefaultConfigPath() string {
	dir := defaultConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.json")
}

// DefaultCredentialPaths returns the default paths for credentials and token
func DefaultCredentialPaths() (string, string) {
	dir := defaultConfigDir()
	if dir == "" {
		return "", ""
	}
	return filepath.Join(dir, "credentials.json"), filepath.Join(dir, "token.json")
}

// DefaultCacheDir returns the default cache directory path
func DefaultCacheDir() string {
	dir := defaultConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "cache")
}

// DefaultLogDir returns the default log directory path
func DefaultLogDir() string {
	return defaultConfigDir()
}

// SaveConfig saves the configuration to a file. The on-disk format
// follows the file extension, same as LoadConfig.
func (c *Config) SaveConfig(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := marshalConfig(path, c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func marshalConfig(path string, cfg *Config) ([]byte, error) {
	if isYAMLPath(path) {
		return yaml.Marshal(cfg)
	}
	return json.MarshalIndent(cfg, "", "  ")
}

// GetLLMTimeout returns the parsed LLM timeout, defaulting to 20s when
// the configured value is unset, unparseable or not positive.
func (c *Config) GetLLMTimeout() time.Duration {
	d, err := time.ParseDuration(c.LLM.Timeout)
	if err != nil || d <= 0 {
		return 20 * time.Second
	}
	return d
}

// LoadTemplate resolves a prompt with file-first priority: the template
// file when it yields content, otherwise the inline prompt, otherwise
// the fallback.
func LoadTemplate(templatePath, inline, fallback string) string {
	if content, ok := readTemplate(templatePath); ok {
		return content
	}
	if strings.TrimSpace(inline) != "" {
		return inline
	}
	return fallback
}

// readTemplate reads a template file, anchoring relative paths at the
// config directory. Reports false when the file is missing, unreadable
// or blank.
func readTemplate(path string) (string, bool) {
	if strings.TrimSpace(path) == "" {
		return "", false
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(filepath.Dir(DefaultConfigPath()), path)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	text := strings.TrimSpace(string(content))
	return text, text != ""
}

// GetSummarizePrompt resolves the summarize prompt through LoadTemplate
func (c *LLMConfig) GetSummarizePrompt() string {
	fallback := "Summarize this email in a few short sentences. Keep it concise and factual.\n\n{{body}}"
	return LoadTemplate(c.SummarizeTemplate, c.SummarizePrompt, fallback)
}
