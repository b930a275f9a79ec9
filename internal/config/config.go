/*-------------------------------------------------------------------------
 *
 * Kiosk Assistant - Configuration
 *
 * Portions copyright (c) 2025, pgEdge, Inc.
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Knowledge source kinds
const (
	SourceJSON     = "json"
	SourceSQLite   = "sqlite"
	SourcePostgres = "postgres"
)

// Config represents the complete assistant configuration
type Config struct {
	// Knowledge artifact and retrieval settings
	Knowledge KnowledgeConfig `yaml:"knowledge"`

	// Embedding provider used for semantic ranking
	Embedding EmbeddingConfig `yaml:"embedding"`

	// Text generation provider used to compose answers
	LLM LLMConfig `yaml:"llm"`

	// Routing tables override
	Routing RoutingConfig `yaml:"routing"`

	// HTTP API server
	HTTP HTTPConfig `yaml:"http"`

	// Query audit log
	QueryLog QueryLogConfig `yaml:"query_log"`

	// Terminal chat
	Chat ChatConfig `yaml:"chat"`
}

// KnowledgeConfig holds the knowledge artifact location and ranking settings
type KnowledgeConfig struct {
	Source              string   `yaml:"source"`               // "json", "sqlite" or "postgres"
	Path                string   `yaml:"path"`                 // JSON or SQLite file
	DSN                 string   `yaml:"dsn"`                  // PostgreSQL connection string
	Table               string   `yaml:"table"`                // PostgreSQL table (default: kb_chunks)
	TopK                int      `yaml:"top_k"`                // Results considered per query (default: 5)
	SimilarityThreshold float64  `yaml:"similarity_threshold"` // Minimum cosine similarity (default: 0.5)
	DirectoryMarkers    []string `yaml:"directory_markers"`    // Source name fragments of phone directories

	LoadTimeout time.Duration `yaml:"load_timeout"` // Bound on reading a database source (default: 30s)
}

// EmbeddingConfig holds embedding provider settings
type EmbeddingConfig struct {
	Enabled          bool          `yaml:"enabled"`             // Whether semantic ranking is attempted (default: false)
	Provider         string        `yaml:"provider"`            // "gemini", "openai", "voyage" or "ollama"
	Model            string        `yaml:"model"`               // Provider-specific model name
	GeminiAPIKey     string        `yaml:"gemini_api_key"`      // Direct key (discouraged, use api_key_file or env var)
	GeminiAPIKeyFile string        `yaml:"gemini_api_key_file"` // Path to file containing the Gemini API key
	OpenAIAPIKey     string        `yaml:"openai_api_key"`      // Direct key (discouraged, use api_key_file or env var)
	OpenAIAPIKeyFile string        `yaml:"openai_api_key_file"` // Path to file containing the OpenAI API key
	VoyageAPIKey     string        `yaml:"voyage_api_key"`      // Direct key (discouraged, use api_key_file or env var)
	VoyageAPIKeyFile string        `yaml:"voyage_api_key_file"` // Path to file containing the Voyage API key
	OllamaURL        string        `yaml:"ollama_url"`          // URL for Ollama service (default: http://localhost:11434)
	Timeout          time.Duration `yaml:"timeout"`             // Per-request timeout (default: 15s)
}

// LLMConfig holds text generation settings
type LLMConfig struct {
	Enabled             bool          `yaml:"enabled"`                // Whether answers are composed by the LLM (default: false)
	Provider            string        `yaml:"provider"`               // "gemini", "openai", "anthropic" or "ollama"
	Model               string        `yaml:"model"`                  // Provider-specific model name
	GeminiAPIKey        string        `yaml:"gemini_api_key"`         // Direct key (discouraged)
	GeminiAPIKeyFile    string        `yaml:"gemini_api_key_file"`    // Path to file containing the Gemini API key
	OpenAIAPIKey        string        `yaml:"openai_api_key"`         // Direct key (discouraged)
	OpenAIAPIKeyFile    string        `yaml:"openai_api_key_file"`    // Path to file containing the OpenAI API key
	AnthropicAPIKey     string        `yaml:"anthropic_api_key"`      // Direct key (discouraged)
	AnthropicAPIKeyFile string        `yaml:"anthropic_api_key_file"` // Path to file containing the Anthropic API key
	OllamaURL           string        `yaml:"ollama_url"`             // URL for Ollama service
	MaxTokens           int           `yaml:"max_tokens"`             // Maximum tokens per answer (default: 400)
	Temperature         float64       `yaml:"temperature"`            // Sampling temperature (default: 0.3)
	Timeout             time.Duration `yaml:"timeout"`                // Per-request timeout (default: 15s)
}

// RoutingConfig holds the routing tables override
type RoutingConfig struct {
	TablesFile string `yaml:"tables_file"` // YAML tables replacing the built-in ones
	Watch      bool   `yaml:"watch"`       // Reload the tables file when it changes
}

// HTTPConfig holds HTTP API settings
type HTTPConfig struct {
	Address            string     `yaml:"address"`
	Auth               AuthConfig `yaml:"auth"`
	RateLimitPerMinute int        `yaml:"rate_limit_per_minute"` // Questions per client per minute (0 = unlimited)
}

// AuthConfig holds authentication settings
type AuthConfig struct {
	Enabled   bool   `yaml:"enabled"`    // Whether a bearer token is required
	TokenFile string `yaml:"token_file"` // Path to token file
}

// QueryLogConfig holds query audit log settings
type QueryLogConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"` // SQLite file
}

// ChatConfig holds terminal chat settings
type ChatConfig struct {
	HistoryFile    string `yaml:"history_file"`
	NoColor        bool   `yaml:"no_color"`
	RenderMarkdown bool   `yaml:"render_markdown"`
}

// LoadConfig loads configuration with proper priority:
// 1. Command line flags (highest priority)
// 2. Environment variables
// 3. Configuration file
// 4. Hard-coded defaults (lowest priority)
func LoadConfig(configPath string, cliFlags CLIFlags) (*Config, error) {
	cfg := defaultConfig()

	if configPath != "" {
		if err := loadConfigFile(configPath, cfg); err != nil {
			// A missing default file is fine; an explicit one must load
			if cliFlags.ConfigFileSet || !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
			}
		}
	}

	applyEnvironmentVariables(cfg)
	applyCLIFlags(cfg, cliFlags)
	resolveAPIKeyFiles(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// CLIFlags represents command line flag values and whether they were explicitly set
type CLIFlags struct {
	ConfigFileSet bool
	ConfigFile    string

	// Knowledge flags
	KnowledgeSource    string
	KnowledgeSourceSet bool
	KnowledgePath      string
	KnowledgePathSet   bool
	KnowledgeDSN       string
	KnowledgeDSNSet    bool

	// Provider flags
	EmbeddingEnabled    bool
	EmbeddingEnabledSet bool
	LLMEnabled          bool
	LLMEnabledSet       bool

	// Routing flags
	RoutingTablesFile    string
	RoutingTablesFileSet bool

	// HTTP flags
	HTTPAddr       string
	HTTPAddrSet    bool
	AuthEnabled    bool
	AuthEnabledSet bool
	AuthTokenFile  string
	AuthTokenSet   bool

	// Query log flags
	QueryLogEnabled    bool
	QueryLogEnabledSet bool
	QueryLogPath       string
	QueryLogPathSet    bool
}

// defaultConfig returns configuration with hard-coded defaults
func defaultConfig() *Config {
	return &Config{
		Knowledge: KnowledgeConfig{
			Source:              SourceJSON,
			Path:                "./data/knowledge_base.json",
			Table:               "kb_chunks",
			TopK:                5,
			SimilarityThreshold: 0.5,
			LoadTimeout:         30 * time.Second,
		},
		Embedding: EmbeddingConfig{
			Enabled:   false,                    // Opt-in; the lexical fallback needs no provider
			Provider:  "gemini",                 // Default provider
			Model:     "text-embedding-004",     // Default Gemini model
			OllamaURL: "http://localhost:11434", // Default Ollama URL
			Timeout:   15 * time.Second,
		},
		LLM: LLMConfig{
			Enabled:     false,
			Provider:    "gemini",
			Model:       "gemini-1.5-flash",
			OllamaURL:   "http://localhost:11434",
			MaxTokens:   400,
			Temperature: 0.3,
			Timeout:     15 * time.Second,
		},
		HTTP: HTTPConfig{
			Address: ":8080",
			Auth: AuthConfig{
				Enabled:   false, // Kiosks sit on a private network
				TokenFile: "./kiosk-tokens.yaml",
			},
			RateLimitPerMinute: 30,
		},
		QueryLog: QueryLogConfig{
			Enabled: false,
			Path:    "./data/queries.db",
		},
		Chat: ChatConfig{
			HistoryFile:    defaultHistoryFile(),
			RenderMarkdown: true,
		},
	}
}

func defaultHistoryFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".kiosk-assistant-history")
}

// loadConfigFile overlays a YAML file onto cfg. Keys absent from the file
// keep their current values.
func loadConfigFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	return nil
}

// setStringFromEnv sets a string config value from an environment variable if it exists
func setStringFromEnv(dest *string, key string) {
	if val := os.Getenv(key); val != "" {
		*dest = val
	}
}

// setStringFromEnvWithFallback sets a string config value from an environment variable,
// checking multiple environment variable names in priority order
func setStringFromEnvWithFallback(dest *string, keys ...string) {
	for _, key := range keys {
		if val := os.Getenv(key); val != "" {
			*dest = val
			return
		}
	}
}

// setBoolFromEnv sets a boolean config value from an environment variable if it exists
// Accepts "true", "1", or "yes" as true values
func setBoolFromEnv(dest *bool, key string) {
	if val := os.Getenv(key); val != "" {
		*dest = val == "true" || val == "1" || val == "yes"
	}
}

// setIntFromEnv sets an integer config value from an environment variable if it exists
func setIntFromEnv(dest *int, key string) {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			*dest = n
		}
	}
}

func setFloatFromEnv(dest *float64, key string) {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			*dest = f
		}
	}
}

func setDurationFromEnv(dest *time.Duration, key string) {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			*dest = d
		}
	}
}

// applyEnvironmentVariables overrides config with environment variables if they exist
// All environment variables use the KIOSK_ prefix to avoid collisions
func applyEnvironmentVariables(cfg *Config) {
	// Knowledge
	setStringFromEnv(&cfg.Knowledge.Source, "KIOSK_KNOWLEDGE_SOURCE")
	setStringFromEnv(&cfg.Knowledge.Path, "KIOSK_KNOWLEDGE_PATH")
	setStringFromEnv(&cfg.Knowledge.DSN, "KIOSK_KNOWLEDGE_DSN")
	setStringFromEnv(&cfg.Knowledge.Table, "KIOSK_KNOWLEDGE_TABLE")
	setIntFromEnv(&cfg.Knowledge.TopK, "KIOSK_TOP_K")
	setFloatFromEnv(&cfg.Knowledge.SimilarityThreshold, "KIOSK_SIMILARITY_THRESHOLD")
	setDurationFromEnv(&cfg.Knowledge.LoadTimeout, "KIOSK_KNOWLEDGE_LOAD_TIMEOUT")

	// Embedding
	setBoolFromEnv(&cfg.Embedding.Enabled, "KIOSK_EMBEDDING_ENABLED")
	setStringFromEnv(&cfg.Embedding.Provider, "KIOSK_EMBEDDING_PROVIDER")
	setStringFromEnv(&cfg.Embedding.Model, "KIOSK_EMBEDDING_MODEL")
	setStringFromEnvWithFallback(&cfg.Embedding.GeminiAPIKey, "KIOSK_GEMINI_API_KEY", "GOOGLE_API_KEY")
	setStringFromEnvWithFallback(&cfg.Embedding.OpenAIAPIKey, "KIOSK_OPENAI_API_KEY", "OPENAI_API_KEY")
	setStringFromEnvWithFallback(&cfg.Embedding.VoyageAPIKey, "KIOSK_VOYAGE_API_KEY", "VOYAGE_API_KEY")
	setStringFromEnv(&cfg.Embedding.OllamaURL, "KIOSK_OLLAMA_URL")
	setDurationFromEnv(&cfg.Embedding.Timeout, "KIOSK_EMBEDDING_TIMEOUT")

	// LLM
	setBoolFromEnv(&cfg.LLM.Enabled, "KIOSK_LLM_ENABLED")
	setStringFromEnv(&cfg.LLM.Provider, "KIOSK_LLM_PROVIDER")
	setStringFromEnv(&cfg.LLM.Model, "KIOSK_LLM_MODEL")
	setStringFromEnvWithFallback(&cfg.LLM.GeminiAPIKey, "KIOSK_GEMINI_API_KEY", "GOOGLE_API_KEY")
	setStringFromEnvWithFallback(&cfg.LLM.OpenAIAPIKey, "KIOSK_OPENAI_API_KEY", "OPENAI_API_KEY")
	setStringFromEnvWithFallback(&cfg.LLM.AnthropicAPIKey, "KIOSK_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY")
	setStringFromEnv(&cfg.LLM.OllamaURL, "KIOSK_OLLAMA_URL")
	setIntFromEnv(&cfg.LLM.MaxTokens, "KIOSK_LLM_MAX_TOKENS")
	setFloatFromEnv(&cfg.LLM.Temperature, "KIOSK_LLM_TEMPERATURE")
	setDurationFromEnv(&cfg.LLM.Timeout, "KIOSK_LLM_TIMEOUT")

	// Routing
	setStringFromEnv(&cfg.Routing.TablesFile, "KIOSK_ROUTING_TABLES_FILE")
	setBoolFromEnv(&cfg.Routing.Watch, "KIOSK_ROUTING_WATCH")

	// HTTP
	setStringFromEnv(&cfg.HTTP.Address, "KIOSK_HTTP_ADDRESS")
	setBoolFromEnv(&cfg.HTTP.Auth.Enabled, "KIOSK_AUTH_ENABLED")
	setStringFromEnv(&cfg.HTTP.Auth.TokenFile, "KIOSK_AUTH_TOKEN_FILE")
	setIntFromEnv(&cfg.HTTP.RateLimitPerMinute, "KIOSK_RATE_LIMIT_PER_MINUTE")

	// Query log
	setBoolFromEnv(&cfg.QueryLog.Enabled, "KIOSK_QUERY_LOG_ENABLED")
	setStringFromEnv(&cfg.QueryLog.Path, "KIOSK_QUERY_LOG_PATH")

	// Chat
	setStringFromEnv(&cfg.Chat.HistoryFile, "KIOSK_CHAT_HISTORY_FILE")
	setBoolFromEnv(&cfg.Chat.NoColor, "NO_COLOR")
}

// resolveAPIKeyFiles fills keys still unset after the file and environment
// from their api_key_file
func resolveAPIKeyFiles(cfg *Config) {
	pairs := []struct {
		key  *string
		file string
	}{
		{&cfg.Embedding.GeminiAPIKey, cfg.Embedding.GeminiAPIKeyFile},
		{&cfg.Embedding.OpenAIAPIKey, cfg.Embedding.OpenAIAPIKeyFile},
		{&cfg.Embedding.VoyageAPIKey, cfg.Embedding.VoyageAPIKeyFile},
		{&cfg.LLM.GeminiAPIKey, cfg.LLM.GeminiAPIKeyFile},
		{&cfg.LLM.OpenAIAPIKey, cfg.LLM.OpenAIAPIKeyFile},
		{&cfg.LLM.AnthropicAPIKey, cfg.LLM.AnthropicAPIKeyFile},
	}
	for _, p := range pairs {
		if *p.key != "" || p.file == "" {
			continue
		}
		// Errors are ignored; a missing key is reported by the provider
		if key, err := readAPIKeyFromFile(p.file); err == nil && key != "" {
			*p.key = key
		}
	}
}

// applyCLIFlags overrides config with CLI flags if they were explicitly set
func applyCLIFlags(cfg *Config, flags CLIFlags) {
	if flags.KnowledgeSourceSet {
		cfg.Knowledge.Source = flags.KnowledgeSource
	}
	if flags.KnowledgePathSet {
		cfg.Knowledge.Path = flags.KnowledgePath
	}
	if flags.KnowledgeDSNSet {
		cfg.Knowledge.DSN = flags.KnowledgeDSN
	}

	if flags.EmbeddingEnabledSet {
		cfg.Embedding.Enabled = flags.EmbeddingEnabled
	}
	if flags.LLMEnabledSet {
		cfg.LLM.Enabled = flags.LLMEnabled
	}

	if flags.RoutingTablesFileSet {
		cfg.Routing.TablesFile = flags.RoutingTablesFile
	}

	if flags.HTTPAddrSet {
		cfg.HTTP.Address = flags.HTTPAddr
	}
	if flags.AuthEnabledSet {
		cfg.HTTP.Auth.Enabled = flags.AuthEnabled
	}
	if flags.AuthTokenSet {
		cfg.HTTP.Auth.TokenFile = flags.AuthTokenFile
	}

	if flags.QueryLogEnabledSet {
		cfg.QueryLog.Enabled = flags.QueryLogEnabled
	}
	if flags.QueryLogPathSet {
		cfg.QueryLog.Path = flags.QueryLogPath
	}
}

// Validate checks if the configuration is consistent
func (cfg *Config) Validate() error {
	switch cfg.Knowledge.Source {
	case SourceJSON, SourceSQLite:
		if cfg.Knowledge.Path == "" {
			return fmt.Errorf("knowledge path is required for source %q", cfg.Knowledge.Source)
		}
	case SourcePostgres:
		if cfg.Knowledge.DSN == "" {
			return fmt.Errorf("knowledge dsn is required for source %q", cfg.Knowledge.Source)
		}
		if cfg.Knowledge.Table == "" {
			return fmt.Errorf("knowledge table is required for source %q", cfg.Knowledge.Source)
		}
	default:
		return fmt.Errorf("unsupported knowledge source: %s (supported: json, sqlite, postgres)", cfg.Knowledge.Source)
	}

	if cfg.Knowledge.LoadTimeout < 0 {
		return fmt.Errorf("knowledge load_timeout must not be negative")
	}
	if cfg.Knowledge.TopK <= 0 {
		return fmt.Errorf("knowledge top_k must be positive, got %d", cfg.Knowledge.TopK)
	}
	// Zero selects the ranker's default threshold, so it is not a valid setting
	if cfg.Knowledge.SimilarityThreshold <= 0 || cfg.Knowledge.SimilarityThreshold > 1 {
		return fmt.Errorf("knowledge similarity_threshold must be within (0, 1], got %v", cfg.Knowledge.SimilarityThreshold)
	}

	if cfg.Routing.Watch && cfg.Routing.TablesFile == "" {
		return fmt.Errorf("routing watch requires a tables_file")
	}

	if cfg.HTTP.Auth.Enabled && cfg.HTTP.Auth.TokenFile == "" {
		return fmt.Errorf("authentication token file is required when HTTP auth is enabled (use --no-auth to disable)")
	}
	if cfg.HTTP.RateLimitPerMinute < 0 {
		return fmt.Errorf("http rate_limit_per_minute must not be negative")
	}

	if cfg.QueryLog.Enabled && cfg.QueryLog.Path == "" {
		return fmt.Errorf("query log path is required when the query log is enabled")
	}

	return nil
}

// APIKey returns the key matching the configured embedding provider
func (c *EmbeddingConfig) APIKey() string {
	switch strings.ToLower(c.Provider) {
	case "openai":
		return c.OpenAIAPIKey
	case "voyage":
		return c.VoyageAPIKey
	case "ollama":
		return ""
	default:
		return c.GeminiAPIKey
	}
}

// APIKey returns the key matching the configured generation provider
func (c *LLMConfig) APIKey() string {
	switch strings.ToLower(c.Provider) {
	case "openai":
		return c.OpenAIAPIKey
	case "anthropic":
		return c.AnthropicAPIKey
	case "ollama":
		return ""
	default:
		return c.GeminiAPIKey
	}
}

// readAPIKeyFromFile reads an API key from a file
// Returns the key with whitespace trimmed, or empty string if file doesn't exist or is empty
func readAPIKeyFromFile(filePath string) (string, error) {
	if filePath == "" {
		return "", nil
	}

	// Expand tilde to home directory
	if filePath[0] == '~' {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		filePath = filepath.Join(homeDir, filePath[1:])
	}

	data, err := os.ReadFile(filePath)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read API key file %s: %w", filePath, err)
	}

	return strings.TrimSpace(string(data)), nil
}

// GetDefaultConfigPath returns the default config file path
// Searches /etc/kiosk-assistant/ first, then the binary directory
func GetDefaultConfigPath(binaryPath string) string {
	systemPath := "/etc/kiosk-assistant/kiosk-assistant.yaml"
	if _, err := os.Stat(systemPath); err == nil {
		return systemPath
	}

	dir := filepath.Dir(binaryPath)
	return filepath.Join(dir, "kiosk-assistant.yaml")
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
