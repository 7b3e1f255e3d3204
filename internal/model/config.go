package model

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Config is the complete runtime configuration, built once at startup
type Config struct {
	Google   GoogleConfig   `yaml:"google" mapstructure:"google"`
	Sheets   SheetsConfig   `yaml:"sheets" mapstructure:"sheets"`
	LLM      LLMConfig      `yaml:"llm" mapstructure:"llm"`
	Research ResearchConfig `yaml:"research" mapstructure:"research"`
	Website  WebsiteConfig  `yaml:"website" mapstructure:"website"`
	HTTP     HTTPConfig     `yaml:"http" mapstructure:"http"`
	Cache    CacheConfig    `yaml:"cache" mapstructure:"cache"`
	Ledger   LedgerConfig   `yaml:"ledger" mapstructure:"ledger"`
	Output   OutputConfig   `yaml:"output" mapstructure:"output"`
}

// GoogleConfig holds the OAuth2 client used for the Sheets API
type GoogleConfig struct {
	ClientID     string `yaml:"client_id" mapstructure:"client_id"`         // GOOGLE_CLIENT_ID
	ClientSecret string `yaml:"client_secret" mapstructure:"client_secret"` // GOOGLE_CLIENT_SECRET
	RefreshToken string `yaml:"refresh_token" mapstructure:"refresh_token"` // GOOGLE_REFRESH_TOKEN
	TokenURL     string `yaml:"token_url" mapstructure:"token_url"`
}

// SheetsConfig locates the intake sheets
type SheetsConfig struct {
	MediaURL        string  `yaml:"media_url" mapstructure:"media_url"` // MEDIA_SHEET_URL
	BlogURL         string  `yaml:"blog_url" mapstructure:"blog_url"`   // BLOG_SHEET_URL
	WritesPerMinute float64 `yaml:"writes_per_minute" mapstructure:"writes_per_minute"`
}

// URLFor returns the sheet URL configured for a variant
func (s SheetsConfig) URLFor(v SheetVariant) string {
	switch v {
	case VariantMedia:
		return s.MediaURL
	case VariantBlog:
		return s.BlogURL
	default:
		return ""
	}
}

// LLMConfig selects and configures the research provider
type LLMConfig struct {
	Provider          string `yaml:"provider" mapstructure:"provider"` // openai, openai-chat, gemini, anthropic, ollama
	Model             string `yaml:"model" mapstructure:"model"`       // Provider default when empty
	BaseURL           string `yaml:"base_url" mapstructure:"base_url"`
	OpenAIAPIKey      string `yaml:"openai_api_key" mapstructure:"openai_api_key"`       // OPENAI_API_KEY
	AnthropicAPIKey   string `yaml:"anthropic_api_key" mapstructure:"anthropic_api_key"` // ANTHROPIC_API_KEY
	GeminiAPIKey      string `yaml:"gemini_api_key" mapstructure:"gemini_api_key"`       // GEMINI_API_KEY
	SearchContextSize string `yaml:"search_context_size" mapstructure:"search_context_size"`
	MaxOutputTokens   int    `yaml:"max_output_tokens" mapstructure:"max_output_tokens"`
}

// APIKey returns the key belonging to the selected provider
func (c LLMConfig) APIKey() string {
	switch strings.ToLower(c.Provider) {
	case "", "openai", "openai-chat":
		return c.OpenAIAPIKey
	case "anthropic", "claude":
		return c.AnthropicAPIKey
	case "gemini", "google":
		return c.GeminiAPIKey
	default:
		return ""
	}
}

// KnownProvider reports whether Provider names a supported backend or alias.
// Empty selects openai.
func (c LLMConfig) KnownProvider() bool {
	switch strings.ToLower(c.Provider) {
	case "", "openai", "openai-chat", "anthropic", "claude", "gemini", "google", "ollama":
		return true
	default:
		return false
	}
}

// APIKeyEnv returns the environment variable that supplies the provider key,
// or "" when the provider needs none
func (c LLMConfig) APIKeyEnv() string {
	switch strings.ToLower(c.Provider) {
	case "", "openai", "openai-chat":
		return "OPENAI_API_KEY"
	case "anthropic", "claude":
		return "ANTHROPIC_API_KEY"
	case "gemini", "google":
		return "GEMINI_API_KEY"
	default:
		return ""
	}
}

// ResearchConfig controls the per-record research call
type ResearchConfig struct {
	Timeout           time.Duration `yaml:"timeout" mapstructure:"timeout"` // 0 disables the bound
	MaxRetries        int           `yaml:"max_retries" mapstructure:"max_retries"`
	RequestsPerMinute float64       `yaml:"requests_per_minute" mapstructure:"requests_per_minute"` // 0 = unlimited
	StreamOutput      bool          `yaml:"stream_output" mapstructure:"stream_output"`
	Organization      string        `yaml:"organization" mapstructure:"organization"`
}

// WebsiteConfig controls the applicant website snapshot
type WebsiteConfig struct {
	Enabled       bool          `yaml:"enabled" mapstructure:"enabled"`
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent     string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBytes      int64         `yaml:"max_bytes" mapstructure:"max_bytes"`
	RespectRobots bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
	ExcerptChars  int           `yaml:"excerpt_chars" mapstructure:"excerpt_chars"`
}

// HTTPConfig holds proxy settings; empty values fall back to the environment
type HTTPConfig struct {
	HTTPProxy  string `yaml:"http_proxy" mapstructure:"http_proxy"`
	HTTPSProxy string `yaml:"https_proxy" mapstructure:"https_proxy"`
	NoProxy    string `yaml:"no_proxy" mapstructure:"no_proxy"`
}

// CacheConfig controls the website snapshot cache
type CacheConfig struct {
	Enabled bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir     string        `yaml:"dir" mapstructure:"dir"` // Default: ~/.sponsorgrader/cache
	TTL     time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

// LedgerConfig controls the local grade history
type LedgerConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Path    string `yaml:"path" mapstructure:"path"` // Default: ~/.sponsorgrader/grades.db
}

// OutputConfig controls console output
type OutputConfig struct {
	Verbose bool `yaml:"verbose" mapstructure:"verbose"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() Config {
	return Config{
		Google: GoogleConfig{
			TokenURL: "https://oauth2.googleapis.com/token",
		},
		Sheets: SheetsConfig{
			WritesPerMinute: 50, // Sheets API allows 60 writes/min per user
		},
		LLM: LLMConfig{
			Provider:          "openai",
			SearchContextSize: "medium",
			MaxOutputTokens:   4096,
		},
		Research: ResearchConfig{
			Timeout:      5 * time.Minute,
			MaxRetries:   0,
			StreamOutput: true,
			Organization: "Token Metrics",
		},
		Website: WebsiteConfig{
			Enabled:       true,
			Timeout:       15 * time.Second,
			UserAgent:     "SponsorGrader/0.1 (+https://github.com/ppiankov/sponsorgrader)",
			MaxBytes:      2_000_000,
			RespectRobots: true,
			ExcerptChars:  1200,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     24 * time.Hour,
		},
		Ledger: LedgerConfig{
			Enabled: true,
		},
	}
}

// Validate checks that every required credential is present. It never
// touches the network.
func (c Config) Validate() error {
	var missing []string
	add := func(value, env string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, env)
		}
	}

	var unknown string
	if !c.LLM.KnownProvider() {
		unknown = c.LLM.Provider
	} else if env := c.LLM.APIKeyEnv(); env != "" {
		add(c.LLM.APIKey(), env)
	}
	add(c.Google.ClientID, "GOOGLE_CLIENT_ID")
	add(c.Google.ClientSecret, "GOOGLE_CLIENT_SECRET")
	add(c.Google.RefreshToken, "GOOGLE_REFRESH_TOKEN")
	add(c.Sheets.MediaURL, "MEDIA_SHEET_URL")
	add(c.Sheets.BlogURL, "BLOG_SHEET_URL")

	if len(missing) > 0 || unknown != "" {
		return &ConfigError{Missing: missing, UnknownProvider: unknown}
	}
	return nil
}

// Redacted returns a copy with secrets masked, for display
func (c Config) Redacted() Config {
	out := c
	out.Google.ClientSecret = mask(c.Google.ClientSecret)
	out.Google.RefreshToken = mask(c.Google.RefreshToken)
	out.LLM.OpenAIAPIKey = mask(c.LLM.OpenAIAPIKey)
	out.LLM.AnthropicAPIKey = mask(c.LLM.AnthropicAPIKey)
	out.LLM.GeminiAPIKey = mask(c.LLM.GeminiAPIKey)
	return out
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 8 {
		return "****"
	}
	return secret[:4] + "****" + secret[len(secret)-2:]
}

// ConfigError reports missing required settings and an unsupported provider
type ConfigError struct {
	Missing         []string
	UnknownProvider string
}

func (e *ConfigError) Error() string {
	var parts []string
	if e.UnknownProvider != "" {
		parts = append(parts, fmt.Sprintf("unknown LLM provider %q", e.UnknownProvider))
	}
	if len(e.Missing) > 0 {
		names := append([]string(nil), e.Missing...)
		sort.Strings(names)
		parts = append(parts, "missing required environment variables: "+strings.Join(names, ", "))
	}
	return strings.Join(parts, "; ")
}
