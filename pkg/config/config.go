package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for ekaya-counsel.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords, keys) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"3443"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	BaseURL  string `yaml:"base_url" env:"BASE_URL" env-default:""` // Auto-derived from Port if empty
	Version  string `yaml:"-"`                                      // Set at load time, not from config

	// TLS configuration (optional - if both provided, server uses HTTPS)
	TLSCertPath string `yaml:"tls_cert_path" env:"TLS_CERT_PATH" env-default:""`
	TLSKeyPath  string `yaml:"tls_key_path" env:"TLS_KEY_PATH" env-default:""`

	Auth     AuthConfig     `yaml:"auth"`
	Database DatabaseConfig `yaml:"database"`
	AI       AIConfig       `yaml:"ai"`
	MCP      MCPConfig      `yaml:"mcp"`
	Intake   IntakeConfig   `yaml:"intake"`
}

// AuthConfig holds authentication-related configuration.
type AuthConfig struct {
	// EnableVerification controls whether JWT tokens are validated.
	// Set to false for local development without auth server.
	EnableVerification bool `yaml:"enable_verification" env:"AUTH_ENABLE_VERIFICATION" env-default:"true"`

	// JWKSEndpointsStr is a comma-separated list of issuer=jwks_url pairs.
	// Format: "issuer1=url1,issuer2=url2"
	JWKSEndpointsStr string `yaml:"jwks_endpoints" env:"JWKS_ENDPOINTS" env-default:"https://auth.ekaya.ai=https://auth.ekaya.ai/.well-known/jwks.json"`

	// JWKSEndpoints is the parsed map from JWKSEndpointsStr (not from config file).
	JWKSEndpoints map[string]string `yaml:"-"`

	// Audience, when set, must appear in the token's aud claim.
	Audience string `yaml:"audience" env:"AUTH_AUDIENCE" env-default:"counsel"`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host             string        `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port             int           `yaml:"port" env:"PGPORT" env-default:"5432"`
	User             string        `yaml:"user" env:"PGUSER" env-default:"ekaya"`
	Password         string        `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database         string        `yaml:"database" env:"PGDATABASE" env-default:"ekaya_counsel"`
	MaxConnections   int32         `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	SSLMode          string        `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
	StatementTimeout time.Duration `yaml:"statement_timeout" env:"PGSTATEMENT_TIMEOUT" env-default:"30s"`
	MigrationsPath   string        `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"migrations"`
}

// DefaultOpenAIBaseURL is used for the openai provider when base_url is empty.
const DefaultOpenAIBaseURL = "https://api.openai.com/v1"

// AIConfig selects the model used to extract case hints from intake prompts.
// With no model configured, intake runs on prompt patterns alone.
type AIConfig struct {
	Provider    string        `yaml:"provider" env:"AI_PROVIDER" env-default:"openai"` // openai or anthropic
	BaseURL     string        `yaml:"base_url" env:"AI_BASE_URL" env-default:""`
	Model       string        `yaml:"model" env:"AI_MODEL" env-default:""`
	APIKey      string        `yaml:"-" env:"AI_API_KEY"` // Secret - not in YAML
	Temperature float64       `yaml:"temperature" env:"AI_TEMPERATURE" env-default:"0"`
	MaxTokens   int           `yaml:"max_tokens" env:"AI_MAX_TOKENS" env-default:"1024"`
	Timeout     time.Duration `yaml:"timeout" env:"AI_TIMEOUT" env-default:"30s"`
	JSONMode    bool          `yaml:"json_mode" env:"AI_JSON_MODE" env-default:"true"`
}

// IsAvailable returns true if an AI model is configured.
func (c *AIConfig) IsAvailable() bool {
	return c.Model != ""
}

// MCPConfig holds MCP endpoint settings.
type MCPConfig struct {
	// LogRequests logs every JSON-RPC request and response at debug level.
	LogRequests bool `yaml:"log_requests" env:"MCP_LOG_REQUESTS" env-default:"false"`
}

// IntakeConfig tunes natural-language case intake.
type IntakeConfig struct {
	ClientCandidateLimit   int  `yaml:"client_candidate_limit" env:"INTAKE_CLIENT_CANDIDATE_LIMIT" env-default:"10"`
	CourtCandidateLimit    int  `yaml:"court_candidate_limit" env:"INTAKE_COURT_CANDIDATE_LIMIT" env-default:"10"`
	CaseTypeCandidateLimit int  `yaml:"case_type_candidate_limit" env:"INTAKE_CASE_TYPE_CANDIDATE_LIMIT" env-default:"5"`
	StatusCandidateLimit   int  `yaml:"status_candidate_limit" env:"INTAKE_STATUS_CANDIDATE_LIMIT" env-default:"5"`
	AIHintsEnabled         bool `yaml:"ai_hints_enabled" env:"INTAKE_AI_HINTS_ENABLED" env-default:"true"`
}

// Load reads configuration from config.yaml with environment variable overrides.
// The version parameter is injected at build time and set on the returned Config.
// Environment variables override YAML values. Secrets (PGPASSWORD, AI_API_KEY)
// must come from environment variables (yaml:"-" fields).
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
		return nil, fmt.Errorf("failed to read config.yaml: %w", err)
	}

	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// finish parses derived fields and validates the loaded configuration.
func (c *Config) finish() error {
	c.Auth.JWKSEndpoints = parseJWKSEndpoints(c.Auth.JWKSEndpointsStr)

	if err := c.validateTLS(); err != nil {
		return fmt.Errorf("invalid TLS configuration: %w", err)
	}
	if err := c.validateAI(); err != nil {
		return fmt.Errorf("invalid AI configuration: %w", err)
	}
	if err := c.validateIntake(); err != nil {
		return fmt.Errorf("invalid intake configuration: %w", err)
	}

	c.Database.Host = ResolveHostForDocker(c.Database.Host)
	c.AI.BaseURL = ResolveURLForDocker(c.AI.BaseURL)

	// Use HTTPS scheme if TLS is configured
	if c.BaseURL == "" {
		scheme := "http"
		if c.TLSCertPath != "" {
			scheme = "https"
		}
		c.BaseURL = (&url.URL{
			Scheme: scheme,
			Host:   "localhost:" + c.Port,
		}).String()
	}
	return nil
}

// validateTLS ensures TLS configuration is valid if provided.
// Both cert and key must be provided together, and files must exist.
func (c *Config) validateTLS() error {
	certSet := c.TLSCertPath != ""
	keySet := c.TLSKeyPath != ""

	if certSet != keySet {
		return fmt.Errorf("both tls_cert_path and tls_key_path must be provided together")
	}

	// Readability is checked by tls.LoadX509KeyPair at startup
	if certSet {
		if _, err := os.Stat(c.TLSCertPath); err != nil {
			return fmt.Errorf("TLS cert file does not exist: %w", err)
		}
		if _, err := os.Stat(c.TLSKeyPath); err != nil {
			return fmt.Errorf("TLS key file does not exist: %w", err)
		}
	}

	return nil
}

func (c *Config) validateAI() error {
	c.AI.Provider = strings.ToLower(strings.TrimSpace(c.AI.Provider))
	switch c.AI.Provider {
	case "openai":
		if c.AI.BaseURL == "" {
			c.AI.BaseURL = DefaultOpenAIBaseURL
		}
	case "anthropic":
		if c.AI.IsAvailable() && c.AI.APIKey == "" {
			return fmt.Errorf("AI_API_KEY is required for the anthropic provider")
		}
	default:
		return fmt.Errorf("unsupported provider %q (want openai or anthropic)", c.AI.Provider)
	}
	if c.AI.Temperature < 0 || c.AI.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2, got %v", c.AI.Temperature)
	}
	return nil
}

func (c *Config) validateIntake() error {
	limits := map[string]int{
		"client_candidate_limit":    c.Intake.ClientCandidateLimit,
		"court_candidate_limit":     c.Intake.CourtCandidateLimit,
		"case_type_candidate_limit": c.Intake.CaseTypeCandidateLimit,
		"status_candidate_limit":    c.Intake.StatusCandidateLimit,
	}
	for name, v := range limits {
		if v < 0 {
			return fmt.Errorf("%s must not be negative, got %d", name, v)
		}
	}
	return nil
}

// parseJWKSEndpoints parses the JWKS endpoints string into a map.
// Format: "issuer1=url1,issuer2=url2"
func parseJWKSEndpoints(value string) map[string]string {
	endpoints := make(map[string]string)
	if value == "" {
		return endpoints
	}

	pairs := strings.Split(value, ",")
	for _, pair := range pairs {
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) == 2 {
			endpoints[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
		}
	}
	return endpoints
}

// ConnectionString returns a PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}
