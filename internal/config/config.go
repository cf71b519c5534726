package config

import (
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

type Config struct {
	Port        string
	Host        string
	Environment string
	CORSOrigins string
	TablePrefix string
	// Logging
	LogDir      string
	LogMaxFiles int
	// Limits
	MaxInputChars        int
	HTTPTimeout          time.Duration
	ConvertRatePerMinute int
	// Storage: DatabaseURL selects Postgres, otherwise SettingsPath holds a YAML file
	SettingsPath string
	DatabaseURL  string
	// Optional bearer-token auth; empty disables it
	AuthJWKSURL  string
	AuthIssuer   string
	AuthAudience string
	// Seed provider settings, used until settings are saved
	DefaultProvider string
	DefaultModel    string
	DefaultBaseURL  string
	GeminiAPIKey    string
	OpenAIAPIKey    string
	// Debug flags
	Debug bool
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Host:        getEnv("HOST", ""),
		Environment: env,
		CORSOrigins: getEnv("CORS_ORIGINS", "http://localhost:3000"),
		TablePrefix: getTablePrefix(env),

		LogDir:      getEnv("LOG_DIR", ""),
		LogMaxFiles: getEnvInt("LOG_MAX_FILES", 10),

		MaxInputChars:        getEnvInt("MAX_INPUT_CHARS", MaxInputChars),
		HTTPTimeout:          time.Duration(getEnvInt("HTTP_TIMEOUT_SECONDS", 300)) * time.Second,
		ConvertRatePerMinute: getEnvInt("CONVERT_RATE_PER_MINUTE", 30),

		SettingsPath: getEnv("SETTINGS_PATH", defaultSettingsPath()),
		DatabaseURL:  getEnv("DATABASE_URL", ""),

		AuthJWKSURL:  getEnv("AUTH_JWKS_URL", ""),
		AuthIssuer:   getEnv("AUTH_ISSUER", ""),
		AuthAudience: getEnv("AUTH_AUDIENCE", ""),

		DefaultProvider: getEnv("DEFAULT_PROVIDER", "managed"),
		DefaultModel:    getEnv("DEFAULT_MODEL", ""),
		DefaultBaseURL:  getEnv("DEFAULT_BASE_URL", ""),
		GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),

		// Debug flags - default to true in dev/test, false in production
		Debug: getEnv("DEBUG", getDefaultDebug(env)) == "true",
	}
}

// Addr returns the listen address
func (c *Config) Addr() string {
	return c.Host + ":" + c.Port
}

// SeedAPIKey returns the env-provided key for the default provider
func (c *Config) SeedAPIKey() string {
	if c.DefaultProvider == "openai_compatible" {
		return c.OpenAIAPIKey
	}
	return c.GeminiAPIKey
}

// SharedHTTPClient returns the client handed to every provider. The timeout is
// the only deadline applied to outbound calls besides the request context.
func (c *Config) SharedHTTPClient() *http.Client {
	return &http.Client{
		Timeout: c.HTTPTimeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        20,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// getDefaultDebug returns the default debug setting based on environment
func getDefaultDebug(env string) string {
	if env == "prod" {
		return "false"
	}
	return "true" // Enable DEBUG in dev/test by default
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	// Allow manual override via TABLE_PREFIX env var
	if prefix := os.Getenv("TABLE_PREFIX"); prefix != "" {
		return prefix
	}

	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

// defaultSettingsPath places settings under the user config dir, falling back to cwd
func defaultSettingsPath() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return "polyglot-settings.yaml"
	}
	return filepath.Join(dir, "polyglot", "settings.yaml")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return defaultValue
	}
	return n
}
