// Package config provides configuration management for the converter.
// It loads configuration from environment variables and .env files.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config represents the application configuration.
type Config struct {
	Figured FiguredConfig
	Output  OutputConfig
	Debug   bool
}

// FiguredConfig represents the Figured farm API configuration.
type FiguredConfig struct {
	FarmID       string
	ClientID     string
	ClientSecret string
	RedirectURI  string
	APIURL       string
	AuthURL      string
	TokenURL     string
	TokenPath    string
}

// OutputConfig represents output-related configuration.
type OutputConfig struct {
	Root      string
	DBPath    string
	InputDir  string
	RulesPath string
}

// Load loads configuration from environment variables.
// It automatically loads a .env file from the current directory if available.
// You can optionally specify a custom .env file path.
func Load(envPath ...string) (*Config, error) {
	if len(envPath) > 0 && envPath[0] != "" {
		if err := godotenv.Load(envPath[0]); err != nil {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	} else {
		// Try to load .env from current directory (ignore error if not found)
		_ = godotenv.Load()
	}

	config := &Config{
		Figured: FiguredConfig{
			FarmID:       os.Getenv("FARM_ID"),
			ClientID:     os.Getenv("FIGURED_CLIENT_ID"),
			ClientSecret: os.Getenv("FIGURED_CLIENT_SECRET"),
			RedirectURI:  os.Getenv("FIGURED_REDIRECT_URI"),
			APIURL:       getEnvOrDefault("FIGURED_API_URL", "https://api.figured.com"),
			AuthURL:      getEnvOrDefault("FIGURED_AUTH_URL", "https://auth.figured.com/oauth/authorize"),
			TokenURL:     getEnvOrDefault("FIGURED_TOKEN_URL", "https://auth.figured.com/oauth/token"),
			TokenPath:    os.Getenv("FIGURED_TOKEN_PATH"),
		},
		Output: OutputConfig{
			Root:      getEnvOrDefault("OUTPUT_ROOT", "./export"),
			DBPath:    os.Getenv("CONVERTER_DB_PATH"),
			InputDir:  os.Getenv("INPUT_DIR"),
			RulesPath: getEnvOrDefault("RULES_PATH", "config/convert.yaml"),
		},
		Debug: os.Getenv("DEBUG") == "true",
	}

	return config, nil
}

// Validate checks that the named configuration keys are set. Keys use
// dotted form, e.g. "figured.farmId" or "output.root".
func (c *Config) Validate(required ...string) error {
	var missing []string

	for _, key := range required {
		var value string
		switch key {
		case "figured.farmId":
			value = c.Figured.FarmID
		case "figured.clientId":
			value = c.Figured.ClientID
		case "figured.clientSecret":
			value = c.Figured.ClientSecret
		case "figured.redirectUri":
			value = c.Figured.RedirectURI
		case "figured.apiUrl":
			value = c.Figured.APIURL
		case "figured.authUrl":
			value = c.Figured.AuthURL
		case "figured.tokenUrl":
			value = c.Figured.TokenURL
		case "output.root":
			value = c.Output.Root
		default:
			continue
		}

		if value == "" {
			missing = append(missing, key)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %v\nPlease check your .env file or environment variables", missing)
	}

	return nil
}

// getEnvOrDefault returns the value of the environment variable or a default value if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
