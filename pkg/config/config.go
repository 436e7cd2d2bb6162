// Package config provides secure configuration management for the spotseed application.
//
// This package handles loading configuration from environment variables and .env files
// with built-in security measures to prevent path traversal attacks. It uses the
// github.com/caarlos0/env library for environment variable parsing and
// github.com/joho/godotenv for .env file loading.
//
// The configuration loading follows a priority order:
//  1. Environment variables (highest priority)
//  2. .env file in current working directory
//  3. Default values (if any)
//
// Example usage:
//
//	import "github.com/toozej/spotseed/pkg/config"
//
//	func main() {
//		conf := config.GetEnvVars()
//		fmt.Printf("Store: %s\n", conf.Store.Path)
//	}
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config represents the main application configuration with nested service configurations.
type Config struct {
	Spotify SpotifyConfig `envPrefix:"SPOTIFY_"`
	Store   StoreConfig   `envPrefix:"SPOTSEED_"`
	Server  ServerConfig  `envPrefix:"SERVER_"`
}

// SpotifyConfig represents the configuration for Spotify API integration.
//
// This struct contains all the necessary configuration parameters for
// authenticating and interacting with the Spotify API.
type SpotifyConfig struct {
	// ClientID is the Spotify application client ID.
	ClientID string `env:"CLIENT_ID"`

	// ClientSecret is the Spotify application client secret.
	ClientSecret string `env:"CLIENT_SECRET"` // #nosec G117 -- OAuth client secret, expected in config

	// RedirectURL is the callback URL for OAuth authentication.
	RedirectURL string `env:"REDIRECT_URI" envDefault:"http://127.0.0.1:8080/callback"`

	// TokenFilePath is the path where the Spotify authentication token is stored.
	TokenFilePath string `env:"TOKEN_FILE_PATH" envDefault:"~/.config/spotseed/spotify_token.json"`

	// EntityCacheSize bounds the in-process cache of single artist/track lookups.
	EntityCacheSize int `env:"ENTITY_CACHE_SIZE" envDefault:"256"`
}

// StoreConfig represents local state and run defaults.
type StoreConfig struct {
	// Path is the SQLite database holding blacklist, presets, devices and playlists.
	Path string `env:"STORE_PATH" envDefault:"~/.config/spotseed/spotseed.db"`

	// DefaultLimit is the number of tracks requested when --limit is not given.
	DefaultLimit int `env:"DEFAULT_LIMIT" envDefault:"20"`

	// PlaylistPrefix starts every generated playlist name.
	PlaylistPrefix string `env:"PLAYLIST_PREFIX" envDefault:"spotseed"`

	// LogFile, when set, receives a copy of every log line.
	LogFile string `env:"LOG_FILE"`

	// MaxEmptyBatches stops the top-up loop after this many consecutive fully rejected batches.
	MaxEmptyBatches int `env:"MAX_EMPTY_BATCHES" envDefault:"3"`
}

// ServerConfig represents the OAuth callback server configuration.
type ServerConfig struct {
	Host string `env:"HOST" envDefault:"127.0.0.1"`
	Port int    `env:"PORT" envDefault:"8080"`
}

// Load reads the .env file (if any) and the environment into a validated Config.
func Load() (Config, error) {
	// Get current working directory for secure file operations
	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, fmt.Errorf("error getting current working directory: %w", err)
	}

	// Construct secure path for .env file within current directory
	envPath := filepath.Join(cwd, ".env")

	// Ensure the path is within our expected directory (prevent traversal)
	cleanEnvPath, err := filepath.Abs(envPath)
	if err != nil {
		return Config{}, fmt.Errorf("error resolving .env file path: %w", err)
	}
	cleanCwd, err := filepath.Abs(cwd)
	if err != nil {
		return Config{}, fmt.Errorf("error resolving current directory: %w", err)
	}
	relPath, err := filepath.Rel(cleanCwd, cleanEnvPath)
	if err != nil || strings.Contains(relPath, "..") {
		return Config{}, ErrEnvPathTraversal
	}

	// Load .env file if it exists
	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			return Config{}, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	var conf Config
	if err := env.Parse(&conf); err != nil {
		return Config{}, fmt.Errorf("error parsing configuration from environment: %w", err)
	}

	if err := validateConfig(&conf); err != nil {
		return Config{}, err
	}

	return conf, nil
}

// GetEnvVars loads and returns the application configuration from environment
// variables and .env files.
//
// The function will terminate the program with os.Exit(1) if loading or
// validation fails. Use Load to receive the error instead.
func GetEnvVars() Config {
	conf, err := Load()
	if err != nil {
		fmt.Printf("Configuration error: %s\n", err)
		fmt.Println("Please check your configuration and try again.")
		os.Exit(1)
	}
	return conf
}

// Address returns the server address
func (s ServerConfig) Address() string {
	if s.Host == "" {
		s.Host = "127.0.0.1"
	}
	if s.Port == 0 {
		s.Port = 8080
	}
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// GetTokenFilePath returns the resolved token file path, handling tilde expansion
// and ensuring the directory exists.
func (s SpotifyConfig) GetTokenFilePath() (string, error) {
	return resolvePath(s.TokenFilePath)
}

// GetStorePath returns the resolved store path, handling tilde expansion
// and ensuring the directory exists.
func (s StoreConfig) GetStorePath() (string, error) {
	return resolvePath(s.Path)
}

func resolvePath(path string) (string, error) {
	// Handle tilde expansion
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get user home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	dir := filepath.Dir(absPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	return absPath, nil
}

// validateConfig validates the configuration
func validateConfig(conf *Config) error {
	var errors []string

	if conf.Server.Port < 1 || conf.Server.Port > 65535 {
		errors = append(errors, "server port must be between 1 and 65535")
	}

	// Spotify credentials are only needed for commands that talk to Spotify (warn but don't fail)
	if conf.Spotify.ClientID == "" {
		fmt.Println("Warning: SPOTIFY_CLIENT_ID is not set. The application will not be able to connect to Spotify.")
	}
	if conf.Spotify.ClientSecret == "" {
		fmt.Println("Warning: SPOTIFY_CLIENT_SECRET is not set. The application will not be able to connect to Spotify.")
	}
	if conf.Spotify.EntityCacheSize < 1 {
		errors = append(errors, "entity cache size must be at least 1")
	}

	if conf.Store.Path == "" {
		errors = append(errors, "store path is required")
	}
	if conf.Store.DefaultLimit < 1 || conf.Store.DefaultLimit > 100 {
		errors = append(errors, "default limit must be between 1 and 100")
	}
	if conf.Store.MaxEmptyBatches < 1 {
		errors = append(errors, "max empty batches must be at least 1")
	}

	if len(errors) > 0 {
		return fmt.Errorf("%w:\n- %s", ErrInvalidConfig, strings.Join(errors, "\n- "))
	}

	return nil
}
