// Package config provides bot configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"
)

// Config holds the application configuration.
type Config struct {
	App     AppConfig
	Logger  LoggerConfig
	Bot     BotConfig
	Storage StorageConfig
	Server  ServerConfig
	Paste   PasteConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// BotConfig holds the Discord gateway configuration.
type BotConfig struct {
	Token        string
	TokenFile    string // Read when Token is empty (default: token.txt)
	Prefix       string // Single rune that starts a text command (default: ?)
	QuietStartup bool   // Skip the "started up" message in bot channels
}

// StorageConfig holds on-disk locations.
type StorageConfig struct {
	DataPath        string
	TagsPath        string // {data}/Tags/list.json
	BotChannelsPath string // {data}/botchannels.txt
	WatchTags       bool   // Reload the tag document when it is edited externally (default: true)
}

// ServerConfig holds the admin HTTP API configuration.
type ServerConfig struct {
	Enabled      bool
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// PasteConfig holds hastebin configuration.
type PasteConfig struct {
	BaseURL           string
	MaxAttachmentSize int64
	RatePerMinute     int
}

// PrefixRune returns the command prefix as a rune.
func (b BotConfig) PrefixRune() rune {
	r, _ := utf8.DecodeRuneInString(b.Prefix)
	return r
}

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig() (*Config, error) {
	return loadConfig(flag.CommandLine, os.Args[1:])
}

func loadConfig(fs *flag.FlagSet, args []string) (*Config, error) {
	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")

	token := fs.String("token", "", "Discord bot token")
	tokenFile := fs.String("token-file", "", "File containing the Discord bot token (default: token.txt)")
	prefix := fs.String("prefix", "", "Text command prefix (default: ?)")
	quietStartup := fs.String("quiet-startup", "", "Do not announce startup in bot channels")

	dataPath := fs.String("data-path", "", "Directory for tags and bot channel files (default: .)")
	watchTags := fs.String("watch-tags", "", "Reload the tag document on external edits (default: true)")

	apiEnabled := fs.String("api-enabled", "", "Serve the admin HTTP API (default: true)")
	serverPort := fs.String("port", "", "Admin API port (default: 8080)")
	readTimeout := fs.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := fs.String("write-timeout", "", "HTTP write timeout (default: 15s)")
	idleTimeout := fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")

	pasteURL := fs.String("paste-url", "", "Hastebin base URL (default: https://hst.sh)")

	envFile := fs.String("env-file", ".env", "Path to .env file")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Bot: BotConfig{
			Token:        strings.TrimSpace(getConfigValue(*token, "DISCORD_TOKEN", "")),
			TokenFile:    getConfigValue(*tokenFile, "DISCORD_TOKEN_FILE", "token.txt"),
			Prefix:       getConfigValue(*prefix, "COMMAND_PREFIX", "?"),
			QuietStartup: getBoolConfigValue(*quietStartup, "QUIET_STARTUP", false),
		},
		Storage: StorageConfig{
			DataPath:  getConfigValue(*dataPath, "DATA_PATH", "."),
			WatchTags: getBoolConfigValue(*watchTags, "WATCH_TAGS", true),
		},
		Server: ServerConfig{
			Enabled: getBoolConfigValue(*apiEnabled, "API_ENABLED", true),
			Port:    getConfigValue(*serverPort, "SERVER_PORT", "8080"),
		},
		Paste: PasteConfig{
			BaseURL:           strings.TrimRight(getConfigValue(*pasteURL, "PASTE_URL", "https://hst.sh"), "/"),
			MaxAttachmentSize: int64(getIntConfigValue("", "PASTE_MAX_ATTACHMENT_SIZE", 400000)),
			RatePerMinute:     getIntConfigValue("", "PASTE_RATE_PER_MINUTE", 6),
		},
	}

	var err error
	if cfg.Server.ReadTimeout, err = parseDuration(*readTimeout, "SERVER_READ_TIMEOUT", "15s"); err != nil {
		return nil, err
	}
	if cfg.Server.WriteTimeout, err = parseDuration(*writeTimeout, "SERVER_WRITE_TIMEOUT", "15s"); err != nil {
		return nil, err
	}
	if cfg.Server.IdleTimeout, err = parseDuration(*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s"); err != nil {
		return nil, err
	}

	if err := cfg.expandStoragePaths(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	if cfg.Bot.Token == "" {
		if err := cfg.readTokenFile(); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %q (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %q (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if utf8.RuneCountInString(c.Bot.Prefix) != 1 {
		return fmt.Errorf("invalid command prefix %q: must be exactly one character", c.Bot.Prefix)
	}

	if c.Bot.Token == "" {
		return errors.New("discord token is required (use -token, DISCORD_TOKEN or a token file)")
	}

	if c.Storage.TagsPath == "" {
		return errors.New("tags path cannot be empty after expansion")
	}

	if c.Paste.MaxAttachmentSize <= 0 {
		return fmt.Errorf("invalid paste attachment size limit: %d", c.Paste.MaxAttachmentSize)
	}

	if c.Paste.RatePerMinute <= 0 {
		return fmt.Errorf("invalid paste rate: %d per minute", c.Paste.RatePerMinute)
	}

	return nil
}

// readTokenFile loads the token from Bot.TokenFile.
func (c *Config) readTokenFile() error {
	data, err := os.ReadFile(c.Bot.TokenFile) //#nosec G304 -- token path is operator supplied
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil // Validate reports the missing token
		}
		return fmt.Errorf("read token file %s: %w", c.Bot.TokenFile, err)
	}
	c.Bot.Token = strings.TrimSpace(string(data))
	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// expandStoragePaths resolves the data directory and the files beneath it.
func (c *Config) expandStoragePaths() error {
	expanded, err := expandPath(c.Storage.DataPath, ".")
	if err != nil {
		return err
	}
	c.Storage.DataPath = expanded
	c.Storage.TagsPath = filepath.Join(expanded, "Tags", "list.json")
	c.Storage.BotChannelsPath = filepath.Join(expanded, "botchannels.txt")
	return nil
}

func parseDuration(flagValue, envKey, defaultValue string) (time.Duration, error) {
	s := getConfigValue(flagValue, envKey, defaultValue)
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s %q: %w", envKey, s, err)
	}
	return d, nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

// getBoolConfigValue returns a bool from flag, env var, or default.
// Accepts: "true", "1", "yes" (case-insensitive) as true; anything else is false.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result int
	if _, err := fmt.Sscanf(strValue, "%d", &result); err != nil {
		return defaultValue
	}
	return result
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		// Env vars take precedence over .env file.
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
