package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

var (
	ErrConfigFileNotFound    = errors.New("could not find config file in any config path")
	ErrConfigVersionMissing  = errors.New("config file is missing version field")
	ErrConfigVersionMismatch = errors.New("config file version mismatch")
)

// CurrentVersion is the expected version of the config file.
const CurrentVersion = 1

// Config represents the entire application configuration.
type Config struct {
	// Version of the config file.
	Version    int        `koanf:"version"`
	Debug      Debug      `koanf:"debug"`
	Server     Server     `koanf:"server"`
	Auth       Auth       `koanf:"auth"`
	PostgreSQL PostgreSQL `koanf:"postgresql"`
	Redis      Redis      `koanf:"redis"`
	Cache      Cache      `koanf:"cache"`
	LeetCode   LeetCode   `koanf:"leetcode"`
	Codeforces Codeforces `koanf:"codeforces"`
}

// Debug contains debug-related configuration.
type Debug struct {
	// Log level (debug, info, warn, error).
	LogLevel string `koanf:"log_level"`
	// Maximum log sessions to keep.
	MaxLogsToKeep int `koanf:"max_logs_to_keep"`
}

// Server contains REST server configuration.
type Server struct {
	// Server bind hostname.
	Host string `koanf:"host"`
	// Server bind port.
	Port int `koanf:"port"`
}

// Auth contains token signing configuration.
type Auth struct {
	// Secret used to sign session tokens.
	JWTSecret string `koanf:"jwt_secret"`
	// Token lifetime in hours.
	TokenExpiryHours int `koanf:"token_expiry_hours"`
}

// PostgreSQL contains database connection configuration.
type PostgreSQL struct {
	// Database hostname.
	Host string `koanf:"host"`
	// Database port.
	Port int `koanf:"port"`
	// Database username.
	User string `koanf:"user"`
	// Database password.
	Password string `koanf:"password"`
	// Database name.
	DBName string `koanf:"db_name"`
	// Maximum open connections.
	MaxOpenConns int `koanf:"max_open_conns"`
	// Maximum idle connections.
	MaxIdleConns int `koanf:"max_idle_conns"`
	// Connection lifetime in minutes.
	MaxLifetime int `koanf:"max_lifetime"`
	// Idle timeout in minutes.
	MaxIdleTime int `koanf:"max_idle_time"`
}

// Redis contains Redis connection configuration.
type Redis struct {
	// Redis hostname.
	Host string `koanf:"host"`
	// Redis port.
	Port int `koanf:"port"`
	// Redis username.
	Username string `koanf:"username"`
	// Redis password.
	Password string `koanf:"password"`
}

// Cache contains per-view TTL configuration in seconds.
type Cache struct {
	// TTL for the stats view.
	StatsTTL int `koanf:"stats_ttl"`
	// TTL for the practice-problems view.
	ProblemsTTL int `koanf:"problems_ttl"`
	// TTL for the activity-calendar view.
	ActivityTTL int `koanf:"activity_ttl"`
	// TTL for the shared LeetCode problem totals entry.
	ProblemTotalsTTL int `koanf:"problem_totals_ttl"`
}

// LeetCode contains LeetCode upstream configuration.
type LeetCode struct {
	// GraphQL endpoint URL.
	GraphQLURL string `koanf:"graphql_url"`
	// Aggregate stats API URL.
	StatsAPIURL string `koanf:"stats_api_url"`
	// Bulk problem listing URL.
	ProblemsURL string `koanf:"problems_url"`
	// Per-request timeout in milliseconds.
	RequestTimeout int `koanf:"request_timeout"`
	// Number of recent accepted submissions to fetch.
	SubmissionLimit int `koanf:"submission_limit"`
	// Maximum concurrent per-problem detail lookups.
	DetailConcurrency int `koanf:"detail_concurrency"`
}

// Codeforces contains Codeforces upstream configuration.
type Codeforces struct {
	// API base URL.
	APIURL string `koanf:"api_url"`
	// Per-request timeout in milliseconds.
	RequestTimeout int `koanf:"request_timeout"`
	// Number of recent submissions to fetch for suggestions.
	SubmissionCount int `koanf:"submission_count"`
	// Number of submissions to fetch for the activity calendar.
	ActivityCount int `koanf:"activity_count"`
	// Default submission count for the raw proxy endpoint.
	ProxyCount int `koanf:"proxy_count"`
}

// LoadConfig loads the configuration from the first codyssey.toml found in the
// search paths. Returns the config along with the used config directory.
func LoadConfig() (*Config, string, error) {
	k := koanf.New(".")

	// Get user's home directory
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, "", fmt.Errorf("failed to get home directory: %w", err)
	}

	// List search paths
	configPaths := []string{
		".codyssey",
		homeDir + "/.codyssey/config",
		"/etc/codyssey/config",
		"/app/config",
		"config",
		".",
	}

	var usedConfigPath string

	for _, path := range configPaths {
		configPath := fmt.Sprintf("%s/codyssey.toml", path)
		if err := k.Load(file.Provider(configPath), toml.Parser()); err == nil {
			usedConfigPath = path
			break
		}
	}

	if usedConfigPath == "" {
		return nil, "", fmt.Errorf("%w: codyssey.toml", ErrConfigFileNotFound)
	}

	var config Config
	if err := k.Unmarshal("", &config); err != nil {
		return nil, "", fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := checkConfigVersion(config.Version, CurrentVersion); err != nil {
		return nil, "", err
	}

	return &config, usedConfigPath, nil
}

// checkConfigVersion checks if the config file version is correct.
func checkConfigVersion(current, expected int) error {
	if current == 0 {
		return fmt.Errorf("%w: codyssey.toml", ErrConfigVersionMissing)
	}

	if current != expected {
		return fmt.Errorf("%w: codyssey.toml (got: %d, expected: %d)",
			ErrConfigVersionMismatch, current, expected)
	}

	return nil
}
