package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the termmap API configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Resolver  ResolverConfig  `yaml:"resolver"`
	Batch     BatchConfig     `yaml:"batch"`
	Jobs      JobsConfig      `yaml:"jobs"`
	Providers ProvidersConfig `yaml:"providers"`
	Extract   ExtractConfig   `yaml:"extract"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// ResolverConfig holds resolution pipeline settings.
type ResolverConfig struct {
	PoolSize      int     `yaml:"pool_size"`
	MinConfidence float64 `yaml:"min_confidence"`
	MaxPerSystem  int     `yaml:"max_per_system"`
}

// BatchConfig holds batch scheduling settings.
type BatchConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkDelayMs int `yaml:"chunk_delay_ms"`
}

// JobsConfig holds job registry settings.
type JobsConfig struct {
	Driver string      `yaml:"driver"` // memory, redis (default: memory)
	Redis  RedisConfig `yaml:"redis"`
}

// RedisConfig holds redis connection settings for the durable registry.
type RedisConfig struct {
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	TTLHours         int      `yaml:"ttl_hours"`
}

// ProvidersConfig holds remote vocabulary provider settings.
type ProvidersConfig struct {
	TimeoutSec     int                  `yaml:"timeout_sec"`
	Snowstorm      SnowstormConfig      `yaml:"snowstorm"`
	ClinicalTables ClinicalTablesConfig `yaml:"clinical_tables"`
	RxNav          RxNavConfig          `yaml:"rxnav"`
}

// SnowstormConfig holds SNOMED CT Snowstorm settings.
type SnowstormConfig struct {
	BaseURL string `yaml:"base_url"`
	Branch  string `yaml:"branch"`
	Limit   int    `yaml:"limit"`
}

// ClinicalTablesConfig holds NLM Clinical Tables settings.
type ClinicalTablesConfig struct {
	BaseURL string `yaml:"base_url"`
	MaxList int    `yaml:"max_list"`
}

// RxNavConfig holds RxNav settings.
type RxNavConfig struct {
	BaseURL string `yaml:"base_url"`
	MaxList int    `yaml:"max_list"`
}

// ExtractConfig holds language model extraction settings. Extraction
// falls back to pattern matching when no api_key is set.
type ExtractConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

// Enabled reports whether the model extractor should be wired.
func (e ExtractConfig) Enabled() bool { return e.APIKey != "" }

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Resolver.PoolSize <= 0 {
		c.Resolver.PoolSize = 4
	}
	if c.Resolver.MinConfidence <= 0 {
		c.Resolver.MinConfidence = 0.6
	}
	if c.Resolver.MaxPerSystem <= 0 {
		c.Resolver.MaxPerSystem = 3
	}
	if c.Batch.ChunkSize <= 0 {
		c.Batch.ChunkSize = 5
	}
	if c.Batch.ChunkDelayMs <= 0 {
		c.Batch.ChunkDelayMs = 500
	}
	if c.Jobs.Driver == "" {
		c.Jobs.Driver = "memory"
	}
	if c.Jobs.Redis.ReadinessTimeout <= 0 {
		c.Jobs.Redis.ReadinessTimeout = 10
	}
	if c.Jobs.Redis.TTLHours <= 0 {
		c.Jobs.Redis.TTLHours = 24
	}
	if c.Providers.TimeoutSec <= 0 {
		c.Providers.TimeoutSec = 5
	}
	if c.Providers.Snowstorm.BaseURL == "" {
		c.Providers.Snowstorm.BaseURL = "https://snowstorm.ihtsdotools.org/snowstorm/snomed-ct"
	}
	if c.Providers.Snowstorm.Branch == "" {
		c.Providers.Snowstorm.Branch = "MAIN"
	}
	if c.Providers.Snowstorm.Limit <= 0 {
		c.Providers.Snowstorm.Limit = 10
	}
	if c.Providers.ClinicalTables.BaseURL == "" {
		c.Providers.ClinicalTables.BaseURL = "https://clinicaltables.nlm.nih.gov"
	}
	if c.Providers.ClinicalTables.MaxList <= 0 {
		c.Providers.ClinicalTables.MaxList = 10
	}
	if c.Providers.RxNav.BaseURL == "" {
		c.Providers.RxNav.BaseURL = "https://rxnav.nlm.nih.gov"
	}
	if c.Providers.RxNav.MaxList <= 0 {
		c.Providers.RxNav.MaxList = 10
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Resolver.MinConfidence > 1 {
		return fmt.Errorf("resolver.min_confidence must be at most 1, got %v", c.Resolver.MinConfidence)
	}
	switch c.Jobs.Driver {
	case "memory":
	case "redis":
		if len(c.Jobs.Redis.Addrs) == 0 {
			return fmt.Errorf("jobs.redis.addrs is required for the redis driver")
		}
	default:
		return fmt.Errorf("jobs.driver must be \"memory\" or \"redis\", got %q", c.Jobs.Driver)
	}
	if c.Extract.Enabled() && c.Extract.Model == "" {
		return fmt.Errorf("extract.model is required when extract.api_key is set")
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
