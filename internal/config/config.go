package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "TB"

// Config holds all configuration for the application
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Source   SourceConfig   `mapstructure:"source"`
	Fetch    FetchConfig    `mapstructure:"fetch"`
	Output   OutputConfig   `mapstructure:"output"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

// AppConfig holds process-wide settings
type AppConfig struct {
	Profile       string `mapstructure:"profile"`
	LogLevel      string `mapstructure:"log_level"`
	LogFormat     string `mapstructure:"log_format"`
	ParserVersion string `mapstructure:"parser_version"`
}

// SourceConfig describes the directory page to read
type SourceConfig struct {
	PageURL     string        `mapstructure:"page_url"`
	BaseURL     string        `mapstructure:"base_url"`
	FixturePath string        `mapstructure:"fixture_path"`
	UserAgent   string        `mapstructure:"user_agent"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// FetchConfig holds network politeness settings
type FetchConfig struct {
	RateLimitRPS          int           `mapstructure:"rate_limit_rps"`
	MaxRetries            int           `mapstructure:"max_retries"`
	BackoffBase           time.Duration `mapstructure:"backoff_base"`
	BackoffMax            time.Duration `mapstructure:"backoff_max"`
	RespectRobots         bool          `mapstructure:"respect_robots"`
	UseCache              bool          `mapstructure:"use_cache"`
	Proxies               []string      `mapstructure:"proxies"`
	ProxyTestURL          string        `mapstructure:"proxy_test_url"`
	CircuitBreakerMinutes int           `mapstructure:"circuit_breaker_minutes"`
}

// OutputConfig holds artifact locations
type OutputConfig struct {
	Dir            string `mapstructure:"dir"`
	TaxonomyFile   string `mapstructure:"taxonomy_file"`
	ChoicesFile    string `mapstructure:"choices_file"`
	DeadLetterFile string `mapstructure:"deadletter_file"`
	IncludeAllIn   bool   `mapstructure:"include_all_in"`
	Pretty         bool   `mapstructure:"pretty"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Host string `mapstructure:"host"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

// RedisConfig holds Redis connection details
type RedisConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	Host          string        `mapstructure:"host"`
	Port          int           `mapstructure:"port"`
	Password      string        `mapstructure:"password"`
	Database      int           `mapstructure:"database"`
	ConsumerGroup string        `mapstructure:"consumer_group"`
	MinIdleTime   time.Duration `mapstructure:"min_idle_time"`
	Workers       int           `mapstructure:"workers"`
}

// Options select where configuration comes from.
type Options struct {
	// Path of a YAML file. Empty means ./config.yaml when present.
	Path string
	// Profile overrides app.profile when set.
	Profile string
}

// Load reads configuration from an optional YAML file with TB_* environment
// overrides. Profile defaults sit below both.
func Load(opts Options) (*Config, error) {
	return LoadWith(viper.New(), opts)
}

// LoadWith is Load on a caller-supplied viper instance.
func LoadWith(v *viper.Viper, opts Options) (*Config, error) {
	if opts.Path != "" {
		v.SetConfigFile(opts.Path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	if opts.Profile != "" {
		v.Set("app.profile", opts.Profile)
	}

	profile, err := ParseProfile(v.GetString("app.profile"))
	if err != nil {
		return nil, err
	}
	profile.apply(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	config.App.Profile = profile.Name

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.profile", ProfileDev)
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.log_format", "text")
	v.SetDefault("app.parser_version", "0.1.0")

	v.SetDefault("source.page_url", "https://clutch.co/categories")
	v.SetDefault("source.base_url", "https://clutch.co")
	v.SetDefault("source.fixture_path", "")
	v.SetDefault("source.user_agent", "TaxonomyBuilder/0.1 (+https://clutch.co)")
	v.SetDefault("source.timeout", 30*time.Second)

	v.SetDefault("fetch.rate_limit_rps", 1)
	v.SetDefault("fetch.max_retries", 3)
	v.SetDefault("fetch.backoff_base", 500*time.Millisecond)
	v.SetDefault("fetch.backoff_max", 30*time.Second)
	v.SetDefault("fetch.respect_robots", true)
	v.SetDefault("fetch.use_cache", false)
	v.SetDefault("fetch.proxies", []string{})
	v.SetDefault("fetch.proxy_test_url", "https://clutch.co/robots.txt")
	v.SetDefault("fetch.circuit_breaker_minutes", 30)

	v.SetDefault("output.dir", "./data")
	v.SetDefault("output.taxonomy_file", "taxonomy.json")
	v.SetDefault("output.choices_file", "choices.json")
	v.SetDefault("output.deadletter_file", "deadletter.jsonl")
	v.SetDefault("output.include_all_in", false)
	v.SetDefault("output.pretty", true)

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.host", "localhost")

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "taxonomy")
	v.SetDefault("database.user", "taxonomy_user")
	v.SetDefault("database.password", "")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.database", 0)
	v.SetDefault("redis.consumer_group", "taxonomy_builders")
	v.SetDefault("redis.min_idle_time", 2*time.Minute)
	v.SetDefault("redis.workers", 2)
}

// DSN returns the pgx connection string.
func (c DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:   "/" + c.Name,
	}
	return u.String()
}

// Addr returns host:port.
func (c RedisConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Addr returns host:port.
func (c ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// TaxonomyPath is the full path of the taxonomy document.
func (c OutputConfig) TaxonomyPath() string {
	return joinPath(c.Dir, c.TaxonomyFile)
}

// DeadLetterPath is the full path of the dead-letter log.
func (c OutputConfig) DeadLetterPath() string {
	return joinPath(c.Dir, c.DeadLetterFile)
}

// CircuitBreakerDelay is how long the fetch circuit stays open.
func (c FetchConfig) CircuitBreakerDelay() time.Duration {
	return time.Duration(c.CircuitBreakerMinutes) * time.Minute
}

// ChoicesPath is the choices projection, written next to the taxonomy.
func (c OutputConfig) ChoicesPath() string {
	return filepath.Join(filepath.Dir(c.TaxonomyPath()), c.ChoicesFile)
}

func joinPath(dir, file string) string {
	if filepath.IsAbs(file) || dir == "" {
		return file
	}
	return filepath.Join(dir, file)
}
