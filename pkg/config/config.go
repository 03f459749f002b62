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

	"github.com/platinummonkey/moosedocs/pkg/observability"
	"github.com/platinummonkey/moosedocs/pkg/syntax"
)

// FileNames are searched in order by LoadFromDir.
var FileNames = []string{"moosedocs.yml", "moosedocs.yaml", ".moosedocs.yml", ".moosedocs.yaml"}

// Config holds all application configuration
type Config struct {
	// Site layout
	SiteDir      string            `yaml:"site_dir"`
	ContentDir   string            `yaml:"content_dir"`
	Template     string            `yaml:"template"`
	TemplateArgs map[string]string `yaml:"template_args"`
	Navigation   string            `yaml:"navigation"`
	Assets       []string          `yaml:"assets"`
	Repo         string            `yaml:"repo"`

	// Application schema
	Executable        string           `yaml:"executable"`
	ExecutableArgs    []string         `yaml:"executable_args"`
	ExecutableTimeout time.Duration    `yaml:"executable_timeout"`
	Locations         []LocationConfig `yaml:"locations"`
	// Hide is appended to the hide list of every location.
	Hide []string `yaml:"hide"`

	// Build
	Threads        int  `yaml:"threads"`
	DisableThreads bool `yaml:"disable_threads"`

	Cache         CacheConfig         `yaml:"cache"`
	S3            S3Config            `yaml:"s3"`
	Server        ServerConfig        `yaml:"server"`
	Logging       LoggingConfig       `yaml:"logging"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// LocationConfig is one documented group of the schema.
type LocationConfig struct {
	Name  string   `yaml:"name"`
	Paths []string `yaml:"paths"`
	Hide  []string `yaml:"hide"`
}

type locationFields struct {
	Name  string   `yaml:"name"`
	Paths []string `yaml:"paths"`
	Hide  []string `yaml:"hide"`
}

// UnmarshalYAML accepts both the flat form
//
//	locations:
//	  - name: framework
//	    paths: [/]
//
// and the keyed form
//
//	locations:
//	  - framework:
//	      paths: [/]
func (l *LocationConfig) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.MappingNode && len(value.Content) == 2 &&
		value.Content[0].Value != "name" && value.Content[1].Kind == yaml.MappingNode {
		var f locationFields
		if err := value.Content[1].Decode(&f); err != nil {
			return err
		}
		*l = LocationConfig(f)
		l.Name = value.Content[0].Value
		return nil
	}
	var f locationFields
	if err := value.Decode(&f); err != nil {
		return err
	}
	*l = LocationConfig(f)
	return nil
}

// Location returns the registry settings with the global hide list applied.
func (l LocationConfig) Location(globalHide []string) syntax.Location {
	hide := append(append([]string{}, l.Hide...), globalHide...)
	return syntax.Location{Paths: l.Paths, Hide: hide}
}

// CacheConfig holds cache settings
type CacheConfig struct {
	// FragmentSize bounds the rendered directive cache; 0 disables it.
	FragmentSize int           `yaml:"fragment_size"`
	FragmentTTL  time.Duration `yaml:"fragment_ttl"`
	// RedisURL enables the shared schema dump cache.
	RedisURL string        `yaml:"redis_url"`
	RedisTTL time.Duration `yaml:"redis_ttl"`
}

// S3Config holds publishing settings
type S3Config struct {
	Bucket       string `yaml:"bucket"`
	Prefix       string `yaml:"prefix"`
	Region       string `yaml:"region"`
	Endpoint     string `yaml:"endpoint"`
	UsePathStyle bool   `yaml:"use_path_style"`
	AccessKey    string `yaml:"access_key"`
	SecretKey    string `yaml:"secret_key"`
}

// ServerConfig holds preview server configuration
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            string        `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	// WatchDebounce delays rebuilds after content changes.
	WatchDebounce time.Duration `yaml:"watch_debounce"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

// LoggingConfig holds logger settings
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	MetricsEnabled bool `yaml:"metrics_enabled"`

	// OpenTelemetry
	OTelEnabled        bool   `yaml:"otel_enabled"`
	OTelEndpoint       string `yaml:"otel_endpoint"`
	OTelServiceName    string `yaml:"otel_service_name"`
	OTelServiceVersion string `yaml:"otel_service_version"`
	OTelInsecure       bool   `yaml:"otel_insecure"` // Use insecure gRPC connection
	// OTelSampleRatio traces a fraction of builds; 0 traces all.
	OTelSampleRatio float64 `yaml:"otel_sample_ratio"`
}

// OTel converts the settings for observability.InitOTel.
func (o ObservabilityConfig) OTel() observability.OTelConfig {
	return observability.OTelConfig{
		Enabled:        o.OTelEnabled,
		Endpoint:       o.OTelEndpoint,
		ServiceName:    o.OTelServiceName,
		ServiceVersion: o.OTelServiceVersion,
		Insecure:       o.OTelInsecure,
		SampleRatio:    o.OTelSampleRatio,
	}
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		SiteDir:           "site",
		ContentDir:        "content",
		Navigation:        "navigation.yml",
		Assets:            []string{"css", "js", "media"},
		ExecutableArgs:    []string{"--yaml"},
		ExecutableTimeout: 2 * time.Minute,
		Locations: []LocationConfig{
			{Name: "framework", Paths: []string{"/"}},
		},
		Cache: CacheConfig{
			FragmentSize: 1024,
			RedisTTL:     24 * time.Hour,
		},
		Server: ServerConfig{
			Host:            "127.0.0.1",
			Port:            "8000",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			WatchDebounce:   250 * time.Millisecond,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: observability.FormatText,
		},
		Observability: ObservabilityConfig{
			MetricsEnabled:     true,
			OTelEndpoint:       "localhost:4317",
			OTelServiceName:    "moosedocs",
			OTelServiceVersion: "1.0.0",
			OTelInsecure:       true,
		},
	}
}

// Load reads a configuration file over the defaults, applies MOOSEDOCS_*
// environment overrides and validates the result. Relative directories are
// resolved against the file's directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.resolve(filepath.Dir(path))
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// LoadFromDir searches dir for a configuration file and falls back to the
// defaults rooted at dir.
func LoadFromDir(dir string) (*Config, error) {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}

	cfg := DefaultConfig()
	cfg.resolve(dir)
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) resolve(base string) {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(base, p)
	}
	c.SiteDir = abs(c.SiteDir)
	c.ContentDir = abs(c.ContentDir)
	c.Template = abs(c.Template)
	c.Navigation = abs(c.Navigation)
	if strings.ContainsRune(c.Executable, filepath.Separator) {
		c.Executable = abs(c.Executable)
	}
}

// applyEnv overrides file settings from the environment
func (c *Config) applyEnv() {
	c.SiteDir = getEnv("MOOSEDOCS_SITE_DIR", c.SiteDir)
	c.ContentDir = getEnv("MOOSEDOCS_CONTENT_DIR", c.ContentDir)
	c.Executable = getEnv("MOOSEDOCS_EXECUTABLE", c.Executable)
	c.ExecutableTimeout = getEnvDuration("MOOSEDOCS_EXECUTABLE_TIMEOUT", c.ExecutableTimeout)
	c.Threads = getEnvInt("MOOSEDOCS_THREADS", c.Threads)
	c.DisableThreads = getEnvBool("MOOSEDOCS_DISABLE_THREADS", c.DisableThreads)

	c.Cache.FragmentSize = getEnvInt("MOOSEDOCS_FRAGMENT_CACHE_SIZE", c.Cache.FragmentSize)
	c.Cache.RedisURL = getEnv("MOOSEDOCS_REDIS_URL", c.Cache.RedisURL)

	c.S3.Bucket = getEnv("MOOSEDOCS_S3_BUCKET", c.S3.Bucket)
	c.S3.Prefix = getEnv("MOOSEDOCS_S3_PREFIX", c.S3.Prefix)
	c.S3.Region = getEnv("MOOSEDOCS_S3_REGION", c.S3.Region)
	c.S3.Endpoint = getEnv("MOOSEDOCS_S3_ENDPOINT", c.S3.Endpoint)
	c.S3.UsePathStyle = getEnvBool("MOOSEDOCS_S3_USE_PATH_STYLE", c.S3.UsePathStyle)
	c.S3.AccessKey = getEnv("MOOSEDOCS_S3_ACCESS_KEY", c.S3.AccessKey)
	c.S3.SecretKey = getEnv("MOOSEDOCS_S3_SECRET_KEY", c.S3.SecretKey)

	c.Server.Host = getEnv("MOOSEDOCS_HOST", c.Server.Host)
	c.Server.Port = getEnv("MOOSEDOCS_PORT", c.Server.Port)

	c.Logging.Level = getEnv("MOOSEDOCS_LOG_LEVEL", c.Logging.Level)
	c.Logging.Format = getEnv("MOOSEDOCS_LOG_FORMAT", c.Logging.Format)

	c.Observability.MetricsEnabled = getEnvBool("MOOSEDOCS_METRICS_ENABLED", c.Observability.MetricsEnabled)
	c.Observability.OTelEnabled = getEnvBool("MOOSEDOCS_OTEL_ENABLED", c.Observability.OTelEnabled)
	c.Observability.OTelEndpoint = getEnv("MOOSEDOCS_OTEL_ENDPOINT", c.Observability.OTelEndpoint)
	c.Observability.OTelServiceName = getEnv("MOOSEDOCS_OTEL_SERVICE_NAME", c.Observability.OTelServiceName)
	c.Observability.OTelInsecure = getEnvBool("MOOSEDOCS_OTEL_INSECURE", c.Observability.OTelInsecure)
	c.Observability.OTelSampleRatio = getEnvFloat("MOOSEDOCS_OTEL_SAMPLE_RATIO", c.Observability.OTelSampleRatio)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.SiteDir == "" {
		return errors.New("site_dir is required")
	}
	if c.ContentDir == "" {
		return errors.New("content_dir is required")
	}
	if filepath.Clean(c.SiteDir) == filepath.Clean(c.ContentDir) {
		return errors.New("site_dir and content_dir must be different")
	}
	if c.Threads < 0 {
		return fmt.Errorf("threads must not be negative: %d", c.Threads)
	}
	if c.Cache.FragmentSize < 0 {
		return fmt.Errorf("cache.fragment_size must not be negative: %d", c.Cache.FragmentSize)
	}

	if len(c.Locations) == 0 {
		return errors.New("at least one location is required")
	}
	seen := make(map[string]bool, len(c.Locations))
	for i, loc := range c.Locations {
		if loc.Name == "" {
			return fmt.Errorf("location %d has no name", i)
		}
		if seen[loc.Name] {
			return fmt.Errorf("duplicate location %q", loc.Name)
		}
		seen[loc.Name] = true
		if len(loc.Paths) == 0 {
			return fmt.Errorf("location %q has no paths", loc.Name)
		}
	}

	if c.Server.Port == "" {
		return errors.New("server port is required")
	}

	// Validate OpenTelemetry config
	if r := c.Observability.OTelSampleRatio; r < 0 || r > 1 {
		return fmt.Errorf("otel_sample_ratio must be between 0 and 1: %v", r)
	}
	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return fmt.Errorf("OpenTelemetry service name is required when OTel is enabled")
		}
	}

	return nil
}

// LocationNames returns location names in configuration order.
func (c *Config) LocationNames() []string {
	names := make([]string, 0, len(c.Locations))
	for _, loc := range c.Locations {
		names = append(names, loc.Name)
	}
	return names
}

// Registries builds one registry per location, in configuration order, with
// the global hide list appended to each location's own.
func (c *Config) Registries(tree *syntax.Tree) (*syntax.Registries, error) {
	regs := make([]*syntax.Registry, 0, len(c.Locations))
	for _, loc := range c.Locations {
		reg, err := syntax.NewRegistry(loc.Name, tree, loc.Location(c.Hide))
		if err != nil {
			return nil, fmt.Errorf("location %q: %w", loc.Name, err)
		}
		regs = append(regs, reg)
	}
	return syntax.NewRegistries(regs...)
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvFloat returns an environment variable as float or a default
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
