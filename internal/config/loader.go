package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Loader handles loading configuration from multiple sources.
type Loader struct {
	// basePath is the directory holding the configuration files
	basePath string

	environment Environment

	// sources tracks where configuration was loaded from
	sources []string

	fileLoaders []FileLoader

	// lookupEnv reads environment variables; replaced in tests.
	lookupEnv func(string) (string, bool)
}

// FileLoader decodes one configuration file format.
type FileLoader interface {
	Load(reader io.Reader, target any) error
	Extensions() []string
}

// NewLoader creates a configuration loader reading files from basePath.
func NewLoader(basePath string, env Environment) *Loader {
	if basePath == "" {
		basePath = "config"
	}
	if env == "" {
		env = Development
	}
	return &Loader{
		basePath:    basePath,
		environment: env,
		fileLoaders: []FileLoader{YAMLLoader{}},
		lookupEnv:   os.LookupEnv,
	}
}

// BasePath returns the directory configuration files are read from.
func (l *Loader) BasePath() string { return l.basePath }

// Load builds the configuration. Sources, lowest priority first:
//  1. defaults in code
//  2. base.yaml
//  3. <environment>.yaml
//  4. local.yaml, development only
//  5. environment variables
func (l *Loader) Load() (*Config, error) {
	l.sources = l.sources[:0]

	cfg := l.defaultConfig()
	l.sources = append(l.sources, "defaults")

	if err := l.loadFile("base", cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load base config: %w", err)
	}

	envFile := strings.ToLower(string(l.environment))
	if err := l.loadFile(envFile, cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s config: %w", envFile, err)
	}

	if l.environment == Development {
		if err := l.loadFile("local", cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load local config: %w", err)
		}
	}

	if err := l.loadEnvironmentVariables(cfg); err != nil {
		return nil, err
	}
	l.sources = append(l.sources, "environment")

	// The environment chosen by the caller wins over any file.
	cfg.Environment = l.environment
	cfg.LoadedFrom = append([]string(nil), l.sources...)
	cfg.applyEnvironmentDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// loadFile decodes the first existing file named name with a supported extension.
func (l *Loader) loadFile(name string, cfg *Config) error {
	for _, loader := range l.fileLoaders {
		for _, ext := range loader.Extensions() {
			path := filepath.Join(l.basePath, name+"."+ext)
			err := l.decodeFile(path, loader, cfg)
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			if err != nil {
				return err
			}
			l.sources = append(l.sources, path)
			return nil
		}
	}
	return fs.ErrNotExist
}

func (l *Loader) decodeFile(path string, loader FileLoader, cfg *Config) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := loader.Load(file, cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// loadEnvironmentVariables overlays environment variables on the configuration.
func (l *Loader) loadEnvironmentVariables(cfg *Config) error {
	env := envReader{lookup: l.lookupEnv}

	env.str("DB_HOST", &cfg.Database.Host)
	env.integer("DB_PORT", &cfg.Database.Port)
	env.str("DB_NAME", &cfg.Database.Name)
	env.str("DB_USERNAME", &cfg.Database.Username)
	env.str("DB_PASSWORD", &cfg.Database.Password)
	env.str("DB_CERTIFICATE_PATH", &cfg.Database.CertificatePath)
	env.duration("DB_CALL_TIMEOUT", &cfg.Database.CallTimeout)
	env.str("DB_POLICY", &cfg.Database.Policy)
	env.integer("DB_MAX_ROWS", &cfg.Database.MaxRows)

	env.str("LOG_LEVEL", &cfg.Logging.Level)
	env.str("LOG_FORMAT", &cfg.Logging.Format)

	var monitoring bool
	if env.boolean("USE_MONITORING", &monitoring) {
		cfg.Metrics.Enabled = monitoring
		cfg.Tracing.Enabled = monitoring
	}
	env.str("OTEL_SERVICE_NAME", &cfg.Tracing.ServiceName)

	return env.err
}

// envReader collects the first parse error so callers can overlay many
// variables and check once.
type envReader struct {
	lookup func(string) (string, bool)
	err    error
}

func (r *envReader) get(key string) (string, bool) {
	val, ok := r.lookup(key)
	if !ok || val == "" {
		return "", false
	}
	return val, true
}

func (r *envReader) fail(key string, err error) {
	if r.err == nil {
		r.err = fmt.Errorf("environment variable %s: %w", key, err)
	}
}

func (r *envReader) str(key string, target *string) {
	if val, ok := r.get(key); ok {
		*target = val
	}
}

func (r *envReader) integer(key string, target *int) {
	if val, ok := r.get(key); ok {
		n, err := strconv.Atoi(val)
		if err != nil {
			r.fail(key, err)
			return
		}
		*target = n
	}
}

func (r *envReader) duration(key string, target *time.Duration) {
	if val, ok := r.get(key); ok {
		d, err := time.ParseDuration(val)
		if err != nil {
			r.fail(key, err)
			return
		}
		*target = d
	}
}

func (r *envReader) boolean(key string, target *bool) bool {
	val, ok := r.get(key)
	if !ok {
		return false
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		r.fail(key, err)
		return false
	}
	*target = b
	return true
}

// defaultConfig returns a configuration the client can run with against a
// local engine.
func (l *Loader) defaultConfig() *Config {
	return &Config{
		Environment: l.environment,
		Database: Database{
			Host:    "localhost",
			Port:    50051,
			Name:    "Sign-Air-Discovery",
			MaxRows: 10,
			Policy:  "rollback_on_error",
			Retry: Retry{
				MaxAttempts:          5,
				InitialBackoff:       100 * time.Millisecond,
				MaxBackoff:           time.Second,
				BackoffMultiplier:    2,
				RetryableStatusCodes: []string{"UNAVAILABLE"},
			},
		},
		Breaker: Breaker{
			Enabled:          true,
			MaxRequests:      5,
			Interval:         30 * time.Second,
			Timeout:          60 * time.Second,
			FailureThreshold: 0.8,
			MinRequests:      5,
		},
		Metrics: Metrics{
			Namespace: "discovery",
		},
		Tracing: Tracing{
			ServiceName: "sign-air-discovery",
		},
	}
}

// YAMLLoader loads configuration from YAML files.
type YAMLLoader struct{}

func (YAMLLoader) Load(reader io.Reader, target any) error {
	return yaml.NewDecoder(reader).Decode(target)
}

func (YAMLLoader) Extensions() []string {
	return []string{"yaml", "yml"}
}

// GetEnvironment reads the deployment environment from ENV, defaulting to
// development.
func GetEnvironment() Environment {
	switch env := Environment(strings.ToLower(os.Getenv("ENV"))); env {
	case Development, Staging, Production, Test:
		return env
	default:
		return Development
	}
}

// LoadFrom loads configuration from dir for the environment named by ENV.
func LoadFrom(dir string) (*Config, error) {
	return NewLoader(dir, GetEnvironment()).Load()
}
