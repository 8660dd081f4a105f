package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

// Environment is the deployment environment.
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Production  Environment = "production"
	Test        Environment = "test"
)

// Config is the complete configuration of the discovery graph client.
type Config struct {
	Environment Environment `yaml:"environment" validate:"required,oneof=development staging production test"`
	Database    Database    `yaml:"database"`
	Breaker     Breaker     `yaml:"breaker"`
	Logging     Logging     `yaml:"logging"`
	Metrics     Metrics     `yaml:"metrics"`
	Tracing     Tracing     `yaml:"tracing"`

	// LoadedFrom lists the sources applied, lowest priority first.
	LoadedFrom []string `yaml:"-"`
}

// Database holds the engine endpoint and unit-of-work settings.
type Database struct {
	Host               string        `yaml:"host" validate:"required"`
	Port               int           `yaml:"port" validate:"required,min=1,max=65535"`
	Name               string        `yaml:"name" validate:"required"`
	Username           string        `yaml:"username"`
	Password           string        `yaml:"password"`
	CertificatePath    string        `yaml:"certificate_path"`
	ServerNameOverride string        `yaml:"server_name_override"`
	CallTimeout        time.Duration `yaml:"call_timeout" validate:"min=0"`
	// Policy is rollback_on_error or always_commit.
	Policy      string `yaml:"policy" validate:"omitempty,oneof=rollback_on_error always_commit"`
	MaxRows     int    `yaml:"max_rows" validate:"min=1"`
	Parallelism int    `yaml:"parallelism" validate:"min=0"`
	Retry       Retry  `yaml:"retry"`
}

// Address is the host:port target of the engine.
func (d Database) Address() string {
	return net.JoinHostPort(d.Host, strconv.Itoa(d.Port))
}

// Retry is the transport retry policy. MaxAttempts below 2 disables retries.
type Retry struct {
	MaxAttempts          int           `yaml:"max_attempts" validate:"min=0,max=5"`
	InitialBackoff       time.Duration `yaml:"initial_backoff" validate:"min=0"`
	MaxBackoff           time.Duration `yaml:"max_backoff" validate:"gtefield=InitialBackoff"`
	BackoffMultiplier    float64       `yaml:"backoff_multiplier" validate:"gte=0"`
	RetryableStatusCodes []string      `yaml:"retryable_status_codes" validate:"dive,oneof=UNAVAILABLE DEADLINE_EXCEEDED RESOURCE_EXHAUSTED ABORTED INTERNAL UNKNOWN"`
}

// Breaker configures the circuit breaker around engine calls.
type Breaker struct {
	Enabled          bool          `yaml:"enabled"`
	MaxRequests      uint32        `yaml:"max_requests" validate:"required_if=Enabled true"`
	Interval         time.Duration `yaml:"interval" validate:"min=0"`
	Timeout          time.Duration `yaml:"timeout" validate:"min=0"`
	FailureThreshold float64       `yaml:"failure_threshold" validate:"gte=0,lte=1"`
	MinRequests      uint32        `yaml:"min_requests"`
}

// Logging configures the zap logger.
type Logging struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=json console"`
}

// Metrics configures the Prometheus collector.
type Metrics struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"`
}

// Tracing configures OpenTelemetry spans around engine calls.
type Tracing struct {
	Enabled     bool    `yaml:"enabled"`
	ServiceName string  `yaml:"service_name"`
	SampleRate  float64 `yaml:"sample_rate" validate:"gte=0,lte=1"`
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Validate checks struct tags and the cross-field rules that tags cannot express.
func (c *Config) Validate() error {
	validateOnce.Do(func() { validate = validator.New() })

	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed on %s", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if c.Breaker.Enabled && c.Breaker.FailureThreshold == 0 {
		return fmt.Errorf("%w: Config.Breaker.FailureThreshold must be positive when the breaker is enabled", ErrInvalidConfig)
	}
	return nil
}

// applyEnvironmentDefaults fills values whose default depends on the environment.
func (c *Config) applyEnvironmentDefaults() {
	if c.Logging.Format == "" {
		if c.Environment == Production || c.Environment == Staging {
			c.Logging.Format = "json"
		} else {
			c.Logging.Format = "console"
		}
	}
	if c.Logging.Level == "" {
		if c.Environment == Development {
			c.Logging.Level = "debug"
		} else {
			c.Logging.Level = "info"
		}
	}
}
