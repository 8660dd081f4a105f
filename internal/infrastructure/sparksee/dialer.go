package sparksee

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/ArystanIgen/master-thesis-files/internal/graphdb"
)

// RetryPolicy is the transport-level retry applied by gRPC to every engine call.
type RetryPolicy struct {
	MaxAttempts          int
	InitialBackoff       time.Duration
	MaxBackoff           time.Duration
	BackoffMultiplier    float64
	RetryableStatusCodes []string
}

// DefaultRetryPolicy retries UNAVAILABLE up to five times with exponential backoff.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:          5,
		InitialBackoff:       100 * time.Millisecond,
		MaxBackoff:           time.Second,
		BackoffMultiplier:    2,
		RetryableStatusCodes: []string{"UNAVAILABLE"},
	}
}

// Options configures a Dialer.
type Options struct {
	// Address is a gRPC target, usually host:port.
	Address string
	// CertificatePath enables TLS with the given CA bundle when set.
	CertificatePath string
	// ServerNameOverride is used for TLS verification when set.
	ServerNameOverride string
	// CallTimeout bounds every RPC. Zero means no deadline beyond the caller's.
	CallTimeout time.Duration
	Retry       RetryPolicy
	// DialOptions are appended after the options built from the fields above.
	DialOptions []grpc.DialOption
}

// Dialer opens engine connections. It implements graphdb.Connector.
type Dialer struct {
	opts    Options
	breaker *Breaker
	logger  *zap.Logger
}

// NewDialer creates a dialer. breaker may be nil.
func NewDialer(opts Options, breaker *Breaker, logger *zap.Logger) *Dialer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dialer{opts: opts, breaker: breaker, logger: logger.Named("sparksee_dialer")}
}

// Connect opens a new connection. grpc.NewClient does not perform I/O, so
// an unreachable engine is reported by the first call on the returned engine.
func (d *Dialer) Connect(ctx context.Context) (graphdb.Engine, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dialOpts, err := d.dialOptions()
	if err != nil {
		return nil, err
	}

	conn, err := grpc.NewClient(d.opts.Address, dialOpts...)
	if err != nil {
		d.logger.Error("Failed to create gRPC channel", zap.String("address", d.opts.Address), zap.Error(err))
		return nil, fmt.Errorf("sparksee: create channel to %s: %w", d.opts.Address, err)
	}
	d.logger.Debug("gRPC channel created", zap.String("address", d.opts.Address))

	return NewClient(conn, d.opts.CallTimeout, d.breaker, d.logger), nil
}

func (d *Dialer) dialOptions() ([]grpc.DialOption, error) {
	creds, err := d.transportCredentials()
	if err != nil {
		return nil, err
	}
	serviceConfig, err := ServiceConfig(d.opts.Retry)
	if err != nil {
		return nil, err
	}

	opts := []grpc.DialOption{
		grpc.WithTransportCredentials(creds),
		grpc.WithDefaultServiceConfig(serviceConfig),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(Codec{})),
	}
	return append(opts, d.opts.DialOptions...), nil
}

func (d *Dialer) transportCredentials() (credentials.TransportCredentials, error) {
	if d.opts.CertificatePath == "" {
		return insecure.NewCredentials(), nil
	}
	creds, err := credentials.NewClientTLSFromFile(d.opts.CertificatePath, d.opts.ServerNameOverride)
	if err != nil {
		return nil, fmt.Errorf("sparksee: load certificate %s: %w", d.opts.CertificatePath, err)
	}
	return creds, nil
}

type serviceConfigJSON struct {
	MethodConfig []methodConfigJSON `json:"methodConfig"`
}

type methodConfigJSON struct {
	Name        []map[string]string `json:"name"`
	RetryPolicy *retryPolicyJSON    `json:"retryPolicy,omitempty"`
}

type retryPolicyJSON struct {
	MaxAttempts          int      `json:"maxAttempts"`
	InitialBackoff       string   `json:"initialBackoff"`
	MaxBackoff           string   `json:"maxBackoff"`
	BackoffMultiplier    float64  `json:"backoffMultiplier"`
	RetryableStatusCodes []string `json:"retryableStatusCodes"`
}

// ServiceConfig renders the gRPC service config carrying the retry policy. It
// applies to every method of every service on the channel. A policy with fewer
// than two attempts disables retries.
func ServiceConfig(p RetryPolicy) (string, error) {
	mc := methodConfigJSON{Name: []map[string]string{{}}}
	if p.MaxAttempts >= 2 {
		mc.RetryPolicy = &retryPolicyJSON{
			MaxAttempts:          p.MaxAttempts,
			InitialBackoff:       seconds(p.InitialBackoff),
			MaxBackoff:           seconds(p.MaxBackoff),
			BackoffMultiplier:    p.BackoffMultiplier,
			RetryableStatusCodes: p.RetryableStatusCodes,
		}
	}
	b, err := json.Marshal(serviceConfigJSON{MethodConfig: []methodConfigJSON{mc}})
	if err != nil {
		return "", fmt.Errorf("sparksee: render service config: %w", err)
	}
	return string(b), nil
}

// seconds renders a duration the way the service config expects it, e.g. "0.1s".
func seconds(d time.Duration) string {
	return fmt.Sprintf("%gs", d.Seconds())
}

var _ graphdb.Connector = (*Dialer)(nil)
