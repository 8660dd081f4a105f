package sparksee

import (
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// BreakerSettings holds configuration for the engine circuit breaker.
type BreakerSettings struct {
	Name        string
	MaxRequests uint32        // Requests allowed through while half-open
	Interval    time.Duration // Cyclic period of the closed state for clearing counts
	Timeout     time.Duration // Period of the open state before trying half-open
	// FailureThreshold is the failure ratio that trips the breaker once
	// MinRequests requests have been counted.
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultBreakerSettings returns a default configuration for the breaker.
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		Name:             "sparksee",
		MaxRequests:      5,
		Interval:         30 * time.Second,
		Timeout:          60 * time.Second,
		FailureThreshold: 0.8,
		MinRequests:      5,
	}
}

// ErrBreakerOpen is returned instead of calling the engine while the breaker
// rejects requests.
var ErrBreakerOpen = errors.New("sparksee: circuit breaker is open")

// Breaker guards engine calls. It is shared by every connection opened from one
// Dialer so that a dead engine is detected across units of work.
type Breaker struct {
	cb     *gobreaker.CircuitBreaker
	logger *zap.Logger
}

// NewBreaker creates a breaker from settings.
func NewBreaker(settings BreakerSettings, logger *zap.Logger) *Breaker {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("breaker")

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        settings.Name,
		MaxRequests: settings.MaxRequests,
		Interval:    settings.Interval,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < settings.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= settings.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("name", name),
				zap.Stringer("from", from),
				zap.Stringer("to", to),
			)
		},
		IsSuccessful: isTransportHealthy,
	})

	return &Breaker{cb: cb, logger: logger}
}

// Do runs call through the breaker.
func (b *Breaker) Do(call func() error) error {
	_, err := b.cb.Execute(func() (any, error) {
		return nil, call()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return &openError{cause: err}
	}
	return err
}

// openError matches ErrBreakerOpen and reports codes.Unavailable to status.Code.
type openError struct {
	cause error
}

func (e *openError) Error() string { return ErrBreakerOpen.Error() + ": " + e.cause.Error() }

func (e *openError) Unwrap() []error { return []error{ErrBreakerOpen, e.cause} }

func (e *openError) GRPCStatus() *status.Status {
	return status.New(codes.Unavailable, e.Error())
}

// State returns the current breaker state name.
func (b *Breaker) State() string {
	return b.cb.State().String()
}

// isTransportHealthy counts only failures that say something about the engine's
// availability. A rejected statement is the caller's problem, not the engine's.
func isTransportHealthy(err error) bool {
	if err == nil {
		return true
	}
	switch status.Code(err) {
	case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted, codes.Internal, codes.Unknown:
		return false
	}
	return true
}
