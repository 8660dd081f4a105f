package graphdb

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ResolvePolicy decides how a unit of work ends when the caller's block failed.
type ResolvePolicy int

const (
	// RollbackOnError commits on success and rolls back on error or panic.
	RollbackOnError ResolvePolicy = iota
	// AlwaysCommit commits on every exit path. The caller's error is still returned.
	// This mirrors the legacy behavior of the discovery service and is kept for
	// callers that depend on partial writes surviving a failed request.
	AlwaysCommit
)

func (p ResolvePolicy) String() string {
	if p == AlwaysCommit {
		return "always_commit"
	}
	return "rollback_on_error"
}

// ParsePolicy maps a configuration string to a ResolvePolicy.
func ParsePolicy(s string) (ResolvePolicy, error) {
	switch s {
	case "", "rollback_on_error":
		return RollbackOnError, nil
	case "always_commit":
		return AlwaysCommit, nil
	default:
		return RollbackOnError, fmt.Errorf("graphdb: unknown resolve policy %q", s)
	}
}

// Outcome is how a unit of work was resolved.
type Outcome string

const (
	OutcomeCommitted  Outcome = "committed"
	OutcomeRolledBack Outcome = "rolled_back"
	OutcomeFailed     Outcome = "failed"
)

// UnitOfWorkObserver receives one notification per resolved or failed unit of work.
type UnitOfWorkObserver interface {
	ObserveUnitOfWork(outcome Outcome, elapsed time.Duration)
}

type connectorBox struct{ Connector }

// DefaultResolveTimeout bounds the commit or rollback and the session end issued
// when a unit of work is closed.
const DefaultResolveTimeout = 10 * time.Second

// Factory opens units of work. It is safe for concurrent use; every unit of work
// gets its own channel and session.
type Factory struct {
	connector   atomic.Pointer[connectorBox]
	logger      *zap.Logger
	policy      ResolvePolicy
	observer    UnitOfWorkObserver
	parallelism int

	resolveTimeout time.Duration
}

// FactoryOption configures a Factory.
type FactoryOption func(*Factory)

// WithLogger sets the logger handed to every session manager.
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *Factory) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithPolicy sets the resolve policy.
func WithPolicy(policy ResolvePolicy) FactoryOption {
	return func(f *Factory) { f.policy = policy }
}

// WithObserver registers an observer for unit-of-work outcomes.
func WithObserver(observer UnitOfWorkObserver) FactoryOption {
	return func(f *Factory) { f.observer = observer }
}

// WithParallelism bounds RunParallel. Zero or less means unbounded.
func WithParallelism(n int) FactoryOption {
	return func(f *Factory) { f.parallelism = n }
}

// WithResolveTimeout bounds the calls made while closing a unit of work. Zero or
// less keeps DefaultResolveTimeout.
func WithResolveTimeout(d time.Duration) FactoryOption {
	return func(f *Factory) {
		if d > 0 {
			f.resolveTimeout = d
		}
	}
}

// NewFactory creates a unit-of-work factory.
func NewFactory(connector Connector, opts ...FactoryOption) *Factory {
	f := &Factory{
		logger:         zap.NewNop(),
		policy:         RollbackOnError,
		resolveTimeout: DefaultResolveTimeout,
	}
	for _, opt := range opts {
		opt(f)
	}
	f.connector.Store(&connectorBox{connector})
	return f
}

// SetConnector swaps the connector used by units of work opened from now on.
// Units of work already in flight keep their channel.
func (f *Factory) SetConnector(connector Connector) {
	f.connector.Store(&connectorBox{connector})
	f.logger.Info("Graph connector replaced")
}

// Policy returns the configured resolve policy.
func (f *Factory) Policy() ResolvePolicy { return f.policy }

// Begin creates a session and starts a transaction. The returned unit of work must
// be closed exactly once with Close, usually in a defer.
func (f *Factory) Begin(ctx context.Context) (*UnitOfWork, error) {
	start := time.Now()
	id := uuid.NewString()
	logger := f.logger.With(zap.String("unit_of_work_id", id))

	sm := NewSessionManager(f.connector.Load().Connector, logger)
	if err := sm.Create(ctx); err != nil {
		f.observe(OutcomeFailed, start)
		return nil, err
	}
	if err := sm.Begin(ctx); err != nil {
		if cerr := sm.Close(ctx); cerr != nil {
			logger.Warn("Failed to close session after begin error", zap.Error(cerr))
		}
		f.observe(OutcomeFailed, start)
		return nil, err
	}

	return &UnitOfWork{
		id:      id,
		sm:      sm,
		factory: f,
		logger:  logger,
		started: start,
	}, nil
}

// Run opens a unit of work, runs fn inside it and resolves it on every exit path.
// A panic in fn resolves the unit of work like an error and is then re-raised.
func (f *Factory) Run(ctx context.Context, fn func(ctx context.Context, sm *SessionManager) error) (err error) {
	uow, err := f.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			perr := fmt.Errorf("graphdb: unit of work panicked: %v", r)
			uow.Close(ctx, &perr)
			panic(r)
		}
		uow.Close(ctx, &err)
	}()

	return fn(ctx, uow.Session())
}

// RunParallel runs every fn in its own unit of work concurrently. The first error
// cancels the context passed to the remaining functions and is returned.
func (f *Factory) RunParallel(ctx context.Context, fns ...func(ctx context.Context, sm *SessionManager) error) error {
	g, gctx := errgroup.WithContext(ctx)
	if f.parallelism > 0 {
		g.SetLimit(f.parallelism)
	}
	for _, fn := range fns {
		g.Go(func() error {
			return f.Run(gctx, fn)
		})
	}
	return g.Wait()
}

func (f *Factory) observe(outcome Outcome, start time.Time) {
	if f.observer != nil {
		f.observer.ObserveUnitOfWork(outcome, time.Since(start))
	}
}

// UnitOfWork is one session bound to exactly one transaction.
type UnitOfWork struct {
	id      string
	sm      *SessionManager
	factory *Factory
	logger  *zap.Logger
	started time.Time

	once    sync.Once
	outcome Outcome
}

// ID returns the operation id attached to this unit of work's log lines.
func (u *UnitOfWork) ID() string { return u.id }

// Session returns the session manager bound to the active transaction.
func (u *UnitOfWork) Session() *SessionManager { return u.sm }

// Outcome returns how the unit of work was resolved, or "" while it is open.
func (u *UnitOfWork) Outcome() Outcome { return u.outcome }

// Close resolves the transaction and releases the session. errp points at the
// caller's error; nil or a nil error means the block succeeded. When the block
// succeeded but the commit failed, the commit error is stored through errp.
// Cancellation of ctx is ignored; the resolve calls are bounded by the factory's
// resolve timeout instead. Only the first call has an effect.
func (u *UnitOfWork) Close(ctx context.Context, errp *error) {
	u.once.Do(func() {
		var blockErr error
		if errp != nil {
			blockErr = *errp
		}

		// The transaction is resolved even when the caller's context is done.
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), u.factory.resolveTimeout)
		defer cancel()

		resolveErr := u.resolve(ctx, blockErr)

		if err := u.sm.Close(ctx); err != nil {
			u.logger.Warn("Failed to release graph channel", zap.Error(err))
		}
		u.factory.observe(u.outcome, u.started)

		if errp != nil && *errp == nil && resolveErr != nil {
			*errp = resolveErr
		}
	})
}

func (u *UnitOfWork) resolve(ctx context.Context, blockErr error) error {
	if blockErr != nil && u.factory.policy == RollbackOnError {
		u.logger.Debug("Rolling back unit of work", zap.Error(blockErr))
		u.sm.Rollback(ctx)
		u.outcome = OutcomeRolledBack
		return nil
	}
	if blockErr != nil {
		u.logger.Warn("Committing unit of work despite error", zap.Error(blockErr))
	}

	if err := u.sm.Commit(ctx); err != nil {
		u.outcome = OutcomeFailed
		return err
	}
	u.outcome = OutcomeCommitted
	return nil
}
