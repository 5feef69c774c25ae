// Package binder executes schema bind operations against the platform with
// bounded retry, per-schema timeouts, and full-pass semantics: one outcome per
// pair, and no pair's failure ever aborts the rest of the batch.
package binder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"

	"github.com/ncihtan/htan2-project-setup/matcher"
	"github.com/ncihtan/htan2-project-setup/synapse"
)

// Binder is the platform bind operation the executor depends on.
type Binder interface {
	BindSchema(ctx context.Context, entityID, schemaURI string, enableDerived bool) error
}

// Config controls executor behavior.
type Config struct {
	// Organization is the schema organization name used to build registered
	// schema URIs.
	Organization string

	// DefaultTimeout bounds a single bind attempt.
	DefaultTimeout time.Duration

	// ExtendedTimeout bounds bind attempts for schemas listed in
	// LargeSchemas. Large schemas can take the platform most of an hour.
	ExtendedTimeout time.Duration

	// LargeSchemas lists schema component names that need ExtendedTimeout.
	// Schema size is configuration, never inferred at runtime.
	LargeSchemas []string

	// Workers bounds the worker pool. The platform enforces per-account rate
	// ceilings, so this stays small; zero means sequential.
	Workers int

	// Retry is the retry policy for transient failures.
	Retry RetryConfig

	// EnableDerivedAnnotations is passed through on bind requests.
	EnableDerivedAnnotations bool
}

// DefaultConfig returns executor defaults.
func DefaultConfig(org string) Config {
	return Config{
		Organization:    org,
		DefaultTimeout:  10 * time.Minute,
		ExtendedTimeout: 30 * time.Minute,
		LargeSchemas:    []string{"scRNALevel3_4"},
		Workers:         2,
		Retry:           DefaultRetryConfig(),
	}
}

// Executor runs bind operations for matched pairs.
type Executor struct {
	binder  Binder
	cfg     Config
	clock   clock.Clock
	logger  *slog.Logger
	metrics *Metrics
	large   map[string]bool
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithClock injects a clock (tests use a mock to skip backoff waits).
func WithClock(c clock.Clock) ExecutorOption {
	return func(e *Executor) { e.clock = c }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ExecutorOption {
	return func(e *Executor) { e.logger = logger }
}

// WithMetrics attaches binding counters.
func WithMetrics(m *Metrics) ExecutorOption {
	return func(e *Executor) { e.metrics = m }
}

// NewExecutor creates an executor over the given platform binder.
func NewExecutor(binder Binder, cfg Config, opts ...ExecutorOption) *Executor {
	e := &Executor{
		binder: binder,
		cfg:    cfg,
		clock:  clock.New(),
		logger: slog.Default(),
		large:  make(map[string]bool, len(cfg.LargeSchemas)),
	}
	for _, name := range cfg.LargeSchemas {
		e.large[name] = true
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Outcome is the result of one executor pass.
type Outcome struct {
	// RunID identifies this pass in logs and reports.
	RunID    string
	Started  time.Time
	Finished time.Time
	// Bindings holds exactly one entry per processed pair, in input order.
	// When the run is cancelled between pairs, unprocessed pairs are absent.
	Bindings []Binding
}

// Counts returns the aggregate bound/failed/skipped totals.
func (o *Outcome) Counts() (bound, failed, skipped int) {
	for _, b := range o.Bindings {
		switch b.Status {
		case StatusBound:
			bound++
		case StatusFailed:
			failed++
		case StatusSkipped:
			skipped++
		}
	}
	return bound, failed, skipped
}

// Err aggregates the diagnostics of all failed bindings, or nil if none
// failed.
func (o *Outcome) Err() error {
	var result *multierror.Error
	for _, b := range o.Bindings {
		if b.Status == StatusFailed {
			result = multierror.Append(result, errors.New(b.Error))
		}
	}
	return result.ErrorOrNil()
}

// Execute runs one full pass over the matched pairs. Individual failures are
// captured in the outcome and never abort the batch; the returned error is
// non-nil only for run-level problems (bad filter, cancellation).
func (e *Executor) Execute(ctx context.Context, pairs []matcher.Pair, filter Filter) (*Outcome, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	outcome := &Outcome{
		RunID:   uuid.NewString(),
		Started: e.clock.Now(),
	}

	workers := e.cfg.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(pairs) && len(pairs) > 0 {
		workers = len(pairs)
	}

	e.logger.Info("Starting binding pass",
		slog.String("run_id", outcome.RunID),
		slog.Int("pairs", len(pairs)),
		slog.Int("workers", workers))

	results := make([]Binding, len(pairs))
	processed := make([]bool, len(pairs))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = e.executePair(ctx, pairs[i], filter)
				processed[i] = true
			}
		}()
	}

	var runErr error
dispatch:
	for i := range pairs {
		select {
		case <-ctx.Done():
			runErr = ctx.Err()
			break dispatch
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	for i, b := range results {
		if processed[i] {
			outcome.Bindings = append(outcome.Bindings, b)
		}
	}
	outcome.Finished = e.clock.Now()

	bound, failed, skipped := outcome.Counts()
	e.logger.Info("Binding pass complete",
		slog.String("run_id", outcome.RunID),
		slog.Int("bound", bound),
		slog.Int("failed", failed),
		slog.Int("skipped", skipped))

	return outcome, runErr
}

// executePair produces exactly one Binding for the pair.
func (e *Executor) executePair(ctx context.Context, pair matcher.Pair, filter Filter) Binding {
	b := Binding{
		Key:        pair.Ref.Key,
		FolderID:   pair.Ref.ID,
		SchemaName: pair.Schema.Component,
		SchemaFile: pair.Schema.FileName,
		Timestamp:  e.clock.Now(),
	}

	if skip, reason := filter.Skips(pair); skip {
		b.Status = StatusSkipped
		b.Error = reason
		e.metrics.observe(b)
		return b
	}

	if pair.Ref.ID == "" {
		b.Status = StatusFailed
		b.Error = fmt.Sprintf("%s: schema %s: folder has no platform identifier", pair.Ref.Key, pair.Schema.Component)
		e.metrics.observe(b)
		return b
	}

	b.SchemaURI = synapse.RegisteredSchemaURI(e.cfg.Organization, pair.Schema.Component, pair.Schema.Version)
	timeout := e.cfg.DefaultTimeout
	if e.large[pair.Schema.Component] {
		timeout = e.cfg.ExtendedTimeout
	}

	var lastErr error
attempts:
	for attempt := 1; attempt <= e.cfg.Retry.MaxAttempts; attempt++ {
		bindCtx, cancel := context.WithTimeout(ctx, timeout)
		err := e.binder.BindSchema(bindCtx, pair.Ref.ID, b.SchemaURI, e.cfg.EnableDerivedAnnotations)
		cancel()

		if err == nil {
			b.Status = StatusBound
			b.Timestamp = e.clock.Now()
			e.metrics.observe(b)
			e.logger.Info("Bound schema",
				slog.String("folder", pair.Ref.Key.String()),
				slog.String("schema", pair.Schema.Component))
			return b
		}
		lastErr = err

		if synapse.IsFatal(err) {
			break
		}

		if attempt < e.cfg.Retry.MaxAttempts {
			backoff := e.calculateBackoff(attempt)
			e.metrics.observeRetry()
			e.logger.Warn("Bind failed, retrying",
				slog.String("folder", pair.Ref.Key.String()),
				slog.String("schema", pair.Schema.Component),
				slog.Int("attempt", attempt),
				slog.Duration("backoff", backoff),
				slog.String("error", err.Error()))

			select {
			case <-ctx.Done():
				lastErr = ctx.Err()
				break attempts
			case <-e.clock.After(backoff):
			}
		}
	}

	b.Status = StatusFailed
	b.Error = fmt.Sprintf("%s: schema %s: %v", pair.Ref.Key, pair.Schema.Component, lastErr)
	b.Timestamp = e.clock.Now()
	e.metrics.observe(b)
	e.logger.Error("Bind failed",
		slog.String("folder", pair.Ref.Key.String()),
		slog.String("schema", pair.Schema.Component),
		slog.String("error", b.Error))
	return b
}

// calculateBackoff computes exponential backoff duration with jitter.
// Jitter prevents synchronized retries against the rate-limited platform.
func (e *Executor) calculateBackoff(attempt int) time.Duration {
	multiplier := 1.0
	for i := 1; i < attempt; i++ {
		multiplier *= e.cfg.Retry.BackoffMultiplier
	}

	backoff := time.Duration(float64(e.cfg.Retry.BackoffBase) * multiplier)
	if backoff > e.cfg.Retry.MaxBackoff {
		backoff = e.cfg.Retry.MaxBackoff
	}

	jitter := float64(backoff) * 0.25 * (rand.Float64()*2 - 1)
	return backoff + time.Duration(jitter)
}
