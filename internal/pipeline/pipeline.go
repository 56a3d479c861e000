// Package pipeline runs every tenant-scoped write through the same sequence:
// ownership guard, payload validation, media reconciliation, persistence.
//
// Entity services describe a write as a Mutation and hand it to Execute. The
// only thing that differs between update-like and delete-like writes is the
// reconciliation Policy applied when the media store cannot remove every
// previously stored object.
package pipeline

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/georgemunganga/storefront-backend/internal/media"
	"github.com/georgemunganga/storefront-backend/internal/modules/auth"
	"github.com/georgemunganga/storefront-backend/internal/pkg/apperr"
	"github.com/georgemunganga/storefront-backend/internal/pkg/metrics"
)

const tracerName = "github.com/georgemunganga/storefront-backend/internal/pipeline"

// Policy decides what a failed media cleanup means for the mutation.
type Policy int

const (
	// BestEffort logs the failure, counts the orphaned references and lets
	// the write proceed. Used by updates: the parent row survives either way.
	BestEffort Policy = iota + 1
	// MustSucceed aborts the mutation with an external store failure. Used by
	// deletes, which cannot be undone once the rows are gone.
	MustSucceed
)

func (p Policy) String() string {
	switch p {
	case BestEffort:
		return "best_effort"
	case MustSucceed:
		return "must_succeed"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// Guard authorizes a caller to mutate a store.
type Guard interface {
	AuthorizeMutation(ctx context.Context, caller auth.CallerID, storeID string) error
}

// Validator is implemented by every mutation payload.
type Validator interface {
	Validate() error
}

// Invalidator is notified after a store's data changed.
type Invalidator interface {
	Invalidate(ctx context.Context, storeID string)
}

// Mutation describes one write against an entity owned by StoreID.
type Mutation[T any] struct {
	// Op names the operation in logs, metrics and traces, e.g. "product.update".
	Op      string
	Caller  auth.CallerID
	StoreID string
	// Payload is validated after the guard passes. Nil for deletes.
	Payload Validator
	// Check reports conflicts that Apply would hit, such as rows that still
	// reference the entity. It runs before any media is deleted.
	Check func(ctx context.Context) error
	// CurrentMedia loads the external references currently held by the
	// entity. Nil when there is nothing to reconcile, as on create.
	CurrentMedia func(ctx context.Context) ([]string, error)
	// Policy applies when CurrentMedia is set. The zero value behaves as MustSucceed.
	Policy Policy
	// Apply persists the change as one atomic unit and returns the result.
	Apply func(ctx context.Context) (T, error)
}

// Pipeline holds the collaborators shared by every mutation. It keeps no
// per-request state.
type Pipeline struct {
	guard       Guard
	media       media.Store
	log         *zap.Logger
	metrics     *metrics.Metrics
	invalidator Invalidator
	tracer      trace.Tracer
}

type Option func(*Pipeline)

func WithMetrics(m *metrics.Metrics) Option { return func(p *Pipeline) { p.metrics = m } }

func WithInvalidator(inv Invalidator) Option { return func(p *Pipeline) { p.invalidator = inv } }

func New(guard Guard, store media.Store, log *zap.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		guard:  guard,
		media:  store,
		log:    log,
		tracer: otel.Tracer(tracerName),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Execute runs m. Authentication and authorization failures are reported
// before validation, referential conflicts before any media is deleted, and
// no step runs after the first failure.
func Execute[T any](ctx context.Context, p *Pipeline, m Mutation[T]) (out T, err error) {
	ctx, span := p.tracer.Start(ctx, m.Op, trace.WithAttributes(attribute.String("store.id", m.StoreID)))
	defer func() {
		p.observe(m.Op, err)
		if err != nil {
			span.SetStatus(codes.Error, apperr.CodeOf(err))
		}
		span.End()
	}()

	var zero T
	if err := p.guard.AuthorizeMutation(ctx, m.Caller, m.StoreID); err != nil {
		return zero, err
	}
	if m.Payload != nil {
		if err := m.Payload.Validate(); err != nil {
			return zero, err
		}
	}

	if m.Check != nil {
		if err := m.Check(ctx); err != nil {
			return zero, apperr.Wrap(m.Op, err)
		}
	}

	if m.CurrentMedia != nil {
		refs, err := m.CurrentMedia(ctx)
		if err != nil {
			return zero, apperr.Wrap(m.Op, err)
		}
		if err := p.reconcile(ctx, m.Op, refs, m.Policy); err != nil {
			return zero, err
		}
	}

	out, err = m.Apply(ctx)
	if err != nil {
		return zero, apperr.Wrap(m.Op, err)
	}
	if p.invalidator != nil {
		p.invalidator.Invalidate(ctx, m.StoreID)
	}
	return out, nil
}

// reconcile asks the media store to drop refs in one batch call and applies policy.
func (p *Pipeline) reconcile(ctx context.Context, op string, refs []string, policy Policy) error {
	if len(refs) == 0 {
		return nil
	}
	res := p.media.DeleteMany(ctx, refs)
	trace.SpanFromContext(ctx).SetAttributes(
		attribute.Int("media.requested", len(refs)),
		attribute.Int("media.deleted", res.Deleted),
		attribute.Int("media.failed", len(res.Failed)),
	)
	if res.OK() {
		return nil
	}

	if p.metrics != nil {
		p.metrics.MediaDeleteFailures.WithLabelValues(op, policy.String()).Inc()
	}
	fields := []zap.Field{
		zap.String("op", op),
		zap.String("policy", policy.String()),
		zap.Int("deleted", res.Deleted),
		zap.Strings("failed_refs", res.Failed),
		zap.Error(res.Err),
	}

	if policy == BestEffort {
		if p.metrics != nil {
			p.metrics.OrphanedMediaRefs.WithLabelValues(op).Add(float64(len(res.Failed)))
		}
		p.log.Warn("media cleanup failed, continuing with write", fields...)
		return nil
	}

	p.log.Error("media cleanup failed, aborting mutation", fields...)
	return apperr.ExternalStore(op, fmt.Errorf("%d of %d media references not deleted", len(res.Failed), len(refs)))
}

func (p *Pipeline) observe(op string, err error) {
	if p.metrics == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = apperr.CodeOf(err)
	}
	p.metrics.Mutations.WithLabelValues(op, outcome).Inc()
}
