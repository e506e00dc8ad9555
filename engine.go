package orgkit

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Engine answers "may this principal perform this operation in their active
// organization?". It holds no mutable state shared between calls; every
// Authorize is a fresh read pipeline over the store.
type Engine struct {
	registry *Registry
	store    MembershipStore
	resolver ActiveContextResolver
	audit    AuditSink
	logger   zerolog.Logger
	now      func() time.Time

	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
	tracer         trace.Tracer
	monitor        *decisionMonitor
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithAuditSink sets where decision records are delivered.
func WithAuditSink(sink AuditSink) EngineOption {
	return func(e *Engine) {
		e.audit = sink
	}
}

// WithLogger sets the engine logger.
func WithLogger(logger zerolog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithTracerProvider sets the OpenTelemetry tracer provider. Defaults to the global one.
func WithTracerProvider(tp trace.TracerProvider) EngineOption {
	return func(e *Engine) {
		e.tracerProvider = tp
	}
}

// WithMeterProvider sets the OpenTelemetry meter provider. Defaults to the global one.
func WithMeterProvider(mp metric.MeterProvider) EngineOption {
	return func(e *Engine) {
		e.meterProvider = mp
	}
}

// WithClock overrides the time source used for audit timestamps and durations.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine creates an Engine. The registry is sealed here; a registry with
// configuration errors is rejected so that startup fails.
//
// Example:
//
//	registry, err := orgkit.LoadRegistryFile("policies.yaml")
//	store := orgkit.NewStore(db)
//	engine, err := orgkit.NewEngine(registry, store, orgkit.NewLoadingResolver(store),
//	    orgkit.WithAuditSink(store),
//	    orgkit.WithLogger(log.Logger),
//	)
func NewEngine(registry *Registry, store MembershipStore, resolver ActiveContextResolver, opts ...EngineOption) (*Engine, error) {
	if registry == nil {
		return nil, NewError(ErrInvalidRequirement, "registry is required")
	}
	if store == nil {
		return nil, errors.New("orgkit: membership store is required")
	}
	if err := registry.Seal(); err != nil {
		return nil, err
	}
	if resolver == nil {
		resolver = PrincipalResolver{}
	}

	e := &Engine{
		registry: registry,
		store:    store,
		resolver: resolver,
		logger:   zerolog.Nop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.tracerProvider == nil {
		e.tracerProvider = otel.GetTracerProvider()
	}
	if e.meterProvider == nil {
		e.meterProvider = otel.GetMeterProvider()
	}
	e.tracer = e.tracerProvider.Tracer(instrumentationName)
	e.monitor = newDecisionMonitor(e.meterProvider)

	return e, nil
}

// Registry returns the sealed registry the engine evaluates against.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Authorize checks whether principal may perform the operation guarded by the
// named requirement in the principal's active organization.
//
// Denials are returned as Decision values with a nil error. The error is
// non-nil only when ctx was cancelled (the Decision is then the zero value and
// must not be used) or when the requirement is not registered (the Decision
// is a Deny with ReasonUnknownRequirement).
//
// Store failures never produce an Allow: they yield a Deny with
// ReasonStoreUnavailable and the underlying error in Decision.Cause.
func (e *Engine) Authorize(ctx context.Context, principal *Principal, requirement string) (Decision, error) {
	start := e.now()
	ctx, span := e.tracer.Start(ctx, "orgkit.Authorize",
		trace.WithAttributes(attribute.String("orgkit.requirement", requirement)))
	defer span.End()

	d, err := e.decide(ctx, principal, requirement)
	if d.Outcome == "" {
		span.RecordError(err)
		span.SetStatus(codes.Error, "authorization aborted")
		e.logger.Debug().Err(err).Str("requirement", requirement).Msg("Authorization aborted")
		return Decision{}, err
	}

	span.SetAttributes(
		attribute.String("orgkit.outcome", string(d.Outcome)),
		attribute.String("orgkit.reason", string(d.Reason)),
		attribute.String("orgkit.organization_id", d.OrganizationID),
	)
	if d.Cause != nil {
		span.RecordError(d.Cause)
		span.SetStatus(codes.Error, string(d.Reason))
	}

	e.monitor.recordDecision(ctx, d, e.now().Sub(start))
	e.record(ctx, principal, d)
	e.log(principal, d, err)
	return d, err
}

// Allowed is a convenience wrapper that reports only whether the operation is permitted.
func (e *Engine) Allowed(ctx context.Context, principal *Principal, requirement string) bool {
	d, err := e.Authorize(ctx, principal, requirement)
	return err == nil && d.Allowed()
}

func (e *Engine) decide(ctx context.Context, principal *Principal, name string) (Decision, error) {
	if err := ctx.Err(); err != nil {
		return Decision{}, err
	}

	if !principal.IsAuthenticated() {
		d := denied(ReasonUnauthenticated)
		d.Requirement = name
		return d, nil
	}

	req, err := e.registry.Get(name)
	if err != nil {
		d := denied(ReasonUnknownRequirement)
		d.Requirement = name
		return d, err
	}

	orgID, err := e.resolver.ResolveActiveOrganization(ctx, principal)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Decision{}, ctxErr
		}
		d := denied(ReasonStoreUnavailable)
		d.Requirement = name
		d.Cause = err
		return d, nil
	}
	if orgID == "" {
		d := denied(ReasonNoActiveOrganization)
		d.Requirement = name
		return d, nil
	}

	membership, err := e.store.FindEffectiveMembership(ctx, orgID, principal.ID)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Decision{}, ctxErr
		}
		d := denied(ReasonStoreUnavailable)
		d.Requirement = name
		d.OrganizationID = orgID
		d.Cause = err
		return d, nil
	}
	if membership != nil && (membership.OrganizationID != orgID || membership.UserID != principal.ID) {
		membership = nil
	}

	d := Evaluate(membership, req)
	d.OrganizationID = orgID

	if err := ctx.Err(); err != nil {
		return Decision{}, err
	}
	return d, nil
}

func (e *Engine) record(ctx context.Context, principal *Principal, d Decision) {
	if e.audit == nil {
		return
	}
	if err := e.audit.RecordDecision(ctx, newAuditRecord(ctx, principal, d, e.now())); err != nil {
		e.monitor.recordAuditFailure(ctx)
		e.logger.Error().Err(err).
			Str("requirement", d.Requirement).
			Str("reason", string(d.Reason)).
			Msg("Failed to record authorization decision")
	}
}

func (e *Engine) log(principal *Principal, d Decision, err error) {
	ev := e.logger.Debug()
	switch {
	case d.Reason == ReasonUnknownRequirement:
		ev = e.logger.Error().Err(err)
	case d.Reason == ReasonStoreUnavailable:
		ev = e.logger.Error().Err(d.Cause)
	case !d.Allowed():
		ev = e.logger.Info()
	}
	if principal != nil {
		ev = ev.Str("principal_id", principal.ID)
	}
	ev.Str("requirement", d.Requirement).
		Str("organization_id", d.OrganizationID).
		Str("role", string(d.Role)).
		Str("outcome", string(d.Outcome)).
		Str("reason", string(d.Reason)).
		Msg("Authorization decision")
}

// Metrics returns decision statistics collected since start or the last reset.
func (e *Engine) Metrics() DecisionMetrics {
	return e.monitor.getMetrics()
}

// ResetMetrics clears the collected decision statistics.
func (e *Engine) ResetMetrics() {
	e.monitor.reset()
}
