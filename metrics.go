package orgkit

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/fernandezvara/orgkit"

const (
	// minDecisionsForHealth is the sample size below which IsHealthy always reports true.
	minDecisionsForHealth = 10
	// maxStoreFailureRate is the highest tolerated share of store_unavailable denials.
	maxStoreFailureRate = 0.05
)

// DecisionMetrics provides authorization decision statistics.
type DecisionMetrics struct {
	TotalDecisions  int64            `json:"total_decisions"`
	AllowedCount    int64            `json:"allowed_count"`
	DeniedCount     int64            `json:"denied_count"`
	StoreFailures   int64            `json:"store_failures"`
	AuditFailures   int64            `json:"audit_failures"`
	ByReason        map[Reason]int64 `json:"by_reason"`
	AverageDuration time.Duration    `json:"average_duration"`
	MaxDuration     time.Duration    `json:"max_duration"`
	MinDuration     time.Duration    `json:"min_duration"`
	LastReset       time.Time        `json:"last_reset"`
}

// StoreFailureRate returns the share of decisions denied because the store was unavailable.
func (m DecisionMetrics) StoreFailureRate() float64 {
	if m.TotalDecisions == 0 {
		return 0
	}
	return float64(m.StoreFailures) / float64(m.TotalDecisions)
}

// IsHealthy reports whether the store failure rate is within tolerance.
func (m DecisionMetrics) IsHealthy() bool {
	if m.TotalDecisions < minDecisionsForHealth {
		return true
	}
	return m.StoreFailureRate() <= maxStoreFailureRate
}

// decisionMonitor aggregates in-process decision statistics and forwards them
// to OpenTelemetry instruments.
type decisionMonitor struct {
	totalCount    int64
	allowCount    int64
	denyCount     int64
	storeFailures int64
	auditFailures int64
	totalDuration int64 // nanoseconds
	maxDuration   int64 // nanoseconds
	minDuration   int64 // nanoseconds

	mu        sync.Mutex
	byReason  map[Reason]int64
	lastReset time.Time

	decisions       metric.Int64Counter
	storeFailureCtr metric.Int64Counter
	auditFailureCtr metric.Int64Counter
	duration        metric.Float64Histogram
}

func newDecisionMonitor(provider metric.MeterProvider) *decisionMonitor {
	meter := provider.Meter(instrumentationName)

	dm := &decisionMonitor{
		minDuration: int64(time.Hour),
		byReason:    make(map[Reason]int64),
		lastReset:   time.Now(),
	}

	dm.decisions, _ = meter.Int64Counter(
		"orgkit.authorization.decisions.total",
		metric.WithDescription("Total number of authorization decisions"),
		metric.WithUnit("{decision}"),
	)

	dm.storeFailureCtr, _ = meter.Int64Counter(
		"orgkit.authorization.store_failures.total",
		metric.WithDescription("Total number of decisions denied because the membership store was unavailable"),
		metric.WithUnit("{failure}"),
	)

	dm.auditFailureCtr, _ = meter.Int64Counter(
		"orgkit.authorization.audit_failures.total",
		metric.WithDescription("Total number of decision records the audit sink failed to accept"),
		metric.WithUnit("{failure}"),
	)

	dm.duration, _ = meter.Float64Histogram(
		"orgkit.authorization.duration",
		metric.WithDescription("Duration of authorization checks"),
		metric.WithUnit("ms"),
	)

	return dm
}

func (dm *decisionMonitor) recordDecision(ctx context.Context, d Decision, duration time.Duration) {
	atomic.AddInt64(&dm.totalCount, 1)
	atomic.AddInt64(&dm.totalDuration, int64(duration))
	if d.Allowed() {
		atomic.AddInt64(&dm.allowCount, 1)
	} else {
		atomic.AddInt64(&dm.denyCount, 1)
	}
	if d.Reason == ReasonStoreUnavailable {
		atomic.AddInt64(&dm.storeFailures, 1)
	}

	durationNs := int64(duration)
	for {
		current := atomic.LoadInt64(&dm.maxDuration)
		if durationNs <= current || atomic.CompareAndSwapInt64(&dm.maxDuration, current, durationNs) {
			break
		}
	}
	for {
		current := atomic.LoadInt64(&dm.minDuration)
		if durationNs >= current || atomic.CompareAndSwapInt64(&dm.minDuration, current, durationNs) {
			break
		}
	}

	dm.mu.Lock()
	dm.byReason[d.Reason]++
	dm.mu.Unlock()

	attrs := metric.WithAttributes(
		attribute.String("outcome", string(d.Outcome)),
		attribute.String("reason", string(d.Reason)),
		attribute.String("requirement", d.Requirement),
	)
	if dm.decisions != nil {
		dm.decisions.Add(ctx, 1, attrs)
	}
	if dm.duration != nil {
		dm.duration.Record(ctx, float64(duration.Microseconds())/1000, attrs)
	}
	if d.Reason == ReasonStoreUnavailable && dm.storeFailureCtr != nil {
		dm.storeFailureCtr.Add(ctx, 1, metric.WithAttributes(attribute.String("requirement", d.Requirement)))
	}
}

func (dm *decisionMonitor) recordAuditFailure(ctx context.Context) {
	atomic.AddInt64(&dm.auditFailures, 1)
	if dm.auditFailureCtr != nil {
		dm.auditFailureCtr.Add(ctx, 1)
	}
}

func (dm *decisionMonitor) getMetrics() DecisionMetrics {
	dm.mu.Lock()
	byReason := make(map[Reason]int64, len(dm.byReason))
	for r, n := range dm.byReason {
		byReason[r] = n
	}
	lastReset := dm.lastReset
	dm.mu.Unlock()

	total := atomic.LoadInt64(&dm.totalCount)
	var avgDuration time.Duration
	if total > 0 {
		avgDuration = time.Duration(atomic.LoadInt64(&dm.totalDuration) / total)
	}
	minDur := atomic.LoadInt64(&dm.minDuration)
	if total == 0 {
		minDur = 0
	}

	return DecisionMetrics{
		TotalDecisions:  total,
		AllowedCount:    atomic.LoadInt64(&dm.allowCount),
		DeniedCount:     atomic.LoadInt64(&dm.denyCount),
		StoreFailures:   atomic.LoadInt64(&dm.storeFailures),
		AuditFailures:   atomic.LoadInt64(&dm.auditFailures),
		ByReason:        byReason,
		AverageDuration: avgDuration,
		MaxDuration:     time.Duration(atomic.LoadInt64(&dm.maxDuration)),
		MinDuration:     time.Duration(minDur),
		LastReset:       lastReset,
	}
}

func (dm *decisionMonitor) reset() {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	atomic.StoreInt64(&dm.totalCount, 0)
	atomic.StoreInt64(&dm.allowCount, 0)
	atomic.StoreInt64(&dm.denyCount, 0)
	atomic.StoreInt64(&dm.storeFailures, 0)
	atomic.StoreInt64(&dm.auditFailures, 0)
	atomic.StoreInt64(&dm.totalDuration, 0)
	atomic.StoreInt64(&dm.maxDuration, 0)
	atomic.StoreInt64(&dm.minDuration, int64(time.Hour))
	dm.byReason = make(map[Reason]int64)
	dm.lastReset = time.Now()
}
