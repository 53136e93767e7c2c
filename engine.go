package twofa

import (
	"context"

	"go.uber.org/zap"

	"github.com/veilkey/twofa/internal"
	"github.com/veilkey/twofa/internal/lockout"
	"github.com/veilkey/twofa/password"
	"github.com/veilkey/twofa/token"
)

// Engine is the authentication service external callers invoke. Construct it
// through [Builder.Build]; after that, all methods are safe for concurrent
// use. Operations on the same identity are serialized internally so backup
// code consumption and failure counting never race.
type Engine struct {
	config       Config
	store        CredentialStore
	limiter      lockout.Limiter
	totp         *totpManager
	passwordHash *password.Hasher
	tokens       *token.Manager
	clock        Clock
	locks        *internal.KeyedMutex
	audit        *auditDispatcher
	metrics      *Metrics
	logger       *zap.Logger
}

// Close drains and stops the audit dispatcher. The engine must not be used
// after Close.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
		if dropped := e.audit.Dropped(); dropped > 0 {
			e.logger.Warn("audit events dropped", zap.Uint64("count", dropped))
		}
	}
}

// AuditDropped reports how many audit events were dropped because the
// dispatcher buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot copies the engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) emitAudit(ctx context.Context, eventType, identity string, success bool, failure error) {
	if e == nil || e.audit == nil {
		return
	}
	e.audit.Emit(ctx, newAuditEvent(eventType, identity, success, failure, e.clock.Now()))
}
