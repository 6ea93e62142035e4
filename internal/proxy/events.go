package proxy

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alejandrodnm/macrostrike/internal/domain"
	"github.com/alejandrodnm/macrostrike/internal/ports"
)

// emit stamps and records an audit event. A nil sink means events are
// log-only; a failing sink is a warning, never a failure of the audited
// operation.
func emit(ctx context.Context, sink ports.AuditSink, ev domain.AuditEvent) {
	ev.ID = uuid.New().String()
	ev.At = time.Now().UTC()

	slog.Debug("audit event",
		"op", ev.Op,
		"family", ev.Family,
		"success", ev.Success,
		"actor", ev.Actor.Hex(),
	)

	if sink == nil {
		return
	}
	if err := sink.Record(ctx, ev); err != nil {
		slog.Warn("audit sink error", "op", ev.Op, "err", err)
	}
}
