package ports

import (
	"context"

	"github.com/alejandrodnm/macrostrike/internal/domain"
)

// AuditSink persiste los eventos de auditoría que emite cada entry point
// mutador. Son el único log observable del core.
type AuditSink interface {
	// Record persiste un evento. Los emisores tratan el fallo del sink como
	// warning, nunca como fallo de la operación auditada.
	Record(ctx context.Context, ev domain.AuditEvent) error

	// Close cierra el sink limpiamente.
	Close() error
}
