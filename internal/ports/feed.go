package ports

import (
	"context"

	"github.com/alejandrodnm/macrostrike/internal/domain"
)

// OpportunitySource entrega las señales que el engine convierte en
// operaciones coordinadas. En producción sería el proceso de decisión
// externo; en simulación, un generador sintético.
type OpportunitySource interface {
	// NextBatch devuelve las señales del siguiente ciclo.
	NextBatch(ctx context.Context) ([]domain.Signal, error)
}
