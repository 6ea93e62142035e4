package ports

import (
	"context"

	"github.com/alejandrodnm/macrostrike/internal/domain"
)

// Notifier presenta el resultado de cada operación coordinada y las
// estadísticas agregadas al operador.
type Notifier interface {
	Notify(ctx context.Context, result domain.CoordinatedResult, stats domain.AggregateStats) error
}
