package domain

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Operaciones auditadas. Todo entry point que muta estado emite exactamente
// un AuditEvent; son el único log observable desde fuera del core.
const (
	EvDiamondCut       = "DIAMOND_CUT"
	EvOwnerTransferred = "OWNERSHIP_TRANSFERRED"
	EvChildRegistered  = "CHILD_REGISTERED"
	EvPoolRegistered   = "POOL_REGISTERED"
	EvInitialized      = "LEDGER_INITIALIZED"
	EvBatchExecuted    = "BATCH_EXECUTED"
	EvRebalanced       = "REBALANCED"
	EvCoordinated      = "COORDINATED_OPERATION"
)

// AuditEvent es el registro estructurado que emiten los entry points
// mutadores: identidad de la operación, resultados numéricos clave y
// timestamp del entorno.
type AuditEvent struct {
	ID      string // uuid asignado por el emisor
	Op      string // una de las constantes Ev*
	Actor   common.Address
	Family  string // hijo/ledger afectado, vacío para eventos del master
	Success bool
	Profit  *big.Int // nil cuando no aplica
	WinRate uint64
	Details map[string]string
	At      time.Time
}
