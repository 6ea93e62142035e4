package domain

import "errors"

// Taxonomía de errores del core. Son centinelas: los call sites los envuelven
// con fmt.Errorf + %w y el caller distingue con errors.Is. La separación
// importa para el tooling externo: "rechazado por política" (precondición)
// no es lo mismo que "error de sistema" (routing).

// Autorización — identidad del caller incorrecta, siempre fatal.
var (
	ErrNotOwner  = errors.New("caller is not the owner")
	ErrNotMaster = errors.New("caller is not the registered master")
)

// Precondiciones — input o estado no pasa un gate; aborta sin mutación parcial.
var (
	ErrNotInitialized     = errors.New("ledger not initialized")
	ErrAlreadyInitialized = errors.New("ledger already initialized")
	ErrConfidenceTooLow   = errors.New("confidence below required threshold")
	ErrWrongDirection     = errors.New("opportunity direction does not match facet")
	ErrPoolNotRegistered  = errors.New("pool not registered")
	ErrInvalidBotCount    = errors.New("invalid bot count")
	ErrZeroCapital        = errors.New("initial capital must be positive")
)

// Registro — mal uso administrativo; aborta.
var (
	ErrAlreadyRegistered   = errors.New("child kind already registered")
	ErrInvalidAddress      = errors.New("address must not be the zero address")
	ErrDuplicateSelector   = errors.New("selector already mapped to a facet")
	ErrSelectorNotFound    = errors.New("selector not mapped to any facet")
	ErrNoOpReplace         = errors.New("replacement facet is the current facet")
	ErrEmptySelectorSet    = errors.New("facet cut carries no selectors")
	ErrNullFacet           = errors.New("facet address must not be the zero address")
	ErrRemoveTargetNotNull = errors.New("remove cut must target the zero address")
)

// Routing — el dispatcher no pudo resolver el destino; distinto de un
// destino resuelto que falla (ese error burbujea tal cual).
var (
	ErrUnknownSelector    = errors.New("no facet registered for selector")
	ErrUnknownOperation   = errors.New("operation kind not handled by this child")
	ErrFacetNotFound      = errors.New("no facet routed for operation")
	ErrChildNotRegistered = errors.New("child kind not registered")
)
