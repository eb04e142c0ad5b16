package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Evaluation errors, raised while applying a compiled expression to a
// concrete element. They propagate unchanged to the terminal call site.
const (
	// ErrCodeEvalLookup indicates a missing key, index, or attribute.
	ErrCodeEvalLookup ErrorCode = "EVAL_LOOKUP"
	// ErrCodeEvalType indicates an operand of the wrong type.
	ErrCodeEvalType ErrorCode = "EVAL_TYPE"
	// ErrCodeEvalArity indicates a call with the wrong number of arguments.
	ErrCodeEvalArity ErrorCode = "EVAL_ARITY"
)

// Configuration errors, raised synchronously at the configuration call.
const (
	// ErrCodeInvalidThreshold indicates a threshold outside the valid range.
	ErrCodeInvalidThreshold ErrorCode = "INVALID_THRESHOLD"
	// ErrCodeUnknownBackend indicates a backend name that is not registered.
	ErrCodeUnknownBackend ErrorCode = "UNKNOWN_BACKEND"
)

// Backend errors, raised only by explicit-backend operation variants. The
// automatic path never surfaces these; it degrades to the interpreted path.
const (
	// ErrCodeBackendUnavailable indicates the named backend is not registered
	// or is disabled.
	ErrCodeBackendUnavailable ErrorCode = "BACKEND_UNAVAILABLE"
	// ErrCodeBackendIncompatible indicates the data is structurally
	// incompatible with the named backend's kernels.
	ErrCodeBackendIncompatible ErrorCode = "BACKEND_INCOMPATIBLE"
)

// Pipeline errors.
const (
	// ErrCodeTemplate indicates a malformed or non-applicable template,
	// including interpolation applied to an already-interpolated string.
	ErrCodeTemplate ErrorCode = "TEMPLATE"
	// ErrCodeUnsupportedOp indicates an extension operation that is not
	// registered for the element type or operation name.
	ErrCodeUnsupportedOp ErrorCode = "UNSUPPORTED_OP"
	// ErrCodeEmpty indicates a terminal operation that requires at least one
	// element was applied to an empty sequence.
	ErrCodeEmpty ErrorCode = "EMPTY"
	// ErrCodeInvalidArgument indicates a pipeline operation received an
	// argument outside its valid range.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
)
