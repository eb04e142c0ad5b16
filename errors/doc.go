// Package errors provides structured error types for fnkit.
//
// Every error carries a machine-readable ErrorCode so callers can react to
// classes of failure (evaluation, configuration, backend) without string
// matching:
//
//	_, err := pipe.From(data).SumOn("zig")
//	if errors.IsCode(err, errors.ErrCodeBackendUnavailable) {
//	    // fall back to automatic selection
//	}
package errors
