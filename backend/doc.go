// Package backend routes bulk numeric operations to compiled kernel
// providers.
//
// A Registry holds providers in priority order together with a process-wide
// threshold table. The Dispatcher matches an operation Descriptor against
// provider capabilities: the (kind, operator) pair must be declared, the
// element kind must satisfy the provider's constraint, and the element count
// must meet the provider's current threshold. The first match wins; no match
// means the interpreted path runs.
//
// Correctness never depends on a provider being available. A native-path
// failure is a diagnostic, not an error: the caller restarts the whole
// terminal operation on the interpreted path and never mixes partial
// native and interpreted output.
//
//	reg := backend.NewRegistry()
//	reg.Register(backend.NewNative())
//	reg.SetThreshold("native", 1000)
package backend
