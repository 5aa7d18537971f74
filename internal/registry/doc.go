// Package registry holds the named capability handlers a step runner can
// invoke. Capabilities are the engine's external collaborators (process
// execution, checkout, cache, archive, upload); the registry maps the
// capability names used in a matrix declaration onto Go handlers
// registered by modules at startup.
package registry
