// Package core defines the shared domain types for modelflow: nodes,
// dependency metadata, run records, and the manifest format. It has no
// dependencies on the engine, adapters, or CLI so that every layer can
// speak the same vocabulary.
package core
