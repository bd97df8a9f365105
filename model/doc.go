// Package model defines the in-memory mapping model: the typed
// entities describing an RML mapping document. Entities are built by
// the mapping loader, frozen before execution, and shared read-only
// by the engine.
package model
