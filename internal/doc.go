// Package internal documents the eventcal server internals.
//
// The internal tree is organized by responsibility:
// - api: HTTP handlers, middleware, problem responses, and routing
// - domain/events: the event model, validation, and the service
// - storage: the SQLite and PostgreSQL event stores
// - mcp: the same operations exposed as MCP tools
// - audit, config, metrics, telemetry: shared infrastructure
//
// Code in internal/ is not meant for external import.
package internal
