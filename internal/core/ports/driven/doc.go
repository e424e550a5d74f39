// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
//
// The core services depend only on these interfaces. Adapters under
// internal/adapters/driven implement them for concrete providers
// (OpenAI, Anthropic, Qdrant, SQLite).
package driven
